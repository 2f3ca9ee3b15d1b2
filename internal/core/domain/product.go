package domain

import (
	"regexp"
	"strings"
)

// Edition is one of the two distribution variants of a product.
type Edition string

const (
	// EditionUltimate is the full-featured paid edition.
	EditionUltimate Edition = "ultimate"

	// EditionCommunity is the free edition.
	EditionCommunity Edition = "community"
)

// Editions returns all tracked editions in processing order.
// Ultimate is always processed before community.
func Editions() []Edition {
	return []Edition{EditionUltimate, EditionCommunity}
}

// Product describes one JetBrains product and its edition naming.
// It is derived deterministically from the product download URL and
// never persisted on its own.
type Product struct {
	// Name is the lowercase product identifier, e.g. "idea".
	Name string

	// DisplayName is the capitalised product name, e.g. "Idea".
	DisplayName string
}

// productNamePattern extracts the product segment from a JetBrains URL,
// e.g. "idea" from https://www.jetbrains.com/idea/download/other.html.
var productNamePattern = regexp.MustCompile(`//www\.jetbrains\.com/(\w+)/`)

// ProductFromURL derives a Product from its download page URL.
// URLs that do not match the expected host layout fall back to the
// generic "jetbrains" product name.
func ProductFromURL(url string) Product {
	name := "jetbrains"
	if m := productNamePattern.FindStringSubmatch(url); m != nil {
		name = strings.ToLower(m[1])
	}
	return Product{
		Name:        name,
		DisplayName: capitalise(name),
	}
}

// EditionName returns the product-edition identifier used in tags,
// e.g. "idea-ultimate".
func (p Product) EditionName(e Edition) string {
	return p.Name + "-" + string(e)
}

// EditionDisplay returns the human-readable edition name,
// e.g. "Idea Ultimate".
func (p Product) EditionDisplay(e Edition) string {
	return p.DisplayName + " " + capitalise(string(e))
}

// ReleaseTag returns the release tag for an edition at a version,
// e.g. "idea-ultimate-2024.2".
func (p Product) ReleaseTag(e Edition, version string) string {
	return p.EditionName(e) + "-" + version
}

// Key returns the identifier under which this product's sync record is
// stored. The record key is the ultimate edition's display name, matching
// the layout the state file has always used.
func (p Product) Key() string {
	return p.EditionDisplay(EditionUltimate)
}

func capitalise(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// PageData is the parse result for one download page: the latest version
// and one artifact URL per edition. Produced fresh each run, never stored.
type PageData struct {
	// Version is the vendor version token, e.g. "2024.1".
	Version string

	// Downloads maps each edition to its artifact URL.
	Downloads map[Edition]string
}
