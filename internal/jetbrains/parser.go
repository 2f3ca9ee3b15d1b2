// Package jetbrains parses JetBrains download pages. The markup is not
// ours and changes without notice, so the parser is deliberately narrow:
// it knows the version-heading/downloads-table structure and nothing
// else, and fails fatally when that structure is missing.
package jetbrains

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/custodia-labs/jbsync/internal/core/domain"
	"github.com/custodia-labs/jbsync/internal/core/ports/driven"
	"github.com/custodia-labs/jbsync/internal/logger"
)

// Ensure Parser implements the interface.
var _ driven.PageParser = (*Parser)(nil)

const (
	// requestTimeout bounds the page fetch. Download pages are small;
	// anything slower than this is a dead server.
	requestTimeout = 30 * time.Second

	// userAgent is a browser-like header. The download site rejects
	// default Go client headers.
	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// maxPageSize caps how much of the page is read.
	maxPageSize = 8 << 20
)

// ParseError indicates the page could not be parsed: either the fetch
// failed or the expected structure is absent. Parse errors are fatal
// for the run and never retried, since a structural change needs a
// human, not another attempt.
type ParseError struct {
	URL    string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse %s: %s", e.URL, e.Reason)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Pre-compiled regular expressions for page parsing.
var (
	downloadsTable = regexp.MustCompile(`(?is)<table[^>]*class="[^"]*downloads[^"]*"[^>]*>(.*?)</table>`)
	versionHeading = regexp.MustCompile(`(?is)<h4[^>]*>(.*?)</h4>`)
	versionToken   = regexp.MustCompile(`\d{1,4}\.\d+(?:\.\d+)?`)
	tableRow       = regexp.MustCompile(`(?i)<tr[^>]*>`)
	anchorTag      = regexp.MustCompile(`(?is)<a\s[^>]*>`)
	classAttr      = regexp.MustCompile(`(?i)class\s*=\s*"([^"]*)"`)
	hrefAttr       = regexp.MustCompile(`(?i)href\s*=\s*"([^"]*)"`)
	trackingAttr   = regexp.MustCompile(`(?i)data-tracking\s*=\s*"([^"]*)"`)
	allTags        = regexp.MustCompile(`<[^>]+>`)
)

// Parser fetches and parses one download page for a target platform.
type Parser struct {
	client   *http.Client
	platform string
}

// NewParser creates a parser filtering download links for platform,
// e.g. "linux".
func NewParser(platform string) *Parser {
	return &Parser{
		client:   &http.Client{Timeout: requestTimeout},
		platform: strings.ToLower(platform),
	}
}

// Parse fetches url and extracts the latest version and the per-edition
// download URLs for the parser's platform.
func (p *Parser) Parse(ctx context.Context, url string) (*domain.PageData, error) {
	logger.Info("Parsing download page: %s", url)

	body, err := p.fetch(ctx, url)
	if err != nil {
		return nil, &ParseError{URL: url, Reason: "fetch failed", Err: err}
	}

	page, perr := p.parsePage(body)
	if perr != nil {
		perr.URL = url
		return nil, perr
	}

	logger.Info("Detected latest version: %s", page.Version)
	return page, nil
}

func (p *Parser) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// parsePage extracts version and links from the raw page markup. The
// latest version block is the first downloads table; its version lives
// in the closest preceding <h4> heading.
func (p *Parser) parsePage(body string) (*domain.PageData, *ParseError) {
	loc := downloadsTable.FindStringSubmatchIndex(body)
	if loc == nil {
		return nil, &ParseError{Reason: "no downloads table found"}
	}
	table := body[loc[2]:loc[3]]

	headings := versionHeading.FindAllStringSubmatch(body[:loc[0]], -1)
	if len(headings) == 0 {
		return nil, &ParseError{Reason: "no version heading before downloads table"}
	}
	headingText := stripTags(headings[len(headings)-1][1])

	version := versionToken.FindString(headingText)
	if version == "" {
		return nil, &ParseError{
			Reason: fmt.Sprintf("no version number in heading %q", headingText),
		}
	}

	downloads := p.platformLinks(table)
	for _, edition := range domain.Editions() {
		if downloads[edition] == "" {
			return nil, &ParseError{
				Reason: fmt.Sprintf("no %s %s download link found", p.platform, edition),
			}
		}
	}

	return &domain.PageData{Version: version, Downloads: downloads}, nil
}

// platformLinks scans table rows for the row naming the platform and
// pulls the primary (ultimate) and secondary (community) button links
// whose tracking attribute matches the platform.
func (p *Parser) platformLinks(table string) map[domain.Edition]string {
	links := make(map[domain.Edition]string)

	for _, row := range tableRow.Split(table, -1) {
		if !strings.Contains(strings.ToLower(stripTags(row)), p.platform) {
			continue
		}

		for _, anchor := range anchorTag.FindAllString(row, -1) {
			class := attrValue(classAttr, anchor)
			if !strings.Contains(class, "dl-button") {
				continue
			}
			if !strings.Contains(strings.ToLower(attrValue(trackingAttr, anchor)), p.platform) {
				continue
			}
			href := html.UnescapeString(attrValue(hrefAttr, anchor))
			if href == "" {
				continue
			}

			edition := domain.EditionUltimate
			if strings.Contains(class, "secondary") {
				edition = domain.EditionCommunity
			}
			if links[edition] == "" {
				links[edition] = href
			}
		}

		if len(links) > 0 {
			logger.Debug("Matched platform row with %d link(s)", len(links))
			break
		}
	}

	return links
}

func attrValue(re *regexp.Regexp, tag string) string {
	if m := re.FindStringSubmatch(tag); m != nil {
		return m[1]
	}
	return ""
}

func stripTags(s string) string {
	return html.UnescapeString(allTags.ReplaceAllString(s, " "))
}
