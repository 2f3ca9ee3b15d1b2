package driven

import (
	"context"

	"github.com/custodia-labs/jbsync/internal/core/domain"
)

// PageParser extracts the latest version and per-edition artifact URLs
// from a vendor download page. Page markup is fragile; implementations
// return a fatal error when the expected structure is missing rather
// than guessing.
type PageParser interface {
	// Parse fetches and parses the download page at url.
	Parse(ctx context.Context, url string) (*domain.PageData, error)
}
