package driven

import (
	"context"

	"github.com/custodia-labs/jbsync/internal/core/domain"
)

// StateStore persists the per-product sync records.
type StateStore interface {
	// Load returns the persisted state, falling back to the last known
	// good copy when the primary document is unreadable. A missing or
	// doubly-corrupt store yields an empty state, not an error.
	Load(ctx context.Context) (*domain.SyncState, error)

	// Save atomically replaces the persisted state, rotating the
	// previous document into the backup slot first.
	Save(ctx context.Context, state *domain.SyncState) error

	// Files returns the paths save writes to, in the order they should
	// be staged for commit.
	Files() []string
}
