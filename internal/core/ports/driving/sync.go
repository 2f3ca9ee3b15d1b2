package driving

import "context"

// SyncOrchestrator runs the version-change detection and publication
// workflow for one product.
type SyncOrchestrator interface {
	// Sync checks the product page for a new version and, when one is
	// found, publishes every edition and persists the updated record.
	// The result reports what happened; the error is non-nil when the
	// run could not complete for all editions.
	Sync(ctx context.Context) (*SyncResult, error)
}

// SyncResult summarises one sync run.
type SyncResult struct {
	// Product is the product key the run operated on.
	Product string

	// Version is the version parsed from the download page.
	Version string

	// Skipped is true when the stored version already matched and no
	// work was performed.
	Skipped bool

	// Published counts editions uploaded successfully this run.
	Published int

	// Failed counts editions that could not be published.
	Failed int
}
