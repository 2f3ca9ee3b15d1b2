// Package services implements the driving ports on top of the driven
// ones. The sync orchestrator is the only service: it owns the
// version-change detection workflow and the all-editions-or-nothing
// rule for advancing the stored version.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/custodia-labs/jbsync/internal/core/domain"
	"github.com/custodia-labs/jbsync/internal/core/ports/driven"
	"github.com/custodia-labs/jbsync/internal/core/ports/driving"
	"github.com/custodia-labs/jbsync/internal/logger"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncOrchestrator = (*SyncOrchestrator)(nil)

// artifactPatterns matches installer downloads left in the working
// directory. Cleanup removes these after every run, successful or not.
var artifactPatterns = []string{"*.tar.gz", "*.exe", "*.dmg"}

// SyncOrchestrator checks one product download page for a new version
// and publishes every edition of it as release assets.
type SyncOrchestrator struct {
	productURL string
	workDir    string
	parser     driven.PageParser
	fetcher    driven.ArtifactFetcher
	publisher  driven.ReleasePublisher
	store      driven.StateStore
	committer  driven.Committer
	push       bool

	// now is swapped out in tests for deterministic timestamps.
	now func() time.Time
}

// NewSyncOrchestrator creates an orchestrator for one product page.
// Downloads land in workDir; push controls whether the state commit is
// published to the remote.
func NewSyncOrchestrator(
	productURL string,
	workDir string,
	parser driven.PageParser,
	fetcher driven.ArtifactFetcher,
	publisher driven.ReleasePublisher,
	store driven.StateStore,
	committer driven.Committer,
	push bool,
) *SyncOrchestrator {
	return &SyncOrchestrator{
		productURL: productURL,
		workDir:    workDir,
		parser:     parser,
		fetcher:    fetcher,
		publisher:  publisher,
		store:      store,
		committer:  committer,
		push:       push,
		now:        time.Now,
	}
}

// Sync runs one pass of the workflow:
//
//  1. Load the persisted state and parse the download page.
//  2. When the stored version already matches, stop: no downloads, no
//     API calls, no writes.
//  3. Otherwise publish each edition in order: get-or-create the
//     release, download the artifact, upload it as an asset.
//  4. Only when every edition succeeded, record the new version, save
//     the state and commit it.
//
// Downloaded artifacts are removed from the working directory
// regardless of outcome.
func (o *SyncOrchestrator) Sync(ctx context.Context) (*driving.SyncResult, error) {
	// Registered before any step can fail, so leftovers from an
	// interrupted earlier run are removed even when this run stops at
	// the parse or the skip check.
	defer o.cleanup()

	product := domain.ProductFromURL(o.productURL)
	result := &driving.SyncResult{Product: product.Key()}

	state, err := o.store.Load(ctx)
	if err != nil {
		return result, fmt.Errorf("load state: %w", err)
	}

	logger.Section("Checking " + product.DisplayName)
	page, err := o.parser.Parse(ctx, o.productURL)
	if err != nil {
		return result, fmt.Errorf("parse download page: %w", err)
	}
	result.Version = page.Version

	current := state.Version(product.Key())
	if current == page.Version {
		logger.Info("%s %s already synced, nothing to do", product.DisplayName, page.Version)
		result.Skipped = true
		return result, nil
	}
	if current == "" {
		logger.Info("No previous sync for %s, publishing %s", product.DisplayName, page.Version)
	} else {
		logger.Info("New version for %s: %s -> %s", product.DisplayName, current, page.Version)
	}

	syncedAt := o.now().UTC()
	editions := make(map[domain.Edition]domain.EditionRecord)
	var failures []error

	for _, edition := range domain.Editions() {
		record, err := o.publishEdition(ctx, product, edition, page, syncedAt)
		if err != nil {
			logger.Warn("Failed to publish %s %s: %v",
				product.EditionDisplay(edition), page.Version, err)
			result.Failed++
			failures = append(failures, fmt.Errorf("%s: %w", product.EditionName(edition), err))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		editions[edition] = *record
		result.Published++
	}

	if len(failures) > 0 {
		// The stored version must not advance past an unpublished
		// edition; the next run retries the whole version.
		return result, fmt.Errorf("sync %s %s: %w: %w",
			product.Name, page.Version, domain.ErrEditionUnpublished, errors.Join(failures...))
	}

	state.SetRecord(product.Key(), domain.SyncRecord{
		Version:  page.Version,
		SyncedAt: syncedAt,
		Editions: editions,
	})
	if err := o.store.Save(ctx, state); err != nil {
		return result, fmt.Errorf("save state: %w", err)
	}

	message := fmt.Sprintf("Update sync state: %s %s", product.DisplayName, page.Version)
	if err := o.committer.Commit(ctx, o.store.Files(), message); err != nil {
		return result, fmt.Errorf("commit state: %w", err)
	}
	if o.push {
		if err := o.committer.Push(ctx); err != nil {
			return result, fmt.Errorf("push state: %w", err)
		}
	}

	logger.Info("Synced %s %s (%d editions)", product.DisplayName, page.Version, result.Published)
	return result, nil
}

// publishEdition runs the release/download/upload sequence for one
// edition and returns the record to persist.
func (o *SyncOrchestrator) publishEdition(
	ctx context.Context,
	product domain.Product,
	edition domain.Edition,
	page *domain.PageData,
	syncedAt time.Time,
) (*domain.EditionRecord, error) {
	downloadURL, ok := page.Downloads[edition]
	if !ok {
		return nil, fmt.Errorf("no download link: %w", domain.ErrNotFound)
	}

	tag := product.ReleaseTag(edition, page.Version)
	name := product.EditionDisplay(edition) + " " + page.Version
	body := fmt.Sprintf("Automated sync of %s %s.\n\nSynced at %s.",
		product.EditionDisplay(edition), page.Version, syncedAt.Format(time.RFC3339))

	logger.Section("Publishing " + name)
	release, err := o.publisher.GetOrCreateRelease(ctx, tag, name, body)
	if err != nil {
		return nil, fmt.Errorf("get or create release: %w", err)
	}

	filename := artifactName(downloadURL)
	dest := filepath.Join(o.workDir, filename)
	artifact, err := o.fetcher.Download(ctx, downloadURL, dest)
	if err != nil {
		return nil, fmt.Errorf("download artifact: %w", err)
	}

	asset, err := o.publisher.PublishAsset(ctx, release, artifact, filename)
	if err != nil {
		return nil, fmt.Errorf("publish asset: %w", err)
	}

	return &domain.EditionRecord{
		Tag:   tag,
		Asset: asset.Name,
		Size:  asset.Size,
	}, nil
}

// cleanup removes installer artifacts from the working directory so
// repeated runs on the same checkout do not accumulate them.
func (o *SyncOrchestrator) cleanup() {
	for _, pattern := range artifactPatterns {
		matches, err := filepath.Glob(filepath.Join(o.workDir, pattern))
		if err != nil {
			continue
		}
		for _, match := range matches {
			if err := os.Remove(match); err != nil {
				logger.Warn("Could not remove %s: %v", match, err)
				continue
			}
			logger.Info("Removed %s", match)
		}
	}
}

// artifactName derives the asset filename from a download URL, ignoring
// any query string.
func artifactName(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}
	return path.Base(rawURL)
}
