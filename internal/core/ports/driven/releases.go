package driven

import (
	"context"

	"github.com/custodia-labs/jbsync/internal/core/domain"
)

// ReleasePublisher manages releases and their assets on the hosting
// platform.
type ReleasePublisher interface {
	// GetOrCreateRelease returns the release tagged tag, creating the
	// tag and release when absent.
	GetOrCreateRelease(ctx context.Context, tag, name, body string) (*domain.Release, error)

	// PublishAsset uploads path as an asset named name on the release,
	// replacing any existing asset of the same name. It retries per the
	// adapter's policy and returns domain.ErrUploadExhausted once all
	// attempts fail.
	PublishAsset(ctx context.Context, release *domain.Release, path, name string) (*domain.Asset, error)
}
