package github

import (
	"context"
	"fmt"
	"os"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/jbsync/internal/core/domain"
	"github.com/custodia-labs/jbsync/internal/core/ports/driven"
	"github.com/custodia-labs/jbsync/internal/logger"
	"github.com/custodia-labs/jbsync/internal/retry"
)

// Ensure Publisher implements the interface.
var _ driven.ReleasePublisher = (*Publisher)(nil)

// assetContentType is the fixed content type for uploaded installers.
const assetContentType = "application/octet-stream"

// Publisher publishes assets onto releases with a bounded retry policy.
// Asset names are unique within a release, so each attempt deletes any
// same-named asset before uploading.
type Publisher struct {
	client *Client
	policy retry.Policy
}

// NewPublisher creates a publisher retrying each delete-then-upload
// cycle up to attempts times with a fixed delay between attempts.
func NewPublisher(client *Client, attempts int, delay time.Duration) *Publisher {
	return &Publisher{
		client: client,
		policy: retry.Policy{Attempts: attempts, Delay: delay},
	}
}

// GetOrCreateRelease delegates to the client.
func (p *Publisher) GetOrCreateRelease(ctx context.Context, tag, name, body string) (*domain.Release, error) {
	return p.client.GetOrCreateRelease(ctx, tag, name, body)
}

// PublishAsset uploads path under name on the release, replacing any
// existing asset of that name. When every attempt fails the returned
// error wraps domain.ErrUploadExhausted together with the last
// attempt's cause: the caller matches on the sentinel and treats the
// edition as unpublished, not the run as crashed.
func (p *Publisher) PublishAsset(ctx context.Context, release *domain.Release, path, name string) (*domain.Asset, error) {
	var uploaded *domain.Asset

	err := p.policy.Do(ctx, func(attempt int) error {
		logger.Info("Uploading %s (attempt %d/%d)", name, attempt, p.policy.Attempts)

		p.deleteExistingAsset(ctx, release, name)

		asset, err := p.upload(ctx, release, path, name)
		if err == nil {
			uploaded = asset
			logger.Info("Upload succeeded: %s", name)
			return nil
		}

		if IsAlreadyExists(err) {
			// Another run created the asset between our delete and
			// upload. Clear it so the next attempt starts clean.
			logger.Warn("Asset conflict on %s, deleting before retry", name)
			p.deleteExistingAsset(ctx, release, name)
		} else {
			logger.Warn("Upload failed: %v", err)
		}
		return err
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.Warn("Giving up on %s after %d attempts", name, p.policy.Attempts)
		return nil, fmt.Errorf("publish %s: %w: %w", name, domain.ErrUploadExhausted, err)
	}
	return uploaded, nil
}

// deleteExistingAsset removes any asset named name from the release.
// Failures are only logged: a racing run may have deleted it already,
// and the subsequent upload surfaces anything that actually matters.
func (p *Publisher) deleteExistingAsset(ctx context.Context, release *domain.Release, name string) {
	c := p.client

	opts := &gh.ListOptions{PerPage: 100}
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return
		}
		assets, resp, err := c.gh.Repositories.ListReleaseAssets(ctx, c.owner, c.repo, release.ID, opts)
		c.updateRateLimitFromResponse(resp)
		if err != nil {
			logger.Warn("List assets failed: %v", c.wrapError(err, "list assets"))
			return
		}

		for _, asset := range assets {
			if asset.GetName() != name {
				continue
			}
			logger.Info("Deleting existing asset: %s", name)
			if err := c.limiter.Wait(ctx); err != nil {
				return
			}
			resp, err := c.gh.Repositories.DeleteReleaseAsset(ctx, c.owner, c.repo, asset.GetID())
			c.updateRateLimitFromResponse(resp)
			if err != nil {
				logger.Warn("Delete asset failed: %v", c.wrapError(err, "delete asset"))
			}
			return
		}

		if resp.NextPage == 0 {
			return
		}
		opts.Page = resp.NextPage
	}
}

// upload performs one upload attempt.
func (p *Publisher) upload(ctx context.Context, release *domain.Release, path, name string) (*domain.Asset, error) {
	c := p.client

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer file.Close()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	uploadCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	asset, resp, err := c.gh.Repositories.UploadReleaseAsset(uploadCtx, c.owner, c.repo, release.ID,
		&gh.UploadOptions{Name: name, MediaType: assetContentType}, file)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return nil, c.wrapError(err, "upload asset")
	}

	return &domain.Asset{
		ID:   asset.GetID(),
		Name: asset.GetName(),
		Size: int64(asset.GetSize()),
	}, nil
}
