package github

import (
	"context"
	"errors"
	"fmt"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/jbsync/internal/core/domain"
	"github.com/custodia-labs/jbsync/internal/logger"
)

// GetOrCreateRelease returns the release tagged tag, creating it (and
// the tag) when absent. A not-found lookup is expected, not an error.
func (c *Client) GetOrCreateRelease(ctx context.Context, tag, name, body string) (*domain.Release, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	release, resp, err := c.gh.Repositories.GetReleaseByTag(ctx, c.owner, c.repo, tag)
	c.updateRateLimitFromResponse(resp)
	if err == nil {
		logger.Info("Found existing release: %s", tag)
		return toDomainRelease(release), nil
	}
	if wrapped := c.wrapError(err, "get release"); !IsNotFound(wrapped) {
		return nil, wrapped
	}

	logger.Info("Creating new release: %s", tag)
	created, err := c.createRelease(ctx, tag, name, body)
	if err == nil {
		return toDomainRelease(created), nil
	}
	logger.Warn("Release creation failed, trying direct creation: %v", err)

	// Fallback: the simplest direct creation call. Platforms differ in
	// whether release creation implicitly creates the tag; the primary
	// path above must not be the only one we know.
	created, fberr := c.createReleaseDirect(ctx, tag, name, body)
	if fberr != nil {
		return nil, &ReleaseCreationError{Tag: tag, Err: errors.Join(err, fberr)}
	}
	return toDomainRelease(created), nil
}

// createRelease creates tag and release. When the tag ref is missing
// it is first created at the default branch's current head; when it
// already exists (a prior partial run), the release is created against
// it directly.
func (c *Client) createRelease(ctx context.Context, tag, name, body string) (*gh.RepositoryRelease, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	_, resp, err := c.gh.Git.GetRef(ctx, c.owner, c.repo, "tags/"+tag)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		wrapped := c.wrapError(err, "get tag ref")
		if !IsNotFound(wrapped) {
			return nil, wrapped
		}
		if err := c.createTagRef(ctx, tag); err != nil {
			return nil, err
		}
	} else {
		logger.Debug("Tag %s already exists, creating release against it", tag)
	}

	return c.createReleaseDirect(ctx, tag, name, body)
}

// createTagRef creates a lightweight tag pointing at the default
// branch's current commit.
func (c *Client) createTagRef(ctx context.Context, tag string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	repository, resp, err := c.gh.Repositories.Get(ctx, c.owner, c.repo)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return c.wrapError(err, "get repo")
	}
	branch := repository.GetDefaultBranch()

	head, resp, err := c.gh.Git.GetRef(ctx, c.owner, c.repo, "heads/"+branch)
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return c.wrapError(err, "get branch head")
	}

	logger.Debug("Creating tag %s at %s head %s", tag, branch, head.GetObject().GetSHA())
	_, resp, err = c.gh.Git.CreateRef(ctx, c.owner, c.repo, gh.CreateRef{
		Ref: "refs/tags/" + tag,
		SHA: head.GetObject().GetSHA(),
	})
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return c.wrapError(err, "create tag ref")
	}
	return nil
}

// createReleaseDirect is the plain release-creation call, used both as
// the tail of the primary path and as the fallback.
func (c *Client) createReleaseDirect(ctx context.Context, tag, name, body string) (*gh.RepositoryRelease, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	release, resp, err := c.gh.Repositories.CreateRelease(ctx, c.owner, c.repo, &gh.RepositoryRelease{
		TagName: gh.Ptr(tag),
		Name:    gh.Ptr(name),
		Body:    gh.Ptr(body),
	})
	c.updateRateLimitFromResponse(resp)
	if err != nil {
		return nil, c.wrapError(err, "create release")
	}
	return release, nil
}

func toDomainRelease(r *gh.RepositoryRelease) *domain.Release {
	return &domain.Release{
		ID:      r.GetID(),
		TagName: r.GetTagName(),
		Name:    r.GetName(),
	}
}
