// Package github adapts the hosting platform's release API for the
// sync workflow: release get-or-create and replace-then-upload asset
// publication, with typed errors and rate limiting.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
)

// uploadTimeout bounds a single asset upload and is also the client
// timeout, since uploads share the client with small API calls. A
// short client timeout here would kill multi-hundred-MB uploads.
const uploadTimeout = 15 * time.Minute

// Client wraps the go-github client for one target repository.
type Client struct {
	gh      *gh.Client
	owner   string
	repo    string
	limiter *RateLimiter
}

// NewClient creates an API client for owner/repo authenticated with a
// static access token.
func NewClient(ctx context.Context, token, owner, repo string) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = uploadTimeout

	return &Client{
		gh:      gh.NewClient(tc),
		owner:   owner,
		repo:    repo,
		limiter: NewRateLimiter(),
	}
}

// NewClientWithHTTPClient creates a client with a custom http.Client.
// Useful for testing against a local API server.
func NewClientWithHTTPClient(httpClient *http.Client, owner, repo string) *Client {
	return &Client{
		gh:      gh.NewClient(httpClient),
		owner:   owner,
		repo:    repo,
		limiter: NewRateLimiter(),
	}
}

// GitHub returns the underlying go-github client.
func (c *Client) GitHub() *gh.Client {
	return c.gh
}

// Repo returns the target repository in owner/name form.
func (c *Client) Repo() string {
	return c.owner + "/" + c.repo
}

// RateLimiter returns the client's rate limiter.
func (c *Client) RateLimiter() *RateLimiter {
	return c.limiter
}

// ValidateCredentials checks the token by fetching the target
// repository; a 404 here also catches a repo the token cannot see.
func (c *Client) ValidateCredentials(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	_, resp, err := c.gh.Repositories.Get(ctx, c.owner, c.repo)
	if err != nil {
		return c.wrapError(err, "get repo")
	}
	c.updateRateLimitFromResponse(resp)
	return nil
}

// updateRateLimitFromResponse feeds response headers to the limiter.
func (c *Client) updateRateLimitFromResponse(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.limiter.UpdateFromResponse(resp.Response)
}

// wrapError converts go-github errors to our error types.
func (c *Client) wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) {
		apiErr := &APIError{Message: ghErr.Message}
		if ghErr.Response != nil {
			apiErr.StatusCode = ghErr.Response.StatusCode
		}
		for _, e := range ghErr.Errors {
			apiErr.Codes = append(apiErr.Codes, e.Code)
		}
		return apiErr
	}

	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return &RateLimitError{
			ResetAt:   c.limiter.ResetTime(),
			Remaining: c.limiter.Remaining(),
			Limit:     c.limiter.Limit(),
		}
	}

	return fmt.Errorf("%s: %w", operation, err)
}
