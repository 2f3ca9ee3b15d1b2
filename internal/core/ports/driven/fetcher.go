package driven

import "context"

// ArtifactFetcher downloads an artifact URL to a local path.
type ArtifactFetcher interface {
	// Download streams url to dest and returns the path written.
	// An existing file at dest is returned unchanged without a fetch.
	// On failure no partial file is left at dest.
	Download(ctx context.Context, url, dest string) (string, error)
}
