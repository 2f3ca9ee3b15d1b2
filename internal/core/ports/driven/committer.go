package driven

import "context"

// Committer records state file changes in version control.
type Committer interface {
	// Commit stages files and commits them with message. An empty diff
	// is a no-op, not an error.
	Commit(ctx context.Context, files []string, message string) error

	// Push publishes the committed changes to the remote.
	Push(ctx context.Context) error
}
