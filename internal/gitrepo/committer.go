// Package gitrepo records state file changes in the hosting repository
// by shelling out to the git binary, the same way the surrounding CI
// workflow does.
package gitrepo

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/custodia-labs/jbsync/internal/core/ports/driven"
	"github.com/custodia-labs/jbsync/internal/logger"
)

// Ensure Committer implements the interface.
var _ driven.Committer = (*Committer)(nil)

// CI identity used when the repository has no user configured.
const (
	ciUserName  = "github-actions"
	ciUserEmail = "actions@github.com"
)

// Committer stages, commits and pushes files in a working tree.
type Committer struct {
	dir string
}

// NewCommitter creates a committer operating in dir. An empty dir uses
// the process working directory.
func NewCommitter(dir string) *Committer {
	return &Committer{dir: dir}
}

// Commit stages files and commits them with message. When none of the
// files differ from HEAD the commit is skipped without error.
func (c *Committer) Commit(ctx context.Context, files []string, message string) error {
	status, err := c.git(ctx, append([]string{"status", "--porcelain", "--"}, files...)...)
	if err != nil {
		return fmt.Errorf("git status: %w", err)
	}
	if strings.TrimSpace(status) == "" {
		logger.Info("No state file changes, skipping commit")
		return nil
	}

	if err := c.ensureIdentity(ctx); err != nil {
		return err
	}

	if _, err := c.git(ctx, append([]string{"add", "--"}, files...)...); err != nil {
		return fmt.Errorf("git add: %w", err)
	}
	if _, err := c.git(ctx, "commit", "-m", message); err != nil {
		return fmt.Errorf("git commit: %w", err)
	}

	logger.Info("Committed: %s", message)
	return nil
}

// Push publishes the committed changes to the remote.
func (c *Committer) Push(ctx context.Context) error {
	if _, err := c.git(ctx, "push"); err != nil {
		return fmt.Errorf("git push: %w", err)
	}
	logger.Info("Pushed state commit")
	return nil
}

// ensureIdentity sets a CI identity when the repository has none, so
// commits made inside a workflow runner do not fail.
func (c *Committer) ensureIdentity(ctx context.Context) error {
	if name, err := c.git(ctx, "config", "user.name"); err == nil && strings.TrimSpace(name) != "" {
		return nil
	}

	if _, err := c.git(ctx, "config", "user.name", ciUserName); err != nil {
		return fmt.Errorf("git config user.name: %w", err)
	}
	if _, err := c.git(ctx, "config", "user.email", ciUserEmail); err != nil {
		return fmt.Errorf("git config user.email: %w", err)
	}
	return nil
}

// git runs one git command and returns its stdout.
func (c *Committer) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("git %s", strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
