package gitrepo

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// initRepo creates a throwaway git repository with one initial commit.
func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}

	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}

	run("init", "-q")
	run("config", "user.name", "test")
	run("config", "user.email", "test@example.com")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("seed"), 0644))
	run("add", "README.md")
	run("commit", "-q", "-m", "initial")
	return dir
}

func gitLog(t *testing.T, dir string) string {
	t.Helper()
	cmd := exec.Command("git", "log", "--oneline")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err)
	return string(out)
}

func TestCommit_CommitsChangedFile(t *testing.T) {
	dir := initRepo(t)
	committer := NewCommitter(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "synced_data.json"),
		[]byte(`{"products":{}}`), 0644))

	err := committer.Commit(context.Background(),
		[]string{"synced_data.json"}, "Update sync state: version 2024.2")

	require.NoError(t, err)
	assert.Contains(t, gitLog(t, dir), "2024.2")
}

func TestCommit_NoChangesIsNoOp(t *testing.T) {
	dir := initRepo(t)
	committer := NewCommitter(dir)
	before := gitLog(t, dir)

	err := committer.Commit(context.Background(),
		[]string{"synced_data.json"}, "Update sync state: version 2024.2")

	require.NoError(t, err)
	assert.Equal(t, before, gitLog(t, dir), "empty diff must not create a commit")
}

func TestCommit_StagesOnlyNamedFiles(t *testing.T) {
	dir := initRepo(t)
	committer := NewCommitter(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "synced_data.json"),
		[]byte(`{"products":{}}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"),
		[]byte("scratch"), 0644))

	err := committer.Commit(context.Background(),
		[]string{"synced_data.json"}, "Update sync state: version 2024.2")

	require.NoError(t, err)

	cmd := exec.Command("git", "status", "--porcelain")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err)
	assert.Contains(t, string(out), "unrelated.txt", "unnamed files stay unstaged")
	assert.NotContains(t, string(out), "synced_data.json")
}

func TestCommit_BackupFileCommittedAlongside(t *testing.T) {
	dir := initRepo(t)
	committer := NewCommitter(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "synced_data.json"),
		[]byte(`{"products":{}}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "synced_data.json.bak"),
		[]byte(`{"products":{}}`), 0644))

	err := committer.Commit(context.Background(),
		[]string{"synced_data.json", "synced_data.json.bak"},
		"Update sync state: version 2024.2")

	require.NoError(t, err)

	cmd := exec.Command("git", "show", "--stat", "--oneline", "HEAD")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err)
	assert.Contains(t, string(out), "synced_data.json.bak")
}

func TestCommit_SetsIdentityWhenUnset(t *testing.T) {
	dir := initRepo(t)
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		_ = cmd.Run()
	}
	run("config", "--unset", "user.name")
	run("config", "--unset", "user.email")

	// Isolate from any global git config.
	t.Setenv("GIT_CONFIG_GLOBAL", filepath.Join(t.TempDir(), "empty"))
	t.Setenv("GIT_CONFIG_SYSTEM", os.DevNull)

	committer := NewCommitter(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "synced_data.json"),
		[]byte(`{"products":{}}`), 0644))

	err := committer.Commit(context.Background(),
		[]string{"synced_data.json"}, "Update sync state: version 2024.2")

	require.NoError(t, err)

	cmd := exec.Command("git", "log", "-1", "--format=%an")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err)
	assert.Equal(t, ciUserName, strings.TrimSpace(string(out)))
}

func TestPush_NoRemoteFails(t *testing.T) {
	dir := initRepo(t)
	committer := NewCommitter(dir)

	err := committer.Push(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "git push")
}
