package gitutil

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runGit(t *testing.T, dir string, env []string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
}

func TestLastModified(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	runGit(t, dir, nil, "init", "-q")
	runGit(t, dir, nil, "config", "user.name", "Tester")
	runGit(t, dir, nil, "config", "user.email", "tester@example.com")
	runGit(t, dir, nil, "config", "commit.gpgsign", "false")

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "blog"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blog", "post.md"), []byte("hi"), 0o644))
	runGit(t, dir, nil, "add", ".")
	stamp := "2024-02-03T04:05:06Z"
	runGit(t, dir, []string{"GIT_AUTHOR_DATE=" + stamp, "GIT_COMMITTER_DATE=" + stamp}, "commit", "-q", "-m", "add post")

	repo, err := Open(context.Background(), "", dir, time.Second*10)
	require.NoError(t, err)

	got, err := repo.LastModified(context.Background(), "blog/post.md")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC), got)

	_, err = repo.LastModified(context.Background(), "blog/missing.md")
	assert.ErrorIs(t, err, ErrNoHistory)

	commits, err := repo.Log(context.Background(), "", 5)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Equal(t, "add post", commits[0].Message)
	assert.Equal(t, "Tester", commits[0].Author)
}

func TestOpenRejectsPlainDirectory(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	_, err := Open(context.Background(), "", t.TempDir(), time.Second*5)
	assert.ErrorIs(t, err, ErrNotRepository)
}
