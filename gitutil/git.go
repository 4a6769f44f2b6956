package gitutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Repository is a local git work tree queried for file history.
type Repository struct {
	Dir            string
	GitPath        string
	CommandTimeout time.Duration
	mu             sync.Mutex
}

var (
	// ErrNotRepository is returned when Dir is not inside a git work tree.
	ErrNotRepository = errors.New("not a git work tree")
	// ErrNoHistory is returned for paths without any commit.
	ErrNoHistory = errors.New("no commit history")
)

// Commit encapsulates log metadata.
type Commit struct {
	Hash        string    `json:"hash"`
	Author      string    `json:"author"`
	Email       string    `json:"email"`
	Message     string    `json:"message"`
	CommittedAt time.Time `json:"committedAt"`
}

// Open returns the repository containing dir.
func Open(ctx context.Context, gitPath, dir string, timeout time.Duration) (*Repository, error) {
	if gitPath == "" {
		gitPath = "git"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	repo := &Repository{Dir: dir, GitPath: gitPath, CommandTimeout: timeout}

	ctx, cancel := repo.ensureContext(ctx)
	defer cancel()
	out, err := repo.command(ctx, "rev-parse", "--is-inside-work-tree").Output()
	if err != nil || strings.TrimSpace(string(out)) != "true" {
		return nil, fmt.Errorf("%w: %s", ErrNotRepository, dir)
	}
	return repo, nil
}

// Log returns up to limit commits touching path, newest first.
func (r *Repository) Log(ctx context.Context, path string, limit int) ([]Commit, error) {
	ctx, cancel := r.ensureContext(ctx)
	defer cancel()

	r.mu.Lock()
	defer r.mu.Unlock()

	if limit <= 0 {
		limit = 1
	}
	args := []string{"log", fmt.Sprintf("-n%d", limit), "--date=unix", "--pretty=%H%x00%an%x00%ae%x00%ct%x00%s"}
	if path != "" {
		args = append(args, "--", filepath.ToSlash(path))
	}
	out, err := r.command(ctx, args...).Output()
	if err != nil {
		return nil, fmt.Errorf("git log: %w", err)
	}

	trimmed := bytes.TrimSpace(out)
	if len(trimmed) == 0 {
		return nil, nil
	}
	lines := bytes.Split(trimmed, []byte("\n"))
	commits := make([]Commit, 0, len(lines))
	for _, ln := range lines {
		parts := bytes.Split(ln, []byte{0})
		if len(parts) != 5 {
			continue
		}
		seconds, err := parseUnix(parts[3])
		if err != nil {
			return nil, err
		}
		commits = append(commits, Commit{
			Hash:        string(parts[0]),
			Author:      string(parts[1]),
			Email:       string(parts[2]),
			CommittedAt: time.Unix(seconds, 0).UTC(),
			Message:     string(parts[4]),
		})
	}
	return commits, nil
}

// LastModified returns the commit time of the newest commit touching rel.
func (r *Repository) LastModified(ctx context.Context, rel string) (time.Time, error) {
	commits, err := r.Log(ctx, rel, 1)
	if err != nil {
		return time.Time{}, err
	}
	if len(commits) == 0 {
		return time.Time{}, fmt.Errorf("%w: %s", ErrNoHistory, rel)
	}
	return commits[0].CommittedAt, nil
}

func (r *Repository) command(ctx context.Context, args ...string) *exec.Cmd {
	if ctx == nil {
		ctx = context.Background()
	}

	baseArgs := []string{
		"-c", "credential.helper=",
	}
	fullArgs := append(baseArgs, args...)

	cmd := exec.CommandContext(ctx, r.GitPath, fullArgs...)
	cmd.Dir = r.Dir
	return cmd
}

func (r *Repository) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, r.CommandTimeout)
}

func parseUnix(raw []byte) (int64, error) {
	return strconv.ParseInt(string(raw), 10, 64)
}
