package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CopyFile copies a file from src to dst creating missing directories.
func CopyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}
	return dstFile.Sync()
}

// Stage is a scratch directory next to a target directory. Output is written
// into the stage and only replaces the target on Commit, so a failed build
// leaves the previous target in place.
type Stage struct {
	Dir    string
	target string
}

// NewStage creates a hidden scratch directory beside target.
func NewStage(target string) (*Stage, error) {
	parent := filepath.Dir(target)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("ensure output parent: %w", err)
	}
	dir, err := os.MkdirTemp(parent, ".__build-")
	if err != nil {
		return nil, fmt.Errorf("create temp output dir: %w", err)
	}
	return &Stage{Dir: dir, target: target}, nil
}

// WriteFile stores data at the slash-separated rel path inside the stage.
func (s *Stage) WriteFile(rel string, data []byte) error {
	dst := filepath.Join(s.Dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}

// CopyFile copies src to the slash-separated rel path inside the stage.
func (s *Stage) CopyFile(src, rel string) error {
	return CopyFile(src, filepath.Join(s.Dir, filepath.FromSlash(rel)))
}

// Commit swaps the stage in place of the target. The previous target is
// rotated to a hidden backup first and restored if activation fails.
func (s *Stage) Commit() error {
	backupDir := filepath.Join(filepath.Dir(s.target), "."+filepath.Base(s.target)+".old")
	if err := os.RemoveAll(backupDir); err != nil {
		return fmt.Errorf("clean backup dir: %w", err)
	}

	if err := os.Rename(s.target, backupDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("rotate old output: %w", err)
	}

	if err := os.Rename(s.Dir, s.target); err != nil {
		_ = os.Rename(backupDir, s.target)
		return fmt.Errorf("activate new output: %w", err)
	}

	_ = os.RemoveAll(backupDir)
	s.Dir = ""
	return nil
}

// Discard removes the stage unless it was committed.
func (s *Stage) Discard() error {
	if s.Dir == "" {
		return nil
	}
	err := os.RemoveAll(s.Dir)
	s.Dir = ""
	return err
}
