package templatex

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
)

// WriteDefaults copies the built-in views into viewsDir and the built-in
// assets into assetsDir. Existing files are never overwritten. The paths
// written are returned in order.
func WriteDefaults(viewsDir, assetsDir string) ([]string, error) {
	var written []string
	for _, set := range []struct {
		src string
		dst string
	}{
		{src: "defaults/views", dst: viewsDir},
		{src: "defaults/assets", dst: assetsDir},
	} {
		if set.dst == "" {
			continue
		}
		files, err := writeEmbedded(set.src, set.dst)
		written = append(written, files...)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

func writeEmbedded(src, dst string) ([]string, error) {
	var written []string
	err := fs.WalkDir(defaults, src, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel := name[len(src)+1:]
		target := filepath.Join(dst, filepath.FromSlash(rel))
		if _, err := os.Stat(target); err == nil {
			return nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}

		data, err := defaults.ReadFile(path.Clean(name))
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", filepath.Dir(target), err)
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", target, err)
		}
		written = append(written, target)
		return nil
	})
	return written, err
}
