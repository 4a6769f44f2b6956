package site

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// Entry is one file found under an input root.
type Entry struct {
	// Rel is the root-relative name with forward slashes.
	Rel string
	Abs string
}

// EntrySource enumerates content, static and asset files for a build.
type EntrySource struct {
	Input  string
	Output string
	Assets string
	// Static reports whether a file name is copied verbatim from the input.
	Static func(name string) bool
}

// Content lists markdown entries under the input root.
func (s EntrySource) Content() ([]Entry, error) {
	return walkEntries(s.Input, s.Output, isMarkdown)
}

// StaticFiles lists the input files with a static extension.
func (s EntrySource) StaticFiles() ([]Entry, error) {
	match := s.Static
	if match == nil {
		match = func(string) bool { return false }
	}
	return walkEntries(s.Input, s.Output, match)
}

// AssetFiles lists every file under the assets directory. A missing assets
// directory yields no entries.
func (s EntrySource) AssetFiles() ([]Entry, error) {
	if s.Assets == "" {
		return nil, nil
	}
	if _, err := os.Stat(s.Assets); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return walkEntries(s.Assets, s.Output, func(string) bool { return true })
}

// Skip reports whether an absolute path under the input root is invisible to
// builds: hidden, underscored, or inside the output directory.
func (s EntrySource) Skip(abs string) bool {
	if s.Output != "" && within(s.Output, abs) {
		return true
	}
	rel, err := filepath.Rel(s.Input, abs)
	if err != nil {
		return true
	}
	return isHiddenOrUnderscored(rel)
}

func walkEntries(root, output string, match func(name string) bool) ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if isHiddenOrUnderscored(rel) || (output != "" && within(output, path)) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() || !match(d.Name()) {
			return nil
		}
		entries = append(entries, Entry{Rel: filepath.ToSlash(rel), Abs: path})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Rel < entries[j].Rel
	})
	return entries, nil
}

func within(base, target string) bool {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !startsWithParent(rel))
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}
