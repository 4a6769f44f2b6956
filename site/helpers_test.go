package site

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// newPage builds a page for graph and ordering tests.
func newPage(p string, opts ...func(*Page)) *Page {
	page := &Page{Path: p, Route: routeFor(p), Slug: slugFor(p), Dir: parentOf(p), Title: p}
	for _, opt := range opts {
		opt(page)
	}
	return page
}

func linksTo(targets ...string) func(*Page) {
	return func(p *Page) { p.Links = append(p.Links, targets...) }
}

func tagged(tags ...string) func(*Page) {
	return func(p *Page) { p.Tags = append(p.Tags, tags...) }
}

func dated(day int) func(*Page) {
	return func(p *Page) {
		p.DatePublished = time.Date(2024, time.January, day, 0, 0, 0, 0, time.UTC)
	}
}

func pinned(p *Page) { p.Pinned = true }

func index(p *Page) { p.IsIndex = true }

func paths(pages []*Page) []string {
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		out = append(out, p.Path)
	}
	return out
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
}
