package site

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tersite/ter/renderer"
)

type fixedDates struct {
	at    time.Time
	calls []string
}

func (f *fixedDates) LastModified(_ context.Context, rel string) (time.Time, error) {
	f.calls = append(f.calls, rel)
	return f.at, nil
}

func TestMaterializeDerivesFields(t *testing.T) {
	m := NewMaterializer(renderer.New(), []string{"draft"}, nil)
	src := `---
title: Hello World
date: 2024-03-01
tags: [go, web, go]
pinned: true
---
# Ignored heading

See [the other post](other.md#intro), [home](/) and [elsewhere](https://example.com).
`
	page, err := m.Materialize(context.Background(), Entry{Rel: "blog/hello.md"}, []byte(src))
	require.NoError(t, err)

	assert.Equal(t, "/blog/hello", page.Path)
	assert.Equal(t, "/blog/hello/", page.Route)
	assert.Equal(t, "hello", page.Slug)
	assert.Equal(t, "/blog", page.Dir)
	assert.Equal(t, "Hello World", page.Title)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), page.DatePublished)
	assert.True(t, page.DateUpdated.IsZero())
	assert.Equal(t, []string{"go", "web"}, page.Tags)
	assert.True(t, page.Pinned)
	assert.False(t, page.Draft)
	assert.False(t, page.IsIndex)
	assert.Equal(t, []string{"/blog/other", "/"}, page.Links)
	assert.Contains(t, string(page.HTML), `href="/blog/other/#intro"`)
	assert.Contains(t, string(page.HTML), `href="https://example.com"`)
	assert.NotEmpty(t, page.Description)
}

func TestMaterializeTitleFallbacks(t *testing.T) {
	m := NewMaterializer(renderer.New(), nil, nil)

	page, err := m.Materialize(context.Background(), Entry{Rel: "notes/first-steps.md"}, []byte("# From Heading\n\nbody"))
	require.NoError(t, err)
	assert.Equal(t, "From Heading", page.Title)

	page, err = m.Materialize(context.Background(), Entry{Rel: "notes/first-steps.md"}, []byte("just text"))
	require.NoError(t, err)
	assert.Equal(t, "First Steps", page.Title)
	assert.Equal(t, "just text", page.Description)
}

func TestMaterializeDirectoryAndDottedLinksReachGraph(t *testing.T) {
	m := NewMaterializer(renderer.New(), nil, nil)
	ctx := context.Background()

	post, err := m.Materialize(ctx, Entry{Rel: "notes/sub/post.md"},
		[]byte("Up to [notes](../), [here](./), [release](/notes/v1.2/) and [logo](../logo.png)."))
	require.NoError(t, err)
	assert.Equal(t, []string{"/notes", "/notes/sub", "/notes/v1.2"}, post.Links)
	assert.Contains(t, string(post.HTML), `href="/notes/"`)
	assert.Contains(t, string(post.HTML), `href="../logo.png"`)

	notes, err := m.Materialize(ctx, Entry{Rel: "notes/index.md"}, []byte("notes"))
	require.NoError(t, err)
	release, err := m.Materialize(ctx, Entry{Rel: "notes/v1.2.md"}, []byte("release"))
	require.NoError(t, err)

	g := BuildGraph([]*Page{notes, release, post})
	assert.Equal(t, []string{"/notes/sub/post"}, paths(g.Backlinks(notes)))
	assert.Equal(t, []string{"/notes/sub/post"}, paths(g.Backlinks(release)))
	assert.Equal(t, []DeadLink{{Source: "/notes/sub/post", Target: "/notes/sub"}}, g.DeadLinks())
}

func TestMaterializeDescriptionKeepsPunctuation(t *testing.T) {
	m := NewMaterializer(renderer.New(), nil, nil)

	page, err := m.Materialize(context.Background(), Entry{Rel: "a.md"}, []byte("Hello, world. It's *great*!\nSecond line.\n"))
	require.NoError(t, err)
	assert.Equal(t, "Hello, world. It’s great! Second line.", page.Description)
}

func TestMaterializeDraftUsesTruthyIgnoreKeys(t *testing.T) {
	m := NewMaterializer(renderer.New(), []string{"draft", "wip"}, nil)

	tests := []struct {
		front string
		draft bool
	}{
		{front: "draft: true", draft: true},
		{front: "wip: yes", draft: true},
		{front: "draft: false", draft: false},
		{front: "title: x", draft: false},
	}
	for _, tt := range tests {
		t.Run(tt.front, func(t *testing.T) {
			src := "---\n" + tt.front + "\n---\nbody\n"
			page, err := m.Materialize(context.Background(), Entry{Rel: "a.md"}, []byte(src))
			require.NoError(t, err)
			assert.Equal(t, tt.draft, page.Draft)
		})
	}
}

func TestMaterializeUsesDateSourceOnlyWithoutUpdatedAttr(t *testing.T) {
	at := time.Date(2023, 5, 6, 7, 8, 9, 0, time.UTC)
	dates := &fixedDates{at: at}
	m := NewMaterializer(renderer.New(), nil, dates)

	page, err := m.Materialize(context.Background(), Entry{Rel: "a.md"}, []byte("body"))
	require.NoError(t, err)
	assert.Equal(t, at, page.DateUpdated)

	page, err = m.Materialize(context.Background(), Entry{Rel: "b.md"}, []byte("+++\nupdated = 2024-01-02\n+++\nbody"))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), page.DateUpdated)
	assert.Equal(t, []string{"a.md"}, dates.calls)
}

func TestMaterializeAllReportsFailuresAndDuplicates(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"a.md":       "first",
		"a/index.md": "second",
		"bad.md":     "+++\ntitle = \"x\"\nbody without closing",
		"ok.md":      "fine",
	})

	entries := []Entry{
		{Rel: "a.md", Abs: filepath.Join(root, "a.md")},
		{Rel: "a/index.md", Abs: filepath.Join(root, "a", "index.md")},
		{Rel: "bad.md", Abs: filepath.Join(root, "bad.md")},
		{Rel: "missing.md", Abs: filepath.Join(root, "missing.md")},
		{Rel: "ok.md", Abs: filepath.Join(root, "ok.md")},
	}

	m := NewMaterializer(renderer.New(), nil, nil)
	pages, failures := m.MaterializeAll(context.Background(), entries)

	assert.Equal(t, []string{"/a", "/ok"}, paths(pages))
	require.Len(t, failures, 3)

	var merr *MaterializationError
	require.True(t, errors.As(failures[0], &merr))
	assert.Equal(t, "a/index.md", merr.Path)
	assert.ErrorIs(t, failures[0], ErrDuplicatePath)

	assert.ErrorIs(t, failures[1], renderer.ErrMissingClosingDelimiter)
	require.True(t, errors.As(failures[2], &merr))
	assert.Equal(t, "missing.md", merr.Path)
	assert.True(t, strings.Contains(failures[2].Error(), "missing.md"))
}

func TestFilterDrafts(t *testing.T) {
	draft := newPage("/draft")
	draft.Draft = true
	pages := []*Page{newPage("/a"), draft, newPage("/b")}

	kept, drafts := FilterDrafts(pages, false)
	assert.Equal(t, []string{"/a", "/b"}, paths(kept))
	assert.Equal(t, []string{"/draft"}, paths(drafts))

	kept, drafts = FilterDrafts(pages, true)
	assert.Len(t, kept, 3)
	assert.Empty(t, drafts)
}
