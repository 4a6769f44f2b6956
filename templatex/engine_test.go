package templatex

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeViews(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return dir
}

func TestLoadRequiresPageAndFeed(t *testing.T) {
	dir := writeViews(t, map[string]string{PageFile: "<p></p>"})
	_, err := Load(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrViewNotFound)
}

func TestRenderViews(t *testing.T) {
	dir := writeViews(t, map[string]string{
		PageFile:              `<p>{{.Name}} {{template "greet" .}}</p>`,
		"partials/greet.html": `{{define "greet"}}hi {{tagURL "Go Lang"}}{{end}}`,
		FeedFile:              `{{xml .Name}} {{absURL .Base "/a/"}} {{date .When}}`,
		StyleFile:             "body{color:red}",
	})
	engine, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "body{color:red}", string(engine.Style()))

	data := struct {
		Name string
		Base string
		When time.Time
	}{Name: "a & b", Base: "https://example.org/", When: time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)}

	var page bytes.Buffer
	require.NoError(t, engine.Render(&page, PageView, data))
	assert.Equal(t, "<p>a &amp; b hi /tags/go-lang/</p>", page.String())

	var feed bytes.Buffer
	require.NoError(t, engine.Render(&feed, FeedView, data))
	assert.Equal(t, "a &amp; b https://example.org/a/ 2024-03-09", feed.String())

	err = engine.Render(&bytes.Buffer{}, "sitemap", data)
	assert.ErrorIs(t, err, ErrViewNotFound)
}

func TestWriteDefaultsKeepsExistingFiles(t *testing.T) {
	root := t.TempDir()
	views := filepath.Join(root, "views")
	assets := filepath.Join(root, "assets")
	require.NoError(t, os.MkdirAll(views, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(views, PageFile), []byte("mine"), 0o644))

	written, err := WriteDefaults(views, assets)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(views, FeedFile),
		filepath.Join(assets, "ter.css"),
	}, written)

	mine, err := os.ReadFile(filepath.Join(views, PageFile))
	require.NoError(t, err)
	assert.Equal(t, "mine", string(mine))

	again, err := WriteDefaults(views, assets)
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestDefaultViewsLoad(t *testing.T) {
	views := filepath.Join(t.TempDir(), "views")
	_, err := WriteDefaults(views, "")
	require.NoError(t, err)

	engine, err := Load(views)
	require.NoError(t, err)
	assert.Empty(t, engine.Style())
}

func TestAbsURL(t *testing.T) {
	assert.Equal(t, "https://example.org/blog/", AbsURL("https://example.org/", "/blog/"))
	assert.Equal(t, "https://example.org/blog/", AbsURL("https://example.org", "blog/"))
}
