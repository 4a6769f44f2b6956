package site

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPagePath(t *testing.T) {
	tests := []struct {
		rel       string
		canonical string
		dir       string
		index     bool
	}{
		{rel: "index.md", canonical: "/", dir: "/", index: true},
		{rel: "about.md", canonical: "/about", dir: "/"},
		{rel: "blog/index.md", canonical: "/blog", dir: "/blog", index: true},
		{rel: "blog/post.md", canonical: "/blog/post", dir: "/blog"},
		{rel: "blog/2024/Index.MD", canonical: "/blog/2024", dir: "/blog/2024", index: true},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			canonical, dir, index := pagePath(tt.rel)
			assert.Equal(t, tt.canonical, canonical)
			assert.Equal(t, tt.dir, dir)
			assert.Equal(t, tt.index, index)
		})
	}
}

func TestIndexAndFlatFileShareRoute(t *testing.T) {
	flat, _, _ := pagePath("a.md")
	nested, _, _ := pagePath("a/index.md")
	assert.Equal(t, flat, nested)
	assert.Equal(t, "/a/", routeFor(flat))
}

func TestRouteSlugAndOutputFile(t *testing.T) {
	assert.Equal(t, "/", routeFor("/"))
	assert.Equal(t, "", slugFor("/"))
	assert.Equal(t, "index.html", outputFile("/"))

	assert.Equal(t, "/blog/post/", routeFor("/blog/post"))
	assert.Equal(t, "post", slugFor("/blog/post"))
	assert.Equal(t, "blog/post/index.html", outputFile("/blog/post"))

	assert.Equal(t, "tags/go-tips/index.html", outputFile(tagPath("Go Tips")))
}

func TestResolveLink(t *testing.T) {
	tests := []struct {
		name        string
		dir         string
		destination string
		want        string
		fragment    string
		internal    bool
	}{
		{name: "sibling markdown", dir: "/blog", destination: "other.md", want: "/blog/other", internal: true},
		{name: "parent directory", dir: "/blog/2024", destination: "../about.md", want: "/blog/about", internal: true},
		{name: "absolute route", dir: "/blog", destination: "/notes/", want: "/notes", internal: true},
		{name: "index file", dir: "/", destination: "docs/index.md", want: "/docs", internal: true},
		{name: "root index", dir: "/blog", destination: "/index.html", want: "/", internal: true},
		{name: "fragment and query", dir: "/", destination: "guide.md?x=1#setup", want: "/guide", fragment: "setup", internal: true},
		{name: "escapes root", dir: "/", destination: "../../outside.md", want: "/outside", internal: true},
		{name: "external", dir: "/", destination: "https://example.com/a.md"},
		{name: "protocol relative", dir: "/", destination: "//cdn.example.com/x"},
		{name: "mailto", dir: "/", destination: "mailto:me@example.com"},
		{name: "bare fragment", dir: "/", destination: "#top"},
		{name: "parent dir with slash", dir: "/notes/sub", destination: "../", want: "/notes", internal: true},
		{name: "parent dir", dir: "/notes/sub", destination: "..", want: "/notes", internal: true},
		{name: "current dir", dir: "/notes/sub", destination: "./", want: "/notes/sub", internal: true},
		{name: "parent index file", dir: "/notes/sub", destination: "../index.md", want: "/notes", internal: true},
		{name: "dotted route", dir: "/notes/sub", destination: "/notes/v1.2/", want: "/notes/v1.2", internal: true},
		{name: "dotted relative name", dir: "/notes/sub", destination: "v1.2", want: "/notes/sub/v1.2", internal: true},
		{name: "dotted route with fragment", dir: "/", destination: "notes/v1.2#changes", want: "/notes/v1.2", fragment: "changes", internal: true},
		{name: "image", dir: "/", destination: "img/photo.png"},
		{name: "upper case asset", dir: "/", destination: "docs/Report.PDF"},
		{name: "text file", dir: "/blog", destination: "../notes.txt"},
		{name: "empty", dir: "/", destination: "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fragment, ok := resolveLink(tt.dir, tt.destination)
			assert.Equal(t, tt.internal, ok)
			if tt.internal {
				assert.Equal(t, tt.want, got)
				assert.Equal(t, tt.fragment, fragment)
			}
		})
	}
}

func TestIsHiddenOrUnderscored(t *testing.T) {
	assert.True(t, isHiddenOrUnderscored(".ter/views/page.html"))
	assert.True(t, isHiddenOrUnderscored("blog/_drafts/a.md"))
	assert.True(t, isHiddenOrUnderscored("_site"))
	assert.False(t, isHiddenOrUnderscored("blog/post.md"))
	assert.False(t, isHiddenOrUnderscored("./blog/post.md"))
}
