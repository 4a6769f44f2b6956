package site

import (
	"path"
	"strings"
)

// Breadcrumb is one step of the trail shown above a page.
type Breadcrumb struct {
	Slug    string
	URL     string
	Current bool
	IsTag   bool
}

// BuildBreadcrumbs derives the trail for the page at canonical path p. The
// site root gets an empty trail; every other page starts with a home crumb
// named rootName and ends with a non-linked crumb for itself.
func BuildBreadcrumbs(p, rootName string) []Breadcrumb {
	if rootName == "" {
		rootName = indexName
	}
	cleaned := path.Clean("/" + p)
	if cleaned == "/" {
		return []Breadcrumb{}
	}

	segments := strings.Split(strings.TrimPrefix(cleaned, "/"), "/")
	crumbs := make([]Breadcrumb, 0, len(segments)+1)
	crumbs = append(crumbs, Breadcrumb{Slug: rootName, URL: "/"})
	for i, segment := range segments[:len(segments)-1] {
		crumbs = append(crumbs, Breadcrumb{
			Slug: segment,
			URL:  "/" + strings.Join(segments[:i+1], "/"),
		})
	}
	crumbs = append(crumbs, Breadcrumb{Slug: segments[len(segments)-1], Current: true})
	return crumbs
}

// TagBreadcrumbs is the two-step trail of a tag index page.
func TagBreadcrumbs(tag, rootName string) []Breadcrumb {
	if rootName == "" {
		rootName = indexName
	}
	return []Breadcrumb{
		{Slug: rootName, URL: "/"},
		{Slug: "#" + tag, Current: true, IsTag: true},
	}
}
