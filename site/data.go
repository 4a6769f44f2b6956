package site

import (
	"html/template"
	"sort"
	"time"

	"github.com/tersite/ter/config"
)

// NavItem is one entry of the configured site navigation.
type NavItem struct {
	Name string
	URL  string
}

// SiteData is the global site configuration handed to every view.
type SiteData struct {
	Title       string
	Description string
	RootName    string
	URL         string
	Language    string
	Navigation  []NavItem
	Author      config.AuthorConfig
}

// PageData is the data bag of the page view. Tag index pages use the same
// view: they set TagName and carry a synthetic Page with only a title,
// description and route.
type PageData struct {
	Page           *Page
	TagName        string
	IndexLayout    string
	Toc            bool
	Breadcrumbs    []Breadcrumb
	ChildPages     []*Page
	BacklinkPages  []*Page
	PagesByTag     map[string][]*Page
	ChildTags      []string
	Site           SiteData
	Style          template.CSS
	IncludeRefresh bool
}

// FeedData is the data bag of the feed view.
type FeedData struct {
	Pages   []*Page
	Site    SiteData
	Updated time.Time
}

func newSiteData(user config.UserConfig) SiteData {
	nav := make([]NavItem, 0, len(user.Navigation))
	for name, url := range user.Navigation {
		nav = append(nav, NavItem{Name: name, URL: url})
	}
	sort.Slice(nav, func(i, j int) bool { return nav[i].Name < nav[j].Name })

	return SiteData{
		Title:       user.Site.Title,
		Description: user.Site.Description,
		RootName:    user.Site.RootName,
		URL:         user.Site.URL,
		Language:    user.Site.Language,
		Navigation:  nav,
		Author:      user.Author,
	}
}

func (s *Service) contentData(g *Graph, page *Page, site SiteData, style template.CSS) PageData {
	var children []*Page
	if page.IsIndex {
		children = SortPages(g.Children(page))
	}
	layout := "default"
	if page.Attrs.Bool("log") {
		layout = "log"
	}
	return PageData{
		Page:           page,
		IndexLayout:    layout,
		Toc:            page.Attrs.Bool("toc"),
		Breadcrumbs:    BuildBreadcrumbs(page.Path, site.RootName),
		ChildPages:     children,
		BacklinkPages:  SortPages(g.Backlinks(page)),
		PagesByTag:     g.PagesByTag(page),
		ChildTags:      ChildTags(children),
		Site:           site,
		Style:          style,
		IncludeRefresh: s.liveReload,
	}
}

func (s *Service) tagData(g *Graph, tag string, site SiteData, style template.CSS) PageData {
	canonical := tagPath(tag)
	return PageData{
		Page: &Page{
			Path:        canonical,
			Route:       routeFor(canonical),
			Slug:        slugFor(canonical),
			Title:       "#" + tag,
			Description: "Pages tagged #" + tag,
		},
		TagName:        tag,
		IndexLayout:    "default",
		Breadcrumbs:    TagBreadcrumbs(tag, site.RootName),
		ChildPages:     SortPages(g.TagMembers(tag)),
		Site:           site,
		Style:          style,
		IncludeRefresh: s.liveReload,
	}
}

func feedData(g *Graph, site SiteData) FeedData {
	pages := ByDate(g.Pages())
	var updated time.Time
	for _, p := range pages {
		for _, t := range []time.Time{p.DatePublished, p.DateUpdated} {
			if t.After(updated) {
				updated = t
			}
		}
	}
	return FeedData{Pages: pages, Site: site, Updated: updated}
}
