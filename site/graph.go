package site

import "sort"

// DeadLink is an internal link whose target matches no page.
type DeadLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph holds the relations derived from one page set. It is built once per
// build and never mutated afterwards.
type Graph struct {
	pages    []*Page
	byPath   map[string]*Page
	children map[string][]*Page
	incoming map[string][]*Page
	tags     []string
	tagged   map[string][]*Page
	dead     []DeadLink
}

// BuildGraph indexes pages. Input order is preserved in every derived list.
// When two pages share a path the first one wins.
func BuildGraph(pages []*Page) *Graph {
	g := &Graph{
		pages:    make([]*Page, 0, len(pages)),
		byPath:   make(map[string]*Page, len(pages)),
		children: make(map[string][]*Page),
		incoming: make(map[string][]*Page),
		tagged:   make(map[string][]*Page),
	}

	for _, page := range pages {
		if page == nil {
			continue
		}
		if _, dup := g.byPath[page.Path]; dup {
			continue
		}
		g.byPath[page.Path] = page
		g.pages = append(g.pages, page)
	}

	for _, page := range g.pages {
		if page.Path != "/" {
			parent := parentOf(page.Path)
			g.children[parent] = append(g.children[parent], page)
		}

		seen := make(map[string]struct{}, len(page.Links))
		for _, link := range page.Links {
			if _, dup := seen[link]; dup {
				continue
			}
			seen[link] = struct{}{}
			if _, ok := g.byPath[link]; !ok {
				g.dead = append(g.dead, DeadLink{Source: page.Path, Target: link})
				continue
			}
			g.incoming[link] = append(g.incoming[link], page)
		}

		for _, tag := range page.Tags {
			members := g.tagged[tag]
			if n := len(members); n > 0 && members[n-1] == page {
				continue
			}
			if len(members) == 0 {
				g.tags = append(g.tags, tag)
			}
			g.tagged[tag] = append(members, page)
		}
	}
	sort.Strings(g.tags)
	return g
}

// Pages returns the pages in input order.
func (g *Graph) Pages() []*Page {
	return g.pages
}

// Page looks up a page by canonical path.
func (g *Graph) Page(path string) (*Page, bool) {
	p, ok := g.byPath[path]
	return p, ok
}

// Children returns the pages whose parent directory is p's path.
func (g *Graph) Children(p *Page) []*Page {
	return clonePages(g.children[p.Path])
}

// Backlinks returns the pages that link to p.
func (g *Graph) Backlinks(p *Page) []*Page {
	return clonePages(g.incoming[p.Path])
}

// Tags returns every distinct tag sorted by name.
func (g *Graph) Tags() []string {
	return append([]string(nil), g.tags...)
}

// TagMembers returns the pages carrying tag in input order.
func (g *Graph) TagMembers(tag string) []*Page {
	return clonePages(g.tagged[tag])
}

// DeadLinks lists unresolved links in page-then-link order.
func (g *Graph) DeadLinks() []DeadLink {
	return append([]DeadLink(nil), g.dead...)
}

// PagesByTag returns, for each tag of p, the sorted members other than p.
// Tags left without members are omitted.
func (g *Graph) PagesByTag(p *Page) map[string][]*Page {
	out := make(map[string][]*Page, len(p.Tags))
	for _, tag := range p.Tags {
		members := make([]*Page, 0, len(g.tagged[tag]))
		for _, member := range g.tagged[tag] {
			if member != p {
				members = append(members, member)
			}
		}
		if len(members) > 0 {
			out[tag] = SortPages(members)
		}
	}
	return out
}

// ChildTags returns the distinct tags of pages, sorted by name.
func ChildTags(pages []*Page) []string {
	seen := make(map[string]struct{})
	var tags []string
	for _, page := range pages {
		for _, tag := range page.Tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	sort.Strings(tags)
	return tags
}

func clonePages(pages []*Page) []*Page {
	if len(pages) == 0 {
		return nil
	}
	return append([]*Page(nil), pages...)
}
