//go:build property
// +build property

package site

import (
	"fmt"
	"path"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var propertyDirs = []string{"/", "/a", "/a/b", "/c"}

// pagesFromSeeds turns generated integers into a page set with nested
// directories, index pages, links (some dead), tags, pins and dates.
func pagesFromSeeds(seeds []int) []*Page {
	pages := make([]*Page, 0, len(seeds))
	for i, seed := range seeds {
		dir := propertyDirs[seed%len(propertyDirs)]
		p := path.Join(dir, fmt.Sprintf("p%d", i))
		page := newPage(p)
		if seed%7 == 0 && dir != "/" {
			page = newPage(dir, index)
		}
		if seed%5 == 0 {
			page.Pinned = true
		}
		if seed%2 == 0 {
			dated(1 + seed%28)(page)
		}
		page.Tags = []string{fmt.Sprintf("t%d", seed%3)}
		for k := 0; k < seed%4; k++ {
			target := (seed + k*13) % (len(seeds) + 2)
			page.Links = append(page.Links, path.Join(propertyDirs[target%len(propertyDirs)], fmt.Sprintf("p%d", target)))
		}
		pages = append(pages, page)
	}
	return pages
}

func TestGraphProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)
	seeds := gen.SliceOf(gen.IntRange(0, 200))

	// Property: children are exactly the pages whose parent is p
	properties.Property("children match parent relation", prop.ForAll(
		func(values []int) bool {
			g := BuildGraph(pagesFromSeeds(values))
			for _, p := range g.Pages() {
				var want []*Page
				for _, q := range g.Pages() {
					if q.Path != p.Path && path.Dir(q.Path) == p.Path {
						want = append(want, q)
					}
				}
				if !reflect.DeepEqual(paths(want), paths(g.Children(p))) {
					return false
				}
			}
			return true
		},
		seeds,
	))

	// Property: backlinks are exactly the pages linking to p
	properties.Property("backlinks match link relation", prop.ForAll(
		func(values []int) bool {
			g := BuildGraph(pagesFromSeeds(values))
			for _, p := range g.Pages() {
				var want []*Page
				for _, q := range g.Pages() {
					for _, l := range q.Links {
						if l == p.Path {
							want = append(want, q)
							break
						}
					}
				}
				if !reflect.DeepEqual(paths(want), paths(g.Backlinks(p))) {
					return false
				}
			}
			return true
		},
		seeds,
	))

	// Property: a link is dead iff no page has its path
	properties.Property("dead links are unresolved targets", prop.ForAll(
		func(values []int) bool {
			g := BuildGraph(pagesFromSeeds(values))
			var want []DeadLink
			for _, p := range g.Pages() {
				seen := map[string]bool{}
				for _, l := range p.Links {
					if seen[l] {
						continue
					}
					seen[l] = true
					if _, ok := g.Page(l); !ok {
						want = append(want, DeadLink{Source: p.Path, Target: l})
					}
				}
			}
			return reflect.DeepEqual(want, g.DeadLinks())
		},
		seeds,
	))

	// Property: a page never lists itself under its own tags
	properties.Property("tag listings exclude self", prop.ForAll(
		func(values []int) bool {
			g := BuildGraph(pagesFromSeeds(values))
			for _, p := range g.Pages() {
				for tag, members := range g.PagesByTag(p) {
					if len(members) == 0 || !p.HasTag(tag) {
						return false
					}
					for _, m := range members {
						if m == p {
							return false
						}
					}
				}
			}
			return true
		},
		seeds,
	))

	properties.TestingRun(t)
}

func TestSortProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)
	seeds := gen.SliceOf(gen.IntRange(0, 200))

	// Property: sorting a sorted list changes nothing
	properties.Property("sort is idempotent", prop.ForAll(
		func(values []int) bool {
			once := SortPages(pagesFromSeeds(values))
			twice := SortPages(once)
			return reflect.DeepEqual(paths(once), paths(twice))
		},
		seeds,
	))

	// Property: pinned pages precede index pages which precede the rest
	properties.Property("pinned then index then rest", prop.ForAll(
		func(values []int) bool {
			sorted := SortPages(pagesFromSeeds(values))
			for i := 1; i < len(sorted); i++ {
				if rank(sorted[i-1]) > rank(sorted[i]) {
					return false
				}
			}
			return true
		},
		seeds,
	))

	// Property: dated pages within a group appear newest first
	properties.Property("dated pages newest first within a group", prop.ForAll(
		func(values []int) bool {
			sorted := SortPages(pagesFromSeeds(values))
			var prev *Page
			for _, p := range sorted {
				if !p.HasDate() {
					continue
				}
				if prev != nil && rank(prev) == rank(p) && p.DatePublished.After(prev.DatePublished) {
					return false
				}
				prev = p
			}
			return true
		},
		seeds,
	))

	// Property: sorting is a permutation
	properties.Property("sort keeps every page", prop.ForAll(
		func(values []int) bool {
			pages := pagesFromSeeds(values)
			sorted := SortPages(pages)
			if len(sorted) != len(pages) {
				return false
			}
			count := map[*Page]int{}
			for _, p := range pages {
				count[p]++
			}
			for _, p := range sorted {
				count[p]--
			}
			for _, n := range count {
				if n != 0 {
					return false
				}
			}
			return true
		},
		seeds,
	))

	properties.TestingRun(t)
}
