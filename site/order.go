package site

import "sort"

// SortPages returns a display ordering of pages: pinned pages first, then
// index pages, then the rest. Inside each group dated pages are arranged
// newest first across the positions they already occupy, while undated pages
// keep theirs. The input slice is left untouched and the result is a fixed
// point: sorting it again yields the same order.
func SortPages(pages []*Page) []*Page {
	out := append([]*Page(nil), pages...)
	sort.SliceStable(out, func(i, j int) bool {
		return rank(out[i]) < rank(out[j])
	})

	start := 0
	for i := 1; i <= len(out); i++ {
		if i == len(out) || rank(out[i]) != rank(out[start]) {
			newestFirst(out[start:i])
			start = i
		}
	}
	return out
}

// ByDate returns the dated pages newest first followed by the undated ones in
// input order.
func ByDate(pages []*Page) []*Page {
	out := append([]*Page(nil), pages...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.HasDate() != b.HasDate() {
			return a.HasDate()
		}
		return a.DatePublished.After(b.DatePublished)
	})
	return out
}

func rank(p *Page) int {
	switch {
	case p.Pinned:
		return 0
	case p.IsIndex:
		return 1
	default:
		return 2
	}
}

// newestFirst reorders the dated pages of group among their own slots.
func newestFirst(group []*Page) {
	slots := make([]int, 0, len(group))
	dated := make([]*Page, 0, len(group))
	for i, p := range group {
		if p.HasDate() {
			slots = append(slots, i)
			dated = append(dated, p)
		}
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].DatePublished.After(dated[j].DatePublished)
	})
	for k, slot := range slots {
		group[slot] = dated[k]
	}
}
