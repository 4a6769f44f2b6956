package site

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"time"

	"github.com/tersite/ter/renderer"
)

// Parser is the markdown collaborator used to turn an entry into HTML and
// metadata.
type Parser interface {
	RenderWith(src []byte, resolve renderer.LinkResolver) (*renderer.RenderResult, error)
}

// DateSource supplies a fallback update time for a content file.
type DateSource interface {
	LastModified(ctx context.Context, rel string) (time.Time, error)
}

var (
	publishedKeys = []string{"date", "datePublished", "published"}
	updatedKeys   = []string{"updated", "dateUpdated", "lastmod"}
)

// Materializer converts content entries into pages.
type Materializer struct {
	parser     Parser
	ignoreKeys []string
	dates      DateSource
}

// NewMaterializer returns a materializer. dates may be nil.
func NewMaterializer(parser Parser, ignoreKeys []string, dates DateSource) *Materializer {
	return &Materializer{parser: parser, ignoreKeys: ignoreKeys, dates: dates}
}

// Materialize builds a page from the raw bytes of entry.
func (m *Materializer) Materialize(ctx context.Context, entry Entry, src []byte) (*Page, error) {
	canonical, dir, isIndex := pagePath(entry.Rel)

	resolve := func(destination string) (string, string, bool) {
		target, fragment, ok := resolveLink(dir, destination)
		if !ok {
			return "", "", false
		}
		href := routeFor(target)
		if fragment != "" {
			href += "#" + fragment
		}
		return target, href, true
	}

	res, err := m.parser.RenderWith(src, resolve)
	if err != nil {
		return nil, &MaterializationError{Path: entry.Rel, Err: err}
	}

	attrs := Attrs(res.Attrs)
	page := &Page{
		Path:      canonical,
		Route:     routeFor(canonical),
		Slug:      slugFor(canonical),
		Dir:       dir,
		Source:    entry.Rel,
		Attrs:     attrs,
		Links:     res.Links,
		IsIndex:   isIndex,
		Pinned:    attrs.Bool("pinned"),
		Draft:     attrs.AnyBool(m.ignoreKeys),
		HTML:      template.HTML(res.HTML),
		Headings:  res.Headings,
		PlainText: res.PlainText,
	}
	if tags, ok := attrs.Get("tags"); ok {
		page.Tags = parseTags(tags)
	}

	page.Title = attrs.String("title")
	if page.Title == "" && len(res.Headings) > 0 {
		page.Title = res.Headings[0].Text
	}
	if page.Title == "" {
		page.Title = deriveTitle(page.Slug, "Index")
	}
	page.Description = attrs.String("description")
	if page.Description == "" {
		page.Description = summarize(res.PlainText)
	}

	page.DatePublished = firstDate(attrs, publishedKeys)
	page.DateUpdated = firstDate(attrs, updatedKeys)
	if page.DateUpdated.IsZero() && m.dates != nil {
		if t, err := m.dates.LastModified(ctx, entry.Rel); err == nil {
			page.DateUpdated = t.UTC()
		}
	}
	return page, nil
}

// MaterializeAll reads and materializes entries in order. Entries that fail,
// or that map onto a path already taken by an earlier entry, are reported in
// the returned error slice and left out of the page set.
func (m *Materializer) MaterializeAll(ctx context.Context, entries []Entry) ([]*Page, []error) {
	pages := make([]*Page, 0, len(entries))
	var failures []error
	seen := make(map[string]string, len(entries))

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			failures = append(failures, err)
			return pages, failures
		}
		src, err := os.ReadFile(entry.Abs)
		if err != nil {
			failures = append(failures, &MaterializationError{Path: entry.Rel, Err: err})
			continue
		}
		page, err := m.Materialize(ctx, entry, src)
		if err != nil {
			failures = append(failures, err)
			continue
		}
		if first, dup := seen[page.Path]; dup {
			failures = append(failures, &MaterializationError{
				Path: entry.Rel,
				Err:  fmt.Errorf("%w: %s already provided by %s", ErrDuplicatePath, page.Path, first),
			})
			continue
		}
		seen[page.Path] = entry.Rel
		pages = append(pages, page)
	}
	return pages, failures
}

// FilterDrafts splits pages into the ones that take part in the build and the
// drafts left out of it. With include set every page is kept.
func FilterDrafts(pages []*Page, include bool) (kept, drafts []*Page) {
	if include {
		return pages, nil
	}
	kept = make([]*Page, 0, len(pages))
	for _, page := range pages {
		if page.Draft {
			drafts = append(drafts, page)
			continue
		}
		kept = append(kept, page)
	}
	return kept, drafts
}

func firstDate(attrs Attrs, keys []string) time.Time {
	for _, key := range keys {
		if t, ok := attrs.Time(key); ok {
			return t
		}
	}
	return time.Time{}
}
