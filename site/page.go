package site

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/tersite/ter/renderer"
)

// Attrs is the ordered front matter of a page.
type Attrs []renderer.Attr

// Get returns the value stored under key.
func (a Attrs) Get(key string) (any, bool) {
	for _, attr := range a {
		if attr.Key == key {
			return attr.Value, true
		}
	}
	return nil, false
}

// Has reports whether key is present, whatever its value.
func (a Attrs) Has(key string) bool {
	_, ok := a.Get(key)
	return ok
}

// String returns the value under key rendered as a trimmed string.
func (a Attrs) String(key string) string {
	v, ok := a.Get(key)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// Bool reports whether the value under key is truthy: boolean true, a
// non-zero number, or one of "true", "yes", "on", "1".
func (a Attrs) Bool(key string) bool {
	v, ok := a.Get(key)
	if !ok {
		return false
	}
	switch value := v.(type) {
	case bool:
		return value
	case int:
		return value != 0
	case int64:
		return value != 0
	case uint64:
		return value != 0
	case float64:
		return value != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "yes", "on", "1":
			return true
		}
		return false
	default:
		return false
	}
}

// AnyBool reports whether any of keys is truthy.
func (a Attrs) AnyBool(keys []string) bool {
	for _, key := range keys {
		if a.Bool(key) {
			return true
		}
	}
	return false
}

// Time parses the value under key as a date.
func (a Attrs) Time(key string) (time.Time, bool) {
	v, ok := a.Get(key)
	if !ok {
		return time.Time{}, false
	}
	return parseDate(v)
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseDate(v any) (time.Time, bool) {
	switch value := v.(type) {
	case time.Time:
		return value.UTC(), !value.IsZero()
	case string:
		raw := strings.TrimSpace(value)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t.UTC(), true
			}
		}
	case int:
		return time.Unix(int64(value), 0).UTC(), true
	case int64:
		return time.Unix(value, 0).UTC(), true
	}
	return time.Time{}, false
}

// Page is one materialized content unit. Pages are immutable once a build has
// produced them.
type Page struct {
	// Path is the canonical identifier relative to the content root, e.g.
	// "/blog/post" for blog/post.md, "/blog" for blog/index.md and "/" for
	// the root index.
	Path string
	// Route is the public URL path, always with a trailing slash.
	Route string
	Slug  string
	// Dir is the canonical directory of the source file; relative links
	// resolve against it.
	Dir string
	// Source is the input-relative file name with forward slashes.
	Source string

	Attrs       Attrs
	Title       string
	Description string

	DatePublished time.Time
	DateUpdated   time.Time

	Tags  []string
	Links []string

	IsIndex bool
	Pinned  bool
	Draft   bool

	HTML      template.HTML
	Headings  []renderer.Heading
	PlainText string
}

// Attr exposes a single front matter value to templates.
func (p *Page) Attr(key string) any {
	v, _ := p.Attrs.Get(key)
	return v
}

// HasDate reports whether the page takes part in date ordering.
func (p *Page) HasDate() bool {
	return !p.DatePublished.IsZero()
}

// HasTag reports whether the page carries tag.
func (p *Page) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (p *Page) String() string {
	return p.Path
}

func parseTags(v any) []string {
	var raw []string
	switch value := v.(type) {
	case []any:
		for _, item := range value {
			raw = append(raw, fmt.Sprint(item))
		}
	case []string:
		raw = append(raw, value...)
	case string:
		raw = strings.Split(value, ",")
	case nil:
		return nil
	default:
		raw = []string{fmt.Sprint(value)}
	}

	tags := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, tag := range raw {
		tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}
