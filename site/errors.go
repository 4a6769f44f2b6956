package site

import (
	"errors"
	"fmt"
)

var (
	// ErrNoContent is returned when the input holds no renderable page.
	ErrNoContent = errors.New("no content pages")
	// ErrDuplicatePath marks a content file that maps onto an already used
	// page path, such as a.md next to a/index.md.
	ErrDuplicatePath = errors.New("duplicate page path")
)

// MaterializationError reports a content file that could not become a page.
type MaterializationError struct {
	Path string
	Err  error
}

func (e *MaterializationError) Error() string {
	return fmt.Sprintf("materialize %s: %v", e.Path, e.Err)
}

func (e *MaterializationError) Unwrap() error { return e.Err }

// Render kinds.
const (
	RenderPage   = "page"
	RenderTag    = "tag"
	RenderFeed   = "feed"
	RenderSearch = "search"
)

// RenderError reports a single output that failed to render. The build skips
// the target and carries on.
type RenderError struct {
	Kind   string
	Target string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s %s: %v", e.Kind, e.Target, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
