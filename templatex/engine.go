package templatex

import (
	"embed"
	"encoding/xml"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/tersite/ter/renderer"
)

// View identifiers accepted by Render.
const (
	PageView = "page"
	FeedView = "feed"
)

// File names looked up in the views directory.
const (
	PageFile  = "page.html"
	FeedFile  = "feed.xml"
	StyleFile = "style.css"
)

// RefreshPath is the websocket endpoint the live-reload script connects to.
const RefreshPath = "/refresh"

// ErrViewNotFound is returned when a required view file is missing.
var ErrViewNotFound = errors.New("view not found")

//go:embed defaults
var defaults embed.FS

// Engine renders the page and feed views of a views directory.
type Engine struct {
	page  *template.Template
	feed  *texttemplate.Template
	style template.CSS
}

// Load parses the views found in viewsDir. page.html and feed.xml are
// required; partials/*.html and style.css are optional.
func Load(viewsDir string) (*Engine, error) {
	if viewsDir == "" {
		return nil, fmt.Errorf("views directory not configured")
	}

	pagePath := filepath.Join(viewsDir, PageFile)
	feedPath := filepath.Join(viewsDir, FeedFile)
	for _, required := range []string{pagePath, feedPath} {
		if _, err := os.Stat(required); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrViewNotFound, required)
			}
			return nil, fmt.Errorf("stat view %s: %w", required, err)
		}
	}

	files := []string{pagePath}
	partialsDir := filepath.Join(viewsDir, "partials")
	if info, err := os.Stat(partialsDir); err == nil && info.IsDir() {
		partialFiles, err := filepath.Glob(filepath.Join(partialsDir, "*.html"))
		if err != nil {
			return nil, fmt.Errorf("glob partial templates: %w", err)
		}
		sort.Strings(partialFiles)
		files = append(files, partialFiles...)
	}

	page, err := template.New(PageFile).Funcs(htmlFuncs()).ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("parse page view: %w", err)
	}

	feed, err := texttemplate.New(FeedFile).Funcs(textFuncs()).ParseFiles(feedPath)
	if err != nil {
		return nil, fmt.Errorf("parse feed view: %w", err)
	}

	engine := &Engine{page: page, feed: feed}
	if raw, err := os.ReadFile(filepath.Join(viewsDir, StyleFile)); err == nil {
		engine.style = template.CSS(raw)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read style: %w", err)
	}
	return engine, nil
}

// Style returns the optional inline stylesheet of the views directory.
func (e *Engine) Style() template.CSS {
	return e.style
}

// Render executes view with data.
func (e *Engine) Render(w io.Writer, view string, data any) error {
	if e == nil || e.page == nil {
		return fmt.Errorf("template engine not initialized")
	}
	switch view {
	case PageView:
		return e.page.ExecuteTemplate(w, PageFile, data)
	case FeedView:
		return e.feed.ExecuteTemplate(w, FeedFile, data)
	default:
		return fmt.Errorf("%w: %q", ErrViewNotFound, view)
	}
}

func htmlFuncs() template.FuncMap {
	return template.FuncMap{
		"date":   formatDate,
		"iso":    formatISO,
		"tagURL": TagURL,
		"refreshScript": func() template.HTML {
			return template.HTML(refreshScript)
		},
		"safeHTML": func(v any) template.HTML {
			switch value := v.(type) {
			case template.HTML:
				return value
			case string:
				return template.HTML(value)
			default:
				return ""
			}
		},
	}
}

func textFuncs() texttemplate.FuncMap {
	return texttemplate.FuncMap{
		"date":   formatDate,
		"iso":    formatISO,
		"tagURL": TagURL,
		"absURL": AbsURL,
		"xml":    escapeXML,
	}
}

// TagURL is the route of the index page for tag.
func TagURL(tag string) string {
	return "/tags/" + renderer.Slugify(tag) + "/"
}

// AbsURL joins a site base URL and a route.
func AbsURL(base, route string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if !strings.HasPrefix(route, "/") {
		route = "/" + route
	}
	return base + route
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func formatISO(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func escapeXML(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

const refreshScript = `<script>
(function () {
  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var socket = new WebSocket(proto + location.host + "` + RefreshPath + `");
  socket.addEventListener("message", function (event) {
    if (event.data === "refresh") {
      location.reload();
    }
  });
})();
</script>`
