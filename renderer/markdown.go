package renderer

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	minhtml "github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
	"github.com/tdewolff/minify/v2/xml"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	htmlRenderer "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
	"golang.org/x/text/unicode/norm"
)

// Heading represents a heading entry for table-of-contents rendering.
type Heading struct {
	ID    string
	Text  string
	Level int
}

// RenderResult wraps HTML markup and extracted metadata.
type RenderResult struct {
	HTML      []byte
	PlainText string
	Headings  []Heading
	Attrs     []Attr
	// Links holds the canonical targets of internal links in document order,
	// without duplicates.
	Links []string
}

// LinkResolver maps a raw link destination to a canonical content path and the
// href that should replace it in the output. ok is false for links that are
// not internal; those are left untouched.
type LinkResolver func(destination string) (canonical, href string, ok bool)

// Renderer transforms markdown sources into HTML fragments.
type Renderer struct {
	md  goldmark.Markdown
	min *minify.M
}

// New constructs a renderer with GitHub-flavored markdown extensions, YAML
// front matter and syntax highlighting.
func New() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.DefinitionList,
			extension.Footnote,
			extension.Typographer,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
					chromahtml.WithAllClasses(true),
					chromahtml.ClassPrefix("z-"),
					chromahtml.PreventSurroundingPre(true),
				),
				highlighting.WithWrapperRenderer(codeWrapper),
			),
			meta.Meta,
		),
		goldmark.WithParserOptions(
			parser.WithAttribute(),
		),
		goldmark.WithRendererOptions(
			htmlRenderer.WithUnsafe(),
		),
	)

	m := minify.New()
	m.Add("text/html", &minhtml.Minifier{
		KeepDocumentTags: true,
		KeepEndTags:      true,
		KeepQuotes:       true,
	})
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	m.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
	m.AddFuncRegexp(regexp.MustCompile("[/+]xml$"), xml.Minify)

	return &Renderer{md: md, min: m}
}

// Render converts the provided markdown into HTML without rewriting links.
func (r *Renderer) Render(src []byte) (*RenderResult, error) {
	return r.RenderWith(src, nil)
}

// RenderWith converts markdown into HTML, extracting front matter, headings,
// plain text and internal links. Internal links are rewritten to the href
// returned by resolve.
func (r *Renderer) RenderWith(src []byte, resolve LinkResolver) (*RenderResult, error) {
	var attrs []Attr
	front, body, isTOML, err := splitTOML(src)
	if err != nil {
		return nil, err
	}
	if isTOML {
		if attrs, err = parseTOML(front); err != nil {
			return nil, err
		}
		src = body
	}

	ctx := parser.NewContext()
	doc := r.md.Parser().Parse(text.NewReader(src), parser.WithContext(ctx))

	if !isTOML {
		items, err := meta.TryGetItems(ctx)
		if err != nil {
			return nil, fmt.Errorf("parse yaml front matter: %w", err)
		}
		attrs = make([]Attr, 0, len(items))
		for _, item := range items {
			attrs = append(attrs, Attr{Key: fmt.Sprint(item.Key), Value: normalizeValue(item.Value)})
		}
	}

	headings := make([]Heading, 0, 16)
	links := make([]string, 0, 8)
	seenLinks := make(map[string]struct{})
	slugCounts := make(map[string]int)

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			attr, _ := node.AttributeString("id")
			text := plainText(node, src)
			id := attributeToString(attr)
			if id == "" {
				base := Slugify(text)
				count := slugCounts[base]
				if count > 0 {
					id = fmt.Sprintf("%s-%d", base, count)
				} else {
					id = base
				}
				slugCounts[base] = count + 1
				node.SetAttributeString("id", []byte(id))
			} else {
				slugCounts[id]++
			}
			headings = append(headings, Heading{ID: id, Text: text, Level: node.Level})
		case *ast.Link:
			if resolve == nil {
				break
			}
			canonical, href, ok := resolve(string(node.Destination))
			if !ok {
				break
			}
			node.Destination = []byte(href)
			if _, dup := seenLinks[canonical]; !dup {
				seenLinks[canonical] = struct{}{}
				links = append(links, canonical)
			}
		}
		return ast.WalkContinue, nil
	})

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, src, doc); err != nil {
		return nil, err
	}

	return &RenderResult{
		HTML:      buf.Bytes(),
		PlainText: plainText(doc, src),
		Headings:  headings,
		Attrs:     attrs,
		Links:     links,
	}, nil
}

// MinifyHTML optimizes a full HTML document.
func (r *Renderer) MinifyHTML(raw []byte) ([]byte, error) {
	return r.min.Bytes("text/html", raw)
}

// MinifyXML optimizes an XML document such as a feed.
func (r *Renderer) MinifyXML(raw []byte) ([]byte, error) {
	return r.min.Bytes("application/xml", raw)
}

// plainText collects the readable text under root. Inline runs are joined as
// written; line breaks and block boundaries become single spaces.
// Typographer replacements are decoded from their entities.
func plainText(root ast.Node, source []byte) string {
	var sb strings.Builder
	space := func() {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
	}
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if n != root && n.Type() == ast.TypeBlock {
			space()
			return ast.WalkContinue, nil
		}
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Text:
			sb.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				space()
			}
		case *ast.String:
			sb.WriteString(html.UnescapeString(string(node.Value)))
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(strings.Fields(sb.String()), " ")
}

func attributeToString(value interface{}) string {
	switch v := value.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	default:
		return ""
	}
}

// Slugify lowercases input, folds accents and joins words with dashes.
// Characters outside letters and digits are dropped.
func Slugify(input string) string {
	input = strings.ToLower(strings.TrimSpace(norm.NFKD.String(input)))
	if input == "" {
		return "section"
	}
	var sb strings.Builder
	lastDash := false
	for _, r := range input {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			sb.WriteRune(r)
			lastDash = false
		case r == ' ' || r == '-' || r == '_' || r == '.' || r == '/':
			if sb.Len() == 0 || lastDash {
				continue
			}
			sb.WriteByte('-')
			lastDash = true
		}
	}
	slug := strings.Trim(sb.String(), "-")
	if slug == "" {
		return "section"
	}
	return slug
}

func codeWrapper(w util.BufWriter, ctx highlighting.CodeBlockContext, entering bool) {
	lang := "text"
	if raw, ok := ctx.Language(); ok && len(raw) > 0 {
		lang = string(raw)
	}
	lang = string(util.EscapeHTML([]byte(lang)))
	if entering {
		_, _ = fmt.Fprintf(w, `<pre tabindex="0" class="z-chroma z-code language-%[1]s" data-lang="%[1]s"><code class="language-%[1]s" data-lang="%[1]s">`, lang)
		return
	}
	_, _ = w.WriteString("</code></pre>\n")
}
