package site

import (
	"bytes"
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/tersite/ter/templatex"
)

type output struct {
	kind string
	rel  string
	data []byte
}

// renderAll renders content pages, tag pages, the feed and the search index.
// The classes run concurrently; pages inside a class are rendered one at a
// time so logs and output order follow the page order. Outputs are returned
// content first, then tags, then the feed and the index.
func (s *Service) renderAll(ctx context.Context, logger *slog.Logger, g *Graph, views Views) ([]output, []*RenderError, error) {
	site := newSiteData(s.cfg.User)
	style := views.Style()

	var (
		pageOut, tagOut, feedOut, searchOut     []output
		pageFail, tagFail, feedFail, searchFail []*RenderError
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		for _, page := range g.Pages() {
			if err := ctx.Err(); err != nil {
				return err
			}
			data := s.contentData(g, page, site, style)
			out, rerr := s.renderView(views, RenderPage, page.Path, outputFile(page.Path), templatex.PageView, data, false)
			if rerr != nil {
				logger.Warn("skipping page", "path", page.Path, "error", rerr)
				pageFail = append(pageFail, rerr)
				continue
			}
			pageOut = append(pageOut, out)
		}
		return nil
	})
	eg.Go(func() error {
		for _, tag := range g.Tags() {
			if err := ctx.Err(); err != nil {
				return err
			}
			canonical := tagPath(tag)
			if _, taken := g.Page(canonical); taken {
				logger.Warn("tag page shadowed by content page", "tag", tag, "path", canonical)
				continue
			}
			data := s.tagData(g, tag, site, style)
			out, rerr := s.renderView(views, RenderTag, tag, outputFile(canonical), templatex.PageView, data, false)
			if rerr != nil {
				logger.Warn("skipping tag page", "tag", tag, "error", rerr)
				tagFail = append(tagFail, rerr)
				continue
			}
			tagOut = append(tagOut, out)
		}
		return nil
	})
	eg.Go(func() error {
		out, rerr := s.renderView(views, RenderFeed, "feed.xml", "feed.xml", templatex.FeedView, feedData(g, site), true)
		if rerr != nil {
			logger.Warn("skipping feed", "error", rerr)
			feedFail = append(feedFail, rerr)
			return nil
		}
		feedOut = append(feedOut, out)
		return nil
	})
	eg.Go(func() error {
		data, err := buildSearchIndex(g.Pages())
		if err != nil {
			rerr := &RenderError{Kind: RenderSearch, Target: SearchFile, Err: err}
			logger.Warn("skipping search index", "error", rerr)
			searchFail = append(searchFail, rerr)
			return nil
		}
		searchOut = append(searchOut, output{kind: RenderSearch, rel: SearchFile, data: data})
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	var outputs []output
	for _, class := range [][]output{pageOut, tagOut, feedOut, searchOut} {
		outputs = append(outputs, class...)
	}
	var failures []*RenderError
	for _, class := range [][]*RenderError{pageFail, tagFail, feedFail, searchFail} {
		failures = append(failures, class...)
	}
	return outputs, failures, nil
}

func (s *Service) renderView(views Views, kind, target, rel, view string, data any, xml bool) (output, *RenderError) {
	var buf bytes.Buffer
	if err := views.Render(&buf, view, data); err != nil {
		return output{}, &RenderError{Kind: kind, Target: target, Err: err}
	}
	minify := s.renderer.MinifyHTML
	if xml {
		minify = s.renderer.MinifyXML
	}
	minified, err := minify(buf.Bytes())
	if err != nil {
		return output{}, &RenderError{Kind: kind, Target: target, Err: err}
	}
	return output{kind: kind, rel: rel, data: minified}, nil
}
