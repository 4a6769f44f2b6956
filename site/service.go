package site

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tersite/ter/config"
	"github.com/tersite/ter/fsutil"
	"github.com/tersite/ter/metrics"
	"github.com/tersite/ter/renderer"
	"github.com/tersite/ter/templatex"
)

// Views is the template collaborator used by builds.
type Views interface {
	Render(w io.Writer, view string, data any) error
	Style() template.CSS
}

// ViewLoader loads the views of a directory. It runs once per build so that
// edited views apply on the next rebuild.
type ViewLoader func(dir string) (Views, error)

// Option customizes a Service.
type Option func(*Service)

// WithDates sets the fallback source of update dates.
func WithDates(dates DateSource) Option {
	return func(s *Service) { s.dates = dates }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(s *Service) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// WithViewLoader replaces the view loader.
func WithViewLoader(load ViewLoader) Option {
	return func(s *Service) { s.loadViews = load }
}

// WithLiveReload makes rendered pages include the refresh script.
func WithLiveReload() Option {
	return func(s *Service) { s.liveReload = true }
}

// Service orchestrates full builds of a site.
type Service struct {
	cfg        *config.BuildConfig
	logger     *slog.Logger
	renderer   *renderer.Renderer
	dates      DateSource
	metrics    metrics.Recorder
	loadViews  ViewLoader
	liveReload bool

	reports reportStore
}

// NewService constructs a Service instance.
func NewService(cfg *config.BuildConfig, logger *slog.Logger, rend *renderer.Renderer, opts ...Option) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if rend == nil {
		rend = renderer.New()
	}
	s := &Service{
		cfg:      cfg,
		logger:   logger,
		renderer: rend,
		metrics:  metrics.NoopRecorder{},
		loadViews: func(dir string) (Views, error) {
			engine, err := templatex.Load(dir)
			if err != nil {
				return nil, err
			}
			return engine, nil
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LastReport returns the report of the most recent build, if any.
func (s *Service) LastReport() (*Report, bool) {
	return s.reports.Snapshot()
}

// Entries returns the entry source of the configured layout.
func (s *Service) Entries() EntrySource {
	return EntrySource{
		Input:  s.cfg.InputPath,
		Output: s.cfg.OutputPath,
		Assets: s.cfg.AssetsPath,
		Static: s.cfg.HasStaticExt,
	}
}

type entrySet struct {
	content []Entry
	static  []Entry
	assets  []Entry
}

// Build runs one full build: collect entries, materialize pages, derive the
// graph, render every output in memory and finally replace the output
// directory. A failure before the final step leaves the previous output
// untouched. Per-output render failures are logged and skipped.
func (s *Service) Build(ctx context.Context) (*Report, error) {
	started := time.Now()
	report := &Report{ID: uuid.NewString(), StartedAt: started.UTC()}
	logger := s.logger.With("build", report.ID)

	err := s.build(ctx, logger, report)
	elapsed := time.Since(started)
	report.DurationMillis = elapsed.Milliseconds()
	s.metrics.ObserveBuildDuration(elapsed)

	switch {
	case err != nil:
		report.Outcome = metrics.OutcomeFailed
		report.Error = err.Error()
	case report.Clean():
		report.Outcome = metrics.OutcomeSuccess
	default:
		report.Outcome = metrics.OutcomeWarning
	}
	s.metrics.IncBuildOutcome(report.Outcome)
	s.reports.Update(report)

	if err != nil {
		return report, err
	}
	logger.Info("build complete",
		"pages", report.Pages,
		"tags", report.TagPages,
		"static", report.StaticFiles,
		"assets", report.Assets,
		"drafts", report.Drafts,
		"dead_links", len(report.DeadLinks),
		"duration", elapsed.Round(time.Millisecond),
	)
	return report, nil
}

func (s *Service) build(ctx context.Context, logger *slog.Logger, report *Report) error {
	views, err := s.loadViews(s.cfg.ViewsPath)
	if err != nil {
		return fmt.Errorf("load views: %w", err)
	}

	entries, err := s.collect(ctx)
	if err != nil {
		return err
	}
	if len(entries.content) == 0 {
		return fmt.Errorf("%w in %s", ErrNoContent, s.cfg.InputPath)
	}

	materializer := NewMaterializer(s.renderer, s.cfg.IgnoreKeys, s.dates)
	pages, failures := materializer.MaterializeAll(ctx, entries.content)
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, failure := range failures {
		logger.Warn("skipping page", "error", failure)
		var merr *MaterializationError
		if errors.As(failure, &merr) {
			report.Skipped = append(report.Skipped, merr.Path)
		}
	}

	pages, drafts := FilterDrafts(pages, s.cfg.RenderDrafts)
	report.Drafts = len(drafts)
	for _, draft := range drafts {
		logger.Debug("skipping draft", "path", draft.Path)
	}

	graph := BuildGraph(pages)
	report.DeadLinks = graph.DeadLinks()
	s.metrics.SetDeadLinks(len(report.DeadLinks))

	outputs, renderFailures, err := s.renderAll(ctx, logger, graph, views)
	if err != nil {
		return err
	}
	for _, failure := range renderFailures {
		report.RenderFailures = append(report.RenderFailures, failure.Kind+" "+failure.Target)
		s.metrics.IncRenderFailure(failure.Kind)
	}

	stage, err := fsutil.NewStage(s.cfg.OutputPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := stage.Discard(); err != nil {
			logger.Warn("remove temp output", "error", err)
		}
	}()

	for _, out := range outputs {
		if err := stage.WriteFile(out.rel, out.data); err != nil {
			return fmt.Errorf("write %s: %w", out.rel, err)
		}
		switch out.kind {
		case RenderPage:
			report.Pages++
		case RenderTag:
			report.TagPages++
		case RenderFeed:
			report.Feed = true
		case RenderSearch:
			report.Search = true
		}
	}
	for _, entry := range entries.static {
		if err := stage.CopyFile(entry.Abs, entry.Rel); err != nil {
			return fmt.Errorf("copy static %s: %w", entry.Rel, err)
		}
	}
	for _, entry := range entries.assets {
		if err := stage.CopyFile(entry.Abs, entry.Rel); err != nil {
			return fmt.Errorf("copy asset %s: %w", entry.Rel, err)
		}
	}
	report.StaticFiles = len(entries.static)
	report.Assets = len(entries.assets)

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := stage.Commit(); err != nil {
		return err
	}
	s.metrics.SetPages(report.Pages)

	for _, dead := range report.DeadLinks {
		logger.Warn("dead link", "source", dead.Source, "target", dead.Target)
	}
	return nil
}

// collect enumerates content, static and asset entries concurrently.
func (s *Service) collect(ctx context.Context) (entrySet, error) {
	var set entrySet
	src := s.Entries()

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		entries, err := src.Content()
		if err != nil {
			return fmt.Errorf("list content: %w", err)
		}
		set.content = entries
		return nil
	})
	g.Go(func() error {
		entries, err := src.StaticFiles()
		if err != nil {
			return fmt.Errorf("list static files: %w", err)
		}
		set.static = entries
		return nil
	})
	g.Go(func() error {
		entries, err := src.AssetFiles()
		if err != nil {
			return fmt.Errorf("list assets: %w", err)
		}
		set.assets = entries
		return nil
	})
	if err := g.Wait(); err != nil {
		return entrySet{}, err
	}
	return set, nil
}
