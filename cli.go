package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tersite/ter/config"
	"github.com/tersite/ter/gitutil"
	"github.com/tersite/ter/metrics"
	"github.com/tersite/ter/renderer"
	"github.com/tersite/ter/server"
	"github.com/tersite/ter/site"
	"github.com/tersite/ter/templatex"
	"github.com/tersite/ter/watch"
)

// watchSettle is how long the dev loop waits for a burst of file events to
// finish before rebuilding.
const watchSettle = 50 * time.Millisecond

// CLI holds the global flags shared by every command.
type CLI struct {
	Input    string `short:"i" env:"TER_INPUT" help:"Content directory." default:"."`
	Output   string `short:"o" env:"TER_OUTPUT" help:"Output directory." default:"_site"`
	Config   string `short:"c" env:"TER_CONFIG" help:"User config file (yaml, toml or json)." default:".ter/config.yml"`
	Views    string `env:"TER_VIEWS" help:"Template directory." default:".ter/views"`
	Assets   string `env:"TER_ASSETS" help:"Asset directory copied into the output." default:".ter/assets"`
	Quiet    bool   `short:"q" help:"Only log warnings and errors."`
	Verbose  bool   `short:"v" help:"Enable debug logging."`
	Drafts   bool   `env:"TER_DRAFTS" help:"Render pages marked as drafts."`
	GitDates bool   `name:"git-dates" env:"TER_GIT_DATES" help:"Use the last commit date of a page when it has no updated date."`

	Build   BuildCmd   `cmd:"" default:"1" help:"Build the site once."`
	Serve   ServeCmd   `cmd:"" help:"Build, serve and rebuild on change with live reload."`
	Init    InitCmd    `cmd:"" help:"Write the default config, views and assets."`
	Version VersionCmd `cmd:"" help:"Print the version."`
}

func (c *CLI) overrides(port int) config.Overrides {
	return config.Overrides{
		ConfigPath:   c.Config,
		InputPath:    c.Input,
		OutputPath:   c.Output,
		ViewsPath:    c.Views,
		AssetsPath:   c.Assets,
		Port:         port,
		Quiet:        c.Quiet,
		Verbose:      c.Verbose,
		RenderDrafts: c.Drafts,
		GitDates:     c.GitDates,
	}
}

func (c *CLI) load(port int) (*config.BuildConfig, *slog.Logger, error) {
	cfg, initialized, err := config.Load(c.overrides(port))
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)
	if initialized {
		logger.Info("wrote default user config", "path", cfg.UserConfigPath)
	}
	return cfg, logger, nil
}

// BuildCmd renders the site once.
type BuildCmd struct{}

func (b *BuildCmd) Run(cli *CLI) error {
	cfg, logger, err := cli.load(0)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := site.NewService(cfg, logger, renderer.New(), serviceOptions(ctx, cfg, logger)...)
	report, err := svc.Build(ctx)
	if err != nil {
		return err
	}
	for _, dl := range report.DeadLinks {
		fmt.Fprintf(os.Stderr, "dead link: %s -> %s\n", dl.Source, dl.Target)
	}
	logger.Info("static build completed", "output", cfg.OutputPath, "outcome", report.Outcome)
	return nil
}

// ServeCmd runs the development loop.
type ServeCmd struct {
	Port int `short:"p" env:"TER_PORT" help:"HTTP port." default:"8080"`
}

func (s *ServeCmd) Run(cli *CLI) error {
	cfg, logger, err := cli.load(s.Port)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rec := metrics.NewPrometheusRecorder(nil)
	opts := append(serviceOptions(ctx, cfg, logger), site.WithRecorder(rec), site.WithLiveReload())
	svc := site.NewService(cfg, logger, renderer.New(), opts...)

	// A broken first build still serves whatever output exists; the next
	// change retries.
	if _, err := svc.Build(ctx); err != nil {
		logger.Error("initial build failed", "error", err)
	}

	session := watch.NewSession(cfg.RefreshDelay, logger, rec)
	watcher, err := watch.New(watch.Options{
		Roots:    []string{cfg.InputPath, cfg.ViewsPath, cfg.AssetsPath},
		Relevant: relevantPath(svc.Entries(), cfg.ViewsPath, cfg.AssetsPath),
		Settle:   watchSettle,
		Logger:   logger,
	}, func(ctx context.Context) error {
		_, err := svc.Build(ctx)
		return err
	}, session)
	if err != nil {
		return err
	}

	srv := server.New(cfg, logger, server.Options{
		Session: session,
		Reports: svc,
		Metrics: rec.Handler(),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return watcher.Run(gctx) })
	g.Go(func() error { return srv.Start(gctx) })
	return g.Wait()
}

// InitCmd scaffolds a new site.
type InitCmd struct{}

func (i *InitCmd) Run(cli *CLI) error {
	cfg, logger, err := cli.load(0)
	if err != nil {
		return err
	}
	written, err := templatex.WriteDefaults(cfg.ViewsPath, cfg.AssetsPath)
	if err != nil {
		return err
	}
	for _, path := range written {
		logger.Info("created", "path", path)
	}
	if len(written) == 0 {
		logger.Info("views and assets already present", "views", cfg.ViewsPath, "assets", cfg.AssetsPath)
	}
	return nil
}

// VersionCmd prints the build version.
type VersionCmd struct{}

func (v *VersionCmd) Run() error {
	fmt.Println(VERSION_STRING)
	return nil
}

func serviceOptions(ctx context.Context, cfg *config.BuildConfig, logger *slog.Logger) []site.Option {
	if !cfg.GitDates {
		return nil
	}
	repo, err := gitutil.Open(ctx, "git", cfg.InputPath, 10*time.Second)
	if err != nil {
		if errors.Is(err, gitutil.ErrNotRepository) {
			logger.Warn("git dates disabled: input is not a git repository", "dir", cfg.InputPath)
		} else {
			logger.Warn("git dates disabled", "error", err)
		}
		return nil
	}
	return []site.Option{site.WithDates(repo)}
}

// relevantPath accepts everything under the views and assets roots and every
// content path a build would see.
func relevantPath(entries site.EntrySource, roots ...string) func(string) bool {
	return func(path string) bool {
		for _, root := range roots {
			if isUnder(root, path) {
				return true
			}
		}
		return !entries.Skip(path)
	}
}

func isUnder(base, target string) bool {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
