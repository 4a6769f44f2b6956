package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/NYTimes/gziphandler"

	"github.com/tersite/ter/config"
	"github.com/tersite/ter/site"
	"github.com/tersite/ter/templatex"
	"github.com/tersite/ter/watch"
)

// StatusPath serves the report of the last build as JSON.
const StatusPath = "/_ter/status"

// ReportSource exposes the most recent build report.
type ReportSource interface {
	LastReport() (*site.Report, bool)
}

// Options wires optional collaborators into the server.
type Options struct {
	// Session receives live-reload sockets. Without it /refresh is not served.
	Session *watch.Session
	Reports ReportSource
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// Server is the development HTTP surface over a build output directory.
type Server struct {
	cfg     *config.BuildConfig
	logger  *slog.Logger
	mux     *http.ServeMux
	session *watch.Session
	reports ReportSource
	metrics http.Handler
}

// New constructs a server instance.
func New(cfg *config.BuildConfig, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	srv := &Server{
		cfg:     cfg,
		logger:  logger,
		mux:     http.NewServeMux(),
		session: opts.Session,
		reports: opts.Reports,
		metrics: opts.Metrics,
	}
	srv.routes()
	return srv
}

// Handler returns the request handler with logging applied.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// Start listens on the configured port until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ctx, listener)
}

// Serve handles connections from listener until ctx is done.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if s.session != nil {
			s.session.Close()
		}
		_ = server.Shutdown(ctxShutdown)
		close(shutdownDone)
	}()

	s.logger.Info("serving", "addr", "http://"+listener.Addr().String(), "root", s.cfg.OutputPath)
	serveErr := server.Serve(listener)
	if errors.Is(serveErr, http.ErrServerClosed) {
		<-shutdownDone
		return nil
	}
	return serveErr
}

func (s *Server) routes() {
	if s.session != nil {
		s.mux.HandleFunc(templatex.RefreshPath, s.handleRefresh)
	}
	if s.reports != nil {
		s.mux.HandleFunc(StatusPath, s.handleStatus)
	}
	if s.metrics != nil {
		s.mux.Handle("/metrics", s.metrics)
	}
	s.mux.Handle("/", gziphandler.GzipHandler(http.HandlerFunc(s.handleStatic)))
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		s.logger.Debug("http", "method", r.Method, "path", r.URL.Path, "status", rw.status, "duration", time.Since(start))
	})
}

func isWithin(base, target string) bool {
	baseAbs, err := filepath.Abs(base)
	if err != nil {
		return false
	}
	targetAbs, err := filepath.Abs(target)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(baseAbs, targetAbs)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return false
	}
	return true
}

func sanitizeRequestPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	clean := path.Clean(p)
	if clean == "." {
		return "/"
	}
	return clean
}

func fileExists(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
