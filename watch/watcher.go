package watch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Rebuilder runs one full build.
type Rebuilder func(ctx context.Context) error

// Notifier is told about every successful rebuild.
type Notifier interface {
	NotifyRefresh()
}

// Options configures a Watcher.
type Options struct {
	// Roots are watched recursively.
	Roots []string
	// Relevant reports whether a change at an absolute path should trigger a
	// rebuild. Directories it rejects are not watched at all.
	Relevant func(path string) bool
	// Settle is how long the loop keeps collecting events after the first
	// one before rebuilding.
	Settle time.Duration
	Logger *slog.Logger
}

// Watcher rebuilds the site on filesystem changes. Rebuilds run on the
// watcher's own goroutine, one at a time: events that arrive during a rebuild
// are coalesced into exactly one follow-up rebuild.
type Watcher struct {
	fs       *fsnotify.Watcher
	rebuild  Rebuilder
	notify   Notifier
	relevant func(string) bool
	settle   time.Duration
	logger   *slog.Logger
}

// New creates a watcher over opts.Roots.
func New(opts Options, rebuild Rebuilder, notify Notifier) (*Watcher, error) {
	fw, err := fsnotify.NewBufferedWatcher(256)
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	w := &Watcher{
		fs:       fw,
		rebuild:  rebuild,
		notify:   notify,
		relevant: opts.Relevant,
		settle:   opts.Settle,
		logger:   opts.Logger,
	}
	if w.relevant == nil {
		w.relevant = func(string) bool { return true }
	}
	if w.logger == nil {
		w.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	for _, root := range opts.Roots {
		if root == "" {
			continue
		}
		if _, err := os.Stat(root); err != nil {
			w.logger.Debug("watch root unavailable", "dir", root, "error", err)
			continue
		}
		if err := w.addDirsRecursive(root, true); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// Run processes events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.handle(ev) {
				continue
			}
			w.drain(ctx)
			if ctx.Err() != nil {
				return nil
			}
			w.runRebuild(ctx)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// drain collects events until the settle window passes without a relevant
// one.
func (w *Watcher) drain(ctx context.Context) {
	if w.settle <= 0 {
		for {
			select {
			case ev, ok := <-w.fs.Events:
				if !ok {
					return
				}
				w.handle(ev)
			default:
				return
			}
		}
	}
	timer := time.NewTimer(w.settle)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if w.handle(ev) {
				timer.Reset(w.settle)
			}
		case <-timer.C:
			return
		}
	}
}

func (w *Watcher) runRebuild(ctx context.Context) {
	w.logger.Info("change detected; rebuilding site")
	if err := w.rebuild(ctx); err != nil {
		w.logger.Warn("rebuild failed", "error", err)
		return
	}
	if w.notify != nil {
		w.notify.NotifyRefresh()
	}
}

// handle reports whether ev should trigger a rebuild and starts watching
// newly created directories.
func (w *Watcher) handle(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	if isEditorNoise(ev.Name) || !w.relevant(ev.Name) {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addDirsRecursive(ev.Name, false)
		}
	}
	w.logger.Debug("file change detected", "path", ev.Name, "op", ev.Op.String())
	return true
}

func (w *Watcher) addDirsRecursive(root string, isRoot bool) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if !(isRoot && path == root) && !w.relevant(path) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			w.logger.Warn("watch add failed", "dir", path, "error", err)
		}
		return nil
	})
}

// isEditorNoise matches swap, backup and lock files written by editors.
func isEditorNoise(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, ".#") ||
		(strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#")) ||
		base == ".DS_Store" ||
		base == "Thumbs.db"
}
