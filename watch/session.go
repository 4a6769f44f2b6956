package watch

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/tersite/ter/metrics"
)

// RefreshMessage is the token sent to live-reload clients after a rebuild.
const RefreshMessage = "refresh"

// Client is one connected live-reload socket.
type Client interface {
	Send(ctx context.Context, msg string) error
}

// Session holds the live-reload clients of a dev server and the debounce
// timer for refresh notifications. A burst of NotifyRefresh calls within the
// delay produces a single message per client.
type Session struct {
	mu          sync.Mutex
	clients     map[Client]struct{}
	timer       *time.Timer
	pending     uint64
	closed      bool
	delay       time.Duration
	sendTimeout time.Duration
	logger      *slog.Logger
	metrics     metrics.Recorder
}

// NewSession creates a session whose refresh notifications wait for delay of
// quiet before going out.
func NewSession(delay time.Duration, logger *slog.Logger, rec metrics.Recorder) *Session {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Session{
		clients:     make(map[Client]struct{}),
		delay:       delay,
		sendTimeout: 5 * time.Second,
		logger:      logger,
		metrics:     rec,
	}
}

// Register adds a client. It returns false once the session is closed.
func (s *Session) Register(c Client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.clients[c] = struct{}{}
	s.metrics.SetClients(len(s.clients))
	return true
}

// Unregister removes a client. Unknown clients are ignored.
func (s *Session) Unregister(c Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c)
	s.metrics.SetClients(len(s.clients))
}

// Len returns the number of registered clients.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// NotifyRefresh schedules a refresh broadcast, restarting the quiet window
// if one is already pending.
func (s *Session) NotifyRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.pending++
	seq := s.pending
	s.timer = time.AfterFunc(s.delay, func() { s.broadcast(seq) })
}

// Close stops any pending broadcast and forgets every client.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.clients = make(map[Client]struct{})
	s.metrics.SetClients(0)
}

// broadcast sends the refresh token to every client. A client that fails to
// receive it is dropped; the others are unaffected. seq identifies the timer
// that fired: a timer superseded by a later NotifyRefresh does nothing.
func (s *Session) broadcast(seq uint64) {
	s.mu.Lock()
	if s.closed || seq != s.pending {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	targets := make([]Client, 0, len(s.clients))
	for c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.Unlock()

	s.metrics.IncRefresh()
	var wg sync.WaitGroup
	for _, c := range targets {
		wg.Add(1)
		go func(c Client) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), s.sendTimeout)
			defer cancel()
			if err := c.Send(ctx, RefreshMessage); err != nil {
				s.logger.Debug("refresh send failed", "error", err)
				s.Unregister(c)
			}
		}(c)
	}
	wg.Wait()
	s.logger.Debug("refresh sent", "clients", len(targets))
}
