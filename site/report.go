package site

import (
	"sync"
	"time"
)

// Report summarizes one build.
type Report struct {
	ID             string     `json:"id"`
	StartedAt      time.Time  `json:"startedAt"`
	DurationMillis int64      `json:"durationMs"`
	Outcome        string     `json:"outcome"`
	Pages          int        `json:"pages"`
	TagPages       int        `json:"tagPages"`
	Feed           bool       `json:"feed"`
	Search         bool       `json:"search"`
	StaticFiles    int        `json:"staticFiles"`
	Assets         int        `json:"assets"`
	Drafts         int        `json:"drafts"`
	Skipped        []string   `json:"skipped,omitempty"`
	RenderFailures []string   `json:"renderFailures,omitempty"`
	DeadLinks      []DeadLink `json:"deadLinks,omitempty"`
	Error          string     `json:"error,omitempty"`
}

// Clean reports whether the build produced every output without warnings.
func (r *Report) Clean() bool {
	return r.Error == "" && len(r.Skipped) == 0 && len(r.RenderFailures) == 0 && len(r.DeadLinks) == 0
}

// reportStore keeps the most recent report for concurrent readers.
type reportStore struct {
	mu   sync.RWMutex
	last *Report
}

func (s *reportStore) Update(r *Report) {
	clone := r.clone()
	s.mu.Lock()
	s.last = clone
	s.mu.Unlock()
}

func (s *reportStore) Snapshot() (*Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil, false
	}
	return s.last.clone(), true
}

func (r *Report) clone() *Report {
	c := *r
	c.Skipped = append([]string(nil), r.Skipped...)
	c.RenderFailures = append([]string(nil), r.RenderFailures...)
	c.DeadLinks = append([]DeadLink(nil), r.DeadLinks...)
	return &c
}
