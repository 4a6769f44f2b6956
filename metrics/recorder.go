package metrics

import "time"

// Outcome labels for build results.
const (
	OutcomeSuccess = "success"
	OutcomeWarning = "warning"
	OutcomeFailed  = "failed"
)

// Recorder receives build and live-reload observations. Implementations must
// be safe for concurrent use.
type Recorder interface {
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome string)
	SetPages(n int)
	SetDeadLinks(n int)
	IncRenderFailure(kind string)
	IncRefresh()
	SetClients(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not
// served).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(time.Duration) {}
func (NoopRecorder) IncBuildOutcome(string)             {}
func (NoopRecorder) SetPages(int)                       {}
func (NoopRecorder) SetDeadLinks(int)                   {}
func (NoopRecorder) IncRenderFailure(string)            {}
func (NoopRecorder) IncRefresh()                        {}
func (NoopRecorder) SetClients(int)                     {}
