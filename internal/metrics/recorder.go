package metrics

import "time"

// OutcomeLabel enumerates the final status of a build invocation.
type OutcomeLabel string

// OutcomeTransient marks a transient failure that survived every retry.
const (
	OutcomeSuccess    OutcomeLabel = "success"
	OutcomeFailed     OutcomeLabel = "failed"
	OutcomeTransient  OutcomeLabel = "transient_exhausted"
	OutcomeSpawnError OutcomeLabel = "spawn_error"
)

// Recorder defines observability hooks for build invocations.
type Recorder interface {
	IncBuildAttempt(variant string)
	IncBuildRetry(variant string)
	IncBuildOutcome(outcome OutcomeLabel)
	ObserveBuildDuration(d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncBuildAttempt(string)             {}
func (NoopRecorder) IncBuildRetry(string)               {}
func (NoopRecorder) IncBuildOutcome(OutcomeLabel)       {}
func (NoopRecorder) ObserveBuildDuration(time.Duration) {}
