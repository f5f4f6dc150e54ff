package model

import "time"

// BuildOutcome summarizes one build invocation for presentation.
type BuildOutcome struct {
	Variant    Variant
	BuildKit   BuildKit
	Target     string
	ReturnCode int
	Duration   time.Duration
	// Err is set when the build script could not be started.
	Err error
}

// Succeeded reports whether the build started and exited with status 0.
func (o BuildOutcome) Succeeded() bool {
	return o.Err == nil && o.ReturnCode == 0
}
