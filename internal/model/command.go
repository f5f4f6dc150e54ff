package model

// CommandResult is the outcome of a finished external process.
type CommandResult struct {
	// Stdout holds the child's standard output and standard error, interleaved.
	Stdout string
	// Stderr is always empty; the error stream is merged into Stdout.
	Stderr string
	// ReturnCode is the process exit status.
	ReturnCode int
}

// Succeeded reports whether the process exited with status 0.
func (r CommandResult) Succeeded() bool {
	return r.ReturnCode == 0
}
