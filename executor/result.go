package executor

import (
	"time"

	"github.com/victoralfred/hostadm/privilege"
)

// Result contains the outcome of one command invocation.
// Created per invocation, immutable after return, never persisted.
type Result struct {
	// CommandID uniquely identifies the invocation for audit and
	// tracing.
	CommandID string

	// TraceID is the OpenTelemetry trace id, when tracing is active.
	TraceID string

	// Tool is the catalog name of the wrapped tool.
	Tool string

	// Status classifies the outcome.
	Status ExitStatus

	// ExitCode is the wrapped tool's exit code.
	ExitCode int

	// Stdout is the captured standard output.
	Stdout []byte

	// Stderr is the captured standard error.
	Stderr []byte

	// Truncated reports that a captured stream hit the capture cap.
	Truncated bool

	// Duration is the wall clock time of execution.
	Duration time.Duration

	// Privilege is the mode the command ran under (or would run
	// under, for a dry run).
	Privilege privilege.Decision

	// Rendered is the full command line as it ran, sudo prefix
	// included. Safe to display: secrets never enter the vector.
	Rendered string

	// DryRun reports that the command was rendered, not executed.
	DryRun bool
}

// ExitStatus represents the outcome of command execution.
type ExitStatus int

const (
	// StatusSuccess indicates successful execution (exit code 0).
	StatusSuccess ExitStatus = iota
	// StatusError indicates non-zero exit code.
	StatusError
	// StatusTimeout indicates execution timeout.
	StatusTimeout
	// StatusCanceled indicates context was canceled.
	StatusCanceled
	// StatusKilled indicates process was killed by signal.
	StatusKilled
	// StatusDenied indicates the privilege decision forbade execution.
	StatusDenied
	// StatusRateLimited indicates rate limit exceeded.
	StatusRateLimited
	// StatusDryRun indicates the command was rendered without running.
	StatusDryRun
)

// String returns the string representation of the exit status.
func (s ExitStatus) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	case StatusTimeout:
		return "timeout"
	case StatusCanceled:
		return "canceled"
	case StatusKilled:
		return "killed"
	case StatusDenied:
		return "denied"
	case StatusRateLimited:
		return "rate_limited"
	case StatusDryRun:
		return "dry_run"
	default:
		return "unknown"
	}
}

// IsSuccess returns true if the command succeeded.
func (s ExitStatus) IsSuccess() bool {
	return s == StatusSuccess
}

// Success returns true if the command ran and exited zero.
func (r *Result) Success() bool {
	return r.Status == StatusSuccess && r.ExitCode == 0
}

// Failed returns true if the result indicates failure. A dry run is
// neither: nothing ran.
func (r *Result) Failed() bool {
	return !r.Success() && r.Status != StatusDryRun
}

// StdoutString returns stdout as a string.
func (r *Result) StdoutString() string {
	return string(r.Stdout)
}

// StderrString returns stderr as a string.
func (r *Result) StderrString() string {
	return string(r.Stderr)
}
