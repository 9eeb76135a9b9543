// Package exec provides the internal command execution wrapper.
// This is the ONLY package in the entire module that imports os/exec.
// All child process invocation MUST go through this package.
package exec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"
)

// maxCaptureBytes caps captured stdout/stderr per stream. System tools
// normally emit a few lines; a runaway child must not exhaust memory.
const maxCaptureBytes = 1 << 20

// Runner executes commands using os/exec.CommandContext.
// This is the sole abstraction for process invocation.
type Runner struct {
	// minimalEnv contains the minimal safe environment variables.
	minimalEnv []string
}

// NewRunner creates a new command runner.
func NewRunner() *Runner {
	return &Runner{
		minimalEnv: []string{
			"PATH=/usr/sbin:/usr/bin:/sbin:/bin",
			"LANG=C.UTF-8",
			"LC_ALL=C.UTF-8",
		},
	}
}

// MinimalEnv returns a copy of the minimal child environment.
func (r *Runner) MinimalEnv() []string {
	return append([]string(nil), r.minimalEnv...)
}

// RunConfig contains configuration for running a command.
type RunConfig struct {
	// Binary is the absolute path to the executable.
	Binary string

	// Args are the command arguments (excluding the binary name).
	Args []string

	// Env is the environment variables. If nil, minimalEnv is used.
	Env []string

	// WorkingDir is the working directory.
	WorkingDir string

	// Stdin provides input to the command. Closed after the child
	// exits when it implements io.Closer.
	Stdin io.Reader

	// Interactive connects the child to the calling process's
	// terminal so the wrapped tool can prompt. Stdin is ignored and
	// nothing is captured.
	Interactive bool

	// SysProcAttr contains OS-specific process attributes.
	SysProcAttr *syscall.SysProcAttr
}

// RunResult contains the result of command execution.
type RunResult struct {
	// ExitCode is the process exit code.
	ExitCode int

	// Signal is the signal that terminated the process, if any.
	Signal syscall.Signal

	// Stdout contains captured standard output.
	Stdout []byte

	// Stderr contains captured standard error.
	Stderr []byte

	// Truncated reports that a captured stream hit the capture cap.
	Truncated bool

	// Duration is the wall clock time of execution.
	Duration time.Duration

	// Pid is the child process id, when the child started.
	Pid int
}

// Run executes a command with the given context and configuration.
// Non-interactive runs require a context deadline; interactive runs
// block until the wrapped tool's own prompt completes.
func (r *Runner) Run(ctx context.Context, config *RunConfig) (*RunResult, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	if !config.Interactive {
		if _, ok := ctx.Deadline(); !ok {
			return nil, fmt.Errorf("context must have a deadline for timeout enforcement")
		}
	}

	// G204: Binary and Args are validated upstream by the parameter
	// validators and the argument guard before reaching this point.
	// CommandContext with a separate binary/arg vector never invokes
	// a shell, so no token is re-interpreted.
	// #nosec G204 -- Binary path and arguments are validated upstream
	cmd := exec.CommandContext(ctx, config.Binary, config.Args...)

	// Set environment - use minimal env if none provided
	if len(config.Env) > 0 {
		cmd.Env = config.Env
	} else {
		cmd.Env = r.minimalEnv
	}

	if config.WorkingDir != "" {
		cmd.Dir = config.WorkingDir
	}

	var stdoutBuf, stderrBuf *limitWriter
	if config.Interactive {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	} else {
		if config.Stdin != nil {
			cmd.Stdin = config.Stdin
		}
		stdoutBuf = newLimitWriter(maxCaptureBytes)
		stderrBuf = newLimitWriter(maxCaptureBytes)
		cmd.Stdout = stdoutBuf
		cmd.Stderr = stderrBuf
	}

	// Set process attributes for security. Interactive children stay
	// in the calling process group: a child in its own group would be
	// stopped with SIGTTIN the moment it reads from the terminal.
	if config.SysProcAttr != nil {
		cmd.SysProcAttr = config.SysProcAttr
	} else if !config.Interactive {
		cmd.SysProcAttr = defaultSysProcAttr()
	}

	start := time.Now()
	err := cmd.Run()
	duration := time.Since(start)

	// A child killed by the context reports "signal: killed"; the
	// context error carries the actual cause.
	if err != nil && ctx.Err() != nil {
		err = ctx.Err()
	}

	if closer, ok := config.Stdin.(io.Closer); ok {
		_ = closer.Close()
	}

	result := &RunResult{
		Duration: duration,
	}

	if stdoutBuf != nil {
		result.Stdout = stdoutBuf.Bytes()
		result.Stderr = stderrBuf.Bytes()
		result.Truncated = stdoutBuf.Truncated() || stderrBuf.Truncated()
	}

	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
		result.Pid = cmd.ProcessState.Pid()

		// Check if killed by signal
		if ws, ok := cmd.ProcessState.Sys().(syscall.WaitStatus); ok {
			if ws.Signaled() {
				result.Signal = ws.Signal()
			}
		}
	}

	return result, err
}

// defaultSysProcAttr returns secure default process attributes.
func defaultSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		// Create a new process group so we can kill all children
		Setpgid: true,
		Pgid:    0,
	}
}

// limitWriter keeps the first limit bytes written and drops the rest.
type limitWriter struct {
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func newLimitWriter(limit int) *limitWriter {
	return &limitWriter{limit: limit}
}

func (w *limitWriter) Write(p []byte) (int, error) {
	if remain := w.limit - w.buf.Len(); remain > 0 {
		if len(p) > remain {
			w.buf.Write(p[:remain])
			w.truncated = true
		} else {
			w.buf.Write(p)
		}
	} else if len(p) > 0 {
		w.truncated = true
	}
	return len(p), nil
}

func (w *limitWriter) Bytes() []byte {
	return w.buf.Bytes()
}

func (w *limitWriter) Truncated() bool {
	return w.truncated
}

// BuildEnv creates an environment slice from a map.
func BuildEnv(env map[string]string) []string {
	result := make([]string, 0, len(env))
	for k, v := range env {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}

