package executor

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/victoralfred/hostadm/internal/envutil"
	internalexec "github.com/victoralfred/hostadm/internal/exec"
	"github.com/victoralfred/hostadm/privilege"
	"github.com/victoralfred/hostadm/validation"
)

// Executor is the single abstraction for all wrapped-tool invocation.
// All command execution MUST go through this interface.
type Executor interface {
	// Execute runs a command synchronously with the given context.
	Execute(ctx context.Context, cmd *Command) (*Result, error)

	// Shutdown gracefully shuts down the executor, waiting for
	// in-flight commands.
	Shutdown(ctx context.Context) error
}

// Catalog probes tool availability before any privilege work happens.
type Catalog interface {
	// Probe reports whether the binary exists and is executable.
	Probe(binary string) error
}

// RateLimiter controls execution rate per tool.
type RateLimiter interface {
	// Allow checks if execution is allowed.
	Allow(tool string) bool
	// Wait blocks until execution is allowed.
	Wait(ctx context.Context, tool string) error
}

// Hook defines extension points around execution.
type Hook interface {
	// PreExecute is called before command execution.
	PreExecute(ctx context.Context, cmd *Command) (*Command, error)
	// PostExecute is called after command execution.
	PostExecute(ctx context.Context, cmd *Command, result *Result, err error) error
}

// Telemetry provides observability.
type Telemetry interface {
	// StartSpan starts a new trace span.
	StartSpan(ctx context.Context, name string) (context.Context, func())
	// RecordMetric records a metric.
	RecordMetric(name string, value float64, labels map[string]string)
}

// AuditSink receives one event per invocation, terminal rejections
// included. Events are secret-free: the command carries no credential
// in its vector and payloads are marked, never copied.
type AuditSink interface {
	Record(ctx context.Context, cmd *Command, result *Result, execErr error)
}

// processRunner launches one child process. internal/exec provides
// the real implementation.
type processRunner interface {
	Run(ctx context.Context, config *internalexec.RunConfig) (*internalexec.RunResult, error)
}

// executor is the default implementation.
type executor struct {
	catalog        Catalog
	resolver       privilege.Resolver
	rateLimiter    RateLimiter
	telemetry      Telemetry
	audit          AuditSink
	runner         processRunner
	argvGuard      *validation.ArgvGuard
	envGuard       *validation.EnvGuard
	hooks          []Hook
	wg             sync.WaitGroup
	mu             sync.RWMutex // protects shutdown check and wg.Add
	defaultTimeout time.Duration
	sudoPath       string
	dryRun         bool
	shutdown       int32
}

// Builder creates configured Executor instances.
type Builder struct {
	catalog        Catalog
	resolver       privilege.Resolver
	rateLimiter    RateLimiter
	telemetry      Telemetry
	audit          AuditSink
	hooks          []Hook
	defaultTimeout time.Duration
	sudoPath       string
	dryRun         bool
}

// NewBuilder creates a new executor builder.
func NewBuilder() *Builder {
	return &Builder{
		defaultTimeout: 30 * time.Second,
		sudoPath:       "/usr/bin/sudo",
	}
}

// WithCatalog sets the tool availability prober.
func (b *Builder) WithCatalog(catalog Catalog) *Builder {
	b.catalog = catalog
	return b
}

// WithResolver sets the privilege resolver.
func (b *Builder) WithResolver(resolver privilege.Resolver) *Builder {
	b.resolver = resolver
	return b
}

// WithRateLimiter sets the rate limiter.
func (b *Builder) WithRateLimiter(limiter RateLimiter) *Builder {
	b.rateLimiter = limiter
	return b
}

// WithHooks adds execution hooks.
func (b *Builder) WithHooks(hooks ...Hook) *Builder {
	b.hooks = append(b.hooks, hooks...)
	return b
}

// WithTelemetry sets the telemetry provider.
func (b *Builder) WithTelemetry(telemetry Telemetry) *Builder {
	b.telemetry = telemetry
	return b
}

// WithAudit sets the audit sink.
func (b *Builder) WithAudit(audit AuditSink) *Builder {
	b.audit = audit
	return b
}

// WithDefaultTimeout sets the default execution timeout.
func (b *Builder) WithDefaultTimeout(timeout time.Duration) *Builder {
	b.defaultTimeout = timeout
	return b
}

// WithSudoPath sets the sudo binary used for privilege escalation.
func (b *Builder) WithSudoPath(path string) *Builder {
	b.sudoPath = path
	return b
}

// WithDryRun makes every Execute render the command without running
// it.
func (b *Builder) WithDryRun(dryRun bool) *Builder {
	b.dryRun = dryRun
	return b
}

// Build creates the executor. A missing resolver defaults to the
// system resolver.
func (b *Builder) Build() (Executor, error) {
	resolver := b.resolver
	if resolver == nil {
		resolver = privilege.NewResolver(nil)
	}
	return &executor{
		runner:         internalexec.NewRunner(),
		catalog:        b.catalog,
		resolver:       resolver,
		rateLimiter:    b.rateLimiter,
		telemetry:      b.telemetry,
		audit:          b.audit,
		argvGuard:      validation.NewArgvGuard(nil),
		envGuard:       validation.NewEnvGuard(nil),
		hooks:          b.hooks,
		defaultTimeout: b.defaultTimeout,
		sudoPath:       b.sudoPath,
		dryRun:         b.dryRun,
	}, nil
}

// Execute runs one command through the full pipeline: guards, tool
// probe, dry-run short-circuit, privilege resolution, rate limit,
// sudo prefix, runner, classification. Privilege is resolved fresh on
// every call.
func (e *executor) Execute(ctx context.Context, cmd *Command) (*Result, error) {
	// Use mutex to ensure shutdown check and wg.Add are atomic
	// This prevents a race where Shutdown starts wg.Wait() between our check and Add
	e.mu.RLock()
	if atomic.LoadInt32(&e.shutdown) == 1 {
		e.mu.RUnlock()
		e.discardStdin(cmd)
		return nil, ErrExecutorShutdown
	}
	e.wg.Add(1)
	e.mu.RUnlock()

	defer e.wg.Done()

	// Start telemetry span
	if e.telemetry != nil {
		var endSpan func()
		ctx, endSpan = e.telemetry.StartSpan(ctx, "executor.Execute")
		defer endSpan()
	}

	// Generate command ID
	commandID := uuid.New().String()

	// Run pre-execute hooks
	var err error
	cmd, err = e.runPreHooks(ctx, cmd)
	if err != nil {
		e.discardStdin(cmd)
		return nil, err
	}

	// Independent second sweep over the built vector and environment
	if err := e.argvGuard.Check(cmd.Args); err != nil {
		e.discardStdin(cmd)
		return nil, NewValidationError(cmd.Tool, "args", err.Error())
	}
	if len(cmd.Env) > 0 {
		if err := e.envGuard.Check(cmd.Env); err != nil {
			e.discardStdin(cmd)
			return nil, NewValidationError(cmd.Tool, "env", err.Error())
		}
	}

	// Tool availability, before any privilege work
	if e.catalog != nil {
		if err := e.catalog.Probe(cmd.Binary); err != nil {
			e.discardStdin(cmd)
			result := e.newResult(ctx, cmd, commandID, StatusError)
			execErr := NewToolUnavailableError(cmd.Tool, cmd.Binary)
			e.finish(ctx, cmd, result, execErr)
			return result, execErr
		}
	}

	// Privilege is resolved for dry runs too: the report names the
	// mode the live run would use.
	decision, err := e.resolver.Resolve(ctx)
	if err != nil {
		e.discardStdin(cmd)
		return nil, err
	}

	rendered := e.renderCommand(cmd, decision)

	// Dry-run short-circuit: report, mutate nothing.
	if e.dryRun {
		e.discardStdin(cmd)
		result := e.newResult(ctx, cmd, commandID, StatusDryRun)
		result.Privilege = decision
		result.Rendered = rendered
		result.DryRun = true
		e.finish(ctx, cmd, result, nil)
		return result, nil
	}

	if decision == privilege.Denied {
		e.discardStdin(cmd)
		result := e.newResult(ctx, cmd, commandID, StatusDenied)
		result.Privilege = decision
		result.Rendered = rendered
		execErr := NewPermissionDeniedError(cmd.Tool, "no privilege path for this process")
		e.finish(ctx, cmd, result, execErr)
		return result, execErr
	}

	// Check rate limiter
	if e.rateLimiter != nil {
		if err := e.rateLimiter.Wait(ctx, cmd.Tool); err != nil {
			e.discardStdin(cmd)
			result := e.newResult(ctx, cmd, commandID, StatusRateLimited)
			result.Privilege = decision
			result.Rendered = rendered
			execErr := NewRateLimitError(cmd.Tool)
			e.finish(ctx, cmd, result, execErr)
			return result, execErr
		}
	}

	runBinary, runArgs := e.escalate(cmd, decision)

	// Interactive commands block on a human; no deadline applies.
	execCtx := ctx
	if !cmd.Interactive {
		timeout := cmd.Timeout
		if timeout == 0 {
			timeout = e.defaultTimeout
		}
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// Merge command environment with minimal safe environment
	// This ensures we always have a safe base, even if cmd.Env is empty
	minimalEnv := envutil.MinimalEnvironment()
	mergedEnv := envutil.MergeEnvironment(minimalEnv, cmd.Env)
	config := &internalexec.RunConfig{
		Binary:      runBinary,
		Args:        runArgs,
		Env:         internalexec.BuildEnv(mergedEnv),
		Interactive: cmd.Interactive,
	}
	if cmd.Stdin != nil {
		config.Stdin = cmd.Stdin
	}

	runResult, runErr := e.runner.Run(execCtx, config)

	result, execErr := e.buildResult(ctx, cmd, commandID, decision, rendered, runResult, runErr)

	// Record metrics
	if e.telemetry != nil {
		e.telemetry.RecordMetric("hostadm.execution_duration_ms", float64(result.Duration.Milliseconds()), map[string]string{
			"tool":     cmd.Tool,
			"status":   result.Status.String(),
			"exitcode": strconv.Itoa(result.ExitCode),
		})
	}

	// Run post-execute hooks and audit
	if hookErr := e.finish(ctx, cmd, result, execErr); hookErr != nil {
		return result, hookErr
	}

	return result, execErr
}

// Shutdown gracefully shuts down the executor.
func (e *executor) Shutdown(ctx context.Context) error {
	// Acquire write lock to prevent new executions from starting
	// Any Execute calls will block on RLock until we release
	e.mu.Lock()
	atomic.StoreInt32(&e.shutdown, 1)
	e.mu.Unlock()

	// Now wait for any in-progress executions to complete
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// escalate prefixes the vector with sudo when the decision requires
// it. Non-interactive escalation uses `sudo -n` so a missing
// credential fails fast instead of hanging on a prompt; interactive
// commands run under plain sudo so the prompt reaches the terminal.
func (e *executor) escalate(cmd *Command, decision privilege.Decision) (string, []string) {
	if decision != privilege.RunWithSudo {
		return cmd.Binary, cmd.Args
	}

	args := make([]string, 0, len(cmd.Args)+3)
	if !cmd.Interactive {
		args = append(args, "-n")
	}
	args = append(args, "--", cmd.Binary)
	args = append(args, cmd.Args...)
	return e.sudoPath, args
}

// renderCommand produces the display form of the invocation, sudo
// prefix included.
func (e *executor) renderCommand(cmd *Command, decision privilege.Decision) string {
	binary, args := e.escalate(cmd, decision)
	if len(args) == 0 {
		return binary
	}
	return binary + " " + strings.Join(args, " ")
}

// discardStdin wipes an attached secret payload on paths that never
// reach the runner.
func (e *executor) discardStdin(cmd *Command) {
	if cmd != nil && cmd.Stdin != nil {
		_ = cmd.Stdin.Close()
	}
}

// newResult creates a result shell for terminal pipeline stages.
func (e *executor) newResult(ctx context.Context, cmd *Command, commandID string, status ExitStatus) *Result {
	result := &Result{
		CommandID: commandID,
		Tool:      cmd.Tool,
		Status:    status,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		result.TraceID = sc.TraceID().String()
	}
	return result
}

// finish runs post-execute hooks and records the audit event. Audit
// is best-effort: a full disk must not block administration.
func (e *executor) finish(ctx context.Context, cmd *Command, result *Result, execErr error) error {
	hookErr := e.runPostHooks(ctx, cmd, result, execErr)
	if e.audit != nil {
		e.audit.Record(ctx, cmd, result, execErr)
	}
	return hookErr
}

// runPreHooks runs pre-execute hooks.
// Hooks are read-only after executor creation, so no lock needed.
func (e *executor) runPreHooks(ctx context.Context, cmd *Command) (*Command, error) {
	hooks := e.hooks
	if len(hooks) == 0 {
		return cmd, nil
	}

	current := cmd
	for _, hook := range hooks {
		modified, err := hook.PreExecute(ctx, current)
		if err != nil {
			return current, err
		}
		current = modified
	}
	return current, nil
}

// runPostHooks runs post-execute hooks.
// Hooks are read-only after executor creation, so no lock needed.
func (e *executor) runPostHooks(ctx context.Context, cmd *Command, result *Result, execErr error) error {
	hooks := e.hooks
	if len(hooks) == 0 {
		return nil
	}

	for _, hook := range hooks {
		if err := hook.PostExecute(ctx, cmd, result, execErr); err != nil {
			return err
		}
	}
	return nil
}

// buildResult classifies the runner outcome into a Result and the
// matching taxonomy error.
func (e *executor) buildResult(ctx context.Context, cmd *Command, commandID string, decision privilege.Decision, rendered string, runResult *internalexec.RunResult, runErr error) (*Result, error) {
	result := e.newResult(ctx, cmd, commandID, StatusError)
	result.Privilege = decision
	result.Rendered = rendered

	if runResult != nil {
		result.ExitCode = runResult.ExitCode
		result.Stdout = runResult.Stdout
		result.Stderr = runResult.Stderr
		result.Truncated = runResult.Truncated
		result.Duration = runResult.Duration
	}

	switch {
	case runErr == nil:
		result.Status = StatusSuccess
		return result, nil

	case errors.Is(runErr, context.DeadlineExceeded):
		result.Status = StatusTimeout
		timeout := cmd.Timeout
		if timeout == 0 {
			timeout = e.defaultTimeout
		}
		return result, NewTimeoutError(cmd.Tool, timeout.String())

	case errors.Is(runErr, context.Canceled):
		result.Status = StatusCanceled
		return result, runErr

	case errors.Is(runErr, os.ErrNotExist):
		result.Status = StatusError
		return result, NewToolUnavailableError(cmd.Tool, cmd.Binary)

	case errors.Is(runErr, os.ErrPermission):
		result.Status = StatusDenied
		return result, NewPermissionDeniedError(cmd.Tool, "execution refused by the operating system")
	}

	if runResult != nil && runResult.Signal != 0 {
		result.Status = StatusKilled
		return result, NewExecutionFailedError(cmd.Tool, result.ExitCode, result.StderrString())
	}

	// sudo's own refusal is a privilege failure, not a tool failure.
	if decision == privilege.RunWithSudo && isSudoRefusal(result.StderrString()) {
		result.Status = StatusDenied
		return result, NewPermissionDeniedError(cmd.Tool, "sudo refused to escalate")
	}

	result.Status = StatusError
	return result, NewExecutionFailedError(cmd.Tool, result.ExitCode, result.StderrString())
}

// isSudoRefusal recognizes sudo's non-interactive denial messages.
func isSudoRefusal(stderr string) bool {
	if !strings.HasPrefix(stderr, "sudo:") {
		return false
	}
	return strings.Contains(stderr, "a password is required") ||
		strings.Contains(stderr, "not allowed to execute") ||
		strings.Contains(stderr, "not in the sudoers file")
}
