package executor

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	internalexec "github.com/victoralfred/hostadm/internal/exec"
	"github.com/victoralfred/hostadm/privilege"
	"github.com/victoralfred/hostadm/secret"
)

// mockResolver is a mock privilege resolver
type mockResolver struct {
	resolveFunc func(ctx context.Context) (privilege.Decision, error)
}

func (m *mockResolver) Resolve(ctx context.Context) (privilege.Decision, error) {
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx)
	}
	return privilege.RunDirectly, nil
}

// mockCatalog is a mock tool prober
type mockCatalog struct {
	probeFunc func(binary string) error
}

func (m *mockCatalog) Probe(binary string) error {
	if m.probeFunc != nil {
		return m.probeFunc(binary)
	}
	return nil
}

// mockRateLimiter is a mock rate limiter
type mockRateLimiter struct {
	allowFunc func(tool string) bool
	waitFunc  func(ctx context.Context, tool string) error
}

func (m *mockRateLimiter) Allow(tool string) bool {
	if m.allowFunc != nil {
		return m.allowFunc(tool)
	}
	return true
}

func (m *mockRateLimiter) Wait(ctx context.Context, tool string) error {
	if m.waitFunc != nil {
		return m.waitFunc(ctx, tool)
	}
	return nil
}

// mockTelemetry is a mock telemetry implementation
type mockTelemetry struct {
	startSpanFunc    func(ctx context.Context, name string) (context.Context, func())
	recordMetricFunc func(name string, value float64, labels map[string]string)
}

func (m *mockTelemetry) StartSpan(ctx context.Context, name string) (context.Context, func()) {
	if m.startSpanFunc != nil {
		return m.startSpanFunc(ctx, name)
	}
	return ctx, func() {}
}

func (m *mockTelemetry) RecordMetric(name string, value float64, labels map[string]string) {
	if m.recordMetricFunc != nil {
		m.recordMetricFunc(name, value, labels)
	}
}

// mockHook is a mock hook implementation
type mockHook struct {
	preExecuteFunc  func(ctx context.Context, cmd *Command) (*Command, error)
	postExecuteFunc func(ctx context.Context, cmd *Command, result *Result, err error) error
}

func (m *mockHook) PreExecute(ctx context.Context, cmd *Command) (*Command, error) {
	if m.preExecuteFunc != nil {
		return m.preExecuteFunc(ctx, cmd)
	}
	return cmd, nil
}

func (m *mockHook) PostExecute(ctx context.Context, cmd *Command, result *Result, err error) error {
	if m.postExecuteFunc != nil {
		return m.postExecuteFunc(ctx, cmd, result, err)
	}
	return nil
}

// mockAudit captures audit events
type mockAudit struct {
	mu     sync.Mutex
	events []auditCall
}

type auditCall struct {
	cmd    *Command
	result *Result
	err    error
}

func (m *mockAudit) Record(ctx context.Context, cmd *Command, result *Result, execErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, auditCall{cmd: cmd, result: result, err: execErr})
}

func (m *mockAudit) calls() []auditCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]auditCall(nil), m.events...)
}

func directExecutor(t *testing.T, opts ...func(*Builder)) Executor {
	t.Helper()
	b := NewBuilder().WithResolver(&mockResolver{})
	for _, opt := range opts {
		opt(b)
	}
	exec, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	return exec
}

func TestNewBuilder(t *testing.T) {
	builder := NewBuilder()
	if builder == nil {
		t.Fatal("NewBuilder() returned nil")
	}

	exec, err := builder.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	if exec == nil {
		t.Fatal("Build() returned nil executor")
	}
}

func TestExecutor_Execute_Success(t *testing.T) {
	exec := directExecutor(t)
	defer exec.Shutdown(context.Background())

	cmd, err := NewCommand("echo", "/bin/echo").Arg("hello").Build()
	if err != nil {
		t.Fatalf("Failed to build command: %v", err)
	}

	result, err := exec.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if !result.Success() {
		t.Errorf("Status = %v, ExitCode = %d, want success", result.Status, result.ExitCode)
	}
	if got := strings.TrimSpace(result.StdoutString()); got != "hello" {
		t.Errorf("Stdout = %q, want 'hello'", got)
	}
	if result.Privilege != privilege.RunDirectly {
		t.Errorf("Privilege = %v, want RunDirectly", result.Privilege)
	}
	if result.Rendered != "/bin/echo hello" {
		t.Errorf("Rendered = %q", result.Rendered)
	}
	if result.CommandID == "" {
		t.Error("Expected a command id")
	}
	if result.Tool != "echo" {
		t.Errorf("Tool = %q, want 'echo'", result.Tool)
	}
}

func TestExecutor_DryRun_NoMutation(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "created")

	exec := directExecutor(t, func(b *Builder) { b.WithDryRun(true) })
	defer exec.Shutdown(context.Background())

	cmd := NewCommand("touch", "/usr/bin/touch").Arg(marker).MustBuild()

	result, err := exec.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result.Status != StatusDryRun || !result.DryRun {
		t.Errorf("Status = %v, DryRun = %v, want dry run", result.Status, result.DryRun)
	}
	if !strings.Contains(result.Rendered, marker) {
		t.Errorf("Rendered = %q, want the would-be command", result.Rendered)
	}

	if _, statErr := os.Stat(marker); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("Dry run must not touch the system")
	}
}

// countingRunner records process launches without performing any.
type countingRunner struct {
	mu      sync.Mutex
	calls   int
	runFunc func(ctx context.Context, config *internalexec.RunConfig) (*internalexec.RunResult, error)
}

func (r *countingRunner) Run(ctx context.Context, config *internalexec.RunConfig) (*internalexec.RunResult, error) {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.runFunc != nil {
		return r.runFunc(ctx, config)
	}
	return &internalexec.RunResult{}, nil
}

func (r *countingRunner) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func TestExecutor_DryRun_Idempotent(t *testing.T) {
	runner := &countingRunner{}
	exec := directExecutor(t, func(b *Builder) { b.WithDryRun(true) })
	defer exec.Shutdown(context.Background())
	exec.(*executor).runner = runner

	build := func() *Command {
		return NewCommand("useradd", "/usr/sbin/useradd").
			Option("--uid", "1200").
			Flag("--create-home").
			Arg("alice").
			MustBuild()
	}

	first, err := exec.Execute(context.Background(), build())
	if err != nil {
		t.Fatalf("first dry run: %v", err)
	}
	second, err := exec.Execute(context.Background(), build())
	if err != nil {
		t.Fatalf("second dry run: %v", err)
	}

	if first.Rendered != second.Rendered {
		t.Errorf("Rendered differs across identical dry runs: %q vs %q", first.Rendered, second.Rendered)
	}
	if first.Status != StatusDryRun || second.Status != StatusDryRun {
		t.Errorf("Status = %v / %v, want dry_run twice", first.Status, second.Status)
	}
	if got := runner.callCount(); got != 0 {
		t.Errorf("dry run launched %d processes, want 0", got)
	}
}

func TestExecutor_DryRun_ReportsSudoMode(t *testing.T) {
	resolver := &mockResolver{resolveFunc: func(ctx context.Context) (privilege.Decision, error) {
		return privilege.RunWithSudo, nil
	}}

	exec, _ := NewBuilder().WithResolver(resolver).WithDryRun(true).Build()
	defer exec.Shutdown(context.Background())

	cmd := NewCommand("true", "/bin/true").MustBuild()

	result, err := exec.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result.Privilege != privilege.RunWithSudo {
		t.Errorf("Privilege = %v, want RunWithSudo", result.Privilege)
	}
	if want := "/usr/bin/sudo -n -- /bin/true"; result.Rendered != want {
		t.Errorf("Rendered = %q, want %q", result.Rendered, want)
	}
}

func TestExecutor_DryRun_InteractiveRendersPlainSudo(t *testing.T) {
	resolver := &mockResolver{resolveFunc: func(ctx context.Context) (privilege.Decision, error) {
		return privilege.RunWithSudo, nil
	}}

	exec, _ := NewBuilder().WithResolver(resolver).WithDryRun(true).Build()
	defer exec.Shutdown(context.Background())

	cmd := NewCommand("smbpasswd", "/usr/bin/smbpasswd").
		Option("-a", "alice").
		WithInteractive().
		MustBuild()

	result, err := exec.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if want := "/usr/bin/sudo -- /usr/bin/smbpasswd -a alice"; result.Rendered != want {
		t.Errorf("Rendered = %q, want %q", result.Rendered, want)
	}
}

func TestExecutor_SudoPrefixAssembly(t *testing.T) {
	// Substituting /bin/echo for sudo makes the child print the
	// escalated vector instead of running it.
	resolver := &mockResolver{resolveFunc: func(ctx context.Context) (privilege.Decision, error) {
		return privilege.RunWithSudo, nil
	}}

	exec, _ := NewBuilder().WithResolver(resolver).WithSudoPath("/bin/echo").Build()
	defer exec.Shutdown(context.Background())

	cmd := NewCommand("true", "/bin/true").Arg("--version").MustBuild()

	result, err := exec.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	// echo swallows the leading -n as its own flag and prints the rest.
	if got := strings.TrimSpace(result.StdoutString()); got != "-- /bin/true --version" {
		t.Errorf("escalated vector = %q", got)
	}
	if want := "/bin/echo -n -- /bin/true --version"; result.Rendered != want {
		t.Errorf("Rendered = %q, want %q", result.Rendered, want)
	}
}

func TestExecutor_Denied(t *testing.T) {
	resolver := &mockResolver{resolveFunc: func(ctx context.Context) (privilege.Decision, error) {
		return privilege.Denied, nil
	}}

	exec, _ := NewBuilder().WithResolver(resolver).Build()
	defer exec.Shutdown(context.Background())

	cmd := NewCommand("useradd", "/usr/sbin/useradd").Arg("alice").MustBuild()

	result, err := exec.Execute(context.Background(), cmd)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("Expected ErrPermissionDenied, got %v", err)
	}
	if result.Status != StatusDenied {
		t.Errorf("Status = %v, want StatusDenied", result.Status)
	}
	if GetErrorCode(err) != ErrCodePermissionDenied {
		t.Errorf("Code = %v, want PERMISSION_DENIED", GetErrorCode(err))
	}
}

func TestExecutor_DeniedWipesSecret(t *testing.T) {
	resolver := &mockResolver{resolveFunc: func(ctx context.Context) (privilege.Decision, error) {
		return privilege.Denied, nil
	}}

	exec, _ := NewBuilder().WithResolver(resolver).Build()
	defer exec.Shutdown(context.Background())

	src := secret.NewPayload().Text("alice:hunter2").Newline().Seal()
	cmd := NewCommand("chpasswd", "/usr/sbin/chpasswd").WithStdin(src).MustBuild()

	if _, err := exec.Execute(context.Background(), cmd); err == nil {
		t.Fatal("Expected denial")
	}

	leftover, _ := io.ReadAll(src)
	if len(leftover) != 0 {
		t.Errorf("Secret payload survived a denied invocation: %q", leftover)
	}
}

func TestExecutor_CatalogProbeFailure(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "created")
	catalog := &mockCatalog{probeFunc: func(binary string) error {
		return errors.New("not installed")
	}}

	exec := directExecutor(t, func(b *Builder) { b.WithCatalog(catalog) })
	defer exec.Shutdown(context.Background())

	cmd := NewCommand("touch", "/usr/bin/touch").Arg(marker).MustBuild()

	_, err := exec.Execute(context.Background(), cmd)
	if !errors.Is(err, ErrToolUnavailable) {
		t.Fatalf("Expected ErrToolUnavailable, got %v", err)
	}
	if _, statErr := os.Stat(marker); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("Probe failure must stop execution")
	}
}

func TestExecutor_MissingBinaryClassified(t *testing.T) {
	exec := directExecutor(t)
	defer exec.Shutdown(context.Background())

	cmd := NewCommand("wbinfo", "/nonexistent/wbinfo").MustBuild()

	_, err := exec.Execute(context.Background(), cmd)
	if !errors.Is(err, ErrToolUnavailable) {
		t.Fatalf("Expected ErrToolUnavailable, got %v", err)
	}
}

func TestExecutor_NonZeroExit(t *testing.T) {
	exec := directExecutor(t)
	defer exec.Shutdown(context.Background())

	cmd := NewCommand("sh", "/bin/sh").Arg("-c").Arg("echo boom >&2; exit 3").MustBuild()

	result, err := exec.Execute(context.Background(), cmd)
	if !errors.Is(err, ErrExecutionFailed) {
		t.Fatalf("Expected ErrExecutionFailed, got %v", err)
	}
	if result.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", result.ExitCode)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("Expected stderr in error, got %q", err.Error())
	}
	if result.Status != StatusError {
		t.Errorf("Status = %v, want StatusError", result.Status)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	exec := directExecutor(t)
	defer exec.Shutdown(context.Background())

	cmd := NewCommand("sleep", "/bin/sleep").
		Arg("10").
		WithTimeout(100 * time.Millisecond).
		MustBuild()

	result, err := exec.Execute(context.Background(), cmd)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("Expected ErrTimeout, got %v", err)
	}
	if result.Status != StatusTimeout {
		t.Errorf("Status = %v, want StatusTimeout", result.Status)
	}
}

func TestExecutor_RateLimited(t *testing.T) {
	limiter := &mockRateLimiter{waitFunc: func(ctx context.Context, tool string) error {
		return errors.New("limit")
	}}

	exec := directExecutor(t, func(b *Builder) { b.WithRateLimiter(limiter) })
	defer exec.Shutdown(context.Background())

	cmd := NewCommand("echo", "/bin/echo").MustBuild()

	result, err := exec.Execute(context.Background(), cmd)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Expected ErrRateLimited, got %v", err)
	}
	if result.Status != StatusRateLimited {
		t.Errorf("Status = %v, want StatusRateLimited", result.Status)
	}
}

func TestExecutor_GuardRejectsRawVector(t *testing.T) {
	exec := directExecutor(t)
	defer exec.Shutdown(context.Background())

	// The raw struct never went through the builder; the argument
	// guard must catch the split token on its own.
	cmd := &Command{Tool: "echo", Binary: "/bin/echo", Args: []string{"a\nb"}}

	_, err := exec.Execute(context.Background(), cmd)
	if !errors.Is(err, ErrInvalidCommand) {
		t.Fatalf("Expected ErrInvalidCommand, got %v", err)
	}
}

func TestExecutor_GuardRejectsDeniedEnv(t *testing.T) {
	exec := directExecutor(t)
	defer exec.Shutdown(context.Background())

	cmd := NewCommand("echo", "/bin/echo").
		WithEnv("LD_PRELOAD", "/tmp/evil.so").
		MustBuild()

	_, err := exec.Execute(context.Background(), cmd)
	if !errors.Is(err, ErrInvalidCommand) {
		t.Fatalf("Expected ErrInvalidCommand, got %v", err)
	}
}

func TestExecutor_StdinPayloadDelivered(t *testing.T) {
	exec := directExecutor(t)
	defer exec.Shutdown(context.Background())

	src := secret.NewPayload().Text("alice:hunter2").Newline().Seal()
	cmd := NewCommand("cat", "/bin/cat").WithStdin(src).MustBuild()

	result, err := exec.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result.StdoutString() != "alice:hunter2\n" {
		t.Errorf("Stdout = %q, want the payload byte-for-byte", result.StdoutString())
	}
}

func TestExecutor_Hooks(t *testing.T) {
	var preCalled, postCalled bool

	hook := &mockHook{
		preExecuteFunc: func(ctx context.Context, cmd *Command) (*Command, error) {
			preCalled = true
			modified := cmd.Clone()
			modified.Metadata["stage"] = "pre"
			return modified, nil
		},
		postExecuteFunc: func(ctx context.Context, cmd *Command, result *Result, err error) error {
			postCalled = true
			if cmd.Metadata["stage"] != "pre" {
				t.Error("Post hook did not see the pre-hook modification")
			}
			return nil
		},
	}

	exec := directExecutor(t, func(b *Builder) { b.WithHooks(hook) })
	defer exec.Shutdown(context.Background())

	cmd := NewCommand("echo", "/bin/echo").Arg("hook").MustBuild()
	if _, err := exec.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if !preCalled || !postCalled {
		t.Errorf("Hook calls: pre=%v post=%v, want both", preCalled, postCalled)
	}
}

func TestExecutor_PreHookErrorStops(t *testing.T) {
	hookErr := errors.New("rejected by hook")
	hook := &mockHook{
		preExecuteFunc: func(ctx context.Context, cmd *Command) (*Command, error) {
			return nil, hookErr
		},
	}

	exec := directExecutor(t, func(b *Builder) { b.WithHooks(hook) })
	defer exec.Shutdown(context.Background())

	cmd := NewCommand("echo", "/bin/echo").MustBuild()
	if _, err := exec.Execute(context.Background(), cmd); !errors.Is(err, hookErr) {
		t.Fatalf("Expected hook error, got %v", err)
	}
}

func TestExecutor_AuditSeesEveryOutcome(t *testing.T) {
	audit := &mockAudit{}
	denying := &mockResolver{resolveFunc: func(ctx context.Context) (privilege.Decision, error) {
		return privilege.Denied, nil
	}}

	exec, _ := NewBuilder().WithResolver(denying).WithAudit(audit).Build()
	cmd := NewCommand("useradd", "/usr/sbin/useradd").Arg("alice").MustBuild()
	_, _ = exec.Execute(context.Background(), cmd)
	_ = exec.Shutdown(context.Background())

	calls := audit.calls()
	if len(calls) != 1 {
		t.Fatalf("Audit calls = %d, want 1", len(calls))
	}
	if calls[0].result.Status != StatusDenied {
		t.Errorf("Audited status = %v, want StatusDenied", calls[0].result.Status)
	}
	if !errors.Is(calls[0].err, ErrPermissionDenied) {
		t.Errorf("Audited error = %v, want permission denied", calls[0].err)
	}
}

func TestExecutor_TelemetryLabels(t *testing.T) {
	var recorded map[string]string
	telemetry := &mockTelemetry{
		recordMetricFunc: func(name string, value float64, labels map[string]string) {
			if name == "hostadm.execution_duration_ms" {
				recorded = labels
			}
		},
	}

	exec := directExecutor(t, func(b *Builder) { b.WithTelemetry(telemetry) })
	defer exec.Shutdown(context.Background())

	cmd := NewCommand("echo", "/bin/echo").MustBuild()
	if _, err := exec.Execute(context.Background(), cmd); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}

	if recorded == nil {
		t.Fatal("Expected a duration metric")
	}
	if recorded["tool"] != "echo" || recorded["status"] != "success" {
		t.Errorf("Labels = %v", recorded)
	}
}

func TestExecutor_ShutdownRejectsNewCommands(t *testing.T) {
	exec := directExecutor(t)

	if err := exec.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}

	cmd := NewCommand("echo", "/bin/echo").MustBuild()
	if _, err := exec.Execute(context.Background(), cmd); !errors.Is(err, ErrExecutorShutdown) {
		t.Fatalf("Expected ErrExecutorShutdown, got %v", err)
	}
}

func TestExecutor_ShutdownWaitsForInflight(t *testing.T) {
	exec := directExecutor(t)

	started := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		cmd := NewCommand("sleep", "/bin/sleep").Arg("0.3").MustBuild()
		close(started)
		_, _ = exec.Execute(context.Background(), cmd)
		close(finished)
	}()

	<-started
	time.Sleep(50 * time.Millisecond)

	if err := exec.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}

	select {
	case <-finished:
	default:
		t.Error("Shutdown returned before the in-flight command completed")
	}
}

func TestIsSudoRefusal(t *testing.T) {
	refusals := []string{
		"sudo: a password is required\n",
		"sudo: user alice is not allowed to execute '/usr/sbin/useradd' as root\n",
		"sudo: alice is not in the sudoers file\n",
	}
	for _, s := range refusals {
		if !isSudoRefusal(s) {
			t.Errorf("Expected %q to classify as sudo refusal", s)
		}
	}

	others := []string{
		"useradd: user 'alice' already exists\n",
		"",
		"warning: sudo: something unrelated",
	}
	for _, s := range others {
		if isSudoRefusal(s) {
			t.Errorf("Expected %q not to classify as sudo refusal", s)
		}
	}
}
