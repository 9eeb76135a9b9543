package observability

import (
	"sync"
	"testing"
	"time"

	"github.com/victoralfred/hostadm/executor"
)

func metricsCommand(t *testing.T, tool string) *executor.Command {
	t.Helper()
	return executor.NewCommand(tool, "/usr/sbin/"+tool).Arg("alice").MustBuild()
}

func metricsResult(tool string, status executor.ExitStatus, d time.Duration) *executor.Result {
	return &executor.Result{
		CommandID: "cmd-1",
		Tool:      tool,
		Status:    status,
		Duration:  d,
	}
}

func TestMetrics_RecordExecution(t *testing.T) {
	m := NewMetrics()
	cmd := metricsCommand(t, "useradd")

	m.RecordExecution(cmd, metricsResult("useradd", executor.StatusSuccess, 10*time.Millisecond), nil)
	m.RecordExecution(cmd, metricsResult("useradd", executor.StatusError, 20*time.Millisecond), nil)
	m.RecordExecution(cmd, metricsResult("useradd", executor.StatusTimeout, 30*time.Millisecond), nil)
	m.RecordExecution(cmd, metricsResult("useradd", executor.StatusDenied, 1*time.Millisecond), nil)
	m.RecordExecution(cmd, metricsResult("useradd", executor.StatusRateLimited, 1*time.Millisecond), nil)
	m.RecordExecution(cmd, metricsResult("useradd", executor.StatusDryRun, 1*time.Millisecond), nil)

	snap := m.Snapshot()

	if snap.TotalInvocations != 6 {
		t.Errorf("TotalInvocations = %d, want 6", snap.TotalInvocations)
	}
	if snap.SuccessfulExec != 1 {
		t.Errorf("SuccessfulExec = %d, want 1", snap.SuccessfulExec)
	}
	if snap.TimeoutExec != 1 {
		t.Errorf("TimeoutExec = %d, want 1", snap.TimeoutExec)
	}
	if snap.DeniedExec != 1 {
		t.Errorf("DeniedExec = %d, want 1", snap.DeniedExec)
	}
	if snap.RateLimited != 1 {
		t.Errorf("RateLimited = %d, want 1", snap.RateLimited)
	}
	if snap.DryRunExec != 1 {
		t.Errorf("DryRunExec = %d, want 1", snap.DryRunExec)
	}
	// error, timeout, denied, rate limited
	if snap.FailedExec != 4 {
		t.Errorf("FailedExec = %d, want 4", snap.FailedExec)
	}
}

func TestMetrics_StatusErrorCountsFailure(t *testing.T) {
	m := NewMetrics()
	cmd := metricsCommand(t, "userdel")

	result := metricsResult("userdel", executor.StatusError, 5*time.Millisecond)
	result.ExitCode = 6
	m.RecordExecution(cmd, result, executor.NewExecutionFailedError("userdel", 6, "user not found"))

	snap := m.Snapshot()
	if snap.FailedExec != 1 || snap.SuccessfulExec != 0 {
		t.Errorf("FailedExec/SuccessfulExec = %d/%d, want 1/0", snap.FailedExec, snap.SuccessfulExec)
	}
}

func TestMetrics_Durations(t *testing.T) {
	m := NewMetrics()
	cmd := metricsCommand(t, "getent")

	m.RecordExecution(cmd, metricsResult("getent", executor.StatusSuccess, 10*time.Millisecond), nil)
	m.RecordExecution(cmd, metricsResult("getent", executor.StatusSuccess, 30*time.Millisecond), nil)

	snap := m.Snapshot()

	if snap.MinDuration != 10*time.Millisecond {
		t.Errorf("MinDuration = %v, want 10ms", snap.MinDuration)
	}
	if snap.MaxDuration != 30*time.Millisecond {
		t.Errorf("MaxDuration = %v, want 30ms", snap.MaxDuration)
	}
	if snap.AvgDuration != 20*time.Millisecond {
		t.Errorf("AvgDuration = %v, want 20ms", snap.AvgDuration)
	}
}

func TestMetrics_ToolStats(t *testing.T) {
	m := NewMetrics()

	m.RecordExecution(metricsCommand(t, "useradd"),
		metricsResult("useradd", executor.StatusSuccess, 10*time.Millisecond), nil)
	m.RecordExecution(metricsCommand(t, "useradd"),
		metricsResult("useradd", executor.StatusError, 20*time.Millisecond), nil)
	m.RecordExecution(metricsCommand(t, "smbpasswd"),
		metricsResult("smbpasswd", executor.StatusSuccess, 5*time.Millisecond), nil)

	snap := m.Snapshot()

	ua, ok := snap.ToolStats["useradd"]
	if !ok {
		t.Fatal("Missing useradd stats")
	}
	if ua.TotalInvocations != 2 || ua.SuccessfulExec != 1 || ua.FailedExec != 1 {
		t.Errorf("useradd stats = %d/%d/%d, want 2/1/1",
			ua.TotalInvocations, ua.SuccessfulExec, ua.FailedExec)
	}
	if ua.LastStatus != "error" {
		t.Errorf("useradd LastStatus = %q, want error", ua.LastStatus)
	}
	if ua.AvgDuration != (15 * time.Millisecond).Nanoseconds() {
		t.Errorf("useradd AvgDuration = %d, want 15ms in ns", ua.AvgDuration)
	}

	if _, ok := snap.ToolStats["smbpasswd"]; !ok {
		t.Error("Missing smbpasswd stats")
	}
}

func TestMetrics_ToolStats_DryRunNeitherBucket(t *testing.T) {
	m := NewMetrics()

	m.RecordExecution(metricsCommand(t, "userdel"),
		metricsResult("userdel", executor.StatusDryRun, time.Millisecond), nil)

	stats := m.Snapshot().ToolStats["userdel"]
	if stats == nil {
		t.Fatal("Missing userdel stats")
	}
	if stats.SuccessfulExec != 0 || stats.FailedExec != 0 {
		t.Errorf("Dry run counted as success=%d failed=%d, want 0/0",
			stats.SuccessfulExec, stats.FailedExec)
	}
	if stats.TotalInvocations != 1 {
		t.Errorf("TotalInvocations = %d, want 1", stats.TotalInvocations)
	}
}

func TestMetricsSnapshot_Rates(t *testing.T) {
	m := NewMetrics()

	empty := m.Snapshot()
	if empty.SuccessRate() != 0 || empty.ErrorRate() != 0 {
		t.Error("Rates on empty metrics should be 0")
	}

	cmd := metricsCommand(t, "useradd")
	m.RecordExecution(cmd, metricsResult("useradd", executor.StatusSuccess, time.Millisecond), nil)
	m.RecordExecution(cmd, metricsResult("useradd", executor.StatusSuccess, time.Millisecond), nil)
	m.RecordExecution(cmd, metricsResult("useradd", executor.StatusError, time.Millisecond), nil)
	m.RecordExecution(cmd, metricsResult("useradd", executor.StatusError, time.Millisecond), nil)

	snap := m.Snapshot()
	if snap.SuccessRate() != 50.0 {
		t.Errorf("SuccessRate = %v, want 50", snap.SuccessRate())
	}
	if snap.ErrorRate() != 50.0 {
		t.Errorf("ErrorRate = %v, want 50", snap.ErrorRate())
	}
}

func TestMetrics_Reset(t *testing.T) {
	m := NewMetrics()
	cmd := metricsCommand(t, "useradd")

	m.RecordExecution(cmd, metricsResult("useradd", executor.StatusSuccess, time.Millisecond), nil)
	m.Reset()

	snap := m.Snapshot()
	if snap.TotalInvocations != 0 {
		t.Errorf("TotalInvocations after reset = %d, want 0", snap.TotalInvocations)
	}
	if len(snap.ToolStats) != 0 {
		t.Errorf("ToolStats after reset has %d entries, want 0", len(snap.ToolStats))
	}
	if snap.MinDuration != -1 {
		t.Errorf("MinDuration after reset = %v, want -1 sentinel", snap.MinDuration)
	}
}

func TestMetrics_SnapshotCopiesStats(t *testing.T) {
	m := NewMetrics()
	cmd := metricsCommand(t, "useradd")

	m.RecordExecution(cmd, metricsResult("useradd", executor.StatusSuccess, time.Millisecond), nil)

	snap := m.Snapshot()
	snap.ToolStats["useradd"].TotalInvocations = 999

	fresh := m.Snapshot()
	if fresh.ToolStats["useradd"].TotalInvocations != 1 {
		t.Error("Mutating a snapshot should not affect the collector")
	}
}

func TestMetrics_ConcurrentRecording(t *testing.T) {
	m := NewMetrics()

	var wg sync.WaitGroup
	workers := 10
	perWorker := 20

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cmd := executor.NewCommand("getent", "/usr/bin/getent").Arg("passwd").MustBuild()
			for j := 0; j < perWorker; j++ {
				m.RecordExecution(cmd, metricsResult("getent", executor.StatusSuccess, time.Millisecond), nil)
			}
		}()
	}

	wg.Wait()

	snap := m.Snapshot()
	want := int64(workers * perWorker)
	if snap.TotalInvocations != want {
		t.Errorf("TotalInvocations = %d, want %d", snap.TotalInvocations, want)
	}
	if snap.ToolStats["getent"].TotalInvocations != want {
		t.Errorf("Per-tool invocations = %d, want %d", snap.ToolStats["getent"].TotalInvocations, want)
	}
}
