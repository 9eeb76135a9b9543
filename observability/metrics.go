package observability

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/victoralfred/hostadm/executor"
)

// Metrics provides in-process invocation counters.
type Metrics struct {
	toolStats        map[string]*ToolStats
	totalDuration    int64
	minDuration      int64
	timeoutExec      int64
	deniedExec       int64
	rateLimited      int64
	failedExec       int64
	dryRunExec       int64
	durationCount    int64
	totalInvocations int64
	maxDuration      int64
	successfulExec   int64
	mu               sync.RWMutex
}

// ToolStats contains per-tool statistics.
type ToolStats struct {
	LastInvocationAt time.Time
	Tool             string
	LastStatus       string
	TotalInvocations int64
	SuccessfulExec   int64
	FailedExec       int64
	TotalDuration    int64
	AvgDuration      int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		toolStats:   make(map[string]*ToolStats),
		minDuration: -1,
	}
}

// RecordExecution records an invocation result.
func (m *Metrics) RecordExecution(cmd *executor.Command, result *executor.Result, err error) {
	atomic.AddInt64(&m.totalInvocations, 1)

	// Record status
	switch result.Status {
	case executor.StatusSuccess:
		atomic.AddInt64(&m.successfulExec, 1)
	case executor.StatusDryRun:
		atomic.AddInt64(&m.dryRunExec, 1)
	case executor.StatusTimeout:
		atomic.AddInt64(&m.timeoutExec, 1)
		atomic.AddInt64(&m.failedExec, 1)
	case executor.StatusDenied:
		atomic.AddInt64(&m.deniedExec, 1)
		atomic.AddInt64(&m.failedExec, 1)
	case executor.StatusRateLimited:
		atomic.AddInt64(&m.rateLimited, 1)
		atomic.AddInt64(&m.failedExec, 1)
	default:
		// error, killed, canceled
		atomic.AddInt64(&m.failedExec, 1)
	}

	// Record duration
	duration := result.Duration.Nanoseconds()
	atomic.AddInt64(&m.totalDuration, duration)
	atomic.AddInt64(&m.durationCount, 1)

	// Update min/max
	for {
		old := atomic.LoadInt64(&m.minDuration)
		if old >= 0 && duration >= old {
			break
		}
		if atomic.CompareAndSwapInt64(&m.minDuration, old, duration) {
			break
		}
	}

	for {
		old := atomic.LoadInt64(&m.maxDuration)
		if duration <= old {
			break
		}
		if atomic.CompareAndSwapInt64(&m.maxDuration, old, duration) {
			break
		}
	}

	// Update per-tool stats
	m.updateToolStats(cmd.Tool, result)
}

func (m *Metrics) updateToolStats(tool string, result *executor.Result) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, ok := m.toolStats[tool]
	if !ok {
		stats = &ToolStats{Tool: tool}
		m.toolStats[tool] = stats
	}

	stats.TotalInvocations++
	stats.TotalDuration += result.Duration.Nanoseconds()
	stats.AvgDuration = stats.TotalDuration / stats.TotalInvocations
	stats.LastInvocationAt = time.Now()
	stats.LastStatus = result.Status.String()

	switch {
	case result.Status == executor.StatusSuccess:
		stats.SuccessfulExec++
	case result.Status == executor.StatusDryRun:
		// Neither success nor failure
	default:
		stats.FailedExec++
	}
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		TotalInvocations: atomic.LoadInt64(&m.totalInvocations),
		SuccessfulExec:   atomic.LoadInt64(&m.successfulExec),
		FailedExec:       atomic.LoadInt64(&m.failedExec),
		TimeoutExec:      atomic.LoadInt64(&m.timeoutExec),
		DeniedExec:       atomic.LoadInt64(&m.deniedExec),
		RateLimited:      atomic.LoadInt64(&m.rateLimited),
		DryRunExec:       atomic.LoadInt64(&m.dryRunExec),
		AvgDuration:      m.avgDuration(),
		MinDuration:      time.Duration(atomic.LoadInt64(&m.minDuration)),
		MaxDuration:      time.Duration(atomic.LoadInt64(&m.maxDuration)),
		ToolStats:        m.getToolStats(),
	}
}

// MetricsSnapshot is a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	ToolStats        map[string]*ToolStats
	RateLimited      int64
	FailedExec       int64
	TimeoutExec      int64
	DeniedExec       int64
	DryRunExec       int64
	TotalInvocations int64
	AvgDuration      time.Duration
	MinDuration      time.Duration
	MaxDuration      time.Duration
	SuccessfulExec   int64
}

// SuccessRate returns the success rate as a percentage.
func (s MetricsSnapshot) SuccessRate() float64 {
	if s.TotalInvocations == 0 {
		return 0
	}
	return float64(s.SuccessfulExec) / float64(s.TotalInvocations) * 100
}

// ErrorRate returns the error rate as a percentage.
func (s MetricsSnapshot) ErrorRate() float64 {
	if s.TotalInvocations == 0 {
		return 0
	}
	return float64(s.FailedExec) / float64(s.TotalInvocations) * 100
}

func (m *Metrics) avgDuration() time.Duration {
	count := atomic.LoadInt64(&m.durationCount)
	if count == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&m.totalDuration) / count)
}

func (m *Metrics) getToolStats() map[string]*ToolStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]*ToolStats, len(m.toolStats))
	for k, v := range m.toolStats {
		// Copy stats
		copied := *v
		result[k] = &copied
	}
	return result
}

// Reset resets all metrics.
func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.totalInvocations, 0)
	atomic.StoreInt64(&m.successfulExec, 0)
	atomic.StoreInt64(&m.failedExec, 0)
	atomic.StoreInt64(&m.timeoutExec, 0)
	atomic.StoreInt64(&m.deniedExec, 0)
	atomic.StoreInt64(&m.rateLimited, 0)
	atomic.StoreInt64(&m.dryRunExec, 0)
	atomic.StoreInt64(&m.totalDuration, 0)
	atomic.StoreInt64(&m.durationCount, 0)
	atomic.StoreInt64(&m.minDuration, -1)
	atomic.StoreInt64(&m.maxDuration, 0)

	m.mu.Lock()
	m.toolStats = make(map[string]*ToolStats)
	m.mu.Unlock()
}
