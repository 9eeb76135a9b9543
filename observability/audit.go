package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"sync"
	"time"

	"github.com/victoralfred/gowritter/safepath"

	"github.com/victoralfred/hostadm/executor"
)

// AuditLogger provides append-only audit logging.
type AuditLogger interface {
	// Log logs an audit event.
	Log(ctx context.Context, event *AuditEvent) error

	// Query queries audit events.
	Query(ctx context.Context, filter *AuditFilter) ([]*AuditEvent, error)

	// Close closes the audit logger.
	Close() error
}

// AuditEvent represents one invocation in the audit log. Events are
// secret-free: argv never carries credentials and attached payloads
// appear only as the "redacted" stdin marker.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	ID        string            `json:"id"`
	User      string            `json:"user,omitempty"`
	Tool      string            `json:"tool"`
	Binary    string            `json:"binary"`
	Privilege string            `json:"privilege,omitempty"`
	Status    string            `json:"status"`
	Stdin     string            `json:"stdin,omitempty"`
	Error     string            `json:"error,omitempty"`
	Output    string            `json:"output,omitempty"`
	TraceID   string            `json:"trace_id,omitempty"`
	Type      AuditEventType    `json:"type"`
	Args      []string          `json:"args"`
	Duration  time.Duration     `json:"duration"`
	ExitCode  int               `json:"exit_code"`
	DryRun    bool              `json:"dry_run,omitempty"`
}

// AuditEventType represents the type of audit event.
type AuditEventType string

const (
	// AuditEventExecution is a tool invocation event.
	AuditEventExecution AuditEventType = "execution"

	// AuditEventDenied is a privilege denial event.
	AuditEventDenied AuditEventType = "denied"

	// AuditEventRateLimited is a rate limiting event.
	AuditEventRateLimited AuditEventType = "rate_limited"

	// AuditEventError is an error event.
	AuditEventError AuditEventType = "error"
)

// StdinRedacted is the marker recorded when a secret payload was
// attached to the invocation. The payload itself is never written.
const StdinRedacted = "redacted"

// AuditFilter filters audit events.
type AuditFilter struct {
	// StartTime is the start of the time range.
	StartTime time.Time

	// EndTime is the end of the time range.
	EndTime time.Time

	// Tool filters by tool name.
	Tool string

	// Type filters by event type.
	Type AuditEventType

	// Status filters by status.
	Status string

	// Limit is the maximum number of events to return.
	Limit int
}

// AuditConfig configures the audit logger.
type AuditConfig struct {
	LogLevel      AuditLogLevel
	BasePath      string
	FilePath      string
	MaxOutputSize int
	RotateSize    int64
	RotateCount   int
	Enabled       bool
	IncludeOutput bool
}

// AuditLogLevel determines what events to log.
type AuditLogLevel string

const (
	// AuditLogAll logs all events.
	AuditLogAll AuditLogLevel = "all"

	// AuditLogFailures logs only failures.
	AuditLogFailures AuditLogLevel = "failures"

	// AuditLogDenials logs only privilege denials.
	AuditLogDenials AuditLogLevel = "denials"
)

// DefaultAuditConfig returns default audit configuration.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled:       true,
		LogLevel:      AuditLogAll,
		IncludeOutput: false,
		MaxOutputSize: 1024,
		BasePath:      "/var/log",
		FilePath:      "hostadm/audit.log",
		RotateSize:    100 * 1024 * 1024, // 100MB
		RotateCount:   10,
	}
}

// fileAuditLogger implements AuditLogger using gowritter.
type fileAuditLogger struct {
	safePath *safepath.SafePath
	config   AuditConfig
	mu       sync.Mutex
}

// NewFileAuditLogger creates a new file-based audit logger.
func NewFileAuditLogger(config AuditConfig) (AuditLogger, error) {
	sp, err := safepath.New(config.BasePath)
	if err != nil {
		return nil, fmt.Errorf("creating safe path: %w", err)
	}

	return &fileAuditLogger{
		config:   config,
		safePath: sp,
	}, nil
}

// Log implements AuditLogger.Log.
func (l *fileAuditLogger) Log(ctx context.Context, event *AuditEvent) error {
	if !l.config.Enabled {
		return nil
	}

	// Check log level
	if !l.shouldLog(event) {
		return nil
	}

	// Truncate output if needed
	if !l.config.IncludeOutput {
		event.Output = ""
	} else if len(event.Output) > l.config.MaxOutputSize {
		event.Output = event.Output[:l.config.MaxOutputSize] + "...(truncated)"
	}

	// Marshal to JSON
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling audit event: %w", err)
	}

	// Append newline
	data = append(data, '\n')

	// Write to file using gowritter
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rotateIfNeeded()

	if err := l.safePath.AppendFile(l.config.FilePath, data, 0o644); err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}

	return nil
}

// rotateIfNeeded shifts the log aside once it exceeds RotateSize.
// Caller holds l.mu.
func (l *fileAuditLogger) rotateIfNeeded() {
	if l.config.RotateSize <= 0 || l.config.RotateCount <= 0 {
		return
	}

	info, err := os.Stat(filepath.Join(l.config.BasePath, l.config.FilePath))
	if err != nil || info.Size() < l.config.RotateSize {
		return
	}

	// Shift audit.log.N-1 -> audit.log.N, oldest falls off the end.
	for i := l.config.RotateCount - 1; i >= 1; i-- {
		data, err := l.safePath.ReadFile(fmt.Sprintf("%s.%d", l.config.FilePath, i))
		if err != nil {
			continue
		}
		_ = l.safePath.WriteFile(fmt.Sprintf("%s.%d", l.config.FilePath, i+1), data, 0o644)
	}

	data, err := l.safePath.ReadFile(l.config.FilePath)
	if err != nil {
		return
	}
	if err := l.safePath.WriteFile(l.config.FilePath+".1", data, 0o644); err != nil {
		return
	}
	_ = l.safePath.WriteFile(l.config.FilePath, nil, 0o644)
}

// Query implements AuditLogger.Query. The log is line-delimited JSON;
// lines that fail to parse are skipped rather than failing the query.
func (l *fileAuditLogger) Query(ctx context.Context, filter *AuditFilter) ([]*AuditEvent, error) {
	l.mu.Lock()
	data, err := l.safePath.ReadFile(l.config.FilePath)
	l.mu.Unlock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading audit log: %w", err)
	}

	var events []*AuditEvent
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		var event AuditEvent
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}

		if filter != nil && !matchesFilter(&event, filter) {
			continue
		}

		events = append(events, &event)

		if filter != nil && filter.Limit > 0 && len(events) >= filter.Limit {
			break
		}
	}

	return events, nil
}

func matchesFilter(event *AuditEvent, filter *AuditFilter) bool {
	if !filter.StartTime.IsZero() && event.Timestamp.Before(filter.StartTime) {
		return false
	}
	if !filter.EndTime.IsZero() && event.Timestamp.After(filter.EndTime) {
		return false
	}
	if filter.Tool != "" && event.Tool != filter.Tool {
		return false
	}
	if filter.Type != "" && event.Type != filter.Type {
		return false
	}
	if filter.Status != "" && event.Status != filter.Status {
		return false
	}
	return true
}

// Close implements AuditLogger.Close.
func (l *fileAuditLogger) Close() error {
	return nil
}

func (l *fileAuditLogger) shouldLog(event *AuditEvent) bool {
	switch l.config.LogLevel {
	case AuditLogAll:
		return true
	case AuditLogFailures:
		return event.Status != "success" && !event.DryRun
	case AuditLogDenials:
		return event.Type == AuditEventDenied
	default:
		return true
	}
}

// CreateAuditEvent creates an audit event from an invocation result.
func CreateAuditEvent(cmd *executor.Command, result *executor.Result, execErr error) *AuditEvent {
	event := &AuditEvent{
		ID:        result.CommandID,
		Timestamp: time.Now(),
		Type:      AuditEventExecution,
		Tool:      cmd.Tool,
		Binary:    cmd.Binary,
		Args:      cmd.Args,
		Privilege: result.Privilege.String(),
		Status:    result.Status.String(),
		ExitCode:  result.ExitCode,
		Duration:  result.Duration,
		DryRun:    result.DryRun,
		TraceID:   result.TraceID,
		Metadata:  cmd.Metadata,
	}

	if u, err := user.Current(); err == nil {
		event.User = u.Username
	}

	if cmd.Stdin != nil {
		event.Stdin = StdinRedacted
	}

	if execErr != nil {
		event.Error = execErr.Error()
		event.Type = AuditEventError
	}

	switch result.Status {
	case executor.StatusDenied:
		event.Type = AuditEventDenied
	case executor.StatusRateLimited:
		event.Type = AuditEventRateLimited
	}

	return event
}

// NoopAuditLogger returns a no-op audit logger.
func NoopAuditLogger() AuditLogger {
	return &noopAuditLogger{}
}

type noopAuditLogger struct{}

func (l *noopAuditLogger) Log(ctx context.Context, event *AuditEvent) error { return nil }
func (l *noopAuditLogger) Query(ctx context.Context, filter *AuditFilter) ([]*AuditEvent, error) {
	return nil, nil
}
func (l *noopAuditLogger) Close() error { return nil }
