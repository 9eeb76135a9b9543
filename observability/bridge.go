package observability

import (
	"context"

	"github.com/victoralfred/hostadm/executor"
)

// NewAuditSink adapts an AuditLogger to the executor's audit
// interface. Log failures are reported through onError when set and
// dropped otherwise; auditing never blocks an invocation outcome.
func NewAuditSink(logger AuditLogger, onError func(error)) executor.AuditSink {
	return &auditSink{logger: logger, onError: onError}
}

type auditSink struct {
	logger  AuditLogger
	onError func(error)
}

func (s *auditSink) Record(ctx context.Context, cmd *executor.Command, result *executor.Result, execErr error) {
	event := CreateAuditEvent(cmd, result, execErr)
	if err := s.logger.Log(ctx, event); err != nil && s.onError != nil {
		s.onError(err)
	}
}

// ExecutorTelemetry adapts a Telemetry to the executor's narrower
// observer interface.
func ExecutorTelemetry(t Telemetry) executor.Telemetry {
	return &executorTelemetry{t: t}
}

type executorTelemetry struct {
	t Telemetry
}

func (e *executorTelemetry) StartSpan(ctx context.Context, name string) (context.Context, func()) {
	return e.t.StartSpan(ctx, name)
}

func (e *executorTelemetry) RecordMetric(name string, value float64, labels map[string]string) {
	e.t.RecordMetric(name, value, labels)
}

// MetricsHook records every invocation into an in-process Metrics
// collector, denials and dry runs included.
type MetricsHook struct {
	Metrics *Metrics
}

// PreExecute implements executor.Hook.
func (h *MetricsHook) PreExecute(ctx context.Context, cmd *executor.Command) (*executor.Command, error) {
	return cmd, nil
}

// PostExecute implements executor.Hook.
func (h *MetricsHook) PostExecute(ctx context.Context, cmd *executor.Command, result *executor.Result, err error) error {
	if h.Metrics != nil && result != nil {
		h.Metrics.RecordExecution(cmd, result, err)
	}
	return nil
}
