// Package observability provides OpenTelemetry integration, audit
// logging, and in-process counters for tool invocations.
package observability

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry provides observability features.
type Telemetry interface {
	// StartSpan starts a new trace span.
	StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, func())

	// RecordMetric records a metric value.
	RecordMetric(name string, value float64, labels map[string]string)

	// RecordDuration records a duration metric.
	RecordDuration(name string, duration float64, labels map[string]string)

	// RecordCounter increments a counter.
	RecordCounter(name string, labels map[string]string)

	// SetGauge sets a gauge value.
	SetGauge(name string, value float64, labels map[string]string)
}

// SpanOption configures span creation.
type SpanOption func(*spanConfig)

type spanConfig struct {
	attributes []attribute.KeyValue
	kind       trace.SpanKind
}

// WithAttribute adds an attribute to the span.
func WithAttribute(key string, value interface{}) SpanOption {
	return func(c *spanConfig) {
		switch v := value.(type) {
		case string:
			c.attributes = append(c.attributes, attribute.String(key, v))
		case int:
			c.attributes = append(c.attributes, attribute.Int(key, v))
		case int64:
			c.attributes = append(c.attributes, attribute.Int64(key, v))
		case float64:
			c.attributes = append(c.attributes, attribute.Float64(key, v))
		case bool:
			c.attributes = append(c.attributes, attribute.Bool(key, v))
		}
	}
}

// WithSpanKind sets the span kind.
func WithSpanKind(kind trace.SpanKind) SpanOption {
	return func(c *spanConfig) {
		c.kind = kind
	}
}

// TelemetryConfig configures telemetry.
type TelemetryConfig struct {
	// ServiceName is the service name for tracing.
	ServiceName string

	// ServiceVersion is the service version.
	ServiceVersion string

	// Environment is the deployment environment.
	Environment string

	// EnableTracing enables distributed tracing.
	EnableTracing bool

	// EnableMetrics enables metrics collection.
	EnableMetrics bool

	// MetricsPrefix is the prefix for all metrics.
	MetricsPrefix string
}

// DefaultTelemetryConfig returns default configuration.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		ServiceName:    "hostadm",
		ServiceVersion: "1.0.0",
		Environment:    "production",
		EnableTracing:  true,
		EnableMetrics:  true,
		MetricsPrefix:  "hostadm_",
	}
}

// telemetry implements Telemetry.
type telemetry struct {
	config TelemetryConfig
	tracer trace.Tracer
	meter  metric.Meter

	// Metrics
	invocationCounter  metric.Int64Counter
	invocationDuration metric.Float64Histogram
	activeInvocations  metric.Int64UpDownCounter
	failureCounter     metric.Int64Counter
	denialCounter      metric.Int64Counter
}

// NewTelemetry creates a new telemetry instance.
func NewTelemetry(config TelemetryConfig) (Telemetry, error) {
	t := &telemetry{
		config: config,
		tracer: otel.Tracer(config.ServiceName),
		meter:  otel.Meter(config.ServiceName),
	}

	// Initialize metrics
	var err error

	t.invocationCounter, err = t.meter.Int64Counter(
		config.MetricsPrefix+"invocations_total",
		metric.WithDescription("Total number of tool invocations"),
	)
	if err != nil {
		return nil, err
	}

	t.invocationDuration, err = t.meter.Float64Histogram(
		config.MetricsPrefix+"invocation_duration_seconds",
		metric.WithDescription("Duration of tool invocations"),
	)
	if err != nil {
		return nil, err
	}

	t.activeInvocations, err = t.meter.Int64UpDownCounter(
		config.MetricsPrefix+"active_invocations",
		metric.WithDescription("Number of currently active invocations"),
	)
	if err != nil {
		return nil, err
	}

	t.failureCounter, err = t.meter.Int64Counter(
		config.MetricsPrefix+"failures_total",
		metric.WithDescription("Total number of failed invocations"),
	)
	if err != nil {
		return nil, err
	}

	t.denialCounter, err = t.meter.Int64Counter(
		config.MetricsPrefix+"denials_total",
		metric.WithDescription("Total number of invocations denied for lack of privilege"),
	)
	if err != nil {
		return nil, err
	}

	return t, nil
}

// StartSpan implements Telemetry.StartSpan.
func (t *telemetry) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, func()) {
	if !t.config.EnableTracing {
		return ctx, func() {}
	}

	cfg := &spanConfig{
		kind: trace.SpanKindInternal,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	ctx, span := t.tracer.Start(ctx, name,
		trace.WithAttributes(cfg.attributes...),
		trace.WithSpanKind(cfg.kind),
	)

	return ctx, func() {
		span.End()
	}
}

// RecordMetric implements Telemetry.RecordMetric.
//
// Runtime metric names carry an explicit unit suffix; the histogram
// bucket unit is seconds.
func (t *telemetry) RecordMetric(name string, value float64, labels map[string]string) {
	if !t.config.EnableMetrics {
		return
	}

	if strings.HasSuffix(name, "_ms") {
		value /= 1000
	}

	attrs := labelsToAttributes(labels)
	t.invocationDuration.Record(context.Background(), value, metric.WithAttributes(attrs...))
}

// RecordDuration implements Telemetry.RecordDuration.
func (t *telemetry) RecordDuration(name string, duration float64, labels map[string]string) {
	if !t.config.EnableMetrics {
		return
	}

	attrs := labelsToAttributes(labels)
	t.invocationDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordCounter implements Telemetry.RecordCounter.
func (t *telemetry) RecordCounter(name string, labels map[string]string) {
	if !t.config.EnableMetrics {
		return
	}

	attrs := labelsToAttributes(labels)
	opt := metric.WithAttributes(attrs...)

	switch {
	case strings.HasSuffix(name, "failures_total"):
		t.failureCounter.Add(context.Background(), 1, opt)
	case strings.HasSuffix(name, "denials_total"):
		t.denialCounter.Add(context.Background(), 1, opt)
	default:
		t.invocationCounter.Add(context.Background(), 1, opt)
	}
}

// SetGauge implements Telemetry.SetGauge.
func (t *telemetry) SetGauge(name string, value float64, labels map[string]string) {
	if !t.config.EnableMetrics {
		return
	}

	attrs := labelsToAttributes(labels)
	t.activeInvocations.Add(context.Background(), int64(value), metric.WithAttributes(attrs...))
}

// labelsToAttributes converts labels to OTEL attributes.
func labelsToAttributes(labels map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}
	return attrs
}

// NoopTelemetry returns a no-op telemetry implementation.
func NoopTelemetry() Telemetry {
	return &noopTelemetry{}
}

type noopTelemetry struct{}

func (t *noopTelemetry) StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, func()) {
	return ctx, func() {}
}

func (t *noopTelemetry) RecordMetric(name string, value float64, labels map[string]string)      {}
func (t *noopTelemetry) RecordDuration(name string, duration float64, labels map[string]string) {}
func (t *noopTelemetry) RecordCounter(name string, labels map[string]string)                    {}
func (t *noopTelemetry) SetGauge(name string, value float64, labels map[string]string)          {}
