package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability owns the OpenTelemetry meter used for workflow-level timings.
// Its instruments are exported through the default Prometheus registry.
type Observability struct {
	meterProvider    *metric.MeterProvider
	workflowRuns     otelmetric.Int64Counter
	workflowDuration otelmetric.Float64Histogram
}

func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	runs, err := meter.Int64Counter(
		"onboarding.workflow.runs",
		otelmetric.WithDescription("Review workflow executions"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"onboarding.workflow.duration",
		otelmetric.WithDescription("Review workflow duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Observability{
		meterProvider:    provider,
		workflowRuns:     runs,
		workflowDuration: duration,
	}, nil
}

// RecordWorkflow records one execution of operation ("update_status",
// "delete_application") with its outcome.
func (o *Observability) RecordWorkflow(ctx context.Context, operation, outcome string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)
	o.workflowRuns.Add(ctx, 1, attrs)
	o.workflowDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	return o.meterProvider.Shutdown(ctx)
}
