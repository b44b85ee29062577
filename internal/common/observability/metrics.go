package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability holds the OpenTelemetry meter and tracer used by workers and
// the PDF batch.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracing        *tracing
	meter          otelmetric.Meter
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
	renderDuration otelmetric.Float64Histogram
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
}

// New wires a Prometheus-backed meter provider and, when jaegerEndpoint is
// set, a Jaeger span exporter. Setup failures are logged and leave the
// corresponding signal as a no-op.
func New(serviceName, jaegerEndpoint string, log Logger) *Observability {
	o := &Observability{}

	tr, err := newTracing(serviceName, jaegerEndpoint)
	if err != nil {
		log.Warn("Tracing disabled", map[string]interface{}{"error": err.Error()})
	}
	o.tracing = tr

	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("Failed to create Prometheus exporter", map[string]interface{}{"error": err.Error()})
		return o
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	jobCounter, _ := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)

	jobDuration, _ := meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)

	renderDuration, _ := meter.Float64Histogram(
		"pdf.render.duration",
		otelmetric.WithDescription("Guide PDF render duration"),
		otelmetric.WithUnit("ms"),
	)

	o.meterProvider = provider
	o.meter = meter
	o.jobCounter = jobCounter
	o.jobDuration = jobDuration
	o.renderDuration = renderDuration
	return o
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o == nil || o.jobCounter == nil {
		return
	}
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o == nil || o.jobDuration == nil {
		return
	}
	o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordRender(ctx context.Context, slug string, duration time.Duration, ok bool) {
	if o == nil || o.renderDuration == nil {
		return
	}
	o.renderDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("slug", slug),
		attribute.Bool("ok", ok),
	))
}

func (o *Observability) Shutdown() {
	if o == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if o.meterProvider != nil {
		_ = o.meterProvider.Shutdown(ctx)
	}
	if o.tracing != nil {
		_ = o.tracing.shutdown(ctx)
	}
}
