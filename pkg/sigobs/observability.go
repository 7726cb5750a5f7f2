// Package sigobs instruments a collection run with OpenTelemetry tracing
// and RED (Rate, Errors, Duration) metrics: Provider.TrackBatch starts one
// span and records one set of counters for the whole batch. The context it
// returns carries that span, so pkg/collector's bucket loop (which starts
// its own per-kind-bucket child span via its WithTracer option) nests under it
// automatically — a trace shows exactly which friction-order bucket a batch
// spent its time waiting on, without sigobs itself knowing about buckets.
package sigobs

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Config configures the observability Provider.
type Config struct {
	ServiceName  string
	OTLPEndpoint string
	Insecure     bool
	Enabled      bool
}

// DefaultConfig returns sane local-development defaults.
func DefaultConfig() Config {
	return Config{
		ServiceName:  "sigcollector",
		OTLPEndpoint: "localhost:4317",
		Insecure:     true,
		Enabled:      false,
	}
}

// Provider exports traces and RED metrics for collection runs.
type Provider struct {
	cfg            Config
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	tracer         trace.Tracer
	meter          metric.Meter

	batchCounter   metric.Int64Counter
	failureCounter metric.Int64Counter
	durationHist   metric.Float64Histogram
}

// New builds a Provider. When cfg.Enabled is false, every method is a no-op
// so instrumenting a call site never requires a nil check at the caller.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	p := &Provider{cfg: cfg}
	if !cfg.Enabled {
		return p, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(cfg.ServiceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("sigobs: building resource: %w", err)
	}

	if err := p.initTracer(ctx, res); err != nil {
		return nil, err
	}
	if err := p.initMeter(ctx, res); err != nil {
		return nil, err
	}

	p.tracer = otel.Tracer("sigcollector")
	p.meter = otel.Meter("sigcollector")
	return p, p.initMetrics()
}

func (p *Provider) initTracer(ctx context.Context, res *resource.Resource) error {
	var opts []otlptracegrpc.Option
	opts = append(opts, otlptracegrpc.WithEndpoint(p.cfg.OTLPEndpoint))
	if p.cfg.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("sigobs: creating trace exporter: %w", err)
	}
	p.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(p.tracerProvider)
	return nil
}

func (p *Provider) initMeter(ctx context.Context, res *resource.Resource) error {
	var opts []otlpmetricgrpc.Option
	opts = append(opts, otlpmetricgrpc.WithEndpoint(p.cfg.OTLPEndpoint))
	if p.cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("sigobs: creating metric exporter: %w", err)
	}
	p.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))),
	)
	otel.SetMeterProvider(p.meterProvider)
	return nil
}

func (p *Provider) initMetrics() error {
	var err error
	p.batchCounter, err = p.meter.Int64Counter("sigcollector.batches.total",
		metric.WithDescription("Total collection batches run"), metric.WithUnit("{batch}"))
	if err != nil {
		return fmt.Errorf("sigobs: batch counter: %w", err)
	}
	p.failureCounter, err = p.meter.Int64Counter("sigcollector.batches.failed",
		metric.WithDescription("Batches that errored before producing an outcome"), metric.WithUnit("{batch}"))
	if err != nil {
		return fmt.Errorf("sigobs: failure counter: %w", err)
	}
	p.durationHist, err = p.meter.Float64Histogram("sigcollector.batch.duration",
		metric.WithDescription("Batch collection duration"), metric.WithUnit("s"))
	if err != nil {
		return fmt.Errorf("sigobs: duration histogram: %w", err)
	}
	return nil
}

// TrackBatch starts a span for one Collect call and returns a function to
// call with the resulting error (nil on success) when it finishes.
func (p *Provider) TrackBatch(ctx context.Context, batchID string) (context.Context, func(error)) {
	if !p.cfg.Enabled {
		return ctx, func(error) {}
	}

	start := time.Now()
	attrs := []attribute.KeyValue{attribute.String("batch.id", batchID)}
	ctx, span := p.tracer.Start(ctx, "sigcollector.collect", trace.WithAttributes(attrs...))
	p.batchCounter.Add(ctx, 1, metric.WithAttributes(attrs...))

	return ctx, func(err error) {
		p.durationHist.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attrs...))
		if err != nil {
			span.RecordError(err)
			p.failureCounter.Add(ctx, 1, metric.WithAttributes(attrs...))
		}
		span.End()
	}
}

// Shutdown flushes and closes the exporters.
func (p *Provider) Shutdown(ctx context.Context) error {
	if !p.cfg.Enabled {
		return nil
	}
	if err := p.tracerProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("sigobs: shutting down tracer provider: %w", err)
	}
	if err := p.meterProvider.Shutdown(ctx); err != nil {
		return fmt.Errorf("sigobs: shutting down meter provider: %w", err)
	}
	return nil
}
