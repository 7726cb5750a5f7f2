package collector

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// options configures a single Collect call. There is no persistent,
// runtime-reloadable configuration here (spec §9): the friction order and
// parallel-capable kind set are compile-time constants in pkg/factor.
type options struct {
	logger *slog.Logger
	tracer trace.Tracer
}

func defaultOptions() options {
	return options{
		logger: slog.Default(),
		tracer: otel.Tracer("sigcollector/collector"),
	}
}

// Option customizes a Collect call.
type Option func(*options)

// WithLogger overrides the structured logger Collect uses to record
// interactor failures (spec §7) and bucket transitions. A nil logger is
// ignored.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithTracer overrides the tracer Collect uses to start one child span per
// friction-order bucket, nested under whatever span is already active on
// the ctx passed to Collect (pkg/sigobs.Provider.TrackBatch's batch span,
// in the common wiring). A nil tracer is ignored; the default resolves
// through the global otel tracer provider, so it is a real no-op until a
// Provider calls otel.SetTracerProvider.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}
