package collector

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ironvault/sigcollector/pkg/factor"
	"github.com/ironvault/sigcollector/pkg/interactor"
	"github.com/ironvault/sigcollector/pkg/petition"
)

// Collect runs the whole coordinator: it preprocesses the batch into a
// petition registry and friction-ordered kind-buckets, then drives the
// collector loop of spec §4.6 until the batch terminates or ctx is
// cancelled.
//
// A cancelled ctx stops the loop at its next suspension point (the next
// interactor call boundary); the petitions built so far are discarded with
// it, matching spec §5's cancellation model.
func Collect(ctx context.Context, sources []factor.Source, intents []TransactionIntent, interactors interactor.Provider, opts ...Option) (petition.BatchOutcome, error) {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	log := cfg.logger

	registry, buckets, err := Preprocess(sources, intents)
	if err != nil {
		return petition.BatchOutcome{}, err
	}

bucketLoop:
	for _, bucket := range buckets {
		if registry.ContinueStatus() != petition.ContinueStatusContinue {
			break
		}
		if err := ctx.Err(); err != nil {
			return petition.BatchOutcome{}, err
		}

		stop, err := collectBucket(ctx, cfg, registry, bucket, interactors, log)
		if err != nil {
			return petition.BatchOutcome{}, err
		}
		if stop {
			break bucketLoop
		}
	}

	return registry.Finalize(), nil
}

// collectBucket drives one friction-order bucket to completion, wrapped in
// its own child span (spec §4.6 processes buckets strictly in friction
// order, so a trace shows exactly which bucket a batch spent its time
// waiting on). It reports whether the caller should stop processing
// further buckets.
func collectBucket(ctx context.Context, cfg options, registry *petition.Registry, bucket FactorSourcesOfKind, interactors interactor.Provider, log *slog.Logger) (stop bool, err error) {
	ctx, span := cfg.tracer.Start(ctx, "sigcollector.bucket",
		trace.WithAttributes(attribute.String("bucket.kind", bucket.Kind.String())))
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
		span.End()
	}()
	log.Debug("collecting bucket", "kind", bucket.Kind.String(), "sources", len(bucket.Sources))

	capability, err := interactors.InteractorFor(bucket.Kind)
	if err != nil {
		return false, fmt.Errorf("collector: resolving interactor for %s: %w", bucket.Kind, err)
	}

	if capability.IsParallel() {
		if !bucket.Kind.SupportsParallelism() {
			return false, fmt.Errorf("collector: %s %w", bucket.Kind, interactor.ErrInvalidFactorSourceKind)
		}
		ids := bucket.IDs()
		req := registry.BuildParallelRequest(ids)
		resp, perr := capability.Parallel.UseFactors(ctx, req)
		if perr != nil {
			log.Warn("parallel interactor failure treated as skip", "kind", bucket.Kind.String(), "err", perr)
			registry.ApplySkipped(ids)
			return false, nil
		}
		applyResponse(registry, resp, ids, log)
		return false, nil
	}

	for _, src := range bucket.Sources {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		req := registry.BuildSerialRequest(src.ID)
		resp, serr := capability.Serial.UseFactor(ctx, req)
		if serr != nil {
			log.Warn("serial interactor failure treated as skip", "factorSource", src.ID.String(), "err", serr)
			registry.ApplySkipped([]factor.SourceID{src.ID})
		} else {
			applyResponse(registry, resp, []factor.SourceID{src.ID}, log)
		}
		if registry.ContinueStatus() != petition.ContinueStatusContinue {
			return true, nil
		}
	}
	return false, nil
}

// applyResponse interprets a Response as either a Signed or Skipped event
// and applies it to the registry. A response reporting neither is treated
// as a skip of the whole scope it covered — that is the only observable
// failure mode the interactor can produce besides an explicit error (spec
// §4.6).
func applyResponse(registry *petition.Registry, resp interactor.Response, scope []factor.SourceID, log *slog.Logger) {
	switch {
	case resp.Signed != nil:
		registry.ApplySigned(*resp.Signed)
	case resp.Skipped != nil:
		registry.ApplySkipped(resp.Skipped.FactorSourceIDs)
	default:
		log.Warn("interactor response carried neither signatures nor skips; treating as skip", "scope", fmt.Sprint(scope))
		registry.ApplySkipped(scope)
	}
}
