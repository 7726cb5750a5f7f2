// Command sigcollector runs a single demo signature-collection batch
// end-to-end: it wires the core collector up to the ambient stack (rate
// limiting, audit persistence, compliance flags, tracing) and a simulated
// interactor standing in for a real hardware wallet or companion app, then
// prints the resulting batch outcome.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ironvault/sigcollector/pkg/collector"
	"github.com/ironvault/sigcollector/pkg/factor"
	"github.com/ironvault/sigcollector/pkg/siginteractortest"
	"github.com/ironvault/sigcollector/pkg/sigaudit"
	"github.com/ironvault/sigcollector/pkg/sigcompliance"
	"github.com/ironvault/sigcollector/pkg/sigconfig"
	"github.com/ironvault/sigcollector/pkg/sigobs"
	"github.com/ironvault/sigcollector/pkg/sigrate"
)

func main() {
	lazy := flag.Bool("lazy", false, "simulate a lazy user who skips everything skippable")
	batchIDFlag := flag.String("batch", "", "batch id to record this run under (default: a generated uuid)")
	flag.Parse()

	batchID := *batchIDFlag
	if batchID == "" {
		batchID = uuid.NewString()
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := sigconfig.Load()
	log.Info("loaded config", "log_level", cfg.LogLevel, "sqlite_dsn", cfg.SQLiteDSN)

	ctx := context.Background()

	obsProvider, err := sigobs.New(ctx, sigobs.DefaultConfig())
	if err != nil {
		log.Error("starting observability provider", "err", err)
		os.Exit(1)
	}
	defer func() { _ = obsProvider.Shutdown(ctx) }()

	db, err := sql.Open("sqlite", cfg.SQLiteDSN)
	if err != nil {
		log.Error("opening sqlite db", "err", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	store, err := sigaudit.NewSQLiteStore(db)
	if err != nil {
		log.Error("opening audit store", "err", err)
		os.Exit(1)
	}

	complianceEngine, err := sigcompliance.NewEngine()
	if err != nil {
		log.Error("starting compliance engine", "err", err)
		os.Exit(1)
	}
	rules := []sigcompliance.Rule{
		{Name: "had_skips", Expression: "skipped_count > 0"},
		{Name: "clean_batch", Expression: "fail_count == 0 && skipped_count == 0"},
	}

	limiter := sigrate.NewLocalLimiter(5, 2)

	sources, intent, deviceInstance := demoBatch()
	log.Info("running demo batch", "lazy", *lazy, "device", deviceInstance.FactorSourceID.String())

	for _, kind := range factor.FrictionOrder() {
		if err := limiter.Wait(ctx, kind); err != nil {
			log.Error("rate limiter wait", "kind", kind.String(), "err", err)
			os.Exit(1)
		}
	}

	user := siginteractortest.Prudent()
	if *lazy {
		user = siginteractortest.Lazy(siginteractortest.SignMinimum)
	}
	provider := siginteractortest.NewProvider(user)

	collectCtx, done := obsProvider.TrackBatch(ctx, batchID)
	outcome, err := collector.Collect(collectCtx, sources, []collector.TransactionIntent{intent}, provider, collector.WithLogger(log))
	done(err)
	if err != nil {
		log.Error("collection failed", "err", err)
		os.Exit(1)
	}

	rec := sigaudit.NewBatchRecord(batchID, outcome, time.Now().UTC())
	if err := store.Put(ctx, rec); err != nil {
		log.Error("persisting batch record", "err", err)
		os.Exit(1)
	}

	flags, err := complianceEngine.Evaluate(rules, outcome)
	if err != nil {
		log.Error("evaluating compliance rules", "err", err)
		os.Exit(1)
	}

	fmt.Printf("batch %s: %d succeeded, %d failed, %d factor sources skipped\n",
		batchID, len(outcome.Successful), len(outcome.Failed), len(outcome.SkippedFactorSources))
	for _, f := range flags {
		fmt.Printf("  compliance: %s = %v\n", f.Rule, f.Matched)
	}
}

// demoBatch builds a single transaction signed by one device factor
// instance, for a quick end-to-end run with no external configuration.
func demoBatch() ([]factor.Source, collector.TransactionIntent, factor.Instance) {
	sourceID := factor.NewSourceID(factor.KindDevice, "demo-device")
	instance := factor.Instance{FactorSourceID: sourceID, Path: "m/44'/1022'/0'/0/0"}

	sources := []factor.Source{{ID: sourceID, LastUsedAt: time.Now().Add(-time.Hour)}}

	ih, err := factor.NewIntentHash(make([]byte, 32))
	if err != nil {
		panic(err)
	}

	entity := factor.Entity{
		Address:       "account_demo",
		SecurityState: factor.UnsecuredState(instance),
	}

	intent := collector.TransactionIntent{
		IntentHash:     ih,
		SignerEntities: []factor.Entity{entity},
	}
	return sources, intent, instance
}
