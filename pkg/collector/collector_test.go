package collector_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ironvault/sigcollector/pkg/collector"
	"github.com/ironvault/sigcollector/pkg/factor"
	"github.com/ironvault/sigcollector/pkg/interactor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeParallel signs every factor source requested of it, unconditionally.
type fakeParallel struct{}

func (fakeParallel) UseFactors(ctx context.Context, req interactor.ParallelRequest) (interactor.Response, error) {
	sigs := make(map[factor.SourceID][]factor.HDSignature)
	for id, perSrc := range req.PerFactorSource {
		for _, pi := range perSrc.PerIntent {
			for _, owned := range pi.OwnedFactorInstances {
				sigs[id] = append(sigs[id], factor.HDSignature{IntentHash: pi.IntentHash, Owned: owned})
			}
		}
	}
	return interactor.Response{Signed: &interactor.SignedResponse{PerFactorSource: sigs}}, nil
}

// fakeSerialSignAll signs whatever single factor source it's asked about.
type fakeSerialSignAll struct{}

func (fakeSerialSignAll) UseFactor(ctx context.Context, req interactor.SerialRequest) (interactor.Response, error) {
	var sigs []factor.HDSignature
	for _, pi := range req.Request.PerIntent {
		for _, owned := range pi.OwnedFactorInstances {
			sigs = append(sigs, factor.HDSignature{IntentHash: pi.IntentHash, Owned: owned})
		}
	}
	return interactor.Response{Signed: &interactor.SignedResponse{PerFactorSource: map[factor.SourceID][]factor.HDSignature{
		req.Request.FactorSourceID: sigs,
	}}}, nil
}

// fakeSerialSkipAll always reports its factor source skipped.
type fakeSerialSkipAll struct{}

func (fakeSerialSkipAll) UseFactor(ctx context.Context, req interactor.SerialRequest) (interactor.Response, error) {
	return interactor.Response{Skipped: &interactor.SkippedResponse{FactorSourceIDs: []factor.SourceID{req.Request.FactorSourceID}}}, nil
}

// fakeSerialErrors always returns an error, exercising the implicit-skip path.
type fakeSerialErrors struct{}

func (fakeSerialErrors) UseFactor(ctx context.Context, req interactor.SerialRequest) (interactor.Response, error) {
	return interactor.Response{}, errors.New("hardware not connected")
}

type fakeProvider map[factor.Kind]interactor.Capability

func (p fakeProvider) InteractorFor(kind factor.Kind) (interactor.Capability, error) {
	c, ok := p[kind]
	if !ok {
		return interactor.Capability{}, errors.New("no interactor configured for kind")
	}
	return c, nil
}

func oneDeviceIntent(addr factor.Address) (factor.IntentHash, collector.TransactionIntent, factor.Instance) {
	d := testInst(factor.KindDevice, "d1", "m/0")
	ih, _ := factor.NewIntentHash(make([]byte, 32))
	return ih, collector.TransactionIntent{IntentHash: ih, SignerEntities: []factor.Entity{unsecuredEntity(addr, d)}}, d
}

// S1: a single unsecurified entity backed by a parallel-capable device
// factor signs successfully.
func TestCollect_S1_SingleDeviceFactorSucceeds(t *testing.T) {
	ih, intent, d := oneDeviceIntent("acct1")
	sources := []factor.Source{{ID: d.FactorSourceID, LastUsedAt: time.Now()}}
	providers := fakeProvider{factor.KindDevice: {Parallel: fakeParallel{}}}

	outcome, err := collector.Collect(context.Background(), sources, []collector.TransactionIntent{intent}, providers)
	require.NoError(t, err)
	assert.Contains(t, outcome.Successful, ih)
	assert.Empty(t, outcome.Failed)
}

// S2: a serial-only kind (Ledger) signs one factor at a time.
func TestCollect_S2_SerialLedgerSucceeds(t *testing.T) {
	l := testInst(factor.KindLedger, "l1", "m/0")
	ih, _ := factor.NewIntentHash(make([]byte, 32))
	intent := collector.TransactionIntent{IntentHash: ih, SignerEntities: []factor.Entity{unsecuredEntity("acct1", l)}}
	sources := []factor.Source{{ID: l.FactorSourceID, LastUsedAt: time.Now()}}
	providers := fakeProvider{factor.KindLedger: {Serial: fakeSerialSignAll{}}}

	outcome, err := collector.Collect(context.Background(), sources, []collector.TransactionIntent{intent}, providers)
	require.NoError(t, err)
	assert.Contains(t, outcome.Successful, ih)
}

// S3: skipping the sole factor source fails the transaction and records the
// skip in the batch outcome.
func TestCollect_S3_SkipFailsTransaction(t *testing.T) {
	ih, intent, d := oneDeviceIntent("acct1")
	sources := []factor.Source{{ID: d.FactorSourceID, LastUsedAt: time.Now()}}
	providers := fakeProvider{factor.KindDevice: {Parallel: skipAllParallel{}}}

	outcome, err := collector.Collect(context.Background(), sources, []collector.TransactionIntent{intent}, providers)
	require.NoError(t, err)
	assert.Contains(t, outcome.Failed, ih)
	assert.Equal(t, []factor.SourceID{d.FactorSourceID}, outcome.SkippedFactorSources)
}

// S4: two independent transactions backed by different factor kinds, one
// succeeds and one fails; the batch reports both outcomes rather than
// aborting early (spec Open Question 2).
func TestCollect_S4_IndependentTransactionsReportBoth(t *testing.T) {
	dOK := testInst(factor.KindDevice, "d-ok", "m/0")
	lFail := testInst(factor.KindLedger, "l-fail", "m/0")
	ihOK, _ := factor.NewIntentHash(append(make([]byte, 31), 1))
	ihFail, _ := factor.NewIntentHash(append(make([]byte, 31), 2))

	intents := []collector.TransactionIntent{
		{IntentHash: ihOK, SignerEntities: []factor.Entity{unsecuredEntity("acct1", dOK)}},
		{IntentHash: ihFail, SignerEntities: []factor.Entity{unsecuredEntity("acct2", lFail)}},
	}
	sources := []factor.Source{
		{ID: dOK.FactorSourceID, LastUsedAt: time.Now()},
		{ID: lFail.FactorSourceID, LastUsedAt: time.Now()},
	}
	providers := fakeProvider{
		factor.KindDevice: {Parallel: fakeParallel{}},
		factor.KindLedger: {Serial: fakeSerialSkipAll{}},
	}

	outcome, err := collector.Collect(context.Background(), sources, intents, providers)
	require.NoError(t, err)
	assert.Contains(t, outcome.Successful, ihOK)
	assert.Contains(t, outcome.Failed, ihFail)
}

// S5: a context cancelled before the loop starts halts collection immediately.
func TestCollect_S5_CancelledContextStopsCollection(t *testing.T) {
	_, intent, d := oneDeviceIntent("acct1")
	sources := []factor.Source{{ID: d.FactorSourceID, LastUsedAt: time.Now()}}
	providers := fakeProvider{factor.KindDevice: {Parallel: fakeParallel{}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := collector.Collect(ctx, sources, []collector.TransactionIntent{intent}, providers)
	require.Error(t, err)
}

// S6: an interactor call failure is treated as an implicit skip, not a fatal
// error of the batch.
func TestCollect_S6_InteractorErrorTreatedAsSkip(t *testing.T) {
	l := testInst(factor.KindLedger, "l1", "m/0")
	ih, _ := factor.NewIntentHash(make([]byte, 32))
	intent := collector.TransactionIntent{IntentHash: ih, SignerEntities: []factor.Entity{unsecuredEntity("acct1", l)}}
	sources := []factor.Source{{ID: l.FactorSourceID, LastUsedAt: time.Now()}}
	providers := fakeProvider{factor.KindLedger: {Serial: fakeSerialErrors{}}}

	outcome, err := collector.Collect(context.Background(), sources, []collector.TransactionIntent{intent}, providers)
	require.NoError(t, err)
	assert.Contains(t, outcome.Failed, ih)
	assert.Contains(t, outcome.SkippedFactorSources, l.FactorSourceID)
}

func TestCollect_ParallelBucketRejectsKindWithoutParallelSupport(t *testing.T) {
	l := testInst(factor.KindLedger, "l1", "m/0")
	ih, _ := factor.NewIntentHash(make([]byte, 32))
	intent := collector.TransactionIntent{IntentHash: ih, SignerEntities: []factor.Entity{unsecuredEntity("acct1", l)}}
	sources := []factor.Source{{ID: l.FactorSourceID, LastUsedAt: time.Now()}}
	providers := fakeProvider{factor.KindLedger: {Parallel: fakeParallel{}}}

	_, err := collector.Collect(context.Background(), sources, []collector.TransactionIntent{intent}, providers)
	require.ErrorIs(t, err, interactor.ErrInvalidFactorSourceKind)
}

// skipAllParallel reports every requested factor source as skipped.
type skipAllParallel struct{}

func (skipAllParallel) UseFactors(ctx context.Context, req interactor.ParallelRequest) (interactor.Response, error) {
	var ids []factor.SourceID
	for id := range req.PerFactorSource {
		ids = append(ids, id)
	}
	return interactor.Response{Skipped: &interactor.SkippedResponse{FactorSourceIDs: ids}}, nil
}
