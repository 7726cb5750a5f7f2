package collector_test

import (
	"testing"
	"time"

	"github.com/ironvault/sigcollector/pkg/collector"
	"github.com/ironvault/sigcollector/pkg/factor"
	"github.com/ironvault/sigcollector/pkg/petition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInst(kind factor.Kind, id, path string) factor.Instance {
	return factor.Instance{FactorSourceID: factor.NewSourceID(kind, id), Path: factor.DerivationPath(path)}
}

func unsecuredEntity(addr factor.Address, i factor.Instance) factor.Entity {
	return factor.Entity{Address: addr, SecurityState: factor.UnsecuredState(i)}
}

func TestPreprocess_GroupsBucketsInFrictionOrder(t *testing.T) {
	now := time.Now()
	device := testInst(factor.KindDevice, "d1", "m/0")
	ledger := testInst(factor.KindLedger, "l1", "m/1")

	sources := []factor.Source{
		{ID: device.FactorSourceID, LastUsedAt: now},
		{ID: ledger.FactorSourceID, LastUsedAt: now},
	}
	ih, _ := factor.NewIntentHash(make([]byte, 32))
	intents := []collector.TransactionIntent{
		{IntentHash: ih, SignerEntities: []factor.Entity{unsecuredEntity("acct1", device), unsecuredEntity("acct2", ledger)}},
	}

	_, buckets, err := collector.Preprocess(sources, intents)
	require.NoError(t, err)
	require.Len(t, buckets, 2)
	assert.Equal(t, factor.KindLedger, buckets[0].Kind, "ledger has lower friction rank than device")
	assert.Equal(t, factor.KindDevice, buckets[1].Kind)
}

func TestPreprocess_UnknownFactorSourceIsError(t *testing.T) {
	device := testInst(factor.KindDevice, "d1", "m/0")
	ih, _ := factor.NewIntentHash(make([]byte, 32))
	intents := []collector.TransactionIntent{
		{IntentHash: ih, SignerEntities: []factor.Entity{unsecuredEntity("acct1", device)}},
	}

	_, _, err := collector.Preprocess(nil, intents)
	require.ErrorIs(t, err, petition.ErrUnknownFactorSource)
}

func TestPreprocess_OnlyReferencedSourcesAreBucketed(t *testing.T) {
	now := time.Now()
	used := testInst(factor.KindLedger, "used", "m/0")
	unused := factor.NewSourceID(factor.KindArculus, "unused")

	sources := []factor.Source{
		{ID: used.FactorSourceID, LastUsedAt: now},
		{ID: unused, LastUsedAt: now},
	}
	ih, _ := factor.NewIntentHash(make([]byte, 32))
	intents := []collector.TransactionIntent{
		{IntentHash: ih, SignerEntities: []factor.Entity{unsecuredEntity("acct1", used)}},
	}

	_, buckets, err := collector.Preprocess(sources, intents)
	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, factor.KindLedger, buckets[0].Kind)
}
