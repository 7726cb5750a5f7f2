package petition_test

import (
	"testing"

	"github.com/ironvault/sigcollector/pkg/factor"
	"github.com/ironvault/sigcollector/pkg/interactor"
	"github.com/ironvault/sigcollector/pkg/petition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildRegistry(t *testing.T, ih factor.IntentHash, entities ...*petition.EntityPetition) *petition.Registry {
	t.Helper()
	r := petition.NewRegistry()
	tp := petition.NewTransactionPetition(ih)
	var referenced []factor.SourceID
	for _, ep := range entities {
		tp.AddEntity(ep)
		referenced = append(referenced, ep.ReferencedFactorSourceIDs()...)
	}
	r.AddTransaction(tp, referenced)
	return r
}

func TestRegistry_BuildParallelRequest_GroupsByFactorSource(t *testing.T) {
	ih, _ := factor.NewIntentHash(make([]byte, 32))
	a := inst(factor.KindDevice, "d1", "m/0")
	ep := petition.NewEntityPetition("acct1", ih, matrix(t, []factor.Instance{a}, 1, nil))
	r := buildRegistry(t, ih, ep)

	req := r.BuildParallelRequest([]factor.SourceID{a.FactorSourceID})
	require.Contains(t, req.PerFactorSource, a.FactorSourceID)
	perSrc := req.PerFactorSource[a.FactorSourceID]
	require.Len(t, perSrc.PerIntent, 1)
	assert.Equal(t, ih, perSrc.PerIntent[0].IntentHash)
	assert.Equal(t, []factor.Owned{{Entity: "acct1", FactorInstance: a}}, perSrc.PerIntent[0].OwnedFactorInstances)
}

func TestRegistry_ApplySigned_RoutesToCorrectEntity(t *testing.T) {
	ih, _ := factor.NewIntentHash(make([]byte, 32))
	a := inst(factor.KindDevice, "d1", "m/0")
	ep := petition.NewEntityPetition("acct1", ih, matrix(t, []factor.Instance{a}, 1, nil))
	r := buildRegistry(t, ih, ep)

	resp := interactor.SignedResponse{
		PerFactorSource: map[factor.SourceID][]factor.HDSignature{
			a.FactorSourceID: {{IntentHash: ih, Owned: factor.Owned{Entity: "acct1", FactorInstance: a}}},
		},
	}
	r.ApplySigned(resp)

	tp, ok := r.Transaction(ih)
	require.True(t, ok)
	assert.True(t, tp.Successful())
}

func TestRegistry_ApplySkipped_FansOutToReferencingTransactions(t *testing.T) {
	ih, _ := factor.NewIntentHash(make([]byte, 32))
	a := inst(factor.KindDevice, "d1", "m/0")
	ep := petition.NewEntityPetition("acct1", ih, matrix(t, []factor.Instance{a}, 1, nil))
	r := buildRegistry(t, ih, ep)

	r.ApplySkipped([]factor.SourceID{a.FactorSourceID})

	tp, _ := r.Transaction(ih)
	assert.Equal(t, petition.ContinueStatusFail, tp.ContinueStatus())
}

func TestRegistry_Neglectable(t *testing.T) {
	ih, _ := factor.NewIntentHash(make([]byte, 32))
	a := inst(factor.KindDevice, "d1", "m/0")
	b := inst(factor.KindArculus, "b1", "m/1")
	ep := petition.NewEntityPetition("acct1", ih, matrix(t, []factor.Instance{a, b}, 1, nil))
	r := buildRegistry(t, ih, ep)

	assert.True(t, r.Neglectable(a.FactorSourceID), "one of two threshold-1 factors can be skipped without risk")
}

func TestRegistry_ContinueStatus_Aggregation(t *testing.T) {
	ihA, _ := factor.NewIntentHash(append(make([]byte, 31), 1))
	ihB, _ := factor.NewIntentHash(append(make([]byte, 31), 2))
	a := inst(factor.KindDevice, "d1", "m/0")
	b := inst(factor.KindDevice, "d2", "m/1")

	r := petition.NewRegistry()
	tpA := petition.NewTransactionPetition(ihA)
	epA := petition.NewEntityPetition("acct1", ihA, matrix(t, []factor.Instance{a}, 1, nil))
	tpA.AddEntity(epA)
	r.AddTransaction(tpA, epA.ReferencedFactorSourceIDs())

	tpB := petition.NewTransactionPetition(ihB)
	epB := petition.NewEntityPetition("acct2", ihB, matrix(t, []factor.Instance{b}, 1, nil))
	tpB.AddEntity(epB)
	r.AddTransaction(tpB, epB.ReferencedFactorSourceIDs())

	assert.Equal(t, petition.ContinueStatusContinue, r.ContinueStatus())

	r.ApplySkipped([]factor.SourceID{a.FactorSourceID})
	assert.Equal(t, petition.ContinueStatusContinue, r.ContinueStatus(), "transaction B still in progress")

	r.ApplySigned(interactor.SignedResponse{PerFactorSource: map[factor.SourceID][]factor.HDSignature{
		b.FactorSourceID: {{IntentHash: ihB, Owned: factor.Owned{Entity: "acct2", FactorInstance: b}}},
	}})
	assert.Equal(t, petition.ContinueStatusFail, r.ContinueStatus(), "A failed, B succeeded: no longer continue")
}

func TestRegistry_Finalize_NoIntentOnBothSides(t *testing.T) {
	ihA, _ := factor.NewIntentHash(append(make([]byte, 31), 1))
	ihB, _ := factor.NewIntentHash(append(make([]byte, 31), 2))
	a := inst(factor.KindDevice, "d1", "m/0")
	b := inst(factor.KindDevice, "d2", "m/1")

	r := petition.NewRegistry()
	tpA := petition.NewTransactionPetition(ihA)
	epA := petition.NewEntityPetition("acct1", ihA, matrix(t, []factor.Instance{a}, 1, nil))
	tpA.AddEntity(epA)
	r.AddTransaction(tpA, epA.ReferencedFactorSourceIDs())

	tpB := petition.NewTransactionPetition(ihB)
	epB := petition.NewEntityPetition("acct2", ihB, matrix(t, []factor.Instance{b}, 1, nil))
	tpB.AddEntity(epB)
	r.AddTransaction(tpB, epB.ReferencedFactorSourceIDs())

	r.ApplySkipped([]factor.SourceID{a.FactorSourceID})
	r.ApplySigned(interactor.SignedResponse{PerFactorSource: map[factor.SourceID][]factor.HDSignature{
		b.FactorSourceID: {{IntentHash: ihB, Owned: factor.Owned{Entity: "acct2", FactorInstance: b}}},
	}})

	outcome := r.Finalize()
	_, inSuccess := outcome.Successful[ihA]
	_, inFail := outcome.Failed[ihA]
	assert.False(t, inSuccess)
	assert.True(t, inFail)

	_, inSuccessB := outcome.Successful[ihB]
	_, inFailB := outcome.Failed[ihB]
	assert.True(t, inSuccessB)
	assert.False(t, inFailB)

	assert.Equal(t, []factor.SourceID{a.FactorSourceID}, outcome.SkippedFactorSources)
}
