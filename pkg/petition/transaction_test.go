package petition_test

import (
	"testing"

	"github.com/ironvault/sigcollector/pkg/factor"
	"github.com/ironvault/sigcollector/pkg/petition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionPetition_ContinueStatus_DoneWhenAllSucceed(t *testing.T) {
	ih := factor.IntentHash{}
	aInst := inst(factor.KindLedger, "a", "m/0")
	bInst := inst(factor.KindLedger, "b", "m/1")
	tp := petition.NewTransactionPetition(ih)
	tp.AddEntity(petition.NewEntityPetition("acct1", ih, matrix(t, []factor.Instance{aInst}, 1, nil)))
	tp.AddEntity(petition.NewEntityPetition("acct2", ih, matrix(t, []factor.Instance{bInst}, 1, nil)))

	assert.Equal(t, petition.ContinueStatusContinue, tp.ContinueStatus())

	require.NoError(t, tp.RecordSignature(sig(factor.Owned{Entity: "acct1", FactorInstance: aInst})))
	require.NoError(t, tp.RecordSignature(sig(factor.Owned{Entity: "acct2", FactorInstance: bInst})))

	assert.Equal(t, petition.ContinueStatusDone, tp.ContinueStatus())
	assert.True(t, tp.Successful())
}

func TestTransactionPetition_ContinueStatus_FailWhenOneFails(t *testing.T) {
	ih := factor.IntentHash{}
	aInst := inst(factor.KindLedger, "a", "m/0")
	bInst := inst(factor.KindLedger, "b", "m/1")
	tp := petition.NewTransactionPetition(ih)
	tp.AddEntity(petition.NewEntityPetition("acct1", ih, matrix(t, []factor.Instance{aInst}, 1, nil)))
	tp.AddEntity(petition.NewEntityPetition("acct2", ih, matrix(t, []factor.Instance{bInst}, 1, nil)))

	tp.RecordSkip(aInst.FactorSourceID)

	assert.Equal(t, petition.ContinueStatusFail, tp.ContinueStatus())
	assert.False(t, tp.Successful())
}

func TestTransactionPetition_RecordSignature_UnknownEntity(t *testing.T) {
	ih := factor.IntentHash{}
	aInst := inst(factor.KindLedger, "a", "m/0")
	tp := petition.NewTransactionPetition(ih)
	tp.AddEntity(petition.NewEntityPetition("acct1", ih, matrix(t, []factor.Instance{aInst}, 1, nil)))

	err := tp.RecordSignature(sig(factor.Owned{Entity: "nope", FactorInstance: aInst}))
	require.ErrorIs(t, err, petition.ErrUnknownEntity)
}

func TestTransactionPetition_SignaturesSurviveFailure(t *testing.T) {
	ih := factor.IntentHash{}
	aInst := inst(factor.KindLedger, "a", "m/0")
	bInst := inst(factor.KindLedger, "b", "m/1")
	tp := petition.NewTransactionPetition(ih)
	tp.AddEntity(petition.NewEntityPetition("acct1", ih, matrix(t, []factor.Instance{aInst}, 1, nil)))
	tp.AddEntity(petition.NewEntityPetition("acct2", ih, matrix(t, []factor.Instance{bInst}, 1, nil)))

	require.NoError(t, tp.RecordSignature(sig(factor.Owned{Entity: "acct1", FactorInstance: aInst})))
	tp.RecordSkip(bInst.FactorSourceID)

	assert.False(t, tp.Successful())
	assert.Len(t, tp.Signatures(), 1)
}

func TestTransactionPetition_InvalidIfSkipped(t *testing.T) {
	ih := factor.IntentHash{}
	aInst := inst(factor.KindLedger, "a", "m/0")
	tp := petition.NewTransactionPetition(ih)
	tp.AddEntity(petition.NewEntityPetition("acct1", ih, matrix(t, []factor.Instance{aInst}, 1, nil)))

	assert.Equal(t, []factor.Address{"acct1"}, tp.InvalidIfSkipped(aInst.FactorSourceID))
}
