package sigsession_test

import (
	"testing"
	"time"

	"github.com/ironvault/sigcollector/pkg/factor"
	"github.com/ironvault/sigcollector/pkg/sigsession"
	"github.com/stretchr/testify/require"
)

func TestManager_IssueAndValidate(t *testing.T) {
	keys, err := sigsession.NewInMemoryKeySet()
	require.NoError(t, err)
	mgr := sigsession.NewManager(keys)

	token, err := mgr.Issue("batch-1", []factor.Kind{factor.KindDevice}, time.Minute)
	require.NoError(t, err)

	claims, err := mgr.Validate(token, "batch-1", factor.KindDevice)
	require.NoError(t, err)
	require.Equal(t, "batch-1", claims.BatchID)
}

func TestManager_Validate_RejectsWrongBatch(t *testing.T) {
	keys, err := sigsession.NewInMemoryKeySet()
	require.NoError(t, err)
	mgr := sigsession.NewManager(keys)

	token, err := mgr.Issue("batch-1", []factor.Kind{factor.KindDevice}, time.Minute)
	require.NoError(t, err)

	_, err = mgr.Validate(token, "batch-2", factor.KindDevice)
	require.Error(t, err)
}

func TestManager_Validate_RejectsUnauthorizedKind(t *testing.T) {
	keys, err := sigsession.NewInMemoryKeySet()
	require.NoError(t, err)
	mgr := sigsession.NewManager(keys)

	token, err := mgr.Issue("batch-1", []factor.Kind{factor.KindDevice}, time.Minute)
	require.NoError(t, err)

	_, err = mgr.Validate(token, "batch-1", factor.KindLedger)
	require.Error(t, err)
}

func TestManager_Validate_RejectsExpiredToken(t *testing.T) {
	keys, err := sigsession.NewInMemoryKeySet()
	require.NoError(t, err)
	mgr := sigsession.NewManager(keys)

	token, err := mgr.Issue("batch-1", []factor.Kind{factor.KindDevice}, -time.Minute)
	require.NoError(t, err)

	_, err = mgr.Validate(token, "batch-1", factor.KindDevice)
	require.Error(t, err)
}
