package sigsession_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ironvault/sigcollector/pkg/sigsession"
	"github.com/stretchr/testify/require"
)

func TestInMemoryKeySet_RotateKeepsOldTokenVerifiable(t *testing.T) {
	keys, err := sigsession.NewInMemoryKeySet()
	require.NoError(t, err)

	token, err := keys.Sign(context.Background(), jwt.RegisteredClaims{Subject: "before-rotation"})
	require.NoError(t, err)

	require.NoError(t, keys.Rotate())

	parsed, err := jwt.Parse(token, keys.KeyFunc)
	require.NoError(t, err)
	require.True(t, parsed.Valid)
}

func TestInMemoryKeySet_RotateProducesDistinctKeys(t *testing.T) {
	keys, err := sigsession.NewInMemoryKeySet()
	require.NoError(t, err)

	first, err := keys.Sign(context.Background(), jwt.RegisteredClaims{Subject: "first"})
	require.NoError(t, err)

	// Force a distinct rotation timestamp; the derived key id (and so the
	// HKDF info parameter) is a nanosecond clock reading.
	time.Sleep(time.Millisecond)
	require.NoError(t, keys.Rotate())

	second, err := keys.Sign(context.Background(), jwt.RegisteredClaims{Subject: "second"})
	require.NoError(t, err)

	require.NotEqual(t, first, second)

	// Both tokens must still verify against the retained key set, and each
	// names the key id that was active when it was signed.
	var kids []any
	for _, tok := range []string{first, second} {
		parsed, err := jwt.Parse(tok, keys.KeyFunc)
		require.NoError(t, err)
		require.True(t, parsed.Valid)
		kids = append(kids, parsed.Header["kid"])
	}
	require.NotEqual(t, kids[0], kids[1])
}
