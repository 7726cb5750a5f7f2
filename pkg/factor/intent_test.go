package factor_test

import (
	"testing"

	"github.com/ironvault/sigcollector/pkg/factor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntentHash_RoundTripsThroughString(t *testing.T) {
	raw := make([]byte, 32)
	for i := range raw {
		raw[i] = byte(i)
	}
	h, err := factor.NewIntentHash(raw)
	require.NoError(t, err)

	parsed, err := factor.IntentHashFromString(h.String())
	require.NoError(t, err)
	assert.Equal(t, h, parsed)
}

func TestNewIntentHash_RejectsWrongLength(t *testing.T) {
	_, err := factor.NewIntentHash([]byte{1, 2, 3})
	require.Error(t, err)
}
