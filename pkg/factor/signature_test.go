package factor_test

import (
	"testing"

	"github.com/ironvault/sigcollector/pkg/factor"
	"github.com/stretchr/testify/assert"
)

func TestHDSignature_KeyIgnoresSignatureBytes(t *testing.T) {
	owned := factor.Owned{Entity: "account_abc", FactorInstance: inst(factor.KindLedger, "l1", "m/0")}
	var hash factor.IntentHash
	s1 := factor.HDSignature{IntentHash: hash, Owned: owned, SignatureBytes: []byte{1, 2, 3}}
	s2 := factor.HDSignature{IntentHash: hash, Owned: owned, SignatureBytes: []byte{4, 5, 6}}

	assert.Equal(t, s1.Key(), s2.Key())
}

func TestHDSignature_KeyDiffersByOwned(t *testing.T) {
	var hash factor.IntentHash
	owned1 := factor.Owned{Entity: "account_abc", FactorInstance: inst(factor.KindLedger, "l1", "m/0")}
	owned2 := factor.Owned{Entity: "account_abc", FactorInstance: inst(factor.KindLedger, "l1", "m/1")}
	s1 := factor.HDSignature{IntentHash: hash, Owned: owned1}
	s2 := factor.HDSignature{IntentHash: hash, Owned: owned2}

	assert.NotEqual(t, s1.Key(), s2.Key())
}
