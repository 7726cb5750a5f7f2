package factor

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// IntentHash identifies a transaction by its content hash. It reuses
// btcsuite's fixed-size hash type rather than hand-rolling one: a 32-byte
// array with a stable hex string codec and comparable-by-value semantics,
// which is exactly what the registry needs for its map keys.
type IntentHash = chainhash.Hash

// NewIntentHash wraps raw bytes as an IntentHash.
func NewIntentHash(b []byte) (IntentHash, error) {
	h, err := chainhash.NewHash(b)
	if err != nil {
		return IntentHash{}, err
	}
	return *h, nil
}

// IntentHashFromString parses the big-endian hex string form produced by
// IntentHash.String().
func IntentHashFromString(s string) (IntentHash, error) {
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		return IntentHash{}, err
	}
	return *h, nil
}
