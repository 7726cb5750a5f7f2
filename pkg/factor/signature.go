package factor

// HDSignature is a hierarchical-deterministic signature produced by some
// external Signer (out of scope, spec §1) for one owned factor instance
// within one intent. The core never mints one; it only records and routes
// the ones the interactor boundary hands it back.
type HDSignature struct {
	IntentHash     IntentHash
	Owned          Owned
	SignatureBytes []byte
}

// Key identifies the input a signature was produced for. Two signatures are
// duplicates iff their Key matches (spec §3) — the signature bytes
// themselves are not part of identity, since a factor source could in
// principle be asked to sign the same input twice and produce the same
// bytes, or (for some schemes) different bytes for the same input.
type Key struct {
	IntentHash IntentHash
	Owned      Owned
}

// Key returns s's identity for duplicate-detection purposes.
func (s HDSignature) Key() Key {
	return Key{IntentHash: s.IntentHash, Owned: s.Owned}
}
