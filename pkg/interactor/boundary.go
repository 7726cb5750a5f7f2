// Package interactor defines the abstract capability the collector uses to
// actually use a factor source. The core never implements these — hosts
// plug in hardware wallet drivers, OS keychain prompts, security-question
// dialogs and so on behind them.
package interactor

import (
	"context"

	"github.com/ironvault/sigcollector/pkg/factor"
)

// PerIntentKeyRequest asks one factor source to sign a batch of derivation
// paths for a single intent.
type PerIntentKeyRequest struct {
	IntentHash           factor.IntentHash
	FactorSourceID       factor.SourceID
	OwnedFactorInstances []factor.Owned
}

// PerFactorSourceRequest groups every intent's request for a single factor
// source.
type PerFactorSourceRequest struct {
	FactorSourceID factor.SourceID
	PerIntent      []PerIntentKeyRequest
}

// InvalidTransactions maps an intent hash to the entity addresses that
// would become unsignable if the factor source this request concerns were
// skipped. It lets the interactor tell the user what's at stake.
type InvalidTransactions map[factor.IntentHash][]factor.Address

// ParallelRequest is the request built for a kind whose interactor is
// Parallel: every factor source of that kind is used atomically.
type ParallelRequest struct {
	PerFactorSource     map[factor.SourceID]PerFactorSourceRequest
	InvalidIfAllSkipped InvalidTransactions
}

// SerialRequest is the request built for a single factor source within a
// kind whose interactor is Serial.
type SerialRequest struct {
	Request          PerFactorSourceRequest
	InvalidIfSkipped InvalidTransactions
}

// SignedResponse carries the signatures gathered for each factor source a
// request encompassed.
type SignedResponse struct {
	PerFactorSource map[factor.SourceID][]factor.HDSignature
}

// SkippedResponse names the factor sources the user (or the interactor)
// chose not to use.
type SkippedResponse struct {
	FactorSourceIDs []factor.SourceID
}

// Response is either Signed or Skipped; exactly one field is non-nil.
type Response struct {
	Signed  *SignedResponse
	Skipped *SkippedResponse
}

// Parallel is used for kinds whose factors act atomically: either every
// factor source in the request signs, or the interactor reports them all
// skipped.
type Parallel interface {
	UseFactors(ctx context.Context, req ParallelRequest) (Response, error)
}

// Serial is used for kinds whose factor sources are visited one at a time;
// the user may skip each independently.
type Serial interface {
	UseFactor(ctx context.Context, req SerialRequest) (Response, error)
}

// Capability is the two-variant tagged sum a host plugs in per kind.
// Exactly one field is non-nil.
type Capability struct {
	Parallel Parallel
	Serial   Serial
}

// IsParallel reports which variant this capability carries.
func (c Capability) IsParallel() bool {
	return c.Parallel != nil
}

// Provider resolves the capability a host offers for a given kind.
type Provider interface {
	InteractorFor(kind factor.Kind) (Capability, error)
}

// KeyDeriver is named here only as a documented external seam: deriving
// public keys from a factor source and a path is out of scope for this
// module (spec §1). No implementation lives in this repository, and nothing
// in it calls this interface; it only names the seam.
type KeyDeriver interface {
	DerivePublicKey(ctx context.Context, sourceID factor.SourceID, path factor.DerivationPath) ([]byte, error)
}
