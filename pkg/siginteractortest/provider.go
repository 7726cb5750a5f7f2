package siginteractortest

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/ironvault/sigcollector/pkg/factor"
	"github.com/ironvault/sigcollector/pkg/interactor"
)

// Provider is an interactor.Provider backed entirely by a SimulatedUser: it
// never touches a real factor source, producing deterministic fake
// signatures or skips according to the user's script. It's the Go analogue
// of a headless UI driver that answers every signing prompt the same way.
type Provider struct {
	User SimulatedUser

	// Calls counts invocations per factor.Kind, for tests asserting how
	// many times the collector drove a given kind.
	Calls map[factor.Kind]int
}

// NewProvider builds a Provider scripted by user.
func NewProvider(user SimulatedUser) *Provider {
	return &Provider{User: user, Calls: make(map[factor.Kind]int)}
}

// InteractorFor implements interactor.Provider, returning a Parallel
// capability for kinds that support it and a Serial one otherwise, exactly
// as a real host's factor source registry would.
func (p *Provider) InteractorFor(kind factor.Kind) (interactor.Capability, error) {
	if !kind.IsValid() {
		return interactor.Capability{}, fmt.Errorf("siginteractortest: unknown kind %v", kind)
	}
	if kind.SupportsParallelism() {
		return interactor.Capability{Parallel: parallelFunc(func(ctx context.Context, req interactor.ParallelRequest) (interactor.Response, error) {
			p.Calls[kind]++
			return p.resolve(req.InvalidIfAllSkipped, perFactorSourceIDs(req.PerFactorSource), req.PerFactorSource)
		})}, nil
	}
	return interactor.Capability{Serial: serialFunc(func(ctx context.Context, req interactor.SerialRequest) (interactor.Response, error) {
		p.Calls[kind]++
		single := map[factor.SourceID]interactor.PerFactorSourceRequest{req.Request.FactorSourceID: req.Request}
		return p.resolve(req.InvalidIfSkipped, []factor.SourceID{req.Request.FactorSourceID}, single)
	})}, nil
}

func perFactorSourceIDs(m map[factor.SourceID]interactor.PerFactorSourceRequest) []factor.SourceID {
	ids := make([]factor.SourceID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return ids
}

// resolve is the decision shared by the Parallel and Serial paths: fail if
// the user's script says these factor sources always fail, otherwise sign
// or skip as a block according to shouldSign.
func (p *Provider) resolve(invalidIfSkipped interactor.InvalidTransactions, ids []factor.SourceID, perFactorSource map[factor.SourceID]interactor.PerFactorSourceRequest) (interactor.Response, error) {
	if p.User.shouldFail(ids) {
		return interactor.Response{}, fmt.Errorf("siginteractortest: %w: simulated failure", interactor.ErrInteractorFailure)
	}
	if !p.User.shouldSign(invalidIfSkipped) {
		return interactor.Response{Skipped: &interactor.SkippedResponse{FactorSourceIDs: ids}}, nil
	}

	signed := make(map[factor.SourceID][]factor.HDSignature, len(perFactorSource))
	for id, req := range perFactorSource {
		for _, pi := range req.PerIntent {
			for _, owned := range pi.OwnedFactorInstances {
				signed[id] = append(signed[id], fakeSign(pi.IntentHash, owned))
			}
		}
	}
	return interactor.Response{Signed: &interactor.SignedResponse{PerFactorSource: signed}}, nil
}

// fakeSign produces a deterministic, non-cryptographic stand-in signature:
// the hash of the intent and the owned instance it was produced for.
// Nothing in this repository verifies it as a real signature.
func fakeSign(ih factor.IntentHash, owned factor.Owned) factor.HDSignature {
	material := ih.CloneBytes()
	material = append(material, []byte(owned.Entity)...)
	material = append(material, []byte(owned.FactorInstance.FactorSourceID.String())...)
	material = append(material, []byte(owned.FactorInstance.Path)...)
	digest := chainhash.HashB(material)
	return factor.HDSignature{IntentHash: ih, Owned: owned, SignatureBytes: digest}
}

// parallelFunc adapts a plain function to interactor.Parallel.
type parallelFunc func(ctx context.Context, req interactor.ParallelRequest) (interactor.Response, error)

func (f parallelFunc) UseFactors(ctx context.Context, req interactor.ParallelRequest) (interactor.Response, error) {
	return f(ctx, req)
}

// serialFunc adapts a plain function to interactor.Serial.
type serialFunc func(ctx context.Context, req interactor.SerialRequest) (interactor.Response, error)

func (f serialFunc) UseFactor(ctx context.Context, req interactor.SerialRequest) (interactor.Response, error) {
	return f(ctx, req)
}
