package petition

import (
	"sort"

	"github.com/ironvault/sigcollector/pkg/factor"
	"github.com/ironvault/sigcollector/pkg/interactor"
)

// Registry is the batch-level coordinator: a forward index from factor
// source id to the intents that reference it, and the map from intent hash
// to transaction petition. It is owned exclusively by whichever caller
// holds it (the collector loop); nothing here synchronizes concurrent
// access.
type Registry struct {
	factorToIntents map[factor.SourceID]map[factor.IntentHash]struct{}
	intentOrder     []factor.IntentHash
	petitions       map[factor.IntentHash]*TransactionPetition
}

// NewRegistry builds an empty registry; the preprocessor populates it via
// AddTransaction.
func NewRegistry() *Registry {
	return &Registry{
		factorToIntents: make(map[factor.SourceID]map[factor.IntentHash]struct{}),
		petitions:       make(map[factor.IntentHash]*TransactionPetition),
	}
}

// AddTransaction registers tp and indexes referencedFactorSourceIDs against
// its intent hash.
func (r *Registry) AddTransaction(tp *TransactionPetition, referencedFactorSourceIDs []factor.SourceID) {
	r.petitions[tp.IntentHash] = tp
	r.intentOrder = append(r.intentOrder, tp.IntentHash)
	for _, id := range referencedFactorSourceIDs {
		intents, ok := r.factorToIntents[id]
		if !ok {
			intents = make(map[factor.IntentHash]struct{})
			r.factorToIntents[id] = intents
		}
		intents[tp.IntentHash] = struct{}{}
	}
}

// Transaction returns the transaction petition for an intent hash, if any.
func (r *Registry) Transaction(intentHash factor.IntentHash) (*TransactionPetition, bool) {
	tp, ok := r.petitions[intentHash]
	return tp, ok
}

// intentsFor returns, in deterministic order, the intent hashes that
// reference a factor source id.
func (r *Registry) intentsFor(id factor.SourceID) []factor.IntentHash {
	set := r.factorToIntents[id]
	out := make([]factor.IntentHash, 0, len(set))
	for _, ih := range r.intentOrder {
		if _, ok := set[ih]; ok {
			out = append(out, ih)
		}
	}
	return out
}

// ownedInstancesFor collects the owned factor instances of id within
// intentHash: every entity petition's (threshold or override) instance
// matching id.
func (r *Registry) ownedInstancesFor(intentHash factor.IntentHash, id factor.SourceID) []factor.Owned {
	tp, ok := r.petitions[intentHash]
	if !ok {
		return nil
	}
	var out []factor.Owned
	addrs := make([]factor.Address, 0, len(tp.ForEntities))
	for addr := range tp.ForEntities {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	for _, addr := range addrs {
		ep := tp.ForEntities[addr]
		for _, list := range []*FactorListPetition{ep.Threshold, ep.Override} {
			if list == nil {
				continue
			}
			for _, inst := range list.Instances() {
				if inst.FactorSourceID == id {
					out = append(out, factor.Owned{Entity: addr, FactorInstance: inst})
				}
			}
		}
	}
	return out
}

// perFactorSourceRequest builds the PerFactorSourceRequest for a single
// factor source id (spec §4.4).
func (r *Registry) perFactorSourceRequest(id factor.SourceID) interactor.PerFactorSourceRequest {
	req := interactor.PerFactorSourceRequest{FactorSourceID: id}
	for _, ih := range r.intentsFor(id) {
		owned := r.ownedInstancesFor(ih, id)
		if len(owned) == 0 {
			continue
		}
		req.PerIntent = append(req.PerIntent, interactor.PerIntentKeyRequest{
			IntentHash:           ih,
			FactorSourceID:       id,
			OwnedFactorInstances: owned,
		})
	}
	return req
}

// invalidTransactionsIfSkipped returns, for a set of factor source ids, the
// union of every referenced transaction's InvalidIfSkipped for each id
// (spec §4.4).
func (r *Registry) invalidTransactionsIfSkipped(ids []factor.SourceID) interactor.InvalidTransactions {
	out := make(interactor.InvalidTransactions)
	for _, id := range ids {
		for _, ih := range r.intentsFor(id) {
			tp := r.petitions[ih]
			addrs := tp.InvalidIfSkipped(id)
			if len(addrs) == 0 {
				continue
			}
			out[ih] = append(out[ih], addrs...)
		}
	}
	return out
}

// BuildParallelRequest builds the atomic request for a whole kind-bucket of
// factor source ids.
func (r *Registry) BuildParallelRequest(ids []factor.SourceID) interactor.ParallelRequest {
	req := interactor.ParallelRequest{
		PerFactorSource:     make(map[factor.SourceID]interactor.PerFactorSourceRequest, len(ids)),
		InvalidIfAllSkipped: r.invalidTransactionsIfSkipped(ids),
	}
	for _, id := range ids {
		req.PerFactorSource[id] = r.perFactorSourceRequest(id)
	}
	return req
}

// BuildSerialRequest builds the request for a single factor source id
// within a serial bucket.
func (r *Registry) BuildSerialRequest(id factor.SourceID) interactor.SerialRequest {
	return interactor.SerialRequest{
		Request:          r.perFactorSourceRequest(id),
		InvalidIfSkipped: r.invalidTransactionsIfSkipped([]factor.SourceID{id}),
	}
}

// ApplySigned routes each signature in resp to its transaction and entity
// petition (spec §4.4). Signatures for factor source ids or intents the
// registry does not know about are ignored — they cannot occur without a
// misbehaving interactor, and the registry has no way to report an error
// mid-loop without abandoning an otherwise-valid batch.
func (r *Registry) ApplySigned(resp interactor.SignedResponse) {
	ids := make([]factor.SourceID, 0, len(resp.PerFactorSource))
	for id := range resp.PerFactorSource {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	for _, id := range ids {
		for _, sig := range resp.PerFactorSource[id] {
			tp, ok := r.petitions[sig.IntentHash]
			if !ok {
				continue
			}
			_ = tp.RecordSignature(sig)
		}
	}
}

// ApplySkipped fans a skip of each id out to every transaction that
// references it (spec §4.4). Skipping an id referenced by no petition is a
// no-op.
func (r *Registry) ApplySkipped(ids []factor.SourceID) {
	for _, id := range ids {
		for _, ih := range r.intentsFor(id) {
			r.petitions[ih].RecordSkip(id)
		}
	}
}

// Neglectable reports whether skipping id right now is certain not to
// invalidate any outstanding transaction — a direct derivation of
// InvalidIfSkipped that UIs can use to pre-gray-out a "skip" affordance
// (SPEC_FULL.md supplemented feature, grounded on the original
// factor_results_building_coordinator.rs notion of a "neglectable" source).
func (r *Registry) Neglectable(id factor.SourceID) bool {
	return len(r.invalidTransactionsIfSkipped([]factor.SourceID{id})) == 0
}

// ContinueStatus applies spec §4.4's batch-level rule: Continue iff at
// least one transaction petition still reports Continue; Fail if any
// transaction reports Fail (and no transaction reports Continue); otherwise
// Done. A single failed transaction never halts the batch on its own —
// others may still succeed (spec §9 Open Question 2).
func (r *Registry) ContinueStatus() ContinueStatus {
	sawFail := false
	for _, ih := range r.intentOrder {
		switch r.petitions[ih].ContinueStatus() {
		case ContinueStatusContinue:
			return ContinueStatusContinue
		case ContinueStatusFail:
			sawFail = true
		}
	}
	if sawFail {
		return ContinueStatusFail
	}
	return ContinueStatusDone
}

// Finalize splits every transaction into the successful/failed outcome
// (spec §4.4): no intent hash appears on both sides, and every signature
// appears exactly once.
func (r *Registry) Finalize() BatchOutcome {
	out := BatchOutcome{
		Successful: make(map[factor.IntentHash][]factor.HDSignature),
		Failed:     make(map[factor.IntentHash][]factor.HDSignature),
	}
	skippedSeen := make(map[factor.SourceID]struct{})
	for _, ih := range r.intentOrder {
		tp := r.petitions[ih]
		sigs := tp.Signatures()
		if tp.Successful() {
			out.Successful[ih] = sigs
		} else {
			out.Failed[ih] = sigs
		}
		for _, id := range tp.SkippedFactorSourceIDs() {
			if _, ok := skippedSeen[id]; !ok {
				skippedSeen[id] = struct{}{}
				out.SkippedFactorSources = append(out.SkippedFactorSources, id)
			}
		}
	}
	return out
}
