package petition

import (
	"sort"

	"github.com/ironvault/sigcollector/pkg/factor"
)

// TransactionPetition fans out over every entity that must sign one intent.
type TransactionPetition struct {
	IntentHash  factor.IntentHash
	ForEntities map[factor.Address]*EntityPetition
}

// NewTransactionPetition builds an empty petition for an intent; entities
// are added with AddEntity by the preprocessor.
func NewTransactionPetition(intentHash factor.IntentHash) *TransactionPetition {
	return &TransactionPetition{
		IntentHash:  intentHash,
		ForEntities: make(map[factor.Address]*EntityPetition),
	}
}

// AddEntity registers an entity petition for this transaction.
func (t *TransactionPetition) AddEntity(ep *EntityPetition) {
	t.ForEntities[ep.EntityAddress] = ep
}

// ContinueStatus applies spec §4.3: Continue if any entity is InProgress,
// Done if every entity is Finished(Success), Fail if any entity is
// Finished(Fail).
func (t *TransactionPetition) ContinueStatus() ContinueStatus {
	sawFail := false
	for _, ep := range t.ForEntities {
		switch ep.Status() {
		case StatusInProgress:
			return ContinueStatusContinue
		case StatusFinishedFail:
			sawFail = true
		}
	}
	if sawFail {
		return ContinueStatusFail
	}
	return ContinueStatusDone
}

// Successful reports whether every entity petition finished successfully.
func (t *TransactionPetition) Successful() bool {
	for _, ep := range t.ForEntities {
		if ep.Status() != StatusFinishedSuccess {
			return false
		}
	}
	return true
}

// Signatures returns the union of every entity's recorded signatures,
// regardless of the transaction's overall success (spec §4.3: failed
// transactions still surface their partial signatures).
func (t *TransactionPetition) Signatures() []factor.HDSignature {
	var out []factor.HDSignature
	addresses := t.sortedAddresses()
	for _, addr := range addresses {
		out = append(out, t.ForEntities[addr].AllSignatures()...)
	}
	return out
}

// SkippedFactorSourceIDs returns the union of every factor source id
// skipped within this transaction.
func (t *TransactionPetition) SkippedFactorSourceIDs() []factor.SourceID {
	seen := make(map[factor.SourceID]struct{})
	var out []factor.SourceID
	for _, addr := range t.sortedAddresses() {
		for _, id := range t.ForEntities[addr].SkippedIDs() {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	return out
}

// InvalidIfSkipped returns the entity addresses that would become
// Finished(Fail) if factor source id were skipped right now.
func (t *TransactionPetition) InvalidIfSkipped(id factor.SourceID) []factor.Address {
	var out []factor.Address
	for _, addr := range t.sortedAddresses() {
		if t.ForEntities[addr].InvalidIfSkipped(id) {
			out = append(out, addr)
		}
	}
	return out
}

// RecordSignature routes a signature to the entity petition that owns it.
func (t *TransactionPetition) RecordSignature(sig factor.HDSignature) error {
	ep, ok := t.ForEntities[sig.Owned.Entity]
	if !ok {
		return ErrUnknownEntity
	}
	return ep.RecordSignature(sig)
}

// RecordSkip fans a skip of id out to every entity petition that
// references it.
func (t *TransactionPetition) RecordSkip(id factor.SourceID) {
	for _, addr := range t.sortedAddresses() {
		t.ForEntities[addr].RecordSkip(id, false)
	}
}

func (t *TransactionPetition) sortedAddresses() []factor.Address {
	out := make([]factor.Address, 0, len(t.ForEntities))
	for addr := range t.ForEntities {
		out = append(out, addr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
