package petition

import (
	"fmt"

	"github.com/ironvault/sigcollector/pkg/factor"
)

// EntityPetition composes up to two factor-list petitions (threshold,
// override) for a single entity within a single transaction. At least one
// of the two is present.
type EntityPetition struct {
	EntityAddress factor.Address
	IntentHash    factor.IntentHash
	Threshold     *FactorListPetition
	Override      *FactorListPetition
}

// NewEntityPetition builds an EntityPetition from an entity's projected
// role matrix (spec §3: unsecurified entities project to a 1-of-1
// threshold-only matrix, so Override is always nil for them).
func NewEntityPetition(address factor.Address, intentHash factor.IntentHash, matrix factor.RoleMatrix) *EntityPetition {
	ep := &EntityPetition{EntityAddress: address, IntentHash: intentHash}
	if len(matrix.ThresholdFactors) > 0 {
		ep.Threshold = NewFactorListPetition(matrix.ThresholdFactors, matrix.ThresholdK)
	}
	if len(matrix.OverrideFactors) > 0 {
		ep.Override = NewFactorListPetition(matrix.OverrideFactors, 1)
	}
	return ep
}

// ReferencedFactorSourceIDs returns every factor source id either list
// tracks.
func (e *EntityPetition) ReferencedFactorSourceIDs() []factor.SourceID {
	var out []factor.SourceID
	if e.Threshold != nil {
		for _, inst := range e.Threshold.Instances() {
			out = append(out, inst.FactorSourceID)
		}
	}
	if e.Override != nil {
		for _, inst := range e.Override.Instances() {
			out = append(out, inst.FactorSourceID)
		}
	}
	return out
}

// Status combines the threshold and override statuses per spec §4.2: a
// Success in either list dominates; otherwise Fail in both yields Fail;
// anything else is InProgress. A list that is absent contributes nothing
// (if only one list exists, its status is the entity status).
func (e *EntityPetition) Status() Status {
	var t, o *Status
	if e.Threshold != nil {
		s := e.Threshold.Status()
		t = &s
	}
	if e.Override != nil {
		s := e.Override.Status()
		o = &s
	}

	switch {
	case t != nil && o == nil:
		return *t
	case o != nil && t == nil:
		return *o
	case t != nil && o != nil:
		if *t == StatusFinishedSuccess || *o == StatusFinishedSuccess {
			return StatusFinishedSuccess
		}
		if *t == StatusFinishedFail && *o == StatusFinishedFail {
			return StatusFinishedFail
		}
		return StatusInProgress
	default:
		panic("petition: entity petition has neither threshold nor override list")
	}
}

// RecordSignature routes a signature to whichever list contains its owned
// factor instance. Exactly one list should contain it (enforced at matrix
// construction); routing to both is a programmer error this function
// guards defensively by returning the first match.
func (e *EntityPetition) RecordSignature(sig factor.HDSignature) error {
	id := sig.Owned.FactorInstance.FactorSourceID
	if e.Threshold != nil && e.Threshold.References(id) {
		return e.Threshold.RecordSignature(sig)
	}
	if e.Override != nil && e.Override.References(id) {
		return e.Override.RecordSignature(sig)
	}
	return fmt.Errorf("petition: entity %s has no factor list referencing %s", e.EntityAddress, id)
}

// RecordSkip routes a skip to every list that references id. A given
// factor source id is unique to at most one list per entity in practice,
// but both are checked since nothing prevents a profile from violating
// that expectation and the code must tolerate it (spec §4.2).
func (e *EntityPetition) RecordSkip(id factor.SourceID, simulated bool) {
	if e.Threshold != nil && e.Threshold.References(id) {
		_ = e.Threshold.RecordSkip(id, simulated)
	}
	if e.Override != nil && e.Override.References(id) {
		_ = e.Override.RecordSkip(id, simulated)
	}
}

// InvalidIfSkipped reports whether a simulated skip of id would push this
// entity's status to Finished(Fail).
func (e *EntityPetition) InvalidIfSkipped(id factor.SourceID) bool {
	clone := e.Clone()
	clone.RecordSkip(id, true)
	return clone.Status() == StatusFinishedFail
}

// Clone returns a deep copy suitable for simulated queries.
func (e *EntityPetition) Clone() *EntityPetition {
	c := &EntityPetition{EntityAddress: e.EntityAddress, IntentHash: e.IntentHash}
	if e.Threshold != nil {
		c.Threshold = e.Threshold.Clone()
	}
	if e.Override != nil {
		c.Override = e.Override.Clone()
	}
	return c
}

// AllSignatures returns every signature gathered across both lists.
func (e *EntityPetition) AllSignatures() []factor.HDSignature {
	var out []factor.HDSignature
	if e.Threshold != nil {
		out = append(out, e.Threshold.Signed()...)
	}
	if e.Override != nil {
		out = append(out, e.Override.Signed()...)
	}
	return out
}

// SkippedIDs returns every factor source id skipped across both lists.
func (e *EntityPetition) SkippedIDs() []factor.SourceID {
	var out []factor.SourceID
	if e.Threshold != nil {
		out = append(out, e.Threshold.SkippedIDs()...)
	}
	if e.Override != nil {
		out = append(out, e.Override.SkippedIDs()...)
	}
	return out
}
