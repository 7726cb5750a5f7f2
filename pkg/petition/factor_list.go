package petition

import (
	"fmt"

	"github.com/ironvault/sigcollector/pkg/factor"
)

// FactorListPetition tracks one role list's (threshold or override)
// progress toward authentication within one entity, one transaction.
type FactorListPetition struct {
	instances     map[factor.SourceID]factor.Instance
	requiredCount uint8
	signed        map[factor.SourceID]factor.HDSignature
	skipped       map[factor.SourceID]struct{}
}

// NewFactorListPetition builds a petition over the given factor instances,
// requiring requiredCount of them to sign. Override lists and unsecurified
// lists both pass requiredCount=1 (spec §4.1).
func NewFactorListPetition(instances []factor.Instance, requiredCount uint8) *FactorListPetition {
	m := make(map[factor.SourceID]factor.Instance, len(instances))
	for _, inst := range instances {
		m[inst.FactorSourceID] = inst
	}
	return &FactorListPetition{
		instances:     m,
		requiredCount: requiredCount,
		signed:        make(map[factor.SourceID]factor.HDSignature),
		skipped:       make(map[factor.SourceID]struct{}),
	}
}

// References reports whether id names a factor source this list cares
// about.
func (p *FactorListPetition) References(id factor.SourceID) bool {
	_, ok := p.instances[id]
	return ok
}

// Instances returns the factor instances this list tracks.
func (p *FactorListPetition) Instances() []factor.Instance {
	out := make([]factor.Instance, 0, len(p.instances))
	for _, inst := range p.instances {
		out = append(out, inst)
	}
	return out
}

// Status applies the predicate of spec §4.1.
func (p *FactorListPetition) Status() Status {
	signedCount := len(p.signed)
	if signedCount >= int(p.requiredCount) {
		return StatusFinishedSuccess
	}
	promptedCount := signedCount + len(p.skipped)
	leftToPrompt := len(p.instances) - promptedCount
	if leftToPrompt+signedCount < int(p.requiredCount) {
		return StatusFinishedFail
	}
	return StatusInProgress
}

// RecordSignature accepts a signature iff its owned factor instance belongs
// to this list and its factor source id has not already been recorded
// (signed or skipped). A repeat attempt for the same factor source id is a
// programmer error: callers must not re-derive the same source twice.
func (p *FactorListPetition) RecordSignature(sig factor.HDSignature) error {
	id := sig.Owned.FactorInstance.FactorSourceID
	inst, ok := p.instances[id]
	if !ok || !inst.Equal(sig.Owned.FactorInstance) {
		return fmt.Errorf("petition: factor instance %s is not a member of this list", sig.Owned.FactorInstance)
	}
	if _, already := p.signed[id]; already {
		panic(fmt.Sprintf("petition: factor source %s signed twice", id))
	}
	if _, already := p.skipped[id]; already {
		panic(fmt.Sprintf("petition: factor source %s already skipped, cannot also sign", id))
	}
	p.signed[id] = sig
	return nil
}

// RecordSkip marks id as skipped. When simulated is false the
// not-already-recorded invariant is enforced (a repeat is a programmer
// error); when true (used by StatusIfSkipped) the check is relaxed, but
// simulated mutations must only ever be applied to a Clone, never to shared
// state.
func (p *FactorListPetition) RecordSkip(id factor.SourceID, simulated bool) error {
	if _, ok := p.instances[id]; !ok {
		return fmt.Errorf("petition: factor source %s is not a member of this list", id)
	}
	if !simulated {
		if _, already := p.signed[id]; already {
			panic(fmt.Sprintf("petition: factor source %s already signed, cannot also skip", id))
		}
		if _, already := p.skipped[id]; already {
			panic(fmt.Sprintf("petition: factor source %s skipped twice", id))
		}
	}
	p.skipped[id] = struct{}{}
	return nil
}

// Clone returns a deep copy suitable for a simulated skip.
func (p *FactorListPetition) Clone() *FactorListPetition {
	c := &FactorListPetition{
		instances:     make(map[factor.SourceID]factor.Instance, len(p.instances)),
		requiredCount: p.requiredCount,
		signed:        make(map[factor.SourceID]factor.HDSignature, len(p.signed)),
		skipped:       make(map[factor.SourceID]struct{}, len(p.skipped)),
	}
	for k, v := range p.instances {
		c.instances[k] = v
	}
	for k, v := range p.signed {
		c.signed[k] = v
	}
	for k, v := range p.skipped {
		c.skipped[k] = struct{}{}
	}
	return c
}

// StatusIfSkipped is a pure query: it clones the list, applies a simulated
// skip of id, and reports the resulting status without touching shared
// state. If id is not a member of this list, the clone's status (unchanged)
// is returned.
func (p *FactorListPetition) StatusIfSkipped(id factor.SourceID) Status {
	clone := p.Clone()
	if !clone.References(id) {
		return clone.Status()
	}
	_ = clone.RecordSkip(id, true)
	return clone.Status()
}

// Signed returns the signatures gathered so far.
func (p *FactorListPetition) Signed() []factor.HDSignature {
	out := make([]factor.HDSignature, 0, len(p.signed))
	for _, sig := range p.signed {
		out = append(out, sig)
	}
	return out
}

// SkippedIDs returns the factor source ids skipped so far.
func (p *FactorListPetition) SkippedIDs() []factor.SourceID {
	out := make([]factor.SourceID, 0, len(p.skipped))
	for id := range p.skipped {
		out = append(out, id)
	}
	return out
}
