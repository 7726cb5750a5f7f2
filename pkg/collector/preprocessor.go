// Package collector walks a batch of transaction intents against a profile
// of known factor sources, builds the petition graph for them, and then
// drives the interactor boundary in friction order until every transaction
// petition has either succeeded, failed, or run out of factor sources to
// try (spec §4.5, §4.6).
package collector

import (
	"fmt"

	"github.com/ironvault/sigcollector/pkg/factor"
	"github.com/ironvault/sigcollector/pkg/petition"
)

// TransactionIntent is one transaction to authenticate: its intent hash and
// the entities that must sign it, as produced by the manifest-analysis
// collaborator (out of scope, spec §1).
type TransactionIntent struct {
	IntentHash     factor.IntentHash
	SignerEntities []factor.Entity
}

// FactorSourcesOfKind is one friction-ordered bucket: every factor source
// of a single kind that the batch actually references, sorted last-used
// ascending.
type FactorSourcesOfKind struct {
	Kind    factor.Kind
	Sources []factor.Source
}

// IDs returns the factor source ids of this bucket, in the bucket's order.
func (b FactorSourcesOfKind) IDs() []factor.SourceID {
	out := make([]factor.SourceID, len(b.Sources))
	for i, s := range b.Sources {
		out[i] = s.ID
	}
	return out
}

// Preprocess builds the petition registry and the friction-ordered
// kind-buckets for a batch (spec §4.5). It fails fast with
// ErrUnknownFactorSource if any entity's role matrix references a factor
// source id absent from profileSources.
func Preprocess(profileSources []factor.Source, intents []TransactionIntent) (*petition.Registry, []FactorSourcesOfKind, error) {
	known := make(map[factor.SourceID]factor.Source, len(profileSources))
	for _, s := range profileSources {
		known[s.ID] = s
	}

	registry := petition.NewRegistry()
	referenced := make(map[factor.SourceID]struct{})

	for _, intent := range intents {
		tp := petition.NewTransactionPetition(intent.IntentHash)
		var referencedInThisIntent []factor.SourceID

		for _, entity := range intent.SignerEntities {
			matrix := entity.SecurityState.ProjectedMatrix()
			for _, inst := range matrix.AllFactors() {
				if _, ok := known[inst.FactorSourceID]; !ok {
					return nil, nil, fmt.Errorf("collector: entity %s references %w %s", entity.Address, petition.ErrUnknownFactorSource, inst.FactorSourceID)
				}
				referenced[inst.FactorSourceID] = struct{}{}
				referencedInThisIntent = append(referencedInThisIntent, inst.FactorSourceID)
			}
			tp.AddEntity(petition.NewEntityPetition(entity.Address, intent.IntentHash, matrix))
		}

		registry.AddTransaction(tp, referencedInThisIntent)
	}

	buckets := groupByKindInFrictionOrder(known, referenced)
	return registry, buckets, nil
}

// groupByKindInFrictionOrder groups the referenced factor sources by kind,
// sorts each bucket by last-used ascending, and orders the buckets
// themselves by the fixed friction order (spec §4.5 step 3).
func groupByKindInFrictionOrder(known map[factor.SourceID]factor.Source, referenced map[factor.SourceID]struct{}) []FactorSourcesOfKind {
	byKind := make(map[factor.Kind][]factor.Source)
	for id := range referenced {
		src := known[id]
		byKind[id.Kind] = append(byKind[id.Kind], src)
	}

	var buckets []FactorSourcesOfKind
	for _, kind := range factor.FrictionOrder() {
		sources, ok := byKind[kind]
		if !ok || len(sources) == 0 {
			continue
		}
		factor.SortSourcesByLastUsed(sources)
		buckets = append(buckets, FactorSourcesOfKind{Kind: kind, Sources: sources})
	}
	return buckets
}
