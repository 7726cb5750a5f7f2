// Package sigaudit persists the output of a collection run — never the
// petition state itself, which stays in-process only (spec: no
// cross-process persistence of in-flight petitions). A BatchRecord is an
// audit trail entry: which intents succeeded, which failed, and which
// factor sources were skipped, keyed by an externally supplied batch id.
// Storing a record under a batch id that is already present replaces the
// earlier record.
package sigaudit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ironvault/sigcollector/pkg/factor"
	"github.com/ironvault/sigcollector/pkg/petition"
)

// BatchRecord is the durable projection of a petition.BatchOutcome.
type BatchRecord struct {
	BatchID      string
	CollectedAt  time.Time
	SuccessCount int
	FailCount    int
	Skipped      []factor.SourceID
	Outcome      petition.BatchOutcome
}

// Store persists and retrieves batch records.
type Store interface {
	Put(ctx context.Context, rec BatchRecord) error
	Get(ctx context.Context, batchID string) (BatchRecord, error)
}

// NewBatchRecord builds the durable projection of outcome for batchID.
func NewBatchRecord(batchID string, outcome petition.BatchOutcome, collectedAt time.Time) BatchRecord {
	return BatchRecord{
		BatchID:      batchID,
		CollectedAt:  collectedAt,
		SuccessCount: len(outcome.Successful),
		FailCount:    len(outcome.Failed),
		Skipped:      outcome.SkippedFactorSources,
		Outcome:      outcome,
	}
}

type wireSignature struct {
	IntentHash string `json:"intent_hash"`
	Entity     string `json:"entity"`
	FactorID   string `json:"factor_source_id"`
	Path       string `json:"derivation_path"`
}

type wireOutcome struct {
	Successful map[string][]wireSignature `json:"successful"`
	Failed     map[string][]wireSignature `json:"failed"`
	Skipped    []string                   `json:"skipped_factor_sources"`
}

func marshalOutcome(outcome petition.BatchOutcome) ([]byte, error) {
	w := wireOutcome{
		Successful: marshalSigSet(outcome.Successful),
		Failed:     marshalSigSet(outcome.Failed),
	}
	for _, id := range outcome.SkippedFactorSources {
		w.Skipped = append(w.Skipped, id.String())
	}
	return json.Marshal(w)
}

// unmarshalSkipped parses the "kind:value" fused ids w.Skipped stores
// (factor.SourceID.String()'s own wire form) back into factor.SourceID,
// the same fused-string convention pkg/sigtransport's wire layer uses.
func unmarshalSkipped(w wireOutcome) ([]factor.SourceID, error) {
	ids := make([]factor.SourceID, 0, len(w.Skipped))
	for _, s := range w.Skipped {
		kind, value, err := splitFusedSourceID(s)
		if err != nil {
			return nil, err
		}
		ids = append(ids, factor.NewSourceID(kind, value))
	}
	return ids, nil
}

// splitFusedSourceID parses the "kind:value" form factor.SourceID.String()
// produces. Kind names never contain ':', so the first separator is
// unambiguous.
func splitFusedSourceID(s string) (factor.Kind, string, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("sigaudit: malformed factor source id %q", s)
	}
	kind, err := parseKind(parts[0])
	if err != nil {
		return 0, "", err
	}
	return kind, parts[1], nil
}

func parseKind(s string) (factor.Kind, error) {
	for _, k := range factor.FrictionOrder() {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("sigaudit: unrecognized factor kind %q", s)
}

func marshalSigSet(in map[factor.IntentHash][]factor.HDSignature) map[string][]wireSignature {
	out := make(map[string][]wireSignature, len(in))
	for ih, sigs := range in {
		wsigs := make([]wireSignature, 0, len(sigs))
		for _, s := range sigs {
			wsigs = append(wsigs, wireSignature{
				IntentHash: ih.String(),
				Entity:     string(s.Owned.Entity),
				FactorID:   s.Owned.FactorInstance.FactorSourceID.String(),
				Path:       string(s.Owned.FactorInstance.Path),
			})
		}
		out[ih.String()] = wsigs
	}
	return out
}
