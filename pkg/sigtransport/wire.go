package sigtransport

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ironvault/sigcollector/pkg/factor"
	"github.com/ironvault/sigcollector/pkg/interactor"
)

// The wire types below exist because encoding/json cannot marshal a map
// whose key type isn't a string (or a TextMarshaler): every request and
// response crossing pkg/interactor's boundary carries factor.SourceID or
// factor.IntentHash map keys, so the HTTP transport needs its own shape
// (string ids, with arrays of records in place of those maps) and an
// explicit conversion, the same way
// pkg/sigaudit's store does for the types it persists.

type wireSourceID struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

func toWireSourceID(id factor.SourceID) wireSourceID {
	return wireSourceID{Kind: id.Kind.String(), Value: id.Value}
}

func parseKind(s string) (factor.Kind, error) {
	for _, k := range factor.FrictionOrder() {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("sigtransport: unrecognized factor kind %q", s)
}

func (w wireSourceID) toFactorSourceID() (factor.SourceID, error) {
	kind, err := parseKind(w.Kind)
	if err != nil {
		return factor.SourceID{}, err
	}
	return factor.NewSourceID(kind, w.Value), nil
}

type wireOwned struct {
	Entity         string       `json:"entity"`
	FactorSourceID wireSourceID `json:"factor_source_id"`
	Path           string       `json:"path"`
}

func toWireOwned(o factor.Owned) wireOwned {
	return wireOwned{
		Entity:         string(o.Entity),
		FactorSourceID: toWireSourceID(o.FactorInstance.FactorSourceID),
		Path:           string(o.FactorInstance.Path),
	}
}

func (w wireOwned) toOwned() (factor.Owned, error) {
	sourceID, err := w.FactorSourceID.toFactorSourceID()
	if err != nil {
		return factor.Owned{}, err
	}
	return factor.Owned{
		Entity: factor.Address(w.Entity),
		FactorInstance: factor.Instance{
			FactorSourceID: sourceID,
			Path:           factor.DerivationPath(w.Path),
		},
	}, nil
}

type wirePerIntentKeyRequest struct {
	IntentHash           string       `json:"intent_hash"`
	FactorSourceID       wireSourceID `json:"factor_source_id"`
	OwnedFactorInstances []wireOwned  `json:"owned_factor_instances"`
}

func toWirePerIntentKeyRequest(r interactor.PerIntentKeyRequest) wirePerIntentKeyRequest {
	owned := make([]wireOwned, len(r.OwnedFactorInstances))
	for i, o := range r.OwnedFactorInstances {
		owned[i] = toWireOwned(o)
	}
	return wirePerIntentKeyRequest{
		IntentHash:           r.IntentHash.String(),
		FactorSourceID:       toWireSourceID(r.FactorSourceID),
		OwnedFactorInstances: owned,
	}
}

type wirePerFactorSourceRequest struct {
	FactorSourceID wireSourceID              `json:"factor_source_id"`
	PerIntent      []wirePerIntentKeyRequest `json:"per_intent"`
}

func toWirePerFactorSourceRequest(r interactor.PerFactorSourceRequest) wirePerFactorSourceRequest {
	perIntent := make([]wirePerIntentKeyRequest, len(r.PerIntent))
	for i, pi := range r.PerIntent {
		perIntent[i] = toWirePerIntentKeyRequest(pi)
	}
	return wirePerFactorSourceRequest{
		FactorSourceID: toWireSourceID(r.FactorSourceID),
		PerIntent:      perIntent,
	}
}

type wireInvalidTransaction struct {
	IntentHash string   `json:"intent_hash"`
	Addresses  []string `json:"addresses"`
}

func toWireInvalidTransactions(in interactor.InvalidTransactions) []wireInvalidTransaction {
	out := make([]wireInvalidTransaction, 0, len(in))
	for ih, addrs := range in {
		addrStrs := make([]string, len(addrs))
		for i, a := range addrs {
			addrStrs[i] = string(a)
		}
		out = append(out, wireInvalidTransaction{IntentHash: ih.String(), Addresses: addrStrs})
	}
	return out
}

// wireParallelRequest is the wire shape of interactor.ParallelRequest.
type wireParallelRequest struct {
	PerFactorSource     []wirePerFactorSourceRequest `json:"per_factor_source"`
	InvalidIfAllSkipped []wireInvalidTransaction     `json:"invalid_if_all_skipped"`
}

func toWireParallelRequest(req interactor.ParallelRequest) wireParallelRequest {
	perFactorSource := make([]wirePerFactorSourceRequest, 0, len(req.PerFactorSource))
	for _, r := range req.PerFactorSource {
		perFactorSource = append(perFactorSource, toWirePerFactorSourceRequest(r))
	}
	return wireParallelRequest{
		PerFactorSource:     perFactorSource,
		InvalidIfAllSkipped: toWireInvalidTransactions(req.InvalidIfAllSkipped),
	}
}

// wireSerialRequest is the wire shape of interactor.SerialRequest.
type wireSerialRequest struct {
	Request          wirePerFactorSourceRequest `json:"request"`
	InvalidIfSkipped []wireInvalidTransaction   `json:"invalid_if_skipped"`
}

func toWireSerialRequest(req interactor.SerialRequest) wireSerialRequest {
	return wireSerialRequest{
		Request:          toWirePerFactorSourceRequest(req.Request),
		InvalidIfSkipped: toWireInvalidTransactions(req.InvalidIfSkipped),
	}
}

// wireSignatureRecord matches the "signatures" array the response schema
// requires.
type wireSignatureRecord struct {
	IntentHash     string `json:"intent_hash"`
	Entity         string `json:"entity"`
	FactorSourceID string `json:"factor_source_id"`
	DerivationPath string `json:"derivation_path"`
	SignatureHex   string `json:"signature_hex"`
}

type wireSignedResponse struct {
	Signatures []wireSignatureRecord `json:"signatures"`
}

type wireSkippedResponse struct {
	FactorSourceIDs []string `json:"factor_source_ids"`
}

type wireResponse struct {
	Signed  *wireSignedResponse  `json:"signed,omitempty"`
	Skipped *wireSkippedResponse `json:"skipped,omitempty"`
}

// toResponse converts a schema-validated wire response into the
// interactor.Response the collector expects.
func (w wireResponse) toResponse() (interactor.Response, error) {
	switch {
	case w.Signed != nil:
		perFactorSource := make(map[factor.SourceID][]factor.HDSignature)
		for _, rec := range w.Signed.Signatures {
			intentHash, err := factor.IntentHashFromString(rec.IntentHash)
			if err != nil {
				return interactor.Response{}, fmt.Errorf("sigtransport: decoding signature intent hash: %w", err)
			}
			kind, value, err := splitFusedSourceID(rec.FactorSourceID)
			if err != nil {
				return interactor.Response{}, err
			}
			sourceID := factor.NewSourceID(kind, value)
			sigBytes, err := hex.DecodeString(rec.SignatureHex)
			if err != nil {
				return interactor.Response{}, fmt.Errorf("sigtransport: decoding signature bytes: %w", err)
			}
			sig := factor.HDSignature{
				IntentHash: intentHash,
				Owned: factor.Owned{
					Entity: factor.Address(rec.Entity),
					FactorInstance: factor.Instance{
						FactorSourceID: sourceID,
						Path:           factor.DerivationPath(rec.DerivationPath),
					},
				},
				SignatureBytes: sigBytes,
			}
			perFactorSource[sourceID] = append(perFactorSource[sourceID], sig)
		}
		return interactor.Response{Signed: &interactor.SignedResponse{PerFactorSource: perFactorSource}}, nil

	case w.Skipped != nil:
		ids := make([]factor.SourceID, len(w.Skipped.FactorSourceIDs))
		for i, fused := range w.Skipped.FactorSourceIDs {
			kind, value, err := splitFusedSourceID(fused)
			if err != nil {
				return interactor.Response{}, err
			}
			ids[i] = factor.NewSourceID(kind, value)
		}
		return interactor.Response{Skipped: &interactor.SkippedResponse{FactorSourceIDs: ids}}, nil

	default:
		return interactor.Response{}, fmt.Errorf("sigtransport: response has neither signed nor skipped")
	}
}

// splitFusedSourceID parses the "kind:value" form factor.SourceID.String()
// produces. Kind names never contain ':', so the first separator is
// unambiguous.
func splitFusedSourceID(s string) (factor.Kind, string, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, "", fmt.Errorf("sigtransport: malformed factor source id %q", s)
	}
	kind, err := parseKind(parts[0])
	if err != nil {
		return 0, "", err
	}
	return kind, parts[1], nil
}
