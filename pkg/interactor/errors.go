package interactor

import "errors"

// Error taxonomy exposed at the boundary (spec §6/§7). InteractorFailure is
// handled locally by the collector as an implicit skip; it is included here
// only so hosts can distinguish it in logs if they wrap interactor calls.
var (
	ErrUnknownFactorSource     = errors.New("interactor: unknown factor source")
	ErrUnknownEntity           = errors.New("interactor: unknown entity")
	ErrInvalidFactorSourceKind = errors.New("interactor: bucket contains a mismatched factor source kind")
	ErrInteractorFailure       = errors.New("interactor: call failed")
)
