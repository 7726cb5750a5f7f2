package petition

import "errors"

// Construction and dispatch errors. These are returned, never panicked —
// they can originate from data the profile or an interactor handed the
// registry, not from a violated internal invariant (spec §7).
var (
	// ErrUnknownFactorSource is returned when an entity's role matrix
	// references a factor source id absent from the profile.
	ErrUnknownFactorSource = errors.New("petition: unknown factor source")
	// ErrUnknownEntity is returned when a signature is routed to an entity
	// address that has no petition in the transaction it names.
	ErrUnknownEntity = errors.New("petition: unknown entity")
)
