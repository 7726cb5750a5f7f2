// Package factor defines the value types shared by the petition engine and
// the collector: factor sources and instances, role matrices, entities, and
// the hierarchical-deterministic signatures the collector gathers for them.
//
// Everything here is immutable after construction and comparable by value;
// the package has no behavior beyond equality, ordering and validation.
package factor

// Kind is the closed enumeration of factor source kinds the coordinator
// knows how to drive. The zero value is Ledger, which also happens to be
// first in friction order.
type Kind uint8

const (
	KindLedger Kind = iota
	KindArculus
	KindYubikey
	KindSecurityQuestions
	KindOffDeviceMnemonic
	KindDevice
)

// frictionOrder is the fixed friction order: most tedious first. It is a
// compile-time constant table per spec — changing it requires a rebuild,
// never a config value.
var frictionOrder = [...]Kind{
	KindLedger,
	KindArculus,
	KindYubikey,
	KindSecurityQuestions,
	KindOffDeviceMnemonic,
	KindDevice,
}

// frictionRank maps a Kind to its position in frictionOrder.
var frictionRank = map[Kind]int{
	KindLedger:            0,
	KindArculus:           1,
	KindYubikey:           2,
	KindSecurityQuestions: 3,
	KindOffDeviceMnemonic: 4,
	KindDevice:            5,
}

// FrictionOrder returns the fixed kind ordering the collector walks,
// most tedious first.
func FrictionOrder() []Kind {
	out := make([]Kind, len(frictionOrder))
	copy(out, frictionOrder[:])
	return out
}

// FrictionRank reports this kind's position in the friction order; lower
// sorts earlier.
func (k Kind) FrictionRank() int {
	r, ok := frictionRank[k]
	if !ok {
		panic("factor: unknown Kind " + k.String())
	}
	return r
}

// SupportsParallelism reports whether the kind's interactor may be invoked
// as a Parallel capability. Only Device does today; the set is a
// compile-time constant, not configuration.
func (k Kind) SupportsParallelism() bool {
	return k == KindDevice
}

func (k Kind) String() string {
	switch k {
	case KindLedger:
		return "ledger"
	case KindArculus:
		return "arculus"
	case KindYubikey:
		return "yubikey"
	case KindSecurityQuestions:
		return "securityQuestions"
	case KindOffDeviceMnemonic:
		return "offDeviceMnemonic"
	case KindDevice:
		return "device"
	default:
		return "unknown"
	}
}

// IsValid reports whether k is one of the closed enumeration's members.
func (k Kind) IsValid() bool {
	_, ok := frictionRank[k]
	return ok
}
