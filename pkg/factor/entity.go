package factor

// SecurityState is the closed union Unsecured(Instance) | Securified(RoleMatrix).
// Exactly one of the two is populated; use Unsecured/Securified to build one
// and IsSecurified/Matrix to inspect it.
type SecurityState struct {
	securified bool
	unsecured  Instance
	matrix     RoleMatrix
}

// UnsecuredState builds the security state of an entity guarded by a single
// factor instance.
func UnsecuredState(instance Instance) SecurityState {
	return SecurityState{securified: false, unsecured: instance}
}

// SecurifiedState builds the security state of an entity guarded by a role
// matrix.
func SecurifiedState(matrix RoleMatrix) SecurityState {
	return SecurityState{securified: true, matrix: matrix}
}

// IsSecurified reports whether this state is the Securified variant.
func (s SecurityState) IsSecurified() bool {
	return s.securified
}

// UnsecuredInstance returns the lone factor instance of an Unsecured state.
// Panics if called on a Securified state — a programmer error, not a data
// error, since callers must check IsSecurified first.
func (s SecurityState) UnsecuredInstance() Instance {
	if s.securified {
		panic("factor: UnsecuredInstance called on a Securified state")
	}
	return s.unsecured
}

// Matrix returns the RoleMatrix of a Securified state. Panics if called on
// an Unsecured state.
func (s SecurityState) Matrix() RoleMatrix {
	if !s.securified {
		panic("factor: Matrix called on an Unsecured state")
	}
	return s.matrix
}

// ProjectedMatrix returns the role matrix this state is modeled as
// internally: the state's own matrix if Securified, or the synthesized
// 1-of-1 threshold-only matrix if Unsecured (spec §3).
func (s SecurityState) ProjectedMatrix() RoleMatrix {
	if s.securified {
		return s.matrix
	}
	return unsecurifiedMatrix(s.unsecured)
}

// Address is an opaque, ordered entity address. Accounts and personas share
// this type; the core never distinguishes them.
type Address string

// Entity is an address paired with the security state guarding it.
type Entity struct {
	Address       Address
	SecurityState SecurityState
}

// Owned pairs an entity address with one of the factor instances that can
// sign for it — "ownership" of a derivation position.
type Owned struct {
	Entity         Address
	FactorInstance Instance
}
