// Package sigtrust gates which interactor protocol versions a host will
// dispatch requests to: Policy checks a semantic version string against a
// constraint, the same way a pack loader refuses to load a pack whose
// declared version fails its trust policy. Obtaining the version is the
// host's job; pkg/sigtransport does not exchange versions, and neither it
// nor pkg/collector calls Check.
package sigtrust

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Policy is a semver constraint every interactor's advertised protocol
// version must satisfy.
type Policy struct {
	constraint *semver.Constraints
	raw        string
}

// NewPolicy parses a constraint expression (e.g. ">= 1.2.0, < 2.0.0").
func NewPolicy(constraint string) (Policy, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return Policy{}, fmt.Errorf("sigtrust: parsing constraint %q: %w", constraint, err)
	}
	return Policy{constraint: c, raw: constraint}, nil
}

// Check reports whether version satisfies the policy.
func (p Policy) Check(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("sigtrust: parsing interactor version %q: %w", version, err)
	}
	if !p.constraint.Check(v) {
		return fmt.Errorf("sigtrust: interactor protocol version %s does not satisfy %s", version, p.raw)
	}
	return nil
}

// String returns the constraint expression this policy enforces.
func (p Policy) String() string {
	return p.raw
}
