// Package siginteractortest provides a scriptable fake interactor.Provider
// for driving pkg/collector end-to-end in tests without a real hardware
// wallet, keychain prompt or companion app on the other side.
package siginteractortest

import (
	"github.com/ironvault/sigcollector/pkg/factor"
	"github.com/ironvault/sigcollector/pkg/interactor"
)

// Laziness controls how a SimulatedUser behaves when a factor source can be
// skipped without invalidating any transaction.
type Laziness int

const (
	// SignMinimum skips whenever skipping would not invalidate any
	// transaction, and signs otherwise — a user who signs only the
	// minimum required, but never refuses when something is at stake.
	SignMinimum Laziness = iota
	// AlwaysSkip skips every factor source regardless of consequences.
	AlwaysSkip
)

// userMode is the two-shape union SimulatedUser carries: prudent (always
// signs) or lazy (governed by a Laziness policy).
type userMode struct {
	prudent bool
	laze    Laziness
}

// SimulatedUser scripts the decisions a human would make when prompted to
// use a factor source: sign or skip, and (independently) whether a given
// factor source is wired to always fail, simulating a broken device or a
// denied keychain prompt.
type SimulatedUser struct {
	mode     userMode
	failures map[factor.SourceID]struct{}
}

// Prudent builds a user that always signs, never skips.
func Prudent() SimulatedUser {
	return SimulatedUser{mode: userMode{prudent: true}}
}

// Lazy builds a user governed by the given Laziness policy.
func Lazy(laziness Laziness) SimulatedUser {
	return SimulatedUser{mode: userMode{laze: laziness}}
}

// WithFailures returns a copy of u that always fails (returns an error
// rather than signing or skipping cleanly) the named factor sources.
func (u SimulatedUser) WithFailures(ids ...factor.SourceID) SimulatedUser {
	failures := make(map[factor.SourceID]struct{}, len(ids))
	for _, id := range ids {
		failures[id] = struct{}{}
	}
	u.failures = failures
	return u
}

// shouldSign decides whether u would sign a request that, if skipped
// entirely, would invalidate the transactions in invalidIfSkipped.
func (u SimulatedUser) shouldSign(invalidIfSkipped interactor.InvalidTransactions) bool {
	if u.mode.prudent {
		return true
	}
	switch u.mode.laze {
	case AlwaysSkip:
		return false
	case SignMinimum:
		return len(invalidIfSkipped) > 0
	default:
		return false
	}
}

// shouldFail reports whether every one of ids is wired to always fail. A
// Parallel request fails only when ALL of its factor sources are wired to
// fail, mirroring the all-or-nothing semantics of the capability itself.
func (u SimulatedUser) shouldFail(ids []factor.SourceID) bool {
	if len(u.failures) == 0 || len(ids) == 0 {
		return false
	}
	for _, id := range ids {
		if _, failing := u.failures[id]; !failing {
			return false
		}
	}
	return true
}
