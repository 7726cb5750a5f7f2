package factor

import (
	"fmt"
	"sort"
	"time"
)

// SourceID is an opaque identifier tagged by the kind of factor source it
// names. Two ids are equal iff both Kind and Value match; Value is opaque
// beyond that (it may be a device serial, a keycard UID, a mnemonic
// fingerprint, and so on — the coordinator never interprets it).
type SourceID struct {
	Kind  Kind
	Value string
}

// NewSourceID builds a SourceID. The value is never validated against the
// kind — that is the Profile collaborator's job, not the core's.
func NewSourceID(kind Kind, value string) SourceID {
	return SourceID{Kind: kind, Value: value}
}

func (id SourceID) String() string {
	return fmt.Sprintf("%s:%s", id.Kind, id.Value)
}

// Source is a known factor source: its id and the last time it was used,
// which orders it against siblings of the same kind.
type Source struct {
	ID         SourceID
	LastUsedAt time.Time
}

// Less orders sources by (kind friction rank, last-used ascending), so that
// ties within a kind are broken by a stable, earliest-first order.
func (s Source) Less(other Source) bool {
	if s.ID.Kind != other.ID.Kind {
		return s.ID.Kind.FrictionRank() < other.ID.Kind.FrictionRank()
	}
	if !s.LastUsedAt.Equal(other.LastUsedAt) {
		return s.LastUsedAt.Before(other.LastUsedAt)
	}
	return s.ID.Value < other.ID.Value
}

// SortSourcesByLastUsed sorts sources of a single kind ascending by
// last-used time, breaking ties by id for a stable, deterministic order.
func SortSourcesByLastUsed(sources []Source) {
	sort.SliceStable(sources, func(i, j int) bool {
		a, b := sources[i], sources[j]
		if !a.LastUsedAt.Equal(b.LastUsedAt) {
			return a.LastUsedAt.Before(b.LastUsedAt)
		}
		return a.ID.Value < b.ID.Value
	})
}

// DerivationPath is an opaque hierarchical-deterministic derivation path.
// The coordinator never parses it; it only compares it for equality.
type DerivationPath string

// Instance is a specific HD public-key position: a factor source plus a
// derivation path. Two instances are equal iff both components match.
type Instance struct {
	FactorSourceID SourceID
	Path           DerivationPath
}

// Equal reports whether i and other name the same derivation position.
func (i Instance) Equal(other Instance) bool {
	return i.FactorSourceID == other.FactorSourceID && i.Path == other.Path
}

func (i Instance) String() string {
	return fmt.Sprintf("%s/%s", i.FactorSourceID, i.Path)
}
