// Package sigrate paces how fast the collector loop invokes serial
// interactors — a hardware wallet or a security-question dialog answers one
// prompt at a time, and hammering it faster than a human or a physical
// device can respond just produces more failures to treat as skips. Pacing
// is a courtesy to the interactor, never a petition-level concern.
package sigrate

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/ironvault/sigcollector/pkg/factor"
)

// Limiter paces calls attributed to a factor source kind.
type Limiter interface {
	Wait(ctx context.Context, kind factor.Kind) error
}

// LocalLimiter paces each kind independently with an in-process token
// bucket; it has no visibility into other collector processes.
type LocalLimiter struct {
	buckets map[factor.Kind]*rate.Limiter
	rps     float64
	burst   int
}

// NewLocalLimiter builds a limiter allowing rps calls per second per kind,
// with burst headroom.
func NewLocalLimiter(rps float64, burst int) *LocalLimiter {
	return &LocalLimiter{
		buckets: make(map[factor.Kind]*rate.Limiter),
		rps:     rps,
		burst:   burst,
	}
}

// Wait blocks until kind's bucket has a token, or ctx is cancelled.
func (l *LocalLimiter) Wait(ctx context.Context, kind factor.Kind) error {
	b, ok := l.buckets[kind]
	if !ok {
		b = rate.NewLimiter(rate.Limit(l.rps), l.burst)
		l.buckets[kind] = b
	}
	return b.Wait(ctx)
}
