package sigsession

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ironvault/sigcollector/pkg/factor"
)

// Claims extends the registered JWT claims with the scope a remote
// interactor token is restricted to.
type Claims struct {
	jwt.RegisteredClaims
	BatchID      string        `json:"batch_id"`
	AllowedKinds []factor.Kind `json:"allowed_kinds"`
	SerialOnly   bool          `json:"serial_only,omitempty"`
}

// Manager mints and validates interactor session tokens.
type Manager struct {
	keys KeySet
}

// NewManager builds a Manager backed by keys.
func NewManager(keys KeySet) *Manager {
	return &Manager{keys: keys}
}

// Issue mints a token scoping its holder to batchID and the given factor
// source kinds, valid for ttl.
func (m *Manager) Issue(batchID string, kinds []factor.Kind, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   batchID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "sigcollector/sigsession",
		},
		BatchID:      batchID,
		AllowedKinds: kinds,
	}

	signed, err := m.keys.Sign(context.Background(), claims)
	if err != nil {
		return "", fmt.Errorf("sigsession: issuing token for batch %s: %w", batchID, err)
	}
	return signed, nil
}

// Validate parses token and confirms it authorizes acting as kind for the
// named batch.
func (m *Manager) Validate(token string, batchID string, kind factor.Kind) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, m.keys.KeyFunc())
	if err != nil {
		return nil, fmt.Errorf("sigsession: parsing token: %w", err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	if claims.BatchID != batchID {
		return nil, fmt.Errorf("sigsession: token scoped to batch %s, not %s", claims.BatchID, batchID)
	}
	if !containsKind(claims.AllowedKinds, kind) {
		return nil, fmt.Errorf("sigsession: token not authorized for kind %s", kind)
	}
	return claims, nil
}

func containsKind(kinds []factor.Kind, kind factor.Kind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}
