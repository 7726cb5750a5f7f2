// Package sigsession issues and validates bearer tokens that scope a remote
// interactor to a single collection run: the token names the batch it was
// minted for and the factor source kinds the holder is allowed to act as,
// so a misdirected or replayed token cannot be used to answer a different
// petition than the one it was issued for.
package sigsession

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// KeySet manages the active signing key and verification of recently
// rotated-out keys, so in-flight tokens remain valid across a rotation.
type KeySet interface {
	Sign(ctx context.Context, claims jwt.Claims) (string, error)
	KeyFunc() jwt.Keyfunc
}

// InMemoryKeySet holds Ed25519 keys in memory with simple bounded retention
// of rotated-out keys. Every key is HKDF-derived from one root seed — the
// same derive-from-a-root-secret pattern core/pkg/governance/keyring.go
// uses for per-tenant keys — rather than drawing fresh entropy per
// rotation.
type InMemoryKeySet struct {
	mu         sync.RWMutex
	rootSeed   []byte
	currentKID string
	keys       map[string]ed25519.PrivateKey
}

// NewInMemoryKeySet builds a key set backed by one freshly generated root
// seed and one derived key.
func NewInMemoryKeySet() (*InMemoryKeySet, error) {
	rootSeed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(rootSeed); err != nil {
		return nil, fmt.Errorf("sigsession: generating root seed: %w", err)
	}
	ks := &InMemoryKeySet{rootSeed: rootSeed, keys: make(map[string]ed25519.PrivateKey)}
	if err := ks.Rotate(); err != nil {
		return nil, err
	}
	return ks, nil
}

// Rotate HKDF-derives a new active key from the keyset's root seed, using
// the new key id as the HKDF info parameter so each rotation yields a
// distinct key without drawing fresh entropy, and retains prior keys for
// verification up to a bounded count.
func (ks *InMemoryKeySet) Rotate() error {
	ks.mu.Lock()
	defer ks.mu.Unlock()

	kid := fmt.Sprintf("sigsession-%d", time.Now().UnixNano())

	hkdfReader := hkdf.New(sha256.New, ks.rootSeed, []byte("sigsession-rotation-kdf"), []byte(kid))
	seed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(hkdfReader, seed); err != nil {
		return fmt.Errorf("sigsession: deriving key for %s: %w", kid, err)
	}
	priv := ed25519.NewKeyFromSeed(seed)

	ks.keys[kid] = priv
	ks.currentKID = kid

	const maxRetained = 5
	if len(ks.keys) > maxRetained {
		for k := range ks.keys {
			if k != kid {
				delete(ks.keys, k)
				break
			}
		}
	}
	return nil
}

func (ks *InMemoryKeySet) Sign(ctx context.Context, claims jwt.Claims) (string, error) {
	ks.mu.RLock()
	kid := ks.currentKID
	key := ks.keys[kid]
	ks.mu.RUnlock()

	if key == nil {
		return "", fmt.Errorf("sigsession: no active signing key")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	token.Header["kid"] = kid
	return token.SignedString(key)
}

func (ks *InMemoryKeySet) KeyFunc() jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("sigsession: unexpected signing method %v", token.Header["alg"])
		}
		kid, ok := token.Header["kid"].(string)
		if !ok {
			return nil, fmt.Errorf("sigsession: token missing kid header")
		}
		ks.mu.RLock()
		defer ks.mu.RUnlock()
		key, ok := ks.keys[kid]
		if !ok {
			return nil, fmt.Errorf("sigsession: unknown key id %s", kid)
		}
		return key.Public(), nil
	}
}
