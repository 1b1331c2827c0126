package auth

import (
	"context"
	"crypto/rand"
	"fmt"
)

// SecretStore is a persistent key-value configuration store.
type SecretStore interface {
	Get(ctx context.Context, name string) (string, bool, error)
	// PutIfAbsent stores value unless name already exists and returns the
	// value that ended up stored.
	PutIfAbsent(ctx context.Context, name, value string) (string, error)
}

// LoadOrCreateSecret returns the signing secret stored under name, generating
// and persisting one on first use. The second return value reports whether
// this call created it.
func LoadOrCreateSecret(ctx context.Context, store SecretStore, name string) (string, bool, error) {
	existing, ok, err := store.Get(ctx, name)
	if err != nil {
		return "", false, fmt.Errorf("read secret %s: %w", name, err)
	}
	if ok && existing != "" {
		return existing, false, nil
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", false, fmt.Errorf("generate secret: %w", err)
	}
	candidate := EncodeSegment(buf)

	stored, err := store.PutIfAbsent(ctx, name, candidate)
	if err != nil {
		return "", false, fmt.Errorf("store secret %s: %w", name, err)
	}
	return stored, stored == candidate, nil
}
