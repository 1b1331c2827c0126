package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/practice-auth/internal/auth"
	"github.com/spec-kit/practice-auth/internal/domain"
	"github.com/spec-kit/practice-auth/internal/persistence"
)

// Store keeps session state in a TTL key-value store.
type Store struct {
	kv         persistence.KV
	tokens     *auth.TokenManager
	refreshTTL time.Duration
	logger     *zap.Logger
}

// NewStore builds a session store.
func NewStore(kv persistence.KV, tokens *auth.TokenManager, refreshTTL time.Duration, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: kv, tokens: tokens, refreshTTL: refreshTTL, logger: logger}
}

// RefreshTTL returns the lifetime of refresh tokens and cached session fields.
func (s *Store) RefreshTTL() time.Duration {
	return s.refreshTTL
}

// SaveSession issues an access token for rec, then rotates its refresh token
// and caches the user and its admin flag in the caller's scope. Nothing is
// written when the access token cannot be issued.
func (s *Store) SaveSession(ctx context.Context, rec domain.StaffRecord) (*domain.Session, error) {
	token, err := s.tokens.GenerateToken(rec)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	blob, err := json.Marshal(rec.Public())
	if err != nil {
		return nil, fmt.Errorf("encode session user: %w", err)
	}

	refresh := uuid.NewString()
	if err := s.kv.Set(ctx, refreshKey(rec.EmployeeID), []byte(refresh), s.refreshTTL); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	if err := s.kv.Set(ctx, userKey(ctx), blob, s.refreshTTL); err != nil {
		return nil, fmt.Errorf("store session user: %w", err)
	}
	if err := s.SetAdminFlag(ctx, rec.IsAdmin, s.refreshTTL); err != nil {
		return nil, err
	}

	return &domain.Session{
		AccessToken:  token,
		RefreshToken: refresh,
		ExpiresIn:    int(s.tokens.TTL() / time.Second),
	}, nil
}

// CurrentUser returns the cached user for the caller's scope, or nil.
func (s *Store) CurrentUser(ctx context.Context) (*domain.StaffRecord, error) {
	blob, err := s.kv.Get(ctx, userKey(ctx))
	if err != nil {
		if errors.Is(err, persistence.ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session user: %w", err)
	}

	var rec domain.StaffRecord
	if err := json.Unmarshal(blob, &rec); err != nil || rec.EmployeeID == "" {
		s.logger.Warn("discarding undecodable session user", zap.String("scope", ScopeFromContext(ctx)))
		return nil, nil
	}
	return &rec, nil
}

// AdminFlag reads the cached admin flag for the caller's scope.
func (s *Store) AdminFlag(ctx context.Context) (admin bool, found bool, err error) {
	blob, err := s.kv.Get(ctx, adminKey(ctx))
	if err != nil {
		if errors.Is(err, persistence.ErrCacheMiss) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("read admin flag: %w", err)
	}
	if err := json.Unmarshal(blob, &admin); err != nil {
		return false, false, nil
	}
	return admin, true, nil
}

// SetAdminFlag caches the admin flag for the caller's scope.
func (s *Store) SetAdminFlag(ctx context.Context, admin bool, ttl time.Duration) error {
	blob, _ := json.Marshal(admin)
	if err := s.kv.Set(ctx, adminKey(ctx), blob, ttl); err != nil {
		return fmt.Errorf("store admin flag: %w", err)
	}
	return nil
}

// RefreshToken returns the active refresh token for employeeID.
func (s *Store) RefreshToken(ctx context.Context, employeeID string) (string, bool, error) {
	val, err := s.kv.Get(ctx, refreshKey(employeeID))
	if err != nil {
		if errors.Is(err, persistence.ErrCacheMiss) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read refresh token: %w", err)
	}
	return string(val), true, nil
}

// Logout removes the caller's cached user and admin flag and the refresh
// token of employeeID. Outstanding access tokens stay valid until they expire.
func (s *Store) Logout(ctx context.Context, employeeID string) error {
	keys := []string{userKey(ctx), adminKey(ctx)}
	if employeeID != "" {
		keys = append(keys, refreshKey(employeeID))
	}
	if err := s.kv.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
