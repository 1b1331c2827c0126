package auth

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spec-kit/practice-auth/internal/domain"
)

const algHS256 = "HS256"

// TokenManager handles issuing and validating signed access tokens.
type TokenManager struct {
	secret    []byte
	ttl       time.Duration
	tokenType string
	now       func() time.Time
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithClock overrides the time source used for iat/exp.
func WithClock(now func() time.Time) TokenOption {
	return func(tm *TokenManager) {
		if now != nil {
			tm.now = now
		}
	}
}

// WithTokenType sets the typ header marker.
func WithTokenType(typ string) TokenOption {
	return func(tm *TokenManager) {
		if typ != "" {
			tm.tokenType = typ
		}
	}
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttl time.Duration, opts ...TokenOption) *TokenManager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	tm := &TokenManager{
		secret:    []byte(secret),
		ttl:       ttl,
		tokenType: "JWT",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(tm)
	}
	return tm
}

// Claims describes the token payload. Every field is required on decode.
type Claims struct {
	Subject   string `json:"sub"`
	Name      string `json:"name"`
	Store     string `json:"store"`
	Role      string `json:"role"`
	IsAdmin   bool   `json:"isAdmin"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// ClaimsFor maps a staff record onto token claims.
func ClaimsFor(rec domain.StaffRecord) Claims {
	return Claims{
		Subject: rec.EmployeeID,
		Name:    rec.DisplayName,
		Store:   rec.Store,
		Role:    rec.Role,
		IsAdmin: rec.IsAdmin,
	}
}

// StaffRecord rebuilds the public part of a staff record from claims.
func (c Claims) StaffRecord() domain.StaffRecord {
	return domain.StaffRecord{
		EmployeeID:  c.Subject,
		DisplayName: c.Name,
		Store:       c.Store,
		Role:        c.Role,
		IsAdmin:     c.IsAdmin,
	}
}

type tokenHeader struct {
	Alg string `json:"alg"`
	Typ string `json:"typ"`
}

type claimsWire struct {
	Subject   *string `json:"sub"`
	Name      *string `json:"name"`
	Store     *string `json:"store"`
	Role      *string `json:"role"`
	IsAdmin   *bool   `json:"isAdmin"`
	IssuedAt  *int64  `json:"iat"`
	ExpiresAt *int64  `json:"exp"`
}

func (w claimsWire) claims() (*Claims, error) {
	if w.Subject == nil || *w.Subject == "" || w.Name == nil || w.Store == nil ||
		w.Role == nil || w.IsAdmin == nil || w.IssuedAt == nil || w.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing required claims", ErrInvalidFormat)
	}
	return &Claims{
		Subject:   *w.Subject,
		Name:      *w.Name,
		Store:     *w.Store,
		Role:      *w.Role,
		IsAdmin:   *w.IsAdmin,
		IssuedAt:  *w.IssuedAt,
		ExpiresAt: *w.ExpiresAt,
	}, nil
}

// TTL returns the default access token lifetime.
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}

// GenerateToken issues an access token for rec using the default lifetime.
func (tm *TokenManager) GenerateToken(rec domain.StaffRecord) (string, error) {
	return tm.Issue(ClaimsFor(rec), tm.ttl)
}

// Issue stamps iat/exp onto claims and returns header.claims.signature.
func (tm *TokenManager) Issue(claims Claims, ttl time.Duration) (string, error) {
	if len(tm.secret) == 0 {
		return "", ErrMissingSecret
	}
	now := tm.now().Unix()
	claims.IssuedAt = now
	claims.ExpiresAt = now + floorSeconds(ttl)

	header, err := json.Marshal(tokenHeader{Alg: algHS256, Typ: tm.tokenType})
	if err != nil {
		return "", fmt.Errorf("encode header: %w", err)
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("encode claims: %w", err)
	}

	signingInput := EncodeSegment(header) + "." + EncodeSegment(payload)
	sig, err := Sign(signingInput, tm.secret)
	if err != nil {
		return "", err
	}
	return signingInput + "." + EncodeSegment(sig), nil
}

// floorSeconds rounds ttl down to whole seconds, so a negative sub-second
// ttl still yields a token that is already expired.
func floorSeconds(ttl time.Duration) int64 {
	secs := int64(ttl / time.Second)
	if ttl < 0 && ttl%time.Second != 0 {
		secs--
	}
	return secs
}

// Verify checks the signature and expiry and returns the decoded claims.
func (tm *TokenManager) Verify(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrInvalidFormat
	}

	sig, err := DecodeSegment(parts[2])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !VerifySignature(parts[0]+"."+parts[1], sig, tm.secret) {
		return nil, ErrInvalidSignature
	}

	payload, err := DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	var wire claimsWire
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	claims, err := wire.claims()
	if err != nil {
		return nil, err
	}

	if claims.ExpiresAt < tm.now().Unix() {
		return nil, ErrExpired
	}
	return claims, nil
}

// UserFromToken verifies token and returns the staff member it names.
func (tm *TokenManager) UserFromToken(token string) (*domain.StaffRecord, error) {
	claims, err := tm.Verify(token)
	if err != nil {
		return nil, err
	}
	rec := claims.StaffRecord()
	return &rec, nil
}
