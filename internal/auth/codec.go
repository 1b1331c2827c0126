package auth

import (
	"encoding/base64"
	"fmt"

	jwt "github.com/golang-jwt/jwt/v5"
)

var segmentEncoding = base64.RawURLEncoding.Strict()

// EncodeSegment encodes bytes as unpadded base64url.
func EncodeSegment(b []byte) string {
	return segmentEncoding.EncodeToString(b)
}

// DecodeSegment reverses EncodeSegment. Only the canonical encoding is
// accepted, so two distinct strings never decode to the same bytes.
func DecodeSegment(seg string) ([]byte, error) {
	b, err := segmentEncoding.DecodeString(seg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSegment, err)
	}
	return b, nil
}

// Sign computes HMAC-SHA256 of message under secret.
func Sign(message string, secret []byte) ([]byte, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	return jwt.SigningMethodHS256.Sign(message, secret)
}

// VerifySignature checks sig against message in constant time.
func VerifySignature(message string, sig, secret []byte) bool {
	if len(secret) == 0 {
		return false
	}
	return jwt.SigningMethodHS256.Verify(message, sig, secret) == nil
}
