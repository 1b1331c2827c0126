package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"

	"github.com/google/uuid"
)

// DefaultLegacyHashMinLength is the stored-hash length below which a
// credential is assumed to predate salted hashing.
const DefaultLegacyHashMinLength = 20

// GenerateSalt returns a fresh random salt.
func GenerateSalt() string {
	return uuid.NewString()
}

// HashPassword returns base64(SHA-256(password || salt)).
func HashPassword(password, salt string) string {
	sum := sha256.Sum256([]byte(password + salt))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// LegacyEncode returns the pre-migration encoding of a password.
// It is not a hash and is only kept to verify unmigrated records.
func LegacyEncode(password string) string {
	return base64.StdEncoding.EncodeToString([]byte(password))
}

// VerifyPassword checks input against the stored credential. An empty salt
// selects the legacy encoding.
func VerifyPassword(input, storedHash, salt string) bool {
	if storedHash == "" {
		return false
	}
	var computed string
	if salt == "" {
		computed = LegacyEncode(input)
	} else {
		computed = HashPassword(input, salt)
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}

// IsLegacyCredential reports whether a stored credential needs migration.
func IsLegacyCredential(storedHash, salt string, minLen int) bool {
	if minLen <= 0 {
		minLen = DefaultLegacyHashMinLength
	}
	return salt == "" || len(storedHash) < minLen
}
