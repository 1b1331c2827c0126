package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/practice-auth/internal/auth"
)

func TestHashPassword_KnownVector(t *testing.T) {
	// sha256("hunter2abc"), base64
	assert.Equal(t, "uKcp19GV1XLBu+X5AZKvVfMWEg7cwNWxrDCTH9K5jy4=", auth.HashPassword("hunter2", "abc"))
}

func TestVerifyPassword_Salted(t *testing.T) {
	passwords := []string{"hunter2", "p", "correct horse battery staple", "パスワード"}
	salts := []string{"abc", auth.GenerateSalt(), "x"}

	for _, p := range passwords {
		for _, s := range salts {
			hash := auth.HashPassword(p, s)
			assert.True(t, auth.VerifyPassword(p, hash, s), "%q/%q", p, s)
			assert.False(t, auth.VerifyPassword(p+"!", hash, s), "%q/%q", p, s)
			assert.False(t, auth.VerifyPassword("", hash, s))
		}
	}
}

func TestVerifyPassword_Legacy(t *testing.T) {
	stored := auth.LegacyEncode("hunter2")

	assert.Equal(t, "aHVudGVyMg==", stored)
	assert.True(t, auth.VerifyPassword("hunter2", stored, ""))
	assert.False(t, auth.VerifyPassword("hunter3", stored, ""))
}

func TestVerifyPassword_EmptyStoredHash(t *testing.T) {
	assert.False(t, auth.VerifyPassword("", "", ""))
	assert.False(t, auth.VerifyPassword("x", "", "salt"))
}

func TestGenerateSalt_Unique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		s := auth.GenerateSalt()
		assert.NotEmpty(t, s)
		_, dup := seen[s]
		assert.False(t, dup)
		seen[s] = struct{}{}
	}
}

func TestIsLegacyCredential(t *testing.T) {
	salted := auth.HashPassword("hunter2", "abc")

	assert.True(t, auth.IsLegacyCredential("aHVudGVyMg==", "", 20))
	assert.True(t, auth.IsLegacyCredential(salted, "", 20))
	assert.True(t, auth.IsLegacyCredential("short", "abc", 20))
	assert.False(t, auth.IsLegacyCredential(salted, "abc", 20))
	assert.False(t, auth.IsLegacyCredential(salted, "abc", 0))
}
