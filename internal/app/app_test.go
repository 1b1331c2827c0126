package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/practice-auth/internal/auth"
	"github.com/spec-kit/practice-auth/internal/config"
)

func memoryConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "practice-auth", Version: "test", RequestTimeoutSeconds: 5},
		Database: config.DatabaseConfig{
			Driver: config.DriverMemory,
		},
		Redis: config.RedisConfig{Driver: config.DriverMemory},
		Auth: config.AuthConfig{
			SecretName:             "JWT_SECRET",
			TokenType:              "JWT",
			AccessTokenTTLSeconds:  3600,
			RefreshTokenTTLSeconds: 900,
			AdminCacheTTLSeconds:   300,
			LegacyHashMinLength:    20,
			ExternalIdentityHeader: "X-Auth-Request-Email",
			MigrationLockTTLSecs:   60,
			SessionCookieName:      "sid",
		},
		Breaker: config.BreakerConfig{MaxRequests: 1, IntervalSeconds: 60, TimeoutSeconds: 30, ConsecutiveFailures: 5},
	}
}

func testSeed() []SeedStaff {
	return []SeedStaff{
		{EmployeeID: "E001", DisplayName: "Aoi Tanaka", Role: "manager", Store: "Shibuya", Email: "aoi@example.com", Password: "hunter2", IsAdmin: true},
		{EmployeeID: "E002", DisplayName: "Ren Sato", Role: "stylist", Store: "Ginza", Email: "ren@example.com", Password: "letmein", Legacy: true},
	}
}

func newMemoryContainer(t *testing.T) *Container {
	t.Helper()
	c, err := New(context.Background(), memoryConfig(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(c.Close)

	_, err = Seed(context.Background(), c.Directory, testSeed(), zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestSeedStaff_Record(t *testing.T) {
	salted := testSeed()[0].Record()
	assert.NotEmpty(t, salted.Salt)
	assert.True(t, auth.VerifyPassword("hunter2", salted.PasswordHash, salted.Salt))

	legacy := testSeed()[1].Record()
	assert.Empty(t, legacy.Salt)
	assert.Equal(t, auth.LegacyEncode("letmein"), legacy.PasswordHash)
}

func TestSeed_SkipsExisting(t *testing.T) {
	c := newMemoryContainer(t)

	created, err := Seed(context.Background(), c.Directory, testSeed(), zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	_, err = Seed(context.Background(), c.Directory, []SeedStaff{{EmployeeID: "E003"}}, zap.NewNop())
	assert.Error(t, err)
}

func TestReadSeed(t *testing.T) {
	entries, err := ReadSeed(strings.NewReader(`[{"employee_id":"E9","password":"p","is_admin":true}]`))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].IsAdmin)

	_, err = ReadSeed(strings.NewReader(`[{"employee":"E9"}]`))
	assert.Error(t, err)
}

func TestNew_SQLiteKeepsSecretAcrossRestarts(t *testing.T) {
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "seed.json")
	require.NoError(t, os.WriteFile(seedPath,
		[]byte(`[{"employee_id":"E001","display_name":"Aoi","password":"hunter2","is_admin":true}]`), 0o600))

	cfg := memoryConfig()
	cfg.Database = config.DatabaseConfig{
		Driver:        config.DriverSQLite,
		DSN:           "file:" + filepath.Join(dir, "auth.db"),
		RunMigrations: true,
		SeedFile:      seedPath,
	}
	ctx := context.Background()

	first, err := New(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	res, err := first.Auth.LoginWithCredentials(ctx, "E001", "hunter2")
	require.NoError(t, err)
	first.Close()

	second, err := New(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	defer second.Close()

	// a token signed before the restart still verifies
	claims, err := second.Tokens.Verify(res.Session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "E001", claims.Subject)
	assert.Contains(t, second.HealthChecks(), config.DriverSQLite)

	history, err := second.Audit.History(ctx, "E001", 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "login_succeeded", history[0].EventType)
	assert.Equal(t, "credentials", history[0].Payload["method"])
}

func TestNew_ExplicitSecretWins(t *testing.T) {
	cfg := memoryConfig()
	cfg.Auth.TokenSecret = "explicit"

	c, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	token, err := c.Tokens.Issue(auth.Claims{Subject: "E001"}, time.Minute)
	require.NoError(t, err)
	_, err = auth.NewTokenManager("explicit", 0).Verify(token)
	assert.NoError(t, err)
}
