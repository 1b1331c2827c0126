package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/practice-auth/internal/auth"
	"github.com/spec-kit/practice-auth/internal/domain"
	"github.com/spec-kit/practice-auth/internal/events"
	apperrors "github.com/spec-kit/practice-auth/pkg/util"
)

func bulkStaff() []domain.StaffRecord {
	return []domain.StaffRecord{
		saltedStaff(),
		{EmployeeID: "E010", PasswordHash: "plaintext-pw"},
		{EmployeeID: "E011", PasswordHash: "short", Salt: "stale-salt"},
		{EmployeeID: "E012", PasswordHash: auth.HashPassword("pw", "s"), Salt: "s"},
	}
}

func TestMigrateIfLegacy(t *testing.T) {
	f := newFixture(t, legacyStaff(), saltedStaff())
	ctx := context.Background()

	legacy := legacyStaff()
	ok, err := f.credentials.MigrateIfLegacy(ctx, "E002", "wrong", &legacy)
	require.NoError(t, err)
	assert.False(t, ok, "unverified passwords are never migrated")

	ok, err = f.credentials.MigrateIfLegacy(ctx, "E002", "letmein", &legacy)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, legacy.Salt)

	reloaded, err := f.directory.FindByEmployeeID(ctx, "E002")
	require.NoError(t, err)
	assert.Equal(t, legacy.Salt, reloaded.Salt)
	assert.True(t, auth.VerifyPassword("letmein", reloaded.PasswordHash, reloaded.Salt))

	salted := saltedStaff()
	ok, err = f.credentials.MigrateIfLegacy(ctx, "E001", "hunter2", &salted)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMigrateIfLegacy_MissingRecord(t *testing.T) {
	f := newFixture(t)
	legacy := legacyStaff()

	ok, err := f.credentials.MigrateIfLegacy(context.Background(), "E002", "letmein", &legacy)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestBulkMigrate(t *testing.T) {
	f := newFixture(t, bulkStaff()...)
	ctx := context.Background()

	report, err := f.credentials.BulkMigrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Migrated)
	assert.Equal(t, 2, report.Skipped)
	assert.Empty(t, report.Failed)

	rec, err := f.directory.FindByEmployeeID(ctx, "E010")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.Salt)
	assert.True(t, auth.VerifyPassword("plaintext-pw", rec.PasswordHash, rec.Salt))

	rec, err = f.directory.FindByEmployeeID(ctx, "E011")
	require.NoError(t, err)
	assert.NotEqual(t, "stale-salt", rec.Salt)
	assert.True(t, auth.VerifyPassword("short", rec.PasswordHash, rec.Salt))

	assert.Equal(t, int64(1), f.eventCount(events.EventBulkMigrationCompleted))

	// a second run finds nothing left to do and the lock was released
	report, err = f.credentials.BulkMigrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Migrated)
	assert.Equal(t, 4, report.Skipped)
}

func TestBulkMigrate_RowFailuresAreCollected(t *testing.T) {
	f := newFixture(t, bulkStaff()...)
	f.directory.failUpdates["E010"] = true
	ctx := context.Background()

	report, err := f.credentials.BulkMigrate(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeMigrationFailure))
	assert.Equal(t, []string{"E010"}, apperrors.ToDomainError(err).Details["employee_ids"])

	require.NotNil(t, report)
	assert.Equal(t, 1, report.Migrated)
	assert.Equal(t, []string{"E010"}, report.Failed)

	rec, err := f.directory.FindByEmployeeID(ctx, "E011")
	require.NoError(t, err)
	assert.NotEqual(t, "stale-salt", rec.Salt)
}

func TestBulkMigrate_HeldLock(t *testing.T) {
	f := newFixture(t, bulkStaff()...)
	ctx := context.Background()

	ok, err := f.kv.SetNX(ctx, migrationLockKey, []byte("other-instance"), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.credentials.BulkMigrate(ctx)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeMigrationInProgress))

	held, err := f.kv.Get(ctx, migrationLockKey)
	require.NoError(t, err)
	assert.Equal(t, "other-instance", string(held))
}

func TestBulkMigrate_ConcurrentRunsAreExclusive(t *testing.T) {
	f := newFixture(t, bulkStaff()...)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.credentials.BulkMigrate(ctx)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	for err := range results {
		if err != nil {
			assert.True(t, apperrors.HasCode(err, apperrors.CodeMigrationInProgress), "%v", err)
		}
	}

	// however the runs interleaved, each legacy row was migrated exactly once
	rec, err := f.directory.FindByEmployeeID(ctx, "E010")
	require.NoError(t, err)
	assert.True(t, auth.VerifyPassword("plaintext-pw", rec.PasswordHash, rec.Salt))
}
