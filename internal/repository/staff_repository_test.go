package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/practice-auth/internal/config"
	"github.com/spec-kit/practice-auth/internal/domain"
	"github.com/spec-kit/practice-auth/internal/persistence"
)

func testDB(t *testing.T) *SQLStaffRepository {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "staff-test.db")

	db, err := persistence.OpenSQLite(ctx, "file:"+path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, persistence.RunMigrations(ctx, db, config.DriverSQLite, zap.NewNop()))
	return NewSQLStaffRepository(db, config.DriverSQLite)
}

func sampleStaff() []domain.StaffRecord {
	return []domain.StaffRecord{
		{EmployeeID: "E002", DisplayName: "Ren Sato", Role: "assistant", Store: "Ginza", Email: "shared@example.com", PasswordHash: "aHVudGVyMg==", IsAdmin: false},
		{EmployeeID: "E001", DisplayName: "Aoi Tanaka", Role: "stylist", Store: "Shibuya", Email: "shared@example.com", PasswordHash: "uKcp19GV1XLBu+X5AZKvVfMWEg7cwNWxrDCTH9K5jy4=", Salt: "abc", IsAdmin: true},
		{EmployeeID: "E003", DisplayName: "Mio Ito", Role: "manager", Store: "Ginza", Email: "mio@example.com", PasswordHash: "x", Salt: "y"},
	}
}

// Both implementations must satisfy the same contract.
func repositories(t *testing.T) map[string]Repository {
	t.Helper()
	sqlRepo := testDB(t)
	for _, rec := range sampleStaff() {
		require.NoError(t, sqlRepo.Create(context.Background(), &rec))
	}
	return map[string]Repository{
		"sqlite": sqlRepo,
		"memory": NewMemoryStaffRepository(sampleStaff()...),
	}
}

func TestStaffRepository_FindByEmployeeID(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			rec, err := repo.FindByEmployeeID(ctx, "E001")
			require.NoError(t, err)
			assert.Equal(t, sampleStaff()[1], *rec)

			_, err = repo.FindByEmployeeID(ctx, "E999")
			assert.ErrorIs(t, err, ErrStaffNotFound)
		})
	}
}

func TestStaffRepository_FindByEmailFirstMatch(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			rec, err := repo.FindByEmail(ctx, "shared@example.com")
			require.NoError(t, err)
			assert.Equal(t, "E001", rec.EmployeeID)

			_, err = repo.FindByEmail(ctx, "SHARED@example.com")
			assert.ErrorIs(t, err, ErrStaffNotFound)
		})
	}
}

func TestStaffRepository_UpdateCredential(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			ok, err := repo.UpdateCredential(ctx, "E002", "new-hash-value-0123456789", "new-salt")
			require.NoError(t, err)
			assert.True(t, ok)

			rec, err := repo.FindByEmployeeID(ctx, "E002")
			require.NoError(t, err)
			assert.Equal(t, "new-hash-value-0123456789", rec.PasswordHash)
			assert.Equal(t, "new-salt", rec.Salt)

			ok, err = repo.UpdateCredential(ctx, "E999", "h", "s")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStaffRepository_ListAndCreate(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			all, err := repo.List(ctx)
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, []string{"E001", "E002", "E003"},
				[]string{all[0].EmployeeID, all[1].EmployeeID, all[2].EmployeeID})

			dup := sampleStaff()[0]
			assert.ErrorIs(t, repo.Create(ctx, &dup), ErrStaffExists)
		})
	}
}

func TestStaffRepository_AdminFlag(t *testing.T) {
	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			admin, err := repo.AdminFlag(ctx, "E001")
			require.NoError(t, err)
			assert.True(t, admin)

			admin, err = repo.AdminFlag(ctx, "E002")
			require.NoError(t, err)
			assert.False(t, admin)

			_, err = repo.AdminFlag(ctx, "E999")
			assert.ErrorIs(t, err, ErrStaffNotFound)
		})
	}
}

func TestSQLStaffRepository_PostgresDialect(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSQLStaffRepository(db, config.DriverPostgres)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT .+ FROM staff_members WHERE email = \$1 ORDER BY employee_id LIMIT 1`).
		WithArgs("aoi@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"employee_id", "display_name", "role", "store", "email", "password_hash", "salt", "is_admin",
		}).AddRow("E001", "Aoi Tanaka", "stylist", "Shibuya", "aoi@example.com", "h", "s", true))

	rec, err := repo.FindByEmail(ctx, "aoi@example.com")
	require.NoError(t, err)
	assert.Equal(t, "E001", rec.EmployeeID)
	assert.True(t, rec.IsAdmin)

	mock.ExpectExec(`UPDATE staff_members\s+SET password_hash = \$1, salt = \$2, updated_at = CURRENT_TIMESTAMP\s+WHERE employee_id = \$3`).
		WithArgs("hash", "salt", "E001").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.UpdateCredential(ctx, "E001", "hash", "salt")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectQuery(`SELECT is_admin FROM staff_members WHERE employee_id = \$1`).
		WithArgs("E404").
		WillReturnRows(sqlmock.NewRows([]string{"is_admin"}))

	_, err = repo.AdminFlag(ctx, "E404")
	assert.ErrorIs(t, err, ErrStaffNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLStaffRepository_BackendErrorIsNotNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSQLStaffRepository(db, config.DriverPostgres)
	boom := errors.New("connection reset")
	mock.ExpectQuery(`SELECT .+ FROM staff_members WHERE employee_id = \$1`).
		WithArgs("E001").
		WillReturnError(boom)

	_, err = repo.FindByEmployeeID(context.Background(), "E001")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrStaffNotFound)
}
