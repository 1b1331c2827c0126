package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/practice-auth/internal/config"
	"github.com/spec-kit/practice-auth/internal/domain"
)

func auditRepositories(t *testing.T) map[string]AuditRepository {
	t.Helper()
	return map[string]AuditRepository{
		"sqlite": NewSQLAuditRepository(testDB(t).db, config.DriverSQLite),
		"memory": NewMemoryAuditRepository(),
	}
}

func TestAuditRepository_ListByEmployeeNewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	entries := []domain.AuditEntry{
		{ID: "a1", EventType: "login_failed", EmployeeID: "E001", Scope: "default", Payload: map[string]any{"method": "credentials", "reason": "password_mismatch"}, CreatedAt: base},
		{ID: "a2", EventType: "login_succeeded", EmployeeID: "E001", Scope: "default", Payload: map[string]any{"method": "credentials"}, CreatedAt: base.Add(time.Hour)},
		{ID: "a3", EventType: "logged_out", EmployeeID: "E001", Scope: "tab-2", CreatedAt: base.Add(2 * time.Hour)},
		{ID: "b1", EventType: "login_succeeded", EmployeeID: "E002", Scope: "default", CreatedAt: base.Add(3 * time.Hour)},
	}

	for name, repo := range auditRepositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := range entries {
				require.NoError(t, repo.Create(ctx, &entries[i]))
			}

			got, err := repo.ListByEmployee(ctx, "E001", 0)
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, []string{"a3", "a2", "a1"}, []string{got[0].ID, got[1].ID, got[2].ID})
			assert.Equal(t, "tab-2", got[0].Scope)
			assert.Nil(t, got[0].Payload)
			assert.Equal(t, "password_mismatch", got[2].Payload["reason"])
			assert.True(t, base.Equal(got[2].CreatedAt), "created_at %v", got[2].CreatedAt)

			limited, err := repo.ListByEmployee(ctx, "E001", 1)
			require.NoError(t, err)
			require.Len(t, limited, 1)
			assert.Equal(t, "a3", limited[0].ID)

			none, err := repo.ListByEmployee(ctx, "E404", 10)
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestSQLAuditRepository_PostgresDialect(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	repo := NewSQLAuditRepository(db, config.DriverPostgres)
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(`(?s)INSERT INTO auth_audit .* VALUES \(\$1,\$2,\$3,\$4,\$5,\$6\)`).
		WithArgs("a1", "logged_out", "E001", "default", "null", at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`(?s)FROM auth_audit WHERE employee_id = \$1.*LIMIT \$2`).
		WithArgs("E001", 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_type", "employee_id", "scope", "payload", "created_at"}).
			AddRow("a1", "logged_out", "E001", "default", "null", at))

	require.NoError(t, repo.Create(context.Background(), &domain.AuditEntry{
		ID: "a1", EventType: "logged_out", EmployeeID: "E001", Scope: "default", CreatedAt: at,
	}))
	got, err := repo.ListByEmployee(context.Background(), "E001", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "logged_out", got[0].EventType)
	assert.NoError(t, mock.ExpectationsWereMet())
}
