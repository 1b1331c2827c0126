package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/spec-kit/practice-auth/internal/domain"
	"github.com/spec-kit/practice-auth/internal/persistence"
)

// AuditRepository stores audit entries.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditEntry) error
	// ListByEmployee returns the newest entries first.
	ListByEmployee(ctx context.Context, employeeID string, limit int) ([]domain.AuditEntry, error)
}

const defaultAuditLimit = 50

// SQLAuditRepository implements AuditRepository over database/sql.
type SQLAuditRepository struct {
	db      *sql.DB
	dialect string
}

// NewSQLAuditRepository builds repository.
func NewSQLAuditRepository(db *sql.DB, dialect string) *SQLAuditRepository {
	return &SQLAuditRepository{db: db, dialect: dialect}
}

func (r *SQLAuditRepository) Create(ctx context.Context, entry *domain.AuditEntry) error {
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("encode audit payload: %w", err)
	}
	_, err = r.db.ExecContext(ctx, persistence.Rebind(r.dialect, `
        INSERT INTO auth_audit (id, event_type, employee_id, scope, payload, created_at)
        VALUES (?,?,?,?,?,?)`),
		entry.ID,
		entry.EventType,
		entry.EmployeeID,
		entry.Scope,
		string(payload),
		entry.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *SQLAuditRepository) ListByEmployee(ctx context.Context, employeeID string, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	rows, err := r.db.QueryContext(ctx, persistence.Rebind(r.dialect, `
        SELECT id, event_type, employee_id, scope, payload, created_at
        FROM auth_audit WHERE employee_id = ?
        ORDER BY created_at DESC, id DESC LIMIT ?`),
		employeeID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var result []domain.AuditEntry
	for rows.Next() {
		var (
			entry   domain.AuditEntry
			payload string
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.EventType,
			&entry.EmployeeID,
			&entry.Scope,
			&payload,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if payload != "" && payload != "null" {
			if err := json.Unmarshal([]byte(payload), &entry.Payload); err != nil {
				return nil, fmt.Errorf("decode audit payload %s: %w", entry.ID, err)
			}
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

// MemoryAuditRepository keeps audit entries in process memory.
type MemoryAuditRepository struct {
	mu      sync.RWMutex
	entries []domain.AuditEntry
}

// NewMemoryAuditRepository builds an empty repository.
func NewMemoryAuditRepository() *MemoryAuditRepository {
	return &MemoryAuditRepository{}
}

func (r *MemoryAuditRepository) Create(_ context.Context, entry *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *MemoryAuditRepository) ListByEmployee(_ context.Context, employeeID string, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.AuditEntry
	for _, entry := range r.entries {
		if entry.EmployeeID == employeeID {
			result = append(result, entry)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
