package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

// SQLSettings persists named configuration values in app_settings.
type SQLSettings struct {
	db      *sql.DB
	dialect string
}

// NewSQLSettings constructs the store.
func NewSQLSettings(db *sql.DB, dialect string) *SQLSettings {
	return &SQLSettings{db: db, dialect: dialect}
}

// Get returns the value stored under name.
func (s *SQLSettings) Get(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		Rebind(s.dialect, `SELECT value FROM app_settings WHERE name = ?`), name,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("get setting: %w", err)
	}
	return value, true, nil
}

// PutIfAbsent inserts value unless name exists, then returns the stored value.
func (s *SQLSettings) PutIfAbsent(ctx context.Context, name, value string) (string, error) {
	if _, err := s.db.ExecContext(ctx,
		Rebind(s.dialect, `INSERT INTO app_settings (name, value) VALUES (?, ?) ON CONFLICT (name) DO NOTHING`),
		name, value,
	); err != nil {
		return "", fmt.Errorf("insert setting: %w", err)
	}
	stored, ok, err := s.Get(ctx, name)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("setting %s vanished after insert", name)
	}
	return stored, nil
}

// MemorySettings is the in-process settings store for the memory driver.
type MemorySettings struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemorySettings constructs an empty store.
func NewMemorySettings() *MemorySettings {
	return &MemorySettings{values: make(map[string]string)}
}

// Get returns the value stored under name.
func (m *MemorySettings) Get(_ context.Context, name string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[name]
	return v, ok, nil
}

// PutIfAbsent inserts value unless name exists, then returns the stored value.
func (m *MemorySettings) PutIfAbsent(_ context.Context, name, value string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.values[name]; ok {
		return existing, nil
	}
	m.values[name] = value
	return value, nil
}
