package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/spec-kit/practice-auth/internal/domain"
)

// MemoryStaffRepository is an indexed in-process directory.
type MemoryStaffRepository struct {
	mu      sync.RWMutex
	byID    map[string]domain.StaffRecord
	byEmail map[string]string
}

// NewMemoryStaffRepository seeds the directory with records.
func NewMemoryStaffRepository(records ...domain.StaffRecord) *MemoryStaffRepository {
	r := &MemoryStaffRepository{
		byID:    make(map[string]domain.StaffRecord),
		byEmail: make(map[string]string),
	}
	for _, rec := range records {
		_ = r.Create(context.Background(), &rec)
	}
	return r
}

func (r *MemoryStaffRepository) FindByEmail(_ context.Context, email string) (*domain.StaffRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrStaffNotFound
	}
	rec := r.byID[id]
	return &rec, nil
}

func (r *MemoryStaffRepository) FindByEmployeeID(_ context.Context, employeeID string) (*domain.StaffRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[employeeID]
	if !ok {
		return nil, ErrStaffNotFound
	}
	return &rec, nil
}

func (r *MemoryStaffRepository) UpdateCredential(_ context.Context, employeeID, hash, salt string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[employeeID]
	if !ok {
		return false, nil
	}
	rec.PasswordHash = hash
	rec.Salt = salt
	r.byID[employeeID] = rec
	return true, nil
}

func (r *MemoryStaffRepository) List(_ context.Context) ([]domain.StaffRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.StaffRecord, 0, len(r.byID))
	for _, rec := range r.byID {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

func (r *MemoryStaffRepository) Create(_ context.Context, rec *domain.StaffRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[rec.EmployeeID]; exists {
		return fmt.Errorf("%w: %s", ErrStaffExists, rec.EmployeeID)
	}
	r.byID[rec.EmployeeID] = *rec
	// Email lookups resolve to the lowest employee id, matching the SQL ordering.
	if rec.Email != "" {
		if current, ok := r.byEmail[rec.Email]; !ok || rec.EmployeeID < current {
			r.byEmail[rec.Email] = rec.EmployeeID
		}
	}
	return nil
}

func (r *MemoryStaffRepository) AdminFlag(_ context.Context, employeeID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[employeeID]
	if !ok {
		return false, ErrStaffNotFound
	}
	return rec.IsAdmin, nil
}
