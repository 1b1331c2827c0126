package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/spec-kit/practice-auth/internal/auth"
	"github.com/spec-kit/practice-auth/internal/domain"
	"github.com/spec-kit/practice-auth/internal/repository"
)

// SeedStaff is one entry of a staff seed file.
type SeedStaff struct {
	EmployeeID  string `json:"employee_id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Store       string `json:"store"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	IsAdmin     bool   `json:"is_admin"`
	// Legacy stores the password in the unsalted encoding.
	Legacy bool `json:"legacy"`
}

// Record converts the seed entry into a staff record with a hashed credential.
func (s SeedStaff) Record() domain.StaffRecord {
	rec := domain.StaffRecord{
		EmployeeID:  s.EmployeeID,
		DisplayName: s.DisplayName,
		Role:        s.Role,
		Store:       s.Store,
		Email:       s.Email,
		IsAdmin:     s.IsAdmin,
	}
	if s.Legacy {
		rec.PasswordHash = auth.LegacyEncode(s.Password)
		return rec
	}
	rec.Salt = auth.GenerateSalt()
	rec.PasswordHash = auth.HashPassword(s.Password, rec.Salt)
	return rec
}

// Seed creates the given staff members, skipping ones that already exist.
// It returns the number created.
func Seed(ctx context.Context, dir repository.StaffDirectory, entries []SeedStaff, logger *zap.Logger) (int, error) {
	created := 0
	for i, entry := range entries {
		if entry.EmployeeID == "" || entry.Password == "" {
			return created, fmt.Errorf("seed entry %d: employee_id and password are required", i)
		}
		rec := entry.Record()
		if err := dir.Create(ctx, &rec); err != nil {
			if errors.Is(err, repository.ErrStaffExists) {
				logger.Debug("seed: staff member exists", zap.String("employee_id", entry.EmployeeID))
				continue
			}
			return created, fmt.Errorf("seed %s: %w", entry.EmployeeID, err)
		}
		created++
	}
	logger.Info("seeded staff directory", zap.Int("created", created), zap.Int("entries", len(entries)))
	return created, nil
}

// ReadSeed decodes a JSON array of seed entries.
func ReadSeed(r io.Reader) ([]SeedStaff, error) {
	var entries []SeedStaff
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return entries, nil
}

// SeedFromFile seeds dir from the JSON file at path.
func SeedFromFile(ctx context.Context, dir repository.StaffDirectory, path string, logger *zap.Logger) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	entries, err := ReadSeed(f)
	if err != nil {
		return 0, err
	}
	return Seed(ctx, dir, entries, logger)
}
