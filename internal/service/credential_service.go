package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/practice-auth/internal/auth"
	"github.com/spec-kit/practice-auth/internal/domain"
	"github.com/spec-kit/practice-auth/internal/events"
	"github.com/spec-kit/practice-auth/internal/persistence"
	"github.com/spec-kit/practice-auth/internal/repository"
	apperrors "github.com/spec-kit/practice-auth/pkg/util"
)

const migrationLockKey = "maintenance:password-migration"

// MigrationReport summarizes a bulk migration run.
type MigrationReport struct {
	Migrated int      `json:"migrated"`
	Skipped  int      `json:"skipped"`
	Failed   []string `json:"failed,omitempty"`
}

// CredentialService upgrades legacy credentials to salted hashes.
type CredentialService struct {
	directory  repository.StaffDirectory
	locks      persistence.KV
	lockTTL    time.Duration
	minHashLen int
	dispatcher events.Dispatcher
	logger     *zap.Logger

	mu sync.Mutex
}

// CredentialDependencies encapsulates collaborators for the credential service.
type CredentialDependencies struct {
	Directory  repository.StaffDirectory
	Locks      persistence.KV
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewCredentialService builds the service. lockTTL bounds how long a crashed
// run keeps other runs out; minHashLen is the legacy detection threshold.
func NewCredentialService(deps CredentialDependencies, lockTTL time.Duration, minHashLen int) *CredentialService {
	if lockTTL <= 0 {
		lockTTL = 10 * time.Minute
	}
	if minHashLen <= 0 {
		minHashLen = auth.DefaultLegacyHashMinLength
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CredentialService{
		directory:  deps.Directory,
		locks:      deps.Locks,
		lockTTL:    lockTTL,
		minHashLen: minHashLen,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// MigrateIfLegacy rewrites rec with a salted hash of password when rec still
// holds a legacy credential that password verifies against. rec is updated
// in place on success.
func (s *CredentialService) MigrateIfLegacy(ctx context.Context, employeeID, password string, rec *domain.StaffRecord) (bool, error) {
	if rec == nil || !rec.HasLegacyCredential() {
		return false, nil
	}
	if !auth.VerifyPassword(password, rec.PasswordHash, "") {
		return false, nil
	}

	salt := auth.GenerateSalt()
	hash := auth.HashPassword(password, salt)
	ok, err := s.directory.UpdateCredential(ctx, employeeID, hash, salt)
	if err != nil {
		return false, fmt.Errorf("migrate credential %s: %w", employeeID, err)
	}
	if !ok {
		return false, fmt.Errorf("migrate credential %s: %w", employeeID, repository.ErrStaffNotFound)
	}

	rec.PasswordHash = hash
	rec.Salt = salt
	s.logger.Info("legacy credential migrated", zap.String("employee_id", employeeID))
	publish(ctx, s.dispatcher, s.logger, events.EventCredentialMigrated, employeeID,
		events.CredentialMigratedPayload{Trigger: "login"})
	return true, nil
}

// BulkMigrate rewrites every legacy credential, treating the stored value as
// the plaintext password. Only one run may be active across all instances
// sharing the lock store. Rows that fail to update are reported together in
// a MIGRATION_FAILURE error after the remaining rows are processed.
func (s *CredentialService) BulkMigrate(ctx context.Context) (*MigrationReport, error) {
	if !s.mu.TryLock() {
		return nil, apperrors.NewMigrationInProgress()
	}
	defer s.mu.Unlock()

	release, err := s.acquireLock(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	records, err := s.directory.List(ctx)
	if err != nil {
		s.logger.Error("bulk migration: listing staff failed", zap.Error(err))
		return nil, apperrors.NewDirectoryUnavailable(err)
	}

	report := &MigrationReport{}
	var errs []error
	for _, rec := range records {
		if !auth.IsLegacyCredential(rec.PasswordHash, rec.Salt, s.minHashLen) {
			report.Skipped++
			continue
		}

		salt := auth.GenerateSalt()
		hash := auth.HashPassword(rec.PasswordHash, salt)
		ok, err := s.directory.UpdateCredential(ctx, rec.EmployeeID, hash, salt)
		if err == nil && !ok {
			err = repository.ErrStaffNotFound
		}
		if err != nil {
			s.logger.Error("bulk migration: row update failed", zap.String("employee_id", rec.EmployeeID), zap.Error(err))
			report.Failed = append(report.Failed, rec.EmployeeID)
			errs = append(errs, fmt.Errorf("%s: %w", rec.EmployeeID, err))
			continue
		}
		report.Migrated++
		s.logger.Info("bulk migration: credential migrated", zap.String("employee_id", rec.EmployeeID))
		publish(ctx, s.dispatcher, s.logger, events.EventCredentialMigrated, rec.EmployeeID,
			events.CredentialMigratedPayload{Trigger: "bulk"})
	}

	s.logger.Info("bulk migration finished",
		zap.Int("migrated", report.Migrated),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", len(report.Failed)))
	publish(ctx, s.dispatcher, s.logger, events.EventBulkMigrationCompleted, "", events.BulkMigrationPayload{
		Migrated: report.Migrated,
		Skipped:  report.Skipped,
		Failed:   report.Failed,
	})

	if len(report.Failed) > 0 {
		return report, apperrors.NewMigrationFailure(report.Failed, errors.Join(errs...))
	}
	return report, nil
}

func (s *CredentialService) acquireLock(ctx context.Context) (func(), error) {
	if s.locks == nil {
		return func() {}, nil
	}
	owner := uuid.NewString()
	ok, err := s.locks.SetNX(ctx, migrationLockKey, []byte(owner), s.lockTTL)
	if err != nil {
		s.logger.Error("bulk migration: lock unavailable", zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	if !ok {
		return nil, apperrors.NewMigrationInProgress()
	}
	return func() {
		// Another run may own the key once ours expired.
		held, err := s.locks.Get(context.WithoutCancel(ctx), migrationLockKey)
		if err != nil || string(held) != owner {
			return
		}
		if err := s.locks.Delete(context.WithoutCancel(ctx), migrationLockKey); err != nil {
			s.logger.Warn("bulk migration: releasing lock failed", zap.Error(err))
		}
	}, nil
}
