package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/practice-auth/internal/auth"
	"github.com/spec-kit/practice-auth/internal/domain"
	"github.com/spec-kit/practice-auth/internal/events"
	"github.com/spec-kit/practice-auth/internal/observability"
	"github.com/spec-kit/practice-auth/internal/persistence"
	"github.com/spec-kit/practice-auth/internal/repository"
	"github.com/spec-kit/practice-auth/internal/session"
)

const testSecret = "service-test-secret"

var errBackend = errors.New("directory backend offline")

// stubDirectory fails selected operations on top of an in-memory directory.
type stubDirectory struct {
	*repository.MemoryStaffRepository
	failLookups bool
	failUpdates map[string]bool
}

func (s *stubDirectory) FindByEmployeeID(ctx context.Context, id string) (*domain.StaffRecord, error) {
	if s.failLookups {
		return nil, errBackend
	}
	return s.MemoryStaffRepository.FindByEmployeeID(ctx, id)
}

func (s *stubDirectory) FindByEmail(ctx context.Context, email string) (*domain.StaffRecord, error) {
	if s.failLookups {
		return nil, errBackend
	}
	return s.MemoryStaffRepository.FindByEmail(ctx, email)
}

func (s *stubDirectory) AdminFlag(ctx context.Context, id string) (bool, error) {
	if s.failLookups {
		return false, errBackend
	}
	return s.MemoryStaffRepository.AdminFlag(ctx, id)
}

func (s *stubDirectory) UpdateCredential(ctx context.Context, id, hash, salt string) (bool, error) {
	if s.failUpdates[id] {
		return false, errBackend
	}
	return s.MemoryStaffRepository.UpdateCredential(ctx, id, hash, salt)
}

type fixture struct {
	kv          *persistence.MemoryKV
	directory   *stubDirectory
	metrics     *observability.Metrics
	trail       *repository.MemoryAuditRepository
	tokens      *auth.TokenManager
	sessions    *session.Store
	admins      *AdminResolver
	credentials *CredentialService
	svc         *AuthService
	audit       *AuditService
}

func newFixture(t *testing.T, records ...domain.StaffRecord) *fixture {
	t.Helper()
	logger := zap.NewNop()

	f := &fixture{
		kv: persistence.NewMemoryKV(),
		directory: &stubDirectory{
			MemoryStaffRepository: repository.NewMemoryStaffRepository(records...),
			failUpdates:           map[string]bool{},
		},
		metrics: observability.NewMetrics(),
		trail:   repository.NewMemoryAuditRepository(),
		tokens:  auth.NewTokenManager(testSecret, time.Hour),
	}

	dispatcher := events.NewInMemoryDispatcher()
	f.audit = NewAuditService(dispatcher, logger, f.metrics, f.trail)
	f.audit.RegisterHandlers()

	f.sessions = session.NewStore(f.kv, f.tokens, 15*time.Minute, logger)
	f.admins = NewAdminResolver(f.sessions, f.directory, 5*time.Minute, logger)
	f.credentials = NewCredentialService(CredentialDependencies{
		Directory:  f.directory,
		Locks:      f.kv,
		Dispatcher: dispatcher,
		Logger:     logger,
	}, time.Minute, auth.DefaultLegacyHashMinLength)
	f.svc = NewAuthService(AuthDependencies{
		Directory:   f.directory,
		Sessions:    f.sessions,
		Tokens:      f.tokens,
		Admins:      f.admins,
		Credentials: f.credentials,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	return f
}

func (f *fixture) eventCount(eventType events.EventType) int64 {
	return f.metrics.Snapshot().AuthEvents[string(eventType)]
}

func saltedStaff() domain.StaffRecord {
	return domain.StaffRecord{
		EmployeeID:   "E001",
		DisplayName:  "Aoi Tanaka",
		Role:         "stylist",
		Store:        "Shibuya",
		Email:        "aoi@example.com",
		PasswordHash: auth.HashPassword("hunter2", "abc"),
		Salt:         "abc",
		IsAdmin:      true,
	}
}

func legacyStaff() domain.StaffRecord {
	return domain.StaffRecord{
		EmployeeID:   "E002",
		DisplayName:  "Ren Sato",
		Role:         "assistant",
		Store:        "Ginza",
		Email:        "ren@example.com",
		PasswordHash: auth.LegacyEncode("letmein"),
	}
}
