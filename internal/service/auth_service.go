package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/practice-auth/internal/auth"
	"github.com/spec-kit/practice-auth/internal/domain"
	"github.com/spec-kit/practice-auth/internal/events"
	"github.com/spec-kit/practice-auth/internal/repository"
	"github.com/spec-kit/practice-auth/internal/session"
	apperrors "github.com/spec-kit/practice-auth/pkg/util"
)

// AuthService coordinates login, refresh, logout and admin checks.
type AuthService struct {
	directory   repository.StaffDirectory
	sessions    *session.Store
	tokens      *auth.TokenManager
	admins      *AdminResolver
	credentials *CredentialService
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Directory   repository.StaffDirectory
	Sessions    *session.Store
	Tokens      *auth.TokenManager
	Admins      *AdminResolver
	Credentials *CredentialService
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		directory:   deps.Directory,
		sessions:    deps.Sessions,
		tokens:      deps.Tokens,
		admins:      deps.Admins,
		credentials: deps.Credentials,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
	}
}

// LoginWithCredentials authenticates by employee id and password. Legacy
// credentials are upgraded to salted hashes on success.
func (s *AuthService) LoginWithCredentials(ctx context.Context, employeeID, password string) (*domain.LoginResult, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" || password == "" {
		return nil, apperrors.NewValidationError("employee id and password are required", nil)
	}

	rec, err := s.directory.FindByEmployeeID(ctx, employeeID)
	if err != nil {
		return nil, s.lookupFailed(ctx, events.MethodCredentials, zap.String("employee_id", employeeID), employeeID, err)
	}

	if !auth.VerifyPassword(password, rec.PasswordHash, rec.Salt) {
		s.logger.Warn("login rejected: password mismatch", zap.String("employee_id", employeeID))
		publish(ctx, s.dispatcher, s.logger, events.EventLoginFailed, employeeID,
			events.LoginPayload{Method: events.MethodCredentials, Reason: "password_mismatch"})
		return nil, apperrors.NewInvalidCredentials(nil)
	}

	if rec.HasLegacyCredential() && s.credentials != nil {
		if _, err := s.credentials.MigrateIfLegacy(ctx, employeeID, password, rec); err != nil {
			s.logger.Warn("legacy credential migration failed", zap.String("employee_id", employeeID), zap.Error(err))
		}
	}

	return s.startSession(ctx, *rec, events.MethodCredentials)
}

// LoginWithExternalIdentity trusts an email already authenticated upstream.
func (s *AuthService) LoginWithExternalIdentity(ctx context.Context, email string) (*domain.LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperrors.NewValidationError("no authenticated email address", nil)
	}

	rec, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		return nil, s.lookupFailed(ctx, events.MethodExternal, zap.String("email", email), "", err)
	}
	return s.startSession(ctx, *rec, events.MethodExternal)
}

func (s *AuthService) lookupFailed(ctx context.Context, method string, key zap.Field, employeeID string, err error) error {
	if errors.Is(err, repository.ErrStaffNotFound) {
		s.logger.Warn("login rejected: unknown staff member", key)
		publish(ctx, s.dispatcher, s.logger, events.EventLoginFailed, employeeID,
			events.LoginPayload{Method: method, Reason: "unknown_staff"})
		return apperrors.NewInvalidCredentials(nil)
	}
	s.logger.Error("login failed: directory lookup", key, zap.Error(err))
	return apperrors.NewDirectoryUnavailable(err)
}

func (s *AuthService) startSession(ctx context.Context, rec domain.StaffRecord, method string) (*domain.LoginResult, error) {
	sess, err := s.sessions.SaveSession(ctx, rec)
	if err != nil {
		s.logger.Error("login failed: saving session", zap.String("employee_id", rec.EmployeeID), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}

	s.logger.Info("login succeeded", zap.String("employee_id", rec.EmployeeID), zap.String("method", method))
	publish(ctx, s.dispatcher, s.logger, events.EventLoginSucceeded, rec.EmployeeID, events.LoginPayload{Method: method})
	return &domain.LoginResult{User: rec.Public(), Session: *sess}, nil
}

// RefreshUserToken exchanges the active refresh token of employeeID for a
// new token set. The refresh token rotates on success.
func (s *AuthService) RefreshUserToken(ctx context.Context, refreshToken, employeeID string) (*domain.Session, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" || refreshToken == "" {
		return nil, apperrors.NewValidationError("employee id and refresh token are required", nil)
	}

	stored, ok, err := s.sessions.RefreshToken(ctx, employeeID)
	if err != nil {
		s.logger.Error("refresh failed: session read", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	if !ok || subtle.ConstantTimeCompare([]byte(stored), []byte(refreshToken)) != 1 {
		s.logger.Warn("refresh rejected", zap.String("employee_id", employeeID), zap.Bool("token_present", ok))
		publish(ctx, s.dispatcher, s.logger, events.EventRefreshRejected, employeeID, nil)
		return nil, apperrors.NewInvalidRefreshToken(nil)
	}

	rec, err := s.directory.FindByEmployeeID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, repository.ErrStaffNotFound) {
			s.logger.Warn("refresh rejected: staff member no longer exists", zap.String("employee_id", employeeID))
			return nil, apperrors.NewInvalidRefreshToken(err)
		}
		s.logger.Error("refresh failed: directory lookup", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, apperrors.NewDirectoryUnavailable(err)
	}

	sess, err := s.sessions.SaveSession(ctx, *rec)
	if err != nil {
		s.logger.Error("refresh failed: saving session", zap.String("employee_id", employeeID), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}
	publish(ctx, s.dispatcher, s.logger, events.EventTokenRefreshed, employeeID, nil)
	return sess, nil
}

// Logout clears the caller's session and the refresh token of employeeID,
// resolving it from the session user when empty. Access tokens already
// issued remain valid until they expire.
func (s *AuthService) Logout(ctx context.Context, employeeID string) bool {
	if employeeID == "" {
		current, err := s.sessions.CurrentUser(ctx)
		if err != nil {
			s.logger.Warn("logout: session read failed", zap.Error(err))
		}
		if current != nil {
			employeeID = current.EmployeeID
		}
	}

	if err := s.sessions.Logout(ctx, employeeID); err != nil {
		s.logger.Error("logout failed", zap.String("employee_id", employeeID), zap.Error(err))
		return false
	}
	publish(ctx, s.dispatcher, s.logger, events.EventLoggedOut, employeeID, nil)
	return true
}

// IsUserAdmin reports whether employeeID, or the session user, is an admin.
func (s *AuthService) IsUserAdmin(ctx context.Context, employeeID string) bool {
	return s.admins.IsUserAdmin(ctx, employeeID)
}

// CurrentUser returns the caller's cached session user, or nil.
func (s *AuthService) CurrentUser(ctx context.Context) (*domain.StaffRecord, error) {
	return s.sessions.CurrentUser(ctx)
}

// UserFromToken verifies token and returns the staff member it names.
func (s *AuthService) UserFromToken(token string) (*domain.StaffRecord, error) {
	rec, err := s.tokens.UserFromToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpired) {
			return nil, apperrors.NewSessionExpired(err)
		}
		return nil, apperrors.NewInvalidToken(err)
	}
	return rec, nil
}
