package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/practice-auth/internal/repository"
	"github.com/spec-kit/practice-auth/internal/session"
)

// AdminResolver decides whether a staff member holds admin rights. It never
// answers true unless the cache or the record store says so.
type AdminResolver struct {
	sessions *session.Store
	records  repository.RecordStore
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewAdminResolver builds the resolver.
func NewAdminResolver(sessions *session.Store, records repository.RecordStore, cacheTTL time.Duration, logger *zap.Logger) *AdminResolver {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &AdminResolver{sessions: sessions, records: records, cacheTTL: cacheTTL, logger: logger}
}

// IsUserAdmin resolves the admin flag of employeeID, or of the caller's
// session user when employeeID is empty. The cached flag belongs to the
// caller's session, so it is only consulted and refreshed for the caller.
func (r *AdminResolver) IsUserAdmin(ctx context.Context, employeeID string) bool {
	current, err := r.sessions.CurrentUser(ctx)
	if err != nil {
		r.logger.Warn("admin check: session read failed", zap.Error(err))
		current = nil
	}

	self := employeeID == "" || (current != nil && current.EmployeeID == employeeID)
	if self {
		admin, found, err := r.sessions.AdminFlag(ctx)
		switch {
		case err != nil:
			r.logger.Warn("admin check: cached flag unreadable", zap.Error(err))
		case found:
			return admin
		}
		if employeeID == "" {
			if current == nil {
				r.logger.Debug("admin check: no employee id and no session user")
				return false
			}
			employeeID = current.EmployeeID
		}
	}

	admin, err := r.records.AdminFlag(ctx, employeeID)
	if err != nil {
		if errors.Is(err, repository.ErrStaffNotFound) {
			r.logger.Info("admin check: unknown employee", zap.String("employee_id", employeeID))
		} else {
			r.logger.Error("admin check: record store lookup failed",
				zap.String("employee_id", employeeID), zap.Error(err))
		}
		return false
	}

	if self {
		if err := r.sessions.SetAdminFlag(ctx, admin, r.cacheTTL); err != nil {
			r.logger.Warn("admin check: caching flag failed", zap.String("employee_id", employeeID), zap.Error(err))
		}
	}
	return admin
}
