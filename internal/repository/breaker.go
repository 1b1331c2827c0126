package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/spec-kit/practice-auth/internal/config"
	"github.com/spec-kit/practice-auth/internal/domain"
)

// BreakerDirectory guards a Repository with a circuit breaker. Absence of a
// record counts as success; every other failure, including an open breaker,
// surfaces as ErrDirectoryUnavailable.
type BreakerDirectory struct {
	inner Repository
	cb    *gobreaker.CircuitBreaker
}

// NewBreakerDirectory wraps inner.
func NewBreakerDirectory(inner Repository, cfg config.BreakerConfig, logger *zap.Logger) *BreakerDirectory {
	failures := cfg.ConsecutiveFailures
	if failures == 0 {
		failures = 5
	}
	settings := gobreaker.Settings{
		Name:        "staff-directory",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval(),
		Timeout:     cfg.Timeout(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrStaffNotFound) || errors.Is(err, ErrStaffExists)
		},
	}
	return &BreakerDirectory{inner: inner, cb: gobreaker.NewCircuitBreaker(settings)}
}

// State exposes the breaker state for health reporting.
func (b *BreakerDirectory) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerDirectory) execute(fn func() (any, error)) (any, error) {
	res, err := b.cb.Execute(fn)
	if err == nil || errors.Is(err, ErrStaffNotFound) || errors.Is(err, ErrStaffExists) {
		return res, err
	}
	return nil, fmt.Errorf("%w: %v", ErrDirectoryUnavailable, err)
}

func (b *BreakerDirectory) record(fn func() (*domain.StaffRecord, error)) (*domain.StaffRecord, error) {
	res, err := b.execute(func() (any, error) { return fn() })
	if err != nil {
		return nil, err
	}
	return res.(*domain.StaffRecord), nil
}

func (b *BreakerDirectory) FindByEmail(ctx context.Context, email string) (*domain.StaffRecord, error) {
	return b.record(func() (*domain.StaffRecord, error) { return b.inner.FindByEmail(ctx, email) })
}

func (b *BreakerDirectory) FindByEmployeeID(ctx context.Context, employeeID string) (*domain.StaffRecord, error) {
	return b.record(func() (*domain.StaffRecord, error) { return b.inner.FindByEmployeeID(ctx, employeeID) })
}

func (b *BreakerDirectory) UpdateCredential(ctx context.Context, employeeID, hash, salt string) (bool, error) {
	res, err := b.execute(func() (any, error) { return b.inner.UpdateCredential(ctx, employeeID, hash, salt) })
	if err != nil {
		return false, err
	}
	return res.(bool), nil
}

func (b *BreakerDirectory) List(ctx context.Context) ([]domain.StaffRecord, error) {
	res, err := b.execute(func() (any, error) { return b.inner.List(ctx) })
	if err != nil {
		return nil, err
	}
	return res.([]domain.StaffRecord), nil
}

func (b *BreakerDirectory) Create(ctx context.Context, rec *domain.StaffRecord) error {
	_, err := b.execute(func() (any, error) { return nil, b.inner.Create(ctx, rec) })
	return err
}

func (b *BreakerDirectory) AdminFlag(ctx context.Context, employeeID string) (bool, error) {
	res, err := b.execute(func() (any, error) { return b.inner.AdminFlag(ctx, employeeID) })
	if err != nil {
		return false, err
	}
	return res.(bool), nil
}
