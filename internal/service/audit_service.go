package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/practice-auth/internal/domain"
	"github.com/spec-kit/practice-auth/internal/events"
	"github.com/spec-kit/practice-auth/internal/observability"
	"github.com/spec-kit/practice-auth/internal/repository"
	"github.com/spec-kit/practice-auth/internal/session"
	apperrors "github.com/spec-kit/practice-auth/pkg/util"
)

// AuditService records auth events in the log, metrics and the audit trail.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	trail      repository.AuditRepository
}

// NewAuditService creates the service. trail may be nil, in which case events
// are only logged and counted.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics, trail repository.AuditRepository) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
		metrics:    metrics,
		trail:      trail,
	}
}

// History returns the newest audit entries for one staff member.
func (a *AuditService) History(ctx context.Context, employeeID string, limit int) ([]domain.AuditEntry, error) {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return nil, apperrors.NewValidationError("employee id is required", nil)
	}
	if a.trail == nil {
		return []domain.AuditEntry{}, nil
	}
	entries, err := a.trail.ListByEmployee(ctx, employeeID, limit)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	return entries, nil
}

// RegisterHandlers subscribes to every auth event.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		a.dispatcher.Subscribe(eventType, a.handle)
	}
}

func (a *AuditService) handle(ctx context.Context, event events.Event) error {
	a.metrics.RecordAuthEvent(string(event.Type))

	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Time("at", event.Timestamp),
	}
	if event.EmployeeID != "" {
		fields = append(fields, zap.String("employee_id", event.EmployeeID))
	}
	if event.Scope != "" && event.Scope != session.DefaultScope {
		fields = append(fields, zap.String("scope", event.Scope))
	}
	if event.Payload != nil {
		fields = append(fields, zap.Any("payload", event.Payload))
	}

	switch event.Type {
	case events.EventLoginFailed, events.EventRefreshRejected:
		a.logger.Warn("auth event", fields...)
	default:
		a.logger.Info("auth event", fields...)
	}

	if a.trail == nil {
		return nil
	}
	entry, err := auditEntry(event)
	if err != nil {
		return err
	}
	if err := a.trail.Create(ctx, entry); err != nil {
		return fmt.Errorf("persist audit entry %s: %w", event.ID, err)
	}
	return nil
}

func auditEntry(event events.Event) (*domain.AuditEntry, error) {
	entry := &domain.AuditEntry{
		ID:         event.ID,
		EventType:  string(event.Type),
		EmployeeID: event.EmployeeID,
		Scope:      event.Scope,
		CreatedAt:  event.Timestamp,
	}
	if event.Payload == nil {
		return entry, nil
	}
	raw, err := json.Marshal(event.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode event payload: %w", err)
	}
	if err := json.Unmarshal(raw, &entry.Payload); err != nil {
		return nil, fmt.Errorf("decode event payload: %w", err)
	}
	return entry, nil
}

func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, eventType events.EventType, employeeID string, payload interface{}) {
	if dispatcher == nil {
		return
	}
	event := events.NewEvent(eventType, employeeID, session.ScopeFromContext(ctx), payload)
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}
