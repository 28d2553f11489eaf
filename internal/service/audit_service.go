package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/shift-availability/internal/events"
)

// AuditService writes an audit line for every mutating operation.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventTokensIssued, a.record)
	a.dispatcher.Subscribe(events.EventTokenRevoked, a.record)
	a.dispatcher.Subscribe(events.EventTokensReset, a.record)
	a.dispatcher.Subscribe(events.EventTokensCleaned, a.record)
	a.dispatcher.Subscribe(events.EventAvailabilitySubmitted, a.record)
	a.dispatcher.Subscribe(events.EventRemindersSent, a.record)
}

func (a *AuditService) record(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event", string(event.Type)),
		zap.String("business_id", event.BusinessID),
		zap.String("actor", event.Actor.Type),
		zap.Time("at", event.Timestamp),
		zap.Any("payload", event.Payload),
	}
	if event.Actor.Subject != nil {
		fields = append(fields, zap.String("actor_id", *event.Actor.Subject))
	}
	a.logger.Info("audit", fields...)
	return nil
}
