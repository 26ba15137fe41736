package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/MANROEJR/ifs24027-pbo-p11/internal/events"
)

// AuditService writes an audit log line for account and task events.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{dispatcher: dispatcher, logger: logger.Named("audit")}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, t := range []events.EventType{
		events.EventUserRegistered,
		events.EventUserLoggedIn,
		events.EventUserLoggedOut,
		events.EventPasswordChanged,
		events.EventTaskCreated,
		events.EventTaskDeleted,
	} {
		a.dispatcher.Subscribe(t, a.handle)
	}
}

func (a *AuditService) handle(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.String("user_id", event.UserID),
		zap.Time("at", event.Timestamp),
	}
	if event.Payload != nil {
		fields = append(fields, zap.Any("payload", event.Payload))
	}
	a.logger.Info("audit", fields...)
	return nil
}
