package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MANROEJR/ifs24027-pbo-p11/internal/events"
	"github.com/MANROEJR/ifs24027-pbo-p11/internal/repository"
	apperrors "github.com/MANROEJR/ifs24027-pbo-p11/pkg/util"
)

// mapStoreError translates repository errors into domain errors for the HTTP layer.
func mapStoreError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, nil)
	case errors.Is(err, repository.ErrConflict):
		return apperrors.NewConflict(resource+" already exists", nil)
	case errors.Is(err, repository.ErrStoreUnavailable):
		return apperrors.NewStoreUnavailable("service unavailable", err)
	default:
		return apperrors.NewInternalError(err)
	}
}

// publish emits an event; handler failures are logged, never returned to the caller.
func publish(ctx context.Context, d events.Dispatcher, logger *zap.Logger, typ events.EventType, userID string, payload any) {
	if d == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      typ,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if err := d.Publish(ctx, event); err != nil && logger != nil {
		logger.Warn("event handler failed", zap.String("event_type", string(typ)), zap.Error(err))
	}
}
