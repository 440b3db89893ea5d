// Package lifecycle provides the event handlers that react to committed
// appointment transitions. Handlers run after the transaction; the ledger is
// already written when they fire.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/appointments/pkg/domain/appointment"
	"github.com/amirasaad/appointments/pkg/eventbus"
)

// HandleCreated handles AppointmentCreated events.
func HandleCreated(logger *slog.Logger) eventbus.HandlerFunc {
	return func(ctx context.Context, e eventbus.Event) error {
		created, ok := e.(appointment.CreatedEvent)
		if !ok {
			return fmt.Errorf("unexpected event type: %s", e.Type())
		}
		logger.Info("✅ appointment created",
			"handler", "lifecycle.HandleCreated",
			"appointment_id", created.AppointmentID,
			"policy_no", created.PolicyNo,
			"version", created.Version,
			"actor", created.Actor,
		)
		return nil
	}
}

// HandleModified handles AppointmentModified events.
func HandleModified(logger *slog.Logger) eventbus.HandlerFunc {
	return func(ctx context.Context, e eventbus.Event) error {
		modified, ok := e.(appointment.ModifiedEvent)
		if !ok {
			return fmt.Errorf("unexpected event type: %s", e.Type())
		}
		logger.Info("✅ appointment modified",
			"handler", "lifecycle.HandleModified",
			"appointment_id", modified.AppointmentID,
			"policy_no", modified.PolicyNo,
			"version", modified.Version,
			"actor", modified.Actor,
		)
		return nil
	}
}

// HandleCancelled handles AppointmentCancelled events.
func HandleCancelled(logger *slog.Logger) eventbus.HandlerFunc {
	return func(ctx context.Context, e eventbus.Event) error {
		cancelled, ok := e.(appointment.CancelledEvent)
		if !ok {
			return fmt.Errorf("unexpected event type: %s", e.Type())
		}
		logger.Info("✅ appointment cancelled",
			"handler", "lifecycle.HandleCancelled",
			"appointment_id", cancelled.AppointmentID,
			"policy_no", cancelled.PolicyNo,
			"version", cancelled.Version,
			"actor", cancelled.Actor,
		)
		return nil
	}
}
