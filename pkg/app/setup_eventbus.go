package app

import (
	"github.com/amirasaad/appointments/pkg/domain/appointment"
	"github.com/amirasaad/appointments/pkg/handler/lifecycle"
)

// setupEventBus registers all event handlers with the provided event bus.
func (a *App) setupEventBus() {
	bus := a.Deps.EventBus
	if bus == nil {
		return
	}
	logger := a.Deps.Logger

	bus.Register(
		appointment.EventTypeCreated,
		lifecycle.HandleCreated(logger),
	)
	bus.Register(
		appointment.EventTypeModified,
		lifecycle.HandleModified(logger),
	)
	bus.Register(
		appointment.EventTypeCancelled,
		lifecycle.HandleCancelled(logger),
	)
}
