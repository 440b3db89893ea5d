// Package app wires the configured services and event handlers from their
// infrastructure dependencies.
package app

import (
	"github.com/amirasaad/appointments/pkg/config"
	appointmentsvc "github.com/amirasaad/appointments/pkg/service/appointment"
)

// App bundles the application services consumed by the web layer.
type App struct {
	Deps               config.Deps
	Config             *config.App
	AppointmentService *appointmentsvc.Service
}

// New builds the application from its dependencies and registers the
// lifecycle event handlers on the bus.
func New(deps config.Deps, cfg *config.App) *App {
	app := &App{
		Deps:   deps,
		Config: cfg,
	}
	app.setupEventBus()

	app.AppointmentService = appointmentsvc.NewService(deps)
	return app
}
