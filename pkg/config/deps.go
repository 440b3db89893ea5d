package config

import (
	"log/slog"
	"time"

	"github.com/amirasaad/appointments/pkg/eventbus"
	"github.com/amirasaad/appointments/pkg/refdata"
	"github.com/amirasaad/appointments/pkg/repository"
)

// Deps holds all infrastructure dependencies for building the app and services.
type Deps struct {
	Uow      repository.UnitOfWork
	Refdata  refdata.Gateway
	EventBus eventbus.Bus
	Logger   *slog.Logger
	// Now supplies the processing date for lifecycle transitions.
	// Defaults to time.Now in the initializer; tests pin it.
	Now    func() time.Time
	Config *App
}
