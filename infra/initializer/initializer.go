// Package initializer assembles the application dependencies from
// configuration: logger, reference data, database, unit of work, and the
// event bus.
package initializer

import (
	"time"

	"github.com/amirasaad/appointments/infra"
	infraeventbus "github.com/amirasaad/appointments/infra/eventbus"
	infrarepository "github.com/amirasaad/appointments/infra/repository"
	"github.com/amirasaad/appointments/pkg/config"
	"github.com/amirasaad/appointments/pkg/refdata"
)

// InitializeDependencies initializes all the application dependencies.
func InitializeDependencies(cfg *config.App) (
	deps *config.Deps,
	err error,
) {
	deps = &config.Deps{Config: cfg}
	logger := setupLogger(cfg.Log)
	deps.Logger = logger
	deps.Now = time.Now

	// Reference data ships as embedded fixtures until the upstream policy
	// admin feed is wired in.
	registry := refdata.NewRegistryWithDefaults()
	funds, policies, banks, currencies := registry.Counts()
	logger.Info("Reference data loaded",
		"funds", funds,
		"policies", policies,
		"banks", banks,
		"currencies", currencies,
	)
	deps.Refdata = registry

	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, err
	}
	if err = infra.Migrate(db); err != nil {
		logger.Error("Failed to migrate database schema", "error", err)
		return nil, err
	}

	deps.Uow = infrarepository.NewUoW(db)
	deps.EventBus = infraeventbus.NewWithMemory(logger)

	return
}
