package main

import (
	"fmt"
	"log/slog"

	_ "github.com/amirasaad/appointments/docs" // swagger docs
	"github.com/amirasaad/appointments/infra/initializer"
	"github.com/amirasaad/appointments/pkg/app"
	"github.com/amirasaad/appointments/pkg/config"
	"github.com/amirasaad/appointments/webapi"
	log "github.com/charmbracelet/log"
)

// @title Appointments API
// @version 1.0.0
// @description Investment appointment transaction and allocation engine
// @termsOfService http://swagger.io/terms/
// @contact.name API Support
// @contact.email fiber@swagger.io
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/MIT
// @host localhost:3000
// @BasePath /
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description "Enter your Bearer token in the format: `Bearer {token}`"
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load configuration
	logger := slog.Default()
	cfg, err := config.Load(".env")

	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	// Initialize all dependencies
	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	// Create the application and its HTTP surface
	app := app.New(deps, cfg)
	fiberApp := webapi.SetupApp(app)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("starting server",
		"env", cfg.Env,
		"address", addr,
		"scheme", cfg.Server.Scheme,
	)

	return fiberApp.Listen(addr)
}
