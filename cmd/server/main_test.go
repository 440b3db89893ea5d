package main_test

import (
	"io"
	"log"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	infraeventbus "github.com/amirasaad/appointments/infra/eventbus"
	"github.com/amirasaad/appointments/internal/fixtures/memrepo"
	"github.com/amirasaad/appointments/pkg/app"
	"github.com/amirasaad/appointments/pkg/config"
	"github.com/amirasaad/appointments/pkg/refdata"
	"github.com/amirasaad/appointments/webapi"
	"github.com/gofiber/fiber/v2"
)

// TestMain runs before any tests and applies globally for all tests in the package.
func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	log.SetOutput(io.Discard)

	exitVal := m.Run()
	os.Exit(exitVal)
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	logger := slog.Default()
	cfg := &config.App{
		Env:    "test",
		Server: &config.Server{Scheme: "http", Host: "localhost", Port: 3000},
		Log:    &config.Log{},
		DB:     &config.DB{},
		Auth: &config.Auth{
			Strategy: "jwt",
			Jwt:      &config.Jwt{Secret: "server-test-secret", Expiry: time.Hour},
		},
		RateLimit: &config.RateLimit{MaxRequests: 100, Window: time.Minute},
	}
	deps := config.Deps{
		Uow:      memrepo.NewUow(),
		Refdata:  refdata.NewRegistryWithDefaults(),
		EventBus: infraeventbus.NewWithMemory(logger),
		Logger:   logger,
		Now:      time.Now,
		Config:   cfg,
	}
	return webapi.SetupApp(app.New(deps, cfg))
}

func TestStartServer_RootRoute(t *testing.T) {
	fiberApp := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := fiberApp.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close() //nolint: errcheck

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status code %d, got %d", http.StatusOK, resp.StatusCode)
	}
}

func TestProtectedRoute_MissingToken(t *testing.T) {
	fiberApp := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/appointment", nil)
	resp, err := fiberApp.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close() //nolint: errcheck

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected %d for a missing token, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}

func TestNotFoundRoute(t *testing.T) {
	fiberApp := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/doesnotexist", nil)
	resp, err := fiberApp.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close() //nolint: errcheck

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
