package webapi_test

import (
	"encoding/json"
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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func newTestApp(t *testing.T, maxRequests int, window time.Duration) *fiber.App {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.App{
		Env:    "test",
		Server: &config.Server{Scheme: "http", Host: "localhost", Port: 3000},
		Log:    &config.Log{},
		DB:     &config.DB{},
		Auth: &config.Auth{
			Strategy: "jwt",
			Jwt:      &config.Jwt{Secret: "webapi-test-secret", Expiry: time.Hour},
		},
		RateLimit: &config.RateLimit{MaxRequests: maxRequests, Window: window},
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

func makeRequest(t *testing.T, fiberApp *fiber.App, method, path string) *http.Response {
	t.Helper()
	resp, err := fiberApp.Test(httptest.NewRequest(method, path, nil), -1)
	require.NoError(t, err)
	return resp
}

func TestSetupApp_HealthRoute(t *testing.T) {
	fiberApp := newTestApp(t, 100, time.Minute)
	resp := makeRequest(t, fiberApp, fiber.MethodGet, "/")
	defer resp.Body.Close() //nolint: errcheck

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "running")
}

func TestSetupApp_MetricsRoute(t *testing.T) {
	fiberApp := newTestApp(t, 100, time.Minute)
	resp := makeRequest(t, fiberApp, fiber.MethodGet, "/metrics")
	defer resp.Body.Close() //nolint: errcheck

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "# HELP")
}

func TestSetupApp_DebugRoutes(t *testing.T) {
	fiberApp := newTestApp(t, 100, time.Minute)
	resp := makeRequest(t, fiberApp, fiber.MethodGet, "/debug/routes")
	defer resp.Body.Close() //nolint: errcheck

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var routes []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&routes))

	registered := make(map[string]bool)
	for _, route := range routes {
		registered[route["method"].(string)+" "+route["path"].(string)] = true
	}
	assert.True(t, registered["POST /appointment"])
	assert.True(t, registered["PUT /appointment/:id"])
	assert.True(t, registered["DELETE /appointment/:id"])
	assert.True(t, registered["GET /appointment/:id/messages"])
}

func TestSetupApp_UnknownRouteProblem(t *testing.T) {
	fiberApp := newTestApp(t, 100, time.Minute)
	resp := makeRequest(t, fiberApp, fiber.MethodGet, "/no-such-route")
	defer resp.Body.Close() //nolint: errcheck

	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentType), "application/problem+json")
}

func TestSetupApp_RateLimit(t *testing.T) {
	fiberApp := newTestApp(t, 3, 500*time.Millisecond)

	for i := range [4]int{} {
		resp := makeRequest(t, fiberApp, fiber.MethodGet, "/")
		resp.Body.Close() //nolint: errcheck
		if i < 3 {
			assert.Equal(t, fiber.StatusOK, resp.StatusCode, "request %d should pass", i+1)
		} else {
			assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode, "request %d should be limited", i+1)
		}
	}

	// Wait for the rate limit window to reset
	time.Sleep(600 * time.Millisecond)
	resp := makeRequest(t, fiberApp, fiber.MethodGet, "/")
	defer resp.Body.Close() //nolint: errcheck
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
