package appointment_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
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
	"github.com/amirasaad/appointments/pkg/dto"
	"github.com/amirasaad/appointments/pkg/refdata"
	"github.com/amirasaad/appointments/pkg/validation"
	"github.com/amirasaad/appointments/webapi"
	"github.com/amirasaad/appointments/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

const testJwtSecret = "appointment-routes-test-secret"

// processing pins the transition date for every test.
var processing = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

type AppointmentRoutesTestSuite struct {
	suite.Suite
	app *fiber.App
	uow *memrepo.Uow
}

func (s *AppointmentRoutesTestSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := &config.App{
		Env:    "test",
		Server: &config.Server{Scheme: "http", Host: "localhost", Port: 3000},
		Log:    &config.Log{},
		DB:     &config.DB{},
		Auth: &config.Auth{
			Strategy: "jwt",
			Jwt:      &config.Jwt{Secret: testJwtSecret, Expiry: time.Hour},
		},
		RateLimit: &config.RateLimit{MaxRequests: 1000, Window: time.Minute},
	}
	s.uow = memrepo.NewUow()
	deps := config.Deps{
		Uow:      s.uow,
		Refdata:  refdata.NewRegistryWithDefaults(),
		EventBus: infraeventbus.NewWithMemory(logger),
		Logger:   logger,
		Now:      func() time.Time { return processing },
		Config:   cfg,
	}
	s.app = webapi.SetupApp(app.New(deps, cfg))
}

func (s *AppointmentRoutesTestSuite) mintToken(sub string) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJwtSecret))
	s.Require().NoError(err)
	return signed
}

func (s *AppointmentRoutesTestSuite) makeRequest(method, path, body, token string) *http.Response {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	s.Require().NoError(err)
	return resp
}

func (s *AppointmentRoutesTestSuite) decodeResponse(resp *http.Response) common.Response {
	var response common.Response
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&response))
	return response
}

func (s *AppointmentRoutesTestSuite) decodeProblem(resp *http.Response) common.ProblemDetails {
	var problem common.ProblemDetails
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&problem))
	return problem
}

func mixedAddBody() string {
	return `{
		"policy_no": "VL00000001",
		"type": "Mixed",
		"amount": 100000,
		"currency": "TWD",
		"effective_date": "2024-06-01",
		"frequency": "OneTime",
		"legs": [
			{"type": "Sell", "fund_code": "EQGL", "percentage": 60, "sequence": 1},
			{"type": "Sell", "fund_code": "EQAP", "percentage": 40, "sequence": 2},
			{"type": "Buy", "fund_code": "BDGV", "percentage": 100, "sequence": 3}
		]
	}`
}

func draftAddBody() string {
	return `{
		"policy_no": "VL00000001",
		"type": "Mixed",
		"draft": true,
		"amount": 100000,
		"currency": "TWD",
		"effective_date": "2024-06-01",
		"frequency": "OneTime",
		"legs": [
			{"type": "Sell", "fund_code": "EQGL", "percentage": 60, "sequence": 1},
			{"type": "Sell", "fund_code": "EQAP", "percentage": 40, "sequence": 2},
			{"type": "Buy", "fund_code": "BDGV", "percentage": 100, "sequence": 3}
		]
	}`
}

func modifyBody(finalize bool) string {
	return fmt.Sprintf(`{
		"amount": 150000,
		"currency": "TWD",
		"effective_date": "2024-07-01",
		"frequency": "Monthly",
		"finalize": %t,
		"legs": [
			{"type": "Sell", "fund_code": "EQGL", "percentage": 100, "sequence": 1},
			{"type": "Buy", "fund_code": "BDGV", "percentage": 100, "sequence": 2}
		]
	}`, finalize)
}

// addAppointment posts body and returns the created appointment's id.
func (s *AppointmentRoutesTestSuite) addAppointment(body, token string) string {
	resp := s.makeRequest("POST", "/appointment", body, token)
	defer resp.Body.Close() //nolint: errcheck
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)
	response := s.decodeResponse(resp)
	data := response.Data.(map[string]any)
	apt := data["appointment"].(map[string]any)
	return apt["id"].(string)
}

func (s *AppointmentRoutesTestSuite) TestAddRoute_Created() {
	token := s.mintToken("agent-007")
	resp := s.makeRequest("POST", "/appointment", mixedAddBody(), token)
	defer resp.Body.Close() //nolint: errcheck
	s.Equal(fiber.StatusCreated, resp.StatusCode)

	response := s.decodeResponse(resp)
	data := response.Data.(map[string]any)
	s.NotEmpty(data["message_id"])
	apt := data["appointment"].(map[string]any)
	s.Equal("Active", apt["status"])
	s.Equal(float64(1), apt["version"])
	s.Equal("100000.00", apt["amount"])
	s.Equal("agent-007", apt["created_by"])
	legs := apt["legs"].([]any)
	s.Require().Len(legs, 3)
	first := legs[0].(map[string]any)
	s.Equal("EQGL", first["fund_code"])
	s.Equal("60000.00", first["amount"])

	id, err := uuid.Parse(apt["id"].(string))
	s.Require().NoError(err)
	stored, err := s.uow.Appointments.Get(context.Background(), id)
	s.Require().NoError(err)
	s.Equal("Active", stored.Status)
	s.Equal("agent-007", stored.CreatedBy)
}

func (s *AppointmentRoutesTestSuite) TestAddRoute_ValidationRejected() {
	token := s.mintToken("agent-007")
	body := `{
		"policy_no": "VL00000001",
		"type": "Sell",
		"amount": 100000,
		"currency": "TWD",
		"effective_date": "2024-06-01",
		"frequency": "OneTime",
		"legs": [
			{"type": "Sell", "fund_code": "EQGL", "percentage": 60, "sequence": 1},
			{"type": "Sell", "fund_code": "EQAP", "percentage": 30, "sequence": 2}
		]
	}`
	resp := s.makeRequest("POST", "/appointment", body, token)
	defer resp.Body.Close() //nolint: errcheck
	s.Equal(fiber.StatusUnprocessableEntity, resp.StatusCode)

	problem := s.decodeProblem(resp)
	s.Equal("Appointment validation failed", problem.Title)
	failures := problem.Errors.([]any)
	s.Require().Len(failures, 1)
	failure := failures[0].(map[string]any)
	s.Equal(string(validation.CodeIncompleteAllocation), failure["code"])
	s.Contains(failure["message"].(string), "90.00")

	// Nothing was written.
	reads, err := s.uow.Appointments.List(context.Background(), dto.AppointmentQuery{})
	s.Require().NoError(err)
	s.Empty(reads)
}

func (s *AppointmentRoutesTestSuite) TestAddRoute_DuplicateIdentifier() {
	token := s.mintToken("agent-007")
	id := uuid.New().String()
	body := fmt.Sprintf(`{
		"id": %q,
		"policy_no": "VL00000001",
		"type": "Sell",
		"amount": 100000,
		"currency": "TWD",
		"effective_date": "2024-06-01",
		"frequency": "OneTime",
		"legs": [
			{"type": "Sell", "fund_code": "EQGL", "percentage": 100, "sequence": 1}
		]
	}`, id)

	resp := s.makeRequest("POST", "/appointment", body, token)
	resp.Body.Close() //nolint: errcheck
	s.Require().Equal(fiber.StatusCreated, resp.StatusCode)

	resp = s.makeRequest("POST", "/appointment", body, token)
	defer resp.Body.Close() //nolint: errcheck
	s.Equal(fiber.StatusConflict, resp.StatusCode)
}

func (s *AppointmentRoutesTestSuite) TestAddRoute_MissingToken() {
	resp := s.makeRequest("POST", "/appointment", mixedAddBody(), "")
	defer resp.Body.Close() //nolint: errcheck
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
}

func (s *AppointmentRoutesTestSuite) TestAddRoute_InvalidToken() {
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "intruder",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := forged.SignedString([]byte("some-other-secret"))
	s.Require().NoError(err)

	resp := s.makeRequest("POST", "/appointment", mixedAddBody(), signed)
	defer resp.Body.Close() //nolint: errcheck
	s.Equal(fiber.StatusUnauthorized, resp.StatusCode)
}

func (s *AppointmentRoutesTestSuite) TestAddRoute_MalformedBody() {
	token := s.mintToken("agent-007")
	resp := s.makeRequest("POST", "/appointment", `{"policy_no":123}`, token)
	defer resp.Body.Close() //nolint: errcheck
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
}

func (s *AppointmentRoutesTestSuite) TestAddRoute_MissingRequiredFields() {
	token := s.mintToken("agent-007")
	resp := s.makeRequest("POST", "/appointment", `{}`, token)
	defer resp.Body.Close() //nolint: errcheck
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)

	problem := s.decodeProblem(resp)
	s.Equal("Validation failed", problem.Title)
}

func (s *AppointmentRoutesTestSuite) TestModifyRoute_ReplacesTerms() {
	token := s.mintToken("agent-007")
	id := s.addAppointment(mixedAddBody(), token)

	resp := s.makeRequest("PUT", "/appointment/"+id, modifyBody(false), token)
	defer resp.Body.Close() //nolint: errcheck
	s.Equal(fiber.StatusOK, resp.StatusCode)

	response := s.decodeResponse(resp)
	data := response.Data.(map[string]any)
	s.NotEmpty(data["message_id"])
	apt := data["appointment"].(map[string]any)
	s.Equal("Modified", apt["status"])
	s.Equal(float64(2), apt["version"])
	s.Equal("150000.00", apt["amount"])
	s.Equal("Monthly", apt["frequency"])
	s.Len(apt["legs"].([]any), 2)
}

func (s *AppointmentRoutesTestSuite) TestModifyRoute_NotFound() {
	token := s.mintToken("agent-007")
	resp := s.makeRequest("PUT", "/appointment/"+uuid.New().String(), modifyBody(false), token)
	defer resp.Body.Close() //nolint: errcheck
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
}

func (s *AppointmentRoutesTestSuite) TestModifyRoute_InvalidID() {
	token := s.mintToken("agent-007")
	resp := s.makeRequest("PUT", "/appointment/not-a-uuid", modifyBody(false), token)
	defer resp.Body.Close() //nolint: errcheck
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
}

func (s *AppointmentRoutesTestSuite) TestCancelRoute_Terminal() {
	token := s.mintToken("agent-007")
	id := s.addAppointment(mixedAddBody(), token)

	resp := s.makeRequest("DELETE", "/appointment/"+id, "", token)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	response := s.decodeResponse(resp)
	resp.Body.Close() //nolint: errcheck
	apt := response.Data.(map[string]any)["appointment"].(map[string]any)
	s.Equal("Cancelled", apt["status"])
	s.Equal(float64(2), apt["version"])
	s.Nil(apt["legs"])

	// Cancellation is terminal: no further transitions are accepted.
	resp = s.makeRequest("DELETE", "/appointment/"+id, "", token)
	s.Equal(fiber.StatusConflict, resp.StatusCode)
	resp.Body.Close() //nolint: errcheck

	resp = s.makeRequest("PUT", "/appointment/"+id, modifyBody(false), token)
	s.Equal(fiber.StatusConflict, resp.StatusCode)
	resp.Body.Close() //nolint: errcheck

	// The record and its history stay readable.
	resp = s.makeRequest("GET", "/appointment/"+id, "", token)
	defer resp.Body.Close() //nolint: errcheck
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	detail := s.decodeResponse(resp).Data.(map[string]any)
	s.Equal("Cancelled", detail["appointment"].(map[string]any)["status"])
	s.Len(detail["messages"].([]any), 2)
}

func (s *AppointmentRoutesTestSuite) TestGetRoute_DraftFinalizedWithHistory() {
	token := s.mintToken("agent-007")
	id := s.addAppointment(draftAddBody(), token)

	resp := s.makeRequest("PUT", "/appointment/"+id, modifyBody(true), token)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	resp.Body.Close() //nolint: errcheck

	resp = s.makeRequest("GET", "/appointment/"+id, "", token)
	defer resp.Body.Close() //nolint: errcheck
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)

	detail := s.decodeResponse(resp).Data.(map[string]any)
	apt := detail["appointment"].(map[string]any)
	s.Equal("Active", apt["status"])
	s.Equal(float64(2), apt["version"])
	// Monthly cadence from 2024-07-01 seen at 2024-06-01: first run is the
	// effective date itself.
	s.Equal("2024-07-01", apt["next_run_at"])
	messages := detail["messages"].([]any)
	s.Require().Len(messages, 2)
	s.Equal("Add", messages[0].(map[string]any)["transition"])
	s.Equal("Modify", messages[1].(map[string]any)["transition"])
}

func (s *AppointmentRoutesTestSuite) TestGetRoute_NotFound() {
	token := s.mintToken("agent-007")
	resp := s.makeRequest("GET", "/appointment/"+uuid.New().String(), "", token)
	defer resp.Body.Close() //nolint: errcheck
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
}

func (s *AppointmentRoutesTestSuite) TestListRoute_FiltersByStatus() {
	token := s.mintToken("agent-007")
	s.addAppointment(mixedAddBody(), token)
	s.addAppointment(draftAddBody(), token)

	resp := s.makeRequest("GET", "/appointment?status=Active", "", token)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	items := s.decodeResponse(resp).Data.([]any)
	resp.Body.Close() //nolint: errcheck
	s.Require().Len(items, 1)
	apt := items[0].(map[string]any)["appointment"].(map[string]any)
	s.Equal("Active", apt["status"])

	resp = s.makeRequest("GET", "/appointment", "", token)
	defer resp.Body.Close() //nolint: errcheck
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	s.Len(s.decodeResponse(resp).Data.([]any), 2)
}

func (s *AppointmentRoutesTestSuite) TestListRoute_InvalidDateFilter() {
	token := s.mintToken("agent-007")
	resp := s.makeRequest("GET", "/appointment?from=June+1st", "", token)
	defer resp.Body.Close() //nolint: errcheck
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
}

func (s *AppointmentRoutesTestSuite) TestMessagesRoute_VersionOrdered() {
	token := s.mintToken("agent-007")
	id := s.addAppointment(mixedAddBody(), token)

	resp := s.makeRequest("PUT", "/appointment/"+id, modifyBody(false), token)
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)
	resp.Body.Close() //nolint: errcheck

	resp = s.makeRequest("GET", "/appointment/"+id+"/messages", "", token)
	defer resp.Body.Close() //nolint: errcheck
	s.Require().Equal(fiber.StatusOK, resp.StatusCode)

	messages := s.decodeResponse(resp).Data.([]any)
	s.Require().Len(messages, 2)
	first := messages[0].(map[string]any)
	second := messages[1].(map[string]any)
	s.Equal(float64(1), first["version"])
	s.Equal("Add", first["transition"])
	s.Equal(float64(2), second["version"])
	s.Equal("Modify", second["transition"])
	s.Equal("agent-007", second["actor"])
	s.NotEmpty(first["lines"])
}

func (s *AppointmentRoutesTestSuite) TestMessagesRoute_NotFound() {
	token := s.mintToken("agent-007")
	resp := s.makeRequest("GET", "/appointment/"+uuid.New().String()+"/messages", "", token)
	defer resp.Body.Close() //nolint: errcheck
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
}

func TestAppointmentRoutesTestSuite(t *testing.T) {
	suite.Run(t, new(AppointmentRoutesTestSuite))
}
