// Package appointment provides the HTTP endpoints for the appointment
// lifecycle: add, modify, cancel, and the query surface over appointments
// and their audit messages.
package appointment

import (
	"errors"
	"time"

	"github.com/amirasaad/appointments/pkg/config"
	domain "github.com/amirasaad/appointments/pkg/domain/appointment"
	"github.com/amirasaad/appointments/pkg/dto"
	"github.com/amirasaad/appointments/pkg/mapper"
	"github.com/amirasaad/appointments/pkg/middleware"
	appointmentsvc "github.com/amirasaad/appointments/pkg/service/appointment"
	"github.com/amirasaad/appointments/webapi/common"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Routes registers HTTP routes for appointment lifecycle operations. All
// routes require a valid bearer token; the token subject is recorded as the
// acting party on every transition.
//
// Routes:
//   - POST   /appointment               : Add a new appointment (draft or active).
//   - PUT    /appointment/:id           : Modify an appointment with a full replacement.
//   - DELETE /appointment/:id           : Cancel an appointment.
//   - GET    /appointment               : List appointments with optional filters.
//   - GET    /appointment/:id           : Retrieve one appointment with its history.
//   - GET    /appointment/:id/messages  : Retrieve an appointment's audit messages.
func Routes(app *fiber.App, svc *appointmentsvc.Service, cfg *config.App) {
	app.Post("/appointment", middleware.JwtProtected(cfg.Auth.Jwt), Add(svc))
	app.Put("/appointment/:id", middleware.JwtProtected(cfg.Auth.Jwt), Modify(svc))
	app.Delete("/appointment/:id", middleware.JwtProtected(cfg.Auth.Jwt), Cancel(svc))
	app.Get("/appointment", middleware.JwtProtected(cfg.Auth.Jwt), List(svc))
	app.Get("/appointment/:id", middleware.JwtProtected(cfg.Auth.Jwt), Get(svc))
	app.Get("/appointment/:id/messages", middleware.JwtProtected(cfg.Auth.Jwt), Messages(svc))
}

// currentActor extracts the acting party from the verified JWT.
func currentActor(c *fiber.Ctx) (string, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return "", errors.New("missing user context")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.New("missing subject claim")
	}
	return sub, nil
}

// Add returns a Fiber handler that stages or activates a new appointment.
// A validation rejection responds 422 with the full failure list; a committed
// transition responds 201 with the appointment and its ledger message id.
// @Summary Add an appointment
// @Description Stages or activates a new appointment for a policy. Allocation legs or a remittance detail are validated as a whole; a rejection returns every violated rule.
// @Tags appointments
// @Accept json
// @Produce json
// @Param request body AddAppointmentRequest true "Appointment details"
// @Success 201 {object} common.Response "Appointment added"
// @Failure 400 {object} common.ProblemDetails "Invalid request"
// @Failure 401 {object} common.ProblemDetails "Unauthorized"
// @Failure 409 {object} common.ProblemDetails "Identifier already in use"
// @Failure 422 {object} common.ProblemDetails "Validation rejected"
// @Failure 429 {object} common.ProblemDetails "Too many requests"
// @Failure 500 {object} common.ProblemDetails "Internal server error"
// @Router /appointment [post]
// @Security Bearer
func Add(svc *appointmentsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, err.Error(), fiber.StatusUnauthorized)
		}
		input, err := common.BindAndValidate[AddAppointmentRequest](c)
		if input == nil {
			return err // error response already written
		}
		cmd, err := addCommandFromRequest(input, actor)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid appointment payload", err, fiber.StatusBadRequest)
		}
		res, err := svc.Add(c.UserContext(), cmd)
		if err != nil {
			log.Errorf("Failed to add appointment: %v", err)
			return common.ProblemDetailsJSON(c, "Failed to add appointment", err)
		}
		if res.Rejected() {
			return common.ProblemDetailsJSON(c, "Appointment validation failed", nil,
				ToFailureDTOs(res.Failures), fiber.StatusUnprocessableEntity)
		}
		return common.SuccessResponseJSON(c, fiber.StatusCreated, "Appointment added", TransitionDTO{
			Appointment: ToAppointmentDTO(mapper.MapAppointmentToRead(res.Appointment), time.Time{}),
			MessageID:   res.MessageID.String(),
		})
	}
}

// Modify returns a Fiber handler that applies a full replacement to an
// appointment. The stored legs and remittance are replaced by the request;
// omitted legs are removed, never kept.
// @Summary Modify an appointment
// @Description Replaces an appointment's financial terms, schedule, and allocation as a whole. The version advances on success; a lost concurrent write responds 409.
// @Tags appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param request body ModifyAppointmentRequest true "Replacement details"
// @Success 200 {object} common.Response "Appointment modified"
// @Failure 400 {object} common.ProblemDetails "Invalid request"
// @Failure 401 {object} common.ProblemDetails "Unauthorized"
// @Failure 404 {object} common.ProblemDetails "Appointment not found"
// @Failure 409 {object} common.ProblemDetails "Not modifiable or concurrent modification"
// @Failure 422 {object} common.ProblemDetails "Validation rejected"
// @Failure 429 {object} common.ProblemDetails "Too many requests"
// @Failure 500 {object} common.ProblemDetails "Internal server error"
// @Router /appointment/{id} [put]
// @Security Bearer
func Modify(svc *appointmentsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, err.Error(), fiber.StatusUnauthorized)
		}
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid appointment ID", err,
				"Appointment ID must be a valid UUID", fiber.StatusBadRequest)
		}
		input, err := common.BindAndValidate[ModifyAppointmentRequest](c)
		if input == nil {
			return err // error response already written
		}
		cmd, err := modifyCommandFromRequest(input, actor)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid appointment payload", err, fiber.StatusBadRequest)
		}
		res, err := svc.Modify(c.UserContext(), id, cmd)
		if err != nil {
			log.Errorf("Failed to modify appointment %s: %v", id, err)
			return common.ProblemDetailsJSON(c, "Failed to modify appointment", err)
		}
		if res.Rejected() {
			return common.ProblemDetailsJSON(c, "Appointment validation failed", nil,
				ToFailureDTOs(res.Failures), fiber.StatusUnprocessableEntity)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Appointment modified", TransitionDTO{
			Appointment: ToAppointmentDTO(mapper.MapAppointmentToRead(res.Appointment), time.Time{}),
			MessageID:   res.MessageID.String(),
		})
	}
}

// Cancel returns a Fiber handler that cancels an appointment. Cancellation is
// terminal: the allocation is cleared and no further transitions are
// accepted, while the record and its history stay queryable.
// @Summary Cancel an appointment
// @Description Cancels an appointment. The allocation is cleared, the version advances, and a final audit message is written.
// @Tags appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} common.Response "Appointment cancelled"
// @Failure 400 {object} common.ProblemDetails "Invalid request"
// @Failure 401 {object} common.ProblemDetails "Unauthorized"
// @Failure 404 {object} common.ProblemDetails "Appointment not found"
// @Failure 409 {object} common.ProblemDetails "Already cancelled"
// @Failure 429 {object} common.ProblemDetails "Too many requests"
// @Failure 500 {object} common.ProblemDetails "Internal server error"
// @Router /appointment/{id} [delete]
// @Security Bearer
func Cancel(svc *appointmentsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := currentActor(c)
		if err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, err.Error(), fiber.StatusUnauthorized)
		}
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid appointment ID", err,
				"Appointment ID must be a valid UUID", fiber.StatusBadRequest)
		}
		res, err := svc.Cancel(c.UserContext(), id, actor)
		if err != nil {
			log.Errorf("Failed to cancel appointment %s: %v", id, err)
			return common.ProblemDetailsJSON(c, "Failed to cancel appointment", err)
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Appointment cancelled", TransitionDTO{
			Appointment: ToAppointmentDTO(mapper.MapAppointmentToRead(res.Appointment), time.Time{}),
			MessageID:   res.MessageID.String(),
		})
	}
}

// Get returns a Fiber handler that retrieves one appointment together with
// its message history and next run date. Cancelled appointments remain
// readable.
// @Summary Get an appointment
// @Description Retrieves an appointment with its full audit history and, for live recurring appointments, the next run date.
// @Tags appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} common.Response "Appointment fetched"
// @Failure 400 {object} common.ProblemDetails "Invalid request"
// @Failure 401 {object} common.ProblemDetails "Unauthorized"
// @Failure 404 {object} common.ProblemDetails "Appointment not found"
// @Failure 429 {object} common.ProblemDetails "Too many requests"
// @Failure 500 {object} common.ProblemDetails "Internal server error"
// @Router /appointment/{id} [get]
// @Security Bearer
func Get(svc *appointmentsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := currentActor(c); err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, err.Error(), fiber.StatusUnauthorized)
		}
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid appointment ID", err,
				"Appointment ID must be a valid UUID", fiber.StatusBadRequest)
		}
		item, err := svc.Get(c.UserContext(), id)
		if err != nil {
			log.Errorf("Failed to fetch appointment %s: %v", id, err)
			return common.ProblemDetailsJSON(c, "Failed to fetch appointment", err)
		}
		messages := make([]MessageDTO, 0, len(item.Messages))
		for _, msg := range item.Messages {
			messages = append(messages, ToMessageDTO(msg))
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Appointment fetched", AppointmentDetailDTO{
			Appointment: ToAppointmentDTO(item.Appointment, item.NextRunAt),
			Messages:    messages,
		})
	}
}

// List returns a Fiber handler that lists appointments matching the query
// parameters policy_no, status, type, from, and to.
// @Summary List appointments
// @Description Lists appointments filtered by policy, status, type, and effective date range, each with its audit history.
// @Tags appointments
// @Accept json
// @Produce json
// @Param policy_no query string false "Policy number"
// @Param status query string false "Lifecycle status"
// @Param type query string false "Appointment type"
// @Param from query string false "Effective date lower bound (YYYY-MM-DD)"
// @Param to query string false "Effective date upper bound (YYYY-MM-DD)"
// @Success 200 {object} common.Response "Appointments fetched"
// @Failure 400 {object} common.ProblemDetails "Invalid request"
// @Failure 401 {object} common.ProblemDetails "Unauthorized"
// @Failure 429 {object} common.ProblemDetails "Too many requests"
// @Failure 500 {object} common.ProblemDetails "Internal server error"
// @Router /appointment [get]
// @Security Bearer
func List(svc *appointmentsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := currentActor(c); err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, err.Error(), fiber.StatusUnauthorized)
		}
		filter := dto.AppointmentQuery{
			PolicyNo: c.Query("policy_no"),
			Status:   c.Query("status"),
			Type:     c.Query("type"),
		}
		if from := c.Query("from"); from != "" {
			parsed, err := time.Parse(dateLayout, from)
			if err != nil {
				return common.ProblemDetailsJSON(c, "Invalid date filter", err,
					"from must be YYYY-MM-DD", fiber.StatusBadRequest)
			}
			filter.From = &parsed
		}
		if to := c.Query("to"); to != "" {
			parsed, err := time.Parse(dateLayout, to)
			if err != nil {
				return common.ProblemDetailsJSON(c, "Invalid date filter", err,
					"to must be YYYY-MM-DD", fiber.StatusBadRequest)
			}
			filter.To = &parsed
		}
		items, err := svc.Query(c.UserContext(), filter)
		if err != nil {
			log.Errorf("Failed to list appointments: %v", err)
			return common.ProblemDetailsJSON(c, "Failed to list appointments", err)
		}
		out := make([]AppointmentDetailDTO, 0, len(items))
		for _, item := range items {
			messages := make([]MessageDTO, 0, len(item.Messages))
			for _, msg := range item.Messages {
				messages = append(messages, ToMessageDTO(msg))
			}
			out = append(out, AppointmentDetailDTO{
				Appointment: ToAppointmentDTO(item.Appointment, item.NextRunAt),
				Messages:    messages,
			})
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Appointments fetched", out)
	}
}

// Messages returns a Fiber handler that retrieves an appointment's audit
// messages in version order.
// @Summary Get appointment messages
// @Description Retrieves the append-only audit messages of an appointment, one per lifecycle transition.
// @Tags appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} common.Response "Messages fetched"
// @Failure 400 {object} common.ProblemDetails "Invalid request"
// @Failure 401 {object} common.ProblemDetails "Unauthorized"
// @Failure 404 {object} common.ProblemDetails "Appointment not found"
// @Failure 429 {object} common.ProblemDetails "Too many requests"
// @Failure 500 {object} common.ProblemDetails "Internal server error"
// @Router /appointment/{id}/messages [get]
// @Security Bearer
func Messages(svc *appointmentsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := currentActor(c); err != nil {
			return common.ProblemDetailsJSON(c, "Unauthorized", nil, err.Error(), fiber.StatusUnauthorized)
		}
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return common.ProblemDetailsJSON(c, "Invalid appointment ID", err,
				"Appointment ID must be a valid UUID", fiber.StatusBadRequest)
		}
		reads, err := svc.Messages(c.UserContext(), id)
		if err != nil {
			log.Errorf("Failed to list messages for appointment %s: %v", id, err)
			return common.ProblemDetailsJSON(c, "Failed to list messages", err)
		}
		out := make([]MessageDTO, 0, len(reads))
		for _, read := range reads {
			out = append(out, ToMessageDTO(read))
		}
		return common.SuccessResponseJSON(c, fiber.StatusOK, "Messages fetched", out)
	}
}

func addCommandFromRequest(req *AddAppointmentRequest, actor string) (appointmentsvc.AddCommand, error) {
	cmd := appointmentsvc.AddCommand{
		PolicyNo:  req.PolicyNo,
		Type:      domain.Type(req.Type),
		Draft:     req.Draft,
		Amount:    decimal.NewFromFloat(req.Amount),
		Currency:  req.Currency,
		Frequency: domain.Frequency(req.Frequency),
		Legs:      legsFromRequest(req.Legs),
		Actor:     actor,
	}
	if req.ID != "" {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			return cmd, err
		}
		cmd.ID = id
	}
	effective, err := time.Parse(dateLayout, req.EffectiveDate)
	if err != nil {
		return cmd, err
	}
	cmd.EffectiveDate = effective
	if req.RecurrenceMonths > 0 {
		cmd.Recurrence = &domain.RecurrenceRule{IntervalMonths: req.RecurrenceMonths}
	}
	remit, err := remittanceFromRequest(req.Remittance)
	if err != nil {
		return cmd, err
	}
	cmd.Remittance = remit
	return cmd, nil
}

func modifyCommandFromRequest(req *ModifyAppointmentRequest, actor string) (appointmentsvc.ModifyCommand, error) {
	cmd := appointmentsvc.ModifyCommand{
		Amount:    decimal.NewFromFloat(req.Amount),
		Currency:  req.Currency,
		Frequency: domain.Frequency(req.Frequency),
		Legs:      legsFromRequest(req.Legs),
		Finalize:  req.Finalize,
		Actor:     actor,
	}
	effective, err := time.Parse(dateLayout, req.EffectiveDate)
	if err != nil {
		return cmd, err
	}
	cmd.EffectiveDate = effective
	if req.RecurrenceMonths > 0 {
		cmd.Recurrence = &domain.RecurrenceRule{IntervalMonths: req.RecurrenceMonths}
	}
	remit, err := remittanceFromRequest(req.Remittance)
	if err != nil {
		return cmd, err
	}
	cmd.Remittance = remit
	return cmd, nil
}

func legsFromRequest(legs []LegRequest) []domain.AllocationLeg {
	if len(legs) == 0 {
		return nil
	}
	out := make([]domain.AllocationLeg, 0, len(legs))
	for _, leg := range legs {
		out = append(out, domain.AllocationLeg{
			Type:       domain.LegType(leg.Type),
			FundCode:   leg.FundCode,
			Percentage: decimal.NewFromFloat(leg.Percentage),
			Sequence:   leg.Sequence,
		})
	}
	return out
}

func remittanceFromRequest(req *RemittanceRequest) (*domain.RemittanceDetail, error) {
	if req == nil {
		return nil, nil
	}
	remitDate, err := time.Parse(dateLayout, req.RemitDate)
	if err != nil {
		return nil, err
	}
	return &domain.RemittanceDetail{
		Disbursement: domain.Disbursement(req.Disbursement),
		BankCode:     req.BankCode,
		AccountNo:    req.AccountNo,
		Payee:        req.Payee,
		Swift:        req.Swift,
		Amount:       decimal.NewFromFloat(req.Amount),
		Currency:     req.Currency,
		RemitDate:    remitDate,
	}, nil
}
