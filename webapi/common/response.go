// Package common provides the shared response envelope, problem details, and
// request binding helpers used by the web handlers.
package common

import (
	"errors"

	"github.com/amirasaad/appointments/pkg/domain/appointment"
	"github.com/amirasaad/appointments/pkg/refdata"
	"github.com/gofiber/fiber/v2"
)

// Response defines the standard API response structure for success cases.
type Response struct {
	Status  int    `json:"status"`         // HTTP status code
	Message string `json:"message"`        // Human-readable explanation
	Data    any    `json:"data,omitempty"` // Response data
}

// ProblemDetails follows RFC 9457 Problem Details for HTTP APIs.
type ProblemDetails struct {
	Type     string `json:"type,omitempty"`     // A URI reference that identifies the problem type
	Title    string `json:"title"`              // Short, human-readable summary
	Status   int    `json:"status"`             // HTTP status code
	Detail   string `json:"detail,omitempty"`   // Human-readable explanation
	Instance string `json:"instance,omitempty"` // URI reference that identifies the specific occurrence
	Errors   any    `json:"errors,omitempty"`   // Optional: additional error details
}

// SuccessResponseJSON writes the standard success envelope.
func SuccessResponseJSON(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(Response{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// ProblemDetailsJSON writes an RFC 9457 problem response. The status defaults
// to the mapping of err; extras may override it with an int, set the detail
// with a string, or attach structured errors with any other value.
func ProblemDetailsJSON(c *fiber.Ctx, title string, err error, extras ...any) error {
	pd := ProblemDetails{
		Type:  "about:blank",
		Title: title,
	}
	if err != nil {
		pd.Status = ErrorToStatusCode(err)
		pd.Detail = err.Error()
	} else {
		pd.Status = fiber.StatusBadRequest
	}
	for _, extra := range extras {
		switch v := extra.(type) {
		case int:
			pd.Status = v
		case string:
			pd.Detail = v
		default:
			pd.Errors = v
		}
	}
	pd.Instance = c.OriginalURL()
	c.Set(fiber.HeaderContentType, "application/problem+json")

	return c.Status(pd.Status).JSON(pd)
}

// ErrorToStatusCode maps domain errors to appropriate HTTP status codes.
func ErrorToStatusCode(err error) int {
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.Is(err, appointment.ErrAppointmentNotFound),
		errors.Is(err, appointment.ErrMessageNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, appointment.ErrConcurrentModification),
		errors.Is(err, appointment.ErrAppointmentNotModifiable),
		errors.Is(err, appointment.ErrAlreadyCancelled),
		errors.Is(err, appointment.ErrAlreadyExists):
		return fiber.StatusConflict
	case errors.Is(err, refdata.ErrNotFound):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, appointment.ErrPolicyRequired),
		errors.Is(err, appointment.ErrActorRequired),
		errors.Is(err, appointment.ErrUnknownType),
		errors.Is(err, appointment.ErrUnknownFrequency),
		errors.Is(err, appointment.ErrAmountNotPositive),
		errors.Is(err, appointment.ErrInvalidCurrencyCode),
		errors.Is(err, appointment.ErrInvalidSequence):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
