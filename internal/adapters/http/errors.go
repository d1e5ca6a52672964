package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/meetpoint/meetpoint/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int             `json:"status"`
	Code      string          `json:"code"`    // Error code: bad_request, not_found, meetup_full, etc.
	Message   string          `json:"message"` // Human-readable message
	Allowed   []domain.Status `json:"allowed,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusBadRequest, "bad_request", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, "internal_error", msg)
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindConflict:
		return fiber.StatusConflict
	case domain.KindUpstreamUnavailable:
		return fiber.StatusBadGateway
	case domain.KindInvalid:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// errFromDomain renders a service error. Internal errors are logged and
// their detail is kept out of the response.
func errFromDomain(c *fiber.Ctx, err error) error {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	if kind == domain.KindInternal {
		LoggerFromCtx(c.UserContext()).ErrorContext(c.UserContext(), "request failed", "error", err)
		return errInternal(c, "internal error")
	}

	reqID, _ := c.Locals("requestid").(string)
	body := APIError{
		Status:    status,
		Code:      domain.CodeOf(err),
		Message:   err.Error(),
		RequestID: reqID,
	}
	var te *domain.TransitionError
	if errors.As(err, &te) {
		body.Allowed = te.Allowed
	}
	return c.Status(status).JSON(body)
}
