package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"booktracker/internal/auth"
	"booktracker/internal/catalog"
	"booktracker/internal/http/middleware"
	"booktracker/internal/model"
	"booktracker/internal/service"
	"booktracker/internal/validation"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

func writeValidationError(c *fiber.Ctx, verr *validation.Error) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    "VALIDATION_FAILED",
			Message: "validation failed",
			Fields:  verr.Fields,
		},
	})
}

// writeDomainError translates service, model, catalog and auth errors into the error envelope.
// Anything unrecognized is logged and answered with a generic 500.
func writeDomainError(c *fiber.Ctx, err error) error {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return writeValidationError(c, verr)
	}

	switch {
	case errors.Is(err, model.ErrPagesExceedTotal):
		return writeError(c, fiber.StatusUnprocessableEntity, "PAGES_EXCEED_TOTAL", err.Error())
	case errors.Is(err, model.ErrInvalidStatus):
		return writeError(c, fiber.StatusUnprocessableEntity, "INVALID_STATUS", "status must be one of want_to_read, currently_reading, finished")
	case errors.Is(err, service.ErrStatusConflict):
		return writeError(c, fiber.StatusConflict, "INVALID_STATUS", err.Error())
	case errors.Is(err, model.ErrInvalidRating):
		return writeError(c, fiber.StatusUnprocessableEntity, "INVALID_RATING", err.Error())
	case errors.Is(err, model.ErrNegativePages),
		errors.Is(err, model.ErrTitleRequired),
		errors.Is(err, model.ErrAuthorRequired),
		errors.Is(err, model.ErrJournalTooLong),
		errors.Is(err, service.ErrInvalidTotalPages),
		errors.Is(err, service.ErrIDRequired),
		errors.Is(err, catalog.ErrEmptyQuery):
		return writeError(c, fiber.StatusUnprocessableEntity, "VALIDATION_FAILED", err.Error())
	case errors.Is(err, service.ErrReaderNil):
		return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
	case errors.Is(err, service.ErrUnsupportedCover):
		return writeError(c, fiber.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", err.Error())
	case errors.Is(err, service.ErrNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrNoCover),
		errors.Is(err, catalog.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, auth.ErrInvalidGoogleToken), errors.Is(err, auth.ErrInvalidToken):
		return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials")
	case errors.Is(err, auth.ErrGoogleNotConfigured):
		return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", err.Error())
	case errors.Is(err, catalog.ErrRateLimited):
		return writeError(c, fiber.StatusTooManyRequests, "RATE_LIMITED", "catalog is busy, try again shortly")
	case errors.Is(err, catalog.ErrUpstream):
		return writeError(c, fiber.StatusBadGateway, "CATALOG_UNAVAILABLE", "book catalog is unavailable")
	}

	slog.ErrorContext(c.UserContext(), "request failed",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()))
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHORIZED", "authentication required")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		case fiber.StatusTooManyRequests:
			return writeError(c, status, "RATE_LIMITED", "too many requests")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
