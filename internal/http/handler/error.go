package handler

import (
	"database/sql"
	"errors"

	"github.com/gofiber/fiber/v2"

	"patentcheck/internal/http/middleware"
	"patentcheck/internal/intake"
	"patentcheck/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: middleware.RequestIDFrom(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
// maxSize is the upload limit quoted when a body exceeds the server limit.
func ErrorHandler(maxSize int64) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "FILE_TOO_LARGE", intake.Describe(intake.ReasonTooLarge, maxSize))
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}

// writeServiceError maps service and intake errors onto the error envelope.
// Unknown errors become a 500 without leaking details.
func writeServiceError(c *fiber.Ctx, err error) error {
	var rej *intake.RejectionError
	if errors.As(err, &rej) {
		msg := intake.Describe(rej.Reason, rej.Limit, rej.Allowed...)
		switch rej.Reason {
		case intake.ReasonUnsupportedType:
			return writeError(c, fiber.StatusUnsupportedMediaType, "UNSUPPORTED_TYPE", msg)
		case intake.ReasonTooLarge:
			return writeError(c, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", msg)
		}
	}

	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
	case errors.Is(err, service.ErrAnalysisNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "analysis not found")
	case errors.Is(err, service.ErrIDRequired):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "id is required")
	case errors.Is(err, service.ErrTextRequired):
		return writeError(c, fiber.StatusBadRequest, "TEXT_REQUIRED", "text is required")
	case errors.Is(err, service.ErrUnsupportedFormat):
		return writeError(c, fiber.StatusBadRequest, "INVALID_FORMAT", "format must be json or yaml")
	case errors.Is(err, service.ErrAnalysisFinished):
		return writeError(c, fiber.StatusConflict, "ANALYSIS_FINISHED", "analysis already finished")
	case errors.Is(err, service.ErrAnalysisNotReady):
		return writeError(c, fiber.StatusConflict, "REPORT_NOT_READY", "analysis has not completed")
	case errors.Is(err, service.ErrAnalysisThrottled):
		c.Set(fiber.HeaderRetryAfter, "1")
		return writeError(c, fiber.StatusTooManyRequests, "ANALYSIS_THROTTLED", "too many analyses requested, slow down")
	case errors.Is(err, service.ErrAnalysisBusy):
		return writeError(c, fiber.StatusServiceUnavailable, "ANALYSIS_BUSY", "too many analyses in progress, try again later")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
