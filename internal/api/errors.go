package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"evalgo.org/bffgate/internal/engine"
	"evalgo.org/bffgate/internal/store"
	"evalgo.org/bffgate/internal/validation"
	"evalgo.org/bffgate/models"
)

// APIError represents a structured API error with HTTP status code.
type APIError struct {
	Code       int                    `json:"code"`
	Message    string                 `json:"message"`
	Details    string                 `json:"details,omitempty"`
	FieldError map[string]string      `json:"field_errors,omitempty"`
	Context    map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

// NewAPIError creates a new API error.
func NewAPIError(code int, message string, details string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Common error constructors
func BadRequestError(message, details string) *APIError {
	return NewAPIError(http.StatusBadRequest, message, details)
}

func NotFoundError(resource, id string) *APIError {
	return &APIError{
		Code:    http.StatusNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Context: map[string]interface{}{"id": id},
	}
}

func ValidationError(message string, fieldErrors map[string]string) *APIError {
	return &APIError{
		Code:       http.StatusBadRequest,
		Message:    message,
		FieldError: fieldErrors,
	}
}

func InternalError(message, details string) *APIError {
	return NewAPIError(http.StatusInternalServerError, message, details)
}

func UnauthorizedError(message, details string) *APIError {
	return NewAPIError(http.StatusUnauthorized, message, details)
}

// storeError translates errors from store mutations.
func storeError(err error) error {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		fields := make(map[string]string, len(verr.Errors))
		for _, fe := range verr.Errors {
			fields[fe.Field] = fe.Message
		}
		return ValidationError("Validation failed", fields)
	case errors.Is(err, store.ErrNotFound):
		return NewAPIError(http.StatusNotFound, "Resource not found", err.Error())
	case errors.Is(err, models.ErrInvalidSource):
		return BadRequestError("Invalid mapping source", err.Error())
	default:
		return InternalError("Failed to update project", err.Error())
	}
}

// engineError translates errors returned by an execution. The partial report
// travels in the error context when there is one.
func engineError(err error, report *models.ExecutionReport) error {
	var apiErr *APIError
	switch {
	case errors.Is(err, engine.ErrDeadlineExceeded):
		apiErr = NewAPIError(http.StatusGatewayTimeout, "Execution deadline exceeded", err.Error())
	case errors.Is(err, engine.ErrUnknownEndpoint):
		apiErr = NewAPIError(http.StatusNotFound, "Resource not found", err.Error())
	case errors.Is(err, engine.ErrAuthFailed), errors.Is(err, engine.ErrSecurityDisabled):
		apiErr = UnauthorizedError("Authentication failed", err.Error())
	case errors.Is(err, engine.ErrInconsistentPlan):
		apiErr = InternalError("Execution aborted", err.Error())
	default:
		apiErr = NewAPIError(http.StatusBadGateway, "Execution failed", err.Error())
	}
	if report != nil {
		apiErr.Context = map[string]interface{}{
			"execution_id": report.ID,
			"response":     report.Response,
			"issues":       report.Issues,
		}
	}
	return apiErr
}

// HTTPErrorHandler is a custom error handler for Echo.
func HTTPErrorHandler(err error, c echo.Context) {
	// Don't send response if already sent
	if c.Response().Committed {
		return
	}

	var apiErr *APIError
	code := http.StatusInternalServerError

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		apiErr = &APIError{
			Code:    code,
			Message: getHTTPMessage(code),
			Details: fmt.Sprintf("%v", he.Message),
		}
	} else if ae, ok := err.(*APIError); ok {
		apiErr = ae
		code = ae.Code
	} else {
		apiErr = &APIError{
			Code:    code,
			Message: "Internal server error",
			Details: err.Error(),
		}
	}

	// Don't expose internal errors in production
	if code == http.StatusInternalServerError && !c.Echo().Debug {
		apiErr.Details = "An internal error occurred. Please try again later."
	}

	if code >= http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"status": code,
			"method": c.Request().Method,
			"path":   c.Request().URL.Path,
		}).WithError(err).Error("Request failed")
	}

	if err := c.JSON(code, apiErr); err != nil {
		log.WithError(err).Error("Failed to write error response")
	}
}

// getHTTPMessage returns a user-friendly message for HTTP status codes.
func getHTTPMessage(code int) string {
	messages := map[int]string{
		http.StatusBadRequest:            "Bad request",
		http.StatusUnauthorized:          "Unauthorized",
		http.StatusForbidden:             "Forbidden",
		http.StatusNotFound:              "Resource not found",
		http.StatusMethodNotAllowed:      "Method not allowed",
		http.StatusConflict:              "Conflict",
		http.StatusRequestEntityTooLarge: "Request entity too large",
		http.StatusUnprocessableEntity:   "Unprocessable entity",
		http.StatusTooManyRequests:       "Too many requests",
		http.StatusInternalServerError:   "Internal server error",
		http.StatusBadGateway:            "Bad gateway",
		http.StatusServiceUnavailable:    "Service unavailable",
		http.StatusGatewayTimeout:        "Gateway timeout",
	}

	if msg, ok := messages[code]; ok {
		return msg
	}
	return http.StatusText(code)
}
