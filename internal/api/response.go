package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/liventcord/LiventCord-sub002/internal/service"
)

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SuccessResponse acknowledges writes that return no entity.
type SuccessResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Error sends a JSON error response.
func Error(c echo.Context, status int, code, message string) error {
	return c.JSON(status, ErrorResponse{Type: "error", Code: code, Message: message})
}

func success(c echo.Context, status int, message string) error {
	return c.JSON(status, SuccessResponse{Type: "success", Message: message})
}

// mapServiceError renders a service error. Anything that is not a
// *service.ServiceError is logged and reported as a bare 500.
func mapServiceError(c echo.Context, err error) error {
	var se *service.ServiceError
	if !errors.As(err, &se) {
		slog.Error("unhandled error", "method", c.Request().Method, "path", c.Path(), "error", err)
		return Error(c, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(se, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(se, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(se, service.ErrBadRequest):
		status = http.StatusBadRequest
	case errors.Is(se, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(se, service.ErrTooManyRequests):
		status = http.StatusTooManyRequests
	}
	return Error(c, status, se.Code, se.Message)
}
