package handler

import (
	"time"

	"github.com/labstack/echo/v4"
)

// Response is the canonical JSON envelope for every API reply, success or
// failure: {timestamp, status, success, message, data|errors}.
type Response struct {
	Timestamp time.Time         `json:"timestamp"`
	Status    int               `json:"status"`
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	Data      any               `json:"data,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// OK writes a success envelope with the given status code.
func OK(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Response{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Success:   true,
		Message:   message,
		Data:      data,
	})
}

// Fail writes an error envelope with the given status code.
func Fail(c echo.Context, status int, message string, errs map[string]string) error {
	return c.JSON(status, Response{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Success:   false,
		Message:   message,
		Errors:    errs,
	})
}
