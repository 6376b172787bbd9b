package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/identity-platform/auth-service/internal/api/handler"
	"github.com/identity-platform/auth-service/internal/core/domain"
)

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps the domain error taxonomy to deterministic HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders every failure through the canonical envelope.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg, fields := resolveError(err, log, c)
		_ = handler.Fail(c, code, msg, fields)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string, map[string]string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message), nil
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, "Validation failed", ve.Fields
	}

	var ae *domain.AlreadyExistsError
	if errors.As(err, &ae) {
		return http.StatusConflict, ae.Error(), nil
	}

	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		return http.StatusNotFound, nf.Error(), nil
	}

	var af *domain.AuthenticationFailedError
	if errors.As(err, &af) {
		// The wrapped cause stays server-side.
		log.Error().Err(af.Cause).Msg("authentication failed")
		return http.StatusUnauthorized, "Authentication failed", nil
	}

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid username or password", nil
	case errors.Is(err, domain.ErrTokenExpired):
		return http.StatusUnauthorized, "Token has expired", nil
	case errors.Is(err, domain.ErrTokenSignature):
		return http.StatusUnauthorized, "Invalid token signature", nil
	case errors.Is(err, domain.ErrTokenMalformed):
		return http.StatusUnauthorized, "Malformed JWT token", nil
	case errors.Is(err, domain.ErrTokenRevoked):
		return http.StatusUnauthorized, "Token has been revoked", nil
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "Authentication required", nil
	case errors.Is(err, domain.ErrInsufficientRole):
		return http.StatusForbidden, "Access denied: insufficient role", nil
	case errors.Is(err, domain.ErrInvalidRoleOperation):
		return http.StatusBadRequest, err.Error(), nil
	case errors.Is(err, domain.ErrUnknownRole):
		return http.StatusBadRequest, err.Error(), nil
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "Internal server error", nil
}
