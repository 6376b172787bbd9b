package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/identity-platform/auth-service/internal/api/middleware"
	"github.com/identity-platform/auth-service/internal/core/domain"
)

// requireIdentity extracts the identity attached by the authentication
// middleware and fast-fails before any service call when it is absent.
// Handlers behind the authorization gate can rely on it being present; this
// guards against a route wired without its gate.
func requireIdentity(c echo.Context) (domain.Identity, error) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return domain.Identity{}, domain.ErrUnauthenticated
	}
	return id, nil
}
