package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// WelcomeHandler serves the role-gated demonstration endpoints. The handlers
// themselves carry no authorization logic; each route's rule lives in the
// router so the gate stays independent of the handler.
type WelcomeHandler struct{}

func NewWelcomeHandler() *WelcomeHandler {
	return &WelcomeHandler{}
}

// Welcome echoes the authenticated identity.
func (h *WelcomeHandler) Welcome(c echo.Context) error {
	identity, err := requireIdentity(c)
	if err != nil {
		return err
	}
	return OK(c, http.StatusOK, "Welcome to Auth Service", map[string]string{
		"user": identity.Username,
		"role": string(identity.Role),
	})
}

func (h *WelcomeHandler) UserEndpoint(c echo.Context) error {
	return OK(c, http.StatusOK, "User Endpoint", map[string]string{
		"access_level": "All authenticated users",
		"permissions":  "Basic user permissions",
	})
}

func (h *WelcomeHandler) ModeratorEndpoint(c echo.Context) error {
	return OK(c, http.StatusOK, "Moderator Endpoint", map[string]string{
		"access_level": "Moderators and above",
		"permissions":  "Content moderation capabilities",
	})
}

func (h *WelcomeHandler) SupervisorEndpoint(c echo.Context) error {
	return OK(c, http.StatusOK, "Supervisor Endpoint", map[string]string{
		"access_level": "Supervisors and above",
		"permissions":  "Advanced supervision capabilities",
	})
}

func (h *WelcomeHandler) ManagerEndpoint(c echo.Context) error {
	return OK(c, http.StatusOK, "Manager Endpoint", map[string]string{
		"access_level": "Managers and administrators",
		"permissions":  "Management capabilities",
	})
}

func (h *WelcomeHandler) AdminEndpoint(c echo.Context) error {
	return OK(c, http.StatusOK, "Admin Endpoint", map[string]string{
		"access_level": "Administrators only",
		"permissions":  "Full system access",
	})
}
