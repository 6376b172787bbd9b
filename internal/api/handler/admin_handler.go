package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/identity-platform/auth-service/internal/api/metrics"
	"github.com/identity-platform/auth-service/internal/core/domain"
	"github.com/identity-platform/auth-service/internal/core/ports"
)

// AdminHandler exposes administrator-only user management. The routes are
// gated on the ADMIN role by the router.
type AdminHandler struct {
	adminService ports.AdminService
}

func NewAdminHandler(adminService ports.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

type roleChangeRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	NewRole  string `json:"new_role" validate:"required"`
	Reason   string `json:"reason"`
}

// ChangeUserRole upgrades or downgrades a user's role. The operation is
// audited and admins cannot change their own role.
//
// @Summary      Change user role
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        body  body      roleChangeRequest  true  "Role change details"
// @Success      200   {object}  Response
// @Failure      400   {object}  Response
// @Failure      404   {object}  Response
// @Router       /api/v1/admin/users/role [put]
func (h *AdminHandler) ChangeUserRole(c echo.Context) error {
	actor, err := requireIdentity(c)
	if err != nil {
		return err
	}

	var req roleChangeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	newRole, err := domain.ParseRole(req.NewRole)
	if err != nil {
		metrics.RoleChangesTotal.WithLabelValues("rejected").Inc()
		return err
	}

	result, err := h.adminService.ChangeRole(c.Request().Context(), actor, req.Username, newRole, req.Reason)
	if err != nil {
		metrics.RoleChangesTotal.WithLabelValues(roleChangeResult(err)).Inc()
		return err
	}
	metrics.RoleChangesTotal.WithLabelValues("success").Inc()

	return OK(c, http.StatusOK, "Role updated successfully", result)
}

// RoleSystemInfo describes the available roles and how role management works.
func (h *AdminHandler) RoleSystemInfo(c echo.Context) error {
	info := map[string]any{
		"roles":       domain.Roles(),
		"description": "Roles are ordered USER < MODERATOR < SUPERVISOR < MANAGER < ADMIN. Role changes are audited and can only be performed by administrators.",
	}
	return OK(c, http.StatusOK, "Role System Information", info)
}

func roleChangeResult(err error) string {
	if errors.Is(err, domain.ErrInvalidRoleOperation) || errors.Is(err, domain.ErrUnknownRole) {
		return "rejected"
	}
	return "error"
}
