package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/identity-platform/auth-service/internal/core/domain"
	"github.com/identity-platform/auth-service/internal/core/ports"
)

// AdminService implements administrator-only user management.
type AdminService struct {
	repo ports.UserRepository
	log  zerolog.Logger
}

func NewAdminService(repo ports.UserRepository, log zerolog.Logger) *AdminService {
	return &AdminService{repo: repo, log: log}
}

// ChangeRole updates the target user's role. Admins cannot change their own
// role (self-lockout guard), and assigning the role the user already holds is
// a no-op. Every actual change emits an audit log line with the old role, new
// role, acting admin and reason.
func (s *AdminService) ChangeRole(ctx context.Context, actor domain.Identity, username string, newRole domain.Role, reason string) (string, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return "", err
	}

	if username == actor.Username {
		return "", domain.ErrInvalidRoleOperation
	}

	oldRole := user.Role
	if oldRole == newRole {
		return fmt.Sprintf("User '%s' already has the role %s. No changes made.", username, newRole), nil
	}

	if err := s.repo.UpdateRole(ctx, username, newRole); err != nil {
		return "", fmt.Errorf("update role: %w", err)
	}

	if reason == "" {
		reason = "No reason provided"
	}
	s.log.Info().
		Str("username", username).
		Str("old_role", string(oldRole)).
		Str("new_role", string(newRole)).
		Str("admin", actor.Username).
		Time("changed_at", time.Now().UTC()).
		Str("reason", reason).
		Msg("role change")

	return fmt.Sprintf("User '%s' role successfully changed from %s to %s", username, oldRole, newRole), nil
}
