package ports

import (
	"context"

	"github.com/identity-platform/auth-service/internal/core/domain"
)

// RegisterInput carries the attributes of a new account. PhoneNumber is
// optional; Role is never accepted from the caller.
type RegisterInput struct {
	Username    string
	Email       string
	PhoneNumber string
	Password    string
}

type AuthService interface {
	// Register creates a new credential record with the default USER role and
	// returns a confirmation message.
	Register(ctx context.Context, in RegisterInput) (string, error)
	// Login verifies the credentials and returns a signed token.
	Login(ctx context.Context, username, password string) (string, error)
}

type AdminService interface {
	// ChangeRole updates the target user's role on behalf of the given admin
	// identity and returns a human-readable result message.
	ChangeRole(ctx context.Context, actor domain.Identity, username string, newRole domain.Role, reason string) (string, error)
}
