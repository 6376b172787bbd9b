package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/identity-platform/auth-service/internal/core/domain"
	"github.com/identity-platform/auth-service/internal/core/ports"
)

// AuthService implements registration and login.
type AuthService struct {
	repo   ports.UserRepository
	hasher ports.PasswordHasher
	tokens *TokenService
	log    zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, hasher ports.PasswordHasher, tokens *TokenService, log zerolog.Logger) *AuthService {
	return &AuthService{repo: repo, hasher: hasher, tokens: tokens, log: log}
}

// Register creates a new account after checking each uniqueness constraint in
// order: username, email, then phone number (skipped when absent). The first
// violation aborts before anything is persisted. New accounts always get the
// USER role; privilege escalation only happens through the admin path.
func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (string, error) {
	if taken, err := s.repo.ExistsByUsername(ctx, in.Username); err != nil {
		return "", fmt.Errorf("check username: %w", err)
	} else if taken {
		return "", &domain.AlreadyExistsError{Field: "username"}
	}

	if taken, err := s.repo.ExistsByEmail(ctx, in.Email); err != nil {
		return "", fmt.Errorf("check email: %w", err)
	} else if taken {
		return "", &domain.AlreadyExistsError{Field: "email"}
	}

	if in.PhoneNumber != "" {
		if taken, err := s.repo.ExistsByPhoneNumber(ctx, in.PhoneNumber); err != nil {
			return "", fmt.Errorf("check phone number: %w", err)
		} else if taken {
			return "", &domain.AlreadyExistsError{Field: "phone number"}
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return "", err
	}

	user := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PhoneNumber:  in.PhoneNumber,
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Str("username", created.Username).Msg("user registered")

	return "User registration successful for " + created.Username, nil
}

// Login verifies the credentials and returns a signed token. A missing user
// and a wrong password both surface as ErrInvalidCredentials so the response
// does not reveal which usernames exist. Any other failure is wrapped into
// AuthenticationFailedError with the cause retained for diagnostics.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		var nf *domain.NotFoundError
		if errors.As(err, &nf) {
			return "", domain.ErrInvalidCredentials
		}
		return "", &domain.AuthenticationFailedError{Cause: err}
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(domain.IdentityFromUser(user))
	if err != nil {
		return "", &domain.AuthenticationFailedError{Cause: err}
	}

	s.log.Info().Str("username", user.Username).Msg("user authenticated")

	return token, nil
}
