package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/identity-platform/auth-service/internal/core/domain"
)

// Claims is the only claims shape issued and accepted by this service.
// Roles carries a single canonical role name in new tokens; tokens issued by
// the previous service serialized the whole authority list ("[ROLE_USER]"),
// which domain.ParseAuthorities still accepts.
type Claims struct {
	jwt.RegisteredClaims

	UserID string `json:"userId"`
	Email  string `json:"email"`
	Roles  string `json:"roles"`
}

// Role returns the first parseable role from the roles claim.
func (c *Claims) Role() (domain.Role, error) {
	roles := domain.ParseAuthorities(c.Roles)
	if len(roles) == 0 {
		return "", fmt.Errorf("%w: roles claim %q", domain.ErrUnknownRole, c.Roles)
	}
	return roles[0], nil
}

// TokenService issues and verifies HS256-signed JWTs. The secret and issuer
// are fixed at startup and safe for concurrent use.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration

	// now is the clock used for issuing and validating; overridable in tests.
	now func() time.Time
}

func NewTokenService(secret, issuer string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &TokenService{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue builds a signed token for the identity: subject is the username,
// expiry is now+TTL, jti is a fresh UUID, and the custom claims carry the
// user id, email and role.
func (s *TokenService) Issue(identity domain.Identity) (string, error) {
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Username,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
		UserID: identity.UserID,
		Email:  identity.Email,
		Roles:  string(identity.Role),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature, issuer and expiry of a token and returns its
// claims. The expiry check is inclusive: a token is rejected at the exact
// expiry instant, with no clock-skew leeway.
//
// Failures map onto the domain taxonomy: ErrTokenExpired, ErrTokenSignature
// (covers issuer mismatch, which implies the token was minted elsewhere) and
// ErrTokenMalformed. Revocation is not checked here; the authentication
// middleware layers that on top.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	claims := &Claims{}
	_, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, mapJWTError(err)
	}
	return claims, nil
}

func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domain.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return domain.ErrTokenSignature
	case errors.Is(err, jwt.ErrTokenMalformed):
		return domain.ErrTokenMalformed
	default:
		return fmt.Errorf("verify token: %w", err)
	}
}
