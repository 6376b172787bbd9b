package middleware

import (
	"errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/identity-platform/auth-service/internal/api/metrics"
	"github.com/identity-platform/auth-service/internal/core/domain"
	"github.com/identity-platform/auth-service/internal/core/ports"
	"github.com/identity-platform/auth-service/internal/core/service"
)

// IdentityKey is the echo context key under which Authenticate stores the
// request-scoped identity. ClaimsKey holds the verified token claims for
// handlers that need token metadata (logout revokes by jti).
const (
	IdentityKey = "auth.identity"
	ClaimsKey   = "auth.claims"
)

const bearerPrefix = "Bearer "

// CurrentIdentity returns the identity attached by Authenticate, if any.
// Absence means the request carried no token.
func CurrentIdentity(c echo.Context) (domain.Identity, bool) {
	id, ok := c.Get(IdentityKey).(domain.Identity)
	return id, ok
}

// CurrentClaims returns the verified claims of the request's bearer token.
func CurrentClaims(c echo.Context) (*service.Claims, bool) {
	claims, ok := c.Get(ClaimsKey).(*service.Claims)
	return claims, ok
}

// AuthConfig wires the collaborators of the authentication pipeline.
type AuthConfig struct {
	Tokens  *service.TokenService
	Users   ports.UserRepository
	Revoker ports.TokenRevoker

	// UseDatabase selects the trust mode. In token-only mode the identity is
	// built from the verified claims verbatim; in database mode the credential
	// record is re-fetched by the token subject, so server-side role changes
	// take effect before the token expires, at the cost of one lookup per
	// request.
	UseDatabase bool
}

// Authenticate is the per-request authentication pipeline: extract the bearer
// token, verify it, check revocation, and attach the identity. Requests
// without a token pass through unauthenticated; the authorization gate
// decides later whether that is acceptable. Requests with an invalid token
// are rejected immediately and never reach downstream handlers with an
// ambiguous identity.
func Authenticate(cfg AuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := extractToken(c)
			if !ok {
				return next(c)
			}

			claims, err := cfg.Tokens.Verify(token)
			if err != nil {
				metrics.TokenVerificationsTotal.WithLabelValues(verifyResult(err)).Inc()
				clearIdentity(c)
				return err
			}

			if cfg.Revoker != nil {
				revoked, err := cfg.Revoker.IsRevoked(c.Request().Context(), claims.ID)
				if err != nil {
					metrics.TokenVerificationsTotal.WithLabelValues("error").Inc()
					clearIdentity(c)
					return err
				}
				if revoked {
					metrics.TokenVerificationsTotal.WithLabelValues("revoked").Inc()
					clearIdentity(c)
					return domain.ErrTokenRevoked
				}
			}

			c.Set(ClaimsKey, claims)

			// Idempotent against double invocation: the first pass wins.
			if _, already := CurrentIdentity(c); !already {
				identity, err := cfg.establishIdentity(c, claims)
				if err != nil {
					metrics.TokenVerificationsTotal.WithLabelValues("error").Inc()
					clearIdentity(c)
					return err
				}
				c.Set(IdentityKey, identity)
			}

			metrics.TokenVerificationsTotal.WithLabelValues("success").Inc()
			return next(c)
		}
	}
}

// extractToken reads the Authorization header and requires an exact
// "Bearer " prefix. Anything else counts as an unauthenticated request.
func extractToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	return header[len(bearerPrefix):], true
}

func (cfg AuthConfig) establishIdentity(c echo.Context, claims *service.Claims) (domain.Identity, error) {
	if cfg.UseDatabase {
		user, err := cfg.Users.FindByUsername(c.Request().Context(), claims.Subject)
		if err != nil {
			// The token can outlive its account. A missing record means the
			// bearer is no longer a user, not that a resource is absent, so
			// it must not leak the store's not-found as a 404.
			var nf *domain.NotFoundError
			if errors.As(err, &nf) {
				return domain.Identity{}, domain.ErrUnauthenticated
			}
			return domain.Identity{}, err
		}
		return domain.IdentityFromUser(user), nil
	}

	role, err := claims.Role()
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{
		UserID:   claims.UserID,
		Username: claims.Subject,
		Email:    claims.Email,
		Role:     role,
	}, nil
}

func clearIdentity(c echo.Context) {
	c.Set(IdentityKey, nil)
	c.Set(ClaimsKey, nil)
}

func verifyResult(err error) string {
	switch err {
	case domain.ErrTokenExpired:
		return "expired"
	case domain.ErrTokenSignature:
		return "bad_signature"
	case domain.ErrTokenMalformed:
		return "malformed"
	default:
		return "error"
	}
}
