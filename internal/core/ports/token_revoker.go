package ports

import (
	"context"
	"time"
)

// TokenRevoker is the revocation store consulted by the authentication
// middleware after signature verification. Entries are keyed by the token's
// jti and expire together with the token itself.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
