package outbound

import (
	"context"
	"errors"
)

// ErrInvalidToken is returned when a bearer token is missing, expired or unknown.
var ErrInvalidToken = errors.New("invalid or expired access token")

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Email  string
}

// TokenVerifier validates bearer tokens issued by the auth provider.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Principal, error)
}
