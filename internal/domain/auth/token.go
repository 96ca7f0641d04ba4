package auth

import (
	"context"
	"errors"
	"time"

	"rentlona/internal/domain/user"
)

var (
	ErrTokenRequired = errors.New("auth: token is required")
	ErrTokenInvalid  = errors.New("auth: token is invalid")
	ErrTokenExpired  = errors.New("auth: token expired")
	ErrTokenRevoked  = errors.New("auth: token revoked")
	ErrTTLInvalid    = errors.New("auth: ttl must be positive")
)

// Claims is the verified content of a bearer token.
type Claims struct {
	TokenID   string
	UserID    user.ID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (c Claims) Expired(at time.Time) bool {
	if at.IsZero() {
		at = time.Now()
	}
	return !c.ExpiresAt.After(at.UTC())
}

// Issuer signs and verifies bearer tokens.
type Issuer interface {
	Issue(userID user.ID, now time.Time) (string, Claims, error)
	Verify(token string) (Claims, error)
}

// Denylist remembers revoked token ids until their natural expiry.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	Revoked(ctx context.Context, tokenID string) (bool, error)
}
