package redis

import (
	"context"
	"errors"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	domainauth "rentlona/internal/domain/auth"
)

const revokedPrefix = "auth:revoked:"

// Denylist stores revoked token ids with a TTL matching the token expiry, so
// entries vanish once the token could not be used anyway.
type Denylist struct {
	rdb goredis.Cmdable
	now func() time.Time
}

func NewDenylist(rdb goredis.Cmdable) *Denylist {
	return &Denylist{rdb: rdb, now: time.Now}
}

func (d *Denylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	tokenID = strings.TrimSpace(tokenID)
	if tokenID == "" {
		return nil
	}
	ttl := until.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	return d.rdb.Set(ctx, revokedKey(tokenID), "1", ttl).Err()
}

func (d *Denylist) Revoked(ctx context.Context, tokenID string) (bool, error) {
	if strings.TrimSpace(tokenID) == "" {
		return false, nil
	}
	err := d.rdb.Get(ctx, revokedKey(tokenID)).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, goredis.Nil):
		return false, nil
	default:
		return false, err
	}
}

func revokedKey(tokenID string) string {
	return revokedPrefix + tokenID
}

var _ domainauth.Denylist = (*Denylist)(nil)
