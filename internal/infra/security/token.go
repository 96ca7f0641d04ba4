package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	domainauth "rentlona/internal/domain/auth"
	domainuser "rentlona/internal/domain/user"
)

const defaultTokenTTL = 7 * 24 * time.Hour

var errSecretMissing = errors.New("token: signing secret is required")

type tokenClaims struct {
	jwt.RegisteredClaims
}

// JWTIssuer signs HS256 bearer tokens carrying the user id as subject.
type JWTIssuer struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
	// Now overrides the clock used when validating expiry.
	Now func() time.Time
}

func (i JWTIssuer) Issue(userID domainuser.ID, now time.Time) (string, domainauth.Claims, error) {
	if len(i.Secret) == 0 {
		return "", domainauth.Claims{}, errSecretMissing
	}
	if userID == "" {
		return "", domainauth.Claims{}, domainuser.ErrIDRequired
	}
	ttl := i.TTL
	if ttl == 0 {
		ttl = defaultTokenTTL
	}
	if ttl < 0 {
		return "", domainauth.Claims{}, domainauth.ErrTTLInvalid
	}
	if now.IsZero() {
		now = time.Now()
	}
	// JWT dates have second precision.
	now = now.UTC().Truncate(time.Second)
	claims := domainauth.Claims{
		TokenID:   uuid.NewString(),
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        claims.TokenID,
			Subject:   string(userID),
			Issuer:    i.Issuer,
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	})
	signed, err := token.SignedString(i.Secret)
	if err != nil {
		return "", domainauth.Claims{}, fmt.Errorf("token: sign: %w", err)
	}
	return signed, claims, nil
}

func (i JWTIssuer) Verify(raw string) (domainauth.Claims, error) {
	if raw == "" {
		return domainauth.Claims{}, domainauth.ErrTokenRequired
	}
	if len(i.Secret) == 0 {
		return domainauth.Claims{}, errSecretMissing
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if i.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(i.Issuer))
	}
	if i.Now != nil {
		opts = append(opts, jwt.WithTimeFunc(i.Now))
	}
	parsed := &tokenClaims{}
	token, err := jwt.ParseWithClaims(raw, parsed, func(*jwt.Token) (any, error) {
		return i.Secret, nil
	}, opts...)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return domainauth.Claims{}, domainauth.ErrTokenExpired
	case err != nil || !token.Valid:
		return domainauth.Claims{}, domainauth.ErrTokenInvalid
	}
	if parsed.Subject == "" || parsed.ID == "" || parsed.ExpiresAt == nil {
		return domainauth.Claims{}, domainauth.ErrTokenInvalid
	}
	claims := domainauth.Claims{
		TokenID:   parsed.ID,
		UserID:    domainuser.ID(parsed.Subject),
		ExpiresAt: parsed.ExpiresAt.Time.UTC(),
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}
