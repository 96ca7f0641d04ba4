package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	domainauth "rentlona/internal/domain/auth"
)

func TestJWTIssuerRoundTrip(t *testing.T) {
	issuer := JWTIssuer{Secret: []byte("s3cret"), TTL: time.Hour}
	now := time.Now()

	token, claims, err := issuer.Issue("u1", now)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	verified, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, claims.TokenID, verified.TokenID)
	assert.Equal(t, "u1", string(verified.UserID))
	assert.True(t, verified.ExpiresAt.Equal(claims.ExpiresAt))
}

func TestJWTIssuerRejectsForeignSecret(t *testing.T) {
	token, _, err := JWTIssuer{Secret: []byte("one")}.Issue("u1", time.Now())
	require.NoError(t, err)

	_, err = JWTIssuer{Secret: []byte("two")}.Verify(token)
	assert.ErrorIs(t, err, domainauth.ErrTokenInvalid)
}

func TestJWTIssuerReportsExpiry(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour)
	issuer := JWTIssuer{Secret: []byte("s3cret"), TTL: time.Hour}
	token, _, err := issuer.Issue("u1", issued)
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, domainauth.ErrTokenExpired)
}

func TestJWTIssuerRejectsGarbage(t *testing.T) {
	issuer := JWTIssuer{Secret: []byte("s3cret")}
	_, err := issuer.Verify("not-a-jwt")
	assert.ErrorIs(t, err, domainauth.ErrTokenInvalid)

	_, err = issuer.Verify("")
	assert.ErrorIs(t, err, domainauth.ErrTokenRequired)
}

func TestBcryptHasherCompare(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}
	hash, err := h.Hash("correct horse")
	require.NoError(t, err)

	assert.NoError(t, h.Compare(hash, "correct horse"))
	assert.ErrorIs(t, h.Compare(hash, "wrong"), ErrPasswordMismatch)
}
