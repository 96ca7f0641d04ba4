package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	authsvc "rentlona/internal/app/services/auth"
	domainauth "rentlona/internal/domain/auth"
	"rentlona/internal/domain/shared/validation"
	domainuser "rentlona/internal/domain/user"
	"rentlona/internal/infra/security"
	"rentlona/internal/infra/storage/memory"
)

func newService() *authsvc.Service {
	return &authsvc.Service{
		Users:     memory.NewUserRepository(),
		Passwords: security.BcryptHasher{Cost: bcrypt.MinCost},
		Tokens:    security.JWTIssuer{Secret: []byte("secret"), TTL: time.Hour},
		Denylist:  memory.NewDenylist(),
	}
}

func TestRegisterNormalizesAndHashes(t *testing.T) {
	svc := newService()
	res, err := svc.Register(context.Background(), authsvc.RegisterParams{
		Name:     "  Priya ",
		Email:    " Priya@Example.COM ",
		Password: "long enough",
	})
	require.NoError(t, err)
	assert.Equal(t, "Priya", res.User.Name)
	assert.Equal(t, "priya@example.com", res.User.Email)
	assert.NotEqual(t, "long enough", res.User.PasswordHash)
	assert.NotEmpty(t, res.Token)

	_, err = svc.Register(context.Background(), authsvc.RegisterParams{Name: "Other", Email: "priya@example.com", Password: "long enough"})
	assert.ErrorIs(t, err, domainuser.ErrEmailAlreadyUsed)
}

func TestRegisterPasswordPolicy(t *testing.T) {
	svc := newService()
	cases := map[string]string{
		"too short": "short",
		"too long":  string(make([]byte, 73)),
	}
	for name, password := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), authsvc.RegisterParams{Name: "A", Email: "a@example.com", Password: password})
			require.ErrorIs(t, err, validation.ErrInvalid)
			assert.Contains(t, validation.FieldsOf(err), "password")
		})
	}
}

func TestLogin(t *testing.T) {
	svc := newService()
	_, err := svc.Register(context.Background(), authsvc.RegisterParams{Name: "A", Email: "a@example.com", Password: "long enough"})
	require.NoError(t, err)

	res, err := svc.Login(context.Background(), authsvc.LoginParams{Email: "A@example.com", Password: "long enough"})
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", res.User.Email)

	_, err = svc.Login(context.Background(), authsvc.LoginParams{Email: "a@example.com", Password: "wrong pass"})
	assert.ErrorIs(t, err, authsvc.ErrInvalidCredentials)
	_, err = svc.Login(context.Background(), authsvc.LoginParams{Email: "nobody@example.com", Password: "long enough"})
	assert.ErrorIs(t, err, authsvc.ErrInvalidCredentials)
}

func TestResolveAndLogout(t *testing.T) {
	svc := newService()
	reg, err := svc.Register(context.Background(), authsvc.RegisterParams{Name: "A", Email: "a@example.com", Password: "long enough"})
	require.NoError(t, err)

	resolved, err := svc.ResolveToken(context.Background(), "  "+reg.Token+" ")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, resolved.User.ID)

	_, err = svc.ResolveToken(context.Background(), "")
	assert.ErrorIs(t, err, domainauth.ErrTokenRequired)

	require.NoError(t, svc.Logout(context.Background(), resolved.Claims))
	_, err = svc.ResolveToken(context.Background(), reg.Token)
	assert.ErrorIs(t, err, domainauth.ErrTokenRevoked)
}

func TestResolveRejectsExpiredAndOrphanedTokens(t *testing.T) {
	svc := newService()
	reg, err := svc.Register(context.Background(), authsvc.RegisterParams{Name: "A", Email: "a@example.com", Password: "long enough"})
	require.NoError(t, err)

	later := newService()
	later.Users = svc.Users
	later.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = later.ResolveToken(context.Background(), reg.Token)
	assert.ErrorIs(t, err, domainauth.ErrTokenExpired)

	orphan := newService()
	_, err = orphan.ResolveToken(context.Background(), reg.Token)
	assert.ErrorIs(t, err, domainauth.ErrTokenInvalid)
}

func TestServiceRequiresDependencies(t *testing.T) {
	_, err := (&authsvc.Service{}).Login(context.Background(), authsvc.LoginParams{Email: "a@example.com", Password: "x"})
	assert.Error(t, err)
}
