package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	goval "github.com/go-passwd/validator"
	"github.com/google/uuid"
	"github.com/leebenson/conform"

	domainauth "rentlona/internal/domain/auth"
	"rentlona/internal/domain/shared/validation"
	domainuser "rentlona/internal/domain/user"
)

var ErrInvalidCredentials = errors.New("auth: invalid credentials")

const (
	minPasswordLength = 8
	// bcrypt ignores input past 72 bytes.
	maxPasswordLength = 72
)

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type Service struct {
	Users     domainuser.Repository
	Passwords PasswordHasher
	Tokens    domainauth.Issuer
	// Denylist is optional; without it logout cannot revoke tokens early.
	Denylist domainauth.Denylist
	Logger   *slog.Logger
	Now      func() time.Time
}

type RegisterParams struct {
	Name     string `conform:"trim"`
	Email    string `conform:"email"`
	Password string
}

type LoginParams struct {
	Email    string `conform:"email"`
	Password string
}

type AuthResult struct {
	User      *domainuser.User
	Token     string
	ExpiresAt time.Time
}

type ResolveResult struct {
	User   *domainuser.User
	Claims domainauth.Claims
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	if err := conform.Strings(&params); err != nil {
		return nil, err
	}
	var v validation.Collector
	v.Check(params.Name != "", "name", "is required")
	v.Check(params.Email != "", "email", "is required")
	if err := validatePassword(params.Password); err != nil {
		v.Add("password", err.Error())
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	email := domainuser.NormalizeEmail(params.Email)
	if _, err := s.Users.ByEmail(ctx, email); err == nil {
		return nil, domainuser.ErrEmailAlreadyUsed
	} else if !errors.Is(err, domainuser.ErrNotFound) {
		return nil, err
	}
	hash, err := s.Passwords.Hash(params.Password)
	if err != nil {
		return nil, err
	}
	user, err := domainuser.NewUser(domainuser.CreateParams{
		ID:           domainuser.ID(uuid.NewString()),
		Name:         params.Name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return nil, err
	}
	// Save reports ErrEmailAlreadyUsed when a concurrent register won.
	if err := s.Users.Save(ctx, user); err != nil {
		return nil, err
	}
	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("user registered", "user_id", user.ID, "email", user.Email)
	}
	return result, nil
}

func (s *Service) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	if err := conform.Strings(&params); err != nil {
		return nil, err
	}
	email := domainuser.NormalizeEmail(params.Email)
	if email == "" || params.Password == "" {
		return nil, ErrInvalidCredentials
	}
	user, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := s.Passwords.Compare(user.PasswordHash, params.Password); err != nil {
		return nil, ErrInvalidCredentials
	}
	result, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("user authenticated", "user_id", user.ID)
	}
	return result, nil
}

// Logout revokes the token until it would have expired anyway.
func (s *Service) Logout(ctx context.Context, claims domainauth.Claims) error {
	if s.Denylist == nil || claims.TokenID == "" {
		return nil
	}
	if err := s.Denylist.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.Info("token revoked", "user_id", claims.UserID)
	}
	return nil
}

func (s *Service) ResolveToken(ctx context.Context, token string) (*ResolveResult, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domainauth.ErrTokenRequired
	}
	claims, err := s.Tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.Expired(s.now()) {
		return nil, domainauth.ErrTokenExpired
	}
	if s.Denylist != nil {
		revoked, err := s.Denylist.Revoked(ctx, claims.TokenID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, domainauth.ErrTokenRevoked
		}
	}
	user, err := s.Users.ByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domainuser.ErrNotFound) {
			return nil, domainauth.ErrTokenInvalid
		}
		return nil, err
	}
	return &ResolveResult{User: user, Claims: claims}, nil
}

func (s *Service) issue(user *domainuser.User) (*AuthResult, error) {
	token, claims, err := s.Tokens.Issue(user.ID, s.now())
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: claims.ExpiresAt}, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func validatePassword(password string) error {
	v := goval.New(
		goval.MinLength(minPasswordLength, errors.New("must be at least 8 characters")),
		goval.MaxLength(maxPasswordLength, errors.New("must be at most 72 characters")),
	)
	return v.Validate(password)
}

func (s *Service) ensureDependencies() error {
	switch {
	case s.Users == nil:
		return errors.New("auth: user repository required")
	case s.Passwords == nil:
		return errors.New("auth: password hasher required")
	case s.Tokens == nil:
		return errors.New("auth: token issuer required")
	default:
		return nil
	}
}
