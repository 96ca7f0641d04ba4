package ginserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rentlona/internal/app/services/auth"
	domainauth "rentlona/internal/domain/auth"
)

const (
	principalContextKey = "rentlona.principal"
	authFailureKey      = "rentlona.auth_failure"
)

const authRequiredMessage = "authentication required"

type principal struct {
	ID     string
	Email  string
	Name   string
	Token  string
	Claims domainauth.Claims
}

type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*auth.ResolveResult, error)
}

// AuthMiddleware attaches the principal for a valid bearer token. Requests
// without one continue anonymously; protected handlers call requireAuth.
type AuthMiddleware struct {
	Service TokenResolver
	Logger  *slog.Logger
}

func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Service == nil {
		c.Next()
		return
	}
	resolved, err := m.Service.ResolveToken(c.Request.Context(), token)
	if err != nil {
		if isTokenError(err) {
			if m.Logger != nil {
				m.Logger.Debug("token rejected", "error", err)
			}
		} else {
			// The token could not be checked, which is not the client's fault.
			c.Set(authFailureKey, err)
		}
		c.Next()
		return
	}
	user := resolved.User
	setPrincipal(c, principal{
		ID:     string(user.ID),
		Email:  user.Email,
		Name:   user.Name,
		Token:  token,
		Claims: resolved.Claims,
	})
	c.Next()
}

func isTokenError(err error) bool {
	return errors.Is(err, domainauth.ErrTokenRequired) ||
		errors.Is(err, domainauth.ErrTokenInvalid) ||
		errors.Is(err, domainauth.ErrTokenExpired) ||
		errors.Is(err, domainauth.ErrTokenRevoked)
}

func setPrincipal(c *gin.Context, p principal) {
	c.Set(principalContextKey, p)
}

func currentPrincipal(c *gin.Context) (principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return principal{}, false
	}
	p, ok := val.(principal)
	return p, ok
}

// requireAuth writes the response itself when it returns false.
func requireAuth(c *gin.Context, logger *slog.Logger) (principal, bool) {
	if p, ok := currentPrincipal(c); ok {
		return p, true
	}
	if raw, exists := c.Get(authFailureKey); exists {
		if err, ok := raw.(error); ok {
			respondError(c, logger, err)
			return principal{}, false
		}
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Message: authRequiredMessage})
	return principal{}, false
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	token := strings.TrimSpace(header[7:])
	return token
}
