package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentlona/internal/app/dto"
	userapp "rentlona/internal/app/handlers/users"
	"rentlona/internal/app/queries"
	authsvc "rentlona/internal/app/services/auth"
)

type AuthHandler struct {
	Service *authsvc.Service
	Queries queries.Bus
	Logger  *slog.Logger
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h AuthHandler) Register(c *gin.Context) {
	if h.Service == nil {
		abort(c, http.StatusServiceUnavailable, errorResponse{Message: "auth service unavailable"})
		return
	}
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	result, err := h.Service.Register(c.Request.Context(), authsvc.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, dto.AuthResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      dto.MapUserProfile(result.User, nil, nil),
	})
}

func (h AuthHandler) Login(c *gin.Context) {
	if h.Service == nil {
		abort(c, http.StatusServiceUnavailable, errorResponse{Message: "auth service unavailable"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	result, err := h.Service.Login(c.Request.Context(), authsvc.LoginParams{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	profile := dto.MapUserProfile(result.User, nil, nil)
	if h.Queries != nil {
		populated, err := queries.Ask[userapp.GetProfileQuery, *dto.UserProfile](c.Request.Context(), h.Queries, userapp.GetProfileQuery{UserID: string(result.User.ID)})
		if err != nil {
			respondError(c, h.Logger, err)
			return
		}
		profile = *populated
	}
	c.JSON(http.StatusOK, dto.AuthResponse{Token: result.Token, ExpiresAt: result.ExpiresAt, User: profile})
}

func (h AuthHandler) Logout(c *gin.Context) {
	p, ok := requireAuth(c, h.Logger)
	if !ok {
		return
	}
	if h.Service == nil {
		abort(c, http.StatusServiceUnavailable, errorResponse{Message: "auth service unavailable"})
		return
	}
	if err := h.Service.Logout(c.Request.Context(), p.Claims); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h AuthHandler) Me(c *gin.Context) {
	p, ok := requireAuth(c, h.Logger)
	if !ok {
		return
	}
	profile, err := queries.Ask[userapp.GetProfileQuery, *dto.UserProfile](c.Request.Context(), h.Queries, userapp.GetProfileQuery{UserID: p.ID})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

var _ AuthHTTP = (*AuthHandler)(nil)
