package ginserver

import (
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	"rentlona/internal/app/commands"
	"rentlona/internal/app/dto"
	userapp "rentlona/internal/app/handlers/users"
	"rentlona/internal/app/queries"
	domainuser "rentlona/internal/domain/user"
)

type UserHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type updateProfileRequest struct {
	Name    *string `json:"name"`
	Profile *struct {
		Phone  *string `json:"phone"`
		Bio    *string `json:"bio"`
		Avatar *string `json:"avatar"`
	} `json:"profile"`
}

func (r updateProfileRequest) update() domainuser.ProfileUpdate {
	out := domainuser.ProfileUpdate{Name: r.Name}
	if r.Profile != nil {
		out.Phone = r.Profile.Phone
		out.Bio = r.Profile.Bio
		out.Avatar = r.Profile.Avatar
	}
	return out
}

func (h UserHandler) Profile(c *gin.Context) {
	result, err := queries.Ask[userapp.GetProfileQuery, *dto.UserProfile](c.Request.Context(), h.Queries, userapp.GetProfileQuery{UserID: c.Param("id")})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h UserHandler) UpdateProfile(c *gin.Context) {
	p, ok := requireAuth(c, h.Logger)
	if !ok {
		return
	}
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	cmd := userapp.UpdateProfileCommand{UserID: p.ID, Update: req.update()}
	result, err := commands.Dispatch[userapp.UpdateProfileCommand, *dto.UserProfile](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h UserHandler) AddFavorite(c *gin.Context) {
	p, ok := requireAuth(c, h.Logger)
	if !ok {
		return
	}
	cmd := userapp.AddFavoriteCommand{UserID: p.ID, ListingID: c.Param("listingId")}
	result, err := commands.Dispatch[userapp.AddFavoriteCommand, *userapp.FavoriteResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h UserHandler) RemoveFavorite(c *gin.Context) {
	p, ok := requireAuth(c, h.Logger)
	if !ok {
		return
	}
	cmd := userapp.RemoveFavoriteCommand{UserID: p.ID, ListingID: c.Param("listingId")}
	result, err := commands.Dispatch[userapp.RemoveFavoriteCommand, *userapp.FavoriteResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h UserHandler) Favorites(c *gin.Context) {
	p, ok := requireAuth(c, h.Logger)
	if !ok {
		return
	}
	result, err := queries.Ask[userapp.ListFavoritesQuery, []dto.Listing](c.Request.Context(), h.Queries, userapp.ListFavoritesQuery{UserID: p.ID})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ UserHTTP = UserHandler{}
