package users

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"rentlona/internal/app/dto"
	"rentlona/internal/app/handlers/support"
	"rentlona/internal/app/outbox"
	"rentlona/internal/app/uow"
	domainlistings "rentlona/internal/domain/listings"
	domainuser "rentlona/internal/domain/user"
)

const (
	addFavoriteKey    = "users.favorites.add"
	removeFavoriteKey = "users.favorites.remove"
	listFavoritesKey  = "users.favorites.list"

	AddedToFavorites     = "Added to favorites"
	RemovedFromFavorites = "Removed from favorites"
)

// FavoriteResult confirms a favorites mutation.
type FavoriteResult struct {
	Message string `json:"message"`
}

type AddFavoriteCommand struct {
	UserID    string
	ListingID string
}

func (c AddFavoriteCommand) Key() string     { return addFavoriteKey }
func (c AddFavoriteCommand) ActorID() string { return c.UserID }

type AddFavoriteHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *AddFavoriteHandler) Handle(ctx context.Context, cmd AddFavoriteCommand) (*FavoriteResult, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	listingID := strings.TrimSpace(cmd.ListingID)
	if listingID == "" {
		return nil, domainlistings.ErrNotFound
	}
	if _, err := unit.Listings().ByID(ctx, domainlistings.ListingID(listingID)); err != nil {
		return nil, err
	}
	u, err := unit.Users().ByID(ctx, domainuser.ID(cmd.UserID))
	if err != nil {
		return nil, err
	}
	if u.AddFavorite(listingID, time.Now()) {
		if err := unit.Users().Save(ctx, u); err != nil {
			return nil, err
		}
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, u); err != nil {
			return nil, err
		}
		if h.Logger != nil {
			h.Logger.Debug("favorite added", "user_id", u.ID, "listing_id", listingID)
		}
	}
	return &FavoriteResult{Message: AddedToFavorites}, nil
}

type RemoveFavoriteCommand struct {
	UserID    string
	ListingID string
}

func (c RemoveFavoriteCommand) Key() string     { return removeFavoriteKey }
func (c RemoveFavoriteCommand) ActorID() string { return c.UserID }

type RemoveFavoriteHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

// Handle succeeds for ids that were never favorited, and for listings that
// have since been deleted.
func (h *RemoveFavoriteHandler) Handle(ctx context.Context, cmd RemoveFavoriteCommand) (*FavoriteResult, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	u, err := unit.Users().ByID(ctx, domainuser.ID(cmd.UserID))
	if err != nil {
		return nil, err
	}
	listingID := strings.TrimSpace(cmd.ListingID)
	if u.RemoveFavorite(listingID, time.Now()) {
		if err := unit.Users().Save(ctx, u); err != nil {
			return nil, err
		}
		if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, u); err != nil {
			return nil, err
		}
		if h.Logger != nil {
			h.Logger.Debug("favorite removed", "user_id", u.ID, "listing_id", listingID)
		}
	}
	return &FavoriteResult{Message: RemovedFromFavorites}, nil
}

type ListFavoritesQuery struct {
	UserID string
}

func (q ListFavoritesQuery) Key() string     { return listFavoritesKey }
func (q ListFavoritesQuery) ActorID() string { return q.UserID }

type ListFavoritesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListFavoritesHandler) Handle(ctx context.Context, q ListFavoritesQuery) ([]dto.Listing, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	u, err := unit.Users().ByID(execCtx, domainuser.ID(q.UserID))
	if err != nil {
		return nil, err
	}
	ids := make([]domainlistings.ListingID, 0, len(u.Favorites))
	for _, id := range u.Favorites {
		ids = append(ids, domainlistings.ListingID(id))
	}
	found, err := unit.Listings().ByIDs(execCtx, ids)
	if err != nil {
		return nil, err
	}
	items := orderedListings(u.Favorites, found)
	owners, err := unit.Users().ByIDs(execCtx, dto.OwnerIDs(items))
	if err != nil {
		return nil, err
	}
	return dto.MapListings(items, owners), nil
}
