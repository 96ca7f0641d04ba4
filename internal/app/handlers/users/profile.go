package users

import (
	"context"
	"strings"
	"time"

	"rentlona/internal/app/dto"
	"rentlona/internal/app/handlers/support"
	"rentlona/internal/app/uow"
	domainlistings "rentlona/internal/domain/listings"
	domainuser "rentlona/internal/domain/user"
)

const (
	getProfileKey    = "users.profile"
	updateProfileKey = "users.update_profile"
)

type GetProfileQuery struct {
	UserID string
}

func (q GetProfileQuery) Key() string { return getProfileKey }

type GetProfileHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetProfileHandler) Handle(ctx context.Context, q GetProfileQuery) (*dto.UserProfile, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	id := strings.TrimSpace(q.UserID)
	if id == "" {
		return nil, domainuser.ErrNotFound
	}
	u, err := unit.Users().ByID(execCtx, domainuser.ID(id))
	if err != nil {
		return nil, err
	}
	return PopulateProfile(execCtx, unit, u)
}

type UpdateProfileCommand struct {
	UserID string
	Update domainuser.ProfileUpdate
}

func (c UpdateProfileCommand) Key() string     { return updateProfileKey }
func (c UpdateProfileCommand) ActorID() string { return c.UserID }

type UpdateProfileHandler struct{}

func (h *UpdateProfileHandler) Handle(ctx context.Context, cmd UpdateProfileCommand) (*dto.UserProfile, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	u, err := unit.Users().ByID(ctx, domainuser.ID(cmd.UserID))
	if err != nil {
		return nil, err
	}
	if err := u.UpdateProfile(cmd.Update, time.Now()); err != nil {
		return nil, err
	}
	if err := unit.Users().Save(ctx, u); err != nil {
		return nil, err
	}
	return PopulateProfile(ctx, unit, u)
}

// PopulateProfile resolves the listing references of u, keeping their stored
// order and skipping ids that no longer exist.
func PopulateProfile(ctx context.Context, unit uow.UnitOfWork, u *domainuser.User) (*dto.UserProfile, error) {
	ids := make([]domainlistings.ListingID, 0, len(u.Listings)+len(u.Favorites))
	for _, id := range u.Listings {
		ids = append(ids, domainlistings.ListingID(id))
	}
	for _, id := range u.Favorites {
		ids = append(ids, domainlistings.ListingID(id))
	}
	found, err := unit.Listings().ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	owned := orderedListings(u.Listings, found)
	favorites := orderedListings(u.Favorites, found)
	owners, err := unit.Users().ByIDs(ctx, dto.OwnerIDs(append(append([]*domainlistings.Listing{}, owned...), favorites...)))
	if err != nil {
		return nil, err
	}
	if owners == nil {
		owners = map[domainuser.ID]*domainuser.User{}
	}
	owners[u.ID] = u
	profile := dto.MapUserProfile(u, dto.MapListings(owned, owners), dto.MapListings(favorites, owners))
	return &profile, nil
}

func orderedListings(ids []string, found map[domainlistings.ListingID]*domainlistings.Listing) []*domainlistings.Listing {
	out := make([]*domainlistings.Listing, 0, len(ids))
	for _, id := range ids {
		if l, ok := found[domainlistings.ListingID(id)]; ok {
			out = append(out, l)
		}
	}
	return out
}
