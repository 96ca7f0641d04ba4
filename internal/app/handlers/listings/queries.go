package listings

import (
	"context"
	"strings"

	"rentlona/internal/app/dto"
	"rentlona/internal/app/handlers/support"
	"rentlona/internal/app/uow"
	domainlistings "rentlona/internal/domain/listings"
	domainuser "rentlona/internal/domain/user"
)

const (
	getListingKey        = "listings.get"
	searchListingsKey    = "listings.search"
	listOwnerListingsKey = "listings.by_owner"
)

type GetListingQuery struct {
	ListingID string
}

func (q GetListingQuery) Key() string { return getListingKey }

type GetListingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetListingHandler) Handle(ctx context.Context, q GetListingQuery) (*dto.Listing, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	id := strings.TrimSpace(q.ListingID)
	if id == "" {
		return nil, domainlistings.ErrNotFound
	}
	listing, err := unit.Listings().ByID(execCtx, domainlistings.ListingID(id))
	if err != nil {
		return nil, err
	}
	owners, err := unit.Users().ByIDs(execCtx, []domainuser.ID{domainuser.ID(listing.Owner)})
	if err != nil {
		return nil, err
	}
	result := dto.MapListing(listing, owners)
	return &result, nil
}

// SearchListingsQuery filters the public catalog, newest first.
type SearchListingsQuery struct {
	Params domainlistings.SearchParams
}

func (q SearchListingsQuery) Key() string     { return searchListingsKey }
func (q SearchListingsQuery) Validate() error { return q.Params.Validate() }

type SearchListingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *SearchListingsHandler) Handle(ctx context.Context, q SearchListingsQuery) ([]dto.Listing, error) {
	return searchPopulated(ctx, h.UoWFactory, q.Params)
}

type ListOwnerListingsQuery struct {
	OwnerID string
}

func (q ListOwnerListingsQuery) Key() string { return listOwnerListingsKey }

type ListOwnerListingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListOwnerListingsHandler) Handle(ctx context.Context, q ListOwnerListingsQuery) ([]dto.Listing, error) {
	owner := strings.TrimSpace(q.OwnerID)
	if owner == "" {
		return []dto.Listing{}, nil
	}
	return searchPopulated(ctx, h.UoWFactory, domainlistings.SearchParams{Owner: domainlistings.OwnerID(owner)})
}

func searchPopulated(ctx context.Context, factory uow.UoWFactory, params domainlistings.SearchParams) ([]dto.Listing, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, factory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	items, err := unit.Listings().Search(execCtx, params.Normalized())
	if err != nil {
		return nil, err
	}
	owners, err := unit.Users().ByIDs(execCtx, dto.OwnerIDs(items))
	if err != nil {
		return nil, err
	}
	return dto.MapListings(items, owners), nil
}
