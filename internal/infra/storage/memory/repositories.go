package memory

import (
	"context"
	"maps"
	"sync"

	domainlistings "rentlona/internal/domain/listings"
	"rentlona/internal/domain/shared/events"
)

// ListingRepository keeps listings in a map. Values are cloned on the way in
// and out so callers never share state with the store.
type ListingRepository struct {
	mu    sync.RWMutex
	items map[domainlistings.ListingID]*domainlistings.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{
		items: make(map[domainlistings.ListingID]*domainlistings.Listing),
	}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	listing, ok := r.items[id]
	if !ok {
		return nil, domainlistings.ErrNotFound
	}
	return cloneListing(listing), nil
}

func (r *ListingRepository) ByIDs(ctx context.Context, ids []domainlistings.ListingID) (map[domainlistings.ListingID]*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[domainlistings.ListingID]*domainlistings.Listing, len(ids))
	for _, id := range ids {
		if listing, ok := r.items[id]; ok {
			out[id] = cloneListing(listing)
		}
	}
	return out, nil
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	if listing == nil || listing.ID == "" {
		return domainlistings.ErrIDRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[listing.ID] = cloneListing(listing)
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id domainlistings.ListingID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainlistings.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// Search filters, sorts newest first and pages the result.
func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) ([]*domainlistings.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	opts := params.Normalized()
	matches := make([]*domainlistings.Listing, 0, len(r.items))
	for _, listing := range r.items {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}
		if opts.Matches(listing) {
			matches = append(matches, listing)
		}
	}
	domainlistings.SortNewestFirst(matches)
	page := opts.Page(matches)
	out := make([]*domainlistings.Listing, 0, len(page))
	for _, listing := range page {
		out = append(out, cloneListing(listing))
	}
	return out, nil
}

func cloneListing(l *domainlistings.Listing) *domainlistings.Listing {
	if l == nil {
		return nil
	}
	c := *l
	c.EventRecorder = events.EventRecorder{}
	if l.Location.Coordinates != nil {
		coords := *l.Location.Coordinates
		c.Location.Coordinates = &coords
	}
	if l.Images != nil {
		c.Images = append([]domainlistings.Image(nil), l.Images...)
	}
	if l.Specifications != nil {
		c.Specifications = maps.Clone(l.Specifications)
	}
	return &c
}

var _ domainlistings.ListingRepository = (*ListingRepository)(nil)
