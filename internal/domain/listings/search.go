package listings

import (
	"sort"
	"strings"

	"rentlona/internal/domain/shared/validation"
)

const maxSearchLimit = 100

// SearchParams describe catalog filters. Zero values mean "no filter".
type SearchParams struct {
	Category Category
	// City is matched case-insensitively as a substring of location.city.
	City string
	// Text is matched case-insensitively against title or description.
	Text     string
	MinPrice *float64
	MaxPrice *float64
	Owner    OwnerID
	Status   Status
	// Limit of zero returns every match.
	Limit  int
	Offset int
}

// Normalized returns a sanitized copy of params.
func (p SearchParams) Normalized() SearchParams {
	normalized := p
	normalized.City = strings.TrimSpace(normalized.City)
	normalized.Text = strings.TrimSpace(normalized.Text)
	normalized.Owner = OwnerID(strings.TrimSpace(string(normalized.Owner)))
	if normalized.Limit < 0 {
		normalized.Limit = 0
	}
	if normalized.Limit > maxSearchLimit {
		normalized.Limit = maxSearchLimit
	}
	if normalized.Offset < 0 {
		normalized.Offset = 0
	}
	return normalized
}

// Validate rejects contradictory price bounds.
func (p SearchParams) Validate() error {
	var v validation.Collector
	if p.MinPrice != nil {
		v.Check(*p.MinPrice >= 0, "minPrice", "must be non-negative")
	}
	if p.MaxPrice != nil {
		v.Check(*p.MaxPrice >= 0, "maxPrice", "must be non-negative")
	}
	if p.MinPrice != nil && p.MaxPrice != nil {
		v.Check(*p.MinPrice <= *p.MaxPrice, "minPrice", "must not exceed maxPrice")
	}
	return v.Err()
}

// Matches reports whether the listing passes every filter in p. p is expected
// to be normalized.
func (p SearchParams) Matches(l *Listing) bool {
	if l == nil {
		return false
	}
	if p.Category != "" && l.Category != p.Category {
		return false
	}
	if p.Owner != "" && l.Owner != p.Owner {
		return false
	}
	if p.Status != "" && l.Status != p.Status {
		return false
	}
	if p.MinPrice != nil && l.Price < *p.MinPrice {
		return false
	}
	if p.MaxPrice != nil && l.Price > *p.MaxPrice {
		return false
	}
	if p.City != "" && !containsFold(l.Location.City, p.City) {
		return false
	}
	if p.Text != "" && !containsFold(l.Title, p.Text) && !containsFold(l.Description, p.Text) {
		return false
	}
	return true
}

// SortNewestFirst orders by creation time descending with id as tie-break.
func SortNewestFirst(items []*Listing) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID < items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

// Page applies offset and limit to an ordered result.
func (p SearchParams) Page(items []*Listing) []*Listing {
	if p.Offset >= len(items) {
		return []*Listing{}
	}
	items = items[p.Offset:]
	if p.Limit > 0 && p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
