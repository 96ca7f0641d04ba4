package dto

import (
	"time"

	domainlistings "rentlona/internal/domain/listings"
	domainuser "rentlona/internal/domain/user"
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type Location struct {
	Address     string       `json:"address"`
	City        string       `json:"city"`
	State       string       `json:"state"`
	ZipCode     string       `json:"zipCode"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

type Image struct {
	URL          string `json:"url"`
	Alt          string `json:"alt"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

type Listing struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Category       string         `json:"category"`
	Price          float64        `json:"price"`
	RentalPeriod   string         `json:"rentalPeriod"`
	ContactNumber  string         `json:"contactNumber"`
	Location       Location       `json:"location"`
	Images         []Image        `json:"images"`
	Specifications map[string]any `json:"specifications"`
	User           UserSummary    `json:"user"`
	Status         string         `json:"status"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

type UploadedImages struct {
	Images []Image `json:"images"`
}

func MapListing(l *domainlistings.Listing, owners map[domainuser.ID]*domainuser.User) Listing {
	images := make([]Image, 0, len(l.Images))
	for _, img := range l.Images {
		images = append(images, Image{URL: img.URL, Alt: img.Alt, ThumbnailURL: img.ThumbnailURL})
	}
	specs := l.Specifications
	if specs == nil {
		specs = map[string]any{}
	}
	loc := Location{
		Address: l.Location.Address,
		City:    l.Location.City,
		State:   l.Location.State,
		ZipCode: l.Location.ZipCode,
	}
	if c := l.Location.Coordinates; c != nil {
		loc.Coordinates = &Coordinates{Lat: c.Lat, Lng: c.Lng}
	}
	return Listing{
		ID:             string(l.ID),
		Title:          l.Title,
		Description:    l.Description,
		Category:       string(l.Category),
		Price:          l.Price,
		RentalPeriod:   string(l.RentalPeriod),
		ContactNumber:  l.ContactNumber,
		Location:       loc,
		Images:         images,
		Specifications: specs,
		User:           SummaryFor(domainuser.ID(l.Owner), owners),
		Status:         string(l.Status),
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
}

func MapListings(items []*domainlistings.Listing, owners map[domainuser.ID]*domainuser.User) []Listing {
	out := make([]Listing, 0, len(items))
	for _, l := range items {
		out = append(out, MapListing(l, owners))
	}
	return out
}

// OwnerIDs collects the distinct owners of items.
func OwnerIDs(items []*domainlistings.Listing) []domainuser.ID {
	seen := make(map[domainuser.ID]struct{}, len(items))
	out := make([]domainuser.ID, 0, len(items))
	for _, l := range items {
		id := domainuser.ID(l.Owner)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
