package ginserver

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	listingapp "rentlona/internal/app/handlers/listings"
	domainlistings "rentlona/internal/domain/listings"
	"rentlona/internal/domain/shared/validation"
)

// listingRequest is shared by create and update; absent fields stay nil.
type listingRequest struct {
	Title          *string         `json:"title"`
	Description    *string         `json:"description"`
	Category       *string         `json:"category"`
	Price          *flexFloat      `json:"price"`
	RentalPeriod   *string         `json:"rentalPeriod"`
	ContactNumber  *string         `json:"contactNumber"`
	Location       json.RawMessage `json:"location"`
	Images         *[]imageRequest `json:"images"`
	Specifications *map[string]any `json:"specifications"`
	Status         *string         `json:"status"`
}

type imageRequest struct {
	URL          string `json:"url"`
	Alt          string `json:"alt"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

type locationRequest struct {
	Address     string              `json:"address"`
	City        string              `json:"city"`
	State       string              `json:"state"`
	ZipCode     string              `json:"zipCode"`
	Coordinates *coordinatesRequest `json:"coordinates"`
}

type coordinatesRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// flexFloat accepts a JSON number or a numeric string; form-driven clients
// send prices as strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return validation.Field("price", "must be a number")
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return validation.Field("price", "must be a number")
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return validation.Field("price", "must be a number")
	}
	*f = flexFloat(v)
	return nil
}

// parseLocation decodes location given as an object or as a string holding a
// JSON object. Absent or null yields nil.
func parseLocation(raw json.RawMessage) (*domainlistings.Location, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, validation.Field("location", "must be an object")
		}
		raw = []byte(encoded)
	}
	var req locationRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, validation.Field("location", "must be an object")
	}
	loc := domainlistings.Location{
		Address: req.Address,
		City:    req.City,
		State:   req.State,
		ZipCode: req.ZipCode,
	}
	if req.Coordinates != nil {
		loc.Coordinates = &domainlistings.Coordinates{Lat: req.Coordinates.Lat, Lng: req.Coordinates.Lng}
	}
	return &loc, nil
}

func mapImages(in []imageRequest) []domainlistings.Image {
	out := make([]domainlistings.Image, 0, len(in))
	for _, img := range in {
		out = append(out, domainlistings.Image{URL: img.URL, Alt: img.Alt, ThumbnailURL: img.ThumbnailURL})
	}
	return out
}

func (r listingRequest) payload() (listingapp.ListingPayload, error) {
	loc, err := parseLocation(r.Location)
	if err != nil {
		return listingapp.ListingPayload{}, err
	}
	p := listingapp.ListingPayload{
		Title:         deref(r.Title),
		Description:   deref(r.Description),
		Category:      deref(r.Category),
		RentalPeriod:  deref(r.RentalPeriod),
		ContactNumber: deref(r.ContactNumber),
		Status:        deref(r.Status),
	}
	if r.Price != nil {
		p.Price = float64(*r.Price)
	}
	if loc != nil {
		p.Location = *loc
	}
	if r.Images != nil {
		p.Images = mapImages(*r.Images)
	}
	if r.Specifications != nil {
		p.Specifications = *r.Specifications
	}
	return p, nil
}

func (r listingRequest) patch() (domainlistings.Patch, error) {
	loc, err := parseLocation(r.Location)
	if err != nil {
		return domainlistings.Patch{}, err
	}
	p := domainlistings.Patch{
		Title:         r.Title,
		Description:   r.Description,
		Category:      r.Category,
		RentalPeriod:  r.RentalPeriod,
		ContactNumber: r.ContactNumber,
		Location:      loc,
		Status:        r.Status,
	}
	if r.Price != nil {
		price := float64(*r.Price)
		p.Price = &price
	}
	if r.Images != nil {
		p.Images = mapImages(*r.Images)
		p.SetImages = true
	}
	if r.Specifications != nil {
		p.Specifications = *r.Specifications
		p.SetSpecifications = true
	}
	return p, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
