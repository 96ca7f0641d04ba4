package listings

import (
	"context"
	"errors"
	"math"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"rentlona/internal/domain/shared/events"
	"rentlona/internal/domain/shared/validation"
)

var (
	ErrIDRequired    = errors.New("listings: id is required")
	ErrOwnerRequired = errors.New("listings: owner is required")
	ErrNotFound      = errors.New("listings: not found")
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 5000
	MaxImages            = 10
)

type ListingID string

// OwnerID is the id of the user that published the listing.
type OwnerID string

type Category string

const (
	CategoryProperty    Category = "property"
	CategoryVehicles    Category = "vehicles"
	CategoryElectronics Category = "electronics"
	CategoryFurniture   Category = "furniture"
	CategoryClothing    Category = "clothing"
)

var Categories = []Category{CategoryProperty, CategoryVehicles, CategoryElectronics, CategoryFurniture, CategoryClothing}

func ParseCategory(raw string) (Category, bool) {
	value := Category(strings.ToLower(strings.TrimSpace(raw)))
	for _, c := range Categories {
		if c == value {
			return c, true
		}
	}
	return "", false
}

type RentalPeriod string

const (
	RentalDaily   RentalPeriod = "daily"
	RentalMonthly RentalPeriod = "monthly"
)

// ParseRentalPeriod treats an empty value as daily.
func ParseRentalPeriod(raw string) (RentalPeriod, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(RentalDaily):
		return RentalDaily, true
	case string(RentalMonthly):
		return RentalMonthly, true
	default:
		return "", false
	}
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusRented   Status = "rented"
)

// ParseStatus treats an empty value as active.
func ParseStatus(raw string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(StatusActive):
		return StatusActive, true
	case string(StatusInactive):
		return StatusInactive, true
	case string(StatusRented):
		return StatusRented, true
	default:
		return "", false
	}
}

type Coordinates struct {
	Lat float64
	Lng float64
}

func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

type Location struct {
	Address     string
	City        string
	State       string
	ZipCode     string
	Coordinates *Coordinates
}

func (l Location) normalized() Location {
	out := Location{
		Address: strings.TrimSpace(l.Address),
		City:    strings.TrimSpace(l.City),
		State:   strings.TrimSpace(l.State),
		ZipCode: strings.TrimSpace(l.ZipCode),
	}
	if l.Coordinates != nil {
		c := *l.Coordinates
		out.Coordinates = &c
	}
	return out
}

type Image struct {
	URL          string
	Alt          string
	ThumbnailURL string
}

type Listing struct {
	ID             ListingID
	Owner          OwnerID
	Title          string
	Description    string
	Category       Category
	Price          float64
	RentalPeriod   RentalPeriod
	ContactNumber  string
	Location       Location
	Images         []Image
	Specifications map[string]any
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time
	events.EventRecorder
}

type ListingRepository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	// ByIDs returns the listings that exist; missing ids are absent from the map.
	ByIDs(ctx context.Context, ids []ListingID) (map[ListingID]*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, id ListingID) error
	Search(ctx context.Context, params SearchParams) ([]*Listing, error)
}

type CreateListingParams struct {
	ID             ListingID
	Owner          OwnerID
	Title          string
	Description    string
	Category       string
	Price          float64
	RentalPeriod   string
	ContactNumber  string
	Location       Location
	Images         []Image
	Specifications map[string]any
	Status         string
	Now            time.Time
}

func NewListing(params CreateListingParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.Owner)) == "" {
		return nil, ErrOwnerRequired
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	var v validation.Collector
	title := strings.TrimSpace(params.Title)
	checkTitle(&v, title)
	description := strings.TrimSpace(params.Description)
	checkDescription(&v, description)
	category, ok := ParseCategory(params.Category)
	v.Check(strings.TrimSpace(params.Category) != "", "category", "is required")
	v.Check(ok || strings.TrimSpace(params.Category) == "", "category", "must be one of property, vehicles, electronics, furniture, clothing")
	checkPrice(&v, params.Price)
	period, ok := ParseRentalPeriod(params.RentalPeriod)
	v.Check(ok, "rentalPeriod", "must be daily or monthly")
	contact := strings.TrimSpace(params.ContactNumber)
	v.Check(contact != "", "contactNumber", "is required")
	location := params.Location.normalized()
	checkLocation(&v, location)
	images := normalizeImages(params.Images)
	checkImages(&v, images)
	status, ok := ParseStatus(params.Status)
	v.Check(ok, "status", "must be active, inactive or rented")
	if err := v.Err(); err != nil {
		return nil, err
	}

	listing := &Listing{
		ID:             params.ID,
		Owner:          params.Owner,
		Title:          title,
		Description:    description,
		Category:       category,
		Price:          params.Price,
		RentalPeriod:   period,
		ContactNumber:  contact,
		Location:       location,
		Images:         images,
		Specifications: cloneSpecifications(params.Specifications),
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	listing.Record(ListingCreatedEvent{ListingID: listing.ID, OwnerID: listing.Owner, Category: listing.Category, At: now})
	return listing, nil
}

// Patch is a partial update. Nil pointers leave the field untouched; a nil
// Images or Specifications slice/map with the matching Set flag replaces the
// value with an empty one.
type Patch struct {
	Title             *string
	Description       *string
	Category          *string
	Price             *float64
	RentalPeriod      *string
	ContactNumber     *string
	Location          *Location
	Images            []Image
	SetImages         bool
	Specifications    map[string]any
	SetSpecifications bool
	Status            *string
}

func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil && p.Price == nil &&
		p.RentalPeriod == nil && p.ContactNumber == nil && p.Location == nil && !p.SetImages &&
		!p.SetSpecifications && p.Status == nil
}

func (l *Listing) IsOwnedBy(owner OwnerID) bool {
	return owner != "" && l.Owner == owner
}

// Apply validates the whole patch first and mutates nothing when any field is
// rejected.
func (l *Listing) Apply(p Patch, now time.Time) error {
	next := *l
	var v validation.Collector
	if p.Title != nil {
		next.Title = strings.TrimSpace(*p.Title)
		checkTitle(&v, next.Title)
	}
	if p.Description != nil {
		next.Description = strings.TrimSpace(*p.Description)
		checkDescription(&v, next.Description)
	}
	if p.Category != nil {
		category, ok := ParseCategory(*p.Category)
		v.Check(ok, "category", "must be one of property, vehicles, electronics, furniture, clothing")
		next.Category = category
	}
	if p.Price != nil {
		checkPrice(&v, *p.Price)
		next.Price = *p.Price
	}
	if p.RentalPeriod != nil {
		period, ok := ParseRentalPeriod(*p.RentalPeriod)
		v.Check(ok, "rentalPeriod", "must be daily or monthly")
		next.RentalPeriod = period
	}
	if p.ContactNumber != nil {
		next.ContactNumber = strings.TrimSpace(*p.ContactNumber)
		v.Check(next.ContactNumber != "", "contactNumber", "is required")
	}
	if p.Location != nil {
		next.Location = p.Location.normalized()
		checkLocation(&v, next.Location)
	}
	if p.SetImages {
		next.Images = normalizeImages(p.Images)
		checkImages(&v, next.Images)
	}
	if p.SetSpecifications {
		next.Specifications = cloneSpecifications(p.Specifications)
	}
	if p.Status != nil {
		status, ok := ParseStatus(*p.Status)
		v.Check(ok && strings.TrimSpace(*p.Status) != "", "status", "must be active, inactive or rented")
		next.Status = status
	}
	if err := v.Err(); err != nil {
		return err
	}

	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	if !now.After(l.UpdatedAt) {
		now = l.UpdatedAt.Add(time.Millisecond)
	}
	l.Title = next.Title
	l.Description = next.Description
	l.Category = next.Category
	l.Price = next.Price
	l.RentalPeriod = next.RentalPeriod
	l.ContactNumber = next.ContactNumber
	l.Location = next.Location
	l.Images = next.Images
	l.Specifications = next.Specifications
	l.Status = next.Status
	l.UpdatedAt = now
	l.Record(ListingUpdatedEvent{ListingID: l.ID, At: now})
	return nil
}

// MarkDeleted records the deletion; the repository removes the document.
func (l *Listing) MarkDeleted(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	l.Record(ListingDeletedEvent{ListingID: l.ID, OwnerID: l.Owner, At: now.UTC()})
}

func checkTitle(v *validation.Collector, title string) {
	v.Check(title != "", "title", "is required")
	v.Check(utf8.RuneCountInString(title) <= maxTitleLength, "title", "is too long")
}

func checkDescription(v *validation.Collector, description string) {
	v.Check(description != "", "description", "is required")
	v.Check(utf8.RuneCountInString(description) <= maxDescriptionLength, "description", "is too long")
}

func checkPrice(v *validation.Collector, price float64) {
	v.Check(!math.IsNaN(price) && !math.IsInf(price, 0), "price", "must be a number")
	v.Check(price >= 0, "price", "must be non-negative")
}

func checkLocation(v *validation.Collector, loc Location) {
	if loc.Coordinates != nil {
		v.Check(loc.Coordinates.Valid(), "location.coordinates", "must be valid latitude and longitude")
	}
}

func checkImages(v *validation.Collector, images []Image) {
	v.Check(len(images) <= MaxImages, "images", "too many images")
	for _, img := range images {
		u, err := url.Parse(img.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https" && !strings.HasPrefix(img.URL, "/")) {
			v.Add("images", "must contain absolute http(s) or root-relative urls")
			return
		}
	}
}

func normalizeImages(images []Image) []Image {
	if len(images) == 0 {
		return nil
	}
	out := make([]Image, 0, len(images))
	for _, img := range images {
		img.URL = strings.TrimSpace(img.URL)
		img.Alt = strings.TrimSpace(img.Alt)
		img.ThumbnailURL = strings.TrimSpace(img.ThumbnailURL)
		if img.URL == "" {
			continue
		}
		out = append(out, img)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func cloneSpecifications(specs map[string]any) map[string]any {
	if len(specs) == 0 {
		return nil
	}
	out := make(map[string]any, len(specs))
	for k, v := range specs {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
