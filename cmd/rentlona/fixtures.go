package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	authsvc "rentlona/internal/app/services/auth"
	domainlistings "rentlona/internal/domain/listings"
	domainuser "rentlona/internal/domain/user"
	"rentlona/internal/infra/config"
)

// Fixtures only seed the memory driver; a Mongo database keeps its own data.
func fixturesPath(cfg config.Config) string {
	if p := strings.TrimSpace(cfg.ListingsFixtures); p != "" {
		return p
	}
	return filepath.Join("data", "listings.json")
}

type fixtureFile struct {
	Owners   []ownerFixture   `json:"owners"`
	Listings []listingFixture `json:"listings"`
}

type ownerFixture struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type listingFixture struct {
	ID             string          `json:"id"`
	Owner          string          `json:"owner"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Category       string          `json:"category"`
	Price          float64         `json:"price"`
	RentalPeriod   string          `json:"rentalPeriod"`
	ContactNumber  string          `json:"contactNumber"`
	Location       fixtureLocation `json:"location"`
	Images         []fixtureImage  `json:"images"`
	Specifications map[string]any  `json:"specifications"`
	Status         string          `json:"status"`
	CreatedAt      string          `json:"createdAt"`
}

type fixtureLocation struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
}

type fixtureImage struct {
	URL string `json:"url"`
	Alt string `json:"alt"`
}

// fixtureSeeder writes fixture owners and their listings. A listing whose
// owner is neither in the file nor already stored is skipped.
type fixtureSeeder struct {
	Users     domainuser.Repository
	Listings  domainlistings.ListingRepository
	Passwords authsvc.PasswordHasher
	Logger    *slog.Logger
}

func (s fixtureSeeder) Load(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.Logger.Info("listing fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	if len(data) == 0 {
		s.Logger.Warn("listing fixtures file empty", "path", path)
		return nil
	}

	var file fixtureFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("decode fixtures %s: %w", path, err)
	}

	now := time.Now()
	for _, fx := range file.Owners {
		if err := s.seedOwner(ctx, fx, now); err != nil {
			s.Logger.Error("cannot store fixture owner", "user_id", fx.ID, "error", err)
		}
	}

	imported := 0
	for _, fx := range file.Listings {
		owner, err := s.Users.ByID(ctx, domainuser.ID(fx.Owner))
		if err != nil {
			s.Logger.Warn("fixture owner unresolved, skipping listing", "listing_id", fx.ID, "owner_id", fx.Owner, "error", err)
			continue
		}
		listing, err := newFixtureListing(fx, now)
		if err != nil {
			s.Logger.Error("fixture invalid", "listing_id", fx.ID, "error", err)
			continue
		}
		if err := s.Listings.Save(ctx, listing); err != nil {
			s.Logger.Error("cannot store fixture listing", "listing_id", fx.ID, "error", err)
			continue
		}
		owner.AttachListing(string(listing.ID), now)
		if err := s.Users.Save(ctx, owner); err != nil {
			s.Logger.Error("cannot attach fixture listing to owner", "listing_id", fx.ID, "owner_id", fx.Owner, "error", err)
			continue
		}
		imported++
	}
	s.Logger.Info("listing fixtures imported", "path", path, "owners", len(file.Owners), "count", imported)
	return nil
}

// seedOwner keeps an already stored user untouched so reloads never reset a
// password.
func (s fixtureSeeder) seedOwner(ctx context.Context, fx ownerFixture, now time.Time) error {
	_, err := s.Users.ByID(ctx, domainuser.ID(fx.ID))
	if err == nil {
		return nil
	}
	if !errors.Is(err, domainuser.ErrNotFound) {
		return err
	}
	hash, err := s.Passwords.Hash(fx.Password)
	if err != nil {
		return err
	}
	owner, err := domainuser.NewUser(domainuser.CreateParams{
		ID:           domainuser.ID(fx.ID),
		Name:         fx.Name,
		Email:        fx.Email,
		PasswordHash: hash,
		CreatedAt:    now,
	})
	if err != nil {
		return err
	}
	return s.Users.Save(ctx, owner)
}

func newFixtureListing(fx listingFixture, now time.Time) (*domainlistings.Listing, error) {
	images := make([]domainlistings.Image, 0, len(fx.Images))
	for _, img := range fx.Images {
		images = append(images, domainlistings.Image{URL: img.URL, Alt: img.Alt})
	}
	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:            domainlistings.ListingID(fx.ID),
		Owner:         domainlistings.OwnerID(fx.Owner),
		Title:         fx.Title,
		Description:   fx.Description,
		Category:      fx.Category,
		Price:         fx.Price,
		RentalPeriod:  fx.RentalPeriod,
		ContactNumber: fx.ContactNumber,
		Location: domainlistings.Location{
			Address: fx.Location.Address,
			City:    fx.Location.City,
			State:   fx.Location.State,
			ZipCode: fx.Location.ZipCode,
		},
		Images:         images,
		Specifications: fx.Specifications,
		Status:         fx.Status,
		Now:            parseFixtureTime(fx.CreatedAt, now),
	})
	if err != nil {
		return nil, err
	}
	listing.Drain()
	return listing, nil
}

func parseFixtureTime(value string, fallback time.Time) time.Time {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return fallback
}
