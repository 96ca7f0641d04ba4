package user

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"rentlona/internal/domain/shared/events"
	"rentlona/internal/domain/shared/validation"
)

var (
	ErrIDRequired          = errors.New("user: id is required")
	ErrPasswordHashMissing = errors.New("user: password hash is required")
	ErrEmailAlreadyUsed    = errors.New("user: email already used")
	ErrNotFound            = errors.New("user: not found")
)

const (
	maxNameLength = 100
	maxBioLength  = 1000
)

type ID string

// Profile holds the optional self-description shown on the public profile page.
type Profile struct {
	Phone  string
	Bio    string
	Avatar string
}

type User struct {
	ID           ID
	Name         string
	Email        string
	PasswordHash string
	Profile      Profile
	// Listings mirrors the owner field of listings; it is maintained on
	// create and delete and may briefly lag behind the listings collection.
	Listings  []string
	Favorites []string
	CreatedAt time.Time
	UpdatedAt time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ID) (*User, error)
	// ByIDs returns the users that exist; missing ids are absent from the map.
	ByIDs(ctx context.Context, ids []ID) (map[ID]*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	Save(ctx context.Context, user *User) error
}

type CreateParams struct {
	ID           ID
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

func NewUser(params CreateParams) (*User, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(params.PasswordHash) == "" {
		return nil, ErrPasswordHashMissing
	}
	var v validation.Collector
	name := strings.TrimSpace(params.Name)
	v.Check(name != "", "name", "is required")
	v.Check(utf8.RuneCountInString(name) <= maxNameLength, "name", "is too long")
	email := NormalizeEmail(params.Email)
	v.Check(email != "", "email", "is required")
	v.Check(email == "" || strings.Contains(email, "@"), "email", "must be a valid address")
	if err := v.Err(); err != nil {
		return nil, err
	}

	now := params.CreatedAt
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	return &User{
		ID:           ID(strings.TrimSpace(string(params.ID))),
		Name:         name,
		Email:        email,
		PasswordHash: params.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ProfileUpdate lists the fields a user may change about themselves. Nil means
// "leave unchanged".
type ProfileUpdate struct {
	Name   *string
	Phone  *string
	Bio    *string
	Avatar *string
}

func (u *User) UpdateProfile(update ProfileUpdate, now time.Time) error {
	var v validation.Collector
	name := u.Name
	if update.Name != nil {
		name = strings.TrimSpace(*update.Name)
		v.Check(name != "", "name", "is required")
		v.Check(utf8.RuneCountInString(name) <= maxNameLength, "name", "is too long")
	}
	profile := u.Profile
	if update.Phone != nil {
		profile.Phone = strings.TrimSpace(*update.Phone)
	}
	if update.Bio != nil {
		profile.Bio = strings.TrimSpace(*update.Bio)
		v.Check(utf8.RuneCountInString(profile.Bio) <= maxBioLength, "profile.bio", "is too long")
	}
	if update.Avatar != nil {
		profile.Avatar = strings.TrimSpace(*update.Avatar)
	}
	if err := v.Err(); err != nil {
		return err
	}
	u.Name = name
	u.Profile = profile
	u.touch(now)
	return nil
}

// AddFavorite inserts listingID keeping set semantics. It reports whether the
// set changed.
func (u *User) AddFavorite(listingID string, now time.Time) bool {
	if listingID == "" || slices.Contains(u.Favorites, listingID) {
		return false
	}
	u.Favorites = append(u.Favorites, listingID)
	u.touch(now)
	u.Record(FavoriteAdded{UserID: u.ID, ListingID: listingID, At: u.UpdatedAt})
	return true
}

func (u *User) RemoveFavorite(listingID string, now time.Time) bool {
	idx := slices.Index(u.Favorites, listingID)
	if idx < 0 {
		return false
	}
	u.Favorites = slices.Delete(u.Favorites, idx, idx+1)
	u.touch(now)
	u.Record(FavoriteRemoved{UserID: u.ID, ListingID: listingID, At: u.UpdatedAt})
	return true
}

func (u *User) HasFavorite(listingID string) bool {
	return slices.Contains(u.Favorites, listingID)
}

func (u *User) AttachListing(listingID string, now time.Time) {
	if listingID == "" || slices.Contains(u.Listings, listingID) {
		return
	}
	u.Listings = append(u.Listings, listingID)
	u.touch(now)
}

func (u *User) DetachListing(listingID string, now time.Time) {
	idx := slices.Index(u.Listings, listingID)
	if idx < 0 {
		return
	}
	u.Listings = slices.Delete(u.Listings, idx, idx+1)
	u.touch(now)
}

func (u *User) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	u.UpdatedAt = now.UTC()
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
