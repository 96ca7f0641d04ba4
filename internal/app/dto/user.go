package dto

import (
	"time"

	domainuser "rentlona/internal/domain/user"
)

// UserSummary is the populated form of a user reference.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

func MapUserSummary(u *domainuser.User) UserSummary {
	if u == nil {
		return UserSummary{}
	}
	return UserSummary{ID: string(u.ID), Name: u.Name, Email: u.Email}
}

// SummaryFor returns the populated reference, or a bare id when the user no
// longer exists.
func SummaryFor(id domainuser.ID, users map[domainuser.ID]*domainuser.User) UserSummary {
	if u, ok := users[id]; ok {
		return MapUserSummary(u)
	}
	return UserSummary{ID: string(id)}
}

type Profile struct {
	Phone  string `json:"phone"`
	Bio    string `json:"bio"`
	Avatar string `json:"avatar,omitempty"`
}

type UserProfile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Profile   Profile   `json:"profile"`
	Listings  []Listing `json:"listings"`
	Favorites []Listing `json:"favorites"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// MapUserProfile populates the listing references it can resolve and skips
// the rest.
func MapUserProfile(u *domainuser.User, listings []Listing, favorites []Listing) UserProfile {
	if listings == nil {
		listings = []Listing{}
	}
	if favorites == nil {
		favorites = []Listing{}
	}
	return UserProfile{
		ID:        string(u.ID),
		Name:      u.Name,
		Email:     u.Email,
		Profile:   Profile{Phone: u.Profile.Phone, Bio: u.Profile.Bio, Avatar: u.Profile.Avatar},
		Listings:  listings,
		Favorites: favorites,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      UserProfile `json:"user"`
}
