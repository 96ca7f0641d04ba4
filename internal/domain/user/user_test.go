package user

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser(t *testing.T) *User {
	t.Helper()
	u, err := NewUser(CreateParams{ID: "u1", Name: " Asha ", Email: " Asha@Example.COM ", PasswordHash: "hash"})
	require.NoError(t, err)
	return u
}

func TestNewUserNormalizes(t *testing.T) {
	u := newTestUser(t)
	assert.Equal(t, "Asha", u.Name)
	assert.Equal(t, "asha@example.com", u.Email)
}

func TestNewUserRejectsMissingFields(t *testing.T) {
	_, err := NewUser(CreateParams{ID: "u1", PasswordHash: "hash"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
	assert.Contains(t, err.Error(), "email")

	_, err = NewUser(CreateParams{ID: "u1", Name: "x", Email: "x@y"})
	assert.ErrorIs(t, err, ErrPasswordHashMissing)
}

func TestFavoritesHaveSetSemantics(t *testing.T) {
	u := newTestUser(t)
	now := time.Now()
	assert.True(t, u.AddFavorite("l1", now))
	assert.False(t, u.AddFavorite("l1", now))
	assert.True(t, u.AddFavorite("l2", now))
	assert.Equal(t, []string{"l1", "l2"}, u.Favorites)
	assert.True(t, u.HasFavorite("l2"))

	assert.True(t, u.RemoveFavorite("l1", now))
	assert.False(t, u.RemoveFavorite("l1", now))
	assert.Equal(t, []string{"l2"}, u.Favorites)
	assert.Len(t, u.PendingEvents(), 3)
}

func TestListingBackReferences(t *testing.T) {
	u := newTestUser(t)
	u.AttachListing("l1", time.Now())
	u.AttachListing("l1", time.Now())
	assert.Equal(t, []string{"l1"}, u.Listings)
	u.DetachListing("l1", time.Now())
	assert.Empty(t, u.Listings)
}

func TestUpdateProfile(t *testing.T) {
	u := newTestUser(t)
	name := "Asha R"
	phone := " 12345 "
	require.NoError(t, u.UpdateProfile(ProfileUpdate{Name: &name, Phone: &phone}, time.Now()))
	assert.Equal(t, "Asha R", u.Name)
	assert.Equal(t, "12345", u.Profile.Phone)

	empty := ""
	err := u.UpdateProfile(ProfileUpdate{Name: &empty}, time.Now())
	require.Error(t, err)
	assert.Equal(t, "Asha R", u.Name)
}
