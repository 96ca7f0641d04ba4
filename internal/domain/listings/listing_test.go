package listings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentlona/internal/domain/shared/validation"
)

func validParams() CreateListingParams {
	return CreateListingParams{
		ID:            "l1",
		Owner:         "owner",
		Title:         "  Road bike ",
		Description:   "Carbon frame",
		Category:      "vehicles",
		Price:         25,
		ContactNumber: "+1 555 0100",
		Location:      Location{City: " Pune "},
		Images:        []Image{{URL: "https://cdn.example.com/a.jpg", Alt: "front"}},
		Now:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestNewListingDefaults(t *testing.T) {
	l, err := NewListing(validParams())
	require.NoError(t, err)
	assert.Equal(t, "Road bike", l.Title)
	assert.Equal(t, RentalDaily, l.RentalPeriod)
	assert.Equal(t, StatusActive, l.Status)
	assert.Equal(t, "Pune", l.Location.City)
	assert.Equal(t, l.CreatedAt, l.UpdatedAt)
	require.Len(t, l.PendingEvents(), 1)
	assert.Equal(t, "listing.created", l.PendingEvents()[0].EventName())
}

func TestNewListingCollectsFieldErrors(t *testing.T) {
	params := validParams()
	params.Title = " "
	params.Category = "boats"
	params.Price = -1
	params.ContactNumber = ""
	params.RentalPeriod = "weekly"

	_, err := NewListing(params)
	require.ErrorIs(t, err, validation.ErrInvalid)
	fields := validation.FieldsOf(err)
	for _, f := range []string{"title", "category", "price", "contactNumber", "rentalPeriod"} {
		assert.Contains(t, fields, f)
	}
}

func TestApplyRefreshesUpdatedAt(t *testing.T) {
	l, err := NewListing(validParams())
	require.NoError(t, err)
	l.Drain()

	price := 40.0
	status := "rented"
	require.NoError(t, l.Apply(Patch{Price: &price, Status: &status}, l.CreatedAt))
	assert.Equal(t, 40.0, l.Price)
	assert.Equal(t, StatusRented, l.Status)
	assert.True(t, l.UpdatedAt.After(l.CreatedAt))
	require.Len(t, l.PendingEvents(), 1)
	assert.Equal(t, "listing.updated", l.PendingEvents()[0].EventName())
}

func TestApplyIsAllOrNothing(t *testing.T) {
	l, err := NewListing(validParams())
	require.NoError(t, err)
	before := *l

	title := "New title"
	category := "spaceships"
	err = l.Apply(Patch{Title: &title, Category: &category}, time.Now())
	require.Error(t, err)
	assert.Equal(t, before.Title, l.Title)
	assert.Equal(t, before.Category, l.Category)
	assert.Equal(t, before.UpdatedAt, l.UpdatedAt)
}

func TestIsOwnedBy(t *testing.T) {
	l, err := NewListing(validParams())
	require.NoError(t, err)
	assert.True(t, l.IsOwnedBy("owner"))
	assert.False(t, l.IsOwnedBy("intruder"))
	assert.False(t, l.IsOwnedBy(""))
}
