package listings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestSearchMatches(t *testing.T) {
	l := &Listing{
		ID:          "1",
		Title:       "Gaming Laptop",
		Description: "RTX inside",
		Category:    CategoryElectronics,
		Price:       100,
		Location:    Location{City: "New Delhi"},
		Status:      StatusActive,
	}
	cases := []struct {
		name   string
		params SearchParams
		want   bool
	}{
		{"no filters", SearchParams{}, true},
		{"category", SearchParams{Category: CategoryElectronics}, true},
		{"other category", SearchParams{Category: CategoryFurniture}, false},
		{"max price inclusive", SearchParams{MaxPrice: ptr(100)}, true},
		{"max price below", SearchParams{MaxPrice: ptr(99.99)}, false},
		{"min price inclusive", SearchParams{MinPrice: ptr(100)}, true},
		{"city substring any case", SearchParams{City: "delhi"}, true},
		{"city mismatch", SearchParams{City: "Mumbai"}, false},
		{"text in title", SearchParams{Text: "laptop"}, true},
		{"text in description", SearchParams{Text: "rtx"}, true},
		{"text missing", SearchParams{Text: "phone"}, false},
		{"status", SearchParams{Status: StatusRented}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.params.Normalized().Matches(l))
		})
	}
}

func TestSearchValidate(t *testing.T) {
	assert.NoError(t, SearchParams{MinPrice: ptr(1), MaxPrice: ptr(2)}.Validate())
	assert.Error(t, SearchParams{MinPrice: ptr(3), MaxPrice: ptr(2)}.Validate())
	assert.Error(t, SearchParams{MaxPrice: ptr(-2)}.Validate())
}

func TestSortNewestFirstAndPage(t *testing.T) {
	now := time.Now()
	items := []*Listing{
		{ID: "a", CreatedAt: now.Add(-time.Hour)},
		{ID: "c", CreatedAt: now},
		{ID: "b", CreatedAt: now},
	}
	SortNewestFirst(items)
	require.Len(t, items, 3)
	assert.Equal(t, []ListingID{"b", "c", "a"}, []ListingID{items[0].ID, items[1].ID, items[2].ID})

	page := SearchParams{Limit: 1, Offset: 1}.Normalized().Page(items)
	require.Len(t, page, 1)
	assert.Equal(t, ListingID("c"), page[0].ID)
	assert.Empty(t, SearchParams{Offset: 5}.Page(items))
}
