package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

func sample() []Listing {
	day := 24 * time.Hour
	return []Listing{
		{ID: "sf", Title: "Studio downtown", Location: "San Francisco", Price: 2200, PropertyType: PropertyStudio,
			Latitude: 37.77, Longitude: -122.42, StartDate: base, EndDate: base.Add(90 * day), CreatedAt: base.Add(-7 * day), IsActive: true},
		{ID: "bk", Title: "2BR near campus", Location: "Berkeley, CA", Price: 3200, NumberOfBedrooms: 2, PropertyType: PropertyApartment,
			Latitude: 37.87, Longitude: -122.27, StartDate: base.Add(7 * day), EndDate: base.Add(120 * day), CreatedAt: base.Add(-3 * day), IsActive: true},
		{ID: "oak", Title: "Shared room", Description: "Backyard and parking", Location: "Oakland, CA", Price: 1200, NumberOfBedrooms: 1, PropertyType: PropertyShared,
			Latitude: 37.80, Longitude: -122.27, StartDate: base, EndDate: base.Add(60 * day), CreatedAt: base.Add(-5 * day), IsActive: true},
		{ID: "gone", Title: "Removed studio", Price: 100, PropertyType: PropertyStudio, IsActive: false},
	}
}

func resultIDs(r *ListingResponse) []string {
	out := make([]string, 0, len(r.Listings))
	for _, l := range r.Listings {
		out = append(out, l.ID)
	}
	return out
}

func TestSearchFilters(t *testing.T) {
	minPrice, beds := 2000.0, 1
	inside := base.Add(10 * 24 * time.Hour)
	late := base.Add(100 * 24 * time.Hour)

	cases := []struct {
		name string
		q    Query
		want []string
	}{
		{"inactive excluded", NewQuery().WithSort(SortByPrice, SortAsc), []string{"oak", "sf", "bk"}},
		{"text matches description case-insensitively", NewQuery().WithSearchText("BACKYARD"), []string{"oak"}},
		{"text matches location", NewQuery().WithSearchText("berkeley"), []string{"bk"}},
		{"min price", NewQuery().WithPriceRange(&minPrice, nil), []string{"bk", "sf"}},
		{"bedrooms is a minimum", NewQuery().WithBedrooms(&beds), []string{"bk", "oak"}},
		{"property type", NewQuery().WithPropertyType(PropertyStudio), []string{"sf"}},
		{"bbox", NewQuery().WithBoundingBox(BoundingBox{North: 37.85, South: 37.7, East: -122.2, West: -122.5}), []string{"oak", "sf"}},
		{"start inside window", NewQuery().WithDateRange(&inside, nil), []string{"bk", "oak", "sf"}},
		{"end beyond shorter windows", NewQuery().WithDateRange(nil, &late), []string{"bk"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, resultIDs(tc.q.Search(sample())))
		})
	}
}

func TestSortByDistanceFromBoxCenter(t *testing.T) {
	box := BoundingBox{North: 37.9, South: 37.84, East: -122.2, West: -122.3}
	q := NewQuery().WithBoundingBox(BoundingBox{North: 38, South: 37, East: -122, West: -123}).WithSort(SortByDistance, SortAsc)
	near := q.WithBoundingBox(box)
	assert.Equal(t, "bk", near.Search(sample()).Listings[0].ID)

	noBox := NewQuery().WithSort(SortByDistance, SortAsc)
	assert.Equal(t, []string{"sf", "oak", "bk"}, resultIDs(noBox.Search(sample())), "falls back to createdAt")
}

func TestPagination(t *testing.T) {
	q := NewQuery().WithSort(SortByPrice, SortAsc).WithPage(2, 0)
	first := q.Search(sample())
	assert.Equal(t, []string{"oak", "sf"}, resultIDs(first))
	assert.Equal(t, 3, first.Total)
	assert.True(t, first.HasMore)
	require.NotNil(t, first.NextCursor)
	assert.Equal(t, "2", *first.NextCursor)

	second := q.WithPage(2, 2).Search(sample())
	assert.Equal(t, []string{"bk"}, resultIDs(second))
	assert.False(t, second.HasMore)
	assert.Nil(t, second.NextCursor)

	past := q.WithPage(2, 10).Search(sample())
	assert.Empty(t, past.Listings)
	assert.NotNil(t, past.Listings)
}

func TestDistance(t *testing.T) {
	assert.InDelta(t, 0, Distance(37.7, -122.4, 37.7, -122.4), 1e-9)
	// SF to Berkeley is roughly 16 km
	assert.InDelta(t, 16, Distance(37.7749, -122.4194, 37.8716, -122.2727), 2)
}
