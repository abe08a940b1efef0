package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/subleasefinder/sublease-client/internal/listing/domain"
)

func TestBuildSearchFilterDefaultsToActive(t *testing.T) {
	f := buildSearchFilter(domain.NewQuery())
	assert.Equal(t, bson.M{"$and": bson.A{bson.M{"is_active": true}}}, f)
}

func TestBuildSearchFilterClauses(t *testing.T) {
	min, beds := 1500.0, 2
	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	q := domain.NewQuery().
		WithBoundingBox(domain.BoundingBox{North: 38, South: 37, East: -122, West: -123}).
		WithSearchText("a.b").
		WithPriceRange(&min, nil).
		WithBedrooms(&beds).
		WithPropertyType(domain.PropertyCondo).
		WithDateRange(&start, nil)

	and, ok := buildSearchFilter(q)["$and"].(bson.A)
	require.True(t, ok)
	assert.Contains(t, and, bson.M{"latitude": bson.M{"$gte": 37.0, "$lte": 38.0}})
	assert.Contains(t, and, bson.M{"longitude": bson.M{"$gte": -123.0, "$lte": -122.0}})
	assert.Contains(t, and, bson.M{"price": bson.M{"$gte": 1500.0}})
	assert.Contains(t, and, bson.M{"bedrooms": bson.M{"$gte": 2}})
	assert.Contains(t, and, bson.M{"property_type": "condo"})
	assert.Contains(t, and, bson.M{"start_date": bson.M{"$lte": start}})
	assert.Contains(t, and, bson.M{"end_date": bson.M{"$gte": start}})

	re := bson.M{"$regex": `a\.b`, "$options": "i"}
	assert.Contains(t, and, bson.M{"$or": bson.A{
		bson.M{"title": re}, bson.M{"description": re}, bson.M{"location": re},
	}})
}

func TestSearchOptions(t *testing.T) {
	opts := searchOptions(domain.NewQuery().WithSort(domain.SortByPrice, domain.SortAsc).WithPage(10, 20))
	assert.Equal(t, bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}}, opts.Sort)
	require.NotNil(t, opts.Skip)
	require.NotNil(t, opts.Limit)
	assert.EqualValues(t, 20, *opts.Skip)
	assert.EqualValues(t, 10, *opts.Limit)

	def := searchOptions(domain.NewQuery())
	assert.Equal(t, bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}, def.Sort)
}

func TestListingDocumentRoundTrip(t *testing.T) {
	sq := 450
	l := domain.Listing{
		ID: "1", Title: "Studio", Price: 2200, Currency: "USD", PropertyType: domain.PropertyStudio,
		SquareFootage: &sq, Images: []string{"https://x/1.jpg"}, ListerID: "u1", IsActive: true,
		StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
	}
	got := toDomainListing(toListingDocument(&l))
	assert.Equal(t, l, got)
}
