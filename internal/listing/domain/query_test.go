package domain

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryBuildersReturnCopies(t *testing.T) {
	base := NewQuery()
	min := 1000.0
	withPrice := base.WithPriceRange(&min, nil)
	min = 5

	assert.Nil(t, base.PriceMin)
	require.NotNil(t, withPrice.PriceMin)
	assert.Equal(t, 1000.0, *withPrice.PriceMin)
	assert.Equal(t, SortByCreatedAt, base.SortBy)
	assert.Equal(t, SortDesc, base.SortOrder)
	assert.Equal(t, DefaultSearchLimit, base.Limit)
}

func TestCacheKeyIsDeterministic(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.FixedZone("EST", -5*3600))
	end := start.Add(48 * time.Hour)
	beds := 2
	a := NewQuery().WithSearchText("  mission ").WithBedrooms(&beds).WithDateRange(&start, &end)
	b := NewQuery().WithSearchText("mission").WithBedrooms(&beds).WithDateRange(ptr(start.UTC()), ptr(end.UTC()))

	assert.Equal(t, a.Canonical(), b.Canonical())
	assert.Equal(t, a.CacheKey(), b.CacheKey())
	assert.Len(t, a.CacheKey(), 64)
}

func TestCacheKeyCoversPaginationAndBoundingBox(t *testing.T) {
	base := NewQuery()
	assert.NotEqual(t, base.CacheKey(), base.WithPage(50, 50).CacheKey())
	assert.NotEqual(t, base.CacheKey(), base.WithBoundingBox(BoundingBox{North: 1, South: 0, East: 1, West: 0}).CacheKey())

	// a quote inside the search text must not shift into the next field
	tricky := base.WithSearchText(`a";propertyType="studio`)
	studio := base.WithSearchText("a").WithPropertyType(PropertyStudio)
	assert.NotEqual(t, tricky.Canonical(), studio.Canonical())
}

func TestCacheKeyDistinctForRandomQueries(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	seen := make(map[string]string)
	for i := 0; i < 2000; i++ {
		q := randomQuery(rng)
		canonical := q.Canonical()
		key := q.CacheKey()
		if prev, ok := seen[key]; ok {
			assert.Equal(t, prev, canonical, "different queries share key %s", key)
			continue
		}
		seen[key] = canonical
	}
	// every field perturbation changes the key
	q := randomQuery(rng)
	one := 1
	variants := []Query{
		q.WithSearchText(q.SearchText + "x"),
		q.WithPriceRange(ptr(1.5), q.PriceMax),
		q.WithPriceRange(q.PriceMin, ptr(99999.0)),
		q.WithBedrooms(&one).WithBedrooms(ptr(7)),
		q.WithPropertyType("penthouse"),
		q.WithDateRange(ptr(time.Unix(1, 0)), q.EndDate),
		q.WithDateRange(q.StartDate, ptr(time.Unix(2, 0))),
		q.WithSort(q.SortBy, flip(q.SortOrder)),
		q.WithPage(q.Limit+1, q.Offset),
		q.WithPage(q.Limit, q.Offset+1),
		q.WithBoundingBox(BoundingBox{North: 90, South: -90, East: 180, West: -180.5}),
	}
	for i, v := range variants {
		assert.NotEqual(t, q.CacheKey(), v.CacheKey(), "variant %d", i)
	}
}

func TestBoundingBox(t *testing.T) {
	b := BoundingBox{North: 38, South: 37, East: -122, West: -123}
	assert.True(t, b.Contains(37.77, -122.41))
	assert.False(t, b.Contains(40, -122.41))
	lat, lng := b.Center()
	assert.Equal(t, 37.5, lat)
	assert.Equal(t, -122.5, lng)
}

func randomQuery(rng *rand.Rand) Query {
	q := NewQuery()
	if rng.Intn(2) == 0 {
		q = q.WithBoundingBox(BoundingBox{North: rng.Float64() * 90, South: -rng.Float64() * 90, East: rng.Float64() * 180, West: -rng.Float64() * 180})
	}
	if rng.Intn(2) == 0 {
		q = q.WithSearchText([]string{"", "loft", "mission", "near bart", "sunny"}[rng.Intn(5)])
	}
	var min, max *float64
	if rng.Intn(2) == 0 {
		min = ptr(float64(rng.Intn(5000)))
	}
	if rng.Intn(2) == 0 {
		max = ptr(float64(rng.Intn(5000)))
	}
	q = q.WithPriceRange(min, max)
	if rng.Intn(2) == 0 {
		q = q.WithBedrooms(ptr(rng.Intn(5)))
	}
	if rng.Intn(2) == 0 {
		q = q.WithPropertyType(PropertyTypes[rng.Intn(len(PropertyTypes))])
	}
	if rng.Intn(2) == 0 {
		s := time.Unix(int64(rng.Intn(1_000_000))*3600, 0)
		q = q.WithDateRange(&s, nil)
	}
	q = q.WithSort([]SortField{SortByPrice, SortByCreatedAt, SortByDistance}[rng.Intn(3)], []SortOrder{SortAsc, SortDesc}[rng.Intn(2)])
	return q.WithPage(rng.Intn(100), rng.Intn(100))
}

func ptr[T any](v T) *T { return &v }

func flip(o SortOrder) SortOrder {
	if o == SortAsc {
		return SortDesc
	}
	return SortAsc
}
