package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subleasefinder/sublease-client/internal/listing/domain"
)

func TestEncodeQueryParameters(t *testing.T) {
	min, max, beds := 1000.0, 2500.5, 2
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	q := domain.NewQuery().
		WithBoundingBox(domain.BoundingBox{North: 37.8, South: 37.7, East: -122.3, West: -122.5}).
		WithSearchText("mission").
		WithPriceRange(&min, &max).
		WithBedrooms(&beds).
		WithPropertyType(domain.PropertyStudio).
		WithDateRange(&start, nil).
		WithSort(domain.SortByPrice, domain.SortAsc).
		WithPage(10, 20)

	v := EncodeQuery(q)
	assert.Equal(t, "37.8", v.Get("north"))
	assert.Equal(t, "-122.5", v.Get("west"))
	assert.Equal(t, "mission", v.Get("q"))
	assert.Equal(t, "1000", v.Get("priceMin"))
	assert.Equal(t, "2500.5", v.Get("priceMax"))
	assert.Equal(t, "2", v.Get("bedrooms"))
	assert.Equal(t, "studio", v.Get("propertyType"))
	assert.Equal(t, "2025-06-01T00:00:00Z", v.Get("startDate"))
	assert.Empty(t, v.Get("endDate"))
	assert.Equal(t, "price", v.Get("sortBy"))
	assert.Equal(t, "asc", v.Get("sortOrder"))
	assert.Equal(t, "10", v.Get("limit"))
	assert.Equal(t, "20", v.Get("offset"))

	back, err := DecodeQuery(v)
	require.NoError(t, err)
	assert.Equal(t, q.CacheKey(), back.CacheKey())
}

func TestDecodeQueryDefaultsAndErrors(t *testing.T) {
	q, err := DecodeQuery(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, domain.NewQuery().CacheKey(), q.CacheKey())

	bad := []url.Values{
		{"north": {"1"}},
		{"bedrooms": {"-1"}},
		{"propertyType": {"castle"}},
		{"sortBy": {"rating"}},
		{"startDate": {"yesterday"}},
		{"limit": {"ten"}},
	}
	for _, v := range bad {
		_, err := DecodeQuery(v)
		assert.Error(t, err, "%v", v)
	}
}

func TestTransferPut(t *testing.T) {
	var gotType string
	var gotLen int64
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		gotLen = r.ContentLength
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()
	denied := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer denied.Close()

	tr := NewTransfer(nil, nil)
	require.NoError(t, tr.Put(context.Background(), ok.URL+"/bucket/key", "image/png", []byte("abc")))
	assert.Equal(t, "image/png", gotType)
	assert.EqualValues(t, 3, gotLen)

	err := tr.Put(context.Background(), denied.URL, "image/png", []byte("abc"))
	assert.ErrorIs(t, err, domain.ErrUploadFailed)
}
