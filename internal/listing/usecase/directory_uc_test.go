package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/subleasefinder/sublease-client/internal/adapter/repository/cache"
	"github.com/subleasefinder/sublease-client/internal/listing/domain"
)

func newDirectory(t *testing.T, api *mockAPI, opts ...DirectoryOption) *ListingDirectory {
	t.Helper()
	c, err := cache.NewListingCache(nil, 10)
	require.NoError(t, err)
	return NewListingDirectory(api, c, nil, opts...)
}

func listing(id string) domain.Listing {
	return domain.Listing{ID: id, Title: "Listing " + id, PropertyType: domain.PropertyApartment, IsActive: true}
}

func TestSearchUsesCacheAfterFirstFetch(t *testing.T) {
	ctx := context.Background()
	api := &mockAPI{}
	q := domain.NewQuery().WithPropertyType(domain.PropertyStudio)
	api.On("SearchListings", mock.Anything, q).Return(&domain.ListingResponse{Listings: []domain.Listing{listing("a")}, Total: 1}, nil).Once()
	d := newDirectory(t, api)

	first, err := d.Search(ctx, q)
	require.NoError(t, err)
	second, err := d.Search(ctx, q)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	api.AssertNumberOfCalls(t, "SearchListings", 1)
	assert.Len(t, d.State().Listings, 1)
	assert.False(t, d.State().IsLoading)
}

func TestCreateInvalidatesCacheAndPrepends(t *testing.T) {
	ctx := context.Background()
	api := &mockAPI{}
	q := domain.NewQuery()
	api.On("SearchListings", mock.Anything, q).Return(&domain.ListingResponse{Listings: []domain.Listing{listing("old")}, Total: 1}, nil).Once()
	api.On("SearchListings", mock.Anything, q).Return(&domain.ListingResponse{Listings: []domain.Listing{listing("new"), listing("old")}, Total: 2}, nil).Once()
	created := listing("new")
	api.On("CreateListing", mock.Anything, mock.AnythingOfType("domain.CreateListingRequest")).Return(&created, nil)
	d := newDirectory(t, api)

	_, err := d.Search(ctx, q)
	require.NoError(t, err)

	got, err := d.Create(ctx, domain.CreateListingRequest{Title: "New"})
	require.NoError(t, err)
	assert.Equal(t, "new", got.ID)
	assert.Equal(t, []string{"new", "old"}, ids(d.State().Listings))

	resp, err := d.Search(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Total, "pre-create cached result must not be served")
	api.AssertNumberOfCalls(t, "SearchListings", 2)
}

func TestUpdateReplacesByIDAndInvalidates(t *testing.T) {
	ctx := context.Background()
	api := &mockAPI{}
	q := domain.NewQuery()
	api.On("SearchListings", mock.Anything, q).Return(&domain.ListingResponse{Listings: []domain.Listing{listing("a"), listing("b")}}, nil)
	updated := listing("b")
	updated.Title = "Renamed"
	api.On("UpdateListing", mock.Anything, "b", mock.Anything).Return(&updated, nil)
	d := newDirectory(t, api)

	_, err := d.Search(ctx, q)
	require.NoError(t, err)
	_, err = d.Update(ctx, "b", domain.CreateListingRequest{Title: "Renamed"})
	require.NoError(t, err)

	state := d.State()
	assert.Equal(t, "Listing a", state.Listings[0].Title)
	assert.Equal(t, "Renamed", state.Listings[1].Title)

	_, err = d.Search(ctx, q)
	require.NoError(t, err)
	api.AssertNumberOfCalls(t, "SearchListings", 2)
}

func TestFavoriteKeepsCacheAndPublishes(t *testing.T) {
	ctx := context.Background()
	api := &mockAPI{}
	events := &mockPublisher{}
	q := domain.NewQuery()
	api.On("SearchListings", mock.Anything, q).Return(&domain.ListingResponse{Listings: []domain.Listing{listing("a")}}, nil).Once()
	api.On("FavoriteListing", mock.Anything, "a").Return(&domain.FavoriteResult{ListingID: "a", Favorited: true}, nil)
	events.On("Publish", mock.Anything, domain.EventListingSearch, mock.Anything).Return(nil)
	events.On("Publish", mock.Anything, domain.EventListingFavorite, mock.Anything).Return(errors.New("nats down"))
	d := newDirectory(t, api, WithEvents(events))

	_, err := d.Search(ctx, q)
	require.NoError(t, err)
	res, err := d.Favorite(ctx, "a")
	require.NoError(t, err, "publish failures are not surfaced")
	assert.True(t, res.Favorited)

	_, err = d.Search(ctx, q)
	require.NoError(t, err)
	api.AssertNumberOfCalls(t, "SearchListings", 1)
	events.AssertExpectations(t)
}

func TestErrorsPropagateAndUpdateState(t *testing.T) {
	ctx := context.Background()
	api := &mockAPI{}
	q := domain.NewQuery()
	apiErr := &domain.APIError{Kind: domain.KindServer, StatusCode: 500}
	api.On("SearchListings", mock.Anything, q).Return(nil, apiErr)
	d := newDirectory(t, api)

	var states []DirectoryState
	d.Subscribe(func(s DirectoryState) { states = append(states, s) })

	_, err := d.Search(ctx, q)
	assert.Same(t, apiErr, err)

	require.Len(t, states, 2)
	assert.True(t, states[0].IsLoading)
	assert.False(t, states[1].IsLoading)
	assert.Same(t, apiErr, states[1].Err)
	assert.Same(t, apiErr, d.State().Err)
}

type fixedAuthorizer struct{ up domain.PresignedUpload }

func (f fixedAuthorizer) RequestUploadAuthorization(context.Context, string) (*domain.PresignedUpload, error) {
	up := f.up
	return &up, nil
}

func TestUploadAuthorizerOverride(t *testing.T) {
	api := &mockAPI{}
	d := newDirectory(t, api, WithUploadAuthorizer(fixedAuthorizer{up: domain.PresignedUpload{Key: "k"}}))

	up, err := d.RequestUploadAuthorization(context.Background(), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "k", up.Key)
	api.AssertNotCalled(t, "RequestUploadAuthorization", mock.Anything, mock.Anything)
}

func ids(ls []domain.Listing) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.ID
	}
	return out
}
