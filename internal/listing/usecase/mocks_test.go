package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/subleasefinder/sublease-client/internal/listing/domain"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) SearchListings(ctx context.Context, q domain.Query) (*domain.ListingResponse, error) {
	args := m.Called(ctx, q)
	resp, _ := args.Get(0).(*domain.ListingResponse)
	return resp, args.Error(1)
}

func (m *mockAPI) CreateListing(ctx context.Context, req domain.CreateListingRequest) (*domain.Listing, error) {
	args := m.Called(ctx, req)
	l, _ := args.Get(0).(*domain.Listing)
	return l, args.Error(1)
}

func (m *mockAPI) UpdateListing(ctx context.Context, id string, req domain.CreateListingRequest) (*domain.Listing, error) {
	args := m.Called(ctx, id, req)
	l, _ := args.Get(0).(*domain.Listing)
	return l, args.Error(1)
}

func (m *mockAPI) FavoriteListing(ctx context.Context, id string) (*domain.FavoriteResult, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*domain.FavoriteResult)
	return r, args.Error(1)
}

func (m *mockAPI) RequestUploadAuthorization(ctx context.Context, contentType string) (*domain.PresignedUpload, error) {
	args := m.Called(ctx, contentType)
	u, _ := args.Get(0).(*domain.PresignedUpload)
	return u, args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	return m.Called(ctx, subject, data).Error(0)
}
