package httpapi

import (
	"context"

	"github.com/subleasefinder/sublease-client/internal/listing/domain"
)

var _ domain.ListingAPI = (*Client)(nil)

func (c *Client) SearchListings(ctx context.Context, q domain.Query) (*domain.ListingResponse, error) {
	var out domain.ListingResponse
	if err := c.Do(ctx, SearchListingsEndpoint(q), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateListing(ctx context.Context, req domain.CreateListingRequest) (*domain.Listing, error) {
	var out domain.Listing
	if err := c.Do(ctx, CreateListingEndpoint(), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateListing(ctx context.Context, id string, req domain.CreateListingRequest) (*domain.Listing, error) {
	var out domain.Listing
	if err := c.Do(ctx, UpdateListingEndpoint(id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FavoriteListing(ctx context.Context, id string) (*domain.FavoriteResult, error) {
	var out domain.FavoriteResult
	if err := c.Do(ctx, FavoriteEndpoint(id), nil, &out); err != nil {
		return nil, err
	}
	if out.ListingID == "" {
		out.ListingID = id
	}
	return &out, nil
}

func (c *Client) RequestUploadAuthorization(ctx context.Context, contentType string) (*domain.PresignedUpload, error) {
	var out domain.PresignedUpload
	if err := c.Do(ctx, PresignEndpoint(contentType), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
