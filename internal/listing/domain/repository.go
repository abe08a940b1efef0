package domain

import "context"

// ListingAPI is the remote listings backend.
type ListingAPI interface {
	SearchListings(ctx context.Context, q Query) (*ListingResponse, error)
	CreateListing(ctx context.Context, req CreateListingRequest) (*Listing, error)
	UpdateListing(ctx context.Context, id string, req CreateListingRequest) (*Listing, error)
	FavoriteListing(ctx context.Context, id string) (*FavoriteResult, error)
	UploadAuthorizer
}

// UploadAuthorizer hands out presigned destinations for single files.
type UploadAuthorizer interface {
	RequestUploadAuthorization(ctx context.Context, contentType string) (*PresignedUpload, error)
}

// ObjectTransfer moves raw bytes to a presigned URL.
type ObjectTransfer interface {
	Put(ctx context.Context, uploadURL, contentType string, data []byte) error
}

// ResponseCache stores search results by normalized query.
type ResponseCache interface {
	Get(ctx context.Context, q Query) (*ListingResponse, bool)
	Put(ctx context.Context, q Query, resp *ListingResponse)
	InvalidateAll(ctx context.Context)
}

// TokenSource yields the bearer token for the current session, if any.
type TokenSource interface {
	IDToken(ctx context.Context) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
}
