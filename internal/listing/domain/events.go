package domain

import "time"

// Analytics subjects published by the client.
const (
	EventListingSearch   = "analytics.listing_search"
	EventListingCreate   = "analytics.listing_create"
	EventListingUpdate   = "analytics.listing_update"
	EventListingFavorite = "analytics.listing_favorite"
	EventImageUpload     = "analytics.image_upload"
)

// Subjects published by the devserver.
const (
	SubjectListingCreated = "listing.created"
	SubjectListingUpdated = "listing.updated"
)

type AnalyticsEvent struct {
	Name       string                 `json:"name"`
	OccurredAt time.Time              `json:"occurredAt"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}
