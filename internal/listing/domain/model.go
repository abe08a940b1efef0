package domain

import (
	"fmt"
	"time"
)

type PropertyType string

const (
	PropertyApartment PropertyType = "apartment"
	PropertyHouse     PropertyType = "house"
	PropertyCondo     PropertyType = "condo"
	PropertyStudio    PropertyType = "studio"
	PropertyShared    PropertyType = "shared"
)

var PropertyTypes = []PropertyType{PropertyApartment, PropertyHouse, PropertyCondo, PropertyStudio, PropertyShared}

func (p PropertyType) Valid() bool {
	for _, t := range PropertyTypes {
		if t == p {
			return true
		}
	}
	return false
}

// Listing is a sublease offering as returned by the API. Listings are never
// deleted client-side; IsActive=false marks a soft removal.
type Listing struct {
	ID                string       `json:"id"`
	Title             string       `json:"title"`
	Description       string       `json:"description"`
	Price             float64      `json:"price"`
	Currency          string       `json:"currency"`
	Location          string       `json:"location"`
	Latitude          float64      `json:"latitude"`
	Longitude         float64      `json:"longitude"`
	StartDate         time.Time    `json:"startDate"`
	EndDate           time.Time    `json:"endDate"`
	NumberOfBedrooms  int          `json:"numberOfBedrooms"`
	NumberOfBathrooms float64      `json:"numberOfBathrooms"`
	SquareFootage     *int         `json:"squareFootage,omitempty"`
	PropertyType      PropertyType `json:"propertyType"`
	Amenities         []string     `json:"amenities"`
	HasRoommates      bool         `json:"hasRoommates"`
	Images            []string     `json:"images"`
	CoverImageIndex   int          `json:"coverImageIndex"`
	ListerID          string       `json:"listerId"`
	ListerName        string       `json:"listerName"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
	IsActive          bool         `json:"isActive"`
}

// CoverImage returns the URL at CoverImageIndex, if any.
func (l *Listing) CoverImage() (string, bool) {
	if l.CoverImageIndex < 0 || l.CoverImageIndex >= len(l.Images) {
		return "", false
	}
	return l.Images[l.CoverImageIndex], true
}

// Clone returns a copy that shares no slices or pointers with l.
func (l Listing) Clone() Listing {
	out := l
	if l.Images != nil {
		out.Images = append([]string{}, l.Images...)
	}
	if l.Amenities != nil {
		out.Amenities = append([]string{}, l.Amenities...)
	}
	if l.SquareFootage != nil {
		v := *l.SquareFootage
		out.SquareFootage = &v
	}
	return out
}

func (l *Listing) Validate() error {
	if len(l.Images) > 0 && (l.CoverImageIndex < 0 || l.CoverImageIndex >= len(l.Images)) {
		return fmt.Errorf("%w: cover image index %d out of range for %d images", ErrInvalidListingData, l.CoverImageIndex, len(l.Images))
	}
	if l.NumberOfBedrooms < 0 || l.NumberOfBathrooms < 0 {
		return fmt.Errorf("%w: negative room count", ErrInvalidListingData)
	}
	if !l.PropertyType.Valid() {
		return fmt.Errorf("%w: unknown property type %q", ErrInvalidListingData, l.PropertyType)
	}
	return nil
}

// ListingResponse is the body of GET /listings.
type ListingResponse struct {
	Listings   []Listing `json:"listings"`
	Total      int       `json:"total"`
	HasMore    bool      `json:"hasMore"`
	NextCursor *string   `json:"nextCursor,omitempty"`
}

// Clone copies the response so callers cannot mutate a cached value.
func (r *ListingResponse) Clone() *ListingResponse {
	if r == nil {
		return nil
	}
	out := *r
	if r.Listings != nil {
		out.Listings = make([]Listing, len(r.Listings))
		for i := range r.Listings {
			out.Listings[i] = r.Listings[i].Clone()
		}
	}
	if r.NextCursor != nil {
		c := *r.NextCursor
		out.NextCursor = &c
	}
	return &out
}

// CreateListingRequest is the body of POST /listings and PUT /listings/{id}.
type CreateListingRequest struct {
	Title             string       `json:"title" validate:"required,max=120"`
	Description       string       `json:"description" validate:"max=5000"`
	Price             float64      `json:"price" validate:"gt=0"`
	Currency          string       `json:"currency" validate:"required,len=3"`
	Location          string       `json:"location" validate:"required"`
	Latitude          float64      `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude         float64      `json:"longitude" validate:"gte=-180,lte=180"`
	StartDate         time.Time    `json:"startDate" validate:"required"`
	EndDate           time.Time    `json:"endDate" validate:"required,gtfield=StartDate"`
	NumberOfBedrooms  int          `json:"numberOfBedrooms" validate:"gte=0"`
	NumberOfBathrooms float64      `json:"numberOfBathrooms" validate:"gte=0"`
	SquareFootage     *int         `json:"squareFootage,omitempty" validate:"omitempty,gt=0"`
	PropertyType      PropertyType `json:"propertyType" validate:"required,oneof=apartment house condo studio shared"`
	Amenities         []string     `json:"amenities"`
	HasRoommates      bool         `json:"hasRoommates"`
	Images            []string     `json:"images" validate:"max=10,dive,url"`
	CoverImageIndex   int          `json:"coverImageIndex" validate:"gte=0"`
}

// PresignedUpload is a pre-authorized destination for one file.
type PresignedUpload struct {
	UploadURL string `json:"uploadUrl"`
	FileURL   string `json:"fileUrl"`
	Key       string `json:"key"`
}

// FavoriteResult is the body of POST /favorites/{id}.
type FavoriteResult struct {
	ListingID string `json:"listingId"`
	Favorited bool   `json:"favorited"`
}
