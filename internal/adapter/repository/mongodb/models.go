package mongodb

import (
	"time"

	"github.com/subleasefinder/sublease-client/internal/listing/domain"
)

// listingDocument is how a Listing is stored. The id is the API id, not an
// ObjectID, so fixture ids like "1" survive a round trip.
type listingDocument struct {
	ID                string    `bson:"_id"`
	Title             string    `bson:"title"`
	Description       string    `bson:"description"`
	Price             float64   `bson:"price"`
	Currency          string    `bson:"currency"`
	Location          string    `bson:"location"`
	Latitude          float64   `bson:"latitude"`
	Longitude         float64   `bson:"longitude"`
	StartDate         time.Time `bson:"start_date"`
	EndDate           time.Time `bson:"end_date"`
	NumberOfBedrooms  int       `bson:"bedrooms"`
	NumberOfBathrooms float64   `bson:"bathrooms"`
	SquareFootage     *int      `bson:"square_footage,omitempty"`
	PropertyType      string    `bson:"property_type"`
	Amenities         []string  `bson:"amenities,omitempty"`
	HasRoommates      bool      `bson:"has_roommates"`
	Images            []string  `bson:"images,omitempty"`
	CoverImageIndex   int       `bson:"cover_image_index"`
	ListerID          string    `bson:"lister_id"`
	ListerName        string    `bson:"lister_name"`
	CreatedAt         time.Time `bson:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at"`
	IsActive          bool      `bson:"is_active"`
}

type favoriteDocument struct {
	UserID    string    `bson:"user_id"`
	ListingID string    `bson:"listing_id"`
	CreatedAt time.Time `bson:"created_at"`
}

type userDocument struct {
	ID          string    `bson:"_id"`
	Email       string    `bson:"email"`
	DisplayName string    `bson:"display_name"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func toListingDocument(l *domain.Listing) *listingDocument {
	return &listingDocument{
		ID:                l.ID,
		Title:             l.Title,
		Description:       l.Description,
		Price:             l.Price,
		Currency:          l.Currency,
		Location:          l.Location,
		Latitude:          l.Latitude,
		Longitude:         l.Longitude,
		StartDate:         l.StartDate.UTC(),
		EndDate:           l.EndDate.UTC(),
		NumberOfBedrooms:  l.NumberOfBedrooms,
		NumberOfBathrooms: l.NumberOfBathrooms,
		SquareFootage:     l.SquareFootage,
		PropertyType:      string(l.PropertyType),
		Amenities:         l.Amenities,
		HasRoommates:      l.HasRoommates,
		Images:            l.Images,
		CoverImageIndex:   l.CoverImageIndex,
		ListerID:          l.ListerID,
		ListerName:        l.ListerName,
		CreatedAt:         l.CreatedAt.UTC(),
		UpdatedAt:         l.UpdatedAt.UTC(),
		IsActive:          l.IsActive,
	}
}

func toDomainListing(d *listingDocument) domain.Listing {
	return domain.Listing{
		ID:                d.ID,
		Title:             d.Title,
		Description:       d.Description,
		Price:             d.Price,
		Currency:          d.Currency,
		Location:          d.Location,
		Latitude:          d.Latitude,
		Longitude:         d.Longitude,
		StartDate:         d.StartDate,
		EndDate:           d.EndDate,
		NumberOfBedrooms:  d.NumberOfBedrooms,
		NumberOfBathrooms: d.NumberOfBathrooms,
		SquareFootage:     d.SquareFootage,
		PropertyType:      domain.PropertyType(d.PropertyType),
		Amenities:         d.Amenities,
		HasRoommates:      d.HasRoommates,
		Images:            d.Images,
		CoverImageIndex:   d.CoverImageIndex,
		ListerID:          d.ListerID,
		ListerName:        d.ListerName,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
		IsActive:          d.IsActive,
	}
}

func toDomainListings(docs []*listingDocument) []domain.Listing {
	out := make([]domain.Listing, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toDomainListing(doc))
	}
	return out
}
