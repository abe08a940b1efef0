package devserver

import (
	"time"

	"github.com/subleasefinder/sublease-client/internal/listing/domain"
)

// SampleListings is the Bay Area fixture the devserver starts with.
// Availability windows and timestamps are relative to now.
func SampleListings(now time.Time) []domain.Listing {
	now = now.UTC().Truncate(time.Second)
	day := 24 * time.Hour
	sqft := func(n int) *int { return &n }

	return []domain.Listing{
		{
			ID:          "1",
			Title:       "Cozy Studio in Downtown SF",
			Description: "Beautiful studio apartment in the heart of San Francisco. Walking distance to BART, restaurants, and shopping. Fully furnished.",
			Price:       2200, Currency: "USD",
			Location: "Downtown, San Francisco", Latitude: 37.7749, Longitude: -122.4194,
			StartDate: now, EndDate: now.Add(90 * day),
			NumberOfBedrooms: 0, NumberOfBathrooms: 1, SquareFootage: sqft(450),
			PropertyType: domain.PropertyStudio,
			Amenities:    []string{"WiFi", "Gym", "Laundry", "Furnished", "Air Conditioning"},
			Images: []string{
				"https://images.unsplash.com/photo-1522708323590-d24dbb6b0267?w=800",
				"https://images.unsplash.com/photo-1560448204-e02f11c3d0e2?w=800",
			},
			ListerID: "user1", ListerName: "Sarah Chen",
			CreatedAt: now.Add(-7 * day), UpdatedAt: now.Add(-1 * day), IsActive: true,
		},
		{
			ID:          "2",
			Title:       "Spacious 2BR Near UC Berkeley",
			Description: "Large 2-bedroom apartment 10 minutes from campus. Includes a parking spot and access to building amenities.",
			Price:       3200, Currency: "USD",
			Location: "Berkeley, CA", Latitude: 37.8716, Longitude: -122.2727,
			StartDate: now.Add(7 * day), EndDate: now.Add(120 * day),
			NumberOfBedrooms: 2, NumberOfBathrooms: 1.5, SquareFootage: sqft(850),
			PropertyType: domain.PropertyApartment,
			Amenities:    []string{"WiFi", "Parking", "Gym", "Pool", "Dishwasher"},
			Images: []string{
				"https://images.unsplash.com/photo-1560448075-bb485b067938?w=800",
				"https://images.unsplash.com/photo-1560185893-a55cbc8c57e8?w=800",
			},
			ListerID: "user2", ListerName: "Mike Rodriguez",
			CreatedAt: now.Add(-3 * day), UpdatedAt: now, IsActive: true,
		},
		{
			ID:          "3",
			Title:       "Modern 1BR in Palo Alto",
			Description: "Recently renovated 1-bedroom apartment close to Stanford. High-end finishes and appliances included.",
			Price:       2800, Currency: "USD",
			Location: "Palo Alto, CA", Latitude: 37.4419, Longitude: -122.1430,
			StartDate: now.Add(14 * day), EndDate: now.Add(180 * day),
			NumberOfBedrooms: 1, NumberOfBathrooms: 1, SquareFootage: sqft(650),
			PropertyType: domain.PropertyApartment,
			Amenities:    []string{"WiFi", "Gym", "Pool", "Furnished", "Air Conditioning", "Balcony"},
			Images: []string{
				"https://images.unsplash.com/photo-1560185127-6ed189bf02f4?w=800",
				"https://images.unsplash.com/photo-1560448204-603b3fc33ddc?w=800",
			},
			ListerID: "user3", ListerName: "Emily Johnson",
			CreatedAt: now.Add(-1 * day), UpdatedAt: now, IsActive: true,
		},
		{
			ID:          "4",
			Title:       "Shared Room in Student House",
			Description: "Private room in a 4-bedroom house shared with 3 other students. Backyard and parking.",
			Price:       1200, Currency: "USD",
			Location: "Oakland, CA", Latitude: 37.8044, Longitude: -122.2711,
			StartDate: now, EndDate: now.Add(60 * day),
			NumberOfBedrooms: 1, NumberOfBathrooms: 2, SquareFootage: sqft(200),
			PropertyType: domain.PropertyShared,
			Amenities:    []string{"WiFi", "Laundry", "Backyard", "Parking"},
			HasRoommates: true,
			Images: []string{
				"https://images.unsplash.com/photo-1560185893-a55cbc8c57e8?w=800",
				"https://images.unsplash.com/photo-1560448204-e02f11c3d0e2?w=800",
			},
			ListerID: "user4", ListerName: "Alex Thompson",
			CreatedAt: now.Add(-5 * day), UpdatedAt: now.Add(-2 * day), IsActive: true,
		},
		{
			ID:          "5",
			Title:       "Luxury Condo in San Jose",
			Description: "High-end 2-bedroom condo in downtown San Jose with rooftop deck and fitness center.",
			Price:       3800, Currency: "USD",
			Location: "San Jose, CA", Latitude: 37.3382, Longitude: -121.8863,
			StartDate: now.Add(21 * day), EndDate: now.Add(150 * day),
			NumberOfBedrooms: 2, NumberOfBathrooms: 2, SquareFootage: sqft(1100),
			PropertyType: domain.PropertyCondo,
			Amenities:    []string{"WiFi", "Gym", "Pool", "Rooftop Deck", "Concierge", "Furnished"},
			Images: []string{
				"https://images.unsplash.com/photo-1560448204-603b3fc33ddc?w=800",
				"https://images.unsplash.com/photo-1560185127-6ed189bf02f4?w=800",
			},
			ListerID: "user5", ListerName: "David Kim",
			CreatedAt: now.Add(-2 * day), UpdatedAt: now, IsActive: true,
		},
		{
			ID:          "6",
			Title:       "Charming House in Mountain View",
			Description: "3-bedroom house with garden in a quiet neighborhood, close to downtown Mountain View.",
			Price:       4500, Currency: "USD",
			Location: "Mountain View, CA", Latitude: 37.3861, Longitude: -122.0839,
			StartDate: now.Add(30 * day), EndDate: now.Add(200 * day),
			NumberOfBedrooms: 3, NumberOfBathrooms: 2.5, SquareFootage: sqft(1800),
			PropertyType: domain.PropertyHouse,
			Amenities:    []string{"WiFi", "Garden", "Parking", "Dishwasher", "Air Conditioning", "Furnished"},
			Images: []string{
				"https://images.unsplash.com/photo-1560185893-a55cbc8c57e8?w=800",
				"https://images.unsplash.com/photo-1560448204-e02f11c3d0e2?w=800",
			},
			ListerID: "user6", ListerName: "Lisa Wang",
			CreatedAt: now.Add(-10 * day), UpdatedAt: now.Add(-1 * day), IsActive: true,
		},
	}
}
