package domain

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// Matches reports whether l satisfies every filter in q. Inactive listings
// never match.
func (q Query) Matches(l Listing) bool {
	if !l.IsActive {
		return false
	}
	if q.BBox != nil && !q.BBox.Contains(l.Latitude, l.Longitude) {
		return false
	}
	if q.SearchText != "" {
		needle := strings.ToLower(q.SearchText)
		hay := strings.ToLower(l.Title + "\n" + l.Description + "\n" + l.Location)
		if !strings.Contains(hay, needle) {
			return false
		}
	}
	if q.PriceMin != nil && l.Price < *q.PriceMin {
		return false
	}
	if q.PriceMax != nil && l.Price > *q.PriceMax {
		return false
	}
	if q.Bedrooms != nil && l.NumberOfBedrooms < *q.Bedrooms {
		return false
	}
	if q.PropertyType != "" && l.PropertyType != q.PropertyType {
		return false
	}
	// requested dates must fall inside the availability window
	if q.StartDate != nil && (q.StartDate.Before(l.StartDate) || q.StartDate.After(l.EndDate)) {
		return false
	}
	if q.EndDate != nil && (q.EndDate.After(l.EndDate) || q.EndDate.Before(l.StartDate)) {
		return false
	}
	return true
}

// SortListings orders ls in place. Distance is measured from the bounding
// box center; without a box it falls back to createdAt. Ties keep input order.
func (q Query) SortListings(ls []Listing) {
	field := q.SortBy
	if field == SortByDistance && q.BBox == nil {
		field = SortByCreatedAt
	}
	var lat, lng float64
	if q.BBox != nil {
		lat, lng = q.BBox.Center()
	}
	less := func(a, b Listing) bool {
		switch field {
		case SortByPrice:
			return a.Price < b.Price
		case SortByDistance:
			return Distance(lat, lng, a.Latitude, a.Longitude) < Distance(lat, lng, b.Latitude, b.Longitude)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	sort.SliceStable(ls, func(i, j int) bool {
		if q.SortOrder == SortDesc {
			return less(ls[j], ls[i])
		}
		return less(ls[i], ls[j])
	})
}

// Page cuts one page out of the full, already sorted result set.
func (q Query) Page(all []Listing) *ListingResponse {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	start := q.Offset
	if start < 0 {
		start = 0
	}
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}

	resp := &ListingResponse{
		Listings: append([]Listing{}, all[start:end]...),
		Total:    len(all),
		HasMore:  end < len(all),
	}
	if resp.HasMore {
		cursor := strconv.Itoa(end)
		resp.NextCursor = &cursor
	}
	return resp
}

// Search runs q over an in-memory collection.
func (q Query) Search(ls []Listing) *ListingResponse {
	matched := make([]Listing, 0, len(ls))
	for _, l := range ls {
		if q.Matches(l) {
			matched = append(matched, l)
		}
	}
	q.SortListings(matched)
	return q.Page(matched)
}

const earthRadiusKm = 6371.0

// Distance is the great-circle distance in kilometres.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
