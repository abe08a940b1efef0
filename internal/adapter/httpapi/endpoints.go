package httpapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/subleasefinder/sublease-client/internal/listing/domain"
)

// Endpoint is one resolved API route.
type Endpoint struct {
	Name   string
	Method string
	Path   string
	Query  url.Values
}

func SearchListingsEndpoint(q domain.Query) Endpoint {
	return Endpoint{Name: "search_listings", Method: http.MethodGet, Path: "/listings", Query: EncodeQuery(q)}
}

func CreateListingEndpoint() Endpoint {
	return Endpoint{Name: "create_listing", Method: http.MethodPost, Path: "/listings"}
}

func UpdateListingEndpoint(id string) Endpoint {
	return Endpoint{Name: "update_listing", Method: http.MethodPut, Path: "/listings/" + url.PathEscape(id)}
}

func FavoriteEndpoint(id string) Endpoint {
	return Endpoint{Name: "favorite_listing", Method: http.MethodPost, Path: "/favorites/" + url.PathEscape(id)}
}

func PresignEndpoint(contentType string) Endpoint {
	return Endpoint{Name: "presign", Method: http.MethodGet, Path: "/presign", Query: url.Values{"contentType": {contentType}}}
}

// EncodeQuery renders q as GET /listings parameters. Absent fields are omitted.
func EncodeQuery(q domain.Query) url.Values {
	v := url.Values{}
	if q.BBox != nil {
		v.Set("north", formatFloat(q.BBox.North))
		v.Set("south", formatFloat(q.BBox.South))
		v.Set("east", formatFloat(q.BBox.East))
		v.Set("west", formatFloat(q.BBox.West))
	}
	if q.SearchText != "" {
		v.Set("q", q.SearchText)
	}
	if q.PriceMin != nil {
		v.Set("priceMin", formatFloat(*q.PriceMin))
	}
	if q.PriceMax != nil {
		v.Set("priceMax", formatFloat(*q.PriceMax))
	}
	if q.Bedrooms != nil {
		v.Set("bedrooms", strconv.Itoa(*q.Bedrooms))
	}
	if q.PropertyType != "" {
		v.Set("propertyType", string(q.PropertyType))
	}
	if q.StartDate != nil {
		v.Set("startDate", q.StartDate.UTC().Format(time.RFC3339))
	}
	if q.EndDate != nil {
		v.Set("endDate", q.EndDate.UTC().Format(time.RFC3339))
	}
	if q.SortBy != "" {
		v.Set("sortBy", string(q.SortBy))
	}
	if q.SortOrder != "" {
		v.Set("sortOrder", string(q.SortOrder))
	}
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("offset", strconv.Itoa(q.Offset))
	return v
}

// DecodeQuery is the inverse of EncodeQuery. Missing sort and paging
// parameters fall back to domain.NewQuery defaults.
func DecodeQuery(v url.Values) (domain.Query, error) {
	q := domain.NewQuery()

	bboxKeys := []string{"north", "south", "east", "west"}
	present := 0
	for _, k := range bboxKeys {
		if v.Get(k) != "" {
			present++
		}
	}
	switch present {
	case 0:
	case len(bboxKeys):
		var coords [4]float64
		for i, k := range bboxKeys {
			f, err := strconv.ParseFloat(v.Get(k), 64)
			if err != nil {
				return q, fmt.Errorf("invalid %s: %w", k, err)
			}
			coords[i] = f
		}
		q = q.WithBoundingBox(domain.BoundingBox{North: coords[0], South: coords[1], East: coords[2], West: coords[3]})
	default:
		return q, fmt.Errorf("bounding box requires north, south, east and west")
	}

	q = q.WithSearchText(v.Get("q"))

	min, err := optionalFloat(v, "priceMin")
	if err != nil {
		return q, err
	}
	max, err := optionalFloat(v, "priceMax")
	if err != nil {
		return q, err
	}
	q = q.WithPriceRange(min, max)

	if s := v.Get("bedrooms"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return q, fmt.Errorf("invalid bedrooms %q", s)
		}
		q = q.WithBedrooms(&n)
	}
	if s := v.Get("propertyType"); s != "" {
		pt := domain.PropertyType(s)
		if !pt.Valid() {
			return q, fmt.Errorf("invalid propertyType %q", s)
		}
		q = q.WithPropertyType(pt)
	}

	start, err := optionalTime(v, "startDate")
	if err != nil {
		return q, err
	}
	end, err := optionalTime(v, "endDate")
	if err != nil {
		return q, err
	}
	q = q.WithDateRange(start, end)

	sortBy, sortOrder := q.SortBy, q.SortOrder
	if s := v.Get("sortBy"); s != "" {
		switch f := domain.SortField(s); f {
		case domain.SortByPrice, domain.SortByCreatedAt, domain.SortByDistance:
			sortBy = f
		default:
			return q, fmt.Errorf("invalid sortBy %q", s)
		}
	}
	if s := v.Get("sortOrder"); s != "" {
		switch o := domain.SortOrder(s); o {
		case domain.SortAsc, domain.SortDesc:
			sortOrder = o
		default:
			return q, fmt.Errorf("invalid sortOrder %q", s)
		}
	}
	q = q.WithSort(sortBy, sortOrder)

	limit, offset := q.Limit, q.Offset
	if s := v.Get("limit"); s != "" {
		if limit, err = strconv.Atoi(s); err != nil || limit < 0 {
			return q, fmt.Errorf("invalid limit %q", s)
		}
	}
	if s := v.Get("offset"); s != "" {
		if offset, err = strconv.Atoi(s); err != nil || offset < 0 {
			return q, fmt.Errorf("invalid offset %q", s)
		}
	}
	return q.WithPage(limit, offset), nil
}

func optionalFloat(v url.Values, key string) (*float64, error) {
	s := v.Get(key)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, s)
	}
	return &f, nil
}

func optionalTime(v url.Values, key string) (*time.Time, error) {
	s := v.Get(key)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", key, s)
	}
	return &t, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
