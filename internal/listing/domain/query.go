package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

type SortField string

const (
	SortByPrice     SortField = "price"
	SortByCreatedAt SortField = "createdAt"
	SortByDistance  SortField = "distance"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

const (
	DefaultSearchLimit = 50
	SavedSearchLimit   = 20
)

type BoundingBox struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

func (b BoundingBox) Contains(lat, lng float64) bool {
	return lat <= b.North && lat >= b.South && lng <= b.East && lng >= b.West
}

func (b BoundingBox) Center() (lat, lng float64) {
	return (b.North + b.South) / 2, (b.East + b.West) / 2
}

// Query describes one listings search. Treat it as a value: the With*
// methods return modified copies and never touch the receiver.
type Query struct {
	BBox         *BoundingBox `json:"bbox,omitempty"`
	SearchText   string       `json:"searchText,omitempty"`
	PriceMin     *float64     `json:"priceMin,omitempty"`
	PriceMax     *float64     `json:"priceMax,omitempty"`
	Bedrooms     *int         `json:"bedrooms,omitempty"`
	PropertyType PropertyType `json:"propertyType,omitempty"`
	StartDate    *time.Time   `json:"startDate,omitempty"`
	EndDate      *time.Time   `json:"endDate,omitempty"`
	SortBy       SortField    `json:"sortBy"`
	SortOrder    SortOrder    `json:"sortOrder"`
	Limit        int          `json:"limit"`
	Offset       int          `json:"offset"`
}

func NewQuery() Query {
	return Query{
		SortBy:    SortByCreatedAt,
		SortOrder: SortDesc,
		Limit:     DefaultSearchLimit,
	}
}

func (q Query) WithBoundingBox(b BoundingBox) Query {
	q.BBox = &b
	return q
}

func (q Query) WithSearchText(text string) Query {
	q.SearchText = strings.TrimSpace(text)
	return q
}

// WithPriceRange sets the price bounds; nil clears a bound.
func (q Query) WithPriceRange(min, max *float64) Query {
	q.PriceMin = copyPtr(min)
	q.PriceMax = copyPtr(max)
	return q
}

func (q Query) WithBedrooms(n *int) Query {
	q.Bedrooms = copyPtr(n)
	return q
}

func (q Query) WithPropertyType(p PropertyType) Query {
	q.PropertyType = p
	return q
}

func (q Query) WithDateRange(start, end *time.Time) Query {
	q.StartDate = copyPtr(start)
	q.EndDate = copyPtr(end)
	return q
}

func (q Query) WithSort(field SortField, order SortOrder) Query {
	q.SortBy = field
	q.SortOrder = order
	return q
}

func (q Query) WithPage(limit, offset int) Query {
	q.Limit = limit
	q.Offset = offset
	return q
}

// Canonical renders every discriminating field in a fixed order. Strings are
// quoted and absent values are written as "-", so distinct queries never
// render to the same text.
func (q Query) Canonical() string {
	var b strings.Builder
	field := func(name, value string) {
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(value)
		b.WriteByte(';')
	}

	if q.BBox != nil {
		field("bbox", strings.Join([]string{
			formatFloat(q.BBox.North), formatFloat(q.BBox.South),
			formatFloat(q.BBox.East), formatFloat(q.BBox.West),
		}, ","))
	} else {
		field("bbox", "-")
	}
	field("q", strconv.Quote(q.SearchText))
	field("priceMin", optFloat(q.PriceMin))
	field("priceMax", optFloat(q.PriceMax))
	if q.Bedrooms != nil {
		field("bedrooms", strconv.Itoa(*q.Bedrooms))
	} else {
		field("bedrooms", "-")
	}
	field("propertyType", strconv.Quote(string(q.PropertyType)))
	field("startDate", optTime(q.StartDate))
	field("endDate", optTime(q.EndDate))
	field("sortBy", strconv.Quote(string(q.SortBy)))
	field("sortOrder", strconv.Quote(string(q.SortOrder)))
	field("limit", strconv.Itoa(q.Limit))
	field("offset", strconv.Itoa(q.Offset))
	return b.String()
}

// CacheKey is a filename-safe digest of Canonical.
func (q Query) CacheKey() string {
	sum := sha256.Sum256([]byte(q.Canonical()))
	return hex.EncodeToString(sum[:])
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func optFloat(f *float64) string {
	if f == nil {
		return "-"
	}
	return formatFloat(*f)
}

func optTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339Nano)
}
