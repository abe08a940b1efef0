package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/subleasefinder/sublease-client/internal/listing/domain"
	"github.com/subleasefinder/sublease-client/internal/listing/usecase"
)

const dateLayout = "2006-01-02"

// optionalFloat and optionalInt leave the filter unset when the flag is not given.
type optionalFloat struct{ v *float64 }

func (o *optionalFloat) String() string {
	if o.v == nil {
		return ""
	}
	return fmt.Sprint(*o.v)
}

func (o *optionalFloat) Set(s string) error {
	var f float64
	if _, err := fmt.Sscan(s, &f); err != nil {
		return err
	}
	o.v = &f
	return nil
}

type optionalInt struct{ v *int }

func (o *optionalInt) String() string {
	if o.v == nil {
		return ""
	}
	return fmt.Sprint(*o.v)
}

func (o *optionalInt) Set(s string) error {
	var n int
	if _, err := fmt.Sscan(s, &n); err != nil {
		return err
	}
	o.v = &n
	return nil
}

type optionalDate struct{ v *time.Time }

func (o *optionalDate) String() string {
	if o.v == nil {
		return ""
	}
	return o.v.Format(dateLayout)
}

func (o *optionalDate) Set(s string) error {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return err
	}
	o.v = &t
	return nil
}

type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(s string) error {
	*l = append(*l, s)
	return nil
}

func (a *app) search(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	text := fs.String("q", "", "free-text search")
	propertyType := fs.String("type", "", "apartment, house, condo, studio or shared")
	sortBy := fs.String("sort", string(domain.SortByCreatedAt), "createdAt, price or distance")
	order := fs.String("order", string(domain.SortDesc), "asc or desc")
	bbox := fs.String("bbox", "", "north,south,east,west")
	var priceMin, priceMax optionalFloat
	var bedrooms optionalInt
	var start, end optionalDate
	fs.Var(&priceMin, "min-price", "minimum monthly price")
	fs.Var(&priceMax, "max-price", "maximum monthly price")
	fs.Var(&bedrooms, "bedrooms", "minimum bedrooms")
	fs.Var(&start, "from", "move-in date, YYYY-MM-DD")
	fs.Var(&end, "to", "move-out date, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.signIn(ctx, "", ""); err != nil {
		return err
	}

	filters := usecase.Filters{
		PriceMin:     priceMin.v,
		PriceMax:     priceMax.v,
		Bedrooms:     bedrooms.v,
		PropertyType: domain.PropertyType(*propertyType),
		StartDate:    start.v,
		EndDate:      end.v,
		SortBy:       domain.SortField(*sortBy),
		SortOrder:    domain.SortOrder(*order),
	}
	if *bbox != "" {
		var b domain.BoundingBox
		if _, err := fmt.Sscanf(*bbox, "%f,%f,%f,%f", &b.North, &b.South, &b.East, &b.West); err != nil {
			return fmt.Errorf("invalid -bbox %q: %w", *bbox, err)
		}
		filters.BBox = &b
	}

	browse := usecase.NewBrowseFlow(a.directory, a.cfg.SearchDebounce, a.log)
	defer browse.Cancel()
	browse.ApplyFilters(filters)
	browse.SetSearchText(*text)
	resp, err := browse.Refresh(ctx)
	if err != nil {
		return err
	}
	return a.print(resp)
}

func (a *app) saved(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("saved", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.signIn(ctx, "", ""); err != nil {
		return err
	}
	browse := usecase.NewBrowseFlow(a.directory, a.cfg.SearchDebounce, a.log)
	defer browse.Cancel()
	resp, err := browse.RefreshSaved(ctx)
	if err != nil {
		return err
	}
	return a.print(resp)
}

func (a *app) publish(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("publish", flag.ContinueOnError)
	email := fs.String("email", "", "account email; empty posts as a guest")
	password := fs.String("password", "", "account password")
	title := fs.String("title", "", "listing title")
	description := fs.String("description", "", "listing description")
	price := fs.Float64("price", 0, "monthly price")
	currency := fs.String("currency", domain.DefaultCurrency, "ISO currency code")
	location := fs.String("location", "", "address or neighborhood")
	lat := fs.Float64("lat", 0, "latitude")
	lng := fs.Float64("lng", 0, "longitude")
	bedrooms := fs.Int("bedrooms", 1, "number of bedrooms")
	bathrooms := fs.Float64("bathrooms", 1, "number of bathrooms")
	propertyType := fs.String("type", string(domain.PropertyApartment), "apartment, house, condo, studio or shared")
	roommates := fs.Bool("roommates", false, "the place has roommates")
	cover := fs.Int("cover", 0, "index of the cover image")
	var sqft optionalInt
	var start, end optionalDate
	var amenities, images stringList
	fs.Var(&sqft, "sqft", "square footage")
	fs.Var(&start, "from", "available from, YYYY-MM-DD")
	fs.Var(&end, "to", "available until, YYYY-MM-DD")
	fs.Var(&amenities, "amenity", "amenity, repeatable")
	fs.Var(&images, "image", "image file, repeatable")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.signIn(ctx, *email, *password); err != nil {
		return err
	}

	uploads := make([]domain.ImageUpload, 0, len(images))
	for _, path := range images {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read image %s: %w", path, err)
		}
		uploads = append(uploads, domain.ImageUpload{Data: data, ContentType: http.DetectContentType(data)})
	}

	limits := domain.DraftLimits{MaxImages: a.cfg.MaxImagesPerListing, MaxImageSize: a.cfg.MaxImageSize}
	flow := usecase.NewPostFlow(a.uploads, a.directory, limits, a.log, a.metrics)
	flow.EditDraft(func(d *domain.ListingDraft) {
		d.Title = *title
		d.Description = *description
		d.Price = *price
		d.Currency = *currency
		d.Location = *location
		d.Latitude, d.Longitude = *lat, *lng
		if start.v != nil {
			d.StartDate = *start.v
		}
		if end.v != nil {
			d.EndDate = *end.v
		}
		d.NumberOfBedrooms = *bedrooms
		d.NumberOfBathrooms = *bathrooms
		d.SquareFootage = sqft.v
		d.PropertyType = domain.PropertyType(*propertyType)
		d.Amenities = amenities
		d.HasRoommates = *roommates
		d.CoverImageIndex = *cover
		for _, img := range uploads {
			d.AddImage(img.Data, img.ContentType)
		}
	})
	for flow.Step() != usecase.StepReview {
		flow.Next()
	}

	listing, err := flow.Publish(ctx)
	if err != nil {
		return err
	}
	return a.print(listing)
}

func (a *app) favorite(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("favorite", flag.ContinueOnError)
	email := fs.String("email", "", "account email; empty uses a guest")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: favorite [flags] <listing-id>")
	}
	if err := a.signIn(ctx, *email, *password); err != nil {
		return err
	}
	result, err := a.directory.Favorite(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	return a.print(result)
}

func (a *app) print(v interface{}) error {
	return writeJSON(a.out, v)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
