package domain

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultCurrency         = "USD"
	DefaultImageContentType = "image/jpeg"
	DefaultAvailability     = 30 * 24 * time.Hour
)

// ImageUpload is an image selected for a draft but not uploaded yet.
type ImageUpload struct {
	Data        []byte
	ContentType string
}

// ListingDraft accumulates a new listing across the posting steps.
type ListingDraft struct {
	Title             string        `json:"title" validate:"required,max=120"`
	Description       string        `json:"description" validate:"max=5000"`
	Price             float64       `json:"price" validate:"gt=0"`
	Currency          string        `json:"currency" validate:"required,len=3"`
	Location          string        `json:"location" validate:"required"`
	Latitude          float64       `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude         float64       `json:"longitude" validate:"gte=-180,lte=180"`
	StartDate         time.Time     `json:"startDate" validate:"required"`
	EndDate           time.Time     `json:"endDate" validate:"required,gtfield=StartDate"`
	NumberOfBedrooms  int           `json:"numberOfBedrooms" validate:"gte=0"`
	NumberOfBathrooms float64       `json:"numberOfBathrooms" validate:"gte=0"`
	SquareFootage     *int          `json:"squareFootage,omitempty" validate:"omitempty,gt=0"`
	PropertyType      PropertyType  `json:"propertyType" validate:"required,oneof=apartment house condo studio shared"`
	Amenities         []string      `json:"amenities"`
	HasRoommates      bool          `json:"hasRoommates"`
	CoverImageIndex   int           `json:"coverImageIndex" validate:"gte=0"`
	Images            []ImageUpload `json:"-"`
}

type DraftLimits struct {
	MaxImages    int
	MaxImageSize int
}

var DefaultDraftLimits = DraftLimits{MaxImages: 10, MaxImageSize: 10 * 1024 * 1024}

func NewDraft(now time.Time) ListingDraft {
	return ListingDraft{
		Currency:          DefaultCurrency,
		StartDate:         now,
		EndDate:           now.Add(DefaultAvailability),
		NumberOfBedrooms:  1,
		NumberOfBathrooms: 1,
		PropertyType:      PropertyApartment,
	}
}

func (d ListingDraft) Clone() ListingDraft {
	out := d
	out.Amenities = append([]string(nil), d.Amenities...)
	out.Images = append([]ImageUpload(nil), d.Images...)
	if d.SquareFootage != nil {
		v := *d.SquareFootage
		out.SquareFootage = &v
	}
	return out
}

// AddImage appends an image, defaulting the content type to JPEG.
func (d *ListingDraft) AddImage(data []byte, contentType string) {
	if contentType == "" {
		contentType = DefaultImageContentType
	}
	d.Images = append(d.Images, ImageUpload{Data: data, ContentType: contentType})
}

// Request builds the create/update body using already-uploaded image URLs,
// which must be in the same order as d.Images.
func (d ListingDraft) Request(imageURLs []string) CreateListingRequest {
	cover := d.CoverImageIndex
	if cover >= len(imageURLs) {
		cover = 0
	}
	return CreateListingRequest{
		Title:             strings.TrimSpace(d.Title),
		Description:       strings.TrimSpace(d.Description),
		Price:             d.Price,
		Currency:          d.Currency,
		Location:          strings.TrimSpace(d.Location),
		Latitude:          d.Latitude,
		Longitude:         d.Longitude,
		StartDate:         d.StartDate,
		EndDate:           d.EndDate,
		NumberOfBedrooms:  d.NumberOfBedrooms,
		NumberOfBathrooms: d.NumberOfBathrooms,
		SquareFootage:     d.SquareFootage,
		PropertyType:      d.PropertyType,
		Amenities:         normalizeAmenities(d.Amenities),
		HasRoommates:      d.HasRoommates,
		Images:            imageURLs,
		CoverImageIndex:   cover,
	}
}

// Validate checks the draft before anything is uploaded.
func (d ListingDraft) Validate(limits DraftLimits) error {
	if err := ValidateStruct(d); err != nil {
		return err
	}
	if limits.MaxImages > 0 && len(d.Images) > limits.MaxImages {
		return fmt.Errorf("%w: at most %d images allowed, got %d", ErrInvalidDraft, limits.MaxImages, len(d.Images))
	}
	for i, img := range d.Images {
		if len(img.Data) == 0 {
			return fmt.Errorf("%w: image %d is empty", ErrInvalidDraft, i)
		}
		if limits.MaxImageSize > 0 && len(img.Data) > limits.MaxImageSize {
			return fmt.Errorf("%w: image %d exceeds %d bytes", ErrInvalidDraft, i, limits.MaxImageSize)
		}
	}
	if len(d.Images) > 0 && d.CoverImageIndex >= len(d.Images) {
		return fmt.Errorf("%w: cover image index %d out of range", ErrInvalidDraft, d.CoverImageIndex)
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateStruct runs the struct tags of s and reports the first failure
// as ErrInvalidDraft.
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDraft, describe(verrs[0]))
	}
	return fmt.Errorf("%w: %v", ErrInvalidDraft, err)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "gtfield":
		return fe.Field() + " must be after " + fe.Param()
	case "oneof":
		return fe.Field() + " must be one of " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param()
	default:
		return fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
	}
}

func normalizeAmenities(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, a := range in {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, ok := seen[strings.ToLower(a)]; ok {
			continue
		}
		seen[strings.ToLower(a)] = struct{}{}
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
