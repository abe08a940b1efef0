package devserver

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/subleasefinder/sublease-client/internal/auth"
	"github.com/subleasefinder/sublease-client/internal/listing/domain"
	"github.com/subleasefinder/sublease-client/internal/mailer"
	"github.com/subleasefinder/sublease-client/internal/platform/logger"
)

// ListingService holds the server-side rules: ids and timestamps are
// assigned here, and only the lister may update a listing.
type ListingService struct {
	listings  ListingStore
	favorites FavoriteStore
	users     UserStore
	events    domain.EventPublisher
	mailer    mailer.Mailer
	logger    *logger.Logger
	now       func() time.Time
	newID     func() string
}

func NewListingService(listings ListingStore, favorites FavoriteStore, users UserStore, events domain.EventPublisher, m mailer.Mailer, log *logger.Logger) *ListingService {
	if log == nil {
		log = logger.NewNop()
	}
	if m == nil {
		m = mailer.NopMailer{}
	}
	return &ListingService{
		listings:  listings,
		favorites: favorites,
		users:     users,
		events:    events,
		mailer:    m,
		logger:    log,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

func (s *ListingService) Search(ctx context.Context, q domain.Query) (*domain.ListingResponse, error) {
	resp, err := s.listings.Search(ctx, q)
	if err != nil {
		s.logger.Error("ListingService.Search: failed to search listings", "error", err)
		return nil, err
	}
	return resp, nil
}

func (s *ListingService) Create(ctx context.Context, lister *auth.Claims, req domain.CreateListingRequest) (*domain.Listing, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	listing := fromRequest(req)
	listing.ID = s.newID()
	listing.ListerID = lister.UserID
	listing.ListerName = listerName(lister)
	listing.CreatedAt = now
	listing.UpdatedAt = now
	listing.IsActive = true

	if err := s.listings.Insert(ctx, &listing); err != nil {
		s.logger.Error("ListingService.Create: failed to insert listing", "user_id", lister.UserID, "error", err)
		return nil, err
	}
	s.logger.Info("ListingService.Create: listing created", "listing_id", listing.ID, "user_id", lister.UserID)

	s.publish(ctx, domain.SubjectListingCreated, &listing)
	s.notifyLister(ctx, lister, &listing)
	return &listing, nil
}

func (s *ListingService) Update(ctx context.Context, userID, id string, req domain.CreateListingRequest) (*domain.Listing, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	current, err := s.listings.FindByID(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrListingNotFound) {
			s.logger.Error("ListingService.Update: failed to find listing", "listing_id", id, "error", err)
		}
		return nil, err
	}
	if current.ListerID != userID {
		s.logger.Warn("ListingService.Update: forbidden to update listing",
			"listing_id", id, "listing_owner_id", current.ListerID, "user_id_performing_action", userID)
		return nil, domain.ErrForbidden
	}

	updated := fromRequest(req)
	updated.ID = current.ID
	updated.ListerID = current.ListerID
	updated.ListerName = current.ListerName
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = s.now().UTC()
	updated.IsActive = current.IsActive

	if err := s.listings.Update(ctx, &updated); err != nil {
		s.logger.Error("ListingService.Update: failed to update listing", "listing_id", id, "error", err)
		return nil, err
	}
	s.publish(ctx, domain.SubjectListingUpdated, &updated)
	return &updated, nil
}

func (s *ListingService) ToggleFavorite(ctx context.Context, userID, listingID string) (*domain.FavoriteResult, error) {
	if _, err := s.listings.FindByID(ctx, listingID); err != nil {
		return nil, err
	}
	favorited, err := s.favorites.Toggle(ctx, userID, listingID)
	if err != nil {
		s.logger.Error("ListingService.ToggleFavorite: toggle failed", "user_id", userID, "listing_id", listingID, "error", err)
		return nil, err
	}
	s.logger.Debug("ListingService.ToggleFavorite: toggled", "user_id", userID, "listing_id", listingID, "favorited", favorited)
	return &domain.FavoriteResult{ListingID: listingID, Favorited: favorited}, nil
}

func (s *ListingService) publish(ctx context.Context, subject string, l *domain.Listing) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, subject, l); err != nil {
		s.logger.Warn("ListingService: failed to publish event", "subject", subject, "listing_id", l.ID, "error", err)
	}
}

// notifyLister records the lister's e-mail and sends a confirmation.
// Failures are logged only.
func (s *ListingService) notifyLister(ctx context.Context, lister *auth.Claims, l *domain.Listing) {
	if s.users == nil {
		return
	}
	if lister.Email != "" {
		if err := s.users.Upsert(ctx, lister.UserID, lister.Email, lister.DisplayName); err != nil {
			s.logger.Warn("ListingService.notifyLister: failed to store user", "user_id", lister.UserID, "error", err)
		}
	}
	email, err := s.users.GetEmailByID(ctx, lister.UserID)
	if err != nil || email == "" {
		return
	}
	if err := s.mailer.SendListingCreatedEmail(ctx, email, l.Title); err != nil {
		s.logger.Warn("ListingService.notifyLister: failed to send email", "listing_id", l.ID, "error", err)
	}
}

func listerName(c *auth.Claims) string {
	switch {
	case c.DisplayName != "":
		return c.DisplayName
	case c.Anonymous:
		return "Guest"
	default:
		return c.Email
	}
}

func fromRequest(req domain.CreateListingRequest) domain.Listing {
	return domain.Listing{
		Title:             req.Title,
		Description:       req.Description,
		Price:             req.Price,
		Currency:          req.Currency,
		Location:          req.Location,
		Latitude:          req.Latitude,
		Longitude:         req.Longitude,
		StartDate:         req.StartDate.UTC(),
		EndDate:           req.EndDate.UTC(),
		NumberOfBedrooms:  req.NumberOfBedrooms,
		NumberOfBathrooms: req.NumberOfBathrooms,
		SquareFootage:     req.SquareFootage,
		PropertyType:      req.PropertyType,
		Amenities:         req.Amenities,
		HasRoommates:      req.HasRoommates,
		Images:            req.Images,
		CoverImageIndex:   req.CoverImageIndex,
	}
}

func validateRequest(req domain.CreateListingRequest) error {
	if err := domain.ValidateStruct(req); err != nil {
		return err
	}
	l := fromRequest(req)
	return l.Validate()
}
