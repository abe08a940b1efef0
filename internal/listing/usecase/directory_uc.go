package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/subleasefinder/sublease-client/internal/listing/domain"
	"github.com/subleasefinder/sublease-client/internal/platform/logger"
)

var tracer = otel.Tracer("sublease-client/usecase")

// DirectoryState is what presentation code observes.
type DirectoryState struct {
	Listings  []domain.Listing
	IsLoading bool
	Err       error
}

// ListingDirectory is the single entry point for listing reads and writes.
type ListingDirectory struct {
	api        domain.ListingAPI
	cache      domain.ResponseCache
	authorizer domain.UploadAuthorizer
	events     domain.EventPublisher
	logger     *logger.Logger
	now        func() time.Time

	mu        sync.Mutex
	listings  []domain.Listing
	inflight  int
	lastErr   error
	observers map[int]func(DirectoryState)
	nextObs   int
}

type DirectoryOption func(*ListingDirectory)

// WithUploadAuthorizer replaces the API's /presign with another authorizer.
func WithUploadAuthorizer(a domain.UploadAuthorizer) DirectoryOption {
	return func(d *ListingDirectory) { d.authorizer = a }
}

func WithEvents(p domain.EventPublisher) DirectoryOption {
	return func(d *ListingDirectory) { d.events = p }
}

func NewListingDirectory(api domain.ListingAPI, cache domain.ResponseCache, log *logger.Logger, opts ...DirectoryOption) *ListingDirectory {
	if log == nil {
		log = logger.NewNop()
	}
	d := &ListingDirectory{
		api:        api,
		cache:      cache,
		authorizer: api,
		logger:     log,
		now:        time.Now,
		observers:  make(map[int]func(DirectoryState)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *ListingDirectory) Search(ctx context.Context, q domain.Query) (*domain.ListingResponse, error) {
	ctx, span := tracer.Start(ctx, "ListingDirectory.Search", trace.WithAttributes(attribute.String("query.key", q.CacheKey())))
	defer span.End()
	d.begin()

	if cached, ok := d.cache.Get(ctx, q); ok {
		d.logger.Debug("ListingDirectory.Search: cache hit", "key", q.CacheKey(), "count", len(cached.Listings))
		span.SetAttributes(attribute.Bool("cache.hit", true))
		d.finish(func() { d.listings = append([]domain.Listing(nil), cached.Listings...) }, nil)
		return cached, nil
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	resp, err := d.api.SearchListings(ctx, q)
	if err != nil {
		d.fail(span, "ListingDirectory.Search: fetch failed", err)
		return nil, err
	}
	d.cache.Put(ctx, q, resp)
	d.finish(func() { d.listings = append([]domain.Listing(nil), resp.Listings...) }, nil)
	d.publish(ctx, domain.EventListingSearch, map[string]interface{}{
		"query": q.SearchText, "propertyType": string(q.PropertyType), "results": len(resp.Listings),
	})
	return resp, nil
}

func (d *ListingDirectory) Create(ctx context.Context, req domain.CreateListingRequest) (*domain.Listing, error) {
	ctx, span := tracer.Start(ctx, "ListingDirectory.Create")
	defer span.End()
	d.begin()

	listing, err := d.api.CreateListing(ctx, req)
	if err != nil {
		d.fail(span, "ListingDirectory.Create: create failed", err)
		return nil, err
	}
	d.cache.InvalidateAll(ctx)
	d.finish(func() { d.listings = append([]domain.Listing{*listing}, d.listings...) }, nil)
	d.logger.Info("ListingDirectory.Create: listing created", "listing_id", listing.ID)
	d.publish(ctx, domain.EventListingCreate, map[string]interface{}{"listingId": listing.ID, "images": len(listing.Images)})
	return listing, nil
}

func (d *ListingDirectory) Update(ctx context.Context, id string, req domain.CreateListingRequest) (*domain.Listing, error) {
	ctx, span := tracer.Start(ctx, "ListingDirectory.Update", trace.WithAttributes(attribute.String("listing.id", id)))
	defer span.End()
	d.begin()

	listing, err := d.api.UpdateListing(ctx, id, req)
	if err != nil {
		d.fail(span, "ListingDirectory.Update: update failed", err)
		return nil, err
	}
	d.cache.InvalidateAll(ctx)
	d.finish(func() {
		for i := range d.listings {
			if d.listings[i].ID == listing.ID {
				d.listings[i] = *listing
			}
		}
	}, nil)
	d.logger.Info("ListingDirectory.Update: listing updated", "listing_id", listing.ID)
	d.publish(ctx, domain.EventListingUpdate, map[string]interface{}{"listingId": listing.ID})
	return listing, nil
}

// Favorite toggles a favorite server-side. The search cache is unaffected.
func (d *ListingDirectory) Favorite(ctx context.Context, id string) (*domain.FavoriteResult, error) {
	ctx, span := tracer.Start(ctx, "ListingDirectory.Favorite", trace.WithAttributes(attribute.String("listing.id", id)))
	defer span.End()
	d.begin()

	res, err := d.api.FavoriteListing(ctx, id)
	if err != nil {
		d.fail(span, "ListingDirectory.Favorite: toggle failed", err)
		return nil, err
	}
	d.finish(nil, nil)
	d.publish(ctx, domain.EventListingFavorite, map[string]interface{}{"listingId": id, "favorited": res.Favorited})
	return res, nil
}

func (d *ListingDirectory) RequestUploadAuthorization(ctx context.Context, contentType string) (*domain.PresignedUpload, error) {
	up, err := d.authorizer.RequestUploadAuthorization(ctx, contentType)
	if err != nil {
		d.logger.Error("ListingDirectory.RequestUploadAuthorization: failed", "content_type", contentType, "error", err)
		return nil, err
	}
	return up, nil
}

// ClearCache drops every cached search, e.g. after sign-out.
func (d *ListingDirectory) ClearCache(ctx context.Context) {
	d.cache.InvalidateAll(ctx)
}

func (d *ListingDirectory) State() DirectoryState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stateLocked()
}

func (d *ListingDirectory) Subscribe(fn func(DirectoryState)) (unsubscribe func()) {
	d.mu.Lock()
	id := d.nextObs
	d.nextObs++
	d.observers[id] = fn
	d.mu.Unlock()
	return func() {
		d.mu.Lock()
		delete(d.observers, id)
		d.mu.Unlock()
	}
}

func (d *ListingDirectory) stateLocked() DirectoryState {
	return DirectoryState{
		Listings:  append([]domain.Listing(nil), d.listings...),
		IsLoading: d.inflight > 0,
		Err:       d.lastErr,
	}
}

func (d *ListingDirectory) begin() {
	d.mutate(func() {
		d.inflight++
		d.lastErr = nil
	})
}

func (d *ListingDirectory) finish(apply func(), err error) {
	d.mutate(func() {
		d.inflight--
		if apply != nil {
			apply()
		}
		d.lastErr = err
	})
}

func (d *ListingDirectory) fail(span trace.Span, msg string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if errors.Is(err, context.Canceled) {
		d.finish(nil, nil)
		return
	}
	d.logger.Error(msg, "error", err)
	d.finish(nil, err)
}

func (d *ListingDirectory) mutate(fn func()) {
	d.mu.Lock()
	fn()
	state := d.stateLocked()
	observers := make([]func(DirectoryState), 0, len(d.observers))
	for _, o := range d.observers {
		observers = append(observers, o)
	}
	d.mu.Unlock()
	for _, o := range observers {
		o(state)
	}
}

func (d *ListingDirectory) publish(ctx context.Context, subject string, props map[string]interface{}) {
	if d.events == nil {
		return
	}
	event := domain.AnalyticsEvent{Name: subject, OccurredAt: d.now(), Properties: props}
	if err := d.events.Publish(ctx, subject, event); err != nil {
		d.logger.Warn("ListingDirectory: failed to publish event", "subject", subject, "error", err)
	}
}
