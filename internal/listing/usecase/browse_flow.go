package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/subleasefinder/sublease-client/internal/listing/domain"
	"github.com/subleasefinder/sublease-client/internal/platform/logger"
)

const DefaultSearchDebounce = 500 * time.Millisecond

type Searcher interface {
	Search(ctx context.Context, q domain.Query) (*domain.ListingResponse, error)
}

// Filters are the user-editable search criteria besides the text.
type Filters struct {
	BBox         *domain.BoundingBox
	PriceMin     *float64
	PriceMax     *float64
	Bedrooms     *int
	PropertyType domain.PropertyType
	StartDate    *time.Time
	EndDate      *time.Time
	SortBy       domain.SortField
	SortOrder    domain.SortOrder
}

type BrowseState struct {
	Query   domain.Query
	Results *domain.ListingResponse
	Err     error
}

// BrowseFlow turns typing and filter changes into searches. Only the most
// recent search may publish results: each new search takes the single
// "latest" slot and cancels the one it replaces.
type BrowseFlow struct {
	searcher Searcher
	debounce time.Duration
	logger   *logger.Logger

	mu         sync.Mutex
	text       string
	filters    Filters
	generation uint64
	cancel     context.CancelFunc
	results    *domain.ListingResponse
	lastErr    error
	observers  map[int]func(BrowseState)
	nextObs    int
}

func NewBrowseFlow(searcher Searcher, debounce time.Duration, log *logger.Logger) *BrowseFlow {
	if log == nil {
		log = logger.NewNop()
	}
	return &BrowseFlow{
		searcher:  searcher,
		debounce:  debounce,
		logger:    log,
		filters:   Filters{SortBy: domain.SortByCreatedAt, SortOrder: domain.SortDesc},
		observers: make(map[int]func(BrowseState)),
	}
}

// Query is the search the current text and filters describe.
func (b *BrowseFlow) Query() domain.Query {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queryLocked()
}

func (b *BrowseFlow) queryLocked() domain.Query {
	f := b.filters
	q := domain.NewQuery().
		WithSearchText(b.text).
		WithPriceRange(f.PriceMin, f.PriceMax).
		WithBedrooms(f.Bedrooms).
		WithPropertyType(f.PropertyType).
		WithDateRange(f.StartDate, f.EndDate).
		WithPage(domain.DefaultSearchLimit, 0)
	if f.BBox != nil {
		q = q.WithBoundingBox(*f.BBox)
	}
	if f.SortBy != "" && f.SortOrder != "" {
		q = q.WithSort(f.SortBy, f.SortOrder)
	}
	return q
}

// SetSearchText schedules a debounced search.
func (b *BrowseFlow) SetSearchText(text string) {
	b.mu.Lock()
	b.text = text
	q := b.queryLocked()
	b.mu.Unlock()
	b.start(context.Background(), q, b.debounce, nil)
}

// ApplyFilters replaces the filters and searches immediately.
func (b *BrowseFlow) ApplyFilters(f Filters) {
	b.mu.Lock()
	b.filters = f
	q := b.queryLocked()
	b.mu.Unlock()
	b.start(context.Background(), q, 0, nil)
}

// Refresh runs the current query now and waits for it.
func (b *BrowseFlow) Refresh(ctx context.Context) (*domain.ListingResponse, error) {
	return b.run(ctx, b.Query())
}

// RefreshSaved loads the most recent listings for the saved tab.
func (b *BrowseFlow) RefreshSaved(ctx context.Context) (*domain.ListingResponse, error) {
	q := domain.NewQuery().WithSort(domain.SortByCreatedAt, domain.SortDesc).WithPage(domain.SavedSearchLimit, 0)
	return b.run(ctx, q)
}

func (b *BrowseFlow) run(ctx context.Context, q domain.Query) (*domain.ListingResponse, error) {
	type outcome struct {
		resp *domain.ListingResponse
		err  error
	}
	done := make(chan outcome, 1)
	b.start(ctx, q, 0, func(resp *domain.ListingResponse, err error) { done <- outcome{resp, err} })
	select {
	case o := <-done:
		return o.resp, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel abandons any pending or running search.
func (b *BrowseFlow) Cancel() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.generation++
	if b.cancel != nil {
		b.cancel()
		b.cancel = nil
	}
}

func (b *BrowseFlow) start(parent context.Context, q domain.Query, delay time.Duration, reply func(*domain.ListingResponse, error)) {
	ctx, cancel := context.WithCancel(parent)

	b.mu.Lock()
	b.generation++
	gen := b.generation
	if b.cancel != nil {
		b.cancel()
	}
	b.cancel = cancel
	b.mu.Unlock()

	go func() {
		defer cancel()
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				if reply != nil {
					reply(nil, ctx.Err())
				}
				return
			case <-timer.C:
			}
		}

		resp, err := b.searcher.Search(ctx, q)
		if !b.commit(gen, resp, err) {
			b.logger.Debug("BrowseFlow: discarding superseded search", "generation", gen)
			if reply != nil {
				reply(nil, context.Canceled)
			}
			return
		}
		if reply != nil {
			reply(resp, err)
		}
	}()
}

// commit stores the outcome if gen still holds the latest slot.
func (b *BrowseFlow) commit(gen uint64, resp *domain.ListingResponse, err error) bool {
	b.mu.Lock()
	if gen != b.generation {
		b.mu.Unlock()
		return false
	}
	b.cancel = nil
	if err != nil {
		if errors.Is(err, context.Canceled) {
			b.mu.Unlock()
			return true
		}
		b.lastErr = err
	} else {
		b.results = resp
		b.lastErr = nil
	}
	state := b.stateLocked()
	observers := make([]func(BrowseState), 0, len(b.observers))
	for _, o := range b.observers {
		observers = append(observers, o)
	}
	b.mu.Unlock()

	for _, o := range observers {
		o(state)
	}
	return true
}

func (b *BrowseFlow) State() BrowseState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stateLocked()
}

func (b *BrowseFlow) stateLocked() BrowseState {
	return BrowseState{Query: b.queryLocked(), Results: b.results, Err: b.lastErr}
}

func (b *BrowseFlow) Subscribe(fn func(BrowseState)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextObs
	b.nextObs++
	b.observers[id] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.observers, id)
		b.mu.Unlock()
	}
}
