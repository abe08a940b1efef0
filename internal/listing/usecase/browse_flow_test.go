package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subleasefinder/sublease-client/internal/listing/domain"
)

// scriptedSearcher answers with one listing whose ID is the query text.
// Queries whose text is in hold wait for release, ignoring cancellation.
type scriptedSearcher struct {
	mu      sync.Mutex
	queries []domain.Query
	hold    map[string]chan struct{}
}

func newScriptedSearcher() *scriptedSearcher {
	return &scriptedSearcher{hold: map[string]chan struct{}{}}
}

func (s *scriptedSearcher) Search(ctx context.Context, q domain.Query) (*domain.ListingResponse, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	wait := s.hold[q.SearchText]
	s.mu.Unlock()
	if wait != nil {
		<-wait
	}
	return &domain.ListingResponse{Listings: []domain.Listing{{ID: q.SearchText}}, Total: 1}, nil
}

func (s *scriptedSearcher) seen() []domain.Query {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Query(nil), s.queries...)
}

func waitForState(t *testing.T, b *BrowseFlow, cond func(BrowseState) bool) BrowseState {
	t.Helper()
	var st BrowseState
	require.Eventually(t, func() bool {
		st = b.State()
		return cond(st)
	}, time.Second, 5*time.Millisecond)
	return st
}

func TestTypingIsDebounced(t *testing.T) {
	s := newScriptedSearcher()
	b := NewBrowseFlow(s, 40*time.Millisecond, nil)

	b.SetSearchText("l")
	b.SetSearchText("lo")
	b.SetSearchText("loft")

	st := waitForState(t, b, func(st BrowseState) bool { return st.Results != nil })
	assert.Equal(t, "loft", st.Results.Listings[0].ID)

	time.Sleep(60 * time.Millisecond)
	queries := s.seen()
	require.Len(t, queries, 1)
	assert.Equal(t, "loft", queries[0].SearchText)
	assert.Equal(t, domain.DefaultSearchLimit, queries[0].Limit)
}

func TestSupersededResultIsDiscarded(t *testing.T) {
	s := newScriptedSearcher()
	release := make(chan struct{})
	s.hold["slow"] = release
	b := NewBrowseFlow(s, time.Millisecond, nil)

	var mu sync.Mutex
	var published []string
	b.Subscribe(func(st BrowseState) {
		mu.Lock()
		defer mu.Unlock()
		if st.Results != nil {
			published = append(published, st.Results.Listings[0].ID)
		}
	})

	b.SetSearchText("slow")
	require.Eventually(t, func() bool { return len(s.seen()) == 1 }, time.Second, time.Millisecond)

	b.SetSearchText("fast")
	waitForState(t, b, func(st BrowseState) bool { return st.Results != nil })

	close(release)
	time.Sleep(20 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"fast"}, published)
	assert.Equal(t, "fast", b.State().Results.Listings[0].ID)
}

func TestApplyFiltersSearchesImmediately(t *testing.T) {
	s := newScriptedSearcher()
	b := NewBrowseFlow(s, time.Hour, nil)
	beds := 2

	b.ApplyFilters(Filters{
		Bedrooms:     &beds,
		PropertyType: domain.PropertyCondo,
		SortBy:       domain.SortByPrice,
		SortOrder:    domain.SortAsc,
	})

	waitForState(t, b, func(st BrowseState) bool { return st.Results != nil })
	q := s.seen()[0]
	assert.Equal(t, domain.PropertyCondo, q.PropertyType)
	require.NotNil(t, q.Bedrooms)
	assert.Equal(t, 2, *q.Bedrooms)
	assert.Equal(t, domain.SortByPrice, q.SortBy)
	assert.Equal(t, domain.SortAsc, q.SortOrder)
}

func TestRefreshAndRefreshSaved(t *testing.T) {
	s := newScriptedSearcher()
	b := NewBrowseFlow(s, time.Hour, nil)
	ctx := context.Background()

	resp, err := b.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)

	_, err = b.RefreshSaved(ctx)
	require.NoError(t, err)
	saved := s.seen()[1]
	assert.Equal(t, domain.SavedSearchLimit, saved.Limit)
	assert.Equal(t, domain.SortByCreatedAt, saved.SortBy)
	assert.Equal(t, domain.SortDesc, saved.SortOrder)
}

func TestCancelDropsPendingSearch(t *testing.T) {
	s := newScriptedSearcher()
	b := NewBrowseFlow(s, 30*time.Millisecond, nil)

	b.SetSearchText("never")
	b.Cancel()
	time.Sleep(60 * time.Millisecond)

	assert.Empty(t, s.seen())
	assert.Nil(t, b.State().Results)
}
