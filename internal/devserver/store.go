package devserver

import (
	"context"
	"sync"

	"github.com/subleasefinder/sublease-client/internal/listing/domain"
)

// ListingStore persists listings. MemoryStore and the MongoDB
// ListingRepository both satisfy it.
type ListingStore interface {
	Search(ctx context.Context, q domain.Query) (*domain.ListingResponse, error)
	FindByID(ctx context.Context, id string) (*domain.Listing, error)
	Insert(ctx context.Context, l *domain.Listing) error
	Update(ctx context.Context, l *domain.Listing) error
}

type FavoriteStore interface {
	Toggle(ctx context.Context, userID, listingID string) (bool, error)
}

// UserStore keeps contact details of users who posted listings.
type UserStore interface {
	Upsert(ctx context.Context, id, email, displayName string) error
	GetEmailByID(ctx context.Context, userID string) (string, error)
}

// MemoryStore implements all three stores in process.
type MemoryStore struct {
	mu        sync.RWMutex
	listings  []domain.Listing
	favorites map[[2]string]struct{}
	emails    map[string]string
}

func NewMemoryStore(seed []domain.Listing) *MemoryStore {
	return &MemoryStore{
		listings:  append([]domain.Listing(nil), seed...),
		favorites: make(map[[2]string]struct{}),
		emails:    make(map[string]string),
	}
}

func (s *MemoryStore) Search(_ context.Context, q domain.Query) (*domain.ListingResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return q.Search(s.listings), nil
}

func (s *MemoryStore) FindByID(_ context.Context, id string) (*domain.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.listings {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, domain.ErrListingNotFound
}

func (s *MemoryStore) Insert(_ context.Context, l *domain.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings = append(s.listings, *l)
	return nil
}

func (s *MemoryStore) Update(_ context.Context, l *domain.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.listings {
		if s.listings[i].ID == l.ID {
			s.listings[i] = *l
			return nil
		}
	}
	return domain.ErrListingNotFound
}

func (s *MemoryStore) Toggle(_ context.Context, userID, listingID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := [2]string{userID, listingID}
	if _, ok := s.favorites[key]; ok {
		delete(s.favorites, key)
		return false, nil
	}
	s.favorites[key] = struct{}{}
	return true, nil
}

func (s *MemoryStore) Upsert(_ context.Context, id, email, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if email != "" {
		s.emails[id] = email
	}
	return nil
}

func (s *MemoryStore) GetEmailByID(_ context.Context, userID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emails[userID], nil
}
