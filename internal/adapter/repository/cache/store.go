package cache

import "context"

type CacheError string

func (e CacheError) Error() string { return string(e) }

const ErrNotFound = CacheError("cache: key not found")

// Store is the persistent tier behind the in-memory cache.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Remove(ctx context.Context, key string) error
	// Purge drops every entry and leaves the store usable.
	Purge(ctx context.Context) error
	Name() string
}
