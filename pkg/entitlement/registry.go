package entitlement

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/lexportal/lexportal/pkg/billing"
)

// DefaultRegistrySize bounds how many per-user subscription stores are kept
// warm at once.
const DefaultRegistrySize = 4096

// StoreRegistry hands out one subscription store per user session, LRU-bound.
// The guard and the lifecycle controller for a given user must obtain the
// store here so they observe the same snapshot.
type StoreRegistry struct {
	backend billing.Backend

	mu     sync.Mutex
	stores *lru.Cache[string, *billing.Store]
}

// NewStoreRegistry creates a registry over the shared billing backend.
// size <= 0 uses DefaultRegistrySize.
func NewStoreRegistry(backend billing.Backend, size int) (*StoreRegistry, error) {
	if size <= 0 {
		size = DefaultRegistrySize
	}
	stores, err := lru.New[string, *billing.Store](size)
	if err != nil {
		return nil, err
	}
	return &StoreRegistry{backend: backend, stores: stores}, nil
}

// For returns the store for the given user, creating it on first use.
func (r *StoreRegistry) For(userID string) *billing.Store {
	r.mu.Lock()
	defer r.mu.Unlock()
	if store, ok := r.stores.Get(userID); ok {
		return store
	}
	store := billing.NewStore(r.backend)
	r.stores.Add(userID, store)
	return store
}

// Invalidate drops the cached store state for a user, forcing a refetch on
// the next guard evaluation.
func (r *StoreRegistry) Invalidate(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if store, ok := r.stores.Peek(userID); ok {
		store.Invalidate()
	}
}
