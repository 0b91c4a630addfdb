package billing

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Snapshot is a point-in-time view of the store handed to the entitlement
// guard, so guard and controller can never observe divergent state.
type Snapshot struct {
	// Loading is true while the store has no usable value: a fetch or
	// mutation is outstanding, or the cache was invalidated and not yet
	// refreshed. Guard decisions must be pending in that window.
	Loading bool

	// Subscription is the last successfully observed record, nil when the
	// user has none.
	Subscription *Subscription
}

// Store caches the caller's subscription record between backend calls.
// It is the single source of truth consulted by both the lifecycle
// controller's guard checks and the entitlement guard.
type Store struct {
	backend Backend

	mu      sync.Mutex
	sub     *Subscription
	loaded  bool   // a fetch or mutation has populated sub since the last invalidation
	pending int    // outstanding fetches + mutations
	gen     uint64 // bumped on invalidation; results from older requests are discarded

	group singleflight.Group
}

// NewStore creates a store backed by the given billing backend.
func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Current returns the last observed subscription, nil when the user has none
// or the store has not loaded yet. Use Snapshot to distinguish the two.
func (s *Store) Current() *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sub
}

// IsLoading reports whether a fetch or mutation is outstanding.
func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending > 0
}

// Snapshot returns a consistent view for synchronous guard decisions.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Loading:      s.pending > 0 || !s.loaded,
		Subscription: s.sub,
	}
}

// Invalidate forces the next read to refetch from the backend. Any fetch
// already in flight is superseded: its response is discarded on arrival.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	s.gen++
}

// Get returns the cached subscription, refetching when the cache is stale.
func (s *Store) Get(ctx context.Context) (*Subscription, error) {
	s.mu.Lock()
	if s.loaded {
		sub := s.sub
		s.mu.Unlock()
		return sub, nil
	}
	s.mu.Unlock()
	return s.Refresh(ctx)
}

// Refresh fetches the current subscription from the backend. Concurrent
// refreshes of the same generation share one backend call; a refresh issued
// before an invalidation loses to the invalidation (last writer wins by
// request recency, not arrival order).
func (s *Store) Refresh(ctx context.Context) (*Subscription, error) {
	s.mu.Lock()
	gen := s.gen
	s.pending++
	s.mu.Unlock()

	// The generation is part of the flight key so post-invalidation callers
	// never join a stale in-flight fetch.
	v, err, _ := s.group.Do(strconv.FormatUint(gen, 10), func() (any, error) {
		return s.backend.CurrentSubscription(ctx)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--
	if err != nil {
		return nil, err
	}

	sub, _ := v.(*Subscription)
	if gen == s.gen {
		s.sub = sub
		s.loaded = true
	}
	return sub, nil
}

// beginMutation claims the single mutation slot. It fails while any call is
// outstanding, which is what suppresses double submits of lifecycle
// operations.
func (s *Store) beginMutation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending > 0 {
		return false
	}
	s.pending++
	return true
}

// endMutation releases the mutation slot. When applied is true the result is
// installed as the current record and any in-flight fetch is superseded.
func (s *Store) endMutation(sub *Subscription, applied bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--
	if applied {
		s.gen++
		s.sub = sub
		s.loaded = true
	}
}

// peek returns the cached record and whether the store holds a usable value.
// Callers must hold the mutation slot to act on the result.
func (s *Store) peek() (*Subscription, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sub, s.loaded
}
