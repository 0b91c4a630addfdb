package entitlement

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexportal/lexportal/pkg/billing"
)

func TestStoreRegistryReturnsSameStorePerUser(t *testing.T) {
	registry, err := NewStoreRegistry(&stubBackend{}, 8)
	require.NoError(t, err)

	a := registry.For("user-1")
	b := registry.For("user-1")
	c := registry.For("user-2")

	assert.Same(t, a, b, "one store per user")
	assert.NotSame(t, a, c)
}

func TestStoreRegistryInvalidate(t *testing.T) {
	backend := &stubBackend{subs: map[string]*billing.Subscription{}}
	registry, err := NewStoreRegistry(backend, 8)
	require.NoError(t, err)

	store := registry.For("user-1")
	_, err = store.Get(context.Background())
	require.NoError(t, err)
	require.False(t, store.Snapshot().Loading)

	registry.Invalidate("user-1")
	assert.True(t, store.Snapshot().Loading)

	// Invalidating an unknown user is a no-op, and must not create a store.
	registry.Invalidate("user-unknown")
	assert.False(t, registry.stores.Contains("user-unknown"))
}

func TestStoreRegistryEvictsLeastRecentlyUsed(t *testing.T) {
	registry, err := NewStoreRegistry(&stubBackend{}, 2)
	require.NoError(t, err)

	first := registry.For("user-0")
	registry.For("user-1")
	registry.For("user-2") // evicts user-0

	assert.False(t, registry.stores.Contains("user-0"))
	assert.NotSame(t, first, registry.For("user-0"), "evicted stores are rebuilt cold")
}

func TestStoreRegistryDefaultSize(t *testing.T) {
	for _, size := range []int{0, -1} {
		registry, err := NewStoreRegistry(&stubBackend{}, size)
		require.NoError(t, err, fmt.Sprintf("size %d", size))
		assert.NotNil(t, registry)
	}
}
