package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The sweeper must be buildable over either layer; deployments with the
// redis cache sweep through it so lapsed rows are flushed, not just flipped.
var (
	_ lapseSweeper = (*SubscriptionStore)(nil)
	_ lapseSweeper = (*Cache)(nil)
)

type countingSweeper struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *countingSweeper) SweepPastDue(ctx context.Context, now time.Time) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return 0, 0, s.err
	}
	return 1, 2, nil
}

func (s *countingSweeper) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestSweeperRunsImmediatelyOnStart(t *testing.T) {
	store := &countingSweeper{}
	sweeper := NewSweeper(store, nil, nil)

	require.NoError(t, sweeper.Start("@every 1h"))
	defer sweeper.Stop(context.Background())

	assert.Equal(t, 1, store.callCount(), "a restart must not leave lapsed records live until the first tick")
}

func TestSweeperRejectsInvalidSpec(t *testing.T) {
	store := &countingSweeper{}
	sweeper := NewSweeper(store, nil, nil)

	err := sweeper.Start("not a cron spec")
	require.Error(t, err)
	assert.Equal(t, 0, store.callCount())
}

func TestSweeperSurvivesSweepFailure(t *testing.T) {
	store := &countingSweeper{err: errors.New("db down")}
	sweeper := NewSweeper(store, nil, nil)

	require.NoError(t, sweeper.Start("@every 1h"))
	require.NoError(t, sweeper.Stop(context.Background()))
	assert.Equal(t, 1, store.callCount())
}

func TestSweeperStopHonorsContext(t *testing.T) {
	sweeper := NewSweeper(&countingSweeper{}, nil, nil)
	require.NoError(t, sweeper.Start("@every 1h"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, sweeper.Stop(ctx))
}
