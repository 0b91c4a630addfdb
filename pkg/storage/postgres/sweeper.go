package postgres

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lexportal/lexportal/pkg/observability"
)

// lapseSweeper is the common surface of SubscriptionStore and Cache.
type lapseSweeper interface {
	SweepPastDue(ctx context.Context, now time.Time) (lapsedActive, lapsedTrials int64, err error)
}

// Sweeper periodically flips lapsed subscriptions to past_due. It owns the
// past_due transitions so entitlement decisions stay a pure read.
type Sweeper struct {
	store   lapseSweeper
	logger  *observability.Logger
	metrics *observability.Metrics
	cron    *cron.Cron
}

// NewSweeper creates the sweep job. logger and metrics may be nil.
func NewSweeper(store lapseSweeper, logger *observability.Logger, metrics *observability.Metrics) *Sweeper {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Sweeper{
		store:   store,
		logger:  logger,
		metrics: metrics,
		cron:    cron.New(),
	}
}

// Start schedules the sweep with the given cron spec (e.g. "@every 5m") and
// runs one sweep immediately so a restart never leaves lapsed records live.
func (s *Sweeper) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return err
	}
	s.run()
	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop(ctx context.Context) error {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sweeper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	lapsedActive, lapsedTrials, err := s.store.SweepPastDue(ctx, time.Now())
	if err != nil {
		s.logger.WithError(err).Error("past-due sweep failed")
		return
	}

	if s.metrics != nil {
		s.metrics.SweepTransitionsTotal.WithLabelValues("active_to_past_due").Add(float64(lapsedActive))
		s.metrics.SweepTransitionsTotal.WithLabelValues("trial_to_past_due").Add(float64(lapsedTrials))
	}
	if lapsedActive+lapsedTrials > 0 {
		s.logger.WithFields(map[string]interface{}{
			"lapsed_active": lapsedActive,
			"lapsed_trials": lapsedTrials,
		}).Info("past-due sweep applied transitions")
	}
}
