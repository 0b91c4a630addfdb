package billing

import (
	"context"

	"github.com/lexportal/lexportal/pkg/observability"
	"github.com/lexportal/lexportal/pkg/plans"
)

// Controller runs the three lifecycle mutations: start, change-plan and
// cancel. Every operation checks its guard pre-conditions against the store
// before touching the network, and never retries a billing mutation on
// failure.
type Controller struct {
	store   *Store
	backend Backend
	catalog *plans.Catalog
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewController creates a lifecycle controller. logger and metrics may be nil.
func NewController(store *Store, backend Backend, catalog *plans.Catalog, logger *observability.Logger, metrics *observability.Metrics) *Controller {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Controller{
		store:   store,
		backend: backend,
		catalog: catalog,
		logger:  logger,
		metrics: metrics,
	}
}

// Store returns the subscription store the controller mutates. The
// entitlement guard must consume the same store.
func (c *Controller) Store() *Store {
	return c.store
}

// Start creates a new subscription on the given plan.
//
// Pre-conditions: the plan must exist in the catalog and the caller must have
// no subscription record at all. A canceled record counts as history and is
// rejected toward the reactivation path, not restarted here. The new record's
// status is trial when the plan has trial days, active otherwise; the backend
// decides, this client only interprets.
func (c *Controller) Start(ctx context.Context, planID string) (*Subscription, error) {
	if _, err := c.catalog.Get(planID); err != nil {
		return nil, c.rejected("start", GuardInvalidPlan)
	}
	if !c.store.beginMutation() {
		return nil, c.rejected("start", GuardBusy)
	}

	cur, loaded := c.store.peek()
	switch {
	case !loaded:
		c.store.endMutation(nil, false)
		return nil, c.rejected("start", GuardStateUnknown)
	case cur != nil:
		c.store.endMutation(nil, false)
		return nil, c.rejected("start", startBlockReason(cur.Status))
	}

	sub, err := c.backend.StartSubscription(ctx, planID)
	c.store.endMutation(sub, err == nil)
	c.observe(ctx, "start", err)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// startBlockReason derives the guard message from the existing record's status.
func startBlockReason(status Status) GuardReason {
	switch status {
	case StatusTrial:
		return GuardTrialInProgress
	case StatusActive:
		return GuardActiveSubscription
	case StatusCanceled:
		return GuardHasHistory
	case StatusPastDue:
		return GuardPastDue
	default:
		return GuardStateUnknown
	}
}

// ChangePlan moves the existing subscription to a new plan.
//
// Pre-conditions: the plan must exist and the current status must be trial.
// An active subscription is changed through the dedicated dashboard switch
// flow, which this layer refuses with a guard message pointing there.
func (c *Controller) ChangePlan(ctx context.Context, newPlanID string) (*Subscription, error) {
	if _, err := c.catalog.Get(newPlanID); err != nil {
		return nil, c.rejected("change_plan", GuardInvalidPlan)
	}
	if !c.store.beginMutation() {
		return nil, c.rejected("change_plan", GuardBusy)
	}

	cur, loaded := c.store.peek()
	var blocked GuardReason
	switch {
	case !loaded:
		blocked = GuardStateUnknown
	case cur == nil:
		blocked = GuardNoSubscription
	case cur.Status == StatusActive:
		blocked = GuardActiveSubscription
	case cur.Status == StatusCanceled:
		blocked = GuardHasHistory
	case cur.Status == StatusPastDue:
		blocked = GuardPastDue
	}
	if blocked != "" {
		c.store.endMutation(nil, false)
		return nil, c.rejected("change_plan", blocked)
	}

	sub, err := c.backend.UpdateSubscription(ctx, newPlanID)
	c.store.endMutation(sub, err == nil)
	c.observe(ctx, "change_plan", err)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Cancel cancels the existing subscription at period end. Access survives
// until CurrentPeriodEnd; period-end enforcement is the entitlement guard's
// job, never this controller's.
//
// With nothing cancellable (no record, already canceled, past due) Cancel is
// a no-op success, not an error.
func (c *Controller) Cancel(ctx context.Context) (*Subscription, error) {
	if !c.store.beginMutation() {
		return nil, c.rejected("cancel", GuardBusy)
	}

	cur, loaded := c.store.peek()
	if !loaded {
		c.store.endMutation(nil, false)
		return nil, c.rejected("cancel", GuardStateUnknown)
	}
	if cur == nil || (cur.Status != StatusTrial && cur.Status != StatusActive) {
		// Nothing to cancel.
		c.store.endMutation(nil, false)
		return cur, nil
	}

	sub, err := c.backend.CancelSubscription(ctx)
	c.store.endMutation(sub, err == nil)
	c.observe(ctx, "cancel", err)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (c *Controller) rejected(op string, reason GuardReason) *GuardError {
	if c.metrics != nil {
		c.metrics.LifecycleOpsTotal.WithLabelValues(op, "guard_rejected").Inc()
	}
	c.logger.WithFields(map[string]interface{}{
		"operation": op,
		"reason":    string(reason),
	}).Debug("lifecycle operation rejected by guard")
	return guardError(reason)
}

func (c *Controller) observe(ctx context.Context, op string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	if c.metrics != nil {
		c.metrics.LifecycleOpsTotal.WithLabelValues(op, result).Inc()
	}

	logger := observability.FromContext(ctx).WithField("operation", op)
	if err != nil {
		msg := Classify(err)
		logger = logger.WithError(err).WithField("error_kind", msg.Kind.String())
		if code, ok := Code(err); ok {
			logger = logger.WithField("error_code", code)
		}
		logger.Warn("lifecycle operation failed")
		return
	}
	logger.Info("lifecycle operation completed")
}
