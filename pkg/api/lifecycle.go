package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lexportal/lexportal/pkg/billing"
	"github.com/lexportal/lexportal/pkg/observability"
	"github.com/lexportal/lexportal/pkg/plans"
	"github.com/lexportal/lexportal/pkg/storage/postgres"
)

// SubscriptionService is the storage surface the lifecycle rules run on.
// Satisfied by both postgres.SubscriptionStore and postgres.Cache.
type SubscriptionService interface {
	CurrentForUser(ctx context.Context, userID string) (*billing.Subscription, error)
	Insert(ctx context.Context, sub *billing.Subscription) (*billing.Subscription, error)
	UpdatePlan(ctx context.Context, userID, planID string) (*billing.Subscription, error)
	Cancel(ctx context.Context, userID string) (*billing.Subscription, error)
}

// Lifecycle applies the backend-side subscription rules: plan validation,
// payment authorization, trial bootstrapping, and the mapping of every
// failure to the structured error contract. HTTP handlers and the in-process
// backend adapter share it so the rules exist once.
type Lifecycle struct {
	svc      SubscriptionService
	catalog  *plans.Catalog
	payments PaymentAuthorizer
	logger   *observability.Logger
	now      func() time.Time
}

// NewLifecycle creates the backend lifecycle rule layer. logger may be nil.
func NewLifecycle(svc SubscriptionService, catalog *plans.Catalog, payments PaymentAuthorizer, logger *observability.Logger) *Lifecycle {
	if payments == nil {
		payments = NullAuthorizer{}
	}
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Lifecycle{
		svc:      svc,
		catalog:  catalog,
		payments: payments,
		logger:   logger,
		now:      time.Now,
	}
}

// Current returns the user's most recent subscription record, nil when none.
func (l *Lifecycle) Current(ctx context.Context, userID string) (*billing.Subscription, error) {
	sub, err := l.svc.CurrentForUser(ctx, userID)
	if err != nil {
		return nil, l.storageError(err, "load subscription")
	}
	return sub, nil
}

// Start creates a subscription on the given plan. The new record begins in
// trial when the plan carries trial days, active otherwise; plans billed from
// day one are authorized with the payment processor first. The database's
// uniqueness constraint is the final arbiter against concurrent starts.
func (l *Lifecycle) Start(ctx context.Context, userID, planID string) (*billing.Subscription, error) {
	plan, err := l.catalog.Get(planID)
	if err != nil {
		return nil, billing.NewAPIError(http.StatusUnprocessableEntity, billing.KindInvalidPlan, "unknown plan "+planID)
	}

	cardLast4 := ""
	if !plan.HasTrial() {
		receipt, err := l.payments.Authorize(ctx, userID, plan)
		if err != nil {
			return nil, l.paymentError(err)
		}
		cardLast4 = receipt.CardLast4
	}

	now := l.now().UTC()
	sub := &billing.Subscription{
		ID:                 uuid.NewString(),
		UserID:             userID,
		PlanID:             plan.ID,
		Status:             billing.StatusActive,
		CurrentPeriodStart: now,
		CurrentPeriodEnd:   periodEnd(now, plan.Interval),
		CardLast4:          cardLast4,
	}
	if plan.HasTrial() {
		trialEnd := now.AddDate(0, 0, plan.TrialDays)
		sub.Status = billing.StatusTrial
		sub.TrialEndsAt = &trialEnd
		sub.CurrentPeriodEnd = trialEnd
	}

	created, err := l.svc.Insert(ctx, sub)
	if err != nil {
		if errors.Is(err, postgres.ErrAlreadySubscribed) {
			return nil, billing.NewAPIError(http.StatusConflict, billing.KindAlreadySubscribed, "a live subscription already exists")
		}
		return nil, l.storageError(err, "create subscription")
	}
	return created, nil
}

// ChangePlan moves the live subscription to a new plan, status untouched.
// A trial whose trial window already lapsed (sweep pending) is refused with
// trial_ended rather than silently extended.
func (l *Lifecycle) ChangePlan(ctx context.Context, userID, planID string) (*billing.Subscription, error) {
	if _, err := l.catalog.Get(planID); err != nil {
		return nil, billing.NewAPIError(http.StatusUnprocessableEntity, billing.KindInvalidPlan, "unknown plan "+planID)
	}

	cur, err := l.svc.CurrentForUser(ctx, userID)
	if err != nil {
		return nil, l.storageError(err, "load subscription")
	}
	if cur == nil || !cur.Status.Live() {
		return nil, billing.NewAPIError(http.StatusNotFound, billing.KindSubscriptionNotFound, "no live subscription to update")
	}
	if cur.Status == billing.StatusTrial && cur.TrialEndsAt != nil && cur.TrialEndsAt.Before(l.now()) {
		return nil, billing.NewAPIError(http.StatusPaymentRequired, billing.KindTrialEnded, "the trial period has ended")
	}

	updated, err := l.svc.UpdatePlan(ctx, userID, planID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, billing.NewAPIError(http.StatusNotFound, billing.KindSubscriptionNotFound, "no live subscription to update")
		}
		return nil, l.storageError(err, "update subscription")
	}
	return updated, nil
}

// Cancel transitions the live subscription to canceled with periods frozen.
func (l *Lifecycle) Cancel(ctx context.Context, userID string) (*billing.Subscription, error) {
	canceled, err := l.svc.Cancel(ctx, userID)
	if err != nil {
		if errors.Is(err, postgres.ErrNotFound) {
			return nil, billing.NewAPIError(http.StatusNotFound, billing.KindSubscriptionNotFound, "no cancellable subscription")
		}
		return nil, l.storageError(err, "cancel subscription")
	}
	return canceled, nil
}

func periodEnd(start time.Time, interval plans.Interval) time.Time {
	if interval == plans.IntervalYear {
		return start.AddDate(1, 0, 0)
	}
	return start.AddDate(0, 1, 0)
}

// storageError hides storage internals behind SERVICE_UNAVAILABLE; the raw
// error is logged, never sent to the client.
func (l *Lifecycle) storageError(err error, op string) *billing.APIError {
	l.logger.WithError(err).WithField("operation", op).Error("subscription storage failure")
	return billing.NewAPIError(http.StatusServiceUnavailable, billing.KindServiceUnavailable, "billing is temporarily unavailable")
}

// paymentError maps processor failures onto the error taxonomy.
func (l *Lifecycle) paymentError(err error) *billing.APIError {
	var declined *PaymentDeclinedError
	if errors.As(err, &declined) {
		apiErr := billing.NewAPIError(http.StatusPaymentRequired, declined.Kind, declined.Message)
		if declined.Code != 0 {
			code := declined.Code
			apiErr.Body.Code = &code
		}
		return apiErr
	}
	l.logger.WithError(err).Error("payment processor failure")
	return billing.NewAPIError(http.StatusBadGateway, billing.KindProviderError, "the payment processor reported a fault")
}
