package api

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexportal/lexportal/pkg/billing"
	"github.com/lexportal/lexportal/pkg/plans"
	"github.com/lexportal/lexportal/pkg/storage/postgres"
)

// memService is an in-memory SubscriptionService that mirrors the database's
// behavior, including the one-live-subscription constraint.
type memService struct {
	mu   sync.Mutex
	subs map[string]*billing.Subscription // keyed by user ID, most recent record
	err  error
}

func newMemService() *memService {
	return &memService{subs: make(map[string]*billing.Subscription)}
}

func (s *memService) CurrentForUser(ctx context.Context, userID string) (*billing.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.subs[userID], nil
}

func (s *memService) Insert(ctx context.Context, sub *billing.Subscription) (*billing.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if cur, ok := s.subs[sub.UserID]; ok && cur.Status.Live() {
		return nil, postgres.ErrAlreadySubscribed
	}
	out := *sub
	out.CreatedAt = time.Now()
	out.UpdatedAt = out.CreatedAt
	s.subs[sub.UserID] = &out
	return &out, nil
}

func (s *memService) UpdatePlan(ctx context.Context, userID, planID string) (*billing.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	cur, ok := s.subs[userID]
	if !ok || !cur.Status.Live() {
		return nil, postgres.ErrNotFound
	}
	out := *cur
	out.PlanID = planID
	out.UpdatedAt = time.Now()
	s.subs[userID] = &out
	return &out, nil
}

func (s *memService) Cancel(ctx context.Context, userID string) (*billing.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	cur, ok := s.subs[userID]
	if !ok || (cur.Status != billing.StatusTrial && cur.Status != billing.StatusActive) {
		return nil, postgres.ErrNotFound
	}
	out := *cur
	out.Status = billing.StatusCanceled
	out.TrialEndsAt = nil
	out.UpdatedAt = time.Now()
	s.subs[userID] = &out
	return &out, nil
}

// decliningAuthorizer rejects every charge with a card decline.
type decliningAuthorizer struct{}

func (decliningAuthorizer) Authorize(ctx context.Context, userID string, plan plans.PlanDefinition) (*PaymentReceipt, error) {
	return nil, &PaymentDeclinedError{Kind: billing.KindCardDeclined, Message: "insufficient funds", Code: 2001}
}

func newTestLifecycle(t *testing.T, svc SubscriptionService, payments PaymentAuthorizer) *Lifecycle {
	t.Helper()
	return NewLifecycle(svc, plans.MustNewCatalog(plans.Default()), payments, nil)
}

func requireAPIError(t *testing.T, err error, status int, wireType string) *billing.APIError {
	t.Helper()
	var apiErr *billing.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, status, apiErr.StatusCode)
	assert.Equal(t, wireType, apiErr.Body.Type)
	return apiErr
}

func TestLifecycleStartTrialPlan(t *testing.T) {
	svc := newMemService()
	lc := newTestLifecycle(t, svc, nil)
	before := time.Now().UTC()

	sub, err := lc.Start(context.Background(), "user-1", "professional")
	require.NoError(t, err)

	assert.Equal(t, billing.StatusTrial, sub.Status)
	assert.Equal(t, "professional", sub.PlanID)
	assert.NotEmpty(t, sub.ID)
	require.NotNil(t, sub.TrialEndsAt)
	assert.True(t, sub.TrialEndsAt.After(before.AddDate(0, 0, 13)), "professional carries a 14 day trial")
	assert.Equal(t, *sub.TrialEndsAt, sub.CurrentPeriodEnd, "the trial window is the first period")
	assert.Empty(t, sub.CardLast4, "trial starts defer the first charge")
}

func TestLifecycleStartPaidPlanAuthorizesPayment(t *testing.T) {
	svc := newMemService()
	lc := newTestLifecycle(t, svc, NullAuthorizer{})

	sub, err := lc.Start(context.Background(), "user-1", "firm")
	require.NoError(t, err)

	assert.Equal(t, billing.StatusActive, sub.Status)
	assert.Nil(t, sub.TrialEndsAt)
	assert.Equal(t, "4242", sub.CardLast4)
	assert.Equal(t, sub.CurrentPeriodStart.AddDate(0, 1, 0), sub.CurrentPeriodEnd)
}

func TestLifecycleStartPaymentDeclined(t *testing.T) {
	svc := newMemService()
	lc := newTestLifecycle(t, svc, decliningAuthorizer{})

	_, err := lc.Start(context.Background(), "user-1", "firm")
	apiErr := requireAPIError(t, err, http.StatusPaymentRequired, billing.TypeCardDeclined)
	require.NotNil(t, apiErr.Body.Code)
	assert.Equal(t, 2001, *apiErr.Body.Code)

	// A declined charge must not leave a record behind.
	cur, err := lc.Current(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestLifecycleStartUnknownPlan(t *testing.T) {
	lc := newTestLifecycle(t, newMemService(), nil)

	_, err := lc.Start(context.Background(), "user-1", "platinum")
	requireAPIError(t, err, http.StatusUnprocessableEntity, billing.TypeInvalidPlan)
}

func TestLifecycleStartSecondLiveSubscription(t *testing.T) {
	svc := newMemService()
	lc := newTestLifecycle(t, svc, nil)

	_, err := lc.Start(context.Background(), "user-1", "professional")
	require.NoError(t, err)

	_, err = lc.Start(context.Background(), "user-1", "essential")
	requireAPIError(t, err, http.StatusConflict, billing.TypeAlreadySubscribed)
}

func TestLifecycleStartAfterCancelCreatesNewRecord(t *testing.T) {
	svc := newMemService()
	lc := newTestLifecycle(t, svc, nil)

	first, err := lc.Start(context.Background(), "user-1", "professional")
	require.NoError(t, err)
	_, err = lc.Cancel(context.Background(), "user-1")
	require.NoError(t, err)

	// Canceled history does not hold the uniqueness slot.
	second, err := lc.Start(context.Background(), "user-1", "essential")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "essential", second.PlanID)
}

func TestLifecycleStartStorageFailure(t *testing.T) {
	svc := newMemService()
	svc.err = errors.New("connection refused")
	lc := newTestLifecycle(t, svc, nil)

	_, err := lc.Start(context.Background(), "user-1", "professional")
	apiErr := requireAPIError(t, err, http.StatusServiceUnavailable, billing.TypeServiceUnavailable)
	assert.NotContains(t, apiErr.Body.Message, "connection refused", "storage internals never reach the client")
}

func TestLifecycleChangePlan(t *testing.T) {
	svc := newMemService()
	lc := newTestLifecycle(t, svc, nil)

	_, err := lc.Start(context.Background(), "user-1", "essential")
	require.NoError(t, err)

	sub, err := lc.ChangePlan(context.Background(), "user-1", "professional")
	require.NoError(t, err)
	assert.Equal(t, "professional", sub.PlanID)
	assert.Equal(t, billing.StatusTrial, sub.Status, "a plan change does not touch the status")
}

func TestLifecycleChangePlanWithoutLiveSubscription(t *testing.T) {
	lc := newTestLifecycle(t, newMemService(), nil)

	_, err := lc.ChangePlan(context.Background(), "user-1", "professional")
	requireAPIError(t, err, http.StatusNotFound, billing.TypeSubscriptionNotFound)
}

func TestLifecycleChangePlanUnknownPlan(t *testing.T) {
	lc := newTestLifecycle(t, newMemService(), nil)

	_, err := lc.ChangePlan(context.Background(), "user-1", "platinum")
	requireAPIError(t, err, http.StatusUnprocessableEntity, billing.TypeInvalidPlan)
}

func TestLifecycleChangePlanOnLapsedTrial(t *testing.T) {
	svc := newMemService()
	lapsed := time.Now().Add(-time.Hour)
	svc.subs["user-1"] = &billing.Subscription{
		ID:          "sub-1",
		UserID:      "user-1",
		PlanID:      "essential",
		Status:      billing.StatusTrial,
		TrialEndsAt: &lapsed,
	}
	lc := newTestLifecycle(t, svc, nil)

	_, err := lc.ChangePlan(context.Background(), "user-1", "professional")
	requireAPIError(t, err, http.StatusPaymentRequired, billing.TypeTrialEnded)
}

func TestLifecycleCancel(t *testing.T) {
	svc := newMemService()
	lc := newTestLifecycle(t, svc, nil)

	_, err := lc.Start(context.Background(), "user-1", "professional")
	require.NoError(t, err)

	sub, err := lc.Cancel(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, billing.StatusCanceled, sub.Status)
	assert.Nil(t, sub.TrialEndsAt)
}

func TestLifecycleCancelWithoutSubscription(t *testing.T) {
	lc := newTestLifecycle(t, newMemService(), nil)

	_, err := lc.Cancel(context.Background(), "user-1")
	requireAPIError(t, err, http.StatusNotFound, billing.TypeSubscriptionNotFound)
}
