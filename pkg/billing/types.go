package billing

import (
	"time"
)

// Status represents the status of a subscription
type Status string

const (
	StatusTrial    Status = "trial"
	StatusActive   Status = "active"
	StatusCanceled Status = "canceled"
	StatusPastDue  Status = "past_due"
)

// Valid reports whether s is one of the recognized subscription statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusTrial, StatusActive, StatusCanceled, StatusPastDue:
		return true
	}
	return false
}

// Live reports whether the status counts toward the one-live-subscription
// constraint. Canceled records remain as history but are not live.
func (s Status) Live() bool {
	return s == StatusTrial || s == StatusActive || s == StatusPastDue
}

// Subscription represents a user's subscription record. The billing backend
// owns it; the client-facing layer caches it read-only through the Store.
// Users with no subscription at all are represented by absence (a nil
// *Subscription), not a status value.
type Subscription struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"user_id"`
	PlanID             string     `json:"plan_id"`
	Status             Status     `json:"status"`
	CurrentPeriodStart time.Time  `json:"current_period_start"`
	CurrentPeriodEnd   time.Time  `json:"current_period_end"`
	TrialEndsAt        *time.Time `json:"trial_ends_at,omitempty"` // set only while status is trial
	CardLast4          string     `json:"card_last4,omitempty"`    // masked payment instrument, display only
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// InGracePeriod reports whether a canceled subscription still grants access
// because the paid-for period has not ended.
func (s *Subscription) InGracePeriod(now time.Time) bool {
	return s.Status == StatusCanceled && !now.After(s.CurrentPeriodEnd)
}

// StartSubscriptionRequest is the body of POST /v1/subscription.
type StartSubscriptionRequest struct {
	PlanID string `json:"plan_id"`
}

// UpdateSubscriptionRequest is the body of PATCH /v1/subscription.
type UpdateSubscriptionRequest struct {
	PlanID string `json:"plan_id"`
}

// SubscriptionEnvelope wraps the subscription payload on the wire so the
// "no subscription" case is an explicit null rather than an error.
type SubscriptionEnvelope struct {
	Subscription *Subscription `json:"subscription"`
}
