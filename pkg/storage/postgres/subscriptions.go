package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/lexportal/lexportal/pkg/billing"
)

var (
	// ErrAlreadySubscribed is returned when an insert races or duplicates an
	// existing live subscription for the same user. Raised by the database's
	// partial unique index, not by a client-side check.
	ErrAlreadySubscribed = errors.New("user already has a live subscription")

	// ErrNotFound is returned when an update targets a user without a
	// matching subscription record.
	ErrNotFound = errors.New("subscription not found")
)

const uniqueViolation = "23505"

// SubscriptionStore persists subscription records in PostgreSQL.
type SubscriptionStore struct {
	db *sql.DB
}

// NewSubscriptionStore creates a store over the given database handle.
func NewSubscriptionStore(db *sql.DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

const subscriptionColumns = `id, user_id, plan_id, status, current_period_start, current_period_end, trial_ends_at, card_last4, created_at, updated_at`

// CurrentForUser returns the user's most recent subscription record, nil when
// the user has none at all. A canceled record is still returned: the
// lifecycle layer distinguishes "has history" from "no record".
func (s *SubscriptionStore) CurrentForUser(ctx context.Context, userID string) (*billing.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	sub, err := scanSubscription(s.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub, nil
}

// Insert creates a new subscription record. The partial unique index rejects
// a second live subscription for the same user with ErrAlreadySubscribed.
func (s *SubscriptionStore) Insert(ctx context.Context, sub *billing.Subscription) (*billing.Subscription, error) {
	query := `
		INSERT INTO subscriptions (id, user_id, plan_id, status, current_period_start, current_period_end, trial_ends_at, card_last4)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	out := *sub
	err := s.db.QueryRowContext(ctx, query,
		sub.ID, sub.UserID, sub.PlanID, sub.Status,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd, sub.TrialEndsAt, sub.CardLast4,
	).Scan(&out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrAlreadySubscribed
		}
		return nil, fmt.Errorf("failed to insert subscription: %w", err)
	}
	return &out, nil
}

// UpdatePlan changes the plan of the user's live subscription in place.
// Status and periods are untouched.
func (s *SubscriptionStore) UpdatePlan(ctx context.Context, userID, planID string) (*billing.Subscription, error) {
	query := `
		UPDATE subscriptions
		SET plan_id = $1, updated_at = now()
		WHERE user_id = $2 AND status IN ('trial', 'active', 'past_due')
		RETURNING ` + subscriptionColumns + `
	`
	sub, err := scanSubscription(s.db.QueryRowContext(ctx, query, planID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update subscription plan: %w", err)
	}
	return sub, nil
}

// Cancel transitions the user's live subscription to canceled. Periods stay
// frozen so the paid-for window keeps granting access until it ends; the
// trial marker is cleared because the record is no longer trialing.
func (s *SubscriptionStore) Cancel(ctx context.Context, userID string) (*billing.Subscription, error) {
	query := `
		UPDATE subscriptions
		SET status = 'canceled', trial_ends_at = NULL, updated_at = now()
		WHERE user_id = $1 AND status IN ('trial', 'active')
		RETURNING ` + subscriptionColumns + `
	`
	sub, err := scanSubscription(s.db.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to cancel subscription: %w", err)
	}
	return sub, nil
}

// SweepPastDue flips records whose paid or trial window has lapsed without
// renewal to past_due. Returns how many rows changed per transition.
func (s *SubscriptionStore) SweepPastDue(ctx context.Context, now time.Time) (lapsedActive, lapsedTrials int64, err error) {
	activeQuery := `
		UPDATE subscriptions
		SET status = 'past_due', updated_at = now()
		WHERE status = 'active' AND current_period_end < $1
	`
	res, err := s.db.ExecContext(ctx, activeQuery, now)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sweep lapsed active subscriptions: %w", err)
	}
	lapsedActive, _ = res.RowsAffected()

	trialQuery := `
		UPDATE subscriptions
		SET status = 'past_due', trial_ends_at = NULL, updated_at = now()
		WHERE status = 'trial' AND trial_ends_at < $1
	`
	res, err = s.db.ExecContext(ctx, trialQuery, now)
	if err != nil {
		return lapsedActive, 0, fmt.Errorf("failed to sweep lapsed trials: %w", err)
	}
	lapsedTrials, _ = res.RowsAffected()

	return lapsedActive, lapsedTrials, nil
}

// rowScanner abstracts *sql.Row for scanning helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscription(row rowScanner) (*billing.Subscription, error) {
	var (
		sub         billing.Subscription
		trialEndsAt sql.NullTime
	)
	err := row.Scan(
		&sub.ID, &sub.UserID, &sub.PlanID, &sub.Status,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd, &trialEndsAt,
		&sub.CardLast4, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if trialEndsAt.Valid {
		t := trialEndsAt.Time
		sub.TrialEndsAt = &t
	}
	return &sub, nil
}
