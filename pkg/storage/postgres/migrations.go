package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates the subscriptions table. The partial unique index is the
// server-side enforcement of the one-live-subscription invariant: canceled
// rows stay as history and do not block a new start.
const schema = `
CREATE TABLE IF NOT EXISTS subscriptions (
	id                   UUID PRIMARY KEY,
	user_id              TEXT NOT NULL,
	plan_id              TEXT NOT NULL,
	status               TEXT NOT NULL CHECK (status IN ('trial', 'active', 'canceled', 'past_due')),
	current_period_start TIMESTAMPTZ NOT NULL,
	current_period_end   TIMESTAMPTZ NOT NULL,
	trial_ends_at        TIMESTAMPTZ,
	card_last4           TEXT NOT NULL DEFAULT '',
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS subscriptions_one_live_per_user
	ON subscriptions (user_id)
	WHERE status IN ('trial', 'active', 'past_due');

CREATE INDEX IF NOT EXISTS subscriptions_user_recency
	ON subscriptions (user_id, created_at DESC);
`

// Migrate applies the subscription schema.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply subscription schema: %w", err)
	}
	return nil
}
