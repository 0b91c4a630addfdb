package billing

import "fmt"

// GuardReason identifies which pre-condition rejected a lifecycle operation.
type GuardReason string

const (
	// GuardBusy: another lifecycle call is outstanding; the submit was suppressed.
	GuardBusy GuardReason = "busy"
	// GuardStateUnknown: the store has not loaded, so pre-conditions cannot be checked.
	GuardStateUnknown GuardReason = "state_unknown"
	// GuardTrialInProgress: a trial already exists; starting again is rejected.
	GuardTrialInProgress GuardReason = "trial_in_progress"
	// GuardActiveSubscription: an active subscription exists; manage it instead.
	GuardActiveSubscription GuardReason = "active_subscription"
	// GuardHasHistory: a canceled record exists; a restart must go through reactivation.
	GuardHasHistory GuardReason = "has_history"
	// GuardPastDue: the subscription is past due; payment must be resolved first.
	GuardPastDue GuardReason = "past_due"
	// GuardNoSubscription: the operation needs an existing subscription.
	GuardNoSubscription GuardReason = "no_subscription"
	// GuardInvalidPlan: the plan ID does not resolve in the catalog.
	GuardInvalidPlan GuardReason = "invalid_plan"
)

// GuardError is a pre-condition failure resolved entirely client-side.
// It never corresponds to a backend call and never reaches the error
// classifier. Title and Description are localization keys.
type GuardError struct {
	Reason      GuardReason
	Title       string
	Description string
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("lifecycle guard rejected operation: %s", e.Reason)
}

func guardError(reason GuardReason) *GuardError {
	key := string(reason)
	return &GuardError{
		Reason:      reason,
		Title:       "billing.guard." + key + ".title",
		Description: "billing.guard." + key + ".description",
	}
}
