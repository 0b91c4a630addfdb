package entitlement

import (
	"fmt"
	"time"

	"github.com/lexportal/lexportal/pkg/billing"
	"github.com/lexportal/lexportal/pkg/plans"
)

// Requirement is the capability a protected route demands.
type Requirement int

const (
	// RequireNone allows unconditionally.
	RequireNone Requirement = iota
	// RequireAuthenticated needs an authenticated session.
	RequireAuthenticated
	// RequireSubscription needs an authenticated session and a subscription
	// that still grants access.
	RequireSubscription
)

func (r Requirement) String() string {
	switch r {
	case RequireNone:
		return "none"
	case RequireAuthenticated:
		return "authenticated"
	case RequireSubscription:
		return "subscribed"
	default:
		return fmt.Sprintf("requirement(%d)", int(r))
	}
}

// Outcome is the guard's verdict.
type Outcome int

const (
	OutcomeAllow Outcome = iota
	OutcomeDeny
	// OutcomePending: the subscription store is loading; the caller must show
	// a waiting state, never optimistically allow or deny.
	OutcomePending
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAllow:
		return "allow"
	case OutcomeDeny:
		return "deny"
	case OutcomePending:
		return "pending"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// DenyReason explains a denial. These are guard-local pre-condition reasons;
// they never pass through the billing error classifier.
type DenyReason string

const (
	ReasonUnauthenticated DenyReason = "unauthenticated"
	ReasonNoSubscription  DenyReason = "no_subscription"
	ReasonExpired         DenyReason = "expired"
)

// Decision is the guard's result for one request.
type Decision struct {
	Outcome Outcome
	Reason  DenyReason // set only when Outcome is OutcomeDeny
}

func (d Decision) Allowed() bool { return d.Outcome == OutcomeAllow }
func (d Decision) Denied() bool  { return d.Outcome == OutcomeDeny }
func (d Decision) Pending() bool { return d.Outcome == OutcomePending }

func allow() Decision            { return Decision{Outcome: OutcomeAllow} }
func deny(r DenyReason) Decision { return Decision{Outcome: OutcomeDeny, Reason: r} }
func pending() Decision          { return Decision{Outcome: OutcomePending} }

// Decide evaluates the guard for a single request. It is synchronous,
// side-effect free and safe to call from any goroutine.
func Decide(req Requirement, authenticated bool, snap billing.Snapshot, now time.Time) Decision {
	if req == RequireNone {
		return allow()
	}
	if !authenticated {
		return deny(ReasonUnauthenticated)
	}
	if req == RequireAuthenticated {
		return allow()
	}

	// RequireSubscription from here on.
	if snap.Loading {
		return pending()
	}
	sub := snap.Subscription
	if sub == nil {
		return deny(ReasonNoSubscription)
	}
	switch sub.Status {
	case billing.StatusTrial, billing.StatusActive:
		return allow()
	case billing.StatusCanceled:
		if sub.InGracePeriod(now) {
			// Paid-for period not over yet.
			return allow()
		}
		return deny(ReasonExpired)
	default:
		// past_due, or anything unrecognized the backend may grow.
		return deny(ReasonExpired)
	}
}

// Features resolves the feature entitlements the caller's subscription
// unlocks right now. A subscription that no longer grants access (or none at
// all) unlocks nothing. An orphaned plan reference is a data-integrity error,
// not an empty entitlement set.
func Features(sub *billing.Subscription, catalog *plans.Catalog, now time.Time) ([]plans.Feature, error) {
	if sub == nil {
		return nil, nil
	}

	granted := false
	switch sub.Status {
	case billing.StatusTrial, billing.StatusActive:
		granted = true
	case billing.StatusCanceled:
		granted = sub.InGracePeriod(now)
	}
	if !granted {
		return nil, nil
	}

	plan, err := catalog.Get(sub.PlanID)
	if err != nil {
		return nil, fmt.Errorf("subscription %s references unknown plan: %w", sub.ID, err)
	}

	var features []plans.Feature
	for _, f := range plan.Features {
		if f.Included {
			features = append(features, f)
		}
	}
	return features, nil
}
