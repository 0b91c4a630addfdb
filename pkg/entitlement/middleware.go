package entitlement

import (
	"net/http"
	"time"

	"github.com/lexportal/lexportal/pkg/auth"
	"github.com/lexportal/lexportal/pkg/billing"
	"github.com/lexportal/lexportal/pkg/httputil"
	"github.com/lexportal/lexportal/pkg/observability"
)

// DenialResponse is the body of a guard denial. Every denial carries a
// human-readable title and description pair, never a bare code.
type DenialResponse struct {
	Reason      DenyReason `json:"reason"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
}

func denialResponse(reason DenyReason) DenialResponse {
	key := string(reason)
	return DenialResponse{
		Reason:      reason,
		Title:       "entitlement." + key + ".title",
		Description: "entitlement." + key + ".description",
	}
}

// Middleware enforces route capability requirements over the per-user store
// registry.
type Middleware struct {
	registry *StoreRegistry
	logger   *observability.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewMiddleware creates guard middleware. logger and metrics may be nil.
func NewMiddleware(registry *StoreRegistry, logger *observability.Logger, metrics *observability.Metrics) *Middleware {
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	return &Middleware{
		registry: registry,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Require wraps a handler chain with the guard for the given requirement.
func (m *Middleware) Require(req Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := m.decide(req, r)
			m.record(req, decision)

			switch decision.Outcome {
			case OutcomeAllow:
				next.ServeHTTP(w, r)
			case OutcomePending:
				// A lifecycle mutation is settling; the caller retries.
				w.Header().Set("Retry-After", "1")
				httputil.WriteErrorMessage(w, http.StatusServiceUnavailable, "subscription state is loading")
			default:
				m.writeDenial(w, decision.Reason)
			}
		})
	}
}

// decide resolves the caller's state and evaluates the pure guard.
func (m *Middleware) decide(req Requirement, r *http.Request) Decision {
	session := auth.FromContext(r.Context())
	authenticated := session != nil

	snap := billing.Snapshot{}
	if req == RequireSubscription && authenticated {
		store := m.registry.For(session.UserID)
		snap = store.Snapshot()
		if snap.Loading && !store.IsLoading() {
			// Stale cache with no call outstanding: settle it now rather
			// than bouncing the caller.
			if _, err := store.Refresh(r.Context()); err != nil {
				msg := billing.Classify(err)
				m.logger.WithError(err).WithField("error_kind", msg.Kind.String()).
					Warn("subscription refresh failed during guard evaluation")
				// Leave the snapshot loading; the decision is pending and
				// the caller retries.
			}
			snap = store.Snapshot()
		}
	}

	return Decide(req, authenticated, snap, m.now())
}

func (m *Middleware) writeDenial(w http.ResponseWriter, reason DenyReason) {
	status := http.StatusPaymentRequired
	if reason == ReasonUnauthenticated {
		// Caller redirects to sign-in.
		status = http.StatusUnauthorized
	}
	httputil.WriteJSON(w, status, denialResponse(reason))
}

func (m *Middleware) record(req Requirement, decision Decision) {
	if m.metrics == nil {
		return
	}
	m.metrics.GuardDecisionsTotal.WithLabelValues(
		req.String(), decision.Outcome.String(), string(decision.Reason),
	).Inc()
}
