package api

import (
	"net/http"
	"time"

	"github.com/lexportal/lexportal/pkg/auth"
	"github.com/lexportal/lexportal/pkg/billing"
	"github.com/lexportal/lexportal/pkg/entitlement"
	"github.com/lexportal/lexportal/pkg/httputil"
	"github.com/lexportal/lexportal/pkg/plans"
)

// EntitlementResponse is the payload for GET /v1/entitlements: the access
// decision for subscription-gated features plus the features the current
// plan includes. Features is empty when access is denied.
type EntitlementResponse struct {
	Entitled     bool                  `json:"entitled"`
	Reason       string                `json:"reason,omitempty"`
	Subscription *billing.Subscription `json:"subscription"`
	Features     []plans.Feature       `json:"features,omitempty"`
}

// handleGetEntitlements serves GET /v1/entitlements.
func (s *Server) handleGetEntitlements(w http.ResponseWriter, r *http.Request) {
	session := auth.FromContext(r.Context())
	if session == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	sub, err := s.lifecycle.Current(r.Context(), session.UserID)
	if err != nil {
		s.writeLifecycleError(w, err)
		return
	}

	now := time.Now()
	decision := entitlement.Decide(entitlement.RequireSubscription, true, billing.Snapshot{Subscription: sub}, now)

	resp := EntitlementResponse{
		Entitled:     decision.Allowed(),
		Subscription: sub,
	}
	if decision.Denied() {
		resp.Reason = string(decision.Reason)
	}
	if decision.Allowed() && sub != nil {
		features, err := entitlement.Features(sub, s.catalog, now)
		if err != nil {
			// A live subscription referencing an unknown plan is a data
			// integrity fault, not an empty entitlement set.
			s.logger.WithError(err).WithField("plan_id", sub.PlanID).Error("subscription references unknown plan")
			httputil.WriteBillingErrorKind(w, http.StatusServiceUnavailable, billing.KindServiceUnavailable, "billing is temporarily unavailable")
			return
		}
		resp.Features = features
	}
	httputil.WriteSuccess(w, resp)
}
