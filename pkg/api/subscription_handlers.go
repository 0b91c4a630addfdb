package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/lexportal/lexportal/pkg/auth"
	"github.com/lexportal/lexportal/pkg/billing"
	"github.com/lexportal/lexportal/pkg/httputil"
)

const maxRequestBody = 1 << 20 // 1MB

// handleGetSubscription serves GET /v1/subscription. The envelope carries a
// null subscription when the user has no record at all.
func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
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
	httputil.WriteSuccess(w, billing.SubscriptionEnvelope{Subscription: sub})
}

// handleStartSubscription serves POST /v1/subscription.
func (s *Server) handleStartSubscription(w http.ResponseWriter, r *http.Request) {
	session := auth.FromContext(r.Context())
	if session == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	var req billing.StartSubscriptionRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.PlanID == "" {
		httputil.WriteBadRequest(w, "plan_id is required")
		return
	}

	sub, err := s.lifecycle.Start(r.Context(), session.UserID, req.PlanID)
	if err != nil {
		s.writeLifecycleError(w, err)
		return
	}
	s.registry.Invalidate(session.UserID)
	httputil.WriteCreated(w, billing.SubscriptionEnvelope{Subscription: sub})
}

// handleUpdateSubscription serves PATCH /v1/subscription.
func (s *Server) handleUpdateSubscription(w http.ResponseWriter, r *http.Request) {
	session := auth.FromContext(r.Context())
	if session == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	var req billing.UpdateSubscriptionRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.PlanID == "" {
		httputil.WriteBadRequest(w, "plan_id is required")
		return
	}

	sub, err := s.lifecycle.ChangePlan(r.Context(), session.UserID, req.PlanID)
	if err != nil {
		s.writeLifecycleError(w, err)
		return
	}
	s.registry.Invalidate(session.UserID)
	httputil.WriteSuccess(w, billing.SubscriptionEnvelope{Subscription: sub})
}

// handleCancelSubscription serves POST /v1/subscription/cancel.
func (s *Server) handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	session := auth.FromContext(r.Context())
	if session == nil {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	sub, err := s.lifecycle.Cancel(r.Context(), session.UserID)
	if err != nil {
		s.writeLifecycleError(w, err)
		return
	}
	s.registry.Invalidate(session.UserID)
	httputil.WriteSuccess(w, billing.SubscriptionEnvelope{Subscription: sub})
}

// decodeBody parses a JSON request body, writing a 400 on malformed input.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		httputil.WriteBadRequest(w, "failed to read request body")
		return false
	}
	if len(body) == 0 {
		httputil.WriteBadRequest(w, "request body is required")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		httputil.WriteBadRequest(w, "invalid JSON body")
		return false
	}
	return true
}

// writeLifecycleError renders lifecycle failures onto the structured error
// contract. Anything not already an APIError is an internal fault.
func (s *Server) writeLifecycleError(w http.ResponseWriter, err error) {
	var apiErr *billing.APIError
	if errors.As(err, &apiErr) {
		httputil.WriteBillingError(w, apiErr.StatusCode, apiErr.Body)
		return
	}
	s.logger.WithError(err).Error("unhandled lifecycle error")
	httputil.WriteBillingErrorKind(w, http.StatusServiceUnavailable, billing.KindServiceUnavailable, "billing is temporarily unavailable")
}
