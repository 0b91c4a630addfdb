package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lexportal/lexportal/pkg/httputil"
	"github.com/lexportal/lexportal/pkg/plans"
)

// PlanListResponse is the payload for GET /v1/plans.
type PlanListResponse struct {
	Plans []plans.PlanDefinition `json:"plans"`
}

// handleListPlans serves GET /v1/plans. The catalog is public; no session
// is required to browse pricing.
func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, PlanListResponse{Plans: s.catalog.List()})
}

// handleGetPlan serves GET /v1/plans/{id}.
func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.catalog.Get(mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteNotFound(w, "unknown plan")
		return
	}
	httputil.WriteSuccess(w, plan)
}
