package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/lexportal/lexportal/pkg/auth"
	"github.com/lexportal/lexportal/pkg/entitlement"
	"github.com/lexportal/lexportal/pkg/httputil"
	"github.com/lexportal/lexportal/pkg/observability"
	"github.com/lexportal/lexportal/pkg/plans"
)

// ServerConfig carries the collaborators the API server is assembled from.
type ServerConfig struct {
	Service   SubscriptionService
	Catalog   *plans.Catalog
	Payments  PaymentAuthorizer
	Verifier  auth.Verifier
	Logger    *observability.Logger
	AccessLog *logrus.Logger
	Metrics   *observability.Metrics

	// Limiter throttles requests per caller when set. RateLimit supplies the
	// window advertised in response headers; zero values fall back to
	// httputil.DefaultRateLimitConfig.
	Limiter   httputil.Limiter
	RateLimit httputil.RateLimitConfig
}

// Server is the billing HTTP surface of the portal.
type Server struct {
	router    *mux.Router
	lifecycle *Lifecycle
	catalog   *plans.Catalog
	registry  *entitlement.StoreRegistry
	logger    *observability.Logger
	accessLog *logrus.Logger
	metrics   *observability.Metrics
}

// NewServer assembles the router, lifecycle rules, and the in-process
// entitlement registry backed by them.
func NewServer(cfg ServerConfig) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}
	accessLog := cfg.AccessLog
	if accessLog == nil {
		accessLog = logrus.New()
		accessLog.SetFormatter(&logrus.JSONFormatter{})
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observability.NewMetrics(nil)
	}

	lifecycle := NewLifecycle(cfg.Service, cfg.Catalog, cfg.Payments, logger)
	registry, err := entitlement.NewStoreRegistry(NewLocalBackend(lifecycle), entitlement.DefaultRegistrySize)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:    mux.NewRouter(),
		lifecycle: lifecycle,
		catalog:   cfg.Catalog,
		registry:  registry,
		logger:    logger,
		accessLog: accessLog,
		metrics:   metrics,
	}
	rateLimit := cfg.RateLimit
	if rateLimit.RequestsPerWindow == 0 {
		rateLimit = httputil.DefaultRateLimitConfig()
	}
	s.routes(cfg.Verifier, cfg.Limiter, rateLimit)
	return s, nil
}

// Registry exposes the per-user entitlement store registry so embedding
// applications can guard their own feature routes with the same cache.
func (s *Server) Registry() *entitlement.StoreRegistry {
	return s.registry
}

// Lifecycle exposes the rule layer for in-process callers.
func (s *Server) Lifecycle() *Lifecycle {
	return s.lifecycle
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes(verifier auth.Verifier, limiter httputil.Limiter, rateLimit httputil.RateLimitConfig) {
	s.router.Use(httputil.RequestIDMiddleware)
	s.router.Use(httputil.RecoveryMiddleware(s.logger))
	s.router.Use(s.metrics.HTTPMiddleware)
	s.router.Use(s.accessLogMiddleware)
	if verifier != nil {
		s.router.Use(auth.NewMiddleware(verifier).Handler)
	}
	if limiter != nil {
		// After auth so authenticated callers are keyed by user, not IP.
		s.router.Use(httputil.RateLimitMiddleware(limiter, rateLimit, s.logger))
	}

	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/plans", s.handleListPlans).Methods(http.MethodGet)
	v1.HandleFunc("/plans/{id}", s.handleGetPlan).Methods(http.MethodGet)
	v1.HandleFunc("/subscription", s.handleGetSubscription).Methods(http.MethodGet)
	v1.HandleFunc("/subscription", s.handleStartSubscription).Methods(http.MethodPost)
	v1.HandleFunc("/subscription", s.handleUpdateSubscription).Methods(http.MethodPatch)
	v1.HandleFunc("/subscription/cancel", s.handleCancelSubscription).Methods(http.MethodPost)
	v1.HandleFunc("/entitlements", s.handleGetEntitlements).Methods(http.MethodGet)
}

// accessLogMiddleware emits one structured access line per request.
func (s *Server) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lw := &loggingResponseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lw, r)
		s.accessLog.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     lw.status,
			"duration":   time.Since(start).String(),
			"request_id": observability.GetRequestID(r.Context()),
		}).Info("request completed")
	})
}

type loggingResponseWriter struct {
	http.ResponseWriter
	status int
}

func (w *loggingResponseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
