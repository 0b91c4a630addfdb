package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/lexportal/lexportal/pkg/api"
	"github.com/lexportal/lexportal/pkg/auth"
	"github.com/lexportal/lexportal/pkg/config"
	"github.com/lexportal/lexportal/pkg/httputil"
	"github.com/lexportal/lexportal/pkg/observability"
	"github.com/lexportal/lexportal/pkg/plans"
	"github.com/lexportal/lexportal/pkg/storage/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "lexportal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	accessLog := logrus.New()
	accessLog.SetFormatter(&logrus.JSONFormatter{})

	metrics := observability.NewMetrics(nil)

	db, err := postgres.Connect(cfg.Postgres)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = postgres.Migrate(ctx, db)
	cancel()
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database ready")

	store := postgres.NewSubscriptionStore(db)

	var service api.SubscriptionService = store
	var cache *postgres.Cache
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:       cfg.Redis.URL,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			MaxRetries: cfg.Redis.MaxRetries,
			PoolSize:   cfg.Redis.PoolSize,
		})
		defer redisClient.Close()

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = redisClient.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}

		cache = postgres.NewCache(store, redisClient, metrics)
		service = cache
		logger.Info("subscription read cache enabled")
	}

	// The sweep runs through the same layer that serves reads: sweeping the
	// raw store would leave lapsed rows cached as live until TTL expiry.
	sweeper := postgres.NewSweeper(store, logger, metrics)
	if cache != nil {
		sweeper = postgres.NewSweeper(cache, logger, metrics)
	}
	if err := sweeper.Start(cfg.Billing.SweepSchedule); err != nil {
		return fmt.Errorf("start sweeper: %w", err)
	}

	var limiter httputil.Limiter
	rateLimit := httputil.RateLimitConfig{
		RequestsPerWindow: cfg.Billing.RateLimitPerMinute,
		WindowDuration:    time.Minute,
		Burst:             cfg.Billing.RateLimitBurst,
	}
	if cfg.Billing.RateLimitPerMinute > 0 {
		if redisClient != nil {
			limiter = httputil.NewRedisLimiter(redisClient, rateLimit, "ratelimit")
		} else {
			limiter = httputil.NewMemoryLimiter(rateLimit)
		}
	}

	server, err := api.NewServer(api.ServerConfig{
		Service:   service,
		Catalog:   plans.MustNewCatalog(plans.Default()),
		Payments:  api.NullAuthorizer{},
		Verifier:  sessionVerifier(),
		Logger:    logger,
		AccessLog: accessLog,
		Metrics:   metrics,
		Limiter:   limiter,
		RateLimit: rateLimit,
	})
	if err != nil {
		return fmt.Errorf("assemble server: %w", err)
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthServer := newHealthServer(cfg, db, redisClient, metrics)
	go func() {
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("health server failed")
		}
	}()

	shutdown := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return sweeper.Stop(ctx)
	})
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})

	go func() {
		logger.WithField("addr", httpServer.Addr).Info("lexportal billing server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("server failed")
		}
	}()

	return shutdown.WaitForShutdown()
}

// newHealthServer serves liveness, readiness, and metrics on the probe port.
func newHealthServer(cfg *config.Config, db *sql.DB, redisClient *redis.Client, metrics *observability.Metrics) *http.Server {
	checker := observability.NewHealthChecker(db, redisClient)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", checker.Liveness)
	mux.HandleFunc("/readyz", checker.Readiness)
	if cfg.Observability.MetricsEnabled {
		mux.Handle("/metrics", metrics.Handler())
	}
	return &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: mux,
	}
}

// sessionVerifier trusts the gateway-issued bearer token as an opaque user
// identifier. Production deployments terminate real authentication at the
// edge and forward a verified subject.
func sessionVerifier() auth.Verifier {
	return auth.VerifierFunc(func(ctx context.Context, token string) (*auth.Session, error) {
		if token == "" {
			return nil, nil
		}
		return &auth.Session{UserID: token, Token: token}, nil
	})
}
