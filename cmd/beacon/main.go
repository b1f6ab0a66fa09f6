package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/halcyonhq/beacon/pkg/api"
	"github.com/halcyonhq/beacon/pkg/audit"
	"github.com/halcyonhq/beacon/pkg/authz"
	"github.com/halcyonhq/beacon/pkg/config"
	"github.com/halcyonhq/beacon/pkg/identity"
	"github.com/halcyonhq/beacon/pkg/observability"
	"github.com/halcyonhq/beacon/pkg/onboarding"
	"github.com/halcyonhq/beacon/pkg/storage/postgres"
	"github.com/halcyonhq/beacon/pkg/tenant"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).
			WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("server exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	ctx := context.Background()

	tracerProvider, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return err
	}

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	connMgr, err := postgres.NewConnectionManager(postgres.ConnectionConfig{
		PrimaryURL:  cfg.Storage.PostgresURL,
		ReplicaURLs: cfg.Storage.ReplicaURLs(),
		MaxConns:    cfg.Storage.PostgresMaxConns,
		MinConns:    cfg.Storage.PostgresMinConns,
		Timeout:     cfg.Storage.PostgresTimeout,
		MaxLifetime: time.Hour,
		MaxIdleTime: 10 * time.Minute,
	}, logger)
	if err != nil {
		return err
	}
	defer connMgr.Close()

	redisClient, err := postgres.NewRedisClient(postgres.RedisConfig{
		URL:        cfg.Storage.RedisURL,
		Password:   cfg.Storage.RedisPassword,
		DB:         cfg.Storage.RedisDB,
		MaxRetries: cfg.Storage.RedisMaxRetries,
		PoolSize:   cfg.Storage.RedisPoolSize,
	})
	if err != nil {
		return err
	}
	defer redisClient.Close()

	resolver, err := identity.NewOIDCResolver(ctx, identity.OIDCConfig{
		IssuerURL: cfg.Identity.IssuerURL,
		ClientID:  cfg.Identity.ClientID,
	})
	if err != nil {
		return err
	}

	checker := authz.NewChecker()
	bindings := tenant.NewBindingStore(redisClient, cfg.Storage.BindingTTL)
	orgStore := tenant.NewPostgresStore(connMgr.Replica())
	onboardingStore := onboarding.NewPostgresStore(connMgr.Primary())

	var auditor tenant.Auditor
	var sweeper *audit.RetentionSweeper
	if cfg.Audit.Enabled {
		dbLogger, err := audit.NewDBLogger(connMgr.Primary())
		if err != nil {
			return err
		}
		auditor = dbLogger

		sweeper = audit.NewRetentionSweeper(dbLogger, cfg.Audit.Retention, cfg.Audit.SweepSchedule, logger)
		if err := sweeper.Start(); err != nil {
			return err
		}
		defer sweeper.Stop()
	}

	tenantService := tenant.NewService(orgStore, bindings, checker, logger, auditor)

	server := api.NewServer(api.Deps{
		Resolver:        resolver,
		Binder:          bindings,
		Checker:         checker,
		TenantService:   tenantService,
		OnboardingStore: onboardingStore,
		Logger:          logger,
		Metrics:         metrics,
		TracingEnabled:  cfg.Observability.OTelEnabled,
	})

	apiServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthHandler(connMgr, redisClient, metrics),
	}

	statsCtx, statsCancel := context.WithCancel(ctx)
	defer statsCancel()
	if metrics != nil {
		go connMgr.ReportStats(statsCtx, metrics, 15*time.Second)
	}

	shutdown := observability.NewShutdownManager(logger, cfg.Server.ShutdownTimeout, apiServer, healthServer)
	if tracerProvider != nil {
		shutdown.RegisterShutdownFunc(tracerProvider.Shutdown)
	}
	shutdown.RegisterShutdownFunc(func(ctx context.Context) error {
		return redisClient.Close()
	})

	var group errgroup.Group
	group.Go(func() error {
		logger.WithField("addr", apiServer.Addr).Info("api server listening")
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		logger.WithField("addr", healthServer.Addr).Info("health server listening")
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(shutdown.WaitForShutdown)

	return group.Wait()
}

func healthHandler(connMgr *postgres.ConnectionManager, redisClient *redis.Client, metrics *observability.Metrics) http.Handler {
	router := mux.NewRouter()
	checker := observability.NewHealthChecker(connMgr.Primary(), redisClient)
	router.HandleFunc("/healthz", checker.Liveness).Methods("GET")
	router.HandleFunc("/readyz", checker.Readiness).Methods("GET")
	if metrics != nil {
		router.Handle("/metrics", metrics.Handler()).Methods("GET")
	}
	return router
}
