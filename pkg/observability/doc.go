// Package observability provides structured logging, Prometheus metrics,
// OpenTelemetry tracing, and health checks for the Beacon dashboard core.
//
// # Structured Logging
//
// Create a logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("org_id", orgID).Info("tenant switch applied")
//
// Request-scoped loggers travel through the context:
//
//	logger := observability.FromContext(r.Context())
//
// # Prometheus Metrics
//
// Initialize metrics once and pass them to the middleware and handlers:
//
//	metrics := observability.NewMetrics(prometheus.NewRegistry())
//	metrics.AuthDecisionsTotal.WithLabelValues("denied", "no_session").Inc()
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(db, redisClient)
//	mux.HandleFunc("/healthz", checker.Liveness)
//	mux.HandleFunc("/readyz", checker.Readiness)
package observability
