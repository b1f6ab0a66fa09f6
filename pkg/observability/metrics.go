package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Authorization metrics
	AuthDecisionsTotal    *prometheus.CounterVec // outcome: allowed|denied, reason
	IdentityResolveErrors *prometheus.CounterVec // class: no_session|infrastructure
	PermissionChecksTotal *prometheus.CounterVec // result: allow|deny
	PermissionBatchSize   prometheus.Histogram

	// Tenant metrics
	TenantSwitchesTotal *prometheus.CounterVec // result: success|unauthorized|not_found|error

	// Onboarding metrics
	OnboardingAdvancesTotal *prometheus.CounterVec // result: advanced|clamped|completed_noop

	// Storage metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
}

// NewMetrics creates and registers all metrics against the given registry
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: registry,

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beacon_http_requests_total",
				Help: "Total HTTP requests by method, route, and status code",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "beacon_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		AuthDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beacon_auth_decisions_total",
				Help: "Authorization gate decisions by outcome and reason class",
			},
			[]string{"outcome", "reason"},
		),
		IdentityResolveErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beacon_identity_resolve_errors_total",
				Help: "Identity resolution failures by class",
			},
			[]string{"class"},
		),
		PermissionChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beacon_permission_checks_total",
				Help: "Permission check results",
			},
			[]string{"result"},
		),
		PermissionBatchSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "beacon_permission_batch_size",
				Help:    "Number of resource/action pairs per batch check",
				Buckets: prometheus.ExponentialBuckets(1, 2, 8),
			},
		),

		TenantSwitchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beacon_tenant_switches_total",
				Help: "Tenant switch attempts by result",
			},
			[]string{"result"},
		),

		OnboardingAdvancesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "beacon_onboarding_advances_total",
				Help: "Onboarding advance calls by result",
			},
			[]string{"result"},
		),

		DBConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "beacon_db_connections_active",
			Help: "Active database connections",
		}),
		DBConnectionsIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "beacon_db_connections_idle",
			Help: "Idle database connections",
		}),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AuthDecisionsTotal,
		m.IdentityResolveErrors,
		m.PermissionChecksTotal,
		m.PermissionBatchSize,
		m.TenantSwitchesTotal,
		m.OnboardingAdvancesTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
	)

	return m
}

// Handler returns an HTTP handler serving the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
