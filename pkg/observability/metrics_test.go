package observability

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_RegistersAndServes(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.AuthDecisionsTotal.WithLabelValues("denied", "no_session").Inc()
	m.TenantSwitchesTotal.WithLabelValues("success").Inc()
	m.PermissionBatchSize.Observe(12)

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "beacon_auth_decisions_total"))
	assert.True(t, strings.Contains(body, "beacon_tenant_switches_total"))
	assert.True(t, strings.Contains(body, "beacon_permission_batch_size"))
}

func TestNewMetrics_DoubleRegisterPanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewMetrics(registry)
	assert.Panics(t, func() { NewMetrics(registry) })
}
