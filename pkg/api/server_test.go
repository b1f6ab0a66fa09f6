package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonhq/beacon/pkg/authz"
	"github.com/halcyonhq/beacon/pkg/identity"
	"github.com/halcyonhq/beacon/pkg/observability"
	"github.com/halcyonhq/beacon/pkg/onboarding"
	"github.com/halcyonhq/beacon/pkg/tenant"
)

type orgDirectory struct {
	orgs map[string]*tenant.Organization
}

func (d *orgDirectory) GetOrganization(ctx context.Context, orgID string) (*tenant.Organization, error) {
	org, ok := d.orgs[orgID]
	if !ok {
		return nil, tenant.ErrOrgNotFound
	}
	out := *org
	return &out, nil
}

func (d *orgDirectory) ListOrganizations(ctx context.Context) ([]tenant.Organization, error) {
	var out []tenant.Organization
	for _, org := range d.orgs {
		out = append(out, *org)
	}
	return out, nil
}

type onboardingFake struct {
	mu    sync.Mutex
	steps map[string]int
	orgs  map[string]*string
}

func (s *onboardingFake) Advance(ctx context.Context, profileID string) (int, error) {
	current, err := s.CurrentStep(ctx, profileID)
	if err != nil {
		return 0, err
	}
	if current == onboarding.StepCompleted {
		return onboarding.StepCompleted, nil
	}
	next := current + 1
	if next > onboarding.MaxStep {
		next = onboarding.MaxStep
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.steps[profileID] != current {
		return s.steps[profileID], nil
	}
	s.steps[profileID] = next
	return next, nil
}

func (s *onboardingFake) CurrentStep(ctx context.Context, profileID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	step, ok := s.steps[profileID]
	if !ok {
		return 0, onboarding.ErrProfileNotFound
	}
	return step, nil
}

func (s *onboardingFake) Complete(ctx context.Context, profileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.steps[profileID]; !ok {
		return onboarding.ErrProfileNotFound
	}
	s.steps[profileID] = onboarding.StepCompleted
	return nil
}

func (s *onboardingFake) RememberOrg(ctx context.Context, profileID string, orgID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	step, ok := s.steps[profileID]
	if !ok {
		return onboarding.ErrProfileNotFound
	}
	if step == onboarding.StepCompleted {
		return nil
	}
	s.orgs[profileID] = orgID
	return nil
}

func (s *onboardingFake) RememberedOrg(ctx context.Context, profileID string) (*string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.steps[profileID]; !ok {
		return nil, onboarding.ErrProfileNotFound
	}
	return s.orgs[profileID], nil
}

type testServer struct {
	server   *Server
	resolver *identity.StaticResolver
	store    *onboardingFake
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	checker := authz.NewChecker()
	bindings := tenant.NewBindingStore(redisClient, 0)
	directory := &orgDirectory{orgs: map[string]*tenant.Organization{
		"org-1": {ID: "org-1", Name: "Acme", Slug: "acme", IsActive: true},
		"org-2": {ID: "org-2", Name: "Globex", Slug: "globex", IsActive: true},
	}}
	tenantService := tenant.NewService(directory, bindings, checker, logger, nil)

	onboardingStore := &onboardingFake{
		steps: map[string]int{"p-learner": 0, "p-sa": onboarding.StepCompleted},
		orgs:  map[string]*string{},
	}

	resolver := identity.NewStaticResolver()
	resolver.AddSession("learner-token", identity.Identity{
		UserID: "u-learner", ProfileID: "p-learner", OrganizationID: "org-1", Role: identity.RoleLearner,
	})
	resolver.AddSession("sa-token", identity.Identity{
		UserID: "u-sa", ProfileID: "p-sa", OrganizationID: "org-1", Role: identity.RoleSuperAdmin,
	})

	server := NewServer(Deps{
		Resolver:        resolver,
		Binder:          bindings,
		Checker:         checker,
		TenantService:   tenantService,
		OnboardingStore: onboardingStore,
		Logger:          logger,
	})

	return &testServer{server: server, resolver: resolver, store: onboardingStore}
}

func (ts *testServer) do(t *testing.T, token, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)
	return rec
}

func TestServer_RejectsAnonymousRequestsEverywhere(t *testing.T) {
	ts := newTestServer(t)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/auth/permissions/check"},
		{http.MethodPost, "/auth/permissions/batch-check"},
		{http.MethodPost, "/super-admin/switch-organization"},
		{http.MethodGet, "/super-admin/organizations"},
		{http.MethodGet, "/user/onboarding"},
		{http.MethodPost, "/user/onboarding/complete"},
	}

	for _, p := range paths {
		rec := ts.do(t, "", p.method, p.path, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", p.method, p.path)
	}
}

func TestServer_PermissionCheckFlow(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "learner-token", http.MethodPost, "/auth/permissions/check",
		authz.CheckRequest{Resource: "dashboard", Action: "view"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp authz.CheckResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.HasPermission)

	rec = ts.do(t, "learner-token", http.MethodPost, "/auth/permissions/batch-check",
		authz.BatchCheckRequest{Permissions: map[string][]string{
			"dashboard": {"view"},
			"billing":   {"view"},
		}})
	require.Equal(t, http.StatusOK, rec.Code)

	var batch authz.BatchCheckResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &batch))
	assert.True(t, batch.Permissions["dashboard.view"])
	assert.False(t, batch.Permissions["billing.view"])
}

func TestServer_TenantSwitchVisibleOnNextRequest(t *testing.T) {
	ts := newTestServer(t)

	// Before the switch the super admin sits in their home organization;
	// the permission endpoint does not expose it, so check via switching.
	rec := ts.do(t, "sa-token", http.MethodPost, "/super-admin/switch-organization",
		tenant.SwitchRequest{OrganizationID: "org-2"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp tenant.SwitchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "org-2", resp.OrganizationID)

	// The next request resolves through the gate with the override applied:
	// listing organizations still works, proving the rebound identity kept
	// its super-admin capability.
	rec = ts.do(t, "sa-token", http.MethodGet, "/super-admin/organizations", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var list tenant.ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Count)
}

func TestServer_TenantSwitchDeniedForLearner(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "learner-token", http.MethodPost, "/super-admin/switch-organization",
		tenant.SwitchRequest{OrganizationID: "org-2"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(t, "learner-token", http.MethodGet, "/super-admin/organizations", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The capability fence sits in front of the handlers, so even a
	// malformed body is turned away with 403 rather than 400.
	rec = ts.do(t, "learner-token", http.MethodPost, "/super-admin/switch-organization", "not json")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServer_TenantSwitchUnknownOrg(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "sa-token", http.MethodPost, "/super-admin/switch-organization",
		tenant.SwitchRequest{OrganizationID: "org-nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_OnboardingFlow(t *testing.T) {
	ts := newTestServer(t)

	// Walk the three steps, then verify the clamp.
	for _, expected := range []int{1, 2, 3, 3} {
		rec := ts.do(t, "learner-token", http.MethodGet, "/user/onboarding", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp onboarding.StepResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, expected, resp.Step)
	}

	// Remember an organization mid-flow.
	rec := ts.do(t, "learner-token", http.MethodPost, "/user/onboarding/remember-org",
		onboarding.RememberOrgRequest{OnboardingOrgID: "org-2"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok": true}`, rec.Body.String())

	// Complete, then confirm later advances hold at the sentinel and the
	// remembered organization survives.
	rec = ts.do(t, "learner-token", http.MethodPost, "/user/onboarding/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(t, "learner-token", http.MethodGet, "/user/onboarding", nil)
	var resp onboarding.StepResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, onboarding.StepCompleted, resp.Step)

	rec = ts.do(t, "learner-token", http.MethodGet, "/user/onboarding/remember-org", nil)
	var remembered onboarding.RememberOrgResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &remembered))
	require.NotNil(t, remembered.OnboardingOrgID)
	assert.Equal(t, "org-2", *remembered.OnboardingOrgID)
}

func TestServer_ExpiredSessionRejectedMidFlight(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, "learner-token", http.MethodGet, "/user/onboarding", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	ts.resolver.RemoveSession("learner-token")

	rec = ts.do(t, "learner-token", http.MethodGet, "/user/onboarding", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_ConcurrentMixedTraffic(t *testing.T) {
	ts := newTestServer(t)

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := ts.do(t, "learner-token", http.MethodPost, "/auth/permissions/check",
				authz.CheckRequest{Resource: "dashboard", Action: "view"})
			assert.Equal(t, http.StatusOK, rec.Code)
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := ts.do(t, "", http.MethodGet, "/super-admin/organizations", nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("concurrent requests did not finish")
	}
}
