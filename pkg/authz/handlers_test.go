package authz

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonhq/beacon/pkg/identity"
)

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()
	router := mux.NewRouter()
	NewHandlers(NewChecker(), nil).RegisterRoutes(router)
	return router
}

func doJSON(t *testing.T, router *mux.Router, id *identity.Identity, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if id != nil {
		req = req.WithContext(identity.NewContext(req.Context(), id))
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestCheckPermissionHandler(t *testing.T) {
	router := newTestRouter(t)

	t.Run("allowed", func(t *testing.T) {
		rec := doJSON(t, router, testIdentity(identity.RoleAdmin), "/auth/permissions/check",
			CheckRequest{Resource: "organization", Action: "manage"})

		require.Equal(t, http.StatusOK, rec.Code)
		var resp CheckResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.HasPermission)
		assert.Equal(t, "organization", resp.Resource)
		assert.Equal(t, "manage", resp.Action)
	})

	t.Run("denied", func(t *testing.T) {
		rec := doJSON(t, router, testIdentity(identity.RoleLearner), "/auth/permissions/check",
			CheckRequest{Resource: "billing", Action: "view"})

		require.Equal(t, http.StatusOK, rec.Code)
		var resp CheckResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.HasPermission)
	})

	t.Run("missing resource", func(t *testing.T) {
		rec := doJSON(t, router, testIdentity(identity.RoleAdmin), "/auth/permissions/check",
			CheckRequest{Action: "view"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing action", func(t *testing.T) {
		rec := doJSON(t, router, testIdentity(identity.RoleAdmin), "/auth/permissions/check",
			CheckRequest{Resource: "reports"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no identity on context", func(t *testing.T) {
		rec := doJSON(t, router, nil, "/auth/permissions/check",
			CheckRequest{Resource: "reports", Action: "view"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/permissions/check",
			bytes.NewReader([]byte("{not json")))
		req = req.WithContext(identity.NewContext(req.Context(), testIdentity(identity.RoleAdmin)))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestBatchCheckPermissionsHandler(t *testing.T) {
	router := newTestRouter(t)

	t.Run("mixed decisions", func(t *testing.T) {
		rec := doJSON(t, router, testIdentity(identity.RoleExecutive), "/auth/permissions/batch-check",
			BatchCheckRequest{Permissions: map[string][]string{
				"reports":   {"view", "export"},
				"billing":   {"view"},
				"dashboard": {"view"},
			}})

		require.Equal(t, http.StatusOK, rec.Code)
		var resp BatchCheckResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Permissions, 4)
		assert.True(t, resp.Permissions["reports.view"])
		assert.True(t, resp.Permissions["reports.export"])
		assert.False(t, resp.Permissions["billing.view"])
		assert.True(t, resp.Permissions["dashboard.view"])
	})

	t.Run("super admin gets everything", func(t *testing.T) {
		rec := doJSON(t, router, testIdentity(identity.RoleSuperAdmin), "/auth/permissions/batch-check",
			BatchCheckRequest{Permissions: map[string][]string{
				"billing":     {"manage"},
				"super_admin": {"switch_organization"},
			}})

		require.Equal(t, http.StatusOK, rec.Code)
		var resp BatchCheckResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		for key, allowed := range resp.Permissions {
			assert.True(t, allowed, "expected allow for %s", key)
		}
	})

	t.Run("missing permissions map", func(t *testing.T) {
		rec := doJSON(t, router, testIdentity(identity.RoleAdmin), "/auth/permissions/batch-check",
			map[string]interface{}{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no identity on context", func(t *testing.T) {
		rec := doJSON(t, router, nil, "/auth/permissions/batch-check",
			BatchCheckRequest{Permissions: map[string][]string{"reports": {"view"}}})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireCapability(t *testing.T) {
	checker := NewChecker()
	handlerRan := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerRan = true
		w.WriteHeader(http.StatusOK)
	})

	guarded := RequireCapability(checker, ResourceSuperAdmin, ActionSwitchOrganization)(handler)

	t.Run("no identity yields 401", func(t *testing.T) {
		handlerRan = false
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.False(t, handlerRan)
	})

	t.Run("insufficient role yields 403", func(t *testing.T) {
		handlerRan = false
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(identity.NewContext(req.Context(), testIdentity(identity.RoleAdmin)))
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, handlerRan)
	})

	t.Run("super admin passes through", func(t *testing.T) {
		handlerRan = false
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(identity.NewContext(req.Context(), testIdentity(identity.RoleSuperAdmin)))
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, handlerRan)
	})
}
