package authz

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/halcyonhq/beacon/pkg/httputil"
	"github.com/halcyonhq/beacon/pkg/identity"
	"github.com/halcyonhq/beacon/pkg/observability"
)

// Handlers provides the permission-check HTTP endpoints
type Handlers struct {
	checker *Checker
	metrics *observability.Metrics
}

// NewHandlers creates the permission handlers. metrics may be nil.
func NewHandlers(checker *Checker, metrics *observability.Metrics) *Handlers {
	return &Handlers{checker: checker, metrics: metrics}
}

// RegisterRoutes registers the permission-check routes. Both routes assume
// the authorization gate already ran.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/auth/permissions/check", h.CheckPermission).Methods("POST")
	router.HandleFunc("/auth/permissions/batch-check", h.BatchCheckPermissions).Methods("POST")
}

// CheckPermission evaluates a single resource/action pair
func (h *Handlers) CheckPermission(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w)
		return
	}

	var req CheckRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Resource, "resource") {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Action, "action") {
		return
	}

	allowed := h.checker.CheckOne(id, Resource(req.Resource), Action(req.Action))
	h.countDecision(allowed)

	httputil.WriteSuccess(w, CheckResponse{
		HasPermission: allowed,
		Resource:      req.Resource,
		Action:        req.Action,
	})
}

// BatchCheckPermissions evaluates every pair in the request independently.
// The batch as a whole always succeeds; individual failures degrade to deny.
func (h *Handlers) BatchCheckPermissions(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w)
		return
	}

	var req BatchCheckRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if req.Permissions == nil {
		httputil.WriteBadRequest(w, "permissions is required")
		return
	}

	decisions := h.checker.CheckBatch(id, req.Permissions)

	if h.metrics != nil {
		h.metrics.PermissionBatchSize.Observe(float64(len(decisions)))
		for _, allowed := range decisions {
			h.countDecision(allowed)
		}
	}

	httputil.WriteSuccess(w, BatchCheckResponse{Permissions: decisions})
}

func (h *Handlers) countDecision(allowed bool) {
	if h.metrics == nil {
		return
	}
	result := "deny"
	if allowed {
		result = "allow"
	}
	h.metrics.PermissionChecksTotal.WithLabelValues(result).Inc()
}
