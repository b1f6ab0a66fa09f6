package tenant

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/halcyonhq/beacon/pkg/httputil"
	"github.com/halcyonhq/beacon/pkg/identity"
	"github.com/halcyonhq/beacon/pkg/observability"
)

// Handlers provides the super-admin tenant HTTP endpoints
type Handlers struct {
	service *Service
	metrics *observability.Metrics
}

// NewHandlers creates the tenant handlers. metrics may be nil.
func NewHandlers(service *Service, metrics *observability.Metrics) *Handlers {
	return &Handlers{service: service, metrics: metrics}
}

// RegisterRoutes registers the tenant routes. The router is expected to be
// a subrouter mounted under the super-admin path prefix, typically with the
// switch capability already enforced in front of it.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/switch-organization", h.SwitchOrganization).Methods("POST")
	router.HandleFunc("/switch-organization", h.ClearBinding).Methods("DELETE")
	router.HandleFunc("/organizations", h.ListOrganizations).Methods("GET")
}

// SwitchOrganization handles POST /super-admin/switch-organization
func (h *Handlers) SwitchOrganization(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w)
		return
	}

	var req SwitchRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.OrganizationID, "organizationId") {
		return
	}

	org, err := h.service.SwitchOrganization(r.Context(), id, req.OrganizationID)
	if err != nil {
		h.writeSwitchError(w, r, err)
		return
	}

	h.countSwitch("success")
	httputil.WriteSuccess(w, SwitchResponse{Success: true, OrganizationID: org.ID})
}

// ClearBinding handles DELETE /super-admin/switch-organization
func (h *Handlers) ClearBinding(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w)
		return
	}

	if err := h.service.ClearBinding(r.Context(), id); err != nil {
		h.writeSwitchError(w, r, err)
		return
	}

	httputil.WriteSuccess(w, map[string]bool{"success": true})
}

// ListOrganizations handles GET /super-admin/organizations
func (h *Handlers) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w)
		return
	}

	orgs, err := h.service.ListOrganizations(r.Context(), id)
	if err != nil {
		h.writeSwitchError(w, r, err)
		return
	}
	if orgs == nil {
		orgs = []Organization{}
	}

	httputil.WriteSuccess(w, ListResponse{Organizations: orgs, Count: len(orgs)})
}

// writeSwitchError maps service errors onto the response taxonomy. The 403
// and 404 are deliberately distinct: a denied caller learns nothing more by
// being told whether the organization exists, because the capability check
// runs first and wins.
func (h *Handlers) writeSwitchError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		h.countSwitch("unauthorized")
		httputil.WriteForbidden(w, "insufficient permissions")
	case errors.Is(err, ErrOrgNotFound):
		h.countSwitch("not_found")
		httputil.WriteNotFound(w, "organization not found")
	default:
		h.countSwitch("error")
		observability.FromContext(r.Context()).WithError(err).Error("tenant operation failed")
		httputil.WriteInternalError(w)
	}
}

func (h *Handlers) countSwitch(result string) {
	if h.metrics != nil {
		h.metrics.TenantSwitchesTotal.WithLabelValues(result).Inc()
	}
}
