package onboarding

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/halcyonhq/beacon/pkg/httputil"
	"github.com/halcyonhq/beacon/pkg/identity"
	"github.com/halcyonhq/beacon/pkg/observability"
)

// Handlers provides the onboarding HTTP endpoints
type Handlers struct {
	store   Store
	metrics *observability.Metrics
}

// NewHandlers creates the onboarding handlers. metrics may be nil.
func NewHandlers(store Store, metrics *observability.Metrics) *Handlers {
	return &Handlers{store: store, metrics: metrics}
}

// RegisterRoutes registers the onboarding routes
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/user/onboarding", h.Advance).Methods("GET")
	router.HandleFunc("/user/onboarding/remember-org", h.RememberOrg).Methods("POST")
	router.HandleFunc("/user/onboarding/remember-org", h.RememberedOrg).Methods("GET")
	router.HandleFunc("/user/onboarding/remember-org", h.ClearRememberedOrg).Methods("DELETE")
	router.HandleFunc("/user/onboarding/complete", h.Complete).Methods("POST")
}

// Advance handles GET /user/onboarding. Each poll moves the flow one step
// forward, clamped at the final step; a completed flow reports the sentinel
// without moving.
func (h *Handlers) Advance(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w)
		return
	}

	step, err := h.store.Advance(r.Context(), id.ProfileID)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}

	h.countAdvance(step)
	httputil.WriteSuccess(w, StepResponse{Step: step})
}

// RememberOrg handles POST /user/onboarding/remember-org
func (h *Handlers) RememberOrg(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w)
		return
	}

	var req RememberOrgRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.OnboardingOrgID, "onboarding_org_id") {
		return
	}

	if err := h.store.RememberOrg(r.Context(), id.ProfileID, &req.OnboardingOrgID); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, AckResponse{OK: true})
}

// ClearRememberedOrg handles DELETE /user/onboarding/remember-org. It resets
// the slot to null; clearing an empty slot succeeds.
func (h *Handlers) ClearRememberedOrg(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w)
		return
	}

	if err := h.store.RememberOrg(r.Context(), id.ProfileID, nil); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, AckResponse{OK: true})
}

// RememberedOrg handles GET /user/onboarding/remember-org
func (h *Handlers) RememberedOrg(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w)
		return
	}

	orgID, err := h.store.RememberedOrg(r.Context(), id.ProfileID)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, RememberOrgResponse{OnboardingOrgID: orgID})
}

// Complete handles POST /user/onboarding/complete
func (h *Handlers) Complete(w http.ResponseWriter, r *http.Request) {
	id, ok := identity.FromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w)
		return
	}

	if err := h.store.Complete(r.Context(), id.ProfileID); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, StepResponse{Step: StepCompleted})
}

func (h *Handlers) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrProfileNotFound) {
		httputil.WriteNotFound(w, "profile not found")
		return
	}
	observability.FromContext(r.Context()).WithError(err).Error("onboarding operation failed")
	httputil.WriteInternalError(w)
}

func (h *Handlers) countAdvance(step int) {
	if h.metrics == nil {
		return
	}
	result := "advanced"
	switch step {
	case StepCompleted:
		result = "completed_noop"
	case MaxStep:
		result = "clamped"
	}
	h.metrics.OnboardingAdvancesTotal.WithLabelValues(result).Inc()
}
