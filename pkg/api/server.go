package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/halcyonhq/beacon/pkg/authz"
	"github.com/halcyonhq/beacon/pkg/identity"
	"github.com/halcyonhq/beacon/pkg/middleware"
	"github.com/halcyonhq/beacon/pkg/observability"
	"github.com/halcyonhq/beacon/pkg/onboarding"
	"github.com/halcyonhq/beacon/pkg/tenant"
)

// Deps carries everything the server needs wired in
type Deps struct {
	Resolver        identity.Resolver
	Binder          middleware.TenantBinder
	Checker         *authz.Checker
	TenantService   *tenant.Service
	OnboardingStore onboarding.Store
	Logger          *observability.Logger
	Metrics         *observability.Metrics
	TracingEnabled  bool
}

// Server is the dashboard API server
type Server struct {
	router  *mux.Router
	deps    Deps
	handler http.Handler
}

// NewServer builds the router and middleware chain.
//
// Every route lives behind the authorization gate; there are no anonymous
// endpoints on this server. Health and metrics are served separately so the
// gate never sees probe traffic.
func NewServer(deps Deps) *Server {
	s := &Server{
		router: mux.NewRouter(),
		deps:   deps,
	}
	s.setupRoutes()

	var handler http.Handler = s.router
	if deps.TracingEnabled {
		handler = otelhttp.NewHandler(handler, "beacon-api")
	}
	s.handler = handler
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(
		middleware.RequestID,
		middleware.RequestLogger(s.deps.Logger),
	)
	if s.deps.Metrics != nil {
		s.router.Use(middleware.Metrics(s.deps.Metrics))
	}
	s.router.Use(middleware.Recovery(s.deps.Logger))

	gate := middleware.NewAuthGate(s.deps.Resolver, s.deps.Binder, s.deps.Logger, s.deps.Metrics)
	s.router.Use(gate.Handler)

	authz.NewHandlers(s.deps.Checker, s.deps.Metrics).RegisterRoutes(s.router)
	onboarding.NewHandlers(s.deps.OnboardingStore, s.deps.Metrics).RegisterRoutes(s.router)

	// The super-admin surface is fenced off as a whole; the service layer
	// re-checks the capability for callers that bypass HTTP.
	superAdmin := s.router.PathPrefix("/super-admin").Subrouter()
	superAdmin.Use(authz.RequireCapability(s.deps.Checker, authz.ResourceSuperAdmin, authz.ActionSwitchOrganization))
	tenant.NewHandlers(s.deps.TenantService, s.deps.Metrics).RegisterRoutes(superAdmin)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Router exposes the underlying router for tests
func (s *Server) Router() *mux.Router {
	return s.router
}
