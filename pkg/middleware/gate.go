package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/halcyonhq/beacon/pkg/httputil"
	"github.com/halcyonhq/beacon/pkg/identity"
	"github.com/halcyonhq/beacon/pkg/observability"
)

// SessionCookieName is the fallback session cookie checked when no
// Authorization header is present.
const SessionCookieName = "beacon_session"

// TenantBinder looks up an active tenant override for a user. Implemented by
// tenant.BindingStore; the gate only needs the read side.
type TenantBinder interface {
	ActiveOrganization(ctx context.Context, userID string) (string, error)
}

// AuthGate resolves the session token on every protected request and binds
// the resulting identity to the request context.
//
// The gate is the single place identity resolution happens: handlers behind
// it never see a request without an identity, and never resolve one
// themselves. Every rejection is a uniform 401 regardless of whether the
// token was missing, invalid, expired, or the identity provider was
// unreachable.
type AuthGate struct {
	resolver identity.Resolver
	binder   TenantBinder
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// NewAuthGate creates the authorization gate. binder and metrics may be nil.
func NewAuthGate(resolver identity.Resolver, binder TenantBinder, logger *observability.Logger, metrics *observability.Metrics) *AuthGate {
	return &AuthGate{
		resolver: resolver,
		binder:   binder,
		logger:   logger,
		metrics:  metrics,
	}
}

// Handler wraps a protected handler. The wrapped handler runs only after the
// identity has been resolved and installed on the context.
func (g *AuthGate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractSessionToken(r)
		if token == "" {
			g.reject(w, r, "missing_token")
			return
		}

		id, err := g.resolver.Resolve(r.Context(), token)
		if err != nil {
			class := "no_session"
			if identity.IsInfrastructure(err) {
				// Provider outage fails closed. Log the real cause; the
				// client still sees the same 401 as everyone else.
				class = "infrastructure"
				g.requestLogger(r).WithError(err).Error("identity provider unreachable, failing closed")
			}
			if g.metrics != nil {
				g.metrics.IdentityResolveErrors.WithLabelValues(class).Inc()
			}
			g.reject(w, r, class)
			return
		}
		if !id.Valid() {
			g.reject(w, r, "incomplete_identity")
			return
		}

		g.applyTenantOverride(r.Context(), id)

		if g.metrics != nil {
			g.metrics.AuthDecisionsTotal.WithLabelValues("allowed", "resolved").Inc()
		}
		next.ServeHTTP(w, r.WithContext(identity.NewContext(r.Context(), id)))
	})
}

// applyTenantOverride rebinds a super admin to their active organization
// override, if one is set. A binder failure leaves the provider-supplied
// organization in place rather than blocking the request.
func (g *AuthGate) applyTenantOverride(ctx context.Context, id *identity.Identity) {
	if g.binder == nil || !id.IsSuperAdmin() {
		return
	}
	orgID, err := g.binder.ActiveOrganization(ctx, id.UserID)
	if err != nil {
		g.logger.WithError(err).WithField("user_id", id.UserID).
			Warn("tenant binding lookup failed, using provider organization")
		return
	}
	if orgID != "" {
		id.OrganizationID = orgID
	}
}

func (g *AuthGate) reject(w http.ResponseWriter, r *http.Request, reason string) {
	if g.metrics != nil {
		g.metrics.AuthDecisionsTotal.WithLabelValues("denied", reason).Inc()
	}
	g.requestLogger(r).WithFields(map[string]interface{}{
		"reason": reason,
		"path":   r.URL.Path,
	}).Info("request rejected at authorization gate")
	httputil.WriteUnauthorized(w)
}

func (g *AuthGate) requestLogger(r *http.Request) *observability.Logger {
	return observability.FromContext(r.Context())
}

// extractSessionToken pulls the opaque session token from the Authorization
// bearer header, falling back to the session cookie set by the web frontend.
func extractSessionToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}
