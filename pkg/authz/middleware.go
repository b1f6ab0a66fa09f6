package authz

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/halcyonhq/beacon/pkg/httputil"
	"github.com/halcyonhq/beacon/pkg/identity"
)

// RequireCapability guards a route behind a single capability. It expects
// the identity to already be bound to the request context; a missing
// identity means the gate never ran and the request is rejected outright.
func RequireCapability(checker *Checker, resource Resource, action Action) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := identity.FromContext(r.Context())
			if !ok {
				httputil.WriteUnauthorized(w)
				return
			}
			if !checker.CheckOne(id, resource, action) {
				httputil.WriteForbidden(w, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
