package identity

import (
	"context"

	"github.com/halcyonhq/beacon/pkg/contextkeys"
)

// NewContext returns a context carrying the resolved identity
func NewContext(ctx context.Context, id *Identity) context.Context {
	return contextkeys.WithIdentity(ctx, id)
}

// FromContext extracts the resolved identity installed by the authorization
// gate. The second return is false for unauthenticated contexts.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(contextkeys.IdentityKey).(*Identity)
	if !ok || !id.Valid() {
		return nil, false
	}
	return id, true
}
