package identity

import (
	"context"
	"sync"
)

// StaticResolver is an in-memory Resolver for tests and local development.
// Tokens map directly to identities; unknown tokens resolve to ErrNoSession.
type StaticResolver struct {
	mu       sync.RWMutex
	sessions map[string]Identity
	failWith error
}

// NewStaticResolver creates an empty static resolver
func NewStaticResolver() *StaticResolver {
	return &StaticResolver{sessions: make(map[string]Identity)}
}

// AddSession registers a token that resolves to the given identity
func (r *StaticResolver) AddSession(token string, id Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[token] = id
}

// RemoveSession drops a token, simulating expiry
func (r *StaticResolver) RemoveSession(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, token)
}

// FailWith makes every Resolve call return the given error until reset with
// nil. Used to simulate provider outages.
func (r *StaticResolver) FailWith(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failWith = err
}

// Resolve implements Resolver
func (r *StaticResolver) Resolve(ctx context.Context, sessionToken string) (*Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.failWith != nil {
		return nil, r.failWith
	}

	id, ok := r.sessions[sessionToken]
	if !ok {
		return nil, ErrNoSession
	}
	out := id
	return &out, nil
}
