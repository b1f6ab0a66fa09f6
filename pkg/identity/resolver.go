package identity

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoSession indicates the token did not resolve to a session. This is a
// normal outcome for anonymous or expired requests, not an infrastructure
// failure.
var ErrNoSession = errors.New("no resolvable session")

// infraError marks provider-side failures (unreachable, misbehaving). The
// gate treats these the same as ErrNoSession (fail closed) but logs and
// counts them separately.
type infraError struct {
	err error
}

func (e *infraError) Error() string { return fmt.Sprintf("identity provider failure: %v", e.err) }
func (e *infraError) Unwrap() error { return e.err }

// Infrastructure wraps a provider-side failure so callers can classify it
func Infrastructure(err error) error {
	if err == nil {
		return nil
	}
	return &infraError{err: err}
}

// IsInfrastructure reports whether the resolution error was an infrastructure
// failure rather than an absent session
func IsInfrastructure(err error) bool {
	var ie *infraError
	return errors.As(err, &ie)
}

// Resolver resolves an opaque session token into an Identity.
//
// Implementations return (nil, ErrNoSession) for any token that does not map
// to a live session, and an Infrastructure-wrapped error when the provider
// itself failed. They never return a non-nil Identity with an empty UserID.
type Resolver interface {
	Resolve(ctx context.Context, sessionToken string) (*Identity, error)
}
