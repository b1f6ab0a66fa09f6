// Package identity resolves opaque session tokens into request-scoped
// identities.
//
// The hosted identity provider owns session issuance and renewal entirely;
// this package only ever reads. Resolution has exactly three outcomes:
//
//   - a valid *Identity
//   - ErrNoSession: the caller has no live session (normal, not logged as error)
//   - an Infrastructure-wrapped error: the provider itself failed
//
// Both failure outcomes make the authorization gate reject the request with
// a uniform 401; the distinction exists only for logging and metrics.
package identity
