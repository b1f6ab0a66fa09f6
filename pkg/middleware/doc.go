// Package middleware provides the HTTP middleware chain for the service.
//
// The chain, outermost first: RequestID, RequestLogger, Metrics, Recovery,
// and AuthGate on protected routes. AuthGate is the only component that
// resolves session tokens; everything behind it reads the identity from the
// request context.
package middleware
