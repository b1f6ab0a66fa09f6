// Package api assembles the HTTP server: the middleware chain, the
// authorization gate, and the permission, tenant, and onboarding routes.
package api
