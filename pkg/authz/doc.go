// Package authz implements role-based permission resolution for the
// dashboard.
//
// Permissions are described as resource/action pairs ("org.update",
// "reports.view") and resolved against a static policy table keyed by
// role. Resolution is pure: no I/O, no caching, and the same inputs
// always produce the same decision. Unknown roles, unknown capabilities,
// and malformed pairs all resolve to deny. The super_admin role bypasses
// the table entirely.
//
// The package exposes the policy checker, HTTP endpoints for single and
// batch permission checks, and route middleware for guarding handlers
// behind a capability.
package authz
