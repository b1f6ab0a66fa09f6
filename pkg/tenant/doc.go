// Package tenant implements organization context for super admins.
//
// Super admins can rebind themselves to any active organization to inspect
// it as an operator. The binding lives in Redis under one key per user, the
// switch validates capability and target existence before committing, and
// the rebound organization takes effect on the caller's next request via the
// authorization gate. Regular users are never rebound; their organization
// always comes from the identity provider.
package tenant
