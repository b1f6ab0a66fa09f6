package authz

import "github.com/halcyonhq/beacon/pkg/identity"

// Checker evaluates permission decisions against the static role policy.
//
// Decisions are pure functions of (role, resource, action) plus the table:
// no I/O, no caching. Every request computes its decisions fresh so that a
// role or tenant change is visible on the very next request.
type Checker struct {
	policy Policy
}

// NewChecker creates a checker over the default policy table
func NewChecker() *Checker {
	return NewCheckerWithPolicy(DefaultPolicy())
}

// NewCheckerWithPolicy creates a checker over a custom table (tests)
func NewCheckerWithPolicy(policy Policy) *Checker {
	return &Checker{policy: policy}
}

// CheckOne reports whether the identity holds resource.action.
//
// super_admin bypasses the table and is granted everything. All other roles
// are strict table lookups with default-deny: an unknown role, resource, or
// action yields false, never an error.
func (c *Checker) CheckOne(id *identity.Identity, resource Resource, action Action) bool {
	if !id.Valid() {
		return false
	}
	if resource == "" || action == "" {
		return false
	}
	if id.IsSuperAdmin() {
		return true
	}

	caps, ok := c.policy[id.Role]
	if !ok {
		return false
	}
	_, granted := caps[Key(resource, action)]
	return granted
}

// CheckBatch evaluates every resource/action pair independently and returns
// a complete decision map keyed by "resource.action".
//
// A malformed pair (empty resource or action) records false for that key and
// never aborts the batch: one bad permission key cannot take down a check
// covering dozens of UI elements.
func (c *Checker) CheckBatch(id *identity.Identity, permissions map[string][]string) map[string]bool {
	decisions := make(map[string]bool)
	for resource, actions := range permissions {
		for _, action := range actions {
			key := string(Key(Resource(resource), Action(action)))
			decisions[key] = c.CheckOne(id, Resource(resource), Action(action))
		}
	}
	return decisions
}
