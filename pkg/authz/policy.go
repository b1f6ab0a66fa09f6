package authz

import "github.com/halcyonhq/beacon/pkg/identity"

// Policy maps each role to the set of capabilities it holds. Absence of a
// grant means denial; there is no wildcard entry (super_admin bypasses the
// table entirely in the checker).
type Policy map[identity.Role]map[Capability]struct{}

// grants builds a capability set from resource/action pairs
func grants(pairs ...[2]string) map[Capability]struct{} {
	set := make(map[Capability]struct{}, len(pairs))
	for _, p := range pairs {
		set[Key(Resource(p[0]), Action(p[1]))] = struct{}{}
	}
	return set
}

// memberGrants is the baseline every individual-contributor role gets: their
// own dashboard, profile, courses, and onboarding flow.
func memberGrants() map[Capability]struct{} {
	return grants(
		[2]string{"dashboard", "view"},
		[2]string{"profile", "view"},
		[2]string{"profile", "edit"},
		[2]string{"courses", "view"},
		[2]string{"courses", "enroll"},
		[2]string{"onboarding", "view"},
	)
}

// DefaultPolicy returns the static role policy table for the dashboard.
//
// The table is built fresh per call so callers cannot mutate shared state;
// the checker builds it once at construction.
func DefaultPolicy() Policy {
	learner := memberGrants()
	worker := memberGrants()
	frontliner := memberGrants()

	admin := memberGrants()
	for cap := range grants(
		[2]string{"organization", "view"},
		[2]string{"organization", "manage"},
		[2]string{"members", "view"},
		[2]string{"members", "invite"},
		[2]string{"members", "remove"},
		[2]string{"reports", "view"},
		[2]string{"billing", "view"},
		[2]string{"billing", "manage"},
	) {
		admin[cap] = struct{}{}
	}

	executive := grants(
		[2]string{"dashboard", "view"},
		[2]string{"profile", "view"},
		[2]string{"profile", "edit"},
		[2]string{"reports", "view"},
		[2]string{"reports", "export"},
		[2]string{"organization", "view"},
		[2]string{"members", "view"},
	)

	ceo := grants(
		[2]string{"dashboard", "view"},
		[2]string{"profile", "view"},
		[2]string{"profile", "edit"},
		[2]string{"reports", "view"},
		[2]string{"reports", "export"},
		[2]string{"organization", "view"},
		[2]string{"members", "view"},
		[2]string{"billing", "view"},
	)

	return Policy{
		identity.RoleLearner:    learner,
		identity.RoleWorker:     worker,
		identity.RoleFrontliner: frontliner,
		identity.RoleAdmin:      admin,
		identity.RoleExecutive:  executive,
		identity.RoleCEO:        ceo,
		// super_admin intentionally absent: the checker grants it everything.
	}
}
