package authz

// Resource represents a resource namespace in the dashboard
type Resource string

const (
	ResourceDashboard    Resource = "dashboard"
	ResourceProfile      Resource = "profile"
	ResourceCourses      Resource = "courses"
	ResourceReports      Resource = "reports"
	ResourceOrganization Resource = "organization"
	ResourceMembers      Resource = "members"
	ResourceBilling      Resource = "billing"
	ResourceOnboarding   Resource = "onboarding"
	ResourceSuperAdmin   Resource = "super_admin"
)

// Action represents an action that can be performed on a resource
type Action string

const (
	ActionView   Action = "view"
	ActionEdit   Action = "edit"
	ActionManage Action = "manage"
	ActionExport Action = "export"
	ActionEnroll Action = "enroll"
	ActionInvite Action = "invite"
	ActionRemove Action = "remove"

	// ActionSwitchOrganization is the super-admin capability consumed by the
	// tenant-switch controller.
	ActionSwitchOrganization Action = "switch_organization"
)

// Capability is the composite permission key in "resource.action" form, the
// same dotted-namespace convention the dashboard frontend sends over the wire.
type Capability string

// Key builds the capability key for a resource/action pair
func Key(resource Resource, action Action) Capability {
	return Capability(string(resource) + "." + string(action))
}

// CheckRequest is the body of a single permission check
type CheckRequest struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// CheckResponse echoes the pair back alongside the decision
type CheckResponse struct {
	HasPermission bool   `json:"hasPermission"`
	Resource      string `json:"resource"`
	Action        string `json:"action"`
}

// BatchCheckRequest maps each resource to the list of actions to evaluate
type BatchCheckRequest struct {
	Permissions map[string][]string `json:"permissions"`
}

// BatchCheckResponse maps "resource.action" keys to decisions
type BatchCheckResponse struct {
	Permissions map[string]bool `json:"permissions"`
}
