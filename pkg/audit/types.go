package audit

import "time"

// EventType categorizes an audit event
type EventType string

const (
	// Authorization events
	EventTypeAccessDenied    EventType = "authz.access_denied"
	EventTypePermissionCheck EventType = "authz.permission_check"

	// Tenant events
	EventTypeTenantSwitch       EventType = "tenant.switch"
	EventTypeTenantSwitchDenied EventType = "tenant.switch_denied"
	EventTypeTenantBindingClear EventType = "tenant.binding_cleared"

	// Onboarding events
	EventTypeOnboardingCompleted EventType = "onboarding.completed"
)

// EventStatus is the outcome of an audited action
type EventStatus string

const (
	EventStatusSuccess EventStatus = "success"
	EventStatusFailure EventStatus = "failure"
	EventStatusDenied  EventStatus = "denied"
)

// Event is one audit trail entry
type Event struct {
	ID             int64                  `json:"id,omitempty"`
	Timestamp      time.Time              `json:"timestamp"`
	EventType      EventType              `json:"eventType"`
	Status         EventStatus            `json:"status"`
	UserID         string                 `json:"userId,omitempty"`
	OrganizationID string                 `json:"organizationId,omitempty"`
	TargetOrgID    string                 `json:"targetOrgId,omitempty"`
	RequestID      string                 `json:"requestId,omitempty"`
	Message        string                 `json:"message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}
