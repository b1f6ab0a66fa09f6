package tenant

import (
	"errors"
	"time"
)

// Organization is a tenant of the dashboard
type Organization struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Slug              string    `json:"slug"`
	BillingCustomerID string    `json:"billingCustomerId,omitempty"`
	IsActive          bool      `json:"isActive"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

var (
	// ErrOrgNotFound indicates the target organization does not exist
	ErrOrgNotFound = errors.New("organization not found")

	// ErrUnauthorized indicates the caller lacks the switch capability
	ErrUnauthorized = errors.New("not authorized to switch organizations")
)

// SwitchRequest is the body of a tenant-switch call
type SwitchRequest struct {
	OrganizationID string `json:"organizationId"`
}

// SwitchResponse confirms which organization the caller is now bound to
type SwitchResponse struct {
	Success        bool   `json:"success"`
	OrganizationID string `json:"organizationId"`
}

// ListResponse carries the organization directory for the switch picker
type ListResponse struct {
	Organizations []Organization `json:"organizations"`
	Count         int            `json:"count"`
}
