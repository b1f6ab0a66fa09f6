package tenant

import (
	"context"
	"fmt"

	"github.com/halcyonhq/beacon/pkg/audit"
	"github.com/halcyonhq/beacon/pkg/authz"
	"github.com/halcyonhq/beacon/pkg/contextkeys"
	"github.com/halcyonhq/beacon/pkg/identity"
	"github.com/halcyonhq/beacon/pkg/observability"
)

// Auditor records tenant events to the audit trail
type Auditor interface {
	Log(ctx context.Context, event *audit.Event) error
}

// Service implements the tenant-switch flow for super admins
type Service struct {
	store    Store
	bindings *BindingStore
	checker  *authz.Checker
	logger   *observability.Logger
	auditor  Auditor
}

// NewService creates the tenant service. auditor may be nil to disable the
// audit trail.
func NewService(store Store, bindings *BindingStore, checker *authz.Checker, logger *observability.Logger, auditor Auditor) *Service {
	return &Service{
		store:    store,
		bindings: bindings,
		checker:  checker,
		logger:   logger,
		auditor:  auditor,
	}
}

// recordAudit writes an event, logging but not propagating failures: a full
// audit table must not take the switch flow down with it.
func (s *Service) recordAudit(ctx context.Context, eventType audit.EventType, status audit.EventStatus, id *identity.Identity, targetOrgID string) {
	if s.auditor == nil {
		return
	}
	err := s.auditor.Log(ctx, &audit.Event{
		EventType:      eventType,
		Status:         status,
		UserID:         id.UserID,
		OrganizationID: id.OrganizationID,
		TargetOrgID:    targetOrgID,
		RequestID:      contextkeys.GetRequestID(ctx),
	})
	if err != nil {
		s.logger.WithError(err).Warn("failed to record audit event")
	}
}

// SwitchOrganization rebinds the caller to the target organization.
//
// Validation runs fully before anything is written: the capability check
// first, then target existence. A failure at either step leaves the current
// binding untouched, so the caller keeps working against the organization
// they were on. The binding itself is a single write; the rebound identity
// takes effect on the caller's next request.
func (s *Service) SwitchOrganization(ctx context.Context, id *identity.Identity, targetOrgID string) (*Organization, error) {
	if !s.checker.CheckOne(id, authz.ResourceSuperAdmin, authz.ActionSwitchOrganization) {
		s.recordAudit(ctx, audit.EventTypeTenantSwitchDenied, audit.EventStatusDenied, id, targetOrgID)
		return nil, ErrUnauthorized
	}

	org, err := s.store.GetOrganization(ctx, targetOrgID)
	if err != nil {
		return nil, err
	}
	if !org.IsActive {
		return nil, ErrOrgNotFound
	}

	if err := s.bindings.Bind(ctx, id.UserID, org.ID); err != nil {
		return nil, fmt.Errorf("failed to commit tenant switch: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":  id.UserID,
		"from_org": id.OrganizationID,
		"to_org":   org.ID,
	}).Info("tenant switch committed")
	s.recordAudit(ctx, audit.EventTypeTenantSwitch, audit.EventStatusSuccess, id, org.ID)

	return org, nil
}

// ListOrganizations returns the directory shown in the switch picker. The
// capability gate mirrors SwitchOrganization so the picker and the switch
// deny the same callers.
func (s *Service) ListOrganizations(ctx context.Context, id *identity.Identity) ([]Organization, error) {
	if !s.checker.CheckOne(id, authz.ResourceSuperAdmin, authz.ActionSwitchOrganization) {
		return nil, ErrUnauthorized
	}
	return s.store.ListOrganizations(ctx)
}

// ClearBinding drops the caller's organization override, returning them to
// their provider-assigned organization on the next request.
func (s *Service) ClearBinding(ctx context.Context, id *identity.Identity) error {
	if !s.checker.CheckOne(id, authz.ResourceSuperAdmin, authz.ActionSwitchOrganization) {
		return ErrUnauthorized
	}
	if err := s.bindings.Clear(ctx, id.UserID); err != nil {
		return err
	}
	s.recordAudit(ctx, audit.EventTypeTenantBindingClear, audit.EventStatusSuccess, id, "")
	return nil
}
