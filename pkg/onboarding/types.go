package onboarding

import "errors"

const (
	// StepCompleted is the sentinel marking a finished onboarding flow
	StepCompleted = -1

	// MaxStep is the last onboarding step. Advancing past it clamps here
	// until the flow is explicitly completed.
	MaxStep = 3
)

// ErrProfileNotFound indicates no profile row exists for the caller
var ErrProfileNotFound = errors.New("profile not found")

// State is a profile's onboarding position
type State struct {
	ProfileID string `json:"profileId"`
	Step      int    `json:"step"`
}

// Completed reports whether the flow has been finished
func (s State) Completed() bool {
	return s.Step == StepCompleted
}

// StepResponse is the body returned by the advance endpoint
type StepResponse struct {
	Step int `json:"step"`
}

// RememberOrgRequest stores the organization chosen mid-flow
type RememberOrgRequest struct {
	OnboardingOrgID string `json:"onboarding_org_id"`
}

// RememberOrgResponse returns the stored organization, null when none
type RememberOrgResponse struct {
	OnboardingOrgID *string `json:"onboarding_org_id"`
}

// AckResponse acknowledges a write that has no payload to return
type AckResponse struct {
	OK bool `json:"ok"`
}
