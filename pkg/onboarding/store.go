package onboarding

import (
	"context"
	"database/sql"
	"fmt"
)

// Store persists onboarding state
type Store interface {
	Advance(ctx context.Context, profileID string) (int, error)
	CurrentStep(ctx context.Context, profileID string) (int, error)
	Complete(ctx context.Context, profileID string) error
	RememberOrg(ctx context.Context, profileID string, orgID *string) error
	RememberedOrg(ctx context.Context, profileID string) (*string, error)
}

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Advance moves the profile one step forward and returns the new step.
//
// The write is a compare-and-set against the step that was just read, so
// concurrent duplicate advances collapse into a single step: the loser's
// UPDATE matches zero rows and it reports the freshest stored step instead
// of stacking another increment on top. The step clamps at the final step,
// and advancing a completed flow is a no-op that reports the sentinel back.
func (s *PostgresStore) Advance(ctx context.Context, profileID string) (int, error) {
	current, err := s.CurrentStep(ctx, profileID)
	if err != nil {
		return 0, err
	}
	if current == StepCompleted {
		return StepCompleted, nil
	}

	next := current + 1
	if next > MaxStep {
		next = MaxStep
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET onboarding_step = $2, updated_at = NOW() WHERE id = $1 AND onboarding_step = $3`,
		profileID, next, current)
	if err != nil {
		return 0, fmt.Errorf("failed to advance onboarding: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to advance onboarding: %w", err)
	}
	if rows == 0 {
		// Lost the race to a concurrent advance or completion.
		return s.CurrentStep(ctx, profileID)
	}
	return next, nil
}

// CurrentStep reads the profile's step without modifying it
func (s *PostgresStore) CurrentStep(ctx context.Context, profileID string) (int, error) {
	var step int
	err := s.db.QueryRowContext(ctx,
		`SELECT onboarding_step FROM profiles WHERE id = $1`, profileID).Scan(&step)
	if err == sql.ErrNoRows {
		return 0, ErrProfileNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read onboarding step: %w", err)
	}
	return step, nil
}

// Complete marks the flow finished. Completing an already-completed flow is
// a no-op; the sentinel write is idempotent.
func (s *PostgresStore) Complete(ctx context.Context, profileID string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET onboarding_step = $2, updated_at = NOW() WHERE id = $1`,
		profileID, StepCompleted)
	if err != nil {
		return fmt.Errorf("failed to complete onboarding: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to complete onboarding: %w", err)
	}
	if rows == 0 {
		return ErrProfileNotFound
	}
	return nil
}

// RememberOrg stores the organization picked during the flow, or clears the
// slot to NULL when orgID is nil. The slot is independent of the step
// counter; advancing or completing never touches it. Once the flow is
// complete the slot is frozen: writes against a completed profile succeed
// without changing anything.
func (s *PostgresStore) RememberOrg(ctx context.Context, profileID string, orgID *string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET onboarding_org_id = $2, updated_at = NOW() WHERE id = $1 AND onboarding_step <> $3`,
		profileID, orgID, StepCompleted)
	if err != nil {
		return fmt.Errorf("failed to remember organization: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to remember organization: %w", err)
	}
	if rows == 0 {
		// Either the profile is gone or the flow is already complete.
		if _, err := s.CurrentStep(ctx, profileID); err != nil {
			return err
		}
	}
	return nil
}

// RememberedOrg returns the stored organization, nil when none was chosen
func (s *PostgresStore) RememberedOrg(ctx context.Context, profileID string) (*string, error) {
	var orgID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT onboarding_org_id FROM profiles WHERE id = $1`, profileID).Scan(&orgID)
	if err == sql.ErrNoRows {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read remembered organization: %w", err)
	}
	if !orgID.Valid {
		return nil, nil
	}
	return &orgID.String, nil
}
