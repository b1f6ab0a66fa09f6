package tenant

import (
	"context"
	"database/sql"
	"fmt"
)

// Store reads the organization directory
type Store interface {
	GetOrganization(ctx context.Context, orgID string) (*Organization, error)
	ListOrganizations(ctx context.Context) ([]Organization, error)
}

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// GetOrganization fetches a single organization by ID. Returns
// ErrOrgNotFound when no row matches.
func (s *PostgresStore) GetOrganization(ctx context.Context, orgID string) (*Organization, error) {
	query := `
		SELECT id, name, slug, COALESCE(billing_customer_id, ''), is_active, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`
	var org Organization
	err := s.db.QueryRowContext(ctx, query, orgID).Scan(
		&org.ID, &org.Name, &org.Slug, &org.BillingCustomerID,
		&org.IsActive, &org.CreatedAt, &org.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrOrgNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &org, nil
}

// ListOrganizations returns all active organizations ordered by name
func (s *PostgresStore) ListOrganizations(ctx context.Context) ([]Organization, error) {
	query := `
		SELECT id, name, slug, COALESCE(billing_customer_id, ''), is_active, created_at, updated_at
		FROM organizations
		WHERE is_active = true
		ORDER BY name
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var orgs []Organization
	for rows.Next() {
		var org Organization
		if err := rows.Scan(&org.ID, &org.Name, &org.Slug, &org.BillingCustomerID,
			&org.IsActive, &org.CreatedAt, &org.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate organizations: %w", err)
	}
	return orgs, nil
}
