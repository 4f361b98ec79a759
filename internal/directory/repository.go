// Package directory resolves an inbound phone number to a known tenant or
// contractor identity before any message processing happens.
package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"propcare_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Tenant is the database model for a tenant, as far as the intake pipeline
// needs it. Tenant CRUD lives elsewhere.
type Tenant struct {
	ID         uuid.UUID `db:"id"`
	Name       string    `db:"name"`
	Phone      string    `db:"phone"`
	Email      string    `db:"email"`
	PropertyID uuid.UUID `db:"property_id"`
	CreatedAt  time.Time `db:"created_at"`
}

// Repository provides tenant lookups for the directory.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new directory repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetTenantByID retrieves a tenant by ID.
func (r *Repository) GetTenantByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	query := `
		SELECT id, name, phone, email, property_id, created_at
		FROM tenants
		WHERE id = $1`

	var t Tenant
	err := r.pool.QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.Phone, &t.Email, &t.PropertyID, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("tenant not found")
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return &t, nil
}

// FindTenantByPhone looks a tenant up by normalized phone number.
func (r *Repository) FindTenantByPhone(ctx context.Context, phone string) (*Tenant, error) {
	query := `
		SELECT id, name, phone, email, property_id, created_at
		FROM tenants
		WHERE phone = $1`

	rows, err := r.pool.Query(ctx, query, phone)
	if err != nil {
		return nil, fmt.Errorf("find tenant by phone: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}

	var t Tenant
	if err := rows.Scan(&t.ID, &t.Name, &t.Phone, &t.Email, &t.PropertyID, &t.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan tenant: %w", err)
	}
	return &t, nil
}
