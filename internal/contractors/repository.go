// Package contractors resolves which contractor should be offered a job:
// it filters the active pool by specialization, honors the ticket's decline
// history, and ranks the remainder.
package contractors

import (
	"context"
	"fmt"
	"time"

	"propcare_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Contractor is the database model for a contractor. The workflow engine
// treats contractors as read-only; admin CRUD lives elsewhere.
type Contractor struct {
	ID                 uuid.UUID `db:"id"`
	CompanyName        string    `db:"company_name"`
	ContactName        string    `db:"contact_name"`
	Phone              string    `db:"phone"`
	Email              string    `db:"email"`
	Specializations    []string  `db:"specializations"`
	EmergencyAvailable bool      `db:"emergency_available"`
	Preferred          bool      `db:"preferred"`
	Rating             float64   `db:"rating"`
	Active             bool      `db:"active"`
	CreatedAt          time.Time `db:"created_at"`
}

// HasSpecialization reports whether the contractor covers the given trade tag.
func (c Contractor) HasSpecialization(tag string) bool {
	for _, s := range c.Specializations {
		if s == tag {
			return true
		}
	}
	return false
}

// Repository provides database access to the contractor pool.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new contractors repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListActiveBySpecialization returns all active contractors covering the
// given specialization tag, unranked. Ranking and exclusion happen in the
// matcher so the selection rules stay testable without a database.
func (r *Repository) ListActiveBySpecialization(ctx context.Context, specialization string) ([]Contractor, error) {
	query := `
		SELECT id, company_name, contact_name, phone, email, specializations,
		       emergency_available, preferred, rating, active, created_at
		FROM contractors
		WHERE active = TRUE AND $1 = ANY(specializations)`

	rows, err := r.pool.Query(ctx, query, specialization)
	if err != nil {
		return nil, fmt.Errorf("list contractors: %w", err)
	}
	defer rows.Close()

	return scanContractors(rows)
}

// GetByID returns one contractor.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Contractor, error) {
	query := `
		SELECT id, company_name, contact_name, phone, email, specializations,
		       emergency_available, preferred, rating, active, created_at
		FROM contractors
		WHERE id = $1`

	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return Contractor{}, fmt.Errorf("get contractor: %w", err)
	}
	defer rows.Close()

	list, err := scanContractors(rows)
	if err != nil {
		return Contractor{}, err
	}
	if len(list) == 0 {
		return Contractor{}, apperr.NotFound("contractor not found")
	}
	return list[0], nil
}

// FindByPhone looks a contractor up by normalized phone number. Used by the
// directory to tag inbound traffic.
func (r *Repository) FindByPhone(ctx context.Context, phone string) (*Contractor, error) {
	query := `
		SELECT id, company_name, contact_name, phone, email, specializations,
		       emergency_available, preferred, rating, active, created_at
		FROM contractors
		WHERE phone = $1`

	rows, err := r.pool.Query(ctx, query, phone)
	if err != nil {
		return nil, fmt.Errorf("find contractor by phone: %w", err)
	}
	defer rows.Close()

	list, err := scanContractors(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

func scanContractors(rows pgx.Rows) ([]Contractor, error) {
	var out []Contractor
	for rows.Next() {
		var c Contractor
		if err := rows.Scan(
			&c.ID, &c.CompanyName, &c.ContactName, &c.Phone, &c.Email,
			&c.Specializations, &c.EmergencyAvailable, &c.Preferred,
			&c.Rating, &c.Active, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan contractor: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
