// Package repository provides persistence for provider listings.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a listing does not exist.
var ErrNotFound = errors.New("listing not found")

// Listing is a provider's published intake target.
type Listing struct {
	ID          uuid.UUID
	ProviderID  uuid.UUID
	Title       string
	Description *string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateParams holds the fields needed to publish a listing.
type CreateParams struct {
	ProviderID  uuid.UUID
	Title       string
	Description *string
}

// DB is the database surface the repository needs. Both pgxpool.Pool and
// pgxmock satisfy it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides access to listing records.
type Repository struct {
	db DB
}

// New creates a listing repository.
func New(db DB) *Repository {
	return &Repository{db: db}
}

const listingColumns = `id, provider_id, title, description, is_active, created_at, updated_at`

// GetByID fetches a listing regardless of its active flag.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Listing, error) {
	row := r.db.QueryRow(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	return scanListing(row)
}

// ListActive returns active listings, newest first, with the total count.
func (r *Repository) ListActive(ctx context.Context, limit, offset int) ([]Listing, int, error) {
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM listings WHERE is_active`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+listingColumns+` FROM listings
		WHERE is_active
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	listings := make([]Listing, 0)
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, 0, err
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return listings, total, nil
}

// Create publishes a new listing. An omitted description is stored as an
// empty string.
func (r *Repository) Create(ctx context.Context, params CreateParams) (Listing, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO listings (id, provider_id, title, description, is_active)
		VALUES ($1, $2, $3, COALESCE($4, ''), TRUE)
		RETURNING `+listingColumns,
		uuid.New(), params.ProviderID, params.Title, params.Description)
	return scanListing(row)
}

// SetActive toggles whether a listing accepts new leads.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) (Listing, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE listings SET is_active = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+listingColumns, id, active)
	return scanListing(row)
}

func scanListing(row pgx.Row) (Listing, error) {
	var l Listing
	err := row.Scan(&l.ID, &l.ProviderID, &l.Title, &l.Description, &l.IsActive, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Listing{}, ErrNotFound
	}
	if err != nil {
		return Listing{}, err
	}
	return l, nil
}
