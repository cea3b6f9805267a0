// Package repository provides persistence for consumer identities.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a consumer does not exist.
var ErrNotFound = errors.New("consumer not found")

// Consumer is a party that submits leads. Guests are provisioned from intake
// submissions; authenticated consumers come from the accounts table.
type Consumer struct {
	ID        uuid.UUID
	AccountID uuid.UUID
	Email     string
	FirstName *string
	LastName  *string
	Phone     *string
	IsGuest   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DB is the database surface the repository needs. Both pgxpool.Pool and
// pgxmock satisfy it.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides access to consumer records.
type Repository struct {
	db DB
}

// New creates a consumer repository.
func New(db DB) *Repository {
	return &Repository{db: db}
}

const consumerColumns = `id, account_id, email, first_name, last_name, phone, is_guest, created_at, updated_at`

// GetByID fetches a consumer by primary key.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Consumer, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+consumerColumns+` FROM consumers WHERE id = $1`, id)
	return scanConsumer(row)
}

// GetByAccountID fetches the consumer linked to an authenticated account.
func (r *Repository) GetByAccountID(ctx context.Context, accountID uuid.UUID) (Consumer, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+consumerColumns+` FROM consumers WHERE account_id = $1`, accountID)
	return scanConsumer(row)
}

// GetByEmail fetches a consumer by normalized email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (Consumer, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+consumerColumns+` FROM consumers WHERE email = $1`, email)
	return scanConsumer(row)
}

// UpsertGuest creates a guest consumer for the given email, or returns the
// existing consumer when the email is already known. Concurrent submissions
// for the same email converge on one row. Omitted names are stored as empty
// strings so minimal guest submissions insert cleanly.
func (r *Repository) UpsertGuest(ctx context.Context, accountID uuid.UUID, email string, firstName, lastName, phone *string) (Consumer, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO consumers (id, account_id, email, first_name, last_name, phone, is_guest)
		VALUES ($1, $2, $3, COALESCE($4, ''), COALESCE($5, ''), $6, TRUE)
		ON CONFLICT (email) DO UPDATE SET updated_at = now()
		RETURNING `+consumerColumns,
		uuid.New(), accountID, email, firstName, lastName, phone)
	return scanConsumer(row)
}

func scanConsumer(row pgx.Row) (Consumer, error) {
	var c Consumer
	err := row.Scan(
		&c.ID,
		&c.AccountID,
		&c.Email,
		&c.FirstName,
		&c.LastName,
		&c.Phone,
		&c.IsGuest,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Consumer{}, ErrNotFound
	}
	if err != nil {
		return Consumer{}, err
	}
	return c, nil
}
