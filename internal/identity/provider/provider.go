// Package provider abstracts account provisioning for guest submissions.
package provider

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

// ProfileHints carries optional contact details collected at intake. The
// provider may use them to pre-fill the account profile.
type ProfileHints struct {
	FirstName *string
	LastName  *string
	Phone     *string
}

// AccountProvider creates login accounts for guest consumers.
type AccountProvider interface {
	// CreateAccount provisions (or finds) an account for the email and
	// returns its ID. Implementations must be safe to call concurrently
	// for the same email.
	CreateAccount(ctx context.Context, email string, hints ProfileHints) (uuid.UUID, error)
}

// TransientError marks a provisioning failure worth retrying.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient provisioning failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether the error is a retryable provisioning failure.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// PGProvider provisions accounts directly in the accounts table. Guest
// accounts get a random placeholder credential; the real password is set
// through a later claim flow.
type PGProvider struct {
	pool *pgxpool.Pool
}

// NewPGProvider creates a Postgres-backed account provider.
func NewPGProvider(pool *pgxpool.Pool) *PGProvider {
	return &PGProvider{pool: pool}
}

// CreateAccount inserts a guest account, or returns the existing account ID
// when the email is already registered.
func (p *PGProvider) CreateAccount(ctx context.Context, email string, hints ProfileHints) (uuid.UUID, error) {
	placeholder, err := randomCredential()
	if err != nil {
		return uuid.Nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(placeholder), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, err
	}

	var accountID uuid.UUID
	err = p.pool.QueryRow(ctx, `
		INSERT INTO accounts (id, email, password_hash, is_guest)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (email) DO UPDATE SET updated_at = now()
		RETURNING id`,
		uuid.New(), email, string(hash)).Scan(&accountID)
	if err != nil {
		return uuid.Nil, &TransientError{Err: err}
	}

	return accountID, nil
}

func randomCredential() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
