// Package repository provides lead persistence with optimistic concurrency.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"introportal_backend/internal/conversations"
	"introportal_backend/internal/leads/domain"
)

// Sentinel errors. The service layer maps these to typed domain errors.
var (
	// ErrNotFound is returned when a lead does not exist.
	ErrNotFound = errors.New("lead not found")
	// ErrVersionConflict is returned when a compare-and-swap update loses
	// to a concurrent writer.
	ErrVersionConflict = errors.New("lead version conflict")
	// ErrDuplicateActiveLead is returned when the consumer already has an
	// active lead with the same provider.
	ErrDuplicateActiveLead = errors.New("duplicate active lead for consumer and provider")
)

// Postgres unique constraint names this repository interprets.
const (
	uniqueViolationCode      = "23505"
	constraintIdempotencyKey = "leads_idempotency_key_key"
	constraintActivePair     = "leads_active_pair_key"
	constraintConversation   = "conversations_lead_id_key"
)

// Lead is the persistence model of a lead.
type Lead struct {
	ID                  uuid.UUID
	ConsumerID          uuid.UUID
	ProviderID          uuid.UUID
	ListingID           uuid.UUID
	Status              domain.Status
	ProblemSummary      string
	Goals               []string
	Timeline            *string
	Budget              *string
	MeetingPreference   *string
	PreferredTimes      []string
	Consent             json.RawMessage
	IdempotencyKey      *string
	BatchID             *uuid.UUID
	DeclineReason       *string
	FirstResponseAt     *time.Time
	ResponseTimeMinutes *int
	Version             int
	StatusChangedAt     time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// CreateParams holds the fields needed to insert a lead.
type CreateParams struct {
	ConsumerID        uuid.UUID
	ProviderID        uuid.UUID
	ListingID         uuid.UUID
	ProblemSummary    string
	Goals             []string
	Timeline          *string
	Budget            *string
	MeetingPreference *string
	PreferredTimes    []string
	Consent           json.RawMessage
	IdempotencyKey    *string
	BatchID           *uuid.UUID
}

// ListParams filters and pages provider lead listings.
type ListParams struct {
	ProviderID uuid.UUID
	Status     *domain.Status
	Limit      int
	Offset     int
}

// DB is the database surface the repository needs. Both pgxpool.Pool and
// pgxmock satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repository provides access to lead records.
type Repository struct {
	db DB
}

// New creates a lead repository.
func New(db DB) *Repository {
	return &Repository{db: db}
}

const leadColumns = `id, consumer_id, provider_id, listing_id, status, problem_summary,
	goals, timeline, budget, meeting_preference, preferred_times, consent,
	idempotency_key, batch_id, decline_reason, first_response_at,
	response_time_minutes, version, status_changed_at, created_at, updated_at`

// Create inserts a new lead. Omitted optional fields fall back to the column
// defaults. The bool result reports whether a row was actually inserted: when
// a concurrent request with the same idempotency key wins the insert race,
// the winner's row is returned with created=false.
func (r *Repository) Create(ctx context.Context, params CreateParams) (Lead, bool, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO leads (
			id, consumer_id, provider_id, listing_id, status, problem_summary,
			goals, timeline, budget, meeting_preference, preferred_times,
			consent, idempotency_key, batch_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, '{}'::text[]), $8, $9,
			COALESCE($10, 'video'), COALESCE($11, '{}'::text[]), $12, $13, $14)
		RETURNING `+leadColumns,
		uuid.New(), params.ConsumerID, params.ProviderID, params.ListingID,
		domain.StatusNew, params.ProblemSummary, params.Goals, params.Timeline,
		params.Budget, params.MeetingPreference, params.PreferredTimes,
		params.Consent, params.IdempotencyKey, params.BatchID)

	lead, err := scanLead(row)
	if err == nil {
		return lead, true, nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		switch pgErr.ConstraintName {
		case constraintIdempotencyKey:
			if params.IdempotencyKey == nil {
				return Lead{}, false, err
			}
			winner, getErr := r.GetByIdempotencyKey(ctx, *params.IdempotencyKey)
			if getErr != nil {
				return Lead{}, false, getErr
			}
			return winner, false, nil
		case constraintActivePair:
			return Lead{}, false, ErrDuplicateActiveLead
		}
	}

	return Lead{}, false, err
}

// GetByID fetches a lead by primary key.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	row := r.db.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// GetByIdempotencyKey fetches the lead previously created with the given
// key. Keys are unique across all leads.
func (r *Repository) GetByIdempotencyKey(ctx context.Context, key string) (Lead, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE idempotency_key = $1`,
		key)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// FindActiveByPair fetches the consumer's non-terminal lead with a provider,
// if one exists.
func (r *Repository) FindActiveByPair(ctx context.Context, consumerID, providerID uuid.UUID) (Lead, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads
		WHERE consumer_id = $1 AND provider_id = $2
		  AND status NOT IN ('converted', 'declined')`,
		consumerID, providerID)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// casUpdateSQL advances a lead's status when the caller's version matches.
// first_response_at is written at most once, on the first transition out of
// the initial status. decline_reason is only written when declining.
const casUpdateSQL = `
	UPDATE leads SET
		status = $3,
		status_changed_at = now(),
		updated_at = now(),
		decline_reason = CASE WHEN $3 = 'declined' THEN $4 ELSE decline_reason END,
		response_time_minutes = CASE
			WHEN status = 'new' AND first_response_at IS NULL
			THEN CEIL(EXTRACT(EPOCH FROM (now() - created_at)) / 60)::int
			ELSE response_time_minutes END,
		first_response_at = CASE
			WHEN status = 'new' AND first_response_at IS NULL
			THEN now()
			ELSE first_response_at END,
		version = version + 1
	WHERE id = $1 AND version = $2
	RETURNING ` + leadColumns

// UpdateStatus performs a compare-and-swap status transition. When the
// update matches no row, the lead is re-read to distinguish a missing lead
// from a stale version.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, expectedVersion int, newStatus domain.Status, declineReason *string) (Lead, error) {
	row := r.db.QueryRow(ctx, casUpdateSQL, id, expectedVersion, newStatus, declineReason)
	lead, err := scanLead(row)
	if err == nil {
		return lead, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, err
	}

	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return Lead{}, getErr
	}
	return Lead{}, ErrVersionConflict
}

// AcceptWithConversation transitions a lead and opens its conversation in a
// single transaction. Either both changes commit or neither does.
func (r *Repository) AcceptWithConversation(ctx context.Context, id uuid.UUID, expectedVersion int) (Lead, conversations.Conversation, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return Lead{}, conversations.Conversation{}, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, casUpdateSQL, id, expectedVersion, domain.StatusContacted, (*string)(nil))
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return Lead{}, conversations.Conversation{}, getErr
		}
		return Lead{}, conversations.Conversation{}, ErrVersionConflict
	}
	if err != nil {
		return Lead{}, conversations.Conversation{}, err
	}

	conv, err := conversations.CreateInTx(ctx, tx, lead.ID, lead.ConsumerID, lead.ProviderID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode && pgErr.ConstraintName == constraintConversation {
			// CAS should make this unreachable; surface it as a conflict
			// rather than a second conversation.
			return Lead{}, conversations.Conversation{}, ErrVersionConflict
		}
		return Lead{}, conversations.Conversation{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, conversations.Conversation{}, err
	}

	return lead, conv, nil
}

// ListByProvider returns a provider's leads, newest first, with the total
// count for paging.
func (r *Repository) ListByProvider(ctx context.Context, params ListParams) ([]Lead, int, error) {
	where := `WHERE provider_id = $1`
	args := []any{params.ProviderID}
	if params.Status != nil {
		where += ` AND status = $2`
		args = append(args, *params.Status)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM leads `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM leads %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		leadColumns, where, params.Limit, params.Offset)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, 0, err
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return leads, total, nil
}

// IsProviderActor reports whether the account is a member of the provider.
func (r *Repository) IsProviderActor(ctx context.Context, providerID, accountID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM provider_members WHERE provider_id = $1 AND user_id = $2)`,
		providerID, accountID).Scan(&exists)
	return exists, err
}

// ListStaleNew returns leads still in the initial status that were created
// before the cutoff. Used by the stale-lead sweep.
func (r *Repository) ListStaleNew(ctx context.Context, cutoff time.Time, limit int) ([]Lead, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+leadColumns+` FROM leads
		WHERE status = 'new' AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2`,
		cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return leads, nil
}

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID,
		&lead.ConsumerID,
		&lead.ProviderID,
		&lead.ListingID,
		&lead.Status,
		&lead.ProblemSummary,
		&lead.Goals,
		&lead.Timeline,
		&lead.Budget,
		&lead.MeetingPreference,
		&lead.PreferredTimes,
		&lead.Consent,
		&lead.IdempotencyKey,
		&lead.BatchID,
		&lead.DeclineReason,
		&lead.FirstResponseAt,
		&lead.ResponseTimeMinutes,
		&lead.Version,
		&lead.StatusChangedAt,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		return Lead{}, err
	}
	return lead, nil
}
