// Package conversations stores the message threads opened when a provider
// accepts a lead. Exactly one conversation exists per lead.
package conversations

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a lead has no conversation.
var ErrNotFound = errors.New("conversation not found")

// Conversation links a consumer and a provider around an accepted lead.
type Conversation struct {
	ID         uuid.UUID
	LeadID     uuid.UUID
	ConsumerID uuid.UUID
	ProviderID uuid.UUID
	CreatedAt  time.Time
}

// CreateInTx inserts a conversation inside an existing transaction so it
// commits or rolls back together with the lead acceptance.
func CreateInTx(ctx context.Context, tx pgx.Tx, leadID, consumerID, providerID uuid.UUID) (Conversation, error) {
	var conv Conversation
	err := tx.QueryRow(ctx, `
		INSERT INTO conversations (id, lead_id, consumer_id, provider_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, lead_id, consumer_id, provider_id, created_at`,
		uuid.New(), leadID, consumerID, providerID,
	).Scan(&conv.ID, &conv.LeadID, &conv.ConsumerID, &conv.ProviderID, &conv.CreatedAt)
	if err != nil {
		return Conversation{}, err
	}
	return conv, nil
}

// DB is the database surface the repository needs. Both pgxpool.Pool and
// pgxmock satisfy it.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides read access to conversations.
type Repository struct {
	db DB
}

// New creates a conversation repository.
func New(db DB) *Repository {
	return &Repository{db: db}
}

// GetByLeadID fetches the conversation for a lead.
func (r *Repository) GetByLeadID(ctx context.Context, leadID uuid.UUID) (Conversation, error) {
	var conv Conversation
	err := r.db.QueryRow(ctx, `
		SELECT id, lead_id, consumer_id, provider_id, created_at
		FROM conversations WHERE lead_id = $1`, leadID,
	).Scan(&conv.ID, &conv.LeadID, &conv.ConsumerID, &conv.ProviderID, &conv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	if err != nil {
		return Conversation{}, err
	}
	return conv, nil
}
