// Package service implements lead intake and lifecycle operations.
package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"introportal_backend/internal/conversations"
	"introportal_backend/internal/events"
	"introportal_backend/internal/leads/domain"
	"introportal_backend/internal/leads/ports"
	"introportal_backend/internal/leads/repository"
	"introportal_backend/platform/logger"
)

// LeadStore is the persistence surface the service needs.
type LeadStore interface {
	Create(ctx context.Context, params repository.CreateParams) (repository.Lead, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	GetByIdempotencyKey(ctx context.Context, key string) (repository.Lead, error)
	FindActiveByPair(ctx context.Context, consumerID, providerID uuid.UUID) (repository.Lead, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, expectedVersion int, newStatus domain.Status, declineReason *string) (repository.Lead, error)
	AcceptWithConversation(ctx context.Context, id uuid.UUID, expectedVersion int) (repository.Lead, conversations.Conversation, error)
	ListByProvider(ctx context.Context, params repository.ListParams) ([]repository.Lead, int, error)
	IsProviderActor(ctx context.Context, providerID, accountID uuid.UUID) (bool, error)
	ListStaleNew(ctx context.Context, cutoff time.Time, limit int) ([]repository.Lead, error)
}

// ConversationStore reads the conversation opened when a lead was accepted.
type ConversationStore interface {
	GetByLeadID(ctx context.Context, leadID uuid.UUID) (conversations.Conversation, error)
}

// IntakeDetails is the problem description collected at submission.
type IntakeDetails struct {
	ProblemSummary    string
	Goals             []string
	Timeline          *string
	Budget            *string
	MeetingPreference *string
	PreferredTimes    []string
	Consent           json.RawMessage
}

// Service coordinates lead intake and lifecycle transitions.
type Service struct {
	repo     LeadStore
	convs    ConversationStore
	listings ports.ListingReader
	bus      events.Bus
	log      *logger.Logger
}

// New creates a lead service.
func New(repo LeadStore, convs ConversationStore, listings ports.ListingReader, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		convs:    convs,
		listings: listings,
		bus:      bus,
		log:      log,
	}
}
