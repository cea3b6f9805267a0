package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"introportal_backend/internal/events"
	"introportal_backend/internal/leads/repository"
	"introportal_backend/platform/apperr"
	"introportal_backend/platform/sanitize"
)

// Outcome values reported by CreateLead.
const (
	// OutcomeCreated means a new lead row was inserted.
	OutcomeCreated = "created"
	// OutcomeIdempotent means the submission replayed an earlier one and
	// the original lead was returned.
	OutcomeIdempotent = "idempotent"
)

// CreateLeadInput describes a single intake submission for a resolved
// consumer.
type CreateLeadInput struct {
	ConsumerID     uuid.UUID
	ListingID      uuid.UUID
	Intake         IntakeDetails
	IdempotencyKey *string
	BatchID        *uuid.UUID
}

// CreateLeadResult is the outcome of an intake submission.
type CreateLeadResult struct {
	Lead    repository.Lead
	Outcome string
}

// CreateLead creates a lead against a listing's provider. Submissions are
// idempotent per idempotency key, unique across all leads, and a consumer
// can hold at most one active lead per provider.
func (s *Service) CreateLead(ctx context.Context, input CreateLeadInput) (CreateLeadResult, error) {
	if input.IdempotencyKey != nil {
		existing, err := s.repo.GetByIdempotencyKey(ctx, *input.IdempotencyKey)
		if err == nil {
			return CreateLeadResult{Lead: existing, Outcome: OutcomeIdempotent}, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return CreateLeadResult{}, apperr.Wrap(apperr.KindInternal, "lookup idempotency key", err)
		}
	}

	listing, err := s.listings.GetActive(ctx, input.ListingID)
	if err != nil {
		return CreateLeadResult{}, err
	}

	// Pre-check so the common duplicate case gets a clean error without
	// burning an insert. The partial unique index still backs the race.
	if _, err := s.repo.FindActiveByPair(ctx, input.ConsumerID, listing.ProviderID); err == nil {
		return CreateLeadResult{}, duplicateActiveLeadError()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return CreateLeadResult{}, apperr.Wrap(apperr.KindInternal, "check active lead", err)
	}

	lead, created, err := s.repo.Create(ctx, repository.CreateParams{
		ConsumerID:        input.ConsumerID,
		ProviderID:        listing.ProviderID,
		ListingID:         listing.ID,
		ProblemSummary:    sanitize.Text(input.Intake.ProblemSummary),
		Goals:             input.Intake.Goals,
		Timeline:          sanitize.TextPtr(input.Intake.Timeline),
		Budget:            sanitize.TextPtr(input.Intake.Budget),
		MeetingPreference: input.Intake.MeetingPreference,
		PreferredTimes:    input.Intake.PreferredTimes,
		Consent:           input.Intake.Consent,
		IdempotencyKey:    input.IdempotencyKey,
		BatchID:           input.BatchID,
	})
	if errors.Is(err, repository.ErrDuplicateActiveLead) {
		return CreateLeadResult{}, duplicateActiveLeadError()
	}
	if err != nil {
		return CreateLeadResult{}, apperr.Wrap(apperr.KindInternal, "create lead", err)
	}

	if !created {
		return CreateLeadResult{Lead: lead, Outcome: OutcomeIdempotent}, nil
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     lead.ID,
		ConsumerID: lead.ConsumerID,
		ProviderID: lead.ProviderID,
		ListingID:  lead.ListingID,
	})

	return CreateLeadResult{Lead: lead, Outcome: OutcomeCreated}, nil
}

func duplicateActiveLeadError() error {
	return apperr.Conflict("an active lead with this provider already exists").
		WithCode(apperr.CodeDuplicateActiveLead)
}
