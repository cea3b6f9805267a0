package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"introportal_backend/internal/events"
	"introportal_backend/internal/leads/repository"
	"introportal_backend/platform/apperr"
)

// CreateBatchInput describes a fan-out submission to multiple listings.
type CreateBatchInput struct {
	ConsumerID     uuid.UUID
	ListingIDs     []uuid.UUID
	Intake         IntakeDetails
	IdempotencyKey *string
}

// SkippedTarget records a listing the batch could not create a lead for.
type SkippedTarget struct {
	ListingID uuid.UUID
	Code      string
	Message   string
}

// CreateBatchResult reports the per-target outcomes of a batch submission.
type CreateBatchResult struct {
	BatchID uuid.UUID
	Created []repository.Lead
	Skipped []SkippedTarget
}

// CreateBatch fans one intake out to several listings. A failing target is
// skipped with its error code; it never aborts the remaining targets. When
// the caller supplies an idempotency key, each target gets a derived key so
// retrying the batch replays per target.
func (s *Service) CreateBatch(ctx context.Context, input CreateBatchInput) (CreateBatchResult, error) {
	if len(input.ListingIDs) == 0 {
		return CreateBatchResult{}, apperr.Validation("at least one listing is required")
	}

	batchID := uuid.New()
	result := CreateBatchResult{BatchID: batchID}
	seen := make(map[uuid.UUID]struct{}, len(input.ListingIDs))

	for _, listingID := range input.ListingIDs {
		if _, dup := seen[listingID]; dup {
			continue
		}
		seen[listingID] = struct{}{}

		created, err := s.CreateLead(ctx, CreateLeadInput{
			ConsumerID:     input.ConsumerID,
			ListingID:      listingID,
			Intake:         input.Intake,
			IdempotencyKey: deriveKey(input.IdempotencyKey, listingID),
			BatchID:        &batchID,
		})
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedTarget{
				ListingID: listingID,
				Code:      apperr.GetCode(err),
				Message:   err.Error(),
			})
			continue
		}

		result.Created = append(result.Created, created.Lead)
	}

	s.bus.Publish(ctx, events.BatchIntakeCompleted{
		BaseEvent:    events.NewBaseEvent(),
		BatchID:      batchID,
		ConsumerID:   input.ConsumerID,
		CreatedCount: len(result.Created),
		SkippedCount: len(result.Skipped),
	})

	return result, nil
}

func deriveKey(base *string, listingID uuid.UUID) *string {
	if base == nil {
		return nil
	}
	derived := fmt.Sprintf("%s:%s", *base, listingID)
	return &derived
}
