package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"introportal_backend/platform/apperr"
)

func TestCreateBatchFanOut(t *testing.T) {
	store := newMemStore()
	listings := newFakeListings()
	svc := newTestService(store, listings)

	first := listings.add(uuid.New())
	second := listings.add(uuid.New())
	inactive := listings.add(uuid.New())
	listings.inactive[inactive] = true

	result, err := svc.CreateBatch(context.Background(), CreateBatchInput{
		ConsumerID: uuid.New(),
		ListingIDs: []uuid.UUID{first, inactive, second},
		Intake:     sampleIntake(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Created) != 2 {
		t.Fatalf("created %d leads, want 2", len(result.Created))
	}
	if len(result.Skipped) != 1 {
		t.Fatalf("skipped %d targets, want 1", len(result.Skipped))
	}

	skip := result.Skipped[0]
	if skip.ListingID != inactive {
		t.Errorf("skipped listing = %s, want %s", skip.ListingID, inactive)
	}
	if skip.Code != apperr.CodeNotFound {
		t.Errorf("skip code = %q, want %q", skip.Code, apperr.CodeNotFound)
	}

	for _, lead := range result.Created {
		if lead.BatchID == nil || *lead.BatchID != result.BatchID {
			t.Errorf("lead %s missing batch ID", lead.ID)
		}
	}
}

func TestCreateBatchDerivedIdempotencyKeys(t *testing.T) {
	store := newMemStore()
	listings := newFakeListings()
	svc := newTestService(store, listings)
	ctx := context.Background()

	first := listings.add(uuid.New())
	second := listings.add(uuid.New())
	consumerID := uuid.New()
	key := "batch-7"

	input := CreateBatchInput{
		ConsumerID:     consumerID,
		ListingIDs:     []uuid.UUID{first, second},
		Intake:         sampleIntake(),
		IdempotencyKey: &key,
	}

	initial, err := svc.CreateBatch(ctx, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(initial.Created) != 2 {
		t.Fatalf("created %d leads, want 2", len(initial.Created))
	}

	replay, err := svc.CreateBatch(ctx, input)
	if err != nil {
		t.Fatalf("unexpected error on replay: %v", err)
	}
	if len(replay.Skipped) != 0 {
		t.Fatalf("replay skipped %d targets, want 0", len(replay.Skipped))
	}
	if len(store.leads) != 2 {
		t.Errorf("store has %d leads after replay, want 2", len(store.leads))
	}
}

func TestCreateBatchDeduplicatesTargets(t *testing.T) {
	store := newMemStore()
	listings := newFakeListings()
	svc := newTestService(store, listings)

	listingID := listings.add(uuid.New())

	result, err := svc.CreateBatch(context.Background(), CreateBatchInput{
		ConsumerID: uuid.New(),
		ListingIDs: []uuid.UUID{listingID, listingID, listingID},
		Intake:     sampleIntake(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Created) != 1 {
		t.Errorf("created %d leads, want 1", len(result.Created))
	}
	if len(result.Skipped) != 0 {
		t.Errorf("skipped %d targets, want 0", len(result.Skipped))
	}
}

func TestCreateBatchDuplicatePairSkips(t *testing.T) {
	store := newMemStore()
	listings := newFakeListings()
	svc := newTestService(store, listings)
	ctx := context.Background()

	providerID := uuid.New()
	firstListing := listings.add(providerID)
	secondListing := listings.add(providerID)
	otherListing := listings.add(uuid.New())
	consumerID := uuid.New()

	if _, err := svc.CreateLead(ctx, CreateLeadInput{
		ConsumerID: consumerID,
		ListingID:  firstListing,
		Intake:     sampleIntake(),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := svc.CreateBatch(ctx, CreateBatchInput{
		ConsumerID: consumerID,
		ListingIDs: []uuid.UUID{secondListing, otherListing},
		Intake:     sampleIntake(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Created) != 1 {
		t.Fatalf("created %d leads, want 1", len(result.Created))
	}
	if len(result.Skipped) != 1 {
		t.Fatalf("skipped %d targets, want 1", len(result.Skipped))
	}
	if result.Skipped[0].Code != apperr.CodeDuplicateActiveLead {
		t.Errorf("skip code = %q, want %q", result.Skipped[0].Code, apperr.CodeDuplicateActiveLead)
	}
}

func TestCreateBatchRequiresTargets(t *testing.T) {
	svc := newTestService(newMemStore(), newFakeListings())

	_, err := svc.CreateBatch(context.Background(), CreateBatchInput{ConsumerID: uuid.New()})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
