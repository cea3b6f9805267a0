package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"introportal_backend/internal/leads/domain"
	"introportal_backend/platform/apperr"
)

func sampleIntake() IntakeDetails {
	return IntakeDetails{
		ProblemSummary: "need help restructuring my weekly schedule",
		Goals:          []string{"time_management"},
		PreferredTimes: []string{"weekday_evening"},
		Consent:        json.RawMessage(`{"terms":true,"marketing":false}`),
	}
}

func TestCreateLead(t *testing.T) {
	store := newMemStore()
	listings := newFakeListings()
	providerID := uuid.New()
	listingID := listings.add(providerID)
	svc := newTestService(store, listings)

	result, err := svc.CreateLead(context.Background(), CreateLeadInput{
		ConsumerID: uuid.New(),
		ListingID:  listingID,
		Intake:     sampleIntake(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != OutcomeCreated {
		t.Errorf("outcome = %q, want %q", result.Outcome, OutcomeCreated)
	}
	if result.Lead.Status != domain.StatusNew {
		t.Errorf("status = %s, want new", result.Lead.Status)
	}
	if result.Lead.ProviderID != providerID {
		t.Errorf("provider = %s, want %s", result.Lead.ProviderID, providerID)
	}
	if result.Lead.Version != 1 {
		t.Errorf("version = %d, want 1", result.Lead.Version)
	}
}

func TestCreateLeadIdempotentReplay(t *testing.T) {
	store := newMemStore()
	listings := newFakeListings()
	listingID := listings.add(uuid.New())
	svc := newTestService(store, listings)
	ctx := context.Background()

	consumerID := uuid.New()
	key := "submit-42"
	input := CreateLeadInput{
		ConsumerID:     consumerID,
		ListingID:      listingID,
		Intake:         sampleIntake(),
		IdempotencyKey: &key,
	}

	first, err := svc.CreateLead(ctx, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := svc.CreateLead(ctx, input)
	if err != nil {
		t.Fatalf("unexpected error on replay: %v", err)
	}
	if second.Outcome != OutcomeIdempotent {
		t.Errorf("replay outcome = %q, want %q", second.Outcome, OutcomeIdempotent)
	}
	if second.Lead.ID != first.Lead.ID {
		t.Errorf("replay returned a different lead: %s vs %s", second.Lead.ID, first.Lead.ID)
	}
	if store.createCalls != 1 {
		t.Errorf("store.Create called %d times, want 1", store.createCalls)
	}
}

func TestCreateLeadIdempotencyKeySharedAcrossConsumers(t *testing.T) {
	store := newMemStore()
	listings := newFakeListings()
	listingID := listings.add(uuid.New())
	svc := newTestService(store, listings)
	ctx := context.Background()

	key := "shared-key-7"
	first, err := svc.CreateLead(ctx, CreateLeadInput{
		ConsumerID:     uuid.New(),
		ListingID:      listingID,
		Intake:         sampleIntake(),
		IdempotencyKey: &key,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Keys are unique across all leads, so another consumer reusing the
	// key resolves to the original lead instead of creating a second one.
	replay, err := svc.CreateLead(ctx, CreateLeadInput{
		ConsumerID:     uuid.New(),
		ListingID:      listingID,
		Intake:         sampleIntake(),
		IdempotencyKey: &key,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if replay.Outcome != OutcomeIdempotent {
		t.Errorf("outcome = %q, want %q", replay.Outcome, OutcomeIdempotent)
	}
	if replay.Lead.ID != first.Lead.ID {
		t.Errorf("replay returned a different lead: %s vs %s", replay.Lead.ID, first.Lead.ID)
	}
	if store.createCalls != 1 {
		t.Errorf("store.Create called %d times, want 1", store.createCalls)
	}
}

func TestCreateLeadInactiveListing(t *testing.T) {
	store := newMemStore()
	listings := newFakeListings()
	listingID := listings.add(uuid.New())
	listings.inactive[listingID] = true
	svc := newTestService(store, listings)

	_, err := svc.CreateLead(context.Background(), CreateLeadInput{
		ConsumerID: uuid.New(),
		ListingID:  listingID,
		Intake:     sampleIntake(),
	})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateLeadDuplicateActivePair(t *testing.T) {
	store := newMemStore()
	listings := newFakeListings()
	providerID := uuid.New()
	firstListing := listings.add(providerID)
	secondListing := listings.add(providerID)
	svc := newTestService(store, listings)
	ctx := context.Background()

	consumerID := uuid.New()
	if _, err := svc.CreateLead(ctx, CreateLeadInput{
		ConsumerID: consumerID,
		ListingID:  firstListing,
		Intake:     sampleIntake(),
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := svc.CreateLead(ctx, CreateLeadInput{
		ConsumerID: consumerID,
		ListingID:  secondListing,
		Intake:     sampleIntake(),
	})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if code := apperr.GetCode(err); code != apperr.CodeDuplicateActiveLead {
		t.Errorf("code = %q, want %q", code, apperr.CodeDuplicateActiveLead)
	}
}

func TestCreateLeadAllowedAfterTerminal(t *testing.T) {
	store := newMemStore()
	listings := newFakeListings()
	providerID := uuid.New()
	listingID := listings.add(providerID)
	svc := newTestService(store, listings)
	ctx := context.Background()

	consumerID := uuid.New()
	first, err := svc.CreateLead(ctx, CreateLeadInput{
		ConsumerID: consumerID,
		ListingID:  listingID,
		Intake:     sampleIntake(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Decline the first lead, then the pair frees up.
	actorID := uuid.New()
	store.addMember(providerID, actorID)
	if _, err := svc.Decline(ctx, first.Lead.ID, actorID, "not a fit"); err != nil {
		t.Fatalf("decline failed: %v", err)
	}

	second, err := svc.CreateLead(ctx, CreateLeadInput{
		ConsumerID: consumerID,
		ListingID:  listingID,
		Intake:     sampleIntake(),
	})
	if err != nil {
		t.Fatalf("expected new lead after terminal status, got %v", err)
	}
	if second.Outcome != OutcomeCreated {
		t.Errorf("outcome = %q, want %q", second.Outcome, OutcomeCreated)
	}
}

func TestCreateLeadSanitizesSummary(t *testing.T) {
	store := newMemStore()
	listings := newFakeListings()
	listingID := listings.add(uuid.New())
	svc := newTestService(store, listings)

	intake := sampleIntake()
	intake.ProblemSummary = "  <b>need</b> help with <script>x</script>planning  "

	result, err := svc.CreateLead(context.Background(), CreateLeadInput{
		ConsumerID: uuid.New(),
		ListingID:  listingID,
		Intake:     intake,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "need help with xplanning"; result.Lead.ProblemSummary != want {
		t.Errorf("summary = %q, want %q", result.Lead.ProblemSummary, want)
	}
}
