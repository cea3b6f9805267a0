package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"introportal_backend/internal/conversations"
	"introportal_backend/internal/events"
	"introportal_backend/internal/leads/domain"
	"introportal_backend/internal/leads/ports"
	"introportal_backend/internal/leads/repository"
	"introportal_backend/platform/apperr"
	"introportal_backend/platform/logger"
)

// memStore is an in-memory LeadStore mirroring the database semantics the
// service relies on: version bumps, idempotency keys, the active-pair
// constraint, and one conversation per lead.
type memStore struct {
	mu            sync.Mutex
	leads         map[uuid.UUID]repository.Lead
	conversations map[uuid.UUID]conversations.Conversation
	members       map[uuid.UUID]map[uuid.UUID]bool
	createCalls   int
}

func newMemStore() *memStore {
	return &memStore{
		leads:         make(map[uuid.UUID]repository.Lead),
		conversations: make(map[uuid.UUID]conversations.Conversation),
		members:       make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

func (m *memStore) addMember(providerID, accountID uuid.UUID) {
	if m.members[providerID] == nil {
		m.members[providerID] = make(map[uuid.UUID]bool)
	}
	m.members[providerID][accountID] = true
}

func (m *memStore) Create(_ context.Context, params repository.CreateParams) (repository.Lead, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++

	if params.IdempotencyKey != nil {
		for _, lead := range m.leads {
			if lead.IdempotencyKey != nil && *lead.IdempotencyKey == *params.IdempotencyKey {
				return lead, false, nil
			}
		}
	}

	for _, lead := range m.leads {
		if lead.ConsumerID == params.ConsumerID && lead.ProviderID == params.ProviderID && !lead.Status.IsTerminal() {
			return repository.Lead{}, false, repository.ErrDuplicateActiveLead
		}
	}

	now := time.Now()
	lead := repository.Lead{
		ID:                uuid.New(),
		ConsumerID:        params.ConsumerID,
		ProviderID:        params.ProviderID,
		ListingID:         params.ListingID,
		Status:            domain.StatusNew,
		ProblemSummary:    params.ProblemSummary,
		Goals:             params.Goals,
		Timeline:          params.Timeline,
		Budget:            params.Budget,
		MeetingPreference: params.MeetingPreference,
		PreferredTimes:    params.PreferredTimes,
		Consent:           params.Consent,
		IdempotencyKey:    params.IdempotencyKey,
		BatchID:           params.BatchID,
		Version:           1,
		StatusChangedAt:   now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	m.leads[lead.ID] = lead
	return lead, true, nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lead, ok := m.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (m *memStore) GetByIdempotencyKey(_ context.Context, key string) (repository.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, lead := range m.leads {
		if lead.IdempotencyKey != nil && *lead.IdempotencyKey == key {
			return lead, nil
		}
	}
	return repository.Lead{}, repository.ErrNotFound
}

func (m *memStore) FindActiveByPair(_ context.Context, consumerID, providerID uuid.UUID) (repository.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, lead := range m.leads {
		if lead.ConsumerID == consumerID && lead.ProviderID == providerID && !lead.Status.IsTerminal() {
			return lead, nil
		}
	}
	return repository.Lead{}, repository.ErrNotFound
}

func (m *memStore) UpdateStatus(_ context.Context, id uuid.UUID, expectedVersion int, newStatus domain.Status, declineReason *string) (repository.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.casLocked(id, expectedVersion, newStatus, declineReason)
}

func (m *memStore) casLocked(id uuid.UUID, expectedVersion int, newStatus domain.Status, declineReason *string) (repository.Lead, error) {
	lead, ok := m.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	if lead.Version != expectedVersion {
		return repository.Lead{}, repository.ErrVersionConflict
	}

	now := time.Now()
	if lead.Status == domain.StatusNew && lead.FirstResponseAt == nil {
		lead.FirstResponseAt = &now
		minutes := int(now.Sub(lead.CreatedAt).Minutes())
		lead.ResponseTimeMinutes = &minutes
	}
	if newStatus == domain.StatusDeclined {
		lead.DeclineReason = declineReason
	}
	lead.Status = newStatus
	lead.StatusChangedAt = now
	lead.UpdatedAt = now
	lead.Version++
	m.leads[id] = lead
	return lead, nil
}

func (m *memStore) AcceptWithConversation(_ context.Context, id uuid.UUID, expectedVersion int) (repository.Lead, conversations.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lead, err := m.casLocked(id, expectedVersion, domain.StatusContacted, nil)
	if err != nil {
		return repository.Lead{}, conversations.Conversation{}, err
	}

	if _, exists := m.conversations[id]; exists {
		return repository.Lead{}, conversations.Conversation{}, fmt.Errorf("conversation already exists for lead %s", id)
	}

	conv := conversations.Conversation{
		ID:         uuid.New(),
		LeadID:     lead.ID,
		ConsumerID: lead.ConsumerID,
		ProviderID: lead.ProviderID,
		CreatedAt:  time.Now(),
	}
	m.conversations[id] = conv
	return lead, conv, nil
}

func (m *memStore) GetByLeadID(_ context.Context, leadID uuid.UUID) (conversations.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conv, ok := m.conversations[leadID]
	if !ok {
		return conversations.Conversation{}, conversations.ErrNotFound
	}
	return conv, nil
}

func (m *memStore) ListByProvider(_ context.Context, params repository.ListParams) ([]repository.Lead, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matches := make([]repository.Lead, 0)
	for _, lead := range m.leads {
		if lead.ProviderID != params.ProviderID {
			continue
		}
		if params.Status != nil && lead.Status != *params.Status {
			continue
		}
		matches = append(matches, lead)
	}
	return matches, len(matches), nil
}

func (m *memStore) IsProviderActor(_ context.Context, providerID, accountID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members[providerID][accountID], nil
}

func (m *memStore) ListStaleNew(_ context.Context, cutoff time.Time, limit int) ([]repository.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stale := make([]repository.Lead, 0)
	for _, lead := range m.leads {
		if lead.Status == domain.StatusNew && lead.CreatedAt.Before(cutoff) {
			stale = append(stale, lead)
		}
		if len(stale) == limit {
			break
		}
	}
	return stale, nil
}

// fakeListings resolves listings from a fixed set; unknown or inactive
// listings return a not-found error like the real reader.
type fakeListings struct {
	listings map[uuid.UUID]ports.Listing
	inactive map[uuid.UUID]bool
}

func newFakeListings() *fakeListings {
	return &fakeListings{
		listings: make(map[uuid.UUID]ports.Listing),
		inactive: make(map[uuid.UUID]bool),
	}
}

func (f *fakeListings) add(providerID uuid.UUID) uuid.UUID {
	id := uuid.New()
	f.listings[id] = ports.Listing{ID: id, ProviderID: providerID, Title: "coaching session"}
	return id
}

func (f *fakeListings) GetActive(_ context.Context, listingID uuid.UUID) (ports.Listing, error) {
	listing, ok := f.listings[listingID]
	if !ok || f.inactive[listingID] {
		return ports.Listing{}, apperr.NotFound("listing not found or inactive")
	}
	return listing, nil
}

func newTestService(store *memStore, listings ports.ListingReader) *Service {
	log := logger.New("development")
	return New(store, store, listings, events.NewInMemoryBus(log), log)
}
