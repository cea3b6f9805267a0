// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"introportal_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Identity Domain Events
// =============================================================================

// ConsumerProvisioned is published when a guest submission results in a new
// consumer account.
type ConsumerProvisioned struct {
	BaseEvent
	ConsumerID uuid.UUID `json:"consumerId"`
	Email      string    `json:"email"`
}

func (e ConsumerProvisioned) EventName() string { return "identity.consumer.provisioned" }

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new lead is persisted. It is not published
// for idempotent replays of a previous submission.
type LeadCreated struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	ConsumerID uuid.UUID `json:"consumerId"`
	ProviderID uuid.UUID `json:"providerId"`
	ListingID  uuid.UUID `json:"listingId"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadAccepted is published when a provider accepts a lead and its
// conversation is opened.
type LeadAccepted struct {
	BaseEvent
	LeadID         uuid.UUID `json:"leadId"`
	ConversationID uuid.UUID `json:"conversationId"`
	ProviderID     uuid.UUID `json:"providerId"`
	ActorID        uuid.UUID `json:"actorId"`
}

func (e LeadAccepted) EventName() string { return "leads.lead.accepted" }

// LeadDeclined is published when a lead reaches the declined status, either
// by a provider action or by the stale-lead sweep.
type LeadDeclined struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	ProviderID uuid.UUID `json:"providerId"`
	Reason     string    `json:"reason,omitempty"`
}

func (e LeadDeclined) EventName() string { return "leads.lead.declined" }

// LeadStatusChanged is published on every successful status transition.
type LeadStatusChanged struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	ProviderID uuid.UUID `json:"providerId"`
	OldStatus  string    `json:"oldStatus"`
	NewStatus  string    `json:"newStatus"`
}

func (e LeadStatusChanged) EventName() string { return "leads.status.changed" }

// BatchIntakeCompleted is published after a batch submission has been
// processed, regardless of how many targets were skipped.
type BatchIntakeCompleted struct {
	BaseEvent
	BatchID      uuid.UUID `json:"batchId"`
	ConsumerID   uuid.UUID `json:"consumerId"`
	CreatedCount int       `json:"createdCount"`
	SkippedCount int       `json:"skippedCount"`
}

func (e BatchIntakeCompleted) EventName() string { return "leads.batch.completed" }
