// Package transport defines the HTTP request and response shapes for the
// leads module.
package transport

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"introportal_backend/internal/conversations"
	"introportal_backend/internal/leads/repository"
)

// GuestContact is the contact block required on unauthenticated submissions.
type GuestContact struct {
	Email     string  `json:"email" validate:"required,email"`
	FirstName *string `json:"firstName,omitempty" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName,omitempty" validate:"omitempty,max=100"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=32"`
}

// IntakePayload is the problem description of a submission.
type IntakePayload struct {
	ProblemSummary    string          `json:"problemSummary" validate:"required,min=10,max=4000"`
	Goals             []string        `json:"goals,omitempty" validate:"omitempty,max=10,dive,max=100"`
	Timeline          *string         `json:"timeline,omitempty" validate:"omitempty,max=200"`
	Budget            *string         `json:"budget,omitempty" validate:"omitempty,max=200"`
	MeetingPreference *string         `json:"meetingPreference,omitempty" validate:"omitempty,oneof=phone video in_person"`
	PreferredTimes    []string        `json:"preferredTimes,omitempty" validate:"omitempty,max=10,dive,max=100"`
	Consent           json.RawMessage `json:"consent" validate:"required"`
}

// CreateLeadRequest is a single-target intake submission.
type CreateLeadRequest struct {
	ListingID      uuid.UUID     `json:"listingId" validate:"required"`
	Guest          *GuestContact `json:"guest,omitempty"`
	Intake         IntakePayload `json:"intake" validate:"required"`
	IdempotencyKey *string       `json:"idempotencyKey,omitempty" validate:"omitempty,min=8,max=128"`
	CaptchaToken   string        `json:"captchaToken,omitempty"`
}

// CreateBatchRequest fans one intake out to several listings.
type CreateBatchRequest struct {
	ListingIDs     []uuid.UUID   `json:"listingIds" validate:"required,min=1,max=10"`
	Guest          *GuestContact `json:"guest,omitempty"`
	Intake         IntakePayload `json:"intake" validate:"required"`
	IdempotencyKey *string       `json:"idempotencyKey,omitempty" validate:"omitempty,min=8,max=128"`
	CaptchaToken   string        `json:"captchaToken,omitempty"`
}

// UpdateStatusRequest is a version-checked transition request.
type UpdateStatusRequest struct {
	Status          string  `json:"status" validate:"required"`
	ExpectedVersion int     `json:"expectedVersion" validate:"required,min=1"`
	DeclineReason   *string `json:"declineReason,omitempty" validate:"omitempty,max=500"`
}

// DeclineRequest carries the optional decline reason.
type DeclineRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// CreateLeadResponse reports the single-target intake outcome.
type CreateLeadResponse struct {
	LeadID  uuid.UUID `json:"leadId"`
	Outcome string    `json:"outcome"`
}

// SkippedTargetResponse is one listing a batch could not serve.
type SkippedTargetResponse struct {
	ListingID uuid.UUID `json:"listingId"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
}

// CreateBatchResponse reports per-target batch outcomes.
type CreateBatchResponse struct {
	BatchID        uuid.UUID               `json:"batchId"`
	CreatedLeadIDs []uuid.UUID             `json:"createdLeadIds"`
	Skipped        []SkippedTargetResponse `json:"skipped"`
}

// AcceptResponse is returned when a provider accepts a lead.
type AcceptResponse struct {
	Lead           LeadResponse `json:"lead"`
	ConversationID uuid.UUID    `json:"conversationId"`
}

// LeadResponse is the API view of a lead.
type LeadResponse struct {
	ID                  uuid.UUID       `json:"id"`
	ConsumerID          uuid.UUID       `json:"consumerId"`
	ProviderID          uuid.UUID       `json:"providerId"`
	ListingID           uuid.UUID       `json:"listingId"`
	Status              string          `json:"status"`
	ProblemSummary      string          `json:"problemSummary"`
	Goals               []string        `json:"goals,omitempty"`
	Timeline            *string         `json:"timeline,omitempty"`
	Budget              *string         `json:"budget,omitempty"`
	MeetingPreference   *string         `json:"meetingPreference,omitempty"`
	PreferredTimes      []string        `json:"preferredTimes,omitempty"`
	Consent             json.RawMessage `json:"consent,omitempty"`
	DeclineReason       *string         `json:"declineReason,omitempty"`
	FirstResponseAt     *time.Time      `json:"firstResponseAt,omitempty"`
	ResponseTimeMinutes *int            `json:"responseTimeMinutes,omitempty"`
	Version             int             `json:"version"`
	StatusChangedAt     time.Time       `json:"statusChangedAt"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

// ConversationResponse is the API view of an accepted lead's conversation.
type ConversationResponse struct {
	ID         uuid.UUID `json:"id"`
	LeadID     uuid.UUID `json:"leadId"`
	ConsumerID uuid.UUID `json:"consumerId"`
	ProviderID uuid.UUID `json:"providerId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ListLeadsResponse pages a provider's leads.
type ListLeadsResponse struct {
	Leads  []LeadResponse `json:"leads"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// ToConversationResponse maps a conversation to its API view.
func ToConversationResponse(conv conversations.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:         conv.ID,
		LeadID:     conv.LeadID,
		ConsumerID: conv.ConsumerID,
		ProviderID: conv.ProviderID,
		CreatedAt:  conv.CreatedAt,
	}
}

// ToLeadResponse maps a persistence lead to its API view.
func ToLeadResponse(lead repository.Lead) LeadResponse {
	return LeadResponse{
		ID:                  lead.ID,
		ConsumerID:          lead.ConsumerID,
		ProviderID:          lead.ProviderID,
		ListingID:           lead.ListingID,
		Status:              string(lead.Status),
		ProblemSummary:      lead.ProblemSummary,
		Goals:               lead.Goals,
		Timeline:            lead.Timeline,
		Budget:              lead.Budget,
		MeetingPreference:   lead.MeetingPreference,
		PreferredTimes:      lead.PreferredTimes,
		Consent:             lead.Consent,
		DeclineReason:       lead.DeclineReason,
		FirstResponseAt:     lead.FirstResponseAt,
		ResponseTimeMinutes: lead.ResponseTimeMinutes,
		Version:             lead.Version,
		StatusChangedAt:     lead.StatusChangedAt,
		CreatedAt:           lead.CreatedAt,
		UpdatedAt:           lead.UpdatedAt,
	}
}
