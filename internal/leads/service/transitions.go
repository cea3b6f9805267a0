package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"introportal_backend/internal/conversations"
	"introportal_backend/internal/events"
	"introportal_backend/internal/leads/domain"
	"introportal_backend/internal/leads/repository"
	"introportal_backend/platform/apperr"
)

// AcceptResult is the outcome of a provider accepting a lead.
type AcceptResult struct {
	Lead         repository.Lead
	Conversation conversations.Conversation
}

// Accept moves a lead from new to contacted and opens its conversation.
// Both changes commit atomically; a concurrent actor winning the race
// surfaces as a conflict, never as a second conversation.
func (s *Service) Accept(ctx context.Context, leadID, actorID uuid.UUID) (AcceptResult, error) {
	lead, err := s.loadForActor(ctx, leadID, actorID)
	if err != nil {
		return AcceptResult{}, err
	}

	if !lead.Status.CanTransitionTo(domain.StatusContacted) {
		return AcceptResult{}, transitionError(lead.Status, domain.StatusContacted)
	}

	updated, conv, err := s.repo.AcceptWithConversation(ctx, lead.ID, lead.Version)
	if err != nil {
		return AcceptResult{}, mapTransitionErr(err)
	}

	s.publishStatusChanged(ctx, lead.Status, updated)
	s.bus.Publish(ctx, events.LeadAccepted{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         updated.ID,
		ConversationID: conv.ID,
		ProviderID:     updated.ProviderID,
		ActorID:        actorID,
	})

	return AcceptResult{Lead: updated, Conversation: conv}, nil
}

// Decline moves a lead to the terminal declined status. Legal from any
// non-terminal status.
func (s *Service) Decline(ctx context.Context, leadID, actorID uuid.UUID, reason string) (repository.Lead, error) {
	lead, err := s.loadForActor(ctx, leadID, actorID)
	if err != nil {
		return repository.Lead{}, err
	}

	if !lead.Status.CanTransitionTo(domain.StatusDeclined) {
		return repository.Lead{}, transitionError(lead.Status, domain.StatusDeclined)
	}

	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}

	updated, err := s.repo.UpdateStatus(ctx, lead.ID, lead.Version, domain.StatusDeclined, reasonPtr)
	if err != nil {
		return repository.Lead{}, mapTransitionErr(err)
	}

	s.publishStatusChanged(ctx, lead.Status, updated)
	s.bus.Publish(ctx, events.LeadDeclined{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     updated.ID,
		ProviderID: updated.ProviderID,
		Reason:     reason,
	})

	return updated, nil
}

// UpdateStatusInput is a generic status transition request carrying the
// version the caller last saw.
type UpdateStatusInput struct {
	LeadID          uuid.UUID
	ActorID         uuid.UUID
	ExpectedVersion int
	NewStatus       domain.Status
	DeclineReason   *string
}

// UpdateStatus advances a lead under optimistic concurrency. The transition
// must be legal and the caller's version must still be current. Moving out
// of new into contacted is routed through Accept so the conversation
// invariant holds.
func (s *Service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (repository.Lead, error) {
	if !input.NewStatus.IsKnown() {
		return repository.Lead{}, apperr.Validation(fmt.Sprintf("unknown status %q", input.NewStatus))
	}

	lead, err := s.loadForActor(ctx, input.LeadID, input.ActorID)
	if err != nil {
		return repository.Lead{}, err
	}

	if lead.Version != input.ExpectedVersion {
		return repository.Lead{}, staleVersionError()
	}

	if !lead.Status.CanTransitionTo(input.NewStatus) {
		return repository.Lead{}, transitionError(lead.Status, input.NewStatus)
	}

	if lead.Status == domain.StatusNew && input.NewStatus == domain.StatusContacted {
		result, err := s.Accept(ctx, input.LeadID, input.ActorID)
		if err != nil {
			return repository.Lead{}, err
		}
		return result.Lead, nil
	}

	updated, err := s.repo.UpdateStatus(ctx, lead.ID, input.ExpectedVersion, input.NewStatus, input.DeclineReason)
	if err != nil {
		return repository.Lead{}, mapTransitionErr(err)
	}

	s.publishStatusChanged(ctx, lead.Status, updated)
	if input.NewStatus == domain.StatusDeclined {
		s.bus.Publish(ctx, events.LeadDeclined{
			BaseEvent:  events.NewBaseEvent(),
			LeadID:     updated.ID,
			ProviderID: updated.ProviderID,
		})
	}

	return updated, nil
}

// DeclineExpired is the system path used by the stale-lead sweep. It has no
// actor and only declines leads still in the initial status. Losing the
// version race means someone responded in the meantime, which is success
// from the sweep's point of view.
func (s *Service) DeclineExpired(ctx context.Context, leadID uuid.UUID, reason string) error {
	lead, err := s.repo.GetByID(ctx, leadID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if lead.Status != domain.StatusNew {
		return nil
	}

	updated, err := s.repo.UpdateStatus(ctx, lead.ID, lead.Version, domain.StatusDeclined, &reason)
	if errors.Is(err, repository.ErrVersionConflict) || errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	s.publishStatusChanged(ctx, lead.Status, updated)
	s.bus.Publish(ctx, events.LeadDeclined{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     updated.ID,
		ProviderID: updated.ProviderID,
		Reason:     reason,
	})

	return nil
}

// GetLead fetches a lead for a provider member.
func (s *Service) GetLead(ctx context.Context, leadID, actorID uuid.UUID) (repository.Lead, error) {
	return s.loadForActor(ctx, leadID, actorID)
}

// GetConversation fetches the conversation opened for an accepted lead, for
// a provider member.
func (s *Service) GetConversation(ctx context.Context, leadID, actorID uuid.UUID) (conversations.Conversation, error) {
	if _, err := s.loadForActor(ctx, leadID, actorID); err != nil {
		return conversations.Conversation{}, err
	}

	conv, err := s.convs.GetByLeadID(ctx, leadID)
	if errors.Is(err, conversations.ErrNotFound) {
		return conversations.Conversation{}, apperr.NotFound("conversation not found")
	}
	if err != nil {
		return conversations.Conversation{}, apperr.Wrap(apperr.KindInternal, "load conversation", err)
	}

	return conv, nil
}

// ListLeads returns a provider's leads for one of its members.
func (s *Service) ListLeads(ctx context.Context, providerID, actorID uuid.UUID, status *domain.Status, limit, offset int) ([]repository.Lead, int, error) {
	allowed, err := s.repo.IsProviderActor(ctx, providerID, actorID)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "check provider membership", err)
	}
	if !allowed {
		return nil, 0, apperr.Forbidden("not a member of this provider")
	}

	if limit <= 0 || limit > 100 {
		limit = 25
	}
	if offset < 0 {
		offset = 0
	}

	leads, total, err := s.repo.ListByProvider(ctx, repository.ListParams{
		ProviderID: providerID,
		Status:     status,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "list leads", err)
	}

	return leads, total, nil
}

// ListStale returns leads eligible for the stale sweep.
func (s *Service) ListStale(ctx context.Context, cutoff time.Time, limit int) ([]repository.Lead, error) {
	return s.repo.ListStaleNew(ctx, cutoff, limit)
}

func (s *Service) loadForActor(ctx context.Context, leadID, actorID uuid.UUID) (repository.Lead, error) {
	lead, err := s.repo.GetByID(ctx, leadID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "load lead", err)
	}

	allowed, err := s.repo.IsProviderActor(ctx, lead.ProviderID, actorID)
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "check provider membership", err)
	}
	if !allowed {
		return repository.Lead{}, apperr.Forbidden("not a member of this provider")
	}

	return lead, nil
}

func (s *Service) publishStatusChanged(ctx context.Context, oldStatus domain.Status, updated repository.Lead) {
	s.bus.Publish(ctx, events.LeadStatusChanged{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     updated.ID,
		ProviderID: updated.ProviderID,
		OldStatus:  string(oldStatus),
		NewStatus:  string(updated.Status),
	})
}

func transitionError(from, to domain.Status) error {
	return apperr.Conflict(fmt.Sprintf("cannot transition lead from %s to %s", from, to)).
		WithCode(apperr.CodeTransitionInvalid)
}

func staleVersionError() error {
	return apperr.Conflict("lead was modified by another request, refresh and retry").
		WithCode(apperr.CodeConflict)
}

func mapTransitionErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrVersionConflict):
		return staleVersionError()
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound("lead not found")
	default:
		return apperr.Wrap(apperr.KindInternal, "update lead status", err)
	}
}
