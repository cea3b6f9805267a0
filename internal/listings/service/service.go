// Package service implements listing management and lookup.
package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"introportal_backend/internal/listings/repository"
	"introportal_backend/platform/apperr"
	"introportal_backend/platform/logger"
	"introportal_backend/platform/sanitize"
)

// ListingStore is the persistence surface the service needs.
type ListingStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (repository.Listing, error)
	ListActive(ctx context.Context, limit, offset int) ([]repository.Listing, int, error)
	Create(ctx context.Context, params repository.CreateParams) (repository.Listing, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (repository.Listing, error)
}

// Service manages provider listings.
type Service struct {
	repo ListingStore
	log  *logger.Logger
}

// New creates a listing service.
func New(repo ListingStore, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// GetActive fetches a listing that currently accepts leads. Inactive and
// unknown listings are indistinguishable to callers.
func (s *Service) GetActive(ctx context.Context, id uuid.UUID) (repository.Listing, error) {
	listing, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Listing{}, apperr.NotFound("listing not found or inactive")
	}
	if err != nil {
		return repository.Listing{}, apperr.Wrap(apperr.KindInternal, "load listing", err)
	}
	if !listing.IsActive {
		return repository.Listing{}, apperr.NotFound("listing not found or inactive")
	}
	return listing, nil
}

// ListActive pages the active listings.
func (s *Service) ListActive(ctx context.Context, limit, offset int) ([]repository.Listing, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	if offset < 0 {
		offset = 0
	}

	listings, total, err := s.repo.ListActive(ctx, limit, offset)
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindInternal, "list listings", err)
	}
	return listings, total, nil
}

// Create publishes a new listing for a provider.
func (s *Service) Create(ctx context.Context, providerID uuid.UUID, title string, description *string) (repository.Listing, error) {
	cleanTitle := sanitize.Text(title)
	if cleanTitle == "" {
		return repository.Listing{}, apperr.Validation("title is required")
	}

	listing, err := s.repo.Create(ctx, repository.CreateParams{
		ProviderID:  providerID,
		Title:       cleanTitle,
		Description: sanitize.TextPtr(description),
	})
	if err != nil {
		return repository.Listing{}, apperr.Wrap(apperr.KindInternal, "create listing", err)
	}
	return listing, nil
}

// SetActive toggles a listing's active flag.
func (s *Service) SetActive(ctx context.Context, id uuid.UUID, active bool) (repository.Listing, error) {
	listing, err := s.repo.SetActive(ctx, id, active)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Listing{}, apperr.NotFound("listing not found")
	}
	if err != nil {
		return repository.Listing{}, apperr.Wrap(apperr.KindInternal, "update listing", err)
	}
	return listing, nil
}
