// Package adapters bridges bounded contexts onto the small port interfaces
// the leads module consumes.
package adapters

import (
	"context"

	"github.com/google/uuid"

	"introportal_backend/internal/leads/ports"
	listingservice "introportal_backend/internal/listings/service"
)

// ListingReader adapts the listings service to the leads module's port.
type ListingReader struct {
	svc *listingservice.Service
}

// NewListingReader wraps the listings service.
func NewListingReader(svc *listingservice.Service) *ListingReader {
	return &ListingReader{svc: svc}
}

// GetActive implements ports.ListingReader.
func (r *ListingReader) GetActive(ctx context.Context, listingID uuid.UUID) (ports.Listing, error) {
	listing, err := r.svc.GetActive(ctx, listingID)
	if err != nil {
		return ports.Listing{}, err
	}
	return ports.Listing{
		ID:         listing.ID,
		ProviderID: listing.ProviderID,
		Title:      listing.Title,
	}, nil
}
