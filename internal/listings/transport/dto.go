// Package transport defines the HTTP request and response shapes for the
// listings module.
package transport

import (
	"time"

	"github.com/google/uuid"

	"introportal_backend/internal/listings/repository"
)

// CreateListingRequest publishes a new listing.
type CreateListingRequest struct {
	ProviderID  uuid.UUID `json:"providerId" validate:"required"`
	Title       string    `json:"title" validate:"required,min=3,max=200"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=2000"`
}

// SetActiveRequest toggles whether a listing accepts leads.
type SetActiveRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

// ListingResponse is the API view of a listing.
type ListingResponse struct {
	ID          uuid.UUID `json:"id"`
	ProviderID  uuid.UUID `json:"providerId"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ListListingsResponse pages the active listings.
type ListListingsResponse struct {
	Listings []ListingResponse `json:"listings"`
	Total    int               `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// ToListingResponse maps a persistence listing to its API view.
func ToListingResponse(listing repository.Listing) ListingResponse {
	return ListingResponse{
		ID:          listing.ID,
		ProviderID:  listing.ProviderID,
		Title:       listing.Title,
		Description: listing.Description,
		IsActive:    listing.IsActive,
		CreatedAt:   listing.CreatedAt,
		UpdatedAt:   listing.UpdatedAt,
	}
}
