// Package ports defines the external dependencies of the leads module as
// small interfaces so the module stays decoupled from other bounded contexts.
package ports

import (
	"context"

	"github.com/google/uuid"
)

// Listing is the slice of a provider listing the intake flow needs.
type Listing struct {
	ID         uuid.UUID
	ProviderID uuid.UUID
	Title      string
}

// ListingReader resolves intake targets. GetActive returns a not-found error
// for unknown or inactive listings.
type ListingReader interface {
	GetActive(ctx context.Context, listingID uuid.UUID) (Listing, error)
}

// CaptchaVerifier checks an abuse-challenge token from a guest submission.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// RateLimiter bounds submission volume per identity.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
