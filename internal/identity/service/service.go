// Package service resolves the submitting consumer for intake requests.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"introportal_backend/internal/events"
	"introportal_backend/internal/identity/provider"
	"introportal_backend/internal/identity/repository"
	"introportal_backend/platform/apperr"
	"introportal_backend/platform/config"
	"introportal_backend/platform/logger"
	"introportal_backend/platform/phone"
)

// GuestContact is the contact block of an unauthenticated submission.
type GuestContact struct {
	Email     string
	FirstName *string
	LastName  *string
	Phone     *string
}

// ResolveInput identifies the submitter: either an authenticated account ID
// or a guest contact block. Exactly one must be set.
type ResolveInput struct {
	AccountID *uuid.UUID
	Guest     *GuestContact
}

// Resolution is the resolved submitter identity.
type Resolution struct {
	ConsumerID  uuid.UUID
	RateLimitID string
	IsGuest     bool
	Provisioned bool
}

// ConsumerStore is the persistence surface the resolver needs.
type ConsumerStore interface {
	GetByAccountID(ctx context.Context, accountID uuid.UUID) (repository.Consumer, error)
	GetByEmail(ctx context.Context, email string) (repository.Consumer, error)
	UpsertGuest(ctx context.Context, accountID uuid.UUID, email string, firstName, lastName, phone *string) (repository.Consumer, error)
}

// Resolver maps submissions to consumer identities, provisioning guest
// accounts on first contact.
type Resolver struct {
	store    ConsumerStore
	accounts provider.AccountProvider
	bus      events.Bus
	cfg      config.IdentityConfig
	log      *logger.Logger
}

// New creates an identity resolver.
func New(store ConsumerStore, accounts provider.AccountProvider, bus events.Bus, cfg config.IdentityConfig, log *logger.Logger) *Resolver {
	return &Resolver{
		store:    store,
		accounts: accounts,
		bus:      bus,
		cfg:      cfg,
		log:      log,
	}
}

// Resolve returns the consumer identity for a submission. Repeated guest
// submissions with the same email resolve to the same consumer.
func (r *Resolver) Resolve(ctx context.Context, input ResolveInput) (Resolution, error) {
	if input.AccountID != nil {
		return r.resolveAuthenticated(ctx, *input.AccountID)
	}
	if input.Guest != nil {
		return r.resolveGuest(ctx, *input.Guest)
	}
	return Resolution{}, apperr.BadRequest("submission requires authentication or guest contact details")
}

func (r *Resolver) resolveAuthenticated(ctx context.Context, accountID uuid.UUID) (Resolution, error) {
	consumer, err := r.store.GetByAccountID(ctx, accountID)
	if errors.Is(err, repository.ErrNotFound) {
		return Resolution{}, apperr.NotFound("consumer profile not found")
	}
	if err != nil {
		return Resolution{}, apperr.Wrap(apperr.KindInternal, "resolve consumer", err)
	}

	return Resolution{
		ConsumerID:  consumer.ID,
		RateLimitID: fmt.Sprintf("account:%s", accountID),
		IsGuest:     false,
	}, nil
}

func (r *Resolver) resolveGuest(ctx context.Context, guest GuestContact) (Resolution, error) {
	email := NormalizeEmail(guest.Email)
	if email == "" {
		return Resolution{}, apperr.Validation("guest email is required")
	}

	rateLimitID := fmt.Sprintf("guest:%s", email)

	// Fast path: the email already maps to a consumer.
	existing, err := r.store.GetByEmail(ctx, email)
	if err == nil {
		return Resolution{
			ConsumerID:  existing.ID,
			RateLimitID: rateLimitID,
			IsGuest:     existing.IsGuest,
		}, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return Resolution{}, apperr.Wrap(apperr.KindInternal, "resolve guest", err)
	}

	normalizedPhone := normalizePhonePtr(guest.Phone)

	accountID, err := r.provisionAccount(ctx, email, provider.ProfileHints{
		FirstName: guest.FirstName,
		LastName:  guest.LastName,
		Phone:     normalizedPhone,
	})
	if err != nil {
		return Resolution{}, err
	}

	consumer, err := r.store.UpsertGuest(ctx, accountID, email, guest.FirstName, guest.LastName, normalizedPhone)
	if err != nil {
		return Resolution{}, apperr.Wrap(apperr.KindInternal, "create guest consumer", err)
	}

	r.bus.Publish(ctx, events.ConsumerProvisioned{
		BaseEvent:  events.NewBaseEvent(),
		ConsumerID: consumer.ID,
		Email:      email,
	})

	return Resolution{
		ConsumerID:  consumer.ID,
		RateLimitID: rateLimitID,
		IsGuest:     true,
		Provisioned: true,
	}, nil
}

// provisionAccount calls the account provider, retrying once with a short
// jittered delay on transient failures.
func (r *Resolver) provisionAccount(ctx context.Context, email string, hints provider.ProfileHints) (uuid.UUID, error) {
	accountID, err := r.accounts.CreateAccount(ctx, email, hints)
	if err == nil {
		return accountID, nil
	}

	if !provider.IsTransient(err) {
		return uuid.Nil, apperr.Wrap(apperr.KindInternal, "account provisioning failed", err).
			WithCode(apperr.CodeProvisioningFailed)
	}

	delay := r.cfg.GetProvisionRetryDelay()
	delay += time.Duration(rand.Int63n(int64(delay/2) + 1))

	r.log.Warn("account provisioning failed, retrying", "error", err.Error())

	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return uuid.Nil, ctx.Err()
	}

	accountID, err = r.accounts.CreateAccount(ctx, email, hints)
	if err != nil {
		return uuid.Nil, apperr.Wrap(apperr.KindUnavailable, "account provisioning unavailable", err).
			WithCode(apperr.CodeProvisioningFailed)
	}

	return accountID, nil
}

// NormalizeEmail lowercases and trims an email address so equality checks
// and uniqueness constraints see one canonical form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func normalizePhonePtr(raw *string) *string {
	if raw == nil {
		return nil
	}
	normalized := phone.NormalizeE164(*raw)
	if normalized == "" {
		return nil
	}
	return &normalized
}
