package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"introportal_backend/internal/listings/repository"
	"introportal_backend/platform/apperr"
	"introportal_backend/platform/logger"
)

type fakeStore struct {
	listings map[uuid.UUID]repository.Listing
}

func newFakeStore() *fakeStore {
	return &fakeStore{listings: make(map[uuid.UUID]repository.Listing)}
}

func (f *fakeStore) add(active bool) repository.Listing {
	l := repository.Listing{
		ID:         uuid.New(),
		ProviderID: uuid.New(),
		Title:      "coaching intro",
		IsActive:   active,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	f.listings[l.ID] = l
	return l
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (repository.Listing, error) {
	if l, ok := f.listings[id]; ok {
		return l, nil
	}
	return repository.Listing{}, repository.ErrNotFound
}

func (f *fakeStore) ListActive(_ context.Context, limit, offset int) ([]repository.Listing, int, error) {
	active := make([]repository.Listing, 0)
	for _, l := range f.listings {
		if l.IsActive {
			active = append(active, l)
		}
	}
	return active, len(active), nil
}

func (f *fakeStore) Create(_ context.Context, params repository.CreateParams) (repository.Listing, error) {
	l := repository.Listing{
		ID:          uuid.New(),
		ProviderID:  params.ProviderID,
		Title:       params.Title,
		Description: params.Description,
		IsActive:    true,
	}
	f.listings[l.ID] = l
	return l, nil
}

func (f *fakeStore) SetActive(_ context.Context, id uuid.UUID, active bool) (repository.Listing, error) {
	l, ok := f.listings[id]
	if !ok {
		return repository.Listing{}, repository.ErrNotFound
	}
	l.IsActive = active
	f.listings[id] = l
	return l, nil
}

func newTestService(store ListingStore) *Service {
	return New(store, logger.New("development"))
}

func TestGetActive(t *testing.T) {
	store := newFakeStore()
	listing := store.add(true)
	svc := newTestService(store)

	got, err := svc.GetActive(context.Background(), listing.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != listing.ID {
		t.Errorf("listing ID = %s, want %s", got.ID, listing.ID)
	}
}

func TestGetActiveHidesInactive(t *testing.T) {
	store := newFakeStore()
	listing := store.add(false)
	svc := newTestService(store)

	_, err := svc.GetActive(context.Background(), listing.ID)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found for inactive listing, got %v", err)
	}
}

func TestGetActiveUnknown(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.GetActive(context.Background(), uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateSanitizesTitle(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	listing, err := svc.Create(context.Background(), uuid.New(), "  <em>Weekly</em> coaching  ", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if listing.Title != "Weekly coaching" {
		t.Errorf("title = %q, want %q", listing.Title, "Weekly coaching")
	}
}

func TestCreateRejectsEmptyTitle(t *testing.T) {
	svc := newTestService(newFakeStore())

	_, err := svc.Create(context.Background(), uuid.New(), "<p></p>", nil)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSetActiveToggle(t *testing.T) {
	store := newFakeStore()
	listing := store.add(true)
	svc := newTestService(store)
	ctx := context.Background()

	updated, err := svc.SetActive(ctx, listing.ID, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.IsActive {
		t.Error("listing should be inactive")
	}

	if _, err := svc.GetActive(ctx, listing.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("deactivated listing should be hidden, got %v", err)
	}
}
