package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"

	"introportal_backend/internal/leads/domain"
)

var leadColumnNames = []string{
	"id", "consumer_id", "provider_id", "listing_id", "status", "problem_summary",
	"goals", "timeline", "budget", "meeting_preference", "preferred_times", "consent",
	"idempotency_key", "batch_id", "decline_reason", "first_response_at",
	"response_time_minutes", "version", "status_changed_at", "created_at", "updated_at",
}

func leadRow(lead Lead) *pgxmock.Rows {
	return pgxmock.NewRows(leadColumnNames).AddRow(
		lead.ID, lead.ConsumerID, lead.ProviderID, lead.ListingID, lead.Status,
		lead.ProblemSummary, lead.Goals, lead.Timeline, lead.Budget,
		lead.MeetingPreference, lead.PreferredTimes, lead.Consent,
		lead.IdempotencyKey, lead.BatchID, lead.DeclineReason, lead.FirstResponseAt,
		lead.ResponseTimeMinutes, lead.Version, lead.StatusChangedAt,
		lead.CreatedAt, lead.UpdatedAt,
	)
}

func sampleLead() Lead {
	now := time.Now()
	return Lead{
		ID:              uuid.New(),
		ConsumerID:      uuid.New(),
		ProviderID:      uuid.New(),
		ListingID:       uuid.New(),
		Status:          domain.StatusNew,
		ProblemSummary:  "struggling with quarterly planning",
		Goals:           []string{"structure"},
		PreferredTimes:  []string{"weekday_evening"},
		Consent:         json.RawMessage(`{"terms":true}`),
		Version:         1,
		StatusChangedAt: now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// anyArgs builds n AnyArg matchers; pgxmock requires the expected argument
// count to match even when the values are irrelevant to the test.
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, *Repository) {
	t.Helper()

	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("creating mock pool: %v", err)
	}
	t.Cleanup(mock.Close)

	return mock, New(mock)
}

func TestCreateInsertsLead(t *testing.T) {
	mock, repo := newMockRepo(t)
	lead := sampleLead()

	mock.ExpectQuery(`INSERT INTO leads`).WithArgs(anyArgs(14)...).WillReturnRows(leadRow(lead))

	got, created, err := repo.Create(context.Background(), CreateParams{
		ConsumerID:     lead.ConsumerID,
		ProviderID:     lead.ProviderID,
		ListingID:      lead.ListingID,
		ProblemSummary: lead.ProblemSummary,
		Goals:          lead.Goals,
		PreferredTimes: lead.PreferredTimes,
		Consent:        lead.Consent,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("expected created = true")
	}
	if got.ID != lead.ID {
		t.Errorf("lead ID = %s, want %s", got.ID, lead.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCreateIdempotentReplayReturnsWinner(t *testing.T) {
	mock, repo := newMockRepo(t)
	key := "client-key-1"
	winner := sampleLead()
	winner.IdempotencyKey = &key

	mock.ExpectQuery(`INSERT INTO leads`).WithArgs(anyArgs(14)...).WillReturnError(&pgconn.PgError{
		Code:           "23505",
		ConstraintName: "leads_idempotency_key_key",
	})
	mock.ExpectQuery(`FROM leads WHERE idempotency_key = \$1`).
		WithArgs(key).
		WillReturnRows(leadRow(winner))

	got, created, err := repo.Create(context.Background(), CreateParams{
		ConsumerID:     winner.ConsumerID,
		ProviderID:     winner.ProviderID,
		ListingID:      winner.ListingID,
		ProblemSummary: winner.ProblemSummary,
		Consent:        winner.Consent,
		IdempotencyKey: &key,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("replay should report created = false")
	}
	if got.ID != winner.ID {
		t.Errorf("lead ID = %s, want winner %s", got.ID, winner.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCreateDefaultsOptionalIntakeFields(t *testing.T) {
	mock, repo := newMockRepo(t)
	lead := sampleLead()
	lead.Goals = nil
	lead.PreferredTimes = nil
	video := "video"
	lead.MeetingPreference = &video

	mock.ExpectQuery(`COALESCE\(\$7, '\{\}'::text\[\]\), \$8, \$9,\s*`+
		`COALESCE\(\$10, 'video'\), COALESCE\(\$11, '\{\}'::text\[\]\)`).
		WithArgs(pgxmock.AnyArg(), lead.ConsumerID, lead.ProviderID, lead.ListingID,
			domain.StatusNew, lead.ProblemSummary, []string(nil), (*string)(nil),
			(*string)(nil), (*string)(nil), []string(nil), lead.Consent,
			(*string)(nil), (*uuid.UUID)(nil)).
		WillReturnRows(leadRow(lead))

	got, created, err := repo.Create(context.Background(), CreateParams{
		ConsumerID:     lead.ConsumerID,
		ProviderID:     lead.ProviderID,
		ListingID:      lead.ListingID,
		ProblemSummary: lead.ProblemSummary,
		Consent:        lead.Consent,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("expected created = true")
	}
	if got.MeetingPreference == nil || *got.MeetingPreference != "video" {
		t.Errorf("meeting preference = %v, want default video", got.MeetingPreference)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestCreateDuplicateActivePair(t *testing.T) {
	mock, repo := newMockRepo(t)
	lead := sampleLead()

	mock.ExpectQuery(`INSERT INTO leads`).WithArgs(anyArgs(14)...).WillReturnError(&pgconn.PgError{
		Code:           "23505",
		ConstraintName: "leads_active_pair_key",
	})

	_, _, err := repo.Create(context.Background(), CreateParams{
		ConsumerID:     lead.ConsumerID,
		ProviderID:     lead.ProviderID,
		ListingID:      lead.ListingID,
		ProblemSummary: lead.ProblemSummary,
		Consent:        lead.Consent,
	})
	if !errors.Is(err, ErrDuplicateActiveLead) {
		t.Fatalf("expected ErrDuplicateActiveLead, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateStatusCAS(t *testing.T) {
	mock, repo := newMockRepo(t)
	lead := sampleLead()
	updated := lead
	updated.Status = domain.StatusContacted
	updated.Version = 2
	now := time.Now()
	updated.FirstResponseAt = &now

	mock.ExpectQuery(`UPDATE leads SET`).
		WithArgs(lead.ID, 1, domain.StatusContacted, (*string)(nil)).
		WillReturnRows(leadRow(updated))

	got, err := repo.UpdateStatus(context.Background(), lead.ID, 1, domain.StatusContacted, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Version != 2 {
		t.Errorf("version = %d, want 2", got.Version)
	}
	if got.FirstResponseAt == nil {
		t.Error("first response timestamp should be set")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateStatusStaleVersion(t *testing.T) {
	mock, repo := newMockRepo(t)
	lead := sampleLead()
	lead.Version = 3

	mock.ExpectQuery(`UPDATE leads SET`).
		WithArgs(lead.ID, 2, domain.StatusBooked, (*string)(nil)).
		WillReturnRows(pgxmock.NewRows(leadColumnNames))
	mock.ExpectQuery(`FROM leads WHERE id = \$1`).
		WithArgs(lead.ID).
		WillReturnRows(leadRow(lead))

	_, err := repo.UpdateStatus(context.Background(), lead.ID, 2, domain.StatusBooked, nil)
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpdateStatusMissingLead(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery(`UPDATE leads SET`).
		WithArgs(id, 1, domain.StatusContacted, (*string)(nil)).
		WillReturnRows(pgxmock.NewRows(leadColumnNames))
	mock.ExpectQuery(`FROM leads WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(leadColumnNames))

	_, err := repo.UpdateStatus(context.Background(), id, 1, domain.StatusContacted, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestAcceptWithConversationCommits(t *testing.T) {
	mock, repo := newMockRepo(t)
	lead := sampleLead()
	accepted := lead
	accepted.Status = domain.StatusContacted
	accepted.Version = 2

	convID := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE leads SET`).
		WithArgs(lead.ID, 1, domain.StatusContacted, (*string)(nil)).
		WillReturnRows(leadRow(accepted))
	mock.ExpectQuery(`INSERT INTO conversations`).WithArgs(anyArgs(4)...).
		WillReturnRows(pgxmock.NewRows([]string{"id", "lead_id", "consumer_id", "provider_id", "created_at"}).
			AddRow(convID, lead.ID, lead.ConsumerID, lead.ProviderID, time.Now()))
	mock.ExpectCommit()

	got, conv, err := repo.AcceptWithConversation(context.Background(), lead.ID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.StatusContacted {
		t.Errorf("status = %s, want contacted", got.Status)
	}
	if conv.ID != convID {
		t.Errorf("conversation ID = %s, want %s", conv.ID, convID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestAcceptWithConversationRollsBackOnStaleVersion(t *testing.T) {
	mock, repo := newMockRepo(t)
	lead := sampleLead()
	lead.Version = 5

	mock.ExpectBegin()
	mock.ExpectQuery(`UPDATE leads SET`).
		WithArgs(lead.ID, 4, domain.StatusContacted, (*string)(nil)).
		WillReturnRows(pgxmock.NewRows(leadColumnNames))
	mock.ExpectQuery(`FROM leads WHERE id = \$1`).
		WithArgs(lead.ID).
		WillReturnRows(leadRow(lead))
	mock.ExpectRollback()

	_, _, err := repo.AcceptWithConversation(context.Background(), lead.ID, 4)
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
