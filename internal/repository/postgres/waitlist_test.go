package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/ignite/waitlist-service/internal/domain"
	"github.com/ignite/waitlist-service/internal/service/waitlist"
)

func setupRepo(t *testing.T) (*WaitlistRepo, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	return NewWaitlistRepo(db), mock, func() { db.Close() }
}

func testEntry() *domain.WaitlistEntry {
	return &domain.WaitlistEntry{
		Name:            "Bo",
		Email:           "bo@realdomain.io",
		UserType:        domain.UserTypeStartup,
		IsEmailVerified: true,
		DeliveryStatus:  domain.DeliveryPending,
		SignupDate:      time.Now().UTC(),
	}
}

func TestUpsertIfAbsentInserts(t *testing.T) {
	repo, mock, cleanup := setupRepo(t)
	defer cleanup()

	mock.ExpectExec(`INSERT INTO waitlist_entries`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := repo.UpsertIfAbsent(context.Background(), testEntry())
	if err != nil {
		t.Fatalf("UpsertIfAbsent() error: %v", err)
	}
	if !created {
		t.Error("expected created=true for a fresh email")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestUpsertIfAbsentDuplicateIsNoop(t *testing.T) {
	repo, mock, cleanup := setupRepo(t)
	defer cleanup()

	// ON CONFLICT DO NOTHING: zero rows affected, no error.
	mock.ExpectExec(`INSERT INTO waitlist_entries`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	created, err := repo.UpsertIfAbsent(context.Background(), testEntry())
	if err != nil {
		t.Fatalf("UpsertIfAbsent() error: %v", err)
	}
	if created {
		t.Error("expected created=false when the email already exists")
	}
}

func TestUpsertIfAbsentAssignsID(t *testing.T) {
	repo, mock, cleanup := setupRepo(t)
	defer cleanup()

	mock.ExpectExec(`INSERT INTO waitlist_entries`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	e := testEntry()
	if _, err := repo.UpsertIfAbsent(context.Background(), e); err != nil {
		t.Fatalf("UpsertIfAbsent() error: %v", err)
	}
	if e.ID == "" {
		t.Error("expected an ID to be assigned")
	}
}

func TestUpsertIfAbsentUniqueRaceMapsToErrDuplicate(t *testing.T) {
	repo, mock, cleanup := setupRepo(t)
	defer cleanup()

	mock.ExpectExec(`INSERT INTO waitlist_entries`).
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.UpsertIfAbsent(context.Background(), testEntry())
	if !errors.Is(err, waitlist.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestUpdateDeliveryStatusMissingEntryIsSilent(t *testing.T) {
	repo, mock, cleanup := setupRepo(t)
	defer cleanup()

	mock.ExpectExec(`UPDATE waitlist_entries`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateDeliveryStatus(context.Background(),
		"ghost@realdomain.io", domain.DeliverySent, waitlist.DeliveryMeta{})
	if err != nil {
		t.Errorf("expected silent no-op for missing entry, got %v", err)
	}
}

func TestUpdateDeliveryStatusGuardsSyncWrites(t *testing.T) {
	repo, mock, cleanup := setupRepo(t)
	defer cleanup()

	// sent/failed writes must carry the webhook-terminal guard.
	mock.ExpectExec(`UPDATE waitlist_entries.+NOT IN \('delivered', 'bounced', 'complained'\)`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	now := time.Now().UTC()
	err := repo.UpdateDeliveryStatus(context.Background(),
		"bo@realdomain.io", domain.DeliverySent, waitlist.DeliveryMeta{SentAt: &now})
	if err != nil {
		t.Fatalf("UpdateDeliveryStatus() error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func entryRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "email", "user_type", "is_email_verified",
		"email_delivery_status", "email_bounce_reason", "email_bounce_date",
		"email_sent_date", "email_verified_date", "signup_date",
	})
}

func TestGetByEmail(t *testing.T) {
	repo, mock, cleanup := setupRepo(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT .+ FROM waitlist_entries WHERE email`).
		WithArgs("bo@realdomain.io").
		WillReturnRows(entryRows().AddRow(
			"id-1", "Bo", "bo@realdomain.io", "startup", true,
			"sent", nil, nil, now, nil, now,
		))

	e, err := repo.GetByEmail(context.Background(), "bo@realdomain.io")
	if err != nil {
		t.Fatalf("GetByEmail() error: %v", err)
	}
	if e.DeliveryStatus != domain.DeliverySent {
		t.Errorf("DeliveryStatus = %q, want sent", e.DeliveryStatus)
	}
	if e.EmailSentDate == nil {
		t.Error("expected EmailSentDate to be set")
	}
}

func TestGetByEmailNotFound(t *testing.T) {
	repo, mock, cleanup := setupRepo(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT .+ FROM waitlist_entries WHERE email`).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "ghost@realdomain.io")
	if !errors.Is(err, waitlist.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListAll(t *testing.T) {
	repo, mock, cleanup := setupRepo(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectQuery(`SELECT .+ FROM waitlist_entries ORDER BY signup_date DESC`).
		WillReturnRows(entryRows().
			AddRow("id-1", "Bo", "bo@realdomain.io", "startup", true, "sent", nil, nil, now, nil, now).
			AddRow("id-2", "Ada", "ada@cambridge.ac.uk", "student", true, "pending", nil, nil, nil, nil, now))

	entries, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll() error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
}

func TestDeleteByIDNotFound(t *testing.T) {
	repo, mock, cleanup := setupRepo(t)
	defer cleanup()

	mock.ExpectExec(`DELETE FROM waitlist_entries WHERE id`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteByID(context.Background(), "missing-id")
	if !errors.Is(err, waitlist.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAllReportsCount(t *testing.T) {
	repo, mock, cleanup := setupRepo(t)
	defer cleanup()

	mock.ExpectExec(`DELETE FROM waitlist_entries`).
		WillReturnResult(sqlmock.NewResult(0, 7))

	n, err := repo.DeleteAll(context.Background())
	if err != nil {
		t.Fatalf("DeleteAll() error: %v", err)
	}
	if n != 7 {
		t.Errorf("DeleteAll() = %d, want 7", n)
	}
}
