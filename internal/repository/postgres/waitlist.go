// Package postgres implements the waitlist repository against PostgreSQL
// using database/sql and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/waitlist-service/internal/domain"
	"github.com/ignite/waitlist-service/internal/service/waitlist"
)

// WaitlistRepo implements waitlist.Repository against PostgreSQL.
type WaitlistRepo struct{ db *sql.DB }

// NewWaitlistRepo creates a Postgres-backed waitlist repository.
func NewWaitlistRepo(db *sql.DB) *WaitlistRepo { return &WaitlistRepo{db: db} }

const entryColumns = `id, name, email, user_type, is_email_verified,
	email_delivery_status, email_bounce_reason, email_bounce_date,
	email_sent_date, email_verified_date, signup_date`

// UpsertIfAbsent inserts the entry unless a row already exists for its
// email. ON CONFLICT DO NOTHING makes the insert atomic under concurrent
// signups; created reports whether this call inserted the row.
func (r *WaitlistRepo) UpsertIfAbsent(ctx context.Context, e *domain.WaitlistEntry) (bool, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO waitlist_entries
			(id, name, email, user_type, is_email_verified, email_delivery_status, signup_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (email) DO NOTHING
	`, e.ID, e.Name, e.Email, e.UserType, e.IsEmailVerified, e.DeliveryStatus, e.SignupDate)
	if err != nil {
		if isUniqueViolation(err) {
			return false, waitlist.ErrDuplicate
		}
		return false, fmt.Errorf("upsert waitlist entry: %w", err)
	}

	n, _ := res.RowsAffected()
	return n > 0, nil
}

// GetByEmail returns the entry for a normalized email.
func (r *WaitlistRepo) GetByEmail(ctx context.Context, email string) (*domain.WaitlistEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM waitlist_entries WHERE email = $1`, email)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, waitlist.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get waitlist entry: %w", err)
	}
	return e, nil
}

// UpdateDeliveryStatus mutates only the delivery-related fields. A missing
// entry is a silent no-op.
//
// Writes of sent/failed come from the synchronous dispatch path and must
// never clobber a webhook-reported terminal outcome, so they carry a guard
// against the webhook-terminal statuses. Writes of delivered/bounced/
// complained are pre-checked by the service's transition logic.
func (r *WaitlistRepo) UpdateDeliveryStatus(ctx context.Context, email string, status domain.DeliveryStatus, meta waitlist.DeliveryMeta) error {
	query := `
		UPDATE waitlist_entries SET
			email_delivery_status = $2,
			email_sent_date = COALESCE($3, email_sent_date),
			email_bounce_reason = COALESCE($4, email_bounce_reason),
			email_bounce_date = COALESCE($5, email_bounce_date)
		WHERE email = $1`
	if status == domain.DeliverySent || status == domain.DeliveryFailed {
		query += ` AND email_delivery_status NOT IN ('delivered', 'bounced', 'complained')`
	}

	_, err := r.db.ExecContext(ctx, query,
		email, status, meta.SentAt, meta.BounceReason, meta.BounceDate)
	if err != nil {
		return fmt.Errorf("update delivery status: %w", err)
	}
	return nil
}

// ListAll returns every entry, newest signup first.
func (r *WaitlistRepo) ListAll(ctx context.Context) ([]domain.WaitlistEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM waitlist_entries ORDER BY signup_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list waitlist entries: %w", err)
	}
	defer rows.Close()

	var out []domain.WaitlistEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan waitlist entry: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// DeleteByID removes one entry.
func (r *WaitlistRepo) DeleteByID(ctx context.Context, id string) error {
	return r.deleteOne(ctx, `DELETE FROM waitlist_entries WHERE id = $1`, id)
}

// DeleteByEmail removes one entry by normalized email.
func (r *WaitlistRepo) DeleteByEmail(ctx context.Context, email string) error {
	return r.deleteOne(ctx, `DELETE FROM waitlist_entries WHERE email = $1`, email)
}

func (r *WaitlistRepo) deleteOne(ctx context.Context, query, arg string) error {
	res, err := r.db.ExecContext(ctx, query, arg)
	if err != nil {
		return fmt.Errorf("delete waitlist entry: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return waitlist.ErrNotFound
	}
	return nil
}

// DeleteAll removes every entry and reports the affected count.
func (r *WaitlistRepo) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM waitlist_entries`)
	if err != nil {
		return 0, fmt.Errorf("delete all waitlist entries: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*domain.WaitlistEntry, error) {
	var e domain.WaitlistEntry
	err := s.Scan(
		&e.ID, &e.Name, &e.Email, &e.UserType, &e.IsEmailVerified,
		&e.DeliveryStatus, &e.EmailBounceReason, &e.EmailBounceDate,
		&e.EmailSentDate, &e.EmailVerifiedDate, &e.SignupDate,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (SQLSTATE 23505). ON CONFLICT normally absorbs duplicates, but
// expression-index races can still surface one.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
