package waitlist

import (
	"context"
	"time"

	"github.com/ignite/waitlist-service/internal/domain"
)

// DeliveryMeta carries the delivery fields written alongside a status
// change. Nil pointers leave the corresponding column untouched.
type DeliveryMeta struct {
	MessageID    string
	SentAt       *time.Time
	BounceReason *string
	BounceDate   *time.Time
}

// Repository is the persistence contract for waitlist entries. The store is
// the single source of truth for email uniqueness: UpsertIfAbsent must be
// atomic so two concurrent signups with the same address cannot both insert.
type Repository interface {
	// UpsertIfAbsent inserts the entry if no row exists for its normalized
	// email. An existing row is left untouched and created=false is
	// reported without error; duplicate submissions are expected.
	UpsertIfAbsent(ctx context.Context, e *domain.WaitlistEntry) (created bool, err error)

	// GetByEmail returns the entry for a normalized email, or ErrNotFound.
	GetByEmail(ctx context.Context, email string) (*domain.WaitlistEntry, error)

	// UpdateDeliveryStatus mutates only the delivery-related fields of an
	// existing entry. A missing entry is a silent no-op.
	UpdateDeliveryStatus(ctx context.Context, email string, status domain.DeliveryStatus, meta DeliveryMeta) error

	// ListAll returns every entry, newest signup first.
	ListAll(ctx context.Context) ([]domain.WaitlistEntry, error)

	// DeleteByID removes one entry, or returns ErrNotFound.
	DeleteByID(ctx context.Context, id string) error

	// DeleteByEmail removes one entry by normalized email, or ErrNotFound.
	DeleteByEmail(ctx context.Context, email string) error

	// DeleteAll removes every entry and reports the affected count.
	DeleteAll(ctx context.Context) (int64, error)
}

// Dispatcher makes a single confirmation-email delivery attempt. Validation
// happens inside the dispatcher so a rejected address never reaches the
// transport.
type Dispatcher interface {
	Dispatch(ctx context.Context, name, email string, userType domain.UserType) domain.DeliveryOutcome
}
