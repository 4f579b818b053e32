package waitlist

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ignite/waitlist-service/internal/domain"
	"github.com/ignite/waitlist-service/internal/pkg/logger"
)

// ErrDuplicate is returned by repositories when a concurrent insert loses
// the race on the unique email constraint. The orchestrator swallows it:
// duplicate submissions are expected and harmless.
var ErrDuplicate = errors.New("waitlist entry already exists")

// signupMessage is the caller-visible confirmation, identical for every
// signup outcome so the endpoint leaks nothing about internal state.
const signupMessage = "You're on the waitlist! We'll be in touch soon."

// SignupResult is the caller-visible outcome of a signup. It is always
// success-shaped; EmailSent is the only signal that anything went sideways.
type SignupResult struct {
	Message   string                `json:"message"`
	Entry     *domain.WaitlistEntry `json:"user"`
	EmailSent bool                  `json:"emailSent"`
}

// Service orchestrates signup: idempotent persistence, confirmation-email
// dispatch, and delivery-state recording.
//
// Service is an error firewall. No failure in the layers below it may
// surface to the signup caller: duplicate inserts are swallowed silently,
// other persistence errors and transport failures are logged for operators
// and reported only as EmailSent=false.
type Service struct {
	repo       Repository
	dispatcher Dispatcher
}

// NewService creates the signup orchestrator.
func NewService(repo Repository, dispatcher Dispatcher) *Service {
	return &Service{repo: repo, dispatcher: dispatcher}
}

// HandleSignup processes one signup request. It never returns an error.
//
// The entry is persisted before validation runs: a rejected address still
// produces a record, with its delivery status marked failed afterwards.
// Dispatch is attempted unconditionally, even when the entry already
// existed or persistence failed, so a user re-submitting the form gets a
// fresh confirmation email.
func (s *Service) HandleSignup(ctx context.Context, name, email string, userType domain.UserType) SignupResult {
	normalized := domain.NormalizeEmail(email)

	entry := &domain.WaitlistEntry{
		ID:              uuid.New().String(),
		Name:            name,
		Email:           normalized,
		UserType:        userType,
		IsEmailVerified: true,
		DeliveryStatus:  domain.DeliveryPending,
		SignupDate:      time.Now().UTC(),
	}

	created, err := s.repo.UpsertIfAbsent(ctx, entry)
	switch {
	case err == nil:
		if !created {
			logger.Debug("signup for existing entry", "email", normalized)
		}
	case errors.Is(err, ErrDuplicate):
		// Lost a race with a concurrent signup for the same address.
	default:
		// Unexpected persistence failure: alert operators, keep going.
		logger.Error("waitlist upsert failed", "email", normalized, "error", err)
	}

	outcome := s.dispatcher.Dispatch(ctx, name, email, userType)

	if err := s.repo.UpdateDeliveryStatus(ctx, normalized, outcome.Status, DeliveryMeta{
		MessageID: outcome.MessageID,
		SentAt:    outcome.SentAt,
	}); err != nil {
		logger.Error("delivery status update failed", "email", normalized, "status", outcome.Status, "error", err)
	}

	entry.DeliveryStatus = outcome.Status
	entry.EmailSentDate = outcome.SentAt

	return SignupResult{
		Message:   signupMessage,
		Entry:     entry,
		EmailSent: outcome.Success,
	}
}

// ApplyDeliveryEvent records an asynchronous delivery outcome (delivered,
// bounced, complained) reported out-of-band by the mail provider. It is
// idempotent and safe to run concurrently with new signups: re-delivery of
// the same event is a no-op, and only forward transitions are applied.
func (s *Service) ApplyDeliveryEvent(ctx context.Context, email string, status domain.DeliveryStatus, reason string) error {
	normalized := domain.NormalizeEmail(email)

	entry, err := s.repo.GetByEmail(ctx, normalized)
	if err != nil {
		return err
	}

	if entry.DeliveryStatus == status {
		return nil
	}
	if !entry.DeliveryStatus.CanTransitionTo(status) {
		logger.Warn("delivery event ignored",
			"email", normalized, "from", entry.DeliveryStatus, "to", status)
		return ErrInvalidTransition
	}

	meta := DeliveryMeta{}
	if status == domain.DeliveryBounced || status == domain.DeliveryComplained {
		now := time.Now().UTC()
		meta.BounceDate = &now
		if reason != "" {
			meta.BounceReason = &reason
		}
	}

	return s.repo.UpdateDeliveryStatus(ctx, normalized, status, meta)
}
