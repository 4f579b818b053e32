package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/waitlist-service/internal/domain"
	"github.com/ignite/waitlist-service/internal/pkg/logger"
	"github.com/ignite/waitlist-service/internal/validator"
)

// DefaultSubject is used when the config leaves the subject empty.
const DefaultSubject = "You're on the IGNITE waitlist"

// Dispatcher validates an address, renders the confirmation email, and
// makes a single delivery attempt through the injected Sender.
type Dispatcher struct {
	validator *validator.Validator
	sender    Sender
	templates *templates
	subject   string
	timeout   time.Duration
}

// NewDispatcher wires a dispatcher. timeout bounds the transport call;
// zero means 30s.
func NewDispatcher(v *validator.Validator, sender Sender, subject string, timeout time.Duration) *Dispatcher {
	if subject == "" {
		subject = DefaultSubject
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Dispatcher{
		validator: v,
		sender:    sender,
		templates: newTemplates(),
		subject:   subject,
		timeout:   timeout,
	}
}

// Dispatch attempts delivery of the confirmation email. It never returns an
// error: every failure mode is folded into the outcome. The transport is
// only reached when validation accepts the address.
func (d *Dispatcher) Dispatch(ctx context.Context, name, email string, userType domain.UserType) domain.DeliveryOutcome {
	if res := d.validator.Validate(email); !res.Accepted {
		// Expected rejection, not an operational error.
		logger.Debug("confirmation email skipped", "email", email, "reason", res.Reason)
		return domain.DeliveryOutcome{
			Success: false,
			Status:  domain.DeliveryFailed,
			Error:   res.Reason,
		}
	}

	html, text, err := d.templates.render(name, userType)
	if err != nil {
		logger.Error("welcome template render failed", "error", err)
		return domain.DeliveryOutcome{
			Success: false,
			Status:  domain.DeliveryFailed,
			Error:   fmt.Sprintf("template render failed: %v", err),
		}
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	messageID, err := d.sender.Send(sendCtx, &Message{
		To:      domain.NormalizeEmail(email),
		Subject: d.subject,
		HTML:    html,
		Text:    text,
	})
	if err != nil {
		// Transport failure is never fatal to the caller; log it for
		// operator visibility and report it in the outcome.
		logger.Error("confirmation email send failed", "email", email, "error", err)
		return domain.DeliveryOutcome{
			Success: false,
			Status:  domain.DeliveryFailed,
			Error:   err.Error(),
		}
	}

	now := time.Now().UTC()
	logger.Info("confirmation email sent", "email", email, "message_id", messageID)
	return domain.DeliveryOutcome{
		Success:   true,
		Status:    domain.DeliverySent,
		MessageID: messageID,
		SentAt:    &now,
	}
}
