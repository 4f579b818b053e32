package domain

import "time"

// DeliveryStatus tracks the lifecycle of the confirmation email for an entry.
//
// Transitions:
//
//	pending → sent → {delivered | bounced | complained}
//	pending → failed
//
// failed, delivered, bounced, and complained are terminal. Transitions never
// move backward (sent never reverts to pending). sent is entered only on
// dispatcher success; delivered/bounced/complained are reported later by the
// provider's webhook, not by the synchronous send path.
type DeliveryStatus string

const (
	DeliveryPending    DeliveryStatus = "pending"
	DeliverySent       DeliveryStatus = "sent"
	DeliveryDelivered  DeliveryStatus = "delivered"
	DeliveryBounced    DeliveryStatus = "bounced"
	DeliveryFailed     DeliveryStatus = "failed"
	DeliveryComplained DeliveryStatus = "complained"
)

// Valid reports whether s is a known delivery status.
func (s DeliveryStatus) Valid() bool {
	switch s {
	case DeliveryPending, DeliverySent, DeliveryDelivered,
		DeliveryBounced, DeliveryFailed, DeliveryComplained:
		return true
	}
	return false
}

// Terminal reports whether no further transition is allowed out of s.
func (s DeliveryStatus) Terminal() bool {
	switch s {
	case DeliveryDelivered, DeliveryBounced, DeliveryFailed, DeliveryComplained:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is a legal forward
// transition.
func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	if !next.Valid() {
		return false
	}
	switch s {
	case DeliveryPending:
		return next == DeliverySent || next == DeliveryFailed
	case DeliverySent:
		return next == DeliveryDelivered || next == DeliveryBounced || next == DeliveryComplained
	default:
		return false
	}
}

// DeliveryOutcome is the result of a single confirmation-email dispatch
// attempt. Status is sent on transport success and failed on validator
// rejection or transport failure; the other statuses are never produced
// synchronously.
type DeliveryOutcome struct {
	Success   bool           `json:"success"`
	Status    DeliveryStatus `json:"deliveryStatus"`
	MessageID string         `json:"messageId,omitempty"`
	Error     string         `json:"error,omitempty"`
	SentAt    *time.Time     `json:"sentAt,omitempty"`
}
