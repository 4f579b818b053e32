package waitlist

import "errors"

// Sentinel errors for the waitlist service layer.
var (
	ErrNotFound          = errors.New("waitlist entry not found")
	ErrInvalidTransition = errors.New("invalid delivery status transition")
)
