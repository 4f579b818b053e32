package domain

import (
	"strings"
	"time"
)

// UserType classifies who is signing up for the waitlist.
type UserType string

const (
	UserTypeStartup UserType = "startup"
	UserTypeStudent UserType = "student"
)

// ParseUserType maps raw input to a known UserType. Unknown values fall back
// to UserTypeStartup so the signup endpoint never has to reject a request
// over this field.
func ParseUserType(s string) UserType {
	switch UserType(strings.ToLower(strings.TrimSpace(s))) {
	case UserTypeStudent:
		return UserTypeStudent
	default:
		return UserTypeStartup
	}
}

// WaitlistEntry represents one prospective user's signup, keyed by
// normalized email. Exactly one entry exists per normalized email.
type WaitlistEntry struct {
	ID                string         `json:"id" db:"id"`
	Name              string         `json:"name" db:"name"`
	Email             string         `json:"email" db:"email"`
	UserType          UserType       `json:"userType" db:"user_type"`
	IsEmailVerified   bool           `json:"isEmailVerified" db:"is_email_verified"`
	DeliveryStatus    DeliveryStatus `json:"emailDeliveryStatus" db:"email_delivery_status"`
	EmailBounceReason *string        `json:"emailBounceReason,omitempty" db:"email_bounce_reason"`
	EmailBounceDate   *time.Time     `json:"emailBounceDate,omitempty" db:"email_bounce_date"`
	EmailSentDate     *time.Time     `json:"emailSentDate,omitempty" db:"email_sent_date"`
	EmailVerifiedDate *time.Time     `json:"emailVerifiedDate,omitempty" db:"email_verified_date"`
	SignupDate        time.Time      `json:"signupDate" db:"signup_date"`
}

// NormalizeEmail canonicalizes an address for use as the uniqueness key:
// trimmed and lower-cased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
