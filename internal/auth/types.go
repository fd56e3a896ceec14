package auth

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// User is an account created by a successful email verification.
// BrokerUser and BrokerPass are generated once on first creation and are
// handed to devices so they can reach the broker on the owner's behalf.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	BrokerUser string    `json:"mqtt_user"`
	BrokerPass string    `json:"mqtt_pass"`
	CreatedAt  time.Time `json:"created_at"`
}

// Verification is a pending email verification. Only the hash of the
// emailed token is stored; ID is the handle returned to the caller.
type Verification struct {
	ID        string
	Email     string
	TokenHash string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the verification window has lapsed at now.
func (v *Verification) Expired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}

// Sentinel errors for authentication operations.
var (
	// ErrInvalidEmail is returned when an address cannot be parsed.
	ErrInvalidEmail = errors.New("auth: invalid email")

	// ErrVerificationNotFound is returned when a verification id is unknown.
	ErrVerificationNotFound = errors.New("auth: verification not found")

	// ErrVerificationExpired is returned when the verification window has lapsed.
	ErrVerificationExpired = errors.New("auth: verification expired")

	// ErrTokenMismatch is returned when a verification token does not match.
	ErrTokenMismatch = errors.New("auth: verification token mismatch")

	// ErrUserNotFound is returned when no account exists for an email.
	ErrUserNotFound = errors.New("auth: user not found")

	// ErrSessionInvalid is returned for malformed or badly signed sessions.
	ErrSessionInvalid = errors.New("auth: session invalid")

	// ErrSessionExpired is returned when a session's validity window has lapsed.
	ErrSessionExpired = errors.New("auth: session expired")
)

// NormalizeEmail trims and lower-cases an address and checks it parses as
// a bare addr-spec ("user@example.com", no display name).
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// UsernameFromEmail returns the local part of an address.
func UsernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
