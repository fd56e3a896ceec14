package device

import (
	"fmt"
	"strings"
	"time"
)

// Status is the connection state of a device.
type Status int

// Status values as persisted in the devices table.
const (
	StatusUnregistered Status = -1
	StatusOffline      Status = 0
	StatusOnline       Status = 1
)

// String returns the lower-case name of the status.
func (s Status) String() string {
	switch s {
	case StatusUnregistered:
		return "unregistered"
	case StatusOffline:
		return "offline"
	case StatusOnline:
		return "online"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Device is a physical device owned by a user.
type Device struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Key        string     `json:"device_key"`
	PassHash   string     `json:"-"`
	Status     Status     `json:"status"`
	OwnerEmail string     `json:"owner_email"`
	LastOnline *time.Time `json:"last_online,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Issued is the result of IssueDevice. Pass is the only copy of the raw
// device pass; it is never stored or returned again.
type Issued struct {
	ID   string `json:"device_id"`
	Key  string `json:"device_key"`
	Pass string `json:"device_pass"`
}

const maxNameLength = 100

// ValidateName checks that a device name is present and reasonably short.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	return nil
}
