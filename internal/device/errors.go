package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrDeviceNotFound) {
//	    // handle not found case
//	}
var (
	// ErrDeviceNotFound is returned when a device key or ID does not exist.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrWrongPassword is returned by Initialize when the pass does not match.
	ErrWrongPassword = errors.New("device: wrong password")

	// ErrUnauthorized is returned by Authenticate for any key/pass failure.
	ErrUnauthorized = errors.New("device: unauthorized")

	// ErrDeviceKeyConflict is returned when a generated key collides with
	// an existing one.
	ErrDeviceKeyConflict = errors.New("device: key conflict")

	// ErrInvalidName is returned when a device name is empty or too long.
	ErrInvalidName = errors.New("device: invalid name")
)
