package controllable

import (
	"errors"
	"time"
)

// Controllable is a named capability of a device exposed on a broker topic.
type Controllable struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"device_id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	TopicName string    `json:"topic_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Credentials is what a device needs to publish on a controllable's topic.
type Credentials struct {
	Topic      string
	BrokerUser string
	BrokerPass string
}

// String renders the credentials in the comma-separated wire form
// "topic,broker_user,broker_pass".
func (c Credentials) String() string {
	return c.Topic + "," + c.BrokerUser + "," + c.BrokerPass
}

var (
	// ErrControllableNotFound is returned when no controllable matches.
	ErrControllableNotFound = errors.New("controllable: not found")

	// ErrCategoryNotFound is returned for unknown category names.
	ErrCategoryNotFound = errors.New("controllable: category not found")

	// ErrDuplicate is returned when (device_id, name) already exists.
	ErrDuplicate = errors.New("controllable: duplicate")

	// ErrTopicConflict is returned when a generated topic name collides.
	ErrTopicConflict = errors.New("controllable: topic conflict")

	// ErrInvalidName is returned when a controllable name is empty.
	ErrInvalidName = errors.New("controllable: invalid name")
)
