package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/nerrad567/iotconnect-core/internal/device"
	"github.com/nerrad567/iotconnect-core/internal/infrastructure/mqtt"
)

// Publisher is the subset of the MQTT client the announcer needs.
// *mqtt.Client satisfies it.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// statusAnnouncement is the retained payload on a device status topic.
type statusAnnouncement struct {
	DeviceID string    `json:"device_id"`
	Status   string    `json:"status"`
	Code     int       `json:"code"`
	At       time.Time `json:"at"`
}

// Announcer publishes each recorded status change as a retained message on
// Topics.DeviceStatus, so broker-side consumers see the current state of a
// device without polling the API.
type Announcer struct {
	pub    Publisher
	topics mqtt.Topics
	qos    byte
}

// NewAnnouncer creates an Announcer publishing through pub.
func NewAnnouncer(pub Publisher, topics mqtt.Topics, qos byte) *Announcer {
	return &Announcer{pub: pub, topics: topics, qos: qos}
}

// RecordPresence implements device.PresenceRecorder.
func (a *Announcer) RecordPresence(_ context.Context, deviceID string, status device.Status, at time.Time) error {
	payload, err := json.Marshal(statusAnnouncement{
		DeviceID: deviceID,
		Status:   status.String(),
		Code:     int(status),
		At:       at.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encoding status announcement: %w", err)
	}
	if err := a.pub.Publish(a.topics.DeviceStatus(deviceID), payload, a.qos, true); err != nil {
		return fmt.Errorf("announcing device status: %w", err)
	}
	return nil
}
