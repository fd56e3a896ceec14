package presence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/iotconnect-core/internal/device"
	"github.com/nerrad567/iotconnect-core/internal/infrastructure/mqtt"
)

type published struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

type fakePublisher struct {
	msgs []published
	err  error
}

func (f *fakePublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, published{topic, payload, qos, retained})
	return nil
}

func TestAnnouncer_PublishesRetainedStatus(t *testing.T) {
	pub := &fakePublisher{}
	a := NewAnnouncer(pub, mqtt.Topics{Prefix: "site"}, 1)
	at := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	require.NoError(t, a.RecordPresence(context.Background(), "dev-1", device.StatusOnline, at))

	require.Len(t, pub.msgs, 1)
	msg := pub.msgs[0]
	assert.Equal(t, "site/devices/dev-1/status", msg.topic)
	assert.Equal(t, byte(1), msg.qos)
	assert.True(t, msg.retained)

	var got statusAnnouncement
	require.NoError(t, json.Unmarshal(msg.payload, &got))
	assert.Equal(t, "dev-1", got.DeviceID)
	assert.Equal(t, device.StatusOnline.String(), got.Status)
	assert.Equal(t, 1, got.Code)
	assert.True(t, got.At.Equal(at))
}

func TestAnnouncer_StaysOutOfPresenceTree(t *testing.T) {
	topics := mqtt.Topics{}
	_, ok := topics.DeviceKeyFromPresence(topics.DeviceStatus("dev-1"))
	assert.False(t, ok, "announcements must not be read back as presence reports")
}

func TestAnnouncer_PublishError(t *testing.T) {
	pub := &fakePublisher{err: mqtt.ErrNotConnected}
	a := NewAnnouncer(pub, mqtt.Topics{}, 0)

	err := a.RecordPresence(context.Background(), "dev-1", device.StatusOffline, time.Now())
	assert.True(t, errors.Is(err, mqtt.ErrNotConnected))
}
