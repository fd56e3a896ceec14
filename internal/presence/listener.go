package presence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/nerrad567/iotconnect-core/internal/device"
	"github.com/nerrad567/iotconnect-core/internal/infrastructure/logging"
	"github.com/nerrad567/iotconnect-core/internal/infrastructure/mqtt"
)

// Subscriber is the subset of the MQTT client the listener needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// StatusSetter updates device status by device key.
type StatusSetter interface {
	SetOnline(ctx context.Context, key string) error
	SetOffline(ctx context.Context, key string) error
}

// Logger defines the logging interface used by the Listener.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// ErrUnknownPayload is returned for payloads that are not a presence state.
var ErrUnknownPayload = errors.New("presence: unknown payload")

// Listener applies broker presence messages to the device registry.
type Listener struct {
	sub     Subscriber
	devices StatusSetter
	topics  mqtt.Topics
	qos     byte
	timeout time.Duration
	logger  Logger
}

// Config configures a Listener.
type Config struct {
	Topics mqtt.Topics
	QoS    byte
	// Timeout bounds each status update.
	Timeout time.Duration
}

// NewListener creates a listener. Call Start to subscribe.
func NewListener(sub Subscriber, devices StatusSetter, cfg Config) *Listener {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Listener{
		sub:     sub,
		devices: devices,
		topics:  cfg.Topics,
		qos:     cfg.QoS,
		timeout: cfg.Timeout,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the listener.
func (l *Listener) SetLogger(logger Logger) {
	l.logger = logger
}

// Start subscribes to the presence topics.
func (l *Listener) Start() error {
	if err := l.sub.Subscribe(l.topics.AllDevicePresence(), l.qos, l.handle); err != nil {
		return fmt.Errorf("subscribing to presence: %w", err)
	}
	return nil
}

// Stop unsubscribes from the presence topics.
func (l *Listener) Stop() error {
	return l.sub.Unsubscribe(l.topics.AllDevicePresence())
}

func (l *Listener) handle(topic string, payload []byte) error {
	key, ok := l.topics.DeviceKeyFromPresence(topic)
	if !ok {
		return fmt.Errorf("presence: unexpected topic %q", topic)
	}

	online, err := parsePayload(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	if online {
		err = l.devices.SetOnline(ctx, key)
	} else {
		err = l.devices.SetOffline(ctx, key)
	}
	if errors.Is(err, device.ErrDeviceNotFound) {
		l.logger.Warn("presence for unknown device", "device_key", logging.Redact(key))
		return nil
	}
	if err != nil {
		return fmt.Errorf("updating presence: %w", err)
	}

	l.logger.Debug("presence applied", "device_key", logging.Redact(key), "online", online)
	return nil
}

// parsePayload accepts "online"/"offline" (case-insensitive) or a JSON
// object with a "status" member holding one of those values.
func parsePayload(payload []byte) (online bool, err error) {
	state := strings.ToLower(strings.TrimSpace(string(payload)))

	if bytes.HasPrefix(bytes.TrimSpace(payload), []byte("{")) {
		var msg struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(payload, &msg); err != nil {
			return false, fmt.Errorf("%w: %w", ErrUnknownPayload, err)
		}
		state = strings.ToLower(msg.Status)
	}

	switch state {
	case "online":
		return true, nil
	case "offline":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownPayload, state)
	}
}
