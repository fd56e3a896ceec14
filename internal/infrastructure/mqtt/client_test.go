package mqtt

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"

	"github.com/nerrad567/iotconnect-core/internal/infrastructure/config"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "iotconnect-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// fakeMessage implements paho's Message interface.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type mockLogger struct {
	mu     sync.Mutex
	errors []string
	warns  []string
}

func (l *mockLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func (l *mockLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

func TestTopics(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"status default prefix", Topics{}.SystemStatus(), "iotconnect/system/status"},
		{"status custom prefix", Topics{Prefix: "home/"}.SystemStatus(), "home/system/status"},
		{"presence", Topics{}.DevicePresence("AB12-CD34"), "iotconnect/presence/AB12-CD34"},
		{"presence wildcard", Topics{Prefix: "site1"}.AllDevicePresence(), "site1/presence/+"},
		{"device status", Topics{}.DeviceStatus("dev-1"), "iotconnect/devices/dev-1/status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestDeviceKeyFromPresence(t *testing.T) {
	topics := Topics{Prefix: "iotconnect"}

	tests := []struct {
		topic  string
		want   string
		wantOK bool
	}{
		{"iotconnect/presence/AB12-CD34", "AB12-CD34", true},
		{"iotconnect/presence/", "", false},
		{"iotconnect/presence/a/b", "", false},
		{"other/presence/AB12", "", false},
		{"iotconnect/system/status", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			got, ok := topics.DeviceKeyFromPresence(tt.topic)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("DeviceKeyFromPresence(%q) = %q, %v; want %q, %v", tt.topic, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Auth.Username = "core"
	cfg.Auth.Password = "secret"

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "ssl://127.0.0.1:1883" {
		t.Errorf("Servers = %v, want [ssl://127.0.0.1:1883]", opts.Servers)
	}
	if opts.ClientID != "iotconnect-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "core" || opts.Password != "secret" {
		t.Error("credentials not applied")
	}
	if opts.TLSConfig == nil {
		t.Error("TLSConfig should be set when TLS is enabled")
	}
	if !opts.AutoReconnect || !opts.CleanSession {
		t.Error("auto reconnect and clean session should be enabled")
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := buildClientOptions(testConfig())
	configureLWT(opts, Topics{Prefix: "site"}, "core-1")

	if !opts.WillEnabled || opts.WillTopic != "site/system/status" || !opts.WillRetained {
		t.Fatalf("will = enabled %v topic %q retained %v", opts.WillEnabled, opts.WillTopic, opts.WillRetained)
	}

	var p statusPayload
	if err := json.Unmarshal(opts.WillPayload, &p); err != nil {
		t.Fatalf("will payload is not JSON: %v", err)
	}
	if p.Status != "offline" || p.ClientID != "core-1" || p.Reason != "unexpected_disconnect" {
		t.Errorf("will payload = %+v", p)
	}
}

func TestDisconnectedClientRejectsOperations(t *testing.T) {
	c := newClient(testConfig(), Topics{})
	handler := func(string, []byte) error { return nil }

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"publish empty topic", c.Publish("", nil, 1, false), ErrInvalidTopic},
		{"publish bad qos", c.Publish("a", nil, 3, false), ErrInvalidQoS},
		{"publish oversize", c.Publish("a", make([]byte, maxPayloadSize+1), 1, false), ErrPublishFailed},
		{"publish disconnected", c.Publish("a", []byte("x"), 1, false), ErrNotConnected},
		{"subscribe empty topic", c.Subscribe("", 1, handler), ErrInvalidTopic},
		{"subscribe bad qos", c.Subscribe("a", 3, handler), ErrInvalidQoS},
		{"subscribe nil handler", c.Subscribe("a", 1, nil), ErrSubscribeFailed},
		{"subscribe disconnected", c.Subscribe("a", 1, handler), ErrNotConnected},
		{"unsubscribe empty", c.Unsubscribe(""), ErrInvalidTopic},
		{"unsubscribe disconnected", c.Unsubscribe("a"), ErrNotConnected},
		{"health", c.HealthCheck(context.Background()), ErrNotConnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.want) {
				t.Errorf("error = %v, want %v", tt.err, tt.want)
			}
		})
	}

	if len(c.subscriptions) != 0 {
		t.Errorf("tracked subscriptions = %d, want 0", len(c.subscriptions))
	}
}

func TestHealthCheckCancelled(t *testing.T) {
	c := newClient(testConfig(), Topics{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.HealthCheck(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() error = %v, want context.Canceled", err)
	}
}

func TestWrapHandler(t *testing.T) {
	c := newClient(testConfig(), Topics{})
	logger := &mockLogger{}
	c.SetLogger(logger)

	c.wrapHandler(func(string, []byte) error {
		return errors.New("bad payload")
	})(nil, fakeMessage{topic: "t"})

	c.wrapHandler(func(string, []byte) error {
		panic("boom")
	})(nil, fakeMessage{topic: "t"})

	if len(logger.warns) != 1 || !strings.Contains(logger.warns[0], "returned error") {
		t.Errorf("warns = %v", logger.warns)
	}
	if len(logger.errors) != 1 || !strings.Contains(logger.errors[0], "panic") {
		t.Errorf("errors = %v", logger.errors)
	}
}

func TestCloseNil(t *testing.T) {
	var c *Client
	if err := c.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
}
