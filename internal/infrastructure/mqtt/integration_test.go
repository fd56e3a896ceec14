//go:build integration

package mqtt

import (
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/iotconnect-core/internal/infrastructure/config"
)

// Integration tests against a running MQTT broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...

func integrationConfig(clientID string) config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: clientID,
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

func TestIntegration_SubscriptionTracking(t *testing.T) {
	client, err := Connect(integrationConfig("iotconnect-int-sub-track"), Topics{Prefix: "iotconnect-int"})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	handler := func(string, []byte) error { return nil }
	topics := []string{
		client.Topics().AllDevicePresence(),
		"iotconnect-int/other/a",
	}
	for _, topic := range topics {
		if err := client.Subscribe(topic, 1, handler); err != nil {
			t.Fatalf("Subscribe(%s) error = %v", topic, err)
		}
	}
	if got := trackedSubscriptions(client); got != len(topics) {
		t.Errorf("tracked subscriptions = %d, want %d", got, len(topics))
	}

	if err := client.Unsubscribe(topics[0]); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}
	if got := trackedSubscriptions(client); got != len(topics)-1 {
		t.Errorf("tracked subscriptions after unsubscribe = %d, want %d", got, len(topics)-1)
	}
}

func TestIntegration_PresenceRoundtrip(t *testing.T) {
	topics := Topics{Prefix: "iotconnect-int"}

	pub, err := Connect(integrationConfig("iotconnect-int-pub"), topics)
	if err != nil {
		t.Fatalf("Connect() publisher error = %v", err)
	}
	defer pub.Close()

	sub, err := Connect(integrationConfig("iotconnect-int-sub"), topics)
	if err != nil {
		t.Fatalf("Connect() subscriber error = %v", err)
	}
	defer sub.Close()

	type msg struct{ key, payload string }
	received := make(chan msg, 1)
	var once sync.Once

	err = sub.Subscribe(topics.AllDevicePresence(), 1, func(topic string, p []byte) error {
		key, ok := topics.DeviceKeyFromPresence(topic)
		if ok {
			once.Do(func() { received <- msg{key, string(p)} })
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	time.Sleep(100 * time.Millisecond)

	if err := pub.Publish(topics.DevicePresence("AAAA-BBBB-CCCC-DDDD-EEEE"), []byte("online"), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case m := <-received:
		if m.key != "AAAA-BBBB-CCCC-DDDD-EEEE" || m.payload != "online" {
			t.Errorf("received %+v", m)
		}
	case <-time.After(5 * time.Second):
		t.Error("Timeout waiting for message")
	}
}

func trackedSubscriptions(c *Client) int {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return len(c.subscriptions)
}
