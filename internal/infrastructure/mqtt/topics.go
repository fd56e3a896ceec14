package mqtt

import "strings"

// DefaultTopicPrefix is the root of all IoT Connect topics.
const DefaultTopicPrefix = "iotconnect"

// Topics builds IoT Connect topic names under a common prefix.
//
//	topics := mqtt.Topics{Prefix: "iotconnect"}
//	topics.DevicePresence("AbC1-...")  // "iotconnect/presence/AbC1-..."
//	topics.AllDevicePresence()         // "iotconnect/presence/+"
//	topics.DeviceStatus("dev-1")       // "iotconnect/devices/dev-1/status"
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return strings.TrimSuffix(t.Prefix, "/")
}

// SystemStatus is the retained online/offline topic for this service.
func (t Topics) SystemStatus() string {
	return t.prefix() + "/system/status"
}

// DevicePresence is the topic a device (or the broker on its behalf)
// publishes "online"/"offline" to.
func (t Topics) DevicePresence(deviceKey string) string {
	return t.prefix() + "/presence/" + deviceKey
}

// DeviceStatus is the retained topic the service announces a device's
// recorded status on. It sits outside the presence tree so announcements
// are never read back as presence reports.
func (t Topics) DeviceStatus(deviceID string) string {
	return t.prefix() + "/devices/" + deviceID + "/status"
}

// AllDevicePresence matches the presence topic of every device.
func (t Topics) AllDevicePresence() string {
	return t.prefix() + "/presence/+"
}

// DeviceKeyFromPresence extracts the device key from a presence topic.
// It returns false for topics outside the presence tree.
func (t Topics) DeviceKeyFromPresence(topic string) (string, bool) {
	key, ok := strings.CutPrefix(topic, t.prefix()+"/presence/")
	if !ok || key == "" || strings.Contains(key, "/") {
		return "", false
	}
	return key, true
}
