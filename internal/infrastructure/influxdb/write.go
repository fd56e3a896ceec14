package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// PresenceMeasurement is the measurement holding device status history.
const PresenceMeasurement = "device_presence"

// WritePresence records a device status update. status is the status name
// (tag) and code its numeric value (field), so history can be both
// filtered and graphed. The write is batched and non-blocking.
func (c *Client) WritePresence(deviceID, status string, code int, at time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		PresenceMeasurement,
		map[string]string{
			"device_id": deviceID,
			"status":    status,
		},
		map[string]any{
			"code": code,
		},
		at,
	)
	c.writeAPI.WritePoint(point)
}
