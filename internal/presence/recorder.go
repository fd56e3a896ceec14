package presence

import (
	"context"
	"time"

	"github.com/nerrad567/iotconnect-core/internal/device"
)

// PointWriter writes presence points. *influxdb.Client satisfies it.
type PointWriter interface {
	WritePresence(deviceID, status string, code int, at time.Time)
}

// Recorder stores device status history through a PointWriter.
type Recorder struct {
	w PointWriter
}

// NewRecorder creates a Recorder writing to w.
func NewRecorder(w PointWriter) *Recorder {
	return &Recorder{w: w}
}

// RecordPresence implements device.PresenceRecorder. Writes are batched,
// so errors surface through the writer's own error callback.
func (r *Recorder) RecordPresence(_ context.Context, deviceID string, status device.Status, at time.Time) error {
	r.w.WritePresence(deviceID, status.String(), int(status), at)
	return nil
}
