package device

import (
	"context"
	"time"
)

// PresenceRecorder receives every successful status update. Recording is
// best-effort: failures are logged and never fail the status change.
type PresenceRecorder interface {
	RecordPresence(ctx context.Context, deviceID string, status Status, at time.Time) error
}
