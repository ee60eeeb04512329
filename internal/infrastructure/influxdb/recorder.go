package influxdb

import (
	"time"

	"github.com/nerrad567/doorbell-core/internal/dedup"
	"github.com/nerrad567/doorbell-core/internal/push"
)

// Measurement names.
const (
	MeasurementEvents     = "doorbell_events"
	MeasurementDispatches = "doorbell_dispatches"
	MeasurementDedup      = "doorbell_dedup"
)

// RecordEvent implements doorbell.Recorder.
func (c *Client) RecordEvent(doorbellID, eventType, status string, elapsed time.Duration) {
	if eventType == "" {
		eventType = "none"
	}
	c.writePoint(MeasurementEvents,
		map[string]string{
			"doorbell_id": doorbellID,
			"type":        eventType,
			"status":      status,
		},
		map[string]any{
			"duration_ms": float64(elapsed.Microseconds()) / 1000,
		},
	)
}

// RecordDispatch implements doorbell.Recorder.
func (c *Client) RecordDispatch(doorbellID, notificationType string, report *push.Report, err error) {
	outcome := "sent"
	fields := map[string]any{"success": 0, "failure": 0}
	switch {
	case err != nil:
		outcome = "error"
	case report == nil:
		outcome = "skipped"
	default:
		fields["success"] = report.SuccessCount
		fields["failure"] = report.FailureCount
	}

	c.writePoint(MeasurementDispatches,
		map[string]string{
			"doorbell_id": doorbellID,
			"type":        notificationType,
			"outcome":     outcome,
		},
		fields,
	)
}

// RecordDedup implements doorbell.Recorder. Passes that changed nothing are
// not recorded.
func (c *Client) RecordDedup(doorbellID, _ string, result dedup.Result, err error) {
	if err == nil && !result.Changed() {
		return
	}
	c.writePoint(MeasurementDedup,
		map[string]string{"doorbell_id": doorbellID},
		map[string]any{
			"removed": len(result.Removed),
			"failed":  err != nil,
		},
	)
}
