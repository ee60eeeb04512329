package doorbell

import (
	"time"

	"github.com/nerrad567/doorbell-core/internal/dedup"
	"github.com/nerrad567/doorbell-core/internal/push"
)

// Event statuses passed to Recorder.RecordEvent.
const (
	StatusProcessed = "processed"
	StatusIgnored   = "ignored"
	StatusFailed    = "failed"
)

// Recorder receives observations for telemetry. Implementations must be safe
// for concurrent use and must not block.
type Recorder interface {
	RecordEvent(doorbellID, eventType, status string, elapsed time.Duration)
	RecordDispatch(doorbellID, notificationType string, report *push.Report, err error)
	RecordDedup(doorbellID, tag string, result dedup.Result, err error)
}

// Recorders fans observations out to several recorders.
type Recorders []Recorder

func (rs Recorders) RecordEvent(doorbellID, eventType, status string, elapsed time.Duration) {
	for _, r := range rs {
		r.RecordEvent(doorbellID, eventType, status, elapsed)
	}
}

func (rs Recorders) RecordDispatch(doorbellID, notificationType string, report *push.Report, err error) {
	for _, r := range rs {
		r.RecordDispatch(doorbellID, notificationType, report, err)
	}
}

func (rs Recorders) RecordDedup(doorbellID, tag string, result dedup.Result, err error) {
	for _, r := range rs {
		r.RecordDedup(doorbellID, tag, result, err)
	}
}

type noopRecorder struct{}

func (noopRecorder) RecordEvent(string, string, string, time.Duration)  {}
func (noopRecorder) RecordDispatch(string, string, *push.Report, error) {}
func (noopRecorder) RecordDedup(string, string, dedup.Result, error)    {}
