package event

import "errors"

var (
	// ErrDeleted is returned when the record was removed. Deletions are no-ops.
	ErrDeleted = errors.New("event: record deleted")

	// ErrMissingPayload is returned when the payload is absent or does not
	// match the shape its type requires.
	ErrMissingPayload = errors.New("event: missing payload")

	// ErrUnknownEventType is returned for a type outside the recognised set.
	ErrUnknownEventType = errors.New("event: unknown event type")
)
