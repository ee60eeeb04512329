// Package event defines the doorbell event record and its typed payloads.
//
// Doorbells append records under doorbells/{doorbellId}/events/{timestamp}:
//
//	{"type": "TOGGLE_GONG", "payload": {"tag": "a1b2", "isGongOn": true}}
//
// Parse turns a raw record into an Event whose Payload is one of the variant
// structs below, chosen by the record's type. Records the core cannot act on
// are reported with ErrDeleted, ErrMissingPayload or ErrUnknownEventType.
package event
