// Package trigger turns device publications into event writes.
//
// On LAN installs doorbells publish their event records over MQTT instead of
// writing to the Realtime Database. The Ingest adapter plays the role of the
// database trigger: it writes the record to the store, then calls the
// handler with the value before and after the write. An empty payload
// deletes the record.
package trigger
