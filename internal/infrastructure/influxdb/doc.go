// Package influxdb records doorbell telemetry in InfluxDB.
//
// The Client implements doorbell.Recorder and writes three measurements:
//
//	doorbell_events      one point per handled write (status, type, duration)
//	doorbell_dispatches  one point per notification dispatch (success/failure counts)
//	doorbell_dedup       one point per merge that removed duplicates
//
// Writes use the non-blocking, batched write API; asynchronous write errors
// are delivered to the SetOnError callback. A disabled or disconnected client
// drops points silently.
package influxdb
