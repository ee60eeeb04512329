// Package doorbell reacts to event writes: it keeps the derived doorbell
// state current, triggers notifications and runs the duplicate merge.
//
// Handler.HandleEventWrite is the single entry point, called once per write
// to doorbells/{doorbellId}/events/{timestamp} by whichever adapter observes
// the store (MQTT ingest, the HTTP webhook). The Router maps each event type
// to its action:
//
//	ONLINE           state/online = true,  then notify ONLINE
//	OFFLINE          state/online = false, then notify OFFLINE
//	TOGGLE_GONG      state/gong = payload.isGongOn
//	RING             nothing (handled on the doorbell)
//	SENSOR_TRIGGERED nothing (handled on the doorbell)
//
// With notifications.server_side_ring enabled, RING and SENSOR_TRIGGERED
// notify from the server as well. The state write always completes before the
// notification is sent.
package doorbell
