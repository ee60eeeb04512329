// Package push delivers notification payloads to device tokens.
//
// Transport is the delivery abstraction the notification dispatcher calls once
// per event. Two implementations exist:
//
//   - FCM:  Firebase Cloud Messaging multicast, behind a circuit breaker
//   - MQTT: one message per token on doorbell/push/{token}, for LAN installs
//
// Transports report per-token outcomes in a Report. They never retry, and
// they never prune tokens that the provider reports as invalid.
package push
