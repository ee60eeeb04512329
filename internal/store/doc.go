// Package store is the adapter to the hierarchical key-value store that holds
// doorbell, user and event records.
//
// The layout mirrors the Realtime Database tree the doorbells write to:
//
//	doorbells/{doorbellId}/events/{timestamp}  event records
//	doorbells/{doorbellId}/state/{online,gong} derived state
//	doorbells/{doorbellId}/users/{uid}         subscriber set
//	users/{uid}/gcm-ids/{token|settings}       token registry
//
// Three backends implement Store:
//
//   - Firebase: the managed Realtime Database (production)
//   - SQLite:   flattened leaves in a local database file (offline installs)
//   - Memory:   a mutex-guarded tree (tests and development)
//
// The store is synchronised per key only. Callers that touch several keys
// (the dedup merge) must tolerate intermediate states.
package store
