package store

import (
	"fmt"
	"strings"
)

// TagChild is the child path of an event that carries its correlation tag.
const TagChild = "payload/tag"

// SettingsKey is the reserved key in a token registry that holds preferences.
const SettingsKey = "settings"

// DoorbellEvents returns the collection path of a doorbell's events.
//
// Example: doorbells/bell-1/events
func DoorbellEvents(doorbellID string) string {
	return fmt.Sprintf("doorbells/%s/events", doorbellID)
}

// DoorbellEvent returns the path of a single event.
//
// Example: doorbells/bell-1/events/1697280000000
func DoorbellEvent(doorbellID, timestamp string) string {
	return fmt.Sprintf("doorbells/%s/events/%s", doorbellID, timestamp)
}

// DoorbellState returns the path of one state field.
//
// Example: doorbells/bell-1/state/online
func DoorbellState(doorbellID, field string) string {
	return fmt.Sprintf("doorbells/%s/state/%s", doorbellID, field)
}

// DoorbellUsers returns the path of a doorbell's subscriber set.
//
// Example: doorbells/bell-1/users
func DoorbellUsers(doorbellID string) string {
	return fmt.Sprintf("doorbells/%s/users", doorbellID)
}

// UserTokens returns the path of a subscriber's token registry.
//
// Example: users/uid-1/gcm-ids
func UserTokens(uid string) string {
	return fmt.Sprintf("users/%s/gcm-ids", uid)
}

// ValidateKey rejects keys that cannot be a single Realtime Database path segment.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidPath)
	}
	if strings.ContainsAny(key, ".$#[]/") {
		return fmt.Errorf("%w: key %q contains one of . $ # [ ] /", ErrInvalidPath, key)
	}
	return nil
}
