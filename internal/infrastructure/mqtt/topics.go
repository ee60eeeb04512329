package mqtt

import (
	"fmt"
	"strings"
)

// TopicPrefix is the root of every doorbell topic.
const TopicPrefix = "doorbell"

// Topics provides builders for doorbell MQTT topics.
//
//	topics := mqtt.Topics{}
//	topics.DoorbellEvent("bell-1", "1697280000000")
//	// Returns: "doorbell/bell-1/events/1697280000000"
type Topics struct{}

// DoorbellEvent returns the topic a doorbell publishes one event record to.
//
// Example: doorbell/bell-1/events/1697280000000
func (Topics) DoorbellEvent(doorbellID, timestamp string) string {
	return fmt.Sprintf("%s/%s/events/%s", TopicPrefix, doorbellID, timestamp)
}

// AllDoorbellEvents returns the subscription pattern for every event of every doorbell.
//
// Pattern: doorbell/+/events/+
func (Topics) AllDoorbellEvents() string {
	return TopicPrefix + "/+/events/+"
}

// PushToken returns the topic a companion app with token listens on.
//
// Example: doorbell/push/fcm-token-1
func (Topics) PushToken(token string) string {
	return fmt.Sprintf("%s/push/%s", TopicPrefix, token)
}

// SystemStatus returns the retained core status topic.
//
// Example: doorbell/system/status
func (Topics) SystemStatus() string {
	return TopicPrefix + "/system/status"
}

// ParseDoorbellEvent extracts the doorbell id and timestamp from an event topic.
func (Topics) ParseDoorbellEvent(topic string) (doorbellID, timestamp string, ok bool) {
	parts := strings.Split(topic, "/")
	if len(parts) != 4 || parts[0] != TopicPrefix || parts[2] != "events" {
		return "", "", false
	}
	if parts[1] == "" || parts[3] == "" || parts[1] == "push" || parts[1] == "system" {
		return "", "", false
	}
	return parts[1], parts[3], true
}
