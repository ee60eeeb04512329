package notification

import (
	"fmt"
	"strings"

	"github.com/nerrad567/doorbell-core/internal/event"
	"github.com/nerrad567/doorbell-core/internal/push"
)

// Payload and Notification are the push wire types.
type (
	Payload      = push.Payload
	Notification = push.Notification
)

// DefaultAppURLTemplate is expanded with the project id to build click_action.
const DefaultAppURLTemplate = "https://%s.firebaseapp.com/"

// AppURL builds the URL a notification opens. An empty template uses
// DefaultAppURLTemplate.
func AppURL(template, projectID string) string {
	if template == "" {
		template = DefaultAppURLTemplate
	}
	if !strings.Contains(template, "%s") {
		return template
	}
	return fmt.Sprintf(template, projectID)
}

// Templates renders the fixed Dutch notification texts.
type Templates struct {
	AppURL string
}

// Online is sent when a doorbell reports ONLINE.
func (t Templates) Online(doorbellID string) Payload {
	return Payload{Notification: Notification{
		Title:       "Je deurbel ging online",
		Body:        fmt.Sprintf("Het gaat om deurbell %s.", doorbellID),
		Type:        string(event.TypeOnline),
		ClickAction: t.AppURL,
	}}
}

// Offline is sent when a doorbell reports OFFLINE.
func (t Templates) Offline(doorbellID string) Payload {
	return Payload{Notification: Notification{
		Title:       "Je deurbel ging offline",
		Body:        fmt.Sprintf("Het gaat om deurbell %s.", doorbellID),
		Type:        string(event.TypeOffline),
		ClickAction: t.AppURL,
	}}
}

// Ring is sent for RING events when server-side ring delivery is enabled.
func (t Templates) Ring(doorbellID string) Payload {
	return Payload{Notification: Notification{
		Title: "Er belde iemand aan.",
		Body:  fmt.Sprintf("Bij de deurbell %s.", doorbellID),
		Type:  string(event.TypeRing),
	}}
}

// Sensor is sent for SENSOR_TRIGGERED events when server-side delivery is enabled.
func (t Templates) Sensor(message string) Payload {
	return Payload{Notification: Notification{
		Title: "Een sensor detecteerde iets",
		Body:  message,
		Type:  string(event.TypeSensorTriggered),
	}}
}
