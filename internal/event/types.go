package event

// Type is the event discriminator written by the doorbell.
type Type string

// Recognised event types.
const (
	TypeRing            Type = "RING"
	TypeOnline          Type = "ONLINE"
	TypeOffline         Type = "OFFLINE"
	TypeToggleGong      Type = "TOGGLE_GONG"
	TypeSensorTriggered Type = "SENSOR_TRIGGERED"
)

// AllTypes lists every recognised type.
var AllTypes = []Type{TypeRing, TypeOnline, TypeOffline, TypeToggleGong, TypeSensorTriggered}

// Valid reports whether t is a recognised type.
func (t Type) Valid() bool {
	switch t {
	case TypeRing, TypeOnline, TypeOffline, TypeToggleGong, TypeSensorTriggered:
		return true
	}
	return false
}

func (t Type) String() string { return string(t) }

// Event is a parsed event record.
type Event struct {
	DoorbellID string
	Timestamp  string
	Type       Type
	Payload    Payload

	// Raw is the record as stored, used when the record is merged.
	Raw map[string]any
}

// Payload is implemented by every payload variant.
type Payload interface {
	// CorrelationTag returns the tag shared by near-duplicate reports of the
	// same occurrence. Empty means the event is never deduplicated.
	CorrelationTag() string
}

// RingPayload is the payload of a RING event.
type RingPayload struct {
	Tag string `json:"tag,omitempty"`
}

// OnlinePayload is the payload of an ONLINE event.
type OnlinePayload struct {
	Tag string `json:"tag,omitempty"`
}

// OfflinePayload is the payload of an OFFLINE event.
type OfflinePayload struct {
	Tag string `json:"tag,omitempty"`
}

// GongPayload is the payload of a TOGGLE_GONG event.
type GongPayload struct {
	Tag      string `json:"tag,omitempty"`
	IsGongOn bool   `json:"isGongOn"`
}

// SensorPayload is the payload of a SENSOR_TRIGGERED event.
type SensorPayload struct {
	Tag     string `json:"tag,omitempty"`
	Message string `json:"message,omitempty"`
}

func (p RingPayload) CorrelationTag() string    { return p.Tag }
func (p OnlinePayload) CorrelationTag() string  { return p.Tag }
func (p OfflinePayload) CorrelationTag() string { return p.Tag }
func (p GongPayload) CorrelationTag() string    { return p.Tag }
func (p SensorPayload) CorrelationTag() string  { return p.Tag }
