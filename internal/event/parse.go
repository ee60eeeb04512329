package event

import "fmt"

// Parse validates a raw record and returns the typed event.
//
// The payload is checked before the type, so a record with neither reports
// ErrMissingPayload.
func Parse(doorbellID, timestamp string, value any) (*Event, error) {
	if value == nil {
		return nil, ErrDeleted
	}
	raw, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: record is %T, not an object", ErrMissingPayload, value)
	}

	payload, ok := raw["payload"].(map[string]any)
	if !ok {
		return nil, ErrMissingPayload
	}

	typeName, _ := raw["type"].(string)
	typ := Type(typeName)
	if !typ.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, typeName)
	}

	p, err := decodePayload(typ, payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		DoorbellID: doorbellID,
		Timestamp:  timestamp,
		Type:       typ,
		Payload:    p,
		Raw:        raw,
	}, nil
}

func decodePayload(typ Type, m map[string]any) (Payload, error) {
	tag, _ := m["tag"].(string)

	switch typ {
	case TypeRing:
		return RingPayload{Tag: tag}, nil
	case TypeOnline:
		return OnlinePayload{Tag: tag}, nil
	case TypeOffline:
		return OfflinePayload{Tag: tag}, nil
	case TypeToggleGong:
		on, ok := m["isGongOn"].(bool)
		if !ok {
			return nil, fmt.Errorf("%w: %s requires boolean isGongOn", ErrMissingPayload, typ)
		}
		return GongPayload{Tag: tag, IsGongOn: on}, nil
	case TypeSensorTriggered:
		msg, _ := m["message"].(string)
		return SensorPayload{Tag: tag, Message: msg}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, typ)
}

// Tag extracts payload.tag from a raw record without validating its type.
func Tag(value any) string {
	raw, ok := value.(map[string]any)
	if !ok {
		return ""
	}
	payload, ok := raw["payload"].(map[string]any)
	if !ok {
		return ""
	}
	tag, _ := payload["tag"].(string)
	return tag
}
