package notification

import (
	"slices"

	"github.com/nerrad567/doorbell-core/internal/store"
)

// Settings are a subscriber's notification preferences.
type Settings struct {
	// AllowedTypes lists the notification types the user opted into.
	// Types not listed are never delivered.
	AllowedTypes []string

	// ReceiveNotifications is the master switch.
	ReceiveNotifications bool
}

// DefaultSettings applies to users with no stored settings: nothing allowed,
// master switch on.
func DefaultSettings() Settings {
	return Settings{AllowedTypes: []string{}, ReceiveNotifications: true}
}

// Allows reports whether typ is in AllowedTypes.
func (s Settings) Allows(typ string) bool {
	return slices.Contains(s.AllowedTypes, typ)
}

// EffectiveSettings overlays the stored settings record of a registry onto
// the defaults. Fields that are absent, or of the wrong type, keep their
// default.
func EffectiveSettings(registry map[string]any) Settings {
	s := DefaultSettings()

	stored, ok := registry[store.SettingsKey].(map[string]any)
	if !ok {
		return s
	}
	if raw, ok := stored["allowedTypes"].([]any); ok {
		types := make([]string, 0, len(raw))
		for _, v := range raw {
			if typ, ok := v.(string); ok {
				types = append(types, typ)
			}
		}
		s.AllowedTypes = types
	}
	if on, ok := stored["receiveNotifications"].(bool); ok {
		s.ReceiveNotifications = on
	}
	return s
}

// Resolver selects the device tokens of one subscriber for a notification type.
type Resolver struct {
	logger Logger
}

// NewResolver creates a resolver. The logger records skipped subscribers.
func NewResolver(logger Logger) *Resolver {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Resolver{logger: logger}
}

// Resolve returns the sorted tokens of registry that should receive typ.
func (r *Resolver) Resolve(uid string, registry map[string]any, typ string) []string {
	settings := EffectiveSettings(registry)

	if !settings.Allows(typ) {
		r.logger.Info("notification type not allowed for user", "uid", uid, "type", typ)
		return nil
	}
	if !settings.ReceiveNotifications {
		r.logger.Info("user has notifications disabled", "uid", uid, "type", typ)
		return nil
	}

	tokens := make([]string, 0, len(registry))
	for key := range registry {
		if key != store.SettingsKey {
			tokens = append(tokens, key)
		}
	}
	slices.Sort(tokens)
	return tokens
}
