package doorbell

import (
	"context"
	"fmt"

	"github.com/nerrad567/doorbell-core/internal/event"
	"github.com/nerrad567/doorbell-core/internal/notification"
	"github.com/nerrad567/doorbell-core/internal/push"
	"github.com/nerrad567/doorbell-core/internal/store"
)

// State fields under doorbells/{id}/state.
const (
	StateOnline = "online"
	StateGong   = "gong"
)

// Dispatcher sends a notification to the subscribers of a doorbell.
type Dispatcher interface {
	Dispatch(ctx context.Context, doorbellID string, payload notification.Payload) (*push.Report, error)
}

// Outcome describes what the router did for one event.
type Outcome struct {
	// StatePath is the state field written, empty when none was.
	StatePath string

	// StateValue is the value written to StatePath.
	StateValue any

	// Dispatched is true when a notification dispatch was attempted.
	Dispatched bool

	// Report is the transport report, nil when nothing was sent.
	Report *push.Report
}

// RouterOptions configures optional router behaviour.
type RouterOptions struct {
	// ServerSideRing makes RING and SENSOR_TRIGGERED notify from the server.
	ServerSideRing bool
}

// Router applies the state transition and notification of each event type.
type Router struct {
	store      store.Writer
	dispatcher Dispatcher
	templates  notification.Templates
	opts       RouterOptions
}

// NewRouter creates a router.
func NewRouter(s store.Writer, dispatcher Dispatcher, templates notification.Templates, opts RouterOptions) *Router {
	return &Router{
		store:      s,
		dispatcher: dispatcher,
		templates:  templates,
		opts:       opts,
	}
}

// Route applies ev. An unrecognised type fails with event.ErrUnknownEventType
// before anything is written.
func (r *Router) Route(ctx context.Context, ev *event.Event) (Outcome, error) {
	switch ev.Type {
	case event.TypeOnline:
		return r.setThenNotify(ctx, ev.DoorbellID, true, r.templates.Online(ev.DoorbellID))

	case event.TypeOffline:
		return r.setThenNotify(ctx, ev.DoorbellID, false, r.templates.Offline(ev.DoorbellID))

	case event.TypeToggleGong:
		p, ok := ev.Payload.(event.GongPayload)
		if !ok {
			return Outcome{}, fmt.Errorf("%w: %s payload is %T", event.ErrMissingPayload, ev.Type, ev.Payload)
		}
		path := store.DoorbellState(ev.DoorbellID, StateGong)
		if err := r.store.Set(ctx, path, p.IsGongOn); err != nil {
			return Outcome{}, fmt.Errorf("setting gong state: %w", err)
		}
		return Outcome{StatePath: path, StateValue: p.IsGongOn}, nil

	case event.TypeRing:
		if !r.opts.ServerSideRing {
			return Outcome{}, nil
		}
		return r.notify(ctx, Outcome{}, ev.DoorbellID, r.templates.Ring(ev.DoorbellID))

	case event.TypeSensorTriggered:
		if !r.opts.ServerSideRing {
			return Outcome{}, nil
		}
		var msg string
		if p, ok := ev.Payload.(event.SensorPayload); ok {
			msg = p.Message
		}
		return r.notify(ctx, Outcome{}, ev.DoorbellID, r.templates.Sensor(msg))
	}

	return Outcome{}, fmt.Errorf("%w: %q", event.ErrUnknownEventType, ev.Type)
}

func (r *Router) setThenNotify(ctx context.Context, doorbellID string, online bool, payload notification.Payload) (Outcome, error) {
	path := store.DoorbellState(doorbellID, StateOnline)
	if err := r.store.Set(ctx, path, online); err != nil {
		return Outcome{}, fmt.Errorf("setting online state: %w", err)
	}
	return r.notify(ctx, Outcome{StatePath: path, StateValue: online}, doorbellID, payload)
}

func (r *Router) notify(ctx context.Context, out Outcome, doorbellID string, payload notification.Payload) (Outcome, error) {
	if r.dispatcher == nil {
		return out, ErrNoDispatcher
	}
	out.Dispatched = true
	report, err := r.dispatcher.Dispatch(ctx, doorbellID, payload)
	out.Report = report
	if err != nil {
		return out, fmt.Errorf("dispatching %s: %w", payload.Notification.Type, err)
	}
	return out, nil
}
