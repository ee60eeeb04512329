package trigger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/doorbell-core/internal/doorbell"
	"github.com/nerrad567/doorbell-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/doorbell-core/internal/store"
)

// defaultTimeout bounds the store writes and handler call for one message.
const defaultTimeout = 30 * time.Second

// ErrBadTopic is returned for a message on a topic that is not an event topic.
var ErrBadTopic = errors.New("trigger: not a doorbell event topic")

// EventHandler processes one event write.
type EventHandler interface {
	HandleEventWrite(ctx context.Context, doorbellID, timestamp string, prior, next any) (doorbell.Result, error)
}

// Subscriber is the subset of the MQTT client used to receive messages.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Logger is the logging interface used by the adapter.
type Logger interface {
	Debug(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}

// Ingest writes MQTT event publications to the store and triggers the handler.
type Ingest struct {
	store   store.Store
	handler EventHandler
	timeout time.Duration
	logger  Logger
}

// NewIngest creates an ingest adapter.
func NewIngest(s store.Store, handler EventHandler, logger Logger) *Ingest {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Ingest{store: s, handler: handler, timeout: defaultTimeout, logger: logger}
}

// Subscribe registers the adapter for every doorbell event topic.
func (in *Ingest) Subscribe(sub Subscriber, qos byte) error {
	if err := sub.Subscribe(mqtt.Topics{}.AllDoorbellEvents(), qos, in.HandleMessage); err != nil {
		return fmt.Errorf("subscribing to doorbell events: %w", err)
	}
	return nil
}

// HandleMessage implements mqtt.MessageHandler.
func (in *Ingest) HandleMessage(topic string, payload []byte) error {
	doorbellID, timestamp, ok := mqtt.Topics{}.ParseDoorbellEvent(topic)
	if !ok {
		return fmt.Errorf("%w: %s", ErrBadTopic, topic)
	}
	for _, key := range []string{doorbellID, timestamp} {
		if err := store.ValidateKey(key); err != nil {
			return err
		}
	}

	var next any
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &next); err != nil {
			return fmt.Errorf("decoding event %s/%s: %w", doorbellID, timestamp, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), in.timeout)
	defer cancel()

	_, err := in.Apply(ctx, doorbellID, timestamp, next)
	return err
}

// Apply writes next to the event path (nil deletes it) and calls the handler
// with the prior and new values.
func (in *Ingest) Apply(ctx context.Context, doorbellID, timestamp string, next any) (doorbell.Result, error) {
	path := store.DoorbellEvent(doorbellID, timestamp)

	prior, err := in.store.Get(ctx, path)
	if err != nil {
		return doorbell.Result{}, fmt.Errorf("reading prior event: %w", err)
	}
	if next == nil {
		err = in.store.Delete(ctx, path)
	} else {
		err = in.store.Set(ctx, path, next)
	}
	if err != nil {
		return doorbell.Result{}, fmt.Errorf("writing event: %w", err)
	}

	in.logger.Debug("event written", "doorbell_id", doorbellID, "timestamp", timestamp, "deleted", next == nil)
	return in.handler.HandleEventWrite(ctx, doorbellID, timestamp, prior, next)
}
