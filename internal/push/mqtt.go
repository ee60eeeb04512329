package push

import (
	"context"
	"encoding/json"
	"fmt"
)

// Publisher is the subset of the MQTT client used by MQTT.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// TopicFunc maps a device token to its MQTT topic.
type TopicFunc func(token string) string

// MQTT is a Transport that publishes each payload to a per-token topic. LAN
// companion apps subscribe to their own token topic.
type MQTT struct {
	client Publisher
	topic  TopicFunc
	qos    byte
	logger Logger
}

// NewMQTT creates an MQTT transport.
func NewMQTT(client Publisher, topic TopicFunc, qos byte, logger Logger) *MQTT {
	if logger == nil {
		logger = noopLogger{}
	}
	return &MQTT{client: client, topic: topic, qos: qos, logger: logger}
}

// SendToDevices implements Transport.
func (m *MQTT) SendToDevices(ctx context.Context, tokens []string, payload Payload) (*Report, error) {
	if !m.client.IsConnected() {
		return nil, fmt.Errorf("%w: mqtt not connected", ErrUnavailable)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding push payload: %w", err)
	}

	report := &Report{Results: make([]Result, 0, len(tokens))}
	for _, token := range tokens {
		if err := ctx.Err(); err != nil {
			report.add(Result{Token: token, Err: err})
			continue
		}
		res := Result{Token: token}
		if err := m.client.Publish(m.topic(token), data, m.qos, false); err != nil {
			res.Err = err
		}
		report.add(res)
	}

	m.logger.Info("push messages published",
		"transport", "mqtt",
		"type", payload.Notification.Type,
		"success", report.SuccessCount,
		"failure", report.FailureCount,
	)
	return report, nil
}
