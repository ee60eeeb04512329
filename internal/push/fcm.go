package push

import (
	"context"
	"errors"
	"fmt"
	"time"

	"firebase.google.com/go/v4/messaging"
	gobreaker "github.com/sony/gobreaker/v2"
)

// maxMulticastTokens is the FCM limit on tokens per multicast message.
const maxMulticastTokens = 500

// MulticastSender is the subset of *messaging.Client used by FCM.
type MulticastSender interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// BreakerConfig controls when the FCM circuit opens.
type BreakerConfig struct {
	// ConsecutiveFailures opens the circuit after this many failed calls.
	ConsecutiveFailures uint32

	// OpenDuration is how long the circuit stays open before a probe.
	OpenDuration time.Duration

	// OnStateChange, if set, is called on every breaker transition.
	OnStateChange func(name, from, to string)
}

// FCM is a Transport backed by Firebase Cloud Messaging.
//
// Thread Safety: SendToDevices is safe for concurrent use.
type FCM struct {
	client MulticastSender
	cb     *gobreaker.CircuitBreaker[*messaging.BatchResponse]
	logger Logger
}

// NewFCM creates an FCM transport.
func NewFCM(client MulticastSender, cfg BreakerConfig, logger Logger) *FCM {
	if logger == nil {
		logger = noopLogger{}
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = 5
	}
	if cfg.OpenDuration <= 0 {
		cfg.OpenDuration = 30 * time.Second
	}

	f := &FCM{client: client, logger: logger}
	f.cb = gobreaker.NewCircuitBreaker[*messaging.BatchResponse](gobreaker.Settings{
		Name:        "fcm",
		MaxRequests: 1,
		Timeout:     cfg.OpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			f.logger.Warn("push circuit breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(name, from.String(), to.String())
			}
		},
	})
	return f
}

// SendToDevices implements Transport. Tokens are sent in chunks of at most
// 500; results are concatenated in token order.
func (f *FCM) SendToDevices(ctx context.Context, tokens []string, payload Payload) (*Report, error) {
	report := &Report{Results: make([]Result, 0, len(tokens))}

	for start := 0; start < len(tokens); start += maxMulticastTokens {
		end := min(start+maxMulticastTokens, len(tokens))
		chunk := tokens[start:end]

		resp, err := f.cb.Execute(func() (*messaging.BatchResponse, error) {
			return f.client.SendEachForMulticast(ctx, multicastMessage(chunk, payload))
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return report, fmt.Errorf("%w: circuit %s", ErrUnavailable, f.cb.State())
			}
			return report, fmt.Errorf("%w: multicast: %w", ErrUnavailable, err)
		}

		for i, token := range chunk {
			res := Result{Token: token}
			if i >= len(resp.Responses) {
				res.Err = errors.New("push: missing response for token")
			} else if r := resp.Responses[i]; r.Success {
				res.MessageID = r.MessageID
			} else {
				res.Err = r.Error
				if res.Err == nil {
					res.Err = errors.New("push: delivery failed")
				}
			}
			report.add(res)
		}
	}

	f.logger.Info("push multicast sent",
		"transport", "fcm",
		"type", payload.Notification.Type,
		"success", report.SuccessCount,
		"failure", report.FailureCount,
	)
	return report, nil
}

// State returns the circuit breaker state: closed, half-open or open.
func (f *FCM) State() string {
	return f.cb.State().String()
}

func multicastMessage(tokens []string, payload Payload) *messaging.MulticastMessage {
	n := payload.Notification
	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: map[string]string{"type": n.Type},
	}
	if n.ClickAction != "" {
		msg.Data["click_action"] = n.ClickAction
		msg.Webpush = &messaging.WebpushConfig{
			FCMOptions: &messaging.WebpushFCMOptions{Link: n.ClickAction},
		}
		msg.Android = &messaging.AndroidConfig{
			Notification: &messaging.AndroidNotification{ClickAction: n.ClickAction},
		}
	}
	return msg
}
