package push

import "context"

// Notification is the user-visible part of a push message.
type Notification struct {
	Title       string `json:"title"`
	Body        string `json:"body"`
	Type        string `json:"type"`
	ClickAction string `json:"click_action,omitempty"`
}

// Payload is the message delivered to every token:
//
//	{"notification": {"title": ..., "body": ..., "type": ..., "click_action": ...}}
type Payload struct {
	Notification Notification `json:"notification"`
}

// Result is the delivery outcome for one token.
type Result struct {
	Token     string
	MessageID string
	Err       error
}

// Report aggregates the outcome of one SendToDevices call. Results are in the
// order of the tokens passed in.
type Report struct {
	SuccessCount int
	FailureCount int
	Results      []Result
}

// add appends r and updates the counters.
func (r *Report) add(res Result) {
	if res.Err != nil {
		r.FailureCount++
	} else {
		r.SuccessCount++
	}
	r.Results = append(r.Results, res)
}

// FailedTokens returns the tokens whose delivery failed.
func (r *Report) FailedTokens() []string {
	if r == nil {
		return nil
	}
	var failed []string
	for _, res := range r.Results {
		if res.Err != nil {
			failed = append(failed, res.Token)
		}
	}
	return failed
}

// Transport delivers a payload to a set of device tokens.
type Transport interface {
	// SendToDevices delivers payload to every token. Per-token failures are
	// reported in the Report; the error is reserved for the transport as a
	// whole failing (ErrUnavailable).
	SendToDevices(ctx context.Context, tokens []string, payload Payload) (*Report, error)
}

// Logger is the logging interface used by transports.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}
