package push

import "errors"

// ErrUnavailable is returned when the transport cannot be reached at all,
// including while its circuit breaker is open.
var ErrUnavailable = errors.New("push: transport unavailable")
