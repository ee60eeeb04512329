package doorbell

import "errors"

// ErrNoDispatcher is returned when a route needs to notify but the router has
// no dispatcher.
var ErrNoDispatcher = errors.New("doorbell: no notification dispatcher")
