package health

import "errors"

// ErrCircuitOpen is returned by Call while the backend breaker rejects requests.
var ErrCircuitOpen = errors.New("health: circuit breaker is open")
