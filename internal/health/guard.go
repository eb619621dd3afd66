package health

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// BackendName names the item backend breaker in logs.
const BackendName = "backend"

// State is the breaker state.
type State = gobreaker.State

// Breaker states.
const (
	StateClosed   = gobreaker.StateClosed
	StateOpen     = gobreaker.StateOpen
	StateHalfOpen = gobreaker.StateHalfOpen
)

// Report is the body of the frontend health endpoint.
type Report struct {
	Since               time.Time `json:"since"`
	Status              string    `json:"status"`
	Backend             string    `json:"backend"`
	ConsecutiveFailures uint32    `json:"consecutive_failures"`
}

// statusError is implemented by errors that carry the backend's HTTP status.
type statusError interface {
	HTTPStatus() int
}

// Guard admits calls to the item backend while it looks healthy. A nil
// *Guard admits everything.
type Guard struct {
	cb    *gobreaker.CircuitBreaker[any]
	since atomic.Int64
}

// NewGuard creates the backend guard. logger may be nil.
func NewGuard(cfg CircuitBreakerConfig, logger *zerolog.Logger) *Guard {
	g := &Guard{}
	g.since.Store(time.Now().UnixNano())

	threshold := uint32(cfg.GetFailureThreshold()) //nolint:gosec // getter never returns a negative value
	g.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        BackendName,
		MaxRequests: uint32(cfg.GetHalfOpenRequests()), //nolint:gosec // getter never returns a negative value
		Timeout:     cfg.GetOpenDuration(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			g.since.Store(time.Now().UnixNano())
			if logger == nil {
				return
			}
			event := logger.Info()
			if to == gobreaker.StateOpen {
				event = logger.Warn()
			}
			event.Str("from", from.String()).Str("to", to.String()).Msg("backend breaker state change")
		},
		IsSuccessful: func(err error) bool {
			return !CountsAgainstBackend(err)
		},
	})
	return g
}

// Call runs fn unless the breaker is open, in which case it returns
// ErrCircuitOpen without calling fn. The error of fn is returned unchanged.
func Call[T any](ctx context.Context, g *Guard, fn func(context.Context) (T, error)) (T, error) {
	if g == nil {
		return fn(ctx)
	}

	var result T
	_, err := g.cb.Execute(func() (any, error) {
		var err error
		result, err = fn(ctx)
		return nil, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		var zero T
		return zero, ErrCircuitOpen
	}
	return result, err
}

// State returns the breaker state.
func (g *Guard) State() State {
	if g == nil {
		return StateClosed
	}
	return g.cb.State()
}

// Report summarizes the guard. The frontend is "degraded" while the breaker
// is open and "ok" otherwise.
func (g *Guard) Report() Report {
	if g == nil {
		return Report{Status: "ok", Backend: StateClosed.String()}
	}
	state := g.State()
	status := "ok"
	if state == StateOpen {
		status = "degraded"
	}
	return Report{
		Status:              status,
		Backend:             state.String(),
		ConsecutiveFailures: g.cb.Counts().ConsecutiveFailures,
		Since:               time.Unix(0, g.since.Load()).UTC(),
	}
}

// CountsAgainstBackend reports whether err says the backend is unhealthy.
// Errors carrying an HTTP status are judged by ShouldCountAsFailure; other
// errors count unless the caller canceled.
func CountsAgainstBackend(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var se statusError
	if errors.As(err, &se) && se.HTTPStatus() != 0 {
		return ShouldCountAsFailure(se.HTTPStatus(), nil)
	}
	return true
}

// ShouldCountAsFailure reports whether a backend outcome says the backend is
// unhealthy. Transport errors, 5xx and 429 count; 4xx answers such as a
// missing session are the user's problem, not the backend's.
func ShouldCountAsFailure(statusCode int, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled)
	}
	return statusCode >= http.StatusInternalServerError || statusCode == http.StatusTooManyRequests
}
