// Package authgate decides, once per page load, whether a page shows its
// data view or a login prompt.
//
// A Gate starts Unverified. The first backend outcome it observes moves it
// to Authenticated or Unauthenticated and it never moves again. Failures
// after that are either shown next to the data (LocalError) or, when they
// mean the session is gone, turn into a login prompt.
package authgate

import (
	"github.com/omarluq/itemdesk/internal/apiclient"
)

// State is the authentication state of one page load.
type State int

// Gate states.
const (
	Unverified State = iota
	Authenticated
	Unauthenticated
)

func (s State) String() string {
	switch s {
	case Unverified:
		return "unverified"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Action tells the page what to render.
type Action int

// Gate actions.
const (
	// Render shows the data view.
	Render Action = iota
	// Login replaces the data view with a login prompt.
	Login
	// LocalError shows Message next to the data view.
	LocalError
)

func (a Action) String() string {
	switch a {
	case Render:
		return "render"
	case Login:
		return "login"
	case LocalError:
		return "local_error"
	default:
		return "unknown"
	}
}

// Decision is the outcome of one observation.
type Decision struct {
	Message string
	Action  Action
}

// Gate is the per-page-load state machine. It is not safe for concurrent use.
type Gate struct {
	state State
}

// New returns an Unverified gate.
func New() *Gate {
	return &Gate{}
}

// State returns the current state.
func (g *Gate) State() State {
	return g.state
}

// ShowData reports whether the data view may be shown.
func (g *Gate) ShowData() bool {
	return g.state == Authenticated
}

// Observe feeds the outcome of a backend call into the gate.
func (g *Gate) Observe(err error) Decision {
	sessionLost := needsLogin(err)

	if g.state == Unverified {
		if sessionLost {
			g.state = Unauthenticated
		} else {
			g.state = Authenticated
		}
	}

	if g.state == Unauthenticated || sessionLost {
		return Decision{Action: Login, Message: apiclient.MsgAuthRequired}
	}
	if err != nil {
		return Decision{Action: LocalError, Message: err.Error()}
	}
	return Decision{Action: Render}
}

// needsLogin reports whether err means the user must log in again: no
// session, or a rejected anti-forgery token.
func needsLogin(err error) bool {
	f, ok := apiclient.AsFailure(err)
	if !ok {
		return false
	}
	return f.Kind == apiclient.KindUnauthenticated || f.CSRFRejected()
}
