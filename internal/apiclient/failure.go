package apiclient

import (
	"errors"
	"net/http"
	"strings"

	"github.com/samber/lo"
)

// Kind tags a classified failure. Each failed request carries exactly one.
type Kind string

const (
	// KindUnauthenticated means no valid session (HTTP 401).
	KindUnauthenticated Kind = "unauthenticated"
	// KindForbidden means an anti-forgery mismatch or authorization denial (HTTP 403).
	KindForbidden Kind = "forbidden"
	// KindNotFound means the addressed item does not exist (HTTP 404).
	KindNotFound Kind = "not_found"
	// KindGeneric covers every other failure, including an unreachable backend.
	KindGeneric Kind = "generic"
)

// Fixed messages used when the backend supplies none.
const (
	MsgAuthRequired       = "Authentication required"
	MsgCSRFFailed         = "CSRF verification failed"
	MsgForbidden          = "Permission denied"
	MsgNotFound           = "Not found"
	MsgBackendUnavailable = "Backend unavailable"
	MsgUnknown            = "Unknown error"
)

// Failure is the typed outcome of a failed backend request.
type Failure struct {
	cause   error
	Kind    Kind
	Message string
	// Op names the client operation that failed, e.g. "update item".
	Op string
	// Status is the HTTP status code, or 0 when no response was received.
	Status int
	csrf   bool
}

// Error returns the human-readable failure message.
func (f *Failure) Error() string {
	return f.Message
}

// HTTPStatus returns the response status, or 0 when none was received.
func (f *Failure) HTTPStatus() int {
	return f.Status
}

// Unwrap returns the transport error behind a failure, if any.
func (f *Failure) Unwrap() error {
	return f.cause
}

// CSRFRejected reports whether the failure is an anti-forgery token rejection,
// as opposed to a plain authorization denial. Only a 403 answering a mutating
// request can be one.
func (f *Failure) CSRFRejected() bool {
	return f.Kind == KindForbidden && f.csrf
}

// NewFailure creates a failure of the given kind.
func NewFailure(kind Kind, status int, message string) *Failure {
	return &Failure{Kind: kind, Status: status, Message: message}
}

// NewCSRFFailure creates a 403 anti-forgery rejection.
func NewCSRFFailure(message string) *Failure {
	f := NewFailure(KindForbidden, http.StatusForbidden, message)
	f.csrf = true
	return f
}

// forbidden classifies a 403. On a mutating request, a body naming CSRF or
// carrying no message is an anti-forgery rejection; anything else, and every
// 403 on a read, is a plain denial.
func forbidden(method string, body []byte) *Failure {
	message := ErrorMessage(body, "")
	if IsMutating(method) && (message == "" || strings.Contains(strings.ToLower(message), "csrf")) {
		return NewCSRFFailure(lo.Ternary(message == "", MsgCSRFFailed, message))
	}
	return NewFailure(KindForbidden, http.StatusForbidden, lo.Ternary(message == "", MsgForbidden, message))
}

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsKind reports whether err is a Failure of the given kind.
func IsKind(err error, kind Kind) bool {
	f, ok := AsFailure(err)
	return ok && f.Kind == kind
}

// KindOf returns the kind of a Failure, or "" when err is not one.
func KindOf(err error) Kind {
	if f, ok := AsFailure(err); ok {
		return f.Kind
	}
	return ""
}
