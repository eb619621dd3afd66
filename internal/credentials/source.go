// Package credentials provides the cookies and anti-forgery token that are
// attached to outgoing backend requests.
//
// Two sources exist, one per execution context:
//   - BrowserCookieSource: a client that owns a cookie jar (the CLI)
//   - ForwardedRequestCookieSource: a request handler forwarding the cookies
//     of the inbound browser request (server-side rendering)
//
// Both are read fresh on every request; neither caches a token.
package credentials

import (
	"net/http"

	"github.com/samber/mo"
)

// Kind identifies which execution context a Source serves.
type Kind string

const (
	// KindBrowser is a jar-backed source.
	KindBrowser Kind = "browser"
	// KindForwarded is a source built from an inbound request.
	KindForwarded Kind = "forwarded"
)

// Default cookie and header names used by the backend.
const (
	DefaultSessionCookie = "sessionid"
	DefaultCSRFCookie    = "csrftoken"
	DefaultCSRFHeader    = "X-CSRFToken"
)

// Names holds the cookie and header names agreed with the backend.
type Names struct {
	// Session is the cookie carrying the opaque session identifier.
	Session string
	// CSRF is the cookie mirroring the anti-forgery token in cleartext.
	CSRF string
	// Header is the request header the token is echoed in.
	Header string
}

// DefaultNames returns the backend's default cookie and header names.
func DefaultNames() Names {
	return Names{
		Session: DefaultSessionCookie,
		CSRF:    DefaultCSRFCookie,
		Header:  DefaultCSRFHeader,
	}
}

// Source supplies credentials for one outgoing request.
type Source interface {
	// Attach adds the cookies this source forwards to req.
	Attach(req *http.Request)

	// CSRFToken returns the current anti-forgery token, if any.
	CSRFToken() mo.Option[string]

	// Absorb receives the cookies the backend set on resp.
	Absorb(resp *http.Response)

	// Kind reports which execution context this source serves.
	Kind() Kind
}
