package credentials

import (
	"net/http"
	"strings"

	"github.com/samber/mo"
)

// ForwardedRequestCookieSource forwards the cookies of an inbound request.
// It is used while handling a browser request on the server, where no
// cookie jar exists and ambient credential inclusion is impossible.
type ForwardedRequestCookieSource struct {
	incoming *http.Request
	relay    http.ResponseWriter
	names    Names
}

// ForwardedOption configures a ForwardedRequestCookieSource.
type ForwardedOption func(*ForwardedRequestCookieSource)

// WithResponseWriter relays cookies set by the backend to the browser
// through w. Without it, backend Set-Cookie headers are dropped.
func WithResponseWriter(w http.ResponseWriter) ForwardedOption {
	return func(s *ForwardedRequestCookieSource) {
		s.relay = w
	}
}

// NewForwardedRequestCookieSource creates a source for the inbound request r.
func NewForwardedRequestCookieSource(r *http.Request, names Names, opts ...ForwardedOption) *ForwardedRequestCookieSource {
	s := &ForwardedRequestCookieSource{
		incoming: r,
		names:    names,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attach copies the inbound Cookie header verbatim. HTTP/2 clients may split
// cookies across several header fields; those are joined the way RFC 9113
// prescribes before forwarding.
func (s *ForwardedRequestCookieSource) Attach(req *http.Request) {
	header := ForwardedCookieHeader(s.incoming)
	if header == "" {
		return
	}
	req.Header.Set("Cookie", header)
}

// CSRFToken reads the anti-forgery cookie of the inbound request.
func (s *ForwardedRequestCookieSource) CSRFToken() mo.Option[string] {
	c, err := s.incoming.Cookie(s.names.CSRF)
	if err != nil || c.Value == "" {
		return mo.None[string]()
	}
	return mo.Some(c.Value)
}

// Absorb relays backend cookies to the browser. The Domain attribute is
// cleared so the cookies bind to the frontend host instead of the backend.
func (s *ForwardedRequestCookieSource) Absorb(resp *http.Response) {
	if s.relay == nil {
		return
	}
	for _, c := range resp.Cookies() {
		c.Domain = ""
		http.SetCookie(s.relay, c)
	}
}

// Kind returns KindForwarded.
func (s *ForwardedRequestCookieSource) Kind() Kind {
	return KindForwarded
}

// ForwardedCookieHeader returns the inbound Cookie header as it will be forwarded.
func ForwardedCookieHeader(r *http.Request) string {
	if r == nil {
		return ""
	}
	return strings.Join(r.Header.Values("Cookie"), "; ")
}

var _ Source = (*ForwardedRequestCookieSource)(nil)
