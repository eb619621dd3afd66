// Package apiclient is the authenticated request layer for the item backend.
//
// A Client combines a Builder, which attaches cookies and the anti-forgery
// header from a credentials.Source, with Classify, which maps every response
// to a payload or a typed *Failure. Failures are returned unchanged to the
// caller; the client never retries.
package apiclient

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/omarluq/itemdesk/internal/credentials"
)

// DefaultTimeout bounds a single backend request.
const DefaultTimeout = 10 * time.Second

// Client performs typed backend operations for one credentials source.
type Client struct {
	source     credentials.Source
	builder    *Builder
	httpClient *http.Client
	observer   Observer
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for backend requests. The client
// should not carry a cookie jar; cookies are managed by the source.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// WithObserver reports each backend request to o.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// WithTracerProvider records backend spans with tp instead of the global
// provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// New creates a Client for the backend at baseURL.
func New(baseURL string, source credentials.Source, names credentials.Names, opts ...Option) *Client {
	c := &Client{
		source:     source,
		builder:    NewBuilder(baseURL, source, names),
		httpClient: &http.Client{Timeout: DefaultTimeout},
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Source returns the credentials source of the client.
func (c *Client) Source() credentials.Source {
	return c.source
}

// do sends one request and classifies its response into out.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any, fallback string) error {
	ctx, span := startSpan(ctx, c.tracer, op, method, path, c.source.Kind())
	start := time.Now()

	err := c.roundTrip(ctx, method, path, body, out, fallback)
	if f, ok := AsFailure(err); ok {
		f.Op = op
	}

	endSpan(span, err)
	if c.observer != nil {
		c.observer.ObserveRequest(method, op, Outcome(err), time.Since(start))
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out any, fallback string) error {
	req, err := c.builder.Build(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		f := NewFailure(KindGeneric, 0, MsgBackendUnavailable)
		f.cause = err
		return f
	}
	defer func() {
		//nolint:errcheck // body close error is not actionable
		resp.Body.Close()
	}()

	c.source.Absorb(resp)

	return Classify(resp, out, fallback)
}
