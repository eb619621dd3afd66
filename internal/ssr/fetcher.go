// Package ssr fetches backend data while rendering a page on the server.
//
// A Fetcher forwards the cookies of the browser request being handled and
// never reports an error: any failure is logged and the page renders its
// empty state instead.
package ssr

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/samber/mo"

	"github.com/omarluq/itemdesk/internal/apiclient"
	"github.com/omarluq/itemdesk/internal/cache"
	"github.com/omarluq/itemdesk/internal/credentials"
	"github.com/omarluq/itemdesk/internal/health"
	"github.com/omarluq/itemdesk/internal/metrics"
)

// Fallback reasons reported to metrics.
const (
	ReasonCircuitOpen = "circuit_open"
	ReasonFailure     = "failure"
)

// Fetcher is the server-side fetch adapter.
type Fetcher struct {
	guard   *health.Guard
	metrics *metrics.Metrics
	users   *cache.UserCache
	baseURL string
	names   credentials.Names
	opts    []apiclient.Option
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithMetrics records backend calls and fallbacks in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Fetcher) {
		f.metrics = m
	}
}

// WithUserCache remembers the user of each session in c.
func WithUserCache(c *cache.UserCache) Option {
	return func(f *Fetcher) {
		f.users = c
	}
}

// WithClientOptions passes options to every apiclient.Client the fetcher creates.
func WithClientOptions(opts ...apiclient.Option) Option {
	return func(f *Fetcher) {
		f.opts = append(f.opts, opts...)
	}
}

// NewFetcher creates a Fetcher for the backend at baseURL. A nil guard
// lets every call through.
func NewFetcher(baseURL string, names credentials.Names, guard *health.Guard, opts ...Option) *Fetcher {
	f := &Fetcher{
		baseURL: baseURL,
		names:   names,
		guard:   guard,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Client returns an apiclient.Client that forwards the cookies of r. Cookies
// the backend sets are relayed to the browser through w when w is non-nil.
func (f *Fetcher) Client(r *http.Request, w http.ResponseWriter) *apiclient.Client {
	var srcOpts []credentials.ForwardedOption
	if w != nil {
		srcOpts = append(srcOpts, credentials.WithResponseWriter(w))
	}
	src := credentials.NewForwardedRequestCookieSource(r, f.names, srcOpts...)

	opts := append([]apiclient.Option{}, f.opts...)
	if f.metrics != nil {
		opts = append(opts, apiclient.WithObserver(f.metrics))
	}
	return apiclient.New(f.baseURL, src, f.names, opts...)
}

// ListItems returns the items visible to the browser session of r, or an
// empty list on any failure.
func (f *Fetcher) ListItems(r *http.Request) []apiclient.Item {
	items, err := guarded(r.Context(), f, "list items", func(ctx context.Context) ([]apiclient.Item, error) {
		return f.Client(r, nil).ListItems(ctx)
	})
	if err != nil {
		return []apiclient.Item{}
	}
	return items
}

// CurrentUser returns the user of the browser session of r, if any.
// Users are served from the user cache when one is configured.
func (f *Fetcher) CurrentUser(r *http.Request) mo.Option[apiclient.User] {
	session := f.sessionID(r)
	if session == "" {
		return mo.None[apiclient.User]()
	}
	if cached, ok := f.users.Get(session).Get(); ok {
		return mo.Some(cached)
	}

	user, err := guarded(r.Context(), f, "current user", func(ctx context.Context) (apiclient.User, error) {
		return f.Client(r, nil).CurrentUser(ctx)
	})
	if err != nil {
		return mo.None[apiclient.User]()
	}
	if err := f.users.Set(session, user); err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("user cache set failed")
	}
	return mo.Some(user)
}

// ForgetSession drops the cached user of the session of r.
func (f *Fetcher) ForgetSession(r *http.Request) {
	if err := f.users.Delete(f.sessionID(r)); err != nil {
		zerolog.Ctx(r.Context()).Debug().Err(err).Msg("user cache delete failed")
	}
}

func (f *Fetcher) sessionID(r *http.Request) string {
	c, err := r.Cookie(f.names.Session)
	if err != nil {
		return ""
	}
	return c.Value
}

// guarded runs call through the backend guard and logs any failure.
func guarded[T any](ctx context.Context, f *Fetcher, op string, call func(context.Context) (T, error)) (T, error) {
	logger := zerolog.Ctx(ctx)

	result, err := health.Call(ctx, f.guard, call)
	switch {
	case err == nil:
		return result, nil
	case errors.Is(err, health.ErrCircuitOpen):
		logger.Warn().Str("op", op).Msg("backend circuit open, rendering empty state")
		f.metrics.RenderFallback(op, ReasonCircuitOpen)
		return result, err
	case apiclient.IsKind(err, apiclient.KindUnauthenticated):
		logger.Debug().Str("op", op).Msg("no backend session, rendering empty state")
	default:
		logger.Warn().Err(err).Str("op", op).Str("kind", string(apiclient.KindOf(err))).
			Msg("backend fetch failed, rendering empty state")
	}
	f.metrics.RenderFallback(op, ReasonFailure)
	return result, err
}
