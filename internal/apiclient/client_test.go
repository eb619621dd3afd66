package apiclient_test

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/omarluq/itemdesk/internal/apiclient"
	"github.com/omarluq/itemdesk/internal/apiclient/apiclienttest"
	"github.com/omarluq/itemdesk/internal/credentials"
)

type recordingObserver struct {
	outcomes []string
	mu       sync.Mutex
}

func (o *recordingObserver) ObserveRequest(_, op, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, op+":"+outcome)
}

func (o *recordingObserver) all() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.outcomes...)
}

// newBrowserClient returns a client whose jar already holds a backend session.
func newBrowserClient(t *testing.T, backend *apiclienttest.Backend, opts ...apiclient.Option) *apiclient.Client {
	t.Helper()

	src, err := credentials.NewBrowserCookieSource(backend.URL(), nil, credentials.DefaultNames())
	require.NoError(t, err)

	sid, token := backend.Login(apiclienttest.Username)
	base, err := url.Parse(backend.URL())
	require.NoError(t, err)
	src.Jar().SetCookies(base, backend.SessionCookies(sid, token))

	return apiclient.New(backend.URL(), src, credentials.DefaultNames(), opts...)
}

func newAnonymousClient(t *testing.T, backend *apiclienttest.Backend, opts ...apiclient.Option) *apiclient.Client {
	t.Helper()

	src, err := credentials.NewBrowserCookieSource(backend.URL(), nil, credentials.DefaultNames())
	require.NoError(t, err)
	return apiclient.New(backend.URL(), src, credentials.DefaultNames(), opts...)
}

// spanAttrs flattens the attributes of a recorded span.
func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	return attrs
}

func TestClient_ListItemsEmpty(t *testing.T) {
	t.Parallel()

	backend := apiclienttest.New()
	defer backend.Close()

	items, err := newBrowserClient(t, backend).ListItems(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestClient_ListItemsOrderedNewestFirst(t *testing.T) {
	t.Parallel()

	backend := apiclienttest.New(apiclienttest.WithItems(
		apiclient.Item{ID: 1, Name: "old", CreatedAt: "2026-01-01T00:00:00Z"},
		apiclient.Item{ID: 2, Name: "new", CreatedAt: "2026-02-01T00:00:00Z"},
	))
	defer backend.Close()

	items, err := newBrowserClient(t, backend).ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "new", items[0].Name)
	assert.Equal(t, "old", items[1].Name)
}

// A request without a session is classified as unauthenticated.
func TestClient_ListWithoutSessionIsUnauthenticated(t *testing.T) {
	t.Parallel()

	backend := apiclienttest.New(apiclienttest.WithItems(apiclient.Item{ID: 1, Name: "Pencil"}))
	defer backend.Close()

	_, err := newAnonymousClient(t, backend).ListItems(context.Background())
	require.Error(t, err)

	f, ok := apiclient.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, apiclient.KindUnauthenticated, f.Kind)
	assert.Equal(t, "list items", f.Op)
	assert.Equal(t, http.StatusUnauthorized, f.Status)
}

// An update followed by a get returns the new values.
func TestClient_UpdateThenGetRoundTrip(t *testing.T) {
	t.Parallel()

	backend := apiclienttest.New(apiclienttest.WithItems(
		apiclient.Item{ID: 7, Name: "Pencil", Description: "HB"},
	))
	defer backend.Close()

	client := newBrowserClient(t, backend)
	ctx := context.Background()

	updated, err := client.UpdateItem(ctx, 7, apiclient.ItemFields{Name: "Pen", Description: ""})
	require.NoError(t, err)
	assert.Equal(t, "Pen", updated.Name)
	assert.Empty(t, updated.Description)

	got, err := client.GetItem(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, apiclient.Item{ID: 7, Name: "Pen", Description: ""}, got)

	put := backend.Requests()[0]
	assert.Equal(t, http.MethodPut, put.Method)
	assert.Equal(t, "/api/items/7/", put.Path)
	assert.Equal(t, "application/json", put.Header.Get("Content-Type"))
	assert.NotEmpty(t, put.Header.Get(credentials.DefaultCSRFHeader))
	assert.JSONEq(t, `{"name":"Pen","description":""}`, put.Body)
}

// An unknown item yields the backend's detail message.
func TestClient_GetUnknownItem(t *testing.T) {
	t.Parallel()

	backend := apiclienttest.New()
	defer backend.Close()

	_, err := newBrowserClient(t, backend).GetItem(context.Background(), 999)
	require.Error(t, err)

	f, ok := apiclient.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, apiclient.KindNotFound, f.Kind)
	assert.Equal(t, "Not found.", f.Message)
}

// A blank name is rejected by the backend with a field error.
func TestClient_UpdateBlankNameIsGeneric(t *testing.T) {
	t.Parallel()

	backend := apiclienttest.New(apiclienttest.WithItems(apiclient.Item{ID: 3, Name: "Cup"}))
	defer backend.Close()

	_, err := newBrowserClient(t, backend).UpdateItem(context.Background(), 3, apiclient.ItemFields{Name: "  "})
	require.Error(t, err)

	f, ok := apiclient.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, apiclient.KindGeneric, f.Kind)
	assert.Equal(t, "name: This field may not be blank.", f.Message)

	it, _ := backend.Item(3)
	assert.Equal(t, "Cup", it.Name)
}

func TestClient_MutationWithoutTokenIsForbidden(t *testing.T) {
	t.Parallel()

	backend := apiclienttest.New(apiclienttest.WithItems(apiclient.Item{ID: 1, Name: "Pencil"}))
	defer backend.Close()

	// Session cookie only; the anti-forgery cookie is missing.
	src, err := credentials.NewBrowserCookieSource(backend.URL(), nil, credentials.DefaultNames())
	require.NoError(t, err)
	sid, _ := backend.Login(apiclienttest.Username)
	base, err := url.Parse(backend.URL())
	require.NoError(t, err)
	src.Jar().SetCookies(base, []*http.Cookie{{Name: credentials.DefaultSessionCookie, Value: sid}})

	client := apiclient.New(backend.URL(), src, credentials.DefaultNames())
	_, err = client.UpdateItem(context.Background(), 1, apiclient.ItemFields{Name: "Pen"})
	require.Error(t, err)

	f, ok := apiclient.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, apiclient.KindForbidden, f.Kind)
	assert.True(t, f.CSRFRejected())

	last := backend.LastRequest()
	values, present := last.Header[http.CanonicalHeaderKey(credentials.DefaultCSRFHeader)]
	assert.True(t, present, "token header must be sent even when empty")
	assert.Equal(t, []string{""}, values)
}

func TestClient_ReadsDoNotSendToken(t *testing.T) {
	t.Parallel()

	backend := apiclienttest.New()
	defer backend.Close()

	_, err := newBrowserClient(t, backend).ListItems(context.Background())
	require.NoError(t, err)

	last := backend.LastRequest()
	assert.Empty(t, last.Header.Values(credentials.DefaultCSRFHeader))
	assert.Empty(t, last.Header.Get("Content-Type"))
}

func TestClient_LoginStoresCookiesAndLogoutClearsSession(t *testing.T) {
	t.Parallel()

	backend := apiclienttest.New(apiclienttest.WithItems(apiclient.Item{ID: 1, Name: "Pencil"}))
	defer backend.Close()

	client := newAnonymousClient(t, backend)
	ctx := context.Background()

	assert.False(t, client.CheckAuth(ctx))
	assert.True(t, client.Source().CSRFToken().IsAbsent())

	msg, err := client.Login(ctx, apiclienttest.Username, apiclienttest.Password)
	require.NoError(t, err)
	assert.Equal(t, "Login successful", msg)
	assert.True(t, client.Source().CSRFToken().IsPresent())
	assert.True(t, client.CheckAuth(ctx))

	user, err := client.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, apiclienttest.Username, user.Username)

	require.NoError(t, client.Logout(ctx))
	assert.False(t, client.CheckAuth(ctx))

	_, err = client.ListItems(ctx)
	assert.True(t, apiclient.IsKind(err, apiclient.KindUnauthenticated))
}

func TestClient_LoginWrongPassword(t *testing.T) {
	t.Parallel()

	backend := apiclienttest.New()
	defer backend.Close()

	_, err := newAnonymousClient(t, backend).Login(context.Background(), apiclienttest.Username, "wrong")
	require.Error(t, err)
	assert.True(t, apiclient.IsKind(err, apiclient.KindUnauthenticated))
	assert.Equal(t, apiclient.MsgInvalidCredentials, err.Error())
}

func TestClient_BackendDownIsGeneric(t *testing.T) {
	t.Parallel()

	backend := apiclienttest.New()
	client := newBrowserClient(t, backend, apiclient.WithTimeout(2*time.Second))
	backend.Close()

	_, err := client.ListItems(context.Background())
	require.Error(t, err)

	f, ok := apiclient.AsFailure(err)
	require.True(t, ok)
	assert.Equal(t, apiclient.KindGeneric, f.Kind)
	assert.Equal(t, apiclient.MsgBackendUnavailable, f.Message)
	assert.Zero(t, f.Status)
	assert.Error(t, f.Unwrap())
}

func TestClient_ServerErrorUsesFallback(t *testing.T) {
	t.Parallel()

	backend := apiclienttest.New()
	defer backend.Close()
	backend.Respond("/api/items/", http.StatusInternalServerError, "<html>oops</html>")

	_, err := newBrowserClient(t, backend).ListItems(context.Background())
	require.Error(t, err)
	assert.True(t, apiclient.IsKind(err, apiclient.KindGeneric))
	assert.Equal(t, "Failed to fetch items", err.Error())
}

func TestClient_ReportsOutcomesToObserver(t *testing.T) {
	t.Parallel()

	backend := apiclienttest.New(apiclienttest.WithItems(apiclient.Item{ID: 1, Name: "Pencil"}))
	defer backend.Close()

	obs := &recordingObserver{}
	client := newBrowserClient(t, backend, apiclient.WithObserver(obs))
	ctx := context.Background()

	_, err := client.ListItems(ctx)
	require.NoError(t, err)
	_, err = client.GetItem(ctx, 42)
	require.Error(t, err)

	assert.Equal(t, []string{"list items:success", "get item:not_found"}, obs.all())
}

func TestClient_RecordsFailureSpans(t *testing.T) {
	t.Parallel()

	backend := apiclienttest.New(apiclienttest.WithItems(apiclient.Item{ID: 1, Name: "Pencil"}))
	defer backend.Close()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() {
		//nolint:errcheck // test cleanup
		tp.Shutdown(context.Background())
	})

	_, err := newAnonymousClient(t, backend, apiclient.WithTracerProvider(tp)).ListItems(context.Background())
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "backend list items", span.Name())
	assert.Equal(t, codes.Error, span.Status().Code)

	attrs := spanAttrs(span)
	assert.Equal(t, "unauthenticated", attrs["itemdesk.failure"].AsString())
	assert.Equal(t, int64(http.StatusUnauthorized), attrs["http.response.status_code"].AsInt64())
	assert.Equal(t, http.MethodGet, attrs["http.request.method"].AsString())
	assert.Equal(t, "/api/items/", attrs["url.path"].AsString())
	assert.Equal(t, string(credentials.KindBrowser), attrs["itemdesk.credentials"].AsString())

	_, err = newBrowserClient(t, backend, apiclient.WithTracerProvider(tp)).GetItem(context.Background(), 1)
	require.NoError(t, err)

	spans = recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Ok, spans[1].Status().Code)
	assert.NotContains(t, spanAttrs(spans[1]), attribute.Key("itemdesk.failure"))
}

func TestItemFields_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, apiclient.ItemFields{Name: "x"}.Validate())
	assert.ErrorIs(t, apiclient.ItemFields{Name: " \t"}.Validate(), apiclient.ErrNameRequired)
	assert.ErrorIs(t, apiclient.ItemFields{}.Validate(), apiclient.ErrNameRequired)
}
