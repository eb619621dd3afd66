package credentials

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = "http://backend.test:8000"

func newTestBrowser(t *testing.T) *BrowserCookieSource {
	t.Helper()
	src, err := NewBrowserCookieSource(testBase, nil, DefaultNames())
	require.NoError(t, err)
	return src
}

func setCookies(t *testing.T, src *BrowserCookieSource, cookies ...*http.Cookie) {
	t.Helper()
	u, err := url.Parse(testBase)
	require.NoError(t, err)
	src.Jar().SetCookies(u, cookies)
}

func TestBrowserCookieSource_CSRFToken(t *testing.T) {
	t.Parallel()

	src := newTestBrowser(t)
	assert.True(t, src.CSRFToken().IsAbsent())

	setCookies(t, src, &http.Cookie{Name: DefaultCSRFCookie, Value: "abc", Path: "/"})
	assert.Equal(t, "abc", src.CSRFToken().OrEmpty())

	// Rotation is visible on the next read.
	setCookies(t, src, &http.Cookie{Name: DefaultCSRFCookie, Value: "def", Path: "/"})
	assert.Equal(t, "def", src.CSRFToken().OrEmpty())
}

func TestBrowserCookieSource_AttachAndAbsorb(t *testing.T) {
	t.Parallel()

	src := newTestBrowser(t)
	assert.Equal(t, KindBrowser, src.Kind())

	req := httptest.NewRequest(http.MethodPost, testBase+"/api/auth/login/", http.NoBody)
	resp := &http.Response{
		Header:  http.Header{},
		Request: req,
	}
	resp.Header.Add("Set-Cookie", "sessionid=s1; Path=/; HttpOnly")
	resp.Header.Add("Set-Cookie", "csrftoken=t1; Path=/")
	src.Absorb(resp)

	assert.Equal(t, "t1", src.CSRFToken().OrEmpty())

	out := httptest.NewRequest(http.MethodGet, testBase+"/api/items/", http.NoBody)
	out.Header.Del("Cookie")
	src.Attach(out)

	c, err := out.Cookie(DefaultSessionCookie)
	require.NoError(t, err)
	assert.Equal(t, "s1", c.Value)
}

func TestBrowserCookieSource_InvalidBaseURL(t *testing.T) {
	t.Parallel()

	_, err := NewBrowserCookieSource("://bad", nil, DefaultNames())
	assert.Error(t, err)
}

func TestForwardedRequestCookieSource_CopiesCookieHeaderVerbatim(t *testing.T) {
	t.Parallel()

	incoming := httptest.NewRequest(http.MethodGet, "/server-page", http.NoBody)
	incoming.Header.Set("Cookie", "sessionid=s1; csrftoken=t1; theme=dark; weird=a b")

	src := NewForwardedRequestCookieSource(incoming, DefaultNames())
	assert.Equal(t, KindForwarded, src.Kind())
	assert.Equal(t, "t1", src.CSRFToken().OrEmpty())

	out := httptest.NewRequest(http.MethodGet, testBase+"/api/items/", http.NoBody)
	src.Attach(out)
	assert.Equal(t, "sessionid=s1; csrftoken=t1; theme=dark; weird=a b", out.Header.Get("Cookie"))
}

func TestForwardedRequestCookieSource_JoinsSplitHeaders(t *testing.T) {
	t.Parallel()

	incoming := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	incoming.Header.Add("Cookie", "sessionid=s1")
	incoming.Header.Add("Cookie", "csrftoken=t1")

	assert.Equal(t, "sessionid=s1; csrftoken=t1", ForwardedCookieHeader(incoming))
}

func TestForwardedRequestCookieSource_NoCookies(t *testing.T) {
	t.Parallel()

	incoming := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	src := NewForwardedRequestCookieSource(incoming, DefaultNames())
	assert.True(t, src.CSRFToken().IsAbsent())

	out := httptest.NewRequest(http.MethodGet, testBase+"/api/items/", http.NoBody)
	src.Attach(out)
	assert.Empty(t, out.Header.Values("Cookie"))
	assert.Empty(t, ForwardedCookieHeader(nil))
}

func TestForwardedRequestCookieSource_RelaysSetCookie(t *testing.T) {
	t.Parallel()

	incoming := httptest.NewRequest(http.MethodPost, "/login", http.NoBody)
	rec := httptest.NewRecorder()
	src := NewForwardedRequestCookieSource(incoming, DefaultNames(), WithResponseWriter(rec))

	resp := &http.Response{Header: http.Header{}}
	resp.Header.Add("Set-Cookie", "sessionid=s9; Domain=backend.test; Path=/; HttpOnly")
	src.Absorb(resp)

	relayed := rec.Result().Cookies() //nolint:bodyclose // recorder body
	require.Len(t, relayed, 1)
	assert.Equal(t, "sessionid", relayed[0].Name)
	assert.Equal(t, "s9", relayed[0].Value)
	assert.Empty(t, relayed[0].Domain)
	assert.True(t, relayed[0].HttpOnly)
}

func TestForwardedRequestCookieSource_DropsSetCookieWithoutWriter(t *testing.T) {
	t.Parallel()

	incoming := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	src := NewForwardedRequestCookieSource(incoming, DefaultNames())

	resp := &http.Response{Header: http.Header{"Set-Cookie": []string{"a=b"}}}
	assert.NotPanics(t, func() { src.Absorb(resp) })
}

func TestSession_SaveLoadRemove(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "session.json")

	src := newTestBrowser(t)
	setCookies(t, src,
		&http.Cookie{Name: DefaultSessionCookie, Value: "s1", Path: "/"},
		&http.Cookie{Name: DefaultCSRFCookie, Value: "t1", Path: "/"},
	)
	require.NoError(t, SaveSession(path, src))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	restored := newTestBrowser(t)
	require.NoError(t, LoadSession(path, restored))
	assert.Equal(t, "t1", restored.CSRFToken().OrEmpty())

	require.NoError(t, RemoveSession(path))
	assert.ErrorIs(t, LoadSession(path, newTestBrowser(t)), ErrNoSessionFile)
	assert.NoError(t, RemoveSession(path))
}

func TestSession_OtherBackendIgnored(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, SaveSession(path, newTestBrowser(t)))

	other, err := NewBrowserCookieSource("http://elsewhere.test", nil, DefaultNames())
	require.NoError(t, err)
	assert.ErrorIs(t, LoadSession(path, other), ErrNoSessionFile)
}

func TestSession_CorruptFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

	err := LoadSession(path, newTestBrowser(t))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSessionFile)
}
