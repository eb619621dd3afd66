package credentials

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"golang.org/x/net/publicsuffix"
)

// BrowserCookieSource reads credentials from a cookie jar it owns, the way a
// browser includes its cookies on every request to the backend origin.
type BrowserCookieSource struct {
	jar   http.CookieJar
	base  *url.URL
	names Names
}

// NewJar creates an in-memory cookie jar using the public suffix list.
func NewJar() (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("credentials: create cookie jar: %w", err)
	}
	return jar, nil
}

// NewBrowserCookieSource creates a source bound to the backend at baseURL.
// If jar is nil a fresh in-memory jar is created.
func NewBrowserCookieSource(baseURL string, jar http.CookieJar, names Names) (*BrowserCookieSource, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("credentials: parse base url %q: %w", baseURL, err)
	}

	if jar == nil {
		jar, err = NewJar()
		if err != nil {
			return nil, err
		}
	}

	return &BrowserCookieSource{
		jar:   jar,
		base:  base,
		names: names,
	}, nil
}

// Jar returns the underlying cookie jar.
func (s *BrowserCookieSource) Jar() http.CookieJar {
	return s.jar
}

// BaseURL returns the backend origin the jar is scoped to.
func (s *BrowserCookieSource) BaseURL() *url.URL {
	return s.base
}

// Attach adds every jar cookie that applies to the request URL.
func (s *BrowserCookieSource) Attach(req *http.Request) {
	for _, c := range s.jar.Cookies(req.URL) {
		req.AddCookie(c)
	}
}

// CSRFToken looks the anti-forgery cookie up in the jar on every call.
func (s *BrowserCookieSource) CSRFToken() mo.Option[string] {
	c, ok := lo.Find(s.jar.Cookies(s.base), func(c *http.Cookie) bool {
		return c.Name == s.names.CSRF && c.Value != ""
	})
	if !ok {
		return mo.None[string]()
	}
	return mo.Some(c.Value)
}

// Absorb stores the cookies set by the backend into the jar.
func (s *BrowserCookieSource) Absorb(resp *http.Response) {
	cookies := resp.Cookies()
	if len(cookies) == 0 {
		return
	}

	target := s.base
	if resp.Request != nil && resp.Request.URL != nil {
		target = resp.Request.URL
	}
	s.jar.SetCookies(target, cookies)
}

// Kind returns KindBrowser.
func (s *BrowserCookieSource) Kind() Kind {
	return KindBrowser
}

var _ Source = (*BrowserCookieSource)(nil)
