package web

import (
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/omarluq/itemdesk/internal/apiclient"
	"github.com/omarluq/itemdesk/internal/authgate"
	"github.com/omarluq/itemdesk/internal/credentials"
	"github.com/omarluq/itemdesk/internal/health"
	"github.com/omarluq/itemdesk/internal/metrics"
	"github.com/omarluq/itemdesk/internal/ratelimit"
	"github.com/omarluq/itemdesk/internal/ssr"
	"github.com/omarluq/itemdesk/internal/view"
)

// MsgTooManyLogins is shown when a client exceeds the login rate limit.
const MsgTooManyLogins = "Too many login attempts, try again later"

// HandlerDeps are the collaborators of Handler. Guard, Gatherer and
// LoginLimiter are optional.
type HandlerDeps struct {
	Fetcher      *ssr.Fetcher
	Renderer     *view.Renderer
	Guard        *health.Guard
	Gatherer     prometheus.Gatherer
	LoginLimiter *ratelimit.KeyedLimiter
	Names        credentials.Names
	BackendURL   string
}

// Handler serves the frontend pages.
type Handler struct {
	fetcher    *ssr.Fetcher
	renderer   *view.Renderer
	guard      *health.Guard
	gatherer   prometheus.Gatherer
	logins     *ratelimit.KeyedLimiter
	names      credentials.Names
	backendURL string
}

// NewHandler creates a Handler.
func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		fetcher:    deps.Fetcher,
		renderer:   deps.Renderer,
		guard:      deps.Guard,
		gatherer:   deps.Gatherer,
		logins:     deps.LoginLimiter,
		names:      deps.Names,
		backendURL: deps.BackendURL,
	}
}

func (h *Handler) nav(r *http.Request) view.Nav {
	return view.NavFor(h.fetcher.CurrentUser(r), csrfCookie(r, h.names.CSRF))
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.renderer.Render(w, page, data); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("page", page).Msg("render failed")
	}
}

// Home serves GET /.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageHome, view.HomePage{Nav: h.nav(r), Title: "Home"})
}

// ServerPage serves GET /server-page. Backend failures render an empty list.
func (h *Handler) ServerPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageItems, view.ItemsPage{
		Nav:        h.nav(r),
		Title:      "Server-Side Rendered Page",
		BackendURL: h.backendURL,
		Items:      h.fetcher.ListItems(r),
	})
}

// ClientPage serves GET /client-page through the auth gate.
func (h *Handler) ClientPage(w http.ResponseWriter, r *http.Request) {
	gate := authgate.New()
	client := h.fetcher.Client(r, w)

	items, err := client.ListItems(r.Context())
	decision := gate.Observe(err)

	switch decision.Action {
	case authgate.Login:
		h.authRequired(w, r, decision.Message)
	case authgate.LocalError:
		h.render(w, r, http.StatusOK, view.PageItems, view.ItemsPage{
			Nav:   h.nav(r),
			Title: "Client Page",
			Error: decision.Message,
			Items: []apiclient.Item{},
		})
	default:
		h.render(w, r, http.StatusOK, view.PageItems, view.ItemsPage{
			Nav:      h.nav(r),
			Title:    "Client Page",
			Items:    items,
			Editable: true,
		})
	}
}

func (h *Handler) authRequired(w http.ResponseWriter, r *http.Request, message string) {
	h.render(w, r, http.StatusUnauthorized, view.PageAuthRequired, view.AuthRequiredPage{
		Title:   "Authentication Required",
		Message: message,
		Next:    r.URL.Path,
	})
}

// EditItem serves GET /edit-item/{id}.
func (h *Handler) EditItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		h.render(w, r, http.StatusNotFound, view.PageEdit, view.EditPage{
			Nav: h.nav(r), Title: "Edit Item", Error: apiclient.MsgNotFound,
		})
		return
	}

	gate := authgate.New()
	item, err := h.fetcher.Client(r, w).GetItem(r.Context(), id)
	decision := gate.Observe(err)

	page := view.EditPage{
		Nav:       h.nav(r),
		Title:     "Edit Item",
		CSRFToken: csrfCookie(r, h.names.CSRF),
	}
	switch decision.Action {
	case authgate.Login:
		redirectToLogin(w, r)
		return
	case authgate.LocalError:
		page.Error = decision.Message
	default:
		page.Item = item
		page.Found = true
	}
	h.render(w, r, http.StatusOK, view.PageEdit, page)
}

// UpdateItem serves POST /edit-item/{id}.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := itemID(r)
	if !ok {
		WriteError(w, http.StatusNotFound, "not_found", apiclient.MsgNotFound)
		return
	}

	fields := apiclient.ItemFields{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
	}
	page := view.EditPage{
		Nav:       h.nav(r),
		Title:     "Edit Item",
		CSRFToken: csrfCookie(r, h.names.CSRF),
		Item:      apiclient.Item{ID: id, Name: fields.Name, Description: fields.Description},
		Found:     true,
	}

	gate := authgate.New()
	if err := checkFormToken(r, h.names.CSRF); err != nil && gate.Observe(err).Action == authgate.Login {
		redirectToLogin(w, r)
		return
	}
	if err := fields.Validate(); err != nil {
		page.Error = err.Error()
		h.render(w, r, http.StatusUnprocessableEntity, view.PageEdit, page)
		return
	}

	updated, err := h.fetcher.Client(r, w).UpdateItem(r.Context(), id, fields)
	decision := gate.Observe(err)
	switch decision.Action {
	case authgate.Login:
		redirectToLogin(w, r)
		return
	case authgate.LocalError:
		page.Error = decision.Message
	default:
		page.Item = updated
		page.Saved = true
	}
	h.render(w, r, http.StatusOK, view.PageEdit, page)
}

// LoginForm serves GET /login.
func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.PageLogin, view.LoginPage{
		Nav:       h.nav(r),
		Title:     "Log in",
		Next:      safeNext(r.URL.Query().Get("next")),
		CSRFToken: loginToken(w, r),
	})
}

// Login serves POST /login. Backend cookies are relayed to the browser.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("username")
	next := safeNext(r.PostFormValue("next"))
	page := func(status int, message string) {
		h.render(w, r, status, view.PageLogin, view.LoginPage{
			Title:     "Log in",
			Username:  username,
			Next:      next,
			Error:     message,
			CSRFToken: loginToken(w, r),
		})
	}

	if err := checkFormToken(r, LoginTokenCookie); err != nil {
		zerolog.Ctx(r.Context()).Warn().Msg("login form token mismatch")
		page(http.StatusForbidden, apiclient.MsgCSRFFailed)
		return
	}

	if !h.logins.Allow(clientAddr(r)) {
		zerolog.Ctx(r.Context()).Warn().Str("client", clientAddr(r)).Msg("login rate limited")
		page(http.StatusTooManyRequests, MsgTooManyLogins)
		return
	}

	_, err := h.fetcher.Client(r, w).Login(r.Context(), username, r.PostFormValue("password"))
	if err != nil {
		zerolog.Ctx(r.Context()).Info().Str("username", username).Str("kind", string(apiclient.KindOf(err))).Msg("login rejected")
		page(loginStatus(err), err.Error())
		return
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// loginStatus maps a failed login to the status of the re-rendered form.
func loginStatus(err error) int {
	f, ok := apiclient.AsFailure(err)
	switch {
	case !ok:
		return http.StatusInternalServerError
	case f.Kind == apiclient.KindUnauthenticated:
		return http.StatusUnauthorized
	case f.Kind == apiclient.KindForbidden:
		return http.StatusForbidden
	case f.Status == 0:
		return http.StatusServiceUnavailable
	case f.Kind == apiclient.KindNotFound || f.Status >= http.StatusInternalServerError:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

// Logout serves POST /logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := checkFormToken(r, h.names.CSRF); err != nil {
		h.authRequired(w, r, apiclient.MsgAuthRequired)
		return
	}
	h.fetcher.ForgetSession(r)
	err := h.fetcher.Client(r, w).Logout(r.Context())
	if err != nil && !apiclient.IsKind(err, apiclient.KindUnauthenticated) {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("logout failed")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Health serves GET /health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.guard.Report())
}

// Metrics returns the /metrics handler, or nil without a gatherer.
func (h *Handler) Metrics() http.Handler {
	if h.gatherer == nil {
		return nil
	}
	return metrics.Handler(h.gatherer)
}

func itemID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// clientAddr is the rate limit key of r: the peer IP without port.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.Path), http.StatusSeeOther)
}

// safeNext keeps redirects on this site.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
