// Package apiclienttest provides an in-process backend that honors the item
// API contract: session and anti-forgery cookies, 401 without a session,
// 403 on a token mismatch, 404 for unknown items, 400 on validation errors.
package apiclienttest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/omarluq/itemdesk/internal/apiclient"
	"github.com/omarluq/itemdesk/internal/credentials"
)

// Default credentials accepted by a Backend created without WithUser.
const (
	Username = "alice"
	Password = "s3cret"
)

// Recorded is a request as the backend received it.
type Recorded struct {
	Header http.Header
	Method string
	Path   string
	Body   string
}

type cannedResponse struct {
	body   string
	status int
}

type session struct {
	username string
	csrf     string
}

// Backend is a fake item backend running on an httptest.Server.
type Backend struct {
	server   *httptest.Server
	users    map[string]string
	sessions map[string]*session
	items    map[int64]apiclient.Item
	canned   map[string]cannedResponse
	names    credentials.Names
	requests []Recorded
	mu       sync.Mutex
}

// Option configures a Backend.
type Option func(*Backend)

// WithUser adds an account that can log in.
func WithUser(username, password string) Option {
	return func(b *Backend) {
		b.users[username] = password
	}
}

// WithItems seeds the item store.
func WithItems(items ...apiclient.Item) Option {
	return func(b *Backend) {
		for _, it := range items {
			b.items[it.ID] = it
		}
	}
}

// New starts a Backend. Call Close when done.
func New(opts ...Option) *Backend {
	b := &Backend{
		users:    map[string]string{Username: Password},
		sessions: make(map[string]*session),
		items:    make(map[int64]apiclient.Item),
		canned:   make(map[string]cannedResponse),
		names:    credentials.DefaultNames(),
	}
	for _, opt := range opts {
		opt(b)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login/", b.handleLogin)
	mux.HandleFunc("POST /api/auth/logout/", b.handleLogout)
	mux.HandleFunc("GET /api/auth/user/", b.handleUser)
	mux.HandleFunc("GET /api/items/", b.handleList)
	mux.HandleFunc("GET /api/items/{id}/", b.handleGet)
	mux.HandleFunc("PUT /api/items/{id}/", b.handleUpdate)

	b.server = httptest.NewServer(b.record(mux))
	return b
}

// URL returns the backend base URL.
func (b *Backend) URL() string {
	return b.server.URL
}

// Close shuts the backend down. Later requests fail at the transport level,
// which is how tests simulate an outage.
func (b *Backend) Close() {
	b.server.Close()
}

// Respond makes every request to path answer with status and body.
func (b *Backend) Respond(path string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.canned[path] = cannedResponse{status: status, body: body}
}

// Requests returns the requests received so far.
func (b *Backend) Requests() []Recorded {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Recorded, len(b.requests))
	copy(out, b.requests)
	return out
}

// LastRequest returns the most recent request, or a zero value.
func (b *Backend) LastRequest() Recorded {
	reqs := b.Requests()
	if len(reqs) == 0 {
		return Recorded{}
	}
	return reqs[len(reqs)-1]
}

// Item returns the stored item with the given id.
func (b *Backend) Item(id int64) (apiclient.Item, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	it, ok := b.items[id]
	return it, ok
}

// Login creates a session directly and returns the session id and token,
// for tests that need a logged-in browser without going through the API.
func (b *Backend) Login(username string) (sessionID, csrfToken string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.newSession(username)
}

// SessionCookies returns the cookies a browser would hold for a session.
func (b *Backend) SessionCookies(sessionID, csrfToken string) []*http.Cookie {
	return []*http.Cookie{
		{Name: b.names.Session, Value: sessionID},
		{Name: b.names.CSRF, Value: csrfToken},
	}
}

func (b *Backend) newSession(username string) (string, string) {
	sid := uuid.NewString()
	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	b.sessions[sid] = &session{username: username, csrf: token}
	return sid, token
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			//nolint:errcheck // a short read only shortens the recorded body
			body, _ = io.ReadAll(r.Body)
		}
		r.Body = io.NopCloser(bytes.NewReader(body))

		b.mu.Lock()
		b.requests = append(b.requests, Recorded{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   string(body),
		})
		canned, ok := b.canned[r.URL.Path]
		b.mu.Unlock()

		if ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(canned.status)
			//nolint:errcheck // test backend
			w.Write([]byte(canned.body))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// current returns the session of r, or nil.
func (b *Backend) current(r *http.Request) *session {
	c, err := r.Cookie(b.names.Session)
	if err != nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions[c.Value]
}

// csrfFailure returns the rejection reason for a mutating request, or "".
func (b *Backend) csrfFailure(r *http.Request, s *session) string {
	header := r.Header.Get(b.names.Header)
	if header == "" {
		return "CSRF Failed: CSRF token missing."
	}
	cookie, err := r.Cookie(b.names.CSRF)
	if err != nil || cookie.Value == "" {
		return "CSRF Failed: CSRF cookie not set."
	}
	if header != cookie.Value || header != s.csrf {
		return "CSRF Failed: CSRF token incorrect."
	}
	return ""
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}

	b.mu.Lock()
	want, ok := b.users[creds.Username]
	if !ok || want != creds.Password {
		b.mu.Unlock()
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid credentials"})
		return
	}
	sid, token := b.newSession(creds.Username)
	b.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: b.names.Session, Value: sid, Path: "/", HttpOnly: true})
	http.SetCookie(w, &http.Cookie{Name: b.names.CSRF, Value: token, Path: "/"})
	writeJSON(w, http.StatusOK, map[string]string{"detail": "Login successful"})
}

func (b *Backend) handleLogout(w http.ResponseWriter, r *http.Request) {
	s := b.current(r)
	if s == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Not authenticated"})
		return
	}
	if reason := b.csrfFailure(r, s); reason != "" {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": reason})
		return
	}

	c, _ := r.Cookie(b.names.Session)
	b.mu.Lock()
	delete(b.sessions, c.Value)
	b.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: b.names.Session, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"detail": "Logout successful"})
}

func (b *Backend) handleUser(w http.ResponseWriter, r *http.Request) {
	s := b.current(r)
	if s == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Not authenticated"})
		return
	}
	writeJSON(w, http.StatusOK, apiclient.User{ID: 1, Username: s.username, Email: s.username + "@example.com"})
}

func (b *Backend) handleList(w http.ResponseWriter, r *http.Request) {
	if b.current(r) == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}

	b.mu.Lock()
	items := make([]apiclient.Item, 0, len(b.items))
	for _, it := range b.items {
		items = append(items, it)
	}
	b.mu.Unlock()

	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt != items[j].CreatedAt {
			return items[i].CreatedAt > items[j].CreatedAt
		}
		return items[i].ID > items[j].ID
	})
	writeJSON(w, http.StatusOK, apiclient.ItemList{Items: items})
}

func (b *Backend) lookup(w http.ResponseWriter, r *http.Request) (apiclient.Item, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return apiclient.Item{}, false
	}
	it, ok := b.Item(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found."})
		return apiclient.Item{}, false
	}
	return it, true
}

func (b *Backend) handleGet(w http.ResponseWriter, r *http.Request) {
	if b.current(r) == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}
	if it, ok := b.lookup(w, r); ok {
		writeJSON(w, http.StatusOK, it)
	}
}

func (b *Backend) handleUpdate(w http.ResponseWriter, r *http.Request) {
	s := b.current(r)
	if s == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}
	if reason := b.csrfFailure(r, s); reason != "" {
		writeJSON(w, http.StatusForbidden, map[string]string{"detail": reason})
		return
	}

	it, ok := b.lookup(w, r)
	if !ok {
		return
	}

	var fields struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "JSON parse error"})
		return
	}
	if fields.Name == nil || strings.TrimSpace(*fields.Name) == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"name": {"This field may not be blank."}})
		return
	}

	it.Name = *fields.Name
	it.Description = ""
	if fields.Description != nil {
		it.Description = *fields.Description
	}

	b.mu.Lock()
	b.items[it.ID] = it
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, it)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // test backend
	json.NewEncoder(w).Encode(payload)
}
