// Package web implements the itemdesk HTTP frontend.
package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// SetupRoutes creates the HTTP handler with all routes configured.
// Routes:
//   - GET / - landing page
//   - GET /server-page - items rendered with the forwarded session, empty on failure
//   - GET /client-page - items behind the auth gate
//   - GET|POST /edit-item/{id} - item edit form
//   - GET|POST /login, POST /logout - session management
//   - GET /health, GET /metrics - operational endpoints
func SetupRoutes(h *Handler) http.Handler {
	r := chi.NewRouter()

	// Request ID first so that logs and recovered panics carry it.
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)

	r.Get("/", h.Home)
	r.Get("/server-page", h.ServerPage)
	r.Get("/client-page", h.ClientPage)
	r.Get("/edit-item/{id}", h.EditItem)
	r.Post("/edit-item/{id}", h.UpdateItem)
	r.Get("/login", h.LoginForm)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)

	r.Get("/health", h.Health)
	if m := h.Metrics(); m != nil {
		r.Method(http.MethodGet, "/metrics", m)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, "not_found", "page not found")
	})

	return r
}
