// Package view holds the page models and renders them as HTML for the web
// frontend or as styled text for the command line.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/samber/mo"

	"github.com/omarluq/itemdesk/internal/apiclient"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names accepted by Renderer.Render.
const (
	PageHome         = "home"
	PageItems        = "items"
	PageAuthRequired = "auth_required"
	PageEdit         = "edit"
	PageLogin        = "login"
)

var pages = []string{PageHome, PageItems, PageAuthRequired, PageEdit, PageLogin}

// Nav is the navigation bar state.
type Nav struct {
	Username  string
	CSRFToken string
	LoggedIn  bool
}

// NavFor builds the navigation bar for an optional user.
func NavFor(user mo.Option[apiclient.User], csrfToken string) Nav {
	u, ok := user.Get()
	if !ok {
		return Nav{}
	}
	return Nav{Username: u.Username, CSRFToken: csrfToken, LoggedIn: true}
}

// HomePage is the landing page.
type HomePage struct {
	Nav   Nav
	Title string
}

// ItemsPage lists items. Error is shown next to the list.
type ItemsPage struct {
	Nav        Nav
	Title      string
	BackendURL string
	Error      string
	Items      []apiclient.Item
	Editable   bool
}

// AuthRequiredPage replaces a data view when the session is missing.
type AuthRequiredPage struct {
	Nav     Nav
	Title   string
	Message string
	Next    string
}

// EditPage is the item edit form.
type EditPage struct {
	Nav       Nav
	Title     string
	CSRFToken string
	Error     string
	Item      apiclient.Item
	Found     bool
	Saved     bool
}

// LoginPage is the login form.
type LoginPage struct {
	Nav       Nav
	Title     string
	Username  string
	Next      string
	Error     string
	CSRFToken string
}

// Renderer renders the embedded page templates.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("view: parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render writes page name with data to w. The page is rendered into a
// buffer first so that a template error does not leave a partial page.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("view: unknown page %q", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("view: render %s: %w", name, err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("view: write %s: %w", name, err)
	}
	return nil
}
