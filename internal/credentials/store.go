package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/samber/lo"
)

// ErrNoSessionFile is returned by LoadSession when no session was saved yet.
var ErrNoSessionFile = errors.New("credentials: no saved session")

// sessionFile is the on-disk form of the CLI cookie jar.
type sessionFile struct {
	BaseURL string         `json:"base_url"`
	Cookies []storedCookie `json:"cookies"`
}

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SaveSession writes the jar cookies of the source's backend origin to path.
// The file is created with 0600 permissions since it holds the session id.
func SaveSession(path string, src *BrowserCookieSource) error {
	cookies := src.jar.Cookies(src.base)
	file := sessionFile{
		BaseURL: src.base.String(),
		Cookies: lo.Map(cookies, func(c *http.Cookie, _ int) storedCookie {
			return storedCookie{Name: c.Name, Value: c.Value}
		}),
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("credentials: encode session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("credentials: create session dir: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("credentials: write session: %w", err)
	}
	return nil
}

// LoadSession restores cookies saved by SaveSession into the source's jar.
// Cookies saved for a different backend are ignored.
func LoadSession(path string, src *BrowserCookieSource) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNoSessionFile
	}
	if err != nil {
		return fmt.Errorf("credentials: read session: %w", err)
	}

	var file sessionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("credentials: decode session %s: %w", path, err)
	}

	if file.BaseURL != src.base.String() {
		return ErrNoSessionFile
	}

	src.jar.SetCookies(src.base, lo.Map(file.Cookies, func(c storedCookie, _ int) *http.Cookie {
		return &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"}
	}))
	return nil
}

// RemoveSession deletes the saved session. A missing file is not an error.
func RemoveSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("credentials: remove session: %w", err)
	}
	return nil
}
