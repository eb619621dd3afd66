// Package config provides configuration loading and parsing for itemdesk.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/mo"

	"github.com/omarluq/itemdesk/internal/cache"
	"github.com/omarluq/itemdesk/internal/credentials"
	"github.com/omarluq/itemdesk/internal/health"
	"github.com/omarluq/itemdesk/internal/ratelimit"
	"github.com/omarluq/itemdesk/internal/tracing"
)

// RuntimeConfig defines the interface for accessing configuration that
// supports hot-reload. Components that must observe reloads read through it
// instead of holding a *Config.
type RuntimeConfig interface {
	Get() *Config
}

// Log level constants.
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Defaults.
const (
	DefaultBaseURL   = "http://localhost:8000"
	DefaultTimeoutMS = 10000
	DefaultListen    = "127.0.0.1:3000"
)

// EnvBackendURL overrides backend.base_url when set.
const EnvBackendURL = "ITEMDESK_BACKEND_URL"

// Config represents the complete itemdesk configuration.
type Config struct {
	Backend BackendConfig  `yaml:"backend" toml:"backend"`
	Cookies CookieConfig   `yaml:"cookies" toml:"cookies"`
	Client  ClientConfig   `yaml:"client" toml:"client"`
	Logging LoggingConfig  `yaml:"logging" toml:"logging"`
	Server  ServerConfig   `yaml:"server" toml:"server"`
	Health  health.Config  `yaml:"health" toml:"health"`
	Cache   cache.Config   `yaml:"cache" toml:"cache"`
	Tracing tracing.Config `yaml:"tracing" toml:"tracing"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyEnv()
	return cfg
}

// applyEnv applies environment overrides after parsing.
func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvBackendURL)); v != "" {
		c.Backend.BaseURL = v
	}
}

// BackendConfig locates the item API.
type BackendConfig struct {
	// BaseURL is the backend origin, e.g. http://localhost:8000.
	BaseURL string `yaml:"base_url" toml:"base_url"`

	// TimeoutMS bounds each backend request. Default: 10000.
	TimeoutMS int `yaml:"timeout_ms" toml:"timeout_ms"`
}

// GetBaseURL returns the base URL without a trailing slash, or the default.
func (b *BackendConfig) GetBaseURL() string {
	if b.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(b.BaseURL, "/")
}

// GetTimeout returns the request timeout.
func (b *BackendConfig) GetTimeout() time.Duration {
	if b.TimeoutMS <= 0 {
		return time.Duration(DefaultTimeoutMS) * time.Millisecond
	}
	return time.Duration(b.TimeoutMS) * time.Millisecond
}

// CookieConfig names the session and anti-forgery cookies agreed with the backend.
type CookieConfig struct {
	SessionName string `yaml:"session_name" toml:"session_name"`
	CSRFName    string `yaml:"csrf_name" toml:"csrf_name"`
	CSRFHeader  string `yaml:"csrf_header" toml:"csrf_header"`
}

// Names returns the configured names with defaults filled in.
func (c *CookieConfig) Names() credentials.Names {
	names := credentials.DefaultNames()
	if c.SessionName != "" {
		names.Session = c.SessionName
	}
	if c.CSRFName != "" {
		names.CSRF = c.CSRFName
	}
	if c.CSRFHeader != "" {
		names.Header = c.CSRFHeader
	}
	return names
}

// ServerConfig configures the web frontend.
type ServerConfig struct {
	Listen      string `yaml:"listen" toml:"listen"`
	EnableHTTP2 bool   `yaml:"enable_http2" toml:"enable_http2"`

	// LoginRateLimit throttles login attempts per client address.
	LoginRateLimit ratelimit.Config `yaml:"login_rate_limit" toml:"login_rate_limit"`
}

// GetListen returns the listen address or the default.
func (s *ServerConfig) GetListen() string {
	if s.Listen == "" {
		return DefaultListen
	}
	return s.Listen
}

// ClientConfig configures the command line client.
type ClientConfig struct {
	// SessionFile stores the CLI cookie jar between invocations.
	// Default: <user config dir>/itemdesk/session.json
	SessionFile string `yaml:"session_file" toml:"session_file"`
}

// GetSessionFileOption returns the configured session file, or None.
func (c *ClientConfig) GetSessionFileOption() mo.Option[string] {
	if c.SessionFile == "" {
		return mo.None[string]()
	}
	return mo.Some(c.SessionFile)
}

// GetSessionFile returns the session file path, falling back to the user
// config directory and then the working directory.
// A leading "~/" is expanded to the home directory.
func (c *ClientConfig) GetSessionFile() string {
	return expandHome(c.GetSessionFileOption().OrElse(defaultSessionFile()))
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	return filepath.Join(home, rest)
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return ".itemdesk-session.json"
	}
	return filepath.Join(dir, "itemdesk", "session.json")
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format" toml:"format"` // json, console
	Output string `yaml:"output" toml:"output"` // stdout, stderr, or file path
	Pretty bool   `yaml:"pretty" toml:"pretty"` // enable colored console output
}

// ParseLevel converts a string log level to zerolog.Level.
// Returns zerolog.InfoLevel if the level string is invalid.
func (l *LoggingConfig) ParseLevel() zerolog.Level {
	switch strings.ToLower(l.Level) {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
