package config_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omarluq/itemdesk/internal/config"
	"github.com/omarluq/itemdesk/internal/credentials"
)

const yamlConfig = `
backend:
  base_url: "http://api.example.test:8000/"
  timeout_ms: 2500
cookies:
  session_name: "sid"
  csrf_name: "xsrf"
  csrf_header: "X-XSRF-Token"
server:
  listen: "0.0.0.0:8080"
  enable_http2: true
  login_rate_limit:
    per_minute: 6
client:
  session_file: "/tmp/itemdesk-session.json"
logging:
  level: "debug"
  format: "json"
health:
  circuit_breaker:
    failure_threshold: 2
cache:
  enabled: true
  ttl_ms: 5000
tracing:
  enabled: true
  sample_ratio: 0.5
`

func TestLoadFromReader_YAML(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(yamlConfig))
	require.NoError(t, err)

	assert.Equal(t, "http://api.example.test:8000", cfg.Backend.GetBaseURL())
	assert.Equal(t, 2500*time.Millisecond, cfg.Backend.GetTimeout())
	assert.Equal(t, credentials.Names{Session: "sid", CSRF: "xsrf", Header: "X-XSRF-Token"}, cfg.Cookies.Names())
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.GetListen())
	assert.True(t, cfg.Server.EnableHTTP2)
	assert.Equal(t, "/tmp/itemdesk-session.json", cfg.Client.GetSessionFile())
	assert.Equal(t, zerolog.DebugLevel, cfg.Logging.ParseLevel())
	assert.Equal(t, 2, cfg.Health.CircuitBreaker.GetFailureThreshold())
	assert.Equal(t, 6, cfg.Server.LoginRateLimit.GetBurst())
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Cache.GetTTL())
	assert.True(t, cfg.Tracing.Enabled)
	assert.InDelta(t, 0.5, cfg.Tracing.GetSampleRatio(), 0)
	require.NoError(t, cfg.Validate())
}

func TestLoad_TOMLByExtension(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "itemdesk.toml")
	content := `
[backend]
base_url = "https://items.example.test"

[logging]
level = "warn"

[health.circuit_breaker]
open_duration_ms = 1000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://items.example.test", cfg.Backend.GetBaseURL())
	assert.Equal(t, zerolog.WarnLevel, cfg.Logging.ParseLevel())
	assert.Equal(t, time.Second, cfg.Health.CircuitBreaker.GetOpenDuration())
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = config.Load("config.json")
	require.ErrorIs(t, err, config.ErrUnknownFormat)

	_, err = config.LoadFromReader(strings.NewReader("backend: ["))
	require.Error(t, err)
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	var cfg config.Config
	assert.Equal(t, config.DefaultBaseURL, cfg.Backend.GetBaseURL())
	assert.Equal(t, 10*time.Second, cfg.Backend.GetTimeout())
	assert.Equal(t, credentials.DefaultNames(), cfg.Cookies.Names())
	assert.Equal(t, config.DefaultListen, cfg.Server.GetListen())
	assert.True(t, strings.HasSuffix(cfg.Client.GetSessionFile(), "session.json"))
	assert.Equal(t, zerolog.InfoLevel, cfg.Logging.ParseLevel())
	assert.NoError(t, cfg.Validate())
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	for path, want := range map[string]config.Format{
		"a.yaml": config.FormatYAML,
		"a.YML":  config.FormatYAML,
		"a.toml": config.FormatTOML,
		"a":      config.FormatYAML,
	} {
		got, err := config.FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}
}

// Environment tests mutate process state and do not run in parallel.
func TestEnvOverrides(t *testing.T) {
	t.Setenv(config.EnvBackendURL, "http://override.test:9000")
	t.Setenv("ITEMDESK_TEST_LISTEN", "127.0.0.1:4000")

	cfg, err := config.LoadFromReader(strings.NewReader(`
backend:
  base_url: "http://ignored.test"
server:
  listen: "${ITEMDESK_TEST_LISTEN}"
`))
	require.NoError(t, err)
	assert.Equal(t, "http://override.test:9000", cfg.Backend.GetBaseURL())
	assert.Equal(t, "127.0.0.1:4000", cfg.Server.GetListen())

	assert.Equal(t, "http://override.test:9000", config.Default().Backend.GetBaseURL())
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Backend: config.BackendConfig{BaseURL: "ftp://backend", TimeoutMS: -1},
		Cookies: config.CookieConfig{SessionName: "bad name", CSRFName: "bad name"},
		Server:  config.ServerConfig{Listen: "no-port"},
		Logging: config.LoggingConfig{Level: "verbose", Format: "xml"},
	}
	cfg.Health.CircuitBreaker.FailureThreshold = -1
	cfg.Cache.TTLMS = -1
	cfg.Server.LoginRateLimit.Burst = -1
	cfg.Tracing.SampleRatio = 1.5

	err := cfg.Validate()
	require.Error(t, err)

	var verr *config.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 12)
	assert.Equal(t, []string{
		"backend.base_url",
		"backend.timeout_ms",
		"cache.ttl_ms",
		"cookies.csrf_name",
		"cookies.session_name",
		"health.circuit_breaker.failure_threshold",
		"logging.format",
		"logging.level",
		"server.listen",
		"server.login_rate_limit.burst",
		"tracing.sample_ratio",
	}, verr.Keys())
	assert.Contains(t, err.Error(), "backend.base_url: must use http or https")
	assert.Contains(t, err.Error(), "cookies.csrf_name: must differ from cookies.session_name")
	assert.Contains(t, err.Error(), "server.listen: must be in host:port format")
	assert.True(t, verr.Has("tracing.sample_ratio"))
	assert.False(t, verr.Has("client.session_file"))
}

func TestValidate_BaseURLWithoutHost(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{Backend: config.BackendConfig{BaseURL: "http://"}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend.base_url: must include a host")
}

func TestValidationError_Format(t *testing.T) {
	t.Parallel()

	verr := &config.ValidationError{}
	assert.NoError(t, verr.ToError())

	verr.Add("server.listen", "port is required")
	assert.Equal(t, "invalid config: server.listen: port is required", verr.Error())

	verr.Addf("cache.ttl_ms", "must be >= %d", 0)
	assert.Equal(t, "invalid config (2 settings):\n  server.listen: port is required\n  cache.ttl_ms: must be >= 0",
		verr.Error())
	assert.Equal(t, []config.FieldError{
		{Key: "server.listen", Message: "port is required"},
		{Key: "cache.ttl_ms", Message: "must be >= 0"},
	}, verr.Fields)
}

func TestRuntime_ApplyReloadsLoggingOnly(t *testing.T) {
	t.Parallel()

	initial := &config.Config{
		Backend: config.BackendConfig{BaseURL: "http://a.test"},
		Logging: config.LoggingConfig{Level: "info"},
	}
	rt := config.NewRuntime(initial)

	next := &config.Config{
		Backend: config.BackendConfig{BaseURL: "http://b.test"},
		Server:  config.ServerConfig{Listen: "127.0.0.1:9"},
		Logging: config.LoggingConfig{Level: "debug"},
	}
	next.Tracing.Enabled = true
	ignored := rt.Apply(next)

	assert.ElementsMatch(t, []string{"backend.base_url", "server", "tracing"}, ignored)
	assert.Equal(t, "http://a.test", rt.Get().Backend.GetBaseURL())
	assert.Equal(t, "debug", rt.Get().Logging.Level)
	assert.Equal(t, "info", initial.Logging.Level, "stored configs are not mutated")
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "itemdesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o600))

	w, err := config.NewWatcher(path, config.WithDebounceDelay(10*time.Millisecond))
	require.NoError(t, err)

	var level atomic.Value
	w.OnReload(func(cfg *config.Config) error {
		level.Store(cfg.Logging.Level)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		//nolint:errcheck // Watch returns nil on cancel
		w.Watch(ctx)
	}()

	// Give the watch loop a moment to start before writing.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o600))

	assert.Eventually(t, func() bool {
		v, ok := level.Load().(string)
		return ok && v == "debug"
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.Close(), config.ErrWatcherClosed)
}

func TestWatcher_InvalidConfigIsNotApplied(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "itemdesk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: info\n"), 0o600))

	w, err := config.NewWatcher(path, config.WithDebounceDelay(10*time.Millisecond))
	require.NoError(t, err)
	defer func() {
		//nolint:errcheck // test cleanup
		w.Close()
	}()

	var calls atomic.Int32
	w.OnReload(func(*config.Config) error {
		calls.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		//nolint:errcheck // Watch returns nil on cancel
		w.Watch(ctx)
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0o600))

	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestDefaultTemplate_IsValid(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(config.DefaultTemplate))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10, cfg.Server.LoginRateLimit.PerMinute)
	assert.True(t, cfg.Cache.Enabled)
}
