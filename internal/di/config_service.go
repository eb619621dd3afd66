package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/samber/do/v2"

	"github.com/omarluq/itemdesk/internal/config"
	"github.com/omarluq/itemdesk/internal/web"
)

// ConfigService holds the live configuration and the file watcher that
// reloads it. Only logging settings take effect on reload.
type ConfigService struct {
	runtime *config.Runtime
	watcher *config.Watcher
	path    string
}

// Get returns the current configuration.
func (c *ConfigService) Get() *config.Config {
	return c.runtime.Get()
}

// Path returns the config file path, or "" when running on defaults.
func (c *ConfigService) Path() string {
	return c.path
}

// Reload applies next. Settings that need a restart are reported and kept.
func (c *ConfigService) Reload(next *config.Config) {
	ignored := c.runtime.Apply(next)
	web.ApplyLevel(c.runtime.Get().Logging)

	for _, name := range ignored {
		log.Warn().Str("setting", name).Msg("config change requires restart, ignored")
	}
	log.Info().Str("path", c.path).Str("level", c.runtime.Get().Logging.ParseLevel().String()).Msg("config hot-reloaded")
}

// StartWatching begins watching the config file. The context controls the
// watcher lifecycle.
func (c *ConfigService) StartWatching(ctx context.Context) {
	if c.watcher == nil {
		return
	}

	c.watcher.OnReload(func(next *config.Config) error {
		c.Reload(next)
		return nil
	})

	go func() {
		if err := c.watcher.Watch(ctx); err != nil {
			log.Error().Err(err).Msg("config watcher error")
		}
	}()

	log.Info().Str("path", c.path).Msg("config file watcher started")
}

// Shutdown implements do.Shutdowner for graceful watcher cleanup.
func (c *ConfigService) Shutdown() error {
	if c.watcher != nil {
		return c.watcher.Close()
	}
	return nil
}

// NewConfig loads and validates the configuration. Without a path the
// built-in defaults (plus environment overrides) are used and nothing is watched.
func NewConfig(i do.Injector) (*ConfigService, error) {
	path := do.MustInvokeNamed[string](i, ConfigPathKey)

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	svc := &ConfigService{runtime: config.NewRuntime(cfg), path: path}
	if path == "" {
		return svc, nil
	}

	// Hot reload is optional; a watcher failure only disables it.
	watcher, err := config.NewWatcher(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("config watcher creation failed, hot-reload disabled")
	} else {
		svc.watcher = watcher
	}

	return svc, nil
}
