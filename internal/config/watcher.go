package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// DefaultDebounceDelay collapses the burst of events editors emit on save.
const DefaultDebounceDelay = 100 * time.Millisecond

// ReloadCallback receives a configuration that parsed and validated. An
// error is logged; it does not stop later callbacks.
type ReloadCallback func(*Config) error

// ErrWatcherClosed is returned when an operation is attempted on a closed watcher.
var ErrWatcherClosed = errors.New("config: watcher already closed")

// Watcher reloads a config file when it changes on disk. It watches the
// parent directory so that atomic saves (write temp file, rename) are seen.
type Watcher struct {
	ctx       context.Context
	fsWatcher *fsnotify.Watcher
	cancel    context.CancelFunc
	path      string
	callbacks []ReloadCallback
	debounce  time.Duration
	mu        sync.RWMutex
	closed    bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounceDelay sets how long the watcher waits for events to settle.
func WithDebounceDelay(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// NewWatcher creates a watcher for the config file at path.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		path:      absPath,
		fsWatcher: fsWatcher,
		debounce:  DefaultDebounceDelay,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := fsWatcher.Add(filepath.Dir(absPath)); err != nil {
		cancel()
		if closeErr := fsWatcher.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close watcher after add failure")
		}
		return nil, fmt.Errorf("config: watch %s: %w", filepath.Dir(absPath), err)
	}

	return w, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// OnReload registers a callback. Callbacks run in registration order.
func (w *Watcher) OnReload(cb ReloadCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Watch blocks until ctx is canceled or the watcher is closed. Write and
// Create events for the config file schedule a reload after the debounce
// delay; other events are ignored.
func (w *Watcher) Watch(ctx context.Context) error {
	var (
		timer  *time.Timer
		target = filepath.Base(w.path)
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("config watcher error")
		}
	}
}

// reload parses and validates the file and hands it to the callbacks. A
// file that fails either step leaves the running configuration in place.
func (w *Watcher) reload() {
	select {
	case <-w.ctx.Done():
		return
	default:
	}

	cfg, err := Load(w.path)
	if err != nil {
		log.Error().Err(err).Str("path", w.path).Msg("failed to reload config")
		return
	}
	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Str("path", w.path).Msg("reloaded config is invalid, keeping current")
		return
	}

	log.Info().Str("path", w.path).Msg("config file reloaded")

	w.mu.RLock()
	callbacks := make([]ReloadCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	for _, cb := range callbacks {
		if err := cb(cfg); err != nil {
			log.Error().Err(err).Msg("config reload callback error")
		}
	}
}

// Close stops watching and releases resources.
// Returns ErrWatcherClosed if already closed.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	w.closed = true
	w.cancel()

	return w.fsWatcher.Close()
}
