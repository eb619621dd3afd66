package config

import "sync/atomic"

// Runtime holds the live configuration. Reads are lock-free; the watcher
// swaps in a new value on reload.
//
// Only settings that may change at runtime are taken from a stored config.
// Apply merges those settings into the current value and leaves the rest,
// so that a process keeps talking to the backend it started with.
type Runtime struct {
	ptr atomic.Pointer[Config]
}

// NewRuntime creates a new Runtime with the given initial configuration.
// The initial config is stored and immediately available via Get().
func NewRuntime(initial *Config) *Runtime {
	r := &Runtime{}
	r.ptr.Store(initial)
	return r
}

// Get returns the current configuration.
func (r *Runtime) Get() *Config {
	return r.ptr.Load()
}

// Store replaces the configuration.
func (r *Runtime) Store(cfg *Config) {
	r.ptr.Store(cfg)
}

// Apply takes the reloadable settings from next and stores the result. It
// returns the names of settings that changed in next but were not applied.
func (r *Runtime) Apply(next *Config) (ignored []string) {
	cur := r.Get()
	merged := *cur
	merged.Logging = next.Logging

	if next.Backend.GetBaseURL() != cur.Backend.GetBaseURL() {
		ignored = append(ignored, "backend.base_url")
	}
	if next.Cookies.Names() != cur.Cookies.Names() {
		ignored = append(ignored, "cookies")
	}
	if next.Server != cur.Server {
		ignored = append(ignored, "server")
	}
	if next.Cache != cur.Cache {
		ignored = append(ignored, "cache")
	}
	if next.Tracing != cur.Tracing {
		ignored = append(ignored, "tracing")
	}

	r.ptr.Store(&merged)
	return ignored
}

// RuntimeConfig interface implementation.
var _ RuntimeConfig = (*Runtime)(nil)
