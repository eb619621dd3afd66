package cache

import "time"

// Defaults applied to a zero Config.
const (
	DefaultTTL        = 30 * time.Second
	DefaultMaxEntries = 10000
)

// Config controls the session user cache.
type Config struct {
	Enabled    bool  `yaml:"enabled" toml:"enabled"`
	TTLMS      int   `yaml:"ttl_ms" toml:"ttl_ms"`
	MaxEntries int64 `yaml:"max_entries" toml:"max_entries"`
}

// GetTTL returns the entry lifetime, or DefaultTTL if unset.
func (c *Config) GetTTL() time.Duration {
	if c.TTLMS <= 0 {
		return DefaultTTL
	}
	return time.Duration(c.TTLMS) * time.Millisecond
}

// GetMaxEntries returns the entry limit, or DefaultMaxEntries if unset.
func (c *Config) GetMaxEntries() int64 {
	if c.MaxEntries <= 0 {
		return DefaultMaxEntries
	}
	return c.MaxEntries
}
