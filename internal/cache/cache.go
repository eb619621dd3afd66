// Package cache keeps recently resolved session users in memory so that
// rendering a page does not cost a backend round trip for the navigation bar.
//
// Entries are keyed by a digest of the session cookie value and expire after
// a short TTL. A nil *UserCache is valid and caches nothing.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync/atomic"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/mo"

	"github.com/omarluq/itemdesk/internal/apiclient"
)

// ErrClosed is returned by operations on a closed cache.
var ErrClosed = errors.New("cache: closed")

// UserCache maps session cookie values to users.
type UserCache struct {
	cache  *ristretto.Cache[string, apiclient.User]
	log    zerolog.Logger
	cfg    Config
	closed atomic.Bool
}

// New creates a UserCache. It returns nil when cfg disables caching.
func New(cfg Config) (*UserCache, error) {
	if !cfg.Enabled {
		return nil, nil //nolint:nilnil // a nil cache is valid and disabled
	}

	logger := log.With().Str("component", "user_cache").Logger()
	maxEntries := cfg.GetMaxEntries()

	c, err := ristretto.NewCache(&ristretto.Config[string, apiclient.User]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to create ristretto cache")
		return nil, err
	}

	logger.Info().
		Int64("max_entries", maxEntries).
		Dur("ttl", cfg.GetTTL()).
		Msg("user cache created")

	return &UserCache{cache: c, log: logger, cfg: cfg}, nil
}

// key digests the session value so raw session ids are not held as keys.
func key(sessionID string) string {
	sum := sha256.Sum256([]byte(sessionID))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached user for sessionID.
func (c *UserCache) Get(sessionID string) mo.Option[apiclient.User] {
	if c == nil || sessionID == "" || c.closed.Load() {
		return mo.None[apiclient.User]()
	}

	user, found := c.cache.Get(key(sessionID))
	c.log.Debug().Bool("hit", found).Msg("cache get")
	if !found {
		return mo.None[apiclient.User]()
	}
	return mo.Some(user)
}

// Set stores user for sessionID. The entry is visible to Get on return.
func (c *UserCache) Set(sessionID string, user apiclient.User) error {
	if c == nil || sessionID == "" {
		return nil
	}
	if c.closed.Load() {
		return ErrClosed
	}

	c.cache.SetWithTTL(key(sessionID), user, 1, c.cfg.GetTTL())
	c.cache.Wait()
	return nil
}

// Delete forgets sessionID. Deleting a missing entry is not an error.
func (c *UserCache) Delete(sessionID string) error {
	if c == nil || sessionID == "" {
		return nil
	}
	if c.closed.Load() {
		return ErrClosed
	}

	c.cache.Del(key(sessionID))
	c.cache.Wait()
	return nil
}

// Close releases the cache. Close is idempotent.
func (c *UserCache) Close() error {
	if c == nil || !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.cache.Close()
	return nil
}
