package di

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/omarluq/itemdesk/internal/cache"
	"github.com/omarluq/itemdesk/internal/ratelimit"
)

// UserCacheService wraps the session user cache. Cache is nil when caching
// is disabled.
type UserCacheService struct {
	Cache *cache.UserCache
}

// NewUserCache creates the user cache from the cache configuration.
func NewUserCache(i do.Injector) (*UserCacheService, error) {
	cfg := do.MustInvoke[*ConfigService](i).Get()

	c, err := cache.New(cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to create user cache: %w", err)
	}
	return &UserCacheService{Cache: c}, nil
}

// Shutdown implements do.Shutdowner.
func (s *UserCacheService) Shutdown() error {
	if s.Cache == nil {
		return nil
	}
	return s.Cache.Close()
}

// LoginLimiterService wraps the per-client login throttle.
type LoginLimiterService struct {
	Limiter *ratelimit.KeyedLimiter
}

// NewLoginLimiter creates the login throttle from the server configuration.
func NewLoginLimiter(i do.Injector) (*LoginLimiterService, error) {
	cfg := do.MustInvoke[*ConfigService](i).Get()
	return &LoginLimiterService{Limiter: ratelimit.NewKeyedLimiter(cfg.Server.LoginRateLimit)}, nil
}
