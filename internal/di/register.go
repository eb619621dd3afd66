package di

import "github.com/samber/do/v2"

// RegisterSingletons registers all service providers as singletons.
// Services are registered in dependency order:
// 1. Config (no dependencies)
// 2. Logger (depends on Config)
// 3. Metrics (no dependencies)
// 4. Guard (depends on Config, Logger)
// 5. UserCache, LoginLimiter, Tracing (depend on Config)
// 6. Fetcher (depends on Config, Guard, Metrics, UserCache, Tracing)
// 7. Handler (depends on all above services)
// 8. Server (depends on Handler, Config).
func RegisterSingletons(i do.Injector) {
	do.Provide(i, NewConfig)
	do.Provide(i, NewLogger)
	do.Provide(i, NewMetrics)
	do.Provide(i, NewGuard)
	do.Provide(i, NewUserCache)
	do.Provide(i, NewLoginLimiter)
	do.Provide(i, NewTracing)
	do.Provide(i, NewFetcher)
	do.Provide(i, NewHandler)
	do.Provide(i, NewHTTPServer)
}
