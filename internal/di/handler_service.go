package di

import (
	"fmt"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/omarluq/itemdesk/internal/apiclient"
	"github.com/omarluq/itemdesk/internal/ssr"
	"github.com/omarluq/itemdesk/internal/view"
	"github.com/omarluq/itemdesk/internal/web"
)

// FetcherService wraps the server-side fetch adapter.
type FetcherService struct {
	Fetcher *ssr.Fetcher
}

// NewFetcher creates the fetch adapter bound to the configured backend.
func NewFetcher(i do.Injector) (*FetcherService, error) {
	cfg := do.MustInvoke[*ConfigService](i).Get()
	guardSvc := do.MustInvoke[*GuardService](i)
	metricsSvc := do.MustInvoke[*MetricsService](i)
	usersSvc := do.MustInvoke[*UserCacheService](i)
	tracingSvc := do.MustInvoke[*TracingService](i)

	fetcher := ssr.NewFetcher(
		cfg.Backend.GetBaseURL(),
		cfg.Cookies.Names(),
		guardSvc.Guard,
		ssr.WithMetrics(metricsSvc.Metrics),
		ssr.WithUserCache(usersSvc.Cache),
		ssr.WithClientOptions(
			apiclient.WithTimeout(cfg.Backend.GetTimeout()),
			apiclient.WithTracerProvider(tracingSvc.Provider.TracerProvider()),
		),
	)
	return &FetcherService{Fetcher: fetcher}, nil
}

// HandlerService wraps the HTTP handler.
type HandlerService struct {
	Handler http.Handler
}

// NewHandler creates the routed frontend handler.
func NewHandler(i do.Injector) (*HandlerService, error) {
	cfg := do.MustInvoke[*ConfigService](i).Get()
	fetcherSvc := do.MustInvoke[*FetcherService](i)
	guardSvc := do.MustInvoke[*GuardService](i)
	metricsSvc := do.MustInvoke[*MetricsService](i)
	limiterSvc := do.MustInvoke[*LoginLimiterService](i)

	renderer, err := view.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	h := web.NewHandler(web.HandlerDeps{
		Fetcher:      fetcherSvc.Fetcher,
		Renderer:     renderer,
		Guard:        guardSvc.Guard,
		Gatherer:     metricsSvc.Registry,
		LoginLimiter: limiterSvc.Limiter,
		Names:        cfg.Cookies.Names(),
		BackendURL:   cfg.Backend.GetBaseURL(),
	})
	return &HandlerService{Handler: web.SetupRoutes(h)}, nil
}
