package di

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/do/v2"

	"github.com/omarluq/itemdesk/internal/tracing"
	"github.com/omarluq/itemdesk/internal/version"
)

// TracingService wraps the span exporter. Provider is nil when tracing is
// disabled.
type TracingService struct {
	Provider *tracing.Provider
}

// NewTracing creates the tracer provider from the tracing configuration and
// installs it as the global provider.
func NewTracing(i do.Injector) (*TracingService, error) {
	cfg := do.MustInvoke[*ConfigService](i).Get()

	p, err := tracing.New(cfg.Tracing, version.String())
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}
	p.Install()
	return &TracingService{Provider: p}, nil
}

// Shutdown flushes pending spans.
func (s *TracingService) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Provider.Shutdown(ctx)
}
