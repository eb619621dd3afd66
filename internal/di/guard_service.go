package di

import (
	"github.com/samber/do/v2"

	"github.com/omarluq/itemdesk/internal/health"
)

// GuardService wraps the backend guard.
type GuardService struct {
	Guard *health.Guard
}

// NewGuard creates the backend guard from the health configuration.
func NewGuard(i do.Injector) (*GuardService, error) {
	cfgSvc := do.MustInvoke[*ConfigService](i)
	loggerSvc := do.MustInvoke[*LoggerService](i)

	return &GuardService{Guard: health.NewGuard(cfgSvc.Get().Health.CircuitBreaker, loggerSvc.Logger)}, nil
}
