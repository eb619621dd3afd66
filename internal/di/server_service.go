package di

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/omarluq/itemdesk/internal/web"
)

// ServerService wraps the HTTP server.
type ServerService struct {
	Server *web.Server
}

// NewHTTPServer creates the HTTP server.
func NewHTTPServer(i do.Injector) (*ServerService, error) {
	cfg := do.MustInvoke[*ConfigService](i).Get()
	handlerSvc := do.MustInvoke[*HandlerService](i)

	server := web.NewServer(cfg.Server.GetListen(), handlerSvc.Handler, cfg.Server.EnableHTTP2)
	return &ServerService{Server: server}, nil
}

// Shutdown implements do.Shutdowner for graceful server shutdown.
func (s *ServerService) Shutdown() error {
	if s.Server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return s.Server.Shutdown(ctx)
	}
	return nil
}
