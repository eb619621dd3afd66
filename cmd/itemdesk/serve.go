package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/omarluq/itemdesk/internal/di"
	"github.com/omarluq/itemdesk/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the itemdesk web frontend",
	Long: `Start the web frontend. Pages are rendered on the server with the
visitor's cookies forwarded to the backend.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	path := configPath(cmd)

	container, err := di.NewContainer(path)
	if err != nil {
		return err
	}
	defer func() {
		if err := container.Shutdown(); err != nil {
			log.Error().Err(err).Msg("container shutdown error")
		}
	}()

	if err := container.HealthCheck(); err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to initialize")
		return err
	}

	loggerSvc := di.MustInvoke[*di.LoggerService](container)
	log.Logger = *loggerSvc.Logger
	zerolog.DefaultContextLogger = loggerSvc.Logger

	cfgSvc := di.MustInvoke[*di.ConfigService](container)
	serverSvc := di.MustInvoke[*di.ServerService](container)

	ctx, stop := context.WithCancel(cmd.Context())
	defer stop()
	cfgSvc.StartWatching(ctx)

	// Graceful shutdown on SIGINT/SIGTERM
	done := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info().Msg("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := serverSvc.Server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown error")
		}

		close(done)
	}()

	cfg := cfgSvc.Get()
	log.Info().
		Str("listen", serverSvc.Server.Addr()).
		Str("backend", cfg.Backend.GetBaseURL()).
		Str("version", version.Version).
		Msg("starting itemdesk")

	if err := serverSvc.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("server error")
		return err
	}

	<-done
	log.Info().Msg("server stopped")

	return nil
}
