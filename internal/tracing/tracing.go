// Package tracing installs an OpenTelemetry SDK tracer provider that exports
// backend request spans as JSON lines.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// ServiceName is reported as service.name on every span.
const ServiceName = "itemdesk"

// Provider owns the SDK tracer provider and its output. A nil *Provider is
// valid and defers to the global provider.
type Provider struct {
	tp     *sdktrace.TracerProvider
	closer io.Closer
}

// New builds a Provider from cfg, or returns nil when tracing is disabled.
func New(cfg Config, version string) (*Provider, error) {
	if !cfg.Enabled {
		return nil, nil //nolint:nilnil // a nil provider is valid and disabled
	}

	w, closer, err := openOutput(cfg.Output)
	if err != nil {
		return nil, err
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		if closer != nil {
			//nolint:errcheck // already failing
			closer.Close()
		}
		return nil, fmt.Errorf("tracing: create exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", ServiceName),
		attribute.String("service.version", version),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.GetSampleRatio()))),
	)

	log.Info().
		Str("output", outputName(cfg.Output)).
		Float64("sample_ratio", cfg.GetSampleRatio()).
		Msg("tracing enabled")

	return &Provider{tp: tp, closer: closer}, nil
}

// TracerProvider returns the SDK provider, or the global one when p is nil.
func (p *Provider) TracerProvider() trace.TracerProvider {
	if p == nil {
		return otel.GetTracerProvider()
	}
	return p.tp
}

// Install makes p the global tracer provider.
func (p *Provider) Install() {
	if p == nil {
		return
	}
	otel.SetTracerProvider(p.tp)
}

// Shutdown flushes pending spans and closes the output.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	err := p.tp.Shutdown(ctx)
	if p.closer != nil {
		err = errors.Join(err, p.closer.Close())
	}
	return err
}

func openOutput(output string) (io.Writer, io.Closer, error) {
	switch output {
	case "", "stderr":
		return os.Stderr, nil, nil
	case "stdout":
		return os.Stdout, nil, nil
	default:
		f, err := os.OpenFile(filepath.Clean(output), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("tracing: open output: %w", err)
		}
		return f, f, nil
	}
}

func outputName(output string) string {
	if output == "" {
		return "stderr"
	}
	return output
}
