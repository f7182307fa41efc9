// Package telemetry sets up OpenTelemetry tracing for the CLI.
package telemetry

import (
	"context"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/abhisek/skilltree/internal/logger"
)

// Config controls tracing.
type Config struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Environment string `yaml:"environment"`
}

// DefaultConfig returns tracing disabled.
func DefaultConfig() Config {
	return Config{ServiceName: "skilltree", Environment: "dev"}
}

// Init installs a global tracer provider. When tracing is disabled the
// global no-op provider stays in place. The returned function flushes and
// shuts the provider down; it is never nil.
func Init(ctx context.Context, log *logger.Logger, cfg Config, version string) (func(context.Context) error, error) {
	return initWithWriter(ctx, log, cfg, version, os.Stderr)
}

func initWithWriter(ctx context.Context, log *logger.Logger, cfg Config, version string, w io.Writer) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		return noop, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(version),
			attribute.String("deployment.environment", cfg.Environment),
		),
	)
	if err != nil {
		log.Warn("otel resource init failed (continuing)", "error", err)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return noop, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	log.Debug("otel tracing initialized", "service", cfg.ServiceName)
	return tp.Shutdown, nil
}
