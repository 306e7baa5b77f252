// Package telemetry wires OpenTelemetry tracing for panel calls.
package telemetry

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(context.Context) error

func noop(context.Context) error { return nil }

// InitTracer installs a global tracer provider that writes spans as JSON to w.
// Tracing failures never stop the process; a no-op shutdown is returned instead.
func InitTracer(logger zerolog.Logger, serviceName string, w io.Writer) ShutdownFunc {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		logger.Warn().Err(err).Msg("telemetry exporter init failed, tracing disabled")
		return noop
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		)),
	)
	otel.SetTracerProvider(provider)

	logger.Debug().Str("service", serviceName).Msg("tracing enabled")
	return provider.Shutdown
}
