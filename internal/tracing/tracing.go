// Package tracing configures OpenTelemetry span export for flow
// execution: node and flow spans emitted by the runner ride an OTLP/HTTP
// exporter to whatever collector the host configuration points at
// (Jaeger, Tempo, etc. all speak OTLP).
package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/flowforge/flowrun/pkg/logging"
)

// TracingConfig holds configuration for exporting flow-execution spans.
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string // e.g., "127.0.0.1:4318" (host:port only, path added by exporter)
	SampleRatio    float64
}

// DefaultConfig returns a development-friendly tracing configuration:
// every flow execution sampled, exported to a local OTLP collector.
func DefaultConfig(serviceName string) TracingConfig {
	return TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		OTLPEndpoint:   "127.0.0.1:4318",
		SampleRatio:    1.0,
	}
}

// JaegerConfig is DefaultConfig under a name that documents intent at the
// call site: the OTLP endpoint it points at is a Jaeger collector's.
func JaegerConfig(serviceName string) TracingConfig {
	return DefaultConfig(serviceName)
}

// SetupTracing installs a global OpenTelemetry TracerProvider that
// batches spans to an OTLP/HTTP exporter, and returns a shutdown
// function the caller must invoke (e.g. via defer) before exiting so
// buffered spans flush.
func SetupTracing(ctx context.Context, config TracingConfig, logger logging.Logger) (func(context.Context) error, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	logger.Info("setting up flow execution tracing",
		logging.F("service_name", config.ServiceName),
		logging.F("otlp_endpoint", config.OTLPEndpoint),
		logging.F("environment", config.Environment))

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(config.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			semconv.DeploymentEnvironment(config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.TraceIDRatioBased(config.SampleRatio)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	logger.Info("flow execution tracing ready")

	return tp.Shutdown, nil
}

// ShutdownTracing flushes and tears down the tracer provider returned by
// SetupTracing, bounding the flush to 10 seconds so a stalled collector
// can't hang process exit.
func ShutdownTracing(shutdown func(context.Context) error, logger logging.Logger) error {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := shutdown(ctx); err != nil {
		logger.Error("flow execution tracing shutdown failed", logging.F("error", err.Error()))
		return err
	}
	logger.Info("flow execution tracing shutdown completed")
	return nil
}
