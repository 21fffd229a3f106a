// Package tracing builds the OpenTelemetry tracer provider selected by
// configuration.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"pinpool/internal/platform/config"
)

// ServiceName is reported as service.name on every span.
const ServiceName = "pinpool"

var ErrUnknownExporter = errors.New("unknown trace exporter")

// NewProvider returns a batching tracer provider for cfg.Exporter, or nil
// when tracing is disabled. stdout spans are written to w.
func NewProvider(ctx context.Context, cfg config.Tracing, w io.Writer) (*sdktrace.TracerProvider, error) {
	var (
		exporter sdktrace.SpanExporter
		err      error
	)
	switch cfg.Exporter {
	case "", config.TraceExporterNone:
		return nil, nil
	case config.TraceExporterStdout:
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(w))
	case config.TraceExporterOTLP:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err = otlptracegrpc.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownExporter, cfg.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s trace exporter: %w", cfg.Exporter, err)
	}

	res := resource.NewWithAttributes("", attribute.String("service.name", ServiceName))
	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}
