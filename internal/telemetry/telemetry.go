// Package telemetry configures OpenTelemetry tracing for the storefront.
package telemetry

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	stdouttrace "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// StdoutEndpoint selects the pretty-printing exporter instead of OTLP.
const StdoutEndpoint = "stdout"

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(context.Context) error

// InitTracing installs a global tracer provider. An empty endpoint leaves the
// default no-op provider in place; "stdout" writes spans to stderr; anything
// else is treated as an OTLP gRPC collector address.
func InitTracing(ctx context.Context, endpoint, serviceName string) (ShutdownFunc, error) {
	return initTracing(ctx, endpoint, serviceName, os.Stderr)
}

func initTracing(ctx context.Context, endpoint, serviceName string, w io.Writer) (ShutdownFunc, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	var exp sdktrace.SpanExporter
	var err error
	if endpoint == StdoutEndpoint {
		exp, err = stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	} else {
		exp, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
