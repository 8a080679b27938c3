// Package telemetry installs the OpenTelemetry tracer provider used by the
// tileset loader and viewer.
package telemetry

import (
	"context"
	"os"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/samdwyer/tilesets/internal/config"
)

const (
	serviceName    = "tilesets"
	serviceVersion = "0.1.0"
)

// Setup installs the global tracer provider described by cfg and returns a
// shutdown func that flushes pending spans.
//
// With tracing disabled a no-op provider is installed, so spans started
// through Tracer are dropped.
func Setup(ctx context.Context, cfg config.TelemetryConfig) (shutdown func(context.Context) error, err error) {
	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		return func(context.Context) error { return nil }, nil
	}

	var opts []otlptracehttp.Option
	if cfg.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(attributes()...))
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

// Tracer returns the tracer for one component, named tilesets/<component>.
func Tracer(component string) trace.Tracer {
	return otel.GetTracerProvider().Tracer(serviceName + "/" + component)
}

func attributes() []attribute.KeyValue {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return []attribute.KeyValue{
		attribute.String("service.name", serviceName),
		attribute.String("service.version", serviceVersion),
		attribute.String("host.name", host),
		attribute.String("os.type", runtime.GOOS),
	}
}
