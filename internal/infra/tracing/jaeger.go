package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const (
	ServiceName    = "fiapx-frametype-service"
	ServiceVersion = "1.0.0"
)

// Engine describes the media tools spans were produced with.
type Engine struct {
	Name        string
	Version     string
	FrameFormat string
}

// NewResource identifies this worker and the engine build it drives.
func NewResource(engine Engine) *resource.Resource {
	attrs := []attribute.KeyValue{
		semconv.ServiceNameKey.String(ServiceName),
		semconv.ServiceVersionKey.String(ServiceVersion),
		attribute.String("media.engine.name", engine.Name),
		attribute.String("media.frame_format", engine.FrameFormat),
	}
	if engine.Version != "" {
		attrs = append(attrs, attribute.String("media.engine.version", engine.Version))
	}
	return resource.NewWithAttributes(semconv.SchemaURL, attrs...)
}

// InitTracer exports spans over OTLP/HTTP to the given Jaeger collector URL
// and installs the provider globally.
func InitTracer(ctx context.Context, jaegerEndpoint string, engine Engine) (*sdktrace.TracerProvider, error) {
	if jaegerEndpoint == "" {
		return nil, fmt.Errorf("empty jaeger endpoint")
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(jaegerEndpoint),
	)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(NewResource(engine)),
	)

	otel.SetTracerProvider(tp)
	return tp, nil
}
