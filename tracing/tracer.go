package tracing

import (
	"context"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultServiceName  = "connections"
	instrumentationName = "go.pilab.hu/connections"
)

// Options configures the tracer provider.
type Options struct {
	// ServiceName falls back to OTEL_SERVICE_NAME, then to "connections".
	ServiceName string
	// Writer receives the exported spans; stdout when nil.
	Writer io.Writer
	// Pretty indents the exported spans.
	Pretty bool
}

// InitTracerProvider creates a TracerProvider exporting to a writer, registers it and the W3C
// propagators globally and returns it. The caller shuts it down.
func InitTracerProvider(opts Options) (*sdktrace.TracerProvider, error) {
	serviceName := opts.ServiceName
	if serviceName == "" {
		serviceName = os.Getenv("OTEL_SERVICE_NAME")
	}
	if serviceName == "" {
		serviceName = defaultServiceName
	}

	exporterOpts := []stdouttrace.Option{}
	if opts.Writer != nil {
		exporterOpts = append(exporterOpts, stdouttrace.WithWriter(opts.Writer))
	}
	if opts.Pretty {
		exporterOpts = append(exporterOpts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(exporterOpts...)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp, nil
}

// Tracer returns the tracer of a component of this module from the global provider.
func Tracer(component string) trace.Tracer {
	return otel.Tracer(instrumentationName + "/" + component)
}
