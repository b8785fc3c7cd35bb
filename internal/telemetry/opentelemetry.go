// Package telemetry serves the OpenTelemetry instruments of the registry from its Prometheus
// registry.
package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	prometheusexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/multierr"
)

// InitMeterProvider registers a global MeterProvider for serviceName. Its instruments show up
// on reg next to the plain Prometheus collectors.
func InitMeterProvider(reg prometheus.Registerer, serviceName string) (*metric.MeterProvider, error) {
	exporter, err := prometheusexporter.New(prometheusexporter.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	mp := metric.NewMeterProvider(
		metric.WithReader(exporter),
		metric.WithResource(resource.NewSchemaless(semconv.ServiceNameKey.String(serviceName))),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Shutdown flushes both providers; nil ones are skipped.
func Shutdown(ctx context.Context, tp *trace.TracerProvider, mp *metric.MeterProvider) error {
	var err error
	if tp != nil {
		err = multierr.Append(err, tp.Shutdown(ctx))
	}
	if mp != nil {
		err = multierr.Append(err, mp.Shutdown(ctx))
	}
	return err
}
