package telemetry

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Config selects where metrics go. An empty Endpoint disables export.
type Config struct {
	Endpoint       string        // OTLP/HTTP base URL, e.g. http://collector:4318
	ExportInterval time.Duration // Push period (default: 60s)
	ServiceName    string
	ServiceVersion string
}

// Provider owns the MeterProvider handed to instruments.
type Provider struct {
	metric.MeterProvider

	shutdown func(context.Context) error
}

// Enabled reports whether metrics leave the process.
func (p *Provider) Enabled() bool {
	_, ok := p.MeterProvider.(*sdkmetric.MeterProvider)
	return ok
}

// Shutdown flushes pending data points and stops the exporter.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.shutdown(ctx)
}

// Setup builds the metrics pipeline. Export is opt-in: without an endpoint a
// no-op provider is returned and nothing is registered globally. Otherwise a
// periodic OTLP/HTTP exporter is installed as the global MeterProvider.
func Setup(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.Endpoint == "" {
		return &Provider{
			MeterProvider: noop.NewMeterProvider(),
			shutdown:      func(context.Context) error { return nil },
		}, nil
	}
	if cfg.ExportInterval <= 0 {
		cfg.ExportInterval = time.Minute
	}

	exporter, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpointURL(strings.TrimRight(cfg.Endpoint, "/")+"/v1/metrics"))
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.ExportInterval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	return &Provider{MeterProvider: mp, shutdown: mp.Shutdown}, nil
}
