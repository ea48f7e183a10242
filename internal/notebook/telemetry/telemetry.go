// Package telemetry exports operational counters through OpenTelemetry.
// Setup pushes them over OTLP/HTTP when an endpoint is configured.
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/aussiebroadwan/notebook/internal/notebook/service"
)

const instrumentationName = "github.com/aussiebroadwan/notebook"

// ActivityFailures counts activity log writes that were dropped.
type ActivityFailures struct {
	counter metric.Int64Counter
}

// NewActivityFailures registers the counter on mp, or on the global provider
// when mp is nil.
func NewActivityFailures(mp metric.MeterProvider) (*ActivityFailures, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}

	counter, err := mp.Meter(instrumentationName).Int64Counter(
		"notebook.activity.failures",
		metric.WithDescription("Activity log entries that could not be written"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}
	return &ActivityFailures{counter: counter}, nil
}

func (a *ActivityFailures) ActivityFailed(ctx context.Context, err *service.ActivityLogError) {
	a.counter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(err.Kind))))
}

var _ service.ActivityObserver = (*ActivityFailures)(nil)
