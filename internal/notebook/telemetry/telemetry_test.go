package telemetry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/aussiebroadwan/notebook/internal/notebook/domain"
	"github.com/aussiebroadwan/notebook/internal/notebook/service"
)

func TestActivityFailuresCounts(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(ctx) })

	obs, err := NewActivityFailures(mp)
	require.NoError(t, err)

	lerr := &service.ActivityLogError{UserID: "u1", Kind: domain.ActivityFailedLogin, Err: errors.New("boom")}
	obs.ActivityFailed(ctx, lerr)
	obs.ActivityFailed(ctx, lerr)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	require.Len(t, rm.ScopeMetrics[0].Metrics, 1)

	m := rm.ScopeMetrics[0].Metrics[0]
	require.Equal(t, "notebook.activity.failures", m.Name)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	require.EqualValues(t, 2, sum.DataPoints[0].Value)
}

func TestGlobalProviderFallback(t *testing.T) {
	obs, err := NewActivityFailures(nil)
	require.NoError(t, err)
	obs.ActivityFailed(context.Background(), &service.ActivityLogError{Kind: domain.ActivityLogin})
}

func TestSetupWithoutEndpointIsNoop(t *testing.T) {
	p, err := Setup(context.Background(), Config{})
	require.NoError(t, err)
	require.False(t, p.Enabled())

	obs, err := NewActivityFailures(p)
	require.NoError(t, err)
	obs.ActivityFailed(context.Background(), &service.ActivityLogError{Kind: domain.ActivityLogin})
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestSetupExportsOnShutdown(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.Method+" "+r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(collector.Close)
	t.Cleanup(func() { otel.SetMeterProvider(noop.NewMeterProvider()) })

	ctx := context.Background()
	p, err := Setup(ctx, Config{
		Endpoint:       collector.URL + "/",
		ExportInterval: time.Hour,
		ServiceName:    "notebook",
		ServiceVersion: "test",
	})
	require.NoError(t, err)
	require.True(t, p.Enabled())

	obs, err := NewActivityFailures(p)
	require.NoError(t, err)
	obs.ActivityFailed(ctx, &service.ActivityLogError{Kind: domain.ActivityCreateNote, Err: errors.New("disk full")})

	require.NoError(t, p.Shutdown(ctx))

	mu.Lock()
	defer mu.Unlock()
	require.Contains(t, paths, "POST /v1/metrics")
}
