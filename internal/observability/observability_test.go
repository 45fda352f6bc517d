package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace"

	"github.com/Sumatoshi-tech/pfp/internal/observability"
)

func TestTracingHandlerInjectsServiceAttributesAlways(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	inner := slog.NewTextHandler(&buf, nil)
	handler := observability.NewTracingHandler(inner, "pfp", "test", observability.ModeCLI)
	logger := slog.New(handler)

	logger.Info("hello")

	out := buf.String()
	require.Contains(t, out, "service=pfp")
	require.Contains(t, out, "mode=cli")
	require.Contains(t, out, "env=test")
	require.NotContains(t, out, "trace_id=")
}

func TestTracingHandlerInjectsTraceContextWhenPresent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	inner := slog.NewTextHandler(&buf, nil)
	handler := observability.NewTracingHandler(inner, "pfp", "", observability.ModeCLI)
	logger := slog.New(handler)

	tp := trace.NewTracerProvider()
	defer tp.Shutdown(context.Background()) //nolint:errcheck

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	logger.InfoContext(ctx, "hello")
	span.End()

	out := buf.String()
	require.Contains(t, out, "trace_id=")
	require.Contains(t, out, "span_id=")
}

func TestErrorCountersSnapshotAndTotal(t *testing.T) {
	t.Parallel()

	c := observability.NewErrorCounters()
	c.Record(observability.ErrorKindSchemaMismatch)
	c.Record(observability.ErrorKindSchemaMismatch)
	c.Record(observability.ErrorKindUnsupportedVariant)

	snap := c.Snapshot()
	require.Equal(t, int64(2), snap["schema_mismatch"])
	require.Equal(t, int64(1), snap["unsupported_variant"])
	require.Equal(t, int64(0), snap["decode"])
	require.Equal(t, int64(3), c.Total())
}

func TestInitProducesUsableProvidersAndMetricsEndpoint(t *testing.T) {
	t.Parallel()

	cfg := observability.DefaultConfig()
	cfg.ServiceName = "pfp-test"

	providers, err := observability.Init(cfg)
	require.NoError(t, err)
	require.NotNil(t, providers.Metrics)
	require.NotNil(t, providers.MetricsHandler)

	providers.Metrics.RecordPhraseInserted(context.Background())

	require.NoError(t, providers.Shutdown(context.Background()))
}

func TestSelectSamplerBoundaries(t *testing.T) {
	t.Parallel()

	for _, cfg := range []observability.Config{
		{SampleRatio: 0},
		{SampleRatio: 0.5},
		{SampleRatio: 1},
	} {
		_, err := observability.Init(cfg)
		require.NoError(t, err)
	}
}

func TestHealthAndReadyHandlersReportStatus(t *testing.T) {
	t.Parallel()

	require.NotPanics(t, func() {
		_ = observability.HealthHandler()
		_ = observability.ReadyHandler(func(context.Context) error { return nil })
	})

	rec := httptest.NewRecorder()
	observability.HealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	observability.ReadyHandler(func(context.Context) error { return errors.New("down") }).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.JSONEq(t, `{"status":"unavailable"}`, rec.Body.String())
}

func TestErrorKindStringIsStable(t *testing.T) {
	t.Parallel()

	names := []string{
		observability.ErrorKindDecode.String(),
		observability.ErrorKindSchemaMismatch.String(),
		observability.ErrorKindUnsupportedVariant.String(),
		observability.ErrorKindInvariant.String(),
		observability.ErrorKindIOFailure.String(),
	}

	for _, n := range names {
		require.False(t, strings.Contains(n, " "))
		require.NotEmpty(t, n)
	}
}
