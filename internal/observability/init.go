package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "pfp"
	meterName  = "pfp"
)

// Providers holds everything a run needs from the observability stack.
type Providers struct {
	Tracer  trace.Tracer
	Meter   metric.Meter
	Metrics *PFPMetrics
	Logger  *slog.Logger

	// MetricsHandler serves the Prometheus /metrics scrape endpoint.
	MetricsHandler http.Handler

	// Shutdown flushes the tracer provider. Must be called before
	// process exit.
	Shutdown func(ctx context.Context) error
}

// Init builds the tracer provider, the Prometheus-backed meter provider,
// the PFP domain metric instruments, and the tracing-aware logger. Unlike
// the teacher's OTLP-exporting variant, no external collector is
// configured: traces are sampled and propagated purely so trace_id/
// span_id show up in correlated log lines, and metrics are exposed only
// via the local Prometheus scrape endpoint (the one exporter in go.mod).
func Init(cfg Config) (Providers, error) {
	res, err := buildResource(cfg)
	if err != nil {
		return Providers{}, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(selectSampler(cfg)),
	)
	otel.SetTracerProvider(tp)

	mp, metricsHandler, err := prometheusMeterProvider()
	if err != nil {
		shutdownErr := tp.Shutdown(context.Background())

		return Providers{}, errors.Join(fmt.Errorf("build meter provider: %w", err), shutdownErr)
	}
	otel.SetMeterProvider(mp)

	meter := mp.Meter(meterName)

	metrics, err := NewPFPMetrics(meter)
	if err != nil {
		shutdownErr := tp.Shutdown(context.Background())

		return Providers{}, errors.Join(fmt.Errorf("build pfp metrics: %w", err), shutdownErr)
	}

	shutdown := func(ctx context.Context) error {
		timeout := time.Duration(cfg.ShutdownTimeoutSec) * time.Second
		if timeout <= 0 {
			timeout = defaultShutdownTimeoutSec * time.Second
		}

		deadlineCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if err := tp.Shutdown(deadlineCtx); err != nil {
			return fmt.Errorf("shutdown tracer provider: %w", err)
		}

		return nil
	}

	return Providers{
		Tracer:         tp.Tracer(tracerName),
		Meter:          meter,
		Metrics:        metrics,
		Logger:         buildLogger(cfg),
		MetricsHandler: metricsHandler,
		Shutdown:       shutdown,
	}, nil
}

func buildResource(cfg Config) (*resource.Resource, error) {
	attrs := []resource.Option{
		resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)),
	}

	if cfg.ServiceVersion != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.ServiceVersion(cfg.ServiceVersion)))
	}

	if cfg.Environment != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.DeploymentEnvironment(cfg.Environment)))
	}

	if cfg.Mode != "" {
		attrs = append(attrs, resource.WithAttributes(attribute.String("app.mode", string(cfg.Mode))))
	}

	res, err := resource.New(context.Background(), attrs...)
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}

	return res, nil
}

func selectSampler(cfg Config) sdktrace.Sampler {
	if cfg.SampleRatio <= 0 {
		return sdktrace.ParentBased(sdktrace.NeverSample())
	}

	if cfg.SampleRatio >= 1 {
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}

	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))
}

func buildLogger(cfg Config) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: cfg.LogLevel}

	var inner slog.Handler
	if cfg.LogJSON {
		inner = slog.NewJSONHandler(os.Stderr, handlerOpts)
	} else {
		inner = slog.NewTextHandler(os.Stderr, handlerOpts)
	}

	return slog.New(NewTracingHandler(inner, cfg.ServiceName, cfg.Environment, cfg.Mode))
}
