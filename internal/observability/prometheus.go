package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// prometheusMeterProvider creates an OTel MeterProvider backed by a
// dedicated Prometheus registry and returns both the provider (for
// instrument creation) and an http.Handler serving /metrics. Each call
// creates an independent registry to avoid collector conflicts across
// repeated test runs.
func prometheusMeterProvider() (metric.MeterProvider, http.Handler, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	return mp, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}
