package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// DiagnosticsServer exposes /healthz, /readyz, and /metrics over HTTP
// for the duration of a run, useful for long pangenome-construction
// batches run under a process supervisor.
type DiagnosticsServer struct {
	server *http.Server
	logger *slog.Logger
}

// NewDiagnosticsServer builds a diagnostics server bound to addr, serving
// the Prometheus handler from providers and readiness checks.
func NewDiagnosticsServer(addr string, providers Providers, checks ...ReadyCheck) *DiagnosticsServer {
	mux := http.NewServeMux()
	mux.Handle("/healthz", HealthHandler())
	mux.Handle("/readyz", ReadyHandler(checks...))
	mux.Handle("/metrics", providers.MetricsHandler)

	return &DiagnosticsServer{
		server: &http.Server{Addr: addr, Handler: mux},
		logger: providers.Logger,
	}
}

// Start serves in the background until Shutdown is called. Errors other
// than the expected post-shutdown http.ErrServerClosed are logged.
func (d *DiagnosticsServer) Start() {
	go func() {
		if err := d.server.ListenAndServe(); err != nil && !isServerClosed(err) {
			d.logger.Warn("diagnostics server stopped", slog.Any("error", err))
		}
	}()
}

// Shutdown gracefully stops the server.
func (d *DiagnosticsServer) Shutdown(ctx context.Context) error {
	if err := d.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown diagnostics server: %w", err)
	}

	return nil
}

func isServerClosed(err error) bool {
	return err == http.ErrServerClosed
}
