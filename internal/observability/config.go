// Package observability wires structured logging, OpenTelemetry tracing,
// and Prometheus-backed metrics for a pfp run. It is modeled directly on
// the teacher's pkg/observability package, with codefang's request/error
// RED metrics replaced by PFP-domain counters (phrases inserted, bytes
// parsed, samples completed, AuPair bytes removed) and its HTTP request
// mode collapsed to a single batch-CLI mode.
package observability

import "log/slog"

// AppMode distinguishes the run context for resource attribution and log
// enrichment; pfp only ever runs as a CLI, but the type is kept so a
// future server/daemon mode (e.g. a long-lived aupair service) slots in
// without reshaping Config.
type AppMode string

const (
	ModeCLI AppMode = "cli"
)

const defaultShutdownTimeoutSec = 5

// Config configures observability bootstrap. Unlike the teacher's
// OTLP-exporting variant, pfp has no tracing/metrics backend dependency
// in go.mod (only the Prometheus exporter is wired): traces are built
// and sampled for trace/span-id log correlation but not shipped anywhere,
// and metrics are exposed only via the local /metrics scrape endpoint.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Mode           AppMode

	LogLevel slog.Level
	LogJSON  bool

	// DiagnosticsAddr is an address for a DiagnosticsServer (/healthz,
	// /readyz, /metrics). Init does not read it and starts no server, and
	// no pfp subcommand sets it.
	DiagnosticsAddr string

	SampleRatio        float64
	ShutdownTimeoutSec int
}

// DefaultConfig returns the configuration used when the caller supplies
// no overrides: info-level text logs, always-on sampling, no diagnostics
// server.
func DefaultConfig() Config {
	return Config{
		ServiceName:        "pfp",
		Mode:               ModeCLI,
		LogLevel:           slog.LevelInfo,
		LogJSON:            false,
		SampleRatio:        1.0,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}
