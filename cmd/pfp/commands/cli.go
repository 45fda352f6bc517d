package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/pfp/internal/observability"
)

// isSilent reports whether progress output should be suppressed: either
// the command's own --silent flag, or the root command's --quiet
// persistent flag, matching the teacher's RunCommand.isSilent
// (cmd/codefang/commands/run.go).
func isSilent(cmd *cobra.Command, ownFlag bool) bool {
	if ownFlag {
		return true
	}

	quiet, err := cmd.Flags().GetBool("quiet")
	if err != nil {
		return false
	}

	return quiet
}

// progressf writes a progress line unless silent, matching the teacher's
// progressf helper.
func progressf(silent bool, w io.Writer, format string, args ...any) {
	if silent {
		return
	}

	_, _ = fmt.Fprintf(w, "progress: "+format+"\n", args...)
}

// observabilityConfig builds the observability bootstrap Config for a
// pfp run, raising the log level when --verbose is set on the root
// command.
func observabilityConfig(cmd *cobra.Command) observability.Config {
	cfg := observability.DefaultConfig()

	if verbose, err := cmd.Flags().GetBool("verbose"); err == nil && verbose {
		cfg.LogLevel = slog.LevelDebug
	}

	return cfg
}
