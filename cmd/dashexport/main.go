// Command dashexport converts dashboard payloads offline: it flattens a
// saved /dashboard-data response and writes it in any export format, and
// inspects the role catalog and view dispatch.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/JonMunkholm/roledash/internal/core/views" // Register all views
	"github.com/JonMunkholm/roledash/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel, logFormat string

	root := &cobra.Command{
		Use:           "dashexport",
		Short:         "Flatten and export dashboard payloads",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// stdout carries command output, so logs go to stderr.
			cmd.SetContext(logging.ContextWithLogger(cmd.Context(),
				logging.New(cmd.ErrOrStderr(), logLevel, logFormat)))
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text or json")

	root.AddCommand(
		newFlattenCmd(),
		newCSVCmd(),
		newRowsCmd(),
		newXLSXCmd(),
		newColumnsCmd(),
		newViewCmd(),
	)
	return root
}
