// Package cli wires the digit commands together.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/digit-ml/digit/internal/logger"
)

var (
	flagDebug   bool
	flagJSONLog bool
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "digit",
		Short:         "Train and run a small convolutional digit classifier",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Setup(logger.Options{Debug: flagDebug, JSON: flagJSONLog})
		},
	}
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&flagJSONLog, "log-json", false, "log as JSON")

	cmd.AddCommand(newTrainCmd())
	cmd.AddCommand(newInferCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute runs the CLI and exits non-zero on error.
func Execute() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		cmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
