package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"modular.GO/config"
)

var rootCmd = &cobra.Command{
	Use:           "modular",
	Short:         "Module registry and lifecycle tools",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.ConfigureLogging()
	},
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	Apply()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
