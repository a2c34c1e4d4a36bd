package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the periscope application.
var rootCmd = &cobra.Command{
	Use:   "periscope",
	Short: "Collect diagnostics from scheduler hosts",
	Long: `periscope runs probe commands against scheduler-bearing hosts --
Kubernetes pods, Docker containers, remote machines over SSH, or the
local machine -- and assembles the normalized results into a single
JSON report.`,
	// SilenceUsage prevents Cobra from printing the usage message on
	// errors the application already reports.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command. Called from main
// to inject the build-time version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the entry point for the CLI.
func Execute(ctx context.Context) {
	rootCmd.SetVersionTemplate(`{{printf "periscope version %s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newVersionCmd())
}
