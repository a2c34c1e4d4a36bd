package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/periscope-tools/periscope/internal/getter"
	"github.com/periscope-tools/periscope/internal/logging"
	"github.com/periscope-tools/periscope/internal/report"
)

type reportFlags struct {
	useLocal      bool
	useDocker     bool
	useKubernetes bool
	clusterInfo   bool
	verify        bool

	hostsFile   string
	probesFile  string
	outputFile  string
	parallelism int

	kubeconfig  string
	kubeContext string

	debug     bool
	logFormat string
}

// newReportCmd creates the Cobra command that drives a collection run.
func newReportCmd() *cobra.Command {
	flags := &reportFlags{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Run probes against scheduler hosts and write a JSON report",
		Long: `Gathers target hosts (from a hosts file, or by autodiscovery when
--kubernetes or --docker is set), runs the configured probe commands
against every host in parallel, and writes the assembled report.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.useLocal, "local", false, "probe the local machine")
	cmd.Flags().BoolVar(&flags.useDocker, "docker", false, "autodiscover scheduler containers via the local Docker daemon")
	cmd.Flags().BoolVar(&flags.useKubernetes, "kubernetes", false, "autodiscover scheduler pods in the current cluster")
	cmd.Flags().BoolVar(&flags.clusterInfo, "cluster-info", false, "include a cluster capacity summary in the report")
	cmd.Flags().BoolVar(&flags.verify, "verify", false, "include local verification probes in the report")
	cmd.Flags().StringVarP(&flags.hostsFile, "hosts-file", "f", "", "hosts file listing ssh, kubernetes and docker targets")
	cmd.Flags().StringVarP(&flags.probesFile, "probe-config", "c", "config.yaml", "probe configuration file")
	cmd.Flags().StringVarP(&flags.outputFile, "output-file", "o", "report.json", "output file for the report, '-' for stdout")
	cmd.Flags().IntVarP(&flags.parallelism, "parallelism", "p", 0, "concurrent checks, 0 for one per CPU, 1 to disable concurrency")
	cmd.Flags().StringVar(&flags.kubeconfig, "kubeconfig", "", "path to the kubeconfig file (defaults to ambient resolution)")
	cmd.Flags().StringVar(&flags.kubeContext, "kube-context", "", "kubeconfig context to use (defaults to the current context)")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "enable debug logging")
	cmd.Flags().StringVar(&flags.logFormat, "log-format", "json", "log format: json or text")

	return cmd
}

func runReport(cmd *cobra.Command, flags *reportFlags) error {
	ctx := cmd.Context()
	logger := logging.New(logging.Config{Debug: flags.debug, Format: flags.logFormat})

	probes, err := report.LoadProbes(flags.probesFile)
	if err != nil {
		return err
	}

	coordinator := &report.Coordinator{
		Sessions: &getter.Sessions{
			Logger:      logger,
			Kubeconfig:  flags.kubeconfig,
			KubeContext: flags.kubeContext,
		},
		Logger:      logger,
		Parallelism: flags.parallelism,
		Version:     rootCmd.Version,
	}

	getters, err := coordinator.Gather(ctx, report.GatherOptions{
		UseLocal:      flags.useLocal,
		UseDocker:     flags.useDocker,
		UseKubernetes: flags.useKubernetes,
		HostsFile:     flags.hostsFile,
	})
	if err != nil {
		return err
	}

	logger.Info("generating report",
		"targets", len(getters), "output", flags.outputFile)

	doc, err := coordinator.Run(ctx, getters, probes, report.RunOptions{
		ClusterInfo: flags.clusterInfo,
		Verify:      flags.verify,
	})
	if err != nil {
		return err
	}

	return writeReport(doc, flags.outputFile)
}

func writeReport(doc map[string]any, path string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')

	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
