package cmd

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/geoclue-exporter/geodiag/internal/logscan"
	"github.com/geoclue-exporter/geodiag/internal/probe"
	"github.com/geoclue-exporter/geodiag/internal/probes"
	"github.com/geoclue-exporter/geodiag/internal/probes/connectivity"
	"github.com/geoclue-exporter/geodiag/internal/probes/logtail"
	"github.com/geoclue-exporter/geodiag/internal/probes/resources"
	"github.com/geoclue-exporter/geodiag/internal/probes/servicestate"
	"github.com/geoclue-exporter/geodiag/internal/sysexec"
)

// connectivity probe
var connectivityCmd = &cobra.Command{
	Use:   "connectivity",
	Short: "Check TCP connectivity to a host and port",
	Run: func(cmd *cobra.Command, args []string) {
		host, _ := cmd.Flags().GetString("host")
		port, _ := cmd.Flags().GetInt("port")
		timeoutMs, _ := cmd.Flags().GetInt("timeout")

		outcome := connectivity.Run(host, port, time.Duration(timeoutMs)*time.Millisecond)
		outputOutcome(outcome)
	},
}

// service-status probe
var serviceStatusCmd = &cobra.Command{
	Use:   "service-status",
	Short: "Query systemd for a unit's state",
	Run: func(cmd *cobra.Command, args []string) {
		unit, _ := cmd.Flags().GetString("service")
		optional, _ := cmd.Flags().GetBool("optional")

		outcome := servicestate.Run(cmd.Context(), sysexec.System{}, unit, optional)
		outputOutcome(outcome)
	},
}

// resources probe
var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "Collect process and host resource usage for a service",
	Run: func(cmd *cobra.Command, args []string) {
		unit, _ := cmd.Flags().GetString("service")

		snap, err := resources.Collect(cmd.Context(), sysexec.System{}, unit)
		if err != nil {
			outputOutcome(probe.New(resources.Name, probe.StatusFail, err.Error()))
			return
		}
		json.NewEncoder(os.Stdout).Encode(snap)
	},
}

// log-analysis probe
var logAnalysisCmd = &cobra.Command{
	Use:   "log-analysis",
	Short: "Tail a unit's journal and classify the lines",
	Run: func(cmd *cobra.Command, args []string) {
		unit, _ := cmd.Flags().GetString("service")
		lines, _ := cmd.Flags().GetInt("lines")

		raw, err := logtail.Tail(cmd.Context(), sysexec.System{}, unit, lines)
		if err != nil {
			outputOutcome(probe.New(logtail.Name, probe.StatusFail, err.Error()))
			return
		}
		json.NewEncoder(os.Stdout).Encode(logscan.Analyze(raw, nil))
	},
}

// describe lists the built-in probes
var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Output built-in probe descriptions as JSON",
	Run: func(cmd *cobra.Command, args []string) {
		json.NewEncoder(os.Stdout).Encode(probes.GetAllDescriptions())
	},
}

func init() {
	connectivityCmd.GroupID = probeGroupID
	serviceStatusCmd.GroupID = probeGroupID
	resourcesCmd.GroupID = probeGroupID
	logAnalysisCmd.GroupID = probeGroupID
	describeCmd.GroupID = probeGroupID
	rootCmd.AddCommand(connectivityCmd)
	rootCmd.AddCommand(serviceStatusCmd)
	rootCmd.AddCommand(resourcesCmd)
	rootCmd.AddCommand(logAnalysisCmd)
	rootCmd.AddCommand(describeCmd)

	// connectivity flags
	connectivityCmd.Flags().String("host", "127.0.0.1", "Host to connect to")
	connectivityCmd.Flags().Int("port", 9090, "TCP port")
	connectivityCmd.Flags().Int("timeout", 5000, "Connection timeout in milliseconds")

	// service-status flags
	serviceStatusCmd.Flags().String("service", "geoclue-exporter.service", "systemd unit name")
	serviceStatusCmd.Flags().Bool("optional", false, "Treat inactive as a warning")

	// resources flags
	resourcesCmd.Flags().String("service", "geoclue-exporter.service", "systemd unit name")

	// log-analysis flags
	logAnalysisCmd.Flags().String("service", "geoclue-exporter.service", "systemd unit name")
	logAnalysisCmd.Flags().Int("lines", 50, "Number of lines to analyze")
}

func outputOutcome(outcome probe.Outcome) {
	json.NewEncoder(os.Stdout).Encode(outcome)
}
