package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X github.com/geoclue-exporter/geodiag/cmd.Version=..."
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "geodiag",
	Short: "Diagnostic MCP servers for the GeoClue2 Prometheus exporter",
	Long: `Geodiag exposes diagnostics and configuration management for a running
GeoClue2 metrics exporter over a stdio request/response protocol.`,
}

const probeGroupID = "probes"

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddGroup(&cobra.Group{ID: probeGroupID, Title: "Direct Probes:"})
	rootCmd.PersistentFlags().String("config", "", "Settings file path")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")

	rootCmd.Flags().BoolP("version", "v", false, "Print version and exit")
	rootCmd.Run = func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			cmd.Printf("geodiag version %s\n", Version)
			return
		}
		cmd.Help()
	}

	cobra.OnInitialize(func() {
		setupLogging(rootCmd)
	})
}

// setupLogging sends structured logs to stderr; stdout belongs to the
// request/response transport.
func setupLogging(cmd *cobra.Command) {
	levelStr, _ := cmd.PersistentFlags().GetString("log-level")
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
