package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/geoclue-exporter/geodiag/internal/history"
	"github.com/geoclue-exporter/geodiag/internal/mcpconfig"
	"github.com/geoclue-exporter/geodiag/internal/server"
	"github.com/geoclue-exporter/geodiag/internal/settings"
	"github.com/geoclue-exporter/geodiag/internal/sysexec"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a server role over stdin/stdout",
}

var serveMetricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Serve the metrics-access role",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		return runServer(cmd.Context(), server.NewMetricsServer(cfg, Version))
	},
}

var serveConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Serve the configuration-management role",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		manager, err := mcpconfig.NewManager(cfg.Config.Path)
		if err != nil {
			return fmt.Errorf("load mcp config: %w", err)
		}
		return runServer(cmd.Context(), server.NewConfigServer(cfg, manager, sysexec.System{}, Version))
	},
}

var serveMonitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Serve the monitoring role",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		store, err := history.Open(cmd.Context(), cfg.History.DatabasePath)
		if err != nil {
			// The monitor still works without trend history.
			slog.Warn("history store unavailable", "path", cfg.History.DatabasePath, "error", err)
			store = nil
		} else {
			defer store.Close()
		}
		return runServer(cmd.Context(), server.NewMonitorServer(cfg, sysexec.System{}, store, Version))
	},
}

func init() {
	serveCmd.AddCommand(serveMetricsCmd)
	serveCmd.AddCommand(serveConfigCmd)
	serveCmd.AddCommand(serveMonitorCmd)
	rootCmd.AddCommand(serveCmd)
}

func loadSettings(cmd *cobra.Command) (*settings.Settings, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := settings.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return cfg, nil
}

func runServer(parent context.Context, s *server.Server) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx, os.Stdin, os.Stdout)
}
