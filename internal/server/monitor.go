package server

import (
	"context"
	"log/slog"

	"github.com/geoclue-exporter/geodiag/internal/health"
	"github.com/geoclue-exporter/geodiag/internal/history"
	"github.com/geoclue-exporter/geodiag/internal/logscan"
	"github.com/geoclue-exporter/geodiag/internal/probe"
	"github.com/geoclue-exporter/geodiag/internal/probes/connectivity"
	"github.com/geoclue-exporter/geodiag/internal/probes/logtail"
	"github.com/geoclue-exporter/geodiag/internal/probes/resources"
	"github.com/geoclue-exporter/geodiag/internal/probes/servicestate"
	"github.com/geoclue-exporter/geodiag/internal/settings"
	"github.com/geoclue-exporter/geodiag/internal/sysexec"
	"github.com/geoclue-exporter/geodiag/internal/views"
)

// NewMonitorServer builds the monitoring role: health checks, probes, log
// analysis, and the derived views. The history store may be nil, in which
// case reports are simply not recorded.
func NewMonitorServer(cfg *settings.Settings, runner sysexec.Runner, store *history.Store, version string) *Server {
	s := New("monitor", version)
	exp := cfg.Exporter

	checker := &health.Checker{
		Runner:       runner,
		Host:         exp.Host,
		Port:         exp.Port,
		MetricsPath:  exp.MetricsPath,
		PrimaryUnit:  exp.Unit,
		Dependencies: exp.Dependencies,
	}

	runCheck := func(ctx context.Context, c *health.Checker, includeMetrics bool) *health.Report {
		report := c.Check(ctx, includeMetrics)
		if store != nil {
			if err := store.Record(ctx, report); err != nil {
				slog.Warn("failed to record health report", "error", err)
			}
		}
		return report
	}

	s.Register(Operation{
		Name:        "health_check",
		Description: "Run the full probe set and report the health rollup",
		Params: []Param{
			{Name: "host", Type: "string", Description: "Exporter host", Default: exp.Host},
			{Name: "port", Type: "number", Description: "Exporter port", Default: float64(exp.Port)},
			{Name: "include_metrics", Type: "boolean", Description: "Include the metrics endpoint probe", Default: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			host, err := argString(args, "host")
			if err != nil {
				return nil, err
			}
			port, err := argInt(args, "port")
			if err != nil {
				return nil, err
			}
			c := *checker
			c.Host = host
			c.Port = port
			return runCheck(ctx, &c, argBool(args, "include_metrics")), nil
		},
	})

	s.Register(Operation{
		Name:        "service_status",
		Description: "Probe a unit's service-manager state",
		Params: []Param{
			{Name: "service_name", Type: "string", Description: "systemd unit name", Default: exp.Unit},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			unit, err := argString(args, "service_name")
			if err != nil {
				return nil, err
			}
			return servicestate.Run(ctx, runner, unit, false), nil
		},
	})

	s.Register(Operation{
		Name:        "system_resources",
		Description: "Collect process and host resource usage for a service",
		Params: []Param{
			{Name: "service_name", Type: "string", Description: "systemd unit name", Default: exp.Unit},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			unit, err := argString(args, "service_name")
			if err != nil {
				return nil, err
			}
			return resources.Collect(ctx, runner, unit)
		},
	})

	s.Register(Operation{
		Name:        "network_connectivity",
		Description: "Check TCP connectivity to a host and port",
		Params: []Param{
			{Name: "host", Type: "string", Description: "Host to connect to", Default: exp.Host},
			{Name: "port", Type: "number", Description: "TCP port", Default: float64(exp.Port)},
			{Name: "timeout", Type: "number", Description: "Timeout in milliseconds", Default: float64(5000)},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			host, err := argString(args, "host")
			if err != nil {
				return nil, err
			}
			port, err := argInt(args, "port")
			if err != nil {
				return nil, err
			}
			timeout, err := argMillis(args, "timeout")
			if err != nil {
				return nil, err
			}
			return connectivity.Run(host, port, timeout), nil
		},
	})

	s.Register(Operation{
		Name:        "log_analysis",
		Description: "Tail a unit's journal and classify the lines",
		Params: []Param{
			{Name: "service_name", Type: "string", Description: "systemd unit name", Default: exp.Unit},
			{Name: "lines", Type: "number", Description: "Number of lines to analyze", Default: float64(50)},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			unit, err := argString(args, "service_name")
			if err != nil {
				return nil, err
			}
			lines, err := argInt(args, "lines")
			if err != nil {
				return nil, err
			}
			raw, err := logtail.Tail(ctx, runner, unit, lines)
			if err != nil {
				return nil, err
			}
			return logscan.Analyze(raw, nil), nil
		},
	})

	s.Register(Operation{
		Name:        "geoclue_dependency_check",
		Description: "Probe the exporter's dependency services",
		Params:      []Param{},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			outcomes := make([]probe.Outcome, 0, len(exp.Dependencies))
			for _, dep := range exp.Dependencies {
				outcomes = append(outcomes, servicestate.Run(ctx, runner, dep, true))
			}
			return map[string]any{
				"dependencies":   outcomes,
				"overall_status": health.Rollup(outcomes),
			}, nil
		},
	})

	s.RegisterResource(Resource{
		URI:         "monitor://dashboard/status",
		Description: "Plain-text status dashboard",
		MimeType:    "text/plain",
		Reader: func(ctx context.Context) (string, error) {
			report := runCheck(ctx, checker, true)
			snap, err := resources.Collect(ctx, runner, exp.Unit)
			if err != nil {
				snap = nil
			}
			return views.Dashboard(report, snap), nil
		},
	})

	s.RegisterResource(Resource{
		URI:         "monitor://alerts/current",
		Description: "Current alerts derived from a fresh health check",
		MimeType:    "application/json",
		Reader: func(ctx context.Context) (string, error) {
			report := runCheck(ctx, checker, true)
			return encodeJSON(views.Alerts(report))
		},
	})

	s.RegisterResource(Resource{
		URI:         "monitor://performance/summary",
		Description: "Resource snapshot plus recent rollup history",
		MimeType:    "application/json",
		Reader: func(ctx context.Context) (string, error) {
			snap, err := resources.Collect(ctx, runner, exp.Unit)
			if err != nil {
				return "", err
			}
			perf := views.Performance{Snapshot: snap}
			if store != nil {
				recent, err := store.Recent(ctx, 20)
				if err != nil {
					slog.Warn("failed to read report history", "error", err)
				} else {
					perf.Recent = recent
				}
			}
			return encodeJSON(perf)
		},
	})

	return s
}
