package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/geoclue-exporter/geodiag/internal/mcpconfig"
	"github.com/geoclue-exporter/geodiag/internal/probes/servicestate"
	"github.com/geoclue-exporter/geodiag/internal/settings"
	"github.com/geoclue-exporter/geodiag/internal/sysexec"
)

// NewConfigServer builds the configuration-management role.
func NewConfigServer(cfg *settings.Settings, manager *mcpconfig.Manager, runner sysexec.Runner, version string) *Server {
	s := New("config", version)
	exp := cfg.Exporter

	s.Register(Operation{
		Name:        "get_service_config",
		Description: "Return the service configuration views",
		Params: []Param{
			{Name: "config_type", Type: "string", Description: "One of all, mcp, systemd, deployment", Default: "all"},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			configType, err := argString(args, "config_type")
			if err != nil {
				return nil, err
			}
			out := make(map[string]any)
			if configType == "all" || configType == "mcp" {
				doc, err := manager.Document()
				if err != nil {
					return nil, err
				}
				out["mcp"] = doc
			}
			if configType == "all" || configType == "systemd" {
				unit, err := unitFileText(ctx, runner, exp.Unit)
				if err != nil {
					out["systemd_error"] = err.Error()
				} else {
					out["systemd"] = unit
				}
			}
			if configType == "all" || configType == "deployment" {
				out["deployment"] = deploymentSummary(cfg, manager.Path())
			}
			if len(out) == 0 {
				return nil, fmt.Errorf("%w: config_type must be all, mcp, systemd, or deployment", errMissingArgument)
			}
			return out, nil
		},
	})

	s.Register(Operation{
		Name:        "update_mcp_config",
		Description: "Merge a partial update into a named server entry and persist the document",
		Params: []Param{
			{Name: "server_name", Type: "string", Description: "Server entry to update", Required: true},
			{Name: "config", Type: "object", Description: "Partial field map merged over the entry", Required: true},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			name, err := argString(args, "server_name")
			if err != nil {
				return nil, err
			}
			partial, err := argMap(args, "config")
			if err != nil {
				return nil, err
			}
			doc, err := manager.UpdateServer(name, partial)
			if err != nil {
				return nil, err
			}
			return map[string]any{"updated": name, "document": doc}, nil
		},
	})

	s.Register(Operation{
		Name:        "get_service_status",
		Description: "Query systemd for a unit's active and enabled state",
		Params: []Param{
			{Name: "service_name", Type: "string", Description: "systemd unit name", Default: exp.Unit},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			unit, err := argString(args, "service_name")
			if err != nil {
				return nil, err
			}
			return servicestate.Query(ctx, runner, unit)
		},
	})

	s.Register(Operation{
		Name:        "get_service_args",
		Description: "Return the exporter's command line as configured in its unit",
		Params:      []Param{},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			out, err := runner.Output(ctx, "systemctl", "show", "--property=ExecStart", "--value", exp.Unit)
			if err != nil {
				return nil, fmt.Errorf("query ExecStart for %s: %w", exp.Unit, err)
			}
			execStart := strings.TrimSpace(string(out))
			if execStart == "" {
				return nil, fmt.Errorf("no ExecStart configured for %s", exp.Unit)
			}
			return map[string]any{
				"unit":       exp.Unit,
				"exec_start": execStart,
			}, nil
		},
	})

	s.Register(Operation{
		Name:        "validate_config",
		Description: "Validate the configuration document, reporting every violation",
		Params: []Param{
			{Name: "config_type", Type: "string", Description: "Configuration to validate", Default: "mcp"},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			configType, err := argString(args, "config_type")
			if err != nil {
				return nil, err
			}
			if configType != "mcp" {
				return nil, fmt.Errorf("%w: only mcp validation is supported, got %q", errMissingArgument, configType)
			}
			findings := manager.Validate()
			return map[string]any{
				"valid":    len(findings) == 0,
				"findings": findings,
			}, nil
		},
	})

	s.RegisterResource(Resource{
		URI:         "config://mcp/servers",
		Description: "The MCP server configuration document",
		MimeType:    "application/json",
		Reader: func(ctx context.Context) (string, error) {
			doc, err := manager.Document()
			if err != nil {
				return "", err
			}
			return encodeJSON(doc)
		},
	})

	s.RegisterResource(Resource{
		URI:         "config://systemd/unit",
		Description: "The exporter's systemd unit file",
		MimeType:    "text/plain",
		Reader: func(ctx context.Context) (string, error) {
			return unitFileText(ctx, runner, exp.Unit)
		},
	})

	s.RegisterResource(Resource{
		URI:         "config://deployment/nix",
		Description: "Deployment summary for the exporter",
		MimeType:    "text/plain",
		Reader: func(ctx context.Context) (string, error) {
			return deploymentSummary(cfg, manager.Path()), nil
		},
	})

	return s
}

func unitFileText(ctx context.Context, runner sysexec.Runner, unit string) (string, error) {
	if err := sysexec.ValidateUnitName(unit); err != nil {
		return "", err
	}
	out, err := runner.Output(ctx, "systemctl", "cat", "--no-pager", unit)
	if err != nil {
		return "", fmt.Errorf("read unit file for %s: %w", unit, err)
	}
	return string(out), nil
}

func deploymentSummary(cfg *settings.Settings, configPath string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "unit: %s\n", cfg.Exporter.Unit)
	fmt.Fprintf(&b, "metrics endpoint: http://%s:%d%s\n", cfg.Exporter.Host, cfg.Exporter.Port, cfg.Exporter.MetricsPath)
	fmt.Fprintf(&b, "dependencies: %s\n", strings.Join(cfg.Exporter.Dependencies, ", "))
	fmt.Fprintf(&b, "mcp config: %s\n", configPath)
	return b.String()
}
