// Package servicestate provides the service-manager state probe.
package servicestate

import (
	"context"
	"fmt"
	"strings"

	"github.com/geoclue-exporter/geodiag/internal/probe"
	"github.com/geoclue-exporter/geodiag/internal/sysexec"
)

// Name is the probe name.
const Name = "service_state"

// GetDescription returns the probe description.
func GetDescription() probe.Description {
	return probe.Description{
		Name:        Name,
		Description: "Query systemd for a unit's active and enabled state",
		Arguments: probe.Arguments{
			Required: map[string]probe.ArgumentSpec{
				"service_name": {
					Type:        "string",
					Description: "systemd unit name",
				},
			},
			Optional: map[string]probe.ArgumentSpec{
				"optional": {
					Type:        "boolean",
					Description: "Treat an inactive unit as a warning instead of a failure",
					Default:     false,
				},
			},
		},
	}
}

// State holds the raw answers from the service manager.
type State struct {
	Unit    string `json:"unit"`
	Active  string `json:"active"`
	Enabled string `json:"enabled"`
}

// Query asks systemctl for the unit's active and enabled state. is-active and
// is-enabled exit non-zero for inactive/disabled units, so only an empty
// answer counts as a query failure.
func Query(ctx context.Context, runner sysexec.Runner, unit string) (State, error) {
	if err := sysexec.ValidateUnitName(unit); err != nil {
		return State{}, err
	}
	st := State{Unit: unit}

	out, err := runner.Output(ctx, "systemctl", "is-active", unit)
	st.Active = strings.TrimSpace(string(out))
	if st.Active == "" {
		if err != nil {
			return st, fmt.Errorf("systemctl is-active %s: %w", unit, err)
		}
		st.Active = "unknown"
	}

	out, _ = runner.Output(ctx, "systemctl", "is-enabled", unit)
	st.Enabled = strings.TrimSpace(string(out))
	if st.Enabled == "" {
		st.Enabled = "unknown"
	}
	return st, nil
}

// Run probes a unit. An inactive unit fails for the primary service and
// warns for optional dependency services.
func Run(ctx context.Context, runner sysexec.Runner, unit string, optional bool) probe.Outcome {
	st, err := Query(ctx, runner, unit)
	if err != nil {
		return probe.New(Name, probe.StatusFail, err.Error())
	}
	if st.Active == "active" {
		return probe.New(Name, probe.StatusPass,
			fmt.Sprintf("%s is active (%s)", unit, st.Enabled))
	}
	status := probe.StatusFail
	if optional {
		status = probe.StatusWarn
	}
	return probe.New(Name, status,
		fmt.Sprintf("%s is %s (%s)", unit, st.Active, st.Enabled))
}
