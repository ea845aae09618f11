// Package logtail provides the journal tail probe.
package logtail

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/geoclue-exporter/geodiag/internal/probe"
	"github.com/geoclue-exporter/geodiag/internal/sysexec"
)

// Name is the probe name.
const Name = "log_tail"

// MaxLines caps a single tail request.
const MaxLines = 1000

// GetDescription returns the probe description.
func GetDescription() probe.Description {
	return probe.Description{
		Name:        Name,
		Description: "Retrieve the last N journal lines for a unit",
		Arguments: probe.Arguments{
			Required: map[string]probe.ArgumentSpec{
				"service_name": {
					Type:        "string",
					Description: "systemd unit name",
				},
			},
			Optional: map[string]probe.ArgumentSpec{
				"lines": {
					Type:        "number",
					Description: "Number of lines to retrieve",
					Default:     float64(50),
				},
			},
		},
	}
}

// Tail returns the last n journal lines for the unit. A unit with no journal
// reports ErrLogUnavailable.
func Tail(ctx context.Context, runner sysexec.Runner, unit string, n int) (string, error) {
	if err := sysexec.ValidateUnitName(unit); err != nil {
		return "", err
	}
	if n <= 0 {
		n = 50
	}
	if n > MaxLines {
		n = MaxLines
	}

	out, err := runner.Output(ctx, "journalctl",
		"-u", unit, "-n", strconv.Itoa(n), "--no-pager", "-o", "cat")
	if err != nil {
		return "", fmt.Errorf("%w: journalctl -u %s: %v", probe.ErrLogUnavailable, unit, err)
	}
	text := string(out)
	if strings.HasPrefix(text, "-- No entries --") {
		return "", nil
	}
	return text, nil
}
