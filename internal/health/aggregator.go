// Package health runs the ordered probe set and derives the overall rollup.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/geoclue-exporter/geodiag/internal/probe"
	"github.com/geoclue-exporter/geodiag/internal/probes/connectivity"
	"github.com/geoclue-exporter/geodiag/internal/probes/metricsfetch"
	"github.com/geoclue-exporter/geodiag/internal/probes/servicestate"
	"github.com/geoclue-exporter/geodiag/internal/sysexec"
)

// Overall is the health rollup verdict.
type Overall string

const (
	Healthy   Overall = "healthy"
	Degraded  Overall = "degraded"
	Unhealthy Overall = "unhealthy"
)

// Report is a finalized health check: every probe outcome in execution
// order plus the derived rollup. Reports are immutable once returned.
type Report struct {
	Probes      []probe.Outcome `json:"probes"`
	Overall     Overall         `json:"overall_status"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// ProbeFunc produces one outcome. Funcs run strictly in order; a panic in
// one is converted to a FAIL outcome and never aborts the rest.
type ProbeFunc func(ctx context.Context) probe.Outcome

// Run executes the probe funcs in order and finalizes the rollup.
func Run(ctx context.Context, funcs []ProbeFunc) *Report {
	outcomes := make([]probe.Outcome, 0, len(funcs))
	for _, fn := range funcs {
		outcomes = append(outcomes, runIsolated(ctx, fn))
	}
	return &Report{
		Probes:      outcomes,
		Overall:     Rollup(outcomes),
		GeneratedAt: time.Now().UTC(),
	}
}

func runIsolated(ctx context.Context, fn ProbeFunc) (out probe.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("probe panicked", "panic", r)
			out = probe.New("panic", probe.StatusFail, fmt.Sprintf("probe panicked: %v", r))
		}
	}()
	return fn(ctx)
}

// Rollup derives the overall verdict from FAIL/WARN counts alone, evaluated
// only after every probe has produced an outcome.
func Rollup(outcomes []probe.Outcome) Overall {
	var warns, fails int
	for _, o := range outcomes {
		switch o.Status {
		case probe.StatusWarn:
			warns++
		case probe.StatusFail:
			fails++
		}
	}
	switch {
	case fails > 0:
		return Unhealthy
	case warns > 0:
		return Degraded
	default:
		return Healthy
	}
}

// Checker builds the standard ordered probe set for the exporter.
type Checker struct {
	Runner       sysexec.Runner
	Host         string
	Port         int
	MetricsPath  string
	PrimaryUnit  string
	Dependencies []string
}

// Check runs connectivity, primary service state, optionally the metrics
// fetch, and dependency service states, in that order. A skipped metrics
// probe contributes no outcome and is excluded from the tally.
func (c *Checker) Check(ctx context.Context, includeMetrics bool) *Report {
	funcs := []ProbeFunc{
		func(ctx context.Context) probe.Outcome {
			return connectivity.Run(c.Host, c.Port, connectivity.DefaultTimeout)
		},
		func(ctx context.Context) probe.Outcome {
			return servicestate.Run(ctx, c.Runner, c.PrimaryUnit, false)
		},
	}
	if includeMetrics {
		funcs = append(funcs, func(ctx context.Context) probe.Outcome {
			outcome, _ := metricsfetch.Run(ctx, c.Host, c.Port, c.MetricsPath)
			return outcome
		})
	}
	for _, dep := range c.Dependencies {
		dep := dep
		funcs = append(funcs, func(ctx context.Context) probe.Outcome {
			return servicestate.Run(ctx, c.Runner, dep, true)
		})
	}
	return Run(ctx, funcs)
}
