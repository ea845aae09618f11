// Package views renders the derived dashboard, alerts, and performance
// views. Views are recomputed on demand from fresh probe runs; alerts are
// derived values and never persisted.
package views

import (
	"fmt"
	"strings"
	"time"

	units "github.com/docker/go-units"

	"github.com/geoclue-exporter/geodiag/internal/health"
	"github.com/geoclue-exporter/geodiag/internal/history"
	"github.com/geoclue-exporter/geodiag/internal/probe"
	"github.com/geoclue-exporter/geodiag/internal/probes/resources"
)

// Alert is a derived warning or critical finding.
type Alert struct {
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alerts derives the alert list from a fresh health report: every FAIL
// becomes critical, every WARN becomes warning.
func Alerts(report *health.Report) []Alert {
	alerts := []Alert{}
	for _, o := range report.Probes {
		switch o.Status {
		case probe.StatusFail:
			alerts = append(alerts, Alert{
				Severity:  SeverityCritical,
				Message:   fmt.Sprintf("%s: %s", o.Probe, o.Message),
				Timestamp: o.Timestamp,
			})
		case probe.StatusWarn:
			alerts = append(alerts, Alert{
				Severity:  SeverityWarning,
				Message:   fmt.Sprintf("%s: %s", o.Probe, o.Message),
				Timestamp: o.Timestamp,
			})
		}
	}
	return alerts
}

// Dashboard renders the plain-text status view.
func Dashboard(report *health.Report, snap *resources.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "geoclue exporter status: %s\n", strings.ToUpper(string(report.Overall)))
	fmt.Fprintf(&b, "generated: %s\n\n", report.GeneratedAt.Format(time.RFC3339))

	for _, o := range report.Probes {
		fmt.Fprintf(&b, "  [%-4s] %-20s %s\n", strings.ToUpper(string(o.Status)), o.Probe, o.Message)
	}

	if snap != nil {
		b.WriteString("\nresources:\n")
		if snap.Process != nil {
			fmt.Fprintf(&b, "  process: pid %d, %.1f%% cpu, %.1f%% mem, %s rss, up %s\n",
				snap.Process.PID, snap.Process.CPUPercent, snap.Process.MemPercent,
				units.HumanSize(float64(snap.Process.RSSBytes)), snap.Process.Uptime)
		} else {
			fmt.Fprintf(&b, "  process: %s not running\n", snap.Service)
		}
		fmt.Fprintf(&b, "  host: load %.2f/%.2f/%.2f, %s of %s memory available, %s of %s disk free\n",
			snap.Host.Load1, snap.Host.Load5, snap.Host.Load15,
			units.HumanSize(float64(snap.Host.MemAvailBytes)), units.HumanSize(float64(snap.Host.MemTotalBytes)),
			units.HumanSize(float64(snap.Host.DiskFreeBytes)), units.HumanSize(float64(snap.Host.DiskTotalBytes)))
		for _, e := range snap.Errors {
			fmt.Fprintf(&b, "  (collection error: %s)\n", e)
		}
	}
	return b.String()
}

// Performance bundles a fresh resource snapshot with the recent rollup
// trend from the history store.
type Performance struct {
	Snapshot *resources.Snapshot `json:"snapshot"`
	Recent   []history.Entry     `json:"recent_reports,omitempty"`
}
