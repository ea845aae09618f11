// Package resources provides the process and host resource probe.
package resources

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	units "github.com/docker/go-units"
	"github.com/geoclue-exporter/geodiag/internal/probe"
	"github.com/geoclue-exporter/geodiag/internal/sysexec"
)

// Name is the probe name.
const Name = "system_resources"

// GetDescription returns the probe description.
func GetDescription() probe.Description {
	return probe.Description{
		Name:        Name,
		Description: "Collect process and host resource usage for a service",
		Arguments: probe.Arguments{
			Required: map[string]probe.ArgumentSpec{
				"service_name": {
					Type:        "string",
					Description: "systemd unit name",
				},
			},
		},
	}
}

// ProcessStats holds per-process usage resolved through the service manager.
type ProcessStats struct {
	PID        int     `json:"pid"`
	CPUPercent float64 `json:"cpu_percent"`
	MemPercent float64 `json:"mem_percent"`
	RSSBytes   int64   `json:"rss_bytes"`
	VSZBytes   int64   `json:"vsz_bytes"`
	Uptime     string  `json:"uptime"`
}

// HostStats holds host-wide load, memory, and disk figures.
type HostStats struct {
	Load1          float64 `json:"load_1m"`
	Load5          float64 `json:"load_5m"`
	Load15         float64 `json:"load_15m"`
	MemTotalBytes  int64   `json:"mem_total_bytes"`
	MemAvailBytes  int64   `json:"mem_available_bytes"`
	DiskTotalBytes uint64  `json:"disk_total_bytes"`
	DiskFreeBytes  uint64  `json:"disk_free_bytes"`
}

// Snapshot is the full resource report. Running reports whether the service
// had a main process; Errors lists sub-collections that failed without
// aborting the rest.
type Snapshot struct {
	Service string        `json:"service"`
	Running bool          `json:"running"`
	Process *ProcessStats `json:"process,omitempty"`
	Host    HostStats     `json:"host"`
	Errors  []string      `json:"errors,omitempty"`
}

// Collect gathers the snapshot. Each sub-collection failure is recorded
// inline and never aborts the remaining collections.
func Collect(ctx context.Context, runner sysexec.Runner, unit string) (*Snapshot, error) {
	if err := sysexec.ValidateUnitName(unit); err != nil {
		return nil, err
	}
	snap := &Snapshot{Service: unit}

	pid, err := mainPID(ctx, runner, unit)
	switch {
	case err != nil:
		snap.Errors = append(snap.Errors, fmt.Sprintf("resolve pid: %v", err))
	case pid > 0:
		snap.Running = true
		proc, err := processStats(ctx, runner, pid)
		if err != nil {
			snap.Errors = append(snap.Errors, fmt.Sprintf("process stats: %v", err))
		} else {
			snap.Process = proc
		}
	}

	if err := collectLoad(&snap.Host); err != nil {
		snap.Errors = append(snap.Errors, fmt.Sprintf("load average: %v", err))
	}
	if err := collectMemory(&snap.Host); err != nil {
		snap.Errors = append(snap.Errors, fmt.Sprintf("memory: %v", err))
	}
	if err := collectDisk(&snap.Host); err != nil {
		snap.Errors = append(snap.Errors, fmt.Sprintf("disk: %v", err))
	}

	return snap, nil
}

// Run collects a snapshot and condenses it to an outcome. A service without
// a main process is reported as a warning, not a failure: "not running" is
// informational here and this probe is not part of the health rollup.
func Run(ctx context.Context, runner sysexec.Runner, unit string) probe.Outcome {
	snap, err := Collect(ctx, runner, unit)
	if err != nil {
		return probe.New(Name, probe.StatusFail, err.Error())
	}
	if !snap.Running {
		return probe.New(Name, probe.StatusWarn,
			fmt.Sprintf("%s is not running; no process metrics collected", unit))
	}
	if snap.Process == nil {
		return probe.New(Name, probe.StatusWarn,
			fmt.Sprintf("%s running but process stats unavailable: %s", unit, strings.Join(snap.Errors, "; ")))
	}
	return probe.NewValue(Name, probe.StatusPass,
		fmt.Sprintf("%s pid %d: %.1f%% cpu, %s rss, up %s",
			unit, snap.Process.PID, snap.Process.CPUPercent,
			units.HumanSize(float64(snap.Process.RSSBytes)), snap.Process.Uptime),
		snap.Process.CPUPercent)
}

func mainPID(ctx context.Context, runner sysexec.Runner, unit string) (int, error) {
	out, err := runner.Output(ctx, "systemctl", "show", "--property=MainPID", "--value", unit)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil {
		return 0, fmt.Errorf("unexpected MainPID answer %q", strings.TrimSpace(string(out)))
	}
	return pid, nil
}

func processStats(ctx context.Context, runner sysexec.Runner, pid int) (*ProcessStats, error) {
	out, err := runner.Output(ctx, "ps", "-o", "%cpu=,%mem=,rss=,vsz=,etime=", "-p", strconv.Itoa(pid))
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(string(out))
	if len(fields) < 5 {
		return nil, fmt.Errorf("unexpected ps output %q", strings.TrimSpace(string(out)))
	}

	cpu, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return nil, fmt.Errorf("parse cpu%%: %w", err)
	}
	mem, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return nil, fmt.Errorf("parse mem%%: %w", err)
	}
	rssKB, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse rss: %w", err)
	}
	vszKB, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse vsz: %w", err)
	}

	return &ProcessStats{
		PID:        pid,
		CPUPercent: cpu,
		MemPercent: mem,
		RSSBytes:   rssKB * 1024,
		VSZBytes:   vszKB * 1024,
		Uptime:     fields[4],
	}, nil
}

func collectLoad(host *HostStats) error {
	data, err := os.ReadFile("/proc/loadavg")
	if err != nil {
		return err
	}
	fields := strings.Fields(string(data))
	if len(fields) < 3 {
		return fmt.Errorf("unexpected /proc/loadavg content")
	}
	if host.Load1, err = strconv.ParseFloat(fields[0], 64); err != nil {
		return err
	}
	if host.Load5, err = strconv.ParseFloat(fields[1], 64); err != nil {
		return err
	}
	host.Load15, err = strconv.ParseFloat(fields[2], 64)
	return err
}

func collectMemory(host *HostStats) error {
	data, err := os.ReadFile("/proc/meminfo")
	if err != nil {
		return err
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		kb, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			host.MemTotalBytes = kb * 1024
		case "MemAvailable:":
			host.MemAvailBytes = kb * 1024
		}
	}
	if host.MemTotalBytes == 0 {
		return fmt.Errorf("MemTotal not found in /proc/meminfo")
	}
	return nil
}

func collectDisk(host *HostStats) error {
	var stat syscall.Statfs_t
	if err := syscall.Statfs("/", &stat); err != nil {
		return err
	}
	host.DiskTotalBytes = stat.Blocks * uint64(stat.Bsize)
	host.DiskFreeBytes = stat.Bavail * uint64(stat.Bsize)
	return nil
}
