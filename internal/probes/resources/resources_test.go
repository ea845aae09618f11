package resources

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/geoclue-exporter/geodiag/internal/probe"
)

type fakeRunner struct {
	answers map[string]string
	errs    map[string]error
}

func (f fakeRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	key := name + " " + strings.Join(args, " ")
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	if out, ok := f.answers[key]; ok {
		return []byte(out), nil
	}
	return nil, errors.New("unexpected command: " + key)
}

const unit = "geoclue-exporter.service"

func runningRunner() fakeRunner {
	return fakeRunner{answers: map[string]string{
		"systemctl show --property=MainPID --value " + unit: "4242\n",
		"ps -o %cpu=,%mem=,rss=,vsz=,etime= -p 4242":         " 1.5  0.3 10240 204800 01:02:03\n",
	}}
}

func TestCollectRunningService(t *testing.T) {
	snap, err := Collect(context.Background(), runningRunner(), unit)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if !snap.Running {
		t.Fatal("expected running service")
	}
	if snap.Process == nil {
		t.Fatal("expected process stats")
	}
	if snap.Process.PID != 4242 {
		t.Errorf("expected pid 4242, got %d", snap.Process.PID)
	}
	if snap.Process.CPUPercent != 1.5 {
		t.Errorf("expected 1.5%% cpu, got %v", snap.Process.CPUPercent)
	}
	if snap.Process.RSSBytes != 10240*1024 {
		t.Errorf("expected rss in bytes, got %d", snap.Process.RSSBytes)
	}
	if snap.Process.Uptime != "01:02:03" {
		t.Errorf("expected etime passthrough, got %q", snap.Process.Uptime)
	}
}

func TestCollectStoppedService(t *testing.T) {
	runner := fakeRunner{answers: map[string]string{
		"systemctl show --property=MainPID --value " + unit: "0\n",
	}}
	snap, err := Collect(context.Background(), runner, unit)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if snap.Running {
		t.Error("expected not running for MainPID 0")
	}
	if snap.Process != nil {
		t.Error("expected no process stats")
	}
}

func TestCollectPartialFailure(t *testing.T) {
	runner := fakeRunner{
		answers: map[string]string{
			"systemctl show --property=MainPID --value " + unit: "4242\n",
		},
		errs: map[string]error{
			"ps -o %cpu=,%mem=,rss=,vsz=,etime= -p 4242": errors.New("no such process"),
		},
	}
	snap, err := Collect(context.Background(), runner, unit)
	if err != nil {
		t.Fatalf("collect must not abort on sub-collection failure: %v", err)
	}
	if !snap.Running {
		t.Error("expected running flag from resolved pid")
	}
	if len(snap.Errors) == 0 {
		t.Error("expected the ps failure recorded in Errors")
	}
}

func TestCollectRejectsBadUnitName(t *testing.T) {
	if _, err := Collect(context.Background(), fakeRunner{}, "x; reboot"); err == nil {
		t.Error("expected validation error for shell metacharacters")
	}
}

func TestRunWarnsWhenStopped(t *testing.T) {
	runner := fakeRunner{answers: map[string]string{
		"systemctl show --property=MainPID --value " + unit: "0\n",
	}}
	outcome := Run(context.Background(), runner, unit)
	if outcome.Status != probe.StatusWarn {
		t.Errorf("expected warn for stopped service, got %q: %s", outcome.Status, outcome.Message)
	}
}

func TestRunPassesWhenRunning(t *testing.T) {
	outcome := Run(context.Background(), runningRunner(), unit)
	if outcome.Status != probe.StatusPass {
		t.Errorf("expected pass, got %q: %s", outcome.Status, outcome.Message)
	}
	if outcome.Value == nil || *outcome.Value != 1.5 {
		t.Errorf("expected cpu value 1.5, got %v", outcome.Value)
	}
}
