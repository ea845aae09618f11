// Package sysexec runs system utilities with argument-vector invocation.
//
// Caller-influenced values such as systemd unit names are validated before a
// child process is built, and are always passed as discrete argv elements,
// never interpolated into a shell string.
package sysexec

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"time"
)

// Runner executes a named binary with arguments and returns its stdout.
type Runner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// System runs commands via os/exec with a bounded timeout per call.
type System struct {
	Timeout time.Duration
}

// DefaultTimeout bounds a single utility invocation.
const DefaultTimeout = 10 * time.Second

func (s System) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	timeout := s.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, name, args...).Output()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, fmt.Errorf("%s timed out after %s", name, timeout)
	}
	if err != nil {
		// Utilities like systemctl is-active report state on stdout and
		// signal it through the exit code. Keep whatever was printed so
		// callers can read the state alongside the exit error.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out, err
		}
		return nil, err
	}
	return out, nil
}

// Systemd unit names: alphanumerics plus the punctuation systemd itself
// permits, with an optional ".service"-style suffix.
var unitNamePattern = regexp.MustCompile(`^[a-zA-Z0-9:\-_.\\@]+$`)

// ValidateUnitName rejects names that could not be a systemd unit, before
// they reach a child process argument vector.
func ValidateUnitName(name string) error {
	if name == "" {
		return fmt.Errorf("unit name is empty")
	}
	if len(name) > 255 {
		return fmt.Errorf("unit name exceeds 255 characters")
	}
	if !unitNamePattern.MatchString(name) {
		return fmt.Errorf("invalid unit name %q", name)
	}
	return nil
}
