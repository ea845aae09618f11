// Package connectivity provides the transport-level connectivity probe.
package connectivity

import (
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"

	"github.com/geoclue-exporter/geodiag/internal/probe"
)

// Name is the probe name.
const Name = "network_connectivity"

// DefaultTimeout bounds the connection attempt when the caller does not
// supply one.
const DefaultTimeout = 5 * time.Second

// GetDescription returns the probe description.
func GetDescription() probe.Description {
	return probe.Description{
		Name:        Name,
		Description: "Check TCP connectivity to a host and port",
		Arguments: probe.Arguments{
			Required: map[string]probe.ArgumentSpec{
				"host": {
					Type:        "string",
					Description: "Host to connect to",
				},
				"port": {
					Type:        "number",
					Description: "TCP port",
				},
			},
			Optional: map[string]probe.ArgumentSpec{
				"timeout": {
					Type:        "number",
					Description: "Connection timeout in milliseconds",
					Default:     float64(5000),
				},
			},
		},
	}
}

// Run attempts a TCP connection and classifies the failure mode. The
// connection is closed on every exit path.
func Run(host string, port int, timeout time.Duration) probe.Outcome {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))

	start := time.Now()
	conn, err := net.DialTimeout("tcp", addr, timeout)
	elapsed := time.Since(start)

	if err != nil {
		return failure(addr, err, timeout, elapsed)
	}
	conn.Close()

	return probe.NewValue(Name, probe.StatusPass,
		fmt.Sprintf("connected to %s in %dms", addr, elapsed.Milliseconds()),
		float64(elapsed.Milliseconds()))
}

func failure(addr string, err error, timeout, elapsed time.Duration) probe.Outcome {
	switch {
	case os.IsTimeout(err):
		return probe.New(Name, probe.StatusFail,
			fmt.Sprintf("%s: %v after %s", probe.ErrTimeout, addr, timeout))
	case errors.Is(err, syscall.ECONNREFUSED):
		return probe.NewValue(Name, probe.StatusFail,
			fmt.Sprintf("%s: %v", probe.ErrRefused, addr),
			float64(elapsed.Milliseconds()))
	default:
		return probe.New(Name, probe.StatusFail,
			fmt.Sprintf("connection to %s failed: %v", addr, err))
	}
}
