// Package metricsfetch provides the exporter metrics endpoint probe.
package metricsfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/geoclue-exporter/geodiag/internal/probe"
)

// Name is the probe name.
const Name = "metrics_endpoint"

// Marker is the domain prefix every exporter gauge carries. A response that
// parses but lacks it means some other service answered on the port.
const Marker = "geoclue_"

// DefaultTimeout bounds the HTTP fetch.
const DefaultTimeout = 10 * time.Second

const maxBodyBytes = 1 << 20

// GetDescription returns the probe description.
func GetDescription() probe.Description {
	return probe.Description{
		Name:        Name,
		Description: "Fetch the exporter metrics endpoint and verify its content",
		Arguments: probe.Arguments{
			Required: map[string]probe.ArgumentSpec{
				"host": {
					Type:        "string",
					Description: "Exporter host",
				},
				"port": {
					Type:        "number",
					Description: "Exporter port",
				},
			},
			Optional: map[string]probe.ArgumentSpec{
				"path": {
					Type:        "string",
					Description: "Metrics path",
					Default:     "/metrics",
				},
			},
		},
	}
}

// Run fetches the metrics endpoint and returns the raw body alongside the
// outcome. The body is empty unless the fetch succeeded.
func Run(ctx context.Context, host string, port int, path string) (probe.Outcome, string) {
	body, err := Fetch(ctx, host, port, path)
	if err != nil {
		return probe.New(Name, probe.StatusFail, err.Error()), ""
	}
	if !strings.Contains(body, Marker) {
		return probe.New(Name, probe.StatusWarn,
			fmt.Sprintf("endpoint answered but no %q metrics found", Marker)), body
	}
	return probe.New(Name, probe.StatusPass,
		fmt.Sprintf("metrics endpoint healthy (%d bytes)", len(body))), body
}

// Fetch retrieves the raw exposition text from the exporter.
func Fetch(ctx context.Context, host string, port int, path string) (string, error) {
	if path == "" {
		path = "/metrics"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	url := fmt.Sprintf("http://%s:%d%s", host, port, path)

	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", probe.ErrEndpoint, err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: GET %s after %s", probe.ErrTimeout, url, DefaultTimeout)
		}
		if errors.Is(err, syscall.ECONNREFUSED) {
			return "", fmt.Errorf("%w: GET %s", probe.ErrRefused, url)
		}
		return "", fmt.Errorf("%w: %v", probe.ErrEndpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: GET %s returned %s", probe.ErrEndpoint, url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("%w: reading %s: %v", probe.ErrEndpoint, url, err)
	}
	if len(body) == 0 {
		return "", fmt.Errorf("%w: GET %s returned an empty body", probe.ErrEndpoint, url)
	}
	return string(body), nil
}
