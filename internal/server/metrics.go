package server

import (
	"context"
	"encoding/json"

	"github.com/geoclue-exporter/geodiag/internal/metrics"
	"github.com/geoclue-exporter/geodiag/internal/probes/metricsfetch"
	"github.com/geoclue-exporter/geodiag/internal/settings"
)

// NewMetricsServer builds the metrics-access role: read operations against
// the exporter's HTTP endpoint.
func NewMetricsServer(cfg *settings.Settings, version string) *Server {
	s := New("metrics", version)
	exp := cfg.Exporter

	hostParam := Param{Name: "host", Type: "string", Description: "Exporter host", Default: exp.Host}
	portParam := Param{Name: "port", Type: "number", Description: "Exporter port", Default: float64(exp.Port)}

	s.Register(Operation{
		Name:        "get_metrics",
		Description: "Fetch the raw metrics exposition text from the exporter",
		Params: []Param{
			hostParam,
			portParam,
			{Name: "path", Type: "string", Description: "Metrics path", Default: exp.MetricsPath},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			host, err := argString(args, "host")
			if err != nil {
				return nil, err
			}
			port, err := argInt(args, "port")
			if err != nil {
				return nil, err
			}
			path, err := argString(args, "path")
			if err != nil {
				return nil, err
			}
			return metricsfetch.Fetch(ctx, host, port, path)
		},
	})

	s.Register(Operation{
		Name:        "get_geolocation_metrics",
		Description: "Fetch and parse the exporter's geolocation gauge family",
		Params: []Param{
			hostParam,
			portParam,
			{Name: "metric_filter", Type: "string", Description: "Metric name prefix", Default: metrics.Prefix},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			host, err := argString(args, "host")
			if err != nil {
				return nil, err
			}
			port, err := argInt(args, "port")
			if err != nil {
				return nil, err
			}
			filter, err := argString(args, "metric_filter")
			if err != nil {
				return nil, err
			}
			values, err := fetchValues(ctx, host, port, exp.MetricsPath)
			if err != nil {
				return nil, err
			}
			return metrics.Filter(values, filter), nil
		},
	})

	s.Register(Operation{
		Name:        "check_service_health",
		Description: "Report the exporter's up and data-availability gauges",
		Params:      []Param{hostParam, portParam},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			host, err := argString(args, "host")
			if err != nil {
				return nil, err
			}
			port, err := argInt(args, "port")
			if err != nil {
				return nil, err
			}
			values, err := fetchValues(ctx, host, port, exp.MetricsPath)
			if err != nil {
				return nil, err
			}
			up := values["up"] == 1
			dataAvailable := values["geoclue_data_available"] == 1
			status := "down"
			switch {
			case up && dataAvailable:
				status = "healthy"
			case up:
				status = "up_no_data"
			}
			return map[string]any{
				"service_up":     up,
				"data_available": dataAvailable,
				"status":         status,
			}, nil
		},
	})

	s.RegisterResource(Resource{
		URI:         "metrics://current/all",
		Description: "Current raw metrics exposition text",
		MimeType:    "text/plain",
		Reader: func(ctx context.Context) (string, error) {
			return metricsfetch.Fetch(ctx, exp.Host, exp.Port, exp.MetricsPath)
		},
	})

	s.RegisterResource(Resource{
		URI:         "metrics://location/current",
		Description: "Current location extracted from the exporter gauges",
		MimeType:    "application/json",
		Reader: func(ctx context.Context) (string, error) {
			values, err := fetchValues(ctx, exp.Host, exp.Port, exp.MetricsPath)
			if err != nil {
				return "", err
			}
			loc, err := metrics.ExtractLocation(values)
			if err != nil {
				return "", err
			}
			return encodeJSON(loc)
		},
	})

	return s
}

func fetchValues(ctx context.Context, host string, port int, path string) (map[string]float64, error) {
	body, err := metricsfetch.Fetch(ctx, host, port, path)
	if err != nil {
		return nil, err
	}
	return metrics.Parse(body)
}

func encodeJSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
