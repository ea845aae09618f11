package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/geoclue-exporter/geodiag/internal/settings"
)

const exporterText = `up 1
geoclue_latitude 52.5
geoclue_longitude 13.4
geoclue_accuracy 25
geoclue_data_available 1
`

func metricsTestServer(t *testing.T, body string) *Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	port, _ := strconv.Atoi(portStr)

	cfg := &settings.Settings{Exporter: settings.ExporterSettings{
		Host: host, Port: port, MetricsPath: "/metrics",
	}}
	return NewMetricsServer(cfg, "test")
}

func TestMetricsRoleGetMetrics(t *testing.T) {
	s := metricsTestServer(t, exporterText)
	result := s.Invoke(context.Background(), "get_metrics", nil)
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.Message)
	}
	body := result.Content.(string)
	if !strings.Contains(body, "geoclue_latitude") {
		t.Errorf("expected raw exposition text, got %q", body)
	}
}

func TestMetricsRoleGetGeolocationMetrics(t *testing.T) {
	s := metricsTestServer(t, exporterText)
	result := s.Invoke(context.Background(), "get_geolocation_metrics", nil)
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.Message)
	}
	values := result.Content.(map[string]float64)
	if values["geoclue_latitude"] != 52.5 {
		t.Errorf("expected latitude 52.5, got %v", values["geoclue_latitude"])
	}
	if _, ok := values["up"]; !ok {
		t.Error("expected up gauge in filtered values")
	}
}

func TestMetricsRoleCheckServiceHealth(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"healthy", exporterText, "healthy"},
		{"up without data", "up 1\ngeoclue_data_available 0\n", "up_no_data"},
		{"down", "up 0\n", "down"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := metricsTestServer(t, tc.body)
			result := s.Invoke(context.Background(), "check_service_health", nil)
			if result.IsError {
				t.Fatalf("unexpected error: %s", result.Message)
			}
			got := result.Content.(map[string]any)["status"]
			if got != tc.want {
				t.Errorf("expected status %q, got %v", tc.want, got)
			}
		})
	}
}

func TestMetricsRoleEndpointDown(t *testing.T) {
	cfg := &settings.Settings{Exporter: settings.ExporterSettings{
		Host: "127.0.0.1", Port: reservedClosedPort(t), MetricsPath: "/metrics",
	}}
	s := NewMetricsServer(cfg, "test")
	result := s.Invoke(context.Background(), "get_metrics", nil)
	if !result.IsError {
		t.Fatal("expected an error result")
	}
	if result.Kind != KindProbeRefused {
		t.Errorf("expected kind %q, got %q", KindProbeRefused, result.Kind)
	}
}

func TestMetricsRoleLocationResource(t *testing.T) {
	s := metricsTestServer(t, exporterText)
	result := s.ReadResource(context.Background(), "metrics://location/current")
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.Message)
	}
	content := result.Content.(string)
	if !strings.Contains(content, "52.5") {
		t.Errorf("expected latitude in location view, got %q", content)
	}
}

func reservedClosedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()
	return port
}
