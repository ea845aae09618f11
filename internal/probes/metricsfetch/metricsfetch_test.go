package metricsfetch

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/geoclue-exporter/geodiag/internal/probe"
)

func serveText(t *testing.T, status int, body string) (string, int) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	host, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}

func TestRunPass(t *testing.T) {
	host, port := serveText(t, http.StatusOK, "geoclue_latitude 52.5\n")
	outcome, body := Run(context.Background(), host, port, "/metrics")
	if outcome.Status != probe.StatusPass {
		t.Fatalf("expected pass, got %q: %s", outcome.Status, outcome.Message)
	}
	if body != "geoclue_latitude 52.5\n" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestRunWarnsWithoutMarker(t *testing.T) {
	host, port := serveText(t, http.StatusOK, "some_other_metric 1\n")
	outcome, body := Run(context.Background(), host, port, "/metrics")
	if outcome.Status != probe.StatusWarn {
		t.Errorf("expected warn for foreign metrics, got %q", outcome.Status)
	}
	if body == "" {
		t.Error("expected body returned alongside the warning")
	}
}

func TestRunFailsOnRefusal(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	outcome, body := Run(context.Background(), "127.0.0.1", port, "/metrics")
	if outcome.Status != probe.StatusFail {
		t.Errorf("expected fail, got %q", outcome.Status)
	}
	if body != "" {
		t.Errorf("expected empty body on failure, got %q", body)
	}

	_, err = Fetch(context.Background(), "127.0.0.1", port, "/metrics")
	if !errors.Is(err, probe.ErrRefused) {
		t.Errorf("expected ErrRefused for a closed port, got %v", err)
	}
}

func TestFetchNonOKStatus(t *testing.T) {
	host, port := serveText(t, http.StatusServiceUnavailable, "down")
	_, err := Fetch(context.Background(), host, port, "/metrics")
	if !errors.Is(err, probe.ErrEndpoint) {
		t.Errorf("expected ErrEndpoint, got %v", err)
	}
}

func TestFetchEmptyBody(t *testing.T) {
	host, port := serveText(t, http.StatusOK, "")
	_, err := Fetch(context.Background(), host, port, "/metrics")
	if !errors.Is(err, probe.ErrEndpoint) {
		t.Errorf("expected ErrEndpoint for empty body, got %v", err)
	}
}

func TestFetchNormalizesPath(t *testing.T) {
	host, port := serveText(t, http.StatusOK, "geoclue_latitude 1\n")
	if _, err := Fetch(context.Background(), host, port, "metrics"); err != nil {
		t.Errorf("expected bare path to be normalized, got %v", err)
	}
	if _, err := Fetch(context.Background(), host, port, ""); err != nil {
		t.Errorf("expected empty path to default, got %v", err)
	}
}
