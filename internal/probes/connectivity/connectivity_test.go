package connectivity

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/geoclue-exporter/geodiag/internal/probe"
)

func TestRunConnects(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	outcome := Run("127.0.0.1", port, time.Second)
	if outcome.Status != probe.StatusPass {
		t.Fatalf("expected pass, got %q: %s", outcome.Status, outcome.Message)
	}
	if outcome.Value == nil {
		t.Error("expected a latency value")
	}
	if outcome.Probe != Name {
		t.Errorf("expected probe name %q, got %q", Name, outcome.Probe)
	}
}

func TestRunRefused(t *testing.T) {
	// Grab a free port, then close the listener so nothing accepts.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	start := time.Now()
	outcome := Run("127.0.0.1", port, 5*time.Second)
	if outcome.Status != probe.StatusFail {
		t.Fatalf("expected fail, got %q", outcome.Status)
	}
	if !strings.Contains(outcome.Message, "refused") {
		t.Errorf("expected refusal message, got %q", outcome.Message)
	}
	// Refusal is immediate, not a timeout expiry.
	if time.Since(start) > 2*time.Second {
		t.Error("refusal should be reported without waiting for the timeout")
	}
}

func TestRunBadHost(t *testing.T) {
	outcome := Run("host.invalid.", 80, 500*time.Millisecond)
	if outcome.Status != probe.StatusFail {
		t.Errorf("expected fail for unresolvable host, got %q", outcome.Status)
	}
}

func TestRunDefaultTimeout(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			conn.Close()
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	outcome := Run("127.0.0.1", addr.Port, 0)
	if outcome.Status != probe.StatusPass {
		t.Errorf("expected pass with default timeout, got %q: %s", outcome.Status, outcome.Message)
	}
}
