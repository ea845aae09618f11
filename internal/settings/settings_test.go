package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Exporter.Host != "127.0.0.1" {
		t.Errorf("expected default host, got %q", s.Exporter.Host)
	}
	if s.Exporter.Port != 9090 {
		t.Errorf("expected default port 9090, got %d", s.Exporter.Port)
	}
	if s.Exporter.MetricsPath != "/metrics" {
		t.Errorf("expected default path, got %q", s.Exporter.MetricsPath)
	}
	if s.Exporter.Unit != "geoclue-exporter.service" {
		t.Errorf("expected default unit, got %q", s.Exporter.Unit)
	}
	if len(s.Exporter.Dependencies) != 2 {
		t.Errorf("expected 2 default dependencies, got %v", s.Exporter.Dependencies)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geodiag.yaml")
	content := `exporter:
  host: 10.0.0.5
  port: 9100
  unit: custom-exporter.service
history:
  databasepath: /tmp/test-history.db
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Exporter.Host != "10.0.0.5" {
		t.Errorf("expected host from file, got %q", s.Exporter.Host)
	}
	if s.Exporter.Port != 9100 {
		t.Errorf("expected port from file, got %d", s.Exporter.Port)
	}
	if s.History.DatabasePath != "/tmp/test-history.db" {
		t.Errorf("expected db path from file, got %q", s.History.DatabasePath)
	}
	// Unset keys keep their defaults.
	if s.Exporter.MetricsPath != "/metrics" {
		t.Errorf("expected default path preserved, got %q", s.Exporter.MetricsPath)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("GEODIAG_EXPORTER_HOST", "192.168.1.50")
	t.Setenv("GEODIAG_EXPORTER_PORT", "9100")
	t.Setenv("GEODIAG_CONFIG_PATH", "/tmp/override.json")

	s, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Exporter.Host != "192.168.1.50" {
		t.Errorf("expected host from environment, got %q", s.Exporter.Host)
	}
	if s.Exporter.Port != 9100 {
		t.Errorf("expected port from environment, got %d", s.Exporter.Port)
	}
	if s.Config.Path != "/tmp/override.json" {
		t.Errorf("expected config path from environment, got %q", s.Config.Path)
	}
	// Untouched keys keep their defaults.
	if s.Exporter.Unit != "geoclue-exporter.service" {
		t.Errorf("expected default unit preserved, got %q", s.Exporter.Unit)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for an explicitly named missing file")
	}
}
