package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/geoclue-exporter/geodiag/internal/health"
	"github.com/geoclue-exporter/geodiag/internal/probe"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "state", "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(store.Close)
	return store
}

func sampleReport(overall health.Overall) *health.Report {
	return &health.Report{
		Probes: []probe.Outcome{
			probe.New("network_connectivity", probe.StatusPass, "connected"),
		},
		Overall:     overall,
		GeneratedAt: time.Now().UTC(),
	}
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, overall := range []health.Overall{health.Healthy, health.Degraded, health.Unhealthy} {
		if err := store.Record(ctx, sampleReport(overall)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	entries, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	// Newest first.
	if entries[0].Overall != health.Unhealthy {
		t.Errorf("expected newest entry first, got %q", entries[0].Overall)
	}
	if entries[2].Overall != health.Healthy {
		t.Errorf("expected oldest entry last, got %q", entries[2].Overall)
	}
	if len(entries[0].Probes) != 1 {
		t.Errorf("expected probes decoded, got %v", entries[0].Probes)
	}
	if entries[0].GeneratedAt.IsZero() {
		t.Error("expected generated_at parsed")
	}
}

func TestRecentLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := store.Record(ctx, sampleReport(health.Healthy)); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	entries, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("expected 2 entries, got %d", len(entries))
	}
}

func TestRecentEmptyStore(t *testing.T) {
	store := openTestStore(t)
	entries, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}
