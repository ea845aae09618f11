package metrics

import (
	"reflect"
	"testing"
)

const sampleExposition = `# HELP up Whether the geoclue connection is established
# TYPE up gauge
up 1
# HELP geoclue_latitude Current latitude in degrees
# TYPE geoclue_latitude gauge
geoclue_latitude 52.5
# TYPE geoclue_longitude gauge
geoclue_longitude 13.4
# TYPE geoclue_accuracy gauge
geoclue_accuracy 25
# TYPE geoclue_location_updates_received counter
geoclue_location_updates_received 42
process_cpu_seconds_total 1.5
`

func TestParse(t *testing.T) {
	values, err := Parse(sampleExposition)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if values["up"] != 1 {
		t.Errorf("expected up=1, got %v", values["up"])
	}
	if values["geoclue_latitude"] != 52.5 {
		t.Errorf("expected latitude 52.5, got %v", values["geoclue_latitude"])
	}
	if values["geoclue_location_updates_received"] != 42 {
		t.Errorf("expected counter 42, got %v", values["geoclue_location_updates_received"])
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse("geoclue_latitude this-is-not-a-number\n"); err == nil {
		t.Error("expected error for malformed exposition text")
	}
}

func TestFilterKeepsNamespaceAndUp(t *testing.T) {
	values, err := Parse(sampleExposition)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	filtered := Filter(values, "")
	if _, ok := filtered["process_cpu_seconds_total"]; ok {
		t.Error("expected foreign metric to be filtered out")
	}
	if _, ok := filtered["up"]; !ok {
		t.Error("expected canonical up gauge to be kept")
	}
	if _, ok := filtered["geoclue_latitude"]; !ok {
		t.Error("expected namespaced gauge to be kept")
	}
}

func TestNamesSorted(t *testing.T) {
	names := Names(map[string]float64{"b": 1, "a": 2, "c": 3})
	if !reflect.DeepEqual(names, []string{"a", "b", "c"}) {
		t.Errorf("expected sorted names, got %v", names)
	}
}

func TestExtractLocation(t *testing.T) {
	loc, err := ExtractLocation(map[string]float64{
		"up":                1,
		"geoclue_latitude":  52.5,
		"geoclue_longitude": 13.4,
		"geoclue_accuracy":  25,
	})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if loc.Latitude != 52.5 || loc.Longitude != 13.4 {
		t.Errorf("expected (52.5, 13.4), got (%v, %v)", loc.Latitude, loc.Longitude)
	}
	if !loc.ServiceUp {
		t.Error("expected service_up true")
	}
	if loc.Accuracy != 25 {
		t.Errorf("expected accuracy 25, got %v", loc.Accuracy)
	}
}

func TestExtractLocationMissingGauges(t *testing.T) {
	if _, err := ExtractLocation(map[string]float64{"up": 1}); err == nil {
		t.Error("expected error when location gauges are absent")
	}
}

func TestExtractLocationBounds(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
	}{
		{"latitude too high", 91, 0},
		{"latitude too low", -91, 0},
		{"longitude too high", 0, 181},
		{"longitude too low", 0, -181},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ExtractLocation(map[string]float64{
				"geoclue_latitude":  tc.lat,
				"geoclue_longitude": tc.lon,
			})
			if err == nil {
				t.Errorf("expected bounds error for lat=%v lon=%v", tc.lat, tc.lon)
			}
		})
	}
}
