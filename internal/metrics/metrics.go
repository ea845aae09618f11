// Package metrics parses the exporter's Prometheus exposition text.
package metrics

import (
	"fmt"
	"sort"
	"strings"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// Prefix is the exporter's metric namespace.
const Prefix = "geoclue_"

// Parse decodes exposition text into a flat name→value map. Only the first
// sample of each family is taken; the exporter publishes unlabelled gauges.
func Parse(text string) (map[string]float64, error) {
	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("parse metrics text: %w", err)
	}

	values := make(map[string]float64, len(families))
	for name, family := range families {
		if len(family.Metric) == 0 {
			continue
		}
		if v, ok := sampleValue(family.Metric[0]); ok {
			values[name] = v
		}
	}
	return values, nil
}

func sampleValue(m *dto.Metric) (float64, bool) {
	switch {
	case m.Gauge != nil:
		return m.Gauge.GetValue(), true
	case m.Untyped != nil:
		return m.Untyped.GetValue(), true
	case m.Counter != nil:
		return m.Counter.GetValue(), true
	default:
		return 0, false
	}
}

// Filter returns the values whose names carry the prefix, plus the canonical
// "up" gauge which the exporter publishes without the namespace.
func Filter(values map[string]float64, prefix string) map[string]float64 {
	if prefix == "" {
		prefix = Prefix
	}
	filtered := make(map[string]float64)
	for name, value := range values {
		if strings.HasPrefix(name, prefix) || name == "up" {
			filtered[name] = value
		}
	}
	return filtered
}

// Names returns the sorted metric names, for stable text rendering.
func Names(values map[string]float64) []string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Location is the exporter's current position as read from its gauges.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy"`
	Altitude  float64 `json:"altitude"`
	ServiceUp bool    `json:"service_up"`
}

// ExtractLocation reads the location gauges out of a parsed value map,
// applying the same coordinate bounds the exporter enforces before setting
// its gauges.
func ExtractLocation(values map[string]float64) (*Location, error) {
	loc := &Location{}
	if up, ok := values["up"]; ok {
		loc.ServiceUp = up == 1
	}

	lat, latOK := values["geoclue_latitude"]
	lon, lonOK := values["geoclue_longitude"]
	if !latOK || !lonOK {
		return nil, fmt.Errorf("location gauges missing from metrics")
	}
	if lat < -90 || lat > 90 {
		return nil, fmt.Errorf("latitude %v out of range [-90, 90]", lat)
	}
	if lon < -180 || lon > 180 {
		return nil, fmt.Errorf("longitude %v out of range [-180, 180]", lon)
	}
	loc.Latitude = lat
	loc.Longitude = lon
	loc.Accuracy = values["geoclue_accuracy"]
	loc.Altitude = values["geoclue_altitude"]
	return loc, nil
}
