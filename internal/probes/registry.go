// Package probes provides the built-in probe registry.
package probes

import (
	"github.com/geoclue-exporter/geodiag/internal/probe"
	"github.com/geoclue-exporter/geodiag/internal/probes/connectivity"
	"github.com/geoclue-exporter/geodiag/internal/probes/logtail"
	"github.com/geoclue-exporter/geodiag/internal/probes/metricsfetch"
	"github.com/geoclue-exporter/geodiag/internal/probes/resources"
	"github.com/geoclue-exporter/geodiag/internal/probes/servicestate"
)

// GetAllDescriptions returns descriptions of all built-in probes.
func GetAllDescriptions() []probe.Description {
	return []probe.Description{
		connectivity.GetDescription(),
		logtail.GetDescription(),
		metricsfetch.GetDescription(),
		resources.GetDescription(),
		servicestate.GetDescription(),
	}
}
