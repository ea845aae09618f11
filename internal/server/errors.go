package server

import (
	"errors"

	"github.com/geoclue-exporter/geodiag/internal/mcpconfig"
	"github.com/geoclue-exporter/geodiag/internal/probe"
)

// Dispatcher-level failures.
var (
	ErrUnknownOperation = errors.New("unknown operation")
	ErrUnknownResource  = errors.New("unknown resource")
	errMissingArgument  = errors.New("missing required argument")
)

// Error kinds rendered on the wire.
const (
	KindUnknownOperation = "unknown_operation"
	KindUnknownResource  = "unknown_resource"
	KindInvalidArguments = "invalid_arguments"
	KindProbeTimeout     = "probe_timeout"
	KindProbeRefused     = "probe_refused"
	KindEndpointError    = "endpoint_error"
	KindConfigValidation = "config_validation"
	KindConfigPersist    = "config_persist"
	KindUnknownServer    = "unknown_server"
	KindLogUnavailable   = "log_unavailable"
	KindInternal         = "internal"
)

// errorResult maps an error to its taxonomy kind and renders the uniform
// error envelope. Unrecognized errors become "internal"; the message is
// always plain text, never a trace.
func errorResult(err error) *Result {
	result := &Result{IsError: true, Message: err.Error()}

	var validation *mcpconfig.ValidationError
	var persist *mcpconfig.PersistError

	switch {
	case errors.Is(err, ErrUnknownOperation):
		result.Kind = KindUnknownOperation
	case errors.Is(err, ErrUnknownResource):
		result.Kind = KindUnknownResource
	case errors.Is(err, errMissingArgument):
		result.Kind = KindInvalidArguments
	case errors.Is(err, probe.ErrTimeout):
		result.Kind = KindProbeTimeout
	case errors.Is(err, probe.ErrRefused):
		result.Kind = KindProbeRefused
	case errors.Is(err, probe.ErrEndpoint):
		result.Kind = KindEndpointError
	case errors.Is(err, probe.ErrLogUnavailable):
		result.Kind = KindLogUnavailable
	case errors.Is(err, mcpconfig.ErrUnknownServer):
		result.Kind = KindUnknownServer
	case errors.As(err, &validation):
		result.Kind = KindConfigValidation
		result.Findings = validation.Findings
	case errors.As(err, &persist):
		result.Kind = KindConfigPersist
	default:
		result.Kind = KindInternal
	}
	return result
}
