// Package probe defines the outcome types shared by all diagnostic probes.
package probe

import (
	"errors"
	"time"
)

// Status classifies the outcome of a single probe execution.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// Outcome is the standard result format for probes. Outcomes are produced
// fresh on every invocation and never cached.
type Outcome struct {
	Probe     string    `json:"probe"`
	Status    Status    `json:"status"`
	Message   string    `json:"message"`
	Value     *float64  `json:"value,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Probe failure kinds. Probes wrap the underlying error so callers can
// classify with errors.Is while keeping the original message.
var (
	ErrTimeout        = errors.New("probe timed out")
	ErrRefused        = errors.New("connection refused")
	ErrEndpoint       = errors.New("endpoint error")
	ErrLogUnavailable = errors.New("log backend unavailable")
)

// New builds an outcome stamped with the current time.
func New(name string, status Status, message string) Outcome {
	return Outcome{
		Probe:     name,
		Status:    status,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// NewValue builds an outcome carrying a numeric measurement.
func NewValue(name string, status Status, message string, value float64) Outcome {
	o := New(name, status, message)
	o.Value = &value
	return o
}

// Description is the self-description format for probes.
type Description struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Arguments   Arguments `json:"arguments"`
}

// Arguments describes required and optional probe arguments.
type Arguments struct {
	Required map[string]ArgumentSpec `json:"required,omitempty"`
	Optional map[string]ArgumentSpec `json:"optional,omitempty"`
}

// ArgumentSpec describes a single argument.
type ArgumentSpec struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
}
