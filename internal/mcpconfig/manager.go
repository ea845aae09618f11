package mcpconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnknownServer reports an update addressed to a server name absent from
// the current document. Updates never create new entries.
var ErrUnknownServer = errors.New("unknown server")

// ValidationError carries every violated rule from a single validation pass.
type ValidationError struct {
	Findings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: %s", strings.Join(e.Findings, "; "))
}

// PersistError reports a storage failure, distinct from a validation failure.
type PersistError struct {
	Path string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist config to %s: %v", e.Path, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// Load reads and decodes the document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &doc, nil
}

// Save writes the document atomically: encode to a temp file in the target
// directory, then rename over the destination.
func Save(path string, doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &PersistError{Path: path, Err: err}
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.json")
	if err != nil {
		return &PersistError{Path: path, Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return &PersistError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &PersistError{Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return &PersistError{Path: path, Err: err}
	}
	return nil
}

// Manager holds the in-memory document and its storage path. The in-memory
// document always reflects the last successful persist.
type Manager struct {
	path string
	doc  *Document
}

// NewManager loads the document at path.
func NewManager(path string) (*Manager, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}
	return &Manager{path: path, doc: doc}, nil
}

// Document returns a copy of the current document.
func (m *Manager) Document() (*Document, error) {
	return m.doc.Clone()
}

// Path returns the storage path.
func (m *Manager) Path() string { return m.path }

// Validate runs all rules against the current document.
func (m *Manager) Validate() []string {
	return Validate(m.doc)
}

// UpdateServer merges partial over the named server entry, validates the
// resulting document, and persists it. Any failure leaves the in-memory
// document unchanged relative to the last successful persist.
func (m *Manager) UpdateServer(name string, partial map[string]any) (*Document, error) {
	current, ok := m.doc.Servers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownServer, name)
	}

	next, err := m.doc.Clone()
	if err != nil {
		return nil, err
	}
	merged, err := MergeEntry(current, partial)
	if err != nil {
		return nil, err
	}
	next.Servers[name] = merged

	if findings := Validate(next); len(findings) > 0 {
		return nil, &ValidationError{Findings: findings}
	}
	if err := Save(m.path, next); err != nil {
		return nil, err
	}
	m.doc = next
	return next.Clone()
}
