// Package mcpconfig manages the layered MCP server configuration document.
//
// The document maps server names to their invocation configuration. Mutation
// goes through validate-then-merge only; persistence is a separate,
// explicitly side-effecting step. Concurrent writers to the same persisted
// document are not coordinated here.
package mcpconfig

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Document is the persisted configuration: a protocol version plus at least
// one server entry.
type Document struct {
	ProtocolVersion string                 `json:"protocol_version"`
	Servers         map[string]ServerEntry `json:"servers"`
}

// ServerEntry is one server's invocation configuration: required fields plus
// an open extension map preserving fields this version does not know about.
type ServerEntry struct {
	Command string
	Args    []string
	Extra   map[string]any
}

func (e *ServerEntry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = ServerEntry{}
	for key, value := range raw {
		switch key {
		case "command":
			if err := json.Unmarshal(value, &e.Command); err != nil {
				return fmt.Errorf("field command: %w", err)
			}
		case "args":
			if err := json.Unmarshal(value, &e.Args); err != nil {
				return fmt.Errorf("field args: %w", err)
			}
		default:
			var v any
			if err := json.Unmarshal(value, &v); err != nil {
				return fmt.Errorf("field %s: %w", key, err)
			}
			if e.Extra == nil {
				e.Extra = make(map[string]any)
			}
			e.Extra[key] = v
		}
	}
	return nil
}

func (e ServerEntry) MarshalJSON() ([]byte, error) {
	merged := make(map[string]any, len(e.Extra)+2)
	for key, value := range e.Extra {
		merged[key] = value
	}
	merged["command"] = e.Command
	if e.Args != nil {
		merged["args"] = e.Args
	}
	return json.Marshal(merged)
}

// Fields returns the entry as a flat field map, the shape merges operate on.
func (e ServerEntry) Fields() map[string]any {
	fields := make(map[string]any, len(e.Extra)+2)
	for key, value := range e.Extra {
		fields[key] = value
	}
	fields["command"] = e.Command
	if e.Args != nil {
		fields["args"] = e.Args
	}
	return fields
}

// Validate evaluates every rule and returns all violations together; it
// never stops at the first one.
func Validate(doc *Document) []string {
	var findings []string
	if doc.ProtocolVersion == "" {
		findings = append(findings, "protocol_version is missing or empty")
	}
	if len(doc.Servers) == 0 {
		findings = append(findings, "document has no server entries")
	}
	names := make([]string, 0, len(doc.Servers))
	for name := range doc.Servers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if doc.Servers[name].Command == "" {
			findings = append(findings, fmt.Sprintf("server %q has no command", name))
		}
	}
	return findings
}

// MergeEntry applies a shallow field-wise merge of partial over the entry,
// last write winning per field, and returns the merged entry. Neither input
// is modified.
func MergeEntry(entry ServerEntry, partial map[string]any) (ServerEntry, error) {
	fields := entry.Fields()
	for key, value := range partial {
		fields[key] = value
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return ServerEntry{}, err
	}
	var merged ServerEntry
	if err := json.Unmarshal(data, &merged); err != nil {
		return ServerEntry{}, err
	}
	return merged, nil
}

// Clone deep-copies the document through its JSON form.
func (d *Document) Clone() (*Document, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	var clone Document
	if err := json.Unmarshal(data, &clone); err != nil {
		return nil, err
	}
	return &clone, nil
}
