// Package server implements the stdio request dispatcher: named operations
// and URI-addressed resources invoked one request at a time.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
)

// Param describes one named operation parameter with an optional default.
type Param struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// Handler executes an operation with the merged argument map.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Operation is a named invocable action. Descriptors are immutable after
// registration and names are unique per server instance.
type Operation struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`
	Handler     Handler `json:"-"`
}

// Reader produces a resource's current content.
type Reader func(ctx context.Context) (string, error)

// Resource is a URI-addressed read-only view.
type Resource struct {
	URI         string `json:"uri"`
	Description string `json:"description"`
	MimeType    string `json:"mime_type"`
	Reader      Reader `json:"-"`
}

// Server dispatches operations and resources for one role instance.
// Requests are handled strictly sequentially.
type Server struct {
	name       string
	version    string
	operations []Operation
	opIndex    map[string]int
	resources  []Resource
	resIndex   map[string]int
}

// New creates an empty server for the named role.
func New(name, version string) *Server {
	return &Server{
		name:     name,
		version:  version,
		opIndex:  make(map[string]int),
		resIndex: make(map[string]int),
	}
}

// Register adds an operation to the catalog. Registering a duplicate name is
// a programming error.
func (s *Server) Register(op Operation) {
	if _, exists := s.opIndex[op.Name]; exists {
		panic(fmt.Sprintf("operation %q registered twice", op.Name))
	}
	s.opIndex[op.Name] = len(s.operations)
	s.operations = append(s.operations, op)
}

// RegisterResource adds a resource to the catalog.
func (s *Server) RegisterResource(r Resource) {
	if _, exists := s.resIndex[r.URI]; exists {
		panic(fmt.Sprintf("resource %q registered twice", r.URI))
	}
	s.resIndex[r.URI] = len(s.resources)
	s.resources = append(s.resources, r)
}

// Operations returns the static operation catalog.
func (s *Server) Operations() []Operation {
	return s.operations
}

// Resources returns the static resource catalog.
func (s *Server) Resources() []Resource {
	return s.resources
}

// Result is the uniform operation result envelope. Failures carry a kind
// from the error taxonomy and never a raw trace.
type Result struct {
	Content  any      `json:"content,omitempty"`
	IsError  bool     `json:"is_error,omitempty"`
	Kind     string   `json:"kind,omitempty"`
	Message  string   `json:"message,omitempty"`
	Findings []string `json:"findings,omitempty"`
}

// Invoke runs the named operation with caller args merged over declared
// defaults. Every failure, including a handler panic, is rendered as an
// error result; Invoke never lets one escape.
func (s *Server) Invoke(ctx context.Context, name string, args map[string]any) *Result {
	idx, ok := s.opIndex[name]
	if !ok {
		return errorResult(fmt.Errorf("%w: %q", ErrUnknownOperation, name))
	}
	op := s.operations[idx]

	merged, err := mergeArgs(op.Params, args)
	if err != nil {
		return errorResult(err)
	}

	content, err := s.callHandler(ctx, op, merged)
	if err != nil {
		slog.Warn("operation failed", "operation", name, "error", err)
		return errorResult(err)
	}
	return &Result{Content: content}
}

func (s *Server) callHandler(ctx context.Context, op Operation, args map[string]any) (content any, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("handler panicked", "operation", op.Name, "panic", r)
			err = fmt.Errorf("internal error in %s: %v", op.Name, r)
		}
	}()
	return op.Handler(ctx, args)
}

// ReadResource reads the resource at uri, failing with UnknownResource for
// unrecognized URIs.
func (s *Server) ReadResource(ctx context.Context, uri string) *Result {
	idx, ok := s.resIndex[uri]
	if !ok {
		return errorResult(fmt.Errorf("%w: %q", ErrUnknownResource, uri))
	}
	content, err := s.readSafe(ctx, s.resources[idx])
	if err != nil {
		slog.Warn("resource read failed", "uri", uri, "error", err)
		return errorResult(fmt.Errorf("reading %s: %w", uri, err))
	}
	return &Result{Content: content}
}

func (s *Server) readSafe(ctx context.Context, r Resource) (content string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("resource reader panicked", "uri", r.URI, "panic", rec)
			err = fmt.Errorf("internal error: %v", rec)
		}
	}()
	return r.Reader(ctx)
}

func mergeArgs(params []Param, args map[string]any) (map[string]any, error) {
	merged := make(map[string]any, len(params))
	for _, p := range params {
		if p.Default != nil {
			merged[p.Name] = p.Default
		}
	}
	for key, value := range args {
		merged[key] = value
	}
	for _, p := range params {
		if p.Required {
			if _, ok := merged[p.Name]; !ok {
				return nil, fmt.Errorf("%w: %s", errMissingArgument, p.Name)
			}
		}
	}
	return merged, nil
}

// request is one line of the stdio protocol.
type request struct {
	ID     any             `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

type response struct {
	ID     any    `json:"id"`
	Result any    `json:"result,omitempty"`
	Error  *Result `json:"error,omitempty"`
}

type invokeParams struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type readParams struct {
	URI string `json:"uri"`
}

// Run serves line-delimited JSON requests from r until EOF or context
// cancellation. One bad request never terminates the loop.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	slog.Info("server ready", "role", s.name, "version", s.version,
		"operations", len(s.operations), "resources", len(s.resources))

	enc := json.NewEncoder(w)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req request
		if err := json.Unmarshal(line, &req); err != nil {
			enc.Encode(response{Error: &Result{
				IsError: true, Kind: KindInternal,
				Message: fmt.Sprintf("malformed request: %v", err),
			}})
			continue
		}
		enc.Encode(s.handle(ctx, &req))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read request stream: %w", err)
	}
	slog.Info("request stream closed", "role", s.name)
	return nil
}

func (s *Server) handle(ctx context.Context, req *request) response {
	resp := response{ID: req.ID}

	switch req.Method {
	case "list_operations":
		resp.Result = map[string]any{"operations": s.operations}
	case "list_resources":
		resp.Result = map[string]any{"resources": s.resources}
	case "invoke":
		var p invokeParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			resp.Error = &Result{IsError: true, Kind: KindInternal,
				Message: fmt.Sprintf("malformed invoke params: %v", err)}
			return resp
		}
		result := s.Invoke(ctx, p.Name, p.Args)
		if result.IsError {
			resp.Error = result
		} else {
			resp.Result = result
		}
	case "read_resource":
		var p readParams
		if err := json.Unmarshal(req.Params, &p); err != nil {
			resp.Error = &Result{IsError: true, Kind: KindInternal,
				Message: fmt.Sprintf("malformed read_resource params: %v", err)}
			return resp
		}
		result := s.ReadResource(ctx, p.URI)
		if result.IsError {
			resp.Error = result
		} else {
			resp.Result = result
		}
	default:
		resp.Error = &Result{IsError: true, Kind: KindUnknownOperation,
			Message: fmt.Sprintf("unknown method %q", req.Method)}
	}
	return resp
}
