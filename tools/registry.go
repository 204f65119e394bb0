package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	logcontext "github.com/va6996/seatsaero-mcp/context"
	"github.com/va6996/seatsaero-mcp/log"
	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidArguments wraps every argument validation failure
var ErrInvalidArguments = errors.New("invalid arguments")

// Definition is the catalog entry a client sees when listing tools
type Definition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// RawSchema returns the input schema as JSON
func (d Definition) RawSchema() json.RawMessage {
	b, err := json.Marshal(d.InputSchema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return b
}

// Response is the single text block every invocation produces
type Response struct {
	Text    string
	IsError bool
}

// Stage names the step an invocation is in, for logging
type Stage string

const (
	StageValidating Stage = "validating"
	StageExecuting  Stage = "executing"
	StageResponding Stage = "responding"
)

type entry struct {
	def    Definition
	schema *gojsonschema.Schema
	tool   ai.Tool
}

// Registry holds the tool catalog. It is built once at startup and only
// read afterwards.
type Registry struct {
	tools   []ai.Tool
	order   []string
	entries map[string]*entry
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools:   make([]ai.Tool, 0),
		entries: make(map[string]*entry),
	}
}

// Register adds a genkit tool to the catalog. def supplies the wire schema;
// an empty name or description is taken from the tool itself.
func (r *Registry) Register(tool ai.Tool, def Definition) error {
	if tool == nil {
		return fmt.Errorf("tool %q has no genkit handle", def.Name)
	}
	gdef := tool.Definition()
	if def.Name == "" {
		def.Name = gdef.Name
	}
	if def.Name != gdef.Name {
		return fmt.Errorf("definition %s does not match genkit tool %s", def.Name, gdef.Name)
	}
	if def.Description == "" {
		def.Description = gdef.Description
	}
	if _, exists := r.entries[def.Name]; exists {
		return fmt.Errorf("tool %s already registered", def.Name)
	}
	if def.InputSchema == nil {
		def.InputSchema = map[string]interface{}{"type": "object", "properties": map[string]interface{}{}}
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(def.InputSchema))
	if err != nil {
		return fmt.Errorf("invalid input schema for %s: %w", def.Name, err)
	}

	r.tools = append(r.tools, tool)
	r.order = append(r.order, def.Name)
	r.entries[def.Name] = &entry{def: def, schema: schema, tool: tool}
	return nil
}

// GetTools returns the genkit handles of all registered tools
func (r *Registry) GetTools() []ai.Tool {
	return r.tools
}

// Definitions returns the catalog in registration order
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.entries[name].def)
	}
	return defs
}

// Has reports whether name is in the catalog
func (r *Registry) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Validate checks args against the named tool's schema
func (r *Registry) Validate(name string, args map[string]interface{}) error {
	e, ok := r.entries[name]
	if !ok {
		return fmt.Errorf("Unknown tool: %s", name)
	}
	return validateAgainst(e.schema, args)
}

// ExecuteTool validates args against the wire schema and runs the tool
// through genkit, returning the tool's own error
func (r *Registry) ExecuteTool(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	e, ok := r.entries[name]
	if !ok {
		return "", fmt.Errorf("Unknown tool: %s", name)
	}
	if args == nil {
		args = map[string]interface{}{}
	}

	log.Debugf(ctx, "tool %s: %s", name, StageValidating)
	if err := validateAgainst(e.schema, args); err != nil {
		return "", err
	}

	log.Debugf(ctx, "tool %s: %s", name, StageExecuting)
	out, err := e.tool.RunRaw(ctx, args)
	if err != nil {
		var te *ToolError
		if errors.As(err, &te) {
			return "", te.Err
		}
		return "", err
	}
	return outputText(out)
}

// Call runs one invocation end to end. Failures anywhere, including panics,
// come back as an "Error: <message>" response, never as a Go error.
func (r *Registry) Call(ctx context.Context, name string, args map[string]interface{}) (resp Response) {
	if logcontext.RequestIDFromContext(ctx) == "" {
		ctx = logcontext.WithRequestID(ctx, logcontext.NewRequestID())
	}
	ctx = logcontext.WithToolName(ctx, name)

	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf(ctx, "tool %s panicked: %v", name, rec)
			resp = errorResponse(fmt.Errorf("internal error: %v", rec))
		}
		log.Debugf(ctx, "tool %s: %s (error=%v)", name, StageResponding, resp.IsError)
	}()

	text, err := r.ExecuteTool(ctx, name, args)
	if err != nil {
		log.Warnf(ctx, "tool %s failed: %v", name, err)
		return errorResponse(err)
	}
	return Response{Text: text}
}

func errorResponse(err error) Response {
	return Response{Text: "Error: " + err.Error(), IsError: true}
}

func validateAgainst(schema *gojsonschema.Schema, args map[string]interface{}) error {
	if args == nil {
		args = map[string]interface{}{}
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		msgs = append(msgs, re.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidArguments, strings.Join(msgs, "; "))
}

func outputText(out interface{}) (string, error) {
	switch v := out.(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("unrenderable tool output: %w", err)
		}
		return string(b), nil
	}
}
