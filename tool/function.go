package tool

import (
	"context"
	"fmt"

	"github.com/agentloom/agentloom/core"
	"github.com/xeipuuv/gojsonschema"
)

// Func is the capability signature wrapped by FunctionTool.
type Func func(ctx context.Context, args map[string]any, userCtx core.UserContext) (map[string]any, error)

// FunctionTool adapts a plain Go function into a Tool.
//
// If a parameter schema is supplied it is compiled at construction time and
// arguments are validated against it before the function runs. Validation
// failures surface as *ToolError with code VALIDATION_ERROR; like any other
// tool failure they become data for the reasoning loop, not a turn abort.
//
// A FunctionTool has no mutable state after construction and is safe for
// concurrent use.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	schema      *gojsonschema.Schema
	fn          Func
}

// NewFunctionTool constructs a FunctionTool from an explicit schema and
// function. The schema contract is enforced here, at registration time, so a
// malformed schema fails fast instead of at the first call.
func NewFunctionTool(name, description string, parameters map[string]any, fn Func) (*FunctionTool, error) {
	if fn == nil {
		return nil, fmt.Errorf("tool %q: nil function", name)
	}
	t := &FunctionTool{name: name, description: description, parameters: parameters, fn: fn}
	if len(parameters) > 0 {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(parameters))
		if err != nil {
			return nil, fmt.Errorf("tool %q: invalid parameter schema: %w", name, err)
		}
		t.schema = schema
	}
	return t, nil
}

// MustFunctionTool is NewFunctionTool panicking on error, for startup wiring.
func MustFunctionTool(name, description string, parameters map[string]any, fn Func) *FunctionTool {
	t, err := NewFunctionTool(name, description, parameters, fn)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the unique tool name used for dispatch.
func (t *FunctionTool) Name() string { return t.name }

// Description returns the planner-facing description.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the declared JSON schema.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call validates args against the declared schema then invokes the wrapped
// function. Errors are normalized to *ToolError; a *ToolError returned by the
// function is forwarded unchanged.
func (t *FunctionTool) Call(ctx context.Context, args map[string]any, userCtx core.UserContext) (map[string]any, error) {
	if t.schema != nil {
		res, err := t.schema.Validate(gojsonschema.NewGoLoader(args))
		if err != nil {
			return nil, &ToolError{Tool: t.name, Message: fmt.Sprintf("argument validation errored: %v", err), Code: CodeValidation}
		}
		if !res.Valid() {
			return nil, &ToolError{Tool: t.name, Message: validationMessage(res), Code: CodeValidation, Details: res.Errors()}
		}
	}

	out, err := t.fn(ctx, args, userCtx)
	if err != nil {
		if toolErr, ok := err.(*ToolError); ok {
			return nil, toolErr
		}
		return nil, &ToolError{Tool: t.name, Message: err.Error(), Code: CodeExecution}
	}
	return out, nil
}

func validationMessage(res *gojsonschema.Result) string {
	if errs := res.Errors(); len(errs) > 0 {
		return fmt.Sprintf("parameter validation failed: %s", errs[0].String())
	}
	return "parameter validation failed"
}
