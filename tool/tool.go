// Package tool implements the tool calling subsystem: the Tool capability
// contract, a FunctionTool adapter exposing plain Go functions with schema
// validated arguments, and the process-wide Registry used by the agent graph
// for name-based dispatch.
package tool

import (
	"context"
	"fmt"

	"github.com/agentloom/agentloom/core"
)

// Tool is an external, possibly side-effecting capability the planner can
// select by name. Implementations must be safe for concurrent use; the engine
// never auto-retries a call.
type Tool interface {
	// Name returns the unique identifier used for dispatch (snake_case
	// recommended).
	Name() string

	// Description is surfaced to the planner to explain when to use the tool.
	Description() string

	// Parameters returns a JSON Schema object describing accepted arguments.
	Parameters() map[string]any

	// Call executes the capability. The user context carries the caller
	// identity so implementations can scope data access; it must not be
	// mutated. The returned map is JSON-serializable result data.
	Call(ctx context.Context, args map[string]any, userCtx core.UserContext) (map[string]any, error)
}

// DuplicateError reports a second registration under an already-taken name.
// Registration happens at startup, so this is treated as a fatal
// misconfiguration by callers.
type DuplicateError struct {
	Name string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("tool %q already registered", e.Name)
}

// UnknownError reports a lookup for a name absent from the registry. At
// runtime the graph degrades gracefully on this (the planner may hallucinate
// names); it never crashes the turn.
type UnknownError struct {
	Name string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

// ToolError represents errors raised during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// Error codes used by FunctionTool.
const (
	CodeValidation = "VALIDATION_ERROR"
	CodeExecution  = "EXECUTION_ERROR"
)

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a ToolError with the given details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}
