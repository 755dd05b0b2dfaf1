package testutil

import (
	"github.com/agentloom/agentloom/core"
)

// StateBuilder constructs core.State values with fluent chaining for tests.
// Example:
//
//	st := NewStateBuilder("t-1").User("u1", "analyst").Turn("show sales").Build()
type StateBuilder struct {
	state *core.State
}

// NewStateBuilder creates a builder for a state owned by a default user.
func NewStateBuilder(threadID string) *StateBuilder {
	return &StateBuilder{state: core.NewState(threadID, core.UserContext{UserID: "test-user"})}
}

// User sets the user context (chainable).
func (b *StateBuilder) User(id, role string) *StateBuilder {
	b.state.UserContext = core.UserContext{UserID: id, Role: role}
	return b
}

// Turn begins a new user turn with the given message (chainable).
func (b *StateBuilder) Turn(message string) *StateBuilder {
	b.state.BeginTurn(message)
	return b
}

// Assistant appends an assistant message (chainable).
func (b *StateBuilder) Assistant(message string) *StateBuilder {
	b.state.AppendMessage(core.RoleAssistant, message)
	return b
}

// Result appends a tool result (chainable).
func (b *StateBuilder) Result(r core.ToolResult) *StateBuilder {
	b.state.AppendToolResult(r)
	return b
}

// Step sets the current step (chainable).
func (b *StateBuilder) Step(s core.Step) *StateBuilder {
	b.state.CurrentStep = s
	return b
}

// Build returns the constructed state.
func (b *StateBuilder) Build() *core.State { return b.state }
