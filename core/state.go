package core

import (
	"time"

	"github.com/google/uuid"
)

// Message roles. The conversation history is the ordered sequence of
// role-tagged messages; order is canonical.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single role-tagged entry of the conversation history.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage constructs a message stamped with the current UTC time.
func NewMessage(role, content string) Message {
	return Message{Role: role, Content: content, Timestamp: time.Now().UTC()}
}

// ToolResult records one tool dispatch of the current turn. Error is empty on
// success; a non-empty Error is data for the planner, not a turn failure.
type ToolResult struct {
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
	Result    map[string]any `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Failed reports whether the dispatch produced an error instead of a result.
func (r ToolResult) Failed() bool { return r.Error != "" }

// UserContext is the immutable caller identity snapshot threaded to tool
// capabilities so they can scope data access. The graph never mutates it.
type UserContext struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
}

// PendingToolCall carries the planner's chosen tool between the plan and
// execute_tool steps. It is part of the persisted state so a crash between
// the two steps resumes with the decision intact.
type PendingToolCall struct {
	Name      string         `json:"name"`
	Reason    string         `json:"reason,omitempty"`
	Arguments map[string]any `json:"arguments"`
}

// State is the unit of persistence for a conversation thread and the sole
// mutable object threaded through the agent graph.
//
// Contract:
//   - Messages is append-only within a turn
//   - ToolResults is cleared at turn start and append-only within the turn
//   - CurrentStep is always a valid Step member; anything else is corruption
//   - IterationCount is reset at turn start and never decreases within a turn
//
// State is not safe for concurrent mutation; the runner guarantees a single
// writer per thread. Clone produces an independent deep copy for safe
// hand-off across goroutine boundaries.
type State struct {
	ThreadID       string           `json:"thread_id"`
	Messages       []Message        `json:"messages"`
	ToolResults    []ToolResult     `json:"tool_results"`
	CurrentStep    Step             `json:"current_step"`
	PendingTool    *PendingToolCall `json:"pending_tool,omitempty"`
	IterationCount int              `json:"iteration_count"`
	UserContext    UserContext      `json:"user_context"`
	Created        time.Time        `json:"created"`
	Updated        time.Time        `json:"updated"`
}

// NewState creates the initial state for a thread on first contact.
func NewState(threadID string, userCtx UserContext) *State {
	now := time.Now().UTC()
	return &State{
		ThreadID:    threadID,
		Messages:    []Message{},
		ToolResults: []ToolResult{},
		CurrentStep: StepPlan,
		UserContext: userCtx,
		Created:     now,
		Updated:     now,
	}
}

// BeginTurn prepares the state for a new user turn: appends the user message,
// clears the previous turn's tool results, resets the iteration counter and
// positions the state machine at plan.
func (s *State) BeginTurn(userMessage string) {
	s.Messages = append(s.Messages, NewMessage(RoleUser, userMessage))
	s.ToolResults = []ToolResult{}
	s.PendingTool = nil
	s.IterationCount = 0
	s.CurrentStep = StepPlan
	s.touch()
}

// AppendMessage appends a message to the conversation history.
func (s *State) AppendMessage(role, content string) {
	s.Messages = append(s.Messages, NewMessage(role, content))
	s.touch()
}

// AppendToolResult appends a tool dispatch record for the current turn.
func (s *State) AppendToolResult(r ToolResult) {
	s.ToolResults = append(s.ToolResults, r)
	s.touch()
}

// LastAssistant returns the most recent assistant message, if any.
func (s *State) LastAssistant() (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

// Validate checks the structural invariants a loaded checkpoint must satisfy.
func (s *State) Validate() error {
	if s.ThreadID == "" {
		return &CorruptStateError{ThreadID: s.ThreadID, Reason: "empty thread_id"}
	}
	if !s.CurrentStep.Valid() {
		return &CorruptStateError{ThreadID: s.ThreadID, Reason: "invalid current_step " + string(s.CurrentStep)}
	}
	if s.IterationCount < 0 {
		return &CorruptStateError{ThreadID: s.ThreadID, Reason: "negative iteration_count"}
	}
	return nil
}

// Clone returns a deep copy safe for independent mutation. Argument and
// result maps are copied one level deep; values are expected to be plain
// JSON-decoded data.
func (s *State) Clone() *State {
	clone := *s
	clone.Messages = make([]Message, len(s.Messages))
	copy(clone.Messages, s.Messages)
	if s.PendingTool != nil {
		clone.PendingTool = &PendingToolCall{
			Name:      s.PendingTool.Name,
			Reason:    s.PendingTool.Reason,
			Arguments: cloneMap(s.PendingTool.Arguments),
		}
	}
	clone.ToolResults = make([]ToolResult, len(s.ToolResults))
	for i, r := range s.ToolResults {
		clone.ToolResults[i] = ToolResult{
			ToolName:  r.ToolName,
			Arguments: cloneMap(r.Arguments),
			Result:    cloneMap(r.Result),
			Error:     r.Error,
		}
	}
	return &clone
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *State) touch() { s.Updated = time.Now().UTC() }

// NewID generates a unique identifier for threads and correlation.
func NewID() string { return uuid.NewString() }
