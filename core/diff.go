package core

// StateDiff is the partial state delta produced by a single completed graph
// step, suitable for incremental streaming without shipping the full state.
type StateDiff struct {
	Step           Step         `json:"step"`
	NewMessages    []Message    `json:"new_messages,omitempty"`
	NewToolResults []ToolResult `json:"new_tool_results,omitempty"`
	IterationCount int          `json:"iteration_count"`
}

// Diff computes the delta from a prior snapshot to the current state.
// Both slices are append-only within a turn, so the delta is a suffix.
func (s *State) Diff(prev *State) StateDiff {
	d := StateDiff{Step: s.CurrentStep, IterationCount: s.IterationCount}
	if n := len(prev.Messages); len(s.Messages) > n {
		d.NewMessages = append(d.NewMessages, s.Messages[n:]...)
	}
	// A new turn clears ToolResults, so the suffix rule only holds while the
	// current slice is at least as long as the snapshot's.
	if n := len(prev.ToolResults); len(s.ToolResults) >= n {
		if len(s.ToolResults) > n {
			d.NewToolResults = append(d.NewToolResults, s.ToolResults[n:]...)
		}
	} else {
		d.NewToolResults = append(d.NewToolResults, s.ToolResults...)
	}
	return d
}

// StepEvent is the unit of the streaming interface: one event per completed
// step transition, terminated by a done step or an event carrying Err.
type StepEvent struct {
	ThreadID string    `json:"thread_id"`
	Step     Step      `json:"step_name"`
	Diff     StateDiff `json:"partial_state_diff"`
	Err      error     `json:"-"`
}
