package core

import "fmt"

// Step identifies a node of the agent graph. The value stored in
// State.CurrentStep drives the state machine; it is always one of the
// enumeration below.
type Step string

const (
	// StepPlan asks the planner whether a tool should be invoked.
	StepPlan Step = "plan"
	// StepExecuteTool dispatches the chosen tool through the registry.
	StepExecuteTool Step = "execute_tool"
	// StepValidate increments the iteration counter and decides between
	// another refinement cycle and answer synthesis.
	StepValidate Step = "validate"
	// StepRefine is the pass-back edge to plan enabling cyclic reasoning.
	StepRefine Step = "refine"
	// StepSynthesizeAnswer produces the final assistant message.
	StepSynthesizeAnswer Step = "synthesize_answer"
	// StepDone is the terminal step of a turn.
	StepDone Step = "done"
)

// Valid reports whether s is a member of the step enumeration.
func (s Step) Valid() bool {
	switch s {
	case StepPlan, StepExecuteTool, StepValidate, StepRefine, StepSynthesizeAnswer, StepDone:
		return true
	}
	return false
}

// Terminal reports whether the graph halts at s.
func (s Step) Terminal() bool { return s == StepDone }

func (s Step) String() string { return string(s) }

// CorruptStateError signals that a loaded checkpoint violates a state
// invariant (e.g. an unknown CurrentStep). Corruption is fatal for the turn;
// it is never silently repaired.
type CorruptStateError struct {
	ThreadID string
	Reason   string
}

func (e *CorruptStateError) Error() string {
	return fmt.Sprintf("corrupt state for thread %s: %s", e.ThreadID, e.Reason)
}
