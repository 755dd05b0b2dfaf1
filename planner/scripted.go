package planner

import (
	"context"
	"sync"

	"github.com/agentloom/agentloom/core"
)

// Scripted is a deterministic in-memory Planner for tests and examples. Plan
// pops queued decisions in order (repeating the last one when exhausted) and
// Answer returns a canned reply. Queued errors are returned in place of the
// corresponding decision, which makes retry behavior scriptable.
type Scripted struct {
	mu        sync.Mutex
	decisions []scriptedStep
	answer    string
	answerErr error
	planCalls int
	ansCalls  int
}

type scriptedStep struct {
	decision Decision
	err      error
}

// NewScripted constructs a Scripted planner with a default no-tool decision
// and a fixed answer.
func NewScripted(answer string) *Scripted {
	return &Scripted{answer: answer}
}

// QueueDecision appends a decision to the plan script.
func (s *Scripted) QueueDecision(d Decision) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions = append(s.decisions, scriptedStep{decision: d})
	return s
}

// QueuePlanError appends a failing plan call to the script.
func (s *Scripted) QueuePlanError(err error) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decisions = append(s.decisions, scriptedStep{err: err})
	return s
}

// FailAnswer makes every Answer call return err.
func (s *Scripted) FailAnswer(err error) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answerErr = err
	return s
}

// Plan implements Planner by consuming the script.
func (s *Scripted) Plan(ctx context.Context, _ []core.Message, _ string) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, Unavailable(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.planCalls++
	if len(s.decisions) == 0 {
		return Decision{Tool: ToolNone, Reason: "scripted default", Arguments: map[string]any{}}, nil
	}
	step := s.decisions[0]
	if len(s.decisions) > 1 {
		s.decisions = s.decisions[1:]
	}
	return step.decision, step.err
}

// Answer implements Planner.
func (s *Scripted) Answer(ctx context.Context, _ []core.Message, _ []core.ToolResult) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", Unavailable(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ansCalls++
	if s.answerErr != nil {
		return "", s.answerErr
	}
	return s.answer, nil
}

// PlanCalls returns how many times Plan was invoked.
func (s *Scripted) PlanCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.planCalls
}

// AnswerCalls returns how many times Answer was invoked.
func (s *Scripted) AnswerCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ansCalls
}
