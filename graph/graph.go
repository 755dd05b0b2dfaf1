// Package graph implements the agent state machine: the directed cyclic
// graph of named steps driving the plan, execute_tool, validate, refine,
// synthesize_answer cycle. The cycle is represented as an explicit transition
// function over the Step enumeration rather than a generic graph engine, so
// the loop bound and every edge are auditable and independently testable.
package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/agentloom/agentloom/core"
	"github.com/agentloom/agentloom/logging"
	"github.com/agentloom/agentloom/metrics"
	"github.com/agentloom/agentloom/planner"
	"github.com/agentloom/agentloom/tool"
)

// Failure classifications carried by OrchestrationError.
const (
	ReasonPlannerUnavailable = "planner_unavailable"
	ReasonPlannerMalformed   = "planner_malformed"
	ReasonCorruptState       = "corrupt_state"
)

// OrchestrationError is the only error surfaced for a failed turn. The
// turn's partial state (messages and tool results accumulated so far) remains
// persisted and resumable; callers never observe corrupt state.
type OrchestrationError struct {
	ThreadID string
	Step     core.Step
	Reason   string
	Err      error
}

func (e *OrchestrationError) Error() string {
	return fmt.Sprintf("orchestration failed at %s for thread %s (%s): %v", e.Step, e.ThreadID, e.Reason, e.Err)
}

func (e *OrchestrationError) Unwrap() error { return e.Err }

// Options holds configuration overrides passed to New.
type Options struct {
	// MaxIterations bounds plan/execute cycles per turn; reaching the bound
	// forces synthesize_answer to guarantee termination.
	MaxIterations int
	// PlannerAttempts is the total number of tries per planner call
	// (1 initial + retries).
	PlannerAttempts int
	// PlannerTimeout applies per planner call; a timeout counts as an
	// upstream failure for retry purposes.
	PlannerTimeout time.Duration
	// ToolTimeout applies per tool execution.
	ToolTimeout time.Duration
	// Logger receives structured step/planner/tool records.
	Logger logging.Logger
	// Metrics receives engine instrumentation; nil disables it.
	Metrics *metrics.Metrics
}

// Graph composes the tool registry and planner adapter into the state
// machine. A Graph is immutable after construction and safe for concurrent
// use; all mutable data lives in the per-thread State.
type Graph struct {
	registry *tool.Registry
	planner  planner.Planner

	maxIterations   int
	plannerAttempts int
	plannerTimeout  time.Duration
	toolTimeout     time.Duration

	logger  logging.Logger
	metrics *metrics.Metrics
}

// New constructs a Graph with optional overrides.
func New(registry *tool.Registry, p planner.Planner, optFns ...func(o *Options)) *Graph {
	opts := Options{
		MaxIterations:   3,
		PlannerAttempts: 2,
		PlannerTimeout:  60 * time.Second,
		ToolTimeout:     30 * time.Second,
		Logger:          logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Graph{
		registry:        registry,
		planner:         p,
		maxIterations:   opts.MaxIterations,
		plannerAttempts: opts.PlannerAttempts,
		plannerTimeout:  opts.PlannerTimeout,
		toolTimeout:     opts.ToolTimeout,
		logger:          opts.Logger,
		metrics:         opts.Metrics,
	}
}

// Observer is invoked after every completed step transition with the step
// that ran and the resulting state delta. Returning an error aborts the run;
// the runner uses the hook to checkpoint state and feed the stream.
type Observer func(executed core.Step, diff core.StateDiff) error

// Run drives the state machine from state.CurrentStep until a terminal step,
// invoking the observer after each completed transition. Cancellation is
// honored between steps (never mid-external-call beyond each call's own
// timeout): the state remains at the last completed step.
func (g *Graph) Run(ctx context.Context, st *core.State, observe Observer) error {
	for !st.CurrentStep.Terminal() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := st.Validate(); err != nil {
			return &OrchestrationError{ThreadID: st.ThreadID, Step: st.CurrentStep, Reason: ReasonCorruptState, Err: err}
		}

		executed := st.CurrentStep
		prev := st.Clone()
		stepErr := g.next(ctx, st)

		g.metrics.ObserveStep(string(executed))
		g.logger.Debug("step transition", "thread_id", st.ThreadID, "from", executed, "to", st.CurrentStep, "iteration", st.IterationCount)

		if observe != nil {
			if err := observe(executed, st.Diff(prev)); err != nil {
				return err
			}
		}
		if stepErr != nil {
			return stepErr
		}
	}
	return nil
}

// next executes the step named by st.CurrentStep and advances the machine.
// It returns a non-nil error only for terminal orchestration failures; those
// still advance CurrentStep to done so the state is never stuck mid-machine.
func (g *Graph) next(ctx context.Context, st *core.State) error {
	switch st.CurrentStep {
	case core.StepPlan:
		return g.stepPlan(ctx, st)
	case core.StepExecuteTool:
		return g.stepExecuteTool(ctx, st)
	case core.StepValidate:
		g.stepValidate(st)
		return nil
	case core.StepRefine:
		// Pass-back edge to plan; no state mutation beyond the edge itself.
		st.CurrentStep = core.StepPlan
		return nil
	case core.StepSynthesizeAnswer:
		return g.stepSynthesize(ctx, st)
	default:
		bad := st.CurrentStep
		st.CurrentStep = core.StepDone
		return &OrchestrationError{
			ThreadID: st.ThreadID,
			Step:     bad,
			Reason:   ReasonCorruptState,
			Err:      fmt.Errorf("unexpected step %q", bad),
		}
	}
}

// stepPlan asks the planner for a decision. A tool name the registry does not
// know degrades gracefully: the hallucinated call is recorded as an error
// result and the turn proceeds to answer synthesis.
func (g *Graph) stepPlan(ctx context.Context, st *core.State) error {
	catalog := g.registry.Catalog()

	var decision planner.Decision
	err := g.withRetries(ctx, "plan", func(callCtx context.Context) error {
		var planErr error
		decision, planErr = g.planner.Plan(callCtx, st.Messages, catalog)
		return planErr
	})
	if err != nil {
		st.CurrentStep = core.StepDone
		return g.failTurn(st, core.StepPlan, err)
	}

	switch {
	case !decision.CallsTool():
		st.CurrentStep = core.StepSynthesizeAnswer
	case !g.registry.Has(decision.Tool):
		g.logger.Warn("planner chose unregistered tool", "thread_id", st.ThreadID, "tool", decision.Tool)
		st.AppendToolResult(core.ToolResult{
			ToolName:  decision.Tool,
			Arguments: decision.Arguments,
			Error:     fmt.Sprintf("unknown tool %q: not registered", decision.Tool),
		})
		st.CurrentStep = core.StepSynthesizeAnswer
	default:
		st.PendingTool = &core.PendingToolCall{Name: decision.Tool, Reason: decision.Reason, Arguments: decision.Arguments}
		st.CurrentStep = core.StepExecuteTool
	}
	return nil
}

// stepExecuteTool dispatches the pending capability. Tool failure is data for
// the model, not a fatal condition: both outcomes transition to validate.
func (g *Graph) stepExecuteTool(ctx context.Context, st *core.State) error {
	pending := st.PendingTool
	if pending == nil {
		st.CurrentStep = core.StepDone
		return &OrchestrationError{
			ThreadID: st.ThreadID,
			Step:     core.StepExecuteTool,
			Reason:   ReasonCorruptState,
			Err:      errors.New("execute_tool without pending tool call"),
		}
	}
	st.PendingTool = nil

	capability, err := g.registry.Lookup(pending.Name)
	if err != nil {
		// Covered during plan for fresh decisions; a checkpoint resumed after
		// a registry change can still land here.
		st.AppendToolResult(core.ToolResult{ToolName: pending.Name, Arguments: pending.Arguments, Error: err.Error()})
		st.CurrentStep = core.StepValidate
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, g.toolTimeout)
	defer cancel()

	start := time.Now()
	result, execErr := capability.Call(callCtx, pending.Arguments, st.UserContext)
	g.metrics.ObserveToolExecution(pending.Name, time.Since(start), execErr)

	if execErr != nil {
		g.logger.Warn("tool execution failed", "thread_id", st.ThreadID, "tool", pending.Name, "error", execErr.Error())
		st.AppendToolResult(core.ToolResult{ToolName: pending.Name, Arguments: pending.Arguments, Error: execErr.Error()})
	} else {
		g.logger.Info("tool execution completed", "thread_id", st.ThreadID, "tool", pending.Name, "duration_ms", time.Since(start).Milliseconds())
		st.AppendToolResult(core.ToolResult{ToolName: pending.Name, Arguments: pending.Arguments, Result: result})
	}
	st.CurrentStep = core.StepValidate
	return nil
}

// stepValidate increments the cycle counter and either allows another
// refinement cycle or forces answer synthesis at the bound.
func (g *Graph) stepValidate(st *core.State) {
	st.IterationCount++
	if st.IterationCount >= g.maxIterations {
		st.CurrentStep = core.StepSynthesizeAnswer
		return
	}
	st.CurrentStep = core.StepRefine
}

// stepSynthesize produces the final assistant message from the conversation
// and the turn's tool results.
func (g *Graph) stepSynthesize(ctx context.Context, st *core.State) error {
	var answer string
	err := g.withRetries(ctx, "answer", func(callCtx context.Context) error {
		var ansErr error
		answer, ansErr = g.planner.Answer(callCtx, st.Messages, st.ToolResults)
		return ansErr
	})
	if err != nil {
		// No assistant message is appended: the caller sees the previous
		// history unchanged plus the error signal.
		st.CurrentStep = core.StepDone
		return g.failTurn(st, core.StepSynthesizeAnswer, err)
	}

	st.AppendMessage(core.RoleAssistant, answer)
	st.CurrentStep = core.StepDone
	return nil
}

// withRetries runs a planner call up to plannerAttempts times with a
// per-attempt timeout. No tool side effects happen between retries.
func (g *Graph) withRetries(ctx context.Context, op string, call func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= g.plannerAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, g.plannerTimeout)
		start := time.Now()
		err := call(callCtx)
		cancel()

		g.metrics.ObservePlannerCall(op, time.Since(start), err)
		if err == nil {
			return nil
		}
		g.logger.Warn("planner call failed", "op", op, "attempt", attempt, "error", err.Error())
		lastErr = err

		// Caller cancellation is not retryable.
		if ctx.Err() != nil {
			return lastErr
		}
		if attempt < g.plannerAttempts {
			g.metrics.ObservePlannerRetry()
		}
	}
	return lastErr
}

// failTurn wraps a planner failure into the terminal OrchestrationError.
func (g *Graph) failTurn(st *core.State, step core.Step, err error) error {
	reason := ReasonPlannerUnavailable
	if errors.Is(err, planner.ErrMalformedResponse) {
		reason = ReasonPlannerMalformed
	}
	return &OrchestrationError{ThreadID: st.ThreadID, Step: step, Reason: reason, Err: err}
}
