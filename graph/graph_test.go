package graph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentloom/agentloom/core"
	"github.com/agentloom/agentloom/planner"
	"github.com/agentloom/agentloom/tool"
)

func newRegistry(t *testing.T) *tool.Registry {
	t.Helper()
	r := tool.NewRegistry()
	r.MustRegister(tool.MustFunctionTool("sales_report_tool", "Builds a sales report", nil,
		func(_ context.Context, args map[string]any, _ core.UserContext) (map[string]any, error) {
			return map[string]any{"data": []any{}, "summary": "empty report"}, nil
		}))
	r.MustRegister(tool.MustFunctionTool("broken_tool", "Always fails", nil,
		func(context.Context, map[string]any, core.UserContext) (map[string]any, error) {
			return nil, errors.New("backend offline")
		}))
	return r
}

func runTurn(t *testing.T, g *Graph, st *core.State) ([]core.Step, error) {
	t.Helper()
	var steps []core.Step
	err := g.Run(context.Background(), st, func(executed core.Step, _ core.StateDiff) error {
		steps = append(steps, executed)
		return nil
	})
	return steps, err
}

func TestTurnWithoutToolCall(t *testing.T) {
	p := planner.NewScripted("There are two tools available.")
	g := New(newRegistry(t), p)

	st := core.NewState("t1", core.UserContext{UserID: "u1"})
	st.BeginTurn("What tools are available?")

	steps, err := runTurn(t, g, st)
	require.NoError(t, err)

	assert.Equal(t, []core.Step{core.StepPlan, core.StepSynthesizeAnswer}, steps)
	assert.Equal(t, core.StepDone, st.CurrentStep)
	assert.Empty(t, st.ToolResults)
	assert.Equal(t, 1, p.AnswerCalls())

	msg, ok := st.LastAssistant()
	require.True(t, ok)
	assert.Equal(t, "There are two tools available.", msg.Content)
}

func TestTurnWithSingleToolCycle(t *testing.T) {
	p := planner.NewScripted("EMEA sales for 2024 were empty.").
		QueueDecision(planner.Decision{
			Tool:      "sales_report_tool",
			Reason:    "user asked for a sales report",
			Arguments: map[string]any{"region": "EMEA", "year": float64(2024)},
		}).
		QueueDecision(planner.Decision{Tool: planner.ToolNone, Reason: "results are sufficient"})

	g := New(newRegistry(t), p)
	st := core.NewState("t2", core.UserContext{UserID: "u1"})
	st.BeginTurn("EMEA sales report for 2024, please")

	steps, err := runTurn(t, g, st)
	require.NoError(t, err)

	assert.Equal(t, []core.Step{
		core.StepPlan, core.StepExecuteTool, core.StepValidate, core.StepRefine,
		core.StepPlan, core.StepSynthesizeAnswer,
	}, steps)
	assert.Equal(t, core.StepDone, st.CurrentStep)

	require.Len(t, st.ToolResults, 1)
	r := st.ToolResults[0]
	assert.Equal(t, "sales_report_tool", r.ToolName)
	assert.Equal(t, map[string]any{"region": "EMEA", "year": float64(2024)}, r.Arguments)
	assert.False(t, r.Failed())
	assert.Nil(t, st.PendingTool)
}

func TestToolFailureIsDataNotFatal(t *testing.T) {
	p := planner.NewScripted("The backend is offline right now.").
		QueueDecision(planner.Decision{Tool: "broken_tool", Reason: "try it", Arguments: map[string]any{}}).
		QueueDecision(planner.Decision{Tool: planner.ToolNone, Reason: "give up"})

	g := New(newRegistry(t), p)
	st := core.NewState("t3", core.UserContext{UserID: "u1"})
	st.BeginTurn("check inventory")

	_, err := runTurn(t, g, st)
	require.NoError(t, err)

	require.Len(t, st.ToolResults, 1)
	assert.True(t, st.ToolResults[0].Failed())
	assert.Contains(t, st.ToolResults[0].Error, "backend offline")

	_, ok := st.LastAssistant()
	assert.True(t, ok)
}

func TestUnknownToolDegradesGracefully(t *testing.T) {
	p := planner.NewScripted("I could not find that tool.").
		QueueDecision(planner.Decision{Tool: "unregistered_tool", Reason: "hallucinated", Arguments: map[string]any{"x": 1}})

	g := New(newRegistry(t), p)
	st := core.NewState("t4", core.UserContext{UserID: "u1"})
	st.BeginTurn("do the thing")

	steps, err := runTurn(t, g, st)
	require.NoError(t, err)

	// Straight to synthesis, never through execute_tool.
	assert.Equal(t, []core.Step{core.StepPlan, core.StepSynthesizeAnswer}, steps)
	require.Len(t, st.ToolResults, 1)
	assert.Equal(t, "unregistered_tool", st.ToolResults[0].ToolName)
	assert.Contains(t, st.ToolResults[0].Error, "not registered")
	assert.Equal(t, core.StepDone, st.CurrentStep)
}

func TestIterationBoundForcesSynthesis(t *testing.T) {
	// A planner that always proposes another tool call.
	p := planner.NewScripted("best effort answer").
		QueueDecision(planner.Decision{Tool: "sales_report_tool", Reason: "again", Arguments: map[string]any{}})

	g := New(newRegistry(t), p)
	st := core.NewState("t5", core.UserContext{UserID: "u1"})
	st.BeginTurn("loop forever")

	steps, err := runTurn(t, g, st)
	require.NoError(t, err)

	var executions int
	for _, s := range steps {
		if s == core.StepExecuteTool {
			executions++
		}
	}
	assert.Equal(t, 3, executions)
	assert.Equal(t, 3, st.IterationCount)
	assert.Equal(t, core.StepDone, st.CurrentStep)
	assert.Len(t, st.ToolResults, 3)

	// Loop-bound exhaustion is a designed termination path, not an error.
	_, ok := st.LastAssistant()
	assert.True(t, ok)
}

func TestPlannerUnavailableExhaustsRetries(t *testing.T) {
	cause := planner.Unavailable(errors.New("connection refused"))
	p := planner.NewScripted("unused").QueuePlanError(cause).QueuePlanError(cause)

	g := New(newRegistry(t), p)
	st := core.NewState("t6", core.UserContext{UserID: "u1"})
	st.BeginTurn("hello")
	messagesBefore := len(st.Messages)

	_, err := runTurn(t, g, st)
	require.Error(t, err)

	var orchErr *OrchestrationError
	require.ErrorAs(t, err, &orchErr)
	assert.Equal(t, ReasonPlannerUnavailable, orchErr.Reason)
	assert.Equal(t, core.StepPlan, orchErr.Step)
	assert.ErrorIs(t, err, planner.ErrUnavailable)

	// Two attempts, no tool executed, no assistant message appended.
	assert.Equal(t, 2, p.PlanCalls())
	assert.Empty(t, st.ToolResults)
	assert.Len(t, st.Messages, messagesBefore)
	assert.Equal(t, core.StepDone, st.CurrentStep)
}

func TestMalformedResponseClassification(t *testing.T) {
	cause := planner.Malformed("not json")
	p := planner.NewScripted("unused").QueuePlanError(cause)

	g := New(newRegistry(t), p)
	st := core.NewState("t7", core.UserContext{UserID: "u1"})
	st.BeginTurn("hello")

	_, err := runTurn(t, g, st)
	var orchErr *OrchestrationError
	require.ErrorAs(t, err, &orchErr)
	assert.Equal(t, ReasonPlannerMalformed, orchErr.Reason)
}

func TestAnswerFailureEndsTurnWithoutMessage(t *testing.T) {
	p := planner.NewScripted("unused").FailAnswer(planner.Unavailable(errors.New("timeout")))

	g := New(newRegistry(t), p)
	st := core.NewState("t8", core.UserContext{UserID: "u1"})
	st.BeginTurn("hello")

	_, err := runTurn(t, g, st)
	var orchErr *OrchestrationError
	require.ErrorAs(t, err, &orchErr)
	assert.Equal(t, core.StepSynthesizeAnswer, orchErr.Step)

	_, ok := st.LastAssistant()
	assert.False(t, ok)
	assert.Equal(t, core.StepDone, st.CurrentStep)
}

func TestRetrySucceedsOnSecondAttempt(t *testing.T) {
	p := planner.NewScripted("answer").
		QueuePlanError(planner.Unavailable(errors.New("blip"))).
		QueueDecision(planner.Decision{Tool: planner.ToolNone, Reason: "fine now"})

	g := New(newRegistry(t), p)
	st := core.NewState("t9", core.UserContext{UserID: "u1"})
	st.BeginTurn("hello")

	_, err := runTurn(t, g, st)
	require.NoError(t, err)
	assert.Equal(t, 2, p.PlanCalls())
	_, ok := st.LastAssistant()
	assert.True(t, ok)
}

func TestCorruptStepIsFatal(t *testing.T) {
	g := New(newRegistry(t), planner.NewScripted("unused"))
	st := core.NewState("t10", core.UserContext{UserID: "u1"})
	st.BeginTurn("hello")
	st.CurrentStep = core.Step("warp")

	_, err := runTurn(t, g, st)
	var orchErr *OrchestrationError
	require.ErrorAs(t, err, &orchErr)
	assert.Equal(t, ReasonCorruptState, orchErr.Reason)
}

func TestCancellationBetweenSteps(t *testing.T) {
	p := planner.NewScripted("answer").
		QueueDecision(planner.Decision{Tool: "sales_report_tool", Reason: "go", Arguments: map[string]any{}})

	g := New(newRegistry(t), p)
	st := core.NewState("t11", core.UserContext{UserID: "u1"})
	st.BeginTurn("hello")

	ctx, cancel := context.WithCancel(context.Background())
	err := g.Run(ctx, st, func(executed core.Step, _ core.StateDiff) error {
		if executed == core.StepExecuteTool {
			cancel()
		}
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)

	// State rests at the last completed step, resumable later.
	assert.Equal(t, core.StepValidate, st.CurrentStep)
	assert.Len(t, st.ToolResults, 1)
}

func TestDistinctThreadsDoNotInterleaveState(t *testing.T) {
	g := New(newRegistry(t), planner.NewScripted("isolated answer"))

	var wg sync.WaitGroup
	states := make([]*core.State, 8)
	for i := range states {
		states[i] = core.NewState(fmt.Sprintf("thread-%d", i), core.UserContext{UserID: fmt.Sprintf("u%d", i)})
		states[i].BeginTurn(fmt.Sprintf("question %d", i))
	}
	for _, st := range states {
		wg.Add(1)
		go func(st *core.State) {
			defer wg.Done()
			_, err := runTurn(t, g, st)
			assert.NoError(t, err)
		}(st)
	}
	wg.Wait()

	for i, st := range states {
		require.Len(t, st.Messages, 2)
		assert.Equal(t, fmt.Sprintf("question %d", i), st.Messages[0].Content)
		assert.Empty(t, st.ToolResults)
	}
}
