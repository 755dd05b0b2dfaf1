package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentloom/agentloom/checkpoint"
	"github.com/agentloom/agentloom/core"
)

// RunStoreContract exercises the checkpoint.Store contract against a backend:
// not-found on missing threads, exact round-trip of saved state, overwrite
// semantics, and isolation between thread ids.
func RunStoreContract(t *testing.T, store checkpoint.Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Load(ctx, "absent")
	require.ErrorIs(t, err, checkpoint.ErrNotFound)

	st := NewStateBuilder("contract-thread").
		User("u1", "analyst").
		Turn("show me EMEA sales").
		Result(core.ToolResult{
			ToolName:  "sales_report_tool",
			Arguments: map[string]any{"region": "EMEA", "year": float64(2024)},
			Result:    map[string]any{"summary": "flat"},
		}).
		Assistant("Sales were flat.").
		Step(core.StepDone).
		Build()
	st.IterationCount = 1

	require.NoError(t, store.Save(ctx, st.ThreadID, st))

	got, err := store.Load(ctx, st.ThreadID)
	require.NoError(t, err)
	assert.Equal(t, st, got)

	// Overwrite replaces the previous checkpoint.
	st.BeginTurn("and APAC?")
	require.NoError(t, store.Save(ctx, st.ThreadID, st))
	got, err = store.Load(ctx, st.ThreadID)
	require.NoError(t, err)
	assert.Equal(t, st, got)
	assert.Empty(t, got.ToolResults)

	// Distinct threads do not observe each other.
	other := NewStateBuilder("contract-other").Turn("hello").Build()
	require.NoError(t, store.Save(ctx, other.ThreadID, other))
	got, err = store.Load(ctx, st.ThreadID)
	require.NoError(t, err)
	assert.Equal(t, "and APAC?", got.Messages[len(got.Messages)-1].Content)

	// Loaded state is an independent copy.
	got.AppendMessage(core.RoleAssistant, "scratch")
	reloaded, err := store.Load(ctx, st.ThreadID)
	require.NoError(t, err)
	assert.Len(t, reloaded.Messages, len(got.Messages)-1)
}
