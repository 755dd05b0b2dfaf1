package tool

import (
	"context"
	"testing"

	"github.com/agentloom/agentloom/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(t *testing.T, name string) *FunctionTool {
	t.Helper()
	ft, err := NewFunctionTool(name, "echoes its arguments", nil,
		func(_ context.Context, args map[string]any, _ core.UserContext) (map[string]any, error) {
			return args, nil
		})
	require.NoError(t, err)
	return ft
}

func TestRegisterDuplicateFails(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool(t, "echo")))

	err := r.Register(echoTool(t, "echo"))
	require.Error(t, err)
	var dup *DuplicateError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "echo", dup.Name)

	// Registry unchanged after the failed call.
	assert.Equal(t, 1, r.Len())
}

func TestLookupUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Lookup("missing")
	var unknown *UnknownError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "missing", unknown.Name)
}

func TestDescribeIsLexicographic(t *testing.T) {
	r := NewRegistry()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, r.Register(echoTool(t, name)))
	}

	descs := r.Describe()
	require.Len(t, descs, 3)
	assert.Equal(t, "alpha", descs[0].Name)
	assert.Equal(t, "mid", descs[1].Name)
	assert.Equal(t, "zeta", descs[2].Name)

	// Catalog text is deterministic so planner prompts are reproducible.
	want := "- alpha: echoes its arguments\n- mid: echoes its arguments\n- zeta: echoes its arguments"
	assert.Equal(t, want, r.Catalog())
	assert.Equal(t, want, r.Catalog())
}

func TestCatalogEmpty(t *testing.T) {
	assert.Equal(t, "(no tools available)", NewRegistry().Catalog())
}
