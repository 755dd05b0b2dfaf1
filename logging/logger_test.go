package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	dec := json.NewDecoder(buf)
	for dec.More() {
		var m map[string]any
		require.NoError(t, dec.Decode(&m))
		out = append(out, m)
	}
	return out
}

func TestLoomLoggerAttachesContext(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: slog.LevelDebug, Output: &buf, Component: "graph"}).
		WithThread("thread-1")

	l.Info("step transition", "from", "plan", "to", "execute_tool")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "graph", lines[0]["component"])
	assert.Equal(t, "thread-1", lines[0]["thread_id"])
	assert.Equal(t, "plan", lines[0]["from"])
}

func TestLoomLoggerWithCopiesAreIndependent(t *testing.T) {
	var buf bytes.Buffer
	base := New(&Config{Output: &buf})
	a := base.WithComponent("runner")
	b := base.WithComponent("checkpoint").WithThread("t2")

	a.Info("one")
	b.Info("two")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "runner", lines[0]["component"])
	assert.Nil(t, lines[0]["thread_id"])
	assert.Equal(t, "checkpoint", lines[1]["component"])
	assert.Equal(t, "t2", lines[1]["thread_id"])
}

func TestLoomLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: slog.LevelWarn, Output: &buf})

	l.Debug("dropped")
	l.Info("dropped")
	l.Warn("kept")

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", lines[0]["msg"])
}

func TestDomainHelpers(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Output: &buf, Component: "graph"})

	l.LogStepTransition("plan", "execute_tool", 1)
	l.LogPlannerCall("plan", 2, 120*time.Millisecond, nil)
	l.LogPlannerCall("answer", 1, time.Second, errors.New("timeout"))
	l.LogToolCall("sales_report_tool", 40*time.Millisecond, nil)
	l.LogTurn(6, 2*time.Second, nil)

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 5)
	assert.Equal(t, "step transition", lines[0]["msg"])
	assert.Equal(t, float64(2), lines[1]["attempt"])
	assert.Equal(t, "ERROR", lines[2]["level"])
	assert.Equal(t, "timeout", lines[2]["error"])
	assert.Equal(t, "sales_report_tool", lines[3]["tool"])
	assert.Equal(t, float64(6), lines[4]["steps"])
}

func TestLoggerImplementations(t *testing.T) {
	var _ Logger = (*SlogAdapter)(nil)
	var _ Logger = NoOpLogger{}
	var _ Logger = (*LoomLogger)(nil)

	// NoOp must accept any call shape without effect.
	NoOpLogger{}.Debug("x", "k", "v")
	NoOpLogger{}.Error("y")
}
