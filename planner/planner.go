// Package planner defines the stateless adapter contract around the external
// language model: propose a tool call (or declare none) and synthesize a final
// answer. Adapters are opaque, possibly slow, possibly failing remote calls;
// the graph owns retry and termination policy, not this package.
package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/agentloom/agentloom/core"
)

// ToolNone is the sentinel Decision.Tool value declaring that no tool call is
// appropriate for this cycle.
const ToolNone = "none"

// Failure classification. Adapters wrap the underlying cause with one of
// these sentinels; the graph treats a per-call timeout as ErrUnavailable.
var (
	// ErrUnavailable marks network, auth or provider-side failures.
	ErrUnavailable = errors.New("planner upstream unavailable")
	// ErrMalformedResponse marks responses that do not parse against the
	// expected schema.
	ErrMalformedResponse = errors.New("planner response malformed")
)

// Decision is the planner's verdict for one plan cycle. Tool is either a
// registry name or ToolNone; the caller must validate non-none names against
// the registry before execution, the adapter does not guarantee existence.
type Decision struct {
	Tool      string         `json:"tool"`
	Reason    string         `json:"reason"`
	Arguments map[string]any `json:"arguments"`
}

// CallsTool reports whether the decision requests a tool execution.
func (d Decision) CallsTool() bool { return d.Tool != ToolNone }

// Planner is the stateless planner/answerer contract. Both operations are
// synchronous from the calling step's perspective and must honor ctx; they
// must not block other threads' turns.
type Planner interface {
	// Plan decides whether to invoke a tool given the conversation so far and
	// the deterministic tool catalog text.
	Plan(ctx context.Context, conversation []core.Message, toolCatalog string) (Decision, error)

	// Answer synthesizes the final assistant message from the conversation
	// and the current turn's tool results.
	Answer(ctx context.Context, conversation []core.Message, toolResults []core.ToolResult) (string, error)
}

// Unavailable wraps err as an upstream availability failure.
func Unavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// Malformed wraps a parse problem as a malformed-response failure.
func Malformed(detail string) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, detail)
}

// LatestUserMessage returns the content of the most recent user message, or
// an empty string when the conversation has none.
func LatestUserMessage(conversation []core.Message) string {
	for i := len(conversation) - 1; i >= 0; i-- {
		if conversation[i].Role == core.RoleUser {
			return conversation[i].Content
		}
	}
	return ""
}

// SummarizeResults renders tool results into the plain-text block fed to the
// answer prompt. Failed dispatches are included; errors are data the model
// should explain, not hide.
func SummarizeResults(results []core.ToolResult) string {
	if len(results) == 0 {
		return "(no tool results)"
	}
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteByte('\n')
		}
		if r.Failed() {
			fmt.Fprintf(&b, "[%d] %s(%s) failed: %s", i+1, r.ToolName, compactJSON(r.Arguments), r.Error)
			continue
		}
		fmt.Fprintf(&b, "[%d] %s(%s) -> %s", i+1, r.ToolName, compactJSON(r.Arguments), compactJSON(r.Result))
	}
	return b.String()
}
