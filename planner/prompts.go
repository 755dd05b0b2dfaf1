package planner

import (
	"fmt"
	"strings"

	"github.com/agentloom/agentloom/core"
)

// PlanSystemPrompt is the tool-selection instruction. The catalog placeholder
// is filled with Registry.Catalog output, which is deterministic so that the
// full prompt is reproducible across runs.
const PlanSystemPrompt = `You are a tool-selection planner for an enterprise assistant.

You must decide whether to call a tool based on the user's latest message.

Available tools:
%s

Respond with a single JSON object, and nothing else. The JSON must have:
- "tool": string name of the tool to call, or "none" if no tool is appropriate.
- "reason": short string explaining your choice.
- "arguments": JSON object with arguments for the tool (or empty object).

Example response:
{"tool": "my_tool", "reason": "User asked for a sales report", "arguments": {"region": "EMEA", "year": 2024}}`

// AnswerSystemPrompt is the final-answer instruction used by synthesize.
const AnswerSystemPrompt = `You are an enterprise assistant.

You are given:
- The user's latest message.
- Optional results from one or more tools that have already been executed.

If tool results are provided, you must:
- Use them as the primary source of truth.
- Explain answers clearly and concisely.
- If results are tabular/structured, summarize the key insights.

If no tool results are provided, answer directly from your own knowledge.`

// BuildPlanPrompt renders the plan system prompt for a tool catalog.
func BuildPlanPrompt(toolCatalog string) string {
	return fmt.Sprintf(PlanSystemPrompt, toolCatalog)
}

// BuildAnswerPrompt renders the answer system prompt including the tool
// results summary block.
func BuildAnswerPrompt(toolResults []core.ToolResult) string {
	var b strings.Builder
	b.WriteString(AnswerSystemPrompt)
	b.WriteString("\n\nTool results:\n")
	b.WriteString(SummarizeResults(toolResults))
	return b.String()
}
