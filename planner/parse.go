package planner

import (
	"encoding/json"
	"sort"
	"strings"
)

// rawDecision mirrors the wire schema. Pointers distinguish absent keys from
// zero values so missing fields can be rejected.
type rawDecision struct {
	Tool      *string        `json:"tool"`
	Reason    *string        `json:"reason"`
	Arguments map[string]any `json:"arguments"`
}

// ParseDecision parses model output into a Decision, enforcing the planner
// response schema: a single JSON object with keys tool (string, "none"
// allowed), reason (string) and arguments (object). Any deviation yields
// ErrMalformedResponse. Models routinely wrap JSON in markdown fences, so a
// leading/trailing fence is stripped before parsing.
func ParseDecision(text string) (Decision, error) {
	cleaned := StripFences(text)
	if cleaned == "" {
		return Decision{}, Malformed("empty response")
	}

	dec := json.NewDecoder(strings.NewReader(cleaned))
	var raw rawDecision
	if err := dec.Decode(&raw); err != nil {
		return Decision{}, Malformed("not a JSON object: " + err.Error())
	}
	// Trailing non-whitespace content means the model emitted more than the
	// single object the contract requires.
	var extra json.RawMessage
	if err := dec.Decode(&extra); err == nil {
		return Decision{}, Malformed("trailing content after JSON object")
	}

	if raw.Tool == nil {
		return Decision{}, Malformed(`missing "tool" key`)
	}
	if raw.Reason == nil {
		return Decision{}, Malformed(`missing "reason" key`)
	}
	tool := strings.TrimSpace(*raw.Tool)
	if tool == "" {
		return Decision{}, Malformed(`"tool" must be a tool name or "none"`)
	}

	args := raw.Arguments
	if args == nil {
		args = map[string]any{}
	}
	return Decision{Tool: tool, Reason: *raw.Reason, Arguments: args}, nil
}

// StripFences removes a surrounding markdown code fence (``` or ```json) if
// present, returning the trimmed inner text.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// Drop the language tag line (e.g. "json").
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// compactJSON renders a map deterministically for prompt text. Map iteration
// order is randomized in Go, so keys are sorted to keep prompts reproducible.
func compactJSON(m map[string]any) string {
	if len(m) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		kb, _ := json.Marshal(k)
		vb, err := json.Marshal(m[k])
		if err != nil {
			vb = []byte(`"<unserializable>"`)
		}
		b.Write(kb)
		b.WriteString(": ")
		b.Write(vb)
	}
	b.WriteByte('}')
	return b.String()
}
