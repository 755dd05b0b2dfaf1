package tool

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Description pairs a tool name with its planner-facing description.
type Description struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Registry is the process-wide mapping from tool name to capability.
//
// Tools are registered once at startup and never removed, so lookups after
// traffic begins are effectively lock-free reads. Describe returns names in
// lexicographic order: prompts built from the catalog must be byte-identical
// across runs because the planner's decisions are sensitive to prompt content.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register inserts a tool under its name. A second registration of the same
// name fails with *DuplicateError and leaves the registry unchanged.
func (r *Registry) Register(t Tool) error {
	if t.Name() == "" {
		return fmt.Errorf("tool name must not be empty")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.Name()]; exists {
		return &DuplicateError{Name: t.Name()}
	}
	r.tools[t.Name()] = t
	return nil
}

// MustRegister registers the tool and panics on failure. Intended for startup
// wiring where a duplicate name is a programming error.
func (r *Registry) MustRegister(t Tool) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Lookup returns the capability registered under name, or *UnknownError.
func (r *Registry) Lookup(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return nil, &UnknownError{Name: name}
	}
	return t, nil
}

// Has reports whether a tool is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tools[name]
	return ok
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Describe returns (name, description) pairs sorted lexicographically by name.
func (r *Registry) Describe() []Description {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Description, 0, len(r.tools))
	for _, t := range r.tools {
		out = append(out, Description{Name: t.Name(), Description: t.Description()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Catalog renders the deterministic tool listing embedded into planner
// prompts. An empty registry yields a fixed sentinel line.
func (r *Registry) Catalog() string {
	descs := r.Describe()
	if len(descs) == 0 {
		return "(no tools available)"
	}
	var b strings.Builder
	for i, d := range descs {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s: %s", d.Name, d.Description)
	}
	return b.String()
}
