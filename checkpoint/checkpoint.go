// Package checkpoint persists per-thread agent state so conversations survive
// process restarts and can be resumed mid-turn. Backends (in-memory, Redis,
// SQLite) are interchangeable implementations of the Store contract selected
// by configuration.
package checkpoint

import (
	"context"
	"errors"

	"github.com/agentloom/agentloom/core"
)

// ErrNotFound is returned by Load when no checkpoint exists for a thread.
var ErrNotFound = errors.New("checkpoint not found")

// Store is the pluggable checkpoint contract.
//
// Save must be atomic with respect to a single thread: a subsequent Load for
// the same thread id never observes partial or corrupt state. Concurrent
// saves for the same thread are serialized by the runner's per-thread lock;
// stores only need to keep individual Save calls atomic. Saved state must
// round-trip exactly: Load(Save(x)) == x.
type Store interface {
	// Load returns the persisted state for threadID or ErrNotFound.
	Load(ctx context.Context, threadID string) (*core.State, error)

	// Save persists the state under threadID, replacing any previous
	// checkpoint.
	Save(ctx context.Context, threadID string, state *core.State) error
}
