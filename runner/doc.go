// Package runner is the entry point for driving conversation turns.
//
// The Runner owns the durability and concurrency contract around the graph:
// it loads the thread checkpoint, serializes turns per thread while letting
// distinct threads run in parallel, checkpoints after every step transition,
// and exposes both a run-to-completion call (Invoke) and an ordered
// step-event stream (Stream).
package runner
