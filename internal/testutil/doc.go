// Package testutil provides shared test helpers: a fluent state builder and
// the checkpoint store contract suite every backend must pass.
package testutil
