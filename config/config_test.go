package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentloom/agentloom/checkpoint"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, BackendMemory, cfg.Checkpoint.Backend)
	assert.Equal(t, ProviderOpenAI, cfg.Planner.Provider)
	assert.Equal(t, 2, cfg.Planner.Attempts)
	assert.Equal(t, 3, cfg.Graph.MaxIterations)
	assert.Equal(t, 30*time.Second, cfg.Graph.ToolTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Checkpoint.Backend)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agentloom.yaml")
	body := `
checkpoint:
  backend: sqlite
  sqlite:
    path: /tmp/threads.db
planner:
  provider: anthropic
  model: claude-3-5-sonnet-20241022
  attempts: 3
graph:
  max_iterations: 5
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendSQLite, cfg.Checkpoint.Backend)
	assert.Equal(t, "/tmp/threads.db", cfg.Checkpoint.SQLite.Path)
	assert.Equal(t, ProviderAnthropic, cfg.Planner.Provider)
	assert.Equal(t, 3, cfg.Planner.Attempts)
	assert.Equal(t, 5, cfg.Graph.MaxIterations)
	// Untouched keys keep their defaults.
	assert.Equal(t, 30*time.Second, cfg.Graph.ToolTimeout)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("AGENTLOOM_GRAPH_MAX_ITERATIONS", "7")
	t.Setenv("AGENTLOOM_CHECKPOINT_BACKEND", "memory")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Graph.MaxIterations)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Setenv("AGENTLOOM_CHECKPOINT_BACKEND", "etcd")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown checkpoint backend")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid defaults", func(*Config) {}, ""},
		{"bad backend", func(c *Config) { c.Checkpoint.Backend = "s3" }, "unknown checkpoint backend"},
		{"bad provider", func(c *Config) { c.Planner.Provider = "llamacpp" }, "unknown planner provider"},
		{"zero attempts", func(c *Config) { c.Planner.Attempts = 0 }, "attempts must be at least 1"},
		{"zero iterations", func(c *Config) { c.Graph.MaxIterations = 0 }, "max iterations must be at least 1"},
		{"sqlite without path", func(c *Config) {
			c.Checkpoint.Backend = BackendSQLite
			c.Checkpoint.SQLite.Path = ""
		}, "sqlite backend requires a path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestOpenStoreMemory(t *testing.T) {
	store, err := OpenStore(CheckpointConfig{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &checkpoint.InMemoryStore{}, store)
}

func TestOpenStoreSQLite(t *testing.T) {
	store, err := OpenStore(CheckpointConfig{
		Backend: BackendSQLite,
		SQLite:  SQLiteConfig{Path: filepath.Join(t.TempDir(), "threads.db")},
	})
	require.NoError(t, err)
	require.NotNil(t, store)
}

func TestOpenStoreUnknownBackend(t *testing.T) {
	_, err := OpenStore(CheckpointConfig{Backend: "dynamo"})
	require.Error(t, err)
}

func TestNewPlannerUnknownProvider(t *testing.T) {
	_, err := NewPlanner(PlannerConfig{Provider: "bard"})
	require.Error(t, err)
}
