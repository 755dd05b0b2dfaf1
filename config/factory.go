package config

import (
	"fmt"

	"github.com/agentloom/agentloom/checkpoint"
	checkpointredis "github.com/agentloom/agentloom/checkpoint/redis"
	checkpointsqlite "github.com/agentloom/agentloom/checkpoint/sqlite"
	"github.com/agentloom/agentloom/planner"
	planneranthropic "github.com/agentloom/agentloom/planner/anthropic"
	planneropenai "github.com/agentloom/agentloom/planner/openai"
	"github.com/anthropics/anthropic-sdk-go"
)

// OpenStore constructs the configured checkpoint store. It fails fast: an
// unknown backend or an unreachable sqlite path is a startup error, not a
// first-turn surprise.
func OpenStore(cfg CheckpointConfig) (checkpoint.Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		return checkpoint.NewInMemoryStore(), nil
	case BackendRedis:
		var opts []checkpointredis.Option
		if cfg.Redis.Prefix != "" {
			opts = append(opts, checkpointredis.WithPrefix(cfg.Redis.Prefix))
		}
		if cfg.Redis.TTL > 0 {
			opts = append(opts, checkpointredis.WithTTL(cfg.Redis.TTL))
		}
		return checkpointredis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...), nil
	case BackendSQLite:
		return checkpointsqlite.Open(cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("unknown checkpoint backend %q", cfg.Backend)
	}
}

// NewPlanner constructs the configured model provider adapter. Credentials
// come from the provider SDK's own environment variables.
func NewPlanner(cfg PlannerConfig) (planner.Planner, error) {
	switch cfg.Provider {
	case ProviderOpenAI:
		return planneropenai.New(func(o *planneropenai.Options) {
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			o.Temperature = cfg.Temperature
		}), nil
	case ProviderAnthropic:
		return planneranthropic.New(func(o *planneranthropic.Options) {
			if cfg.Model != "" {
				o.Model = anthropic.Model(cfg.Model)
			}
			o.Temperature = cfg.Temperature
		}), nil
	default:
		return nil, fmt.Errorf("unknown planner provider %q", cfg.Provider)
	}
}
