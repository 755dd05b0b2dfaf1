package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Checkpoint backends selectable via Config.Checkpoint.Backend.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Planner providers selectable via Config.Planner.Provider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config is the full runtime configuration.
type Config struct {
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
	Planner    PlannerConfig    `mapstructure:"planner"`
	Graph      GraphConfig      `mapstructure:"graph"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// CheckpointConfig selects and parameterizes the state store.
type CheckpointConfig struct {
	Backend string       `mapstructure:"backend"`
	Redis   RedisConfig  `mapstructure:"redis"`
	SQLite  SQLiteConfig `mapstructure:"sqlite"`
}

// RedisConfig holds redis backend settings.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// SQLiteConfig holds sqlite backend settings.
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// PlannerConfig selects the model provider and call behavior.
type PlannerConfig struct {
	Provider    string        `mapstructure:"provider"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Attempts    int           `mapstructure:"attempts"`
}

// GraphConfig holds per-turn execution limits.
type GraphConfig struct {
	MaxIterations int           `mapstructure:"max_iterations"`
	ToolTimeout   time.Duration `mapstructure:"tool_timeout"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultConfig returns the configuration used when no file and no
// environment overrides are present.
func DefaultConfig() *Config {
	return &Config{
		Checkpoint: CheckpointConfig{
			Backend: BackendMemory,
			Redis:   RedisConfig{Addr: "localhost:6379"},
			SQLite:  SQLiteConfig{Path: "agentloom.db"},
		},
		Planner: PlannerConfig{
			Provider:    ProviderOpenAI,
			Temperature: 0.2,
			Timeout:     60 * time.Second,
			Attempts:    2,
		},
		Graph: GraphConfig{
			MaxIterations: 3,
			ToolTimeout:   30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Checkpoint.Backend {
	case BackendMemory, BackendRedis, BackendSQLite:
	default:
		return fmt.Errorf("unknown checkpoint backend %q", c.Checkpoint.Backend)
	}
	switch c.Planner.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown planner provider %q", c.Planner.Provider)
	}
	if c.Planner.Attempts < 1 {
		return fmt.Errorf("planner attempts must be at least 1, got %d", c.Planner.Attempts)
	}
	if c.Graph.MaxIterations < 1 {
		return fmt.Errorf("max iterations must be at least 1, got %d", c.Graph.MaxIterations)
	}
	if c.Checkpoint.Backend == BackendSQLite && c.Checkpoint.SQLite.Path == "" {
		return fmt.Errorf("sqlite backend requires a path")
	}
	return nil
}

// Load reads configuration from an optional file plus AGENTLOOM_* environment
// overrides, layered over DefaultConfig. A missing file is not an error; a
// present but unreadable one is.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("AGENTLOOM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to stat config file: %w", err)
			}
		} else {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key with viper so environment overrides are
// visible to Unmarshal even when no config file is present.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("checkpoint.backend", d.Checkpoint.Backend)
	v.SetDefault("checkpoint.redis.addr", d.Checkpoint.Redis.Addr)
	v.SetDefault("checkpoint.redis.password", d.Checkpoint.Redis.Password)
	v.SetDefault("checkpoint.redis.db", d.Checkpoint.Redis.DB)
	v.SetDefault("checkpoint.redis.prefix", d.Checkpoint.Redis.Prefix)
	v.SetDefault("checkpoint.redis.ttl", d.Checkpoint.Redis.TTL)
	v.SetDefault("checkpoint.sqlite.path", d.Checkpoint.SQLite.Path)
	v.SetDefault("planner.provider", d.Planner.Provider)
	v.SetDefault("planner.model", d.Planner.Model)
	v.SetDefault("planner.temperature", d.Planner.Temperature)
	v.SetDefault("planner.timeout", d.Planner.Timeout)
	v.SetDefault("planner.attempts", d.Planner.Attempts)
	v.SetDefault("graph.max_iterations", d.Graph.MaxIterations)
	v.SetDefault("graph.tool_timeout", d.Graph.ToolTimeout)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}
