// Package agentloom provides a high-level façade over the orchestration
// graph, tool registry and checkpoint stores for building tool-using agent
// services. Most applications interact with this package by:
//  1. Creating an AgentLoom via New() with a planner adapter (optionally
//     overriding the default in-memory checkpoint store)
//  2. Registering one or more tools
//  3. Running turns synchronously (Invoke) or as a step-event stream (Stream)
//
// The façade delegates turn execution to runner.Runner while keeping setup
// ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a durable checkpoint store
// and a structured logger.
package agentloom

import (
	"context"
	"time"

	"github.com/agentloom/agentloom/checkpoint"
	"github.com/agentloom/agentloom/config"
	"github.com/agentloom/agentloom/core"
	"github.com/agentloom/agentloom/graph"
	"github.com/agentloom/agentloom/logging"
	"github.com/agentloom/agentloom/metrics"
	"github.com/agentloom/agentloom/planner"
	"github.com/agentloom/agentloom/runner"
	"github.com/agentloom/agentloom/tool"
)

// Options configures the AgentLoom instance.
type Options struct {
	// MaxIterations bounds plan/execute cycles per turn.
	MaxIterations int

	// PlannerAttempts is the number of tries per planner call.
	PlannerAttempts int

	// PlannerTimeout applies per planner call.
	PlannerTimeout time.Duration

	// ToolTimeout applies per tool execution.
	ToolTimeout time.Duration

	// EventBufferSize sets the channel buffer size for streamed step events.
	EventBufferSize int

	// Store persists thread state (defaults to in-memory if not provided).
	Store checkpoint.Store

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger

	// Metrics receives engine instrumentation; nil disables it.
	Metrics *metrics.Metrics
}

// AgentLoom is the high-level façade aggregating the graph, registry and
// runner.
type AgentLoom struct {
	registry *tool.Registry
	runner   *runner.Runner
}

// New creates an AgentLoom instance around a planner adapter with optional
// overrides. Any unset service is initialized with an in-memory
// implementation.
func New(p planner.Planner, optFns ...func(o *Options)) *AgentLoom {
	opts := Options{
		MaxIterations:   3,
		PlannerAttempts: 2,
		PlannerTimeout:  60 * time.Second,
		ToolTimeout:     30 * time.Second,
		EventBufferSize: 16,
		Store:           checkpoint.NewInMemoryStore(),
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	registry := tool.NewRegistry()

	g := graph.New(registry, p, func(o *graph.Options) {
		o.MaxIterations = opts.MaxIterations
		o.PlannerAttempts = opts.PlannerAttempts
		o.PlannerTimeout = opts.PlannerTimeout
		o.ToolTimeout = opts.ToolTimeout
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
	})

	r := runner.New(g, func(o *runner.Options) {
		o.Store = opts.Store
		o.EventBufferSize = opts.EventBufferSize
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
	})

	return &AgentLoom{registry: registry, runner: r}
}

// NewFromConfig creates an AgentLoom instance from a loaded configuration,
// constructing the configured planner and checkpoint store.
func NewFromConfig(cfg *config.Config, optFns ...func(o *Options)) (*AgentLoom, error) {
	p, err := config.NewPlanner(cfg.Planner)
	if err != nil {
		return nil, err
	}
	store, err := config.OpenStore(cfg.Checkpoint)
	if err != nil {
		return nil, err
	}

	base := func(o *Options) {
		o.MaxIterations = cfg.Graph.MaxIterations
		o.PlannerAttempts = cfg.Planner.Attempts
		o.PlannerTimeout = cfg.Planner.Timeout
		o.ToolTimeout = cfg.Graph.ToolTimeout
		o.Store = store
	}

	return New(p, append([]func(o *Options){base}, optFns...)...), nil
}

// RegisterTool adds a tool to the registry. Registering a name twice returns
// *tool.DuplicateError.
func (l *AgentLoom) RegisterTool(t tool.Tool) error { return l.registry.Register(t) }

// MustRegisterTool is RegisterTool panicking on error, for startup wiring.
func (l *AgentLoom) MustRegisterTool(t tool.Tool) { l.registry.MustRegister(t) }

// Invoke runs one full conversation turn and returns the resulting state.
func (l *AgentLoom) Invoke(ctx context.Context, threadID, userMessage string, userCtx core.UserContext) (*core.State, error) {
	return l.runner.Invoke(ctx, threadID, userMessage, userCtx)
}

// Stream runs one full conversation turn, delivering an ordered event per
// completed step transition.
func (l *AgentLoom) Stream(ctx context.Context, threadID, userMessage string, userCtx core.UserContext) (<-chan core.StepEvent, <-chan error, error) {
	return l.runner.Stream(ctx, threadID, userMessage, userCtx)
}

// State loads the current checkpoint for a thread without running a turn.
func (l *AgentLoom) State(ctx context.Context, threadID string) (*core.State, error) {
	return l.runner.State(ctx, threadID)
}
