package runner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/agentloom/agentloom/checkpoint"
	"github.com/agentloom/agentloom/core"
	"github.com/agentloom/agentloom/graph"
	"github.com/agentloom/agentloom/logging"
	"github.com/agentloom/agentloom/metrics"
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// Store persists thread state between steps and across process restarts.
	Store checkpoint.Store
	// EventBufferSize sets channel buffering for streamed step events.
	EventBufferSize int
	// Logging services.
	Logger logging.Logger
	// Metrics receives turn instrumentation; nil disables it.
	Metrics *metrics.Metrics
}

// Runner coordinates conversation turns: loads the thread checkpoint, drives
// the graph through a turn, checkpoints after every step transition, and
// optionally streams the transitions. Public methods are safe for concurrent
// use; turns on the same thread are serialized, distinct threads run fully in
// parallel.
type Runner struct {
	graph *graph.Graph
	store checkpoint.Store

	eventBufferSize int
	logger          logging.Logger
	metrics         *metrics.Metrics

	mu      sync.Mutex
	threads map[string]*sync.Mutex
}

// New constructs a Runner with optional overrides. The default checkpoint
// store is in-memory.
func New(g *graph.Graph, optFns ...func(o *Options)) *Runner {
	opts := Options{
		Store:           checkpoint.NewInMemoryStore(),
		EventBufferSize: 16,
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		graph:           g,
		store:           opts.Store,
		eventBufferSize: opts.EventBufferSize,
		logger:          opts.Logger,
		metrics:         opts.Metrics,
		threads:         make(map[string]*sync.Mutex),
	}
}

// Invoke runs one full turn for the thread and returns the resulting state.
// A thread is created on first contact. State is checkpointed after every
// step transition, so a crash or cancellation mid-turn resumes from the last
// completed step. On a turn failure the returned state is still valid and
// reflects what was persisted.
func (r *Runner) Invoke(ctx context.Context, threadID, userMessage string, userCtx core.UserContext) (*core.State, error) {
	if threadID == "" {
		return nil, errors.New("thread id must not be empty")
	}
	return r.runTurn(ctx, threadID, userMessage, userCtx, nil)
}

// Stream runs one full turn for the thread and delivers an ordered event per
// completed step transition, ending with the terminal step or an error on the
// error channel. Both channels are closed when the turn finishes. A slow or
// disconnected consumer does not corrupt the thread: checkpointing happens
// before delivery.
func (r *Runner) Stream(ctx context.Context, threadID, userMessage string, userCtx core.UserContext) (<-chan core.StepEvent, <-chan error, error) {
	if threadID == "" {
		return nil, nil, errors.New("thread id must not be empty")
	}

	eventsCh := make(chan core.StepEvent, r.eventBufferSize)
	errorsCh := make(chan error, 1)

	go func() {
		defer func() { close(eventsCh); close(errorsCh) }()

		_, err := r.runTurn(ctx, threadID, userMessage, userCtx, func(ev core.StepEvent) {
			select {
			case <-ctx.Done():
			case eventsCh <- ev:
			}
		})
		if err != nil {
			errorsCh <- err
		}
	}()

	return eventsCh, errorsCh, nil
}

// State loads the current checkpoint for a thread without running a turn.
func (r *Runner) State(ctx context.Context, threadID string) (*core.State, error) {
	st, err := r.store.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}
	return st, nil
}

func (r *Runner) runTurn(ctx context.Context, threadID, userMessage string, userCtx core.UserContext, emit func(core.StepEvent)) (*core.State, error) {
	lock := r.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	st, err := r.loadOrCreate(ctx, threadID, userCtx)
	if err != nil {
		return nil, err
	}

	st.BeginTurn(userMessage)
	st.UserContext = userCtx
	if err := r.store.Save(ctx, threadID, st); err != nil {
		return nil, fmt.Errorf("failed to checkpoint turn start: %w", err)
	}

	r.metrics.TurnStarted()
	start := time.Now()
	steps := 0

	runErr := r.graph.Run(ctx, st, func(executed core.Step, diff core.StateDiff) error {
		steps++
		if err := r.store.Save(ctx, threadID, st); err != nil {
			return fmt.Errorf("failed to checkpoint after %s: %w", executed, err)
		}
		if emit != nil {
			emit(core.StepEvent{ThreadID: threadID, Step: executed, Diff: diff})
		}
		return nil
	})

	r.metrics.TurnFinished(time.Since(start), runErr)
	if runErr != nil {
		r.logger.Warn("turn failed", "thread_id", threadID, "steps", steps, "duration_ms", time.Since(start).Milliseconds(), "error", runErr.Error())
		return st, runErr
	}
	r.logger.Info("turn completed", "thread_id", threadID, "steps", steps, "duration_ms", time.Since(start).Milliseconds())

	return st, nil
}

func (r *Runner) loadOrCreate(ctx context.Context, threadID string, userCtx core.UserContext) (*core.State, error) {
	st, err := r.store.Load(ctx, threadID)
	switch {
	case errors.Is(err, checkpoint.ErrNotFound):
		r.logger.Debug("creating thread", "thread_id", threadID, "user_id", userCtx.UserID)
		return core.NewState(threadID, userCtx), nil
	case err != nil:
		return nil, fmt.Errorf("failed to load checkpoint: %w", err)
	}

	if err := st.Validate(); err != nil {
		return nil, err
	}
	return st, nil
}

func (r *Runner) threadLock(threadID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	lock, ok := r.threads[threadID]
	if !ok {
		lock = &sync.Mutex{}
		r.threads[threadID] = lock
	}
	return lock
}
