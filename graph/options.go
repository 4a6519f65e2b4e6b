package graph

import (
	"time"

	"github.com/mwillis/wfgraph/graph/emit"
)

// Option is a functional option for configuring an Engine.
//
// Example:
//
//	engine := graph.NewEngine(g,
//	    graph.WithMaxSteps(200),
//	    graph.WithDefaultNodeTimeout(10*time.Second),
//	    graph.WithEmitter(emit.NewLogEmitter(os.Stdout, false)),
//	)
type Option func(*engineConfig) error

// engineConfig collects options before they are applied to an Engine.
type engineConfig struct {
	maxSteps           int
	defaultNodeTimeout time.Duration
	runWallClockBudget time.Duration
	emitter            emit.Emitter
	metrics            *Metrics
	guardWarnFunc      func(node string, err error)
}

func newEngineConfig() *engineConfig {
	return &engineConfig{
		maxSteps: 10000,
		emitter:  emit.NewNullEmitter(),
	}
}

// WithMaxSteps bounds the number of node executions in a single run, as a
// backstop against a misconfigured loop that never reaches an exit point.
// Default: 10000.
func WithMaxSteps(n int) Option {
	return func(cfg *engineConfig) error {
		cfg.maxSteps = n
		return nil
	}
}

// WithDefaultNodeTimeout sets the execution timeout applied to every node
// invocation. Zero (the default) means no per-node timeout beyond the
// run's own context.
func WithDefaultNodeTimeout(d time.Duration) Option {
	return func(cfg *engineConfig) error {
		cfg.defaultNodeTimeout = d
		return nil
	}
}

// WithRunWallClockBudget bounds the total wall-clock time of one Run call.
// Zero (the default) means no budget beyond what the caller's context
// already imposes.
func WithRunWallClockBudget(d time.Duration) Option {
	return func(cfg *engineConfig) error {
		cfg.runWallClockBudget = d
		return nil
	}
}

// WithEmitter sets the observability sink for the engine's per-node
// "node_end" and "node_error" events. Default: emit.NullEmitter.
func WithEmitter(e emit.Emitter) Option {
	return func(cfg *engineConfig) error {
		cfg.emitter = e
		return nil
	}
}

// WithMetrics attaches a Metrics instance recording step counts, node
// latency, and guard failures. Retries and parallel cancellations are
// recorded only through RetryNode.Metrics and ParallelNode.Metrics.
// Default: nil (metrics disabled).
func WithMetrics(m *Metrics) Option {
	return func(cfg *engineConfig) error {
		cfg.metrics = m
		return nil
	}
}

// WithGuardWarnFunc installs a callback invoked whenever an edge guard
// panics during evaluation (§4.2: treated as false, logged as a warning,
// fatal only if it was the sole remaining candidate). Default: a no-op.
func WithGuardWarnFunc(fn func(node string, err error)) Option {
	return func(cfg *engineConfig) error {
		cfg.guardWarnFunc = fn
		return nil
	}
}
