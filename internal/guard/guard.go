// Package guard compiles string boolean expressions into graph.Predicate
// values, the string-guard alternative to a hand-written Go closure behind
// builder.AddExprEdge. Programs are compiled once and cached by state type
// and expression text, and an evaluation error means the guard is false, not a run
// failure, so an expression may reference state fields that don't exist
// yet.
package guard

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/mwillis/wfgraph/graph"
)

type compiler struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

var defaultCompiler = &compiler{cache: make(map[string]*vm.Program)}

func (c *compiler) compile(expression string, env any) (*vm.Program, error) {
	cacheKey := fmt.Sprintf("%T\x00%s", env, expression)
	c.mu.RLock()
	program, ok := c.cache[cacheKey]
	c.mu.RUnlock()
	if ok {
		return program, nil
	}

	opts := []expr.Option{expr.AsBool()}
	if env != nil {
		opts = append(opts, expr.Env(env), expr.AllowUndefinedVariables())
	}
	program, err := expr.Compile(expression, opts...)
	if err != nil {
		return nil, fmt.Errorf("guard: compiling %q: %w", expression, err)
	}

	c.mu.Lock()
	c.cache[cacheKey] = program
	c.mu.Unlock()
	return program, nil
}

// CompilePredicate compiles expression, an expr-lang/expr boolean expression
// evaluated with the state value as its environment (so exported fields are
// addressed by name, e.g. "Total > 100 && Approved"), into a
// graph.Predicate[S]. The expression is type-checked against S, so one
// that does not yield a bool is a compile error. Compiled programs are
// cached process-wide by state type and expression text, so repeated calls
// with the same S and string reuse one *vm.Program.
//
// A predicate whose expression references a field state doesn't have, or
// that otherwise fails at evaluation time, returns false rather than
// panicking — matching graph's own "guard panic treated as false" contract
// for Go-closure guards.
func CompilePredicate[S any](expression string) (graph.Predicate[S], error) {
	var zero S
	program, err := defaultCompiler.compile(expression, zero)
	if err != nil {
		return nil, err
	}
	return func(state S) bool {
		result, err := expr.Run(program, state)
		if err != nil {
			return false
		}
		ok, isBool := result.(bool)
		return isBool && ok
	}, nil
}

// MustCompilePredicate is like CompilePredicate but panics on a compile
// error, for use in package-level variable initialization.
func MustCompilePredicate[S any](expression string) graph.Predicate[S] {
	pred, err := CompilePredicate[S](expression)
	if err != nil {
		panic(err)
	}
	return pred
}
