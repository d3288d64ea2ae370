// Package molang evaluates Molang-style expressions used by animation channels.
package molang

import (
	"errors"
)

// ErrExpression is returned when an expression fails to compile or evaluate.
var ErrExpression = errors.New("molang expression error")

// Context is the time-varying state an expression can query.
type Context struct {
	AnimTime float64            // Seconds into the current clip
	LifeTime float64            // Seconds since the session started
	Queries  map[string]float64 // Extra query.* values
}

// Evaluator turns an expression string into a number for a given context.
type Evaluator interface {
	Evaluate(expr string, ctx Context) (float64, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(expr string, ctx Context) (float64, error)

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(expr string, ctx Context) (float64, error) {
	return f(expr, ctx)
}

// FrameCache memoizes results for a single context. Build one per frame.
type FrameCache struct {
	next    Evaluator
	ctx     Context
	results map[string]float64
}

// NewFrameCache wraps next for one frame evaluated at ctx.
func NewFrameCache(next Evaluator, ctx Context) *FrameCache {
	return &FrameCache{
		next:    next,
		ctx:     ctx,
		results: make(map[string]float64),
	}
}

// Context returns the context this cache is bound to.
func (c *FrameCache) Context() Context {
	return c.ctx
}

// Evaluate returns the cached result for expr, computing it on first use.
// ctx must match the cache's context; a different context bypasses the cache.
func (c *FrameCache) Evaluate(expr string, ctx Context) (float64, error) {
	if !sameContext(ctx, c.ctx) {
		return c.next.Evaluate(expr, ctx)
	}
	if v, ok := c.results[expr]; ok {
		return v, nil
	}
	v, err := c.next.Evaluate(expr, ctx)
	if err != nil {
		return 0, err
	}
	c.results[expr] = v
	return v, nil
}

func sameContext(a, b Context) bool {
	if a.AnimTime != b.AnimTime || a.LifeTime != b.LifeTime || len(a.Queries) != len(b.Queries) {
		return false
	}
	for k, v := range a.Queries {
		if bv, ok := b.Queries[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
