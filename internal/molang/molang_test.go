package molang

import (
	"errors"
	"testing"
)

type countingEvaluator struct {
	calls map[string]int
}

func (c *countingEvaluator) Evaluate(expr string, ctx Context) (float64, error) {
	if c.calls == nil {
		c.calls = make(map[string]int)
	}
	c.calls[expr]++
	if expr == "fail" {
		return 0, ErrExpression
	}
	return ctx.AnimTime, nil
}

func TestFrameCache_Memoizes(t *testing.T) {
	next := &countingEvaluator{}
	ctx := Context{AnimTime: 2}
	cache := NewFrameCache(next, ctx)

	for i := 0; i < 3; i++ {
		v, err := cache.Evaluate("q.anim_time", ctx)
		if err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
		if v != 2 {
			t.Errorf("expected 2, got %v", v)
		}
	}
	if next.calls["q.anim_time"] != 1 {
		t.Errorf("expected 1 underlying call, got %d", next.calls["q.anim_time"])
	}
}

func TestFrameCache_OtherContextBypasses(t *testing.T) {
	next := &countingEvaluator{}
	cache := NewFrameCache(next, Context{AnimTime: 1})

	v, _ := cache.Evaluate("x", Context{AnimTime: 5})
	if v != 5 {
		t.Errorf("expected result for the requested context, got %v", v)
	}
	cache.Evaluate("x", Context{AnimTime: 1})
	cache.Evaluate("x", Context{AnimTime: 1})
	if next.calls["x"] != 2 {
		t.Errorf("expected 2 underlying calls, got %d", next.calls["x"])
	}
}

func TestFrameCache_ErrorsNotCached(t *testing.T) {
	next := &countingEvaluator{}
	cache := NewFrameCache(next, Context{})

	for i := 0; i < 2; i++ {
		if _, err := cache.Evaluate("fail", Context{}); !errors.Is(err, ErrExpression) {
			t.Errorf("expected ErrExpression, got %v", err)
		}
	}
	if next.calls["fail"] != 2 {
		t.Errorf("errors should not be cached, got %d calls", next.calls["fail"])
	}
}

func TestEvaluatorFunc(t *testing.T) {
	var ev Evaluator = EvaluatorFunc(func(expr string, ctx Context) (float64, error) {
		return 42, nil
	})
	if v, _ := ev.Evaluate("anything", Context{}); v != 42 {
		t.Errorf("expected 42, got %v", v)
	}
}
