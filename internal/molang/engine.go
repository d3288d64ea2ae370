package molang

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

var (
	shortQuery    = regexp.MustCompile(`\bq\.`)
	shortVariable = regexp.MustCompile(`\bv\.`)
	shortTemp     = regexp.MustCompile(`\bt\.`)
	shortContext  = regexp.MustCompile(`\bc\.`)
	mathCall      = regexp.MustCompile(`\bmath\.([a-z_]+)`)
)

// Engine evaluates Molang expressions with expr-lang/expr.
// Compiled programs are cached by source and shared between goroutines.
type Engine struct {
	mu       sync.RWMutex
	programs map[string]*vm.Program
	options  []expr.Option
}

// NewEngine creates an engine with the Molang math library registered.
func NewEngine() *Engine {
	e := &Engine{programs: make(map[string]*vm.Program)}
	e.options = append(e.options, expr.Env(newEnv(Context{})))
	for name, fn := range mathFuncs {
		e.options = append(e.options, expr.Function("math_"+name, fn))
	}
	return e
}

// Evaluate compiles (once) and runs expr against ctx.
func (e *Engine) Evaluate(src string, ctx Context) (float64, error) {
	prog, err := e.compile(src)
	if err != nil {
		return 0, err
	}

	out, err := expr.Run(prog, newEnv(ctx))
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrExpression, src, err)
	}
	v, err := toFloat(out)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrExpression, src, err)
	}
	return v, nil
}

// Compile checks an expression without running it.
func (e *Engine) Compile(src string) error {
	_, err := e.compile(src)
	return err
}

func (e *Engine) compile(src string) (*vm.Program, error) {
	e.mu.RLock()
	prog, ok := e.programs[src]
	e.mu.RUnlock()
	if ok {
		return prog, nil
	}

	prog, err := expr.Compile(Normalize(src), e.options...)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrExpression, src, err)
	}

	e.mu.Lock()
	e.programs[src] = prog
	e.mu.Unlock()
	return prog, nil
}

// Normalize rewrites Molang syntax into the expr dialect:
// lowercase, short namespaces expanded, math.f calls renamed to math_f.
func Normalize(src string) string {
	s := strings.ToLower(strings.TrimSpace(src))
	s = strings.TrimSuffix(s, ";")
	s = shortQuery.ReplaceAllString(s, "query.")
	s = shortVariable.ReplaceAllString(s, "variable.")
	s = shortTemp.ReplaceAllString(s, "temp.")
	s = shortContext.ReplaceAllString(s, "context.")
	s = mathCall.ReplaceAllString(s, "math_$1")
	return s
}

func newEnv(ctx Context) map[string]any {
	query := make(map[string]float64, len(ctx.Queries)+2)
	for k, v := range ctx.Queries {
		query[strings.ToLower(k)] = v
	}
	query["anim_time"] = ctx.AnimTime
	query["life_time"] = ctx.LifeTime

	return map[string]any{
		"query":    query,
		"variable": map[string]float64{},
		"temp":     map[string]float64{},
		"context":  map[string]float64{},
		"math_pi":  math.Pi,
	}
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("result %v (%T) is not a number", v, v)
	}
}
