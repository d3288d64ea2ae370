package molang

import (
	"fmt"
	"math"
)

// mathFuncs are exposed to expressions as math.<name>. Trigonometry works in degrees.
var mathFuncs = map[string]func(params ...any) (any, error){
	"sin":   unary(func(x float64) float64 { return math.Sin(x * math.Pi / 180) }),
	"cos":   unary(func(x float64) float64 { return math.Cos(x * math.Pi / 180) }),
	"asin":  unary(func(x float64) float64 { return math.Asin(x) * 180 / math.Pi }),
	"acos":  unary(func(x float64) float64 { return math.Acos(x) * 180 / math.Pi }),
	"atan":  unary(func(x float64) float64 { return math.Atan(x) * 180 / math.Pi }),
	"abs":   unary(math.Abs),
	"floor": unary(math.Floor),
	"ceil":  unary(math.Ceil),
	"round": unary(math.Round),
	"trunc": unary(math.Trunc),
	"sqrt":  unary(math.Sqrt),
	"exp":   unary(math.Exp),
	"ln":    unary(math.Log),
	"atan2": binary(func(y, x float64) float64 { return math.Atan2(y, x) * 180 / math.Pi }),
	"pow":   binary(math.Pow),
	"mod":   binary(math.Mod),
	"min":   binary(math.Min),
	"max":   binary(math.Max),
	"clamp": ternary(func(x, lo, hi float64) float64 { return math.Max(lo, math.Min(hi, x)) }),
	"lerp":  ternary(func(a, b, t float64) float64 { return a + (b-a)*t }),
	"lerprotate": ternary(func(a, b, t float64) float64 {
		d := math.Mod(b-a+540, 360) - 180
		return a + d*t
	}),
	"hermite_blend": unary(func(t float64) float64 { return 3*t*t - 2*t*t*t }),
}

func unary(fn func(float64) float64) func(params ...any) (any, error) {
	return func(params ...any) (any, error) {
		args, err := floats(params, 1)
		if err != nil {
			return nil, err
		}
		return fn(args[0]), nil
	}
}

func binary(fn func(a, b float64) float64) func(params ...any) (any, error) {
	return func(params ...any) (any, error) {
		args, err := floats(params, 2)
		if err != nil {
			return nil, err
		}
		return fn(args[0], args[1]), nil
	}
}

func ternary(fn func(a, b, c float64) float64) func(params ...any) (any, error) {
	return func(params ...any) (any, error) {
		args, err := floats(params, 3)
		if err != nil {
			return nil, err
		}
		return fn(args[0], args[1], args[2]), nil
	}
}

func floats(params []any, n int) ([]float64, error) {
	if len(params) != n {
		return nil, fmt.Errorf("expected %d arguments, got %d", n, len(params))
	}
	out := make([]float64, n)
	for i, p := range params {
		v, err := toFloat(p)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
