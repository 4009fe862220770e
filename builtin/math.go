// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package builtin

import (
	"math"
	"math/rand"

	"github.com/probechain/probescript/runtime"
)

// installMath builds the Math global object (ES3 §15.8): a plain Object
// instance (not a constructor — `new Math()` is not meaningful) carrying
// the standard constants and a fixed set of single/double-argument
// numeric functions, each delegating straight to the Go math package.
func installMath(e engineLike, objectProto *runtime.Object, funcProto *runtime.Object) {
	pool := e.Pool()
	m := pool.NewObject(objectProto, runtime.TypeObject)

	m.AddMember(pool.Keys.MakeWithText("PI"), runtime.Binary(math.Pi), runtime.FlagHidden|runtime.FlagReadonly)
	m.AddMember(pool.Keys.MakeWithText("E"), runtime.Binary(math.E), runtime.FlagHidden|runtime.FlagReadonly)
	m.AddMember(pool.Keys.MakeWithText("LN2"), runtime.Binary(math.Ln2), runtime.FlagHidden|runtime.FlagReadonly)
	m.AddMember(pool.Keys.MakeWithText("LN10"), runtime.Binary(math.Log(10)), runtime.FlagHidden|runtime.FlagReadonly)
	m.AddMember(pool.Keys.MakeWithText("SQRT2"), runtime.Binary(math.Sqrt2), runtime.FlagHidden|runtime.FlagReadonly)

	unary := map[string]func(float64) float64{
		"abs":   math.Abs,
		"floor": math.Floor,
		"ceil":  math.Ceil,
		"round": math.Round,
		"sqrt":  math.Sqrt,
		"sin":   math.Sin,
		"cos":   math.Cos,
		"tan":   math.Tan,
		"log":   math.Log,
		"exp":   math.Exp,
	}
	for name, fn := range unary {
		fn := fn
		method(pool, m, funcProto, name, 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
			n, t := toNumberValue(ctx, ctx.Argument(0))
			if t != nil {
				return runtime.Value{}, t
			}
			return runtime.Binary(fn(n)), nil
		})
	}

	method(pool, m, funcProto, "pow", 2, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		base, t := toNumberValue(ctx, ctx.Argument(0))
		if t != nil {
			return runtime.Value{}, t
		}
		exp, t := toNumberValue(ctx, ctx.Argument(1))
		if t != nil {
			return runtime.Value{}, t
		}
		return runtime.Binary(math.Pow(base, exp)), nil
	})
	method(pool, m, funcProto, "max", 2, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		result := math.Inf(-1)
		for i := 0; i < ctx.ArgumentCount(); i++ {
			n, t := toNumberValue(ctx, ctx.Argument(i))
			if t != nil {
				return runtime.Value{}, t
			}
			if n != n {
				return runtime.Binary(math.NaN()), nil
			}
			if n > result {
				result = n
			}
		}
		return runtime.Binary(result), nil
	})
	method(pool, m, funcProto, "min", 2, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		result := math.Inf(1)
		for i := 0; i < ctx.ArgumentCount(); i++ {
			n, t := toNumberValue(ctx, ctx.Argument(i))
			if t != nil {
				return runtime.Value{}, t
			}
			if n != n {
				return runtime.Binary(math.NaN()), nil
			}
			if n < result {
				result = n
			}
		}
		return runtime.Binary(result), nil
	})
	method(pool, m, funcProto, "random", 0, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		return runtime.Binary(rand.Float64()), nil
	})

	e.AddValue("Math", runtime.ObjectValue(runtime.KindObject, m), runtime.FlagHidden)
}
