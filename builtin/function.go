// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package builtin

import "github.com/probechain/probescript/runtime"

// installFunction builds Function.prototype, matching ES3 §15.3.4. The
// Function object itself (the constructor, `new Function("a","b","return a+b")`)
// is left unimplemented: building one means re-deriving parser.go's
// parameter-list/body-preamble assembly from loose strings rather than
// a single parsed program, which duplicates parser machinery the two
// eval entry points already cover for every other "compile text at
// runtime" case (ecc.EvalInputWithContext). No `Function` global is
// installed, so a script reference to it is an undefined identifier.
func installFunction(e engineLike, proto *runtime.Object) {
	pool := e.Pool()
	runtime.RegisterFunctionPrototype(proto)
	functionPrototype = proto

	method(pool, proto, proto, "toString", 0, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		fn := asFunction(ctx.This)
		if fn == nil {
			return runtime.Value{}, runtime.NewThrow(ctx.NewError("TypeError", "not a function"))
		}
		if fn.IsNative() {
			return newString("function " + fn.Name + "() { [native code] }"), nil
		}
		return newString("function " + fn.Name + "() { [script code] }"), nil
	})
	method(pool, proto, proto, "call", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		fn := asFunction(ctx.This)
		if fn == nil {
			return runtime.Value{}, runtime.NewThrow(ctx.NewError("TypeError", "not a function"))
		}
		this := ctx.Argument(0)
		var args []runtime.Value
		for i := 1; i < ctx.ArgumentCount(); i++ {
			args = append(args, ctx.Argument(i))
		}
		return ctx.Call(fn, this, args)
	})
	method(pool, proto, proto, "apply", 2, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		fn := asFunction(ctx.This)
		if fn == nil {
			return runtime.Value{}, runtime.NewThrow(ctx.NewError("TypeError", "not a function"))
		}
		this := ctx.Argument(0)
		args := arrayElements(ctx, ctx.Argument(1))
		return ctx.Call(fn, this, args)
	})
	method(pool, proto, proto, "bind", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		fn := asFunction(ctx.This)
		if fn == nil {
			return runtime.Value{}, runtime.NewThrow(ctx.NewError("TypeError", "not a function"))
		}
		boundThis := ctx.Argument(0)
		var boundArgs []runtime.Value
		for i := 1; i < ctx.ArgumentCount(); i++ {
			boundArgs = append(boundArgs, ctx.Argument(i))
		}
		bound := ctx.Pool.NewNativeFunction(proto, "bound "+fn.Name, fn.ParameterCount, func(inner *runtime.Context) (runtime.Value, *runtime.Throw) {
			args := append(append([]runtime.Value{}, boundArgs...), collectArgs(inner)...)
			return inner.Call(fn, boundThis, args)
		})
		return runtime.ObjectValue(runtime.KindFunction, bound.Object), nil
	})
}

var functionPrototype *runtime.Object
