// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package builtin

import (
	"strconv"

	"github.com/probechain/probescript/runtime"
)

var numberPrototype *runtime.Object

// thisNumberContent reads the underlying float64 `this` carries, whether
// it is a bare number literal or a boxed `new Number(...)` instance.
func thisNumberContent(ctx *runtime.Context) (float64, *runtime.Throw) {
	this := ctx.This
	if this.Kind == runtime.KindInteger || this.Kind == runtime.KindBinary {
		return this.ToNumber(), nil
	}
	if this.IsObjectKind() && this.Object() != nil {
		if v, ok := this.Object().Member(ctx.Pool.Keys.Predefined.Value, true); ok {
			return v.ToNumber(), nil
		}
	}
	return 0, runtime.NewThrow(ctx.NewError("TypeError", "not a number"))
}

// installNumber builds Number.prototype and the Number constructor,
// matching ES3 §15.7.
func installNumber(e engineLike, funcProto *runtime.Object) *runtime.Object {
	pool := e.Pool()
	proto := pool.NewObject(nil, runtime.TypeObject)
	numberPrototype = proto
	runtime.RegisterNumberPrototype(proto)
	proto.AddMember(pool.Keys.Predefined.Value, runtime.Integer(0), runtime.FlagHidden)

	method(pool, proto, funcProto, "toString", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		n, t := thisNumberContent(ctx)
		if t != nil {
			return runtime.Value{}, t
		}
		radix := 10
		if ctx.ArgumentCount() > 0 {
			radix = int(ctx.Argument(0).ToNumber())
		}
		if radix == 10 {
			return newString(runtime.Binary(n).DisplayString()), nil
		}
		return newString(strconv.FormatInt(int64(n), radix)), nil
	})
	method(pool, proto, funcProto, "valueOf", 0, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		n, t := thisNumberContent(ctx)
		if t != nil {
			return runtime.Value{}, t
		}
		return runtime.Binary(n), nil
	})
	method(pool, proto, funcProto, "toFixed", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		n, t := thisNumberContent(ctx)
		if t != nil {
			return runtime.Value{}, t
		}
		digits := 0
		if ctx.ArgumentCount() > 0 {
			digits = int(ctx.Argument(0).ToNumber())
		}
		return newString(strconv.FormatFloat(n, 'f', digits, 64)), nil
	})

	newConstructor(e, funcProto, proto, "Number", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		n := 0.0
		if ctx.ArgumentCount() > 0 {
			var t *runtime.Throw
			n, t = toNumberValue(ctx, ctx.Argument(0))
			if t != nil {
				return runtime.Value{}, t
			}
		}
		if ctx.Construct {
			obj := ctx.Pool.NewObject(proto, runtime.TypeObject)
			obj.AddMember(ctx.Pool.Keys.Predefined.Value, runtime.Binary(n), runtime.FlagHidden)
			return runtime.ObjectValue(runtime.KindNumber, obj), nil
		}
		return runtime.Binary(n), nil
	})

	return proto
}
