// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package builtin

import "github.com/probechain/probescript/runtime"

var booleanPrototype *runtime.Object

// thisBooleanContent reads the underlying bool `this` carries, whether
// it is a bare true/false literal or a boxed `new Boolean(...)` instance.
func thisBooleanContent(ctx *runtime.Context) (bool, *runtime.Throw) {
	this := ctx.This
	if this.Kind == runtime.KindTrue || this.Kind == runtime.KindFalse {
		return this.ToBoolean(), nil
	}
	if this.IsObjectKind() && this.Object() != nil {
		if v, ok := this.Object().Member(ctx.Pool.Keys.Predefined.Value, true); ok {
			return v.ToBoolean(), nil
		}
	}
	return false, runtime.NewThrow(ctx.NewError("TypeError", "not a boolean"))
}

// installBoolean builds Boolean.prototype and the Boolean constructor,
// matching ES3 §15.6.
func installBoolean(e engineLike, funcProto *runtime.Object) *runtime.Object {
	pool := e.Pool()
	proto := pool.NewObject(nil, runtime.TypeObject)
	booleanPrototype = proto
	runtime.RegisterBooleanPrototype(proto)
	proto.AddMember(pool.Keys.Predefined.Value, runtime.Bool(false), runtime.FlagHidden)

	method(pool, proto, funcProto, "toString", 0, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		b, t := thisBooleanContent(ctx)
		if t != nil {
			return runtime.Value{}, t
		}
		if b {
			return newString("true"), nil
		}
		return newString("false"), nil
	})
	method(pool, proto, funcProto, "valueOf", 0, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		b, t := thisBooleanContent(ctx)
		if t != nil {
			return runtime.Value{}, t
		}
		return runtime.Bool(b), nil
	})

	newConstructor(e, funcProto, proto, "Boolean", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		b := ctx.Argument(0).ToBoolean()
		if ctx.Construct {
			obj := ctx.Pool.NewObject(proto, runtime.TypeObject)
			obj.AddMember(ctx.Pool.Keys.Predefined.Value, runtime.Bool(b), runtime.FlagHidden)
			return runtime.ObjectValue(runtime.KindBoolean, obj), nil
		}
		return runtime.Bool(b), nil
	})

	return proto
}
