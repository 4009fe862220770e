// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package builtin

import (
	"strconv"

	"github.com/probechain/probescript/runtime"
)

// installObject builds Object.prototype and the Object constructor,
// matching ES3 §15.2. objectConstructor(new Object()) / Object(v) both
// return an object: the given value if it is already one, else a fresh
// plain object wrapping nothing (primitive boxing for Object(42) etc. is
// left to the Number/String/Boolean constructors themselves, which are
// the only callers that matter in practice).
func installObject(e engineLike, funcProto *runtime.Object) *runtime.Object {
	pool := e.Pool()
	proto := pool.NewObject(nil, runtime.TypeObject)
	objectPrototype = proto
	runtime.RegisterObjectPrototype(proto)

	method(pool, proto, funcProto, "toString", 0, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		if !ctx.This.IsObjectKind() {
			return newString("[object " + ctx.This.TypeName() + "]"), nil
		}
		return newString("[object " + ctx.This.Object().Type.Name + "]"), nil
	})
	method(pool, proto, funcProto, "valueOf", 0, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		return ctx.This, nil
	})
	method(pool, proto, funcProto, "hasOwnProperty", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		if !ctx.This.IsObjectKind() {
			return runtime.Bool(false), nil
		}
		name, t := toStringValue(ctx, ctx.Argument(0))
		if t != nil {
			return runtime.Value{}, t
		}
		idx, k, isElem := runtime.GetElementOrKey(ctx.Pool, name)
		if isElem {
			_, ok := ctx.This.Object().Element(idx, true)
			return runtime.Bool(ok), nil
		}
		_, ok := ctx.This.Object().Member(k, true)
		return runtime.Bool(ok), nil
	})
	method(pool, proto, funcProto, "isPrototypeOf", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		arg := ctx.Argument(0)
		if !ctx.This.IsObjectKind() || !arg.IsObjectKind() {
			return runtime.Bool(false), nil
		}
		self := ctx.This.Object()
		for cur := arg.Object().Prototype; cur != nil; cur = cur.Prototype {
			if cur == self {
				return runtime.Bool(true), nil
			}
		}
		return runtime.Bool(false), nil
	})
	method(pool, proto, funcProto, "toLocaleString", 0, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		fn := asFunction(methodOf(ctx, ctx.This, ctx.Pool.Keys.Predefined.ToString))
		if fn == nil {
			return newString("[object Object]"), nil
		}
		return ctx.Call(fn, ctx.This, nil)
	})
	method(pool, proto, funcProto, "propertyIsEnumerable", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		if !ctx.This.IsObjectKind() {
			return runtime.Bool(false), nil
		}
		name, t := toStringValue(ctx, ctx.Argument(0))
		if t != nil {
			return runtime.Value{}, t
		}
		_, k, isElem := runtime.GetElementOrKey(ctx.Pool, name)
		if isElem {
			return runtime.Bool(false), nil
		}
		for _, own := range ctx.This.Object().OwnKeys(false) {
			if own == k {
				return runtime.Bool(true), nil
			}
		}
		return runtime.Bool(false), nil
	})

	newConstructor(e, funcProto, proto, "Object", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		arg := ctx.Argument(0)
		if arg.IsObjectKind() {
			return arg, nil
		}
		return runtime.ObjectValue(runtime.KindObject, ctx.Pool.NewObject(proto, runtime.TypeObject)), nil
	})

	installObjectStatics(e, proto)
	return proto
}

// installObjectStatics installs the Object.* static methods, including
// the ES5 additions (keys/preventExtensions/isExtensible/seal/freeze/
// isSealed/isFrozen) since Object already carries a sealed/frozen bit
// internally and exposing it costs nothing extra.
func installObjectStatics(e engineLike, proto *runtime.Object) {
	pool := e.Pool()
	ctorVal, _ := proto.Member(pool.Keys.Predefined.Constructor, true)
	ctor := ctorVal.Object()
	if ctor == nil {
		return
	}
	add := func(name string, paramCount int, fn runtime.Native) {
		f := pool.NewNativeFunction(nil, name, paramCount, fn)
		ctor.AddMember(pool.Keys.MakeWithText(name), runtime.ObjectValue(runtime.KindFunction, f.Object), runtime.FlagHidden)
	}
	add("keys", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		arg := ctx.Argument(0)
		if !arg.IsObjectKind() {
			return runtime.Value{}, runtime.NewThrow(ctx.NewError("TypeError", "Object.keys called on non-object"))
		}
		var out []runtime.Value
		for _, k := range arg.Object().OwnKeys(false) {
			out = append(out, newString(ctx.Pool.Keys.Text(k)))
		}
		return newArray(ctx.Pool, out), nil
	})
	add("seal", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		arg := ctx.Argument(0)
		if arg.IsObjectKind() {
			arg.Object().Seal()
		}
		return arg, nil
	})
	add("freeze", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		arg := ctx.Argument(0)
		if arg.IsObjectKind() {
			arg.Object().Freeze()
		}
		return arg, nil
	})
	add("isSealed", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		arg := ctx.Argument(0)
		return runtime.Bool(arg.IsObjectKind() && arg.Object().IsSealed()), nil
	})
	add("isFrozen", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		arg := ctx.Argument(0)
		return runtime.Bool(arg.IsObjectKind() && arg.Object().IsFrozen()), nil
	})
	add("getPrototypeOf", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		arg := ctx.Argument(0)
		if !arg.IsObjectKind() || arg.Object() == nil || arg.Object().Prototype == nil {
			return runtime.Null(), nil
		}
		return runtime.ObjectValue(runtime.KindObject, arg.Object().Prototype), nil
	})
	add("getOwnPropertyNames", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		arg := ctx.Argument(0)
		if !arg.IsObjectKind() || arg.Object() == nil {
			return runtime.Value{}, runtime.NewThrow(ctx.NewError("TypeError", "Object.getOwnPropertyNames called on non-object"))
		}
		o := arg.Object()
		var out []runtime.Value
		for i := 0; i < o.ElementCount(); i++ {
			out = append(out, newString(strconv.Itoa(i)))
		}
		for _, k := range o.OwnKeys(true) {
			out = append(out, newString(ctx.Pool.Keys.Text(k)))
		}
		return newArray(ctx.Pool, out), nil
	})
	add("create", 2, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		arg := ctx.Argument(0)
		var parent *runtime.Object
		if arg.IsObjectKind() {
			parent = arg.Object()
		} else if !arg.IsNull() {
			return runtime.Value{}, runtime.NewThrow(ctx.NewError("TypeError", "Object prototype may only be an Object or null"))
		}
		return runtime.ObjectValue(runtime.KindObject, ctx.Pool.NewObject(parent, runtime.TypeObject)), nil
	})
	add("preventExtensions", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		arg := ctx.Argument(0)
		if arg.IsObjectKind() {
			arg.Object().Seal()
		}
		return arg, nil
	})
	add("isExtensible", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		arg := ctx.Argument(0)
		return runtime.Bool(arg.IsObjectKind() && !arg.Object().IsSealed()), nil
	})
}

var objectPrototype *runtime.Object
