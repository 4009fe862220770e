// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package builtin

import (
	"sort"

	"github.com/probechain/probescript/runtime"
)

var arrayPrototype *runtime.Object

// installArray builds Array.prototype and the Array constructor,
// matching ES3 §15.4. Array(n) with a single numeric argument creates a
// sparse array of that length; any other argument list becomes the
// initial elements, matching the source's arrayWithLength/arrayWith
// split (builtin.c's array constructor dispatch).
func installArray(e engineLike, funcProto *runtime.Object) *runtime.Object {
	pool := e.Pool()
	proto := pool.NewObject(nil, runtime.TypeArray)
	arrayPrototype = proto
	runtime.RegisterArrayPrototype(proto)
	proto.AddMember(pool.Keys.Predefined.Length, runtime.Integer(0), runtime.FlagHidden)

	method(pool, proto, funcProto, "toString", 0, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		return joinArray(ctx, ctx.This, ",")
	})
	method(pool, proto, funcProto, "join", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		sep := ","
		if ctx.ArgumentCount() > 0 {
			s, t := toStringValue(ctx, ctx.Argument(0))
			if t != nil {
				return runtime.Value{}, t
			}
			sep = s
		}
		return joinArray(ctx, ctx.This, sep)
	})
	method(pool, proto, funcProto, "push", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		o := ctx.This.Object()
		n := arrayLength(o, ctx.Pool)
		for i := 0; i < ctx.ArgumentCount(); i++ {
			o.AddElement(uint32(n+i), ctx.Argument(i), 0)
		}
		n += ctx.ArgumentCount()
		o.AddMember(ctx.Pool.Keys.Predefined.Length, runtime.Integer(int32(n)), runtime.FlagHidden)
		return runtime.Integer(int32(n)), nil
	})
	method(pool, proto, funcProto, "pop", 0, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		o := ctx.This.Object()
		n := arrayLength(o, ctx.Pool)
		if n == 0 {
			return runtime.Undefined(), nil
		}
		v, _ := o.Element(uint32(n-1), true)
		o.DeleteElement(uint32(n - 1))
		o.AddMember(ctx.Pool.Keys.Predefined.Length, runtime.Integer(int32(n-1)), runtime.FlagHidden)
		return v, nil
	})
	method(pool, proto, funcProto, "shift", 0, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		o := ctx.This.Object()
		n := arrayLength(o, ctx.Pool)
		if n == 0 {
			return runtime.Undefined(), nil
		}
		first, _ := o.Element(0, true)
		for i := 1; i < n; i++ {
			v, _ := o.Element(uint32(i), true)
			o.AddElement(uint32(i-1), v, 0)
		}
		o.DeleteElement(uint32(n - 1))
		o.AddMember(ctx.Pool.Keys.Predefined.Length, runtime.Integer(int32(n-1)), runtime.FlagHidden)
		return first, nil
	})
	method(pool, proto, funcProto, "unshift", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		o := ctx.This.Object()
		n := arrayLength(o, ctx.Pool)
		argc := ctx.ArgumentCount()
		for i := n - 1; i >= 0; i-- {
			v, _ := o.Element(uint32(i), true)
			o.AddElement(uint32(i+argc), v, 0)
		}
		for i := 0; i < argc; i++ {
			o.AddElement(uint32(i), ctx.Argument(i), 0)
		}
		o.AddMember(ctx.Pool.Keys.Predefined.Length, runtime.Integer(int32(n+argc)), runtime.FlagHidden)
		return runtime.Integer(int32(n + argc)), nil
	})
	method(pool, proto, funcProto, "slice", 2, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		o := ctx.This.Object()
		n := arrayLength(o, ctx.Pool)
		start := sliceIndex(ctx.Argument(0), n, 0)
		end := sliceIndex(ctx.Argument(1), n, n)
		var out []runtime.Value
		for i := start; i < end; i++ {
			v, _ := o.Element(uint32(i), true)
			out = append(out, v)
		}
		return newArray(ctx.Pool, out), nil
	})
	method(pool, proto, funcProto, "splice", 2, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		o := ctx.This.Object()
		n := arrayLength(o, ctx.Pool)
		start := sliceIndex(ctx.Argument(0), n, 0)
		deleteCount := n - start
		if ctx.ArgumentCount() > 1 {
			dc := int(ctx.Argument(1).ToNumber())
			if dc < 0 {
				dc = 0
			}
			if dc > n-start {
				dc = n - start
			}
			deleteCount = dc
		}
		var removed []runtime.Value
		var rest []runtime.Value
		for i := start; i < start+deleteCount; i++ {
			v, _ := o.Element(uint32(i), true)
			removed = append(removed, v)
		}
		for i := start + deleteCount; i < n; i++ {
			v, _ := o.Element(uint32(i), true)
			rest = append(rest, v)
		}
		var inserted []runtime.Value
		for i := 2; i < ctx.ArgumentCount(); i++ {
			inserted = append(inserted, ctx.Argument(i))
		}
		idx := start
		for _, v := range inserted {
			o.AddElement(uint32(idx), v, 0)
			idx++
		}
		for _, v := range rest {
			o.AddElement(uint32(idx), v, 0)
			idx++
		}
		o.ResizeElements(uint32(idx))
		o.AddMember(ctx.Pool.Keys.Predefined.Length, runtime.Integer(int32(idx)), runtime.FlagHidden)
		return newArray(ctx.Pool, removed), nil
	})
	method(pool, proto, funcProto, "concat", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		var out []runtime.Value
		out = append(out, arrayElements(ctx, ctx.This)...)
		for i := 0; i < ctx.ArgumentCount(); i++ {
			arg := ctx.Argument(i)
			if isArray(arg) {
				out = append(out, arrayElements(ctx, arg)...)
			} else {
				out = append(out, arg)
			}
		}
		return newArray(ctx.Pool, out), nil
	})
	method(pool, proto, funcProto, "reverse", 0, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		o := ctx.This.Object()
		n := arrayLength(o, ctx.Pool)
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			vi, _ := o.Element(uint32(i), true)
			vj, _ := o.Element(uint32(j), true)
			o.AddElement(uint32(i), vj, 0)
			o.AddElement(uint32(j), vi, 0)
		}
		return ctx.This, nil
	})
	method(pool, proto, funcProto, "indexOf", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		target := ctx.Argument(0)
		elems := arrayElements(ctx, ctx.This)
		start := 0
		if ctx.ArgumentCount() > 1 {
			start = int(ctx.Argument(1).ToNumber())
			if start < 0 {
				start += len(elems)
			}
		}
		for i := start; i >= 0 && i < len(elems); i++ {
			if runtime.StrictEqual(elems[i], target) {
				return runtime.Integer(int32(i)), nil
			}
		}
		return runtime.Integer(-1), nil
	})
	method(pool, proto, funcProto, "lastIndexOf", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		target := ctx.Argument(0)
		elems := arrayElements(ctx, ctx.This)
		for i := len(elems) - 1; i >= 0; i-- {
			if runtime.StrictEqual(elems[i], target) {
				return runtime.Integer(int32(i)), nil
			}
		}
		return runtime.Integer(-1), nil
	})
	method(pool, proto, funcProto, "forEach", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		fn := asFunction(ctx.Argument(0))
		if fn == nil {
			return runtime.Value{}, runtime.NewThrow(ctx.NewError("TypeError", "forEach callback is not a function"))
		}
		elems := arrayElements(ctx, ctx.This)
		for i, v := range elems {
			if _, t := ctx.Call(fn, runtime.Undefined(), []runtime.Value{v, runtime.Integer(int32(i)), ctx.This}); t != nil {
				return runtime.Value{}, t
			}
		}
		return runtime.Undefined(), nil
	})
	method(pool, proto, funcProto, "map", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		fn := asFunction(ctx.Argument(0))
		if fn == nil {
			return runtime.Value{}, runtime.NewThrow(ctx.NewError("TypeError", "map callback is not a function"))
		}
		elems := arrayElements(ctx, ctx.This)
		out := make([]runtime.Value, len(elems))
		for i, v := range elems {
			r, t := ctx.Call(fn, runtime.Undefined(), []runtime.Value{v, runtime.Integer(int32(i)), ctx.This})
			if t != nil {
				return runtime.Value{}, t
			}
			out[i] = r
		}
		return newArray(ctx.Pool, out), nil
	})
	method(pool, proto, funcProto, "filter", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		fn := asFunction(ctx.Argument(0))
		if fn == nil {
			return runtime.Value{}, runtime.NewThrow(ctx.NewError("TypeError", "filter callback is not a function"))
		}
		elems := arrayElements(ctx, ctx.This)
		var out []runtime.Value
		for i, v := range elems {
			r, t := ctx.Call(fn, runtime.Undefined(), []runtime.Value{v, runtime.Integer(int32(i)), ctx.This})
			if t != nil {
				return runtime.Value{}, t
			}
			if r.ToBoolean() {
				out = append(out, v)
			}
		}
		return newArray(ctx.Pool, out), nil
	})
	method(pool, proto, funcProto, "some", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		fn := asFunction(ctx.Argument(0))
		if fn == nil {
			return runtime.Value{}, runtime.NewThrow(ctx.NewError("TypeError", "some callback is not a function"))
		}
		elems := arrayElements(ctx, ctx.This)
		for i, v := range elems {
			r, t := ctx.Call(fn, runtime.Undefined(), []runtime.Value{v, runtime.Integer(int32(i)), ctx.This})
			if t != nil {
				return runtime.Value{}, t
			}
			if r.ToBoolean() {
				return runtime.Bool(true), nil
			}
		}
		return runtime.Bool(false), nil
	})
	method(pool, proto, funcProto, "every", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		fn := asFunction(ctx.Argument(0))
		if fn == nil {
			return runtime.Value{}, runtime.NewThrow(ctx.NewError("TypeError", "every callback is not a function"))
		}
		elems := arrayElements(ctx, ctx.This)
		for i, v := range elems {
			r, t := ctx.Call(fn, runtime.Undefined(), []runtime.Value{v, runtime.Integer(int32(i)), ctx.This})
			if t != nil {
				return runtime.Value{}, t
			}
			if !r.ToBoolean() {
				return runtime.Bool(false), nil
			}
		}
		return runtime.Bool(true), nil
	})
	method(pool, proto, funcProto, "reduce", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		fn := asFunction(ctx.Argument(0))
		if fn == nil {
			return runtime.Value{}, runtime.NewThrow(ctx.NewError("TypeError", "reduce callback is not a function"))
		}
		elems := arrayElements(ctx, ctx.This)
		i := 0
		var acc runtime.Value
		if ctx.ArgumentCount() > 1 {
			acc = ctx.Argument(1)
		} else {
			if len(elems) == 0 {
				return runtime.Value{}, runtime.NewThrow(ctx.NewError("TypeError", "reduce of empty array with no initial value"))
			}
			acc = elems[0]
			i = 1
		}
		for ; i < len(elems); i++ {
			r, t := ctx.Call(fn, runtime.Undefined(), []runtime.Value{acc, elems[i], runtime.Integer(int32(i)), ctx.This})
			if t != nil {
				return runtime.Value{}, t
			}
			acc = r
		}
		return acc, nil
	})
	method(pool, proto, funcProto, "sort", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		o := ctx.This.Object()
		elems := arrayElements(ctx, ctx.This)
		cmp := asFunction(ctx.Argument(0))
		var sortErr *runtime.Throw
		sort.SliceStable(elems, func(i, j int) bool {
			if sortErr != nil {
				return false
			}
			if cmp != nil {
				r, t := ctx.Call(cmp, runtime.Undefined(), []runtime.Value{elems[i], elems[j]})
				if t != nil {
					sortErr = t
					return false
				}
				return r.ToNumber() < 0
			}
			si, t := toStringValue(ctx, elems[i])
			if t != nil {
				sortErr = t
				return false
			}
			sj, t := toStringValue(ctx, elems[j])
			if t != nil {
				sortErr = t
				return false
			}
			return si < sj
		})
		if sortErr != nil {
			return runtime.Value{}, sortErr
		}
		for i, v := range elems {
			o.AddElement(uint32(i), v, 0)
		}
		return ctx.This, nil
	})

	method(pool, proto, funcProto, "reduceRight", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		fn := asFunction(ctx.Argument(0))
		if fn == nil {
			return runtime.Value{}, runtime.NewThrow(ctx.NewError("TypeError", "reduceRight callback is not a function"))
		}
		elems := arrayElements(ctx, ctx.This)
		i := len(elems) - 1
		var acc runtime.Value
		if ctx.ArgumentCount() > 1 {
			acc = ctx.Argument(1)
		} else {
			if len(elems) == 0 {
				return runtime.Value{}, runtime.NewThrow(ctx.NewError("TypeError", "reduceRight of empty array with no initial value"))
			}
			acc = elems[i]
			i--
		}
		for ; i >= 0; i-- {
			r, t := ctx.Call(fn, runtime.Undefined(), []runtime.Value{acc, elems[i], runtime.Integer(int32(i)), ctx.This})
			if t != nil {
				return runtime.Value{}, t
			}
			acc = r
		}
		return acc, nil
	})

	ctor := newConstructor(e, funcProto, proto, "Array", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		if ctx.ArgumentCount() == 1 && (ctx.Argument(0).Kind == runtime.KindInteger || ctx.Argument(0).Kind == runtime.KindBinary) {
			n := uint32(ctx.Argument(0).ToNumber())
			arr := ctx.Pool.NewObject(proto, runtime.TypeArray)
			arr.ResizeElements(n)
			arr.AddMember(ctx.Pool.Keys.Predefined.Length, runtime.Integer(int32(n)), runtime.FlagHidden)
			return runtime.ObjectValue(runtime.KindObject, arr), nil
		}
		var values []runtime.Value
		for i := 0; i < ctx.ArgumentCount(); i++ {
			values = append(values, ctx.Argument(i))
		}
		return newArray(ctx.Pool, values), nil
	})

	method(pool, ctor.Object, funcProto, "isArray", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		return runtime.Bool(isArray(ctx.Argument(0))), nil
	})

	return proto
}

// arrayElements reads every own element of an array-like value (its own
// "length" property bounds the scan), matching how for-in over an Array
// would observe it.
func arrayElements(ctx *runtime.Context, v runtime.Value) []runtime.Value {
	if !v.IsObjectKind() {
		return nil
	}
	o := v.Object()
	n := arrayLength(o, ctx.Pool)
	out := make([]runtime.Value, n)
	for i := 0; i < n; i++ {
		val, _ := o.Element(uint32(i), true)
		out[i] = val
	}
	return out
}

func joinArray(ctx *runtime.Context, v runtime.Value, sep string) (runtime.Value, *runtime.Throw) {
	elems := arrayElements(ctx, v)
	parts := make([]string, len(elems))
	for i, e := range elems {
		if e.IsNullOrUndefined() {
			continue
		}
		s, t := toStringValue(ctx, e)
		if t != nil {
			return runtime.Value{}, t
		}
		parts[i] = s
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return newString(out), nil
}

// sliceIndex resolves a slice()/splice()-style argument: absent uses
// def, negative counts back from length n, out-of-range clamps to
// [0, n].
func sliceIndex(v runtime.Value, n, def int) int {
	if v.Kind == runtime.KindUndefined {
		return def
	}
	i := int(v.ToNumber())
	if i < 0 {
		i += n
	}
	if i < 0 {
		i = 0
	}
	if i > n {
		i = n
	}
	return i
}
