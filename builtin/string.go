// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package builtin

import (
	"math"
	"strings"

	"github.com/probechain/probescript/runtime"
)

var stringPrototype *runtime.Object

// thisStringContent reads the underlying character data `this` carries,
// whether it is a bare string literal or a boxed `new String(...)`
// instance (whose raw content lives under the predefined "value" key,
// matching Number/Boolean's own boxing convention below).
func thisStringContent(ctx *runtime.Context) (string, *runtime.Throw) {
	this := ctx.This
	if this.Kind == runtime.KindText || this.Kind == runtime.KindChars {
		return this.DisplayString(), nil
	}
	if this.IsObjectKind() && this.Object() != nil {
		if v, ok := this.Object().Member(ctx.Pool.Keys.Predefined.Value, true); ok {
			return v.DisplayString(), nil
		}
	}
	return "", runtime.NewThrow(ctx.NewError("TypeError", "not a string"))
}

// installString builds String.prototype and the String constructor,
// matching ES3 §15.5. String(v) coerces to a primitive string;
// new String(v) boxes it as a KindString object carrying the primitive
// under the predefined "value" key (mirrors how Arguments uses
// predefined keys for its own internal bookkeeping, see context.go's
// bindArguments).
func installString(e engineLike, funcProto *runtime.Object) *runtime.Object {
	pool := e.Pool()
	proto := pool.NewObject(nil, runtime.TypeObject)
	stringPrototype = proto
	runtime.RegisterStringPrototype(proto)
	proto.AddMember(pool.Keys.Predefined.Value, newString(""), runtime.FlagHidden)

	method(pool, proto, funcProto, "toString", 0, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		s, t := thisStringContent(ctx)
		if t != nil {
			return runtime.Value{}, t
		}
		return newString(s), nil
	})
	method(pool, proto, funcProto, "valueOf", 0, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		s, t := thisStringContent(ctx)
		if t != nil {
			return runtime.Value{}, t
		}
		return newString(s), nil
	})
	method(pool, proto, funcProto, "charAt", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		s, t := thisStringContent(ctx)
		if t != nil {
			return runtime.Value{}, t
		}
		runes := []rune(s)
		i := int(ctx.Argument(0).ToNumber())
		if i < 0 || i >= len(runes) {
			return newString(""), nil
		}
		return newString(string(runes[i])), nil
	})
	method(pool, proto, funcProto, "charCodeAt", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		s, t := thisStringContent(ctx)
		if t != nil {
			return runtime.Value{}, t
		}
		runes := []rune(s)
		i := int(ctx.Argument(0).ToNumber())
		if i < 0 || i >= len(runes) {
			return runtime.Binary(math.NaN()), nil
		}
		return runtime.Integer(int32(runes[i])), nil
	})
	method(pool, proto, funcProto, "indexOf", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		s, t := thisStringContent(ctx)
		if t != nil {
			return runtime.Value{}, t
		}
		sub, t := toStringValue(ctx, ctx.Argument(0))
		if t != nil {
			return runtime.Value{}, t
		}
		start := 0
		if ctx.ArgumentCount() > 1 {
			start = int(ctx.Argument(1).ToNumber())
			if start < 0 {
				start = 0
			}
			if start > len(s) {
				start = len(s)
			}
		}
		idx := strings.Index(s[start:], sub)
		if idx < 0 {
			return runtime.Integer(-1), nil
		}
		return runtime.Integer(int32(idx + start)), nil
	})
	method(pool, proto, funcProto, "lastIndexOf", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		s, t := thisStringContent(ctx)
		if t != nil {
			return runtime.Value{}, t
		}
		sub, t := toStringValue(ctx, ctx.Argument(0))
		if t != nil {
			return runtime.Value{}, t
		}
		return runtime.Integer(int32(strings.LastIndex(s, sub))), nil
	})
	method(pool, proto, funcProto, "slice", 2, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		s, t := thisStringContent(ctx)
		if t != nil {
			return runtime.Value{}, t
		}
		runes := []rune(s)
		n := len(runes)
		start := sliceIndex(ctx.Argument(0), n, 0)
		end := sliceIndex(ctx.Argument(1), n, n)
		if end < start {
			end = start
		}
		return newString(string(runes[start:end])), nil
	})
	method(pool, proto, funcProto, "substring", 2, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		s, t := thisStringContent(ctx)
		if t != nil {
			return runtime.Value{}, t
		}
		runes := []rune(s)
		n := len(runes)
		a := clampIndex(ctx.Argument(0), n, 0)
		b := clampIndex(ctx.Argument(1), n, n)
		if a > b {
			a, b = b, a
		}
		return newString(string(runes[a:b])), nil
	})
	method(pool, proto, funcProto, "toUpperCase", 0, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		s, t := thisStringContent(ctx)
		if t != nil {
			return runtime.Value{}, t
		}
		return newString(strings.ToUpper(s)), nil
	})
	method(pool, proto, funcProto, "toLowerCase", 0, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		s, t := thisStringContent(ctx)
		if t != nil {
			return runtime.Value{}, t
		}
		return newString(strings.ToLower(s)), nil
	})
	method(pool, proto, funcProto, "concat", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		s, t := thisStringContent(ctx)
		if t != nil {
			return runtime.Value{}, t
		}
		var b strings.Builder
		b.WriteString(s)
		for i := 0; i < ctx.ArgumentCount(); i++ {
			part, t := toStringValue(ctx, ctx.Argument(i))
			if t != nil {
				return runtime.Value{}, t
			}
			b.WriteString(part)
		}
		return newString(b.String()), nil
	})
	method(pool, proto, funcProto, "trim", 0, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		s, t := thisStringContent(ctx)
		if t != nil {
			return runtime.Value{}, t
		}
		return newString(strings.TrimSpace(s)), nil
	})
	method(pool, proto, funcProto, "split", 2, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		s, t := thisStringContent(ctx)
		if t != nil {
			return runtime.Value{}, t
		}
		if ctx.Argument(0).Kind == runtime.KindUndefined {
			return newArray(ctx.Pool, []runtime.Value{newString(s)}), nil
		}
		sep, t := toStringValue(ctx, ctx.Argument(0))
		if t != nil {
			return runtime.Value{}, t
		}
		var parts []string
		if sep == "" {
			for _, r := range s {
				parts = append(parts, string(r))
			}
		} else {
			parts = strings.Split(s, sep)
		}
		values := make([]runtime.Value, len(parts))
		for i, p := range parts {
			values[i] = newString(p)
		}
		return newArray(ctx.Pool, values), nil
	})
	method(pool, proto, funcProto, "replace", 2, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		s, t := thisStringContent(ctx)
		if t != nil {
			return runtime.Value{}, t
		}
		search, t := toStringValue(ctx, ctx.Argument(0))
		if t != nil {
			return runtime.Value{}, t
		}
		replacement, t := toStringValue(ctx, ctx.Argument(1))
		if t != nil {
			return runtime.Value{}, t
		}
		return newString(strings.Replace(s, search, replacement, 1)), nil
	})

	method(pool, proto, funcProto, "substr", 2, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		s, t := thisStringContent(ctx)
		if t != nil {
			return runtime.Value{}, t
		}
		runes := []rune(s)
		n := len(runes)
		start := sliceIndex(ctx.Argument(0), n, 0)
		length := n - start
		if ctx.ArgumentCount() > 1 {
			length = int(ctx.Argument(1).ToNumber())
			if length < 0 {
				length = 0
			}
		}
		end := start + length
		if end > n {
			end = n
		}
		if start > end {
			start = end
		}
		return newString(string(runes[start:end])), nil
	})
	notImplemented := func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		return runtime.Value{}, runtime.NewThrow(ctx.NewError("TypeError", "RegExp is not implemented"))
	}
	method(pool, proto, funcProto, "match", 1, notImplemented)
	method(pool, proto, funcProto, "search", 1, notImplemented)

	ctor := newConstructor(e, funcProto, proto, "String", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		s := ""
		if ctx.ArgumentCount() > 0 {
			var t *runtime.Throw
			s, t = toStringValue(ctx, ctx.Argument(0))
			if t != nil {
				return runtime.Value{}, t
			}
		}
		if ctx.Construct {
			obj := ctx.Pool.NewObject(proto, runtime.TypeObject)
			obj.AddMember(ctx.Pool.Keys.Predefined.Value, newString(s), runtime.FlagHidden)
			return runtime.ObjectValue(runtime.KindString, obj), nil
		}
		return newString(s), nil
	})

	method(pool, ctor.Object, funcProto, "fromCharCode", 1, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		var b strings.Builder
		for i := 0; i < ctx.ArgumentCount(); i++ {
			b.WriteRune(rune(int(ctx.Argument(i).ToNumber())))
		}
		return newString(b.String()), nil
	})

	return proto
}

// clampIndex resolves a substring()-style argument: unlike sliceIndex, a
// negative or NaN value clamps to 0 rather than counting back from n
// (ES3's ToInteger-then-clamp rule for String.prototype.substring).
func clampIndex(v runtime.Value, n, def int) int {
	if v.Kind == runtime.KindUndefined {
		return def
	}
	f := v.ToNumber()
	if f != f { // NaN
		return 0
	}
	i := int(f)
	if i < 0 {
		i = 0
	}
	if i > n {
		i = n
	}
	return i
}
