// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

// Package builtin installs the ES3 global object surface (Object, Array,
// Function, String, Number, Boolean, the six Error taxonomy constructors,
// Math, and the global parseInt/parseFloat/isNaN/isFinite/eval functions)
// onto an *ecc.Engine. It is the one package allowed to reach into
// runtime's RegisterObjectPrototype/RegisterArrayPrototype/
// RegisterFunctionPrototype/RegisterErrorPrototype hooks (spec §9: the
// runtime core stays agnostic of what, if anything, populates them).
package builtin

import (
	"github.com/probechain/probescript/key"
	"github.com/probechain/probescript/runtime"
	"github.com/probechain/probescript/text"
)

// newString wraps s as an owned Chars value, the same construction
// op.go's string-producing ops use (see stringOf/execAdd).
func newString(s string) runtime.Value {
	return runtime.CharsValue(text.CreateWithText(text.FromString(s)))
}

// method installs a native function as a non-enumerable own property of
// owner, chaining the Function object itself to funcProto (so
// Function.prototype methods resolve on a builtin method the same way
// they would on a script-authored one).
func method(pool *runtime.Pool, owner *runtime.Object, funcProto *runtime.Object, name string, paramCount int, fn runtime.Native) *runtime.Function {
	f := pool.NewNativeFunction(funcProto, name, paramCount, fn)
	owner.AddMember(pool.Keys.MakeWithText(name), runtime.ObjectValue(runtime.KindFunction, f.Object), runtime.FlagHidden)
	return f
}

// newConstructor builds a native constructor Function named name, links
// it to proto via the standard two-way constructor/prototype property
// pair (spec §7's Function/`new` row), and installs it as a global
// binding.
func newConstructor(e engineLike, funcProto *runtime.Object, proto *runtime.Object, name string, paramCount int, fn runtime.Native) *runtime.Function {
	pool := e.Pool()
	ctor := pool.NewNativeFunction(funcProto, name, paramCount, fn)
	ctor.AddMember(pool.Keys.Predefined.Prototype, runtime.ObjectValue(runtime.KindObject, proto), runtime.FlagHidden|runtime.FlagReadonly)
	proto.AddMember(pool.Keys.Predefined.Constructor, runtime.ObjectValue(runtime.KindFunction, ctor.Object), runtime.FlagHidden)
	e.AddValue(name, runtime.ObjectValue(runtime.KindFunction, ctor.Object), runtime.FlagHidden)
	return ctor
}

// engineLike is the slice of *ecc.Engine builtin actually needs; kept
// narrow (rather than importing *ecc.Engine directly into every helper
// signature) so util.go only depends on the three Engine methods
// listed below.
type engineLike interface {
	Pool() *runtime.Pool
	Global() *runtime.Object
	AddValue(name string, v runtime.Value, flags runtime.Flag)
}

// asFunction extracts the callable Function backing v, or nil if v does
// not carry one.
func asFunction(v runtime.Value) *runtime.Function {
	if !v.IsObjectKind() {
		return nil
	}
	o := v.Object()
	if o == nil {
		return nil
	}
	return o.AsFunction
}

// toStringValue implements ES3 ToString for the cases that need a
// Context: a primitive renders via Value.DisplayString; an object first
// tries its own (or inherited) toString method, matching ES3's "hint
// String" ToPrimitive order for every object type except Date, whose
// ToPrimitive special-casing is moot since Date's methods all throw.
func toStringValue(ctx *runtime.Context, v runtime.Value) (string, *runtime.Throw) {
	if !v.IsObjectKind() {
		return v.DisplayString(), nil
	}
	if fn := asFunction(methodOf(ctx, v, ctx.Pool.Keys.Predefined.ToString)); fn != nil {
		result, t := ctx.Call(fn, v, nil)
		if t != nil {
			return "", t
		}
		if !result.IsObjectKind() {
			return result.DisplayString(), nil
		}
	}
	return v.DisplayString(), nil
}

// toNumberValue implements ES3 ToNumber for the cases that need a
// Context: a primitive coerces directly; an object tries valueOf first,
// then toString, matching ES3's "hint Number" ToPrimitive order.
func toNumberValue(ctx *runtime.Context, v runtime.Value) (float64, *runtime.Throw) {
	if !v.IsObjectKind() {
		return v.ToNumber(), nil
	}
	if fn := asFunction(methodOf(ctx, v, ctx.Pool.Keys.Predefined.ValueOf)); fn != nil {
		result, t := ctx.Call(fn, v, nil)
		if t != nil {
			return 0, t
		}
		if !result.IsObjectKind() {
			return result.ToNumber(), nil
		}
	}
	s, t := toStringValue(ctx, v)
	if t != nil {
		return 0, t
	}
	return runtime.TextValue(text.FromString(s)).ToNumber(), nil
}

// methodOf looks up k on v's object (walking the prototype chain),
// returning the zero Value if v isn't an object or the property is
// absent.
func methodOf(ctx *runtime.Context, v runtime.Value, k key.Key) runtime.Value {
	if !v.IsObjectKind() || v.Object() == nil {
		return runtime.Value{}
	}
	result, _ := v.Object().Member(k, false)
	return result
}

// newArray builds an Array instance from values, matching the Length
// bookkeeping execArrayLiteral performs for array literals.
func newArray(pool *runtime.Pool, values []runtime.Value) runtime.Value {
	arr := pool.NewObject(arrayPrototype, runtime.TypeArray)
	for i, v := range values {
		arr.AddElement(uint32(i), v, 0)
	}
	arr.AddMember(pool.Keys.Predefined.Length, runtime.Integer(int32(len(values))), runtime.FlagHidden)
	return runtime.ObjectValue(runtime.KindObject, arr)
}

// arrayLength reads an array-like object's own "length" property as a
// non-negative int, defaulting to 0 if absent or not a number.
func arrayLength(o *runtime.Object, pool *runtime.Pool) int {
	v, ok := o.Member(pool.Keys.Predefined.Length, true)
	if !ok {
		return 0
	}
	n := v.ToNumber()
	if n < 0 {
		return 0
	}
	return int(n)
}

// collectArgs copies every call argument ctx received into a slice, for
// native methods (Function.prototype.bind, apply) that need to forward
// them onward rather than reading them positionally.
func collectArgs(ctx *runtime.Context) []runtime.Value {
	args := make([]runtime.Value, ctx.ArgumentCount())
	for i := range args {
		args[i] = ctx.Argument(i)
	}
	return args
}

// isArray reports whether v is an Array-typed object.
func isArray(v runtime.Value) bool {
	return v.IsObjectKind() && v.Object() != nil && v.Object().Type == runtime.TypeArray
}
