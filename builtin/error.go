// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package builtin

import "github.com/probechain/probescript/runtime"

// errorTaxonomy lists the six ES3 error kinds (spec §7), matching
// internal/errorx.Kind's own name table exactly: ecc.classifyThrow reads
// a thrown object's "name" back through errorx.KindFromName, so every
// name minted here must round-trip through that table unchanged.
var errorTaxonomy = []string{
	"Error",
	"SyntaxError",
	"ReferenceError",
	"TypeError",
	"RangeError",
	"URIError",
}

// installErrors builds Error.prototype and its five subclass prototypes,
// each chained to Error.prototype so `instanceof Error` holds for every
// taxonomy member, and registers each with runtime.RegisterErrorPrototype
// so ctx.NewError(kind, msg) and thrown user `new TypeError(...)`
// instances share the same prototype.
func installErrors(e engineLike, funcProto *runtime.Object) {
	pool := e.Pool()

	base := pool.NewObject(nil, runtime.TypeObject)
	base.AddMember(pool.Keys.MakeWithText("name"), newString("Error"), runtime.FlagHidden)
	base.AddMember(pool.Keys.MakeWithText("message"), newString(""), runtime.FlagHidden)
	installErrorMethods(pool, base, funcProto)
	runtime.RegisterErrorPrototype("Error", base)
	newConstructor(e, funcProto, base, "Error", 1, errorConstructor(base, "Error"))

	for _, name := range errorTaxonomy[1:] {
		proto := pool.NewObject(base, runtime.TypeObject)
		proto.AddMember(pool.Keys.MakeWithText("name"), newString(name), runtime.FlagHidden)
		proto.AddMember(pool.Keys.MakeWithText("message"), newString(""), runtime.FlagHidden)
		runtime.RegisterErrorPrototype(name, proto)
		newConstructor(e, funcProto, proto, name, 1, errorConstructor(proto, name))
	}
}

func installErrorMethods(pool *runtime.Pool, proto *runtime.Object, funcProto *runtime.Object) {
	method(pool, proto, funcProto, "toString", 0, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		this := ctx.This
		if !this.IsObjectKind() || this.Object() == nil {
			return newString("Error"), nil
		}
		name := "Error"
		if v, ok := this.Object().Member(ctx.Pool.Keys.Predefined.Name, true); ok {
			name, _ = toStringValue(ctx, v)
		}
		message := ""
		if v, ok := this.Object().Member(ctx.Pool.Keys.Predefined.Message, true); ok {
			message, _ = toStringValue(ctx, v)
		}
		if message == "" {
			return newString(name), nil
		}
		return newString(name + ": " + message), nil
	})
}

// errorConstructor builds the shared construction behavior for Error and
// each of its five subclasses: called as a function or with `new`, both
// forms produce a fresh Error-kind object carrying the supplied message,
// parented to proto.
func errorConstructor(proto *runtime.Object, name string) runtime.Native {
	return func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		o := ctx.Pool.NewObject(proto, runtime.TypeError)
		o.AddMember(ctx.Pool.Keys.Predefined.Name, newString(name), runtime.FlagHidden)
		message := ""
		if ctx.ArgumentCount() > 0 {
			var t *runtime.Throw
			message, t = toStringValue(ctx, ctx.Argument(0))
			if t != nil {
				return runtime.Value{}, t
			}
		}
		o.AddMember(ctx.Pool.Keys.Predefined.Message, newString(message), runtime.FlagHidden)
		return runtime.ObjectValue(runtime.KindError, o), nil
	}
}
