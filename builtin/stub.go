// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package builtin

import "github.com/probechain/probescript/runtime"

// installStubConstructor builds a constructor whose prototype exists
// (so `instanceof`/`typeof` work per spec §9's Open Question
// resolution) but whose own methods all throw, matching
// original_source's Date/RegExp: both are left exactly as
// "constructible, but every method throws TypeError" — an explicit
// spec Non-goal, not a gap.
func installStubConstructor(e engineLike, funcProto *runtime.Object, name string, methodNames []string) {
	pool := e.Pool()
	proto := pool.NewObject(nil, runtime.TypeObject)

	notImplemented := func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		return runtime.Value{}, runtime.NewThrow(ctx.NewError("TypeError", "not implemented"))
	}
	for _, m := range methodNames {
		method(pool, proto, funcProto, m, 0, notImplemented)
	}

	newConstructor(e, funcProto, proto, name, 0, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		return runtime.ObjectValue(runtime.KindObject, ctx.Pool.NewObject(proto, runtime.TypeObject)), nil
	})
}

// installStubs wires the Date and RegExp stub constructors: both exist
// so `new Date()`/`new RegExp()` and `instanceof` succeed, but every
// method throws, since neither type's behavior is implemented.
func installStubs(e engineLike, funcProto *runtime.Object) {
	installStubConstructor(e, funcProto, "Date", []string{
		"getTime", "getFullYear", "getMonth", "getDate", "getDay",
		"getHours", "getMinutes", "getSeconds", "getMilliseconds",
		"toISOString", "toDateString", "toTimeString", "valueOf", "toString",
	})
	installStubConstructor(e, funcProto, "RegExp", []string{
		"test", "exec", "toString",
	})
}
