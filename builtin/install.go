// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package builtin

import (
	"github.com/probechain/probescript/ecc"
	"github.com/probechain/probescript/runtime"
)

// Install populates e's global object with the ES3 builtin surface:
// Object, Function.prototype (there is no `Function` constructor
// binding), Array, String, Number, Boolean, the Error taxonomy, Math,
// and the free parseInt/parseFloat/isNaN/isFinite/eval functions.
//
// Object.prototype and Function.prototype are mutually dependent (every
// builtin method Function chains to Function.prototype; Function.
// prototype's own [[Prototype]] chains to Object.prototype), so
// Function.prototype is allocated bare first, handed to installObject so
// its methods chain correctly, then patched to point at the freshly
// built Object.prototype before installFunction populates it.
func Install(e *ecc.Engine) {
	pool := e.Pool()

	funcProto := pool.NewObject(nil, runtime.TypeObject)
	objectProto := installObject(e, funcProto)
	funcProto.Prototype = objectProto
	installFunction(e, funcProto)

	installArray(e, funcProto)
	installString(e, funcProto)
	installNumber(e, funcProto)
	installBoolean(e, funcProto)
	installErrors(e, funcProto)
	installMath(e, objectProto, funcProto)
	installJSON(e, objectProto, funcProto)
	installStubs(e, funcProto)
	installGlobal(e)
}
