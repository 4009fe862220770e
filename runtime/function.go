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

package runtime

import "github.com/probechain/probescript/text"

// Native is the Go-side ABI for a built-in function: it receives the
// call's Context and returns a Value, throwing by returning a non-nil
// *Throw (see context.go).
type Native func(ctx *Context) (Value, *Throw)

// Function embeds an Object (so a Function value can sit anywhere an
// Object can: on a prototype chain, passed as a property value) plus
// the state the call operator needs: the lexical environment it closes
// over, its compiled body, an optional accessor partner, and parameter
// metadata.
type Function struct {
	*Object

	Environment *Object // lexical scope record this closure captures
	Ops         *OpList // compiled body; nil for natives
	NativeFn    Native  // non-nil for natives; mutually exclusive with Ops

	Pair *Function // the partner getter/setter, if this is half of an accessor pair

	Text           text.Text
	Name           string
	ParameterCount int

	NeedHeap      bool // environment must be heap-copied per call (closures captured)
	NeedArguments bool // call must bind a fresh `arguments` object
	UseBoundThis  bool // Function.prototype.bind: ignore the call-site `this`
	BoundThis     Value
	BoundArgs     []Value
}

// NewFunction allocates a Function object. Callers register it with a
// Pool immediately, matching the source's "factories register on
// creation" contract.
func NewFunction(prototype *Object, name string, paramCount int) *Function {
	obj := NewObject(prototype, TypeFunction)
	fn := &Function{Object: obj, Name: name, ParameterCount: paramCount}
	obj.AsFunction = fn
	return fn
}

// NewNativeFunction wraps a Go function as a callable script Function.
func NewNativeFunction(prototype *Object, name string, paramCount int, nf Native) *Function {
	fn := NewFunction(prototype, name, paramCount)
	fn.NativeFn = nf
	return fn
}

// IsNative reports whether this Function dispatches to Go code rather
// than interpreting an OpList.
func (f *Function) IsNative() bool { return f.NativeFn != nil }
