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

import (
	"fmt"

	"github.com/probechain/probescript/key"
	"github.com/probechain/probescript/text"
)

// DefaultMaxCallDepth bounds call-frame recursion (spec §5:
// "A maximumCallDepth bound limits recursion and throws on overflow").
const DefaultMaxCallDepth = 512

// Context is one call frame: the op cursor over a Function's OpList,
// the lexical environment, `this`, diagnostics text spans, and the
// parent frame forming the call stack. Unlike the source, which
// long-jumps to a saved jmp-buf on throw, a Context here simply returns
// a *Throw up the Go call stack (spec §9's Result/error-return
// redesign); `try` recovers it locally instead of Ecc doing so via
// pushEnv/jmpEnv.
type Context struct {
	Ops    *OpList
	Cursor int

	Parent      *Context
	Environment *Object
	Pool        *Pool

	This Value

	Text      text.Text // the currently executing op's source span
	TextAlt   text.Text // an auxiliary span (e.g. the callee name in a call)
	TextCall  text.Text // the enclosing call expression's span
	TextIndex int

	Depth               int
	Construct           bool
	ArgumentOffset       int
	StrictMode           bool // accepted for forward host compatibility but never read
	InEnvironmentObject bool

	// RefObject threads the receiver object through to an accessor's
	// getter/setter invocation, mirroring the source's ecc->refObject.
	RefObject *Object

	args []Value
}

// NewGlobalContext creates the root Context that runs top-level
// program ops directly against the global environment.
func NewGlobalContext(pool *Pool, global *Object, ops *OpList) *Context {
	return &Context{Ops: ops, Environment: global, Pool: pool, This: ObjectValue(KindObject, global)}
}

// NewEvalContext builds a frame that runs ops directly in caller's own
// lexical environment rather than a fresh child scope, backing the
// `eval` builtin and Ecc.EvalInputWithContext (spec §4.8's
// evalInputWithContext: "runs in a caller-supplied lexical Context").
// Unlike NewCallContext, no new Object scope is allocated — a `var`
// inside the evaluated text binds directly into caller's own
// environment, matching ES3 direct-eval scoping.
func NewEvalContext(caller *Context, ops *OpList) *Context {
	return &Context{
		Ops:         ops,
		Environment: caller.Environment,
		Pool:        caller.Pool,
		This:        caller.This,
		Depth:       caller.Depth + 1,
		Parent:      caller,
	}
}

// NewCallContext builds a child frame for invoking fn. The environment
// is fn's captured Environment extended with a fresh own scope (always
// heap-allocated here since a map-backed Object has no meaningful
// stack-vs-heap distinction in Go; NeedHeap is retained on Function
// purely as a documented carry-over of the source's distinction).
func (parent *Context) NewCallContext(fn *Function, this Value, args []Value) (*Context, *Throw) {
	if parent.Depth+1 >= parent.Pool.maxCallDepth() {
		return nil, NewThrow(parent.NewError("RangeError", "maximum call stack size exceeded"))
	}
	scope := parent.Pool.NewObject(fn.Environment, TypeObject)
	child := &Context{
		Ops:         fn.Ops,
		Environment: scope,
		Pool:        parent.Pool,
		This:        this,
		Depth:       parent.Depth + 1,
		Parent:      parent,
		args:        args,
	}
	if fn.NeedArguments {
		child.bindArguments(fn, args)
	}
	return child, nil
}

// bindArguments installs the `arguments` array-like object, per spec
// §4.6 ("a fresh arguments Object … with a self-referencing accessor
// for length").
func (ctx *Context) bindArguments(fn *Function, args []Value) {
	argsObj := ctx.Pool.NewObject(nil, TypeArgs)
	for i, a := range args {
		argsObj.AddElement(uint32(i), a, 0)
	}
	argsObj.AddMember(ctx.Pool.Keys.Predefined.Length, Integer(int32(len(args))), 0)
	argsObj.AddMember(ctx.Pool.Keys.Predefined.Callee, ObjectValue(KindFunction, fn.Object), FlagHidden)
	ctx.Environment.AddMember(ctx.Pool.Keys.Predefined.Arguments, ObjectValue(KindObject, argsObj), FlagHidden)
}

// Argument returns the i'th call argument, or Undefined past the end.
func (ctx *Context) Argument(i int) Value {
	if i < 0 || i >= len(ctx.args) {
		return Undefined()
	}
	return ctx.args[i]
}

// ArgumentCount returns the number of call arguments supplied.
func (ctx *Context) ArgumentCount() int { return len(ctx.args) }

// AssertParameterCount throws a TypeError if fewer than n arguments
// were supplied.
func (ctx *Context) AssertParameterCount(n int) *Throw {
	if len(ctx.args) < n {
		return NewThrow(ctx.NewError("TypeError", fmt.Sprintf("expected %d arguments, got %d", n, len(ctx.args))))
	}
	return nil
}

// NewError builds an Error-kind object of the given taxonomy name (see
// spec §7) with the given message, parented to the matching error
// prototype if the engine has installed one, else to nil.
func (ctx *Context) NewError(kind, message string) Value {
	proto := ctx.errorPrototype(kind)
	o := ctx.Pool.NewObject(proto, TypeError)
	o.AddMember(ctx.Pool.Keys.Predefined.Name, TextValue(text.FromString(kind)), FlagHidden)
	o.AddMember(ctx.Pool.Keys.Predefined.Message, TextValue(text.FromString(message)), FlagHidden)
	return ObjectValue(KindError, o)
}

// errorPrototypes is populated by the builtin package at Install time
// (Context itself carries no knowledge of the builtin registry).
var errorPrototypes = map[string]*Object{}

// RegisterErrorPrototype lets the builtin package publish the
// prototype object for a given error taxonomy name.
func RegisterErrorPrototype(kind string, proto *Object) { errorPrototypes[kind] = proto }

func (ctx *Context) errorPrototype(kind string) *Object { return errorPrototypes[kind] }

// lookupEnvironment walks the environment chain (an Object's Prototype
// link doubles as its lexical parent pointer when the Object is an
// environment record, rather than a property prototype) looking for an
// own member named k. Returns the owning Object or nil.
func lookupEnvironment(env *Object, k key.Key) *Object {
	for cur := env; cur != nil; cur = cur.Prototype {
		if s, ok := cur.hashmap[k]; ok && s.live() {
			return cur
		}
	}
	return nil
}

// GetLocal reads a binding by key, searching the environment chain.
// Returns a ReferenceError-shaped *Throw if unresolved, matching spec
// §4.6 ("Unresolved names throw ReferenceError").
func (ctx *Context) GetLocal(k key.Key) (Value, *Throw) {
	owner := lookupEnvironment(ctx.Environment, k)
	if owner == nil {
		return Value{}, NewThrow(ctx.NewError("ReferenceError", ctx.Pool.Keys.Text(k)+" is not defined"))
	}
	v, _ := owner.Member(k, true)
	return ctx.resolveAccessor(v, ObjectValue(KindObject, owner))
}

// SetLocal writes a binding by key. If no enclosing scope owns it, the
// binding is created on the global object (non-strict implicit global;
// Context.StrictMode does not change this, since strict-mode assignment
// errors are not implemented).
func (ctx *Context) SetLocal(k key.Key, v Value) *Throw {
	owner := lookupEnvironment(ctx.Environment, k)
	if owner == nil {
		owner = ctx.Global()
		owner.AddMember(k, v, 0)
		return nil
	}
	return ctx.putOwn(owner, k, v)
}

// RefLocal returns an lvalue Ref over a binding, creating it on the
// global object on first write if unresolved (matching SetLocal).
func (ctx *Context) RefLocal(k key.Key) *Ref {
	owner := lookupEnvironment(ctx.Environment, k)
	env := ctx.Environment
	global := ctx.Global()
	return &Ref{
		Get: func() Value {
			o := owner
			if o == nil {
				o = lookupEnvironment(env, k)
			}
			if o == nil {
				return Undefined()
			}
			v, _ := o.Member(k, true)
			return v
		},
		Set: func(v Value) *Throw {
			o := owner
			if o == nil {
				o = lookupEnvironment(env, k)
			}
			if o == nil {
				o = global
				o.AddMember(k, v, 0)
				owner = o
				return nil
			}
			return ctx.putOwn(o, k, v)
		},
	}
}

// Global walks to the outermost environment (the global object).
func (ctx *Context) Global() *Object {
	env := ctx.Environment
	for env.Prototype != nil {
		env = env.Prototype
	}
	return env
}

// putOwn writes k on an object known to already own the slot,
// enforcing the readonly contract (spec §4.3's putValue row).
func (ctx *Context) putOwn(o *Object, k key.Key, v Value) *Throw {
	prev, _ := o.hashmap[k]
	if prev.value.Flags&FlagReadonly != 0 {
		return NewThrow(ctx.NewError("TypeError", ctx.Pool.Keys.Text(k)+" is read-only"))
	}
	if prev.value.Flags&Accessor != 0 {
		return ctx.invokeSetter(prev.value, ObjectValue(KindObject, o), v)
	}
	flags := prev.value.Flags &^ FlagCheck
	o.hashmap[k] = slot{value: Value{Kind: v.Kind, Flags: flags | FlagCheck,
		integer: v.integer, binary: v.binary, key: v.key, text: v.text, chars: v.chars, object: v.object}}
	return nil
}

// resolveAccessor invokes a getter if v is an accessor slot, else
// returns v unchanged (spec §4.3's getValue row).
func (ctx *Context) resolveAccessor(v Value, receiver Value) (Value, *Throw) {
	if v.Flags&FlagGetter == 0 {
		return v, nil
	}
	fnObj := v.Object()
	if fnObj == nil || fnObj.AsFunction == nil {
		return Undefined(), nil
	}
	return ctx.Call(fnObj.AsFunction, receiver, nil)
}

func (ctx *Context) invokeSetter(v Value, receiver Value, arg Value) *Throw {
	if v.Flags&FlagSetter == 0 {
		return nil // a getter-only accessor silently discards writes, per ES3
	}
	fnObj := v.Object()
	if fnObj == nil || fnObj.AsFunction == nil {
		return nil
	}
	_, t := ctx.Call(fnObj.AsFunction, receiver, []Value{arg})
	return t
}

// Call invokes fn (native or scripted) with the given receiver and
// arguments, returning its result or an outward-propagating *Throw.
func (ctx *Context) Call(fn *Function, this Value, args []Value) (Value, *Throw) {
	if fn.UseBoundThis {
		this = fn.BoundThis
		args = append(append([]Value{}, fn.BoundArgs...), args...)
	}
	if fn.IsNative() {
		child := &Context{Ops: nil, Environment: ctx.Environment, Pool: ctx.Pool, This: this, Depth: ctx.Depth + 1, Parent: ctx, args: args}
		if ctx.Depth+1 >= ctx.Pool.maxCallDepth() {
			return Value{}, NewThrow(ctx.NewError("RangeError", "maximum call stack size exceeded"))
		}
		return fn.NativeFn(child)
	}
	child, t := ctx.NewCallContext(fn, this, args)
	if t != nil {
		return Value{}, t
	}
	ctx.Pool.PushContext(child)
	defer ctx.Pool.PopContext()
	cf, t := child.Run()
	if t != nil {
		return Value{}, t
	}
	if cf.Kind == FlowReturn {
		return cf.Value, nil
	}
	return Undefined(), nil
}

// Construct implements the `new` operator: allocate a fresh object
// whose prototype is callee.prototype, run the body with that object
// as `this`, and return it unless the body itself returned an object
// (spec §4.6's Call-family row).
func (ctx *Context) Construct(fn *Function, args []Value) (Value, *Throw) {
	protoVal, _ := fn.Member(ctx.Pool.Keys.Predefined.Prototype, true)
	var proto *Object
	if protoVal.IsObjectKind() {
		proto = protoVal.Object()
	}
	inst := ctx.Pool.NewObject(proto, TypeObject)
	this := ObjectValue(KindObject, inst)
	result, t := ctx.Call(fn, this, args)
	if t != nil {
		return Value{}, t
	}
	if result.IsObjectKind() {
		return result, nil
	}
	return this, nil
}
