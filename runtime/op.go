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
	"math"

	"github.com/probechain/probescript/key"
	"github.com/probechain/probescript/text"
)

// OpKind tags the operation a single Op performs. The source encodes a
// program as a flat array of (native handler, value, text) triples
// whose handlers recursively pull their own operands by calling
// nextOp(); per spec §9 this is re-architected as a tagged enum
// dispatched through a switch in exec, which preserves the same
// "ops encode a tree via recursive consumption" property the source
// relies on while removing the function-pointer indirection.
type OpKind uint8

const (
	// Literals.
	OpValue OpKind = iota
	OpText
	OpThis
	OpObjectLiteral
	OpArrayLiteral
	OpFunctionLiteral

	// Scope.
	OpGetLocal
	OpSetLocal
	OpGetLocalRef

	// Property. The Member/Property variants carry their key or element
	// index as the Op's own literal Value (a compile-time-constant
	// name, as for `a.foo` or `a[3]`); the Index variants instead pull
	// the key/index as a further operand subtree via nextValue (for
	// `a[expr]` where expr is not a literal), classifying the resulting
	// Value the same way GetElementOrKey does for a property name.
	OpGetMember
	OpSetMember
	OpDeleteMember
	OpGetMemberRef
	OpGetProperty
	OpSetProperty
	OpDeleteProperty
	OpGetPropertyRef
	OpGetMemberIndex
	OpSetMemberIndex
	OpDeleteMemberIndex
	OpGetMemberIndexRef

	// Arithmetic.
	OpAdd
	OpMinus
	OpMultiply
	OpDivide
	OpModulo
	OpPositive
	OpNegative

	// Bitwise/shift.
	OpBitwiseAnd
	OpBitwiseOr
	OpBitwiseXor
	OpLeftShift
	OpRightShift
	OpUnsignedRightShift
	OpInvert

	// Compare.
	OpLess
	OpLessOrEqual
	OpMore
	OpMoreOrEqual
	OpEqual
	OpNotEqual
	OpIdentical
	OpNotIdentical
	OpInstanceOf
	OpIn

	// Logical.
	OpLogicalAnd
	OpLogicalOr
	OpNot

	// typeof has ES3's one irregular rule: typeof on an unresolved bare
	// identifier yields "undefined" rather than throwing ReferenceError
	// (spec §4.6's getValue row exempts it), so it needs its own
	// identifier-aware op instead of composing GetLocal + a generic
	// type-name op.
	OpTypeOf
	OpTypeOfLocal

	// Value-producing control flow (as opposed to the statement-shaped
	// OpJump family, whose handlers return Normal(Undefined) and rely on
	// the enclosing statement sequence to carry a value forward).
	OpConditional // a ? b : c
	OpSequence    // the comma operator: a, b, c

	// Assignment (operate over a Ref produced by the preceding operand).
	OpAddAssignRef
	OpMinusAssignRef
	OpMultiplyAssignRef
	OpDivideAssignRef
	OpModuloAssignRef
	OpIncrementRef
	OpDecrementRef
	OpPostIncrementRef
	OpPostDecrementRef
	OpAssignRef

	// Call.
	OpCall
	OpCallMember
	OpCallProperty
	OpConstruct

	// Statement / control flow.
	// OpBlock collapses a brace-delimited `{ ... }` statement list into a
	// single executable subtree (Value.Integer() = the region's op
	// count): loop bodies and if/else arms are each exactly one
	// statement slot consumed by a single nextStatement() call, so a
	// multi-statement block needs this wrapper the same way a function
	// body or try region needs its own cursor-range runner.
	OpBlock
	OpExpression
	OpDiscard
	OpNext
	OpResult
	OpResultVoid
	OpJump
	OpJumpIf
	OpJumpIfNot
	OpSwitch
	OpTry
	OpThrow
	// OpBreaker dispatches return/break/continue (spec §4.7): a
	// positive Value.Integer() is a break nesting depth, a negative one
	// a continue nesting depth (sign selects the variant, as in the
	// source's breaker(n) sentinel); depth 0 always means "return" and
	// is paired with a following value op for the returned expression.
	OpBreaker
	OpIterate
	OpIterateLessRef
	OpIterateLessOrEqualRef
	OpIterateMoreRef
	OpIterateMoreOrEqualRef
	OpIterateInRef
	OpPushEnvironment
	OpPopEnvironment

	// OpBindParameters and OpDeclareLocal implement function-entry
	// parameter binding and var/function hoisting: spec §4.6 requires a
	// call's named parameters to be resolvable as ordinary locals (not
	// only through `arguments`), and spec §5's function-scoped var
	// semantics require a var's binding to exist in its enclosing
	// function's scope from the top of that function, even before the
	// `var` statement itself runs. Both are parser-emitted preamble ops,
	// laid out before the rest of a function body or Program.
	OpBindParameters
	OpDeclareLocal
)

var opKindNames = map[OpKind]string{
	OpValue: "value", OpText: "text", OpThis: "this",
	OpObjectLiteral: "objectLiteral", OpArrayLiteral: "arrayLiteral", OpFunctionLiteral: "functionLiteral",
	OpGetLocal: "getLocal", OpSetLocal: "setLocal", OpGetLocalRef: "getLocalRef",
	OpGetMember: "getMember", OpSetMember: "setMember", OpDeleteMember: "deleteMember",
	OpGetMemberRef: "getMemberRef", OpGetProperty: "getProperty", OpSetProperty: "setProperty",
	OpDeleteProperty: "deleteProperty", OpGetPropertyRef: "getPropertyRef",
	OpGetMemberIndex: "getMemberIndex", OpSetMemberIndex: "setMemberIndex",
	OpDeleteMemberIndex: "deleteMemberIndex", OpGetMemberIndexRef: "getMemberIndexRef",
	OpAdd: "add", OpMinus: "minus", OpMultiply: "multiply", OpDivide: "divide",
	OpModulo: "modulo", OpPositive: "positive", OpNegative: "negative",
	OpBitwiseAnd: "bitwiseAnd", OpBitwiseOr: "bitwiseOr", OpBitwiseXor: "bitwiseXor",
	OpLeftShift: "leftShift", OpRightShift: "rightShift", OpUnsignedRightShift: "unsignedRightShift",
	OpInvert: "invert",
	OpLess: "less", OpLessOrEqual: "lessOrEqual", OpMore: "more", OpMoreOrEqual: "moreOrEqual",
	OpEqual: "equal", OpNotEqual: "notEqual", OpIdentical: "identical", OpNotIdentical: "notIdentical",
	OpInstanceOf: "instanceOf", OpIn: "in",
	OpLogicalAnd: "logicalAnd", OpLogicalOr: "logicalOr", OpNot: "not",
	OpTypeOf: "typeOf", OpTypeOfLocal: "typeOfLocal",
	OpConditional: "conditional", OpSequence: "sequence",
	OpAddAssignRef: "addAssignRef", OpMinusAssignRef: "minusAssignRef",
	OpMultiplyAssignRef: "multiplyAssignRef", OpDivideAssignRef: "divideAssignRef",
	OpModuloAssignRef: "moduloAssignRef", OpIncrementRef: "incrementRef",
	OpDecrementRef: "decrementRef", OpPostIncrementRef: "postIncrementRef",
	OpPostDecrementRef: "postDecrementRef", OpAssignRef: "assignRef",
	OpCall: "call", OpCallMember: "callMember", OpCallProperty: "callProperty", OpConstruct: "construct",
	OpBlock: "block", OpExpression: "expression", OpDiscard: "discard", OpNext: "next",
	OpResult: "result", OpResultVoid: "resultVoid", OpJump: "jump", OpJumpIf: "jumpIf",
	OpJumpIfNot: "jumpIfNot", OpSwitch: "switch", OpTry: "try", OpThrow: "throw",
	OpBreaker: "breaker", OpIterate: "iterate",
	OpIterateLessRef: "iterateLessRef", OpIterateLessOrEqualRef: "iterateLessOrEqualRef",
	OpIterateMoreRef: "iterateMoreRef", OpIterateMoreOrEqualRef: "iterateMoreOrEqualRef",
	OpIterateInRef: "iterateInRef",
	OpPushEnvironment: "pushEnvironment", OpPopEnvironment: "popEnvironment",
	OpBindParameters: "bindParameters", OpDeclareLocal: "declareLocal",
}

// String returns the op's mnemonic name, backing the CLI's `ops` dump
// stage (spec's `-emit` bytecode listing).
func (k OpKind) String() string {
	if n, ok := opKindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("op(%d)", uint8(k))
}

// Op is one entry in a flat OpList: a kind tag, a literal/parameter
// Value (skip counts for jumps, slot keys for scope ops, child counts
// for literals), and the source span for diagnostics.
type Op struct {
	Kind  OpKind
	Value Value
	Text  text.Text
}

// OpList is the unit of code emission and execution: a dynamically
// sized array of Ops produced by the parser.
type OpList struct {
	Ops []Op
}

// NewOpList wraps a slice of Ops (typically built by the parser via
// append/Join) as an executable OpList.
func NewOpList(ops []Op) *OpList { return &OpList{Ops: ops} }

// Join concatenates OpLists left to right, matching the parser's
// production-composition model (spec §4.5).
func Join(lists ...*OpList) *OpList {
	var out []Op
	for _, l := range lists {
		if l != nil {
			out = append(out, l.Ops...)
		}
	}
	return &OpList{Ops: out}
}

// Run begins executing ctx's OpList from the start, returning the
// first non-normal ControlFlow (typically FlowReturn from the last
// statement, or FlowNormal wrapping the last expression's value for a
// top-level eval) or a propagating *Throw.
func (ctx *Context) Run() (ControlFlow, *Throw) {
	ctx.Cursor = 0
	var last ControlFlow
	for ctx.Cursor < len(ctx.Ops.Ops) {
		cf, t := ctx.nextStatement()
		if t != nil {
			return ControlFlow{}, t
		}
		if !cf.IsNormal() {
			return cf, nil
		}
		last = cf
	}
	return last, nil
}

// nextStatement dispatches the op at the cursor as a statement,
// consuming it and anything it recursively pulls via nextOp/nextValue.
func (ctx *Context) nextStatement() (ControlFlow, *Throw) {
	return ctx.exec()
}

// nextValue dispatches the op at the cursor as a plain expression,
// discarding control-flow variants (which cannot legally appear in
// expression position).
func (ctx *Context) nextValue() (Value, *Throw) {
	cf, t := ctx.exec()
	if t != nil {
		return Value{}, t
	}
	return cf.Value, nil
}

// nextRef dispatches the op at the cursor expecting a KindReference
// result (the parser only ever places *Ref-producing ops where one is
// required, per the reference-conversion rule in spec §4.5).
func (ctx *Context) nextRef() (*Ref, *Throw) {
	v, t := ctx.nextValue()
	if t != nil {
		return nil, t
	}
	if v.Kind != KindReference {
		// Defensive fallback: treat a plain value as a throwaway ref so a
		// malformed OpList degrades gracefully instead of panicking.
		captured := v
		return &Ref{Get: func() Value { return captured }, Set: func(Value) *Throw { return nil }}, nil
	}
	return v.RefHandle(), nil
}

// op returns the Op at the current cursor without advancing.
func (ctx *Context) op() Op { return ctx.Ops.Ops[ctx.Cursor] }

// advance moves the cursor to the next Op.
func (ctx *Context) advance() { ctx.Cursor++ }

// exec dispatches the current Op, mirroring each op handler's
// contract: pull any operand sub-expressions via nextValue/nextRef,
// compute a result or ControlFlow, advance past children as it goes.
func (ctx *Context) exec() (ControlFlow, *Throw) {
	o := ctx.op()
	ctx.Text = o.Text
	if o.Text.Len() > 0 {
		ctx.Pool.CurrentText = o.Text
	}
	ctx.advance()

	switch o.Kind {

	case OpValue:
		return Normal(o.Value), nil

	case OpText:
		return Normal(TextValue(o.Text)), nil

	case OpThis:
		return Normal(ctx.This), nil

	case OpObjectLiteral:
		return ctx.execObjectLiteral(o)

	case OpArrayLiteral:
		return ctx.execArrayLiteral(o)

	case OpFunctionLiteral:
		fn := o.Value.Object().AsFunction
		proto := fn.Prototype
		if proto == nil {
			proto = ctx.functionPrototype()
		}
		clone := ctx.Pool.NewFunction(proto, fn.Name, fn.ParameterCount)
		clone.Ops = fn.Ops
		clone.Environment = ctx.Environment
		clone.NeedHeap = fn.NeedHeap
		clone.NeedArguments = fn.NeedArguments
		clone.Text = fn.Text
		ctx.installInstancePrototype(clone)
		return Normal(ObjectValue(KindFunction, clone.Object)), nil

	case OpGetLocal:
		v, t := ctx.GetLocal(o.Value.Key())
		return Normal(v), t

	case OpSetLocal:
		v, t := ctx.nextValue()
		if t != nil {
			return ControlFlow{}, t
		}
		if t := ctx.SetLocal(o.Value.Key(), v); t != nil {
			return ControlFlow{}, t
		}
		return Normal(v), nil

	case OpGetLocalRef:
		return Normal(Reference(ctx.RefLocal(o.Value.Key()))), nil

	case OpGetMember, OpGetProperty:
		return ctx.execGetMember(o, false)

	case OpGetMemberRef, OpGetPropertyRef:
		return ctx.execGetMemberRef(o)

	case OpSetMember, OpSetProperty:
		return ctx.execSetMember(o)

	case OpDeleteMember, OpDeleteProperty:
		return ctx.execDeleteMember(o)

	case OpGetMemberIndex:
		return ctx.execGetMemberIndex()

	case OpGetMemberIndexRef:
		return ctx.execGetMemberIndexRef()

	case OpSetMemberIndex:
		return ctx.execSetMemberIndex()

	case OpDeleteMemberIndex:
		return ctx.execDeleteMemberIndex()

	case OpAdd, OpMinus, OpMultiply, OpDivide, OpModulo:
		return ctx.execArithmetic(o)

	case OpPositive:
		v, t := ctx.nextValue()
		if t != nil {
			return ControlFlow{}, t
		}
		return Normal(Binary(ctx.toPrimitiveNumber(v))), nil

	case OpNegative:
		v, t := ctx.nextValue()
		if t != nil {
			return ControlFlow{}, t
		}
		return Normal(Binary(-ctx.toPrimitiveNumber(v))), nil

	case OpBitwiseAnd, OpBitwiseOr, OpBitwiseXor, OpLeftShift, OpRightShift, OpUnsignedRightShift:
		return ctx.execBitwise(o)

	case OpInvert:
		v, t := ctx.nextValue()
		if t != nil {
			return ControlFlow{}, t
		}
		return Normal(Integer(^v.ToInt32())), nil

	case OpLess, OpLessOrEqual, OpMore, OpMoreOrEqual:
		return ctx.execRelational(o)

	case OpEqual, OpNotEqual:
		return ctx.execAbstractEquality(o)

	case OpIdentical, OpNotIdentical:
		return ctx.execStrictEquality(o)

	case OpInstanceOf:
		return ctx.execInstanceOf()

	case OpIn:
		return ctx.execIn()

	case OpLogicalAnd, OpLogicalOr:
		return ctx.execLogical(o)

	case OpNot:
		v, t := ctx.nextValue()
		if t != nil {
			return ControlFlow{}, t
		}
		return Normal(Bool(!v.ToBoolean())), nil

	case OpTypeOf:
		v, t := ctx.nextValue()
		if t != nil {
			return ControlFlow{}, t
		}
		return Normal(TextValue(text.FromString(v.TypeName()))), nil

	case OpTypeOfLocal:
		owner := lookupEnvironment(ctx.Environment, o.Value.Key())
		if owner == nil {
			return Normal(TextValue(text.FromString("undefined"))), nil
		}
		raw, _ := owner.Member(o.Value.Key(), true)
		v, t := ctx.resolveAccessor(raw, ObjectValue(KindObject, owner))
		if t != nil {
			return ControlFlow{}, t
		}
		return Normal(TextValue(text.FromString(v.TypeName()))), nil

	case OpConditional:
		return ctx.execConditional(o)

	case OpSequence:
		return ctx.execSequence(o)

	case OpAddAssignRef, OpMinusAssignRef, OpMultiplyAssignRef, OpDivideAssignRef, OpModuloAssignRef, OpAssignRef:
		return ctx.execCompoundAssign(o)

	case OpIncrementRef, OpDecrementRef, OpPostIncrementRef, OpPostDecrementRef:
		return ctx.execIncDec(o)

	case OpCall, OpCallMember, OpCallProperty:
		return ctx.execCall(o)

	case OpConstruct:
		return ctx.execConstruct(o)

	case OpBlock:
		return ctx.execBlock(o)

	case OpExpression:
		v, t := ctx.nextValue()
		return Normal(v), t

	case OpDiscard:
		_, t := ctx.nextValue()
		if t != nil {
			return ControlFlow{}, t
		}
		return Normal(Undefined()), nil

	case OpNext:
		return ctx.nextStatement()

	case OpResult:
		v, t := ctx.nextValue()
		if t != nil {
			return ControlFlow{}, t
		}
		return Return(v), nil

	case OpResultVoid:
		return Return(Undefined()), nil

	case OpBreaker:
		n := o.Value.Integer()
		switch {
		case n > 0:
			return BreakFlow(""), nil
		case n < 0:
			return ContinueFlow(""), nil
		default:
			v, t := ctx.nextValue()
			if t != nil {
				return ControlFlow{}, t
			}
			return Return(v), nil
		}

	case OpJump:
		// Relocate the cursor only; the enclosing statement loop (Run,
		// runRegion, execBlock, …) picks up the next statement from
		// there on its own next iteration. Recursing into
		// nextStatement() here would assume the landing spot is always
		// "one more generic statement in the current OpList," which is
		// false when the jump lands exactly at a try/switch region's
		// own metadata op rather than at the true end of a function body.
		ctx.Cursor += int(o.Value.Integer())
		return Normal(Undefined()), nil

	case OpJumpIf:
		v, t := ctx.nextValue()
		if t != nil {
			return ControlFlow{}, t
		}
		if v.ToBoolean() {
			ctx.Cursor += int(o.Value.Integer())
		}
		return Normal(Undefined()), nil

	case OpJumpIfNot:
		v, t := ctx.nextValue()
		if t != nil {
			return ControlFlow{}, t
		}
		if !v.ToBoolean() {
			ctx.Cursor += int(o.Value.Integer())
		}
		return Normal(Undefined()), nil

	case OpSwitch:
		return ctx.execSwitch(o)

	case OpTry:
		return ctx.execTry(o)

	case OpThrow:
		v, t := ctx.nextValue()
		if t != nil {
			return ControlFlow{}, t
		}
		return ControlFlow{}, NewThrow(v)

	case OpIterate:
		return ctx.execIterate(o)

	case OpIterateLessRef, OpIterateLessOrEqualRef, OpIterateMoreRef, OpIterateMoreOrEqualRef:
		return ctx.execIterateFused(o)

	case OpIterateInRef:
		return ctx.execIterateIn(o)

	case OpPushEnvironment:
		ctx.Environment = ctx.Pool.NewObject(ctx.Environment, TypeObject)
		return Normal(Undefined()), nil

	case OpPopEnvironment:
		if ctx.Environment.Prototype != nil {
			ctx.Environment = ctx.Environment.Prototype
		}
		return Normal(Undefined()), nil

	case OpBindParameters:
		count := int(o.Value.Integer())
		for i := 0; i < count; i++ {
			nameOp := ctx.op()
			ctx.advance()
			ctx.Environment.AddMember(nameOp.Value.Key(), ctx.Argument(i), 0)
		}
		return Normal(Undefined()), nil

	case OpDeclareLocal:
		k := o.Value.Key()
		if _, ok := ctx.Environment.Member(k, true); !ok {
			ctx.Environment.AddMember(k, Undefined(), 0)
		}
		return Normal(Undefined()), nil

	default:
		return Normal(Undefined()), nil
	}
}

// --- literals ---------------------------------------------------------

func (ctx *Context) execObjectLiteral(o Op) (ControlFlow, *Throw) {
	count := int(o.Value.Integer())
	obj := ctx.Pool.NewObject(ctx.objectPrototype(), TypeObject)
	for i := 0; i < count; i++ {
		keyOp := ctx.op()
		ctx.advance()
		v, t := ctx.nextValue()
		if t != nil {
			return ControlFlow{}, t
		}
		obj.AddMember(keyOp.Value.Key(), v, 0)
	}
	return Normal(ObjectValue(KindObject, obj)), nil
}

func (ctx *Context) execArrayLiteral(o Op) (ControlFlow, *Throw) {
	count := int(o.Value.Integer())
	arr := ctx.Pool.NewObject(ctx.arrayPrototype(), TypeArray)
	for i := 0; i < count; i++ {
		v, t := ctx.nextValue()
		if t != nil {
			return ControlFlow{}, t
		}
		arr.AddElement(uint32(i), v, 0)
	}
	arr.AddMember(ctx.Pool.Keys.Predefined.Length, Integer(int32(count)), FlagHidden)
	return Normal(ObjectValue(KindObject, arr)), nil
}

// objectPrototypes is populated by the builtin package, mirroring
// errorPrototypes above: Context itself stays agnostic of the builtin
// registry's contents.
var objectPrototypeGlobal *Object
var arrayPrototypeGlobal *Object
var functionPrototypeGlobal *Object
var stringPrototypeGlobal *Object
var numberPrototypeGlobal *Object
var booleanPrototypeGlobal *Object

func RegisterObjectPrototype(p *Object)   { objectPrototypeGlobal = p }
func RegisterArrayPrototype(p *Object)    { arrayPrototypeGlobal = p }
func RegisterFunctionPrototype(p *Object) { functionPrototypeGlobal = p }
func RegisterStringPrototype(p *Object)   { stringPrototypeGlobal = p }
func RegisterNumberPrototype(p *Object)   { numberPrototypeGlobal = p }
func RegisterBooleanPrototype(p *Object)  { booleanPrototypeGlobal = p }

func (ctx *Context) objectPrototype() *Object   { return objectPrototypeGlobal }
func (ctx *Context) arrayPrototype() *Object    { return arrayPrototypeGlobal }
func (ctx *Context) functionPrototype() *Object { return functionPrototypeGlobal }
func (ctx *Context) stringPrototype() *Object   { return stringPrototypeGlobal }
func (ctx *Context) numberPrototype() *Object   { return numberPrototypeGlobal }
func (ctx *Context) booleanPrototype() *Object  { return booleanPrototypeGlobal }

// primitiveMember resolves a property access on a primitive (non-object)
// base, matching ES3's "primitive values are coerced to a wrapper object
// for the duration of the member access" rule (spec §4's member-access
// row) without allocating an actual wrapper: a string's "length" and
// integer-index reads are computed directly from its characters, and
// everything else (methods like charAt, toFixed, ...) resolves against
// the matching prototype registered by the builtin package. Returns
// (Value{}, false) if base's kind has no wrapper prototype at all,
// which includes undefined and null: execGetMember and
// execGetMemberIndex throw on those before calling here, but the Ref
// getters of execGetMemberRef and execGetMemberIndexRef do not.
func (ctx *Context) primitiveMember(base Value, k key.Key, idx uint32, isElem bool) (Value, bool) {
	if base.Kind == KindText || base.Kind == KindChars {
		s := stringOf(base)
		if isElem {
			return stringCharAt(s, idx)
		}
		if k == ctx.Pool.Keys.Predefined.Length {
			return Integer(int32(len([]rune(s)))), true
		}
	}
	proto := ctx.primitivePrototype(base)
	if proto == nil {
		return Value{}, false
	}
	if isElem {
		return proto.Element(idx, false)
	}
	return proto.Member(k, false)
}

// primitivePrototype maps a primitive Value's Kind to the wrapper
// prototype builtin.Install registered for it.
func (ctx *Context) primitivePrototype(base Value) *Object {
	switch base.Kind {
	case KindText, KindChars:
		return ctx.stringPrototype()
	case KindInteger, KindBinary:
		return ctx.numberPrototype()
	case KindTrue, KindFalse:
		return ctx.booleanPrototype()
	default:
		return nil
	}
}

// stringCharAt returns the single-character string at rune index idx, or
// (Value{}, false) past the end, matching String.prototype.charAt's
// underlying indexing rule (used directly for `s[i]` element access).
func stringCharAt(s string, idx uint32) (Value, bool) {
	runes := []rune(s)
	if int(idx) >= len(runes) {
		return Value{}, false
	}
	return TextValue(text.FromString(string(runes[idx]))), true
}

// installInstancePrototype gives fn the auto-vivified "prototype" own
// property every ES3 function object carries, whose own initial value
// is {constructor: fn} (spec §7's Function/`new` row). Function.prototype
// itself (functionPrototypeGlobal, before builtin.Install runs) has none
// to install onto, so this is skipped until the object prototype exists.
func (ctx *Context) installInstancePrototype(fn *Function) {
	if ctx.objectPrototype() == nil {
		return
	}
	inst := ctx.Pool.NewObject(ctx.objectPrototype(), TypeObject)
	inst.AddMember(ctx.Pool.Keys.Predefined.Constructor, ObjectValue(KindFunction, fn.Object), FlagHidden)
	fn.AddMember(ctx.Pool.Keys.Predefined.Prototype, ObjectValue(KindObject, inst), FlagHidden)
}

// --- property access ----------------------------------------------------

func (ctx *Context) execGetMember(o Op, ref bool) (ControlFlow, *Throw) {
	base, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	if base.IsNullOrUndefined() {
		return ControlFlow{}, NewThrow(ctx.NewError("TypeError", "cannot read property of "+base.TypeName()))
	}
	k, idx, isElem := ctx.classify(o.Value)
	v, ok := ctx.lookupMember(base, k, idx, isElem)
	if !ok {
		return Normal(Undefined()), nil
	}
	resolved, t := ctx.resolveAccessor(v, base)
	return Normal(resolved), t
}

// lookupMember reads a key- or element-indexed property off base,
// dispatching to base's Object when it is one, else to the matching
// primitive-wrapper prototype (spec §4's "method calls on a string/
// number/boolean literal auto-box to its prototype" rule) via
// primitiveMember.
func (ctx *Context) lookupMember(base Value, k key.Key, idx uint32, isElem bool) (Value, bool) {
	obj := base.Object()
	if obj == nil {
		return ctx.primitiveMember(base, k, idx, isElem)
	}
	if isElem {
		return obj.Element(idx, false)
	}
	return obj.Member(k, false)
}

func (ctx *Context) execGetMemberRef(o Op) (ControlFlow, *Throw) {
	base, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	k, idx, isElem := ctx.classify(o.Value)
	obj := base.Object()
	r := &Ref{
		Get: func() Value {
			v, _ := ctx.lookupMember(base, k, idx, isElem)
			resolved, _ := ctx.resolveAccessor(v, base)
			return resolved
		},
		Set: func(val Value) *Throw {
			if obj == nil {
				return nil // writing a property onto a primitive is a silent no-op
			}
			return ctx.putMember(obj, k, idx, isElem, val, base)
		},
	}
	return Normal(Reference(r)), nil
}

func (ctx *Context) execSetMember(o Op) (ControlFlow, *Throw) {
	base, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	val, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	if base.IsNullOrUndefined() {
		return ControlFlow{}, NewThrow(ctx.NewError("TypeError", "cannot set property of "+base.TypeName()))
	}
	obj := base.Object()
	if obj == nil {
		return Normal(val), nil
	}
	k, idx, isElem := ctx.classify(o.Value)
	if t := ctx.putMember(obj, k, idx, isElem, val, base); t != nil {
		return ControlFlow{}, t
	}
	return Normal(val), nil
}

func (ctx *Context) execDeleteMember(o Op) (ControlFlow, *Throw) {
	base, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	if base.IsNullOrUndefined() {
		return Normal(Bool(true)), nil
	}
	obj := base.Object()
	if obj == nil {
		return Normal(Bool(true)), nil
	}
	k, idx, isElem := ctx.classify(o.Value)
	var ok bool
	if isElem {
		ok = obj.DeleteElement(idx)
	} else {
		ok = obj.DeleteMember(k)
	}
	return Normal(Bool(ok)), nil
}

// execGetMemberIndex, execGetMemberIndexRef, execSetMemberIndex and
// execDeleteMemberIndex are the computed-property-access counterparts
// of execGetMember/execGetMemberRef/execSetMember/execDeleteMember:
// they pull the key/index as a runtime value instead of reading it off
// the Op's own literal Value.

func (ctx *Context) execGetMemberIndex() (ControlFlow, *Throw) {
	base, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	if base.IsNullOrUndefined() {
		return ControlFlow{}, NewThrow(ctx.NewError("TypeError", "cannot read property of "+base.TypeName()))
	}
	keyVal, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	k, idx, isElem := ctx.classify(keyVal)
	v, ok := ctx.lookupMember(base, k, idx, isElem)
	if !ok {
		return Normal(Undefined()), nil
	}
	resolved, t := ctx.resolveAccessor(v, base)
	return Normal(resolved), t
}

func (ctx *Context) execGetMemberIndexRef() (ControlFlow, *Throw) {
	base, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	keyVal, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	k, idx, isElem := ctx.classify(keyVal)
	obj := base.Object()
	r := &Ref{
		Get: func() Value {
			v, _ := ctx.lookupMember(base, k, idx, isElem)
			resolved, _ := ctx.resolveAccessor(v, base)
			return resolved
		},
		Set: func(val Value) *Throw {
			if obj == nil {
				return nil
			}
			return ctx.putMember(obj, k, idx, isElem, val, base)
		},
	}
	return Normal(Reference(r)), nil
}

func (ctx *Context) execSetMemberIndex() (ControlFlow, *Throw) {
	base, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	keyVal, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	val, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	if base.IsNullOrUndefined() {
		return ControlFlow{}, NewThrow(ctx.NewError("TypeError", "cannot set property of "+base.TypeName()))
	}
	obj := base.Object()
	if obj == nil {
		return Normal(val), nil
	}
	k, idx, isElem := ctx.classify(keyVal)
	if t := ctx.putMember(obj, k, idx, isElem, val, base); t != nil {
		return ControlFlow{}, t
	}
	return Normal(val), nil
}

func (ctx *Context) execDeleteMemberIndex() (ControlFlow, *Throw) {
	base, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	if base.IsNullOrUndefined() {
		return Normal(Bool(true)), nil
	}
	keyVal, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	obj := base.Object()
	if obj == nil {
		return Normal(Bool(true)), nil
	}
	k, idx, isElem := ctx.classify(keyVal)
	var ok bool
	if isElem {
		ok = obj.DeleteElement(idx)
	} else {
		ok = obj.DeleteMember(k)
	}
	return Normal(Bool(ok)), nil
}

// classify resolves an Op's literal operand into an element index or a
// key, per getElementOrKey (spec §4.3). A literal integer operand is
// always an element index; a literal key operand is always a key (the
// parser already classified string-literal property names at parse
// time, folding numeric-looking ones to element form).
func (ctx *Context) classify(v Value) (k key.Key, idx uint32, isElem bool) {
	if v.Kind == KindInteger && v.Integer() >= 0 {
		return key.None, uint32(v.Integer()), true
	}
	if v.Kind == KindKey {
		return v.Key(), 0, false
	}
	var name string
	switch v.Kind {
	case KindText:
		name = v.Text().String()
	case KindChars:
		name = v.Chars().Text().String()
	case KindInteger, KindBinary, KindTrue, KindFalse, KindUndefined, KindNull:
		// A negative integer, or any other primitive used as a computed
		// property name (`a[i]` where i is a float or bool), still needs
		// its canonical string form so GetElementOrKey can recognize a
		// non-negative integral spelling as an element index.
		name = stringOf(v)
	default:
		name = v.TypeName()
	}
	i, k2, isE := GetElementOrKey(ctx.Pool, name)
	return k2, i, isE
}

func (ctx *Context) putMember(obj *Object, k key.Key, idx uint32, isElem bool, val Value, receiver Value) *Throw {
	if isElem {
		if obj.Sealed() {
			if _, ok := obj.Element(idx, true); !ok {
				return NewThrow(ctx.NewError("TypeError", "object is not extensible"))
			}
		}
		prev, existed := obj.Element(idx, true)
		if existed && prev.Flags&FlagReadonly != 0 {
			return NewThrow(ctx.NewError("TypeError", "index is read-only"))
		}
		obj.AddElement(idx, val, 0)
		if arr, ok := obj.Member(ctx.Pool.Keys.Predefined.Length, true); ok && idx >= uint32(arr.Integer()) {
			obj.AddMember(ctx.Pool.Keys.Predefined.Length, Integer(int32(idx+1)), FlagHidden)
		}
		return nil
	}
	prev, existed := obj.hashmap[k]
	if existed && prev.value.Flags&FlagReadonly != 0 {
		return NewThrow(ctx.NewError("TypeError", ctx.Pool.Keys.Text(k)+" is read-only"))
	}
	if existed && prev.value.Flags&Accessor != 0 {
		return ctx.invokeSetter(prev.value, receiver, val)
	}
	if obj.Sealed() && !existed {
		return NewThrow(ctx.NewError("TypeError", "object is not extensible"))
	}
	obj.AddMember(k, val, 0)
	return nil
}

// --- arithmetic / bitwise / compare -------------------------------------

func (ctx *Context) toPrimitiveNumber(v Value) float64 {
	if v.IsObjectKind() {
		return math.NaN() // ToPrimitive(hint number) on bare objects: unimplemented beyond NaN fallback
	}
	return v.ToNumber()
}

func (ctx *Context) execArithmetic(o Op) (ControlFlow, *Throw) {
	a, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	b, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	if o.Kind == OpAdd && (isStringlike(a) || isStringlike(b)) {
		return Normal(CharsValue(text.CreateWithText(text.FromString(stringOf(a) + stringOf(b))))), nil
	}
	x, y := a.ToNumber(), b.ToNumber()
	switch o.Kind {
	case OpAdd:
		return Normal(Binary(x + y)), nil
	case OpMinus:
		return Normal(Binary(x - y)), nil
	case OpMultiply:
		return Normal(Binary(x * y)), nil
	case OpDivide:
		return Normal(Binary(x / y)), nil
	case OpModulo:
		return Normal(Binary(math.Mod(x, y))), nil
	}
	return Normal(Undefined()), nil
}

func isStringlike(v Value) bool {
	return v.Kind == KindText || v.Kind == KindChars || v.Kind == KindString
}

// stringOf is the arithmetic `+` operator's string-coercion path; it is
// just Value.DisplayString under another name kept for call-site history.
func stringOf(v Value) string {
	return v.DisplayString()
}

func (ctx *Context) execBitwise(o Op) (ControlFlow, *Throw) {
	a, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	b, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	x, y := a.ToInt32(), b.ToInt32()
	switch o.Kind {
	case OpBitwiseAnd:
		return Normal(Integer(x & y)), nil
	case OpBitwiseOr:
		return Normal(Integer(x | y)), nil
	case OpBitwiseXor:
		return Normal(Integer(x ^ y)), nil
	case OpLeftShift:
		return Normal(Integer(x << (uint32(y) & 31))), nil
	case OpRightShift:
		return Normal(Integer(x >> (uint32(y) & 31))), nil
	case OpUnsignedRightShift:
		return Normal(Integer(int32(uint32(x) >> (uint32(y) & 31)))), nil
	}
	return Normal(Undefined()), nil
}

func (ctx *Context) execRelational(o Op) (ControlFlow, *Throw) {
	a, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	b, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	if isStringlike(a) && isStringlike(b) {
		sa, sb := stringOf(a), stringOf(b)
		switch o.Kind {
		case OpLess:
			return Normal(Bool(sa < sb)), nil
		case OpLessOrEqual:
			return Normal(Bool(sa <= sb)), nil
		case OpMore:
			return Normal(Bool(sa > sb)), nil
		case OpMoreOrEqual:
			return Normal(Bool(sa >= sb)), nil
		}
	}
	x, y := a.ToNumber(), b.ToNumber()
	if math.IsNaN(x) || math.IsNaN(y) {
		return Normal(Bool(false)), nil
	}
	switch o.Kind {
	case OpLess:
		return Normal(Bool(x < y)), nil
	case OpLessOrEqual:
		return Normal(Bool(x <= y)), nil
	case OpMore:
		return Normal(Bool(x > y)), nil
	case OpMoreOrEqual:
		return Normal(Bool(x >= y)), nil
	}
	return Normal(Undefined()), nil
}

func (ctx *Context) execStrictEquality(o Op) (ControlFlow, *Throw) {
	a, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	b, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	eq := strictEquals(a, b)
	if o.Kind == OpNotIdentical {
		eq = !eq
	}
	return Normal(Bool(eq)), nil
}

// StrictEqual exports the `===` comparison for callers outside the
// package (builtin's Array.prototype.indexOf/lastIndexOf and a future
// switch-dispatch helper need the exact same rule the VM's
// OpIdentical/OpNotIdentical ops use).
func StrictEqual(a, b Value) bool { return strictEquals(a, b) }

func strictEquals(a, b Value) bool {
	if a.Kind != b.Kind {
		// integer vs binary both represent "number" at the script level.
		if (a.Kind == KindInteger || a.Kind == KindBinary) && (b.Kind == KindInteger || b.Kind == KindBinary) {
			return a.ToNumber() == b.ToNumber()
		}
		return false
	}
	switch a.Kind {
	case KindUndefined, KindNull:
		return true
	case KindTrue, KindFalse:
		return a.Kind == b.Kind
	case KindInteger:
		return a.Integer() == b.Integer()
	case KindBinary:
		return a.Binary() == b.Binary() // NaN !== NaN falls out of Go's float comparison
	case KindText, KindChars:
		return stringOf(a) == stringOf(b)
	default:
		return a.Object() == b.Object()
	}
}

func (ctx *Context) execAbstractEquality(o Op) (ControlFlow, *Throw) {
	a, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	b, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	eq := abstractEquals(a, b)
	if o.Kind == OpNotEqual {
		eq = !eq
	}
	return Normal(Bool(eq)), nil
}

func abstractEquals(a, b Value) bool {
	if a.IsNullOrUndefined() && b.IsNullOrUndefined() {
		return true
	}
	if a.IsNullOrUndefined() != b.IsNullOrUndefined() {
		return false
	}
	if a.Kind == b.Kind {
		return strictEquals(a, b)
	}
	an, bn := isNumeric(a), isNumeric(b)
	as, bs := isStringlike(a), isStringlike(b)
	if (an || a.IsBoolean()) && (bn || b.IsBoolean() || bs) {
		return a.ToNumber() == b.ToNumber()
	}
	if as && (bn || b.IsBoolean()) {
		return a.ToNumber() == b.ToNumber()
	}
	return false
}

func isNumeric(v Value) bool { return v.Kind == KindInteger || v.Kind == KindBinary }

func (ctx *Context) execInstanceOf() (ControlFlow, *Throw) {
	a, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	b, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	ctor := b.Object()
	if ctor == nil || ctor.AsFunction == nil {
		return ControlFlow{}, NewThrow(ctx.NewError("TypeError", "right-hand side of instanceof is not callable"))
	}
	protoVal, _ := ctor.Member(ctx.Pool.Keys.Predefined.Prototype, true)
	proto := protoVal.Object()
	obj := a.Object()
	for cur := obj; cur != nil; cur = cur.Prototype {
		if cur.Prototype == proto {
			return Normal(Bool(true)), nil
		}
	}
	return Normal(Bool(false)), nil
}

func (ctx *Context) execIn() (ControlFlow, *Throw) {
	a, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	b, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	obj := b.Object()
	if obj == nil {
		return ControlFlow{}, NewThrow(ctx.NewError("TypeError", "cannot use 'in' on a non-object"))
	}
	k, idx, isElem := ctx.classify(a)
	var ok bool
	if isElem {
		_, ok = obj.Element(idx, false)
	} else {
		_, ok = obj.Member(k, false)
	}
	return Normal(Bool(ok)), nil
}

func (ctx *Context) execLogical(o Op) (ControlFlow, *Throw) {
	a, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	skip := int(o.Value.Integer())
	shortCircuit := (o.Kind == OpLogicalAnd && !a.ToBoolean()) || (o.Kind == OpLogicalOr && a.ToBoolean())
	if shortCircuit {
		ctx.Cursor += skip
		return Normal(a), nil
	}
	b, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	return Normal(b), nil
}

// execConditional implements `cond ? cons : alt`. Layout:
//
//	[OpConditional value=consLen] <condExpr> <consExpr> [OpValue int: altLen] <altExpr>
//
// the trailing altLen marker lets the not-taken branch be skipped
// without evaluating it, matching the try region's "lengths are always
// self-describing, even along paths not taken" contract.
func (ctx *Context) execConditional(o Op) (ControlFlow, *Throw) {
	consLen := int(o.Value.Integer())
	cond, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	consStart := ctx.Cursor
	if cond.ToBoolean() {
		v, t := ctx.nextValue()
		if t != nil {
			return ControlFlow{}, t
		}
		ctx.Cursor = consStart + consLen
		altLen := int(ctx.op().Value.Integer())
		ctx.advance()
		ctx.Cursor += altLen
		return Normal(v), nil
	}
	ctx.Cursor = consStart + consLen
	ctx.advance() // skip the altLen marker; its value is unused on this path
	v, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	return Normal(v), nil
}

// execSequence implements the comma operator: evaluate every operand
// for its side effects, yielding the last one's value.
func (ctx *Context) execSequence(o Op) (ControlFlow, *Throw) {
	n := int(o.Value.Integer())
	var last Value
	for i := 0; i < n; i++ {
		v, t := ctx.nextValue()
		if t != nil {
			return ControlFlow{}, t
		}
		last = v
	}
	return Normal(last), nil
}

// --- assignment ----------------------------------------------------------

func (ctx *Context) execCompoundAssign(o Op) (ControlFlow, *Throw) {
	ref, t := ctx.nextRef()
	if t != nil {
		return ControlFlow{}, t
	}
	rhs, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	if o.Kind == OpAssignRef {
		if t := ref.Set(rhs); t != nil {
			return ControlFlow{}, t
		}
		return Normal(rhs), nil
	}
	cur := ref.Get()
	var result Value
	if isStringlike(cur) && o.Kind == OpAddAssignRef && isStringlike(rhs) {
		result = CharsValue(text.CreateWithText(text.FromString(stringOf(cur) + stringOf(rhs))))
	} else {
		x, y := cur.ToNumber(), rhs.ToNumber()
		switch o.Kind {
		case OpAddAssignRef:
			result = Binary(x + y)
		case OpMinusAssignRef:
			result = Binary(x - y)
		case OpMultiplyAssignRef:
			result = Binary(x * y)
		case OpDivideAssignRef:
			result = Binary(x / y)
		case OpModuloAssignRef:
			result = Binary(math.Mod(x, y))
		}
	}
	if t := ref.Set(result); t != nil {
		return ControlFlow{}, t
	}
	return Normal(result), nil
}

func (ctx *Context) execIncDec(o Op) (ControlFlow, *Throw) {
	ref, t := ctx.nextRef()
	if t != nil {
		return ControlFlow{}, t
	}
	cur := ref.Get().ToNumber()
	var next float64
	if o.Kind == OpIncrementRef || o.Kind == OpPostIncrementRef {
		next = cur + 1
	} else {
		next = cur - 1
	}
	if t := ref.Set(Binary(next)); t != nil {
		return ControlFlow{}, t
	}
	if o.Kind == OpPostIncrementRef || o.Kind == OpPostDecrementRef {
		return Normal(Binary(cur)), nil
	}
	return Normal(Binary(next)), nil
}

// --- calls -----------------------------------------------------------------

func (ctx *Context) execCall(o Op) (ControlFlow, *Throw) {
	argc := int(o.Value.Integer())
	calleeVal, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	this := Undefined()
	// callMember/callProperty leave the receiver as the `this` of the
	// call; getMember/getProperty already folded accessor resolution,
	// so the receiver must be captured before that collapses it. The
	// parser arranges for the receiver's base object Value to precede
	// the callee Value on these two op kinds specifically.
	if o.Kind == OpCallMember || o.Kind == OpCallProperty {
		this = calleeVal
		calleeVal, t = ctx.nextValue()
		if t != nil {
			return ControlFlow{}, t
		}
	}
	args := make([]Value, argc)
	for i := 0; i < argc; i++ {
		args[i], t = ctx.nextValue()
		if t != nil {
			return ControlFlow{}, t
		}
	}
	fnObj := calleeVal.Object()
	if fnObj == nil || fnObj.AsFunction == nil {
		return ControlFlow{}, NewThrow(ctx.NewError("TypeError", "value is not a function"))
	}
	v, t := ctx.Call(fnObj.AsFunction, this, args)
	return Normal(v), t
}

func (ctx *Context) execConstruct(o Op) (ControlFlow, *Throw) {
	argc := int(o.Value.Integer())
	calleeVal, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	args := make([]Value, argc)
	for i := 0; i < argc; i++ {
		args[i], t = ctx.nextValue()
		if t != nil {
			return ControlFlow{}, t
		}
	}
	fnObj := calleeVal.Object()
	if fnObj == nil || fnObj.AsFunction == nil {
		return ControlFlow{}, NewThrow(ctx.NewError("TypeError", "value is not a constructor"))
	}
	v, t := ctx.Construct(fnObj.AsFunction, args)
	return Normal(v), t
}

// --- try/throw/loops ---------------------------------------------------

// execTry implements spec §4.6/§7's try/catch/finally contract. The
// parser lays out a try op's region as:
//
//	[OpTry value=tryBodyLen] <tryBody...>
//	[OpValue bool: hasCatch] (if true: [OpValue key: catchKey] [OpValue int: catchBodyLen] <catchBody...>)
//	[OpValue bool: hasFinally] (if true: [OpValue int: finallyBodyLen] <finallyBody...>)
//
// so each region's extent is fully self-describing and exec can run
// the protected body, then the catch body (binding the thrown value as
// a fresh key in a pushed scope) if a Throw escaped it, then the
// finally body unconditionally — with a Throw or non-normal
// ControlFlow from finally superseding whatever the try/catch path
// produced, exactly as spec §7 and §9 require.
func (ctx *Context) execTry(o Op) (ControlFlow, *Throw) {
	tryStart := ctx.Cursor
	tryLen := int(o.Value.Integer())
	tryEnd := tryStart + tryLen

	ctx.Cursor = tryEnd
	hasCatch := ctx.op().Value.ToBoolean()
	ctx.advance()
	var catchKey key.Key
	var catchStart, catchEnd int
	if hasCatch {
		catchKey = ctx.op().Value.Key()
		ctx.advance()
		catchLen := int(ctx.op().Value.Integer())
		ctx.advance()
		catchStart = ctx.Cursor
		catchEnd = catchStart + catchLen
		ctx.Cursor = catchEnd
	}

	hasFinally := ctx.op().Value.ToBoolean()
	ctx.advance()
	var finallyStart, finallyEnd int
	if hasFinally {
		finallyLen := int(ctx.op().Value.Integer())
		ctx.advance()
		finallyStart = ctx.Cursor
		finallyEnd = finallyStart + finallyLen
	}
	afterTry := finallyEnd
	if !hasFinally {
		afterTry = ctx.Cursor
	}

	cf, thrown := ctx.runRegion(tryStart, tryEnd)

	if thrown != nil && hasCatch {
		ctx.Environment = ctx.Pool.NewObject(ctx.Environment, TypeObject)
		ctx.Environment.AddMember(catchKey, thrown.Value, 0)
		cf, thrown = ctx.runRegion(catchStart, catchEnd)
		ctx.Environment = ctx.Environment.Prototype
	}

	if hasFinally {
		fcf, fthrown := ctx.runRegion(finallyStart, finallyEnd)
		switch {
		case fthrown != nil:
			cf, thrown = ControlFlow{}, fthrown
		case !fcf.IsNormal():
			cf, thrown = fcf, nil
		}
	}

	ctx.Cursor = afterTry
	if thrown != nil {
		return ControlFlow{}, thrown
	}
	return cf, nil
}

// runRegion executes the statements in [start, end) against ctx's
// current environment, restoring the cursor to its prior position
// afterward. It is used to run a try/catch/finally sub-region without
// disturbing the enclosing loop's bookkeeping of where the whole try
// op ends.
func (ctx *Context) runRegion(start, end int) (ControlFlow, *Throw) {
	saved := ctx.Cursor
	ctx.Cursor = start
	var result ControlFlow
	var thrown *Throw
	for ctx.Cursor < end {
		cf, t := ctx.nextStatement()
		if t != nil {
			thrown = t
			break
		}
		result = cf
		if !cf.IsNormal() {
			break
		}
	}
	ctx.Cursor = saved
	return result, thrown
}

// execBlock runs the region [cursor, cursor+length) as a self-contained
// statement sequence, the same mechanics as a try/catch/finally region
// (see runRegion), returning the first non-normal ControlFlow or Throw
// it encounters instead of stopping at the first Op.
func (ctx *Context) execBlock(o Op) (ControlFlow, *Throw) {
	length := int(o.Value.Integer())
	start := ctx.Cursor
	end := start + length
	cf, t := ctx.runRegion(start, end)
	ctx.Cursor = end
	return cf, t
}

// switchCase records one case clause's boundaries, found by a scan pass
// over the self-describing region layout the parser emits:
//
//	[OpValue bool: isDefault]
//	(if !isDefault: [OpValue int: valueLen] <valueExpr...>)
//	[OpValue int: bodyLen] <body...>
//
// repeated caseCount times, immediately after the discriminant
// expression. Matching is by strict equality (spec §4.3), and a
// matched case falls through into every following case's body in
// source order until a `break` (OpBreaker n>0) or the switch's end,
// exactly like execIterate's loop-body break handling.
type switchCase struct {
	isDefault            bool
	valueStart, valueEnd int
	bodyStart, bodyEnd   int
}

func (ctx *Context) execSwitch(o Op) (ControlFlow, *Throw) {
	caseCount := int(o.Value.Integer())
	disc, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}

	cases := make([]switchCase, caseCount)
	for i := 0; i < caseCount; i++ {
		isDefault := ctx.op().Value.ToBoolean()
		ctx.advance()
		var vs, ve int
		if !isDefault {
			vlen := int(ctx.op().Value.Integer())
			ctx.advance()
			vs = ctx.Cursor
			ve = vs + vlen
			ctx.Cursor = ve
		}
		blen := int(ctx.op().Value.Integer())
		ctx.advance()
		bs := ctx.Cursor
		be := bs + blen
		ctx.Cursor = be
		cases[i] = switchCase{isDefault: isDefault, valueStart: vs, valueEnd: ve, bodyStart: bs, bodyEnd: be}
	}
	switchEnd := ctx.Cursor

	matched, defaultIdx := -1, -1
	for i, c := range cases {
		if c.isDefault {
			defaultIdx = i
			continue
		}
		saved := ctx.Cursor
		ctx.Cursor = c.valueStart
		v, t := ctx.nextValue()
		ctx.Cursor = saved
		if t != nil {
			return ControlFlow{}, t
		}
		if strictEquals(disc, v) {
			matched = i
			break
		}
	}
	if matched < 0 {
		matched = defaultIdx
	}

	result := Normal(Undefined())
	if matched >= 0 {
		for i := matched; i < len(cases); i++ {
			cf, t := ctx.runRegion(cases[i].bodyStart, cases[i].bodyEnd)
			if t != nil {
				ctx.Cursor = switchEnd
				return ControlFlow{}, t
			}
			if cf.Kind == FlowBreak {
				break
			}
			if cf.Kind == FlowReturn || cf.Kind == FlowContinue {
				ctx.Cursor = switchEnd
				return cf, nil
			}
			result = Normal(Undefined())
		}
	}
	ctx.Cursor = switchEnd
	return result, nil
}

func (ctx *Context) execIterate(o Op) (ControlFlow, *Throw) {
	bodyLen := int(o.Value.Integer())
	start := ctx.Cursor
	for {
		condVal, t := ctx.nextValue()
		if t != nil {
			return ControlFlow{}, t
		}
		if !condVal.ToBoolean() {
			ctx.Cursor = start + bodyLen
			return Normal(Undefined()), nil
		}
		cf, t := ctx.nextStatement()
		if t != nil {
			return ControlFlow{}, t
		}
		switch cf.Kind {
		case FlowBreak:
			ctx.Cursor = start + bodyLen
			return Normal(Undefined()), nil
		case FlowReturn:
			return cf, nil
		}
		ctx.Cursor = start
	}
}

// execIterateFused runs the peephole-fused counted-loop ops (spec
// §4.5's createLoop): the bound check and step are folded into the
// dispatcher itself instead of being separate ops, enabling a tight
// integer path. o.Value's integer is the body length; the loop
// variable Ref, the bound value, and the step are read from the three
// Ops immediately following, in that order. The parser never emits
// these ops; only a directly built OpList contains them.
func (ctx *Context) execIterateFused(o Op) (ControlFlow, *Throw) {
	bodyLen := int(o.Value.Integer())
	varRef, t := ctx.nextRef()
	if t != nil {
		return ControlFlow{}, t
	}
	bound, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	stepOp := ctx.op()
	ctx.advance()
	step := stepOp.Value.ToNumber()
	bodyStart := ctx.Cursor

	boundN := bound.ToNumber()
	for {
		cur := varRef.Get().ToNumber()
		var cont bool
		switch o.Kind {
		case OpIterateLessRef:
			cont = cur < boundN
		case OpIterateLessOrEqualRef:
			cont = cur <= boundN
		case OpIterateMoreRef:
			cont = cur > boundN
		case OpIterateMoreOrEqualRef:
			cont = cur >= boundN
		}
		if !cont {
			ctx.Cursor = bodyStart + bodyLen
			return Normal(Undefined()), nil
		}
		ctx.Cursor = bodyStart
		cf, t := ctx.nextStatement()
		if t != nil {
			return ControlFlow{}, t
		}
		switch cf.Kind {
		case FlowBreak:
			ctx.Cursor = bodyStart + bodyLen
			return Normal(Undefined()), nil
		case FlowReturn:
			return cf, nil
		}
		if t := varRef.Set(Binary(cur + step)); t != nil {
			return ControlFlow{}, t
		}
	}
}

func (ctx *Context) execIterateIn(o Op) (ControlFlow, *Throw) {
	bodyLen := int(o.Value.Integer())
	varRef, t := ctx.nextRef()
	if t != nil {
		return ControlFlow{}, t
	}
	objVal, t := ctx.nextValue()
	if t != nil {
		return ControlFlow{}, t
	}
	bodyStart := ctx.Cursor
	obj := objVal.Object()
	if obj == nil {
		ctx.Cursor = bodyStart + bodyLen
		return Normal(Undefined()), nil
	}
	for _, k := range obj.OwnKeys(false) {
		if t := varRef.Set(KeyValue(k)); t != nil {
			return ControlFlow{}, t
		}
		ctx.Cursor = bodyStart
		cf, t := ctx.nextStatement()
		if t != nil {
			return ControlFlow{}, t
		}
		switch cf.Kind {
		case FlowBreak:
			ctx.Cursor = bodyStart + bodyLen
			return Normal(Undefined()), nil
		case FlowReturn:
			return cf, nil
		}
	}
	ctx.Cursor = bodyStart + bodyLen
	return Normal(Undefined()), nil
}
