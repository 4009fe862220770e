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

// Package runtime implements the value model, prototype-chained object
// system, operation-list VM, and call-frame machinery shared by the
// interpreter core.
//
// Value, Object, Function, Op/OpList, Pool and Context live in one package
// rather than one-per-concern: Function embeds Object and an OpList, an
// Object's element slots hold Values, an Op's literal operand is a Value,
// and Pool walks Objects/Functions/Chars while Context references all of
// Object, OpList, and Pool. Splitting these along the usual Go package
// boundaries would force an import cycle; keeping the cluster together
// mirrors how production embeddable script engines (goja, gopher-lua)
// keep their value/object/vm core as a single package.
package runtime

import (
	"math"
	"strconv"

	"github.com/probechain/probescript/key"
	"github.com/probechain/probescript/text"
)

// Kind tags the active member of a Value.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindTrue
	KindFalse
	KindInteger // int32, exact
	KindBinary  // float64, IEEE-754 double

	// Stringlike.
	KindKey   // an interned key.Key used as a value (e.g. for-in iteration)
	KindText  // a non-owning text.Text slice (literal spans)
	KindChars // an owned, refcounted Chars blob

	// Object sub-kinds. All carry a non-nil *Object (Function additionally
	// embeds Object directly, but is still referenced through this kind
	// when stored in a Value).
	KindObject
	KindError
	KindFunction
	KindDate
	KindNumber  // boxed Number wrapper object
	KindString  // boxed String wrapper object
	KindBoolean // boxed Boolean wrapper object
	KindHost

	// Internal-only kinds; never legally stored in an object slot.
	KindReference // lvalue pass-through inside an op sequence
	KindBreaker   // non-local exit marker, see ControlFlow
)

// Flag holds the per-Value property attribute bits.
type Flag uint8

const (
	FlagReadonly Flag = 1 << iota
	FlagHidden        // non-enumerable
	FlagSealed        // non-configurable
	FlagGetter
	FlagSetter
	FlagCheck // 1 = slot is live; distinguishes a present-but-undefined slot from a hole
)

// Frozen reports the combination of flags Object.freeze leaves on a slot.
const Frozen = FlagReadonly | FlagSealed

// Accessor reports whether either accessor bit is set.
const Accessor = FlagGetter | FlagSetter

// Value is a 16-byte-target-agnostic tagged union. The zero Value is
// KindUndefined with no flags set.
type Value struct {
	Kind  Kind
	Flags Flag

	integer int32
	binary  float64
	key     key.Key
	text    text.Text
	chars   *text.Chars
	object  *Object // also used for error/function/date/number/string/boolean/host
	ref     *Ref
	breaker int32
}

// Undefined, Null, True and False are the canonical zero-payload values.
func Undefined() Value { return Value{Kind: KindUndefined} }
func Null() Value      { return Value{Kind: KindNull} }
func True() Value      { return Value{Kind: KindTrue} }
func False() Value     { return Value{Kind: KindFalse} }

// Bool returns True() or False() for b.
func Bool(b bool) Value {
	if b {
		return True()
	}
	return False()
}

// Integer returns a KindInteger Value.
func Integer(i int32) Value { return Value{Kind: KindInteger, integer: i} }

// Binary returns a KindBinary Value.
func Binary(f float64) Value { return Value{Kind: KindBinary, binary: f} }

// KeyValue returns a KindKey Value wrapping k.
func KeyValue(k key.Key) Value { return Value{Kind: KindKey, key: k} }

// TextValue returns a KindText Value over t.
func TextValue(t text.Text) Value { return Value{Kind: KindText, text: t} }

// CharsValue returns a KindChars Value wrapping c. c is not retained
// automatically; callers that store the Value in a slot must Retain it
// (text.Chars.Retain).
func CharsValue(c *text.Chars) Value { return Value{Kind: KindChars, chars: c} }

// ObjectValue returns a Value of the given kind wrapping o. kind must be
// one of the Object sub-kinds (KindObject, KindError, KindFunction,
// KindDate, KindNumber, KindString, KindBoolean, KindHost).
func ObjectValue(kind Kind, o *Object) Value { return Value{Kind: kind, object: o} }

// Ref is an lvalue handle: a getter/setter closure pair over wherever a
// binding actually lives (a local slot, a hashmap leaf, an element
// slot). A closure pair rather than a raw *Value is required because
// the hashmap store is a Go map, whose entries are not addressable.
type Ref struct {
	Get func() Value
	Set func(Value) *Throw
}

// Reference returns an internal lvalue-pass-through Value wrapping r.
// Never store a Reference Value in an Object slot.
func Reference(r *Ref) Value { return Value{Kind: KindReference, ref: r} }

// Breaker returns the non-local-exit sentinel encoding n (see
// ControlFlow for the structured equivalent used by exec).
func Breaker(n int32) Value { return Value{Kind: KindBreaker, breaker: n} }

// IsUndefined, IsNull, IsBoolean, IsObjectKind report on Kind.
func (v Value) IsUndefined() bool { return v.Kind == KindUndefined }
func (v Value) IsNull() bool      { return v.Kind == KindNull }
func (v Value) IsBoolean() bool   { return v.Kind == KindTrue || v.Kind == KindFalse }
func (v Value) IsNullOrUndefined() bool {
	return v.Kind == KindUndefined || v.Kind == KindNull
}

// IsObjectKind reports whether v's Kind carries an *Object payload.
func (v Value) IsObjectKind() bool {
	switch v.Kind {
	case KindObject, KindError, KindFunction, KindDate, KindNumber, KindString, KindBoolean, KindHost:
		return true
	default:
		return false
	}
}

// Object returns v's backing *Object, or nil if v is not an object kind.
func (v Value) Object() *Object {
	if !v.IsObjectKind() {
		return nil
	}
	return v.object
}

// Integer, Binary, Key, Text, Chars, RefHandle and BreakerValue return the raw
// payload for the matching Kind; callers must check Kind first.
func (v Value) Integer() int32      { return v.integer }
func (v Value) Binary() float64     { return v.binary }
func (v Value) Key() key.Key        { return v.key }
func (v Value) Text() text.Text     { return v.text }
func (v Value) Chars() *text.Chars  { return v.chars }
func (v Value) RefHandle() *Ref     { return v.ref }
func (v Value) BreakerValue() int32 { return v.breaker }

// ToBoolean implements the ES3 ToBoolean abstract operation.
func (v Value) ToBoolean() bool {
	switch v.Kind {
	case KindUndefined, KindNull, KindFalse:
		return false
	case KindTrue:
		return true
	case KindInteger:
		return v.integer != 0
	case KindBinary:
		return v.binary != 0 && !math.IsNaN(v.binary)
	case KindText:
		return v.text.Len() > 0
	case KindChars:
		return v.chars.Len() > 0
	default:
		return true // every object kind is truthy
	}
}

// ToNumber implements the ES3 ToNumber abstract operation for primitive
// kinds. Object kinds must be reduced via ToPrimitive by the caller
// first; calling ToNumber directly on an object kind returns NaN.
func (v Value) ToNumber() float64 {
	switch v.Kind {
	case KindUndefined:
		return math.NaN()
	case KindNull:
		return 0
	case KindTrue:
		return 1
	case KindFalse:
		return 0
	case KindInteger:
		return float64(v.integer)
	case KindBinary:
		return v.binary
	case KindText:
		return parseNumericText(v.text.String())
	case KindChars:
		return parseNumericText(v.chars.Text().String())
	default:
		return math.NaN()
	}
}

func parseNumericText(s string) float64 {
	s = trimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return f
	}
	if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
		return f
	}
	return math.NaN()
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && isSpaceByte(s[start]) {
		start++
	}
	for end > start && isSpaceByte(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpaceByte(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

// ToInt32 implements ToInt32 (the wraparound truncation ES3 uses for
// bitwise/shift operators).
func (v Value) ToInt32() int32 {
	f := v.ToNumber()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	u := uint32(int64(f))
	return int32(u)
}

// DisplayString renders v the way an uncaught-throw message or a
// console/REPL echo needs: primitives print their natural text, an object
// prints as "[object TypeName]". It does not perform full ES3 ToPrimitive
// dispatch (no valueOf/toString invocation) since that requires a Context
// to call into script code; the builtin package's Object/Array/String
// wrappers layer real ToPrimitive on top of this for the cases that need
// it.
func (v Value) DisplayString() string {
	switch v.Kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindTrue:
		return "true"
	case KindFalse:
		return "false"
	case KindInteger:
		return strconv.FormatInt(int64(v.integer), 10)
	case KindBinary:
		if math.IsNaN(v.binary) {
			return "NaN"
		}
		return strconv.FormatFloat(v.binary, 'g', -1, 64)
	case KindText:
		return v.text.String()
	case KindChars:
		return v.chars.Text().String()
	default:
		return "[object " + v.TypeName() + "]"
	}
}

// TypeName returns the `typeof` string for v.
func (v Value) TypeName() string {
	switch v.Kind {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "object"
	case KindTrue, KindFalse, KindBoolean:
		return "boolean"
	case KindInteger, KindBinary, KindNumber:
		return "number"
	case KindKey, KindText, KindChars, KindString:
		return "string"
	case KindFunction:
		return "function"
	default:
		return "object"
	}
}
