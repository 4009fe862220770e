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
	"errors"
	"strconv"

	"github.com/probechain/probescript/key"
)

// ErrNoExec is returned by accessor paths that need to invoke a getter or
// setter function but were not given a Context to run it in.
var ErrNoExec = errors.New("runtime: accessor access requires a Context")

// slot is one occupied element or hashmap entry: a Value plus its
// attribute flags. FlagCheck distinguishes a live slot from a hole; a
// slot with FlagCheck unset is treated as absent.
type slot struct {
	value Value
}

func (s slot) live() bool { return s.value.Flags&FlagCheck != 0 }

// ObjectType is a lightweight vtable: a human-readable class name plus
// optional per-type hooks the Pool's tracing collector invokes.
type ObjectType struct {
	Name     string
	Mark     func(o *Object, mark func(*Object))
	Finalize func(o *Object)
}

var (
	TypeObject   = &ObjectType{Name: "Object"}
	TypeArray    = &ObjectType{Name: "Array"}
	TypeFunction = &ObjectType{Name: "Function"}
	TypeError    = &ObjectType{Name: "Error"}
	TypeArgs     = &ObjectType{Name: "Arguments"}
	TypeDate     = &ObjectType{Name: "Date"}
	TypeRegExp   = &ObjectType{Name: "RegExp"}
)

// Object is a prototype-chained record backed by two independent stores:
// a dense, integer-indexed element array, and a key-indexed hashmap (a
// plain Go map keyed by key.Key — see the key package doc for why this
// replaces the source's 4-nibble trie).
type Object struct {
	Prototype *Object
	Type      *ObjectType

	elements []slot
	hashmap  map[key.Key]slot
	// order preserves hashmap insertion order for enumeration (for-in,
	// Object.keys), matching observable host behavior even though a Go
	// map has none of its own.
	order []key.Key

	referenceCount int16
	sealedFlag     bool // object-level seal/freeze bit (no new properties)
	mark           bool // GC mark bit, see Pool.GarbageCollect

	// AsFunction is non-nil when this Object backs a Function (Type ==
	// TypeFunction); it lets code holding only an *Object reach the
	// Function's environment/OpList/pair without a type switch over
	// every object sub-kind.
	AsFunction *Function
}

// NewObject creates an empty object with the given prototype and type.
// The caller is responsible for registering it with a Pool.
func NewObject(prototype *Object, typ *ObjectType) *Object {
	if typ == nil {
		typ = TypeObject
	}
	return &Object{Prototype: prototype, Type: typ, hashmap: make(map[key.Key]slot)}
}

// Sealed reports the object-level seal bit.
func (o *Object) Sealed() bool { return o.sealedFlag }

// Seal sets the object-level seal bit and marks every live property
// slot sealed (non-configurable), matching Object.seal.
func (o *Object) Seal() {
	o.sealedFlag = true
	for i, s := range o.elements {
		if s.live() {
			o.elements[i].value.Flags |= FlagSealed
		}
	}
	for k, s := range o.hashmap {
		if s.live() {
			s.value.Flags |= FlagSealed
			o.hashmap[k] = s
		}
	}
}

// Freeze seals the object and additionally marks every live property
// slot readonly, matching Object.freeze.
func (o *Object) Freeze() {
	o.Seal()
	for i, s := range o.elements {
		if s.live() {
			o.elements[i].value.Flags |= FlagReadonly
		}
	}
	for k, s := range o.hashmap {
		if s.live() {
			s.value.Flags |= FlagReadonly
			o.hashmap[k] = s
		}
	}
}

// IsSealed reports whether the object and all of its live properties are
// non-configurable.
func (o *Object) IsSealed() bool {
	if !o.sealedFlag {
		return false
	}
	for _, s := range o.elements {
		if s.live() && s.value.Flags&FlagSealed == 0 {
			return false
		}
	}
	for _, s := range o.hashmap {
		if s.live() && s.value.Flags&FlagSealed == 0 {
			return false
		}
	}
	return true
}

// IsFrozen reports whether the object is sealed and every live property
// is additionally readonly.
func (o *Object) IsFrozen() bool {
	if !o.IsSealed() {
		return false
	}
	for _, s := range o.elements {
		if s.live() && s.value.Flags&FlagReadonly == 0 {
			return false
		}
	}
	for _, s := range o.hashmap {
		if s.live() && s.value.Flags&FlagReadonly == 0 {
			return false
		}
	}
	return true
}

// elementIndex reports whether name is a valid dense-array index (an
// integer in [0, 2^32-2] with a canonical decimal spelling), matching
// getElementOrKey's integer-coercible classification.
func elementIndex(name string) (uint32, bool) {
	if name == "" {
		return 0, false
	}
	if name == "0" {
		return 0, true
	}
	if name[0] < '1' || name[0] > '9' {
		return 0, false
	}
	for i := 1; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(name, 10, 32)
	if err != nil || n > 0xFFFFFFFE {
		return 0, false
	}
	// Reject non-canonical spellings (leading zero already excluded above).
	return uint32(n), true
}

// Member looks up a key-indexed property, walking the prototype chain
// unless own is true. Returns (Value, true) on hit.
func (o *Object) Member(k key.Key, own bool) (Value, bool) {
	for cur := o; cur != nil; cur = cur.Prototype {
		if s, ok := cur.hashmap[k]; ok && s.live() {
			return s.value, true
		}
		if own {
			break
		}
	}
	return Value{}, false
}

// Element looks up an integer-indexed property, walking the prototype
// chain unless own is true.
func (o *Object) Element(idx uint32, own bool) (Value, bool) {
	for cur := o; cur != nil; cur = cur.Prototype {
		if int(idx) < len(cur.elements) {
			if s := cur.elements[idx]; s.live() {
				return s.value, true
			}
		}
		if own {
			break
		}
	}
	return Value{}, false
}

// GetElementOrKey classifies a property name the way the source's
// getElementOrKey does: a canonical non-negative integer spelling routes
// to the element store, everything else is a key.
func GetElementOrKey(pool *Pool, name string) (idx uint32, k key.Key, isElement bool) {
	if i, ok := elementIndex(name); ok {
		return i, key.None, true
	}
	return 0, pool.Keys.MakeWithText(name), false
}

// AddMember installs a key-indexed own property. If a complementary
// accessor already occupies the slot (the new value is a getter and the
// slot holds a setter, or vice versa), the incoming Function's pair is
// linked to the previous one so both halves survive, mirroring the
// source's accessor install rule.
func (o *Object) AddMember(k key.Key, v Value, flags Flag) {
	v.Flags = flags | FlagCheck
	if prev, ok := o.hashmap[k]; ok && prev.live() && prev.value.Flags&Accessor != 0 && v.Flags&Accessor != 0 {
		if prev.value.Flags&FlagGetter != v.Flags&FlagGetter {
			pairAccessors(&v, prev.value)
		}
	}
	if _, existed := o.hashmap[k]; !existed {
		o.order = append(o.order, k)
	}
	o.hashmap[k] = slot{value: v}
}

// pairAccessors links newVal's Function.Pair to prevVal's function, so
// a freshly-installed getter remembers the setter already on the slot
// (or vice versa).
func pairAccessors(newVal *Value, prevVal Value) {
	nf := newVal.Object()
	pf := prevVal.Object()
	if nf == nil || pf == nil || nf.AsFunction == nil || pf.AsFunction == nil {
		return
	}
	nf.AsFunction.Pair = pf.AsFunction
}

// AddElement installs an integer-indexed own property, growing the
// dense array to the next power of two at or above idx+1 as needed.
func (o *Object) AddElement(idx uint32, v Value, flags Flag) {
	v.Flags = flags | FlagCheck
	if int(idx) >= len(o.elements) {
		newCap := nextPow2(idx + 1)
		if newCap < 8 {
			newCap = 8
		}
		grown := make([]slot, newCap)
		copy(grown, o.elements)
		o.elements = grown
	}
	o.elements[idx] = slot{value: v}
}

func nextPow2(n uint32) uint32 {
	p := uint32(1)
	for p < n {
		p <<= 1
	}
	return p
}

// DeleteMember removes a key-indexed own property. Returns false
// (no-op) if the slot is sealed, and true (no-op) if it is absent.
func (o *Object) DeleteMember(k key.Key) bool {
	s, ok := o.hashmap[k]
	if !ok || !s.live() {
		return true
	}
	if s.value.Flags&FlagSealed != 0 {
		return false
	}
	delete(o.hashmap, k)
	for i, ok2 := range o.order {
		if ok2 == k {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
	return true
}

// DeleteElement removes an integer-indexed own property.
func (o *Object) DeleteElement(idx uint32) bool {
	if int(idx) >= len(o.elements) {
		return true
	}
	if o.elements[idx].value.Flags&FlagSealed != 0 {
		return false
	}
	o.elements[idx] = slot{}
	return true
}

// ElementCount returns the current capacity of the dense element array
// (not all slots within it are necessarily live).
func (o *Object) ElementCount() int { return len(o.elements) }

// OwnKeys returns the object's own enumerable key-indexed property
// names in insertion order (for for-in / Object.keys).
func (o *Object) OwnKeys(includeHidden bool) []key.Key {
	var out []key.Key
	for _, k := range o.order {
		s := o.hashmap[k]
		if !s.live() {
			continue
		}
		if !includeHidden && s.value.Flags&FlagHidden != 0 {
			continue
		}
		out = append(out, k)
	}
	return out
}

// ResizeElements implements Array's magic length setter: truncating
// drops trailing slots, extending zero-pads them.
func (o *Object) ResizeElements(n uint32) {
	switch {
	case int(n) < len(o.elements):
		o.elements = o.elements[:n]
	case int(n) > len(o.elements):
		grown := make([]slot, n)
		copy(grown, o.elements)
		o.elements = grown
	}
}
