// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package key implements the Pool-scoped interner (one Pool per Engine)
// that produces compact Key handles from property names.
//
// Design overview:
//
//   - A Key is a 32-bit handle: its low 16 bits are an index into a linear
//     table of interned Text entries; the high 16 bits are reserved for a
//     future packed trie-path encoding and are unused since Object's own
//     store is a plain map keyed by Key rather than a trie.
//   - None is the sentinel zero Key, matching no interned name.
//   - A fixed table of predefined keys is interned once by NewPool and is
//     immortal for the life of the Pool that owns it.
package key

import mapset "github.com/deckarep/golang-set"

// Key is an interned property-name handle. Two Keys compare equal iff they
// were interned from byte-identical names.
type Key uint32

// None is the sentinel Key matching no interned name.
const None Key = 0

// Pool is a scoped interner: one per Engine, so that multiple engines
// embedded in one process never share (or race on) intern tables.
type Pool struct {
	names      []string       // index 0 is unused (reserved for None)
	index      map[string]Key // name -> Key, for O(1) lookup
	Predefined Predefined
}

// NewPool creates an empty interner and installs the predefined keys.
func NewPool() *Pool {
	p := &Pool{
		names: make([]string, 1, 64), // names[0] unused, aligns with None
		index: make(map[string]Key, 64),
	}
	p.setupPredefined()
	return p
}

// MakeWithText interns name, returning its Key. A name seen before returns
// the same Key every time.
func (p *Pool) MakeWithText(name string) Key {
	if k, ok := p.index[name]; ok {
		return k
	}
	k := Key(len(p.names))
	p.names = append(p.names, name)
	p.index[name] = k
	return k
}

// Text returns the interned name for k, or "" if k is unknown.
func (p *Pool) Text(k Key) string {
	if int(k) <= 0 || int(k) >= len(p.names) {
		return ""
	}
	return p.names[k]
}

// Count reports how many names are currently interned (including the
// reserved zero slot).
func (p *Pool) Count() int {
	return len(p.names)
}

// Predefined keys, interned once per Pool by setupPredefined. Declared as a
// struct of fields rather than package-level vars since each Engine owns
// its own Pool (and hence its own Key values for "prototype", etc.).
type Predefined struct {
	Prototype     Key
	Constructor   Key
	Length        Key
	Arguments     Key
	Name          Key
	Message       Key
	ToString      Key
	ValueOf       Key
	Eval          Key
	Value         Key
	Writable      Key
	Enumerable    Key
	Configurable  Key
	Get           Key
	Set           Key
	Callee        Key
	This          Key
}

var predefinedNames = []string{
	"prototype", "constructor", "length", "arguments", "name", "message",
	"toString", "valueOf", "eval", "value", "writable", "enumerable",
	"configurable", "get", "set", "callee", "this",
}

// ReservedSet is the set of predefined property names, exposed for tests
// and diagnostics that need to ask "is this name one of the engine's
// built-in own keys" without hard-coding the list twice.
func (p *Pool) ReservedSet() mapset.Set {
	s := mapset.NewSet()
	for _, n := range predefinedNames {
		s.Add(n)
	}
	return s
}

func (p *Pool) setupPredefined() {
	pre := &p.Predefined
	pre.Prototype = p.MakeWithText("prototype")
	pre.Constructor = p.MakeWithText("constructor")
	pre.Length = p.MakeWithText("length")
	pre.Arguments = p.MakeWithText("arguments")
	pre.Name = p.MakeWithText("name")
	pre.Message = p.MakeWithText("message")
	pre.ToString = p.MakeWithText("toString")
	pre.ValueOf = p.MakeWithText("valueOf")
	pre.Eval = p.MakeWithText("eval")
	pre.Value = p.MakeWithText("value")
	pre.Writable = p.MakeWithText("writable")
	pre.Enumerable = p.MakeWithText("enumerable")
	pre.Configurable = p.MakeWithText("configurable")
	pre.Get = p.MakeWithText("get")
	pre.Set = p.MakeWithText("set")
	pre.Callee = p.MakeWithText("callee")
	pre.This = p.MakeWithText("this")
}
