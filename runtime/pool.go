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
	"github.com/fjl/memsize"

	"github.com/probechain/probescript/key"
	"github.com/probechain/probescript/text"
)

// Pool is the engine's tracing garbage collector: two arenas (objects,
// which also holds every Function's embedded Object, and chars) swept
// mark-and-sweep, rooted at the global object and every live Context's
// environment and this value. Object/Function/Chars factories register their result here
// immediately, mirroring the source's "factories register with Pool on
// creation" ownership rule (spec §3, Ownership and lifecycle).
//
// Cyclic object graphs (spec §9, "Cyclic object graphs"): objects
// reference each other through ordinary Go pointers, not owned
// tree-shaped pointers, so the pool — not Go's own GC — is what decides
// when a cycle of otherwise-unreachable objects is collectible.
// Registering everything here and tracing roots explicitly reproduces
// the source's arena-plus-mark-sweep design one-for-one.
type Pool struct {
	Keys *key.Pool

	objects []*Object
	chars   []*text.Chars

	global *Object
	roots  []*Context // live call frames; their environments are GC roots

	gcCount int

	// CurrentText mirrors the source's single global ecc->text pointer:
	// every exec() dispatch overwrites it with the currently executing
	// op's span regardless of call depth, so an uncaught Throw always
	// has the innermost offending span available for diagnostics, not
	// just whatever the outermost Context's own Cursor was pointing at.
	CurrentText text.Text

	// MaxCallDepth overrides DefaultMaxCallDepth when positive, letting
	// ecc.Config's "maximum call depth" setting actually take effect
	// instead of every engine sharing one compiled-in constant.
	MaxCallDepth int
}

// NewPool creates an empty Pool with a fresh per-engine key interner
// (spec §9: "scope an intern table per engine, not per process").
func NewPool() *Pool {
	return &Pool{Keys: key.NewPool(), MaxCallDepth: DefaultMaxCallDepth}
}

// maxCallDepth resolves the effective recursion bound: p.MaxCallDepth if
// set, else the package default.
func (p *Pool) maxCallDepth() int {
	if p.MaxCallDepth > 0 {
		return p.MaxCallDepth
	}
	return DefaultMaxCallDepth
}

// SetGlobal records the engine's global object as a permanent GC root.
func (p *Pool) SetGlobal(g *Object) { p.global = g }

// PushContext and PopContext maintain the live-context root list a
// garbage collection traces through.
func (p *Pool) PushContext(c *Context) { p.roots = append(p.roots, c) }

func (p *Pool) PopContext() {
	if len(p.roots) > 0 {
		p.roots = p.roots[:len(p.roots)-1]
	}
}

// NewObject allocates and registers a plain object with the pool.
func (p *Pool) NewObject(prototype *Object, typ *ObjectType) *Object {
	o := NewObject(prototype, typ)
	p.objects = append(p.objects, o)
	return o
}

// NewFunction allocates and registers a Function with the pool.
func (p *Pool) NewFunction(prototype *Object, name string, paramCount int) *Function {
	fn := NewFunction(prototype, name, paramCount)
	p.objects = append(p.objects, fn.Object)
	return fn
}

// NewNativeFunction allocates and registers a native Function.
func (p *Pool) NewNativeFunction(prototype *Object, name string, paramCount int, nf Native) *Function {
	fn := NewNativeFunction(prototype, name, paramCount, nf)
	p.objects = append(p.objects, fn.Object)
	return fn
}

// RegisterChars registers a completed Chars blob (one built via
// text.BeginAppend/EndAppend, or a factory such as text.CreateWithText)
// with the pool, matching endAppend's "registers with Pool" contract.
// Append-mode Chars (Appending() == true) must not be registered; the
// pool's sweep would otherwise be free to collect a blob mid-build.
func (p *Pool) RegisterChars(c *text.Chars) *text.Chars {
	if c.Appending() {
		panic("runtime: cannot register a Chars still in append mode")
	}
	p.chars = append(p.chars, c)
	return c
}

// GarbageCollect runs one full mark-and-sweep pass: unmark everything,
// mark from the roots (global object plus every live Context's
// environment and this value, and everything reachable from them), then sweep
// each arena, invoking each object type's Finalize hook on unmarked
// entries before dropping them.
func (p *Pool) GarbageCollect() {
	p.gcCount++
	for _, o := range p.objects {
		o.mark = false
	}
	for _, c := range p.chars {
		c.Unmark()
	}

	if p.global != nil {
		p.markObject(p.global)
	}
	for _, ctx := range p.roots {
		if ctx.Environment != nil {
			p.markObject(ctx.Environment)
		}
		p.markValue(ctx.This)
	}

	p.objects = sweepObjects(p.objects)
	p.chars = sweepChars(p.chars)
}

func (p *Pool) markObject(o *Object) {
	if o == nil || o.mark {
		return
	}
	o.mark = true
	if o.Prototype != nil {
		p.markObject(o.Prototype)
	}
	for _, s := range o.elements {
		if s.live() {
			p.markValue(s.value)
		}
	}
	for _, s := range o.hashmap {
		if s.live() {
			p.markValue(s.value)
		}
	}
	if o.Type != nil && o.Type.Mark != nil {
		o.Type.Mark(o, p.markObject)
	}
	if fn := o.AsFunction; fn != nil {
		if fn.Environment != nil {
			p.markObject(fn.Environment)
		}
		if fn.Pair != nil {
			p.markObject(fn.Pair.Object)
		}
	}
}

func (p *Pool) markValue(v Value) {
	switch v.Kind {
	case KindChars:
		if c := v.Chars(); c != nil {
			c.Mark()
		}
	default:
		if v.IsObjectKind() {
			p.markObject(v.Object())
		}
	}
}

func sweepObjects(objs []*Object) []*Object {
	kept := objs[:0]
	for _, o := range objs {
		if o.mark {
			kept = append(kept, o)
			continue
		}
		if o.Type != nil && o.Type.Finalize != nil {
			o.Type.Finalize(o)
		}
	}
	return kept
}

func sweepChars(chars []*text.Chars) []*text.Chars {
	kept := chars[:0]
	for _, c := range chars {
		if c.Marked() || c.Appending() || c.RefCount() > 0 {
			kept = append(kept, c)
		}
	}
	return kept
}

// Stats summarizes pool occupancy for diagnostics.
type Stats struct {
	Objects  int
	Chars    int
	GCCycles int
}

// Stat reports current arena sizes and the number of completed GC cycles.
func (p *Pool) Stat() Stats {
	return Stats{Objects: len(p.objects), Chars: len(p.chars), GCCycles: p.gcCount}
}

// MemSize estimates the pool's total retained heap footprint using
// fjl/memsize's recursive, cycle-safe sizer, so an embedder can report
// script-heap size without pulling in a full profiler.
func (p *Pool) MemSize() uint64 {
	r := memsize.Scan(p)
	return r.Total
}
