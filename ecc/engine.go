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

// Package ecc implements the embeddable engine surface spec §4.8 and §6
// describe: lifecycle (create/destroy), global-binding installation
// (addNative/addValue), the two eval entry points, forced collection, and
// uncaught-throw diagnostics. It is the direct Go counterpart of the
// source's Ecc type (original_source/src/ecc.c), re-architected per
// spec §9 so a propagating *runtime.Throw — not setjmp/longjmp — carries
// an uncaught exception back to EvalInput.
package ecc

import (
	"fmt"
	"io"
	"os"

	"github.com/go-stack/stack"

	"github.com/probechain/probescript/internal/diagnostic"
	"github.com/probechain/probescript/internal/errorx"
	"github.com/probechain/probescript/lexer"
	"github.com/probechain/probescript/parser"
	"github.com/probechain/probescript/runtime"
	"github.com/probechain/probescript/text"
)

// Engine is one embeddable interpreter instance: its own Pool (hence its
// own key interner and object/char arenas, never shared across engines),
// global object, configuration, eval cache, and the Inputs it has
// evaluated.
type Engine struct {
	Config Config

	pool   *runtime.Pool
	global *runtime.Object
	cache  *evalCache
	inputs []*Input

	nextGCThreshold int // see MaybeCollect

	// Stderr receives uncaught-throw diagnostics; defaults to os.Stderr
	// but is swappable so tests and embedders can redirect it (the
	// source prints unconditionally to its Env abstraction).
	Stderr io.Writer
}

// New creates an Engine, mirroring the source's create(): a fresh global
// environment carrying the three predeclared bindings ES3's global object
// always has (Infinity, NaN, undefined; `null` is a language keyword in
// this implementation, not a global binding, since token.NULL already
// lexes it — see token.go).
func New(cfg Config) *Engine {
	pool := runtime.NewPool()
	if cfg.MaxCallDepth > 0 {
		pool.MaxCallDepth = cfg.MaxCallDepth
	}
	global := pool.NewObject(nil, runtime.TypeObject)
	pool.SetGlobal(global)

	e := &Engine{
		Config: cfg,
		pool:   pool,
		global: global,
		cache:  newEvalCache(cfg.EvalCacheSize),
		Stderr: os.Stderr,
	}
	e.AddValue("Infinity", runtime.Binary(infinity), runtime.FlagReadonly|runtime.FlagHidden)
	e.AddValue("NaN", runtime.Binary(nan), runtime.FlagReadonly|runtime.FlagHidden)
	e.AddValue("undefined", runtime.Undefined(), runtime.FlagReadonly|runtime.FlagHidden)
	return e
}

const (
	infinity = 1e308 * 10 // overflows to +Inf in IEEE-754 double arithmetic
	nan      = infinity - infinity
)

// Destroy releases every Input the Engine was given. The Pool and its
// arenas are ordinary Go-GC'd memory once the Engine itself becomes
// unreachable; unlike the source's malloc/free discipline there is no
// explicit teardown step for them (spec §9's "host language's own GC
// reclaims the Pool" redesign note).
func (e *Engine) Destroy() {
	e.inputs = nil
}

// Pool exposes the underlying runtime.Pool so the builtin package can
// register prototypes and wrap native functions without Engine needing
// to re-export every Pool method.
func (e *Engine) Pool() *runtime.Pool { return e.pool }

// Global returns the engine's global object.
func (e *Engine) Global() *runtime.Object { return e.global }

// AddNative installs a native function as a global binding, matching the
// source's addNative (spec §4.8).
func (e *Engine) AddNative(name string, paramCount int, fn runtime.Native) {
	f := e.pool.NewNativeFunction(nil, name, paramCount, fn)
	e.AddValue(name, runtime.ObjectValue(runtime.KindFunction, f.Object), 0)
}

// AddValue installs an arbitrary value as a global binding, matching the
// source's addValue.
func (e *Engine) AddValue(name string, v runtime.Value, flags runtime.Flag) {
	e.global.AddMember(e.pool.Keys.MakeWithText(name), v, flags)
}

// rootContext builds the Context top-level statements run against.
func (e *Engine) rootContext(ops *runtime.OpList) *runtime.Context {
	return runtime.NewGlobalContext(e.pool, e.global, ops)
}

// EvalInput lexes, parses, and executes input's source against the
// global environment, matching the source's eval(Instance, Input).
// Returns the Program's completion value on success; an uncaught throw
// is reported to e.Stderr via internal/diagnostic and returned as a
// *errorx.ScriptError, and a lex/parse failure is returned the same way
// without ever reaching execution.
func (e *Engine) EvalInput(input *Input) (runtime.Value, error) {
	e.inputs = append(e.inputs, input)

	ops, err := parser.Parse(e.pool, input.Name, input.Source)
	if err != nil {
		return runtime.Value{}, e.wrapParseError(err)
	}

	cf, thrown := e.rootContext(ops).Run()
	if thrown != nil {
		return runtime.Value{}, e.reportThrow(thrown)
	}
	return cf.Value, nil
}

// EvalInputWithContext runs input inside caller's own lexical Context
// (runtime.NewEvalContext) instead of a fresh global frame, backing the
// `eval` builtin. Every call to `eval` runs this way, as "direct eval"
// against the caller's own scope; there is no separate indirect-eval
// code path that instead evaluates against the global scope.
func (e *Engine) EvalInputWithContext(input *Input, caller *runtime.Context) (runtime.Value, error) {
	if !e.Config.AllowEval {
		return runtime.Value{}, errorx.New(errorx.TypeError, text.Text{}, "eval is disabled")
	}

	var ops *runtime.OpList
	if cached, ok := e.cache.get(string(input.Source)); ok {
		ops = cached
	} else {
		parsed, err := parser.Parse(e.pool, input.Name, input.Source)
		if err != nil {
			return runtime.Value{}, e.wrapParseError(err)
		}
		ops = parsed
		e.cache.put(string(input.Source), ops)
	}

	ctx := runtime.NewEvalContext(caller, ops)
	cf, thrown := ctx.Run()
	if thrown != nil {
		return runtime.Value{}, e.reportThrow(thrown)
	}
	return cf.Value, nil
}

// GarbageCollect forces one full mark-and-sweep pass, matching the
// source's garbageCollect (spec §4.8's "force a full sweep").
func (e *Engine) GarbageCollect() {
	e.pool.GarbageCollect()
}

// MaybeCollect runs GarbageCollect only once the live object arena has
// grown past the configured threshold, then raises the threshold by the
// configured step — an opportunistic policy a host (the REPL, a
// long-running embedding) can call between top-level evaluations without
// tying collection to a fixed allocation count. This is a policy layered
// on top of the explicit-GC discipline spec §5 requires, not a hidden
// auto-trigger: nothing but this call (or a direct GarbageCollect call)
// ever invokes the collector.
func (e *Engine) MaybeCollect() {
	threshold := e.Config.GCInitialThreshold
	if threshold <= 0 {
		threshold = DefaultConfig.GCInitialThreshold
	}
	if e.nextGCThreshold == 0 {
		e.nextGCThreshold = threshold
	}
	if e.pool.Stat().Objects < e.nextGCThreshold {
		return
	}
	e.GarbageCollect()
	step := e.Config.GCStepThreshold
	if step <= 0 {
		step = DefaultConfig.GCStepThreshold
	}
	e.nextGCThreshold = e.pool.Stat().Objects + step
}

// wrapParseError classifies a lex/parse failure (always a SyntaxError)
// into a *errorx.ScriptError, carrying the offending span when the
// underlying error exposes one.
func (e *Engine) wrapParseError(err error) error {
	var span text.Text
	if le, ok := err.(*lexer.Error); ok {
		span = le.Text
	}
	se := errorx.New(errorx.SyntaxError, span, "%s", err)
	diagnostic.Print(e.Stderr, se)
	return se
}

// reportThrow classifies an uncaught *runtime.Throw's value into the
// matching error Kind, prints the diagnostic excerpt, and returns the
// host-visible *errorx.ScriptError.
func (e *Engine) reportThrow(thrown *runtime.Throw) error {
	kind, message := classifyThrow(e.pool, thrown.Value)
	se := errorx.New(kind, e.pool.CurrentText, "%s", message)
	diagnostic.Print(e.Stderr, se)
	return se
}

// classifyThrow inspects a thrown Value: an Error-shaped object (spec
// §7's taxonomy, built via Context.NewError or a future builtin
// constructor) contributes its own "name"/"message" properties; anything
// else renders via DisplayString under a generic Error kind, matching
// ES3's "any value may be thrown" rule (spec §7).
func classifyThrow(pool *runtime.Pool, v runtime.Value) (errorx.Kind, string) {
	if v.IsObjectKind() && v.Object() != nil && v.Object().Type == runtime.TypeError {
		name := "Error"
		if nv, ok := v.Object().Member(pool.Keys.Predefined.Name, true); ok {
			name = nv.DisplayString()
		}
		message := ""
		if mv, ok := v.Object().Member(pool.Keys.Predefined.Message, true); ok {
			message = mv.DisplayString()
		}
		return errorx.KindFromName(name), message
	}
	return errorx.GenericError, v.DisplayString()
}

// fatal reports an unrecoverable host-side condition (pool corruption, a
// bad native-ABI call) and aborts, matching the source's unused-but-
// declared fatal concept. Unlike a script throw this never returns: spec
// §4.8 lists it as an abort path, not a catchable exception. The Go call
// stack is captured with go-stack/stack so the operator sees where in
// Go code — not script code — the fault originated.
func (e *Engine) fatal(format string, args ...interface{}) {
	trace := stack.Trace().TrimRuntime()
	fmt.Fprintf(e.Stderr, "fatal: %s\n%+v\n", fmt.Sprintf(format, args...), trace)
	os.Exit(1)
}
