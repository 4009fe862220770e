// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package ecc_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/probechain/probescript/ecc"
	"github.com/probechain/probescript/internal/errorx"
	"github.com/probechain/probescript/runtime"
)

// newGlobalCallerContext builds a bare root Context to pass as the
// "caller" frame EvalInputWithContext runs against, mirroring how a
// real `eval` builtin would receive the invoking Context.
func newGlobalCallerContext(pool *runtime.Pool, global *runtime.Object) *runtime.Context {
	return runtime.NewGlobalContext(pool, global, runtime.NewOpList(nil))
}

func newTestEngine() *ecc.Engine {
	e := ecc.New(ecc.DefaultConfig)
	e.Stderr = &bytes.Buffer{}
	return e
}

func TestEvalInputReturnsCompletionValue(t *testing.T) {
	e := newTestEngine()
	input := ecc.CreateInputFromBytes([]byte(`"1" + 2 * 3;`), "test.js")

	v, err := e.EvalInput(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := v.DisplayString(); got != "16" {
		t.Fatalf("result = %q, want %q", got, "16")
	}
}

func TestEvalInputSyntaxError(t *testing.T) {
	e := newTestEngine()
	input := ecc.CreateInputFromBytes([]byte(`var x = ;`), "bad.js")

	_, err := e.EvalInput(input)
	if err == nil {
		t.Fatal("expected a syntax error, got nil")
	}
	se, ok := err.(*errorx.ScriptError)
	if !ok {
		t.Fatalf("error = %T, want *errorx.ScriptError", err)
	}
	if se.Kind != errorx.SyntaxError {
		t.Fatalf("kind = %v, want SyntaxError", se.Kind)
	}
}

func TestEvalInputUncaughtThrow(t *testing.T) {
	e := newTestEngine()
	input := ecc.CreateInputFromBytes([]byte(`throw "boom";`), "throw.js")

	_, err := e.EvalInput(input)
	if err == nil {
		t.Fatal("expected an uncaught throw, got nil")
	}
	se, ok := err.(*errorx.ScriptError)
	if !ok {
		t.Fatalf("error = %T, want *errorx.ScriptError", err)
	}
	if se.Kind != errorx.GenericError {
		t.Fatalf("kind = %v, want GenericError", se.Kind)
	}
	if se.Message != "boom" {
		t.Fatalf("message = %q, want %q", se.Message, "boom")
	}

	stderr := e.Stderr.(*bytes.Buffer).String()
	if !strings.Contains(stderr, "boom") {
		t.Fatalf("diagnostic output %q does not mention the thrown message", stderr)
	}
}

func TestEvalInputCaughtThrowDoesNotPropagate(t *testing.T) {
	e := newTestEngine()
	input := ecc.CreateInputFromBytes([]byte(`
		var caught;
		try {
			throw "inner";
		} catch (e) {
			caught = e;
		}
		caught;
	`), "catch.js")

	v, err := e.EvalInput(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := v.DisplayString(); got != "inner" {
		t.Fatalf("caught = %q, want %q", got, "inner")
	}
}

func TestEvalInputWithContextDisabledByConfig(t *testing.T) {
	cfg := ecc.DefaultConfig
	cfg.AllowEval = false
	e := ecc.New(cfg)
	e.Stderr = &bytes.Buffer{}

	input := ecc.CreateInputFromBytes([]byte(`1;`), "(eval)")
	pool := e.Pool()
	global := e.Global()
	caller := newGlobalCallerContext(pool, global)

	_, err := e.EvalInputWithContext(input, caller)
	if err == nil {
		t.Fatal("expected eval to be rejected, got nil error")
	}
	se, ok := err.(*errorx.ScriptError)
	if !ok {
		t.Fatalf("error = %T, want *errorx.ScriptError", err)
	}
	if se.Kind != errorx.TypeError {
		t.Fatalf("kind = %v, want TypeError", se.Kind)
	}
}

func TestEvalInputWithContextRunsInCallerEnvironment(t *testing.T) {
	e := newTestEngine()
	pool := e.Pool()
	global := e.Global()

	setup := ecc.CreateInputFromBytes([]byte(`var x = 10;`), "setup.js")
	if _, err := e.EvalInput(setup); err != nil {
		t.Fatalf("unexpected error in setup: %v", err)
	}

	caller := newGlobalCallerContext(pool, global)
	input := ecc.CreateInputFromBytes([]byte(`x + 5;`), "(eval)")
	v, err := e.EvalInputWithContext(input, caller)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Binary() != 15 {
		t.Fatalf("result = %v, want 15", v.Binary())
	}
}

func TestEvalInputWithContextCachesCompiledSource(t *testing.T) {
	e := newTestEngine()
	pool := e.Pool()
	global := e.Global()
	caller := newGlobalCallerContext(pool, global)

	source := []byte(`40 + 2;`)
	first, err := e.EvalInputWithContext(ecc.CreateInputFromBytes(source, "(eval)"), caller)
	if err != nil {
		t.Fatalf("unexpected error on first eval: %v", err)
	}
	second, err := e.EvalInputWithContext(ecc.CreateInputFromBytes(source, "(eval)"), caller)
	if err != nil {
		t.Fatalf("unexpected error on second eval: %v", err)
	}
	if first.Binary() != second.Binary() {
		t.Fatalf("cached eval diverged: %v vs %v", first.Binary(), second.Binary())
	}
}

func TestMaybeCollectDoesNotPanic(t *testing.T) {
	cfg := ecc.DefaultConfig
	cfg.GCInitialThreshold = 0
	cfg.GCStepThreshold = 1
	e := ecc.New(cfg)
	e.Stderr = &bytes.Buffer{}

	// Below the (defaulted) initial threshold, MaybeCollect is a no-op;
	// above it, it forces a collection and reschedules itself. Exercise
	// it twice to confirm it never panics regardless of arena size.
	e.MaybeCollect()
	e.MaybeCollect()
}
