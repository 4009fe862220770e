// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package parser_test

import (
	"testing"

	"github.com/probechain/probescript/parser"
	"github.com/probechain/probescript/runtime"
)

// run parses source and executes it against a fresh global environment,
// mirroring runtime_test.go's newEngine/runOps helpers but driven by
// real source text through the lexer and parser.
func run(t *testing.T, source string) (runtime.ControlFlow, *runtime.Object, *runtime.Pool) {
	t.Helper()
	pool := runtime.NewPool()
	global := pool.NewObject(nil, runtime.TypeObject)
	pool.SetGlobal(global)

	ops, err := parser.Parse(pool, "test.js", []byte(source))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	ctx := runtime.NewGlobalContext(pool, global, ops)
	cf, thrown := ctx.Run()
	if thrown != nil {
		t.Fatalf("unexpected throw: %+v", thrown.Value)
	}
	return cf, global, pool
}

func valueString(v runtime.Value) string {
	switch v.Kind {
	case runtime.KindChars:
		return v.Chars().Text().String()
	case runtime.KindText:
		return v.Text().String()
	default:
		return ""
	}
}

func TestArithmeticAndStringCoercion(t *testing.T) {
	cf, _, _ := run(t, `"1" + 2 * 3;`)
	if got := valueString(cf.Value); got != "16" {
		t.Fatalf("result = %q, want %q", got, "16")
	}
}

func TestVarAssignmentAndCompletionValue(t *testing.T) {
	cf, _, _ := run(t, `var x = 10; x = x + 5; x;`)
	if cf.Value.Binary() != 15 {
		t.Fatalf("x = %v, want 15", cf.Value.Binary())
	}
}

func TestFunctionCallBindsParameters(t *testing.T) {
	cf, _, _ := run(t, `
		function add(a, b) { return a + b; }
		add(2, 3);
	`)
	if cf.Value.Binary() != 5 {
		t.Fatalf("result = %+v, want 5", cf)
	}
}

func TestVarHoistsToFunctionScopeNotGlobal(t *testing.T) {
	cf, global, pool := run(t, `
		function f() {
			if (true) {
				var x = 5;
			}
			return x;
		}
		f();
	`)
	if cf.Value.Binary() != 5 {
		t.Fatalf("f() = %v, want 5", cf.Value.Binary())
	}
	if _, ok := global.Member(pool.Keys.MakeWithText("x"), true); ok {
		t.Fatal("expected x to NOT leak onto the global object")
	}
}

func TestForLoopCountsToTen(t *testing.T) {
	cf, _, _ := run(t, `
		var s = 0;
		for (var i = 0; i < 5; i = i + 1) {
			s = s + i;
		}
		s;
	`)
	if cf.Value.Binary() != 10 {
		t.Fatalf("s = %v, want 10", cf.Value.Binary())
	}
}

func TestIfElseBranches(t *testing.T) {
	cf, _, _ := run(t, `
		var x = 1;
		var y;
		if (x > 0) { y = "pos"; } else { y = "neg"; }
		y;
	`)
	if got := valueString(cf.Value); got != "pos" {
		t.Fatalf("y = %q, want %q", got, "pos")
	}
}

func TestTryCatchBindsThrownValue(t *testing.T) {
	cf, _, _ := run(t, `
		var caught;
		try {
			throw "boom";
		} catch (e) {
			caught = e;
		}
		caught;
	`)
	if got := valueString(cf.Value); got != "boom" {
		t.Fatalf("caught = %q, want %q", got, "boom")
	}
}

func TestWhileLoopWithBreak(t *testing.T) {
	cf, _, _ := run(t, `
		var i = 0;
		while (true) {
			if (i >= 3) { break; }
			i = i + 1;
		}
		i;
	`)
	if cf.Value.Binary() != 3 {
		t.Fatalf("i = %v, want 3", cf.Value.Binary())
	}
}

func TestObjectAndArrayLiterals(t *testing.T) {
	cf, _, _ := run(t, `
		var o = { a: 1, b: 2 };
		var arr = [1, 2, 3];
		o.a + arr[2];
	`)
	if cf.Value.Binary() != 4 {
		t.Fatalf("result = %v, want 4", cf.Value.Binary())
	}
}

func TestTernaryAndLogicalOperators(t *testing.T) {
	cf, _, _ := run(t, `
		var a = true && false;
		var b = a ? 1 : 2;
		b;
	`)
	if cf.Value.Binary() != 2 {
		t.Fatalf("b = %v, want 2", cf.Value.Binary())
	}
}
