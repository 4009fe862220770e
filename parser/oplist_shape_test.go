// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package parser_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/probechain/probescript/parser"
	"github.com/probechain/probescript/runtime"
)

// kinds extracts the op-kind sequence from an OpList, the structural shape
// go-cmp is good at diffing without having to teach it runtime.Value's
// unexported union fields.
func kinds(ops *runtime.OpList) []runtime.OpKind {
	out := make([]runtime.OpKind, len(ops.Ops))
	for i, op := range ops.Ops {
		out[i] = op.Kind
	}
	return out
}

func TestCompiledOpShapeIsStableAcrossEquivalentSpellings(t *testing.T) {
	pool := runtime.NewPool()

	a, err := parser.Parse(pool, "a.js", []byte(`var x = 1 + 2;`))
	if err != nil {
		t.Fatalf("parse a: %v", err)
	}
	b, err := parser.Parse(pool, "b.js", []byte(`var   x   =   1   +   2  ;`))
	if err != nil {
		t.Fatalf("parse b: %v", err)
	}

	if diff := cmp.Diff(kinds(a), kinds(b)); diff != "" {
		t.Fatalf("op-kind sequence differs under whitespace-only reformatting (-a +b):\n%s", diff)
	}
}

func TestIfElseCompilesToJumpIfNotThenJump(t *testing.T) {
	pool := runtime.NewPool()

	ifElse, err := parser.Parse(pool, "if.js", []byte(`var y; if (x) { y = 1; } else { y = 2; } y;`))
	if err != nil {
		t.Fatalf("parse if/else: %v", err)
	}

	wantBranch := []runtime.OpKind{runtime.OpJumpIfNot, runtime.OpJump}
	if diff := cmp.Diff(wantBranch, branchKinds(kinds(ifElse))); diff != "" {
		t.Fatalf("if/else branch shape (-want +got):\n%s", diff)
	}
}

func TestTernaryCompilesToASingleConditionalOp(t *testing.T) {
	pool := runtime.NewPool()

	ternary, err := parser.Parse(pool, "ternary.js", []byte(`var y; y = x ? 1 : 2; y;`))
	if err != nil {
		t.Fatalf("parse ternary: %v", err)
	}

	count := 0
	for _, k := range kinds(ternary) {
		if k == runtime.OpConditional {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one OpConditional, got %d in %v", count, kinds(ternary))
	}
}

// branchKinds filters an op-kind sequence down to just the if/else
// control-flow ops, so header/jump placement can be diffed in isolation
// from the assignment and literal ops around them.
func branchKinds(all []runtime.OpKind) []runtime.OpKind {
	var out []runtime.OpKind
	for _, k := range all {
		if k == runtime.OpJumpIfNot || k == runtime.OpJump {
			out = append(out, k)
		}
	}
	return out
}
