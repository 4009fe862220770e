// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package runtime_test

import (
	"testing"

	"github.com/probechain/probescript/runtime"
	"github.com/probechain/probescript/text"
)

// newEngine builds a bare Pool + global environment, enough to run a
// hand-built OpList without the parser.
func newEngine() (*runtime.Pool, *runtime.Object) {
	pool := runtime.NewPool()
	global := pool.NewObject(nil, runtime.TypeObject)
	pool.SetGlobal(global)
	return pool, global
}

func op(kind runtime.OpKind, v runtime.Value) runtime.Op {
	return runtime.Op{Kind: kind, Value: v}
}

func runOps(t *testing.T, pool *runtime.Pool, global *runtime.Object, ops []runtime.Op) (runtime.ControlFlow, *runtime.Throw) {
	t.Helper()
	ctx := runtime.NewGlobalContext(pool, global, runtime.NewOpList(ops))
	return ctx.Run()
}

func charsValue(s string) runtime.Value {
	return runtime.CharsValue(text.CreateWithText(text.FromString(s)))
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

// Scenario 1 (spec §8): "1" + 2 * 3 → string "16".
func TestArithmeticAndCoercion(t *testing.T) {
	pool, global := newEngine()
	ops := []runtime.Op{
		op(runtime.OpAdd, runtime.Value{}),
		{Kind: runtime.OpText, Text: text.FromString("1")},
		op(runtime.OpMultiply, runtime.Value{}),
		op(runtime.OpValue, runtime.Binary(2)),
		op(runtime.OpValue, runtime.Binary(3)),
	}
	cf, thrown := runOps(t, pool, global, ops)
	if thrown != nil {
		t.Fatalf("unexpected throw: %v", thrown)
	}
	if got := valueString(cf.Value); got != "16" {
		t.Fatalf("result = %q, want %q", got, "16")
	}
}

// Scenario 2 (spec §8): a[3]='x'; a.length==4, a[3]=='x'.
func TestArrayElementVsProperty(t *testing.T) {
	pool, _ := newEngine()
	arr := pool.NewObject(nil, runtime.TypeArray)
	arr.AddElement(3, charsValue("x"), 0)
	arr.AddMember(pool.Keys.Predefined.Length, runtime.Integer(4), 0)

	v, ok := arr.Element(3, true)
	if !ok || valueString(v) != "x" {
		t.Fatalf("a[3] = %+v, want \"x\"", v)
	}
	lengthVal, ok := arr.Member(pool.Keys.Predefined.Length, true)
	if !ok || lengthVal.Integer() != 4 {
		t.Fatalf("a.length = %+v, want 4", lengthVal)
	}
}

// Scenario 3 (spec §8): accessor property + freeze → the object reports
// frozen, and the getter still resolves to its computed value.
func TestAccessorWithFreeze(t *testing.T) {
	pool, _ := newEngine()
	o := pool.NewObject(nil, runtime.TypeObject)
	getter := pool.NewNativeFunction(nil, "get k", 0, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		return runtime.Binary(42), nil
	})
	k := pool.Keys.MakeWithText("k")
	o.AddMember(k, runtime.ObjectValue(runtime.KindFunction, getter.Object), runtime.FlagGetter|runtime.FlagHidden)
	o.Freeze()

	if !o.IsFrozen() {
		t.Fatal("expected object to be frozen")
	}
	if _, ok := o.Member(k, true); !ok {
		t.Fatal("expected member k to be present")
	}

	ctx := runtime.NewGlobalContext(pool, o, runtime.NewOpList(nil))
	resolved, thrown := ctx.Call(getter, runtime.ObjectValue(runtime.KindObject, o), nil)
	if thrown != nil {
		t.Fatalf("unexpected throw calling getter: %v", thrown)
	}
	if resolved.Binary() != 42 {
		t.Fatalf("getter result = %v, want 42", resolved.Binary())
	}
}

// Scenario 4 (spec §8): try { return 1 } finally { return 2 } → 2; the
// finally clause's own exit supersedes the try body's pending return.
func TestTryFinallyReturnPrecedence(t *testing.T) {
	pool, global := newEngine()
	ops := []runtime.Op{
		op(runtime.OpTry, runtime.Integer(2)), // tryLen = 2 ops
		op(runtime.OpBreaker, runtime.Integer(0)),
		op(runtime.OpValue, runtime.Binary(1)),
		op(runtime.OpValue, runtime.Bool(false)), // hasCatch
		op(runtime.OpValue, runtime.Bool(true)),  // hasFinally
		op(runtime.OpValue, runtime.Integer(2)),  // finallyLen = 2 ops
		op(runtime.OpBreaker, runtime.Integer(0)),
		op(runtime.OpValue, runtime.Binary(2)),
	}
	cf, thrown := runOps(t, pool, global, ops)
	if thrown != nil {
		t.Fatalf("unexpected throw: %v", thrown)
	}
	if cf.Kind != runtime.FlowReturn || cf.Value.Binary() != 2 {
		t.Fatalf("result = %+v, want Return(2)", cf)
	}
}

// Scenario 4b: try { throw e } catch (e) { return e } with no finally,
// confirming the thrown value reaches the catch binding.
func TestTryCatchBindsThrownValue(t *testing.T) {
	pool, global := newEngine()
	catchKey := pool.Keys.MakeWithText("e")
	ops := []runtime.Op{
		op(runtime.OpTry, runtime.Integer(2)), // tryLen = 2 ops
		op(runtime.OpThrow, runtime.Value{}),
		op(runtime.OpValue, runtime.Binary(7)),
		op(runtime.OpValue, runtime.Bool(true)), // hasCatch
		op(runtime.OpValue, runtime.KeyValue(catchKey)),
		op(runtime.OpValue, runtime.Integer(2)), // catchLen = 2 ops
		op(runtime.OpBreaker, runtime.Integer(0)),
		op(runtime.OpGetLocal, runtime.KeyValue(catchKey)),
		op(runtime.OpValue, runtime.Bool(false)), // hasFinally
	}
	cf, thrown := runOps(t, pool, global, ops)
	if thrown != nil {
		t.Fatalf("unexpected throw: %v", thrown)
	}
	if cf.Kind != runtime.FlowReturn || cf.Value.Binary() != 7 {
		t.Fatalf("result = %+v, want Return(7)", cf)
	}
}

// Scenario 5 (spec §8): var s=0; for(var i=0;i<1000;++i) s+=i; → 499500,
// exercised directly against the fused iterateLessRef op.
func TestForLoopFusion(t *testing.T) {
	pool, global := newEngine()
	keyI := pool.Keys.MakeWithText("i")
	keyS := pool.Keys.MakeWithText("s")
	global.AddMember(keyI, runtime.Binary(0), 0)
	global.AddMember(keyS, runtime.Binary(0), 0)

	ops := []runtime.Op{
		op(runtime.OpIterateLessRef, runtime.Integer(3)), // bodyLen = 3 ops
		op(runtime.OpGetLocalRef, runtime.KeyValue(keyI)),
		op(runtime.OpValue, runtime.Binary(1000)),
		op(runtime.OpValue, runtime.Binary(1)), // step
		op(runtime.OpAddAssignRef, runtime.Value{}),
		op(runtime.OpGetLocalRef, runtime.KeyValue(keyS)),
		op(runtime.OpGetLocal, runtime.KeyValue(keyI)),
	}
	_, thrown := runOps(t, pool, global, ops)
	if thrown != nil {
		t.Fatalf("unexpected throw: %v", thrown)
	}
	s, _ := global.Member(keyS, true)
	if s.Binary() != 499500 {
		t.Fatalf("s = %v, want 499500", s.Binary())
	}
}

// Strict vs abstract equality laws (spec §4.3's comparison rows).
func TestEqualityLaws(t *testing.T) {
	pool, global := newEngine()
	cases := []struct {
		name string
		ops  []runtime.Op
		want bool
	}{
		{"1===1.0", []runtime.Op{op(runtime.OpIdentical, runtime.Value{}), op(runtime.OpValue, runtime.Integer(1)), op(runtime.OpValue, runtime.Binary(1))}, true},
		{"1=='1'", []runtime.Op{op(runtime.OpEqual, runtime.Value{}), op(runtime.OpValue, runtime.Binary(1)), {Kind: runtime.OpText, Text: text.FromString("1")}}, true},
		{"1==='1'", []runtime.Op{op(runtime.OpIdentical, runtime.Value{}), op(runtime.OpValue, runtime.Binary(1)), {Kind: runtime.OpText, Text: text.FromString("1")}}, false},
		{"null==undefined", []runtime.Op{op(runtime.OpEqual, runtime.Value{}), op(runtime.OpValue, runtime.Null()), op(runtime.OpValue, runtime.Undefined())}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cf, thrown := runOps(t, pool, global, c.ops)
			if thrown != nil {
				t.Fatalf("unexpected throw: %v", thrown)
			}
			if got := cf.Value.ToBoolean(); got != c.want {
				t.Fatalf("got %v, want %v", got, c.want)
			}
		})
	}
}

// Property sealing: after Seal the object reports IsSealed and an
// existing own property can no longer be deleted.
func TestSealBlocksDelete(t *testing.T) {
	pool, _ := newEngine()
	o := pool.NewObject(nil, runtime.TypeObject)
	k := pool.Keys.MakeWithText("k")
	o.AddMember(k, runtime.Binary(1), 0)
	o.Seal()

	if !o.IsSealed() {
		t.Fatal("expected object to be sealed")
	}
	if o.DeleteMember(k) {
		t.Fatal("expected delete of a sealed property to fail")
	}
}

// Key interning: the same source text always yields the same Key.
func TestKeyInterningIsStable(t *testing.T) {
	pool, _ := newEngine()
	a := pool.Keys.MakeWithText("length")
	b := pool.Keys.MakeWithText("length")
	if a != b {
		t.Fatalf("expected repeated interning of the same name to be stable: %v != %v", a, b)
	}
	if a != pool.Keys.Predefined.Length {
		t.Fatalf("expected \"length\" to intern to the predefined Length key")
	}
}
