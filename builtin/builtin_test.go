// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package builtin_test

import (
	"bytes"
	"testing"

	"github.com/probechain/probescript/builtin"
	"github.com/probechain/probescript/ecc"
	"github.com/probechain/probescript/internal/errorx"
)

func newTestEngine() *ecc.Engine {
	e := ecc.New(ecc.DefaultConfig)
	e.Stderr = &bytes.Buffer{}
	builtin.Install(e)
	return e
}

func evalString(t *testing.T, src string) string {
	t.Helper()
	e := newTestEngine()
	v, err := e.EvalInput(ecc.CreateInputFromBytes([]byte(src), "test.js"))
	if err != nil {
		t.Fatalf("eval(%q): unexpected error: %v", src, err)
	}
	return v.DisplayString()
}

func evalNumber(t *testing.T, src string) float64 {
	t.Helper()
	e := newTestEngine()
	v, err := e.EvalInput(ecc.CreateInputFromBytes([]byte(src), "test.js"))
	if err != nil {
		t.Fatalf("eval(%q): unexpected error: %v", src, err)
	}
	return v.Binary()
}

func evalThrows(t *testing.T, src string) *errorx.ScriptError {
	t.Helper()
	e := newTestEngine()
	_, err := e.EvalInput(ecc.CreateInputFromBytes([]byte(src), "test.js"))
	if err == nil {
		t.Fatalf("eval(%q): expected an error, got none", src)
	}
	se, ok := err.(*errorx.ScriptError)
	if !ok {
		t.Fatalf("eval(%q): error = %T, want *errorx.ScriptError", src, err)
	}
	return se
}

func TestObjectPrototype(t *testing.T) {
	if got := evalString(t, `({}).toString();`); got != "[object Object]" {
		t.Fatalf("toString = %q", got)
	}
	if got := evalString(t, `var o = {a: 1}; o.hasOwnProperty("a") + "," + o.hasOwnProperty("b");`); got != "true,false" {
		t.Fatalf("hasOwnProperty = %q", got)
	}
	if got := evalString(t, `
		function A() {}
		var a = new A();
		A.prototype.isPrototypeOf(a) + "";
	`); got != "true" {
		t.Fatalf("isPrototypeOf = %q", got)
	}
}

func TestObjectStatics(t *testing.T) {
	if got := evalString(t, `Object.keys({a: 1, b: 2}).join(",");`); got != "a,b" {
		t.Fatalf("Object.keys = %q", got)
	}
	if got := evalString(t, `
		var o = {x: 1};
		Object.freeze(o);
		o.x = 2;
		o.x + "";
	`); got != "1" {
		t.Fatalf("Object.freeze = %q", got)
	}
	if got := evalString(t, `Object.isFrozen(Object.freeze({})) + "";`); got != "true" {
		t.Fatalf("Object.isFrozen = %q", got)
	}
	if got := evalString(t, `
		var parent = {greet: function() { return "hi"; }};
		var child = Object.create(parent);
		child.greet();
	`); got != "hi" {
		t.Fatalf("Object.create = %q", got)
	}
	if got := evalString(t, `Object.getPrototypeOf(Object.create(null)) + "";`); got != "null" {
		t.Fatalf("Object.getPrototypeOf(create(null)) = %q", got)
	}
}

func TestArrayBasics(t *testing.T) {
	if got := evalString(t, `[1,2,3].join("-");`); got != "1-2-3" {
		t.Fatalf("join = %q", got)
	}
	if got := evalNumber(t, `[1,2,3].push(4); `); got != 4 {
		t.Fatalf("push return = %v", got)
	}
	if got := evalString(t, `var a = [1,2,3]; a.pop(); a.join(",");`); got != "1,2" {
		t.Fatalf("pop = %q", got)
	}
	if got := evalString(t, `[1,2,3].reverse().join(",");`); got != "3,2,1" {
		t.Fatalf("reverse = %q", got)
	}
	if got := evalString(t, `[3,1,2].sort().join(",");`); got != "1,2,3" {
		t.Fatalf("sort = %q", got)
	}
	if got := evalString(t, `[1,2,3].slice(1).join(",");`); got != "2,3" {
		t.Fatalf("slice = %q", got)
	}
	if got := evalString(t, `[1,[2,3]].concat([4]).join(",");`); got != "1,2,3,4" {
		t.Fatalf("concat = %q", got)
	}
}

func TestArrayHigherOrder(t *testing.T) {
	if got := evalString(t, `[1,2,3].map(function(x) { return x * 2; }).join(",");`); got != "2,4,6" {
		t.Fatalf("map = %q", got)
	}
	if got := evalString(t, `[1,2,3,4].filter(function(x) { return x % 2 === 0; }).join(",");`); got != "2,4" {
		t.Fatalf("filter = %q", got)
	}
	if got := evalNumber(t, `[1,2,3,4].reduce(function(acc, x) { return acc + x; }, 0);`); got != 10 {
		t.Fatalf("reduce = %v", got)
	}
	if got := evalString(t, `[1,2,3].reduceRight(function(acc, x) { return acc + "," + x; }, "z");`); got != "z,3,2,1" {
		t.Fatalf("reduceRight = %q", got)
	}
	if got := evalString(t, `Array.isArray([1]) + "," + Array.isArray({});`); got != "true,false" {
		t.Fatalf("Array.isArray = %q", got)
	}
	if got := evalNumber(t, `[1,2,3].indexOf(2);`); got != 1 {
		t.Fatalf("indexOf = %v", got)
	}
}

func TestArraySortPropagatesThrow(t *testing.T) {
	se := evalThrows(t, `
		[3,1,2].sort(function(a, b) {
			throw "comparator boom";
		});
	`)
	if se.Message != "comparator boom" {
		t.Fatalf("message = %q, want %q", se.Message, "comparator boom")
	}
}

func TestFunctionBindApplyCall(t *testing.T) {
	if got := evalString(t, `
		function greet(greeting) { return greeting + ", " + this.name; }
		var bound = greet.bind({name: "Ada"}, "Hello");
		bound();
	`); got != "Hello, Ada" {
		t.Fatalf("bind = %q", got)
	}
	if got := evalString(t, `
		function sum(a, b) { return a + b + this.base; }
		sum.apply({base: 10}, [1, 2]) + "";
	`); got != "13" {
		t.Fatalf("apply = %q", got)
	}
	if got := evalString(t, `
		function sum(a, b) { return a + b + this.base; }
		sum.call({base: 100}, 1, 2) + "";
	`); got != "103" {
		t.Fatalf("call = %q", got)
	}
}

func TestFunctionBindDoesNotMutateOriginal(t *testing.T) {
	if got := evalString(t, `
		function who() { return this.name; }
		var boundA = who.bind({name: "A"});
		var boundB = who.bind({name: "B"});
		boundA() + boundB();
	`); got != "AB" {
		t.Fatalf("bind independence = %q", got)
	}
}

func TestStringMethods(t *testing.T) {
	if got := evalString(t, `"hello".toUpperCase();`); got != "HELLO" {
		t.Fatalf("toUpperCase = %q", got)
	}
	if got := evalNumber(t, `"hello".indexOf("l");`); got != 2 {
		t.Fatalf("indexOf = %v", got)
	}
	if got := evalString(t, `"hello world".split(" ").join(",");`); got != "hello,world" {
		t.Fatalf("split = %q", got)
	}
	if got := evalString(t, `"  padded  ".trim();`); got != "padded" {
		t.Fatalf("trim = %q", got)
	}
	if got := evalString(t, `"hello".slice(1, 3);`); got != "el" {
		t.Fatalf("slice = %q", got)
	}
	if got := evalString(t, `"hello".substring(3, 1);`); got != "el" {
		t.Fatalf("substring with reversed args = %q", got)
	}
	if got := evalString(t, `new String("boxed").valueOf();`); got != "boxed" {
		t.Fatalf("boxed valueOf = %q", got)
	}
	if got := evalString(t, `String.fromCharCode(104, 105);`); got != "hi" {
		t.Fatalf("fromCharCode = %q", got)
	}
	if got := evalString(t, `"abc".replace("b", "X");`); got != "aXc" {
		t.Fatalf("replace = %q", got)
	}
}

func TestStringRegExpStubsThrow(t *testing.T) {
	se := evalThrows(t, `"abc".match(/a/);`)
	if se.Kind != errorx.TypeError {
		t.Fatalf("match kind = %v, want TypeError", se.Kind)
	}
}

func TestNumberMethods(t *testing.T) {
	if got := evalString(t, `(255).toString(16);`); got != "ff" {
		t.Fatalf("toString(16) = %q", got)
	}
	if got := evalString(t, `(3.14159).toFixed(2);`); got != "3.14" {
		t.Fatalf("toFixed = %q", got)
	}
	if got := evalNumber(t, `new Number(42).valueOf();`); got != 42 {
		t.Fatalf("boxed Number valueOf = %v", got)
	}
}

func TestBooleanMethods(t *testing.T) {
	if got := evalString(t, `new Boolean(true).toString();`); got != "true" {
		t.Fatalf("Boolean toString = %q", got)
	}
	if got := evalString(t, `new Boolean(false).valueOf() + "";`); got != "false" {
		t.Fatalf("Boolean valueOf = %q", got)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	if got := evalString(t, `new TypeError("bad").toString();`); got != "TypeError: bad" {
		t.Fatalf("TypeError toString = %q", got)
	}
	if got := evalString(t, `(new RangeError("oops")).name;`); got != "RangeError" {
		t.Fatalf("RangeError name = %q", got)
	}
	if got := evalString(t, `
		var caught;
		try {
			throw new SyntaxError("nope");
		} catch (e) {
			caught = e.name + ": " + e.message;
		}
		caught;
	`); got != "SyntaxError: nope" {
		t.Fatalf("caught SyntaxError = %q", got)
	}
}

func TestMath(t *testing.T) {
	if got := evalNumber(t, `Math.abs(-5);`); got != 5 {
		t.Fatalf("Math.abs = %v", got)
	}
	if got := evalNumber(t, `Math.max(1, 9, 3);`); got != 9 {
		t.Fatalf("Math.max = %v", got)
	}
	if got := evalNumber(t, `Math.min(1, 9, 3);`); got != 1 {
		t.Fatalf("Math.min = %v", got)
	}
	if got := evalNumber(t, `Math.floor(4.7);`); got != 4 {
		t.Fatalf("Math.floor = %v", got)
	}
	if got := evalNumber(t, `Math.pow(2, 10);`); got != 1024 {
		t.Fatalf("Math.pow = %v", got)
	}
	if got := evalNumber(t, `var r = Math.random(); (r >= 0 && r < 1) ? 1 : 0;`); got != 1 {
		t.Fatalf("Math.random out of [0,1) range")
	}
}

func TestJSONParseStringify(t *testing.T) {
	if got := evalString(t, `JSON.stringify({a: 1, b: [1,2,3]});`); got != `{"a":1,"b":[1,2,3]}` {
		t.Fatalf("stringify = %q", got)
	}
	if got := evalNumber(t, `JSON.parse('{"x": 42}').x;`); got != 42 {
		t.Fatalf("parse .x = %v", got)
	}
	if got := evalString(t, `JSON.parse("[1,2,3]").join(",");`); got != "1,2,3" {
		t.Fatalf("parse array = %q", got)
	}
	if got := evalString(t, `
		JSON.parse('{"a": 1, "b": 2}', function(key, value) {
			return typeof value === "number" ? value * 10 : value;
		}).a + "," + JSON.parse('{"a": 1, "b": 2}', function(key, value) {
			return typeof value === "number" ? value * 10 : value;
		}).b;
	`); got != "10,20" {
		t.Fatalf("parse with reviver = %q", got)
	}
	if got := evalString(t, `JSON.stringify({a: 1}, null, 2);`); got != "{\n  \"a\": 1\n}" {
		t.Fatalf("stringify with indent = %q", got)
	}
}

func TestDateRegExpStubsConstructAndThrow(t *testing.T) {
	if got := evalString(t, `typeof new Date();`); got != "object" {
		t.Fatalf("new Date() type = %q", got)
	}
	se := evalThrows(t, `new Date().getTime();`)
	if se.Kind != errorx.TypeError {
		t.Fatalf("Date.getTime kind = %v, want TypeError", se.Kind)
	}
	se = evalThrows(t, `new RegExp().test("x");`)
	if se.Kind != errorx.TypeError {
		t.Fatalf("RegExp.test kind = %v, want TypeError", se.Kind)
	}
}

func TestGlobalFunctions(t *testing.T) {
	if got := evalNumber(t, `parseInt("42");`); got != 42 {
		t.Fatalf("parseInt = %v", got)
	}
	if got := evalNumber(t, `parseInt("0xff");`); got != 255 {
		t.Fatalf("parseInt hex = %v", got)
	}
	if got := evalNumber(t, `parseFloat("3.14abc");`); got != 3.14 {
		t.Fatalf("parseFloat = %v", got)
	}
	if got := evalString(t, `isNaN(NaN) + "," + isNaN(1);`); got != "true,false" {
		t.Fatalf("isNaN = %q", got)
	}
	if got := evalString(t, `isFinite(1) + "," + isFinite(Infinity);`); got != "true,false" {
		t.Fatalf("isFinite = %q", got)
	}
	if got := evalNumber(t, `eval("1 + 2 * 3");`); got != 7 {
		t.Fatalf("eval = %v", got)
	}
}

func TestEvalDisabledByConfigThroughBuiltin(t *testing.T) {
	cfg := ecc.DefaultConfig
	cfg.AllowEval = false
	e := ecc.New(cfg)
	e.Stderr = &bytes.Buffer{}
	builtin.Install(e)

	_, err := e.EvalInput(ecc.CreateInputFromBytes([]byte(`eval("1;");`), "test.js"))
	if err == nil {
		t.Fatal("expected eval to be rejected when AllowEval is false")
	}
	se, ok := err.(*errorx.ScriptError)
	if !ok {
		t.Fatalf("error = %T, want *errorx.ScriptError", err)
	}
	if se.Kind != errorx.TypeError {
		t.Fatalf("kind = %v, want TypeError", se.Kind)
	}
}
