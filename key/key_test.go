// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package key_test

import (
	"testing"

	"github.com/probechain/probescript/key"
)

func TestInterningIsStable(t *testing.T) {
	p := key.NewPool()
	a := p.MakeWithText("foo")
	b := p.MakeWithText("foo")
	if a != b {
		t.Fatalf("interning %q twice produced different keys: %v != %v", "foo", a, b)
	}
	c := p.MakeWithText("bar")
	if a == c {
		t.Fatalf("interning distinct names %q and %q produced the same key", "foo", "bar")
	}
}

func TestNoneIsZero(t *testing.T) {
	if key.None != 0 {
		t.Fatalf("None = %v, want 0", key.None)
	}
}

func TestPredefinedKeysInterned(t *testing.T) {
	p := key.NewPool()
	if p.Text(p.Predefined.Prototype) != "prototype" {
		t.Fatalf("Predefined.Prototype = %q, want %q", p.Text(p.Predefined.Prototype), "prototype")
	}
	if p.MakeWithText("prototype") != p.Predefined.Prototype {
		t.Fatal("re-interning \"prototype\" should return the predefined key")
	}
}

func TestTextRoundTrip(t *testing.T) {
	p := key.NewPool()
	k := p.MakeWithText("constructor")
	if p.Text(k) != "constructor" {
		t.Fatalf("Text(%v) = %q, want %q", k, p.Text(k), "constructor")
	}
}
