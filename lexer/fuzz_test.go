// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package lexer_test

import (
	"testing"

	fuzz "github.com/google/gofuzz"

	"github.com/probechain/probescript/lexer"
	"github.com/probechain/probescript/token"
)

// TestLexerNeverPanicsOnRandomInput feeds arbitrary byte strings through the
// lexer: a malformed script is a SyntaxError, never a panic, since the CLI's
// `tokens`/`ops` stages run against whatever a user hands them.
func TestLexerNeverPanicsOnRandomInput(t *testing.T) {
	f := fuzz.NewWithSeed(1).NilChance(0).NumElements(0, 64)
	var source string
	for i := 0; i < 200; i++ {
		f.Fuzz(&source)
		tokenizeWithoutPanicking(t, source)
	}
}

// TestLexerNeverPanicsOnFuzzedScriptLikeInput biases the fuzzer's alphabet
// towards ES3 punctuation and keywords so more runs exercise the lexer's
// multi-character operator and reserved-word paths instead of mostly
// bailing out on the first byte.
func TestLexerNeverPanicsOnFuzzedScriptLikeInput(t *testing.T) {
	alphabet := []rune("var x=123;{}[]()\"'/*+-<>!&|?: \tfunction return if else")
	f := fuzz.NewWithSeed(2)
	for i := 0; i < 200; i++ {
		n := 1 + i%40
		buf := make([]rune, n)
		for j := range buf {
			var idx uint32
			f.Fuzz(&idx)
			buf[j] = alphabet[int(idx)%len(alphabet)]
		}
		tokenizeWithoutPanicking(t, string(buf))
	}
}

func tokenizeWithoutPanicking(t *testing.T, source string) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("lexer panicked on %q: %v", source, r)
		}
	}()
	l := lexer.New("fuzz.js", []byte(source))
	for i := 0; i < 4096; i++ {
		tok, err := l.Next()
		if err != nil {
			return
		}
		if tok.Type == token.EOF {
			return
		}
	}
	t.Fatalf("lexer did not reach EOF within bound on %q", source)
}
