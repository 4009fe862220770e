// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package lexer_test

import (
	"testing"

	"github.com/probechain/probescript/lexer"
	"github.com/probechain/probescript/token"
)

type tokenCase struct {
	typ     token.Type
	literal string
}

func runTokenize(t *testing.T, name, input string, want []tokenCase) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		l := lexer.New("test.js", []byte(input))
		var got []tokenCase
		for {
			tok, err := l.Next()
			if err != nil {
				t.Fatalf("unexpected lex error: %v", err)
			}
			if tok.Type == token.EOF {
				break
			}
			got = append(got, tokenCase{tok.Type, tok.Text.String()})
		}
		if len(got) != len(want) {
			t.Fatalf("got %d tokens, want %d: %+v", len(got), len(want), got)
		}
		for i, w := range want {
			if got[i].typ != w.typ {
				t.Errorf("token[%d]: type = %v, want %v", i, got[i].typ, w.typ)
			}
		}
	})
}

func TestPunctuationAndKeywords(t *testing.T) {
	runTokenize(t, "var decl", "var x = 1;", []tokenCase{
		{token.VAR, "var"}, {token.IDENTIFIER, "x"}, {token.Type('='), "="},
		{token.INTEGER, "1"}, {token.Type(';'), ";"},
	})
}

func TestStringEscapes(t *testing.T) {
	l := lexer.New("t.js", []byte(`"a\nbA\x42"`))
	tok, err := l.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Type != token.ESCAPED_STRING {
		t.Fatalf("type = %v, want ESCAPED_STRING", tok.Type)
	}
	want := "a\nbAB"
	if got := tok.StringValue.Text().String(); got != want {
		t.Fatalf("decoded = %q, want %q", got, want)
	}
}

func TestUnterminatedStringIsError(t *testing.T) {
	l := lexer.New("t.js", []byte(`"abc`))
	_, err := l.Next()
	if err == nil {
		t.Fatal("expected an error for unterminated string")
	}
}

func TestHexAndFloatNumbers(t *testing.T) {
	l := lexer.New("t.js", []byte("0xFF 3.14 1e3"))
	tok, _ := l.Next()
	if tok.Type != token.INTEGER || tok.IntegerValue != 255 {
		t.Fatalf("hex = %+v, want INTEGER 255", tok)
	}
	tok, _ = l.Next()
	if tok.Type != token.BINARY || tok.BinaryValue != 3.14 {
		t.Fatalf("float = %+v, want BINARY 3.14", tok)
	}
	tok, _ = l.Next()
	if tok.Type != token.BINARY || tok.BinaryValue != 1000 {
		t.Fatalf("exp = %+v, want BINARY 1000", tok)
	}
}

func TestIdentifierImmediatelyAfterNumberIsError(t *testing.T) {
	l := lexer.New("t.js", []byte("3abc"))
	_, err := l.Next()
	if err == nil {
		t.Fatal("expected an error for identifier directly after a numeric literal")
	}
}

func TestDivideVsRegexp(t *testing.T) {
	l := lexer.New("t.js", []byte("/abc/"))
	tok, err := l.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.Type != token.REGEXP {
		t.Fatalf("type = %v, want REGEXP", tok.Type)
	}

	l2 := lexer.New("t.js", []byte("a/b"))
	l2.DisallowRegex = true
	first, _ := l2.Next()
	if first.Type != token.IDENTIFIER {
		t.Fatalf("first = %v, want IDENTIFIER", first.Type)
	}
	second, err := l2.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Type != token.Type('/') {
		t.Fatalf("second = %v, want '/'", second.Type)
	}
}

func TestReservedKeywordRejected(t *testing.T) {
	l := lexer.New("t.js", []byte("class"))
	_, err := l.Next()
	if err == nil {
		t.Fatal("expected reserved-word error for \"class\"")
	}
}

func TestWithIsRejected(t *testing.T) {
	l := lexer.New("t.js", []byte("with"))
	_, err := l.Next()
	if err == nil {
		t.Fatal("expected a SyntaxError for \"with\"")
	}
}

func TestLineBreakTracking(t *testing.T) {
	l := lexer.New("t.js", []byte("a\nb"))
	first, _ := l.Next()
	if first.LineBreak {
		t.Fatal("first token should not report a leading line break")
	}
	second, _ := l.Next()
	if !second.LineBreak {
		t.Fatal("second token should report a leading line break")
	}
}
