// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package token defines the lexical token types for the scripting language
// implemented by this module (an ECMAScript-262 3rd-edition family
// language).
//
// Design principles:
//   - Punctuation tokens below 128 reuse the ASCII code of their sole
//     character, so a single-character operator never needs a table
//     lookup to recover its source spelling; multi-character operators use
//     codes at or above firstMultiChar.
//   - Reserved (future-use) keywords are distinguished from active
//     keywords so the lexer can reject them outside of member-access
//     position (see lexer.DisallowKeyword).
package token

import "fmt"

// Type is the set of lexical token types.
type Type int

const firstMultiChar Type = 128

const (
	// Special tokens.
	ILLEGAL Type = -1
	EOF     Type = 0

	// Literals.
	IDENTIFIER Type = iota + firstMultiChar
	BREAK
	CASE
	CATCH
	CONTINUE
	DEBUGGER
	DEFAULT
	DELETE
	DO
	ELSE
	FINALLY
	FOR
	FUNCTION
	IF
	IN
	INSTANCEOF
	NEW
	RETURN
	SWITCH
	THIS
	THROW
	TRY
	TYPEOF
	VAR
	VOID
	WHILE
	WITH

	// Reserved (future) keywords.
	keywordReservedStart
	CLASS
	CONST
	ENUM
	EXPORT
	EXTENDS
	IMPORT
	SUPER
	keywordReservedEnd

	// Literal value tokens.
	NO
	YES
	NULL
	INTEGER
	BINARY
	STRING
	ESCAPED_STRING
	REGEXP

	// Multi-character operators (single-character ones reuse ASCII below
	// 128 and are not named here: + - * / % < > = ! & | ^ ~ . , ; : ? ( ) [ ] { }).
	EQUAL
	NOT_EQUAL
	IDENTICAL
	NOT_IDENTICAL
	LESS_OR_EQUAL
	MORE_OR_EQUAL
	LEFT_SHIFT
	RIGHT_SHIFT
	UNSIGNED_RIGHT_SHIFT
	LEFT_SHIFT_ASSIGN
	RIGHT_SHIFT_ASSIGN
	UNSIGNED_RIGHT_SHIFT_ASSIGN
	LOGICAL_AND
	LOGICAL_OR
	INCREMENT
	DECREMENT
	ADD_ASSIGN
	MINUS_ASSIGN
	MULTIPLY_ASSIGN
	DIVIDE_ASSIGN
	MODULO_ASSIGN
	AND_ASSIGN
	OR_ASSIGN
	XOR_ASSIGN

	tokenCount
)

var names = map[Type]string{
	ILLEGAL:    "illegal",
	EOF:        "end of script",
	IDENTIFIER: "identifier",

	BREAK: "break", CASE: "case", CATCH: "catch", CONTINUE: "continue",
	DEBUGGER: "debugger", DEFAULT: "default", DELETE: "delete", DO: "do",
	ELSE: "else", FINALLY: "finally", FOR: "for", FUNCTION: "function",
	IF: "if", IN: "in", INSTANCEOF: "instanceof", NEW: "new",
	RETURN: "return", SWITCH: "switch", THIS: "this", THROW: "throw",
	TRY: "try", TYPEOF: "typeof", VAR: "var", VOID: "void", WHILE: "while",
	WITH: "with",

	CLASS: "class", CONST: "const", ENUM: "enum", EXPORT: "export",
	EXTENDS: "extends", IMPORT: "import", SUPER: "super",

	NO: "false", YES: "true", NULL: "null",
	INTEGER: "integer", BINARY: "number", STRING: "string",
	ESCAPED_STRING: "string", REGEXP: "regexp",

	EQUAL: "==", NOT_EQUAL: "!=", IDENTICAL: "===", NOT_IDENTICAL: "!==",
	LESS_OR_EQUAL: "<=", MORE_OR_EQUAL: ">=",
	LEFT_SHIFT: "<<", RIGHT_SHIFT: ">>", UNSIGNED_RIGHT_SHIFT: ">>>",
	LEFT_SHIFT_ASSIGN: "<<=", RIGHT_SHIFT_ASSIGN: ">>=", UNSIGNED_RIGHT_SHIFT_ASSIGN: ">>>=",
	LOGICAL_AND: "&&", LOGICAL_OR: "||", INCREMENT: "++", DECREMENT: "--",
	ADD_ASSIGN: "+=", MINUS_ASSIGN: "-=", MULTIPLY_ASSIGN: "*=", DIVIDE_ASSIGN: "/=",
	MODULO_ASSIGN: "%=", AND_ASSIGN: "&=", OR_ASSIGN: "|=", XOR_ASSIGN: "^=",
}

// String returns the human-readable form of a token type.
func (t Type) String() string {
	if t >= 0 && t < firstMultiChar {
		return fmt.Sprintf("%q", string(rune(t)))
	}
	if n, ok := names[t]; ok {
		return n
	}
	return fmt.Sprintf("token(%d)", t)
}

// IsKeyword reports whether t is an active (non-reserved) keyword.
func (t Type) IsKeyword() bool {
	return t >= BREAK && t < keywordReservedStart
}

// IsReservedKeyword reports whether t is a future-use reserved word.
func (t Type) IsReservedKeyword() bool {
	return t > keywordReservedStart && t < keywordReservedEnd
}

var keywords = map[string]Type{
	"break": BREAK, "case": CASE, "catch": CATCH, "continue": CONTINUE,
	"debugger": DEBUGGER, "default": DEFAULT, "delete": DELETE, "do": DO,
	"else": ELSE, "finally": FINALLY, "for": FOR, "function": FUNCTION,
	"if": IF, "in": IN, "instanceof": INSTANCEOF, "new": NEW,
	"return": RETURN, "switch": SWITCH, "this": THIS, "throw": THROW,
	"try": TRY, "typeof": TYPEOF, "var": VAR, "void": VOID, "while": WHILE,
	"with": WITH,
	"class": CLASS, "const": CONST, "enum": ENUM, "export": EXPORT,
	"extends": EXTENDS, "import": IMPORT, "super": SUPER,
	"false": NO, "true": YES, "null": NULL,
}

// Lookup classifies an identifier: a keyword/reserved-word Type, or
// IDENTIFIER if name is a plain identifier.
func Lookup(name string) Type {
	if t, ok := keywords[name]; ok {
		return t
	}
	return IDENTIFIER
}

// Position carries a source location for diagnostics.
type Position struct {
	File   string
	Line   int
	Column int
	Offset int
}

func (p Position) String() string {
	if p.File != "" {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}
