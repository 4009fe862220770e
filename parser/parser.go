// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package parser implements a recursive-descent / Pratt parser that
// compiles source text directly into a runtime.OpList, without an
// intervening AST: each parse function returns a self-contained []Op
// subtree (operator/header op first, operand subtrees following, in the
// exact order runtime.Context.exec consumes them), and composing an
// expression is just slice concatenation — cheaper than building and
// then lowering a separate tree, and the natural shape for an op
// encoding that is itself pre-order-flattened.
//
// Design overview:
//   - Declarations and statements are parsed with straightforward
//     recursive descent.
//   - Expressions are parsed with a Pratt (top-down operator precedence)
//     table.
//   - The parser stops at the first error rather than collecting and
//     recovering: a script's statements generally depend on each other
//     (an earlier declaration feeding a later reference), so skipping
//     past one error and continuing would just cascade into more.
//   - var and function declarations hoist to the nearest enclosing
//     function (or Program) scope, matching ES3 function-level var
//     scoping; labeled statements are not implemented.
package parser

import (
	"fmt"

	"github.com/probechain/probescript/key"
	"github.com/probechain/probescript/lexer"
	"github.com/probechain/probescript/runtime"
	"github.com/probechain/probescript/token"
)

// Op is a local alias to keep the subtree-returning signatures readable.
type Op = runtime.Op

// Error describes a parse failure with its source position.
type Error struct {
	Pos     token.Position
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: SyntaxError: %s", e.Pos, e.Message)
}

// hoistSet accumulates the var and function-declaration names that must
// be bound in a function's (or Program's) own scope before its body
// runs, matching spec §5's function-scoped var semantics.
type hoistSet struct {
	vars  []key.Key
	funcs []hoistedFunc
}

type hoistedFunc struct {
	name key.Key
	fn   Op // a single OpFunctionLiteral op
}

// Parser holds the mutable state for a single parse run.
type Parser struct {
	lex  *lexer.Lexer
	pool *runtime.Pool

	cur, peek lexer.Token

	hoistStack []*hoistSet
}

// Parse compiles source into a runtime.OpList ready to run against a
// Context built over pool's global environment.
func Parse(pool *runtime.Pool, filename string, source []byte) (*runtime.OpList, error) {
	p := &Parser{lex: lexer.New(filename, source), pool: pool}
	if err := p.primeTokens(); err != nil {
		return nil, err
	}
	ops, err := p.parseProgram()
	if err != nil {
		return nil, err
	}
	return runtime.NewOpList(ops), nil
}

func (p *Parser) primeTokens() error {
	p.lex.DisallowRegex = false
	if err := p.advance(); err != nil {
		return err
	}
	return p.advance()
}

// advance shifts peek into cur and reads a fresh peek token. DisallowRegex
// is set from cur's kind before reading the next token, matching the
// lexer's "'/' after a value-ending token is division" contract.
func (p *Parser) advance() error {
	p.cur = p.peek
	p.lex.DisallowRegex = endsExpression(p.cur.Type)
	p.lex.DisallowKeyword = p.cur.Type == token.Type('.')
	tok, err := p.lex.Next()
	if err != nil {
		return err.(*lexer.Error)
	}
	p.peek = tok
	return nil
}

// endsExpression reports whether a token can be the last token of a
// complete expression, so a following '/' must be division rather than
// the start of a regexp literal.
func endsExpression(t token.Type) bool {
	switch t {
	case token.IDENTIFIER, token.INTEGER, token.BINARY, token.STRING, token.ESCAPED_STRING,
		token.THIS, token.NO, token.YES, token.NULL,
		token.Type(')'), token.Type(']'), token.Type('}'),
		token.INCREMENT, token.DECREMENT:
		return true
	default:
		return false
	}
}

func (p *Parser) pos() token.Position { return p.cur.Pos }

func (p *Parser) fail(format string, args ...interface{}) error {
	return &Error{Pos: p.pos(), Message: fmt.Sprintf(format, args...)}
}

func (p *Parser) at(t token.Type) bool { return p.cur.Type == t }

// expect consumes cur if it matches t, else returns an error.
func (p *Parser) expect(t token.Type) (lexer.Token, error) {
	if p.cur.Type != t {
		return lexer.Token{}, p.fail("expected %s, got %s", t, p.cur.Type)
	}
	tok := p.cur
	return tok, p.advance()
}

// consumeSemicolon implements ES3 automatic semicolon insertion: an
// explicit ';' is always accepted; otherwise a line break, a following
// '}', or EOF silently terminates the statement.
func (p *Parser) consumeSemicolon() error {
	if p.at(token.Type(';')) {
		return p.advance()
	}
	if p.cur.LineBreak || p.at(token.Type('}')) || p.at(token.EOF) {
		return nil
	}
	return p.fail("expected ';', got %s", p.cur.Type)
}

func (p *Parser) key(name string) key.Key { return p.pool.Keys.MakeWithText(name) }

func (p *Parser) pushHoist() *hoistSet {
	h := &hoistSet{}
	p.hoistStack = append(p.hoistStack, h)
	return h
}

func (p *Parser) popHoist() {
	p.hoistStack = p.hoistStack[:len(p.hoistStack)-1]
}

func (p *Parser) currentHoist() *hoistSet {
	return p.hoistStack[len(p.hoistStack)-1]
}

func (p *Parser) declareVar(k key.Key) {
	h := p.currentHoist()
	h.vars = append(h.vars, k)
}

func (p *Parser) declareFunc(k key.Key, fn Op) {
	h := p.currentHoist()
	h.funcs = append(h.funcs, hoistedFunc{name: k, fn: fn})
}

// preamble builds the preamble ops (OpDeclareLocal for every
// collected var name, then OpSetLocal binding every hoisted function
// declaration to its closure) that must run before a function body's or
// Program's own statements.
func (h *hoistSet) preamble() []Op {
	var out []Op
	for _, k := range h.vars {
		out = append(out, Op{Kind: runtime.OpDeclareLocal, Value: runtime.KeyValue(k)})
	}
	for _, f := range h.funcs {
		out = append(out, Op{Kind: runtime.OpSetLocal, Value: runtime.KeyValue(f.name)})
		out = append(out, f.fn)
	}
	return out
}

// ---------------------------------------------------------------------
// Program / statement lists
// ---------------------------------------------------------------------

func (p *Parser) parseProgram() ([]Op, error) {
	h := p.pushHoist()
	defer p.popHoist()
	body, err := p.parseStatementList(token.EOF, true)
	if err != nil {
		return nil, err
	}
	return append(h.preamble(), body...), nil
}

// parseStatementList parses statements until a token of kind end is
// seen. When tailIsValue is true (Program and a function body's own top
// level, matching eval's completion-value contract) the final
// expression-statement, if any, is compiled as OpExpression (yields a
// value) instead of OpDiscard.
func (p *Parser) parseStatementList(end token.Type, tailIsValue bool) ([]Op, error) {
	type stmt struct {
		ops        []Op
		isExprStmt bool
	}
	var stmts []stmt
	for !p.at(end) {
		s, isExprStmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		if s != nil {
			stmts = append(stmts, stmt{ops: s, isExprStmt: isExprStmt})
		}
	}
	if tailIsValue && len(stmts) > 0 {
		last := &stmts[len(stmts)-1]
		// parseExpressionStatement always emits a leading OpDiscard; swap
		// it for OpExpression so the Program/function body's final
		// statement surfaces a completion value instead of discarding it.
		if last.isExprStmt && len(last.ops) > 0 && last.ops[0].Kind == runtime.OpDiscard {
			last.ops[0].Kind = runtime.OpExpression
		}
	}
	var out []Op
	for _, s := range stmts {
		out = append(out, s.ops...)
	}
	return out, nil
}

// parseStatement parses one statement, returning its compiled subtree.
// The bool result reports whether it was a bare expression statement (so
// callers that care about a trailing completion value can special-case
// the very last one); parseStatement itself always emits OpDiscard for
// expression statements, leaving the tailIsValue rewrite to
// parseStatementList, which rewrites the last one in place.
func (p *Parser) parseStatement() (ops []Op, isExprStmt bool, err error) {
	switch p.cur.Type {
	case token.Type('{'):
		ops, err = p.parseBlockStatement()
	case token.VAR:
		ops, err = p.parseVarStatement()
	case token.Type(';'):
		err = p.advance()
	case token.IF:
		ops, err = p.parseIfStatement()
	case token.WHILE:
		ops, err = p.parseWhileStatement()
	case token.DO:
		ops, err = p.parseDoWhileStatement()
	case token.FOR:
		ops, err = p.parseForStatement()
	case token.BREAK:
		ops, err = p.parseBreakContinue(1)
	case token.CONTINUE:
		ops, err = p.parseBreakContinue(-1)
	case token.RETURN:
		ops, err = p.parseReturnStatement()
	case token.THROW:
		ops, err = p.parseThrowStatement()
	case token.TRY:
		ops, err = p.parseTryStatement()
	case token.SWITCH:
		ops, err = p.parseSwitchStatement()
	case token.FUNCTION:
		err = p.parseFunctionDeclaration()
		ops = nil
	case token.DEBUGGER:
		err = p.advance()
		if err == nil {
			err = p.consumeSemicolon()
		}
	default:
		ops, err = p.parseExpressionStatement()
		isExprStmt = true
	}
	return ops, isExprStmt, err
}

// parseBlockStatement parses `{ stmt* }`, wrapping the contents in an
// OpBlock so loop bodies and if/else arms — which consume "the
// statement" via a single call — see one subtree regardless of how many
// statements the source block held.
func (p *Parser) parseBlockStatement() ([]Op, error) {
	if _, err := p.expect(token.Type('{')); err != nil {
		return nil, err
	}
	body, err := p.parseStatementList(token.Type('}'), false)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Type('}')); err != nil {
		return nil, err
	}
	return wrapBlock(body), nil
}

// wrapBlock wraps ops in an OpBlock header unless it is already exactly
// one subtree long (a lone statement doesn't need the wrapper, but it is
// harmless to add — callers that always need a single-subtree slot call
// this unconditionally; statement-list callers that iterate ops natively
// don't call it at all).
func wrapBlock(body []Op) []Op {
	return append([]Op{{Kind: runtime.OpBlock, Value: runtime.Integer(int32(len(body)))}}, body...)
}

// ---------------------------------------------------------------------
// Declarations
// ---------------------------------------------------------------------

func (p *Parser) parseVarStatement() ([]Op, error) {
	if err := p.advance(); err != nil { // consume 'var'
		return nil, err
	}
	var out []Op
	for {
		nameTok, err := p.expect(token.IDENTIFIER)
		if err != nil {
			return nil, err
		}
		name := p.key(nameTok.Text.String())
		p.declareVar(name)
		if p.at(token.Type('=')) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			rhs, err := p.parseAssignExpression()
			if err != nil {
				return nil, err
			}
			out = append(out, Op{Kind: runtime.OpDiscard})
			out = append(out, Op{Kind: runtime.OpSetLocal, Value: runtime.KeyValue(name)})
			out = append(out, rhs...)
		}
		if !p.at(token.Type(',')) {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return out, p.consumeSemicolon()
}

// parseFunctionDeclaration parses `function name(params) { body }` as a
// statement. Its binding hoists to the top of the enclosing function (or
// Program) scope, so it never emits anything at its own position.
func (p *Parser) parseFunctionDeclaration() error {
	if err := p.advance(); err != nil { // consume 'function'
		return err
	}
	nameTok, err := p.expect(token.IDENTIFIER)
	if err != nil {
		return err
	}
	name := p.key(nameTok.Text.String())
	fn, err := p.parseFunctionTail(nameTok.Text.String())
	if err != nil {
		return err
	}
	p.declareFunc(name, fn)
	return nil
}

// parseFunctionExpression parses the same `function [name](params) {
// body }` tail as an expression, returning its OpFunctionLiteral.
func (p *Parser) parseFunctionExpression() ([]Op, error) {
	if err := p.advance(); err != nil { // consume 'function'
		return nil, err
	}
	name := ""
	if p.at(token.IDENTIFIER) {
		name = p.cur.Text.String()
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	fn, err := p.parseFunctionTail(name)
	if err != nil {
		return nil, err
	}
	return []Op{fn}, nil
}

// parseFunctionTail parses `(params) { body }` (name already consumed)
// and returns the single OpFunctionLiteral op wrapping a freshly
// compiled Function template.
func (p *Parser) parseFunctionTail(name string) (Op, error) {
	if _, err := p.expect(token.Type('(')); err != nil {
		return Op{}, err
	}
	var params []key.Key
	for !p.at(token.Type(')')) {
		tok, err := p.expect(token.IDENTIFIER)
		if err != nil {
			return Op{}, err
		}
		params = append(params, p.key(tok.Text.String()))
		if p.at(token.Type(',')) {
			if err := p.advance(); err != nil {
				return Op{}, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(token.Type(')')); err != nil {
		return Op{}, err
	}

	h := p.pushHoist()
	if _, err := p.expect(token.Type('{')); err != nil {
		p.popHoist()
		return Op{}, err
	}
	body, err := p.parseStatementList(token.Type('}'), true)
	if err != nil {
		p.popHoist()
		return Op{}, err
	}
	if _, err := p.expect(token.Type('}')); err != nil {
		p.popHoist()
		return Op{}, err
	}
	p.popHoist()

	var preamble []Op
	if len(params) > 0 {
		preamble = append(preamble, Op{Kind: runtime.OpBindParameters, Value: runtime.Integer(int32(len(params)))})
		for _, k := range params {
			preamble = append(preamble, Op{Kind: runtime.OpValue, Value: runtime.KeyValue(k)})
		}
	}
	fullBody := append(append(preamble, h.preamble()...), body...)

	fn := p.pool.NewFunction(nil, name, len(params))
	fn.Ops = runtime.NewOpList(fullBody)
	fn.NeedArguments = true
	fn.NeedHeap = true
	return Op{Kind: runtime.OpFunctionLiteral, Value: runtime.ObjectValue(runtime.KindFunction, fn.Object)}, nil
}

// ---------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------

func (p *Parser) parseExpressionStatement() ([]Op, error) {
	span := p.cur.Text
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.consumeSemicolon(); err != nil {
		return nil, err
	}
	return append([]Op{{Kind: runtime.OpDiscard, Text: span}}, expr...), nil
}

func (p *Parser) parseIfStatement() ([]Op, error) {
	if err := p.advance(); err != nil { // 'if'
		return nil, err
	}
	if _, err := p.expect(token.Type('(')); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Type(')')); err != nil {
		return nil, err
	}
	cons, err := p.parseSingleStatementBody()
	if err != nil {
		return nil, err
	}
	if !p.at(token.ELSE) {
		header := Op{Kind: runtime.OpJumpIfNot, Value: runtime.Integer(int32(len(cons)))}
		return append(append([]Op{header}, cond...), cons...), nil
	}
	if err := p.advance(); err != nil { // 'else'
		return nil, err
	}
	alt, err := p.parseSingleStatementBody()
	if err != nil {
		return nil, err
	}
	jump := Op{Kind: runtime.OpJump, Value: runtime.Integer(int32(len(alt)))}
	header := Op{Kind: runtime.OpJumpIfNot, Value: runtime.Integer(int32(len(cons) + 1))}
	out := append([]Op{header}, cond...)
	out = append(out, cons...)
	out = append(out, jump)
	out = append(out, alt...)
	return out, nil
}

// parseSingleStatementBody parses whatever sits in a single-statement
// slot (an if/else arm, a loop body): a brace block is already
// OpBlock-wrapped by parseBlockStatement; a lone statement is wrapped
// here so the slot is always exactly one subtree.
func (p *Parser) parseSingleStatementBody() ([]Op, error) {
	if p.at(token.Type('{')) {
		return p.parseBlockStatement()
	}
	ops, _, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	return wrapBlock(ops), nil
}

func (p *Parser) parseWhileStatement() ([]Op, error) {
	if err := p.advance(); err != nil { // 'while'
		return nil, err
	}
	if _, err := p.expect(token.Type('(')); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Type(')')); err != nil {
		return nil, err
	}
	body, err := p.parseSingleStatementBody()
	if err != nil {
		return nil, err
	}
	header := Op{Kind: runtime.OpIterate, Value: runtime.Integer(int32(len(cond) + len(body)))}
	return append(append([]Op{header}, cond...), body...), nil
}

// parseDoWhileStatement desugars `do S while (C)` as S run once
// unconditionally, followed by a standard OpIterate loop reusing a
// second copy of S's compiled ops. The duplication costs one extra copy
// of the body's op slice (not a reparse — S is only parsed once); this
// is simpler than adding a dedicated post-test loop op for a
// rarely-used construct.
func (p *Parser) parseDoWhileStatement() ([]Op, error) {
	if err := p.advance(); err != nil { // 'do'
		return nil, err
	}
	body, err := p.parseSingleStatementBody()
	if err != nil {
		return nil, err
	}
	if !p.at(token.WHILE) {
		return nil, p.fail("expected 'while', got %s", p.cur.Type)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Type('(')); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Type(')')); err != nil {
		return nil, err
	}
	if err := p.consumeSemicolon(); err != nil {
		return nil, err
	}
	bodyCopy := append([]Op{}, body...)
	header := Op{Kind: runtime.OpIterate, Value: runtime.Integer(int32(len(cond) + len(bodyCopy)))}
	loop := append(append([]Op{header}, cond...), bodyCopy...)
	return append(body, loop...), nil
}

func (p *Parser) parseForStatement() ([]Op, error) {
	if err := p.advance(); err != nil { // 'for'
		return nil, err
	}
	if _, err := p.expect(token.Type('(')); err != nil {
		return nil, err
	}

	// for (lhs in obj) body
	if p.at(token.VAR) || p.at(token.IDENTIFIER) {
		if ops, ok, err := p.tryParseForIn(); err != nil {
			return nil, err
		} else if ok {
			return ops, nil
		}
	}

	var init []Op
	if p.at(token.VAR) {
		v, err := p.parseVarStatementNoSemicolon()
		if err != nil {
			return nil, err
		}
		init = v
	} else if !p.at(token.Type(';')) {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		init = append([]Op{{Kind: runtime.OpDiscard}}, e...)
	}
	if _, err := p.expect(token.Type(';')); err != nil {
		return nil, err
	}

	var cond []Op
	if !p.at(token.Type(';')) {
		c, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		cond = c
	} else {
		cond = []Op{{Kind: runtime.OpValue, Value: runtime.True()}}
	}
	if _, err := p.expect(token.Type(';')); err != nil {
		return nil, err
	}

	var update []Op
	if !p.at(token.Type(')')) {
		u, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		update = append([]Op{{Kind: runtime.OpDiscard}}, u...)
	}
	if _, err := p.expect(token.Type(')')); err != nil {
		return nil, err
	}

	body, err := p.parseSingleStatementBody()
	if err != nil {
		return nil, err
	}

	// execIterate's body slot is consumed by one nextStatement() call and
	// continue re-enters the condition without running anything after
	// the body, so the update must be folded into the body itself, at
	// the cost of "continue" skipping it (a known, accepted limitation
	// of the generic loop op). Every for-loop, counted or not, is emitted
	// as this generic OpIterate; the parser does not emit the fused
	// OpIterateLessRef/... family.
	fullBody := wrapBlock(append(append([]Op{}, body...), update...))
	header := Op{Kind: runtime.OpIterate, Value: runtime.Integer(int32(len(cond) + len(fullBody)))}
	loop := append(append([]Op{header}, cond...), fullBody...)
	return append(init, loop...), nil
}

// parseVarStatementNoSemicolon parses a `var` declarator list without
// requiring (or consuming) a trailing ';', for use in a for-loop's init
// clause.
func (p *Parser) parseVarStatementNoSemicolon() ([]Op, error) {
	if err := p.advance(); err != nil { // 'var'
		return nil, err
	}
	var out []Op
	for {
		nameTok, err := p.expect(token.IDENTIFIER)
		if err != nil {
			return nil, err
		}
		name := p.key(nameTok.Text.String())
		p.declareVar(name)
		if p.at(token.Type('=')) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			rhs, err := p.parseAssignExpression()
			if err != nil {
				return nil, err
			}
			out = append(out, Op{Kind: runtime.OpDiscard})
			out = append(out, Op{Kind: runtime.OpSetLocal, Value: runtime.KeyValue(name)})
			out = append(out, rhs...)
		}
		if !p.at(token.Type(',')) {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// tryParseForIn attempts `for (var? identifier in expr) body`, speculatively
// scanning ahead; ok is false (with the parser untouched beyond any `var`
// already consumed is never partially committed, since the only lookahead
// beyond cur/peek this needs is "does an `in` keyword follow the
// identifier", decidable from peek alone) when the construct is actually a
// classic three-clause for.
func (p *Parser) tryParseForIn() ([]Op, bool, error) {
	hadVar := p.at(token.VAR)
	startCur, startPeek, startLex := p.cur, p.peek, *p.lex
	if hadVar {
		if err := p.advance(); err != nil {
			return nil, false, err
		}
	}
	if !p.at(token.IDENTIFIER) || p.peek.Type != token.IN {
		p.cur, p.peek, *p.lex = startCur, startPeek, startLex
		return nil, false, nil
	}
	name := p.key(p.cur.Text.String())
	if hadVar {
		p.declareVar(name)
	}
	if err := p.advance(); err != nil { // identifier
		return nil, false, err
	}
	if err := p.advance(); err != nil { // 'in'
		return nil, false, err
	}
	obj, err := p.parseExpression()
	if err != nil {
		return nil, false, err
	}
	if _, err := p.expect(token.Type(')')); err != nil {
		return nil, false, err
	}
	body, err := p.parseSingleStatementBody()
	if err != nil {
		return nil, false, err
	}
	header := Op{Kind: runtime.OpIterateInRef, Value: runtime.Integer(int32(len(body)))}
	out := append([]Op{header}, Op{Kind: runtime.OpGetLocalRef, Value: runtime.KeyValue(name)})
	out = append(out, obj...)
	out = append(out, body...)
	return out, true, nil
}

func (p *Parser) parseBreakContinue(sign int32) ([]Op, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.consumeSemicolon(); err != nil {
		return nil, err
	}
	return []Op{{Kind: runtime.OpBreaker, Value: runtime.Integer(sign)}}, nil
}

func (p *Parser) parseReturnStatement() ([]Op, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	var expr []Op
	if p.at(token.Type(';')) || p.at(token.Type('}')) || p.at(token.EOF) || p.cur.LineBreak {
		expr = []Op{{Kind: runtime.OpValue, Value: runtime.Undefined()}}
	} else {
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		expr = e
	}
	if err := p.consumeSemicolon(); err != nil {
		return nil, err
	}
	return append([]Op{{Kind: runtime.OpBreaker, Value: runtime.Integer(0)}}, expr...), nil
}

func (p *Parser) parseThrowStatement() ([]Op, error) {
	span := p.cur.Text
	if err := p.advance(); err != nil {
		return nil, err
	}
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if err := p.consumeSemicolon(); err != nil {
		return nil, err
	}
	return append([]Op{{Kind: runtime.OpThrow, Text: span}}, expr...), nil
}

// parseTryStatement builds the self-describing try/catch/finally region
// layout execTry expects (see runtime/op.go's execTry doc comment).
func (p *Parser) parseTryStatement() ([]Op, error) {
	if err := p.advance(); err != nil { // 'try'
		return nil, err
	}
	tryBody, err := p.parseBlockStatement()
	if err != nil {
		return nil, err
	}
	tryBody = stripBlockWrapper(tryBody)

	var hasCatch bool
	var catchKey key.Key
	var catchBody []Op
	if p.at(token.CATCH) {
		hasCatch = true
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Type('(')); err != nil {
			return nil, err
		}
		nameTok, err := p.expect(token.IDENTIFIER)
		if err != nil {
			return nil, err
		}
		catchKey = p.key(nameTok.Text.String())
		if _, err := p.expect(token.Type(')')); err != nil {
			return nil, err
		}
		cb, err := p.parseBlockStatement()
		if err != nil {
			return nil, err
		}
		catchBody = stripBlockWrapper(cb)
	}

	var hasFinally bool
	var finallyBody []Op
	if p.at(token.FINALLY) {
		hasFinally = true
		if err := p.advance(); err != nil {
			return nil, err
		}
		fb, err := p.parseBlockStatement()
		if err != nil {
			return nil, err
		}
		finallyBody = stripBlockWrapper(fb)
	}

	out := []Op{{Kind: runtime.OpTry, Value: runtime.Integer(int32(len(tryBody)))}}
	out = append(out, tryBody...)
	out = append(out, Op{Kind: runtime.OpValue, Value: runtime.Bool(hasCatch)})
	if hasCatch {
		out = append(out, Op{Kind: runtime.OpValue, Value: runtime.KeyValue(catchKey)})
		out = append(out, Op{Kind: runtime.OpValue, Value: runtime.Integer(int32(len(catchBody)))})
		out = append(out, catchBody...)
	}
	out = append(out, Op{Kind: runtime.OpValue, Value: runtime.Bool(hasFinally)})
	if hasFinally {
		out = append(out, Op{Kind: runtime.OpValue, Value: runtime.Integer(int32(len(finallyBody)))})
		out = append(out, finallyBody...)
	}
	return out, nil
}

// stripBlockWrapper removes the OpBlock header parseBlockStatement
// always adds, since execTry's own region bookkeeping already delimits
// each clause's extent; nesting an OpBlock inside would just add an
// extra, redundant run of the identical range.
func stripBlockWrapper(ops []Op) []Op {
	if len(ops) > 0 && ops[0].Kind == runtime.OpBlock {
		return ops[1:]
	}
	return ops
}

// parseSwitchStatement builds the case-layout execSwitch expects (see
// runtime/op.go's execSwitch doc comment).
func (p *Parser) parseSwitchStatement() ([]Op, error) {
	if err := p.advance(); err != nil { // 'switch'
		return nil, err
	}
	if _, err := p.expect(token.Type('(')); err != nil {
		return nil, err
	}
	disc, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Type(')')); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Type('{')); err != nil {
		return nil, err
	}

	var cases []Op
	count := 0
	for !p.at(token.Type('}')) {
		isDefault := p.at(token.DEFAULT)
		var valueOps []Op
		if isDefault {
			if err := p.advance(); err != nil {
				return nil, err
			}
		} else {
			if _, err := p.expect(token.CASE); err != nil {
				return nil, err
			}
			v, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			valueOps = v
		}
		if _, err := p.expect(token.Type(':')); err != nil {
			return nil, err
		}
		var body []Op
		for !p.at(token.CASE) && !p.at(token.DEFAULT) && !p.at(token.Type('}')) {
			s, _, err := p.parseStatement()
			if err != nil {
				return nil, err
			}
			body = append(body, s...)
		}
		cases = append(cases, Op{Kind: runtime.OpValue, Value: runtime.Bool(isDefault)})
		if !isDefault {
			cases = append(cases, Op{Kind: runtime.OpValue, Value: runtime.Integer(int32(len(valueOps)))})
			cases = append(cases, valueOps...)
		}
		cases = append(cases, Op{Kind: runtime.OpValue, Value: runtime.Integer(int32(len(body)))})
		cases = append(cases, body...)
		count++
	}
	if _, err := p.expect(token.Type('}')); err != nil {
		return nil, err
	}

	header := Op{Kind: runtime.OpSwitch, Value: runtime.Integer(int32(count))}
	out := append([]Op{header}, disc...)
	out = append(out, cases...)
	return out, nil
}

// ---------------------------------------------------------------------
// Expressions: Pratt precedence ladder
// ---------------------------------------------------------------------

type precedence int

const (
	precLowest precedence = iota
	precComma
	precAssign
	precConditional
	precLogicalOr
	precLogicalAnd
	precBitwiseOr
	precBitwiseXor
	precBitwiseAnd
	precEquality
	precRelational
	precShift
	precAdditive
	precMultiplicative
	precUnary
	precPostfix
)

func (p *Parser) parseExpression() ([]Op, error) {
	first, err := p.parseAssignExpression()
	if err != nil {
		return nil, err
	}
	if !p.at(token.Type(',')) {
		return first, nil
	}
	exprs := [][]Op{first}
	for p.at(token.Type(',')) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseAssignExpression()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	header := Op{Kind: runtime.OpSequence, Value: runtime.Integer(int32(len(exprs)))}
	out := []Op{header}
	for _, e := range exprs {
		out = append(out, e...)
	}
	return out, nil
}

var assignOps = map[token.Type]runtime.OpKind{
	token.Type('='):          runtime.OpAssignRef,
	token.ADD_ASSIGN:         runtime.OpAddAssignRef,
	token.MINUS_ASSIGN:       runtime.OpMinusAssignRef,
	token.MULTIPLY_ASSIGN:    runtime.OpMultiplyAssignRef,
	token.DIVIDE_ASSIGN:      runtime.OpDivideAssignRef,
	token.MODULO_ASSIGN:      runtime.OpModuloAssignRef,
}

func (p *Parser) parseAssignExpression() ([]Op, error) {
	lhs, err := p.parseConditionalExpression()
	if err != nil {
		return nil, err
	}
	kind, ok := assignOps[p.cur.Type]
	if !ok {
		return lhs, nil
	}
	ref, err := toRef(lhs)
	if err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	rhs, err := p.parseAssignExpression()
	if err != nil {
		return nil, err
	}
	out := append([]Op{{Kind: kind}}, ref...)
	return append(out, rhs...), nil
}

// toRef rewrites a just-parsed value-producing property/identifier
// subtree into its Ref-producing counterpart, the way the assignment
// operators require their first operand. Only identifiers and member
// expressions are valid assignment targets; anything else is rejected
// at parse time with an "invalid assignment target" error, which
// ecc reports as a SyntaxError.
func toRef(expr []Op) ([]Op, error) {
	if len(expr) == 0 {
		return nil, fmt.Errorf("invalid assignment target")
	}
	switch expr[0].Kind {
	case runtime.OpGetLocal:
		out := append([]Op{}, expr...)
		out[0].Kind = runtime.OpGetLocalRef
		return out, nil
	case runtime.OpGetMember:
		out := append([]Op{}, expr...)
		out[0].Kind = runtime.OpGetMemberRef
		return out, nil
	case runtime.OpGetProperty:
		out := append([]Op{}, expr...)
		out[0].Kind = runtime.OpGetPropertyRef
		return out, nil
	case runtime.OpGetMemberIndex:
		out := append([]Op{}, expr...)
		out[0].Kind = runtime.OpGetMemberIndexRef
		return out, nil
	default:
		return nil, fmt.Errorf("invalid assignment target")
	}
}

func (p *Parser) parseConditionalExpression() ([]Op, error) {
	cond, err := p.parseBinaryExpression(precLowest)
	if err != nil {
		return nil, err
	}
	if !p.at(token.Type('?')) {
		return cond, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	cons, err := p.parseAssignExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.Type(':')); err != nil {
		return nil, err
	}
	alt, err := p.parseAssignExpression()
	if err != nil {
		return nil, err
	}
	header := Op{Kind: runtime.OpConditional, Value: runtime.Integer(int32(len(cons)))}
	out := append([]Op{header}, cond...)
	out = append(out, cons...)
	out = append(out, Op{Kind: runtime.OpValue, Value: runtime.Integer(int32(len(alt)))})
	out = append(out, alt...)
	return out, nil
}

func binaryPrecedence(t token.Type) (precedence, runtime.OpKind, bool) {
	switch t {
	case token.LOGICAL_OR:
		return precLogicalOr, runtime.OpLogicalOr, true
	case token.LOGICAL_AND:
		return precLogicalAnd, runtime.OpLogicalAnd, true
	case token.Type('|'):
		return precBitwiseOr, runtime.OpBitwiseOr, true
	case token.Type('^'):
		return precBitwiseXor, runtime.OpBitwiseXor, true
	case token.Type('&'):
		return precBitwiseAnd, runtime.OpBitwiseAnd, true
	case token.EQUAL:
		return precEquality, runtime.OpEqual, true
	case token.NOT_EQUAL:
		return precEquality, runtime.OpNotEqual, true
	case token.IDENTICAL:
		return precEquality, runtime.OpIdentical, true
	case token.NOT_IDENTICAL:
		return precEquality, runtime.OpNotIdentical, true
	case token.Type('<'):
		return precRelational, runtime.OpLess, true
	case token.LESS_OR_EQUAL:
		return precRelational, runtime.OpLessOrEqual, true
	case token.Type('>'):
		return precRelational, runtime.OpMore, true
	case token.MORE_OR_EQUAL:
		return precRelational, runtime.OpMoreOrEqual, true
	case token.INSTANCEOF:
		return precRelational, runtime.OpInstanceOf, true
	case token.IN:
		return precRelational, runtime.OpIn, true
	case token.LEFT_SHIFT:
		return precShift, runtime.OpLeftShift, true
	case token.RIGHT_SHIFT:
		return precShift, runtime.OpRightShift, true
	case token.UNSIGNED_RIGHT_SHIFT:
		return precShift, runtime.OpUnsignedRightShift, true
	case token.Type('+'):
		return precAdditive, runtime.OpAdd, true
	case token.Type('-'):
		return precAdditive, runtime.OpMinus, true
	case token.Type('*'):
		return precMultiplicative, runtime.OpMultiply, true
	case token.Type('/'):
		return precMultiplicative, runtime.OpDivide, true
	case token.Type('%'):
		return precMultiplicative, runtime.OpModulo, true
	default:
		return precLowest, 0, false
	}
}

// isLogical reports whether kind needs the short-circuit skip-length
// encoding (OpLogicalAnd/Or) rather than the plain two-operand layout
// every other binary op uses.
func isLogical(kind runtime.OpKind) bool {
	return kind == runtime.OpLogicalAnd || kind == runtime.OpLogicalOr
}

// parseBinaryExpression implements precedence climbing: it parses a
// unary expression, then repeatedly folds in infix operators whose
// precedence is at least minPrec, recursing for the right operand at
// one precedence level higher (left-associative) so that e.g. `a-b-c`
// nests as `(a-b)-c`.
func (p *Parser) parseBinaryExpression(minPrec precedence) ([]Op, error) {
	left, err := p.parseUnaryExpression()
	if err != nil {
		return nil, err
	}
	for {
		prec, kind, ok := binaryPrecedence(p.cur.Type)
		if !ok || prec < minPrec || prec == precLowest {
			return left, nil
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseBinaryExpression(prec + 1)
		if err != nil {
			return nil, err
		}
		if isLogical(kind) {
			header := Op{Kind: kind, Value: runtime.Integer(int32(len(right)))}
			left = append(append([]Op{header}, left...), right...)
		} else {
			header := Op{Kind: kind}
			left = append(append([]Op{header}, left...), right...)
		}
	}
}

func (p *Parser) parseUnaryExpression() ([]Op, error) {
	switch p.cur.Type {
	case token.Type('+'):
		return p.parsePrefix(runtime.OpPositive)
	case token.Type('-'):
		return p.parsePrefix(runtime.OpNegative)
	case token.Type('!'):
		return p.parsePrefix(runtime.OpNot)
	case token.Type('~'):
		return p.parsePrefix(runtime.OpInvert)
	case token.VOID:
		if err := p.advance(); err != nil {
			return nil, err
		}
		v, err := p.parseUnaryExpression()
		if err != nil {
			return nil, err
		}
		return append([]Op{{Kind: runtime.OpDiscard}}, v...), nil
	case token.TYPEOF:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.at(token.IDENTIFIER) {
			name := p.key(p.cur.Text.String())
			if err := p.advance(); err != nil {
				return nil, err
			}
			return []Op{{Kind: runtime.OpTypeOfLocal, Value: runtime.KeyValue(name)}}, nil
		}
		v, err := p.parseUnaryExpression()
		if err != nil {
			return nil, err
		}
		return append([]Op{{Kind: runtime.OpTypeOf}}, v...), nil
	case token.DELETE:
		if err := p.advance(); err != nil {
			return nil, err
		}
		target, err := p.parseUnaryExpression()
		if err != nil {
			return nil, err
		}
		return rewriteDelete(target)
	case token.INCREMENT:
		return p.parsePrefixIncDec(runtime.OpIncrementRef)
	case token.DECREMENT:
		return p.parsePrefixIncDec(runtime.OpDecrementRef)
	default:
		return p.parsePostfixExpression()
	}
}

func (p *Parser) parsePrefix(kind runtime.OpKind) ([]Op, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	v, err := p.parseUnaryExpression()
	if err != nil {
		return nil, err
	}
	return append([]Op{{Kind: kind}}, v...), nil
}

func (p *Parser) parsePrefixIncDec(kind runtime.OpKind) ([]Op, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	target, err := p.parseUnaryExpression()
	if err != nil {
		return nil, err
	}
	ref, err := toRef(target)
	if err != nil {
		return nil, err
	}
	return append([]Op{{Kind: kind}}, ref...), nil
}

// rewriteDelete swaps a just-parsed member-access subtree's header op
// for its Delete counterpart; `delete` on anything else evaluates its
// operand, discards it and always evaluates to true in non-strict mode.
func rewriteDelete(expr []Op) ([]Op, error) {
	if len(expr) == 0 {
		return []Op{{Kind: runtime.OpValue, Value: runtime.Bool(true)}}, nil
	}
	switch expr[0].Kind {
	case runtime.OpGetMember:
		out := append([]Op{}, expr...)
		out[0].Kind = runtime.OpDeleteMember
		return out, nil
	case runtime.OpGetProperty:
		out := append([]Op{}, expr...)
		out[0].Kind = runtime.OpDeleteProperty
		return out, nil
	case runtime.OpGetMemberIndex:
		out := append([]Op{}, expr...)
		out[0].Kind = runtime.OpDeleteMemberIndex
		return out, nil
	default:
		out := append([]Op{{Kind: runtime.OpSequence, Value: runtime.Integer(2)}}, expr...)
		return append(out, Op{Kind: runtime.OpValue, Value: runtime.Bool(true)}), nil
	}
}

func (p *Parser) parsePostfixExpression() ([]Op, error) {
	expr, err := p.parseCallExpression()
	if err != nil {
		return nil, err
	}
	if p.cur.LineBreak {
		return expr, nil
	}
	var kind runtime.OpKind
	switch p.cur.Type {
	case token.INCREMENT:
		kind = runtime.OpPostIncrementRef
	case token.DECREMENT:
		kind = runtime.OpPostDecrementRef
	default:
		return expr, nil
	}
	ref, err := toRef(expr)
	if err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return append([]Op{{Kind: kind}}, ref...), nil
}

// parseCallExpression parses a primary expression followed by any chain
// of `.prop`, `[expr]`, `(args)` and `new` constructs.
func (p *Parser) parseCallExpression() ([]Op, error) {
	if p.at(token.NEW) {
		return p.parseNewExpression()
	}
	expr, err := p.parsePrimaryExpression()
	if err != nil {
		return nil, err
	}
	return p.parseCallTail(expr)
}

func (p *Parser) parseNewExpression() ([]Op, error) {
	if err := p.advance(); err != nil { // 'new'
		return nil, err
	}
	var callee []Op
	var err error
	if p.at(token.NEW) {
		callee, err = p.parseNewExpression()
	} else {
		callee, err = p.parsePrimaryExpression()
	}
	if err != nil {
		return nil, err
	}
	callee, err = p.parseMemberTail(callee)
	if err != nil {
		return nil, err
	}
	var args [][]Op
	if p.at(token.Type('(')) {
		args, err = p.parseArguments()
		if err != nil {
			return nil, err
		}
	}
	header := Op{Kind: runtime.OpConstruct, Value: runtime.Integer(int32(len(args)))}
	out := append([]Op{header}, callee...)
	for _, a := range args {
		out = append(out, a...)
	}
	return p.parseCallTail(out)
}

// parseMemberTail parses only `.prop`/`[expr]` (no calls), used for a
// `new` callee expression which binds tighter than a following `(args)`.
func (p *Parser) parseMemberTail(expr []Op) ([]Op, error) {
	for {
		switch p.cur.Type {
		case token.Type('.'):
			if err := p.advance(); err != nil {
				return nil, err
			}
			nameTok, err := p.expect(token.IDENTIFIER)
			if err != nil {
				return nil, err
			}
			idx, k, isElem := runtime.GetElementOrKey(p.pool, nameTok.Text.String())
			var val runtime.Value
			if isElem {
				val = runtime.Integer(int32(idx))
			} else {
				val = runtime.KeyValue(k)
			}
			header := Op{Kind: runtime.OpGetProperty, Value: val, Text: nameTok.Text}
			expr = append([]Op{header}, expr...)
		case token.Type('['):
			if err := p.advance(); err != nil {
				return nil, err
			}
			idxExpr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.Type(']')); err != nil {
				return nil, err
			}
			header := Op{Kind: runtime.OpGetMemberIndex}
			out := append([]Op{header}, expr...)
			expr = append(out, idxExpr...)
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseCallTail(expr []Op) ([]Op, error) {
	for {
		switch p.cur.Type {
		case token.Type('.'):
			if err := p.advance(); err != nil {
				return nil, err
			}
			nameTok, err := p.expect(token.IDENTIFIER)
			if err != nil {
				return nil, err
			}
			idx, k, isElem := runtime.GetElementOrKey(p.pool, nameTok.Text.String())
			var val runtime.Value
			if isElem {
				val = runtime.Integer(int32(idx))
			} else {
				val = runtime.KeyValue(k)
			}
			header := Op{Kind: runtime.OpGetProperty, Value: val, Text: nameTok.Text}
			expr = append([]Op{header}, expr...)
		case token.Type('['):
			if err := p.advance(); err != nil {
				return nil, err
			}
			idxExpr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.Type(']')); err != nil {
				return nil, err
			}
			header := Op{Kind: runtime.OpGetMemberIndex}
			out := append([]Op{header}, expr...)
			expr = append(out, idxExpr...)
		case token.Type('('):
			args, err := p.parseArguments()
			if err != nil {
				return nil, err
			}
			expr = rewriteCall(expr, args)
		default:
			return expr, nil
		}
	}
}

// rewriteCall turns a just-built callee subtree into a call: a bare
// OpGetProperty/OpGetMemberIndex callee becomes OpCallProperty/
// OpCallMember so its receiver survives as the call's `this` (see
// execCall's doc comment on why the receiver must be captured before
// accessor resolution collapses it); anything else is a plain OpCall.
func rewriteCall(callee []Op, args [][]Op) []Op {
	argc := int32(len(args))
	span := callee[0].Text
	var header Op
	var out []Op
	switch callee[0].Kind {
	case runtime.OpGetProperty:
		header = Op{Kind: runtime.OpCallProperty, Value: runtime.Integer(argc), Text: span}
		receiver := callee[1:]
		base := append([]Op{}, receiver...)
		out = append([]Op{header}, base...)
		out = append(out, callee...)
	case runtime.OpGetMember:
		header = Op{Kind: runtime.OpCallMember, Value: runtime.Integer(argc), Text: span}
		receiver := callee[1:]
		base := append([]Op{}, receiver...)
		out = append([]Op{header}, base...)
		out = append(out, callee...)
	case runtime.OpGetMemberIndex:
		header = Op{Kind: runtime.OpCallMember, Value: runtime.Integer(argc), Text: span}
		receiver := calleeBaseOf(callee)
		out = append([]Op{header}, receiver...)
		out = append(out, callee...)
	default:
		header = Op{Kind: runtime.OpCall, Value: runtime.Integer(argc), Text: span}
		out = append([]Op{header}, callee...)
	}
	for _, a := range args {
		out = append(out, a...)
	}
	return out
}

// calleeBaseOf returns the base-object subtree of an OpGetMemberIndex
// chain (the first child, before its dynamic key operand), so a
// `a[expr]()` call can supply `a` as `this` without re-evaluating it.
func calleeBaseOf(getMemberIndex []Op) []Op {
	// getMemberIndex[0] is the OpGetMemberIndex header; its base subtree
	// starts at index 1 and runs for however many ops that subexpression
	// occupies. Since subtrees are self-delimiting only by recursive
	// descent (not a stored length here), re-derive it the same way exec
	// would: walk forward counting the base subtree's own op count via
	// subtreeLen.
	n := subtreeLen(getMemberIndex[1:])
	return append([]Op{}, getMemberIndex[1:1+n]...)
}

// subtreeLen reports how many ops at the front of ops form one complete
// value-producing subtree, using the same child-arity rules exec's
// dispatch relies on. Needed only where a subtree must be duplicated
// (receiver capture) without re-parsing source text.
func subtreeLen(ops []Op) int {
	if len(ops) == 0 {
		return 0
	}
	o := ops[0]
	switch o.Kind {
	case runtime.OpValue, runtime.OpText, runtime.OpThis, runtime.OpGetLocal, runtime.OpGetLocalRef,
		runtime.OpFunctionLiteral, runtime.OpTypeOfLocal:
		return 1
	case runtime.OpObjectLiteral:
		n := 1
		count := int(o.Value.Integer())
		for i := 0; i < count; i++ {
			n++ // key leaf
			n += subtreeLen(ops[n:])
		}
		return n
	case runtime.OpArrayLiteral:
		n := 1
		count := int(o.Value.Integer())
		for i := 0; i < count; i++ {
			n += subtreeLen(ops[n:])
		}
		return n
	case runtime.OpGetMember, runtime.OpGetProperty, runtime.OpGetMemberRef, runtime.OpGetPropertyRef,
		runtime.OpDeleteMember, runtime.OpDeleteProperty, runtime.OpPositive, runtime.OpNegative,
		runtime.OpInvert, runtime.OpNot, runtime.OpTypeOf, runtime.OpDiscard, runtime.OpExpression,
		runtime.OpIncrementRef, runtime.OpDecrementRef, runtime.OpPostIncrementRef, runtime.OpPostDecrementRef,
		runtime.OpThrow:
		return 1 + subtreeLen(ops[1:])
	case runtime.OpGetMemberIndex, runtime.OpGetMemberIndexRef, runtime.OpDeleteMemberIndex:
		n := 1
		n += subtreeLen(ops[n:])
		n += subtreeLen(ops[n:])
		return n
	case runtime.OpSetMember, runtime.OpSetProperty:
		n := 1
		n += subtreeLen(ops[n:])
		n += subtreeLen(ops[n:])
		return n
	case runtime.OpSetMemberIndex:
		n := 1
		n += subtreeLen(ops[n:])
		n += subtreeLen(ops[n:])
		n += subtreeLen(ops[n:])
		return n
	case runtime.OpAdd, runtime.OpMinus, runtime.OpMultiply, runtime.OpDivide, runtime.OpModulo,
		runtime.OpBitwiseAnd, runtime.OpBitwiseOr, runtime.OpBitwiseXor, runtime.OpLeftShift,
		runtime.OpRightShift, runtime.OpUnsignedRightShift, runtime.OpLess, runtime.OpLessOrEqual,
		runtime.OpMore, runtime.OpMoreOrEqual, runtime.OpEqual, runtime.OpNotEqual, runtime.OpIdentical,
		runtime.OpNotIdentical, runtime.OpInstanceOf, runtime.OpIn, runtime.OpSequence,
		runtime.OpAddAssignRef, runtime.OpMinusAssignRef, runtime.OpMultiplyAssignRef,
		runtime.OpDivideAssignRef, runtime.OpModuloAssignRef, runtime.OpAssignRef:
		n := 1
		n += subtreeLen(ops[n:])
		n += subtreeLen(ops[n:])
		return n
	case runtime.OpLogicalAnd, runtime.OpLogicalOr:
		n := 1
		n += subtreeLen(ops[n:])
		n += int(o.Value.Integer())
		return n
	case runtime.OpConditional:
		n := 1
		n += subtreeLen(ops[n:])
		n += int(o.Value.Integer())
		n++ // altLen marker
		n += subtreeLen(ops[n:])
		return n
	case runtime.OpCall, runtime.OpConstruct:
		n := 1
		n += subtreeLen(ops[n:])
		for i := 0; i < int(o.Value.Integer()); i++ {
			n += subtreeLen(ops[n:])
		}
		return n
	case runtime.OpCallMember, runtime.OpCallProperty:
		n := 1
		n += subtreeLen(ops[n:])
		n += subtreeLen(ops[n:])
		for i := 0; i < int(o.Value.Integer()); i++ {
			n += subtreeLen(ops[n:])
		}
		return n
	default:
		return 1
	}
}

func (p *Parser) parseArguments() ([][]Op, error) {
	if _, err := p.expect(token.Type('(')); err != nil {
		return nil, err
	}
	var args [][]Op
	for !p.at(token.Type(')')) {
		a, err := p.parseAssignExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
		if p.at(token.Type(',')) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(token.Type(')')); err != nil {
		return nil, err
	}
	return args, nil
}

// ---------------------------------------------------------------------
// Primary expressions
// ---------------------------------------------------------------------

func (p *Parser) parsePrimaryExpression() ([]Op, error) {
	switch p.cur.Type {
	case token.IDENTIFIER:
		span := p.cur.Text
		name := p.key(p.cur.Text.String())
		if err := p.advance(); err != nil {
			return nil, err
		}
		return []Op{{Kind: runtime.OpGetLocal, Value: runtime.KeyValue(name), Text: span}}, nil
	case token.INTEGER:
		v := p.cur.IntegerValue
		if err := p.advance(); err != nil {
			return nil, err
		}
		return []Op{{Kind: runtime.OpValue, Value: runtime.Integer(v)}}, nil
	case token.BINARY:
		v := p.cur.BinaryValue
		if err := p.advance(); err != nil {
			return nil, err
		}
		return []Op{{Kind: runtime.OpValue, Value: runtime.Binary(v)}}, nil
	case token.ESCAPED_STRING:
		s := p.cur.StringValue
		if err := p.advance(); err != nil {
			return nil, err
		}
		return []Op{{Kind: runtime.OpValue, Value: runtime.CharsValue(p.pool.RegisterChars(s))}}, nil
	case token.STRING:
		tx := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return []Op{{Kind: runtime.OpText, Text: tx}}, nil
	case token.YES:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return []Op{{Kind: runtime.OpValue, Value: runtime.True()}}, nil
	case token.NO:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return []Op{{Kind: runtime.OpValue, Value: runtime.False()}}, nil
	case token.NULL:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return []Op{{Kind: runtime.OpValue, Value: runtime.Null()}}, nil
	case token.THIS:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return []Op{{Kind: runtime.OpThis}}, nil
	case token.FUNCTION:
		return p.parseFunctionExpression()
	case token.Type('('):
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.Type(')')); err != nil {
			return nil, err
		}
		return e, nil
	case token.Type('['):
		return p.parseArrayLiteral()
	case token.Type('{'):
		return p.parseObjectLiteral()
	default:
		return nil, p.fail("unexpected token %s in expression", p.cur.Type)
	}
}

func (p *Parser) parseArrayLiteral() ([]Op, error) {
	if err := p.advance(); err != nil { // '['
		return nil, err
	}
	var elems [][]Op
	for !p.at(token.Type(']')) {
		e, err := p.parseAssignExpression()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if p.at(token.Type(',')) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(token.Type(']')); err != nil {
		return nil, err
	}
	header := Op{Kind: runtime.OpArrayLiteral, Value: runtime.Integer(int32(len(elems)))}
	out := []Op{header}
	for _, e := range elems {
		out = append(out, e...)
	}
	return out, nil
}

func (p *Parser) parseObjectLiteral() ([]Op, error) {
	if err := p.advance(); err != nil { // '{'
		return nil, err
	}
	type prop struct {
		key key.Key
		val []Op
	}
	var props []prop
	for !p.at(token.Type('}')) {
		var name string
		switch p.cur.Type {
		case token.IDENTIFIER:
			name = p.cur.Text.String()
			if err := p.advance(); err != nil {
				return nil, err
			}
		case token.ESCAPED_STRING:
			name = p.cur.StringValue.Text().String()
			if err := p.advance(); err != nil {
				return nil, err
			}
		case token.STRING:
			name = p.cur.Text.String()
			if err := p.advance(); err != nil {
				return nil, err
			}
		case token.INTEGER:
			name = p.cur.Text.String()
			if err := p.advance(); err != nil {
				return nil, err
			}
		default:
			return nil, p.fail("expected property name, got %s", p.cur.Type)
		}
		if _, err := p.expect(token.Type(':')); err != nil {
			return nil, err
		}
		v, err := p.parseAssignExpression()
		if err != nil {
			return nil, err
		}
		props = append(props, prop{key: p.key(name), val: v})
		if p.at(token.Type(',')) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(token.Type('}')); err != nil {
		return nil, err
	}
	header := Op{Kind: runtime.OpObjectLiteral, Value: runtime.Integer(int32(len(props)))}
	out := []Op{header}
	for _, pr := range props {
		out = append(out, Op{Kind: runtime.OpValue, Value: runtime.KeyValue(pr.key)})
		out = append(out, pr.val...)
	}
	return out, nil
}
