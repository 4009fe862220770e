// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

package builtin

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/probechain/probescript/runtime"
)

// installJSON builds the JSON global object (ES5 §15.12): both parse and
// stringify are implemented, since stringify is parse's natural
// counterpart and a script expecting to round-trip JSON needs both.
func installJSON(e engineLike, objectProto *runtime.Object, funcProto *runtime.Object) {
	pool := e.Pool()
	j := pool.NewObject(objectProto, runtime.TypeObject)

	method(pool, j, funcProto, "parse", 2, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		text, t := toStringValue(ctx, ctx.Argument(0))
		if t != nil {
			return runtime.Value{}, t
		}
		p := &jsonParser{ctx: ctx, s: text}
		p.skipSpace()
		v, t := p.parseValue()
		if t != nil {
			return runtime.Value{}, t
		}
		p.skipSpace()
		if p.pos != len(p.s) {
			return runtime.Value{}, runtime.NewThrow(ctx.NewError("SyntaxError", "unexpected trailing characters in JSON"))
		}
		reviver := asFunction(ctx.Argument(1))
		if reviver == nil {
			return v, nil
		}
		holder := pool.NewObject(objectPrototype, runtime.TypeObject)
		holder.AddMember(pool.Keys.MakeWithText(""), v, 0)
		return walkReviver(ctx, reviver, holder, "", v)
	})

	method(pool, j, funcProto, "stringify", 3, func(ctx *runtime.Context) (runtime.Value, *runtime.Throw) {
		var b strings.Builder
		indent := ""
		if ctx.ArgumentCount() > 2 {
			sp := ctx.Argument(2)
			if sp.Kind == runtime.KindInteger || sp.Kind == runtime.KindBinary {
				n := int(sp.ToNumber())
				if n > 10 {
					n = 10
				}
				indent = strings.Repeat(" ", n)
			} else if sp.Kind == runtime.KindText || sp.Kind == runtime.KindChars {
				indent = sp.DisplayString()
			}
		}
		ok, t := stringifyValue(ctx, &b, ctx.Argument(0), indent, "")
		if t != nil {
			return runtime.Value{}, t
		}
		if !ok {
			return runtime.Undefined(), nil
		}
		return newString(b.String()), nil
	})

	e.AddValue("JSON", runtime.ObjectValue(runtime.KindObject, j), runtime.FlagHidden)
}

// walkReviver applies ES5 §15.12.2's bottom-up Walk procedure: every
// property of an object/array result is itself revived before the
// reviver is called on the (possibly now-modified) holder/key pair.
func walkReviver(ctx *runtime.Context, reviver *runtime.Function, holder *runtime.Object, key interface{}, v runtime.Value) (runtime.Value, *runtime.Throw) {
	if v.IsObjectKind() && v.Object() != nil {
		o := v.Object()
		if o.Type == runtime.TypeArray {
			n := arrayLength(o, ctx.Pool)
			for i := 0; i < n; i++ {
				elem, _ := o.Element(uint32(i), true)
				revived, t := walkReviver(ctx, reviver, o, i, elem)
				if t != nil {
					return runtime.Value{}, t
				}
				if revived.Kind == runtime.KindUndefined {
					o.DeleteElement(uint32(i))
				} else {
					o.AddElement(uint32(i), revived, 0)
				}
			}
		} else {
			for _, k := range o.OwnKeys(false) {
				val, _ := o.Member(k, true)
				revived, t := walkReviver(ctx, reviver, o, ctx.Pool.Keys.Text(k), val)
				if t != nil {
					return runtime.Value{}, t
				}
				if revived.Kind == runtime.KindUndefined {
					o.DeleteMember(k)
				} else {
					o.AddMember(k, revived, 0)
				}
			}
		}
	}
	var name string
	switch kk := key.(type) {
	case int:
		name = strconv.Itoa(kk)
	case string:
		name = kk
	}
	return ctx.Call(reviver, runtime.ObjectValue(runtime.KindObject, holder), []runtime.Value{newString(name), v})
}

// stringifyValue implements ES5 §15.12.3's JO/JA/Str, returning ok=false
// for values that have no JSON representation (undefined, a function),
// which stringify drops entirely (for a top-level value) or omits (for
// an object member).
func stringifyValue(ctx *runtime.Context, b *strings.Builder, v runtime.Value, indent, cur string) (bool, *runtime.Throw) {
	if v.IsObjectKind() && v.Object() != nil {
		if fn := asFunction(methodOf(ctx, v, ctx.Pool.Keys.MakeWithText("toJSON"))); fn != nil {
			r, t := ctx.Call(fn, v, nil)
			if t != nil {
				return false, t
			}
			v = r
		}
	}
	switch {
	case v.Kind == runtime.KindUndefined:
		return false, nil
	case v.IsObjectKind() && asFunction(v) != nil:
		return false, nil
	case v.Kind == runtime.KindNull:
		b.WriteString("null")
		return true, nil
	case v.Kind == runtime.KindTrue, v.Kind == runtime.KindFalse, v.Kind == runtime.KindBoolean:
		n, t := thisBooleanLikeValue(ctx, v)
		if t != nil {
			return false, t
		}
		if n {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
		return true, nil
	case v.Kind == runtime.KindInteger, v.Kind == runtime.KindBinary, v.Kind == runtime.KindNumber:
		n, t := toNumberValue(ctx, v)
		if t != nil {
			return false, t
		}
		b.WriteString(strconv.FormatFloat(n, 'g', -1, 64))
		return true, nil
	case v.Kind == runtime.KindText, v.Kind == runtime.KindChars, v.Kind == runtime.KindString:
		s, t := toStringValue(ctx, v)
		if t != nil {
			return false, t
		}
		writeJSONString(b, s)
		return true, nil
	}
	if !v.IsObjectKind() || v.Object() == nil {
		return false, nil
	}
	o := v.Object()
	next := cur + indent
	if o.Type == runtime.TypeArray {
		n := arrayLength(o, ctx.Pool)
		b.WriteByte('[')
		for i := 0; i < n; i++ {
			if i > 0 {
				b.WriteByte(',')
			}
			writeNewlineIndent(b, indent, next)
			elem, _ := o.Element(uint32(i), true)
			ok, t := stringifyValue(ctx, b, elem, indent, next)
			if t != nil {
				return false, t
			}
			if !ok {
				b.WriteString("null")
			}
		}
		if n > 0 {
			writeNewlineIndent(b, indent, cur)
		}
		b.WriteByte(']')
		return true, nil
	}
	b.WriteByte('{')
	first := true
	for _, k := range o.OwnKeys(false) {
		val, _ := o.Member(k, true)
		var sub strings.Builder
		ok, t := stringifyValue(ctx, &sub, val, indent, next)
		if t != nil {
			return false, t
		}
		if !ok {
			continue
		}
		if !first {
			b.WriteByte(',')
		}
		first = false
		writeNewlineIndent(b, indent, next)
		writeJSONString(b, ctx.Pool.Keys.Text(k))
		b.WriteByte(':')
		if indent != "" {
			b.WriteByte(' ')
		}
		b.WriteString(sub.String())
	}
	if !first {
		writeNewlineIndent(b, indent, cur)
	}
	b.WriteByte('}')
	return true, nil
}

func thisBooleanLikeValue(ctx *runtime.Context, v runtime.Value) (bool, *runtime.Throw) {
	if v.Kind == runtime.KindTrue || v.Kind == runtime.KindFalse {
		return v.ToBoolean(), nil
	}
	if val, ok := v.Object().Member(ctx.Pool.Keys.Predefined.Value, true); ok {
		return val.ToBoolean(), nil
	}
	return false, nil
}

func writeNewlineIndent(b *strings.Builder, indent, cur string) {
	if indent == "" {
		return
	}
	b.WriteByte('\n')
	b.WriteString(cur)
}

func writeJSONString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
}

// jsonParser is a small recursive-descent JSON parser, grounded on
// original_source/src/builtin/json.c's object/array/string/number/
// literal dispatch.
type jsonParser struct {
	ctx *runtime.Context
	s   string
	pos int
}

func (p *jsonParser) skipSpace() {
	for p.pos < len(p.s) {
		switch p.s[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *jsonParser) fail(msg string) *runtime.Throw {
	return runtime.NewThrow(p.ctx.NewError("SyntaxError", msg+" in JSON at position "+strconv.Itoa(p.pos)))
}

func (p *jsonParser) parseValue() (runtime.Value, *runtime.Throw) {
	p.skipSpace()
	if p.pos >= len(p.s) {
		return runtime.Value{}, p.fail("unexpected end of input")
	}
	switch c := p.s[p.pos]; {
	case c == '{':
		return p.parseObject()
	case c == '[':
		return p.parseArray()
	case c == '"':
		s, err := p.parseString()
		if err != nil {
			return runtime.Value{}, err
		}
		return newString(s), nil
	case c == 't':
		return p.parseLiteral("true", runtime.Bool(true))
	case c == 'f':
		return p.parseLiteral("false", runtime.Bool(false))
	case c == 'n':
		return p.parseLiteral("null", runtime.Null())
	default:
		return p.parseNumber()
	}
}

func (p *jsonParser) parseLiteral(word string, v runtime.Value) (runtime.Value, *runtime.Throw) {
	if p.pos+len(word) > len(p.s) || p.s[p.pos:p.pos+len(word)] != word {
		return runtime.Value{}, p.fail("unexpected token")
	}
	p.pos += len(word)
	return v, nil
}

func (p *jsonParser) parseNumber() (runtime.Value, *runtime.Throw) {
	start := p.pos
	if p.pos < len(p.s) && p.s[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.s) && isJSONNumberChar(p.s[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return runtime.Value{}, p.fail("unexpected token")
	}
	n, err := strconv.ParseFloat(p.s[start:p.pos], 64)
	if err != nil {
		return runtime.Value{}, p.fail("invalid number")
	}
	return runtime.Binary(n), nil
}

func isJSONNumberChar(c byte) bool {
	return (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' || c == '+' || c == '-'
}

func (p *jsonParser) parseString() (string, *runtime.Throw) {
	p.pos++ // opening quote
	var b strings.Builder
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == '"' {
			p.pos++
			return b.String(), nil
		}
		if c == '\\' {
			p.pos++
			if p.pos >= len(p.s) {
				break
			}
			switch p.s[p.pos] {
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case '/':
				b.WriteByte('/')
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case 'u':
				if p.pos+4 >= len(p.s) {
					return "", p.fail("invalid unicode escape")
				}
				code, err := strconv.ParseUint(p.s[p.pos+1:p.pos+5], 16, 32)
				if err != nil {
					return "", p.fail("invalid unicode escape")
				}
				b.WriteRune(rune(code))
				p.pos += 4
			default:
				return "", p.fail("invalid escape")
			}
			p.pos++
			continue
		}
		b.WriteByte(c)
		p.pos++
	}
	return "", p.fail("unterminated string")
}

func (p *jsonParser) parseObject() (runtime.Value, *runtime.Throw) {
	pool := p.ctx.Pool
	o := pool.NewObject(objectPrototype, runtime.TypeObject)
	p.pos++ // '{'
	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] == '}' {
		p.pos++
		return runtime.ObjectValue(runtime.KindObject, o), nil
	}
	for {
		p.skipSpace()
		if p.pos >= len(p.s) || p.s[p.pos] != '"' {
			return runtime.Value{}, p.fail("expected property name")
		}
		name, err := p.parseString()
		if err != nil {
			return runtime.Value{}, err
		}
		p.skipSpace()
		if p.pos >= len(p.s) || p.s[p.pos] != ':' {
			return runtime.Value{}, p.fail("expected ':'")
		}
		p.pos++
		val, t := p.parseValue()
		if t != nil {
			return runtime.Value{}, t
		}
		o.AddMember(pool.Keys.MakeWithText(name), val, 0)
		p.skipSpace()
		if p.pos < len(p.s) && p.s[p.pos] == ',' {
			p.pos++
			continue
		}
		break
	}
	p.skipSpace()
	if p.pos >= len(p.s) || p.s[p.pos] != '}' {
		return runtime.Value{}, p.fail("expected '}'")
	}
	p.pos++
	return runtime.ObjectValue(runtime.KindObject, o), nil
}

func (p *jsonParser) parseArray() (runtime.Value, *runtime.Throw) {
	pool := p.ctx.Pool
	arr := pool.NewObject(arrayPrototype, runtime.TypeArray)
	p.pos++ // '['
	p.skipSpace()
	idx := uint32(0)
	if p.pos < len(p.s) && p.s[p.pos] == ']' {
		p.pos++
		arr.AddMember(pool.Keys.Predefined.Length, runtime.Integer(0), runtime.FlagHidden)
		return runtime.ObjectValue(runtime.KindObject, arr), nil
	}
	for {
		val, t := p.parseValue()
		if t != nil {
			return runtime.Value{}, t
		}
		arr.AddElement(idx, val, 0)
		idx++
		p.skipSpace()
		if p.pos < len(p.s) && p.s[p.pos] == ',' {
			p.pos++
			continue
		}
		break
	}
	p.skipSpace()
	if p.pos >= len(p.s) || p.s[p.pos] != ']' {
		return runtime.Value{}, p.fail("expected ']'")
	}
	p.pos++
	arr.AddMember(pool.Keys.Predefined.Length, runtime.Integer(int32(idx)), runtime.FlagHidden)
	return runtime.ObjectValue(runtime.KindObject, arr), nil
}
