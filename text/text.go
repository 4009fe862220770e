// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

// Package text implements an immutable, non-owning view over source bytes
// (or a Chars blob) plus the owned, refcounted byte blob that backs runtime
// string values.
//
// Design overview:
//
//   - A Text never owns memory: it is an (offset, length) window into a
//     shared, immutable backing buffer (the original source, or a Chars
//     blob's storage). Representing it as indices rather than a raw slice
//     header makes Join — reconstructing the span from a production's first
//     token to its last — an O(1) index computation instead of requiring
//     unsafe pointer arithmetic.
//   - A Char is a decoded UTF-8 codepoint plus the number of bytes it took.
//   - Codepoints outside the Basic Multilingual Plane are presented to
//     script code as a UTF-16 surrogate pair; Flag.Break marks a Text
//     positioned so the next unit step must emit the low surrogate half
//     rather than decoding a fresh codepoint.
package text

import "fmt"

// Flag holds per-Text behavior bits.
type Flag uint8

const (
	// Break marks a Text whose next unit step must emit the low half of a
	// surrogate pair instead of decoding a new UTF-8 codepoint.
	Break Flag = 1 << iota
)

// Buffer is the shared backing store a family of Texts slices into. The
// only mutation is AppendBuilder.Append growing a Chars's own Buffer in
// place while that Chars is in append mode; EndAppend ends that and
// creates no new Buffer.
type Buffer struct {
	Name  string
	Bytes []byte
}

// Text is an immutable (offset, length) window into a Buffer.
type Text struct {
	buf    *Buffer
	Offset int
	Length int
	Flags  Flag
}

// Make builds a Text viewing the whole of a fresh, unnamed Buffer wrapping
// bytes. The caller must not mutate bytes afterward.
func Make(bytes []byte) Text {
	return Text{buf: &Buffer{Bytes: bytes}, Offset: 0, Length: len(bytes)}
}

// FromBuffer builds a Text spanning the whole of an existing Buffer.
func FromBuffer(buf *Buffer) Text {
	return Text{buf: buf, Offset: 0, Length: len(buf.Bytes)}
}

// NewSpan builds a Text over [offset, offset+length) of buf. Used by the
// lexer, which tracks raw offsets into its source Buffer directly.
func NewSpan(buf *Buffer, offset, length int) Text {
	return Text{buf: buf, Offset: offset, Length: length}
}

// FromString builds a Text over a copy of s's bytes.
func FromString(s string) Text {
	return Make([]byte(s))
}

// Buffer returns the Buffer a Text slices into, or nil for the zero Text.
// Lets a diagnostic printer recover the full source (for a line/column
// excerpt) from nothing but the span it was handed.
func (t Text) Buffer() *Buffer {
	return t.buf
}

// Bytes returns the byte slice the Text currently views.
func (t Text) Bytes() []byte {
	if t.buf == nil {
		return nil
	}
	return t.buf.Bytes[t.Offset : t.Offset+t.Length]
}

// String returns the Text's contents as a Go string (copies the bytes).
func (t Text) String() string {
	return string(t.Bytes())
}

// Len returns the byte length of the Text.
func (t Text) Len() int {
	return t.Length
}

// IsEmpty reports whether the Text has zero length.
func (t Text) IsEmpty() bool {
	return t.Length == 0
}

// Equal reports whether two Texts have identical byte content.
func (t Text) Equal(o Text) bool {
	if t.Length != o.Length {
		return false
	}
	tb, ob := t.Bytes(), o.Bytes()
	for i := range tb {
		if tb[i] != ob[i] {
			return false
		}
	}
	return true
}

// Advance returns a Text with the first n bytes dropped.
func (t Text) Advance(n int) Text {
	if n > t.Length {
		n = t.Length
	}
	return Text{buf: t.buf, Offset: t.Offset + n, Length: t.Length - n, Flags: t.Flags}
}

// Join returns a Text spanning from the start of a to the end of b. Both
// must be Texts over the same Buffer, as is always true for two
// sub-productions of one parse.
func Join(a, b Text) Text {
	if a.buf == nil {
		return b
	}
	if b.buf == nil {
		return a
	}
	start := a.Offset
	end := b.Offset + b.Length
	if end < start {
		end = start
	}
	return Text{buf: a.buf, Offset: start, Length: end - start, Flags: a.Flags | b.Flags}
}

// Char is a single decoded codepoint plus the number of source bytes (1-4)
// it occupied.
type Char struct {
	Codepoint rune
	Units     int
}

// Character decodes the leading UTF-8 codepoint of t without advancing.
// An invalid or empty leading sequence decodes as U+FFFD, one unit wide.
func Character(t Text) Char {
	b := t.Bytes()
	if len(b) == 0 {
		return Char{Codepoint: 0, Units: 0}
	}
	b0 := b[0]
	switch {
	case b0 < 0x80:
		return Char{Codepoint: rune(b0), Units: 1}
	case b0&0xE0 == 0xC0 && len(b) >= 2:
		return Char{Codepoint: rune(b0&0x1F)<<6 | rune(b[1]&0x3F), Units: 2}
	case b0&0xF0 == 0xE0 && len(b) >= 3:
		return Char{
			Codepoint: rune(b0&0x0F)<<12 | rune(b[1]&0x3F)<<6 | rune(b[2]&0x3F),
			Units:     3,
		}
	case b0&0xF8 == 0xF0 && len(b) >= 4:
		return Char{
			Codepoint: rune(b0&0x07)<<18 | rune(b[1]&0x3F)<<12 | rune(b[2]&0x3F)<<6 | rune(b[3]&0x3F),
			Units:     4,
		}
	default:
		return Char{Codepoint: 0xFFFD, Units: 1}
	}
}

// NextCharacter decodes the character at *t and advances *t past it.
func NextCharacter(t *Text) Char {
	c := Character(*t)
	if c.Units == 0 {
		return c
	}
	*t = t.Advance(c.Units)
	return c
}

// PrevCharacter scans backward from the end of t for its last codepoint,
// returning it without modifying t.
func PrevCharacter(t Text) Char {
	b := t.Bytes()
	if len(b) == 0 {
		return Char{}
	}
	i := len(b) - 1
	for i > 0 && b[i]&0xC0 == 0x80 {
		i--
	}
	return Character(Text{buf: t.buf, Offset: t.Offset + i, Length: t.Length - i})
}

// Unit16Count returns how many UTF-16 code units c contributes when exposed
// to script indexing: 2 for an astral codepoint (surrogate pair), else 1.
func (c Char) Unit16Count() int {
	if c.Codepoint >= 0x10000 {
		return 2
	}
	return 1
}

// SurrogatePair splits an astral codepoint into its UTF-16 surrogate
// halves. Only meaningful when Codepoint >= 0x10000.
func (c Char) SurrogatePair() (high, low uint16) {
	v := uint32(c.Codepoint) - 0x10000
	high = uint16(0xD800 + (v >> 10))
	low = uint16(0xDC00 + (v & 0x3FF))
	return
}

// Position describes a human-readable source location for diagnostics.
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	if p.File != "" {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}
