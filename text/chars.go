// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package text

// Chars is an owned, refcounted byte blob backing a
// runtime string value. Unlike Text, a Chars owns its storage: it is
// created by one of the factories below and its lifetime is managed by the
// pool (see the runtime package), which registers every Chars it creates
// and frees it once unreachable and unreferenced.
type Chars struct {
	buf    Buffer
	refs   int16
	marked bool

	appending bool // true between BeginAppend and EndAppend
}

// CreateSized allocates a new, zeroed Chars of the given byte length.
func CreateSized(length int) *Chars {
	return &Chars{buf: Buffer{Bytes: make([]byte, length)}}
}

// CreateWithBytes allocates a new Chars that copies b.
func CreateWithBytes(b []byte) *Chars {
	cp := make([]byte, len(b))
	copy(cp, b)
	return &Chars{buf: Buffer{Bytes: cp}}
}

// CreateWithText allocates a new Chars that copies t's bytes.
func CreateWithText(t Text) *Chars {
	return CreateWithBytes(t.Bytes())
}

// Text returns a Text viewing the Chars's current storage.
func (c *Chars) Text() Text {
	return FromBuffer(&c.buf)
}

// Bytes returns the Chars's raw storage. Do not retain past a mutation via
// Append.
func (c *Chars) Bytes() []byte {
	return c.buf.Bytes
}

// Len reports the current byte length.
func (c *Chars) Len() int {
	return len(c.buf.Bytes)
}

// Retain increments the reference count (an object/Function holding this
// Chars in a Value slot retains it).
func (c *Chars) Retain() {
	c.refs++
}

// Release decrements the reference count and reports whether it reached
// zero (the pool's sweep uses this to decide liveness together with the
// mark bit; a Chars with positive refcount outside of GC-reachability is
// still considered live by direct ownership, e.g. append-mode buffers).
func (c *Chars) Release() bool {
	if c.refs > 0 {
		c.refs--
	}
	return c.refs == 0
}

// RefCount returns the current reference count.
func (c *Chars) RefCount() int16 {
	return c.refs
}

// Mark sets the GC mark bit.
func (c *Chars) Mark() {
	c.marked = true
}

// Unmark clears the GC mark bit (used at the start of a sweep cycle).
func (c *Chars) Unmark() {
	c.marked = false
}

// Marked reports the current GC mark bit.
func (c *Chars) Marked() bool {
	return c.marked
}

// Appending reports whether the Chars is mid-construction via BeginAppend;
// the pool must not collect an appending Chars even if otherwise
// unreachable, since it is not yet registered.
func (c *Chars) Appending() bool {
	return c.appending
}

// AppendBuilder accumulates bytes for a Chars under construction. It is not
// itself GC-registered until EndAppend finalizes it, matching the source's
// append-mode buffers that must survive a collection mid-build.
type AppendBuilder struct {
	chars *Chars
	units int
}

// BeginAppend starts a new streaming append, returning a builder bound to a
// freshly allocated (but not yet pool-registered) Chars.
func BeginAppend() *AppendBuilder {
	c := &Chars{appending: true}
	return &AppendBuilder{chars: c}
}

// Append adds raw bytes to the in-progress Chars.
func (a *AppendBuilder) Append(b []byte) {
	a.chars.buf.Bytes = append(a.chars.buf.Bytes, b...)
	a.units += len(b)
}

// AppendString adds a Go string's bytes to the in-progress Chars.
func (a *AppendBuilder) AppendString(s string) {
	a.Append([]byte(s))
}

// AppendCodepoint encodes and appends a single codepoint as UTF-8.
func (a *AppendBuilder) AppendCodepoint(r rune) {
	a.Append(encodeUTF8(r))
}

// EndAppend finalizes the builder: it clears the appending flag (making the
// Chars eligible for pool registration/collection) and returns the
// completed Chars. The caller is responsible for registering it with a
// Pool (see runtime.Pool.RegisterChars), mirroring the source's
// "endAppend registers with Pool" contract.
func (a *AppendBuilder) EndAppend() *Chars {
	a.chars.appending = false
	return a.chars
}

func encodeUTF8(r rune) []byte {
	switch {
	case r < 0x80:
		return []byte{byte(r)}
	case r < 0x800:
		return []byte{
			byte(0xC0 | (r >> 6)),
			byte(0x80 | (r & 0x3F)),
		}
	case r < 0x10000:
		return []byte{
			byte(0xE0 | (r >> 12)),
			byte(0x80 | ((r >> 6) & 0x3F)),
			byte(0x80 | (r & 0x3F)),
		}
	default:
		return []byte{
			byte(0xF0 | (r >> 18)),
			byte(0x80 | ((r >> 12) & 0x3F)),
			byte(0x80 | ((r >> 6) & 0x3F)),
			byte(0x80 | (r & 0x3F)),
		}
	}
}
