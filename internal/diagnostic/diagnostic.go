// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.
//
// The ProbeChain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The ProbeChain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the ProbeChain. If not, see <http://www.gnu.org/licenses/>.

// Package diagnostic implements spec §6/§7's uncaught-throw presentation:
// "Name: message" followed by a source excerpt with a "^~~~" underline
// under the offending span and a line number, optionally colored when the
// output is a terminal. It also exposes Dump, a deep cycle-safe value
// dumper; nothing in this module calls it.
package diagnostic

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/probechain/probescript/internal/errorx"
)

// Print writes err's "Name: message" header and, when err.Text carries a
// real span, a source excerpt beneath it: the offending line, prefixed
// with its line number, then a caret line underlining the span with
// "^~~~". Color is applied only when w is an *os.File attached to a
// terminal (mattn/go-isatty), matching spec §6's "optional ANSI color
// when a terminal is detected".
func Print(w io.Writer, err *errorx.ScriptError) {
	headerColor, sourceColor, caretColor := colorsFor(w)

	fmt.Fprintln(w, headerColor.Sprintf("%s: %s", err.Kind, err.Message))

	buf := err.Text.Buffer()
	if buf == nil {
		return
	}
	line, col, lineNo := locate(buf.Bytes, err.Text.Offset)
	if buf.Name != "" {
		fmt.Fprintf(w, "  at %s:%d:%d\n", buf.Name, lineNo, col+1)
	} else {
		fmt.Fprintf(w, "  at line %d, column %d\n", lineNo, col+1)
	}
	fmt.Fprintln(w, sourceColor.Sprint(line))
	fmt.Fprintln(w, caretColor.Sprint(caretLine(line, col, err.Text.Len())))
}

// colorsFor returns no-op color.Color values unless w is a terminal, so a
// redirected-to-file or piped run never emits ANSI escapes into output a
// human won't be reading live.
func colorsFor(w io.Writer) (header, source, caret *color.Color) {
	f, ok := w.(*os.File)
	tty := ok && isatty.IsTerminal(f.Fd())
	header = color.New(color.FgRed, color.Bold)
	source = color.New(color.Reset)
	caret = color.New(color.FgGreen, color.Bold)
	if !tty {
		header.DisableColor()
		source.DisableColor()
		caret.DisableColor()
	}
	return header, source, caret
}

// locate scans src up to offset to find the physical line containing it,
// returning that line's bytes (without its terminator), the zero-based
// column of offset within the line, and the one-based line number.
func locate(src []byte, offset int) (line []byte, col int, lineNo int) {
	if offset > len(src) {
		offset = len(src)
	}
	lineNo = 1
	lineStart := 0
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			lineNo++
			lineStart = i + 1
		}
	}
	lineEnd := len(src)
	if idx := bytes.IndexByte(src[lineStart:], '\n'); idx >= 0 {
		lineEnd = lineStart + idx
	}
	line = src[lineStart:lineEnd]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	col = offset - lineStart
	return line, col, lineNo
}

// caretLine builds the "^~~~" underline beneath line: spaces up to col,
// a single '^' at the span's start, then '~' for the rest of the span
// (clamped to the line's own length, since a span that trails off the end
// of the physical line — e.g. the last token before EOF — must not index
// past what was actually printed above it).
func caretLine(line []byte, col, spanLen int) string {
	if col > len(line) {
		col = len(line)
	}
	maxLen := len(line) - col
	if spanLen > maxLen {
		spanLen = maxLen
	}
	if spanLen < 1 {
		spanLen = 1
	}
	out := make([]byte, 0, col+spanLen)
	for i := 0; i < col; i++ {
		if line[i] == '\t' {
			out = append(out, '\t')
		} else {
			out = append(out, ' ')
		}
	}
	out = append(out, '^')
	for i := 1; i < spanLen; i++ {
		out = append(out, '~')
	}
	return string(out)
}

// Dump renders v (typically a runtime.Value or *runtime.Object) as a deep,
// cycle-safe structural dump via davecgh/go-spew.
func Dump(v interface{}) string {
	return spew.Sdump(v)
}
