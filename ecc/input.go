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

package ecc

import "os"

// Input is a named unit of source text an Engine evaluates, mirroring the
// source's createFromFile/createFromBytes pair (spec §6's external
// interface). An Engine keeps every Input passed to EvalInput for its own
// lifetime so diagnostics printed after the fact (e.g. a REPL replaying
// scrollback) can still resolve a span back to readable source; Destroy
// drops them all at once.
type Input struct {
	Name   string
	Source []byte
}

// CreateInputFromFile reads filename whole, naming the Input after it.
func CreateInputFromFile(filename string) (*Input, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return &Input{Name: filename, Source: b}, nil
}

// CreateInputFromBytes wraps an in-memory source buffer under name (e.g.
// "(repl)" or "(eval)" for script generated at runtime, matching the
// source's parenthesized synthetic-input naming convention).
func CreateInputFromBytes(source []byte, name string) *Input {
	return &Input{Name: name, Source: source}
}
