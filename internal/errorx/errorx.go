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

// Package errorx models the host-visible form of a script-level error: the
// six ES3 error kinds (spec §7), paired with the source span they were
// thrown from. This is distinct from a Go sentinel error (an
// errors.New/fmt.Errorf value signaling host-side misuse such as a bad ABI
// call or pool corruption) and distinct from the runtime.Throw mechanism
// (which carries the raw thrown runtime.Value through Go's own call stack
// while a script unwinds). ecc.EvalInput converts an uncaught
// *runtime.Throw into a *ScriptError only at the point it crosses back
// into host code, as a plain struct carrying the error's script-visible
// Kind, a formatted message and the throw site's span; it wraps no other
// error.
package errorx

import (
	"fmt"

	"github.com/probechain/probescript/text"
)

// Kind is one of the six ES3 error kinds spec §7 defines.
type Kind uint8

const (
	GenericError Kind = iota
	SyntaxError
	ReferenceError
	TypeError
	RangeError
	URIError
)

// kindNames is indexed by Kind and also serves as the reverse lookup table
// for KindFromName, since user scripts construct an error by referencing
// the constructor's own name (e.g. `new TypeError(...)`), and
// `builtin`'s constructors stamp that same name onto the thrown object's
// own "name" property.
var kindNames = [...]string{
	GenericError:    "Error",
	SyntaxError:     "SyntaxError",
	ReferenceError:  "ReferenceError",
	TypeError:   "TypeError",
	RangeError:      "RangeError",
	URIError:        "URIError",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Error"
}

// KindFromName maps an error object's "name" property back to a Kind,
// defaulting to GenericError for any name the engine did not itself mint
// (a script can `throw {name: "Whatever"}` freely; only the six spec
// kinds get a dedicated Kind).
func KindFromName(name string) Kind {
	for k, n := range kindNames {
		if n == name {
			return Kind(k)
		}
	}
	return GenericError
}

// ScriptError is the error returned to an embedder by Ecc.EvalInput (and
// friends) when a script throws a value nothing inside the script catches.
type ScriptError struct {
	Kind    Kind
	Message string
	Text    text.Text // best-effort source span of the throw site; may be the zero Text
}

func (e *ScriptError) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New builds a ScriptError, formatting Message via fmt.Sprintf over a
// format string rather than requiring every call site to pre-format its
// own message.
func New(kind Kind, span text.Text, format string, args ...interface{}) *ScriptError {
	return &ScriptError{Kind: kind, Message: fmt.Sprintf(format, args...), Text: span}
}
