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

import (
	"bufio"
	"fmt"
	"os"
	"reflect"
	"unicode"

	"github.com/naoina/toml"

	"github.com/probechain/probescript/runtime"
)

// Config bounds an Engine's resource usage and optional features. Library
// embedders build one directly; cmd/probescript additionally loads one
// from a TOML file via LoadConfig, using a toml.Config with
// NormFieldName/FieldToKey as the identity so TOML keys match Go field
// names exactly, rather than the library's default snake_case folding.
type Config struct {
	// MaxCallDepth bounds recursion (spec §5's maximumCallDepth). Zero
	// means runtime.DefaultMaxCallDepth.
	MaxCallDepth int `toml:",omitempty"`

	// GCInitialThreshold and GCStepThreshold parameterize MaybeCollect's
	// opportunistic-collection policy: the object-arena size at which it
	// first forces a sweep, and the additional growth required before it
	// forces another. GC itself remains explicit per spec §5 ("GC is
	// triggered explicitly via garbageCollect") — these fields only tune
	// when a host choosing to call MaybeCollect decides now is a good
	// time, they never trigger a collection on their own.
	GCInitialThreshold int `toml:",omitempty"`
	GCStepThreshold    int `toml:",omitempty"`

	// AllowEval gates EvalInputWithContext: when false, every call to it
	// (and so every script call of the `eval` global, which is still
	// installed) fails with a TypeError, so a sandboxed embedding can
	// disable dynamic code loading entirely.
	AllowEval bool

	// EvalCacheSize bounds the compiled-OpList LRU cache behind eval()/
	// EvalInputWithContext, keyed by source text (see cache.go).
	EvalCacheSize int
}

// DefaultConfig is the package-level default, applied before any
// user/file overrides in LoadConfig.
var DefaultConfig = Config{
	MaxCallDepth:       runtime.DefaultMaxCallDepth,
	GCInitialThreshold: 4096,
	GCStepThreshold:    2048,
	AllowEval:          true,
	EvalCacheSize:      64,
}

// tomlSettings mirrors cmd/gprobe/config.go's tomlSettings: TOML keys use
// the same names as the Go struct fields, and an unknown field is a hard
// error with a godoc link rather than being silently ignored.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string { return key },
	FieldToKey:    func(rt reflect.Type, field string) string { return field },
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

// LoadConfig reads a TOML file into cfg, starting from DefaultConfig so
// an omitted field keeps its default rather than zeroing out.
func LoadConfig(file string) (Config, error) {
	cfg := DefaultConfig
	f, err := os.Open(file)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	if err := tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(&cfg); err != nil {
		if _, ok := err.(*toml.LineError); ok {
			return cfg, fmt.Errorf("%s, %v", file, err)
		}
		return cfg, err
	}
	return cfg, nil
}
