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
	lru "github.com/hashicorp/golang-lru"

	"github.com/probechain/probescript/runtime"
)

// evalCache bounds the compiled-OpList cache behind eval()/
// EvalInputWithContext, keyed by the source text passed to eval — a
// script that calls eval() on the same generated string in a loop (a
// common pattern; see original_source's op.c eval() building a fresh
// "(eval)" Input per call) recompiles it at most once per distinct key
// rather than once per call.
type evalCache struct {
	lru *lru.Cache
}

func newEvalCache(size int) *evalCache {
	if size <= 0 {
		size = 1
	}
	c, _ := lru.New(size) // only errors on a non-positive size, already guarded above
	return &evalCache{lru: c}
}

func (c *evalCache) get(source string) (*runtime.OpList, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.lru.Get(source)
	if !ok {
		return nil, false
	}
	return v.(*runtime.OpList), true
}

func (c *evalCache) put(source string, ops *runtime.OpList) {
	if c == nil {
		return
	}
	c.lru.Add(source, ops)
}
