// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package router

// paramVecInline is the stack-inline capacity of a ParamVec before it
// spills to a heap slice. Most routes have far fewer than 8 path
// parameters (§3.1).
const paramVecInline = 8

// ParamVec is an ordered, append-only sequence of (name, value) pairs
// captured while matching a path. Up to paramVecInline entries live
// inline with zero extra allocation; overflow spills to a slice.
//
// Parameter names are shared strings cloned from the route tree (no
// allocation); values are substrings of the matched path and share its
// memory, so no copy is made for them either (§4.2 "Performance
// contracts").
//
// Duplicate names are preserved in insertion order. Get returns the
// last-written value for a name — the documented "last write wins"
// semantic (§3.1, §4.2, §8) — while All returns every occurrence.
type ParamVec struct {
	names  [paramVecInline]string
	values [paramVecInline]string
	n      int

	overflowNames  []string
	overflowValues []string
}

// Add appends a (name, value) pair.
func (p *ParamVec) Add(name, value string) {
	if p.n < paramVecInline {
		p.names[p.n] = name
		p.values[p.n] = value
		p.n++
		return
	}
	p.overflowNames = append(p.overflowNames, name)
	p.overflowValues = append(p.overflowValues, value)
}

// Len returns the total number of captured (name, value) pairs,
// including duplicates.
func (p *ParamVec) Len() int {
	return p.n + len(p.overflowNames)
}

// Get returns the last-written value for name and whether it was found.
func (p *ParamVec) Get(name string) (string, bool) {
	for i := len(p.overflowNames) - 1; i >= 0; i-- {
		if p.overflowNames[i] == name {
			return p.overflowValues[i], true
		}
	}
	for i := p.n - 1; i >= 0; i-- {
		if p.names[i] == name {
			return p.values[i], true
		}
	}
	return "", false
}

// All returns every captured (name, value) pair in insertion order,
// including duplicates — useful for debugging routes with repeated
// parameter names (§4.2).
func (p *ParamVec) All() []KV {
	out := make([]KV, 0, p.Len())
	for i := 0; i < p.n; i++ {
		out = append(out, KV{Name: p.names[i], Value: p.values[i]})
	}
	for i := range p.overflowNames {
		out = append(out, KV{Name: p.overflowNames[i], Value: p.overflowValues[i]})
	}
	return out
}

// reset clears the vector for reuse from a pool without releasing the
// inline backing arrays.
func (p *ParamVec) reset() {
	p.n = 0
	p.overflowNames = p.overflowNames[:0]
	p.overflowValues = p.overflowValues[:0]
}

// KV is one captured name/value pair.
type KV struct {
	Name  string
	Value string
}

// HeaderVec is identical in shape to ParamVec but sized for the larger
// inline bound headers need (§3.1: "stack-inline capacity ... 16" for
// headers vs 8 for params). It is a distinct type so callers can't
// confuse the two capacities.
type HeaderVec struct {
	names  [16]string
	values [16]string
	n      int

	overflowNames  []string
	overflowValues []string
}

func (h *HeaderVec) Add(name, value string) {
	if h.n < 16 {
		h.names[h.n] = name
		h.values[h.n] = value
		h.n++
		return
	}
	h.overflowNames = append(h.overflowNames, name)
	h.overflowValues = append(h.overflowValues, value)
}

func (h *HeaderVec) Len() int { return h.n + len(h.overflowNames) }

func (h *HeaderVec) Get(name string) (string, bool) {
	for i := len(h.overflowNames) - 1; i >= 0; i-- {
		if h.overflowNames[i] == name {
			return h.overflowValues[i], true
		}
	}
	for i := h.n - 1; i >= 0; i-- {
		if h.names[i] == name {
			return h.values[i], true
		}
	}
	return "", false
}
