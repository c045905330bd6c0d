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

import (
	"sort"
	"strings"

	"github.com/microscaler/brrtrouter/spec"
)

// edge is a per-segment static child, grounded on the teacher's
// edge{label, node} shape in radix.go — a linear-scan slice instead of a
// map, since the fan-out at any one node is typically small and a map's
// hashing overhead isn't worth it on the hot path.
type edge struct {
	label string
	node  *node
}

// param is the single parameter child a node may have. A node can have
// at most one, by construction (§4.2).
type param struct {
	name string
	node *node
}

// node is one node of a per-method compressed radix tree (§4.2).
// Static children win over the parameter child, both at insertion and
// at match time.
type node struct {
	edges []edge
	param *param
	route *spec.RouteMeta // non-nil on a terminal node

	// catchAll is a reserved terminal leaf for a future wildcard
	// extension (§4.2: "a special catch-all child may exist as a
	// terminal leaf (future use)"). Unused by any current operation.
	catchAll *spec.RouteMeta
}

func (n *node) findChild(segment string) *node {
	for i := range n.edges {
		if n.edges[i].label == segment {
			return n.edges[i].node
		}
	}
	return nil
}

func (n *node) findOrCreateChild(segment string) *node {
	if child := n.findChild(segment); child != nil {
		return child
	}
	child := &node{}
	n.edges = append(n.edges, edge{label: segment, node: child})
	return child
}

// insert adds one route pattern to the tree. Patterns are already
// canonicalized by the loader (leading slash, no trailing slash except
// root, "{name}" template segments).
func (n *node) insert(pattern string, route *spec.RouteMeta) {
	if pattern == "/" {
		n.route = route
		return
	}

	segments := strings.Split(strings.Trim(pattern, "/"), "/")
	current := n
	for _, seg := range segments {
		if isParamSegment(seg) {
			name := seg[1 : len(seg)-1]
			if current.param == nil {
				current.param = &param{name: name, node: &node{}}
			}
			current = current.param.node
		} else {
			current = current.findOrCreateChild(seg)
		}
	}
	current.route = route
}

// sortEdges orders static children for deterministic iteration; this is
// cosmetic (linear scan doesn't need it) but keeps output (e.g. conflict
// error messages, debug dumps) stable across builds.
func (n *node) sortEdges() {
	sort.Slice(n.edges, func(i, j int) bool { return n.edges[i].label < n.edges[j].label })
	for i := range n.edges {
		n.edges[i].node.sortEdges()
	}
	if n.param != nil {
		n.param.node.sortEdges()
	}
}

func isParamSegment(seg string) bool {
	return len(seg) >= 2 && seg[0] == '{' && seg[len(seg)-1] == '}'
}

// match walks path against the tree, capturing parameters into pv.
// It mirrors the teacher's manual (non strings.Split) segment walk in
// radix.go's getRoute for zero-allocation traversal; captured values are
// substrings of path, not copies (§4.2 "Performance contracts").
func (n *node) match(path string, pv *ParamVec) *spec.RouteMeta {
	if path == "/" || path == "" {
		return n.route
	}

	current := n
	start := 0
	if path[0] == '/' {
		start = 1
	}
	pathLen := len(path)

	for start < pathLen {
		end := start
		for end < pathLen && path[end] != '/' {
			end++
		}
		segment := path[start:end]
		isLast := end >= pathLen

		if next := current.findChild(segment); next != nil {
			current = next
		} else if current.param != nil {
			pv.Add(current.param.name, segment)
			current = current.param.node
		} else {
			return nil
		}

		if isLast {
			return current.route
		}
		start = end + 1
	}
	return nil
}
