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
	"sync/atomic"

	"github.com/microscaler/brrtrouter/spec"
)

// tree is one immutable snapshot: a root node per HTTP method. Once
// installed into a Router's atomic pointer it is never mutated again —
// the same ownership discipline the teacher's router.go uses for its
// routingTable (§3.2, §4.2).
type tree struct {
	roots map[string]*node
}

func buildTree(rt *spec.RouteTable) *tree {
	t := &tree{roots: make(map[string]*node, 8)}
	for _, route := range rt.Routes {
		root, ok := t.roots[route.Method]
		if !ok {
			root = &node{}
			t.roots[route.Method] = root
		}
		root.insert(route.PathPattern, route)
	}
	for _, root := range t.roots {
		root.sortEdges()
	}
	return t
}

// Router maps (method, path) to *spec.RouteMeta. The zero value is not
// usable; construct with New.
type Router struct {
	current atomic.Pointer[tree]
}

// New builds a Router from a freshly loaded RouteTable.
func New(rt *spec.RouteTable) *Router {
	r := &Router{}
	r.current.Store(buildTree(rt))
	return r
}

// Reload builds an entirely new tree from rt and atomically swaps it in.
// In-flight requests holding a reference obtained from Match before the
// swap keep matching against the old tree to completion (§3.2, §4.2).
func (r *Router) Reload(rt *spec.RouteTable) {
	r.current.Store(buildTree(rt))
}

// MatchResult is what Match returns: the matched route (nil on no
// match), the captured parameters, and — on a miss — whether the path
// exists under a different method (§4.2 "Failure").
type MatchResult struct {
	Route           *spec.RouteMeta
	Params          ParamVec
	MethodNotAllowed bool
	AllowedMethods  []string
}

// Match resolves (method, path) against the current snapshot. path must
// already be canonicalized the same way spec.RouteMeta.PathPattern is
// (leading slash, no trailing slash except root).
func (r *Router) Match(method, path string) MatchResult {
	snap := r.current.Load()
	if snap == nil {
		return MatchResult{}
	}

	var result MatchResult
	if root, ok := snap.roots[method]; ok {
		if route := root.match(path, &result.Params); route != nil {
			result.Route = route
			return result
		}
	}

	// No match on the declared method: check whether another method's
	// tree would have matched, to distinguish 404 from 405.
	var allowed []string
	for m, root := range snap.roots {
		if m == method {
			continue
		}
		var scratch ParamVec
		if root.match(path, &scratch) != nil {
			allowed = append(allowed, m)
		}
	}
	if len(allowed) > 0 {
		result.MethodNotAllowed = true
		result.AllowedMethods = allowed
	}
	return result
}
