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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/microscaler/brrtrouter/spec"
)

func route(method, pattern, handler string) *spec.RouteMeta {
	return &spec.RouteMeta{Method: method, PathPattern: pattern, HandlerName: handler}
}

func TestMatch_TemplatedRoute(t *testing.T) {
	rt := &spec.RouteTable{Routes: []*spec.RouteMeta{route("GET", "/pets/{id}", "get_pet")}}
	r := New(rt)

	res := r.Match("GET", "/pets/123")
	require.NotNil(t, res.Route)
	require.Equal(t, "get_pet", res.Route.HandlerName)
	v, ok := res.Params.Get("id")
	require.True(t, ok)
	require.Equal(t, "123", v)
}

func TestMatch_PrecedenceStaticBeatsParam(t *testing.T) {
	rt := &spec.RouteTable{Routes: []*spec.RouteMeta{
		route("GET", "/pets/search", "search_pets"),
		route("GET", "/pets/{id}", "get_pet"),
	}}
	r := New(rt)

	res := r.Match("GET", "/pets/search")
	require.NotNil(t, res.Route)
	require.Equal(t, "search_pets", res.Route.HandlerName)

	res = r.Match("GET", "/pets/42")
	require.NotNil(t, res.Route)
	require.Equal(t, "get_pet", res.Route.HandlerName)
	v, _ := res.Params.Get("id")
	require.Equal(t, "42", v)
}

func TestMatch_LastWriteWins(t *testing.T) {
	rt := &spec.RouteTable{Routes: []*spec.RouteMeta{route("GET", "/a/{x}/b/{x}", "h")}}
	r := New(rt)

	res := r.Match("GET", "/a/1/b/2")
	require.NotNil(t, res.Route)
	v, ok := res.Params.Get("x")
	require.True(t, ok)
	require.Equal(t, "2", v)

	all := res.Params.All()
	require.Len(t, all, 2)
	require.Equal(t, "1", all[0].Value)
	require.Equal(t, "2", all[1].Value)
}

func TestMatch_RootPath(t *testing.T) {
	rt := &spec.RouteTable{Routes: []*spec.RouteMeta{route("GET", "/", "root")}}
	r := New(rt)

	res := r.Match("GET", "/")
	require.NotNil(t, res.Route)
	require.Equal(t, "root", res.Route.HandlerName)
}

func TestMatch_NotFound(t *testing.T) {
	rt := &spec.RouteTable{Routes: []*spec.RouteMeta{route("GET", "/pets/{id}", "get_pet")}}
	r := New(rt)

	res := r.Match("GET", "/widgets/1")
	require.Nil(t, res.Route)
	require.False(t, res.MethodNotAllowed)
}

func TestMatch_MethodNotAllowed(t *testing.T) {
	rt := &spec.RouteTable{Routes: []*spec.RouteMeta{route("GET", "/pets/{id}", "get_pet")}}
	r := New(rt)

	res := r.Match("POST", "/pets/1")
	require.Nil(t, res.Route)
	require.True(t, res.MethodNotAllowed)
	require.Equal(t, []string{"GET"}, res.AllowedMethods)
}

func TestRouter_Totality(t *testing.T) {
	routes := []*spec.RouteMeta{
		route("GET", "/a", "a"),
		route("GET", "/a/{x}", "ax"),
		route("POST", "/a/{x}/b/{y}", "axby"),
		route("DELETE", "/", "root_delete"),
	}
	r := New(&spec.RouteTable{Routes: routes})

	for _, want := range routes {
		path := want.PathPattern
		// Substitute a concrete value for each template segment.
		concrete := substituteParams(path)
		res := r.Match(want.Method, concrete)
		require.NotNil(t, res.Route, "expected a match for %s %s", want.Method, concrete)
		require.Equal(t, want.HandlerName, res.Route.HandlerName)
	}
}

func substituteParams(path string) string {
	out := make([]byte, 0, len(path))
	inParam := false
	for i := 0; i < len(path); i++ {
		c := path[i]
		switch {
		case c == '{':
			inParam = true
			out = append(out, 'v')
		case c == '}':
			inParam = false
		case inParam:
			// skip
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

func TestRouter_HotReloadLiveness(t *testing.T) {
	r := New(&spec.RouteTable{Routes: []*spec.RouteMeta{route("GET", "/old", "old")}})
	require.NotNil(t, r.Match("GET", "/old").Route)

	r.Reload(&spec.RouteTable{Routes: []*spec.RouteMeta{route("GET", "/new", "new")}})

	require.Nil(t, r.Match("GET", "/old").Route)
	res := r.Match("GET", "/new")
	require.NotNil(t, res.Route)
	require.Equal(t, "new", res.Route.HandlerName)
}
