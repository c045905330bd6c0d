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

// Package router is a compressed radix tree that maps (method, path) to
// a *spec.RouteMeta with captured path parameters, in O(path length).
//
// A Router is built once from a spec.RouteTable and then read
// concurrently via an atomic snapshot; Reload builds an entirely new
// tree off the hot path and swaps it in with a single pointer store
// (§3.2, §4.2).
package router
