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

package dispatch

// Middleware runs in the dispatching goroutine, not the worker (§4.5:
// "their before/after run in the dispatch thread/coroutine, not the
// worker"), so implementations must stay allocation-frugal.
type Middleware interface {
	// Before may short-circuit the dispatch by returning a non-nil
	// response; in that case the handler and After are both skipped.
	Before(req *HandlerRequest) *HandlerResponse
	After(req *HandlerRequest, resp *HandlerResponse)
}

// MiddlewareFuncs adapts two plain functions to the Middleware interface.
type MiddlewareFuncs struct {
	BeforeFunc func(req *HandlerRequest) *HandlerResponse
	AfterFunc  func(req *HandlerRequest, resp *HandlerResponse)
}

func (m MiddlewareFuncs) Before(req *HandlerRequest) *HandlerResponse {
	if m.BeforeFunc == nil {
		return nil
	}
	return m.BeforeFunc(req)
}

func (m MiddlewareFuncs) After(req *HandlerRequest, resp *HandlerResponse) {
	if m.AfterFunc != nil {
		m.AfterFunc(req, resp)
	}
}
