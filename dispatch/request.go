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

import "net/http"

// HandlerRequest is the per-request value the dispatcher hands to a
// registered handler (§3.1). Path/query/header/cookie values have
// already been extracted by the router and the service layer; the
// handler never touches the raw *http.Request.
type HandlerRequest struct {
	HandlerName  string
	Method       string
	Path         string
	PathParams   map[string]string
	QueryParams  map[string][]string
	Headers      http.Header
	Cookies      []*http.Cookie
	Body         []byte
	RequestID    string
	TraceContext string
	// IsSSE marks a route whose operation declared the SSE extension
	// (§9 "SSE handler lifecycle"). Dispatcher.Dispatch runs these on a
	// dedicated per-connection goroutine instead of submitting them to
	// the handler's bounded pool, so a long-lived stream can't occupy a
	// worker slot and starve the pool's other, short-lived requests.
	IsSSE bool
}

// HandlerResponse is what a handler returns; the service layer writes
// it to the underlying ResponseWriter.
type HandlerResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// HandlerFunc is the signature every registered handler implements.
type HandlerFunc func(req *HandlerRequest) *HandlerResponse
