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

import "errors"

var (
	// ErrUnknownHandler is returned by Dispatch when handler_name has no
	// registered pool. §4.5: "Unknown handler at dispatch → 500."
	ErrUnknownHandler = errors.New("dispatch: unknown handler")

	// ErrBackpressure is returned when the bounded queue rejects the
	// request — either shed immediately or after a block(timeout) wait.
	// §4.5: "Enqueue timeout → 429."
	ErrBackpressure = errors.New("dispatch: backpressure, handler pool full")

	// ErrPoolClosed is returned if a request is enqueued against a pool
	// that has already been closed, e.g. replaced by a reload.
	ErrPoolClosed = errors.New("dispatch: handler pool closed")
)

// PanicError wraps a recovered handler panic value as an error. Pool does
// not return one: it converts a panic in a handler into a 500 response
// with a JSON error body and logs it at error level (§4.5).
type PanicError struct {
	Recovered any
}

func (e *PanicError) Error() string {
	return "dispatch: handler panicked"
}
