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

package spec

import "errors"

// Sentinel errors wrapped with fmt.Errorf("...: %w", ...) when context
// (file path, operation id, ref target) is needed.
var (
	ErrUnreadable        = errors.New("spec: document unreadable")
	ErrUnparseable       = errors.New("spec: document could not be parsed as YAML or JSON")
	ErrMissingHandlerName = errors.New("spec: operation has neither operationId nor x-handler-name")
	ErrUnknownSecurityScheme = errors.New("spec: security requirement references an unknown scheme")
	ErrUnresolvableRef   = errors.New("spec: schema reference could not be resolved")
	ErrRouteConflict     = errors.New("spec: two operations collide after parameter-name erasure")
)

// SpecError wraps a loader failure with the handler/operation context it
// occurred under, per §4.1's contract ("Fails with SpecError when...").
type SpecError struct {
	Op  string // method + path, or "<file>", for context
	Err error
}

func (e *SpecError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *SpecError) Unwrap() error { return e.Err }
