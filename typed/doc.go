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

// Package typed wraps dispatch.HandlerFunc in a generic, struct-typed
// request/response layer so a handler can declare its path parameters,
// query parameters, and JSON body as plain Go structs instead of
// reaching into the untyped dispatch.HandlerRequest by hand.
package typed
