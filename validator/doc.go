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

// Package validator compiles and caches JSON Schema validators for
// request bodies and response bodies, keyed by (handler, kind, status)
// (§4.3). Compilation happens at most once per key even under
// concurrent first use; the compiled santhosh-tekuri/jsonschema.Schema
// is then shared by reference.
package validator
