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

// Package spec parses an OpenAPI 3.1 document (YAML or JSON) into the
// normalized route metadata the rest of the router core is built on.
//
// Loading is a build-time operation: Load (or LoadBytes) is called once
// at startup and again, off the hot path, on hot reload. Everything it
// produces — RouteMeta, SecuritySchemes — is treated as immutable by
// downstream consumers.
package spec
