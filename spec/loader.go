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

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads an OpenAPI 3.1 document from path (YAML or JSON, both parsed
// by the YAML decoder; see LoadBytes) and normalizes it into a RouteTable.
func Load(path string) (*RouteTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &SpecError{Op: path, Err: fmt.Errorf("%w: %v", ErrUnreadable, err)}
	}
	return LoadBytes(raw)
}

// LoadBytes normalizes an in-memory OpenAPI 3.1 document. It accepts
// both YAML and JSON (JSON is a subset of YAML 1.2, so the YAML decoder
// handles both).
func LoadBytes(raw []byte) (*RouteTable, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, &SpecError{Err: fmt.Errorf("%w: %v", ErrUnparseable, err)}
	}

	schemes, err := normalizeSecuritySchemes(doc.Components)
	if err != nil {
		return nil, err
	}

	slug := slugFromInfo(doc.Info)

	var routes []*RouteMeta
	seenNames := map[string]int{}

	// Iterate paths in a deterministic order so repeated loads of the
	// same spec produce an equal RouteMeta sequence (§8 "Idempotent
	// loader"), independent of Go's randomized map iteration.
	for _, path := range sortedKeys(doc.Paths) {
		item := doc.Paths[path]
		canonical := canonicalizePath(path)

		for _, method := range supportedMethods {
			op := item.byMethod()[method]
			if op == nil {
				continue
			}

			handlerName, err := handlerNameFor(op)
			if err != nil {
				return nil, &SpecError{Op: method + " " + canonical, Err: err}
			}
			handlerName = disambiguate(handlerName, seenNames)

			params, err := normalizeParameters(op, doc.Components)
			if err != nil {
				return nil, &SpecError{Op: method + " " + canonical, Err: err}
			}

			var bodySchema map[string]any
			required := false
			if op.RequestBody != nil {
				required = op.RequestBody.Required
				if mt, ok := firstJSONMediaType(op.RequestBody.Content); ok {
					bodySchema, err = resolveRef(mt.Schema, doc.Components)
					if err != nil {
						return nil, &SpecError{Op: method + " " + canonical, Err: err}
					}
				}
			}

			responses, err := normalizeResponses(op, doc.Components)
			if err != nil {
				return nil, &SpecError{Op: method + " " + canonical, Err: err}
			}

			security, err := normalizeSecurity(op.Security, doc.Security, schemes)
			if err != nil {
				return nil, &SpecError{Op: method + " " + canonical, Err: err}
			}

			stackHint := estimateStackSize(op, params, bodySchema, op.XSSE, handlerName)
			bodyHint := estimateBodyBytes(op, bodySchema, handlerName)

			routes = append(routes, &RouteMeta{
				Method:             method,
				PathPattern:        canonical,
				HandlerName:        handlerName,
				Parameters:         params,
				RequestSchema:      bodySchema,
				RequestRequired:    required,
				Responses:          responses,
				Security:           security,
				IsSSE:              op.XSSE,
				StackSizeHint:      stackHint,
				EstimatedBodyBytes: bodyHint,
				ExampleResponse:    firstExample(op.Responses),
			})
		}
	}

	if err := rejectConflicts(routes); err != nil {
		return nil, err
	}

	return &RouteTable{Routes: routes, Security: schemes, Slug: slug}, nil
}

// handlerNameFor resolves the handler key: x-handler-name beats
// operationId (§4.1).
func handlerNameFor(op *operation) (string, error) {
	if op.XHandlerName != "" {
		return op.XHandlerName, nil
	}
	if op.OperationID != "" {
		return op.OperationID, nil
	}
	return "", ErrMissingHandlerName
}

// disambiguate appends __2, __3, ... to a handler name that recurs,
// logging a warning as §4.1 requires (loader failures are fatal; name
// collisions are not — they're a warn-and-continue case).
func disambiguate(name string, seen map[string]int) string {
	seen[name]++
	n := seen[name]
	if n == 1 {
		return name
	}
	slog.Warn("spec: duplicate handler name, disambiguating", "handler", name, "suffix", n)
	return fmt.Sprintf("%s__%d", name, n)
}

// canonicalizePath ensures a leading slash and no trailing slash except
// for the root path itself (§3.1).
func canonicalizePath(p string) string {
	if p == "" {
		p = "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p
}

func slugFromInfo(info map[string]any) string {
	title, _ := info["title"].(string)
	if title == "" {
		return "api"
	}
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			if b.Len() > 0 && b.String()[b.Len()-1] != '-' {
				b.WriteByte('-')
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func sortedKeys(m map[string]*pathItem) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Insertion sort: path counts per spec are small and this avoids an
	// extra import for what is a startup-only, non-hot-path sort.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

func firstJSONMediaType(content map[string]mediaTypeDoc) (mediaTypeDoc, bool) {
	if mt, ok := content["application/json"]; ok {
		return mt, true
	}
	for _, mt := range content {
		return mt, true
	}
	return mediaTypeDoc{}, false
}

func firstExample(responses map[string]responseDoc) any {
	for _, status := range []string{"200", "201", "default"} {
		if r, ok := responses[status]; ok {
			if mt, ok := firstJSONMediaType(r.Content); ok && mt.Example != nil {
				return mt.Example
			}
		}
	}
	return nil
}
