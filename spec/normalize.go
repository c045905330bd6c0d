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

import "fmt"

// normalizeParameters resolves each parameter's schema ref and applies
// the OpenAPI 3.1 style/explode defaults (§4.1):
//
//	path:   simple / false
//	query:  form   / true
//	header: simple / false
//	cookie: form   / false
func normalizeParameters(op *operation, comps *components) ([]Parameter, error) {
	out := make([]Parameter, 0, len(op.Parameters))
	for _, p := range op.Parameters {
		loc := ParamLocation(p.In)

		style, explode := styleDefaults(loc)
		if p.Style != "" {
			style = p.Style
		}
		if p.Explode != nil {
			explode = *p.Explode
		}

		schema, err := resolveRef(p.Schema, comps)
		if err != nil {
			return nil, err
		}

		out = append(out, Parameter{
			Name:          p.Name,
			Location:      loc,
			Style:         style,
			Explode:       explode,
			Required:      p.Required || loc == InPath,
			SchemaRef:     schema,
			PrimitiveHint: schemaType(schema),
		})
	}
	return out, nil
}

func styleDefaults(loc ParamLocation) (style string, explode bool) {
	switch loc {
	case InPath:
		return "simple", false
	case InQuery:
		return "form", true
	case InHeader:
		return "simple", false
	case InCookie:
		return "form", false
	default:
		return "simple", false
	}
}

func normalizeResponses(op *operation, comps *components) (map[string]ResponseMeta, error) {
	out := make(map[string]ResponseMeta, len(op.Responses))
	for status, r := range op.Responses {
		mt, ok := firstJSONMediaType(r.Content)
		if !ok {
			out[status] = ResponseMeta{}
			continue
		}
		schema, err := resolveRef(mt.Schema, comps)
		if err != nil {
			return nil, err
		}
		contentType := "application/json"
		if op.XSSE {
			contentType = "text/event-stream"
		}
		out[status] = ResponseMeta{ContentType: contentType, SchemaRef: schema}
	}
	return out, nil
}

func normalizeSecuritySchemes(comps *components) (SecuritySchemes, error) {
	out := SecuritySchemes{}
	if comps == nil {
		return out, nil
	}
	for name, s := range comps.SecuritySchemes {
		paramName := s.Name
		in := s.In
		if s.Type == "http" {
			in = "header"
			paramName = "Authorization"
		}
		out[name] = SecurityScheme{
			Name:             name,
			Type:             s.Type,
			Scheme:           s.Scheme,
			In:               in,
			ParamName:        paramName,
			BearerFormat:     s.BearerFormat,
			OpenIDConnectURL: s.OpenIDConnectURL,
		}
	}
	return out, nil
}

// normalizeSecurity resolves an operation's security requirement,
// falling back to the document-level default when the operation doesn't
// declare its own (per OpenAPI 3.1 inheritance rules), and validates
// every referenced scheme exists (§4.1 "a declared security scheme is
// unknown" is a load error).
func normalizeSecurity(opSec, docSec []securityRequirement, schemes SecuritySchemes) ([]SecurityAlternative, error) {
	reqs := opSec
	if reqs == nil {
		reqs = docSec
	}

	out := make([]SecurityAlternative, 0, len(reqs))
	for _, alt := range reqs {
		var scopesList []SecurityScopes
		for name, scopes := range alt {
			if _, ok := schemes[name]; !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownSecurityScheme, name)
			}
			scopesList = append(scopesList, SecurityScopes{SchemeName: name, Scopes: scopes})
		}
		out = append(out, SecurityAlternative{Schemes: scopesList})
	}
	return out, nil
}

// rejectConflicts enforces the router's build-time conflict rule (§4.2):
// two routes that are identical after parameter-name erasure collide,
// independent of declared parameter type (§9 Open Question).
func rejectConflicts(routes []*RouteMeta) error {
	seen := map[string]string{} // erased key -> original pattern
	for _, r := range routes {
		key := r.Method + " " + erase(r.PathPattern)
		if prev, ok := seen[key]; ok && prev != r.PathPattern {
			return &SpecError{Op: r.Method + " " + r.PathPattern, Err: fmt.Errorf("%w (conflicts with %s)", ErrRouteConflict, prev)}
		}
		seen[key] = r.PathPattern
	}
	return nil
}

func erase(path string) string {
	out := make([]byte, 0, len(path))
	inParam := false
	for i := 0; i < len(path); i++ {
		c := path[i]
		if c == '{' {
			inParam = true
			out = append(out, '{', '}')
			continue
		}
		if c == '}' {
			inParam = false
			continue
		}
		if inParam {
			continue
		}
		out = append(out, c)
	}
	return string(out)
}
