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

// ParamLocation is where a parameter is read from.
type ParamLocation string

const (
	InPath   ParamLocation = "path"
	InQuery  ParamLocation = "query"
	InHeader ParamLocation = "header"
	InCookie ParamLocation = "cookie"
)

// Parameter is one normalized operation parameter, with OpenAPI 3.1
// style/explode defaults already resolved (§4.1).
type Parameter struct {
	Name        string
	Location    ParamLocation
	Style       string
	Explode     bool
	Required    bool
	SchemaRef   map[string]any
	PrimitiveHint string // "string", "integer", "number", "boolean", "array", "object"
}

// ResponseMeta describes one declared response (by status or "default").
type ResponseMeta struct {
	ContentType string
	SchemaRef   map[string]any
}

// SecurityAlternative is an AND-set of (scheme, required scopes) that
// must all succeed together. RouteMeta.Security is an ordered OR of
// these alternatives (§3.1, §4.4).
type SecurityAlternative struct {
	Schemes []SecurityScopes
}

// SecurityScopes names one security scheme and the scopes required of it.
type SecurityScopes struct {
	SchemeName string
	Scopes     []string
}

// RouteMeta is the normalized, immutable-after-build description of one
// OpenAPI operation (§3.1). Instances are always handed out by pointer
// and shared by reference; nothing downstream mutates a RouteMeta.
type RouteMeta struct {
	Method      string
	PathPattern string
	HandlerName string

	Parameters []Parameter

	RequestSchema map[string]any // nil if the operation has no body
	RequestRequired bool

	Responses map[string]ResponseMeta // key: status code as string, or "default"

	Security []SecurityAlternative // empty => public

	IsSSE               bool
	StackSizeHint        int64
	EstimatedBodyBytes   int64
	ExampleResponse      any
}

// SecurityScheme is the normalized form of a components.securitySchemes entry.
type SecurityScheme struct {
	Name             string
	Type             string // apiKey, http, oauth2, openIdConnect
	Scheme           string // bearer, basic, ... (for type=http)
	In               string // header, query, cookie (for type=apiKey)
	ParamName        string
	BearerFormat     string
	OpenIDConnectURL string
}

// SecuritySchemes is the set of security schemes declared under
// components.securitySchemes, keyed by scheme name.
type SecuritySchemes map[string]SecurityScheme

// RouteTable is the full, build-once set of routes produced by a single
// Load call, plus the security scheme registry and the spec's slug
// (derived from info.title, used by external collaborators such as the
// docs endpoint).
type RouteTable struct {
	Routes   []*RouteMeta
	Security SecuritySchemes
	Slug     string
}

// Diff reports which handler names were added, removed, or changed
// between two loads of (presumably) the same spec across a hot reload.
// "Changed" means the handler's method or path pattern moved; other
// route metadata is not compared. It is reported so the dispatcher knows
// it must rebuild that handler's worker pool rather than reuse it
// verbatim.
func (rt *RouteTable) Diff(prev *RouteTable) (added, removed, changed []string) {
	prevByName := map[string]*RouteMeta{}
	if prev != nil {
		for _, r := range prev.Routes {
			prevByName[r.HandlerName] = r
		}
	}
	curByName := map[string]*RouteMeta{}
	for _, r := range rt.Routes {
		curByName[r.HandlerName] = r
	}

	for name, cur := range curByName {
		old, ok := prevByName[name]
		if !ok {
			added = append(added, name)
			continue
		}
		if old.Method != cur.Method || old.PathPattern != cur.PathPattern {
			changed = append(changed, name)
		}
	}
	for name := range prevByName {
		if _, ok := curByName[name]; !ok {
			removed = append(removed, name)
		}
	}
	return added, removed, changed
}
