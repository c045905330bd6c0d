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

// document is the raw shape of an OpenAPI 3.1 document, used only during
// unmarshaling. It is deliberately permissive (map[string]any for schema
// bodies) because the loader only needs a handful of fields out of an
// otherwise arbitrarily large document.
type document struct {
	OpenAPI    string                 `json:"openapi" yaml:"openapi"`
	Info       map[string]any         `json:"info" yaml:"info"`
	Paths      map[string]*pathItem   `json:"paths" yaml:"paths"`
	Components *components            `json:"components" yaml:"components"`
	Security   []securityRequirement  `json:"security" yaml:"security"`
	Extensions map[string]any         `json:"-" yaml:"-"`
}

type components struct {
	Schemas         map[string]map[string]any `json:"schemas" yaml:"schemas"`
	SecuritySchemes map[string]securityScheme `json:"securitySchemes" yaml:"securitySchemes"`
}

type securityScheme struct {
	Type             string `json:"type" yaml:"type"`
	Scheme           string `json:"scheme" yaml:"scheme"`
	In               string `json:"in" yaml:"in"`
	Name             string `json:"name" yaml:"name"`
	BearerFormat     string `json:"bearerFormat" yaml:"bearerFormat"`
	OpenIDConnectURL string `json:"openIdConnectUrl" yaml:"openIdConnectUrl"`
}

// securityRequirement is one OR-alternative: scheme name -> required scopes.
type securityRequirement map[string][]string

type pathItem struct {
	Get     *operation `json:"get" yaml:"get"`
	Put     *operation `json:"put" yaml:"put"`
	Post    *operation `json:"post" yaml:"post"`
	Delete  *operation `json:"delete" yaml:"delete"`
	Options *operation `json:"options" yaml:"options"`
	Head    *operation `json:"head" yaml:"head"`
	Patch   *operation `json:"patch" yaml:"patch"`
	Trace   *operation `json:"trace" yaml:"trace"`
}

func (p *pathItem) byMethod() map[string]*operation {
	return map[string]*operation{
		"GET":     p.Get,
		"PUT":     p.Put,
		"POST":    p.Post,
		"DELETE":  p.Delete,
		"OPTIONS": p.Options,
		"HEAD":    p.Head,
		"PATCH":   p.Patch,
		"TRACE":   p.Trace,
	}
}

type operation struct {
	OperationID string                `json:"operationId" yaml:"operationId"`
	Parameters  []parameterDoc        `json:"parameters" yaml:"parameters"`
	RequestBody *requestBodyDoc       `json:"requestBody" yaml:"requestBody"`
	Responses   map[string]responseDoc `json:"responses" yaml:"responses"`
	Security    []securityRequirement `json:"security" yaml:"security"`

	XHandlerName   string `json:"x-handler-name" yaml:"x-handler-name"`
	XSSE           bool   `json:"x-sse" yaml:"x-sse"`
	XStackSize     *int64 `json:"x-brrtrouter-stack-size" yaml:"x-brrtrouter-stack-size"`
	XBodySizeBytes *int64 `json:"x-brrtrouter-body-size-bytes" yaml:"x-brrtrouter-body-size-bytes"`
}

type parameterDoc struct {
	Name     string         `json:"name" yaml:"name"`
	In       string         `json:"in" yaml:"in"`
	Required bool           `json:"required" yaml:"required"`
	Style    string         `json:"style" yaml:"style"`
	Explode  *bool          `json:"explode" yaml:"explode"`
	Schema   map[string]any `json:"schema" yaml:"schema"`
}

type requestBodyDoc struct {
	Required bool                      `json:"required" yaml:"required"`
	Content  map[string]mediaTypeDoc   `json:"content" yaml:"content"`
}

type mediaTypeDoc struct {
	Schema  map[string]any `json:"schema" yaml:"schema"`
	Example any            `json:"example" yaml:"example"`
}

type responseDoc struct {
	Description string                  `json:"description" yaml:"description"`
	Content     map[string]mediaTypeDoc `json:"content" yaml:"content"`
}

var supportedMethods = []string{"GET", "PUT", "POST", "DELETE", "OPTIONS", "HEAD", "PATCH", "TRACE"}
