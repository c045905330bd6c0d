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

package typed

import (
	"context"
	"encoding/json"

	"github.com/microscaler/brrtrouter/dispatch"
)

// Request consolidates a typed handler's path parameters, JSON body, and
// query parameters into a single value. An unused type parameter (P, B,
// or Q) should be instantiated as struct{}; Wrap leaves the
// corresponding field nil rather than allocating a zero struct, so a
// handler can tell "not configured" apart from "present but empty" by a
// nil check, matching DylanHalstead-nimus/router.go's TypedRequest.
type Request[P any, B any, Q any] struct {
	Params *P
	Body   *B
	Query  *Q
}

// HandlerFunc is a typed handler: it returns a JSON-encodable value, the
// HTTP status to send it with, and an error. A non-nil error short-
// circuits the JSON encoding step and is turned into a 500 by Wrap;
// handlers that need a specific error status should return it via the
// int return value instead and a nil error.
type HandlerFunc[P any, B any, Q any] func(ctx context.Context, req *Request[P, B, Q]) (any, int, error)

// Wrap adapts a HandlerFunc[P, B, Q] into a dispatch.HandlerFunc,
// grounded on nimbus's WithTyped(handler, paramsValidator, bodyValidator,
// queryValidator) composition: bind path params, decode the body,
// bind query params, invoke the typed handler, marshal its result.
//
// service.Service already ran request-schema validation against the
// OpenAPI schema before a handler is invoked (§4.3), so Wrap's own binding never
// needs to reject malformed input on its own account — a bind failure
// here means the declared Parameter/RequestSchema shape and the typed
// struct's tags have drifted apart, which is a 500, not a 400.
func Wrap[P any, B any, Q any](h HandlerFunc[P, B, Q]) dispatch.HandlerFunc {
	return func(r *dispatch.HandlerRequest) *dispatch.HandlerResponse {
		req := &Request[P, B, Q]{}

		var paramsZero P
		if !isEmptyStruct(paramsZero) {
			var p P
			if err := bindPath(&p, r.PathParams); err != nil {
				return bindError(err)
			}
			req.Params = &p
		}

		var bodyZero B
		if !isEmptyStruct(bodyZero) {
			var b B
			if len(r.Body) > 0 {
				if err := json.Unmarshal(r.Body, &b); err != nil {
					return bindError(err)
				}
			}
			req.Body = &b
		}

		var queryZero Q
		if !isEmptyStruct(queryZero) {
			var q Q
			if err := bindQuery(&q, r.QueryParams); err != nil {
				return bindError(err)
			}
			req.Query = &q
		}

		result, status, err := h(context.Background(), req)
		if err != nil {
			return bindError(err)
		}
		if status == 0 {
			status = 200
		}
		if result == nil {
			return &dispatch.HandlerResponse{StatusCode: status}
		}
		body, err := json.Marshal(result)
		if err != nil {
			return bindError(err)
		}
		return &dispatch.HandlerResponse{StatusCode: status, Body: body}
	}
}

func bindError(err error) *dispatch.HandlerResponse {
	return &dispatch.HandlerResponse{
		StatusCode: 500,
		Body:       []byte(`{"error":"internal_error","message":"` + jsonEscape(err.Error()) + `"}`),
	}
}

func jsonEscape(s string) string {
	escaped, _ := json.Marshal(s)
	return string(escaped[1 : len(escaped)-1])
}
