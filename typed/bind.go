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
	"fmt"
	"reflect"
	"strconv"
)

// isEmptyStruct reports whether v's type is struct{} (the convention a
// caller uses to say "this typed input isn't configured"), the same
// sentinel nimbus's examples use for the unused type parameters of
// HandlerFuncTyped[P, B, Q].
func isEmptyStruct(v any) bool {
	t := reflect.TypeOf(v)
	return t != nil && t.Kind() == reflect.Struct && t.NumField() == 0
}

// bindPath fills dst's exported fields tagged `path:"name"` from params,
// converting each captured string into the field's declared type.
func bindPath(dst any, params map[string]string) error {
	return bindTagged(dst, "path", func(name string) (string, bool) {
		v, ok := params[name]
		return v, ok
	})
}

// bindQuery fills dst's exported fields tagged `query:"name"` from the
// first value of the matching query parameter.
func bindQuery(dst any, query map[string][]string) error {
	return bindTagged(dst, "query", func(name string) (string, bool) {
		vs, ok := query[name]
		if !ok || len(vs) == 0 {
			return "", false
		}
		return vs[0], true
	})
}

// bindTagged leaves a field at its zero value when lookup finds nothing
// for its tag; it does not itself enforce "required". A route's
// required path/query/header/cookie parameters are already rejected by
// service.Service.validateParameters before dispatch reaches a typed
// handler, so Wrap only ever binds what it's given.
func bindTagged(dst any, tag string, lookup func(name string) (string, bool)) error {
	rv := reflect.ValueOf(dst).Elem()
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		name := field.Tag.Get(tag)
		if name == "" {
			continue
		}
		raw, ok := lookup(name)
		if !ok {
			continue
		}
		if err := setScalar(rv.Field(i), raw); err != nil {
			return fmt.Errorf("typed: bind %s %q: %w", tag, name, err)
		}
	}
	return nil
}

func setScalar(field reflect.Value, raw string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return err
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}
