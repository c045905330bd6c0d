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

package validator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/sync/singleflight"
)

// Kind distinguishes a request-body validator from a response-body one.
type Kind string

const (
	KindRequest  Kind = "request"
	KindResponse Kind = "response"
)

// Key identifies one cache entry: a handler's request validator, or one
// handler/status's response validator (§3.1 ValidatorCache).
type Key struct {
	Handler string
	Kind    Kind
	Status  string // empty for KindRequest
}

func (k Key) String() string {
	if k.Kind == KindRequest {
		return k.Handler + "|request"
	}
	return k.Handler + "|response|" + k.Status
}

// FieldError is one schema-validation failure, translated to the JSON
// error body's "details" (§4.3, §7).
type FieldError struct {
	Path    string
	Message string
}

// Result is a validation outcome.
type Result struct {
	Valid  bool
	Errors []FieldError
}

// Cache compiles and caches validators, with at-most-once compilation
// per key under concurrent first use (§4.3, §8). When Disabled is set,
// every call recompiles from scratch — same semantics, no caching — to
// support the BRRTR_SCHEMA_CACHE=off A/B switch (§4.3, §6).
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]*jsonschema.Schema
	group   singleflight.Group

	Disabled bool
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{entries: make(map[Key]*jsonschema.Schema)}
}

// Get returns the compiled validator for key, compiling it from schema
// on first use. Concurrent first uses of the same key share a single
// compilation (§8 "compile count per key equals 1").
func (c *Cache) Get(key Key, schema map[string]any) (*jsonschema.Schema, error) {
	if c.Disabled {
		return compile(key, schema)
	}

	c.mu.RLock()
	if s, ok := c.entries[key]; ok {
		c.mu.RUnlock()
		return s, nil
	}
	c.mu.RUnlock()

	v, err, _ := c.group.Do(key.String(), func() (any, error) {
		c.mu.RLock()
		if s, ok := c.entries[key]; ok {
			c.mu.RUnlock()
			return s, nil
		}
		c.mu.RUnlock()

		s, err := compile(key, schema)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = s
		c.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*jsonschema.Schema), nil
}

// Validate validates doc (already decoded to a generic any value, as
// produced by encoding/json) against the compiled validator for key.
func (c *Cache) Validate(key Key, schema map[string]any, doc any) (Result, error) {
	s, err := c.Get(key, schema)
	if err != nil {
		return Result{}, err
	}
	if s == nil {
		return Result{Valid: true}, nil
	}
	if err := s.Validate(doc); err != nil {
		return Result{Valid: false, Errors: toFieldErrors(err)}, nil
	}
	return Result{Valid: true}, nil
}

// Reset discards every cached validator, e.g. wholesale on hot reload
// (§4.3 "Cache is replaced wholesale on hot reload").
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[Key]*jsonschema.Schema)
	c.mu.Unlock()
}

func compile(key Key, schema map[string]any) (*jsonschema.Schema, error) {
	if schema == nil {
		return nil, nil
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("validator: marshal schema for %s: %w", key, err)
	}

	compiler := jsonschema.NewCompiler()
	resourceName := "mem://" + key.String()
	if err := compiler.AddResource(resourceName, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("validator: add schema resource for %s: %w", key, err)
	}
	s, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("validator: compile schema for %s: %w", key, err)
	}
	return s, nil
}

func toFieldErrors(err error) []FieldError {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []FieldError{{Path: "", Message: err.Error()}}
	}
	var out []FieldError
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			out = append(out, FieldError{Path: e.InstanceLocation, Message: e.Error()})
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(ve)
	return out
}
