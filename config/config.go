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

// Package config assembles the core's environment-driven settings into
// an immutable Config (§6 "Environment configuration"). It is read once
// at startup; there is no file or remote source here — that belongs to
// the external CLI/config-loading collaborator (§1).
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/microscaler/brrtrouter/dispatch"
	"github.com/microscaler/brrtrouter/spec"
)

// RouterMode selects the router's matching strategy A/B flag
// (BRRTR_ROUTER_MODE). This module implements one matching strategy —
// the compressed radix tree (§4.2) — so Hybrid and Regex are accepted
// for forward compatibility with the env var's documented values but
// both currently resolve to the same radix-tree Router; there is no
// regex-based or separately-tuned "hybrid" matcher to switch to.
type RouterMode string

const (
	RouterModeHybrid RouterMode = "hybrid"
	RouterModeRegex  RouterMode = "regex"
	RouterModeTrie   RouterMode = "trie"
)

// Config is the immutable, process-wide set of §6 environment knobs.
// Construct with New; fields are only ever set at startup.
type Config struct {
	SchemaCacheEnabled  bool
	HandlerWorkers      int
	HandlerQueueBound   int
	BackpressureMode    dispatch.Mode
	BackpressureTimeout time.Duration
	StackSize           int64
	StackMinBytes       int64
	StackMaxBytes       int64
	RouterMode          RouterMode
}

// Option mutates a Config under construction, the same functional-option
// shape as the teacher's router.Option (router/options.go).
type Option func(*Config)

// WithSchemaCache overrides BRRTR_SCHEMA_CACHE.
func WithSchemaCache(enabled bool) Option {
	return func(c *Config) { c.SchemaCacheEnabled = enabled }
}

// WithHandlerWorkers overrides BRRTR_HANDLER_WORKERS.
func WithHandlerWorkers(n int) Option {
	return func(c *Config) { c.HandlerWorkers = n }
}

// WithHandlerQueueBound overrides BRRTR_HANDLER_QUEUE_BOUND.
func WithHandlerQueueBound(n int) Option {
	return func(c *Config) { c.HandlerQueueBound = n }
}

// WithBackpressure overrides BRRTR_BACKPRESSURE_MODE / _TIMEOUT_MS.
func WithBackpressure(mode dispatch.Mode, timeout time.Duration) Option {
	return func(c *Config) {
		c.BackpressureMode = mode
		c.BackpressureTimeout = timeout
	}
}

// WithRouterMode overrides BRRTR_ROUTER_MODE.
func WithRouterMode(mode RouterMode) Option {
	return func(c *Config) { c.RouterMode = mode }
}

// New builds a Config from the process environment (§6's table),
// applying opts afterward so a caller's explicit choice always wins
// over an environment variable — the same "override always wins" rule
// spec/heuristics.go applies to per-handler stack/body-size overrides.
func New(opts ...Option) *Config {
	c := &Config{
		SchemaCacheEnabled:  envBool("BRRTR_SCHEMA_CACHE", true),
		HandlerWorkers:      envInt("BRRTR_HANDLER_WORKERS", 4),
		HandlerQueueBound:   envInt("BRRTR_HANDLER_QUEUE_BOUND", 1024),
		BackpressureMode:    envMode("BRRTR_BACKPRESSURE_MODE", dispatch.ModeBlock),
		BackpressureTimeout: time.Duration(envInt("BRRTR_BACKPRESSURE_TIMEOUT_MS", 50)) * time.Millisecond,
		StackSize:           envInt64("BRRTR_STACK_SIZE", 16384),
		StackMinBytes:       envInt64("BRRTR_STACK_MIN_BYTES", spec.StackMinBytes),
		StackMaxBytes:       envInt64("BRRTR_STACK_MAX_BYTES", spec.StackMaxBytes),
		RouterMode:          RouterMode(envString("BRRTR_ROUTER_MODE", string(RouterModeHybrid))),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WorkerPoolConfig derives a dispatch.WorkerPoolConfig from c, for a
// handler whose own stack-size hint (already resolved by the loader
// per-handler override precedence) is stackSizeHint.
func (c *Config) WorkerPoolConfig(stackSizeHint int64) dispatch.WorkerPoolConfig {
	return dispatch.WorkerPoolConfig{
		Workers:    c.HandlerWorkers,
		QueueBound: c.HandlerQueueBound,
		Mode:       c.BackpressureMode,
		Timeout:    c.BackpressureTimeout,
		StackSize:  stackSizeHint,
	}
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "off", "false", "0", "no":
		return false
	case "on", "true", "1", "yes":
		return true
	default:
		return def
	}
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envMode(key string, def dispatch.Mode) dispatch.Mode {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	switch strings.ToLower(v) {
	case "shed":
		return dispatch.ModeShed
	case "block":
		return dispatch.ModeBlock
	default:
		return def
	}
}
