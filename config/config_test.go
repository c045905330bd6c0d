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

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/microscaler/brrtrouter/dispatch"
	"github.com/microscaler/brrtrouter/spec"
)

func TestNew_DefaultsWithNoEnv(t *testing.T) {
	c := New()

	require.True(t, c.SchemaCacheEnabled)
	require.Equal(t, 4, c.HandlerWorkers)
	require.Equal(t, 1024, c.HandlerQueueBound)
	require.Equal(t, dispatch.ModeBlock, c.BackpressureMode)
	require.Equal(t, 50*time.Millisecond, c.BackpressureTimeout)
	require.Equal(t, int64(16384), c.StackSize)
	require.Equal(t, spec.StackMinBytes, c.StackMinBytes)
	require.Equal(t, spec.StackMaxBytes, c.StackMaxBytes)
	require.Equal(t, RouterModeHybrid, c.RouterMode)
}

func TestNew_EnvOverrides(t *testing.T) {
	t.Setenv("BRRTR_SCHEMA_CACHE", "off")
	t.Setenv("BRRTR_HANDLER_WORKERS", "8")
	t.Setenv("BRRTR_HANDLER_QUEUE_BOUND", "256")
	t.Setenv("BRRTR_BACKPRESSURE_MODE", "shed")
	t.Setenv("BRRTR_BACKPRESSURE_TIMEOUT_MS", "75")
	t.Setenv("BRRTR_STACK_SIZE", "32768")
	t.Setenv("BRRTR_STACK_MIN_BYTES", "8192")
	t.Setenv("BRRTR_STACK_MAX_BYTES", "65536")
	t.Setenv("BRRTR_ROUTER_MODE", "trie")

	c := New()

	require.False(t, c.SchemaCacheEnabled)
	require.Equal(t, 8, c.HandlerWorkers)
	require.Equal(t, 256, c.HandlerQueueBound)
	require.Equal(t, dispatch.ModeShed, c.BackpressureMode)
	require.Equal(t, 75*time.Millisecond, c.BackpressureTimeout)
	require.Equal(t, int64(32768), c.StackSize)
	require.Equal(t, int64(8192), c.StackMinBytes)
	require.Equal(t, int64(65536), c.StackMaxBytes)
	require.Equal(t, RouterModeTrie, c.RouterMode)
}

func TestNew_InvalidEnvFallsBackToDefault(t *testing.T) {
	t.Setenv("BRRTR_HANDLER_WORKERS", "not-a-number")
	t.Setenv("BRRTR_BACKPRESSURE_MODE", "nonsense")

	c := New()

	require.Equal(t, 4, c.HandlerWorkers)
	require.Equal(t, dispatch.ModeBlock, c.BackpressureMode)
}

func TestNew_OptionsOverrideEnv(t *testing.T) {
	t.Setenv("BRRTR_HANDLER_WORKERS", "8")

	c := New(
		WithHandlerWorkers(16),
		WithSchemaCache(false),
		WithHandlerQueueBound(42),
		WithBackpressure(dispatch.ModeShed, 9*time.Millisecond),
		WithRouterMode(RouterModeRegex),
	)

	require.Equal(t, 16, c.HandlerWorkers)
	require.False(t, c.SchemaCacheEnabled)
	require.Equal(t, 42, c.HandlerQueueBound)
	require.Equal(t, dispatch.ModeShed, c.BackpressureMode)
	require.Equal(t, 9*time.Millisecond, c.BackpressureTimeout)
	require.Equal(t, RouterModeRegex, c.RouterMode)
}

func TestConfig_WorkerPoolConfigDerivesFromSettings(t *testing.T) {
	c := New(WithHandlerWorkers(6), WithHandlerQueueBound(10), WithBackpressure(dispatch.ModeShed, 5*time.Millisecond))

	wpc := c.WorkerPoolConfig(20480)

	require.Equal(t, 6, wpc.Workers)
	require.Equal(t, 10, wpc.QueueBound)
	require.Equal(t, dispatch.ModeShed, wpc.Mode)
	require.Equal(t, 5*time.Millisecond, wpc.Timeout)
	require.Equal(t, int64(20480), wpc.StackSize)
}
