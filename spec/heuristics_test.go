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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEstimateStackSize_ClampedToBounds(t *testing.T) {
	op := &operation{}
	size := estimateStackSize(op, nil, nil, false, "h")
	require.Equal(t, StackMinBytes, size)

	params := make([]Parameter, 30)
	size = estimateStackSize(op, params, nil, true, "h")
	require.GreaterOrEqual(t, size, StackMinBytes)
	require.LessOrEqual(t, size, StackMaxBytes)
}

func TestEstimateStackSize_EnvOverrideWins(t *testing.T) {
	t.Setenv("BRRTR_STACK_SIZE__my_handler", "32768")
	op := &operation{}
	size := estimateStackSize(op, nil, nil, false, "my_handler")
	require.Equal(t, int64(32768), size)
}

func TestEstimateBodyBytes_SumsSchema(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{"type": "string", "maxLength": 64},
			"tags": map[string]any{
				"type":     "array",
				"maxItems": 4,
				"items":    map[string]any{"type": "string", "maxLength": 16},
			},
		},
	}
	got := estimateBodyBytes(&operation{}, schema, "h")
	require.Equal(t, int64(64+4*16), got)
}

func TestSchemaDepth(t *testing.T) {
	leaf := map[string]any{"type": "string"}
	nested := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"child": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"grandchild": leaf,
				},
			},
		},
	}
	require.Equal(t, 2, schemaDepth(nested, 0))
}
