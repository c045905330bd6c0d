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

package router

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParamVec_InlineAndOverflow(t *testing.T) {
	var pv ParamVec
	for i := 0; i < 12; i++ {
		pv.Add(fmt.Sprintf("p%d", i), fmt.Sprintf("v%d", i))
	}
	require.Equal(t, 12, pv.Len())

	v, ok := pv.Get("p0")
	require.True(t, ok)
	require.Equal(t, "v0", v)

	v, ok = pv.Get("p11")
	require.True(t, ok)
	require.Equal(t, "v11", v)

	_, ok = pv.Get("missing")
	require.False(t, ok)
}

func TestParamVec_Reset(t *testing.T) {
	var pv ParamVec
	pv.Add("a", "1")
	pv.reset()
	require.Equal(t, 0, pv.Len())
	_, ok := pv.Get("a")
	require.False(t, ok)
}

func TestHeaderVec_InlineAndOverflow(t *testing.T) {
	var hv HeaderVec
	for i := 0; i < 20; i++ {
		hv.Add(fmt.Sprintf("h%d", i), fmt.Sprintf("v%d", i))
	}
	require.Equal(t, 20, hv.Len())
	v, ok := hv.Get("h19")
	require.True(t, ok)
	require.Equal(t, "v19", v)
}
