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

package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDispatcher_DispatchUnknownHandlerErrors(t *testing.T) {
	d := New(nil)
	_, err := d.Dispatch(context.Background(), &HandlerRequest{HandlerName: "missing"})
	require.ErrorIs(t, err, ErrUnknownHandler)
}

func TestDispatcher_RegisterAndDispatch(t *testing.T) {
	d := New(nil)
	d.RegisterHandler("get_pet", func(req *HandlerRequest) *HandlerResponse {
		return &HandlerResponse{StatusCode: 200, Body: []byte("pet")}
	}, DefaultWorkerPoolConfig())

	resp, err := d.Dispatch(context.Background(), &HandlerRequest{HandlerName: "get_pet"})
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
}

func TestDispatcher_ReloadReplacesHandlerIdempotently(t *testing.T) {
	d := New(nil)
	d.RegisterHandler("h", func(req *HandlerRequest) *HandlerResponse {
		return &HandlerResponse{StatusCode: 200, Body: []byte("v1")}
	}, DefaultWorkerPoolConfig())

	d.RegisterHandler("h", func(req *HandlerRequest) *HandlerResponse {
		return &HandlerResponse{StatusCode: 200, Body: []byte("v2")}
	}, DefaultWorkerPoolConfig())

	resp, err := d.Dispatch(context.Background(), &HandlerRequest{HandlerName: "h"})
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), resp.Body)
}

func TestDispatcher_MiddlewareBeforeShortCircuits(t *testing.T) {
	d := New(nil)
	called := false
	d.RegisterHandler("h", func(req *HandlerRequest) *HandlerResponse {
		called = true
		return &HandlerResponse{StatusCode: 200}
	}, DefaultWorkerPoolConfig())

	d.Use(MiddlewareFuncs{
		BeforeFunc: func(req *HandlerRequest) *HandlerResponse {
			return &HandlerResponse{StatusCode: 401}
		},
	})

	resp, err := d.Dispatch(context.Background(), &HandlerRequest{HandlerName: "h"})
	require.NoError(t, err)
	require.Equal(t, 401, resp.StatusCode)
	require.False(t, called)
}

func TestDispatcher_MiddlewareAfterRunsInReverseOrder(t *testing.T) {
	d := New(nil)
	d.RegisterHandler("h", func(req *HandlerRequest) *HandlerResponse {
		return &HandlerResponse{StatusCode: 200}
	}, DefaultWorkerPoolConfig())

	var order []string
	d.Use(
		MiddlewareFuncs{AfterFunc: func(req *HandlerRequest, resp *HandlerResponse) { order = append(order, "first") }},
		MiddlewareFuncs{AfterFunc: func(req *HandlerRequest, resp *HandlerResponse) { order = append(order, "second") }},
	)

	_, err := d.Dispatch(context.Background(), &HandlerRequest{HandlerName: "h"})
	require.NoError(t, err)
	require.Equal(t, []string{"second", "first"}, order)
}

func TestDispatcher_DeregisterDrainsPool(t *testing.T) {
	d := New(nil)
	d.RegisterHandler("h", func(req *HandlerRequest) *HandlerResponse {
		return &HandlerResponse{StatusCode: 200}
	}, DefaultWorkerPoolConfig())

	d.Deregister("h")
	time.Sleep(10 * time.Millisecond)

	_, err := d.Dispatch(context.Background(), &HandlerRequest{HandlerName: "h"})
	require.ErrorIs(t, err, ErrUnknownHandler)
}

func TestDispatcher_SSERouteBypassesPoolQueue(t *testing.T) {
	d := New(nil)
	block := make(chan struct{})
	d.RegisterHandler("stream", func(req *HandlerRequest) *HandlerResponse {
		<-block
		return &HandlerResponse{StatusCode: 200}
	}, WorkerPoolConfig{Workers: 1, QueueBound: 1, Mode: ModeShed})

	// Occupy the single worker and fill the bounded queue with ordinary
	// (non-SSE) requests so any further Submit would be shed.
	go d.Dispatch(context.Background(), &HandlerRequest{HandlerName: "stream"})
	go d.Dispatch(context.Background(), &HandlerRequest{HandlerName: "stream"})
	require.Eventually(t, func() bool {
		stats, _ := d.Stats("stream")
		return stats.QueueDepth >= 1
	}, 500*time.Millisecond, time.Millisecond)

	sseResult := make(chan error, 1)
	go func() {
		_, err := d.Dispatch(context.Background(), &HandlerRequest{HandlerName: "stream", IsSSE: true})
		sseResult <- err
	}()

	// A third ordinary request against the still-full queue is shed;
	// the SSE request above never touched that queue, so it isn't.
	_, err := d.Dispatch(context.Background(), &HandlerRequest{HandlerName: "stream"})
	require.ErrorIs(t, err, ErrBackpressure)

	close(block)
	require.NoError(t, <-sseResult)
}

func TestDispatcher_StatsReflectsDispatchCounts(t *testing.T) {
	d := New(nil)
	d.RegisterHandler("h", func(req *HandlerRequest) *HandlerResponse {
		return &HandlerResponse{StatusCode: 200}
	}, DefaultWorkerPoolConfig())

	_, err := d.Dispatch(context.Background(), &HandlerRequest{HandlerName: "h"})
	require.NoError(t, err)

	stats, ok := d.Stats("h")
	require.True(t, ok)
	require.Equal(t, int64(1), stats.DispatchedCount)
	require.Equal(t, int64(1), stats.CompletedCount)
}
