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
	"log/slog"
	"sync"
)

// Dispatcher owns one Pool per registered handler_name and the
// before/after middleware pipeline that wraps every dispatch (§4.5).
type Dispatcher struct {
	mu          sync.RWMutex
	pools       map[string]*Pool
	middlewares []Middleware
	logger      *slog.Logger
}

// New constructs an empty Dispatcher.
func New(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{pools: make(map[string]*Pool), logger: logger}
}

// Use appends middlewares run, in order, around every dispatch.
func (d *Dispatcher) Use(mw ...Middleware) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.middlewares = append(d.middlewares, mw...)
}

// RegisterHandler registers or replaces handler_name's pool. Replacing
// an existing handler is idempotent for reload (§4.5): the old pool
// stops accepting new work and drains its in-flight jobs in the
// background so reload never blocks on a slow handler.
func (d *Dispatcher) RegisterHandler(name string, handler HandlerFunc, cfg WorkerPoolConfig) {
	pool := NewPool(name, handler, cfg, d.logger)

	d.mu.Lock()
	old := d.pools[name]
	d.pools[name] = pool
	d.mu.Unlock()

	if old != nil {
		go old.Close()
	}
}

// Deregister removes handler_name's pool entirely, draining it in the
// background.
func (d *Dispatcher) Deregister(name string) {
	d.mu.Lock()
	old := d.pools[name]
	delete(d.pools, name)
	d.mu.Unlock()

	if old != nil {
		go old.Close()
	}
}

// Dispatch runs the full §4.5 dispatch algorithm for a single request.
func (d *Dispatcher) Dispatch(ctx context.Context, req *HandlerRequest) (*HandlerResponse, error) {
	d.mu.RLock()
	pool, ok := d.pools[req.HandlerName]
	middlewares := d.middlewares
	d.mu.RUnlock()

	if !ok {
		return nil, ErrUnknownHandler
	}

	for _, mw := range middlewares {
		if resp := mw.Before(req); resp != nil {
			return resp, nil
		}
	}

	submit := pool.Submit
	if req.IsSSE {
		submit = pool.SubmitDetached
	}
	resp, err := submit(ctx, req)
	if err != nil {
		return nil, err
	}

	for i := len(middlewares) - 1; i >= 0; i-- {
		middlewares[i].After(req, resp)
	}

	return resp, nil
}

// Stats returns the named handler's pool stats, or false if unregistered.
func (d *Dispatcher) Stats(name string) (Stats, bool) {
	d.mu.RLock()
	pool, ok := d.pools[name]
	d.mu.RUnlock()
	if !ok {
		return Stats{}, false
	}
	return pool.Stats(), true
}

// Close drains every registered pool. Intended for process shutdown.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	pools := d.pools
	d.pools = make(map[string]*Pool)
	d.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(len(pools))
	for _, p := range pools {
		p := p
		go func() {
			defer wg.Done()
			p.Close()
		}()
	}
	wg.Wait()
}
