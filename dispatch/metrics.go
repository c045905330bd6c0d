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
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// PoolMetrics holds the OTel instruments recording §4.5's per-pool
// metrics (queue-depth gauge, shed/dispatched/completed/panic
// counters), grounded on the teacher's router/metrics.go instrument
// set. Every instrument here is observable: Pool already keeps the
// authoritative atomic counters on its own hot path (queueDepth,
// shedCount, dispatchedCount, completedCount, panicCount), so this
// reports that existing state on collection rather than duplicating it
// with a second set of counters incremented from a call site — there is
// exactly one place a dispatch's outcome is recorded, and it isn't here.
type PoolMetrics struct {
	meter        metric.Meter
	queueDepth   metric.Int64ObservableGauge
	shedCount    metric.Int64ObservableCounter
	dispatched   metric.Int64ObservableCounter
	completed    metric.Int64ObservableCounter
	panicCount   metric.Int64ObservableCounter
	registration metric.Registration
}

// NewPoolMetrics creates the pool instrument set against meter and
// registers one callback that, on every collection, polls d's tracked
// pools and reports their current Stats().
func NewPoolMetrics(meter metric.Meter, d *Dispatcher) (*PoolMetrics, error) {
	pm := &PoolMetrics{meter: meter}

	var err error
	pm.queueDepth, err = meter.Int64ObservableGauge(
		"dispatch_pool_queue_depth",
		metric.WithDescription("Current queue depth per handler pool"),
	)
	if err != nil {
		return nil, fmt.Errorf("dispatch: creating queue depth gauge: %w", err)
	}

	pm.shedCount, err = meter.Int64ObservableCounter(
		"dispatch_pool_shed_total",
		metric.WithDescription("Total requests shed due to backpressure, per handler pool"),
	)
	if err != nil {
		return nil, fmt.Errorf("dispatch: creating shed counter: %w", err)
	}

	pm.dispatched, err = meter.Int64ObservableCounter(
		"dispatch_pool_dispatched_total",
		metric.WithDescription("Total requests dispatched to a handler pool"),
	)
	if err != nil {
		return nil, fmt.Errorf("dispatch: creating dispatched counter: %w", err)
	}

	pm.completed, err = meter.Int64ObservableCounter(
		"dispatch_pool_completed_total",
		metric.WithDescription("Total requests completed by a handler pool"),
	)
	if err != nil {
		return nil, fmt.Errorf("dispatch: creating completed counter: %w", err)
	}

	pm.panicCount, err = meter.Int64ObservableCounter(
		"dispatch_pool_panics_total",
		metric.WithDescription("Total handler panics recovered by a handler pool"),
	)
	if err != nil {
		return nil, fmt.Errorf("dispatch: creating panic counter: %w", err)
	}

	pm.registration, err = meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		d.mu.RLock()
		defer d.mu.RUnlock()
		for name, pool := range d.pools {
			stats := pool.Stats()
			attrs := metric.WithAttributes(attribute.String("handler", name))
			o.ObserveInt64(pm.queueDepth, stats.QueueDepth, attrs)
			o.ObserveInt64(pm.shedCount, stats.ShedCount, attrs)
			o.ObserveInt64(pm.dispatched, stats.DispatchedCount, attrs)
			o.ObserveInt64(pm.completed, stats.CompletedCount, attrs)
			o.ObserveInt64(pm.panicCount, stats.PanicCount, attrs)
		}
		return nil
	}, pm.queueDepth, pm.shedCount, pm.dispatched, pm.completed, pm.panicCount)
	if err != nil {
		return nil, fmt.Errorf("dispatch: registering pool stats callback: %w", err)
	}

	return pm, nil
}

// Close unregisters the observable-instrument callback.
func (pm *PoolMetrics) Close() error {
	if pm.registration == nil {
		return nil
	}
	return pm.registration.Unregister()
}
