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
	"sync/atomic"
	"time"
)

// Mode is a worker pool's backpressure policy when its queue is full.
type Mode int

const (
	// ModeShed rejects immediately on a full queue (§4.5 "mode=shed").
	ModeShed Mode = iota
	// ModeBlock retries enqueue with backoff until Timeout elapses
	// (§4.5 "mode=block(timeout_ms)").
	ModeBlock
)

// WorkerPoolConfig configures one handler's pool (§3.1 "Worker pool").
type WorkerPoolConfig struct {
	Workers    int
	QueueBound int
	Mode       Mode
	Timeout    time.Duration
	// StackSize is the heuristic-estimated coroutine stack size
	// (spec.heuristics.estimateStackSize). Go's goroutine stacks grow
	// on demand, so this is only carried on the config: neither the pool
	// nor its metrics read it — see DESIGN.md "Coroutine runtime →
	// goroutines".
	StackSize int64
}

// DefaultWorkerPoolConfig returns §3.1's documented defaults.
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		Workers:    4,
		QueueBound: 1024,
		Mode:       ModeBlock,
		Timeout:    50 * time.Millisecond,
		StackSize:  16 * 1024,
	}
}

type job struct {
	req   *HandlerRequest
	reply chan *HandlerResponse
}

// Pool is one registered handler's bounded concurrency boundary. It
// mirrors the teacher's atomic-counter pool-stats discipline
// (router/pool.go's PoolStats), generalized from context pooling to
// goroutine worker pooling since §4.5 requires actual bounded
// concurrency per handler rather than object reuse.
type Pool struct {
	Name    string
	handler HandlerFunc
	cfg     WorkerPoolConfig
	queue   chan job
	done    chan struct{}
	wg      sync.WaitGroup
	logger  *slog.Logger

	queueDepth      atomic.Int64
	shedCount       atomic.Int64
	dispatchedCount atomic.Int64
	completedCount  atomic.Int64
	panicCount      atomic.Int64
}

// NewPool builds and starts a pool of cfg.Workers goroutines consuming
// from a bounded channel of size cfg.QueueBound.
func NewPool(name string, handler HandlerFunc, cfg WorkerPoolConfig, logger *slog.Logger) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueBound <= 0 {
		cfg.QueueBound = 1024
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pool{
		Name:    name,
		handler: handler,
		cfg:     cfg,
		queue:   make(chan job, cfg.QueueBound),
		done:    make(chan struct{}),
		logger:  logger,
	}
	p.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.queue {
		p.queueDepth.Add(-1)
		resp := p.runHandler(j.req)
		p.completedCount.Add(1)
		select {
		case j.reply <- resp:
		default:
			// Caller's receiver already gave up (connection closed);
			// §5 "the worker's send fails silently and the worker
			// proceeds to the next request."
		}
	}
}

// runHandler invokes the handler inside a panic barrier (§4.5 step 4).
func (p *Pool) runHandler(req *HandlerRequest) (resp *HandlerResponse) {
	defer func() {
		if r := recover(); r != nil {
			p.panicCount.Add(1)
			p.logger.Error("dispatch: handler panicked", "handler", p.Name, "recovered", r)
			resp = panicResponse()
		}
	}()
	return p.handler(req)
}

// Submit enqueues req and blocks until the worker replies, the queue
// rejects it per cfg.Mode, or ctx is cancelled.
func (p *Pool) Submit(ctx context.Context, req *HandlerRequest) (*HandlerResponse, error) {
	reply := make(chan *HandlerResponse, 1)
	j := job{req: req, reply: reply}

	if err := p.enqueue(ctx, j); err != nil {
		return nil, err
	}
	p.dispatchedCount.Add(1)

	select {
	case resp := <-reply:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SubmitDetached runs req's handler on a dedicated goroutine outside
// this pool's bounded queue (§9 "SSE handler lifecycle"): it still goes
// through the same panic barrier and counts toward dispatched/completed,
// but never touches queueDepth/shedCount, since it never occupies a
// worker slot or waits behind one.
func (p *Pool) SubmitDetached(ctx context.Context, req *HandlerRequest) (*HandlerResponse, error) {
	reply := make(chan *HandlerResponse, 1)
	p.dispatchedCount.Add(1)
	go func() {
		resp := p.runHandler(req)
		p.completedCount.Add(1)
		reply <- resp
	}()

	select {
	case resp := <-reply:
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *Pool) enqueue(ctx context.Context, j job) (err error) {
	// A send that races Close lands on a closed queue; report it as
	// ErrPoolClosed rather than panicking the caller.
	defer func() {
		if recover() != nil {
			err = ErrPoolClosed
		}
	}()
	select {
	case <-p.done:
		return ErrPoolClosed
	default:
	}

	select {
	case p.queue <- j:
		p.queueDepth.Add(1)
		return nil
	default:
	}

	if p.cfg.Mode == ModeShed {
		p.shedCount.Add(1)
		return ErrBackpressure
	}

	timeout := p.cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case p.queue <- j:
			p.queueDepth.Add(1)
			return nil
		case <-timer.C:
			p.shedCount.Add(1)
			return ErrBackpressure
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Stats is a point-in-time snapshot of a pool's counters (§3.1, §4.5
// "Metrics. Per-pool: queue-depth gauge, shed/dispatched/completed
// counters").
type Stats struct {
	QueueDepth      int64
	ShedCount       int64
	DispatchedCount int64
	CompletedCount  int64
	PanicCount      int64
}

func (p *Pool) Stats() Stats {
	return Stats{
		QueueDepth:      p.queueDepth.Load(),
		ShedCount:       p.shedCount.Load(),
		DispatchedCount: p.dispatchedCount.Load(),
		CompletedCount:  p.completedCount.Load(),
		PanicCount:      p.panicCount.Load(),
	}
}

// Close drains in-flight work and stops accepting new jobs. Existing
// workers exit once the queue is drained (§4.5 "old workers exit after
// draining").
func (p *Pool) Close() {
	select {
	case <-p.done:
		return
	default:
		close(p.done)
	}
	close(p.queue)
	p.wg.Wait()
}

func panicResponse() *HandlerResponse {
	return &HandlerResponse{
		StatusCode: 500,
		Body:       []byte(`{"error":"handler_panic","message":"handler panicked"}`),
	}
}
