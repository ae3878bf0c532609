package index

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	domainerrors "crossref/internal/core/errors"
	"crossref/internal/data/queue"
	"crossref/internal/engine/extract"
	"crossref/internal/engine/store"
	"crossref/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type processorState int

const (
	stateIdle processorState = iota
	stateRunning
	stateStopped
)

// Processor executes queued operations one at a time, in arrival order, and
// is the only code that touches its store.
type Processor struct {
	queue  *queue.MemoryQueue[Operation]
	worker worker

	mu     sync.Mutex
	state  processorState
	done   chan struct{}
	inline sync.Mutex
}

func NewProcessor(q *queue.MemoryQueue[Operation], s *store.MemoryStore) *Processor {
	return &Processor{
		queue: q,
		worker: worker{
			store:     s,
			extractor: extract.New(s),
		},
		done: make(chan struct{}),
	}
}

// Run processes operations on the calling goroutine until the processor is
// stopped or ctx is cancelled. It may be called at most once. Cancelling ctx
// closes the queue; operations still pending are left for Stop.
func (p *Processor) Run(ctx context.Context) error {
	p.mu.Lock()
	switch p.state {
	case stateRunning:
		p.mu.Unlock()
		return domainerrors.New(domainerrors.CodeConflict, "index processor already running")
	case stateStopped:
		p.mu.Unlock()
		return domainerrors.New(domainerrors.CodeStopped, "index processor stopped")
	}
	p.state = stateRunning
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.state = stateStopped
		p.mu.Unlock()
		close(p.done)
	}()

	slog.Debug("index processor started")
	for {
		err := ctx.Err()
		var op Operation
		if err == nil {
			op, err = p.queue.Dequeue(ctx)
		}
		if errors.Is(err, io.EOF) {
			slog.Debug("index processor drained")
			return nil
		}
		if err != nil {
			// Nothing dequeues after this; later enqueues are dropped and
			// whatever is still queued is left for Stop.
			_ = p.queue.Close()
			slog.Debug("index processor cancelled", "pending", p.queue.Len())
			return err
		}
		p.execute(ctx, op)
	}
}

// Stop closes the queue and waits for Run to return. A graceful stop lets
// every queued operation run first; otherwise only the operation in flight
// completes and the pending ones are returned unexecuted. Operations that Run
// left behind, because it never started or its context was cancelled, are
// executed inline by a graceful stop.
func (p *Processor) Stop(ctx context.Context, graceful bool) ([]Operation, error) {
	_ = p.queue.Close()

	var discarded []Operation
	if !graceful {
		discarded = p.queue.Drain()
		for _, op := range discarded {
			observability.OperationsDiscardedTotal.WithLabelValues(string(op.Kind())).Inc()
		}
		observability.QueueDepth.Set(0)
		if len(discarded) > 0 {
			slog.Info("discarded pending index operations", "count", len(discarded))
		}
	}

	p.mu.Lock()
	state := p.state
	if state == stateIdle {
		p.state = stateStopped
	}
	p.mu.Unlock()

	switch state {
	case stateIdle:
		if graceful {
			p.drainInline(ctx)
		}
		close(p.done)
		return discarded, nil
	case stateRunning:
		select {
		case <-p.done:
		case <-ctx.Done():
			return discarded, ctx.Err()
		}
	}
	if graceful {
		p.drainInline(ctx)
	}
	return discarded, nil
}

// drainInline runs what is still queued once Run can no longer dequeue.
func (p *Processor) drainInline(ctx context.Context) {
	p.inline.Lock()
	defer p.inline.Unlock()
	ops := p.queue.Drain()
	if len(ops) > 0 {
		slog.Debug("running pending index operations inline", "count", len(ops))
	}
	for _, op := range ops {
		p.execute(ctx, op)
	}
}

// Done is closed when Run returns.
func (p *Processor) Done() <-chan struct{} {
	return p.done
}

func (p *Processor) execute(ctx context.Context, op Operation) {
	kind := string(op.Kind())
	_, span := observability.Tracer().Start(ctx, "index."+kind)
	span.SetAttributes(attribute.String("crossref.operation", kind))
	defer span.End()

	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			observability.CallbackPanicsTotal.Inc()
			span.SetStatus(codes.Error, fmt.Sprint(r))
			slog.Error("index operation panicked", "operation", kind, "panic", r, "stack", string(debug.Stack()))
		}
		observability.OperationLatencySeconds.WithLabelValues(kind).Observe(time.Since(started).Seconds())
		observability.OperationsProcessedTotal.WithLabelValues(kind).Inc()
		p.updateMetrics()
	}()

	op.perform(&p.worker)
}

func (p *Processor) updateMetrics() {
	stats := p.worker.store.Statistics()
	observability.QueueDepth.Set(float64(p.queue.Len()))
	observability.IndexElements.Set(float64(stats.Elements))
	observability.IndexRelationships.Set(float64(stats.Relationships))
	observability.IndexLocations.Set(float64(stats.Locations))
	observability.IndexSources.Set(float64(stats.Sources))
}
