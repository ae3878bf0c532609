// Package index is the entry point to the relationship index. Every call is
// turned into an operation on a FIFO queue that a single processor drains, so
// a query observes exactly the mutations enqueued before it.
package index

import (
	"context"
	"log/slog"

	domainerrors "crossref/internal/core/errors"
	"crossref/internal/data/queue"
	"crossref/internal/engine/ast"
	"crossref/internal/engine/model"
	"crossref/internal/engine/store"
	"crossref/internal/shared/observability"
)

// Index is safe for concurrent use. Methods that mutate or query the index
// never block; inputs that cannot be indexed are silently ignored.
type Index struct {
	queue     *queue.MemoryQueue[Operation]
	store     *store.MemoryStore
	processor *Processor
}

func New() *Index {
	q := queue.NewMemoryQueue[Operation]()
	s := store.NewMemoryStore()
	return &Index{
		queue:     q,
		store:     s,
		processor: NewProcessor(q, s),
	}
}

// Run drains the operation queue on the calling goroutine until Stop.
func (ix *Index) Run(ctx context.Context) error {
	return ix.processor.Run(ctx)
}

// Stop shuts the processor down. See Processor.Stop.
func (ix *Index) Stop(ctx context.Context, graceful bool) ([]Operation, error) {
	return ix.processor.Stop(ctx, graceful)
}

// Done is closed once the processor has stopped.
func (ix *Index) Done() <-chan struct{} {
	return ix.processor.Done()
}

func (ix *Index) enqueue(op Operation) bool {
	res := ix.queue.Enqueue(op)
	return ix.accounted(op, res)
}

func (ix *Index) accounted(op Operation, res queue.EnqueueResult) bool {
	kind := string(op.Kind())
	if res != queue.EnqueueAccepted {
		observability.OperationsDiscardedTotal.WithLabelValues(kind).Inc()
		slog.Debug("index operation dropped", "operation", kind, "result", res)
		return false
	}
	observability.OperationsEnqueuedTotal.WithLabelValues(kind).Inc()
	observability.QueueDepth.Set(float64(ix.queue.Len()))
	return true
}

// IndexUnit schedules unit for (re)indexing. Units without an element or a
// backing source are ignored.
func (ix *Index) IndexUnit(unit *ast.CompilationUnit) {
	if unit == nil || unit.Element == nil {
		return
	}
	source, ok := model.SourceOf(unit.Element)
	if !ok {
		return
	}
	ix.enqueue(&IndexUnitOperation{Unit: unit, Source: source})
}

func (ix *Index) IndexHTMLUnit(unit *ast.HTMLUnit) {
	if unit == nil || unit.Element == nil {
		return
	}
	source, ok := model.SourceOf(unit.Element)
	if !ok {
		return
	}
	ix.enqueue(&IndexHTMLUnitOperation{Unit: unit, Source: source})
}

// RemoveSource schedules removal of everything source contributed. Pending
// index operations for source that no query queued since could observe are
// dropped.
func (ix *Index) RemoveSource(source model.Source) {
	if source.IsZero() {
		return
	}
	op := &RemoveSourceOperation{Source: source}
	res, superseded := ix.queue.Supersede(op, supersededBy(source), isObserver)
	for _, s := range superseded {
		observability.OperationsSupersededTotal.WithLabelValues(string(s.Kind())).Inc()
	}
	if len(superseded) > 0 {
		slog.Debug("superseded pending index operations", "source", source.String(), "count", len(superseded))
	}
	ix.accounted(op, res)
}

// RemoveSources schedules removal of every source of context in container.
func (ix *Index) RemoveSources(contextID model.ContextID, container model.SourceContainer) {
	if container == nil {
		return
	}
	ix.enqueue(&RemoveSourcesOperation{Context: contextID, Container: container})
}

// RemoveContext schedules removal of a whole analysis context. Index
// operations for the context that run afterwards record nothing.
func (ix *Index) RemoveContext(contextID model.ContextID) {
	if contextID == "" {
		return
	}
	ix.enqueue(&RemoveContextOperation{Context: contextID})
}

func (ix *Index) Clear() {
	ix.enqueue(&ClearOperation{})
}

// GetRelationships schedules a query; callback runs on the processor
// goroutine after every operation enqueued before it.
func (ix *Index) GetRelationships(element *model.Element, relationship model.Relationship, callback RelationshipsCallback) {
	if element == nil || callback == nil {
		return
	}
	ix.enqueue(&GetRelationshipsOperation{Element: element, Relationship: relationship, Callback: callback})
}

// Relationships is the blocking form of GetRelationships.
func (ix *Index) Relationships(ctx context.Context, element *model.Element, relationship model.Relationship) ([]*model.Location, error) {
	if element == nil {
		return []*model.Location{}, nil
	}
	result := make(chan []*model.Location, 1)
	op := &GetRelationshipsOperation{
		Element:      element,
		Relationship: relationship,
		Callback: func(_ *model.Element, _ model.Relationship, locations []*model.Location) {
			result <- locations
		},
	}
	return await(ctx, ix, op, result)
}

// AllRelationships returns every relationship recorded for element, including
// ones outside model.KnownRelationships, with their locations.
func (ix *Index) AllRelationships(ctx context.Context, element *model.Element) (map[model.Relationship][]*model.Location, error) {
	if element == nil {
		return map[model.Relationship][]*model.Location{}, nil
	}
	result := make(chan map[model.Relationship][]*model.Location, 1)
	op := &GetAllRelationshipsOperation{
		Element: element,
		Callback: func(_ *model.Element, locations map[model.Relationship][]*model.Location) {
			result <- locations
		},
	}
	return await(ctx, ix, op, result)
}

// await enqueues a query and waits for the value its callback sends.
func await[T any](ctx context.Context, ix *Index, op Operation, result <-chan T) (T, error) {
	var zero T
	if !ix.enqueue(op) {
		return zero, domainerrors.New(domainerrors.CodeStopped, "index is stopped")
	}
	select {
	case v := <-result:
		return v, nil
	case <-ix.processor.Done():
		select {
		case v := <-result:
			return v, nil
		default:
			return zero, domainerrors.New(domainerrors.CodeStopped, "index stopped before the query ran")
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Flush waits until every operation enqueued before the call has run.
func (ix *Index) Flush(ctx context.Context) error {
	op := &BarrierOperation{Done: make(chan struct{})}
	if !ix.enqueue(op) {
		return domainerrors.New(domainerrors.CodeStopped, "index is stopped")
	}
	select {
	case <-op.Done:
		return nil
	case <-ix.processor.Done():
		select {
		case <-op.Done:
			return nil
		default:
			return domainerrors.New(domainerrors.CodeStopped, "index stopped before flush completed")
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Statistics reads the store counters; it may be called from any goroutine.
func (ix *Index) Statistics() store.Statistics {
	return ix.store.Statistics()
}

// GetStatistics returns a human readable summary of the index size.
func (ix *Index) GetStatistics() string {
	return ix.store.String()
}

// Pending returns the number of queued operations.
func (ix *Index) Pending() int {
	return ix.queue.Len()
}
