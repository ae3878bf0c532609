package index

import (
	"crossref/internal/engine/ast"
	"crossref/internal/engine/extract"
	"crossref/internal/engine/model"
	"crossref/internal/engine/store"
)

type OperationKind string

const (
	KindIndexUnit        OperationKind = "index-unit"
	KindIndexHTMLUnit    OperationKind = "index-html-unit"
	KindRemoveSource     OperationKind = "remove-source"
	KindRemoveSources    OperationKind = "remove-sources"
	KindRemoveContext    OperationKind = "remove-context"
	KindGetRelationships OperationKind = "get-relationships"
	KindGetAll           OperationKind = "get-all-relationships"
	KindClear            OperationKind = "clear"
	KindBarrier          OperationKind = "barrier"
)

// Operation is one queued unit of work. Operations run only on the processor
// goroutine, which owns the store.
type Operation interface {
	Kind() OperationKind
	perform(w *worker)
}

// worker is the state reachable from a running operation.
type worker struct {
	store     *store.MemoryStore
	extractor *extract.Extractor
}

// sourced is implemented by operations that contribute facts for one source.
type sourced interface {
	source() model.Source
}

// observer is implemented by operations whose outcome depends on the effect
// of every operation queued before them.
type observer interface {
	observes()
}

// IndexUnitOperation retracts the previous reference sites of a unit's source
// and records the unit's facts.
type IndexUnitOperation struct {
	Unit   *ast.CompilationUnit
	Source model.Source
}

func (o *IndexUnitOperation) Kind() OperationKind { return KindIndexUnit }

func (o *IndexUnitOperation) source() model.Source { return o.Source }

func (o *IndexUnitOperation) perform(w *worker) {
	w.store.RemoveLocations(o.Source)
	if w.store.ContextRemoved(o.Source.Context) {
		return
	}
	w.extractor.IndexUnit(o.Unit)
}

type IndexHTMLUnitOperation struct {
	Unit   *ast.HTMLUnit
	Source model.Source
}

func (o *IndexHTMLUnitOperation) Kind() OperationKind { return KindIndexHTMLUnit }

func (o *IndexHTMLUnitOperation) source() model.Source { return o.Source }

func (o *IndexHTMLUnitOperation) perform(w *worker) {
	w.store.RemoveLocations(o.Source)
	if w.store.ContextRemoved(o.Source.Context) {
		return
	}
	w.extractor.IndexHTMLUnit(o.Unit)
}

type RemoveSourceOperation struct {
	Source model.Source
}

func (o *RemoveSourceOperation) Kind() OperationKind { return KindRemoveSource }

func (o *RemoveSourceOperation) perform(w *worker) {
	w.store.RemoveSource(o.Source)
}

type RemoveSourcesOperation struct {
	Context   model.ContextID
	Container model.SourceContainer
}

func (o *RemoveSourcesOperation) Kind() OperationKind { return KindRemoveSources }

func (o *RemoveSourcesOperation) perform(w *worker) {
	w.store.RemoveSources(o.Context, o.Container)
}

type RemoveContextOperation struct {
	Context model.ContextID
}

func (o *RemoveContextOperation) Kind() OperationKind { return KindRemoveContext }

func (o *RemoveContextOperation) perform(w *worker) {
	w.store.RemoveContext(o.Context)
}

// RelationshipsCallback receives the result of a query on the processor
// goroutine. It must not block on the index.
type RelationshipsCallback func(element *model.Element, relationship model.Relationship, locations []*model.Location)

type GetRelationshipsOperation struct {
	Element      *model.Element
	Relationship model.Relationship
	Callback     RelationshipsCallback
}

func (o *GetRelationshipsOperation) Kind() OperationKind { return KindGetRelationships }

func (o *GetRelationshipsOperation) observes() {}

func (o *GetRelationshipsOperation) perform(w *worker) {
	o.Callback(o.Element, o.Relationship, w.store.Relationships(o.Element, o.Relationship))
}

// AllRelationshipsCallback receives every relationship recorded for element
// with its locations. Relationships without live locations are omitted.
type AllRelationshipsCallback func(element *model.Element, locations map[model.Relationship][]*model.Location)

type GetAllRelationshipsOperation struct {
	Element  *model.Element
	Callback AllRelationshipsCallback
}

func (o *GetAllRelationshipsOperation) Kind() OperationKind { return KindGetAll }

func (o *GetAllRelationshipsOperation) observes() {}

func (o *GetAllRelationshipsOperation) perform(w *worker) {
	out := make(map[model.Relationship][]*model.Location)
	for _, rel := range w.store.RelationshipsOf(o.Element) {
		if locations := w.store.Relationships(o.Element, rel); len(locations) > 0 {
			out[rel] = locations
		}
	}
	o.Callback(o.Element, out)
}

type ClearOperation struct{}

func (o *ClearOperation) Kind() OperationKind { return KindClear }

func (o *ClearOperation) perform(w *worker) {
	w.store.Clear()
}

// BarrierOperation closes Done once every earlier operation has run.
type BarrierOperation struct {
	Done chan struct{}
}

func (o *BarrierOperation) Kind() OperationKind { return KindBarrier }

func (o *BarrierOperation) observes() {}

func (o *BarrierOperation) perform(*worker) {
	close(o.Done)
}

// supersededBy reports whether pending op is made redundant by a removal of
// source enqueued after it.
func supersededBy(source model.Source) func(Operation) bool {
	return func(op Operation) bool {
		s, ok := op.(sourced)
		return ok && s.source() == source
	}
}

func isObserver(op Operation) bool {
	_, ok := op.(observer)
	return ok
}
