// Package store holds the reverse relationship index. A MemoryStore is not
// safe for concurrent mutation: it is owned by exactly one goroutine (the index
// processor). Only the counters may be read from elsewhere.
package store

import (
	"fmt"
	"sync/atomic"

	"crossref/internal/engine/model"
)

// Statistics is a snapshot of the cached store counters.
type Statistics struct {
	Elements      int
	Relationships int
	Locations     int
	Sources       int
}

func (s Statistics) String() string {
	return fmt.Sprintf("%d elements, %d relationships, %d locations, %d sources",
		s.Elements, s.Relationships, s.Locations, s.Sources)
}

type locationSet struct {
	element      *elementEntry
	relationship model.Relationship
	list         LocationList
	members      map[*model.Location]*ContributedLocation
}

type elementEntry struct {
	element       *model.Element
	relationships map[model.Relationship]*locationSet
}

type sourceEntry struct {
	declared *LocationList
	located  *LocationList
}

func (e *sourceEntry) empty() bool {
	return e.declared.Len() == 0 && e.located.Len() == 0
}

type MemoryStore struct {
	elements        map[model.ElementKey]*elementEntry
	sources         map[model.Source]*sourceEntry
	contexts        map[model.ContextID]map[model.Source]struct{}
	removedContexts map[model.ContextID]struct{}

	elementCount      atomic.Int64
	relationshipCount atomic.Int64
	locationCount     atomic.Int64
	sourceCount       atomic.Int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		elements:        make(map[model.ElementKey]*elementEntry),
		sources:         make(map[model.Source]*sourceEntry),
		contexts:        make(map[model.ContextID]map[model.Source]struct{}),
		removedContexts: make(map[model.ContextID]struct{}),
	}
}

// RecordRelationship records that element participates in relationship at
// location. Nil arguments and elements of removed contexts are ignored.
func (s *MemoryStore) RecordRelationship(element *model.Element, relationship model.Relationship, location *model.Location) {
	if element == nil || location == nil || location.Element == nil {
		return
	}
	declSource, hasDecl := model.SourceOf(element)
	locSource, hasLoc := model.SourceOf(location.Element)
	if hasDecl && s.ContextRemoved(declSource.Context) {
		return
	}
	if hasLoc && s.ContextRemoved(locSource.Context) {
		return
	}

	entry := s.elements[element.Key()]
	if entry == nil {
		entry = &elementEntry{
			element:       element,
			relationships: make(map[model.Relationship]*locationSet),
		}
		s.elements[element.Key()] = entry
		s.elementCount.Add(1)
	}
	set := entry.relationships[relationship]
	if set == nil {
		set = &locationSet{
			element:      entry,
			relationship: relationship,
			members:      make(map[*model.Location]*ContributedLocation),
		}
		entry.relationships[relationship] = set
		s.relationshipCount.Add(1)
	}
	if _, ok := set.members[location]; ok {
		return
	}

	var declOwner, locOwner *LocationList
	if hasDecl {
		declOwner = s.sourceEntry(declSource).declared
	}
	if hasLoc {
		locOwner = s.sourceEntry(locSource).located
	}
	cl := NewContributedLocation(location, declOwner, locOwner)
	cl.element = element.Key()
	cl.set = set
	set.list.pushBack(&cl.entry, cl)
	set.members[location] = cl
	s.locationCount.Add(1)
}

// Relationships returns the live locations recorded for element and
// relationship in insertion order. A miss yields an empty slice.
func (s *MemoryStore) Relationships(element *model.Element, relationship model.Relationship) []*model.Location {
	if element == nil {
		return []*model.Location{}
	}
	entry := s.elements[element.Key()]
	if entry == nil {
		return []*model.Location{}
	}
	set := entry.relationships[relationship]
	if set == nil {
		return []*model.Location{}
	}
	out := make([]*model.Location, 0, set.list.Len())
	set.list.Each(func(cl *ContributedLocation) bool {
		out = append(out, cl.location)
		return true
	})
	return out
}

// RelationshipsOf returns every relationship recorded for element.
func (s *MemoryStore) RelationshipsOf(element *model.Element) []model.Relationship {
	if element == nil {
		return nil
	}
	entry := s.elements[element.Key()]
	if entry == nil {
		return nil
	}
	out := make([]model.Relationship, 0, len(entry.relationships))
	for rel := range entry.relationships {
		out = append(out, rel)
	}
	return out
}

// RemoveSource retracts everything source contributed. Reference sites in
// source are evicted; locations merely declared in source are released from
// their declaration owner and stay queryable while their referencing source
// still holds them.
func (s *MemoryStore) RemoveSource(source model.Source) {
	entry := s.sources[source]
	if entry == nil {
		return
	}
	s.releaseLocated(entry)
	for cl := entry.declared.Front(); cl != nil; cl = entry.declared.Front() {
		cl.RemoveFromDeclarationOwner()
		if !cl.Owned() {
			s.evict(cl)
		}
	}
	s.dropSourceIfEmpty(source)
}

// RemoveLocations evicts only the reference sites contained in source. It is
// used before a source is re-indexed: declarations elsewhere that point at
// source are left untouched.
func (s *MemoryStore) RemoveLocations(source model.Source) {
	entry := s.sources[source]
	if entry == nil {
		return
	}
	s.releaseLocated(entry)
	s.dropSourceIfEmpty(source)
}

func (s *MemoryStore) releaseLocated(entry *sourceEntry) {
	for cl := entry.located.Front(); cl != nil; cl = entry.located.Front() {
		cl.RemoveFromLocationOwner()
		s.evict(cl)
	}
}

// RemoveSources removes every source of context selected by container.
func (s *MemoryStore) RemoveSources(context model.ContextID, container model.SourceContainer) {
	if container == nil {
		return
	}
	for _, source := range s.contextSources(context) {
		if container.Contains(source) {
			s.RemoveSource(source)
		}
	}
}

// RemoveContext removes every source of context and ignores any later
// recording for it.
func (s *MemoryStore) RemoveContext(context model.ContextID) {
	if context == "" {
		return
	}
	for _, source := range s.contextSources(context) {
		s.RemoveSource(source)
	}
	s.removedContexts[context] = struct{}{}
}

// ContextRemoved reports whether context was dropped with RemoveContext.
func (s *MemoryStore) ContextRemoved(context model.ContextID) bool {
	if context == "" {
		return false
	}
	_, ok := s.removedContexts[context]
	return ok
}

func (s *MemoryStore) contextSources(context model.ContextID) []model.Source {
	set := s.contexts[context]
	out := make([]model.Source, 0, len(set))
	for source := range set {
		out = append(out, source)
	}
	return out
}

// Clear drops every mapping, including the record of removed contexts.
func (s *MemoryStore) Clear() {
	s.elements = make(map[model.ElementKey]*elementEntry)
	s.sources = make(map[model.Source]*sourceEntry)
	s.contexts = make(map[model.ContextID]map[model.Source]struct{})
	s.removedContexts = make(map[model.ContextID]struct{})
	s.elementCount.Store(0)
	s.relationshipCount.Store(0)
	s.locationCount.Store(0)
	s.sourceCount.Store(0)
}

// evict takes cl out of its relationship set and both owner lists, pruning
// entries that became empty.
func (s *MemoryStore) evict(cl *ContributedLocation) {
	if decl := cl.declaration.list; decl != nil {
		cl.RemoveFromDeclarationOwner()
		s.dropSourceIfEmpty(decl.source)
	}
	if loc := cl.located.list; loc != nil {
		cl.RemoveFromLocationOwner()
		s.dropSourceIfEmpty(loc.source)
	}
	if !cl.entry.unlink() {
		return
	}
	s.locationCount.Add(-1)
	set := cl.set
	delete(set.members, cl.location)
	if set.list.Len() > 0 {
		return
	}
	entry := set.element
	delete(entry.relationships, set.relationship)
	s.relationshipCount.Add(-1)
	if len(entry.relationships) > 0 {
		return
	}
	if s.elements[cl.element] == entry {
		delete(s.elements, cl.element)
		s.elementCount.Add(-1)
	}
}

func (s *MemoryStore) sourceEntry(source model.Source) *sourceEntry {
	entry := s.sources[source]
	if entry != nil {
		return entry
	}
	entry = &sourceEntry{
		declared: newLocationList(source),
		located:  newLocationList(source),
	}
	s.sources[source] = entry
	s.sourceCount.Add(1)
	set := s.contexts[source.Context]
	if set == nil {
		set = make(map[model.Source]struct{})
		s.contexts[source.Context] = set
	}
	set[source] = struct{}{}
	return entry
}

func (s *MemoryStore) dropSourceIfEmpty(source model.Source) {
	entry := s.sources[source]
	if entry == nil || !entry.empty() {
		return
	}
	delete(s.sources, source)
	s.sourceCount.Add(-1)
	if set := s.contexts[source.Context]; set != nil {
		delete(set, source)
		if len(set) == 0 {
			delete(s.contexts, source.Context)
		}
	}
}

func (s *MemoryStore) ElementCount() int {
	return int(s.elementCount.Load())
}

func (s *MemoryStore) RelationshipCount() int {
	return int(s.relationshipCount.Load())
}

func (s *MemoryStore) LocationCount() int {
	return int(s.locationCount.Load())
}

func (s *MemoryStore) SourceCount() int {
	return int(s.sourceCount.Load())
}

// Statistics may be called from any goroutine.
func (s *MemoryStore) Statistics() Statistics {
	return Statistics{
		Elements:      s.ElementCount(),
		Relationships: s.RelationshipCount(),
		Locations:     s.LocationCount(),
		Sources:       s.SourceCount(),
	}
}

func (s *MemoryStore) String() string {
	return s.Statistics().String()
}
