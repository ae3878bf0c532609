package store

import "crossref/internal/engine/model"

// link is an intrusive list node. A ContributedLocation embeds one link per
// collection it belongs to, so membership is a handle rather than a search.
type link struct {
	prev, next *link
	list       *LocationList
	owner      *ContributedLocation
}

// unlink detaches the node from its list in O(1). It reports whether the node
// was attached; detaching twice is a no-op.
func (n *link) unlink() bool {
	if n.list == nil {
		return false
	}
	n.prev.next = n.next
	n.next.prev = n.prev
	n.list.len--
	n.prev, n.next, n.list = nil, nil, nil
	return true
}

// LocationList is a doubly linked list of contributed locations supporting
// O(1) removal by identity. The zero value is an empty list.
type LocationList struct {
	root   link
	len    int
	source model.Source
}

func newLocationList(source model.Source) *LocationList {
	l := &LocationList{source: source}
	l.root.next = &l.root
	l.root.prev = &l.root
	return l
}

func (l *LocationList) lazyInit() {
	if l.root.next == nil {
		l.root.next = &l.root
		l.root.prev = &l.root
	}
}

// Source is the source owning the list; zero for relationship sets.
func (l *LocationList) Source() model.Source {
	return l.source
}

func (l *LocationList) Len() int {
	if l == nil {
		return 0
	}
	return l.len
}

func (l *LocationList) pushBack(n *link, owner *ContributedLocation) {
	l.lazyInit()
	if n.list != nil {
		n.unlink()
	}
	n.owner = owner
	n.list = l
	n.prev = l.root.prev
	n.next = &l.root
	l.root.prev.next = n
	l.root.prev = n
	l.len++
}

// Front returns the first contributed location, or nil when empty.
func (l *LocationList) Front() *ContributedLocation {
	if l == nil || l.len == 0 {
		return nil
	}
	return l.root.next.owner
}

// Each calls fn for every element in insertion order until fn returns false.
// fn must not remove elements other than the one it was handed.
func (l *LocationList) Each(fn func(*ContributedLocation) bool) {
	if l == nil || l.len == 0 {
		return
	}
	for n := l.root.next; n != &l.root; {
		next := n.next
		if !fn(n.owner) {
			return
		}
		n = next
	}
}

// ContributedLocation is a Location that is simultaneously a member of the
// relationship set it answers queries from, of the owner list of the source
// that declares the subject element, and of the owner list of the source that
// contains the reference site.
type ContributedLocation struct {
	location    *model.Location
	element     model.ElementKey
	set         *locationSet
	entry       link
	declaration link
	located     link
}

// NewContributedLocation wraps location and attaches it to the given owner
// lists. Either list may be nil when that side has no source.
func NewContributedLocation(location *model.Location, declarationOwner, locationOwner *LocationList) *ContributedLocation {
	cl := &ContributedLocation{location: location}
	if declarationOwner != nil {
		declarationOwner.pushBack(&cl.declaration, cl)
	}
	if locationOwner != nil {
		locationOwner.pushBack(&cl.located, cl)
	}
	return cl
}

func (c *ContributedLocation) Location() *model.Location {
	return c.location
}

// DeclarationOwner returns the owner list of the declaring source, or nil.
func (c *ContributedLocation) DeclarationOwner() *LocationList {
	return c.declaration.list
}

// LocationOwner returns the owner list of the referencing source, or nil.
func (c *ContributedLocation) LocationOwner() *LocationList {
	return c.located.list
}

// RemoveFromDeclarationOwner releases the declaration-side membership.
func (c *ContributedLocation) RemoveFromDeclarationOwner() bool {
	return c.declaration.unlink()
}

// RemoveFromLocationOwner releases the location-side membership.
func (c *ContributedLocation) RemoveFromLocationOwner() bool {
	return c.located.unlink()
}

// Owned reports whether either owner still holds the location.
func (c *ContributedLocation) Owned() bool {
	return c.declaration.list != nil || c.located.list != nil
}
