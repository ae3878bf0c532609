package frontend

import "crossref/internal/engine/model"

// binding is a value name visible in a lexical scope.
type binding struct {
	element *model.Element
	typ     string
}

// scope is one level of lexical nesting: a class body, a method, a block.
type scope struct {
	parent *scope
	values map[string]binding
	types  map[string]*model.Element
}

func (s *scope) push() *scope {
	return &scope{parent: s}
}

func (s *scope) bind(name string, b binding) {
	if s.values == nil {
		s.values = make(map[string]binding)
	}
	s.values[name] = b
}

func (s *scope) bindType(name string, e *model.Element) {
	if s.types == nil {
		s.types = make(map[string]*model.Element)
	}
	s.types[name] = e
}

func (s *scope) lookup(name string) (binding, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.values[name]; ok {
			return b, true
		}
	}
	return binding{}, false
}

// lookupType finds a type parameter in scope.
func (s *scope) lookupType(name string) (*model.Element, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if e, ok := cur.types[name]; ok {
			return e, true
		}
	}
	return nil, false
}
