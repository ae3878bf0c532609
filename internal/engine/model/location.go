package model

import "fmt"

// StaticType is the payload recorded at read and write sites when the type of
// the value is known.
type StaticType string

// Location is a source span attributed to the element that contains it.
// Locations are compared by identity, never by value.
type Location struct {
	Element *Element
	Offset  int
	Length  int
	Data    any
}

func NewLocation(element *Element, offset, length int) *Location {
	return &Location{Element: element, Offset: offset, Length: length}
}

// WithData returns a copy of l carrying data.
func (l *Location) WithData(data any) *Location {
	cp := *l
	cp.Data = data
	return &cp
}

func (l *Location) End() int {
	return l.Offset + l.Length
}

func (l *Location) String() string {
	if l == nil {
		return "<nil>"
	}
	s := fmt.Sprintf("%s@%d+%d", l.Element, l.Offset, l.Length)
	if l.Data != nil {
		s += fmt.Sprintf(" [%v]", l.Data)
	}
	return s
}
