package model

import (
	"strconv"
	"strings"
)

type ElementKind int

const (
	KindUniverse ElementKind = iota
	KindLibrary
	KindUnit
	KindHTML
	KindClass
	KindConstructor
	KindMethod
	KindGetter
	KindSetter
	KindField
	KindFunction
	KindTopLevelVariable
	KindLocalVariable
	KindParameter
	KindTypeAlias
	KindTypeParameter
	KindPrefix
	KindImport
	KindExport
	KindName
)

var kindNames = [...]string{
	KindUniverse:         "universe",
	KindLibrary:          "library",
	KindUnit:             "unit",
	KindHTML:             "html",
	KindClass:            "class",
	KindConstructor:      "constructor",
	KindMethod:           "method",
	KindGetter:           "getter",
	KindSetter:           "setter",
	KindField:            "field",
	KindFunction:         "function",
	KindTopLevelVariable: "top-level-variable",
	KindLocalVariable:    "local-variable",
	KindParameter:        "parameter",
	KindTypeAlias:        "type-alias",
	KindTypeParameter:    "type-parameter",
	KindPrefix:           "prefix",
	KindImport:           "import",
	KindExport:           "export",
	KindName:             "name",
}

// key component prefixes
var kindCodes = [...]byte{
	KindUniverse:         '*',
	KindLibrary:          'L',
	KindUnit:             'U',
	KindHTML:             'H',
	KindClass:            'C',
	KindConstructor:      'K',
	KindMethod:           'M',
	KindGetter:           'G',
	KindSetter:           'S',
	KindField:            'F',
	KindFunction:         'f',
	KindTopLevelVariable: 'v',
	KindLocalVariable:    'l',
	KindParameter:        'p',
	KindTypeAlias:        'T',
	KindTypeParameter:    't',
	KindPrefix:           'P',
	KindImport:           'I',
	KindExport:           'E',
	KindName:             'N',
}

func (k ElementKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// IsClassMember reports whether elements of this kind live inside a class.
func (k ElementKind) IsClassMember() bool {
	switch k {
	case KindConstructor, KindMethod, KindGetter, KindSetter, KindField:
		return true
	}
	return false
}

// IsVariable reports whether reads and writes of the element are tracked.
func (k ElementKind) IsVariable() bool {
	switch k {
	case KindField, KindTopLevelVariable, KindLocalVariable, KindParameter:
		return true
	}
	return false
}

// IsLocal reports whether the element is only visible inside a body.
func (k ElementKind) IsLocal() bool {
	return k == KindLocalVariable || k == KindParameter || k == KindTypeParameter
}

// ElementKey is the structural identity of an element. Declared elements use
// their location key; name elements carry the bare name with Named set, so the
// two variants never collide.
type ElementKey struct {
	Named bool
	Path  string
}

func (k ElementKey) String() string {
	if k.Named {
		return "name:" + k.Path
	}
	return k.Path
}

// Element is an immutable, structurally identified program entity.
type Element struct {
	kind         ElementKind
	name         string
	nameOffset   int
	enclosing    *Element
	source       Source
	definingUnit *Element
	key          ElementKey
}

// Universe anchors top-level definitions so they remain queryable without
// knowing the declaring library.
var Universe = &Element{
	kind:       KindUniverse,
	name:       "<universe>",
	nameOffset: -1,
	key:        ElementKey{Path: "*"},
}

// NewLibrary creates a library element. When definingSource is non-zero a
// defining unit backed by that source is created with it.
func NewLibrary(name string, definingSource Source) *Element {
	id := name
	if !definingSource.IsZero() {
		id = definingSource.Path
	}
	lib := &Element{
		kind:       KindLibrary,
		name:       name,
		nameOffset: -1,
		key:        ElementKey{Path: component(KindLibrary, id)},
	}
	if !definingSource.IsZero() {
		lib.definingUnit = newUnit(lib, definingSource)
	}
	return lib
}

func newUnit(library *Element, source Source) *Element {
	e := &Element{
		kind:       KindUnit,
		name:       source.Path,
		nameOffset: -1,
		enclosing:  library,
		source:     source,
	}
	e.key = ElementKey{Path: childKey(library, component(KindUnit, source.Path))}
	return e
}

// NewHTMLElement creates the element representing an HTML file.
func NewHTMLElement(source Source) *Element {
	return &Element{
		kind:       KindHTML,
		name:       source.Path,
		nameOffset: -1,
		source:     source,
		key:        ElementKey{Path: component(KindHTML, source.Path)},
	}
}

// NewElement creates a declared element named name inside enclosing.
// Locals, parameters and type parameters include their name offset in the key
// so that shadowing declarations stay distinct.
func NewElement(kind ElementKind, name string, nameOffset int, enclosing *Element) *Element {
	e := &Element{
		kind:       kind,
		name:       name,
		nameOffset: nameOffset,
		enclosing:  enclosing,
	}
	part := component(kind, name)
	if kind.IsLocal() {
		part += "@" + strconv.Itoa(nameOffset)
	}
	e.key = ElementKey{Path: childKey(enclosing, part)}
	return e
}

// NewNameElement returns the synthetic element standing for every declaration
// named name. It is used when an access cannot be resolved statically.
func NewNameElement(name string) *Element {
	return &Element{
		kind:       KindName,
		name:       name,
		nameOffset: -1,
		key:        ElementKey{Named: true, Path: name},
	}
}

func component(kind ElementKind, name string) string {
	return string(kindCodes[kind]) + escapeComponent(name)
}

func childKey(parent *Element, part string) string {
	if parent == nil || parent.kind == KindUniverse {
		return part
	}
	return parent.key.Path + ";" + part
}

func escapeComponent(name string) string {
	if !strings.ContainsAny(name, ";\\") {
		return name
	}
	name = strings.ReplaceAll(name, `\`, `\\`)
	return strings.ReplaceAll(name, ";", `\;`)
}

func (e *Element) Kind() ElementKind {
	return e.kind
}

func (e *Element) Name() string {
	return e.name
}

// NameOffset is the byte offset of the declaring name token, or -1.
func (e *Element) NameOffset() int {
	return e.nameOffset
}

func (e *Element) Enclosing() *Element {
	return e.enclosing
}

func (e *Element) Key() ElementKey {
	return e.key
}

// Source returns the backing source of unit and HTML elements only; use
// SourceOf for arbitrary elements.
func (e *Element) Source() Source {
	return e.source
}

// DefiningUnit returns the defining unit of a library element.
func (e *Element) DefiningUnit() *Element {
	return e.definingUnit
}

// Library returns the nearest enclosing library, or nil.
func (e *Element) Library() *Element {
	for cur := e; cur != nil; cur = cur.enclosing {
		if cur.kind == KindLibrary {
			return cur
		}
	}
	return nil
}

// Unit returns the nearest enclosing unit or HTML element, or nil.
func (e *Element) Unit() *Element {
	for cur := e; cur != nil; cur = cur.enclosing {
		if cur.kind == KindUnit || cur.kind == KindHTML {
			return cur
		}
	}
	return nil
}

// Context returns the analysis context the element belongs to, if any.
func (e *Element) Context() ContextID {
	if src, ok := SourceOf(e); ok {
		return src.Context
	}
	return ""
}

// Equal compares two elements structurally.
func (e *Element) Equal(other *Element) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.key == other.key
}

func (e *Element) String() string {
	if e == nil {
		return "<nil>"
	}
	return e.kind.String() + " " + e.key.String()
}
