// Package extract walks resolved syntax trees and reports relationship facts.
package extract

import (
	"log/slog"

	"crossref/internal/engine/ast"
	"crossref/internal/engine/model"
)

// Recorder receives every fact as soon as it is found.
type Recorder interface {
	RecordRelationship(element *model.Element, relationship model.Relationship, location *model.Location)
}

type access int

const (
	accessRead access = iota
	accessWrite
	accessReadWrite
	accessNone
)

// Extractor performs one top-down pass over a unit. It keeps per-unit state and
// must not be shared between goroutines.
type Extractor struct {
	recorder Recorder

	unitElement *model.Element
	library     *model.Element
	stack       []*model.Element
	imports     []*ast.ImportDirective
	comments    map[ast.Span]struct{}
	recorded    int
}

func New(recorder Recorder) *Extractor {
	return &Extractor{recorder: recorder}
}

// IndexUnit records every relationship found in unit. Units without an
// element are ignored.
func (x *Extractor) IndexUnit(unit *ast.CompilationUnit) {
	if unit == nil || unit.Element == nil || x.recorder == nil {
		return
	}
	x.reset()
	x.visitUnit(unit)
	slog.Debug("extracted relationships", "unit", unit.Element.Key().String(), "facts", x.recorded)
}

func (x *Extractor) reset() {
	x.unitElement = nil
	x.library = nil
	x.stack = x.stack[:0]
	x.imports = nil
	x.comments = make(map[ast.Span]struct{})
	x.recorded = 0
}

func (x *Extractor) visitUnit(unit *ast.CompilationUnit) {
	x.unitElement = unit.Element
	x.library = unit.Library()
	x.imports = nil
	x.enter(unit.Element)
	defer x.exit()

	for _, d := range unit.Directives {
		if imp, ok := d.(*ast.ImportDirective); ok && imp != nil && imp.Library != nil {
			x.imports = append(x.imports, imp)
		}
	}
	for _, d := range unit.Directives {
		x.visitDirective(d)
	}
	for _, d := range unit.Declarations {
		x.visitDeclaration(d)
	}
}

func (x *Extractor) enter(e *model.Element) {
	x.stack = append(x.stack, e)
}

func (x *Extractor) exit() {
	if len(x.stack) > 0 {
		x.stack = x.stack[:len(x.stack)-1]
	}
}

// peekElement returns the innermost enclosing element, or the universe at
// top level.
func (x *Extractor) peekElement() *model.Element {
	for i := len(x.stack) - 1; i >= 0; i-- {
		if x.stack[i] != nil {
			return x.stack[i]
		}
	}
	return model.Universe
}

func (x *Extractor) record(e *model.Element, rel model.Relationship, loc *model.Location) {
	if e == nil || loc == nil {
		return
	}
	x.recorder.RecordRelationship(e, rel, loc)
	x.recorded++
}

func (x *Extractor) locationAt(offset, length int) *model.Location {
	return model.NewLocation(x.peekElement(), offset, length)
}

func (x *Extractor) locationOf(n ast.Node) *model.Location {
	return x.locationAt(n.Offset(), n.End()-n.Offset())
}

func withType(loc *model.Location, staticType string) *model.Location {
	if staticType != "" {
		loc.Data = model.StaticType(staticType)
	}
	return loc
}

func (x *Extractor) visitDirective(d ast.Directive) {
	if ast.IsNil(d) {
		return
	}
	switch d := d.(type) {
	case *ast.LibraryDirective:
		x.visitComment(d.Comment)
	case *ast.ImportDirective:
		x.visitComment(d.Comment)
		x.record(definingUnitOf(d.Library), model.IsReferencedBy, x.locationAt(d.URI.Off, d.URI.Len))
	case *ast.ExportDirective:
		x.visitComment(d.Comment)
		x.record(definingUnitOf(d.Library), model.IsReferencedBy, x.locationAt(d.URI.Off, d.URI.Len))
	case *ast.PartDirective:
		x.record(d.Unit, model.IsReferencedBy, x.locationAt(d.URI.Off, d.URI.Len))
	case *ast.PartOfDirective:
		if d.LibraryName != nil {
			x.record(d.Library, model.IsReferencedBy, x.locationOf(d.LibraryName))
		}
	}
}

func definingUnitOf(lib *model.Element) *model.Element {
	if lib == nil {
		return nil
	}
	if u := lib.DefiningUnit(); u != nil {
		return u
	}
	return lib
}

func (x *Extractor) visitDeclaration(d ast.Declaration) {
	if ast.IsNil(d) {
		return
	}
	switch d := d.(type) {
	case *ast.ClassDeclaration:
		x.visitClass(d)
	case *ast.ClassTypeAlias:
		x.visitComment(d.Comment)
		elem := elementOf(d.Name)
		x.recordDefines(elem, model.DefinesClassAlias, d.Name)
		x.enter(elem)
		x.visitSuperType(d.Superclass, model.IsExtendedBy)
		x.visitSuperTypes(d.With, model.IsMixedInBy)
		x.visitSuperTypes(d.Implements, model.IsImplementedBy)
		x.exit()
	case *ast.FunctionTypeAlias:
		x.visitComment(d.Comment)
		elem := elementOf(d.Name)
		x.recordDefines(elem, model.DefinesFunctionType, d.Name)
		x.enter(elem)
		x.visitTypeName(d.ReturnType)
		x.visitParameters(d.Parameters)
		x.exit()
	case *ast.FunctionDeclaration:
		x.visitComment(d.Comment)
		x.recordDefines(elementOf(d.Name), model.DefinesFunction, d.Name)
		x.recordNameDefinition(d.Name)
		x.visitFunctionBody(d)
	case *ast.TopLevelVariableDeclaration:
		x.visitComment(d.Comment)
		if d.Variables == nil {
			return
		}
		x.visitTypeName(d.Variables.Type)
		for _, v := range d.Variables.Variables {
			if v == nil {
				continue
			}
			x.visitComment(v.Comment)
			x.recordDefines(elementOf(v.Name), model.DefinesVariable, v.Name)
			x.recordNameDefinition(v.Name)
			x.visitInitializer(v)
		}
	}
}

func elementOf(id *ast.Identifier) *model.Element {
	if id == nil {
		return nil
	}
	return id.Element
}

// recordDefines anchors a top-level declaration to its library (or unit when
// the unit has no library) and to the universe, sharing one location.
func (x *Extractor) recordDefines(elem *model.Element, rel model.Relationship, name *ast.Identifier) {
	if elem == nil || name == nil {
		return
	}
	loc := model.NewLocation(elem, name.Off, name.Len)
	definer := x.library
	if definer == nil {
		definer = x.unitElement
	}
	x.record(definer, rel, loc)
	x.record(model.Universe, rel, loc)
}

// recordNameDefinition links a declaration to the name element of its
// textual name so unresolved accesses can find it.
func (x *Extractor) recordNameDefinition(name *ast.Identifier) {
	if name == nil || name.Name == "" {
		return
	}
	elem := name.Element
	if elem == nil {
		elem = x.peekElement()
	}
	x.record(model.NewNameElement(name.Name), model.IsDefinedBy, model.NewLocation(elem, name.Off, name.Len))
}

func (x *Extractor) visitClass(d *ast.ClassDeclaration) {
	x.visitComment(d.Comment)
	elem := elementOf(d.Name)
	x.recordDefines(elem, model.DefinesClass, d.Name)
	x.enter(elem)
	defer x.exit()

	for _, p := range d.TypeParameters {
		if p != nil {
			x.visitTypeName(p.Bound)
		}
	}
	x.visitSuperType(d.Extends, model.IsExtendedBy)
	x.visitSuperTypes(d.With, model.IsMixedInBy)
	x.visitSuperTypes(d.Implements, model.IsImplementedBy)
	for _, m := range d.Members {
		x.visitMember(m)
	}
}

func (x *Extractor) visitSuperTypes(types []*ast.TypeName, rel model.Relationship) {
	for _, t := range types {
		x.visitSuperType(t, rel)
	}
}

// visitSuperType records rel and is-referenced-by at the same location.
func (x *Extractor) visitSuperType(t *ast.TypeName, rel model.Relationship) {
	if t == nil {
		return
	}
	elem := elementOf(t.Name)
	if elem == nil {
		x.visitTypeName(t)
		return
	}
	x.visitPrefix(t.Prefix, t.Name)
	loc := x.locationOf(t.Name)
	x.record(elem, rel, loc)
	x.record(elem, model.IsReferencedBy, loc)
	x.recordImportUse(importPrefix(t.Prefix), t.Name)
	for _, a := range t.TypeArguments {
		x.visitTypeName(a)
	}
}

func (x *Extractor) visitTypeName(t *ast.TypeName) {
	if t == nil {
		return
	}
	x.visitPrefix(t.Prefix, t.Name)
	if t.Name != nil {
		x.visitName(importPrefix(t.Prefix), t.Name, false, false, accessNone, "")
	}
	for _, a := range t.TypeArguments {
		x.visitTypeName(a)
	}
}

func (x *Extractor) visitMember(m ast.ClassMember) {
	if ast.IsNil(m) {
		return
	}
	switch m := m.(type) {
	case *ast.FieldDeclaration:
		x.visitComment(m.Comment)
		if m.Variables == nil {
			return
		}
		x.visitTypeName(m.Variables.Type)
		for _, v := range m.Variables.Variables {
			if v == nil {
				continue
			}
			x.visitComment(v.Comment)
			x.recordNameDefinition(v.Name)
			x.visitInitializer(v)
		}
	case *ast.MethodDeclaration:
		x.visitComment(m.Comment)
		x.recordNameDefinition(m.Name)
		x.enter(elementOf(m.Name))
		x.visitTypeName(m.ReturnType)
		x.visitParameters(m.Parameters)
		x.visitStatement(m.Body)
		x.exit()
	case *ast.ConstructorDeclaration:
		x.visitConstructor(m)
	case *ast.ClassDeclaration:
		x.visitClass(m)
	}
}

func (x *Extractor) visitConstructor(c *ast.ConstructorDeclaration) {
	x.visitComment(c.Comment)
	if c.Element != nil {
		var loc *model.Location
		switch {
		case c.Name != nil:
			loc = model.NewLocation(c.Element, c.Period, c.Name.End()-c.Period)
		case c.ReturnType != nil:
			loc = model.NewLocation(c.Element, c.ReturnType.End(), 0)
		default:
			loc = model.NewLocation(c.Element, c.Off, 0)
		}
		x.record(c.Element, model.IsDefinedBy, loc)
	}
	if c.Name != nil {
		x.recordNameDefinition(&ast.Identifier{Span: c.Name.Span, Name: c.Name.Name, Element: c.Element})
	}
	x.enter(c.Element)
	defer x.exit()
	x.visitParameters(c.Parameters)
	for _, e := range c.Initializers {
		x.visitExpression(e, accessRead, "")
	}
	x.visitStatement(c.Body)
}

func (x *Extractor) visitFunctionBody(f *ast.FunctionDeclaration) {
	x.enter(elementOf(f.Name))
	defer x.exit()
	x.visitTypeName(f.ReturnType)
	x.visitParameters(f.Parameters)
	x.visitStatement(f.Body)
}

func (x *Extractor) visitParameters(params []*ast.Parameter) {
	for _, p := range params {
		if p == nil {
			continue
		}
		x.visitTypeName(p.Type)
		x.visitExpression(p.Default, accessRead, "")
	}
}

// visitInitializer visits a variable initializer inside the scope of the
// variable it initializes.
func (x *Extractor) visitInitializer(v *ast.VariableDeclaration) {
	if ast.IsNil(v.Initializer) {
		return
	}
	x.enter(elementOf(v.Name))
	x.visitExpression(v.Initializer, accessRead, "")
	x.exit()
}

func (x *Extractor) visitStatement(s ast.Statement) {
	if ast.IsNil(s) {
		return
	}
	switch s := s.(type) {
	case *ast.Block:
		for _, st := range s.Statements {
			x.visitStatement(st)
		}
	case *ast.ExpressionStatement:
		x.visitExpression(s.Expression, accessRead, "")
	case *ast.VariableDeclarationStatement:
		if s.Variables == nil {
			return
		}
		x.visitTypeName(s.Variables.Type)
		for _, v := range s.Variables.Variables {
			if v != nil {
				x.visitExpression(v.Initializer, accessRead, "")
			}
		}
	case *ast.ReturnStatement:
		x.visitExpression(s.Expression, accessRead, "")
	case *ast.IfStatement:
		x.visitExpression(s.Condition, accessRead, "")
		x.visitStatement(s.Then)
		x.visitStatement(s.Else)
	case *ast.WhileStatement:
		x.visitExpression(s.Condition, accessRead, "")
		x.visitStatement(s.Body)
	case *ast.FunctionDeclarationStatement:
		if s.Function != nil {
			x.visitComment(s.Function.Comment)
			x.visitFunctionBody(s.Function)
		}
	case *ast.Opaque:
		x.visitOpaque(s)
	}
}

// visitExpression visits expr. mode and staticType describe how the value of
// expr is used when expr names a variable.
func (x *Extractor) visitExpression(expr ast.Expression, mode access, staticType string) {
	if ast.IsNil(expr) {
		return
	}
	switch e := expr.(type) {
	case *ast.Identifier:
		x.visitName(nil, e, false, false, mode, staticType)
	case *ast.PrefixedIdentifier:
		if isImportPrefix(e.Prefix) {
			x.visitName(e.Prefix, e.Name, false, false, mode, staticType)
			return
		}
		x.visitName(nil, e.Prefix, false, false, accessRead, "")
		x.visitName(nil, e.Name, true, false, mode, staticType)
	case *ast.PropertyAccess:
		x.visitExpression(e.Target, accessRead, "")
		x.visitName(nil, e.Name, true, false, mode, staticType)
	case *ast.MethodInvocation:
		x.visitInvocation(e)
	case *ast.InstanceCreation:
		x.visitInstanceCreation(e)
	case *ast.AssignmentExpression:
		x.visitExpression(e.Right, accessRead, "")
		target := accessWrite
		if e.IsCompound() {
			target = accessReadWrite
		}
		x.visitExpression(e.Left, target, ast.StaticTypeOf(e.Right))
	case *ast.PrefixExpression:
		if ast.IsIncrement(e.Operator) {
			x.visitExpression(e.Operand, accessReadWrite, ast.StaticTypeOf(e.Operand))
			return
		}
		x.visitExpression(e.Operand, accessRead, "")
	case *ast.PostfixExpression:
		if ast.IsIncrement(e.Operator) {
			x.visitExpression(e.Operand, accessReadWrite, ast.StaticTypeOf(e.Operand))
			return
		}
		x.visitExpression(e.Operand, accessRead, "")
	case *ast.BinaryExpression:
		x.visitExpression(e.Left, accessRead, "")
		x.visitExpression(e.Right, accessRead, "")
	case *ast.TypeName:
		x.visitTypeName(e)
	case *ast.Opaque:
		x.visitOpaque(e)
	}
}

func (x *Extractor) visitInvocation(m *ast.MethodInvocation) {
	target := m.Target
	if pi, ok := target.(*ast.Identifier); ok && isImportPrefix(pi) {
		x.visitName(pi, m.Name, false, true, accessNone, "")
	} else {
		x.visitExpression(target, accessRead, "")
		x.visitName(nil, m.Name, !ast.IsNil(target), true, accessNone, "")
	}
	for _, a := range m.Arguments {
		x.visitExpression(a, accessRead, "")
	}
}

func (x *Extractor) visitInstanceCreation(c *ast.InstanceCreation) {
	x.visitTypeName(c.Type)
	if c.Element != nil {
		var loc *model.Location
		switch {
		case c.ConstructorName != nil:
			loc = x.locationAt(c.Period, c.ConstructorName.End()-c.Period)
		case c.Type != nil:
			loc = x.locationAt(c.Type.End(), 0)
		default:
			loc = x.locationAt(c.Off, 0)
		}
		x.record(c.Element, model.IsReferencedBy, loc)
	}
	for _, a := range c.Arguments {
		x.visitExpression(a, accessRead, "")
	}
}

func (x *Extractor) visitOpaque(o *ast.Opaque) {
	for _, c := range o.Children {
		switch c := c.(type) {
		case ast.Expression:
			x.visitExpression(c, accessRead, "")
		case ast.Statement:
			x.visitStatement(c)
		case ast.ClassMember:
			x.visitMember(c)
		case ast.Declaration:
			x.visitDeclaration(c)
		case *ast.Comment:
			x.visitComment(c)
		}
	}
}

func isImportPrefix(id *ast.Identifier) bool {
	return id != nil && id.Element != nil && id.Element.Kind() == model.KindPrefix
}

func importPrefix(id *ast.Identifier) *ast.Identifier {
	if isImportPrefix(id) {
		return id
	}
	return nil
}

// visitPrefix visits the qualifier of a qualified type name. Import prefixes
// produce no fact of their own; their use is recorded with the name.
func (x *Extractor) visitPrefix(prefix, name *ast.Identifier) {
	if prefix == nil || name == nil || isImportPrefix(prefix) {
		return
	}
	x.visitName(nil, prefix, false, false, accessNone, "")
}

// visitName classifies one identifier occurrence. prefix is the import prefix
// when the identifier was written as prefix.name.
func (x *Extractor) visitName(prefix, id *ast.Identifier, qualified, invoked bool, mode access, staticType string) {
	if id == nil {
		return
	}
	elem := id.Element
	if elem == nil {
		x.recordUnresolved(id, qualified, invoked)
		return
	}
	if mode == accessRead && staticType == "" {
		staticType = id.StaticType
	}

	switch kind := elem.Kind(); {
	case kind == model.KindClass || kind == model.KindTypeAlias || kind == model.KindTypeParameter:
		x.record(elem, model.IsReferencedBy, x.locationOf(id))
		x.recordImportUse(prefix, id)
	case kind == model.KindFunction:
		rel := model.IsReferencedBy
		if invoked {
			rel = model.IsInvokedBy
		}
		x.record(elem, rel, x.locationOf(id))
		x.recordImportUse(prefix, id)
	case kind == model.KindField:
		x.recordAccess(elem, id, mode, staticType)
		x.recordMember(elem, id, qualified, invoked)
	case kind.IsClassMember():
		x.recordMember(elem, id, qualified, invoked)
	case kind == model.KindTopLevelVariable:
		x.recordAccess(elem, id, mode, staticType)
		rel := model.IsReferencedBy
		if invoked {
			rel = model.IsInvokedBy
		}
		x.record(elem, rel, x.locationOf(id))
		x.recordImportUse(prefix, id)
	case kind == model.KindLocalVariable || kind == model.KindParameter:
		x.recordAccess(elem, id, mode, staticType)
		if invoked {
			x.record(elem, model.IsInvokedBy, x.locationOf(id))
		}
	case kind == model.KindLibrary || kind == model.KindUnit:
		x.record(elem, model.IsReferencedBy, x.locationOf(id))
	}
}

func (x *Extractor) recordAccess(elem *model.Element, id *ast.Identifier, mode access, staticType string) {
	var rel model.Relationship
	switch mode {
	case accessRead:
		rel = model.IsReadBy
	case accessWrite:
		rel = model.IsWrittenBy
	case accessReadWrite:
		rel = model.IsReadWrittenBy
	default:
		return
	}
	x.record(elem, rel, withType(x.locationOf(id), staticType))
}

func (x *Extractor) recordMember(elem *model.Element, id *ast.Identifier, qualified, invoked bool) {
	var rel, resolved model.Relationship
	switch {
	case invoked && qualified:
		rel, resolved = model.IsInvokedByQualified, model.IsInvokedByQualifiedResolved
	case invoked:
		rel = model.IsInvokedByUnqualified
	case qualified:
		rel, resolved = model.IsReferencedByQualified, model.IsReferencedByQualifiedResolved
	default:
		rel = model.IsReferencedByUnqualified
	}
	x.record(elem, rel, x.locationOf(id))
	if resolved != "" {
		x.record(model.NewNameElement(id.Name), resolved, x.locationOf(id))
	}
}

func (x *Extractor) recordUnresolved(id *ast.Identifier, qualified, invoked bool) {
	if id.Name == "" {
		return
	}
	var rel model.Relationship
	switch {
	case invoked && qualified:
		rel = model.IsInvokedByQualifiedUnresolved
	case invoked:
		rel = model.IsInvokedByUnqualifiedUnresolved
	case qualified:
		rel = model.IsReferencedByQualifiedUnresolved
	default:
		rel = model.IsReferencedByUnqualifiedUnresolved
	}
	x.record(model.NewNameElement(id.Name), rel, x.locationOf(id))
}

// recordImportUse attributes a use of a top-level element to every import of
// this unit that makes it visible. Prefixed uses span "prefix."; unprefixed
// uses are a zero length location at the name.
func (x *Extractor) recordImportUse(prefix, id *ast.Identifier) {
	if len(x.imports) == 0 || id == nil || id.Element == nil {
		return
	}
	lib := id.Element.Library()
	if lib == nil || lib.Equal(x.library) {
		return
	}
	for _, imp := range x.imports {
		if !imp.Library.Equal(lib) || !imp.Allows(id.Name) {
			continue
		}
		switch {
		case prefix == nil && imp.Prefix == nil:
			x.record(imp.Library, model.IsReferencedBy, x.locationAt(id.Off, 0))
		case prefix != nil && imp.Prefix != nil && prefix.Name == imp.Prefix.Name:
			x.record(imp.Library, model.IsReferencedBy, x.locationAt(prefix.Off, id.Off-prefix.Off))
		}
	}
}

// visitComment records documentation references once per comment span, so a
// comment attached to several declarations is attributed only once.
func (x *Extractor) visitComment(c *ast.Comment) {
	if c == nil {
		return
	}
	if _, seen := x.comments[c.Span]; seen {
		return
	}
	x.comments[c.Span] = struct{}{}
	for _, ref := range c.References {
		if ref == nil || ref.Identifier == nil || ref.Identifier.Element == nil {
			continue
		}
		x.record(ref.Identifier.Element, model.IsReferencedBy, x.locationOf(ref.Identifier))
	}
}
