package extract

import (
	"testing"

	"crossref/internal/engine/ast"
	"crossref/internal/engine/model"
	"crossref/internal/engine/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fact struct {
	element  *model.Element
	relation model.Relationship
	location *model.Location
}

type collector struct {
	facts []fact
}

func (c *collector) RecordRelationship(e *model.Element, r model.Relationship, l *model.Location) {
	c.facts = append(c.facts, fact{element: e, relation: r, location: l})
}

func (c *collector) find(e *model.Element, r model.Relationship) []*model.Location {
	var out []*model.Location
	for _, f := range c.facts {
		if f.element.Equal(e) && f.relation == r {
			out = append(out, f.location)
		}
	}
	return out
}

func id(name string, off int, e *model.Element) *ast.Identifier {
	return &ast.Identifier{Span: ast.Span{Off: off, Len: len(name)}, Name: name, Element: e}
}

func typeName(name string, off int, e *model.Element) *ast.TypeName {
	return &ast.TypeName{Span: ast.Span{Off: off, Len: len(name)}, Name: id(name, off, e)}
}

func newUnit(path string) (*model.Element, *model.Element) {
	lib := model.NewLibrary(path, model.Source{Context: "ctx", Path: path})
	return lib, lib.DefiningUnit()
}

// class A {}
// class B extends A {}
func TestIndexUnit_ExtendsSharesLocation(t *testing.T) {
	lib, unit := newUnit("ab.java")
	a := model.NewElement(model.KindClass, "A", 6, unit)
	b := model.NewElement(model.KindClass, "B", 17, unit)

	cu := &ast.CompilationUnit{
		Element: unit,
		Declarations: []ast.Declaration{
			&ast.ClassDeclaration{Name: id("A", 6, a)},
			&ast.ClassDeclaration{Name: id("B", 17, b), Extends: typeName("A", 27, a)},
		},
	}

	s := store.NewMemoryStore()
	New(s).IndexUnit(cu)

	extended := s.Relationships(a, model.IsExtendedBy)
	referenced := s.Relationships(a, model.IsReferencedBy)
	require.Len(t, extended, 1)
	require.Len(t, referenced, 1)
	assert.Same(t, extended[0], referenced[0])
	assert.True(t, extended[0].Element.Equal(b))
	assert.Equal(t, 27, extended[0].Offset)
	assert.Equal(t, 1, extended[0].Length)

	assert.Len(t, s.Relationships(lib, model.DefinesClass), 2)
	universe := s.Relationships(model.Universe, model.DefinesClass)
	require.Len(t, universe, 2)
	assert.True(t, universe[0].Element.Equal(a))
	assert.Equal(t, 6, universe[0].Offset)
}

func TestIndexUnit_IgnoresUnresolvedUnits(t *testing.T) {
	c := &collector{}
	x := New(c)
	x.IndexUnit(nil)
	x.IndexUnit(&ast.CompilationUnit{Declarations: []ast.Declaration{
		&ast.ClassDeclaration{Name: id("A", 0, model.NewElement(model.KindClass, "A", 0, nil))},
	}})
	x.IndexHTMLUnit(nil)
	x.IndexHTMLUnit(&ast.HTMLUnit{})
	assert.Empty(t, c.facts)
}

func TestIndexUnit_ToleratesMissingNodes(t *testing.T) {
	_, unit := newUnit("partial.java")
	var body *ast.Block
	cu := &ast.CompilationUnit{
		Element: unit,
		Directives: []ast.Directive{
			(*ast.ImportDirective)(nil),
			&ast.ImportDirective{},
		},
		Declarations: []ast.Declaration{
			(*ast.ClassDeclaration)(nil),
			&ast.ClassDeclaration{Members: []ast.ClassMember{
				&ast.MethodDeclaration{Body: body},
				&ast.FieldDeclaration{},
				&ast.ConstructorDeclaration{},
			}},
			&ast.FunctionDeclaration{Body: &ast.Block{Statements: []ast.Statement{
				&ast.ExpressionStatement{},
				&ast.ExpressionStatement{Expression: &ast.MethodInvocation{}},
				&ast.ReturnStatement{Expression: (*ast.Identifier)(nil)},
			}}},
			&ast.TopLevelVariableDeclaration{},
		},
	}
	c := &collector{}
	require.NotPanics(t, func() { New(c).IndexUnit(cu) })
	assert.Empty(t, c.facts)
}

func TestIndexUnit_MemberAccess(t *testing.T) {
	_, unit := newUnit("members.java")
	class := model.NewElement(model.KindClass, "Box", 6, unit)
	run := model.NewElement(model.KindMethod, "run", 20, class)
	main := model.NewElement(model.KindFunction, "main", 40, unit)
	box := model.NewElement(model.KindLocalVariable, "box", 52, main)

	cu := &ast.CompilationUnit{
		Element: unit,
		Declarations: []ast.Declaration{
			&ast.ClassDeclaration{Name: id("Box", 6, class), Members: []ast.ClassMember{
				&ast.MethodDeclaration{Name: id("run", 20, run), Body: &ast.Block{Statements: []ast.Statement{
					&ast.ExpressionStatement{Expression: &ast.MethodInvocation{Name: id("run", 30, run)}},
				}}},
			}},
			&ast.FunctionDeclaration{Name: id("main", 40, main), Body: &ast.Block{Statements: []ast.Statement{
				&ast.ExpressionStatement{Expression: &ast.MethodInvocation{
					Target: id("box", 60, box),
					Name:   id("run", 64, run),
				}},
				&ast.ExpressionStatement{Expression: &ast.MethodInvocation{
					Target: id("box", 70, box),
					Name:   id("stop", 74, nil),
				}},
				&ast.ExpressionStatement{Expression: &ast.MethodInvocation{Name: id("helper", 80, nil)}},
				&ast.ExpressionStatement{Expression: &ast.PropertyAccess{
					Target: &ast.ThisExpression{},
					Name:   id("missing", 90, nil),
				}},
				&ast.ExpressionStatement{Expression: &ast.MethodInvocation{Name: id("main", 100, main)}},
			}}},
		},
	}

	c := &collector{}
	New(c).IndexUnit(cu)

	unqualified := c.find(run, model.IsInvokedByUnqualified)
	require.Len(t, unqualified, 1)
	assert.Equal(t, 30, unqualified[0].Offset)
	assert.True(t, unqualified[0].Element.Equal(run))

	qualified := c.find(run, model.IsInvokedByQualified)
	require.Len(t, qualified, 1)
	assert.Equal(t, 64, qualified[0].Offset)
	assert.True(t, qualified[0].Element.Equal(main))

	runName := model.NewNameElement("run")
	assert.Len(t, c.find(runName, model.IsInvokedByQualifiedResolved), 1)
	defined := c.find(runName, model.IsDefinedBy)
	require.Len(t, defined, 1)
	assert.True(t, defined[0].Element.Equal(run))

	assert.Len(t, c.find(model.NewNameElement("stop"), model.IsInvokedByQualifiedUnresolved), 1)
	assert.Len(t, c.find(model.NewNameElement("helper"), model.IsInvokedByUnqualifiedUnresolved), 1)
	assert.Len(t, c.find(model.NewNameElement("missing"), model.IsReferencedByQualifiedUnresolved), 1)
	assert.Len(t, c.find(main, model.IsInvokedBy), 1)
	assert.Len(t, c.find(box, model.IsReadBy), 2)
	assert.Len(t, c.find(model.NewNameElement("main"), model.IsDefinedBy), 1)
}

func TestIndexUnit_ReadsAndWrites(t *testing.T) {
	_, unit := newUnit("counter.java")
	class := model.NewElement(model.KindClass, "Counter", 6, unit)
	count := model.NewElement(model.KindField, "count", 20, class)
	inc := model.NewElement(model.KindMethod, "inc", 30, class)

	one := &ast.Literal{Value: "1", StaticType: "int"}
	stmts := []ast.Statement{
		&ast.ExpressionStatement{Expression: &ast.AssignmentExpression{Left: id("count", 40, count), Operator: "=", Right: one}},
		&ast.ExpressionStatement{Expression: &ast.AssignmentExpression{
			Left:     &ast.PropertyAccess{Target: &ast.ThisExpression{}, Name: id("count", 55, count)},
			Operator: "+=",
			Right:    &ast.Literal{Value: "2", StaticType: "int"},
		}},
		&ast.ExpressionStatement{Expression: &ast.PostfixExpression{Operand: id("count", 70, count), Operator: "++"}},
		&ast.ReturnStatement{Expression: &ast.Identifier{Span: ast.Span{Off: 90, Len: 5}, Name: "count", Element: count, StaticType: "int"}},
	}
	cu := &ast.CompilationUnit{
		Element: unit,
		Declarations: []ast.Declaration{
			&ast.ClassDeclaration{Name: id("Counter", 6, class), Members: []ast.ClassMember{
				&ast.FieldDeclaration{Variables: &ast.VariableDeclarationList{Variables: []*ast.VariableDeclaration{{Name: id("count", 20, count)}}}},
				&ast.MethodDeclaration{Name: id("inc", 30, inc), Body: &ast.Block{Statements: stmts}},
			}},
		},
	}

	c := &collector{}
	New(c).IndexUnit(cu)

	written := c.find(count, model.IsWrittenBy)
	require.Len(t, written, 1)
	assert.Equal(t, model.StaticType("int"), written[0].Data)
	assert.True(t, written[0].Element.Equal(inc))

	readWritten := c.find(count, model.IsReadWrittenBy)
	require.Len(t, readWritten, 2)
	assert.Equal(t, 55, readWritten[0].Offset)
	assert.Equal(t, 70, readWritten[1].Offset)

	read := c.find(count, model.IsReadBy)
	require.Len(t, read, 1)
	assert.Equal(t, model.StaticType("int"), read[0].Data)

	assert.Len(t, c.find(count, model.IsReferencedByUnqualified), 3)
	assert.Len(t, c.find(count, model.IsReferencedByQualified), 1)
	assert.Len(t, c.find(model.NewNameElement("count"), model.IsReferencedByQualifiedResolved), 1)
	assert.Len(t, c.find(model.NewNameElement("count"), model.IsDefinedBy), 1)
}

func TestIndexUnit_Constructors(t *testing.T) {
	_, unit := newUnit("point.java")
	class := model.NewElement(model.KindClass, "Point", 6, unit)
	unnamed := model.NewElement(model.KindConstructor, "", 14, class)
	named := model.NewElement(model.KindConstructor, "origin", 30, class)

	cu := &ast.CompilationUnit{
		Element: unit,
		Declarations: []ast.Declaration{
			&ast.ClassDeclaration{Name: id("Point", 6, class), Members: []ast.ClassMember{
				&ast.ConstructorDeclaration{ReturnType: id("Point", 14, class), Element: unnamed},
				&ast.ConstructorDeclaration{ReturnType: id("Point", 24, class), Period: 29, Name: id("origin", 30, named), Element: named},
			}},
			&ast.FunctionDeclaration{Name: id("f", 50, nil), Body: &ast.Block{Statements: []ast.Statement{
				&ast.ExpressionStatement{Expression: &ast.InstanceCreation{Type: typeName("Point", 60, class), Element: unnamed}},
				&ast.ExpressionStatement{Expression: &ast.InstanceCreation{
					Type: typeName("Point", 80, class), Period: 85, ConstructorName: id("origin", 86, named), Element: named,
				}},
			}}},
		},
	}

	c := &collector{}
	New(c).IndexUnit(cu)

	def := c.find(unnamed, model.IsDefinedBy)
	require.Len(t, def, 1)
	assert.Equal(t, 19, def[0].Offset)
	assert.Equal(t, 0, def[0].Length)

	def = c.find(named, model.IsDefinedBy)
	require.Len(t, def, 1)
	assert.Equal(t, 29, def[0].Offset)
	assert.Equal(t, 7, def[0].Length)
	assert.Len(t, c.find(model.NewNameElement("origin"), model.IsDefinedBy), 1)

	refs := c.find(unnamed, model.IsReferencedBy)
	require.Len(t, refs, 1)
	assert.Equal(t, 65, refs[0].Offset)
	assert.Equal(t, 0, refs[0].Length)

	refs = c.find(named, model.IsReferencedBy)
	require.Len(t, refs, 1)
	assert.Equal(t, 85, refs[0].Offset)
	assert.Equal(t, 7, refs[0].Length)

	assert.Len(t, c.find(class, model.IsReferencedBy), 2)
}

func TestIndexUnit_ImportUseSites(t *testing.T) {
	_, unit := newUnit("main.java")
	other, _ := newUnit("other.java")
	foo := model.NewElement(model.KindClass, "Foo", 6, other.DefiningUnit())
	bar := model.NewElement(model.KindFunction, "bar", 20, other.DefiningUnit())
	hidden := model.NewElement(model.KindFunction, "hidden", 30, other.DefiningUnit())
	prefix := model.NewElement(model.KindPrefix, "p", 40, unit)

	cu := &ast.CompilationUnit{
		Element: unit,
		Directives: []ast.Directive{
			&ast.ImportDirective{URI: ast.Span{Off: 7, Len: 12}, Library: other, Combinators: []*ast.Combinator{
				{Hide: true, Names: []*ast.Identifier{id("hidden", 25, hidden)}},
			}},
			&ast.ImportDirective{URI: ast.Span{Off: 33, Len: 12}, Library: other, Prefix: id("p", 50, prefix)},
		},
		Declarations: []ast.Declaration{
			&ast.FunctionDeclaration{Name: id("main", 60, nil), Body: &ast.Block{Statements: []ast.Statement{
				&ast.VariableDeclarationStatement{Variables: &ast.VariableDeclarationList{
					Type: &ast.TypeName{Span: ast.Span{Off: 70, Len: 5}, Prefix: id("p", 70, prefix), Name: id("Foo", 72, foo)},
				}},
				&ast.ExpressionStatement{Expression: &ast.MethodInvocation{Name: id("bar", 90, bar)}},
				&ast.ExpressionStatement{Expression: &ast.MethodInvocation{Name: id("hidden", 100, hidden)}},
				&ast.ExpressionStatement{Expression: &ast.MethodInvocation{Target: id("p", 110, prefix), Name: id("bar", 112, bar)}},
			}}},
		},
	}

	c := &collector{}
	New(c).IndexUnit(cu)

	uris := c.find(other.DefiningUnit(), model.IsReferencedBy)
	require.Len(t, uris, 2)
	assert.Equal(t, 7, uris[0].Offset)
	assert.Equal(t, 33, uris[1].Offset)

	uses := c.find(other, model.IsReferencedBy)
	require.Len(t, uses, 3)
	// p.Foo
	assert.Equal(t, 70, uses[0].Offset)
	assert.Equal(t, 2, uses[0].Length)
	// bar
	assert.Equal(t, 90, uses[1].Offset)
	assert.Equal(t, 0, uses[1].Length)
	// p.bar
	assert.Equal(t, 110, uses[2].Offset)
	assert.Equal(t, 2, uses[2].Length)

	assert.Len(t, c.find(hidden, model.IsInvokedBy), 1)
	assert.Empty(t, c.find(hidden, model.IsReferencedBy))
	assert.Len(t, c.find(foo, model.IsReferencedBy), 1)
	assert.Len(t, c.find(bar, model.IsInvokedBy), 2)
}

func TestIndexUnit_SharedCommentRecordedOnce(t *testing.T) {
	_, unit := newUnit("doc.java")
	a := model.NewElement(model.KindClass, "A", 30, unit)
	b := model.NewElement(model.KindClass, "B", 50, unit)
	target := model.NewElement(model.KindClass, "Target", 70, unit)

	doc := &ast.Comment{Span: ast.Span{Off: 0, Len: 20}, References: []*ast.CommentReference{
		{Identifier: id("Target", 5, target)},
	}}
	// an equal span delivered through a separate node is the same comment
	copied := &ast.Comment{Span: doc.Span, References: doc.References}

	cu := &ast.CompilationUnit{
		Element: unit,
		Declarations: []ast.Declaration{
			&ast.ClassDeclaration{Comment: doc, Name: id("A", 30, a)},
			&ast.ClassDeclaration{Comment: copied, Name: id("B", 50, b)},
			&ast.ClassDeclaration{Name: id("Target", 70, target)},
		},
	}

	c := &collector{}
	New(c).IndexUnit(cu)

	refs := c.find(target, model.IsReferencedBy)
	require.Len(t, refs, 1)
	assert.Equal(t, 5, refs[0].Offset)
}

func TestIndexUnit_ExtractorIsReusable(t *testing.T) {
	_, unit := newUnit("again.java")
	a := model.NewElement(model.KindClass, "A", 0, unit)
	doc := &ast.Comment{Span: ast.Span{Off: 0, Len: 10}, References: []*ast.CommentReference{{Identifier: id("A", 4, a)}}}
	cu := &ast.CompilationUnit{Element: unit, Declarations: []ast.Declaration{
		&ast.ClassDeclaration{Comment: doc, Name: id("A", 12, a)},
	}}

	c := &collector{}
	x := New(c)
	x.IndexUnit(cu)
	x.IndexUnit(cu)
	assert.Len(t, c.find(a, model.IsReferencedBy), 2)
}

func TestIndexHTMLUnit(t *testing.T) {
	html := model.NewHTMLElement(model.Source{Context: "ctx", Path: "index.html"})
	app, appUnit := newUnit("app.java")
	widget := model.NewElement(model.KindClass, "Widget", 6, appUnit)
	inline := model.NewElement(model.KindClass, "Inline", 120, html)

	h := &ast.HTMLUnit{
		Element: html,
		Scripts: []*ast.HTMLScript{
			{Source: &ast.Span{Off: 40, Len: 10}, Library: app},
			{Unit: &ast.CompilationUnit{Declarations: []ast.Declaration{
				&ast.ClassDeclaration{Name: id("Inline", 120, inline), Extends: typeName("Widget", 135, widget)},
			}}},
			nil,
		},
	}

	s := store.NewMemoryStore()
	New(s).IndexHTMLUnit(h)

	refs := s.Relationships(appUnit, model.IsReferencedBy)
	require.Len(t, refs, 1)
	assert.True(t, refs[0].Element.Equal(html))
	assert.Equal(t, 40, refs[0].Offset)

	defs := s.Relationships(html, model.DefinesClass)
	require.Len(t, defs, 1)
	assert.True(t, defs[0].Element.Equal(inline))
	assert.Len(t, s.Relationships(widget, model.IsExtendedBy), 1)

	s.RemoveSource(html.Source())
	assert.Empty(t, s.Relationships(appUnit, model.IsReferencedBy))
	assert.Empty(t, s.Relationships(widget, model.IsExtendedBy))
}

func TestIndexUnit_TopLevelDefinesAnchors(t *testing.T) {
	lib, unit := newUnit("defs.java")
	tests := []struct {
		name string
		decl func(e *model.Element) ast.Declaration
		kind model.ElementKind
		rel  model.Relationship
	}{
		{
			name: "class",
			decl: func(e *model.Element) ast.Declaration { return &ast.ClassDeclaration{Name: id("Thing", 10, e)} },
			kind: model.KindClass,
			rel:  model.DefinesClass,
		},
		{
			name: "class alias",
			decl: func(e *model.Element) ast.Declaration { return &ast.ClassTypeAlias{Name: id("Thing", 10, e)} },
			kind: model.KindClass,
			rel:  model.DefinesClassAlias,
		},
		{
			name: "function type",
			decl: func(e *model.Element) ast.Declaration { return &ast.FunctionTypeAlias{Name: id("Thing", 10, e)} },
			kind: model.KindTypeAlias,
			rel:  model.DefinesFunctionType,
		},
		{
			name: "function",
			decl: func(e *model.Element) ast.Declaration { return &ast.FunctionDeclaration{Name: id("Thing", 10, e)} },
			kind: model.KindFunction,
			rel:  model.DefinesFunction,
		},
		{
			name: "variable",
			decl: func(e *model.Element) ast.Declaration {
				return &ast.TopLevelVariableDeclaration{Variables: &ast.VariableDeclarationList{
					Variables: []*ast.VariableDeclaration{{Name: id("Thing", 10, e)}},
				}}
			},
			kind: model.KindTopLevelVariable,
			rel:  model.DefinesVariable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elem := model.NewElement(tt.kind, "Thing", 10, unit)
			c := &collector{}
			New(c).IndexUnit(&ast.CompilationUnit{Element: unit, Declarations: []ast.Declaration{tt.decl(elem)}})

			for _, anchor := range []*model.Element{lib, model.Universe} {
				locs := c.find(anchor, tt.rel)
				require.Len(t, locs, 1, anchor.String())
				assert.True(t, locs[0].Element.Equal(elem))
				assert.Equal(t, 10, locs[0].Offset)
				assert.Equal(t, 5, locs[0].Length)
			}
		})
	}
}

// class C extends A with M implements I {}
// class D = A with M implements I;
func TestIndexUnit_SupertypeClauses(t *testing.T) {
	_, unit := newUnit("mixins.java")
	a := model.NewElement(model.KindClass, "A", 0, unit)
	m := model.NewElement(model.KindClass, "M", 2, unit)
	i := model.NewElement(model.KindClass, "I", 4, unit)
	cls := model.NewElement(model.KindClass, "C", 10, unit)
	alias := model.NewElement(model.KindClass, "D", 50, unit)

	cu := &ast.CompilationUnit{
		Element: unit,
		Declarations: []ast.Declaration{
			&ast.ClassDeclaration{
				Name:       id("C", 10, cls),
				Extends:    typeName("A", 20, a),
				With:       []*ast.TypeName{typeName("M", 27, m)},
				Implements: []*ast.TypeName{typeName("I", 40, i)},
			},
			&ast.ClassTypeAlias{
				Name:       id("D", 50, alias),
				Superclass: typeName("A", 54, a),
				With:       []*ast.TypeName{typeName("M", 61, m)},
				Implements: []*ast.TypeName{typeName("I", 74, i)},
			},
		},
	}
	c := &collector{}
	New(c).IndexUnit(cu)

	tests := []struct {
		target *model.Element
		rel    model.Relationship
		from   []*model.Element
		at     []int
	}{
		{a, model.IsExtendedBy, []*model.Element{cls, alias}, []int{20, 54}},
		{m, model.IsMixedInBy, []*model.Element{cls, alias}, []int{27, 61}},
		{i, model.IsImplementedBy, []*model.Element{cls, alias}, []int{40, 74}},
	}
	for _, tt := range tests {
		locs := c.find(tt.target, tt.rel)
		require.Len(t, locs, 2, string(tt.rel))
		refs := c.find(tt.target, model.IsReferencedBy)
		require.Len(t, refs, 2)
		for k := range locs {
			assert.True(t, locs[k].Element.Equal(tt.from[k]))
			assert.Equal(t, tt.at[k], locs[k].Offset)
			assert.Same(t, locs[k], refs[k])
		}
	}
}

func TestIndexUnit_LibraryDirectives(t *testing.T) {
	_, unit := newUnit("main.java")
	other, _ := newUnit("other.java")
	part, _ := newUnit("part.java")

	cu := &ast.CompilationUnit{
		Element: unit,
		Directives: []ast.Directive{
			&ast.ExportDirective{URI: ast.Span{Off: 7, Len: 12}, Library: other},
			&ast.PartDirective{URI: ast.Span{Off: 30, Len: 11}, Unit: part.DefiningUnit()},
			&ast.PartOfDirective{LibraryName: id("other", 50, nil), Library: other},
		},
	}
	c := &collector{}
	New(c).IndexUnit(cu)

	exported := c.find(other.DefiningUnit(), model.IsReferencedBy)
	require.Len(t, exported, 1)
	assert.Equal(t, 7, exported[0].Offset)
	assert.Equal(t, 12, exported[0].Length)

	parts := c.find(part.DefiningUnit(), model.IsReferencedBy)
	require.Len(t, parts, 1)
	assert.Equal(t, 30, parts[0].Offset)
	assert.Equal(t, 11, parts[0].Length)

	partOf := c.find(other, model.IsReferencedBy)
	require.Len(t, partOf, 1)
	assert.Equal(t, 50, partOf[0].Offset)
	assert.Equal(t, 5, partOf[0].Length)
}

func TestIndexUnit_ShowCombinatorFiltersUseSites(t *testing.T) {
	_, unit := newUnit("main.java")
	other, _ := newUnit("other.java")
	shown := model.NewElement(model.KindFunction, "shown", 6, other.DefiningUnit())
	unlisted := model.NewElement(model.KindFunction, "unlisted", 20, other.DefiningUnit())

	cu := &ast.CompilationUnit{
		Element: unit,
		Directives: []ast.Directive{
			&ast.ImportDirective{URI: ast.Span{Off: 7, Len: 12}, Library: other, Combinators: []*ast.Combinator{
				{Names: []*ast.Identifier{id("shown", 25, shown)}},
			}},
		},
		Declarations: []ast.Declaration{
			&ast.FunctionDeclaration{Name: id("main", 40, nil), Body: &ast.Block{Statements: []ast.Statement{
				&ast.ExpressionStatement{Expression: &ast.MethodInvocation{Name: id("shown", 50, shown)}},
				&ast.ExpressionStatement{Expression: &ast.MethodInvocation{Name: id("unlisted", 60, unlisted)}},
			}}},
		},
	}
	c := &collector{}
	New(c).IndexUnit(cu)

	uses := c.find(other, model.IsReferencedBy)
	require.Len(t, uses, 1)
	assert.Equal(t, 50, uses[0].Offset)
	// the combinator name itself is not a use site
	assert.Empty(t, c.find(shown, model.IsReferencedBy))
	assert.Len(t, c.find(shown, model.IsInvokedBy), 1)
}
