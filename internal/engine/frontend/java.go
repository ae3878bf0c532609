package frontend

import (
	"crossref/internal/engine/ast"
	"crossref/internal/engine/model"
)

var literalTypes = map[string]string{
	"decimal_integer_literal":        "int",
	"hex_integer_literal":            "int",
	"octal_integer_literal":          "int",
	"binary_integer_literal":         "int",
	"decimal_floating_point_literal": "double",
	"hex_floating_point_literal":     "double",
	"string_literal":                 "String",
	"text_block":                     "String",
	"character_literal":              "char",
	"true":                           "boolean",
	"false":                          "boolean",
	"null_literal":                   "",
}

var statementKinds = map[string]bool{
	"block":                           true,
	"local_variable_declaration":      true,
	"expression_statement":            true,
	"return_statement":                true,
	"if_statement":                    true,
	"while_statement":                 true,
	"for_statement":                   true,
	"enhanced_for_statement":          true,
	"do_statement":                    true,
	"try_statement":                   true,
	"try_with_resources_statement":    true,
	"throw_statement":                 true,
	"break_statement":                 true,
	"continue_statement":              true,
	"labeled_statement":               true,
	"synchronized_statement":          true,
	"switch_block_statement_group":    true,
	"yield_statement":                 true,
	"assert_statement":                true,
	"explicit_constructor_invocation": true,
}

// scopedKinds open a scope for the declarations they contain.
var scopedKinds = map[string]bool{
	"for_statement":                true,
	"try_with_resources_statement": true,
	"catch_clause":                 true,
	"switch_block_statement_group": true,
	"switch_rule":                  true,
}

// skippedKinds never contribute references.
var skippedKinds = map[string]bool{
	"modifiers":         true,
	"line_comment":      true,
	"block_comment":     true,
	"throws":            true,
	"dimensions":        true,
	"type_parameters":   true,
	"marker_annotation": true,
	"annotation":        true,
}

type staticImport struct {
	owner  *classInfo
	member string
}

// unitBuilder turns the syntax tree of one file into a resolved
// ast.CompilationUnit. It is used under the project read lock.
type unitBuilder struct {
	p       *Project
	f       *javaFile
	src     []byte
	scope   *scope
	class   *classInfo
	owner   *model.Element
	statics []staticImport
}

func newUnitBuilder(p *Project, f *javaFile) *unitBuilder {
	b := &unitBuilder{p: p, f: f, src: f.src(), scope: &scope{}}
	for _, imp := range f.imports {
		if !imp.static {
			continue
		}
		if imp.wildcard {
			b.statics = append(b.statics, staticImport{owner: p.lookupQualified(imp.name)})
			continue
		}
		owner, member := splitMember(imp.name)
		b.statics = append(b.statics, staticImport{owner: p.lookupQualified(owner), member: member})
	}
	return b
}

func splitMember(name string) (string, string) {
	member := lastSegment(name)
	if len(member) == len(name) {
		return "", name
	}
	return name[:len(name)-len(member)-1], member
}

func (b *unitBuilder) span(n *syntaxNode) ast.Span {
	return ast.SpanOf(b.f.base+n.start, b.f.base+n.end)
}

func (b *unitBuilder) text(n *syntaxNode) string {
	return n.text(b.src)
}

func (b *unitBuilder) ident(n *syntaxNode, e *model.Element, typ string) *ast.Identifier {
	return &ast.Identifier{Span: b.span(n), Name: b.text(n), Element: e, StaticType: typ}
}

// ownerElement is the element enclosing locals declared at this point.
func (b *unitBuilder) ownerElement() *model.Element {
	switch {
	case b.owner != nil:
		return b.owner
	case b.class != nil:
		return b.class.element
	}
	return b.f.container
}

func (b *unitBuilder) enterScope() func() {
	saved := b.scope
	b.scope = saved.push()
	return func() { b.scope = saved }
}

func (b *unitBuilder) unit() *ast.CompilationUnit {
	root := b.f.parsed.root
	u := &ast.CompilationUnit{Span: b.span(root)}
	if b.f.library != nil {
		u.Element = b.f.container
	}
	children := root.children
	for i, n := range children {
		switch {
		case n.kind == "import_declaration":
			u.Directives = append(u.Directives, b.importDirectives(n, b.docBefore(children, i))...)
		case isTypeDeclaration(n.kind):
			if d := b.classDecl(n, b.docBefore(children, i)); d != nil {
				u.Declarations = append(u.Declarations, d)
			}
		}
	}
	return u
}

// importDirectives maps a single-type import to an import showing that name
// and a wildcard import to one import per library of the package.
func (b *unitBuilder) importDirectives(n *syntaxNode, doc *ast.Comment) []ast.Directive {
	imp, ok := b.f.parseImport(n)
	if !ok {
		return nil
	}
	nameNode := qualifiedNameNode(n)
	uri := b.span(nameNode)
	newImport := func(lib *model.Element) *ast.ImportDirective {
		return &ast.ImportDirective{
			Span:    b.span(n),
			Comment: doc,
			URI:     uri,
			Element: model.NewElement(model.KindImport, imp.name, uri.Off, b.f.container),
			Library: lib,
		}
	}

	if imp.wildcard {
		var libs []*model.Element
		if !imp.static {
			libs = b.p.packageLibraries(imp.name)
		}
		if len(libs) == 0 {
			if c := b.p.lookupQualified(imp.name); c != nil {
				libs = append(libs, c.file.library)
			}
		}
		if len(libs) == 0 {
			return []ast.Directive{newImport(nil)}
		}
		out := make([]ast.Directive, 0, len(libs))
		for _, lib := range libs {
			out = append(out, newImport(lib))
		}
		return out
	}

	shown := nameNode
	if last := nameNode.child("name"); last != nil {
		shown = last
	}
	var lib, shownElement *model.Element
	if imp.static {
		owner, member := splitMember(imp.name)
		if c := b.p.lookupQualified(owner); c != nil {
			lib = c.file.library
			if m := b.p.findMember(c, member, true); m != nil {
				shownElement = m.element
			} else if m := b.p.findMember(c, member, false); m != nil {
				shownElement = m.element
			}
		}
	} else if c := b.p.lookupQualified(imp.name); c != nil {
		lib = c.file.library
		shownElement = c.element
	}
	d := newImport(lib)
	d.Combinators = []*ast.Combinator{{
		Span:  b.span(shown),
		Names: []*ast.Identifier{b.ident(shown, shownElement, "")},
	}}
	return []ast.Directive{d}
}

func (b *unitBuilder) classDecl(n *syntaxNode, doc *ast.Comment) *ast.ClassDeclaration {
	info := b.f.byNode[n.start]
	if info == nil {
		return nil
	}
	savedClass, savedOwner := b.class, b.owner
	defer b.enterScope()()
	defer func() { b.class, b.owner = savedClass, savedOwner }()

	d := &ast.ClassDeclaration{
		Span:     b.span(n),
		Comment:  doc,
		Name:     b.ident(n.child("name"), info.element, ""),
		Abstract: n.kind == "interface_declaration" || hasModifier(n, "abstract"),
	}
	b.class, b.owner = info, info.element
	d.TypeParameters = b.typeParameters(n.child("type_parameters"), info.element)

	switch n.kind {
	case "class_declaration":
		if sc := n.child("superclass"); sc != nil {
			d.Extends = b.typeName(sc.firstNamed())
		}
		d.Implements = b.typeList(n.child("interfaces"))
	case "interface_declaration":
		d.Implements = b.typeList(n.ofKind("extends_interfaces"))
	case "enum_declaration", "record_declaration":
		d.Implements = b.typeList(n.child("interfaces"))
	}
	if n.kind == "record_declaration" {
		d.Members = append(d.Members, b.recordComponents(n.child("parameters"), info)...)
	}
	d.Members = append(d.Members, b.members(n.child("body"), info)...)
	return d
}

func (b *unitBuilder) typeParameters(n *syntaxNode, owner *model.Element) []*ast.TypeParameter {
	var out []*ast.TypeParameter
	for _, tp := range n.namedChildren() {
		if tp.kind != "type_parameter" {
			continue
		}
		nameNode := tp.ofKind("type_identifier")
		if nameNode == nil {
			nameNode = tp.ofKind("identifier")
		}
		if nameNode == nil {
			continue
		}
		name := b.text(nameNode)
		e := model.NewElement(model.KindTypeParameter, name, b.f.base+nameNode.start, owner)
		b.scope.bindType(name, e)
		param := &ast.TypeParameter{Span: b.span(tp), Name: b.ident(nameNode, e, "")}
		if bound := tp.ofKind("type_bound"); bound != nil {
			param.Bound = b.typeName(bound.firstNamed())
		}
		out = append(out, param)
	}
	return out
}

func (b *unitBuilder) typeList(n *syntaxNode) []*ast.TypeName {
	list := n.ofKind("type_list")
	var out []*ast.TypeName
	for _, t := range list.namedChildren() {
		if tn := b.typeName(t); tn != nil {
			out = append(out, tn)
		}
	}
	return out
}

// resolveType finds the class a type name denotes at this point, or nil for
// type parameters and unknown types.
func (b *unitBuilder) resolveType(name string) *classInfo {
	if name == "" {
		return nil
	}
	if _, ok := b.scope.lookupType(name); ok {
		return nil
	}
	return b.p.lookupType(b.f, b.class, name)
}

func (b *unitBuilder) typeElement(name string) *model.Element {
	if e, ok := b.scope.lookupType(name); ok {
		return e
	}
	if c := b.p.lookupType(b.f, b.class, name); c != nil {
		return c.element
	}
	return nil
}

// typeName converts a type node. Primitive types yield nil.
func (b *unitBuilder) typeName(n *syntaxNode) *ast.TypeName {
	if n == nil {
		return nil
	}
	switch n.kind {
	case "type_identifier":
		return &ast.TypeName{Span: b.span(n), Name: b.ident(n, b.typeElement(b.text(n)), "")}
	case "scoped_type_identifier":
		var last *syntaxNode
		for _, c := range n.namedChildren() {
			if c.kind == "type_identifier" {
				last = c
			}
		}
		if last == nil {
			return nil
		}
		return &ast.TypeName{Span: b.span(n), Name: b.ident(last, b.typeElement(typeText(n, b.src)), "")}
	case "generic_type":
		var base *ast.TypeName
		for _, c := range n.namedChildren() {
			switch c.kind {
			case "type_identifier", "scoped_type_identifier":
				base = b.typeName(c)
			case "type_arguments":
				if base == nil {
					continue
				}
				for _, a := range c.namedChildren() {
					if t := b.typeName(a); t != nil {
						base.TypeArguments = append(base.TypeArguments, t)
					}
				}
			}
		}
		if base != nil {
			base.Span = b.span(n)
		}
		return base
	case "array_type":
		return b.typeName(n.child("element"))
	case "annotated_type", "wildcard":
		for _, c := range n.namedChildren() {
			if t := b.typeName(c); t != nil {
				return t
			}
		}
	}
	return nil
}

func (b *unitBuilder) members(body *syntaxNode, info *classInfo) []ast.ClassMember {
	if body == nil {
		return nil
	}
	var out []ast.ClassMember
	children := body.children
	for i, m := range children {
		switch m.kind {
		case "field_declaration", "constant_declaration":
			out = append(out, b.fieldDecl(m, info, b.docBefore(children, i)))
		case "method_declaration":
			out = append(out, b.methodDecl(m, info, b.docBefore(children, i)))
		case "constructor_declaration", "compact_constructor_declaration":
			out = append(out, b.constructorDecl(m, info, b.docBefore(children, i)))
		case "enum_constant":
			out = append(out, b.enumConstant(m, info, b.docBefore(children, i)))
		case "enum_body_declarations":
			out = append(out, b.members(m, info)...)
		default:
			if isTypeDeclaration(m.kind) {
				if d := b.classDecl(m, b.docBefore(children, i)); d != nil {
					out = append(out, d)
				}
			}
		}
	}
	return out
}

func memberElement(m *memberInfo) *model.Element {
	if m == nil {
		return nil
	}
	return m.element
}

func memberType(m *memberInfo) string {
	if m == nil {
		return ""
	}
	return m.typ
}

func (b *unitBuilder) fieldDecl(n *syntaxNode, info *classInfo, doc *ast.Comment) *ast.FieldDeclaration {
	typeNode := n.child("type")
	typ := typeText(typeNode, b.src)
	list := &ast.VariableDeclarationList{Span: b.span(n), Type: b.typeName(typeNode)}
	for _, d := range n.fields("declarator") {
		nameNode := d.child("name")
		if nameNode == nil {
			continue
		}
		e := memberElement(info.fields[b.text(nameNode)])
		v := &ast.VariableDeclaration{Span: b.span(d), Name: b.ident(nameNode, e, typ)}
		if value := d.child("value"); value != nil {
			v.Initializer = b.initializer(value, e)
		}
		list.Variables = append(list.Variables, v)
	}
	return &ast.FieldDeclaration{
		Span:      b.span(n),
		Comment:   doc,
		Static:    hasModifier(n, "static") || n.kind == "constant_declaration",
		Variables: list,
	}
}

// initializer converts a field initializer with the field as owner of any
// lambda parameters declared in it.
func (b *unitBuilder) initializer(n *syntaxNode, field *model.Element) ast.Expression {
	saved := b.owner
	if field != nil {
		b.owner = field
	}
	defer func() { b.owner = saved }()
	return b.expr(n)
}

func (b *unitBuilder) methodDecl(n *syntaxNode, info *classInfo, doc *ast.Comment) *ast.MethodDeclaration {
	nameNode := n.child("name")
	var e *model.Element
	if nameNode != nil {
		e = memberElement(info.methods[b.text(nameNode)])
	}
	saved := b.owner
	defer b.enterScope()()
	defer func() { b.owner = saved }()
	b.owner = e
	if e != nil {
		b.typeParameters(n.child("type_parameters"), e)
	}

	md := &ast.MethodDeclaration{
		Span:       b.span(n),
		Comment:    doc,
		Static:     hasModifier(n, "static"),
		ReturnType: b.typeName(n.child("type")),
	}
	if nameNode != nil {
		md.Name = b.ident(nameNode, e, "")
	}
	md.Parameters = b.parameters(n.child("parameters"))
	if body := n.child("body"); body != nil {
		md.Body = b.block(body)
	}
	return md
}

func (b *unitBuilder) constructorDecl(n *syntaxNode, info *classInfo, doc *ast.Comment) *ast.ConstructorDeclaration {
	saved := b.owner
	defer b.enterScope()()
	defer func() { b.owner = saved }()
	b.owner = info.constructor
	b.typeParameters(n.child("type_parameters"), info.constructor)

	cd := &ast.ConstructorDeclaration{
		Span:    b.span(n),
		Comment: doc,
		Period:  -1,
		Element: info.constructor,
	}
	if nameNode := n.child("name"); nameNode != nil {
		cd.ReturnType = b.ident(nameNode, info.element, "")
	}
	if n.kind == "compact_constructor_declaration" {
		for _, m := range info.fields {
			b.scope.bind(m.element.Name(), binding{element: m.element, typ: m.typ})
		}
	}
	cd.Parameters = b.parameters(n.child("parameters"))
	if body := n.child("body"); body != nil {
		cd.Body = b.block(body)
	}
	return cd
}

// enumConstant is a static field whose declaration invokes the enum
// constructor when it has arguments.
func (b *unitBuilder) enumConstant(n *syntaxNode, info *classInfo, doc *ast.Comment) *ast.FieldDeclaration {
	nameNode := n.child("name")
	list := &ast.VariableDeclarationList{Span: b.span(n)}
	if nameNode != nil {
		e := memberElement(info.fields[b.text(nameNode)])
		v := &ast.VariableDeclaration{Span: b.span(n), Name: b.ident(nameNode, e, info.name)}
		if args := n.child("arguments"); args != nil {
			v.Initializer = &ast.InstanceCreation{
				Span:      b.span(args),
				Period:    -1,
				Element:   info.constructor,
				Arguments: b.arguments(args),
			}
		}
		list.Variables = append(list.Variables, v)
	}
	return &ast.FieldDeclaration{Span: b.span(n), Comment: doc, Static: true, Variables: list}
}

func (b *unitBuilder) recordComponents(params *syntaxNode, info *classInfo) []ast.ClassMember {
	var out []ast.ClassMember
	for _, prm := range params.namedChildren() {
		if prm.kind != "formal_parameter" {
			continue
		}
		nameNode := prm.child("name")
		if nameNode == nil {
			continue
		}
		typeNode := prm.child("type")
		typ := typeText(typeNode, b.src)
		v := &ast.VariableDeclaration{
			Span: b.span(prm),
			Name: b.ident(nameNode, memberElement(info.fields[b.text(nameNode)]), typ),
		}
		out = append(out, &ast.FieldDeclaration{
			Span: b.span(prm),
			Variables: &ast.VariableDeclarationList{
				Span:      b.span(prm),
				Type:      b.typeName(typeNode),
				Variables: []*ast.VariableDeclaration{v},
			},
		})
	}
	return out
}

// parameters declares formal parameters in the current scope.
func (b *unitBuilder) parameters(n *syntaxNode) []*ast.Parameter {
	var out []*ast.Parameter
	for _, prm := range n.namedChildren() {
		var typeNode, nameNode *syntaxNode
		switch prm.kind {
		case "formal_parameter":
			typeNode, nameNode = prm.child("type"), prm.child("name")
		case "spread_parameter":
			for _, c := range prm.namedChildren() {
				switch {
				case c.kind == "variable_declarator":
					nameNode = c.child("name")
				case typeNode == nil && c.kind != "modifiers" && c.kind != "annotation" && c.kind != "marker_annotation":
					typeNode = c
				}
			}
		default:
			continue
		}
		if nameNode == nil {
			continue
		}
		typ := typeText(typeNode, b.src)
		if prm.kind == "spread_parameter" {
			typ += "[]"
		}
		out = append(out, &ast.Parameter{
			Span: b.span(prm),
			Type: b.typeName(typeNode),
			Name: b.bindParameter(nameNode, typ),
		})
	}
	return out
}

func (b *unitBuilder) bindParameter(nameNode *syntaxNode, typ string) *ast.Identifier {
	name := b.text(nameNode)
	e := model.NewElement(model.KindParameter, name, b.f.base+nameNode.start, b.ownerElement())
	b.scope.bind(name, binding{element: e, typ: typ})
	return b.ident(nameNode, e, typ)
}

func (b *unitBuilder) block(n *syntaxNode) *ast.Block {
	defer b.enterScope()()
	blk := &ast.Block{Span: b.span(n)}
	for _, c := range n.namedChildren() {
		if isComment(c) {
			continue
		}
		if s := b.stmt(c); s != nil {
			blk.Statements = append(blk.Statements, s)
		}
	}
	return blk
}

func (b *unitBuilder) stmt(n *syntaxNode) ast.Statement {
	if n == nil {
		return nil
	}
	switch n.kind {
	case "block", "constructor_body":
		return b.block(n)
	case "local_variable_declaration":
		return b.localVariables(n)
	case "expression_statement":
		e := b.expr(n.firstNamed())
		if e == nil {
			return nil
		}
		return &ast.ExpressionStatement{Span: b.span(n), Expression: e}
	case "return_statement":
		rs := &ast.ReturnStatement{Span: b.span(n)}
		if c := n.firstNamed(); c != nil {
			rs.Expression = b.expr(c)
		}
		return rs
	case "if_statement":
		return &ast.IfStatement{
			Span:      b.span(n),
			Condition: b.expr(n.child("condition")),
			Then:      b.stmt(n.child("consequence")),
			Else:      b.stmt(n.child("alternative")),
		}
	case "while_statement":
		return &ast.WhileStatement{
			Span:      b.span(n),
			Condition: b.expr(n.child("condition")),
			Body:      b.stmt(n.child("body")),
		}
	case "enhanced_for_statement":
		return b.enhancedFor(n)
	case "explicit_constructor_invocation":
		return b.constructorInvocation(n)
	case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
		// local classes are not declared
		return nil
	}
	return b.opaque(n)
}

func (b *unitBuilder) localVariables(n *syntaxNode) *ast.VariableDeclarationStatement {
	typeNode := n.child("type")
	typ := typeText(typeNode, b.src)
	list := &ast.VariableDeclarationList{Span: b.span(n)}
	if typ != "var" {
		list.Type = b.typeName(typeNode)
	}
	for _, d := range n.fields("declarator") {
		nameNode := d.child("name")
		if nameNode == nil {
			continue
		}
		v := &ast.VariableDeclaration{Span: b.span(d)}
		if value := d.child("value"); value != nil {
			v.Initializer = b.expr(value)
		}
		vt := typ
		if vt == "var" {
			vt = ast.StaticTypeOf(v.Initializer)
		}
		name := b.text(nameNode)
		e := model.NewElement(model.KindLocalVariable, name, b.f.base+nameNode.start, b.ownerElement())
		b.scope.bind(name, binding{element: e, typ: vt})
		v.Name = b.ident(nameNode, e, vt)
		list.Variables = append(list.Variables, v)
	}
	return &ast.VariableDeclarationStatement{Span: b.span(n), Variables: list}
}

func (b *unitBuilder) enhancedFor(n *syntaxNode) ast.Statement {
	defer b.enterScope()()
	o := &ast.Opaque{Span: b.span(n), Kind: n.kind}
	typeNode := n.child("type")
	if t := b.typeName(typeNode); t != nil {
		o.Children = append(o.Children, t)
	}
	if value := b.expr(n.child("value")); value != nil {
		o.Children = append(o.Children, value)
	}
	if nameNode := n.child("name"); nameNode != nil {
		name := b.text(nameNode)
		e := model.NewElement(model.KindLocalVariable, name, b.f.base+nameNode.start, b.ownerElement())
		b.scope.bind(name, binding{element: e, typ: typeText(typeNode, b.src)})
	}
	if body := b.stmt(n.child("body")); body != nil {
		o.Children = append(o.Children, body)
	}
	return o
}

// constructorInvocation maps this(...) and super(...) to a reference to the
// invoked constructor.
func (b *unitBuilder) constructorInvocation(n *syntaxNode) ast.Statement {
	target := n.child("constructor")
	args := b.arguments(n.child("arguments"))
	if target == nil || b.class == nil {
		return &ast.Opaque{Span: b.span(n), Kind: n.kind, Children: expressionNodes(args)}
	}
	var class *classInfo
	switch target.kind {
	case "this":
		class = b.class
	case "super":
		class = b.p.lookupType(b.class.file, b.class.outer, b.class.superName)
	}
	creation := &ast.InstanceCreation{Span: b.span(target), Period: -1, Arguments: args}
	if class != nil {
		creation.Element = class.constructor
	}
	return &ast.ExpressionStatement{Span: b.span(n), Expression: creation}
}

func expressionNodes(exprs []ast.Expression) []ast.Node {
	out := make([]ast.Node, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, e)
	}
	return out
}

// opaque keeps the children of an unmodelled construct so that references
// inside it are still seen.
func (b *unitBuilder) opaque(n *syntaxNode) *ast.Opaque {
	if scopedKinds[n.kind] {
		defer b.enterScope()()
	}
	o := &ast.Opaque{Span: b.span(n), Kind: n.kind}
	for _, c := range n.namedChildren() {
		if skippedKinds[c.kind] {
			continue
		}
		if child := b.node(c); child != nil {
			o.Children = append(o.Children, child)
		}
	}
	return o
}

func (b *unitBuilder) node(n *syntaxNode) ast.Node {
	switch {
	case statementKinds[n.kind]:
		if s := b.stmt(n); s != nil {
			return s
		}
		return nil
	case n.kind == "catch_formal_parameter":
		return b.catchParameter(n)
	case n.kind == "resource":
		return b.resource(n)
	case n.kind == "class_body":
		// anonymous classes are not declared
		return nil
	}
	if e := b.expr(n); e != nil {
		return e
	}
	return nil
}

func (b *unitBuilder) catchParameter(n *syntaxNode) ast.Node {
	catchType := n.ofKind("catch_type")
	typ := ""
	if catchType != nil {
		typ = typeText(catchType.firstNamed(), b.src)
	}
	if nameNode := n.child("name"); nameNode != nil {
		b.bindParameter(nameNode, typ)
	}
	if catchType == nil {
		return nil
	}
	return b.opaque(catchType)
}

func (b *unitBuilder) resource(n *syntaxNode) ast.Node {
	nameNode := n.child("name")
	if nameNode == nil {
		return b.expr(n.firstNamed())
	}
	typeNode := n.child("type")
	o := &ast.Opaque{Span: b.span(n), Kind: n.kind}
	if t := b.typeName(typeNode); t != nil {
		o.Children = append(o.Children, t)
	}
	if value := b.expr(n.child("value")); value != nil {
		o.Children = append(o.Children, value)
	}
	name := b.text(nameNode)
	e := model.NewElement(model.KindLocalVariable, name, b.f.base+nameNode.start, b.ownerElement())
	b.scope.bind(name, binding{element: e, typ: typeText(typeNode, b.src)})
	return o
}

func (b *unitBuilder) expr(n *syntaxNode) ast.Expression {
	if n == nil {
		return nil
	}
	if typ, ok := literalTypes[n.kind]; ok {
		return &ast.Literal{Span: b.span(n), Value: b.text(n), StaticType: typ}
	}
	switch n.kind {
	case "identifier":
		return b.name(n)
	case "parenthesized_expression":
		return b.expr(n.firstNamed())
	case "field_access":
		return b.fieldAccess(n)
	case "method_invocation":
		return b.invocation(n)
	case "object_creation_expression":
		return b.creation(n)
	case "assignment_expression":
		return &ast.AssignmentExpression{
			Span:     b.span(n),
			Left:     b.expr(n.child("left")),
			Operator: b.text(n.child("operator")),
			Right:    b.expr(n.child("right")),
		}
	case "update_expression":
		return b.update(n)
	case "unary_expression":
		return &ast.PrefixExpression{
			Span:     b.span(n),
			Operator: b.text(n.child("operator")),
			Operand:  b.expr(n.child("operand")),
		}
	case "binary_expression":
		return &ast.BinaryExpression{
			Span:     b.span(n),
			Left:     b.expr(n.child("left")),
			Operator: b.text(n.child("operator")),
			Right:    b.expr(n.child("right")),
		}
	case "this":
		return &ast.ThisExpression{Span: b.span(n), StaticType: b.className()}
	case "super":
		return &ast.SuperExpression{Span: b.span(n), StaticType: b.superName()}
	case "lambda_expression":
		return b.lambda(n)
	case "type_identifier", "scoped_type_identifier", "generic_type", "array_type":
		if t := b.typeName(n); t != nil {
			return t
		}
		return nil
	}
	if isPrimitiveType(n.kind) || skippedKinds[n.kind] {
		return nil
	}
	return b.opaque(n)
}

func (b *unitBuilder) className() string {
	if b.class == nil {
		return ""
	}
	return b.class.name
}

func (b *unitBuilder) superName() string {
	if b.class == nil {
		return ""
	}
	return b.class.superName
}

// superClass returns the project superclass of the current class.
func (b *unitBuilder) superClass() *classInfo {
	if b.class == nil {
		return nil
	}
	return b.p.lookupType(b.class.file, b.class.outer, b.class.superName)
}

// name resolves a simple name used as a value: locals and parameters first,
// then fields of the enclosing classes, static imports and finally classes.
func (b *unitBuilder) name(n *syntaxNode) *ast.Identifier {
	name := b.text(n)
	if bd, ok := b.scope.lookup(name); ok {
		return b.ident(n, bd.element, bd.typ)
	}
	for c := b.class; c != nil; c = c.outer {
		if m := b.p.findMember(c, name, false); m != nil {
			return b.ident(n, m.element, m.typ)
		}
	}
	if m := b.findStatic(name, false); m != nil {
		return b.ident(n, m.element, m.typ)
	}
	if c := b.resolveType(name); c != nil {
		return b.ident(n, c.element, "")
	}
	return b.ident(n, nil, "")
}

func (b *unitBuilder) findStatic(name string, method bool) *memberInfo {
	for _, s := range b.statics {
		if s.owner == nil || (s.member != "" && s.member != name) {
			continue
		}
		if m := b.p.findMember(s.owner, name, method); m != nil {
			return m
		}
	}
	return nil
}

// classOf returns the project class an expression evaluates to, or whose
// static members it names.
func (b *unitBuilder) classOf(expr ast.Expression) *classInfo {
	if id, ok := expr.(*ast.Identifier); ok && id.Element != nil && id.Element.Kind() == model.KindClass {
		return b.resolveType(id.Name)
	}
	return b.resolveType(ast.StaticTypeOf(expr))
}

func (b *unitBuilder) fieldAccess(n *syntaxNode) ast.Expression {
	object, field := n.child("object"), n.child("field")
	if object == nil || field == nil || field.kind != "identifier" {
		return b.opaque(n)
	}
	name := b.text(field)
	switch object.kind {
	case "this":
		m := b.p.findMember(b.class, name, false)
		return &ast.PropertyAccess{Span: b.span(n), Target: b.expr(object), Name: b.ident(field, memberElement(m), memberType(m))}
	case "super":
		m := b.p.findMember(b.superClass(), name, false)
		return &ast.PropertyAccess{Span: b.span(n), Target: b.expr(object), Name: b.ident(field, memberElement(m), memberType(m))}
	case "identifier":
		prefix := b.name(object)
		var m *memberInfo
		if owner := b.classOf(prefix); owner != nil {
			m = b.p.findMember(owner, name, false)
		}
		return &ast.PrefixedIdentifier{Span: b.span(n), Prefix: prefix, Name: b.ident(field, memberElement(m), memberType(m))}
	}
	target := b.expr(object)
	var m *memberInfo
	if owner := b.classOf(target); owner != nil {
		m = b.p.findMember(owner, name, false)
	}
	return &ast.PropertyAccess{Span: b.span(n), Target: target, Name: b.ident(field, memberElement(m), memberType(m))}
}

func (b *unitBuilder) invocation(n *syntaxNode) ast.Expression {
	nameNode := n.child("name")
	if nameNode == nil {
		return b.opaque(n)
	}
	name := b.text(nameNode)
	mi := &ast.MethodInvocation{Span: b.span(n)}
	var m *memberInfo
	switch object := n.child("object"); {
	case object == nil:
		for c := b.class; c != nil && m == nil; c = c.outer {
			m = b.p.findMember(c, name, true)
		}
		if m == nil {
			m = b.findStatic(name, true)
		}
	case object.kind == "this":
		mi.Target = b.expr(object)
		m = b.p.findMember(b.class, name, true)
	case object.kind == "super":
		mi.Target = b.expr(object)
		m = b.p.findMember(b.superClass(), name, true)
	default:
		mi.Target = b.expr(object)
		if owner := b.classOf(mi.Target); owner != nil {
			m = b.p.findMember(owner, name, true)
		}
	}
	mi.Name = b.ident(nameNode, memberElement(m), "")
	mi.StaticType = memberType(m)
	mi.Arguments = b.arguments(n.child("arguments"))
	return mi
}

func (b *unitBuilder) arguments(n *syntaxNode) []ast.Expression {
	var out []ast.Expression
	for _, c := range n.namedChildren() {
		if isComment(c) {
			continue
		}
		if e := b.expr(c); e != nil {
			out = append(out, e)
		}
	}
	return out
}

func (b *unitBuilder) creation(n *syntaxNode) ast.Expression {
	typeNode := n.child("type")
	ic := &ast.InstanceCreation{
		Span:      b.span(n),
		Type:      b.typeName(typeNode),
		Period:    -1,
		Arguments: b.arguments(n.child("arguments")),
	}
	if c := b.resolveType(typeText(typeNode, b.src)); c != nil {
		ic.Element = c.constructor
	}
	return ic
}

func (b *unitBuilder) update(n *syntaxNode) ast.Expression {
	operand := b.expr(n.firstNamed())
	if len(n.children) == 0 {
		return operand
	}
	if first := n.children[0]; !first.named {
		return &ast.PrefixExpression{Span: b.span(n), Operator: first.kind, Operand: operand}
	}
	last := n.children[len(n.children)-1]
	return &ast.PostfixExpression{Span: b.span(n), Operand: operand, Operator: last.kind}
}

func (b *unitBuilder) lambda(n *syntaxNode) ast.Expression {
	defer b.enterScope()()
	o := &ast.Opaque{Span: b.span(n), Kind: n.kind}
	switch params := n.child("parameters"); {
	case params == nil:
	case params.kind == "identifier":
		b.bindParameter(params, "")
	case params.kind == "inferred_parameters":
		for _, id := range params.namedChildren() {
			if id.kind == "identifier" {
				b.bindParameter(id, "")
			}
		}
	case params.kind == "formal_parameters":
		for _, prm := range b.parameters(params) {
			if prm.Type != nil {
				o.Children = append(o.Children, prm.Type)
			}
		}
	}
	if body := n.child("body"); body != nil {
		if body.kind == "block" {
			o.Children = append(o.Children, b.block(body))
		} else if e := b.expr(body); e != nil {
			o.Children = append(o.Children, e)
		}
	}
	return o
}
