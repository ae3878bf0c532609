package frontend

import (
	"strings"

	"crossref/internal/engine/model"
)

// javaFile holds the declarations of one Java source, or of one inline HTML
// script. Inline scripts have no library; their container is the HTML
// element and base shifts every offset into the HTML file.
type javaFile struct {
	path      string
	pkg       string
	library   *model.Element
	container *model.Element
	parsed    *parsedSource
	base      int

	imports []importInfo
	classes map[string]*classInfo
	byNode  map[int]*classInfo
	all     []*classInfo
}

type importInfo struct {
	node     *syntaxNode
	name     string
	static   bool
	wildcard bool
}

type classInfo struct {
	element     *model.Element
	name        string
	qualified   string
	kind        string
	file        *javaFile
	outer       *classInfo
	superName   string
	interfaces  []string
	constructor *model.Element
	fields      map[string]*memberInfo
	methods     map[string]*memberInfo
	nested      map[string]*classInfo
}

// memberInfo is a field or method; overloads of a method share one entry.
type memberInfo struct {
	element *model.Element
	typ     string
}

func newJavaFile(filePath string, ps *parsedSource, base int) *javaFile {
	return &javaFile{
		path:    filePath,
		parsed:  ps,
		base:    base,
		classes: make(map[string]*classInfo),
		byNode:  make(map[int]*classInfo),
	}
}

func (f *javaFile) src() []byte {
	return f.parsed.content
}

func (f *javaFile) declarePackage() {
	for _, n := range f.parsed.root.children {
		if n.kind != "package_declaration" {
			continue
		}
		if name := qualifiedNameNode(n); name != nil {
			f.pkg = compactName(name.text(f.src()))
		}
		return
	}
}

// declare registers imports and every class declared in the file. The
// container element must be set.
func (f *javaFile) declare() {
	for _, n := range f.parsed.root.children {
		switch {
		case n.kind == "import_declaration":
			if imp, ok := f.parseImport(n); ok {
				f.imports = append(f.imports, imp)
			}
		case isTypeDeclaration(n.kind):
			if c := f.declareClass(n, nil); c != nil {
				f.classes[c.name] = c
			}
		}
	}
}

func (f *javaFile) parseImport(n *syntaxNode) (importInfo, bool) {
	name := qualifiedNameNode(n)
	if name == nil {
		return importInfo{}, false
	}
	return importInfo{
		node:     n,
		name:     compactName(name.text(f.src())),
		static:   n.hasToken("static"),
		wildcard: n.ofKind("asterisk") != nil,
	}, true
}

func (f *javaFile) declareClass(n *syntaxNode, outer *classInfo) *classInfo {
	nameNode := n.child("name")
	if nameNode == nil {
		return nil
	}
	src := f.src()
	name := nameNode.text(src)
	enclosing := f.container
	qualified := name
	switch {
	case outer != nil:
		enclosing = outer.element
		qualified = outer.qualified + "." + name
	case f.pkg != "":
		qualified = f.pkg + "." + name
	}

	offset := f.base + nameNode.start
	c := &classInfo{
		element:   model.NewElement(model.KindClass, name, offset, enclosing),
		name:      name,
		qualified: qualified,
		kind:      n.kind,
		file:      f,
		outer:     outer,
		fields:    make(map[string]*memberInfo),
		methods:   make(map[string]*memberInfo),
		nested:    make(map[string]*classInfo),
	}
	c.constructor = model.NewElement(model.KindConstructor, "", offset, c.element)

	switch n.kind {
	case "class_declaration":
		if sc := n.child("superclass"); sc != nil {
			c.superName = typeText(sc.firstNamed(), src)
		}
		c.interfaces = typeListNames(n.child("interfaces"), src)
	case "interface_declaration":
		c.interfaces = typeListNames(n.ofKind("extends_interfaces"), src)
	case "enum_declaration":
		c.interfaces = typeListNames(n.child("interfaces"), src)
	case "record_declaration":
		c.interfaces = typeListNames(n.child("interfaces"), src)
		for _, prm := range n.child("parameters").namedChildren() {
			if prm.kind == "formal_parameter" {
				c.addMember(model.KindField, prm.child("name"), typeText(prm.child("type"), src))
			}
		}
	}

	f.byNode[n.start] = c
	f.all = append(f.all, c)
	f.declareMembers(c, n.child("body"))
	return c
}

func (f *javaFile) declareMembers(c *classInfo, body *syntaxNode) {
	if body == nil {
		return
	}
	src := f.src()
	for _, m := range body.children {
		switch m.kind {
		case "field_declaration", "constant_declaration":
			typ := typeText(m.child("type"), src)
			for _, d := range m.fields("declarator") {
				c.addMember(model.KindField, d.child("name"), typ)
			}
		case "method_declaration":
			c.addMember(model.KindMethod, m.child("name"), typeText(m.child("type"), src))
		case "enum_constant":
			c.addMember(model.KindField, m.child("name"), c.name)
		case "enum_body_declarations":
			f.declareMembers(c, m)
		default:
			if isTypeDeclaration(m.kind) {
				if nested := f.declareClass(m, c); nested != nil {
					c.nested[nested.name] = nested
				}
			}
		}
	}
}

// addMember declares a field or method unless one of that name exists.
func (c *classInfo) addMember(kind model.ElementKind, nameNode *syntaxNode, typ string) {
	if nameNode == nil {
		return
	}
	name := nameNode.text(c.file.src())
	table := c.fields
	if kind == model.KindMethod {
		table = c.methods
	}
	if table[name] != nil {
		return
	}
	table[name] = &memberInfo{
		element: model.NewElement(kind, name, c.file.base+nameNode.start, c.element),
		typ:     typ,
	}
}

func isTypeDeclaration(kind string) bool {
	switch kind {
	case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
		return true
	}
	return false
}

func isPrimitiveType(kind string) bool {
	switch kind {
	case "integral_type", "floating_point_type", "boolean_type", "void_type":
		return true
	}
	return false
}

// qualifiedNameNode returns the identifier or scoped identifier child of a
// package or import declaration.
func qualifiedNameNode(n *syntaxNode) *syntaxNode {
	for _, c := range n.children {
		if c.kind == "identifier" || c.kind == "scoped_identifier" {
			return c
		}
	}
	return nil
}

// typeText returns the name used to look a type up: generic arguments are
// dropped and array types keep their brackets.
func typeText(n *syntaxNode, src []byte) string {
	if n == nil {
		return ""
	}
	switch n.kind {
	case "generic_type":
		for _, c := range n.namedChildren() {
			if c.kind == "type_identifier" || c.kind == "scoped_type_identifier" {
				return typeText(c, src)
			}
		}
		return ""
	case "array_type":
		return typeText(n.child("element"), src) + "[]"
	case "annotated_type":
		named := n.namedChildren()
		if len(named) == 0 {
			return ""
		}
		return typeText(named[len(named)-1], src)
	}
	return compactName(n.text(src))
}

func typeListNames(n *syntaxNode, src []byte) []string {
	list := n.ofKind("type_list")
	if list == nil {
		return nil
	}
	var out []string
	for _, t := range list.namedChildren() {
		if name := typeText(t, src); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func hasModifier(n *syntaxNode, modifier string) bool {
	mods := n.ofKind("modifiers")
	return mods != nil && mods.hasToken(modifier)
}

func compactName(s string) string {
	return strings.Join(strings.Fields(s), "")
}
