// Package ast is the resolved syntax tree handed to the relationship
// extractor by an analysis engine. Identifiers carry the element they resolve
// to, or nil when resolution failed; every other field may be nil on partially
// resolved trees.
package ast

import (
	"reflect"

	"crossref/internal/engine/model"
)

// Node is any syntax node. Offsets are byte offsets into the unit's source.
type Node interface {
	Offset() int
	End() int
}

// Span is embedded by every node.
type Span struct {
	Off int
	Len int
}

func (s Span) Offset() int { return s.Off }
func (s Span) End() int    { return s.Off + s.Len }
func (s Span) Length() int { return s.Len }

// SpanOf returns a span covering [start, end).
func SpanOf(start, end int) Span {
	if end < start {
		end = start
	}
	return Span{Off: start, Len: end - start}
}

// Expression is a node producing a value.
type Expression interface {
	Node
	exprNode()
}

// Statement is a node inside a body.
type Statement interface {
	Node
	stmtNode()
}

// Declaration is a unit-level declaration.
type Declaration interface {
	Node
	declNode()
}

// ClassMember is a member of a class body.
type ClassMember interface {
	Node
	memberNode()
}

// Directive is an import/export/part/library directive.
type Directive interface {
	Node
	directiveNode()
}

// CompilationUnit is one resolved source file. Element is nil when the unit
// could not be resolved at all.
type CompilationUnit struct {
	Span
	Element      *model.Element
	Directives   []Directive
	Declarations []Declaration
}

// Library returns the library of the unit element, or nil.
func (u *CompilationUnit) Library() *model.Element {
	if u == nil || u.Element == nil {
		return nil
	}
	return u.Element.Library()
}

// HTMLUnit is an HTML file embedding or referencing script units.
type HTMLUnit struct {
	Span
	Element *model.Element
	Scripts []*HTMLScript
}

// HTMLScript is one <script> element. Source is the span of the src
// attribute value of an external script whose library is Library; inline
// scripts carry their parsed Unit.
type HTMLScript struct {
	Span
	Source  *Span
	Library *model.Element
	Unit    *CompilationUnit
}

// Identifier is a simple name. Element is the resolved declaration.
type Identifier struct {
	Span
	Name       string
	Element    *model.Element
	StaticType string
}

func (*Identifier) exprNode() {}

// Comment is a documentation comment with cross references.
type Comment struct {
	Span
	References []*CommentReference
}

// CommentReference is a [Name] or {@link Name} inside a comment.
type CommentReference struct {
	Span
	Identifier *Identifier
}

// TypeName is a reference to a type, optionally through an import prefix.
type TypeName struct {
	Span
	Prefix        *Identifier
	Name          *Identifier
	TypeArguments []*TypeName
}

func (*TypeName) exprNode() {}

// Combinator is a show or hide clause of an import or export.
type Combinator struct {
	Span
	Hide  bool
	Names []*Identifier
}

// Allows reports whether the combinator permits name.
func (c *Combinator) Allows(name string) bool {
	for _, id := range c.Names {
		if id != nil && id.Name == name {
			return !c.Hide
		}
	}
	return c.Hide
}

type LibraryDirective struct {
	Span
	Comment *Comment
	Name    *Identifier
}

// ImportDirective imports Library. Element is the import element itself.
type ImportDirective struct {
	Span
	Comment     *Comment
	URI         Span
	Element     *model.Element
	Library     *model.Element
	Prefix      *Identifier
	Combinators []*Combinator
}

// Allows reports whether the combinators of the import let name through.
func (d *ImportDirective) Allows(name string) bool {
	for _, c := range d.Combinators {
		if c != nil && !c.Allows(name) {
			return false
		}
	}
	return true
}

type ExportDirective struct {
	Span
	Comment     *Comment
	URI         Span
	Element     *model.Element
	Library     *model.Element
	Combinators []*Combinator
}

type PartDirective struct {
	Span
	URI  Span
	Unit *model.Element
}

type PartOfDirective struct {
	Span
	LibraryName *Identifier
	Library     *model.Element
}

func (*LibraryDirective) directiveNode() {}
func (*ImportDirective) directiveNode()  {}
func (*ExportDirective) directiveNode()  {}
func (*PartDirective) directiveNode()    {}
func (*PartOfDirective) directiveNode()  {}

type TypeParameter struct {
	Span
	Name  *Identifier
	Bound *TypeName
}

type ClassDeclaration struct {
	Span
	Comment        *Comment
	Name           *Identifier
	Abstract       bool
	TypeParameters []*TypeParameter
	Extends        *TypeName
	With           []*TypeName
	Implements     []*TypeName
	Members        []ClassMember
}

// ClassTypeAlias is a named mixin application: class C = S with M;
type ClassTypeAlias struct {
	Span
	Comment    *Comment
	Name       *Identifier
	Superclass *TypeName
	With       []*TypeName
	Implements []*TypeName
}

type FunctionTypeAlias struct {
	Span
	Comment    *Comment
	Name       *Identifier
	ReturnType *TypeName
	Parameters []*Parameter
}

type FunctionDeclaration struct {
	Span
	Comment    *Comment
	Name       *Identifier
	ReturnType *TypeName
	Parameters []*Parameter
	Body       *Block
}

type TopLevelVariableDeclaration struct {
	Span
	Comment   *Comment
	Variables *VariableDeclarationList
}

type VariableDeclarationList struct {
	Span
	Type      *TypeName
	Variables []*VariableDeclaration
}

type VariableDeclaration struct {
	Span
	Comment     *Comment
	Name        *Identifier
	Initializer Expression
}

type Parameter struct {
	Span
	Type    *TypeName
	Name    *Identifier
	Default Expression
}

type FieldDeclaration struct {
	Span
	Comment   *Comment
	Static    bool
	Variables *VariableDeclarationList
}

type MethodKind int

const (
	MethodPlain MethodKind = iota
	MethodGetter
	MethodSetter
	MethodOperator
)

type MethodDeclaration struct {
	Span
	Comment    *Comment
	Kind       MethodKind
	Static     bool
	ReturnType *TypeName
	Name       *Identifier
	Parameters []*Parameter
	Body       *Block
}

// ConstructorDeclaration is either unnamed (Name nil) or named C.name, in which
// case Period is the offset of the dot. ReturnType is the class name token and
// Element the constructor.
type ConstructorDeclaration struct {
	Span
	Comment      *Comment
	ReturnType   *Identifier
	Period       int
	Name         *Identifier
	Element      *model.Element
	Parameters   []*Parameter
	Initializers []Expression
	Body         *Block
}

func (*ClassDeclaration) declNode()            {}
func (*ClassTypeAlias) declNode()              {}
func (*FunctionTypeAlias) declNode()           {}
func (*FunctionDeclaration) declNode()         {}
func (*TopLevelVariableDeclaration) declNode() {}

func (*FieldDeclaration) memberNode()       {}
func (*MethodDeclaration) memberNode()      {}
func (*ConstructorDeclaration) memberNode() {}
func (*ClassDeclaration) memberNode()       {}

type Block struct {
	Span
	Statements []Statement
}

type ExpressionStatement struct {
	Span
	Expression Expression
}

type VariableDeclarationStatement struct {
	Span
	Variables *VariableDeclarationList
}

type ReturnStatement struct {
	Span
	Expression Expression
}

type IfStatement struct {
	Span
	Condition Expression
	Then      Statement
	Else      Statement
}

type WhileStatement struct {
	Span
	Condition Expression
	Body      Statement
}

// FunctionDeclarationStatement declares a local function.
type FunctionDeclarationStatement struct {
	Span
	Function *FunctionDeclaration
}

func (*Block) stmtNode()                        {}
func (*ExpressionStatement) stmtNode()          {}
func (*VariableDeclarationStatement) stmtNode() {}
func (*ReturnStatement) stmtNode()              {}
func (*IfStatement) stmtNode()                  {}
func (*WhileStatement) stmtNode()               {}
func (*FunctionDeclarationStatement) stmtNode() {}

// PrefixedIdentifier is prefix.name where prefix is an import prefix, a
// class name or a variable.
type PrefixedIdentifier struct {
	Span
	Prefix *Identifier
	Name   *Identifier
}

// PropertyAccess is target.name for an arbitrary target expression.
type PropertyAccess struct {
	Span
	Target Expression
	Name   *Identifier
}

// MethodInvocation is [target.]name(arguments).
type MethodInvocation struct {
	Span
	Target     Expression
	Name       *Identifier
	Arguments  []Expression
	StaticType string
}

// InstanceCreation is new Type[.name](arguments). Element is the constructor;
// Period is only meaningful when ConstructorName is set.
type InstanceCreation struct {
	Span
	Type            *TypeName
	Period          int
	ConstructorName *Identifier
	Element         *model.Element
	Arguments       []Expression
}

// AssignmentExpression covers = and compound operators such as +=.
type AssignmentExpression struct {
	Span
	Left     Expression
	Operator string
	Right    Expression
}

// IsCompound reports whether the target is read before it is written.
func (a *AssignmentExpression) IsCompound() bool {
	return a.Operator != "" && a.Operator != "="
}

type PrefixExpression struct {
	Span
	Operator string
	Operand  Expression
}

type PostfixExpression struct {
	Span
	Operand  Expression
	Operator string
}

// IsIncrement reports whether the operator both reads and writes the operand.
func IsIncrement(op string) bool {
	return op == "++" || op == "--"
}

type BinaryExpression struct {
	Span
	Left     Expression
	Operator string
	Right    Expression
}

type Literal struct {
	Span
	Value      string
	StaticType string
}

type ThisExpression struct {
	Span
	StaticType string
}

type SuperExpression struct {
	Span
	StaticType string
}

// Opaque stands for a construct the analysis engine does not model. Its
// children are still visited.
type Opaque struct {
	Span
	Kind     string
	Children []Node
}

func (*PrefixedIdentifier) exprNode()   {}
func (*PropertyAccess) exprNode()       {}
func (*MethodInvocation) exprNode()     {}
func (*InstanceCreation) exprNode()     {}
func (*AssignmentExpression) exprNode() {}
func (*PrefixExpression) exprNode()     {}
func (*PostfixExpression) exprNode()    {}
func (*BinaryExpression) exprNode()     {}
func (*Literal) exprNode()              {}
func (*ThisExpression) exprNode()       {}
func (*SuperExpression) exprNode()      {}
func (*Opaque) exprNode()               {}
func (*Opaque) stmtNode()               {}

// StaticTypeOf returns the statically known type of expr, or "".
func StaticTypeOf(expr Expression) string {
	switch e := expr.(type) {
	case *Identifier:
		return e.StaticType
	case *PrefixedIdentifier:
		if e.Name != nil {
			return e.Name.StaticType
		}
	case *PropertyAccess:
		if e.Name != nil {
			return e.Name.StaticType
		}
	case *MethodInvocation:
		return e.StaticType
	case *InstanceCreation:
		if e.Type != nil && e.Type.Name != nil {
			return e.Type.Name.Name
		}
	case *AssignmentExpression:
		return StaticTypeOf(e.Right)
	case *Literal:
		return e.StaticType
	case *ThisExpression:
		return e.StaticType
	case *SuperExpression:
		return e.StaticType
	}
	return ""
}

// IsNil reports whether n is nil or a typed nil pointer, which partially
// resolved trees routinely contain in interface-typed fields.
func IsNil(n Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
