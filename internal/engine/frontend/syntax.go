package frontend

import (
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// syntaxNode is a detached copy of a tree-sitter node. Trees are converted
// once after parsing so that cached trees hold no cgo resources.
type syntaxNode struct {
	kind     string
	field    string
	start    int
	end      int
	named    bool
	children []*syntaxNode
}

// convertTree copies the subtree under the cursor.
func convertTree(c *sitter.TreeCursor) *syntaxNode {
	n := c.Node()
	sn := &syntaxNode{
		kind:  n.Kind(),
		field: c.FieldName(),
		start: int(n.StartByte()),
		end:   int(n.EndByte()),
		named: n.IsNamed(),
	}
	if c.GotoFirstChild() {
		for {
			sn.children = append(sn.children, convertTree(c))
			if !c.GotoNextSibling() {
				break
			}
		}
		c.GotoParent()
	}
	return sn
}

func (n *syntaxNode) text(src []byte) string {
	if n == nil || n.start < 0 || n.end > len(src) || n.start > n.end {
		return ""
	}
	return string(src[n.start:n.end])
}

// child returns the first child stored under field.
func (n *syntaxNode) child(field string) *syntaxNode {
	if n == nil {
		return nil
	}
	for _, c := range n.children {
		if c.field == field {
			return c
		}
	}
	return nil
}

// fields returns every child stored under field, in order.
func (n *syntaxNode) fields(field string) []*syntaxNode {
	if n == nil {
		return nil
	}
	var out []*syntaxNode
	for _, c := range n.children {
		if c.field == field {
			out = append(out, c)
		}
	}
	return out
}

// ofKind returns the first child of the given kind.
func (n *syntaxNode) ofKind(kind string) *syntaxNode {
	if n == nil {
		return nil
	}
	for _, c := range n.children {
		if c.kind == kind {
			return c
		}
	}
	return nil
}

func (n *syntaxNode) namedChildren() []*syntaxNode {
	if n == nil {
		return nil
	}
	out := make([]*syntaxNode, 0, len(n.children))
	for _, c := range n.children {
		if c.named {
			out = append(out, c)
		}
	}
	return out
}

// firstNamed returns the first named child that is not a comment.
func (n *syntaxNode) firstNamed() *syntaxNode {
	for _, c := range n.namedChildren() {
		if !isComment(c) {
			return c
		}
	}
	return nil
}

// hasToken reports whether an anonymous child with the given text exists.
func (n *syntaxNode) hasToken(kind string) bool {
	if n == nil {
		return false
	}
	for _, c := range n.children {
		if !c.named && c.kind == kind {
			return true
		}
	}
	return false
}

func isComment(n *syntaxNode) bool {
	return n != nil && (n.kind == "line_comment" || n.kind == "block_comment" || n.kind == "comment")
}

func isDocComment(n *syntaxNode, src []byte) bool {
	return n != nil && n.kind == "block_comment" && strings.HasPrefix(n.text(src), "/**")
}

// find calls fn for every node in document order until fn returns false for a
// node, in which case its children are skipped.
func (n *syntaxNode) find(fn func(*syntaxNode) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.children {
		c.find(fn)
	}
}
