package frontend

import (
	"regexp"
	"sort"

	"crossref/internal/engine/ast"
)

var (
	linkPattern = regexp.MustCompile(`\{@link(?:plain)?\s+([\w$.]*)(?:#([\w$]+))?`)
	seePattern  = regexp.MustCompile(`@see\s+([\w$.]*)(?:#([\w$]+))?`)
)

// docBefore returns the Javadoc comment directly preceding siblings[i],
// skipping other comments in between.
func (b *unitBuilder) docBefore(siblings []*syntaxNode, i int) *ast.Comment {
	for j := i - 1; j >= 0; j-- {
		prev := siblings[j]
		if isDocComment(prev, b.src) {
			return b.comment(prev)
		}
		if !isComment(prev) {
			return nil
		}
	}
	return nil
}

// comment extracts {@link Type#member} and @see references.
func (b *unitBuilder) comment(n *syntaxNode) *ast.Comment {
	c := &ast.Comment{Span: b.span(n)}
	text := b.text(n)
	for _, pattern := range []*regexp.Regexp{linkPattern, seePattern} {
		for _, m := range pattern.FindAllStringSubmatchIndex(text, -1) {
			c.References = append(c.References, b.commentReferences(n.start, text, m)...)
		}
	}
	sort.Slice(c.References, func(i, j int) bool {
		return c.References[i].Off < c.References[j].Off
	})
	return c
}

// commentReferences resolves one match. m holds the submatch indexes of the
// type and the optional member.
func (b *unitBuilder) commentReferences(start int, text string, m []int) []*ast.CommentReference {
	var refs []*ast.CommentReference
	owner := b.class
	end := m[3]
	for end > m[2] && text[end-1] == '.' {
		end--
	}
	if typeName := text[m[2]:end]; typeName != "" {
		owner = b.resolveType(typeName)
		last := lastSegment(typeName)
		off := b.f.base + start + end - len(last)
		id := &ast.Identifier{Span: ast.Span{Off: off, Len: len(last)}, Name: last}
		if owner != nil {
			id.Element = owner.element
		}
		refs = append(refs, &ast.CommentReference{Span: id.Span, Identifier: id})
	}
	if m[4] < 0 {
		return refs
	}
	member := text[m[4]:m[5]]
	id := &ast.Identifier{Span: ast.Span{Off: b.f.base + start + m[4], Len: len(member)}, Name: member}
	if owner != nil {
		found := b.p.findMember(owner, member, true)
		if found == nil {
			found = b.p.findMember(owner, member, false)
		}
		id.Element = memberElement(found)
	}
	return append(refs, &ast.CommentReference{Span: id.Span, Identifier: id})
}
