package frontend

import (
	domainerrors "crossref/internal/core/errors"
	"crossref/internal/shared/util"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_html "github.com/tree-sitter/tree-sitter-html/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
)

const (
	LanguageJava = "java"
	LanguageHTML = "html"
)

// GrammarLoader owns the compiled grammars and a parser pool per language.
type GrammarLoader struct {
	languages map[string]*sitter.Language
	pools     map[string]*parserPool
}

func NewGrammarLoader() *GrammarLoader {
	gl := &GrammarLoader{
		languages: map[string]*sitter.Language{
			LanguageJava: sitter.NewLanguage(tree_sitter_java.Language()),
			LanguageHTML: sitter.NewLanguage(tree_sitter_html.Language()),
		},
		pools: make(map[string]*parserPool),
	}
	for lang, grammar := range gl.languages {
		gl.pools[lang] = newParserPool(grammar)
	}
	return gl
}

// Languages returns the supported language ids, sorted.
func (gl *GrammarLoader) Languages() []string {
	return util.SortedStringKeys(gl.languages)
}

// parse runs tree-sitter over content and returns a detached syntax tree.
// Syntax errors do not fail the parse; the tree contains ERROR nodes instead.
func (gl *GrammarLoader) parse(lang string, content []byte) (*syntaxNode, error) {
	pool := gl.pools[lang]
	if pool == nil {
		return nil, domainerrors.AddContext(
			domainerrors.Newf(domainerrors.CodeNotSupported, "unsupported language: %s", lang),
			domainerrors.CtxLanguage, lang)
	}

	sp := pool.get()
	defer pool.put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return nil, domainerrors.AddContext(
			domainerrors.New(domainerrors.CodeInternal, "parse failed"),
			domainerrors.CtxLanguage, lang)
	}
	defer tree.Close()

	cursor := tree.Walk()
	defer cursor.Close()
	return convertTree(cursor), nil
}
