package frontend

import (
	"fmt"
	"log/slog"
	"path"
	"strings"

	domainerrors "crossref/internal/core/errors"
	"crossref/internal/engine/ast"
	"crossref/internal/engine/model"
)

// ResolveHTML parses an HTML page. A <script src> naming a declared file
// becomes a reference to that file's library; an inline script whose type is
// the project script type is parsed as Java. Classes of inline scripts are
// enclosed by the HTML element and visible only inside their script.
func (p *Project) ResolveHTML(filePath string, content []byte) (*ast.HTMLUnit, error) {
	if filePath == "" {
		return nil, domainerrors.New(domainerrors.CodeValidationError, "empty path")
	}
	ps, err := p.cache.parse(filePath, LanguageHTML, content)
	if err != nil {
		return nil, domainerrors.AddContext(err, domainerrors.CtxPath, filePath)
	}

	html := model.NewHTMLElement(p.Source(filePath))
	unit := &ast.HTMLUnit{Span: ast.SpanOf(0, len(ps.content)), Element: html}

	p.mu.RLock()
	defer p.mu.RUnlock()
	ps.root.find(func(n *syntaxNode) bool {
		if n.kind != "script_element" {
			return true
		}
		if script := p.htmlScript(filePath, html, n, ps.content); script != nil {
			unit.Scripts = append(unit.Scripts, script)
		}
		return false
	})
	slog.Debug("resolved html file", "path", filePath, "scripts", len(unit.Scripts))
	return unit, nil
}

func (p *Project) htmlScript(filePath string, html *model.Element, n *syntaxNode, content []byte) *ast.HTMLScript {
	attrs := scriptAttributes(n.ofKind("start_tag"), content)
	span := ast.SpanOf(n.start, n.end)

	if src, ok := attrs["src"]; ok {
		script := &ast.HTMLScript{Span: span}
		if src != nil {
			value := ast.SpanOf(src.start, src.end)
			script.Source = &value
			if f := p.files[scriptPath(filePath, src.text(content))]; f != nil {
				script.Library = f.library
			}
		}
		return script
	}

	typ, ok := attrs["type"]
	if !ok || typ == nil || !strings.EqualFold(strings.TrimSpace(typ.text(content)), p.scriptType) {
		return nil
	}
	raw := n.ofKind("raw_text")
	if raw == nil {
		return nil
	}

	key := fmt.Sprintf("%s#script@%d", filePath, raw.start)
	ps, err := p.cache.parse(key, LanguageJava, content[raw.start:raw.end])
	if err != nil {
		slog.Warn("inline script parse failed", "path", filePath, "offset", raw.start, "error", err)
		return nil
	}
	f := newJavaFile(filePath, ps, raw.start)
	f.container = html
	f.declare()
	return &ast.HTMLScript{Span: span, Unit: newUnitBuilder(p, f).unit()}
}

// scriptAttributes maps attribute names to their value nodes. Attributes
// without a value map to nil.
func scriptAttributes(startTag *syntaxNode, content []byte) map[string]*syntaxNode {
	attrs := make(map[string]*syntaxNode)
	for _, attr := range startTag.namedChildren() {
		if attr.kind != "attribute" {
			continue
		}
		name := attr.ofKind("attribute_name")
		if name == nil {
			continue
		}
		var value *syntaxNode
		if v := attr.ofKind("attribute_value"); v != nil {
			value = v
		} else if q := attr.ofKind("quoted_attribute_value"); q != nil {
			value = q.ofKind("attribute_value")
		}
		attrs[strings.ToLower(name.text(content))] = value
	}
	return attrs
}

// scriptPath maps a src attribute to a project path. Absolute URLs map to "".
func scriptPath(htmlPath, src string) string {
	src = strings.TrimSpace(src)
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	if src == "" || strings.Contains(src, "://") || strings.HasPrefix(src, "//") {
		return ""
	}
	if strings.HasPrefix(src, "/") {
		return strings.TrimPrefix(path.Clean(src), "/")
	}
	return path.Clean(path.Join(path.Dir(htmlPath), src))
}
