package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	domainerrors "crossref/internal/core/errors"
	"crossref/internal/core/ports"
	"crossref/internal/engine/model"
)

// FindReferences lists the locations related to a class or class member
// declared in a Java file. Without a relationship every recorded one is listed.
// Results are ordered by relationship, path and offset.
func (a *App) FindReferences(ctx context.Context, req ports.ReferencesRequest) ([]ports.Reference, error) {
	if strings.TrimSpace(req.Class) == "" {
		return nil, domainerrors.AddContext(
			domainerrors.New(domainerrors.CodeValidationError, "class name is required"),
			domainerrors.CtxField, "class")
	}
	rel, err := a.projectPath(req.Path)
	if err != nil {
		return nil, err
	}
	lib := a.analyzer.Library(rel)
	if lib == nil {
		return nil, domainerrors.AddContext(
			domainerrors.New(domainerrors.CodeNotFound, "file is not indexed"),
			domainerrors.CtxPath, rel)
	}

	targets := targetElements(lib.DefiningUnit(), req.Class, req.Member)

	contents := make(map[string][]byte)
	var refs []ports.Reference
	for _, target := range targets {
		found, err := a.relationships(ctx, target, req.Relationship)
		if err != nil {
			return nil, err
		}
		for relationship, locations := range found {
			for _, loc := range locations {
				refs = append(refs, a.reference(relationship, loc, contents))
			}
		}
	}

	sort.SliceStable(refs, func(i, j int) bool {
		if refs[i].Relationship != refs[j].Relationship {
			return refs[i].Relationship < refs[j].Relationship
		}
		if refs[i].Path != refs[j].Path {
			return refs[i].Path < refs[j].Path
		}
		return refs[i].Offset < refs[j].Offset
	})
	return refs, nil
}

func (a *App) relationships(ctx context.Context, target *model.Element, relationship model.Relationship) (map[model.Relationship][]*model.Location, error) {
	if relationship == "" {
		return a.index.AllRelationships(ctx, target)
	}
	locations, err := a.index.Relationships(ctx, target, relationship)
	if err != nil {
		return nil, err
	}
	return map[model.Relationship][]*model.Location{relationship: locations}, nil
}

// projectPath accepts a path relative to the root or an absolute path below
// it and returns the project path.
func (a *App) projectPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", domainerrors.AddContext(
			domainerrors.New(domainerrors.CodeValidationError, "path is required"),
			domainerrors.CtxField, "path")
	}
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(filepath.Clean(path)), nil
	}
	rel, ok := a.relative(path)
	if !ok {
		return "", domainerrors.AddContext(
			domainerrors.New(domainerrors.CodeValidationError, "path is outside the project root"),
			domainerrors.CtxPath, path)
	}
	return rel, nil
}

// targetElements rebuilds the elements named by a dotted class path and an
// optional member. A member may be a method or a field, and a member named
// like its class also stands for the constructor.
func targetElements(unit *model.Element, class, member string) []*model.Element {
	owner := unit
	var simple string
	for _, part := range strings.Split(class, ".") {
		simple = part
		owner = model.NewElement(model.KindClass, part, 0, owner)
	}
	if member == "" {
		return []*model.Element{owner}
	}
	targets := []*model.Element{
		model.NewElement(model.KindMethod, member, 0, owner),
		model.NewElement(model.KindField, member, 0, owner),
	}
	if member == simple {
		targets = append(targets, model.NewElement(model.KindConstructor, "", 0, owner))
	}
	return targets
}

func (a *App) reference(relationship model.Relationship, loc *model.Location, contents map[string][]byte) ports.Reference {
	ref := ports.Reference{
		Relationship: relationship,
		Offset:       loc.Offset,
		Length:       loc.Length,
		Enclosing:    enclosingName(loc.Element),
	}
	src, ok := model.SourceOf(loc.Element)
	if !ok {
		return ref
	}
	ref.Path = src.Path

	content, seen := contents[src.Path]
	if !seen {
		var err error
		content, err = os.ReadFile(a.absolute(src.Path))
		if err != nil {
			content = nil
		}
		contents[src.Path] = content
	}
	ref.Line, ref.Column = lineColumn(content, loc.Offset)
	return ref
}

// lineColumn converts a byte offset into a 1-based line and column. Both are
// zero when the offset falls outside content.
func lineColumn(content []byte, offset int) (int, int) {
	if offset < 0 || offset > len(content) {
		return 0, 0
	}
	prefix := content[:offset]
	line := bytes.Count(prefix, []byte{'\n'}) + 1
	col := offset - (bytes.LastIndexByte(prefix, '\n') + 1) + 1
	return line, col
}

// enclosingName renders the declarations between the unit and e, outermost
// first, e.g. "Square.area".
func enclosingName(e *model.Element) string {
	var parts []string
	for cur := e; cur != nil && !isContainer(cur.Kind()); cur = cur.Enclosing() {
		if cur.Kind() == model.KindConstructor {
			parts = append(parts, "<init>")
			continue
		}
		parts = append(parts, cur.Name())
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

func isContainer(kind model.ElementKind) bool {
	switch kind {
	case model.KindUnit, model.KindHTML, model.KindLibrary, model.KindUniverse:
		return true
	}
	return false
}
