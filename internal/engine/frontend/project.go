// Package frontend is a best-effort analysis engine for Java sources and the
// HTML pages embedding them. It parses files with tree-sitter and resolves
// names lexically: locals, parameters, class members including those of
// project superclasses, and classes visible through the file, its package and
// its imports. Anything else is left unresolved.
package frontend

import (
	"log/slog"
	"path"
	"strings"
	"sync"

	domainerrors "crossref/internal/core/errors"
	"crossref/internal/engine/ast"
	"crossref/internal/engine/model"
	"crossref/internal/shared/util"
)

const DefaultScriptType = "text/x-java"

// Project is one analysis context: the declared Java files below a root.
// Paths are slash separated and relative to the root.
type Project struct {
	id         model.ContextID
	cache      *ParseCache
	scriptType string

	mu        sync.RWMutex
	files     map[string]*javaFile
	packages  map[string]map[string]*javaFile
	qualified map[string]*classInfo
}

type Option func(*Project)

// WithScriptType sets the type attribute that marks inline HTML scripts as
// Java.
func WithScriptType(scriptType string) Option {
	return func(p *Project) {
		if scriptType != "" {
			p.scriptType = scriptType
		}
	}
}

func NewProject(id model.ContextID, cache *ParseCache, opts ...Option) *Project {
	p := &Project{
		id:         id,
		cache:      cache,
		scriptType: DefaultScriptType,
		files:      make(map[string]*javaFile),
		packages:   make(map[string]map[string]*javaFile),
		qualified:  make(map[string]*classInfo),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Project) ID() model.ContextID {
	return p.id
}

// Source returns the source identity of path in this project.
func (p *Project) Source(path string) model.Source {
	return model.Source{Context: p.id, Path: path}
}

// Declare parses a Java file and registers its library, unit, classes and
// members. Re-declaring a path replaces its previous declarations.
func (p *Project) Declare(filePath string, content []byte) error {
	if filePath == "" {
		return domainerrors.New(domainerrors.CodeValidationError, "empty path")
	}
	ps, err := p.cache.parse(filePath, LanguageJava, content)
	if err != nil {
		return domainerrors.AddContext(err, domainerrors.CtxPath, filePath)
	}

	f := newJavaFile(filePath, ps, 0)
	f.declarePackage()
	f.library = model.NewLibrary(libraryName(f.pkg, filePath), p.Source(filePath))
	f.container = f.library.DefiningUnit()
	f.declare()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.forgetLocked(filePath)
	p.files[filePath] = f
	if p.packages[f.pkg] == nil {
		p.packages[f.pkg] = make(map[string]*javaFile)
	}
	p.packages[f.pkg][filePath] = f
	for _, c := range f.all {
		p.qualified[c.qualified] = c
	}
	slog.Debug("declared java file", "path", filePath, "package", f.pkg, "classes", len(f.all))
	return nil
}

// Forget drops the declarations of path. It reports whether path was declared.
func (p *Project) Forget(filePath string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.forgetLocked(filePath)
}

func (p *Project) forgetLocked(filePath string) bool {
	f := p.files[filePath]
	if f == nil {
		return false
	}
	delete(p.files, filePath)
	if files := p.packages[f.pkg]; files != nil {
		delete(files, filePath)
		if len(files) == 0 {
			delete(p.packages, f.pkg)
		}
	}
	for _, c := range f.all {
		if p.qualified[c.qualified] == c {
			delete(p.qualified, c.qualified)
		}
	}
	return true
}

// Declared reports whether path has been declared.
func (p *Project) Declared(filePath string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.files[filePath] != nil
}

// Paths returns the declared paths, sorted.
func (p *Project) Paths() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return util.SortedStringKeys(p.files)
}

// Library returns the library element of a declared file.
func (p *Project) Library(filePath string) *model.Element {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if f := p.files[filePath]; f != nil {
		return f.library
	}
	return nil
}

// Resolve builds the resolved syntax tree of a declared file against the
// current declarations of the project.
func (p *Project) Resolve(filePath string) (*ast.CompilationUnit, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	f := p.files[filePath]
	if f == nil {
		return nil, domainerrors.AddContext(
			domainerrors.New(domainerrors.CodeNotFound, "file not declared"),
			domainerrors.CtxPath, filePath)
	}
	return newUnitBuilder(p, f).unit(), nil
}

func libraryName(pkg, filePath string) string {
	base := strings.TrimSuffix(path.Base(filePath), path.Ext(filePath))
	if pkg == "" {
		return base
	}
	return pkg + "." + base
}

// lookupQualified finds a class by its dotted name.
func (p *Project) lookupQualified(name string) *classInfo {
	return p.qualified[name]
}

// packageClass finds a top-level class of pkg by simple name.
func (p *Project) packageClass(pkg, name string) *classInfo {
	files := p.packages[pkg]
	for _, filePath := range util.SortedStringKeys(files) {
		if c := files[filePath].classes[name]; c != nil {
			return c
		}
	}
	return nil
}

// packageLibraries returns the libraries of every file in pkg, by path.
func (p *Project) packageLibraries(pkg string) []*model.Element {
	files := p.packages[pkg]
	out := make([]*model.Element, 0, len(files))
	for _, filePath := range util.SortedStringKeys(files) {
		out = append(out, files[filePath].library)
	}
	return out
}

// lookupType resolves a type name as written inside class from of file f.
func (p *Project) lookupType(f *javaFile, from *classInfo, name string) *classInfo {
	if name == "" {
		return nil
	}
	if strings.Contains(name, ".") {
		if c := p.lookupQualified(name); c != nil {
			return c
		}
		parts := strings.Split(name, ".")
		c := p.lookupType(f, from, parts[0])
		for _, part := range parts[1:] {
			if c == nil {
				return nil
			}
			c = c.nested[part]
		}
		return c
	}

	for c := from; c != nil; c = c.outer {
		if c.name == name {
			return c
		}
		if n := c.nested[name]; n != nil {
			return n
		}
	}
	if c := f.classes[name]; c != nil {
		return c
	}
	for _, imp := range f.imports {
		if imp.static || imp.wildcard || lastSegment(imp.name) != name {
			continue
		}
		if c := p.lookupQualified(imp.name); c != nil {
			return c
		}
	}
	if c := p.packageClass(f.pkg, name); c != nil {
		return c
	}
	for _, imp := range f.imports {
		if imp.static || !imp.wildcard {
			continue
		}
		if c := p.packageClass(imp.name, name); c != nil {
			return c
		}
		if c := p.lookupQualified(imp.name + "." + name); c != nil {
			return c
		}
	}
	return nil
}

// supertypes returns the project classes c directly extends or implements.
func (p *Project) supertypes(c *classInfo) []*classInfo {
	var out []*classInfo
	if s := p.lookupType(c.file, c.outer, c.superName); s != nil {
		out = append(out, s)
	}
	for _, name := range c.interfaces {
		if s := p.lookupType(c.file, c.outer, name); s != nil {
			out = append(out, s)
		}
	}
	return out
}

// findMember looks name up in c and its project supertypes.
func (p *Project) findMember(c *classInfo, name string, method bool) *memberInfo {
	seen := make(map[*classInfo]bool)
	var walk func(c *classInfo) *memberInfo
	walk = func(c *classInfo) *memberInfo {
		if c == nil || seen[c] {
			return nil
		}
		seen[c] = true
		table := c.fields
		if method {
			table = c.methods
		}
		if m := table[name]; m != nil {
			return m
		}
		for _, s := range p.supertypes(c) {
			if m := walk(s); m != nil {
				return m
			}
		}
		return nil
	}
	return walk(c)
}

func lastSegment(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}
