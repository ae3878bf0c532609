package model

import (
	"strings"

	"crossref/internal/shared/util"

	"github.com/gobwas/glob"
	"github.com/google/uuid"
)

// ContextID identifies one analysis context (a project or workspace root).
type ContextID string

// NewContextID returns a fresh, never reused context identifier.
func NewContextID() ContextID {
	return ContextID(uuid.NewString())
}

// Source is the backing identity of a compilation unit. Two sources are equal
// only when both the context and the path match.
type Source struct {
	Context ContextID
	Path    string
}

func (s Source) IsZero() bool {
	return s.Path == ""
}

func (s Source) String() string {
	if s.Context == "" {
		return s.Path
	}
	return string(s.Context) + ":" + s.Path
}

// SourceContainer selects a group of sources, e.g. everything below a folder
// that was deleted.
type SourceContainer interface {
	Contains(source Source) bool
}

// DirectoryContainer contains every source at or below Dir.
type DirectoryContainer struct {
	Dir string
}

func (c DirectoryContainer) Contains(source Source) bool {
	return util.HasPathPrefix(source.Path, c.Dir)
}

// GlobContainer contains every source whose slash-separated path matches the
// compiled pattern.
type GlobContainer struct {
	pattern string
	g       glob.Glob
}

func NewGlobContainer(pattern string) (*GlobContainer, error) {
	g, err := glob.Compile(strings.TrimSpace(pattern), '/')
	if err != nil {
		return nil, err
	}
	return &GlobContainer{pattern: pattern, g: g}, nil
}

func (c *GlobContainer) Contains(source Source) bool {
	if c == nil || c.g == nil {
		return false
	}
	return c.g.Match(util.NormalizePatternPath(source.Path))
}

func (c *GlobContainer) String() string {
	if c == nil {
		return ""
	}
	return c.pattern
}

// SourceOf walks the enclosing chain of e until it finds a unit with a
// concrete backing source. Libraries resolve through their defining unit; a
// library without one, the universe and name elements have no source.
func SourceOf(e *Element) (Source, bool) {
	for cur := e; cur != nil; cur = cur.enclosing {
		switch cur.kind {
		case KindUnit, KindHTML:
			if !cur.source.IsZero() {
				return cur.source, true
			}
		case KindLibrary:
			if cur.definingUnit != nil && !cur.definingUnit.source.IsZero() {
				return cur.definingUnit.source, true
			}
			return Source{}, false
		case KindUniverse, KindName:
			return Source{}, false
		}
	}
	return Source{}, false
}
