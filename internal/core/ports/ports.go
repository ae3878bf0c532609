package ports

import (
	"context"
	"time"

	"crossref/internal/engine/ast"
	"crossref/internal/engine/model"
)

// RelationshipIndex abstracts the serialized relationship index.
type RelationshipIndex interface {
	IndexUnit(unit *ast.CompilationUnit)
	IndexHTMLUnit(unit *ast.HTMLUnit)
	RemoveSource(source model.Source)
	RemoveSources(context model.ContextID, container model.SourceContainer)
	RemoveContext(context model.ContextID)
	Relationships(ctx context.Context, element *model.Element, relationship model.Relationship) ([]*model.Location, error)
	Flush(ctx context.Context) error
	GetStatistics() string
}

// SourceAnalyzer abstracts the front end of one analysis context: it turns
// file contents into resolved units.
type SourceAnalyzer interface {
	ID() model.ContextID
	Source(path string) model.Source
	Declare(path string, content []byte) error
	Forget(path string) bool
	Declared(path string) bool
	Paths() []string
	Library(path string) *model.Element
	Resolve(path string) (*ast.CompilationUnit, error)
	ResolveHTML(path string, content []byte) (*ast.HTMLUnit, error)
}

// IndexRequest defines an ingestion run over the files below Root.
type IndexRequest struct {
	Root string
}

// IndexResult summarizes a completed ingestion run.
type IndexResult struct {
	JavaFiles  int           `json:"java_files"`
	HTMLFiles  int           `json:"html_files"`
	Skipped    int           `json:"skipped"`
	Duration   time.Duration `json:"duration_ns"`
	Statistics string        `json:"statistics"`
	Warnings   []string      `json:"warnings,omitempty"`
}

// ReferencesRequest selects the element whose relationships are listed. Path
// is relative to the project root; Class and Member are simple names and
// Member may be empty.
type ReferencesRequest struct {
	Path         string
	Class        string
	Member       string
	Relationship model.Relationship
}

// Reference is one location rendered for driving adapters.
type Reference struct {
	Relationship model.Relationship `json:"relationship"`
	Path         string             `json:"path"`
	Offset       int                `json:"offset"`
	Length       int                `json:"length"`
	Line         int                `json:"line"`
	Column       int                `json:"column"`
	Enclosing    string             `json:"enclosing,omitempty"`
}

// AnalysisService is the driving-port surface used by the CLI.
type AnalysisService interface {
	RunIndex(ctx context.Context, req IndexRequest) (IndexResult, error)
	FindReferences(ctx context.Context, req ReferencesRequest) ([]Reference, error)
	Watch(ctx context.Context, root string) error
}
