package app

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"crossref/internal/core/config"
	domainerrors "crossref/internal/core/errors"
	"crossref/internal/core/ports"
	"crossref/internal/core/watcher"
	"crossref/internal/engine/model"
	"crossref/internal/shared/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shapeSource = `package shapes;

public abstract class Shape {
    protected int sides;

    public abstract double area();
}
`

const squareSource = `package shapes;

/** Overrides {@link Shape#area}. */
public class Square extends Shape {
    private double side;

    public Square(double side) {
        this.side = side;
        sides = 4;
    }

    public double area() {
        return side * side;
    }

    public static Square unit() {
        return new Square(1);
    }
}
`

const pageSource = `<html><body>
<script src="../src/shapes/Square.java"></script>
</body></html>
`

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		require.NoError(t, util.WriteStringWithDirs(filepath.Join(root, filepath.FromSlash(rel)), content, 0o644))
	}
	return root
}

func newTestApp(t *testing.T, root string) *App {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Frontend.Workers = 2
	a, err := New(cfg, root)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = a.Close(context.Background())
	})
	return a
}

func indexedApp(t *testing.T) (*App, string) {
	t.Helper()
	root := writeProject(t, map[string]string{
		"src/shapes/Shape.java":  shapeSource,
		"src/shapes/Square.java": squareSource,
		"web/index.html":         pageSource,
		"target/gen/Copy.java":   squareSource,
	})
	a := newTestApp(t, root)
	_, err := a.RunIndex(context.Background(), ports.IndexRequest{})
	require.NoError(t, err)
	return a, root
}

func relationships(t *testing.T, a *App, e *model.Element, r model.Relationship) []*model.Location {
	t.Helper()
	locs, err := a.Index().Relationships(context.Background(), e, r)
	require.NoError(t, err)
	return locs
}

func TestApp_RunIndex(t *testing.T) {
	root := writeProject(t, map[string]string{
		"src/shapes/Shape.java":  shapeSource,
		"src/shapes/Square.java": squareSource,
		"web/index.html":         pageSource,
		"target/gen/Copy.java":   squareSource,
	})
	a := newTestApp(t, root)

	res, err := a.RunIndex(context.Background(), ports.IndexRequest{Root: root})
	require.NoError(t, err)
	assert.Equal(t, 2, res.JavaFiles)
	assert.Equal(t, 1, res.HTMLFiles)
	assert.Zero(t, res.Skipped)
	assert.Empty(t, res.Warnings)
	assert.NotEmpty(t, res.Statistics)

	assert.Equal(t, []string{"src/shapes/Shape.java", "src/shapes/Square.java"}, a.analyzer.Paths())

	square := a.analyzer.Library("src/shapes/Square.java").DefiningUnit()
	refs := relationships(t, a, square, model.IsReferencedBy)
	require.Len(t, refs, 1)
	src, ok := model.SourceOf(refs[0].Element)
	require.True(t, ok)
	assert.Equal(t, "web/index.html", src.Path)

	_, err = a.RunIndex(context.Background(), ports.IndexRequest{Root: t.TempDir()})
	assert.Error(t, err)
}

func TestApp_FindReferences(t *testing.T) {
	a, root := indexedApp(t)
	ctx := context.Background()

	extended, err := a.FindReferences(ctx, ports.ReferencesRequest{
		Path:         "src/shapes/Shape.java",
		Class:        "Shape",
		Relationship: model.IsExtendedBy,
	})
	require.NoError(t, err)
	require.Len(t, extended, 1)
	assert.Equal(t, ports.Reference{
		Relationship: model.IsExtendedBy,
		Path:         "src/shapes/Square.java",
		Offset:       strings.Index(squareSource, "Shape {"),
		Length:       len("Shape"),
		Line:         4,
		Column:       29,
		Enclosing:    "Square",
	}, extended[0])

	reads, err := a.FindReferences(ctx, ports.ReferencesRequest{
		Path:         filepath.Join(root, "src", "shapes", "Square.java"),
		Class:        "Square",
		Member:       "side",
		Relationship: model.IsReadBy,
	})
	require.NoError(t, err)
	require.Len(t, reads, 2)
	for _, ref := range reads {
		assert.Equal(t, 13, ref.Line)
		assert.Equal(t, "Square.area", ref.Enclosing)
	}
	assert.Equal(t, 16, reads[0].Column)
	assert.Less(t, reads[0].Offset, reads[1].Offset)

	ctor, err := a.FindReferences(ctx, ports.ReferencesRequest{
		Path:   "src/shapes/Square.java",
		Class:  "Square",
		Member: "Square",
	})
	require.NoError(t, err)
	var created []ports.Reference
	for _, ref := range ctor {
		if ref.Relationship == model.IsReferencedBy {
			created = append(created, ref)
		}
	}
	require.Len(t, created, 1)
	assert.Equal(t, "Square.unit", created[0].Enclosing)
}

func TestApp_FindReferencesErrors(t *testing.T) {
	a, _ := indexedApp(t)
	ctx := context.Background()

	_, err := a.FindReferences(ctx, ports.ReferencesRequest{Path: "src/shapes/Shape.java"})
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeValidationError))

	_, err = a.FindReferences(ctx, ports.ReferencesRequest{Class: "Shape"})
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeValidationError))

	_, err = a.FindReferences(ctx, ports.ReferencesRequest{Path: "src/Missing.java", Class: "Missing"})
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeNotFound))

	outside := filepath.Join(t.TempDir(), "Other.java")
	_, err = a.FindReferences(ctx, ports.ReferencesRequest{Path: outside, Class: "Other"})
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeValidationError))
}

func TestApp_HandleChanges(t *testing.T) {
	a, root := indexedApp(t)
	ctx := context.Background()
	shape := model.NewElement(model.KindClass, "Shape", 0,
		a.analyzer.Library("src/shapes/Shape.java").DefiningUnit())
	abs := func(rel string) string { return filepath.Join(root, filepath.FromSlash(rel)) }

	require.Len(t, relationships(t, a, shape, model.IsExtendedBy), 1)

	// Square no longer extends Shape.
	detached := strings.Replace(squareSource, " extends Shape", "", 1)
	require.NoError(t, os.WriteFile(abs("src/shapes/Square.java"), []byte(detached), 0o644))
	a.HandleChanges(ctx, []watcher.Change{{Path: abs("src/shapes/Square.java")}})
	assert.Empty(t, relationships(t, a, shape, model.IsExtendedBy))

	// A new subclass is picked up.
	circle := "package shapes;\n\nclass Circle extends Shape {\n    public double area() { return 3; }\n}\n"
	require.NoError(t, util.WriteStringWithDirs(abs("src/shapes/Circle.java"), circle, 0o644))
	a.HandleChanges(ctx, []watcher.Change{{Path: abs("src/shapes/Circle.java")}})
	extended := relationships(t, a, shape, model.IsExtendedBy)
	require.Len(t, extended, 1)
	src, ok := model.SourceOf(extended[0].Element)
	require.True(t, ok)
	assert.Equal(t, "src/shapes/Circle.java", src.Path)

	// Removing it drops its facts and its declaration.
	require.NoError(t, os.Remove(abs("src/shapes/Circle.java")))
	a.HandleChanges(ctx, []watcher.Change{{Path: abs("src/shapes/Circle.java"), Removed: true}})
	assert.Empty(t, relationships(t, a, shape, model.IsExtendedBy))
	assert.False(t, a.analyzer.Declared("src/shapes/Circle.java"))

	// Excluded files are ignored.
	a.HandleChanges(ctx, []watcher.Change{{Path: abs("target/gen/Copy.java")}})
	assert.False(t, a.analyzer.Declared("target/gen/Copy.java"))
}

func TestApp_HandleDirectoryRemoval(t *testing.T) {
	a, root := indexedApp(t)
	ctx := context.Background()
	shape := model.NewElement(model.KindClass, "Shape", 0,
		a.analyzer.Library("src/shapes/Shape.java").DefiningUnit())
	square := a.analyzer.Library("src/shapes/Square.java").DefiningUnit()

	extra := filepath.Join(root, "src", "extra")
	tri := "package extra;\n\nimport shapes.Shape;\n\nclass Tri extends Shape {\n    public double area() { return 1; }\n}\n"
	require.NoError(t, util.WriteStringWithDirs(filepath.Join(extra, "Tri.java"), tri, 0o644))
	a.HandleChanges(ctx, []watcher.Change{{Path: filepath.Join(extra, "Tri.java")}})
	require.True(t, a.analyzer.Declared("src/extra/Tri.java"))
	require.Len(t, relationships(t, a, shape, model.IsExtendedBy), 2)

	require.NoError(t, os.RemoveAll(extra))
	require.NoError(t, os.RemoveAll(filepath.Join(root, "web")))
	a.HandleChanges(ctx, []watcher.Change{
		{Path: extra, Removed: true, Dir: true},
		{Path: filepath.Join(root, "web"), Removed: true, Dir: true},
	})
	assert.False(t, a.analyzer.Declared("src/extra/Tri.java"))
	assert.Len(t, relationships(t, a, shape, model.IsExtendedBy), 1)
	assert.Empty(t, relationships(t, a, square, model.IsReferencedBy))
	assert.Empty(t, a.trackedHTML())
}

func TestApp_HandleHTMLChanges(t *testing.T) {
	a, root := indexedApp(t)
	ctx := context.Background()
	square := a.analyzer.Library("src/shapes/Square.java").DefiningUnit()
	page := filepath.Join(root, "web", "index.html")

	require.NoError(t, os.WriteFile(page, []byte("<html></html>"), 0o644))
	a.HandleChanges(ctx, []watcher.Change{{Path: page}})
	assert.Empty(t, relationships(t, a, square, model.IsReferencedBy))

	require.NoError(t, os.WriteFile(page, []byte(pageSource), 0o644))
	a.HandleChanges(ctx, []watcher.Change{{Path: page}})
	assert.Len(t, relationships(t, a, square, model.IsReferencedBy), 1)

	require.NoError(t, os.Remove(page))
	a.HandleChanges(ctx, []watcher.Change{{Path: page, Removed: true}})
	assert.Empty(t, relationships(t, a, square, model.IsReferencedBy))
	assert.Empty(t, a.trackedHTML())
}

func TestApp_ApplyExcludes(t *testing.T) {
	a, _ := indexedApp(t)
	ctx := context.Background()
	shape := model.NewElement(model.KindClass, "Shape", 0,
		a.analyzer.Library("src/shapes/Shape.java").DefiningUnit())
	require.Len(t, relationships(t, a, shape, model.IsExtendedBy), 1)

	patterns := append(slices.Clone(a.Config.Watch.ExcludeFiles), "Square.java")
	a.ApplyExcludes(ctx, patterns)
	assert.False(t, a.analyzer.Declared("src/shapes/Square.java"))
	assert.True(t, a.analyzer.Declared("src/shapes/Shape.java"))
	assert.True(t, a.excludedPath("src/shapes/Square.java"))
	assert.Empty(t, relationships(t, a, shape, model.IsExtendedBy))

	// Patterns already in effect drop nothing further.
	a.ApplyExcludes(ctx, patterns)
	assert.True(t, a.analyzer.Declared("src/shapes/Shape.java"))

	// Invalid patterns keep the current ones.
	a.ApplyExcludes(ctx, []string{"["})
	assert.True(t, a.excludedPath("src/shapes/Square.java"))
}

func TestApp_RemoveMatching(t *testing.T) {
	a, _ := indexedApp(t)
	ctx := context.Background()
	square := a.analyzer.Library("src/shapes/Square.java").DefiningUnit()
	require.Len(t, relationships(t, a, square, model.IsReferencedBy), 1)

	n, err := a.RemoveMatching(ctx, "web/*.html")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Empty(t, a.trackedHTML())
	assert.Empty(t, relationships(t, a, square, model.IsReferencedBy))

	n, err = a.RemoveMatching(ctx, "*.kt")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = a.RemoveMatching(ctx, "[")
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeValidationError))
}

func TestHealthService_Check(t *testing.T) {
	a, _ := indexedApp(t)
	health := NewHealthService(a)

	status := health.Check(context.Background())
	assert.Equal(t, "up", status.Status)
	assert.Contains(t, status.Components["index"], "ok")
	assert.Equal(t, "ok (2 java files, 1 html files)", status.Components["frontend"])

	require.NoError(t, a.Close(context.Background()))
	status = health.Check(context.Background())
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "stopped", status.Components["index"])
}

func TestLineColumn(t *testing.T) {
	content := []byte("ab\ncd\n")
	cases := []struct {
		offset       int
		line, column int
	}{
		{0, 1, 1},
		{1, 1, 2},
		{3, 2, 1},
		{4, 2, 2},
		{6, 3, 1},
		{7, 0, 0},
		{-1, 0, 0},
	}
	for _, tc := range cases {
		line, col := lineColumn(content, tc.offset)
		assert.Equal(t, tc.line, line, "offset %d", tc.offset)
		assert.Equal(t, tc.column, col, "offset %d", tc.offset)
	}
}
