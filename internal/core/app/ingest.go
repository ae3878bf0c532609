package app

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"crossref/internal/core/ports"
	"crossref/internal/shared/observability"
	"crossref/internal/shared/util"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

type scanResult struct {
	java []string
	html []string
}

// scan walks the root and returns the project paths of the Java and HTML
// files that are not excluded, sorted.
func (a *App) scan() (scanResult, error) {
	var res scanResult
	err := filepath.WalkDir(a.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != a.root && a.excludedDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, ok := a.relative(path)
		if !ok || a.excludedFile(rel) {
			return nil
		}
		switch a.kindOf(path) {
		case fileJava:
			res.java = append(res.java, rel)
		case fileHTML:
			res.html = append(res.html, rel)
		}
		return nil
	})
	sort.Strings(res.java)
	sort.Strings(res.html)
	return res, err
}

// warnings collects per-file problems from concurrent workers.
type warnings struct {
	mu   sync.Mutex
	list []string
}

func (w *warnings) add(path string, err error) {
	slog.Warn("skipping file", "path", path, "error", err)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.list = append(w.list, fmt.Sprintf("%s: %v", path, err))
}

func (w *warnings) len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.list)
}

// RunIndex declares every Java file below the root, then resolves and
// indexes Java and HTML files. Files that fail to read or parse are skipped
// with a warning. It returns once the index has applied every operation.
func (a *App) RunIndex(ctx context.Context, req ports.IndexRequest) (ports.IndexResult, error) {
	start := time.Now()
	if req.Root != "" {
		abs, err := filepath.Abs(req.Root)
		if err != nil {
			return ports.IndexResult{}, err
		}
		if abs != a.root {
			return ports.IndexResult{}, fmt.Errorf("index root %q differs from project root %q", abs, a.root)
		}
	}

	ctx, span := observability.Tracer().Start(ctx, "app.RunIndex")
	defer span.End()

	if err := a.Start(ctx); err != nil {
		return ports.IndexResult{}, err
	}

	files, err := a.scan()
	if err != nil {
		return ports.IndexResult{}, err
	}
	span.SetAttributes(
		attribute.Int("files.java", len(files.java)),
		attribute.Int("files.html", len(files.html)),
	)

	var warns warnings
	declared, err := a.forEachFile(ctx, files.java, a.declareJava, &warns)
	if err != nil {
		return ports.IndexResult{}, err
	}

	if _, err := a.forEachFile(ctx, declared, a.indexJava, &warns); err != nil {
		return ports.IndexResult{}, err
	}
	html, err := a.forEachFile(ctx, files.html, a.indexHTML, &warns)
	if err != nil {
		return ports.IndexResult{}, err
	}
	a.trackHTML(html...)

	if err := a.index.Flush(ctx); err != nil {
		return ports.IndexResult{}, err
	}

	result := ports.IndexResult{
		JavaFiles:  len(declared),
		HTMLFiles:  len(html),
		Skipped:    warns.len(),
		Duration:   time.Since(start),
		Statistics: a.index.GetStatistics(),
		Warnings:   warns.list,
	}
	slog.Info("index built",
		"java", result.JavaFiles,
		"html", result.HTMLFiles,
		"skipped", result.Skipped,
		"duration", result.Duration,
		"heap_mb", util.GetHeapAllocMB(),
		"index", result.Statistics)
	return result, nil
}

// forEachFile runs fn over paths with the configured worker count and rate
// limit. It returns the paths fn accepted, in input order. A failing file is
// recorded as a warning; only cancellation aborts the run.
func (a *App) forEachFile(ctx context.Context, paths []string, fn func(rel string) error, warns *warnings) ([]string, error) {
	ok := make([]bool, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.Config.Frontend.Workers)
	for i, rel := range paths {
		g.Go(func() error {
			if err := a.limiter.Wait(gctx, 1); err != nil {
				return err
			}
			if err := fn(rel); err != nil {
				warns.add(rel, err)
				return nil
			}
			ok[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(paths))
	for i, rel := range paths {
		if ok[i] {
			out = append(out, rel)
		}
	}
	return out, nil
}

func (a *App) declareJava(rel string) error {
	content, err := os.ReadFile(a.absolute(rel))
	if err != nil {
		return err
	}
	return a.analyzer.Declare(rel, content)
}

func (a *App) indexJava(rel string) error {
	unit, err := a.analyzer.Resolve(rel)
	if err != nil {
		return err
	}
	a.index.IndexUnit(unit)
	return nil
}

func (a *App) indexHTML(rel string) error {
	content, err := os.ReadFile(a.absolute(rel))
	if err != nil {
		return err
	}
	unit, err := a.analyzer.ResolveHTML(rel, content)
	if err != nil {
		return err
	}
	a.index.IndexHTMLUnit(unit)
	return nil
}

func (a *App) trackHTML(paths ...string) {
	a.htmlMu.Lock()
	defer a.htmlMu.Unlock()
	for _, rel := range paths {
		a.htmlFiles[rel] = true
	}
}

// untrackHTML drops rel, or everything below it when dir is set.
func (a *App) untrackHTML(rel string, dir bool) {
	a.htmlMu.Lock()
	defer a.htmlMu.Unlock()
	if !dir {
		delete(a.htmlFiles, rel)
		return
	}
	for path := range a.htmlFiles {
		if util.HasPathPrefix(path, rel) {
			delete(a.htmlFiles, path)
		}
	}
}

func (a *App) trackedHTML() []string {
	a.htmlMu.Lock()
	defer a.htmlMu.Unlock()
	return util.SortedStringKeys(a.htmlFiles)
}
