package app

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"crossref/internal/core/config"
	domainerrors "crossref/internal/core/errors"
	"crossref/internal/core/ports"
	"crossref/internal/core/watcher"
	"crossref/internal/engine/model"
	"crossref/internal/shared/observability"
	"crossref/internal/shared/util"

	"go.opentelemetry.io/otel/attribute"
)

// Watch indexes the project and then keeps the index in sync with the file
// system until ctx is cancelled. When ConfigPath is set the config file is
// watched as well and reloads are passed to OnReload.
func (a *App) Watch(ctx context.Context, root string) error {
	if _, err := a.RunIndex(ctx, ports.IndexRequest{Root: root}); err != nil {
		return err
	}

	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Watch.ExcludeDirs,
		a.Config.Watch.ExcludeFiles,
		func(changes []watcher.Change) {
			a.HandleChanges(ctx, changes)
		},
	)
	if err != nil {
		return err
	}
	defer w.Close()

	exts := make([]string, 0, len(a.Config.Frontend.Extensions)+len(a.Config.Frontend.HTMLExtensions))
	exts = append(exts, a.Config.Frontend.Extensions...)
	exts = append(exts, a.Config.Frontend.HTMLExtensions...)
	w.SetExtensions(exts...)
	if err := w.Watch([]string{a.root}); err != nil {
		return err
	}

	if a.ConfigPath != "" {
		cw := config.NewWatcher(a.ConfigPath, a.Config, func(cfg *config.Config) {
			w.SetDebounce(cfg.Watch.Debounce)
			a.ApplyExcludes(ctx, cfg.Watch.ExcludeFiles)
			if a.OnReload != nil {
				a.OnReload(cfg)
			}
		})
		if err := cw.Start(ctx); err != nil {
			slog.Warn("config watch disabled", "path", a.ConfigPath, "error", err)
		} else {
			defer cw.Stop()
		}
	}

	slog.Info("watching for changes", "root", a.root, "debounce", a.Config.Watch.Debounce)
	<-ctx.Done()
	return nil
}

// HandleChanges applies one batch of file system changes to the front end and
// the index. Any Java change can alter how other files resolve, so it
// re-resolves every declared Java file and every known HTML file; a batch
// touching only HTML re-indexes just those files.
func (a *App) HandleChanges(ctx context.Context, changes []watcher.Change) {
	start := time.Now()
	ctx, span := observability.Tracer().Start(ctx, "app.HandleChanges")
	defer span.End()
	span.SetAttributes(attribute.Int("changes", len(changes)))

	javaTouched := false
	var htmlChanged []string
	for _, change := range changes {
		rel, ok := a.relative(change.Path)
		if !ok {
			continue
		}
		if change.Dir {
			a.removeDirectory(rel)
			javaTouched = true
			continue
		}
		if a.excludedPath(rel) {
			continue
		}

		switch a.kindOf(rel) {
		case fileJava:
			javaTouched = true
			if change.Removed {
				a.analyzer.Forget(rel)
				a.index.RemoveSource(a.analyzer.Source(rel))
				continue
			}
			if err := a.declareJava(rel); err != nil {
				slog.Warn("skipping changed file", "path", rel, "error", err)
				a.analyzer.Forget(rel)
				a.index.RemoveSource(a.analyzer.Source(rel))
			}
		case fileHTML:
			if change.Removed {
				a.untrackHTML(rel, false)
				a.index.RemoveSource(a.analyzer.Source(rel))
				continue
			}
			htmlChanged = append(htmlChanged, rel)
		}
	}

	javaIndexed, htmlChanged := a.reindex(javaTouched, htmlChanged)

	if err := a.index.Flush(ctx); err != nil {
		slog.Warn("index flush interrupted", "error", err)
		return
	}
	slog.Info("changes applied",
		"changes", len(changes),
		"java", javaIndexed,
		"html", len(htmlChanged),
		"duration", time.Since(start),
		"index", a.index.GetStatistics())
}

// reindex re-resolves every declared Java file when javaTouched, then indexes
// html, which with javaTouched grows to every tracked page. It returns the
// number of Java files resolved and the pages indexed.
func (a *App) reindex(javaTouched bool, html []string) (int, []string) {
	var javaIndexed int
	if javaTouched {
		for _, rel := range a.analyzer.Paths() {
			if err := a.indexJava(rel); err != nil {
				slog.Warn("failed to resolve file", "path", rel, "error", err)
				continue
			}
			javaIndexed++
		}
		html = mergePaths(html, a.trackedHTML())
	}
	for _, rel := range html {
		if err := a.indexHTML(rel); err != nil {
			slog.Warn("failed to index html file", "path", rel, "error", err)
			a.untrackHTML(rel, false)
			a.index.RemoveSource(a.analyzer.Source(rel))
			continue
		}
		a.trackHTML(rel)
	}
	return javaIndexed, html
}

// ApplyExcludes replaces the excluded file patterns. Files matching a pattern
// that was not excluded before are dropped from the front end and the index.
// Invalid patterns leave the current ones in place.
func (a *App) ApplyExcludes(ctx context.Context, patterns []string) {
	compiled, err := compileGlobs(patterns, "exclude file", '/')
	if err != nil {
		slog.Warn("exclude patterns not applied", "error", err)
		return
	}
	a.excludeMu.Lock()
	previous := a.excludePatterns
	a.excludeFiles = compiled
	a.excludePatterns = slices.Clone(patterns)
	a.excludeMu.Unlock()

	for _, pattern := range patterns {
		if slices.Contains(previous, pattern) {
			continue
		}
		if _, err := a.RemoveMatching(ctx, pattern); err != nil {
			slog.Warn("failed to drop newly excluded files", "pattern", pattern, "error", err)
		}
	}
}

// RemoveMatching drops every indexed file matching pattern from the front end
// and the index and returns how many files were dropped. A pattern without a
// slash matches file names at any depth.
func (a *App) RemoveMatching(ctx context.Context, pattern string) (int, error) {
	if !strings.Contains(pattern, "/") {
		pattern = "**/" + pattern
	}
	container, err := model.NewGlobContainer(pattern)
	if err != nil {
		return 0, domainerrors.AddContext(
			domainerrors.Wrap(err, domainerrors.CodeValidationError, "invalid pattern"),
			domainerrors.CtxField, "pattern")
	}

	var javaRemoved, removed int
	for _, rel := range a.analyzer.Paths() {
		if container.Contains(a.analyzer.Source(rel)) && a.analyzer.Forget(rel) {
			javaRemoved++
		}
	}
	for _, rel := range a.trackedHTML() {
		if container.Contains(a.analyzer.Source(rel)) {
			a.untrackHTML(rel, false)
			removed++
		}
	}
	removed += javaRemoved
	if removed == 0 {
		return 0, nil
	}

	a.index.RemoveSources(a.analyzer.ID(), container)
	a.reindex(javaRemoved > 0, nil)
	if err := a.index.Flush(ctx); err != nil {
		return removed, err
	}
	slog.Info("dropped matching files", "pattern", container.String(), "files", removed, "index", a.index.GetStatistics())
	return removed, nil
}

// removeDirectory drops every file below rel from the front end and the
// index.
func (a *App) removeDirectory(rel string) {
	for _, path := range a.analyzer.Paths() {
		if util.HasPathPrefix(path, rel) {
			a.analyzer.Forget(path)
		}
	}
	a.untrackHTML(rel, true)
	a.index.RemoveSources(a.analyzer.ID(), model.DirectoryContainer{Dir: rel})
}

// mergePaths returns the sorted union of two path lists.
func mergePaths(a, b []string) []string {
	set := make(map[string]bool, len(a)+len(b))
	for _, p := range a {
		set[p] = true
	}
	for _, p := range b {
		set[p] = true
	}
	return util.SortedStringKeys(set)
}
