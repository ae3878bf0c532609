// Package app wires the front end, the relationship index and the watcher
// into the use cases driven by the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"crossref/internal/core/config"
	"crossref/internal/core/ports"
	"crossref/internal/engine/frontend"
	"crossref/internal/engine/index"
	"crossref/internal/engine/model"
	"crossref/internal/shared/util"

	"github.com/gobwas/glob"
)

var _ ports.AnalysisService = (*App)(nil)

type App struct {
	Config *config.Config

	// OnReload is called with the new configuration when the watched config
	// file changes.
	OnReload   func(*config.Config)
	ConfigPath string

	index    *index.Index
	analyzer ports.SourceAnalyzer
	limiter  *util.Limiter

	excludeDirs []glob.Glob

	excludeMu       sync.RWMutex
	excludeFiles    []glob.Glob
	excludePatterns []string
	javaExts     map[string]bool
	htmlExts     map[string]bool

	htmlMu    sync.Mutex
	htmlFiles map[string]bool

	mu      sync.Mutex
	root    string
	running bool
	runErr  chan error
}

// New builds an App for one analysis context rooted at root.
func New(cfg *config.Config, root string) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	cache, err := frontend.NewParseCache(frontend.NewGrammarLoader(), cfg.Frontend.CacheSize)
	if err != nil {
		return nil, err
	}
	project := frontend.NewProject(model.NewContextID(), cache,
		frontend.WithScriptType(cfg.Frontend.HTMLScriptType))

	excludeDirs, err := compileGlobs(cfg.Watch.ExcludeDirs, "exclude dir")
	if err != nil {
		return nil, err
	}
	excludeFiles, err := compileGlobs(cfg.Watch.ExcludeFiles, "exclude file", '/')
	if err != nil {
		return nil, err
	}

	return &App{
		Config:       cfg,
		index:        index.New(),
		analyzer:     project,
		limiter:      util.NewFileLimiter(cfg.Frontend.MaxFilesPerSecond),
		excludeDirs:     excludeDirs,
		excludeFiles:    excludeFiles,
		excludePatterns: slices.Clone(cfg.Watch.ExcludeFiles),
		javaExts:        extensionSet(cfg.Frontend.Extensions),
		htmlExts:        extensionSet(cfg.Frontend.HTMLExtensions),
		htmlFiles:       make(map[string]bool),
		root:            abs,
	}, nil
}

func compileGlobs(patterns []string, label string, separators ...rune) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, separators...)
		if err != nil {
			return nil, fmt.Errorf("invalid %s pattern %q: %w", label, pattern, err)
		}
		out = append(out, g)
	}
	return out, nil
}

func extensionSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, ext := range exts {
		set[strings.ToLower(ext)] = true
	}
	return set
}

// Root returns the absolute project root.
func (a *App) Root() string {
	return a.root
}

// Index exposes the relationship index, mainly for tests and statistics.
func (a *App) Index() *index.Index {
	return a.index
}

// Start runs the index processor in the background. It is a no-op when the
// processor already runs. The processor outlives ctx; Close stops it.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return nil
	}
	a.running = true
	a.runErr = make(chan error, 1)
	runCtx := context.WithoutCancel(ctx)
	go func() {
		a.runErr <- a.index.Run(runCtx)
	}()
	return a.index.Flush(ctx)
}

// Close stops the index processor, finishing queued work when the config
// asks for a graceful stop.
func (a *App) Close(ctx context.Context) error {
	a.mu.Lock()
	running := a.running
	a.running = false
	a.mu.Unlock()
	if !running {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.Config.Index.StopTimeout)
	defer cancel()
	discarded, err := a.index.Stop(ctx, a.Config.Index.IsGraceful())
	if len(discarded) > 0 {
		slog.Info("index stopped with pending operations", "discarded", len(discarded))
	}
	if err != nil {
		return err
	}
	select {
	case err := <-a.runErr:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type fileKind int

const (
	fileOther fileKind = iota
	fileJava
	fileHTML
)

func (a *App) kindOf(path string) fileKind {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case a.javaExts[ext]:
		return fileJava
	case a.htmlExts[ext]:
		return fileHTML
	}
	return fileOther
}

// relative maps an absolute path below the root to the slash separated
// project path. ok is false for paths outside the root.
func (a *App) relative(path string) (string, bool) {
	return util.RelativeSlash(a.root, path)
}

func (a *App) absolute(rel string) string {
	return filepath.Join(a.root, filepath.FromSlash(rel))
}

func (a *App) excludedDir(path string) bool {
	base := filepath.Base(path)
	for _, g := range a.excludeDirs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

// excludedPath reports whether a project path lies in an excluded directory
// or is an excluded file.
func (a *App) excludedPath(rel string) bool {
	parts := strings.Split(rel, "/")
	for _, dir := range parts[:len(parts)-1] {
		if a.excludedDir(dir) {
			return true
		}
	}
	return a.excludedFile(rel)
}

func (a *App) excludedFile(rel string) bool {
	base := filepath.Base(filepath.FromSlash(rel))
	a.excludeMu.RLock()
	defer a.excludeMu.RUnlock()
	for _, g := range a.excludeFiles {
		if g.Match(base) || g.Match(rel) {
			return true
		}
	}
	return false
}
