// Package watcher turns file system notifications below a set of roots into
// debounced batches of changed and removed paths.
package watcher

import (
	"crypto/sha256"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"crossref/internal/shared/observability"
	"crossref/internal/shared/util"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// Change is one entry of a batch. Removed paths no longer exist; Dir marks
// the removal of a watched directory, standing for everything below it.
type Change struct {
	Path    string
	Removed bool
	Dir     bool
}

type Watcher struct {
	fsWatcher    *fsnotify.Watcher
	debounce     time.Duration
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
	extFilters   map[string]bool
	onChange     func([]Change)
	callbackMu   sync.Mutex

	roots   []string
	dirs    map[string]bool
	dirsMu  sync.Mutex
	hashes  map[string][sha256.Size]byte
	pending map[string]bool

	pendingMu sync.Mutex
	timer     *time.Timer
}

// NewWatcher compiles the exclusion globs. Directory globs match directory
// base names; file globs match the base name or the slash separated path
// relative to the watched root.
func NewWatcher(debounce time.Duration, excludeDirs, excludeFiles []string, onChange func([]Change)) (*Watcher, error) {
	if onChange == nil {
		return nil, os.ErrInvalid
	}

	compiledDirs := make([]glob.Glob, 0, len(excludeDirs))
	for _, pattern := range excludeDirs {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, err
		}
		compiledDirs = append(compiledDirs, g)
	}

	compiledFiles := make([]glob.Glob, 0, len(excludeFiles))
	for _, pattern := range excludeFiles {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		compiledFiles = append(compiledFiles, g)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher:    fsw,
		debounce:     debounce,
		excludeDirs:  compiledDirs,
		excludeFiles: compiledFiles,
		extFilters:   map[string]bool{".java": true, ".html": true, ".htm": true},
		onChange:     onChange,
		dirs:         make(map[string]bool),
		hashes:       make(map[string][sha256.Size]byte),
		pending:      make(map[string]bool),
	}, nil
}

// SetExtensions replaces the file extensions that are reported. An empty
// list reports every file.
func (w *Watcher) SetExtensions(extensions ...string) {
	extFilter := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		extFilter[normalized] = true
	}
	w.extFilters = extFilter
}

func (w *Watcher) SetDebounce(debounce time.Duration) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	w.debounce = debounce
}

// Watch adds every non-excluded directory below paths and starts delivering
// events.
func (w *Watcher) Watch(paths []string) error {
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		w.roots = append(w.roots, abs)
		if err := w.watchRecursive(abs); err != nil {
			return err
		}
	}

	go w.run()
	return nil
}

func (w *Watcher) watchRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && w.shouldExcludeDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return err
		}
		w.dirsMu.Lock()
		w.dirs[path] = true
		w.dirsMu.Unlock()
		return nil
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			observability.WatcherEventsTotal.Inc()
			w.handle(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&fsnotify.Create == fsnotify.Create {
		info, err := os.Stat(event.Name)
		if err == nil && info.IsDir() {
			if w.shouldExcludeDir(event.Name) {
				return
			}
			if err := w.watchRecursive(event.Name); err != nil {
				slog.Warn("failed to watch new directory", "path", event.Name, "error", err)
				return
			}
			w.enqueueExistingFiles(event.Name)
			return
		}
	}

	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 && w.forgetDir(event.Name) {
		w.scheduleChange(event.Name)
		return
	}

	if w.shouldExcludeFile(event.Name) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
		w.scheduleChange(event.Name)
	}
}

// forgetDir drops path and everything below it from the watched set. It
// reports whether path was a watched directory.
func (w *Watcher) forgetDir(path string) bool {
	w.dirsMu.Lock()
	defer w.dirsMu.Unlock()
	if !w.dirs[path] {
		return false
	}
	for dir := range w.dirs {
		if dir == path || strings.HasPrefix(dir, path+string(filepath.Separator)) {
			delete(w.dirs, dir)
		}
	}
	return true
}

func (w *Watcher) scheduleChange(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	w.pending[path] = true

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flushChanges)
}

// flushChanges classifies the pending paths and delivers them sorted by
// path. A file whose content hash is unchanged since it was last reported is
// left out.
func (w *Watcher) flushChanges() {
	w.callbackMu.Lock()
	defer w.callbackMu.Unlock()

	w.pendingMu.Lock()
	paths := util.SortedStringKeys(w.pending)
	w.pending = make(map[string]bool)
	w.pendingMu.Unlock()

	changes := make([]Change, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		switch {
		case err != nil:
			_, wasFile := w.hashes[path]
			delete(w.hashes, path)
			changes = append(changes, Change{Path: path, Removed: true, Dir: !wasFile && w.looksLikeDir(path)})
			w.forgetHashesBelow(path)
		case info.IsDir():
		default:
			content, err := os.ReadFile(path)
			if err != nil {
				slog.Warn("failed to read changed file", "path", path, "error", err)
				continue
			}
			sum := sha256.Sum256(content)
			if prev, ok := w.hashes[path]; ok && prev == sum {
				continue
			}
			w.hashes[path] = sum
			changes = append(changes, Change{Path: path})
		}
	}

	if len(changes) > 0 {
		w.onChange(changes)
	}
}

// looksLikeDir guesses whether a vanished path was a directory: it has no
// reported extension and was never seen as a file.
func (w *Watcher) looksLikeDir(path string) bool {
	return !w.extFilters[strings.ToLower(filepath.Ext(path))]
}

func (w *Watcher) forgetHashesBelow(dir string) {
	prefix := dir + string(filepath.Separator)
	for path := range w.hashes {
		if strings.HasPrefix(path, prefix) {
			delete(w.hashes, path)
		}
	}
}

func (w *Watcher) shouldExcludeDir(path string) bool {
	base := filepath.Base(path)
	for _, g := range w.excludeDirs {
		if g.Match(base) {
			return true
		}
	}
	return false
}

func (w *Watcher) shouldExcludeFile(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	if len(w.extFilters) > 0 && !w.extFilters[filepath.Ext(base)] {
		return true
	}

	rel := w.relative(path)
	for _, g := range w.excludeFiles {
		if g.Match(filepath.Base(path)) || (rel != "" && g.Match(rel)) {
			return true
		}
	}
	return false
}

// relative returns path relative to the first root containing it, slash
// separated, or "".
func (w *Watcher) relative(path string) string {
	for _, root := range w.roots {
		if rel, ok := util.RelativeSlash(root, path); ok {
			return rel
		}
	}
	return ""
}

func (w *Watcher) Close() error {
	w.pendingMu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.pendingMu.Unlock()
	return w.fsWatcher.Close()
}

func (w *Watcher) enqueueExistingFiles(root string) {
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info == nil || info.IsDir() {
			return nil
		}
		if w.shouldExcludeFile(path) {
			return nil
		}
		w.scheduleChange(path)
		return nil
	})
}
