package config

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 100 * time.Millisecond

// Watcher reloads a configuration file when it changes on disk. A reload is
// passed to the callback only when it changes a setting that applies while
// running; invalid files and restart-only changes are logged and skipped.
type Watcher struct {
	path     string
	callback func(*Config)

	mu      sync.Mutex
	current *Config

	stop chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

// NewWatcher watches path. current is the configuration in effect; nil means
// every valid reload is delivered.
func NewWatcher(path string, current *Config, callback func(*Config)) *Watcher {
	return &Watcher{
		path:     path,
		callback: callback,
		current:  current,
		stop:     make(chan struct{}),
	}
}

// Start begins watching. The directory is watched so that editors replacing
// the file atomically are noticed.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		fw.Close()
		return err
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer fw.Close()
		w.loop(ctx, fw)
	}()
	slog.Debug("config watcher started", "path", w.path)
	return nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher) {
	target := filepath.Clean(w.path)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, w.reload)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			slog.Warn("config watcher error", "error", err)
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) Stop() {
	w.once.Do(func() { close(w.stop) })
	w.wg.Wait()
}

// Current returns the configuration last delivered, or the initial one.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		slog.Warn("config reload rejected", "path", w.path, "error", err)
		return
	}

	w.mu.Lock()
	old := w.current
	if fields := RestartRequired(old, cfg); len(fields) > 0 {
		slog.Warn("config changes need a restart", "path", w.path, "settings", fields)
	}
	if !HotChanged(old, cfg) {
		w.mu.Unlock()
		slog.Debug("config reload changed nothing applicable", "path", w.path)
		return
	}
	w.current = cfg
	w.mu.Unlock()

	slog.Info("config reloaded", "path", w.path)
	if w.callback != nil {
		w.callback(cfg)
	}
}
