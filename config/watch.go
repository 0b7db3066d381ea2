package config

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig configures a config file watcher
type WatcherConfig struct {
	// Path is the config file to watch
	Path string

	// Loader builds the effective config whenever Path changes
	Loader *Loader

	// DebounceDelay is how long to wait for more changes before reloading
	DebounceDelay time.Duration

	// OnChange receives every successfully loaded config
	OnChange func(*Config)

	// Logger for logging events
	Logger *slog.Logger
}

// Watcher reloads configuration when its file changes
type Watcher struct {
	config  WatcherConfig
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	timerMu sync.Mutex
	timer   *time.Timer
}

// NewWatcher creates a watcher. The parent directory is watched so that
// editors replacing the file by rename are noticed.
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("watch path is required")
	}
	if config.OnChange == nil {
		return nil, fmt.Errorf("OnChange callback is required")
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.Loader == nil {
		config.Loader = NewLoader(config.Logger)
	}
	if config.DebounceDelay <= 0 {
		config.DebounceDelay = 200 * time.Millisecond
	}

	absPath, err := filepath.Abs(config.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve watch path: %w", err)
	}
	config.Path = absPath

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(absPath), err)
	}

	return &Watcher{
		config:  config,
		watcher: fsw,
		logger:  config.Logger,
	}, nil
}

// Run processes file events until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.config.Path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Config watcher error", "error", err)
		}
	}
}

func (w *Watcher) schedule() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.config.DebounceDelay, w.reload)
}

func (w *Watcher) stopTimer() {
	w.timerMu.Lock()
	defer w.timerMu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) reload() {
	cfg, err := w.config.Loader.Load(w.config.Path)
	if err != nil {
		w.logger.Warn("Config reload failed, keeping previous config",
			"path", w.config.Path, "error", err)
		return
	}
	w.logger.Info("Config reloaded", "path", w.config.Path)
	w.config.OnChange(cfg)
}
