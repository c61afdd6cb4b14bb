package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the YAML config file when it changes and notifies
// listeners with the freshly parsed file contents.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
	debounce time.Duration

	mu       sync.RWMutex
	current  *Config
	onChange []func(*Config)

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewWatcher creates a watcher for path. The file must exist and parse.
func NewWatcher(path string, logger *zap.Logger) (*Watcher, error) {
	initial, err := ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial config: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory so atomic saves (write to temp, rename) are seen.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	return &Watcher{
		path:     path,
		watcher:  fw,
		logger:   logger,
		debounce: 100 * time.Millisecond,
		current:  initial,
		stopCh:   make(chan struct{}),
	}, nil
}

// OnChange registers a listener invoked after every successful reload
func (w *Watcher) OnChange(fn func(*Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, fn)
}

// Current returns the last successfully loaded file contents
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Start begins watching for configuration changes
func (w *Watcher) Start() {
	go w.watchLoop()
	w.logger.Info("Configuration watcher started", zap.String("path", w.path))
}

// Stop stops watching for configuration changes
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
		w.logger.Info("Configuration watcher stopped")
	})
}

func (w *Watcher) watchLoop() {
	var debounceTimer *time.Timer
	target := filepath.Clean(w.path)

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	next, err := ReadFile(w.path)
	if err != nil {
		w.logger.Error("Failed to reload configuration, keeping current", zap.Error(err))
		return
	}

	w.mu.Lock()
	previous := w.current
	w.current = next
	listeners := append([]func(*Config){}, w.onChange...)
	w.mu.Unlock()

	if previous.LogLevel != next.LogLevel {
		w.logger.Info("Log level changed",
			zap.String("from", previous.LogLevel),
			zap.String("to", next.LogLevel),
		)
	}

	for _, fn := range listeners {
		fn(next)
	}
}
