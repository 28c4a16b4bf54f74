package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

const debounceDelay = 100 * time.Millisecond

// Watcher reloads a config file when it changes on disk and hands every
// valid new version to the registered callbacks.
type Watcher struct {
	path    string
	mu      sync.RWMutex
	config  *Config
	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc

	cbMu     sync.Mutex
	onChange []func(old, new *Config)
}

// NewWatcher creates a watcher for path, starting from current.
func NewWatcher(path string, current *Config) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	if current == nil {
		current = DefaultConfig()
	}
	return &Watcher{
		path:   path,
		config: current,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start watches the directory holding the config file, so editors that
// replace the file on save are seen too.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	w.watcher = watcher
	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	var timer *time.Timer
	for {
		select {
		case <-w.ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceDelay, func() {
				if err := w.Reload(); err != nil {
					log.Warnf("Config watcher: %v", err)
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warnf("Config watcher: %v", err)
		}
	}
}

// Reload reads the file now. An invalid file leaves the current config in
// place.
func (w *Watcher) Reload() error {
	next, err := LoadConfig(w.path)
	if err != nil {
		return fmt.Errorf("reload config: %w", err)
	}

	w.mu.Lock()
	old := w.config
	w.config = next
	w.mu.Unlock()

	log.Debugf("Reloaded config from %s", w.path)
	w.cbMu.Lock()
	cbs := append([]func(old, new *Config){}, w.onChange...)
	w.cbMu.Unlock()
	for _, cb := range cbs {
		cb(old, next)
	}
	return nil
}

// OnChange registers cb for every successful reload.
func (w *Watcher) OnChange(cb func(old, new *Config)) {
	w.cbMu.Lock()
	w.onChange = append(w.onChange, cb)
	w.cbMu.Unlock()
}

// Config returns the newest valid config.
func (w *Watcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.cancel()
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}
