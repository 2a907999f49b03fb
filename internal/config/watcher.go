package config

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the config file when it changes on disk and hands the new
// configuration to a callback. Invalid edits are logged and ignored.
type Watcher struct {
	mu       sync.Mutex
	service  *Service
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration
	onChange func(*Config)
	done     chan struct{}
	stopped  chan struct{}
	running  bool
}

// NewWatcher creates a watcher for the service's config file.
func NewWatcher(service *Service, logger *slog.Logger, onChange func(*Config)) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		service:  service,
		watcher:  fw,
		logger:   logger,
		debounce: 200 * time.Millisecond,
		onChange: onChange,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

// Start begins watching. Editors often replace the file instead of writing
// it, so the parent directory is watched and events are filtered by name.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	if err := w.watcher.Add(filepath.Dir(w.service.Path())); err != nil {
		return err
	}
	w.running = true
	go w.watch()

	w.logger.Debug("config watcher started", "path", w.service.Path())
	return nil
}

// Stop stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	w.running = false
	close(w.done)
	w.mu.Unlock()

	err := w.watcher.Close()
	<-w.stopped
	return err
}

func (w *Watcher) watch() {
	defer close(w.stopped)

	filename := filepath.Base(w.service.Path())
	var pending <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				// Coalesce the burst of events a single save produces.
				pending = time.After(w.debounce)
			}

		case <-pending:
			pending = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) reload() {
	if err := w.service.Load(); err != nil {
		w.logger.Warn("config reload failed, keeping previous config", "path", w.service.Path(), "error", err)
		return
	}
	w.logger.Info("config reloaded", "path", w.service.Path())
	if w.onChange != nil {
		w.onChange(w.service.Get())
	}
}
