package session

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"doc-rectifier/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// Watcher calls a callback whenever a file is rewritten. Editors often save
// by renaming a temporary file over the original, so the parent directory is
// watched and events are filtered by name. Bursts of events are coalesced.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(path string)

	fs       *fsnotify.Watcher
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewWatcher creates a watcher for path. Changes closer together than
// debounce are reported once.
func NewWatcher(path string, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fs.Add(filepath.Dir(abs)); err != nil {
		fs.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{
		path:     abs,
		debounce: debounce,
		fs:       fs,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// OnChange sets the callback. It runs on the watcher goroutine.
func (w *Watcher) OnChange(callback func(path string)) {
	w.onChange = callback
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start() {
	go w.watchLoop()
}

// Stop ends the watch and releases the underlying watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.fs.Close()
	})
}

// Done is closed when the watch loop has exited.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) watchLoop() {
	defer close(w.done)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logging.Logger().Warn("session: watch error", "path", w.path, "error", err)
		case <-timer.C:
			if w.onChange != nil {
				w.onChange(w.path)
			}
		}
	}
}
