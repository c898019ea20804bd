package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"airbnb-eda/utils"
)

// Watcher re-runs a handler whenever one of a fixed set of dataset files is
// written, created or renamed into place. Bursts of events within the
// debounce window collapse into a single run.
type Watcher struct {
	fs       *fsnotify.Watcher
	files    map[string]struct{}
	debounce time.Duration
	logger   *utils.Logger

	mu      sync.Mutex
	pending map[string]struct{}
}

// New watches the directories holding files. Only events for the listed
// files reach the handler.
func New(files []string, debounce time.Duration, logger *utils.Logger) (*Watcher, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("watcher: no files to watch")
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: %w", err)
	}

	w := &Watcher{
		fs:       fs,
		files:    make(map[string]struct{}, len(files)),
		debounce: debounce,
		logger:   logger,
		pending:  make(map[string]struct{}),
	}

	dirs := make(map[string]struct{})
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fs.Close()
			return nil, fmt.Errorf("watcher: %s: %w", f, err)
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fs.Add(dir); err != nil {
			fs.Close()
			return nil, fmt.Errorf("watcher: add %s: %w", dir, err)
		}
		logger.Debug("[watcher] Watching %s", dir)
	}
	return w, nil
}

// Run blocks until ctx is cancelled or the underlying watcher fails. The
// handler receives the changed files of one debounced burst and never runs
// concurrently with itself.
func (w *Watcher) Run(ctx context.Context, handler func(changed []string)) error {
	defer w.fs.Close()

	timer := time.NewTimer(time.Hour)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("[watcher] %s %s", event.Op, event.Name)
			w.mu.Lock()
			w.pending[w.key(event.Name)] = struct{}{}
			w.mu.Unlock()
			timer.Reset(w.debounce)

		case <-timer.C:
			changed := w.drain()
			if len(changed) > 0 {
				w.logger.Info("[watcher] %d file(s) changed, re-running", len(changed))
				handler(changed)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher: %w", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	_, ok := w.files[w.key(event.Name)]
	return ok
}

func (w *Watcher) key(name string) string {
	if abs, err := filepath.Abs(name); err == nil {
		return abs
	}
	return name
}

func (w *Watcher) drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	changed := make([]string, 0, len(w.pending))
	for f := range w.pending {
		changed = append(changed, f)
	}
	w.pending = make(map[string]struct{})
	return changed
}
