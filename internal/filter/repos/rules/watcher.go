package rules

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/haukened/s1-filter/internal/filter/common/log"
)

// DefaultDebounce is the quiet period a Watcher waits for before firing.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reports changes to a single rule file. It watches the parent
// directory so editors that save by rename are still observed.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   log.Logger
}

// NewWatcher returns a Watcher for path. debounce <= 0 uses DefaultDebounce.
func NewWatcher(path string, debounce time.Duration, logger log.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Watcher{path: filepath.Clean(path), debounce: debounce, logger: logger}
}

// Run blocks until ctx is cancelled, calling onChange once per burst of
// writes, creates, renames or removals of the watched file. onChange runs on
// a timer goroutine and calls never overlap.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	w.logger.Info(map[string]any{"path": w.path, "debounce_ms": w.debounce.Milliseconds()}, "Rule file watcher started")

	var (
		mu    sync.Mutex
		timer *time.Timer
		fire  sync.Mutex
	)
	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounce, func() {
			if ctx.Err() != nil {
				return
			}
			fire.Lock()
			defer fire.Unlock()
			onChange()
		})
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(map[string]any{"path": w.path}, "Rule file watcher stopped")
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
				continue
			}
			w.logger.Debug(map[string]any{"path": ev.Name, "op": ev.Op.String()}, "Rule file event")
			trigger()
		case err, ok := <-fw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(map[string]any{"error": err.Error()}, "Rule file watcher error")
		}
	}
}
