// Package watch re-runs a handler whenever a watched transcript changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ccollicutt/ifextract/pkg/logger"
)

// DefaultDebounce collapses bursts of writes to one handler call.
const DefaultDebounce = 300 * time.Millisecond

// Handler is called with the path of a changed file.
type Handler func(ctx context.Context, path string)

// Watcher watches the directories of a set of file patterns.
type Watcher struct {
	fs       *fsnotify.Watcher
	patterns []string
	handler  Handler
	debounce time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
	ready  chan string
	done   chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long a file must be quiet before the handler runs.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a Watcher for patterns (plain paths or filepath.Match globs).
// The parent directory of every pattern is watched so files created later
// or replaced by editors are still seen.
func New(patterns []string, handler Handler, opts ...Option) (*Watcher, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no paths to watch")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{
		fs:       fsw,
		handler:  handler,
		debounce: DefaultDebounce,
		timers:   make(map[string]*time.Timer),
		ready:    make(chan string, 16),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	dirs := make(map[string]bool)
	for _, p := range patterns {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		if _, err := filepath.Match(abs, abs); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("invalid pattern %q: %w", p, err)
		}
		w.patterns = append(w.patterns, abs)

		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watching %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	return w, nil
}

// Matches reports whether path is covered by one of the watched patterns.
func (w *Watcher) Matches(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, p := range w.patterns {
		if ok, _ := filepath.Match(p, abs); ok {
			return true
		}
	}
	return false
}

// Run dispatches change events until ctx is cancelled. Handler calls are
// serialised on the calling goroutine.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 || !w.Matches(ev.Name) {
				continue
			}
			logger.Debugf("change detected: %s (%s)", ev.Name, ev.Op)
			w.schedule(ev.Name)

		case path := <-w.ready:
			w.handler(ctx, path)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("watch error: %v", err)
		}
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		select {
		case w.ready <- path:
		case <-w.done:
		}
	})
}

func (w *Watcher) stop() {
	w.mu.Lock()
	for _, t := range w.timers {
		t.Stop()
	}
	w.timers = map[string]*time.Timer{}
	w.mu.Unlock()
	close(w.done)
	w.fs.Close()
}
