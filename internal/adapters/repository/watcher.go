package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/okian/tipping/pkg/logger"
	"github.com/okian/tipping/pkg/metrics"
)

// Watcher reloads a MemoryStore when any of its dataset files change.
// Bursts of writes are coalesced into one reload after the debounce window.
type Watcher struct {
	mu       sync.Mutex
	store    *MemoryStore
	watcher  *fsnotify.Watcher
	targets  map[string]struct{}
	pending  time.Time
	debounce time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
	reloads  int
}

// NewWatcher creates a watcher for the store's files. It watches the parent
// directories so editors that replace files by rename are seen too.
func NewWatcher(store *MemoryStore) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	w := &Watcher{
		store:    store,
		watcher:  fw,
		targets:  make(map[string]struct{}),
		debounce: store.debounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, p := range store.files.Paths() {
		if abs, err := filepath.Abs(p); err == nil {
			w.targets[abs] = struct{}{}
		}
	}
	return w, nil
}

// Start begins watching. It is non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return ErrWatcherRunning
	}
	w.running = true
	w.mu.Unlock()

	log := logger.Get().Named("watcher")
	dirs := make(map[string]struct{})
	for t := range w.targets {
		dirs[filepath.Dir(t)] = struct{}{}
	}
	for d := range dirs {
		if err := w.watcher.Add(d); err != nil {
			// The directory may appear later; loads keep reporting the gap.
			log.Warn(ctx, "cannot watch data directory", logger.String("dir", d), logger.Error(err))
			continue
		}
		log.Info(ctx, "watching data directory", logger.String("dir", d))
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for its loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	_ = w.watcher.Close()
}

// Reloads returns how many reloads the watcher has triggered.
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	log := logger.Get().Named("watcher")

	tick := time.NewTicker(w.debounce / 4)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			metrics.RecordErrorByComponent("watcher", "fsnotify")
			log.Error(ctx, "watcher error", logger.Error(err))
		case <-tick.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return
	}
	if _, ok := w.targets[abs]; !ok {
		return
	}
	var op string
	switch {
	case ev.Has(fsnotify.Create):
		op = "create"
	case ev.Has(fsnotify.Write):
		op = "write"
	case ev.Has(fsnotify.Remove):
		op = "remove"
	case ev.Has(fsnotify.Rename):
		op = "rename"
	default:
		return
	}
	metrics.RecordWatcherEvent(op)

	w.mu.Lock()
	w.pending = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	if w.pending.IsZero() || time.Since(w.pending) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = time.Time{}
	w.reloads++
	w.mu.Unlock()

	// Failures are logged and counted by Load; the old snapshot stays active.
	_ = w.store.Load(ctx)
}
